package google

import (
	"context"
	"os"
	"strings"
	"testing"

	gsheet "google.golang.org/api/sheets/v4"

	ports "fintrack/internal/sheets"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "  ", "Journal")
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestServiceAccountCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	if _, err := serviceAccountCredentials(context.Background()); err == nil ||
		!strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}

	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", `{"type":"service_account"}`)
	b, err := serviceAccountCredentials(context.Background())
	if err != nil || string(b) != `{"type":"service_account"}` {
		t.Fatalf("inline credentials = %q, %v", b, err)
	}

	dir := t.TempDir()
	path := dir + "/sa.json"
	if err := os.WriteFile(path, []byte(`{"from":"file"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", path)
	b, err = serviceAccountCredentials(context.Background())
	if err != nil || string(b) != `{"from":"file"}` {
		t.Fatalf("file credentials = %q, %v", b, err)
	}

	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", dir+"/missing.json")
	if _, err := serviceAccountCredentials(context.Background()); err == nil {
		t.Fatal("expected error for unreadable credentials file")
	}
}

func TestClient_AppendWithoutService(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: "Journal"}

	_, err := c.Append(context.Background(), ports.JournalEntry{Action: "created"})
	if err == nil || !strings.Contains(err.Error(), "without transaction id") {
		t.Errorf("expected missing id error, got %v", err)
	}

	_, err = c.Append(context.Background(), ports.JournalEntry{Action: "deleted", TransactionID: "tx-1"})
	if err == nil || err.Error() != "sheets service not initialized" {
		t.Errorf("expected uninitialized service error, got %v", err)
	}

	if _, err := c.Rows(context.Background()); err == nil {
		t.Error("expected error reading without service")
	}
}

func TestHasSheet(t *testing.T) {
	sheets := []*gsheet.Sheet{
		nil,
		{Properties: &gsheet.SheetProperties{Title: "Summary"}},
		{Properties: &gsheet.SheetProperties{Title: "Journal"}},
	}
	if !hasSheet(sheets, "Journal") {
		t.Error("hasSheet() should find Journal")
	}
	if hasSheet(sheets, "journal") {
		t.Error("hasSheet() is case sensitive")
	}
}

func TestToRows(t *testing.T) {
	values := [][]any{
		{"2026-03-01T10:00:00Z", "created", "tx-1", "2026-03-01", "expense", 12.5, "Checking", "Food", " Coffee "},
		{},
		{"2026-03-02T10:00:00Z", "deleted", "tx-1"},
	}

	rows := toRows(values)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0][5] != "12.5" || rows[0][8] != "Coffee" {
		t.Errorf("first row = %v", rows[0])
	}
	if len(rows[1]) != 3 {
		t.Errorf("second row = %v", rows[1])
	}
}

func TestToValues(t *testing.T) {
	got := toValues(ports.Header)
	if len(got) != len(ports.Header) || got[0] != "Occurred At" {
		t.Errorf("toValues(Header) = %v", got)
	}
}
