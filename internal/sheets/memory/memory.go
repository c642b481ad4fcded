package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fintrack/internal/sheets"
)

var _ sheets.Journal = (*Store)(nil)

// Store keeps journal rows in process memory. Used in development and tests.
type Store struct {
	mu   sync.Mutex
	rows [][]string
}

func New() *Store {
	return &Store{}
}

// Append stores the entry and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e sheets.JournalEntry) (string, error) {
	if e.TransactionID == "" {
		return "", errors.New("journal entry without transaction id")
	}
	row := e.Row()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Store) Rows(_ context.Context) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}
