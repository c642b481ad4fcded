package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/storage"
	"fintrack/internal/worker"
)

// Globals defines global flags available to all admin commands.
type Globals struct {
	DB       string `help:"SQLite database path." env:"SQLITE_DB_PATH" default:"./data/fintrack.db"`
	LogLevel string `help:"Log level (debug, info, warn, error)." env:"LOG_LEVEL" default:"warn"`
}

// Commands is the fintrack-admin command tree.
type Commands struct {
	Globals

	Migrate    MigrateCmd    `cmd:"" help:"Apply pending database migrations."`
	CreateUser CreateUserCmd `cmd:"" help:"Register a user."`
	Seed       SeedCmd       `cmd:"" help:"Create the default accounts and categories for a user."`
	Summary    SummaryCmd    `cmd:"" help:"Print a monthly summary as JSON."`
	Trends     TrendsCmd     `cmd:"" help:"Print the six-month spending trend as JSON."`
	Journal    JournalCmd    `cmd:"" help:"Print the rows of the Google Sheets journal."`
	Replay     ReplayCmd     `cmd:"" help:"Journal pending transaction events once and exit."`
}

// logger writes to stderr so command output on stdout stays parseable.
func (g *Globals) logger() *log.Logger {
	cfg := log.DefaultConfig()
	if lvl, err := log.ParseLevel(g.LogLevel); err == nil {
		cfg.Level = lvl
	}
	cfg.Component = log.ComponentAdmin
	cfg.Output = os.Stderr
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

func (g *Globals) open() (*storage.SQLiteRepository, *log.Logger, error) {
	logger := g.logger()
	repo, err := storage.NewSQLiteRepository(g.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("open database %s: %w", g.DB, err)
	}
	return repo, logger, nil
}

type MigrateCmd struct{}

func (cmd *MigrateCmd) Run(out io.Writer, globals *Globals) error {
	logger := globals.logger()
	if err := storage.RunMigrations(globals.DB); err != nil {
		return err
	}
	version, dirty, err := storage.MigrationVersion(globals.DB)
	if err != nil {
		return err
	}
	logger.Info("Migrations applied", log.FieldOperation, log.OpMigrate, "version", version)
	_, err = fmt.Fprintf(out, "schema version %d (dirty: %t)\n", version, dirty)
	return err
}

type CreateUserCmd struct {
	First    string `help:"First name." required:""`
	Last     string `help:"Last name." required:""`
	Email    string `help:"Email address." required:""`
	Password string `help:"Password." required:"" env:"FINTRACK_PASSWORD"`

	JWTSecret string        `name:"jwt-secret" help:"Secret used to print an access token for the new user." env:"JWT_SECRET"`
	JWTTTL    time.Duration `name:"jwt-ttl" help:"Lifetime of the printed token." env:"JWT_TTL" default:"168h"`
}

func (cmd *CreateUserCmd) Run(out io.Writer, globals *Globals) error {
	repo, _, err := globals.open()
	if err != nil {
		return err
	}
	defer repo.Close()

	// Without a secret the session token is discarded, so any key will do.
	secret := cmd.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
	}
	tokens, err := auth.NewTokenIssuer(secret, cmd.JWTTTL)
	if err != nil {
		return err
	}

	session, err := auth.NewService(repo, tokens).Register(context.Background(), auth.RegisterInput{
		FirstName: cmd.First,
		LastName:  cmd.Last,
		Email:     cmd.Email,
		Password:  cmd.Password,
	})
	if err != nil {
		return err
	}
	if cmd.JWTSecret == "" {
		return printJSON(out, session.User)
	}
	return printJSON(out, session)
}

type SeedCmd struct {
	Email    string `help:"Email of the user to seed." required:""`
	Currency string `help:"Currency for the seeded accounts." env:"DEFAULT_CURRENCY" default:"INR"`
}

type seedResult struct {
	Accounts   []core.Account  `json:"accounts"`
	Categories []core.Category `json:"categories"`
}

func (cmd *SeedCmd) Run(out io.Writer, globals *Globals) error {
	repo, _, err := globals.open()
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx := context.Background()
	user, err := lookupUser(ctx, repo, cmd.Email)
	if err != nil {
		return err
	}

	accounts, err := services.NewAccountService(repo, cmd.Currency).SeedDefaults(ctx, user.ID)
	if err != nil {
		return err
	}
	categories, err := services.NewCategoryService(repo).SeedDefaults(ctx, user.ID)
	if err != nil {
		return err
	}
	return printJSON(out, seedResult{Accounts: accounts, Categories: categories})
}

type SummaryCmd struct {
	Email string `help:"Email of the user." required:""`
	Year  int    `help:"Calendar year. Defaults to the current year."`
	Month int    `help:"Month 1-12. Defaults to the current month."`
}

func (cmd *SummaryCmd) Run(out io.Writer, globals *Globals) error {
	repo, _, err := globals.open()
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx := context.Background()
	user, err := lookupUser(ctx, repo, cmd.Email)
	if err != nil {
		return err
	}

	now := time.Now()
	year, month := cmd.Year, cmd.Month
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}

	summary, err := services.NewReportService(repo).MonthlySummary(ctx, user.ID, year, month)
	if err != nil {
		return err
	}
	return printJSON(out, summary)
}

type TrendsCmd struct {
	Email string `help:"Email of the user." required:""`
}

func (cmd *TrendsCmd) Run(out io.Writer, globals *Globals) error {
	repo, _, err := globals.open()
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx := context.Background()
	user, err := lookupUser(ctx, repo, cmd.Email)
	if err != nil {
		return err
	}

	trends, err := services.NewReportService(repo).SpendingTrends(ctx, user.ID)
	if err != nil {
		return err
	}
	return printJSON(out, trends)
}

// SheetFlags select the Google Sheets journal. Credentials are read from
// the GOOGLE_SERVICE_ACCOUNT_* environment.
type SheetFlags struct {
	SpreadsheetID string `name:"spreadsheet-id" help:"Journal spreadsheet ID." env:"GOOGLE_SPREADSHEET_ID" required:""`
	SheetName     string `name:"sheet" help:"Journal sheet name." env:"GOOGLE_SHEET_NAME" default:"Journal"`
}

type JournalCmd struct {
	SheetFlags
	Tail int `help:"Only print the last N rows." default:"0"`
}

func (cmd *JournalCmd) Run(out io.Writer, globals *Globals) error {
	globals.logger()
	ctx := context.Background()
	journal, err := gsheet.New(ctx, cmd.SpreadsheetID, cmd.SheetName)
	if err != nil {
		return err
	}
	rows, err := journal.Rows(ctx)
	if err != nil {
		return err
	}
	if cmd.Tail > 0 && len(rows) > cmd.Tail {
		rows = rows[len(rows)-cmd.Tail:]
	}
	return printJSON(out, rows)
}

type ReplayCmd struct {
	SheetFlags
	Limit       int `help:"Maximum number of events to journal." default:"100"`
	MaxAttempts int `help:"Skip events that already failed this many times (0 retries all)." env:"REPLAY_MAX_ATTEMPTS" default:"10"`
}

func (cmd *ReplayCmd) Run(out io.Writer, globals *Globals) error {
	if cmd.Limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", cmd.Limit)
	}
	repo, logger, err := globals.open()
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx := log.WithLogger(context.Background(), logger)
	journal, err := gsheet.New(ctx, cmd.SpreadsheetID, cmd.SheetName)
	if err != nil {
		return err
	}

	journalWorker := worker.NewJournalWorker(repo, journal)
	journalWorker.SetMaxAttempts(cmd.MaxAttempts)
	processed, err := journalWorker.ProcessPending(ctx, cmd.Limit)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "journaled %d events\n", processed)
	return err
}

func lookupUser(ctx context.Context, repo *storage.SQLiteRepository, email string) (core.User, error) {
	user, err := repo.GetUserByEmail(ctx, email)
	if core.IsNotFound(err) {
		return core.User{}, fmt.Errorf("no user with email %s", email)
	}
	return user, err
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
