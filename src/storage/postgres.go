package storage

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"watchlist-trader/src/logger"
	"watchlist-trader/src/models"

	_ "github.com/lib/pq"
)

var unsafeSchemaChars = regexp.MustCompile(`[^a-z0-9_]+`)

// PostgresJournal keeps the order journal in a schema named after the
// application, recreated on every start.
type PostgresJournal struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresJournal(cfg *models.MConfig, log *logger.Logger) *PostgresJournal {
	if log == nil {
		log = logger.NewLogger(cfg, "Journal")
	}
	return &PostgresJournal{Config: cfg, Schema: SchemaName(cfg.Name), Logger: log}
}

// SchemaName lower-cases name and replaces anything outside [a-z0-9_].
func SchemaName(name string) string {
	s := unsafeSchemaChars.ReplaceAllString(strings.ToLower(name), "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "watchlist_trader"
	}
	return s
}

// -----------------------------------------------------------------------------

func (d *PostgresJournal) Initialize() error {
	db, err := sql.Open("postgres", d.Config.Storage.DBConnectionString)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}
	d.DB = db

	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}
	return d.recreateTables()
}

// -----------------------------------------------------------------------------

func (d *PostgresJournal) table() string {
	return fmt.Sprintf(`"%s".order_journal`, d.Schema)
}

func (d *PostgresJournal) recreateTables() error {
	if _, err := d.DB.Exec("DROP TABLE IF EXISTS " + d.table()); err != nil {
		return fmt.Errorf("failed to drop order_journal: %w", err)
	}

	query := fmt.Sprintf(`
		CREATE TABLE %s (
			id BIGSERIAL PRIMARY KEY,
			created_at BIGINT NOT NULL,
			request_id TEXT,
			action TEXT NOT NULL,
			symbol TEXT,
			side TEXT,
			reference TEXT,
			level DOUBLE PRECISION,
			quantity BIGINT,
			order_id TEXT,
			success BOOLEAN NOT NULL,
			detail TEXT
		);
	`, d.table())
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create order_journal: %w", err)
	}

	d.Logger.Info("Postgres journal ready in schema %s", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresJournal) Record(entry models.MJournalEntry) error {
	if d.DB == nil {
		return fmt.Errorf("journal not initialized")
	}
	_, err := d.DB.Exec(fmt.Sprintf(`
		INSERT INTO %s
			(created_at, request_id, action, symbol, side, reference, level, quantity, order_id, success, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`, d.table()),
		journalArgs(entry)...)
	if err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresJournal) Close() error {
	if d.DB == nil {
		return nil
	}
	return d.DB.Close()
}
