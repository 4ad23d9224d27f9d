package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"watchlist-trader/src/logger"
	"watchlist-trader/src/models"

	_ "modernc.org/sqlite"
)

// SQLiteJournal keeps the order journal in a local file. The table is
// recreated on every start: the journal covers one session only.
type SQLiteJournal struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger

	mu sync.Mutex
}

// -----------------------------------------------------------------------------

func NewSQLiteJournal(cfg *models.MConfig, log *logger.Logger) *SQLiteJournal {
	if log == nil {
		log = logger.NewLogger(cfg, "Journal")
	}
	return &SQLiteJournal{Config: cfg, Logger: log}
}

// -----------------------------------------------------------------------------

func (d *SQLiteJournal) Initialize() error {
	dsn := d.Config.Storage.DBPath
	if dir := filepath.Dir(dsn); dir != "." && dsn != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}
	d.DB = db

	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.recreateTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteJournal) recreateTables() error {
	if _, err := d.DB.Exec("DROP TABLE IF EXISTS order_journal"); err != nil {
		return fmt.Errorf("failed to drop order_journal: %w", err)
	}

	query := `
		CREATE TABLE order_journal (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at INTEGER NOT NULL,
			request_id TEXT,
			action TEXT NOT NULL,
			symbol TEXT,
			side TEXT,
			reference TEXT,
			level REAL,
			quantity INTEGER,
			order_id TEXT,
			success INTEGER NOT NULL,
			detail TEXT
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create order_journal: %w", err)
	}

	d.Logger.Info("SQLite journal ready at %s", d.Config.Storage.DBPath)
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteJournal) Record(entry models.MJournalEntry) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.DB == nil {
		return fmt.Errorf("journal not initialized")
	}
	_, err := d.DB.Exec(`
		INSERT INTO order_journal
			(created_at, request_id, action, symbol, side, reference, level, quantity, order_id, success, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		journalArgs(entry)...)
	if err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteJournal) Close() error {
	if d.DB == nil {
		return nil
	}
	return d.DB.Close()
}
