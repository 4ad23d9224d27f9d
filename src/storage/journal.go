package storage

import (
	"database/sql"
	"fmt"

	"watchlist-trader/src/interfaces"
	"watchlist-trader/src/logger"
	"watchlist-trader/src/models"
)

// NewJournal returns the configured journal, or nil when journaling is off.
func NewJournal(cfg *models.MConfig, log *logger.Logger) (interfaces.IJournal, error) {
	if !cfg.Storage.Enabled {
		return nil, nil
	}
	switch cfg.Storage.DBType {
	case "sqlite":
		return NewSQLiteJournal(cfg, log), nil
	case "postgres":
		return NewPostgresJournal(cfg, log), nil
	}
	return nil, fmt.Errorf("unsupported database type: %s", cfg.Storage.DBType)
}

// -----------------------------------------------------------------------------

// journalArgs flattens an entry into the column order shared by both backends.
func journalArgs(e models.MJournalEntry) []interface{} {
	level := sql.NullFloat64{}
	if e.Level != nil {
		level = sql.NullFloat64{Float64: *e.Level, Valid: true}
	}
	qty := sql.NullInt64{}
	if e.Quantity != nil {
		qty = sql.NullInt64{Int64: *e.Quantity, Valid: true}
	}
	return []interface{}{
		e.CreatedAt,
		e.RequestID,
		e.Action,
		e.Symbol,
		string(e.Side),
		string(e.Reference),
		level,
		qty,
		string(e.OrderID),
		e.Success,
		e.Detail,
	}
}
