package interfaces

import "watchlist-trader/src/models"

// -----------------------------------------------------------------------------
// IJournal defines the contract for the order audit trail.
// -----------------------------------------------------------------------------

type IJournal interface {

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// Record appends one order action.
	Record(entry models.MJournalEntry) error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
