package helpers

import (
	"sync"

	"watchlist-trader/src/logger"
)

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

// ErrorHandler logs errors that are swallowed by background loops and keeps
// a count of consecutive failures per context.
type ErrorHandler struct {
	Logger *logger.Logger

	mu       sync.Mutex
	failures map[string]int
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	if log == nil {
		log = logger.NewLogger(nil, "ErrorHandler")
	}
	return &ErrorHandler{
		Logger:   log,
		failures: make(map[string]int),
	}
}

// -----------------------------------------------------------------------------

// Handle records err under context. A nil err resets the counter.
func (e *ErrorHandler) Handle(err error, context string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err == nil {
		if e.failures[context] > 0 {
			e.Logger.Info("%s recovered after %d failure(s)", context, e.failures[context])
		}
		delete(e.failures, context)
		return
	}

	e.failures[context]++
	if IsValidation(err) {
		e.Logger.Warning("Error in %s: %v", context, err)
		return
	}
	e.Logger.Error("Error in %s (consecutive: %d): %v", context, e.failures[context], err)
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) Failures(context string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failures[context]
}
