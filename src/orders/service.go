package orders

import (
	"context"
	"time"

	"watchlist-trader/src/interfaces"
	"watchlist-trader/src/logger"
	"watchlist-trader/src/models"

	"github.com/google/uuid"
)

// Service resolves user actions and submits them, one request per action.
type Service struct {
	Backend  interfaces.IOrderBackend
	Resolver *Resolver
	Journal  interfaces.IJournal // optional
	Logger   *logger.Logger

	// OnSubmitted runs after a confirmed submission, e.g. to refresh the ledger.
	OnSubmitted func()

	newRequestID func() string
}

func NewService(backend interfaces.IOrderBackend, resolver *Resolver, journal interfaces.IJournal, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewLogger(nil, "Orders")
	}
	return &Service{
		Backend:      backend,
		Resolver:     resolver,
		Journal:      journal,
		Logger:       log,
		newRequestID: uuid.NewString,
	}
}

// -----------------------------------------------------------------------------

// Place resolves the action against snapshot and submits the intent.
// Validation failures never reach the backend.
func (s *Service) Place(ctx context.Context, symbol string, side models.Side, ref models.Reference,
	snapshot *models.MWatchlistSnapshot, customValue *float64) (models.MOrderConfirmation, error) {

	intent, level, err := s.Resolver.resolve(symbol, side, ref, snapshot, customValue)
	if err != nil {
		s.Logger.Warning("rejected %s %s@%s: %v", side, symbol, ref, err)
		return models.MOrderConfirmation{}, err
	}
	return s.submit(ctx, intent, &level)
}

// Submit sends an already resolved intent.
func (s *Service) Submit(ctx context.Context, intent models.MOrderIntent) (models.MOrderConfirmation, error) {
	return s.submit(ctx, intent, intent.CustomValue)
}

// -----------------------------------------------------------------------------

func (s *Service) submit(ctx context.Context, intent models.MOrderIntent, level *float64) (models.MOrderConfirmation, error) {
	requestID := s.newRequestID()
	log := s.Logger.With("request_id", requestID)
	log.Info("submitting %s %s@%s", intent.Side, intent.Symbol, intent.Reference)

	conf, err := s.Backend.SubmitOrder(ctx, requestID, intent)

	entry := models.MJournalEntry{
		RequestID: requestID,
		Action:    "submit",
		Symbol:    intent.Symbol,
		Side:      intent.Side,
		Reference: intent.Reference,
		Level:     level,
		Quantity:  intent.Quantity,
		OrderID:   conf.OrderID,
		Success:   err == nil,
		CreatedAt: time.Now().UnixMilli(),
	}
	if err != nil {
		entry.Detail = err.Error()
	} else {
		entry.Detail = string(conf.Raw)
	}
	s.record(entry)

	if err != nil {
		log.Error("order submission failed: %v", err)
		return models.MOrderConfirmation{}, err
	}

	log.Info("order %s accepted", conf.OrderID)
	if s.OnSubmitted != nil {
		s.OnSubmitted()
	}
	return conf, nil
}

func (s *Service) record(entry models.MJournalEntry) {
	if s.Journal == nil {
		return
	}
	if err := s.Journal.Record(entry); err != nil {
		s.Logger.Warning("journal write failed: %v", err)
	}
}
