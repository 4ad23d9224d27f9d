package watchlist

import (
	"context"
	"sync"

	"watchlist-trader/src/helpers"
	"watchlist-trader/src/interfaces"
	"watchlist-trader/src/logger"
	"watchlist-trader/src/models"
)

// Transition is published on every subscription state change.
type Transition struct {
	Seq     uint64
	From    models.SubscriptionState
	To      models.SubscriptionState
	Symbols []string // active set after the change; the requested set while subscribing
	Err     error

	// Snapshot is the stats returned with the subscribe acknowledgement. Set
	// only on entering Subscribed.
	Snapshot map[string]models.MTickerStat
}

// Options for one subscribe attempt. A nil TestMode is resolved by the
// manager's TestModeFor hook.
type Options struct {
	TestMode *bool
}

// -----------------------------------------------------------------------------

// Manager owns the subscription lifecycle and the active symbol set. Each
// attempt is tagged with a sequence number; a response that comes back after
// a newer attempt started is discarded.
type Manager struct {
	backend interfaces.IWatchlistBackend
	logger  *logger.Logger

	// TestModeFor decides testMode when Options.TestMode is nil.
	TestModeFor func(symbols []string) bool

	mu        sync.Mutex
	seq       uint64
	state     models.SubscriptionState
	symbols   []string
	pending   []string
	testMode  bool
	lastErr   string
	inputs    map[string]string
	listeners []func(Transition)
}

func NewManager(backend interfaces.IWatchlistBackend, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.NewLogger(nil, "Subscription")
	}
	return &Manager{
		backend: backend,
		logger:  log,
		state:   models.StateIdle,
		inputs:  make(map[string]string),
	}
}

// -----------------------------------------------------------------------------

// OnTransition registers a listener. Listeners run synchronously, in order,
// while the manager is locked: they must not block or call back into the
// manager.
func (m *Manager) OnTransition(fn func(Transition)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// -----------------------------------------------------------------------------

// SubscribeText parses text and subscribes to the resulting set.
func (m *Manager) SubscribeText(ctx context.Context, text string, opts Options) error {
	symbols, err := ParseNonEmpty(text)
	if err != nil {
		return err
	}
	return m.Subscribe(ctx, symbols, opts)
}

// -----------------------------------------------------------------------------

// Subscribe sends exactly one subscription request for symbols. An empty set
// is rejected without touching the network or the current state.
func (m *Manager) Subscribe(ctx context.Context, symbols []string, opts Options) error {
	if len(symbols) == 0 {
		return helpers.NewValidationError("enter at least one symbol")
	}
	symbols = append([]string(nil), symbols...)

	testMode := false
	if opts.TestMode != nil {
		testMode = *opts.TestMode
	} else if m.TestModeFor != nil {
		testMode = m.TestModeFor(symbols)
	}

	m.mu.Lock()
	m.seq++
	seq := m.seq
	m.pending = symbols
	m.testMode = testMode
	m.lastErr = ""
	m.transitionLocked(Transition{To: models.StateSubscribing, Symbols: symbols})
	m.mu.Unlock()

	m.logger.Info("subscribing #%d to %v (testMode=%t)", seq, symbols, testMode)
	ack, err := m.backend.Subscribe(ctx, models.MSubscribeRequest{Symbols: symbols, TestMode: testMode})

	m.mu.Lock()
	defer m.mu.Unlock()

	if seq != m.seq {
		m.logger.Debug("discarding response for superseded subscription #%d", seq)
		return helpers.ErrSuperseded
	}
	m.pending = nil

	if err != nil {
		m.symbols = nil
		m.inputs = make(map[string]string)
		m.lastErr = err.Error()
		m.logger.Warning("subscription #%d failed: %v", seq, err)
		m.transitionLocked(Transition{To: models.StateFailed, Err: err})
		return err
	}

	m.symbols = symbols
	m.inputs = make(map[string]string, len(symbols))
	for _, s := range symbols {
		m.inputs[s] = ""
	}
	m.logger.Info("subscription #%d active for %d symbol(s)", seq, len(symbols))
	m.transitionLocked(Transition{To: models.StateSubscribed, Symbols: symbols, Snapshot: ack})
	return nil
}

// -----------------------------------------------------------------------------

// Unsubscribe returns to Idle. Any attempt still in flight becomes stale.
func (m *Manager) Unsubscribe() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	m.symbols = nil
	m.pending = nil
	m.lastErr = ""
	m.inputs = make(map[string]string)
	m.transitionLocked(Transition{To: models.StateIdle})
}

// -----------------------------------------------------------------------------

// transitionLocked stamps t with the current sequence and state and publishes it.
func (m *Manager) transitionLocked(t Transition) {
	t.Seq = m.seq
	t.From = m.state
	t.Symbols = append([]string(nil), t.Symbols...)
	m.state = t.To
	for _, fn := range m.listeners {
		fn(t)
	}
}

// -----------------------------------------------------------------------------
// Readers
// -----------------------------------------------------------------------------

func (m *Manager) State() models.SubscriptionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Symbols returns a copy of the active set; empty unless subscribed.
func (m *Manager) Symbols() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.symbols...)
}

func (m *Manager) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) Status() models.MSubscriptionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.MSubscriptionStatus{
		Seq:       m.seq,
		State:     m.state,
		Symbols:   append([]string{}, m.symbols...),
		Pending:   append([]string(nil), m.pending...),
		TestMode:  m.testMode,
		LastError: m.lastErr,
	}
}

// -----------------------------------------------------------------------------
// Custom price inputs
// -----------------------------------------------------------------------------

// SetCustomInput stores the raw text typed for symbol's custom price.
func (m *Manager) SetCustomInput(symbol, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.inputs[symbol]; !ok || m.state != models.StateSubscribed {
		return helpers.NewValidationError("%s is not in the active watchlist", symbol)
	}
	m.inputs[symbol] = text
	return nil
}

func (m *Manager) CustomInput(symbol string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	text, ok := m.inputs[symbol]
	return text, ok
}

func (m *Manager) CustomInputs() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.inputs))
	for k, v := range m.inputs {
		out[k] = v
	}
	return out
}

// IsActive reports whether symbol belongs to the current subscription.
func (m *Manager) IsActive(symbol string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != models.StateSubscribed {
		return false
	}
	_, ok := m.inputs[symbol]
	return ok
}
