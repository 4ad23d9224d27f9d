package livedata

import (
	"sync"
	"time"

	"watchlist-trader/src/helpers"
	"watchlist-trader/src/interfaces"
	"watchlist-trader/src/logger"
	"watchlist-trader/src/models"
	"watchlist-trader/src/watchlist"
)

// Synchronizer keeps the latest snapshot for the active subscription. It runs
// one source per subscription lifetime, identified by the subscription
// sequence (epoch). Deliveries from an older epoch, after teardown, or with a
// sequence not newer than the installed one are dropped.
type Synchronizer struct {
	factory interfaces.SourceFactory
	logger  *logger.Logger
	errs    *helpers.ErrorHandler
	now     func() time.Time

	mu           sync.Mutex
	epoch        uint64
	active       bool
	mode         string
	symbols      map[string]struct{}
	stop         func()
	installedSeq uint64
	snapshot     *models.MWatchlistSnapshot
	lastErr      string
	observers    []func()
}

func NewSynchronizer(factory interfaces.SourceFactory, log *logger.Logger) *Synchronizer {
	if log == nil {
		log = logger.NewLogger(nil, "LiveData")
	}
	return &Synchronizer{
		factory: factory,
		logger:  log,
		errs:    helpers.NewErrorHandler(log),
		now:     time.Now,
	}
}

// -----------------------------------------------------------------------------

// OnChange registers fn to run after every install, error or teardown. fn runs
// on the delivering goroutine and must not block.
func (s *Synchronizer) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// HandleTransition follows the subscription lifecycle: a source runs only
// while subscribed.
func (s *Synchronizer) HandleTransition(t watchlist.Transition) {
	if t.To == models.StateSubscribed {
		s.Start(t.Seq, t.Symbols, t.Snapshot)
		return
	}
	s.Teardown()
}

// -----------------------------------------------------------------------------

// Start tears down any running source and starts a new one for symbols. A
// non-empty initial map is installed at sequence 0, so the first delivery
// from the source replaces it.
func (s *Synchronizer) Start(epoch uint64, symbols []string, initial map[string]models.MTickerStat) {
	source := s.factory(symbols)

	s.mu.Lock()
	prev, _ := s.teardownLocked()
	s.epoch = epoch
	s.active = true
	s.mode = source.Mode()
	s.symbols = make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		s.symbols[sym] = struct{}{}
	}
	seeded := len(initial) > 0
	if seeded {
		s.snapshot = &models.MWatchlistSnapshot{Stats: s.filterLocked(initial), ReceivedAt: s.now()}
	}
	s.mu.Unlock()

	if prev != nil {
		prev()
	}
	if seeded {
		s.notify()
	}

	stop := source.Start(
		func(seq uint64, stats map[string]models.MTickerStat) { s.install(epoch, seq, stats) },
		func(seq uint64, err error) { s.fail(epoch, seq, err) },
	)

	s.mu.Lock()
	if s.active && s.epoch == epoch {
		s.stop = stop
		s.mu.Unlock()
		s.logger.Info("live data started (%s) for %d symbol(s), epoch %d", source.Mode(), len(symbols), epoch)
		return
	}
	s.mu.Unlock()
	stop()
}

// -----------------------------------------------------------------------------

// Teardown stops the running source and clears the snapshot. Safe to call
// any number of times.
func (s *Synchronizer) Teardown() {
	s.mu.Lock()
	stop, had := s.teardownLocked()
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
	if had {
		s.notify()
	}
}

// teardownLocked resets the lifetime and hands back the source's stop
// function, which the caller runs after unlocking.
func (s *Synchronizer) teardownLocked() (func(), bool) {
	had := s.active || s.snapshot != nil
	stop := s.stop
	if stop != nil {
		s.stop = nil
		s.logger.Debug("stopping live data source for epoch %d", s.epoch)
	}
	s.active = false
	s.symbols = nil
	s.snapshot = nil
	s.installedSeq = 0
	s.lastErr = ""
	return stop, had
}

// -----------------------------------------------------------------------------

func (s *Synchronizer) install(epoch, seq uint64, stats map[string]models.MTickerStat) {
	s.mu.Lock()
	if !s.active || epoch != s.epoch || seq <= s.installedSeq {
		s.mu.Unlock()
		return
	}

	s.snapshot = &models.MWatchlistSnapshot{Seq: seq, Stats: s.filterLocked(stats), ReceivedAt: s.now()}
	s.installedSeq = seq
	s.lastErr = ""
	s.mu.Unlock()

	s.errs.Handle(nil, "livedata")
	s.notify()
}

func (s *Synchronizer) filterLocked(stats map[string]models.MTickerStat) map[string]models.MTickerStat {
	filtered := make(map[string]models.MTickerStat, len(s.symbols))
	for sym, st := range stats {
		if _, ok := s.symbols[sym]; ok {
			filtered[sym] = st
		}
	}
	return filtered
}

// fail records a source error. A sequenced error for a request older than the
// installed snapshot is dropped; seq 0 is always current.
func (s *Synchronizer) fail(epoch, seq uint64, err error) {
	s.mu.Lock()
	if !s.active || epoch != s.epoch {
		s.mu.Unlock()
		return
	}
	if seq != 0 && seq <= s.installedSeq {
		installed := s.installedSeq
		s.mu.Unlock()
		s.logger.Debug("dropping error for request %d, snapshot %d already installed: %v", seq, installed, err)
		return
	}
	s.lastErr = err.Error()
	s.mu.Unlock()

	s.errs.Handle(err, "livedata")
	s.notify()
}

func (s *Synchronizer) notify() {
	s.mu.Lock()
	observers := append([]func(){}, s.observers...)
	s.mu.Unlock()
	for _, fn := range observers {
		fn()
	}
}

// -----------------------------------------------------------------------------
// Readers
// -----------------------------------------------------------------------------

// Snapshot returns the installed snapshot or nil. Its Stats map is never
// modified after install and must be treated as read-only.
func (s *Synchronizer) Snapshot() *models.MWatchlistSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return nil
	}
	cp := *s.snapshot
	return &cp
}

func (s *Synchronizer) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Synchronizer) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Synchronizer) Mode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}
