package ledger

import (
	"context"
	"sync"
	"time"

	"watchlist-trader/src/helpers"
	"watchlist-trader/src/interfaces"
	"watchlist-trader/src/logger"
	"watchlist-trader/src/models"
	"watchlist-trader/src/watchlist"

	"github.com/sourcegraph/conc"
)

// Poller mirrors the backend's open orders and positions while a subscription
// is active. Each list is replaced wholesale by its own newest response;
// failures keep the last known list.
type Poller struct {
	backend  interfaces.ILedgerBackend
	orders   interfaces.IOrderBackend
	journal  interfaces.IJournal
	interval time.Duration
	timeout  time.Duration
	logger   *logger.Logger
	errs     *helpers.ErrorHandler

	mu        sync.Mutex
	epoch     uint64
	running   bool
	ctx       context.Context
	cancel    context.CancelFunc
	ordersSeq uint64
	ordersAt  uint64
	posSeq    uint64
	posAt     uint64
	openList  []models.MOrderRecord
	posList   []models.MPositionRecord
	updatedAt time.Time
	observers []func()
}

func NewPoller(backend interfaces.ILedgerBackend, orders interfaces.IOrderBackend, journal interfaces.IJournal,
	interval, timeout time.Duration, log *logger.Logger) *Poller {
	if log == nil {
		log = logger.NewLogger(nil, "Ledger")
	}
	return &Poller{
		backend:  backend,
		orders:   orders,
		journal:  journal,
		interval: interval,
		timeout:  timeout,
		logger:   log,
		errs:     helpers.NewErrorHandler(log),
	}
}

// -----------------------------------------------------------------------------

// OnChange registers fn to run after either list is replaced. It must not block.
func (p *Poller) OnChange(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, fn)
}

func (p *Poller) HandleTransition(t watchlist.Transition) {
	if t.To == models.StateSubscribed {
		p.Start(t.Seq)
		return
	}
	p.Stop()
}

// -----------------------------------------------------------------------------

// Start refreshes immediately and then on every interval until Stop.
func (p *Poller) Start(epoch uint64) {
	p.mu.Lock()
	p.stopLocked()
	ctx, cancel := context.WithCancel(context.Background())
	p.epoch = epoch
	p.running = true
	p.ctx = ctx
	p.cancel = cancel
	p.mu.Unlock()

	go p.loop(ctx, epoch)
}

// Stop cancels the timer and any in-flight refresh. The lists are kept.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Poller) stopLocked() {
	if !p.running {
		return
	}
	p.cancel()
	p.running = false
	p.logger.Debug("ledger polling stopped (epoch %d)", p.epoch)
}

// -----------------------------------------------------------------------------

func (p *Poller) loop(ctx context.Context, epoch uint64) {
	p.refresh(ctx, epoch, true)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refresh(ctx, epoch, true)
		}
	}
}

// refresh fetches orders, and positions when withPositions, concurrently.
func (p *Poller) refresh(ctx context.Context, epoch uint64, withPositions bool) {
	var wg conc.WaitGroup
	wg.Go(func() { p.fetchOrders(ctx, epoch) })
	if withPositions {
		wg.Go(func() { p.fetchPositions(ctx, epoch) })
	}
	wg.Wait()
}

// RefreshOrders schedules an immediate order-list refresh outside the timer.
// It does nothing unless polling is running.
func (p *Poller) RefreshOrders() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	ctx, epoch := p.ctx, p.epoch
	p.mu.Unlock()

	go p.refresh(ctx, epoch, false)
}

// -----------------------------------------------------------------------------

func (p *Poller) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout > 0 {
		return context.WithTimeout(ctx, p.timeout)
	}
	return context.WithCancel(ctx)
}

func (p *Poller) fetchOrders(ctx context.Context, epoch uint64) {
	p.mu.Lock()
	if !p.current(epoch) {
		p.mu.Unlock()
		return
	}
	p.ordersSeq++
	seq := p.ordersSeq
	p.mu.Unlock()

	reqCtx, cancel := p.requestContext(ctx)
	defer cancel()
	list, err := p.backend.ListOrders(reqCtx)

	p.mu.Lock()
	if !p.current(epoch) || seq <= p.ordersAt {
		p.mu.Unlock()
		return
	}
	if err != nil {
		p.mu.Unlock()
		p.errs.Handle(err, "ledger.orders")
		return
	}
	p.openList = list
	p.ordersAt = seq
	p.updatedAt = time.Now()
	p.mu.Unlock()

	p.errs.Handle(nil, "ledger.orders")
	p.notify()
}

func (p *Poller) fetchPositions(ctx context.Context, epoch uint64) {
	p.mu.Lock()
	if !p.current(epoch) {
		p.mu.Unlock()
		return
	}
	p.posSeq++
	seq := p.posSeq
	p.mu.Unlock()

	reqCtx, cancel := p.requestContext(ctx)
	defer cancel()
	list, err := p.backend.ListPositions(reqCtx)

	p.mu.Lock()
	if !p.current(epoch) || seq <= p.posAt {
		p.mu.Unlock()
		return
	}
	if err != nil {
		p.mu.Unlock()
		p.errs.Handle(err, "ledger.positions")
		return
	}
	p.posList = list
	p.posAt = seq
	p.updatedAt = time.Now()
	p.mu.Unlock()

	p.errs.Handle(nil, "ledger.positions")
	p.notify()
}

func (p *Poller) current(epoch uint64) bool {
	return p.running && p.epoch == epoch
}

func (p *Poller) notify() {
	p.mu.Lock()
	observers := append([]func(){}, p.observers...)
	p.mu.Unlock()
	for _, fn := range observers {
		fn()
	}
}

// -----------------------------------------------------------------------------

// Cancel forwards a cancellation request. On success the order list is
// refreshed right away.
func (p *Poller) Cancel(ctx context.Context, orderID models.OrderID) error {
	if orderID == "" {
		return helpers.NewValidationError("order id is required")
	}

	err := p.orders.CancelOrder(ctx, orderID)
	p.record(orderID, err)
	if err != nil {
		p.logger.Warning("cancel of order %s failed: %v", orderID, err)
		return err
	}

	p.logger.Info("order %s cancelled", orderID)
	p.RefreshOrders()
	return nil
}

func (p *Poller) record(orderID models.OrderID, err error) {
	if p.journal == nil {
		return
	}
	entry := models.MJournalEntry{
		Action:    "cancel",
		OrderID:   orderID,
		Success:   err == nil,
		CreatedAt: time.Now().UnixMilli(),
	}
	if err != nil {
		entry.Detail = err.Error()
	}
	if jerr := p.journal.Record(entry); jerr != nil {
		p.logger.Warning("journal write failed: %v", jerr)
	}
}

// -----------------------------------------------------------------------------
// Readers
// -----------------------------------------------------------------------------

func (p *Poller) Orders() []models.MOrderRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.MOrderRecord{}, p.openList...)
}

func (p *Poller) Positions() []models.MPositionRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.MPositionRecord{}, p.posList...)
}

func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) UpdatedAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updatedAt
}
