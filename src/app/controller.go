package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"watchlist-trader/src/config"
	"watchlist-trader/src/helpers"
	"watchlist-trader/src/interfaces"
	"watchlist-trader/src/ledger"
	"watchlist-trader/src/livedata"
	"watchlist-trader/src/logger"
	"watchlist-trader/src/models"
	"watchlist-trader/src/orders"
	"watchlist-trader/src/utils"
	"watchlist-trader/src/watchlist"
)

// Controller wires the subscription, live data, order and ledger components
// together and renders their combined state. Components only talk through
// subscription transitions; none mutates another's state.
type Controller struct {
	Config   *config.Config
	Logger   *logger.Logger
	Journal  interfaces.IJournal
	Manager  *watchlist.Manager
	Sync     *livedata.Synchronizer
	Resolver *orders.Resolver
	Orders   *orders.Service
	Ledger   *ledger.Poller
	Hours    *utils.MarketHours

	changed chan struct{}

	mu           sync.Mutex
	lastOrder    []byte
	lastOrderErr string
	viewers      []func(models.MView)
}

// -----------------------------------------------------------------------------

func NewController(cfg *config.Config, backend interfaces.IBackend, sources interfaces.SourceFactory,
	journal interfaces.IJournal) *Controller {

	c := &Controller{
		Config:  cfg,
		Logger:  logger.NewLogger(cfg.MConfig, "Controller"),
		Journal: journal,
		changed: make(chan struct{}, 1),
	}

	c.Hours = utils.NewMarketHours(cfg.Subscription.TestMode, logger.NewLogger(cfg.MConfig, "MarketHours"))

	c.Manager = watchlist.NewManager(backend, logger.NewLogger(cfg.MConfig, "Subscription"))
	c.Manager.TestModeFor = c.Hours.TestMode

	c.Sync = livedata.NewSynchronizer(sources, logger.NewLogger(cfg.MConfig, "LiveData"))

	var sizer interfaces.ISizer
	if cfg.Orders.RiskBudget > 0 {
		sizer = orders.NewRiskBudgetSizer(cfg.Orders.RiskBudget)
	}
	c.Resolver = orders.NewResolver(orders.SidePolicy(cfg.Orders.SidePolicy), sizer)

	c.Ledger = ledger.NewPoller(backend, backend, journal, cfg.PollInterval(), cfg.RequestTimeout(),
		logger.NewLogger(cfg.MConfig, "Ledger"))

	c.Orders = orders.NewService(backend, c.Resolver, journal, logger.NewLogger(cfg.MConfig, "Orders"))
	c.Orders.OnSubmitted = c.Ledger.RefreshOrders

	c.Manager.OnTransition(c.Sync.HandleTransition)
	c.Manager.OnTransition(c.Ledger.HandleTransition)
	c.Manager.OnTransition(func(watchlist.Transition) { c.markChanged() })
	c.Sync.OnChange(c.markChanged)
	c.Ledger.OnChange(c.markChanged)

	return c
}

// -----------------------------------------------------------------------------

// OnView registers fn to receive a fresh view after every change.
func (c *Controller) OnView(fn func(models.MView)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewers = append(c.viewers, fn)
}

func (c *Controller) markChanged() {
	select {
	case c.changed <- struct{}{}:
	default:
	}
}

// Run publishes views until ctx is done, then tears the subscription down.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			c.Shutdown()
			return nil
		case <-c.changed:
			view := c.View()
			c.mu.Lock()
			viewers := append([]func(models.MView){}, c.viewers...)
			c.mu.Unlock()
			for _, fn := range viewers {
				fn(view)
			}
		}
	}
}

// Shutdown stops every timer and stream. Safe to call more than once.
func (c *Controller) Shutdown() {
	c.Manager.Unsubscribe()
	c.Sync.Teardown()
	c.Ledger.Stop()
	c.Logger.Info("controller stopped")
}

// -----------------------------------------------------------------------------
// Actions
// -----------------------------------------------------------------------------

func (c *Controller) Subscribe(ctx context.Context, text string, testMode *bool) error {
	return c.Manager.SubscribeText(ctx, text, watchlist.Options{TestMode: testMode})
}

func (c *Controller) Unsubscribe() {
	c.Manager.Unsubscribe()
}

func (c *Controller) SetCustomInput(symbol, text string) error {
	if err := c.Manager.SetCustomInput(normalizeSymbol(symbol), text); err != nil {
		return err
	}
	c.markChanged()
	return nil
}

// -----------------------------------------------------------------------------

func (c *Controller) PlaceOrder(ctx context.Context, req models.MOrderRequest) (models.MOrderConfirmation, error) {
	side, ok := models.ParseSide(req.Side)
	if !ok {
		return models.MOrderConfirmation{}, helpers.NewValidationError("side must be BUY or SELL, got %q", req.Side)
	}
	ref, ok := models.ParseReference(req.Reference)
	if !ok {
		return models.MOrderConfirmation{}, helpers.NewValidationError("unknown reference %q", req.Reference)
	}
	symbol := normalizeSymbol(req.Symbol)
	if !c.Manager.IsActive(symbol) {
		return models.MOrderConfirmation{}, helpers.NewValidationError("%s is not in the active watchlist", symbol)
	}

	custom := req.CustomValue
	if custom == nil && ref.NeedsCustomValue() {
		text, _ := c.Manager.CustomInput(symbol)
		v, err := orders.ParseCustomValue(text)
		if err != nil {
			return models.MOrderConfirmation{}, err
		}
		custom = &v
	}

	conf, err := c.Orders.Place(ctx, symbol, side, ref, c.Sync.Snapshot(), custom)

	c.mu.Lock()
	if err != nil {
		c.lastOrderErr = err.Error()
	} else {
		c.lastOrder = conf.Raw
		c.lastOrderErr = ""
	}
	c.mu.Unlock()
	c.markChanged()

	return conf, err
}

func (c *Controller) CancelOrder(ctx context.Context, orderID models.OrderID) error {
	return c.Ledger.Cancel(ctx, orderID)
}

// -----------------------------------------------------------------------------
// View
// -----------------------------------------------------------------------------

func (c *Controller) View() models.MView {
	status := c.Manager.Status()
	snapshot := c.Sync.Snapshot()
	inputs := c.Manager.CustomInputs()

	actions := make(map[string][]models.MOrderAction, len(status.Symbols))
	for _, symbol := range status.Symbols {
		var custom *float64
		if v, err := orders.ParseCustomValue(inputs[symbol]); err == nil {
			custom = &v
		}
		actions[symbol] = c.Resolver.Advise(symbol, snapshot, custom)
	}

	c.mu.Lock()
	lastOrder := append([]byte(nil), c.lastOrder...)
	lastOrderErr := c.lastOrderErr
	c.mu.Unlock()

	return models.MView{
		Subscription: status,
		Sync: models.MSyncStatus{
			Mode:      c.Config.Sync.Mode,
			Active:    c.Sync.Active(),
			LastError: c.Sync.LastError(),
		},
		Snapshot:       snapshot,
		Inputs:         inputs,
		Actions:        actions,
		Orders:         c.Ledger.Orders(),
		Positions:      c.Ledger.Positions(),
		LastOrder:      lastOrder,
		LastOrderError: lastOrderErr,
		GeneratedAt:    time.Now(),
	}
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
