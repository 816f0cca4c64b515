// Package chart owns the history-series lifecycle for the single
// currently selected symbol: fetch on selection, supersession on
// change, demo-data synthesis, and degraded fallbacks when the
// provider has no usable history.
package chart

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/tasnimxahmed-cs/value-glance-stock-dashboard/internal/market"
	"github.com/tasnimxahmed-cs/value-glance-stock-dashboard/internal/schedule"
)

const (
	// historyDays is the lookback window requested from the provider.
	historyDays = 30

	// demoDelay simulates provider latency in demo mode so the UI
	// exercises its loading state.
	demoDelay = 300 * time.Millisecond
)

// Historian is the candles surface of the transport.
type Historian interface {
	Candles(ctx context.Context, symbol, resolution string, from, to time.Time) (market.HistorySeries, error)
}

// Snapshot is the externally visible controller state. Series is nil
// when no symbol is selected or data has not loaded yet; an empty
// Points slice means the provider has no data.
type Snapshot struct {
	Symbol     string                `json:"symbol,omitempty"`
	Series     *market.HistorySeries `json:"series,omitempty"`
	Loading    bool                  `json:"loading"`
	Error      string                `json:"error,omitempty"`
	IsDemoData bool                  `json:"is_demo_data"`
}

// Controller is the chart data controller for one dashboard session.
type Controller struct {
	historian Historian
	demoMode  bool
	demoWait  time.Duration
	refresher *schedule.Refresher

	mu           sync.Mutex
	symbol       string
	generation   uint64
	cancel       context.CancelFunc
	series       *market.HistorySeries
	loading      bool
	errMsg       string
	isDemo       bool
	autoInterval time.Duration
	closed       bool
}

// New creates a controller with no symbol selected.
func New(historian Historian, demoMode bool) *Controller {
	return &Controller{
		historian: historian,
		demoMode:  demoMode,
		demoWait:  demoDelay,
		refresher: schedule.New(),
	}
}

// Select switches the focused symbol and starts a history fetch,
// superseding any in-flight one. Auto-refresh, if configured, follows
// the new symbol.
func (c *Controller) Select(symbol string) error {
	symbol = market.NormalizeSymbol(symbol)
	if !market.ValidSymbol(symbol) {
		return market.ErrInvalidSymbol
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.symbol = symbol
	c.series = nil
	c.isDemo = false
	interval := c.autoInterval
	c.mu.Unlock()

	c.startCycle()
	if interval > 0 {
		return c.refresher.Set(interval, c.Refresh)
	}
	return nil
}

// Clear drops the selection and any displayed series, cancels the
// in-flight fetch, and disables auto-refresh.
func (c *Controller) Clear() {
	_ = c.refresher.Set(0, nil)
	c.mu.Lock()
	c.generation++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.symbol = ""
	c.series = nil
	c.loading = false
	c.errMsg = ""
	c.isDemo = false
	c.mu.Unlock()
}

// Refresh re-fetches history for the current symbol. No-op when no
// symbol is selected.
func (c *Controller) Refresh() {
	c.mu.Lock()
	selected := c.symbol != "" && !c.closed
	c.mu.Unlock()
	if selected {
		c.startCycle()
	}
}

func (c *Controller) startCycle() {
	c.mu.Lock()
	if c.closed || c.symbol == "" {
		c.mu.Unlock()
		return
	}
	c.generation++
	gen := c.generation
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.loading = true
	c.errMsg = ""
	symbol := c.symbol
	c.mu.Unlock()

	go c.run(ctx, gen, symbol)
}

func (c *Controller) run(ctx context.Context, gen uint64, symbol string) {
	if c.demoMode {
		if err := wait(ctx, c.demoWait); err != nil {
			c.conclude(gen, symbol)
			return
		}
		series := market.DemoSeries(symbol)
		c.commit(gen, symbol, &series, true, "")
		return
	}

	to := time.Now()
	from := to.AddDate(0, 0, -historyDays)
	series, err := c.historian.Candles(ctx, symbol, "D", from, to)
	if err != nil {
		if market.Cancelled(err) {
			c.conclude(gen, symbol)
			return
		}
		empty := &market.HistorySeries{Symbol: symbol, Points: []market.PricePoint{}}
		if market.Forbidden(err) {
			// Empty, not demo data: the UI should show the provider
			// limitation instead of hiding it.
			c.commit(gen, symbol, empty, false, "historical data requires a paid plan")
			return
		}
		log.Printf("history fetch %s error: %v", symbol, err)
		c.commit(gen, symbol, empty, false, "failed to load historical data")
		return
	}

	if len(series.Points) == 0 {
		demo := market.DemoSeries(symbol)
		c.commit(gen, symbol, &demo, true, "limited historical data available")
		return
	}
	c.commit(gen, symbol, &series, false, "")
}

// commit installs a cycle's result unless the cycle was superseded or
// the selection moved on. The symbol identity check backs up the
// generation guard because HTTP cancellation is best-effort.
func (c *Controller) commit(gen uint64, symbol string, series *market.HistorySeries, isDemo bool, errMsg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation || symbol != c.symbol {
		return
	}
	c.series = series
	c.isDemo = isDemo
	c.errMsg = errMsg
	c.loading = false
}

// conclude clears the loading flag for a cancelled cycle that is still
// current (Close, or a cancel racing a commit).
func (c *Controller) conclude(gen uint64, symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation || symbol != c.symbol {
		return
	}
	c.loading = false
}

// Snapshot returns the current controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Symbol:     c.symbol,
		Series:     c.series,
		Loading:    c.loading,
		Error:      c.errMsg,
		IsDemoData: c.isDemo,
	}
}

// SetAutoRefresh configures the repeating refresh interval. The
// schedule only runs while a symbol is selected; interval <= 0
// disables it.
func (c *Controller) SetAutoRefresh(interval time.Duration) error {
	c.mu.Lock()
	c.autoInterval = interval
	selected := c.symbol != ""
	c.mu.Unlock()
	if interval <= 0 || !selected {
		return c.refresher.Set(0, nil)
	}
	return c.refresher.Set(interval, c.Refresh)
}

// Close tears down the schedule and cancels any in-flight fetch.
func (c *Controller) Close() {
	c.refresher.Stop()
	c.mu.Lock()
	c.closed = true
	c.generation++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
