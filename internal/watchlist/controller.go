// Package watchlist owns the primary table dataset: it drives batch
// quote/profile fetches for the tracked symbol set, supersedes
// in-flight cycles on every change, and degrades to offline demo data
// when no provider credential is configured.
package watchlist

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/tasnimxahmed-cs/value-glance-stock-dashboard/internal/market"
	"github.com/tasnimxahmed-cs/value-glance-stock-dashboard/internal/schedule"
)

var (
	ErrDuplicateSymbol = errors.New("watchlist: symbol already tracked")
	ErrProtectedSymbol = errors.New("watchlist: symbol cannot be removed in demo mode")
)

// Quoter is the batch orchestrator surface the controller drives.
type Quoter interface {
	FetchQuotes(ctx context.Context, symbols []string) ([]market.Quote, error)
	FetchProfiles(ctx context.Context, symbols []string) (map[string]market.Profile, error)
}

// Snapshot is the externally visible controller state.
type Snapshot struct {
	Symbols    []string                  `json:"symbols"`
	Quotes     []market.Quote            `json:"quotes"`
	Profiles   map[string]market.Profile `json:"profiles"`
	Loading    bool                      `json:"loading"`
	Refreshing bool                      `json:"refreshing"`
	Error      string                    `json:"error,omitempty"`
	DemoMode   bool                      `json:"demo_mode"`
}

// Controller is the watchlist data controller. All state is guarded by
// mu; fetch cycles run in their own goroutine and commit results only
// if their generation is still current.
type Controller struct {
	batch     Quoter
	demoMode  bool
	protected map[string]bool
	onChange  func(symbols []string)
	refresher *schedule.Refresher

	mu         sync.Mutex
	symbols    []string
	generation uint64
	cancel     context.CancelFunc
	quotes     []market.Quote
	profiles   map[string]market.Profile
	loaded     bool
	loading    bool
	refreshing bool
	errMsg     string
	closed     bool
}

// New creates a controller tracking the given symbols. protected lists
// the default symbols that cannot be removed while in demo mode.
// onChange, if non-nil, is invoked with the new tracked list after
// every add/remove (used to persist the list); it may be nil.
func New(batch Quoter, demoMode bool, symbols, protected []string, onChange func([]string)) *Controller {
	c := &Controller{
		batch:     batch,
		demoMode:  demoMode,
		protected: make(map[string]bool, len(protected)),
		onChange:  onChange,
		refresher: schedule.New(),
		profiles:  map[string]market.Profile{},
	}
	for _, sym := range protected {
		c.protected[market.NormalizeSymbol(sym)] = true
	}
	for _, sym := range symbols {
		sym = market.NormalizeSymbol(sym)
		if market.ValidSymbol(sym) && !contains(c.symbols, sym) {
			c.symbols = append(c.symbols, sym)
		}
	}
	return c
}

// Refresh starts a new fetch cycle, superseding any in-flight one.
func (c *Controller) Refresh() {
	c.mu.Lock()
	if c.closed {
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
	if c.loaded {
		c.refreshing = true
	} else {
		c.loading = true
	}
	syms := append([]string(nil), c.symbols...)
	c.mu.Unlock()

	go c.run(ctx, gen, syms)
}

func (c *Controller) run(ctx context.Context, gen uint64, symbols []string) {
	if c.demoMode {
		quotes := market.DemoQuotes(symbols)
		c.commit(gen, quotes, market.DemoProfiles(quoteSymbols(quotes)))
		return
	}

	quotes, err := c.batch.FetchQuotes(ctx, symbols)
	if err != nil {
		c.fail(gen, err)
		return
	}
	// Profiles only for symbols that produced a valid quote; calls for
	// dead symbols would just burn rate-limit budget.
	profiles, err := c.batch.FetchProfiles(ctx, quoteSymbols(quotes))
	if err != nil {
		c.fail(gen, err)
		return
	}
	c.commit(gen, quotes, profiles)
}

// commit installs a cycle's results unless a newer cycle has started.
func (c *Controller) commit(gen uint64, quotes []market.Quote, profiles map[string]market.Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	c.quotes = quotes
	c.profiles = profiles
	c.loaded = true
	c.loading = false
	c.refreshing = false
	c.errMsg = ""
}

// fail concludes a cycle without touching the last good dataset.
// Cancellations are superseded cycles, never user errors; 403 is a
// provider plan limitation worth a log line but not an alarm.
func (c *Controller) fail(gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	c.loading = false
	c.refreshing = false
	if market.Cancelled(err) {
		return
	}
	if market.Forbidden(err) {
		log.Printf("watchlist fetch forbidden (provider plan): %v", err)
		return
	}
	log.Printf("watchlist fetch error: %v", err)
	c.errMsg = userMessage(err)
}

func userMessage(err error) string {
	var rl *market.RateLimitError
	if errors.As(err, &rl) {
		return "rate limit exceeded, please try again later"
	}
	var he *market.HTTPError
	if errors.As(err, &he) {
		return "market data provider error, please try again later"
	}
	if errors.Is(err, market.ErrMissingCredential) {
		return "market data API key is not configured"
	}
	return "failed to fetch market data"
}

// AddSymbol appends a symbol to the tracked set and starts a fetch
// cycle for the new set.
func (c *Controller) AddSymbol(symbol string) error {
	symbol = market.NormalizeSymbol(symbol)
	if !market.ValidSymbol(symbol) {
		return market.ErrInvalidSymbol
	}

	c.mu.Lock()
	if contains(c.symbols, symbol) {
		c.mu.Unlock()
		return ErrDuplicateSymbol
	}
	c.symbols = append(c.symbols, symbol)
	syms := append([]string(nil), c.symbols...)
	c.mu.Unlock()

	c.notify(syms)
	c.Refresh()
	return nil
}

// RemoveSymbol drops a symbol from the tracked set. The protected
// default subset stays put while in demo mode. Removing an untracked
// symbol is a no-op.
func (c *Controller) RemoveSymbol(symbol string) error {
	symbol = market.NormalizeSymbol(symbol)
	if c.demoMode && c.protected[symbol] {
		return ErrProtectedSymbol
	}

	c.mu.Lock()
	kept := c.symbols[:0]
	removed := false
	for _, sym := range c.symbols {
		if sym == symbol {
			removed = true
			continue
		}
		kept = append(kept, sym)
	}
	c.symbols = kept
	syms := append([]string(nil), c.symbols...)
	c.mu.Unlock()

	if !removed {
		return nil
	}
	c.notify(syms)
	c.Refresh()
	return nil
}

func (c *Controller) notify(symbols []string) {
	if c.onChange != nil {
		c.onChange(symbols)
	}
}

// Symbols returns a copy of the tracked symbol list.
func (c *Controller) Symbols() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.symbols...)
}

// Snapshot returns the current controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	profiles := make(map[string]market.Profile, len(c.profiles))
	for k, v := range c.profiles {
		profiles[k] = v
	}
	return Snapshot{
		Symbols:    append([]string(nil), c.symbols...),
		Quotes:     append([]market.Quote(nil), c.quotes...),
		Profiles:   profiles,
		Loading:    c.loading,
		Refreshing: c.refreshing,
		Error:      c.errMsg,
		DemoMode:   c.demoMode,
	}
}

// SetAutoRefresh schedules repeating refresh cycles. interval <= 0
// disables auto-refresh; changing the interval replaces the schedule.
func (c *Controller) SetAutoRefresh(interval time.Duration) error {
	if interval <= 0 {
		return c.refresher.Set(0, nil)
	}
	return c.refresher.Set(interval, c.Refresh)
}

// Close tears down the auto-refresh schedule and cancels any in-flight
// cycle. The controller accepts no further refreshes.
func (c *Controller) Close() {
	c.refresher.Stop()
	c.mu.Lock()
	c.closed = true
	c.generation++ // any in-flight commit is now stale
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
}

func quoteSymbols(quotes []market.Quote) []string {
	out := make([]string, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, q.Symbol)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
