package watchlist

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasnimxahmed-cs/value-glance-stock-dashboard/internal/market"
)

// fakeQuoter answers immediately with canned data or a fixed error.
type fakeQuoter struct {
	mu     sync.Mutex
	quotes []market.Quote
	err    error
	calls  int
}

func (f *fakeQuoter) FetchQuotes(_ context.Context, symbols []string) ([]market.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]market.Quote(nil), f.quotes...), nil
}

func (f *fakeQuoter) FetchProfiles(_ context.Context, symbols []string) (map[string]market.Profile, error) {
	out := make(map[string]market.Profile, len(symbols))
	for _, sym := range symbols {
		out[sym] = market.FallbackProfile(sym)
	}
	return out, nil
}

func (f *fakeQuoter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// gatedQuoter blocks each FetchQuotes call until its gate is fed,
// letting tests resolve cycles in any order. It ignores ctx on purpose:
// transport cancellation is best-effort and a superseded call may still
// resolve later.
type gatedQuoter struct {
	mu    sync.Mutex
	gates []chan []market.Quote
}

func (g *gatedQuoter) FetchQuotes(_ context.Context, _ []string) ([]market.Quote, error) {
	gate := make(chan []market.Quote, 1)
	g.mu.Lock()
	g.gates = append(g.gates, gate)
	g.mu.Unlock()
	return <-gate, nil
}

func (g *gatedQuoter) FetchProfiles(_ context.Context, symbols []string) (map[string]market.Profile, error) {
	out := make(map[string]market.Profile, len(symbols))
	for _, sym := range symbols {
		out[sym] = market.FallbackProfile(sym)
	}
	return out, nil
}

func (g *gatedQuoter) pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.gates)
}

func (g *gatedQuoter) release(i int, quotes []market.Quote) {
	g.mu.Lock()
	gate := g.gates[i]
	g.mu.Unlock()
	gate <- quotes
}

func settled(c *Controller) func() bool {
	return func() bool {
		snap := c.Snapshot()
		return !snap.Loading && !snap.Refreshing
	}
}

func TestDemoModeServesDemoData(t *testing.T) {
	fq := &fakeQuoter{}
	c := New(fq, true, []string{"AAPL", "GOOGL"}, []string{"AAPL", "GOOGL"}, nil)
	defer c.Close()

	c.Refresh()
	require.Eventually(t, settled(c), time.Second, 5*time.Millisecond)

	snap := c.Snapshot()
	require.Len(t, snap.Quotes, 2)
	assert.Equal(t, "AAPL", snap.Quotes[0].Symbol)
	assert.Equal(t, "GOOGL", snap.Quotes[1].Symbol)
	assert.Empty(t, snap.Error)
	assert.False(t, snap.Loading)
	assert.True(t, snap.DemoMode)
	assert.Contains(t, snap.Profiles, "AAPL")
	assert.Contains(t, snap.Profiles, "GOOGL")
	// No network path was touched.
	assert.Zero(t, fq.callCount())
}

func TestLiveModeFetchesQuotesAndProfiles(t *testing.T) {
	fq := &fakeQuoter{quotes: []market.Quote{
		{Symbol: "AAPL", Price: 227.48},
	}}
	c := New(fq, false, []string{"AAPL", "BAD1"}, nil, nil)
	defer c.Close()

	c.Refresh()
	require.Eventually(t, settled(c), time.Second, 5*time.Millisecond)

	snap := c.Snapshot()
	require.Len(t, snap.Quotes, 1)
	assert.Equal(t, "AAPL", snap.Quotes[0].Symbol)
	// Profiles only for symbols with a valid quote.
	assert.Len(t, snap.Profiles, 1)
	assert.Contains(t, snap.Profiles, "AAPL")
	assert.Empty(t, snap.Error)
}

func TestSupersededCycleNeverWins(t *testing.T) {
	gq := &gatedQuoter{}
	c := New(gq, false, []string{"AAPL"}, nil, nil)
	defer c.Close()

	c.Refresh()
	require.Eventually(t, func() bool { return gq.pending() == 1 }, time.Second, time.Millisecond)
	c.Refresh()
	require.Eventually(t, func() bool { return gq.pending() == 2 }, time.Second, time.Millisecond)

	// Newest cycle resolves first.
	c.Refresh()
	require.Eventually(t, func() bool { return gq.pending() == 3 }, time.Second, time.Millisecond)
	gq.release(2, []market.Quote{{Symbol: "AAPL", Price: 3}})
	require.Eventually(t, func() bool {
		snap := c.Snapshot()
		return len(snap.Quotes) == 1 && snap.Quotes[0].Price == 3
	}, time.Second, time.Millisecond)

	// Older cycles resolve afterwards; their results must be discarded.
	gq.release(0, []market.Quote{{Symbol: "AAPL", Price: 1}})
	gq.release(1, []market.Quote{{Symbol: "AAPL", Price: 2}})
	time.Sleep(50 * time.Millisecond)

	snap := c.Snapshot()
	require.Len(t, snap.Quotes, 1)
	assert.Equal(t, 3.0, snap.Quotes[0].Price)
	assert.Empty(t, snap.Error)
}

func TestCancelledNeverUserVisible(t *testing.T) {
	// The quoter fails with the cycle's own cancellation, as a real
	// transport would when superseded.
	waiter := &fakeQuoter{}
	c := New(&cancelAwareQuoter{inner: waiter}, false, []string{"AAPL"}, nil, nil)
	defer c.Close()

	for i := 0; i < 10; i++ {
		c.Refresh()
	}
	require.Eventually(t, settled(c), 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, c.Snapshot().Error)
}

// cancelAwareQuoter returns ctx.Err() once the cycle is cancelled and
// otherwise succeeds after a short delay.
type cancelAwareQuoter struct {
	inner *fakeQuoter
}

func (q *cancelAwareQuoter) FetchQuotes(ctx context.Context, symbols []string) ([]market.Quote, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(10 * time.Millisecond):
		return []market.Quote{{Symbol: "AAPL", Price: 1}}, nil
	}
}

func (q *cancelAwareQuoter) FetchProfiles(ctx context.Context, symbols []string) (map[string]market.Profile, error) {
	return q.inner.FetchProfiles(ctx, symbols)
}

func TestForbiddenIsSwallowed(t *testing.T) {
	fq := &fakeQuoter{err: &market.HTTPError{Status: 403}}
	c := New(fq, false, []string{"AAPL"}, nil, nil)
	defer c.Close()

	c.Refresh()
	require.Eventually(t, settled(c), time.Second, 5*time.Millisecond)
	assert.Empty(t, c.Snapshot().Error)
}

func TestErrorKeepsLastGoodDataset(t *testing.T) {
	fq := &fakeQuoter{quotes: []market.Quote{{Symbol: "AAPL", Price: 227.48}}}
	c := New(fq, false, []string{"AAPL"}, nil, nil)
	defer c.Close()

	c.Refresh()
	require.Eventually(t, settled(c), time.Second, 5*time.Millisecond)
	require.Len(t, c.Snapshot().Quotes, 1)

	fq.mu.Lock()
	fq.err = &market.RateLimitError{Attempts: 3}
	fq.mu.Unlock()

	c.Refresh()
	require.Eventually(t, func() bool { return c.Snapshot().Error != "" }, time.Second, 5*time.Millisecond)

	snap := c.Snapshot()
	require.Len(t, snap.Quotes, 1, "stale data must survive a failed refresh")
	assert.Equal(t, "AAPL", snap.Quotes[0].Symbol)
	assert.False(t, snap.Loading)
	assert.False(t, snap.Refreshing)
}

func TestAddAndRemoveSymbol(t *testing.T) {
	fq := &fakeQuoter{}
	var persisted []string
	c := New(fq, true, []string{"AAPL"}, []string{"AAPL"}, func(symbols []string) {
		persisted = append([]string(nil), symbols...)
	})
	defer c.Close()

	require.NoError(t, c.AddSymbol("googl"))
	assert.Equal(t, []string{"AAPL", "GOOGL"}, c.Symbols())
	assert.Equal(t, []string{"AAPL", "GOOGL"}, persisted)

	assert.ErrorIs(t, c.AddSymbol("AAPL"), ErrDuplicateSymbol)
	assert.ErrorIs(t, c.AddSymbol("not a ticker"), market.ErrInvalidSymbol)

	// Protected default symbols stay put in demo mode.
	assert.ErrorIs(t, c.RemoveSymbol("AAPL"), ErrProtectedSymbol)
	require.NoError(t, c.RemoveSymbol("GOOGL"))
	assert.Equal(t, []string{"AAPL"}, c.Symbols())
}

func TestLoadingOnlyUntilFirstData(t *testing.T) {
	gq := &gatedQuoter{}
	c := New(gq, false, []string{"AAPL"}, nil, nil)
	defer c.Close()

	c.Refresh()
	require.Eventually(t, func() bool { return gq.pending() == 1 }, time.Second, time.Millisecond)
	snap := c.Snapshot()
	assert.True(t, snap.Loading)
	assert.False(t, snap.Refreshing)

	gq.release(0, []market.Quote{{Symbol: "AAPL", Price: 1}})
	require.Eventually(t, settled(c), time.Second, time.Millisecond)

	// Later cycles refresh without clearing displayed data.
	c.Refresh()
	require.Eventually(t, func() bool { return gq.pending() == 2 }, time.Second, time.Millisecond)
	snap = c.Snapshot()
	assert.False(t, snap.Loading)
	assert.True(t, snap.Refreshing)
	assert.Len(t, snap.Quotes, 1)

	gq.release(1, []market.Quote{{Symbol: "AAPL", Price: 2}})
	require.Eventually(t, settled(c), time.Second, time.Millisecond)
}
