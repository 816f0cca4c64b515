package market

import (
	"context"
	"errors"
	"log"
	"time"
)

// defaultPacing is the fixed inter-request delay that keeps a batch
// under the provider's per-minute rate limit.
const defaultPacing = 100 * time.Millisecond

// Batch sequences per-symbol transport calls for a symbol set,
// tolerating individual failures. Results are aggregated and returned
// only after every symbol has been attempted.
type Batch struct {
	transport Transport
	pacing    time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

// NewBatch creates an orchestrator over the given transport. pacing <= 0
// falls back to the default.
func NewBatch(transport Transport, pacing time.Duration) *Batch {
	if pacing <= 0 {
		pacing = defaultPacing
	}
	return &Batch{transport: transport, pacing: pacing, sleep: sleepCtx}
}

// FetchQuotes fetches quotes for symbols in input order, pacing each
// call after the first. Failed or invalid (price <= 0) quotes are
// excluded from the result without aborting the batch. Cancellation,
// a missing credential, and an exhausted rate limit abort the whole
// batch: the first hits every remaining symbol anyway and the other
// two mean the provider will keep refusing.
func (b *Batch) FetchQuotes(ctx context.Context, symbols []string) ([]Quote, error) {
	out := make([]Quote, 0, len(symbols))
	for i, sym := range symbols {
		if i > 0 {
			if err := b.sleep(ctx, b.pacing); err != nil {
				return nil, err
			}
		}
		q, err := b.transport.Quote(ctx, sym)
		if err != nil {
			if batchFatal(err) {
				return nil, err
			}
			log.Printf("quote fetch %s error: %v", sym, err)
			continue
		}
		if !q.Valid() {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

// FetchProfiles fetches profiles for symbols in input order with the
// same pacing. Every input symbol is guaranteed a key in the result:
// a failed fetch substitutes the minimal fallback profile because the
// table always expects a profile entry per quoted symbol.
func (b *Batch) FetchProfiles(ctx context.Context, symbols []string) (map[string]Profile, error) {
	out := make(map[string]Profile, len(symbols))
	for i, sym := range symbols {
		if i > 0 {
			if err := b.sleep(ctx, b.pacing); err != nil {
				return nil, err
			}
		}
		p, err := b.transport.Profile(ctx, sym)
		if err != nil {
			if Cancelled(err) || ctx.Err() != nil {
				return nil, err
			}
			log.Printf("profile fetch %s error: %v", sym, err)
			out[sym] = FallbackProfile(sym)
			continue
		}
		out[sym] = p
	}
	return out, nil
}

func batchFatal(err error) bool {
	if Cancelled(err) || errors.Is(err, ErrMissingCredential) {
		return true
	}
	var rl *RateLimitError
	return errors.As(err, &rl)
}
