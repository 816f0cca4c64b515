package market

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// Quote is a single real-time quote as shown in the watchlist table.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	PreviousClose float64 `json:"previous_close"`
	DayHigh       float64 `json:"day_high"`
	DayLow        float64 `json:"day_low"`
	OpenPrice     float64 `json:"open_price"`
	Volume        int64   `json:"volume"`
}

// Valid reports whether the quote carries usable data. The provider
// answers with zeroed quotes for unknown symbols, so price <= 0 means
// the quote must be dropped, never shown.
func (q Quote) Valid() bool {
	return q.Price > 0
}

// Profile is company metadata for a quoted symbol.
type Profile struct {
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	MarketCap         float64 `json:"market_cap,omitempty"`
	SharesOutstanding float64 `json:"shares_outstanding,omitempty"`
	Logo              string  `json:"logo,omitempty"`
}

// FallbackProfile is the minimal profile substituted when a profile
// fetch fails. Every quoted symbol must have a profile entry.
func FallbackProfile(symbol string) Profile {
	return Profile{Symbol: symbol, Name: symbol}
}

// PricePoint is one (date, price) sample of a history series.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// HistorySeries is the chart dataset for one symbol. Points are
// chronological ascending with no duplicate dates. An empty Points
// slice means "no data available"; a nil series means "not loaded".
type HistorySeries struct {
	Symbol string       `json:"symbol"`
	Points []PricePoint `json:"points"`
}

// Transport is the per-symbol provider surface consumed by the batch
// orchestrator and the chart controller.
type Transport interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
	Profile(ctx context.Context, symbol string) (Profile, error)
	Candles(ctx context.Context, symbol string, resolution string, from, to time.Time) (HistorySeries, error)
}

var symbolRe = regexp.MustCompile(`^[A-Z]{1,5}$`)

// NormalizeSymbol converts a ticker to the canonical uppercase form.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ValidSymbol reports whether symbol is a well-formed ticker
// (1-5 uppercase letters after normalization).
func ValidSymbol(symbol string) bool {
	return symbolRe.MatchString(NormalizeSymbol(symbol))
}
