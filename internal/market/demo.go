package market

import (
	"math"
	"math/rand"
	"time"
)

// demoSeriesPoints is the length of a synthesized history series.
const demoSeriesPoints = 30

// demoQuotes is the fixed offline quote table used when no provider
// credential is configured.
var demoQuotes = map[string]Quote{
	"AAPL":  {Symbol: "AAPL", Price: 227.48, Change: 1.83, ChangePercent: 0.81, PreviousClose: 225.65, DayHigh: 228.87, DayLow: 224.93, OpenPrice: 225.90, Volume: 48210500},
	"GOOGL": {Symbol: "GOOGL", Price: 206.72, Change: -1.12, ChangePercent: -0.54, PreviousClose: 207.84, DayHigh: 208.55, DayLow: 205.11, OpenPrice: 207.60, Volume: 27455100},
	"MSFT":  {Symbol: "MSFT", Price: 504.07, Change: 3.25, ChangePercent: 0.65, PreviousClose: 500.82, DayHigh: 506.10, DayLow: 499.75, OpenPrice: 501.30, Volume: 19882400},
	"AMZN":  {Symbol: "AMZN", Price: 229.00, Change: 0.94, ChangePercent: 0.41, PreviousClose: 228.06, DayHigh: 230.42, DayLow: 226.88, OpenPrice: 228.50, Volume: 36104900},
	"TSLA":  {Symbol: "TSLA", Price: 333.87, Change: -4.20, ChangePercent: -1.24, PreviousClose: 338.07, DayHigh: 340.15, DayLow: 331.02, OpenPrice: 338.00, Volume: 88273600},
	"META":  {Symbol: "META", Price: 738.70, Change: 5.61, ChangePercent: 0.77, PreviousClose: 733.09, DayHigh: 741.33, DayLow: 730.55, OpenPrice: 734.00, Volume: 12450700},
	"NVDA":  {Symbol: "NVDA", Price: 174.18, Change: 2.07, ChangePercent: 1.20, PreviousClose: 172.11, DayHigh: 176.25, DayLow: 171.60, OpenPrice: 172.40, Volume: 152399800},
}

var demoProfiles = map[string]Profile{
	"AAPL":  {Symbol: "AAPL", Name: "Apple Inc", MarketCap: 3451020, SharesOutstanding: 15204.14},
	"GOOGL": {Symbol: "GOOGL", Name: "Alphabet Inc", MarketCap: 2504300, SharesOutstanding: 12115.00},
	"MSFT":  {Symbol: "MSFT", Name: "Microsoft Corp", MarketCap: 3746800, SharesOutstanding: 7433.98},
	"AMZN":  {Symbol: "AMZN", Name: "Amazon.com Inc", MarketCap: 2430100, SharesOutstanding: 10611.00},
	"TSLA":  {Symbol: "TSLA", Name: "Tesla Inc", MarketCap: 1074500, SharesOutstanding: 3218.29},
	"META":  {Symbol: "META", Name: "Meta Platforms Inc", MarketCap: 1868400, SharesOutstanding: 2529.43},
	"NVDA":  {Symbol: "NVDA", Name: "NVIDIA Corp", MarketCap: 4247900, SharesOutstanding: 24387.00},
}

// DemoQuotes filters the demo quote table down to the tracked symbols,
// preserving input order. Symbols without demo data are skipped.
func DemoQuotes(symbols []string) []Quote {
	out := make([]Quote, 0, len(symbols))
	for _, sym := range symbols {
		if q, ok := demoQuotes[NormalizeSymbol(sym)]; ok {
			out = append(out, q)
		}
	}
	return out
}

// DemoProfiles looks up demo profiles for the given symbols,
// substituting the minimal fallback for unknown ones.
func DemoProfiles(symbols []string) map[string]Profile {
	out := make(map[string]Profile, len(symbols))
	for _, sym := range symbols {
		key := NormalizeSymbol(sym)
		if p, ok := demoProfiles[key]; ok {
			out[key] = p
			continue
		}
		out[key] = FallbackProfile(key)
	}
	return out
}

// DemoSeries synthesizes a 30-point daily history series ending today.
// The walk is a smooth oscillation (within +-1%) plus bounded noise
// (within +-0.75%) around a per-symbol base price, randomized on every
// call, so only structural properties are stable.
func DemoSeries(symbol string) HistorySeries {
	symbol = NormalizeSymbol(symbol)

	base := 100 + rand.Float64()*200
	if q, ok := demoQuotes[symbol]; ok {
		base = q.Price
	}

	today := time.Now().Truncate(24 * time.Hour)
	points := make([]PricePoint, 0, demoSeriesPoints)
	for i := 0; i < demoSeriesPoints; i++ {
		trend := 0.01 * math.Sin(float64(i)/5)
		noise := (rand.Float64() - 0.5) * 0.015
		points = append(points, PricePoint{
			Date:  today.AddDate(0, 0, -(demoSeriesPoints - 1 - i)),
			Price: base * (1 + trend + noise),
		})
	}
	return HistorySeries{Symbol: symbol, Points: points}
}
