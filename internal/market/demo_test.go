package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoSeriesShape(t *testing.T) {
	for _, symbol := range []string{"AAPL", "XYZQ"} {
		series := DemoSeries(symbol)
		require.Len(t, series.Points, 30, symbol)
		assert.Equal(t, symbol, series.Symbol)

		today := time.Now().Truncate(24 * time.Hour)
		last := series.Points[len(series.Points)-1]
		assert.True(t, last.Date.Equal(today), "series must end today, got %v", last.Date)

		for i, p := range series.Points {
			assert.Greater(t, p.Price, 0.0)
			if i > 0 {
				assert.True(t, p.Date.After(series.Points[i-1].Date), "dates must be strictly ascending")
			}
		}
	}
}

func TestDemoQuotesFiltersToTracked(t *testing.T) {
	quotes := DemoQuotes([]string{"GOOGL", "NOPE", "AAPL"})
	require.Len(t, quotes, 2)
	assert.Equal(t, "GOOGL", quotes[0].Symbol)
	assert.Equal(t, "AAPL", quotes[1].Symbol)
	for _, q := range quotes {
		assert.True(t, q.Valid())
	}
}

func TestDemoProfilesFallback(t *testing.T) {
	profiles := DemoProfiles([]string{"AAPL", "NOPE"})
	require.Len(t, profiles, 2)
	assert.Equal(t, "Apple Inc", profiles["AAPL"].Name)
	assert.Equal(t, Profile{Symbol: "NOPE", Name: "NOPE"}, profiles["NOPE"])
}

func TestValidSymbol(t *testing.T) {
	assert.True(t, ValidSymbol("AAPL"))
	assert.True(t, ValidSymbol(" msft "))
	assert.False(t, ValidSymbol(""))
	assert.False(t, ValidSymbol("TOOLONG"))
	assert.False(t, ValidSymbol("BAD1"))
	assert.False(t, ValidSymbol("A-B"))
}
