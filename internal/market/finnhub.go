package market

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://finnhub.io/api/v1"
	defaultTimeout = 10 * time.Second

	// retryAttempts is the total attempt budget per call; retryWait is
	// the backoff unit (429 backs off linearly, retryWait x attempt).
	retryAttempts = 3
	retryWait     = 1000 * time.Millisecond
)

// Finnhub is the quote transport against a Finnhub-shaped provider API.
// It performs one outbound request per call with timeout, 429 retry
// with linear backoff, and no caching.
type Finnhub struct {
	client  *resty.Client
	apiKey  string
	timeout time.Duration

	// sleep is the backoff wait, replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

var _ Transport = (*Finnhub)(nil)

// NewFinnhub creates a transport for the given base URL and API key.
// An empty API key is allowed: every call then fails with
// ErrMissingCredential, which callers interpret as demo mode.
func NewFinnhub(baseURL, apiKey string, timeout time.Duration) *Finnhub {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := resty.New()
	client.SetBaseURL(baseURL)
	return &Finnhub{
		client:  client,
		apiKey:  apiKey,
		timeout: timeout,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type quoteResponse struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Volume        int64   `json:"v"`
}

type profileResponse struct {
	Name              string  `json:"name"`
	MarketCap         float64 `json:"marketCapitalization"`
	SharesOutstanding float64 `json:"shareOutstanding"`
	Logo              string  `json:"logo"`
}

type candleResponse struct {
	Status     string    `json:"s"`
	Closes     []float64 `json:"c"`
	Timestamps []int64   `json:"t"`
}

// Quote fetches the current quote for one symbol.
func (f *Finnhub) Quote(ctx context.Context, symbol string) (Quote, error) {
	symbol = NormalizeSymbol(symbol)
	var body quoteResponse
	if err := f.get(ctx, "/quote", map[string]string{"symbol": symbol}, &body); err != nil {
		return Quote{}, err
	}
	return Quote{
		Symbol:        symbol,
		Price:         body.Current,
		Change:        body.Change,
		ChangePercent: body.ChangePercent,
		PreviousClose: body.PreviousClose,
		DayHigh:       body.High,
		DayLow:        body.Low,
		OpenPrice:     body.Open,
		Volume:        body.Volume,
	}, nil
}

// Profile fetches company metadata for one symbol. The display name
// falls back to the symbol itself when the provider has none.
func (f *Finnhub) Profile(ctx context.Context, symbol string) (Profile, error) {
	symbol = NormalizeSymbol(symbol)
	var body profileResponse
	if err := f.get(ctx, "/stock/profile2", map[string]string{"symbol": symbol}, &body); err != nil {
		return Profile{}, err
	}
	name := body.Name
	if name == "" {
		name = symbol
	}
	return Profile{
		Symbol:            symbol,
		Name:              name,
		MarketCap:         body.MarketCap,
		SharesOutstanding: body.SharesOutstanding,
		Logo:              body.Logo,
	}, nil
}

// Candles fetches historical closes for one symbol. A "no_data" answer
// from the provider is not an error: it yields an empty series.
func (f *Finnhub) Candles(ctx context.Context, symbol, resolution string, from, to time.Time) (HistorySeries, error) {
	symbol = NormalizeSymbol(symbol)
	params := map[string]string{
		"symbol":     symbol,
		"resolution": resolution,
		"from":       strconv.FormatInt(from.Unix(), 10),
		"to":         strconv.FormatInt(to.Unix(), 10),
	}
	var body candleResponse
	if err := f.get(ctx, "/stock/candle", params, &body); err != nil {
		return HistorySeries{}, err
	}

	series := HistorySeries{Symbol: symbol, Points: []PricePoint{}}
	if body.Status == "no_data" || len(body.Closes) == 0 {
		return series, nil
	}

	n := len(body.Closes)
	if len(body.Timestamps) < n {
		n = len(body.Timestamps)
	}
	if n == 0 {
		return series, nil
	}
	points := make([]PricePoint, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, PricePoint{
			Date:  time.Unix(body.Timestamps[i], 0),
			Price: body.Closes[i],
		})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	// Drop duplicate timestamps, keeping the latest value.
	series.Points = points[:1]
	for _, p := range points[1:] {
		last := &series.Points[len(series.Points)-1]
		if p.Date.Equal(last.Date) {
			last.Price = p.Price
			continue
		}
		series.Points = append(series.Points, p)
	}
	return series, nil
}

// get performs one provider request with the retry policy: 429 retries
// with linear backoff until the attempt budget runs out, transient
// transport errors retry after one backoff unit, any other bad status
// fails immediately. Caller cancellation always wins.
func (f *Finnhub) get(ctx context.Context, path string, params map[string]string, out any) error {
	if f.apiKey == "" {
		return ErrMissingCredential
	}

	for attempt := 1; attempt <= retryAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, f.timeout)
		resp, err := f.client.R().
			SetContext(callCtx).
			SetQueryParams(params).
			SetQueryParam("token", f.apiKey).
			Get(path)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if attempt < retryAttempts {
				if werr := f.sleep(ctx, retryWait); werr != nil {
					return werr
				}
				continue
			}
			return &FetchError{Err: err}
		}

		if resp.StatusCode() == http.StatusTooManyRequests {
			if attempt < retryAttempts {
				if werr := f.sleep(ctx, time.Duration(attempt)*retryWait); werr != nil {
					return werr
				}
				continue
			}
			return &RateLimitError{Attempts: retryAttempts}
		}
		if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
			return &HTTPError{Status: resp.StatusCode()}
		}

		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return &FetchError{Err: err}
		}
		return nil
	}
	return &FetchError{Err: ctx.Err()}
}
