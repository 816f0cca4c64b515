package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/tasnimxahmed-cs/value-glance-stock-dashboard/internal/chart"
	"github.com/tasnimxahmed-cs/value-glance-stock-dashboard/internal/format"
	"github.com/tasnimxahmed-cs/value-glance-stock-dashboard/internal/market"
	"github.com/tasnimxahmed-cs/value-glance-stock-dashboard/internal/prefs"
	"github.com/tasnimxahmed-cs/value-glance-stock-dashboard/internal/watchlist"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
)

type AddSymbolRequest struct {
	Symbol string `json:"symbol"`
}

type PrefsRequest struct {
	DarkMode           *bool `json:"dark_mode,omitempty"`
	AutoRefresh        *bool `json:"auto_refresh,omitempty"`
	RefreshIntervalSec *int  `json:"refresh_interval_sec,omitempty"`
	ShowVolume         *bool `json:"show_volume,omitempty"`
}

// Row is one rendered watchlist table row: the raw quote plus the
// profile name and pre-formatted display strings.
type Row struct {
	market.Quote
	Name             string `json:"name"`
	Logo             string `json:"logo,omitempty"`
	DisplayPrice     string `json:"display_price"`
	DisplayChange    string `json:"display_change"`
	DisplayMarketCap string `json:"display_market_cap,omitempty"`
}

// RegisterRoutes wires the dashboard JSON API.
func RegisterRoutes(h *server.Hertz, wl *watchlist.Controller, ch *chart.Controller, st *prefs.Store) {
	h.GET("/healthz", func(_ context.Context, c *app.RequestContext) {
		c.JSON(200, map[string]bool{"ok": true})
	})

	h.GET("/api/v1/watchlist", func(_ context.Context, c *app.RequestContext) {
		snap := wl.Snapshot()
		c.JSON(http.StatusOK, map[string]any{
			"ok":         true,
			"symbols":    snap.Symbols,
			"rows":       buildRows(snap),
			"profiles":   snap.Profiles,
			"loading":    snap.Loading,
			"refreshing": snap.Refreshing,
			"error":      snap.Error,
			"demo_mode":  snap.DemoMode,
		})
	})

	h.POST("/api/v1/watchlist/symbols", func(_ context.Context, c *app.RequestContext) {
		var req AddSymbolRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, map[string]any{
				"ok":    false,
				"error": "invalid json body",
			})
			return
		}
		if err := wl.AddSymbol(req.Symbol); err != nil {
			c.JSON(addSymbolStatus(err), map[string]any{
				"ok":    false,
				"error": err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, map[string]any{
			"ok":      true,
			"symbols": wl.Symbols(),
		})
	})

	h.DELETE("/api/v1/watchlist/symbols/:symbol", func(_ context.Context, c *app.RequestContext) {
		symbol := c.Param("symbol")
		if err := wl.RemoveSymbol(symbol); err != nil {
			c.JSON(http.StatusForbidden, map[string]any{
				"ok":    false,
				"error": err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, map[string]any{
			"ok":      true,
			"symbols": wl.Symbols(),
		})
	})

	h.POST("/api/v1/watchlist/refresh", func(_ context.Context, c *app.RequestContext) {
		wl.Refresh()
		c.JSON(http.StatusOK, map[string]any{"ok": true})
	})

	h.GET("/api/v1/chart", func(_ context.Context, c *app.RequestContext) {
		if symbol := string(c.Query("symbol")); symbol != "" {
			if err := ch.Select(symbol); err != nil {
				c.JSON(http.StatusBadRequest, map[string]any{
					"ok":    false,
					"error": err.Error(),
				})
				return
			}
			if st != nil {
				st.SetSelectedSymbol(market.NormalizeSymbol(symbol))
			}
		}
		snap := ch.Snapshot()
		c.JSON(http.StatusOK, map[string]any{
			"ok":           true,
			"symbol":       snap.Symbol,
			"series":       snap.Series,
			"loading":      snap.Loading,
			"error":        snap.Error,
			"is_demo_data": snap.IsDemoData,
		})
	})

	h.POST("/api/v1/chart/refresh", func(_ context.Context, c *app.RequestContext) {
		ch.Refresh()
		c.JSON(http.StatusOK, map[string]any{"ok": true})
	})

	h.DELETE("/api/v1/chart", func(_ context.Context, c *app.RequestContext) {
		ch.Clear()
		if st != nil {
			st.SetSelectedSymbol("")
		}
		c.JSON(http.StatusOK, map[string]any{"ok": true})
	})

	h.GET("/api/v1/prefs", func(_ context.Context, c *app.RequestContext) {
		if st == nil {
			c.JSON(http.StatusInternalServerError, map[string]any{
				"ok":    false,
				"error": "preference store not configured",
			})
			return
		}
		selected, _ := st.SelectedSymbol()
		c.JSON(http.StatusOK, map[string]any{
			"ok":              true,
			"dark_mode":       st.DarkMode(),
			"selected_symbol": selected,
			"user_prefs":      st.UserPrefs(),
		})
	})

	h.PUT("/api/v1/prefs", func(_ context.Context, c *app.RequestContext) {
		if st == nil {
			c.JSON(http.StatusInternalServerError, map[string]any{
				"ok":    false,
				"error": "preference store not configured",
			})
			return
		}
		var req PrefsRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, map[string]any{
				"ok":    false,
				"error": "invalid json body",
			})
			return
		}
		if req.DarkMode != nil {
			st.SetDarkMode(*req.DarkMode)
		}
		bundle := st.UserPrefs()
		if req.AutoRefresh != nil {
			bundle.AutoRefresh = *req.AutoRefresh
		}
		if req.RefreshIntervalSec != nil {
			bundle.RefreshIntervalSec = *req.RefreshIntervalSec
		}
		if req.ShowVolume != nil {
			bundle.ShowVolume = *req.ShowVolume
		}
		st.SetUserPrefs(bundle)
		if req.AutoRefresh != nil || req.RefreshIntervalSec != nil {
			interval := time.Duration(bundle.RefreshIntervalSec) * time.Second
			if !bundle.AutoRefresh {
				interval = 0
			}
			if err := wl.SetAutoRefresh(interval); err != nil {
				log.Printf("watchlist auto-refresh error: %v", err)
			}
		}
		c.JSON(http.StatusOK, map[string]any{
			"ok":         true,
			"dark_mode":  st.DarkMode(),
			"user_prefs": bundle,
		})
	})
}

func buildRows(snap watchlist.Snapshot) []Row {
	rows := make([]Row, 0, len(snap.Quotes))
	for _, q := range snap.Quotes {
		p, ok := snap.Profiles[q.Symbol]
		if !ok {
			p = market.FallbackProfile(q.Symbol)
		}
		row := Row{
			Quote:         q,
			Name:          p.Name,
			Logo:          p.Logo,
			DisplayPrice:  format.Currency(q.Price),
			DisplayChange: format.Percent(q.ChangePercent),
		}
		if p.MarketCap > 0 {
			// Provider market caps come in millions.
			row.DisplayMarketCap = format.Compact(p.MarketCap * 1e6)
		}
		rows = append(rows, row)
	}
	return rows
}

func addSymbolStatus(err error) int {
	switch {
	case errors.Is(err, market.ErrInvalidSymbol):
		return http.StatusBadRequest
	case errors.Is(err, watchlist.ErrDuplicateSymbol):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
