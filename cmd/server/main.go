package main

import (
	"fmt"
	"log"
	"time"

	"github.com/tasnimxahmed-cs/value-glance-stock-dashboard/internal/api"
	"github.com/tasnimxahmed-cs/value-glance-stock-dashboard/internal/chart"
	"github.com/tasnimxahmed-cs/value-glance-stock-dashboard/internal/config"
	"github.com/tasnimxahmed-cs/value-glance-stock-dashboard/internal/market"
	"github.com/tasnimxahmed-cs/value-glance-stock-dashboard/internal/prefs"
	"github.com/tasnimxahmed-cs/value-glance-stock-dashboard/internal/watchlist"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := config.Load("configs/app.yaml")
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.DemoMode() {
		log.Printf("no provider api key configured, running on demo data")
	}

	st, err := prefs.Open(cfg.Store.Sqlite.Path)
	if err != nil {
		log.Fatalf("prefs store error: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("prefs store close error: %v", err)
		}
	}()

	transport := market.NewFinnhub(
		cfg.Provider.BaseURL,
		cfg.Provider.APIKey,
		time.Duration(cfg.Provider.TimeoutMs)*time.Millisecond,
	)
	batch := market.NewBatch(transport, time.Duration(cfg.Provider.PacingMs)*time.Millisecond)

	symbols := st.Watchlist(cfg.Market.Symbols)
	wl := watchlist.New(batch, cfg.DemoMode(), symbols, cfg.Market.Symbols, st.SetWatchlist)
	defer wl.Close()

	ch := chart.New(transport, cfg.DemoMode())
	defer ch.Close()

	bundle := st.UserPrefs()
	if bundle.AutoRefresh && cfg.Market.RefreshIntervalSec > 0 {
		if err := wl.SetAutoRefresh(time.Duration(cfg.Market.RefreshIntervalSec) * time.Second); err != nil {
			log.Printf("watchlist auto-refresh error: %v", err)
		}
	}
	if cfg.Market.ChartRefreshIntervalSec > 0 {
		if err := ch.SetAutoRefresh(time.Duration(cfg.Market.ChartRefreshIntervalSec) * time.Second); err != nil {
			log.Printf("chart auto-refresh error: %v", err)
		}
	}

	wl.Refresh()
	if symbol, ok := st.SelectedSymbol(); ok {
		if err := ch.Select(symbol); err != nil {
			log.Printf("restore selection %s error: %v", symbol, err)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	h := server.Default(server.WithHostPorts(addr))
	api.RegisterRoutes(h, wl, ch, st)

	log.Printf("server starting on %s (log.level=%s, demo=%v)", addr, cfg.Log.Level, cfg.DemoMode())
	if err := h.Run(); err != nil {
		log.Fatalf("server run error: %v", err)
	}
}
