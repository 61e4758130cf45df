package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mzhur/crypto_paper_trader/internal/indicator"
	"github.com/mzhur/crypto_paper_trader/internal/infrastructure/logger"
	"github.com/mzhur/crypto_paper_trader/internal/infrastructure/marketdata"
	"github.com/mzhur/crypto_paper_trader/internal/infrastructure/storage"
	"github.com/mzhur/crypto_paper_trader/internal/metrics"
	"github.com/mzhur/crypto_paper_trader/internal/usecase"
	"github.com/mzhur/crypto_paper_trader/internal/web"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Market struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"market"`
	Exchange struct {
		InitialBalance  float64  `yaml:"initial_balance"`
		DefaultLeverage int      `yaml:"default_leverage"`
		Symbols         []string `yaml:"symbols"`
		DBPath          string   `yaml:"db_path"`
	} `yaml:"exchange"`
	Polling struct {
		IntervalSeconds int `yaml:"interval_seconds"`
	} `yaml:"polling"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
}

func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func main() {
	// .env carries the optional CoinGecko API key; absence is fine.
	_ = godotenv.Load()

	cfg, err := loadConfig("config/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	dbPath := cfg.Exchange.DBPath
	if dbPath == "" {
		dbPath = "paper_trader.db"
	}
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	m := metrics.New()
	source := marketdata.NewCoinGeckoClient(cfg.Market.BaseURL, os.Getenv("COINGECKO_API_KEY"))
	market := usecase.NewMarketService(source, indicator.DefaultConfig(), m, log)

	ctx := context.Background()
	exchange, err := usecase.NewPaperExchange(ctx, market, store, usecase.ExchangeConfig{
		InitialBalance:  cfg.Exchange.InitialBalance,
		DefaultLeverage: cfg.Exchange.DefaultLeverage,
		Symbols:         cfg.Exchange.Symbols,
	}, m, log)
	if err != nil {
		log.Fatal("Failed to init paper exchange", zap.Error(err))
	}

	hub := web.NewHub(log)

	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	server := web.NewServer(port, exchange, market, hub, m, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	interval := cfg.Polling.IntervalSeconds
	if interval == 0 {
		interval = 30
	}

	// Control loop: one goroutine owns all exchange mutations, so the
	// simulator needs no internal locking.
	go func() {
		ticker := time.NewTicker(time.Duration(interval) * time.Second)
		defer ticker.Stop()

		for {
			runCycle(ctx, cfg.Exchange.Symbols, market, exchange, hub, log)

			select {
			case <-ticker.C:
				continue
			case <-stop:
				return
			}
		}
	}()

	<-stop

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
}

// runCycle refreshes market data for every configured symbol and pushes the
// results to dashboard clients. A symbol whose data source is down is
// skipped for this cycle, not retried.
func runCycle(
	ctx context.Context,
	symbols []string,
	market *usecase.MarketService,
	exchange *usecase.PaperExchange,
	hub *web.Hub,
	log *zap.Logger,
) {
	for _, symbol := range symbols {
		price, err := market.CurrentPrice(ctx, symbol)
		if err != nil {
			log.Warn("Skipping symbol, price unavailable",
				zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		hub.Broadcast("price", map[string]any{"symbol": symbol, "price": price})

		snapshots, err := market.CalculateIndicators(ctx, symbol)
		if err != nil {
			log.Warn("Indicators unavailable",
				zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		for tf, snap := range snapshots {
			log.Info("Indicators",
				zap.String("symbol", symbol),
				zap.String("timeframe", tf),
				zap.Float64("rsi", snap.RSI),
				zap.Float64("macd_hist", snap.MACDHist),
				zap.String("trend", string(snap.Trend)))
		}
		hub.Broadcast("indicators", map[string]any{"symbol": symbol, "timeframes": snapshots})
	}

	hub.Broadcast("balance", exchange.GetBalance())

	positions, err := exchange.GetPositions(ctx)
	if err != nil {
		log.Warn("Position valuation unavailable", zap.Error(err))
		return
	}
	hub.Broadcast("positions", positions)
}
