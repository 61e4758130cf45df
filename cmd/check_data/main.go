package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mzhur/crypto_paper_trader/internal/indicator"
	"github.com/mzhur/crypto_paper_trader/internal/infrastructure/marketdata"
	"github.com/mzhur/crypto_paper_trader/internal/metrics"
	"github.com/mzhur/crypto_paper_trader/internal/usecase"
	"go.uber.org/zap"
)

// Quick manual check of the market data pipeline: price, candles and
// indicators for one symbol, printed to stdout.
func main() {
	_ = godotenv.Load()

	symbol := "BTC-PERPETUAL"
	if len(os.Args) > 1 {
		symbol = os.Args[1]
	}

	source := marketdata.NewCoinGeckoClient("", os.Getenv("COINGECKO_API_KEY"))
	market := usecase.NewMarketService(source, indicator.DefaultConfig(), metrics.New(), zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	price, err := market.CurrentPrice(ctx, symbol)
	if err != nil {
		fmt.Printf("Failed to fetch price for %s: %v\n", symbol, err)
		os.Exit(1)
	}
	fmt.Printf("%s price: %.2f USD\n", symbol, price)

	candles, err := market.GetOHLCV(ctx, symbol, 3, 10)
	if err != nil {
		fmt.Printf("Failed to fetch candles: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Last %d 3m candles:\n", len(candles))
	for _, c := range candles {
		fmt.Printf("- %s O=%.2f H=%.2f L=%.2f C=%.2f V=%.2f\n",
			time.UnixMilli(c.Time).UTC().Format(time.RFC3339),
			c.Open, c.High, c.Low, c.Close, c.Volume)
	}

	snapshots, err := market.CalculateIndicators(ctx, symbol)
	if err != nil {
		fmt.Printf("Failed to compute indicators: %v\n", err)
		os.Exit(1)
	}
	for tf, snap := range snapshots {
		fmt.Printf("[%s] close=%.2f ema_fast=%.2f ema_slow=%.2f trend=%s macd_hist=%.4f rsi=%.1f atr=%.2f\n",
			tf, snap.Close, snap.EMAFast, snap.EMASlow, snap.Trend, snap.MACDHist, snap.RSI, snap.ATR)
	}
}
