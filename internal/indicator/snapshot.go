package indicator

import (
	"fmt"
	"math"
	"time"

	"github.com/mzhur/crypto_paper_trader/internal/domain"
)

// Config holds indicator periods and the timeframes to compute them for.
type Config struct {
	EMAFast      int
	EMASlow      int
	MACDSignal   int
	RSIPeriod    int
	ATRPeriod    int
	DefaultLimit int
	Timeframes   map[string]int // label -> minutes
}

func DefaultConfig() Config {
	return Config{
		EMAFast:      12,
		EMASlow:      26,
		MACDSignal:   9,
		RSIPeriod:    14,
		ATRPeriod:    14,
		DefaultLimit: 200,
		Timeframes:   map[string]int{"3m": 3, "4h": 240},
	}
}

type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// trendEpsilon separates a genuine EMA crossover from float noise.
const trendEpsilon = 1e-9

// Snapshot holds the latest indicator values for one timeframe. It is
// derived on demand and never persisted.
type Snapshot struct {
	Timeframe  string    `json:"timeframe"`
	AsOf       time.Time `json:"as_of"`
	Close      float64   `json:"close"`
	EMAFast    float64   `json:"ema_fast"`
	EMASlow    float64   `json:"ema_slow"`
	Trend      Trend     `json:"ema_trend"`
	MACD       float64   `json:"macd"`
	MACDSignal float64   `json:"macd_signal"`
	MACDHist   float64   `json:"macd_hist"`
	RSI        float64   `json:"rsi"`
	ATR        float64   `json:"atr"`
}

// Compute builds a snapshot from an ordered (oldest to newest) candle
// sequence. It fails with ErrInsufficientHistory when fewer than 2 candles
// are supplied or no fully-defined row remains after dropping the leading
// rows that precede the first RSI delta.
func Compute(candles []domain.Candle, timeframe string, cfg Config) (Snapshot, error) {
	if len(candles) < 2 {
		return Snapshot{}, fmt.Errorf("%w: have %d candles, need at least 2",
			domain.ErrInsufficientHistory, len(candles))
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	emaFast := EMA(closes, cfg.EMAFast)
	emaSlow := EMA(closes, cfg.EMASlow)
	macd, macdSignal, macdHist := MACD(closes, cfg.EMAFast, cfg.EMASlow, cfg.MACDSignal)
	rsi := RSI(closes, cfg.RSIPeriod)
	atr := ATR(candles, cfg.ATRPeriod)

	// RSI is the only series with undefined leading rows.
	last := len(candles) - 1
	for last >= 0 && math.IsNaN(rsi[last]) {
		last--
	}
	if last < 0 {
		return Snapshot{}, fmt.Errorf("%w: no fully-defined indicator row",
			domain.ErrInsufficientHistory)
	}

	trend := TrendNeutral
	switch diff := emaFast[last] - emaSlow[last]; {
	case diff > trendEpsilon:
		trend = TrendBullish
	case diff < -trendEpsilon:
		trend = TrendBearish
	}

	return Snapshot{
		Timeframe:  timeframe,
		AsOf:       time.UnixMilli(candles[last].Time).UTC(),
		Close:      closes[last],
		EMAFast:    emaFast[last],
		EMASlow:    emaSlow[last],
		Trend:      trend,
		MACD:       macd[last],
		MACDSignal: macdSignal[last],
		MACDHist:   macdHist[last],
		RSI:        rsi[last],
		ATR:        atr[last],
	}, nil
}
