package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/mzhur/crypto_paper_trader/internal/cache"
	"github.com/mzhur/crypto_paper_trader/internal/candle"
	"github.com/mzhur/crypto_paper_trader/internal/domain"
	"github.com/mzhur/crypto_paper_trader/internal/indicator"
	"github.com/mzhur/crypto_paper_trader/internal/metrics"
	"go.uber.org/zap"
)

const (
	defaultPriceTTL = 30 * time.Second
	defaultOHLCVTTL = 60 * time.Second
)

type ohlcvKey struct {
	symbol  string
	minutes int
	limit   int
}

// MarketService wraps the market data source with short-lived caches and
// the candle aggregator. Concurrent lookups for the same key are not
// deduplicated; both issue a fetch and the cache keeps whichever write
// lands last.
type MarketService struct {
	source   domain.MarketDataSource
	cfg      indicator.Config
	priceTTL time.Duration
	ohlcvTTL time.Duration

	priceCache *cache.Cache[string, float64]
	ohlcvCache *cache.Cache[ohlcvKey, []domain.Candle]

	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewMarketService(source domain.MarketDataSource, cfg indicator.Config, m *metrics.Metrics, logger *zap.Logger) *MarketService {
	return &MarketService{
		source:     source,
		cfg:        cfg,
		priceTTL:   defaultPriceTTL,
		ohlcvTTL:   defaultOHLCVTTL,
		priceCache: cache.New[string, float64](),
		ohlcvCache: cache.New[ohlcvKey, []domain.Candle](),
		metrics:    m,
		logger:     logger,
	}
}

// CurrentPrice returns the latest mark price for a symbol, cached for a
// short TTL.
func (s *MarketService) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	if price, ok := s.priceCache.Get(symbol); ok {
		s.metrics.CacheHits.WithLabelValues("price").Inc()
		return price, nil
	}
	s.metrics.CacheMisses.WithLabelValues("price").Inc()

	price, err := s.source.CurrentPrice(ctx, symbol)
	if err != nil {
		s.metrics.DataSourceErrors.Inc()
		return 0, err
	}
	s.priceCache.Set(symbol, price, s.priceTTL)
	return price, nil
}

// GetOHLCV fetches the raw series for a symbol and aggregates it into
// fixed-width candles, memoizing the result per (symbol, timeframe, limit).
func (s *MarketService) GetOHLCV(ctx context.Context, symbol string, timeframeMinutes, limit int) ([]domain.Candle, error) {
	key := ohlcvKey{symbol: symbol, minutes: timeframeMinutes, limit: limit}
	if candles, ok := s.ohlcvCache.Get(key); ok {
		s.metrics.CacheHits.WithLabelValues("ohlcv").Inc()
		return candles, nil
	}
	s.metrics.CacheMisses.WithLabelValues("ohlcv").Inc()

	interval := "hourly"
	if timeframeMinutes <= 60 {
		interval = "minutely"
	}

	raw, err := s.source.RawSeries(ctx, symbol, historyDays(timeframeMinutes, limit), interval)
	if err != nil {
		s.metrics.DataSourceErrors.Inc()
		return nil, err
	}

	candles := candle.Aggregate(raw.Prices, raw.Volumes, timeframeMinutes, limit)
	s.ohlcvCache.Set(key, candles, s.ohlcvTTL)
	s.logger.Debug("aggregated candles",
		zap.String("symbol", symbol),
		zap.Int("timeframe_minutes", timeframeMinutes),
		zap.Int("count", len(candles)))
	return candles, nil
}

// CalculateIndicators builds an indicator snapshot per configured timeframe.
func (s *MarketService) CalculateIndicators(ctx context.Context, symbol string) (map[string]indicator.Snapshot, error) {
	out := make(map[string]indicator.Snapshot, len(s.cfg.Timeframes))
	for label, minutes := range s.cfg.Timeframes {
		candles, err := s.GetOHLCV(ctx, symbol, minutes, s.cfg.DefaultLimit)
		if err != nil {
			return nil, fmt.Errorf("fetch %s candles for %s: %w", label, symbol, err)
		}
		snap, err := indicator.Compute(candles, label, s.cfg)
		if err != nil {
			return nil, fmt.Errorf("compute %s indicators for %s: %w", label, symbol, err)
		}
		out[label] = snap
	}
	return out, nil
}

// CalculateFromCandles computes a snapshot for candles already in hand.
func (s *MarketService) CalculateFromCandles(candles []domain.Candle, timeframe string) (indicator.Snapshot, error) {
	return indicator.Compute(candles, timeframe, s.cfg)
}

// historyDays estimates how many days of raw samples cover limit buckets of
// the given width, clamped to what the source serves per interval (7 days
// of minutely samples, 90 days of hourly).
func historyDays(timeframeMinutes, limit int) int {
	if timeframeMinutes < 1 {
		timeframeMinutes = 1
	}
	if limit < 1 {
		limit = 1
	}
	totalMinutes := timeframeMinutes * limit

	if timeframeMinutes <= 60 {
		days := int(math.Ceil(float64(totalMinutes) / (60 * 24)))
		return clampInt(days, 1, 7)
	}
	days := int(math.Ceil(float64(totalMinutes) / 60 / 24))
	return clampInt(days, 1, 90)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
