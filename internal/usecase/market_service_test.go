package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mzhur/crypto_paper_trader/internal/domain"
	"github.com/mzhur/crypto_paper_trader/internal/indicator"
	"github.com/mzhur/crypto_paper_trader/internal/metrics"
	"github.com/mzhur/crypto_paper_trader/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMarketService(source *mockDataSource) *usecase.MarketService {
	return usecase.NewMarketService(source, indicator.DefaultConfig(), metrics.New(), zap.NewNop())
}

// sampleSeries builds a raw series with one price/volume pair per step.
func sampleSeries(n int, stepMs int64) *domain.RawSeries {
	series := &domain.RawSeries{}
	for i := 0; i < n; i++ {
		ts := int64(i) * stepMs
		series.Prices = append(series.Prices, domain.Sample{Timestamp: ts, Value: 100 + float64(i%7)})
		series.Volumes = append(series.Volumes, domain.Sample{Timestamp: ts, Value: 1})
	}
	return series
}

func TestCurrentPriceIsCached(t *testing.T) {
	source := &mockDataSource{Prices: map[string]float64{"BTC-PERPETUAL": 42000}}
	svc := newMarketService(source)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		price, err := svc.CurrentPrice(ctx, "BTC-PERPETUAL")
		require.NoError(t, err)
		assert.Equal(t, 42000.0, price)
	}
	assert.Equal(t, 1, source.PriceCalls)
}

func TestGetOHLCVIsCachedPerKey(t *testing.T) {
	source := &mockDataSource{Series: map[string]*domain.RawSeries{
		"minutely": sampleSeries(600, 60_000),
	}}
	svc := newMarketService(source)
	ctx := context.Background()

	first, err := svc.GetOHLCV(ctx, "BTC-PERPETUAL", 3, 100)
	require.NoError(t, err)
	second, err := svc.GetOHLCV(ctx, "BTC-PERPETUAL", 3, 100)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, source.SeriesCalls)

	// A different limit is a different cache key.
	_, err = svc.GetOHLCV(ctx, "BTC-PERPETUAL", 3, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, source.SeriesCalls)
}

func TestGetOHLCVAggregates(t *testing.T) {
	source := &mockDataSource{Series: map[string]*domain.RawSeries{
		"minutely": {
			Prices: []domain.Sample{
				{Timestamp: 0, Value: 100},
				{Timestamp: 60000, Value: 110},
				{Timestamp: 120000, Value: 105},
				{Timestamp: 180000, Value: 120},
			},
			Volumes: []domain.Sample{
				{Timestamp: 0, Value: 10},
				{Timestamp: 60000, Value: 20},
				{Timestamp: 120000, Value: 30},
				{Timestamp: 180000, Value: 40},
			},
		},
	}}
	svc := newMarketService(source)

	candles, err := svc.GetOHLCV(context.Background(), "BTC-PERPETUAL", 2, 2)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, domain.Candle{Time: 0, Open: 100, High: 110, Low: 100, Close: 110, Volume: 30}, candles[0])
	assert.Equal(t, domain.Candle{Time: 120000, Open: 105, High: 120, Low: 105, Close: 120, Volume: 70}, candles[1])
}

func TestCalculateIndicators(t *testing.T) {
	source := &mockDataSource{Series: map[string]*domain.RawSeries{
		"minutely": sampleSeries(2000, 60_000),   // ~33h of minutely samples
		"hourly":   sampleSeries(720, 3_600_000), // 30 days of hourly samples
	}}
	svc := newMarketService(source)

	snaps, err := svc.CalculateIndicators(context.Background(), "BTC-PERPETUAL")
	require.NoError(t, err)
	require.Contains(t, snaps, "3m")
	require.Contains(t, snaps, "4h")

	for label, snap := range snaps {
		assert.Equal(t, label, snap.Timeframe)
		assert.GreaterOrEqual(t, snap.RSI, 0.0)
		assert.LessOrEqual(t, snap.RSI, 100.0)
		assert.False(t, snap.AsOf.IsZero())
	}
}

func TestDataUnavailablePropagates(t *testing.T) {
	source := &mockDataSource{Err: domain.ErrDataUnavailable}
	svc := newMarketService(source)
	ctx := context.Background()

	_, err := svc.CurrentPrice(ctx, "BTC-PERPETUAL")
	assert.True(t, errors.Is(err, domain.ErrDataUnavailable))

	_, err = svc.GetOHLCV(ctx, "BTC-PERPETUAL", 3, 100)
	assert.True(t, errors.Is(err, domain.ErrDataUnavailable))

	_, err = svc.CalculateIndicators(ctx, "BTC-PERPETUAL")
	assert.True(t, errors.Is(err, domain.ErrDataUnavailable))
}
