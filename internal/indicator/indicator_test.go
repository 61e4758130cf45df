package indicator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/mzhur/crypto_paper_trader/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestEMAConstantSeries(t *testing.T) {
	values := []float64{42, 42, 42, 42, 42, 42, 42, 42}
	for _, span := range []int{1, 2, 12, 26} {
		for i, v := range EMA(values, span) {
			assert.InDelta(t, 42.0, v, 1e-12, "span %d index %d", span, i)
		}
	}
}

func TestEMARecursion(t *testing.T) {
	values := []float64{10, 20, 30}
	out := EMA(values, 3) // alpha = 0.5
	assert.InDelta(t, 10.0, out[0], 1e-12)
	assert.InDelta(t, 15.0, out[1], 1e-12)
	assert.InDelta(t, 22.5, out[2], 1e-12)
}

func TestMACDHistogramIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	values := make([]float64, 100)
	for i := range values {
		values[i] = 100 + rng.Float64()*10
	}

	line, signal, hist := MACD(values, 12, 26, 9)
	for i := range values {
		assert.InDelta(t, line[i]-signal[i], hist[i], 1e-12)
	}
}

func TestRSIBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	values := make([]float64, 300)
	values[0] = 1000
	for i := 1; i < len(values); i++ {
		values[i] = values[i-1] * (1 + (rng.Float64()-0.5)*0.1)
	}

	for i, v := range RSI(values, 14) {
		if i == 0 {
			assert.True(t, math.IsNaN(v), "index 0 must be undefined")
			continue
		}
		assert.GreaterOrEqual(t, v, 0.0, "index %d", i)
		assert.LessOrEqual(t, v, 100.0, "index %d", i)
	}
}

func TestRSIAllGains(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	rsi := RSI(values, 3)
	for i := 1; i < len(rsi); i++ {
		assert.Equal(t, 100.0, rsi[i], "index %d", i)
	}
}

func TestWindowedRSIPadsWithNeutral(t *testing.T) {
	values := []float64{10, 11, 10.5, 11.5}
	out := WindowedRSI(values, 14, 6)
	assert.Len(t, out, 6)
	// 4 closes give 3 defined points; the 3 missing leading points are 50.
	assert.Equal(t, []float64{50, 50, 50}, out[:3])
	for _, v := range out[3:] {
		assert.False(t, math.IsNaN(v))
	}
}

func TestATRShrinkingWindow(t *testing.T) {
	candles := []domain.Candle{
		{High: 110, Low: 100, Close: 105},
		{High: 112, Low: 104, Close: 110},
		{High: 120, Low: 108, Close: 118},
	}

	atr := ATR(candles, 14)
	// First point: plain high-low range, no previous close.
	assert.InDelta(t, 10.0, atr[0], 1e-12)
	// Second: mean of (10, max(8, |112-105|, |104-105|)) = (10+8)/2.
	assert.InDelta(t, 9.0, atr[1], 1e-12)
	// Third: mean of (10, 8, max(12, |120-110|, |108-110|)) = 10.
	assert.InDelta(t, 10.0, atr[2], 1e-12)
}

func TestATRRollingWindow(t *testing.T) {
	var candles []domain.Candle
	for i := 0; i < 10; i++ {
		base := 100.0 + float64(i)
		candles = append(candles, domain.Candle{High: base + 2, Low: base, Close: base + 1})
	}

	atr := ATR(candles, 3)
	// Once the window is full every true range is identical, so ATR settles.
	for i := 3; i < len(atr); i++ {
		assert.InDelta(t, atr[3], atr[i], 1e-12, "index %d", i)
	}
}
