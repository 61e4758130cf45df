package indicator

import (
	"math"

	"github.com/mzhur/crypto_paper_trader/internal/domain"
)

// EMA returns the exponential moving average of values with
// alpha = 2/(span+1), seeded with the first value.
func EMA(values []float64, span int) []float64 {
	if len(values) == 0 || span < 1 {
		return nil
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// MACD returns the MACD line, signal line and histogram for values.
func MACD(values []float64, fast, slow, signal int) (line, signalLine, hist []float64) {
	emaFast := EMA(values, fast)
	emaSlow := EMA(values, slow)
	if emaFast == nil || emaSlow == nil {
		return nil, nil, nil
	}

	line = make([]float64, len(values))
	for i := range values {
		line[i] = emaFast[i] - emaSlow[i]
	}
	signalLine = EMA(line, signal)
	hist = make([]float64, len(values))
	for i := range values {
		hist[i] = line[i] - signalLine[i]
	}
	return line, signalLine, hist
}

// RSI returns the relative strength index of values using Wilder smoothing
// (alpha = 1/period) seeded from the first delta. The value at index 0
// precedes the first computable delta and is NaN.
func RSI(values []float64, period int) []float64 {
	if len(values) < 2 || period < 1 {
		return nil
	}
	alpha := 1.0 / float64(period)
	out := make([]float64, len(values))
	out[0] = math.NaN()

	var avgGain, avgLoss float64
	for i := 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		var gain, loss float64
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}

		if i == 1 {
			avgGain, avgLoss = gain, loss
		} else {
			avgGain = alpha*gain + (1-alpha)*avgGain
			avgLoss = alpha*loss + (1-alpha)*avgLoss
		}

		if avgLoss == 0 {
			out[i] = 100
		} else {
			rs := avgGain / avgLoss
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}

// WindowedRSI returns the last window RSI points for display. When history
// is too short, missing leading points are filled with a neutral 50 rather
// than NaN.
func WindowedRSI(values []float64, period, window int) []float64 {
	if window < 1 {
		return nil
	}

	var defined []float64
	for _, v := range RSI(values, period) {
		if !math.IsNaN(v) {
			defined = append(defined, v)
		}
	}
	if len(defined) > window {
		defined = defined[len(defined)-window:]
	}

	out := make([]float64, 0, window)
	for i := len(defined); i < window; i++ {
		out = append(out, 50)
	}
	return append(out, defined...)
}

// ATR returns the average true range of the candles: the rolling mean of
// true range over period samples, using a shrinking window for the first
// period-1 points.
func ATR(candles []domain.Candle, period int) []float64 {
	if len(candles) == 0 || period < 1 {
		return nil
	}

	tr := make([]float64, len(candles))
	tr[0] = candles[0].High - candles[0].Low
	for i := 1; i < len(candles); i++ {
		c := candles[i]
		prevClose := candles[i-1].Close
		tr[i] = math.Max(c.High-c.Low,
			math.Max(math.Abs(c.High-prevClose), math.Abs(c.Low-prevClose)))
	}

	out := make([]float64, len(candles))
	var sum float64
	for i := range tr {
		sum += tr[i]
		if i >= period {
			sum -= tr[i-period]
			out[i] = sum / float64(period)
		} else {
			out[i] = sum / float64(i+1)
		}
	}
	return out
}
