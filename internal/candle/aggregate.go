package candle

import (
	"sort"

	"github.com/mzhur/crypto_paper_trader/internal/domain"
)

// Aggregate converts raw price samples into fixed-width OHLCV candles.
//
// Price samples are stable-sorted by timestamp (ties keep input order), so
// identical input yields identical output regardless of pre-sort order.
// Samples sharing the same bucket accumulate into one candle; a new candle
// starts whenever the bucket changes, and the final partial bucket is
// flushed at end of input. Volumes are matched to prices by exact
// timestamp; an unmatched price sample contributes zero volume.
//
// The result is ordered oldest to newest, truncated to the last limit
// entries (limit <= 0 means no truncation).
func Aggregate(prices, volumes []domain.Sample, bucketMinutes, limit int) []domain.Candle {
	if len(prices) == 0 {
		return nil
	}
	if bucketMinutes < 1 {
		bucketMinutes = 1
	}
	bucketMs := int64(bucketMinutes) * 60 * 1000

	volumeByTS := make(map[int64]float64, len(volumes))
	for _, v := range volumes {
		volumeByTS[v.Timestamp] = v.Value
	}

	sorted := make([]domain.Sample, len(prices))
	copy(sorted, prices)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	var candles []domain.Candle
	var cur domain.Candle
	open := false

	for _, s := range sorted {
		bucket := s.Timestamp / bucketMs * bucketMs
		if open && bucket != cur.Time {
			candles = append(candles, cur)
			open = false
		}
		if !open {
			cur = domain.Candle{
				Time:  bucket,
				Open:  s.Value,
				High:  s.Value,
				Low:   s.Value,
				Close: s.Value,
			}
			open = true
		} else {
			if s.Value > cur.High {
				cur.High = s.Value
			}
			if s.Value < cur.Low {
				cur.Low = s.Value
			}
			cur.Close = s.Value
		}
		cur.Volume += volumeByTS[s.Timestamp]
	}
	if open {
		candles = append(candles, cur)
	}

	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles
}
