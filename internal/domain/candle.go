package domain

// Sample is a single raw (timestamp, value) observation from the data source.
// Timestamp is in unix milliseconds.
type Sample struct {
	Timestamp int64
	Value     float64
}

// RawSeries carries the raw price and volume series for one symbol.
// Volumes are matched to prices by exact timestamp during aggregation;
// a price sample without a matching volume contributes zero volume.
type RawSeries struct {
	Prices  []Sample
	Volumes []Sample
}

// Candle is a fixed-interval OHLCV bucket. Time is the bucket start in unix ms.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}
