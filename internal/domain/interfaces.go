package domain

import "context"

// MarketDataSource provides raw market data for the simulator.
type MarketDataSource interface {
	// CurrentPrice returns the latest USD price for a symbol.
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
	// RawSeries returns raw price and volume samples covering the given
	// number of days at the given interval ("minutely" or "hourly").
	RawSeries(ctx context.Context, symbol string, days int, interval string) (*RawSeries, error)
}

// StateStore persists the full exchange state as a single durable record.
// No cross-process locking is provided; single-writer access is assumed.
type StateStore interface {
	// Load returns the persisted state, or (nil, nil) if none exists yet.
	Load(ctx context.Context) (*ExchangeState, error)
	// Save rewrites the whole state, replacing any prior record.
	Save(ctx context.Context, state *ExchangeState) error
}
