package domain

import "errors"

var (
	// ErrDataUnavailable reports a failure to fetch price or history from
	// the market data source. The core never retries; retry/backoff, if
	// desired, belongs to the data source client.
	ErrDataUnavailable = errors.New("market data unavailable")

	// ErrInsufficientHistory reports fewer candles than an indicator needs.
	ErrInsufficientHistory = errors.New("insufficient candle history")

	// ErrInvalidOrder rejects an order call without mutating state.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrPersistenceFailure reports a durable write that did not complete.
	// The in-memory state has already changed when this is returned.
	ErrPersistenceFailure = errors.New("state persistence failed")
)
