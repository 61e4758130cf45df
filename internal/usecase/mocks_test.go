package usecase_test

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mzhur/crypto_paper_trader/internal/domain"
)

// mockDataSource serves canned prices and raw series, counting fetches so
// tests can assert cache behavior.
type mockDataSource struct {
	Prices      map[string]float64
	Series      map[string]*domain.RawSeries // keyed by interval
	PriceCalls  int
	SeriesCalls int
	Err         error
}

func (m *mockDataSource) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	m.PriceCalls++
	if m.Err != nil {
		return 0, m.Err
	}
	price, ok := m.Prices[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: no price for %s", domain.ErrDataUnavailable, symbol)
	}
	return price, nil
}

func (m *mockDataSource) RawSeries(ctx context.Context, symbol string, days int, interval string) (*domain.RawSeries, error) {
	m.SeriesCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	series, ok := m.Series[interval]
	if !ok {
		return nil, fmt.Errorf("%w: no series for %s", domain.ErrDataUnavailable, symbol)
	}
	return series, nil
}

// memoryStore keeps the serialized state in memory, mimicking the durable
// full-rewrite contract.
type memoryStore struct {
	payload  []byte
	Saves    int
	FailSave bool
}

func (s *memoryStore) Load(ctx context.Context) (*domain.ExchangeState, error) {
	if s.payload == nil {
		return nil, nil
	}
	var state domain.ExchangeState
	if err := json.Unmarshal(s.payload, &state); err != nil {
		return nil, err
	}
	for id, o := range state.Orders {
		o.ID = id
	}
	return &state, nil
}

func (s *memoryStore) Save(ctx context.Context, state *domain.ExchangeState) error {
	if s.FailSave {
		return fmt.Errorf("disk full")
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.payload = payload
	s.Saves++
	return nil
}
