package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mzhur/crypto_paper_trader/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoadWithoutState(t *testing.T) {
	store := newStore(t)

	state, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	openedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	state := &domain.ExchangeState{
		Balance: domain.Balance{Total: 10000, Available: 9748.75, InPositions: 251.25},
		Positions: map[string]*domain.Position{
			"BTC-PERPETUAL": {
				Side:       domain.SideLong,
				Quantity:   0.5,
				EntryPrice: 100500,
				Leverage:   20,
				OpenedAt:   openedAt,
			},
		},
		Orders: map[string]*domain.Order{
			"ord-1": {
				ID:        "ord-1",
				Symbol:    "ETH-PERPETUAL",
				Side:      domain.OrderSideSell,
				Type:      domain.OrderTypeStopLoss,
				Quantity:  2,
				StopPrice: 3100,
				Status:    domain.OrderStatusPending,
			},
		},
		TradeHistory: []domain.Trade{
			{
				Timestamp: openedAt,
				OrderID:   "ord-0",
				Symbol:    "BTC-PERPETUAL",
				Side:      domain.OrderSideBuy,
				Quantity:  0.5,
				Price:     100500,
				Type:      domain.OrderTypeMarket,
			},
		},
	}

	require.NoError(t, store.Save(ctx, state))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, state, loaded)
}

func TestSaveRewritesRecord(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first := domain.NewExchangeState(10000)
	require.NoError(t, store.Save(ctx, first))

	second := domain.NewExchangeState(10000)
	second.Balance.Available = 5000
	second.Balance.InPositions = 5000
	require.NoError(t, store.Save(ctx, second))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, loaded.Balance.Available)
}
