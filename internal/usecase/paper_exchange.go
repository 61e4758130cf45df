package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mzhur/crypto_paper_trader/internal/domain"
	"github.com/mzhur/crypto_paper_trader/internal/metrics"
	"go.uber.org/zap"
)

// slippagePct is the fixed adverse fill adjustment for market orders:
// buys fill 0.05% above the mark, sells 0.05% below.
const slippagePct = 0.0005

// liqBuffer widens the liquidation estimate beyond plain 1/leverage margin
// math. Fixed design constant, not derived from real margin rules.
const liqBuffer = 1.5

// PriceSource is the slice of market data the simulator needs for marks.
type PriceSource interface {
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
}

type ExchangeConfig struct {
	InitialBalance  float64
	DefaultLeverage int
	Symbols         []string
}

// PaperExchange simulates order execution and position bookkeeping against
// a virtual balance. It holds no internal lock: the design assumes a single
// logical writer (the control loop), so concurrent mutating calls must be
// serialized by the caller. Every mutation rewrites the full state to the
// store before returning.
type PaperExchange struct {
	prices  PriceSource
	store   domain.StateStore
	cfg     ExchangeConfig
	symbols map[string]bool
	state   *domain.ExchangeState
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewPaperExchange loads the persisted state, or initializes a fresh one
// with the configured starting balance when none exists yet.
func NewPaperExchange(
	ctx context.Context,
	prices PriceSource,
	store domain.StateStore,
	cfg ExchangeConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) (*PaperExchange, error) {
	state, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load exchange state: %w", err)
	}
	if state == nil {
		state = domain.NewExchangeState(cfg.InitialBalance)
		if err := store.Save(ctx, state); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
		}
		logger.Info("initialized paper exchange",
			zap.Float64("balance", cfg.InitialBalance))
	} else {
		logger.Info("loaded paper exchange state",
			zap.Float64("balance", state.Balance.Total),
			zap.Int("positions", len(state.Positions)),
			zap.Int("trades", len(state.TradeHistory)))
	}

	symbols := make(map[string]bool, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		symbols[s] = true
	}

	e := &PaperExchange{
		prices:  prices,
		store:   store,
		cfg:     cfg,
		symbols: symbols,
		state:   state,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
	e.updateGauges()
	return e, nil
}

// GetBalance returns the current balance snapshot.
func (e *PaperExchange) GetBalance() domain.Balance {
	return e.state.Balance
}

// GetPositions returns every open position valued at the current mark price,
// with unrealized PnL and a liquidation estimate attached.
func (e *PaperExchange) GetPositions(ctx context.Context) ([]domain.OpenPosition, error) {
	out := make([]domain.OpenPosition, 0, len(e.state.Positions))
	for symbol, pos := range e.state.Positions {
		mark, err := e.prices.CurrentPrice(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("mark price for %s: %w", symbol, err)
		}
		out = append(out, valuePosition(symbol, pos, mark))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func valuePosition(symbol string, pos *domain.Position, mark float64) domain.OpenPosition {
	lev := float64(pos.Leverage)
	var pnl, liq float64
	if pos.Side == domain.SideLong {
		pnl = (mark - pos.EntryPrice) * pos.Quantity * lev
		liq = pos.EntryPrice * (1 - 1/(lev*liqBuffer))
	} else {
		pnl = (pos.EntryPrice - mark) * pos.Quantity * lev
		liq = pos.EntryPrice * (1 + 1/(lev*liqBuffer))
	}
	return domain.OpenPosition{
		Symbol:           symbol,
		Side:             pos.Side,
		Quantity:         pos.Quantity,
		EntryPrice:       pos.EntryPrice,
		CurrentPrice:     mark,
		UnrealizedPnL:    pnl,
		LiquidationPrice: liq,
		Leverage:         pos.Leverage,
		OpenedAt:         pos.OpenedAt,
	}
}

// PlaceMarketOrder fills immediately at the mark price adjusted for
// slippage, applies the merge-or-flip rule, records the fill and persists
// the full state.
func (e *PaperExchange) PlaceMarketOrder(ctx context.Context, symbol string, side domain.OrderSide, qty float64) (*domain.Order, error) {
	if err := e.validateOrder(symbol, side, qty); err != nil {
		return nil, err
	}

	mark, err := e.prices.CurrentPrice(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("mark price for %s: %w", symbol, err)
	}

	fill := mark * (1 - slippagePct)
	if side == domain.OrderSideBuy {
		fill = mark * (1 + slippagePct)
	}

	order := &domain.Order{
		ID:       uuid.NewString(),
		Symbol:   symbol,
		Side:     side,
		Type:     domain.OrderTypeMarket,
		Quantity: qty,
		Price:    fill,
		Status:   domain.OrderStatusFilled,
	}

	e.applyFill(symbol, side, qty, fill)
	e.state.TradeHistory = append(e.state.TradeHistory, domain.Trade{
		Timestamp: e.now().UTC(),
		OrderID:   order.ID,
		Symbol:    symbol,
		Side:      side,
		Quantity:  qty,
		Price:     fill,
		Type:      domain.OrderTypeMarket,
	})
	e.recomputeBalance()

	if err := e.persist(ctx); err != nil {
		return nil, err
	}

	e.metrics.OrdersFilled.Inc()
	e.logger.Info("market order filled",
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.Float64("quantity", qty),
		zap.Float64("price", fill))
	return order, nil
}

// PlaceLimitOrder records a pending limit order. There is no matching
// engine: the order stays pending until cancelled.
func (e *PaperExchange) PlaceLimitOrder(ctx context.Context, symbol string, side domain.OrderSide, qty, price float64) (*domain.Order, error) {
	return e.recordPending(ctx, &domain.Order{
		Symbol:   symbol,
		Side:     side,
		Type:     domain.OrderTypeLimit,
		Quantity: qty,
		Price:    price,
	})
}

// PlaceStopLoss records a pending stop-loss order; never auto-triggered.
func (e *PaperExchange) PlaceStopLoss(ctx context.Context, symbol string, side domain.OrderSide, qty, stopPrice float64) (*domain.Order, error) {
	return e.recordPending(ctx, &domain.Order{
		Symbol:    symbol,
		Side:      side,
		Type:      domain.OrderTypeStopLoss,
		Quantity:  qty,
		StopPrice: stopPrice,
	})
}

// PlaceTakeProfit records a pending take-profit order; never auto-triggered.
func (e *PaperExchange) PlaceTakeProfit(ctx context.Context, symbol string, side domain.OrderSide, qty, targetPrice float64) (*domain.Order, error) {
	return e.recordPending(ctx, &domain.Order{
		Symbol:      symbol,
		Side:        side,
		Type:        domain.OrderTypeTakeProfit,
		Quantity:    qty,
		TargetPrice: targetPrice,
	})
}

func (e *PaperExchange) recordPending(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := e.validateOrder(order.Symbol, order.Side, order.Quantity); err != nil {
		return nil, err
	}

	order.ID = uuid.NewString()
	order.Status = domain.OrderStatusPending
	e.state.Orders[order.ID] = order

	if err := e.persist(ctx); err != nil {
		return nil, err
	}

	e.metrics.OrdersPending.Inc()
	e.logger.Info("order recorded as pending",
		zap.String("symbol", order.Symbol),
		zap.String("type", string(order.Type)),
		zap.String("side", string(order.Side)),
		zap.Float64("quantity", order.Quantity))
	return order, nil
}

// CancelOrder marks the order cancelled. A missing id is reported as
// found=false, not as an error.
func (e *PaperExchange) CancelOrder(ctx context.Context, id string) (bool, error) {
	order, ok := e.state.Orders[id]
	if !ok {
		return false, nil
	}
	order.Status = domain.OrderStatusCancelled

	if err := e.persist(ctx); err != nil {
		return true, err
	}

	e.metrics.OrdersCancelled.Inc()
	e.logger.Info("order cancelled", zap.String("order_id", id))
	return true, nil
}

// SetLeverage is acknowledged without effect; the simulator does not
// enforce cross-margin rules.
func (e *PaperExchange) SetLeverage(symbol string, leverage int) error {
	e.logger.Info("leverage acknowledged",
		zap.String("symbol", symbol),
		zap.Int("leverage", leverage))
	return nil
}

// GetOrders returns all recorded orders, pending and cancelled, sorted by id.
func (e *PaperExchange) GetOrders() []*domain.Order {
	out := make([]*domain.Order, 0, len(e.state.Orders))
	for _, o := range e.state.Orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetTradeHistory returns the append-only log of fills, oldest first.
func (e *PaperExchange) GetTradeHistory() []domain.Trade {
	out := make([]domain.Trade, len(e.state.TradeHistory))
	copy(out, e.state.TradeHistory)
	return out
}

func (e *PaperExchange) validateOrder(symbol string, side domain.OrderSide, qty float64) error {
	var err error
	switch {
	case qty <= 0:
		err = fmt.Errorf("%w: quantity must be positive, got %v", domain.ErrInvalidOrder, qty)
	case !e.symbols[symbol]:
		err = fmt.Errorf("%w: unknown symbol %q", domain.ErrInvalidOrder, symbol)
	case side != domain.OrderSideBuy && side != domain.OrderSideSell:
		err = fmt.Errorf("%w: unsupported side %q", domain.ErrInvalidOrder, side)
	}
	if err != nil {
		e.metrics.OrdersRejected.Inc()
	}
	return err
}

// applyFill applies the merge-or-flip rule for a fill against a symbol.
func (e *PaperExchange) applyFill(symbol string, side domain.OrderSide, qty, price float64) {
	incoming := side.PositionSide()
	pos, ok := e.state.Positions[symbol]
	if !ok {
		e.state.Positions[symbol] = &domain.Position{
			Side:       incoming,
			Quantity:   qty,
			EntryPrice: price,
			Leverage:   e.cfg.DefaultLeverage,
			OpenedAt:   e.now().UTC(),
		}
		return
	}

	if pos.Side == incoming {
		// Same direction: weighted-average entry.
		total := pos.Quantity + qty
		pos.EntryPrice = (pos.EntryPrice*pos.Quantity + price*qty) / total
		pos.Quantity = total
		return
	}

	switch {
	case qty < pos.Quantity:
		// Partial close. Realized PnL on the closed portion is not booked
		// into the balance; entry price stays unchanged.
		pos.Quantity -= qty
	case qty == pos.Quantity:
		delete(e.state.Positions, symbol)
	default:
		// Flip: the excess quantity opens a position in the other direction.
		pos.Side = incoming
		pos.Quantity = qty - pos.Quantity
		pos.EntryPrice = price
	}
}

// recomputeBalance derives margin usage from open positions. Total is never
// adjusted for realized PnL or fees here.
func (e *PaperExchange) recomputeBalance() {
	var inPositions float64
	for _, pos := range e.state.Positions {
		inPositions += pos.Quantity * pos.EntryPrice / float64(pos.Leverage)
	}
	e.state.Balance.InPositions = inPositions
	e.state.Balance.Available = e.state.Balance.Total - inPositions
	e.updateGauges()
}

func (e *PaperExchange) updateGauges() {
	e.metrics.BalanceTotal.Set(e.state.Balance.Total)
	e.metrics.BalanceAvailable.Set(e.state.Balance.Available)
	e.metrics.OpenPositions.Set(float64(len(e.state.Positions)))
}

// persist rewrites the whole state. On failure the in-memory state has
// already changed, so memory and the durable copy stay out of sync until
// the next successful write.
func (e *PaperExchange) persist(ctx context.Context) error {
	if err := e.store.Save(ctx, e.state); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}
	return nil
}
