package domain

import "time"

type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// PositionSide maps a buy fill to a long position and a sell fill to a short.
func (s OrderSide) PositionSide() Side {
	if s == OrderSideBuy {
		return SideLong
	}
	return SideShort
}

type OrderType string

const (
	OrderTypeMarket     OrderType = "market"
	OrderTypeLimit      OrderType = "limit"
	OrderTypeStopLoss   OrderType = "stop_loss"
	OrderTypeTakeProfit OrderType = "take_profit"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Position is the persisted record of an open position. The symbol is the
// key of ExchangeState.Positions, not part of the record itself.
type Position struct {
	Side       Side      `json:"side"`
	Quantity   float64   `json:"quantity"`
	EntryPrice float64   `json:"entry_price"`
	Leverage   int       `json:"leverage"`
	OpenedAt   time.Time `json:"opened_at"`
}

// OpenPosition is a position with its live valuation attached. It is derived
// from the current mark price on every read and never persisted.
type OpenPosition struct {
	Symbol           string    `json:"symbol"`
	Side             Side      `json:"side"`
	Quantity         float64   `json:"quantity"`
	EntryPrice       float64   `json:"entry_price"`
	CurrentPrice     float64   `json:"current_price"`
	UnrealizedPnL    float64   `json:"unrealized_pnl"`
	LiquidationPrice float64   `json:"liquidation_price"`
	Leverage         int       `json:"leverage"`
	OpenedAt         time.Time `json:"opened_at"`
}

// Order is a simulated order. Market orders fill immediately; limit,
// stop-loss and take-profit orders stay pending until cancelled.
// The ID doubles as the key of ExchangeState.Orders.
type Order struct {
	ID          string      `json:"-"`
	Symbol      string      `json:"symbol"`
	Side        OrderSide   `json:"side"`
	Type        OrderType   `json:"type"`
	Quantity    float64     `json:"quantity"`
	Price       float64     `json:"price,omitempty"`
	StopPrice   float64     `json:"stop_price,omitempty"`
	TargetPrice float64     `json:"target_price,omitempty"`
	Status      OrderStatus `json:"status"`
}

// Trade is one fill appended to the trade history.
type Trade struct {
	Timestamp time.Time `json:"timestamp"`
	OrderID   string    `json:"order_id"`
	Symbol    string    `json:"symbol"`
	Side      OrderSide `json:"side"`
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"`
	Type      OrderType `json:"type"`
}

type Balance struct {
	Total       float64 `json:"total"`
	Available   float64 `json:"available"`
	InPositions float64 `json:"in_positions"`
}

// ExchangeState is the full simulator state, persisted as a single durable
// record after every mutation.
type ExchangeState struct {
	Balance      Balance              `json:"balance"`
	Positions    map[string]*Position `json:"positions"`
	Orders       map[string]*Order    `json:"orders"`
	TradeHistory []Trade              `json:"trade_history"`
}

// NewExchangeState returns a fresh state with the given starting balance.
func NewExchangeState(initialBalance float64) *ExchangeState {
	return &ExchangeState{
		Balance: Balance{
			Total:     initialBalance,
			Available: initialBalance,
		},
		Positions:    make(map[string]*Position),
		Orders:       make(map[string]*Order),
		TradeHistory: []Trade{},
	}
}
