package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/mzhur/crypto_paper_trader/internal/domain"
	"go.uber.org/zap"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidOrder):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientHistory):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrDataUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).String(),
	})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.exchange.GetBalance())
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.exchange.GetPositions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, positions)
}

func (s *Server) handleCandles(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "symbol is required"})
		return
	}
	timeframe := queryInt(r, "timeframe", 3)
	limit := queryInt(r, "limit", 100)

	candles, err := s.market.GetOHLCV(r.Context(), symbol, timeframe, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, candles)
}

func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "symbol is required"})
		return
	}

	snapshots, err := s.market.CalculateIndicators(r.Context(), symbol)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snapshots)
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	type orderView struct {
		ID string `json:"id"`
		*domain.Order
	}
	orders := s.exchange.GetOrders()
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderView{ID: o.ID, Order: o})
	}
	s.writeJSON(w, http.StatusOK, out)
}

type placeOrderRequest struct {
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Type     string  `json:"type"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	ctx := r.Context()
	side := domain.OrderSide(req.Side)

	var (
		order *domain.Order
		err   error
	)
	switch domain.OrderType(req.Type) {
	case domain.OrderTypeMarket:
		order, err = s.exchange.PlaceMarketOrder(ctx, req.Symbol, side, req.Quantity)
	case domain.OrderTypeLimit:
		order, err = s.exchange.PlaceLimitOrder(ctx, req.Symbol, side, req.Quantity, req.Price)
	case domain.OrderTypeStopLoss:
		order, err = s.exchange.PlaceStopLoss(ctx, req.Symbol, side, req.Quantity, req.Price)
	case domain.OrderTypeTakeProfit:
		order, err = s.exchange.PlaceTakeProfit(ctx, req.Symbol, side, req.Quantity, req.Price)
	default:
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported order type"})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"id":     order.ID,
		"status": order.Status,
		"price":  order.Price,
	})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	found, err := s.exchange.CancelOrder(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !found {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.exchange.GetTradeHistory())
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
