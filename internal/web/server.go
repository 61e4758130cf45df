package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mzhur/crypto_paper_trader/internal/metrics"
	"github.com/mzhur/crypto_paper_trader/internal/usecase"
	"go.uber.org/zap"
)

// Server exposes the dashboard JSON API. All mutating calls it forwards to
// the exchange are expected to be serialized by the deployment (single
// process, one control loop); the server itself adds no locking.
type Server struct {
	router   *http.ServeMux
	server   *http.Server
	exchange *usecase.PaperExchange
	market   *usecase.MarketService
	hub      *Hub
	metrics  *metrics.Metrics
	logger   *zap.Logger
	started  time.Time
}

func NewServer(
	port int,
	exchange *usecase.PaperExchange,
	market *usecase.MarketService,
	hub *Hub,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:   http.NewServeMux(),
		exchange: exchange,
		market:   market,
		hub:      hub,
		metrics:  m,
		logger:   logger,
		started:  time.Now(),
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("GET /status", s.handleStatus)
	s.router.Handle("GET /metrics", s.metrics.Handler())

	s.router.HandleFunc("GET /api/balance", s.handleBalance)
	s.router.HandleFunc("GET /api/positions", s.handlePositions)
	s.router.HandleFunc("GET /api/candles", s.handleCandles)
	s.router.HandleFunc("GET /api/indicators", s.handleIndicators)
	s.router.HandleFunc("GET /api/orders", s.handleOrders)
	s.router.HandleFunc("POST /api/orders", s.handlePlaceOrder)
	s.router.HandleFunc("DELETE /api/orders/{id}", s.handleCancelOrder)
	s.router.HandleFunc("GET /api/trades", s.handleTrades)

	s.router.HandleFunc("GET /ws", s.hub.handleWS)
}

func (s *Server) Start() error {
	s.logger.Info("starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
