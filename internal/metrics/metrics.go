package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for the paper trader.
type Metrics struct {
	OrdersFilled     prometheus.Counter
	OrdersPending    prometheus.Counter
	OrdersRejected   prometheus.Counter
	OrdersCancelled  prometheus.Counter
	CacheHits        *prometheus.CounterVec // label: cache (price|ohlcv)
	CacheMisses      *prometheus.CounterVec
	DataSourceErrors prometheus.Counter
	BalanceTotal     prometheus.Gauge
	BalanceAvailable prometheus.Gauge
	OpenPositions    prometheus.Gauge

	registry *prometheus.Registry
}

// New builds a metrics set on its own registry so parallel tests never
// trip duplicate registration.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		OrdersFilled: f.NewCounter(prometheus.CounterOpts{
			Name: "paper_orders_filled_total",
			Help: "Market orders filled by the simulator.",
		}),
		OrdersPending: f.NewCounter(prometheus.CounterOpts{
			Name: "paper_orders_pending_total",
			Help: "Limit/stop/take-profit orders recorded as pending.",
		}),
		OrdersRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "paper_orders_rejected_total",
			Help: "Orders rejected as invalid.",
		}),
		OrdersCancelled: f.NewCounter(prometheus.CounterOpts{
			Name: "paper_orders_cancelled_total",
			Help: "Pending orders cancelled.",
		}),
		CacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "market_cache_hits_total",
			Help: "Market data cache hits.",
		}, []string{"cache"}),
		CacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "market_cache_misses_total",
			Help: "Market data cache misses.",
		}, []string{"cache"}),
		DataSourceErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "market_data_source_errors_total",
			Help: "Failed fetches from the market data source.",
		}),
		BalanceTotal: f.NewGauge(prometheus.GaugeOpts{
			Name: "paper_balance_total",
			Help: "Total virtual balance.",
		}),
		BalanceAvailable: f.NewGauge(prometheus.GaugeOpts{
			Name: "paper_balance_available",
			Help: "Virtual balance not reserved as margin.",
		}),
		OpenPositions: f.NewGauge(prometheus.GaugeOpts{
			Name: "paper_open_positions",
			Help: "Number of open positions.",
		}),
		registry: reg,
	}
}

// Handler serves the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
