package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/settlement"
	"github.com/shopspring/decimal"
)

const metricsNamespace = "fantasy_settlement"

// Metrics holds the business counters exported on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	SettlementRuns   *prometheus.CounterVec
	GamesSettled     prometheus.Counter
	PointsAwarded    prometheus.Counter
	LastSettlementAt prometheus.Gauge
	Trades           *prometheus.CounterVec
	Notifications    *prometheus.CounterVec
}

// NewMetrics registers collectors on a private registry so tests can build
// as many instances as they like.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		SettlementRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Settlement runs by final status.",
		}, []string{"status"}),
		GamesSettled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "games_settled_total",
			Help:      "Games marked settled by completed runs.",
		}),
		PointsAwarded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "points_awarded_total",
			Help:      "Fantasy points credited to teams.",
		}),
		LastSettlementAt: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_completed_run_timestamp_seconds",
			Help:      "Unix time of the last settlement run that finished as done.",
		}),
		Trades: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "trades_total",
			Help:      "Trade requests by outcome (applied or a rejection reason).",
		}, []string{"outcome"}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "notifications_total",
			Help:      "Notification publish attempts by sink and result.",
		}, []string{"sink", "result"}),
	}
}

func (m *Metrics) SettlementRun(status settlement.Status, games int, points decimal.Decimal) {
	if m == nil {
		return
	}
	m.SettlementRuns.WithLabelValues(string(status)).Inc()
	if status != settlement.StatusDone {
		return
	}
	m.GamesSettled.Add(float64(games))
	m.PointsAwarded.Add(points.InexactFloat64())
	m.LastSettlementAt.SetToCurrentTime()
}

func (m *Metrics) Trade(outcome string) {
	if m == nil {
		return
	}
	m.Trades.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Notification(sink, result string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(sink, result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
