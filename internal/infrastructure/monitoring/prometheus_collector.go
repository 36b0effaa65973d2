package monitoring

import (
	"time"

	"interviewsignal/internal/core/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "interviewsignal"

type PrometheusCollector struct {
	connectionsOpen     prometheus.Gauge
	connectionsTotal    prometheus.Counter
	connectionsRejected *prometheus.CounterVec
	sessionsReplaced    prometheus.Counter

	onlineUsers prometheus.Gauge
	activeRooms prometheus.Gauge

	joins         *prometheus.CounterVec
	joinDuration  prometheus.Histogram
	ghostsRemoved prometheus.Counter

	signalsRelayed *prometheus.CounterVec
	controlEvents  *prometheus.CounterVec

	collaboratorCalls    *prometheus.CounterVec
	collaboratorDuration *prometheus.HistogramVec
}

var _ ports.Metrics = (*PrometheusCollector)(nil)

// NewPrometheusCollector registers every metric on reg. Tests pass a fresh
// registry; the binary passes prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)
	return &PrometheusCollector{
		connectionsOpen: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_open",
			Help:      "Number of open WebSocket connections",
		}),
		connectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of admitted WebSocket connections",
		}),
		connectionsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_rejected_total",
			Help:      "Connections refused during admission, by reason",
		}, []string{"reason"}),
		sessionsReplaced: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_replaced_total",
			Help:      "Connections superseded by a newer connection of the same user",
		}),

		onlineUsers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_users",
			Help:      "Users present in the presence registry",
		}),
		activeRooms: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Rooms with at least one tracked member",
		}),

		joins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "joins_total",
			Help:      "Join attempts by outcome",
		}, []string{"outcome"}),
		joinDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "join_duration_seconds",
			Help:      "Time from join request to ack, including the access call",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		ghostsRemoved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ghost_members_removed_total",
			Help:      "Tracked room members dropped because they had no live connection",
		}),

		signalsRelayed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_relayed_total",
			Help:      "Relayed negotiation messages by type and delivery",
		}, []string{"type", "delivered"}),
		controlEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_events_total",
			Help:      "Recording, end and chat events by outcome",
		}, []string{"event", "outcome"}),

		collaboratorCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_calls_total",
			Help:      "Calls to access, chat and account services",
		}, []string{"service", "operation", "outcome"}),
		collaboratorDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collaborator_call_duration_seconds",
			Help:      "Latency of collaborator calls",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"service", "operation"}),
	}
}

func (p *PrometheusCollector) ConnectionOpened() {
	p.connectionsOpen.Inc()
	p.connectionsTotal.Inc()
}

func (p *PrometheusCollector) ConnectionClosed() {
	p.connectionsOpen.Dec()
}

func (p *PrometheusCollector) ConnectionRejected(reason string) {
	p.connectionsRejected.WithLabelValues(reason).Inc()
}

func (p *PrometheusCollector) SessionReplaced() {
	p.sessionsReplaced.Inc()
}

func (p *PrometheusCollector) SetOnlineUsers(n int) {
	p.onlineUsers.Set(float64(n))
}

func (p *PrometheusCollector) SetActiveRooms(n int) {
	p.activeRooms.Set(float64(n))
}

func (p *PrometheusCollector) JoinCompleted(outcome string, duration time.Duration) {
	p.joins.WithLabelValues(outcome).Inc()
	p.joinDuration.Observe(duration.Seconds())
}

func (p *PrometheusCollector) GhostsRemoved(n int) {
	if n > 0 {
		p.ghostsRemoved.Add(float64(n))
	}
}

func (p *PrometheusCollector) SignalRelayed(signalType string, delivered bool) {
	label := "false"
	if delivered {
		label = "true"
	}
	p.signalsRelayed.WithLabelValues(signalType, label).Inc()
}

func (p *PrometheusCollector) ControlEvent(event, outcome string) {
	p.controlEvents.WithLabelValues(event, outcome).Inc()
}

func (p *PrometheusCollector) CollaboratorCall(service, operation, outcome string, duration time.Duration) {
	p.collaboratorCalls.WithLabelValues(service, operation, outcome).Inc()
	p.collaboratorDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}
