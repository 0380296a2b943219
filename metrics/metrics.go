// Package metrics exposes relay activity as Prometheus collectors.
//
// A Metrics value satisfies service.Recorder and is handed to the relay at
// startup:
//
//	reg := prometheus.NewRegistry()
//	relay := service.NewRelay(service.WithRecorder(metrics.New(reg)))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "game_session_relay"

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "game_session_relay").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// Metrics holds the relay collectors
type Metrics struct {
	connectionsOpened prometheus.Counter
	connectionsClosed prometheus.Counter
	activeConnections prometheus.Gauge
	sessionsCreated   prometheus.Counter
	sessionsClosed    prometheus.Counter
	activeSessions    prometheus.Gauge
	messagesTotal     *prometheus.CounterVec
	messagesDropped   prometheus.Counter
	joinResolutions   *prometheus.CounterVec
	inputsRelayed     prometheus.Counter
	sendFailures      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer, opts ...Option) *Metrics {
	config := Config{Namespace: DefaultNamespace}
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(reg)
	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}

	return &Metrics{
		connectionsOpened: counter("connections_opened_total", "Total number of connections opened"),
		connectionsClosed: counter("connections_closed_total", "Total number of connections closed"),
		activeConnections: gauge("active_connections", "Number of currently open connections"),
		sessionsCreated:   counter("sessions_created_total", "Total number of game sessions created"),
		sessionsClosed:    counter("sessions_closed_total", "Total number of game sessions closed"),
		activeSessions:    gauge("active_sessions", "Number of live game sessions"),
		messagesTotal:     counterVec("messages_total", "Total number of client messages handled by action", "action"),
		messagesDropped:   counter("messages_dropped_total", "Total number of malformed or orphaned client messages dropped"),
		joinResolutions:   counterVec("join_resolutions_total", "Total number of join requests resolved by outcome", "outcome"),
		inputsRelayed:     counter("inputs_relayed_total", "Total number of member inputs forwarded to hosts"),
		sendFailures:      counterVec("send_failures_total", "Total number of outbound messages that could not be delivered", "action"),
	}
}

func (m *Metrics) ConnectionOpened() {
	m.connectionsOpened.Inc()
	m.activeConnections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	m.connectionsClosed.Inc()
	m.activeConnections.Dec()
}

func (m *Metrics) SessionCreated() {
	m.sessionsCreated.Inc()
	m.activeSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	m.sessionsClosed.Inc()
	m.activeSessions.Dec()
}

func (m *Metrics) MessageHandled(action string) {
	m.messagesTotal.WithLabelValues(action).Inc()
}

func (m *Metrics) MessageDropped() {
	m.messagesDropped.Inc()
}

func (m *Metrics) JoinResolved(accepted bool) {
	outcome := "denied"
	if accepted {
		outcome = "accepted"
	}
	m.joinResolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) InputRelayed() {
	m.inputsRelayed.Inc()
}

func (m *Metrics) SendFailed(action string) {
	m.sendFailures.WithLabelValues(action).Inc()
}
