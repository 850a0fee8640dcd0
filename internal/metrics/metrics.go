package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkadoo_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "linkadoo_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	UsersRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "linkadoo_users_registered_total",
			Help: "Total users registered",
		},
	)

	LobbiesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "linkadoo_lobbies_created_total",
			Help: "Total lobbies created",
		},
	)

	LobbiesDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "linkadoo_lobbies_deleted_total",
			Help: "Total lobbies deleted",
		},
	)

	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "linkadoo_messages_sent_total",
			Help: "Total messages persisted",
		},
	)

	// Broadcast metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkadoo_events_published_total",
			Help: "Total events published to broadcast topics",
		},
		[]string{"topic"},
	)

	EventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "linkadoo_events_dropped_total",
			Help: "Events dropped due to full subscriber queues",
		},
	)

	BrokerSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "linkadoo_broker_subscribers",
			Help: "Live broadcast subscriptions",
		},
	)

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "linkadoo_ws_connections",
			Help: "Open WebSocket connections",
		},
	)
)
