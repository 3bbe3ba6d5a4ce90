package hub

import "github.com/prometheus/client_golang/prometheus"

var (
	tickDuration = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace:  "metro",
		Subsystem:  "hub",
		Name:       "tick_duration_seconds",
		Help:       "Time spent advancing, projecting and queueing one tick.",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	})

	subscribersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "metro",
		Subsystem: "hub",
		Name:      "subscribers",
		Help:      "Currently connected subscribers.",
	})

	messagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "metro",
		Subsystem: "hub",
		Name:      "messages_sent_total",
		Help:      "Messages written to subscribers.",
	})

	updatesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "metro",
		Subsystem: "hub",
		Name:      "updates_dropped_total",
		Help:      "Vehicle updates superseded before a slow subscriber could take them.",
	})

	evictions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "metro",
		Subsystem: "hub",
		Name:      "evictions_total",
		Help:      "Subscribers removed after a failed write.",
	})

	idleTicks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "metro",
		Subsystem: "hub",
		Name:      "idle_ticks_total",
		Help:      "Ticks that skipped projection because nobody was subscribed.",
	})
)

func init() {
	prometheus.MustRegister(tickDuration, subscribersGauge, messagesSent, updatesDropped, evictions, idleTicks)
}
