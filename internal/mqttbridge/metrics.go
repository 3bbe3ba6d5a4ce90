package mqttbridge

import "github.com/prometheus/client_golang/prometheus"

var dropped = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "metro",
	Subsystem: "mqtt",
	Name:      "dropped_total",
	Help:      "Messages dropped while the broker connection was down.",
})

func init() {
	prometheus.MustRegister(dropped)
}
