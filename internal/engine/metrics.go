package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	legsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "metro",
		Subsystem: "engine",
		Name:      "legs_completed_total",
		Help:      "Station-to-station legs completed by all vehicles.",
	})

	faultsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "metro",
		Subsystem: "engine",
		Name:      "faults_total",
		Help:      "Vehicles skipped during a tick because their state contradicts the directory.",
	})

	activeVehicles = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "metro",
		Subsystem: "engine",
		Name:      "active_vehicles",
		Help:      "Vehicles currently being simulated.",
	})
)

func init() {
	prometheus.MustRegister(legsCompleted, faultsTotal, activeVehicles)
}
