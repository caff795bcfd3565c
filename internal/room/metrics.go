package room

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "incidentroom"

var (
	roomConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "room",
			Name:      "connections",
			Help:      "Number of live connections across all rooms",
		},
	)

	broadcastDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "room",
			Name:      "deliveries_total",
			Help:      "Total broadcast deliveries by outcome",
		},
		[]string{"status"},
	)
)

// recordRoomConnections updates the live connection gauge.
func recordRoomConnections(count int) {
	roomConnections.Set(float64(count))
}

// recordBroadcast records delivery outcomes of one broadcast.
func recordBroadcast(attempted, failed int) {
	broadcastDeliveries.WithLabelValues("delivered").Add(float64(attempted - failed))
	if failed > 0 {
		broadcastDeliveries.WithLabelValues("failed").Add(float64(failed))
	}
}
