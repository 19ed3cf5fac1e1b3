package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the server's Prometheus collectors. Each server instance
// owns its registry so tests can run servers side by side.
type Metrics struct {
	Registry *prometheus.Registry

	Connections        prometheus.Gauge
	WagersPlaced       prometheus.Counter
	WagerVolume        prometheus.Counter
	RacesStarted       prometheus.Counter
	RacesFinished      prometheus.Counter
	PayoutsDistributed prometheus.Counter
	PayoutVolume       prometheus.Counter
}

// NewMetrics creates and registers the server's collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Connections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "racebook_connections",
			Help: "Number of active WebSocket connections.",
		}),
		WagersPlaced: factory.NewCounter(prometheus.CounterOpts{
			Name: "racebook_wagers_placed_total",
			Help: "Total wagers accepted.",
		}),
		WagerVolume: factory.NewCounter(prometheus.CounterOpts{
			Name: "racebook_wager_volume_total",
			Help: "Total amount staked across all wagers.",
		}),
		RacesStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "racebook_races_started_total",
			Help: "Total races started.",
		}),
		RacesFinished: factory.NewCounter(prometheus.CounterOpts{
			Name: "racebook_races_finished_total",
			Help: "Total races that completed their draw.",
		}),
		PayoutsDistributed: factory.NewCounter(prometheus.CounterOpts{
			Name: "racebook_payouts_distributed_total",
			Help: "Total winning wagers settled.",
		}),
		PayoutVolume: factory.NewCounter(prometheus.CounterOpts{
			Name: "racebook_payout_volume_total",
			Help: "Total amount credited to winners.",
		}),
	}
}
