package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	RPCDisconnected float64 = 0
	RPCAvailable    float64 = 1
)

var (
	RPCConnection = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nft_reward_rpc_connection",
		Help: "State of the last log request to the evm rpc: 1 available, 0 disconnected",
	})

	GatewayAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nft_reward_gateway_attempts_total",
		Help: "Number of ipfs gateway requests by gateway and result",
	}, []string{"gateway", "result"})

	EventsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nft_reward_events_delivered_total",
		Help: "Number of contract events passed to subscription handlers",
	}, []string{"event"})
)

// GatewayObserver feeds resolver attempts into GatewayAttempts.
type GatewayObserver struct{}

func (GatewayObserver) ObserveAttempt(gateway string, ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	GatewayAttempts.WithLabelValues(gateway, result).Inc()
}
