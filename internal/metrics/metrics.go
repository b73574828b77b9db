package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels.
const (
	ResultOK       = "ok"
	ResultDropped  = "dropped"
	ResultInvalid  = "invalid"
	ResultSkipped  = "skipped"
	ResultFailed   = "failed"
	ResultRejected = "rejected"
)

var (
	InboundMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pettracker_inbound_messages_total",
			Help: "Inbound device messages by class and outcome",
		},
		[]string{"class", "result"},
	)

	ConfigDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pettracker_config_dispatch_total",
			Help: "Configuration dispatch attempts by trigger and outcome",
		},
		[]string{"trigger", "result"},
	)

	DispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pettracker_dispatch_duration_seconds",
			Help:    "Time from dispatch start to retained publish acknowledgement",
			Buckets: prometheus.DefBuckets,
		},
	)

	MQTTConnectionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pettracker_mqtt_connection_state",
			Help: "Broker connection state (0 disconnected, 1 connecting, 2 connected, 3 closed, 4 errored, 5 reconnecting)",
		},
	)

	LaneQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pettracker_lane_queue_depth",
			Help: "Buffered inbound events per worker lane",
		},
		[]string{"lane"},
	)

	SafeZoneMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pettracker_safezone_mutations_total",
			Help: "Owner-initiated safe zone changes by operation",
		},
		[]string{"operation"},
	)
)

func RecordInbound(class, result string) {
	InboundMessages.WithLabelValues(class, result).Inc()
}

func RecordDispatch(trigger, result string, started time.Time) {
	ConfigDispatches.WithLabelValues(trigger, result).Inc()
	if result == ResultOK {
		DispatchDuration.Observe(time.Since(started).Seconds())
	}
}

func SetConnectionState(state int) {
	MQTTConnectionState.Set(float64(state))
}
