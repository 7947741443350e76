package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters and gauges Produce/Consume update on
// every call. The increments are cheap atomics, not log lines, so they
// don't reintroduce a syscall onto the hot path. ConsumerDepth is the
// exception: it only changes when something calls SampleDepth, which
// a periodic monitoring loop is expected to do, not Produce/Consume.
type Metrics struct {
	MessagesProduced prometheus.Counter
	MessagesDropped  prometheus.Counter
	MessagesConsumed *prometheus.CounterVec
	ConsumerDepth    *prometheus.GaugeVec
}

// NewMetrics registers a queue's metrics under the given queue name
// label so multiple named queues in one process don't collide.
func NewMetrics(queueName string) *Metrics {
	constLabels := prometheus.Labels{"queue": queueName}
	return &Metrics{
		MessagesProduced: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "shmbus_messages_produced_total",
			Help:        "Total messages successfully pushed onto the ring.",
			ConstLabels: constLabels,
		}),
		MessagesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "shmbus_messages_dropped_total",
			Help:        "Total Produce calls rejected because the ring was full.",
			ConstLabels: constLabels,
		}),
		MessagesConsumed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "shmbus_messages_consumed_total",
			Help:        "Total messages successfully popped, by consumer id.",
			ConstLabels: constLabels,
		}, []string{"consumer_id"}),
		ConsumerDepth: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "shmbus_consumer_depth",
			Help:        "Unread message count for a consumer, sampled on demand.",
			ConstLabels: constLabels,
		}, []string{"consumer_id"}),
	}
}
