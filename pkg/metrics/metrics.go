package metrics

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	TopicProvisionAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdc_topic_provision_attempts_total",
			Help: "Topic provisioning attempts by outcome",
		},
		[]string{"outcome"}, // created|exists|failed
	)
)

var (
	KafkaMessagesConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_consumed_total",
			Help: "Number of messages fetched from Kafka",
		},
		[]string{"topic"},
	)
	EventsDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdc_events_decoded_total",
			Help: "Number of change events decoded and forwarded",
		},
		[]string{"topic", "type"},
	)
	EventsDecodeFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdc_events_decode_failed_total",
			Help: "Number of messages skipped because they could not be decoded",
		},
		[]string{"topic", "kind"},
	)
	KafkaCommitFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_commit_failed_total",
			Help: "Number of failed offset commits",
		},
		[]string{"topic"},
	)
)

// ConsumerState — 0 starting, 1 ready, 2 crashed.
var ConsumerState = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "cdc_consumer_state",
		Help: "Consumer group state: 0 starting, 1 ready, 2 crashed",
	},
)

var registerOnce sync.Once

// MustRegister — регистрирует метрики в default registry. Повторный вызов ничего не делает.
func MustRegister() {
	registerOnce.Do(func() {
		for _, c := range []prometheus.Collector{
			TopicProvisionAttempts,
			KafkaMessagesConsumed, EventsDecoded, EventsDecodeFailed, KafkaCommitFailed,
			ConsumerState,
		} {
			if err := prometheus.Register(c); err != nil {
				var are prometheus.AlreadyRegisteredError
				if !errors.As(err, &are) {
					panic(err)
				}
			}
		}
	})
}
