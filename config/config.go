package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Gunvolt24/cdc_ingest/pkg/kafkax"
	"github.com/kelseyhightower/envconfig"
)

// ErrInvalidConfig — конфигурация не проходит Validate.
var ErrInvalidConfig = errors.New("invalid config")

type Kafka struct {
	Brokers     []string `default:"kafka:9092" envconfig:"BROKERS"`
	Topic       string   `default:"tidb_changes" envconfig:"TOPIC"`
	GroupID     string   `default:"helfy-cdc-consumer" envconfig:"GROUP_ID"`
	StartOffset string   `default:"first" envconfig:"START_OFFSET"`

	// Провижининг топика
	TopicPartitions       int           `default:"1" envconfig:"TOPIC_PARTITIONS"`
	TopicReplication      int           `default:"1" envconfig:"TOPIC_REPLICATION"`
	TopicCreateAttempts   int           `default:"10" envconfig:"TOPIC_CREATE_ATTEMPTS"`
	TopicCreateBackoff    time.Duration `default:"1000ms" envconfig:"TOPIC_CREATE_BACKOFF"`
	TopicCreateBackoffMax time.Duration `default:"30s" envconfig:"TOPIC_CREATE_BACKOFF_MAX"`
	TopicLeaderWait       time.Duration `default:"10s" envconfig:"TOPIC_LEADER_WAIT"`
	DialTimeout           time.Duration `default:"10s" envconfig:"DIAL_TIMEOUT"`

	// Повторы чтения и политика падения
	RetryInitial    time.Duration `default:"1s" envconfig:"RETRY_INITIAL"`
	RetryMax        time.Duration `default:"30s" envconfig:"RETRY_MAX"`
	FetchMaxRetries int           `default:"30" envconfig:"FETCH_MAX_RETRIES"`
	ExitOnCrash     bool          `default:"true" envconfig:"EXIT_ON_CRASH"`
}

type Health struct {
	Addr              string        `default:":8081" envconfig:"ADDR"`
	GinMode           string        `default:"release" envconfig:"GIN_MODE"`
	ReadTimeout       time.Duration `default:"5s" envconfig:"READ_TIMEOUT"`
	WriteTimeout      time.Duration `default:"5s" envconfig:"WRITE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `default:"2s" envconfig:"READ_HEADER_TIMEOUT"`
	IdleTimeout       time.Duration `default:"60s" envconfig:"IDLE_TIMEOUT"`
	GracefulTimeout   time.Duration `default:"5s" envconfig:"GRACEFUL_TIMEOUT"`
}

type Tracing struct {
	Enabled     bool    `default:"false" envconfig:"OTEL_ENABLED"`
	ServiceName string  `default:"cdc-consumer" envconfig:"OTEL_SERVICE_NAME"`
	Endpoint    string  `default:"jaeger:4318" envconfig:"OTEL_ENDPOINT"`
	SampleRatio float64 `default:"1" envconfig:"OTEL_SAMPLE_RATIO"`
}

type Logger struct {
	IsProd bool `default:"true" envconfig:"IS_PROD"`
}

type Config struct {
	Kafka   Kafka
	Health  Health
	Tracing Tracing
	Logger  Logger
}

// Load — переменные окружения с префиксом CDC.
func Load() (Config, error) {
	return LoadWithPrefix("CDC")
}

// LoadWithPrefix — то же с произвольным префиксом (для тестов).
func LoadWithPrefix(prefix string) (Config, error) {
	var c Config

	if err := envconfig.Process(prefix, &c); err != nil {
		return Config{}, err
	}
	c.Kafka.Brokers = kafkax.ParseBrokers(c.Kafka.Brokers)

	return c, nil
}

// Validate — обязательные значения и границы параметров повторов.
func (c *Config) Validate() error {
	k := c.Kafka
	switch {
	case len(k.Brokers) == 0:
		return fmt.Errorf("%w: kafka brokers are empty", ErrInvalidConfig)
	case k.Topic == "":
		return fmt.Errorf("%w: kafka topic is empty", ErrInvalidConfig)
	case k.GroupID == "":
		return fmt.Errorf("%w: kafka group id is empty", ErrInvalidConfig)
	case k.TopicPartitions < 1:
		return fmt.Errorf("%w: topic partitions must be >= 1, got %d", ErrInvalidConfig, k.TopicPartitions)
	case k.TopicReplication < 1:
		return fmt.Errorf("%w: topic replication must be >= 1, got %d", ErrInvalidConfig, k.TopicReplication)
	case k.TopicCreateAttempts < 1:
		return fmt.Errorf("%w: topic create attempts must be >= 1, got %d", ErrInvalidConfig, k.TopicCreateAttempts)
	case k.TopicCreateBackoff <= 0:
		return fmt.Errorf("%w: topic create backoff must be > 0", ErrInvalidConfig)
	case k.TopicCreateBackoffMax < k.TopicCreateBackoff:
		return fmt.Errorf("%w: topic create backoff max %s < backoff %s", ErrInvalidConfig, k.TopicCreateBackoffMax, k.TopicCreateBackoff)
	}
	return nil
}
