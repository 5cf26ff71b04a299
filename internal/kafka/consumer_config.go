package kafka

import (
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// ConsumerConfig — параметры consumer group и политики повторов.
type ConsumerConfig struct {
	Brokers     []string
	Topic       string
	GroupID     string
	StartOffset string // first|last, применяется только при первом join группы

	RetryInitial    time.Duration
	RetryMax        time.Duration
	FetchMaxRetries int // подряд идущие ошибки fetch до признания падения

	Logger      kafka.Logger
	ErrorLogger kafka.Logger
}

// ReaderConfig — конфигурация kafka.Reader с ручным коммитом оффсетов.
func (c *ConsumerConfig) ReaderConfig() kafka.ReaderConfig {
	rc := kafka.ReaderConfig{
		Brokers:        c.Brokers,
		GroupID:        c.GroupID,
		Topic:          c.Topic,
		CommitInterval: 0,
		Logger:         c.Logger,
		ErrorLogger:    c.ErrorLogger,
	}

	switch strings.ToLower(strings.TrimSpace(c.StartOffset)) {
	case "last":
		rc.StartOffset = kafka.LastOffset
	default:
		rc.StartOffset = kafka.FirstOffset
	}

	return rc
}
