//go:build integration

package testutil

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// UniqueTopicAndGroup — уникальные topic/group на основе базового префикса.
// Пример: base="cdc-itest" → "cdc-itest-20250826T010203123456789".
func UniqueTopicAndGroup(base string) (topic, group string) {
	// наносекунды без точки, чтобы имя топика было валидным
	s := time.Now().UTC().Format("20060102T150405.000000000")
	s = strings.ReplaceAll(s, ".", "")
	return fmt.Sprintf("%s-%s", base, s), fmt.Sprintf("%s-%s-group", base, s)
}

// Produce — синхронно публикует payload'ы в одну партицию, в переданном порядке.
func Produce(ctx context.Context, brokers []string, topic string, payloads ...[]byte) error {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.Hash{},
	}
	defer w.Close()

	msgs := make([]kafka.Message, 0, len(payloads))
	for _, p := range payloads {
		// одинаковый ключ → одна партиция → порядок сохраняется
		msgs = append(msgs, kafka.Message{Key: []byte("cdc"), Value: p})
	}
	return w.WriteMessages(ctx, msgs...)
}
