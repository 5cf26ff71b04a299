package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gunvolt24/cdc_ingest/internal/domain"
	"github.com/Gunvolt24/cdc_ingest/pkg/metrics"
	"github.com/Gunvolt24/cdc_ingest/pkg/telemetry"
	"github.com/Gunvolt24/cdc_ingest/pkg/validate"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// handleMessage — декодирует одно сообщение, передаёт результат в sink и коммитит оффсет.
// Невалидные сообщения тоже коммитятся, повторно они не придут.
func (c *Consumer) handleMessage(ctx context.Context, r reader, msg *kafka.Message) {
	metrics.KafkaMessagesConsumed.WithLabelValues(msg.Topic).Inc()

	// trace-контекст продюсера из заголовков, если он есть
	ctx = otel.GetTextMapPropagator().Extract(ctx, telemetry.NewHeaderCarrier(msg))
	ctx, span := c.tracer.Start(ctx, "cdc.consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", msg.Topic),
			attribute.String("messaging.kafka.consumer.group", c.cfg.GroupID),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.offset", msg.Offset),
		),
	)
	defer span.End()

	raw := toRawMessage(msg)
	ev, err := c.decoder.Decode(raw.Payload)
	if err != nil {
		metrics.EventsDecodeFailed.WithLabelValues(msg.Topic, decodeKind(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		c.sink.Reject(ctx, raw, err)
	} else {
		metrics.EventsDecoded.WithLabelValues(msg.Topic, ev.Type.Label()).Inc()
		span.SetAttributes(
			attribute.String("cdc.type", string(ev.Type)),
			attribute.String("cdc.table", ev.Database+"."+ev.Table),
		)
		c.sink.Emit(ctx, raw, ev)
	}

	c.commitSafely(ctx, r, msg)
}

// commitSafely пытается закоммитить оффсет и залогировать ошибку.
func (c *Consumer) commitSafely(ctx context.Context, r reader, msg *kafka.Message) {
	if commitErr := r.CommitMessages(ctx, *msg); commitErr != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.KafkaCommitFailed.WithLabelValues(msg.Topic).Inc()
		c.log.Warnw(ctx, "commit failed",
			"action", "kafka_commit_failed",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", commitErr.Error(),
		)
	}
}

// crash — публикует Crashed и возвращает err.
func (c *Consumer) crash(ctx context.Context, err error) error {
	c.log.Errorw(ctx, "kafka consumer crashed",
		"action", "consumer_crash",
		"topic", c.cfg.Topic,
		"group_id", c.cfg.GroupID,
		"error", err.Error(),
	)
	c.publish(ctx, domain.LifecycleEvent{Kind: domain.LifecycleCrashed, Err: err})
	return err
}

// publish — неблокирующая попытка, затем ожидание места в канале до отмены ctx.
func (c *Consumer) publish(ctx context.Context, ev domain.LifecycleEvent) {
	if c.events == nil {
		return
	}
	select {
	case c.events <- ev:
		return
	default:
	}
	select {
	case c.events <- ev:
	case <-ctx.Done():
		c.log.Warnf(ctx, "lifecycle event %s dropped on shutdown", ev.Kind)
	}
}

// checkTopic — связь с брокером и наличие партиций топика.
func (c *Consumer) checkTopic(ctx context.Context) error {
	if c.checker == nil {
		return nil
	}
	parts, err := c.checker.ReadPartitions(ctx, c.cfg.Topic)
	if err != nil {
		return fmt.Errorf("read partitions of %q: %w", c.cfg.Topic, err)
	}
	if len(parts) == 0 {
		return fmt.Errorf("topic %q has no partitions", c.cfg.Topic)
	}
	return nil
}

func toRawMessage(msg *kafka.Message) *domain.RawMessage {
	raw := &domain.RawMessage{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Key:       msg.Key,
		Payload:   msg.Value,
	}
	if len(msg.Headers) > 0 {
		raw.Headers = make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			raw.Headers[h.Key] = string(h.Value)
		}
	}
	return raw
}

func decodeKind(err error) string {
	var de *validate.DecodeError
	if errors.As(err, &de) {
		return string(de.Kind)
	}
	return "other"
}

// sleepWithBackoff ждет backoff или останавливается по контексту.
func sleepWithBackoff(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// nextBackoff возвращает следующее время ожидания повтора с учетом retryMax.
func (c *Consumer) nextBackoff(current time.Duration) time.Duration {
	current *= 2
	if current > c.retryMax {
		return c.retryMax
	}
	return current
}

// withJitterEqual — половина задержки фиксирована, вторая половина случайна.
func (c *Consumer) withJitterEqual(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	half := d / 2
	jitter := time.Duration(c.jitterRand.Int63n(int64(d-half) + 1))
	return half + jitter
}
