package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/Gunvolt24/cdc_ingest/internal/domain"
	"github.com/Gunvolt24/cdc_ingest/internal/ports"
	"github.com/Gunvolt24/cdc_ingest/pkg/telemetry"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Проверка, что Consumer удовлетворяет интерфейсу верхнего уровня (порт приложения).
var _ ports.MessageConsumer = (*Consumer)(nil)

// ErrRetriesExhausted — брокер недоступен дольше бюджета повторов; консьюмер считается упавшим.
var ErrRetriesExhausted = errors.New("kafka consumer retries exhausted")

// reader — минимальный контракт над источником (kafka.Reader),
// чтобы легко подменять его моками в тестах.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Config() kafka.ReaderConfig
	Close() error
}

// topicChecker — проверка связи с брокером перед подпиской (broker.Connection).
type topicChecker interface {
	ReadPartitions(ctx context.Context, topic string) ([]kafka.Partition, error)
}

// Consumer — цикл consumer group: подписка, чтение, декодирование, коммит,
// события жизненного цикла для health.
type Consumer struct {
	cfg       ConsumerConfig
	checker   topicChecker
	newReader func(kafka.ReaderConfig) reader
	decoder   ports.EventDecoder
	sink      ports.EventSink
	events    chan<- domain.LifecycleEvent
	log       ports.Logger
	tracer    trace.Tracer

	retryInitial time.Duration
	retryMax     time.Duration
	maxRetries   int
	jitterRand   *rand.Rand
	sleep        func(ctx context.Context, d time.Duration) bool

	mu        sync.Mutex
	reader    reader
	closed    bool
	closeOnce sync.Once
}

// NewConsumer — reader создаётся при подписке. events может быть nil.
func NewConsumer(
	cfg *ConsumerConfig,
	checker topicChecker,
	decoder ports.EventDecoder,
	sink ports.EventSink,
	events chan<- domain.LifecycleEvent,
	log ports.Logger,
) *Consumer {
	// Параметры по умолчанию (если не заданы в конфиге)
	rInit := cfg.RetryInitial
	if rInit <= 0 {
		rInit = 1 * time.Second
	}

	rMax := cfg.RetryMax
	if rMax <= 0 {
		rMax = 30 * time.Second
	}
	if rMax < rInit {
		rMax = rInit
	}

	maxRetries := cfg.FetchMaxRetries
	if maxRetries <= 0 {
		maxRetries = 30
	}

	return &Consumer{
		cfg:     *cfg,
		checker: checker,
		decoder: decoder,
		sink:    sink,
		events:  events,
		log:     log,
		tracer:  otel.Tracer(telemetry.TracerName),
		newReader: func(rc kafka.ReaderConfig) reader {
			return kafka.NewReader(rc)
		},
		retryInitial: rInit,
		retryMax:     rMax,
		maxRetries:   maxRetries,
		// jitterRand — источник случайности, чтобы рассинхронизировать экспоненциальный backoff.
		jitterRand: rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:      sleepWithBackoff,
	}
}

// Run — основной цикл:
// 1) подписка (проверка брокера, создание reader) → Subscribed;
// 2) сообщения читаются строго последовательно, без авто-коммита;
// 3) валидное событие → sink.Emit, невалидное → sink.Reject; оффсет коммитится в обоих случаях;
// 4) ошибки fetch повторяются с backoff, исчерпание бюджета → Crashed и ошибка.
// На любом выходе публикуется Stopped.
func (c *Consumer) Run(ctx context.Context) (err error) {
	defer func() {
		c.publish(ctx, domain.LifecycleEvent{Kind: domain.LifecycleStopped, Err: err})
	}()

	r, err := c.subscribe(ctx)
	if err != nil || r == nil {
		return err
	}

	topic := c.cfg.Topic
	// Экспоненциальный backoff на ошибках FetchMessage с equal-jitter
	retry := c.retryInitial
	failures := 0

	for {
		// Читаем сообщение (без автокоммита)
		msg, fetchErr := r.FetchMessage(ctx)
		if fetchErr != nil {
			// Если контекст отменен -> выходим
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// reader закрыт снаружи (остановка приложения)
			if errors.Is(fetchErr, io.EOF) {
				return nil
			}

			failures++
			if failures >= c.maxRetries {
				return c.crash(ctx, fmt.Errorf("%w: fetch failed %d times: %w", ErrRetriesExhausted, failures, fetchErr))
			}

			sleep := c.withJitterEqual(retry)
			c.log.Warnw(ctx, "fetch failed",
				"action", "kafka_fetch_retry",
				"topic", topic,
				"attempt", failures,
				"retry_in", sleep.String(),
				"error", fetchErr.Error(),
			)
			if !c.sleep(ctx, sleep) {
				return ctx.Err()
			}
			retry = c.nextBackoff(retry)
			continue
		}

		// Успешный FetchMessage -> сбрасываем счётчик и интервал ожидания
		retry = c.retryInitial
		failures = 0

		c.handleMessage(ctx, r, &msg)
	}
}

// subscribe — проверяет доступность топика (с тем же бюджетом повторов) и создаёт reader.
func (c *Consumer) subscribe(ctx context.Context) (reader, error) {
	retry := c.retryInitial
	for failures := 0; ; {
		err := c.checkTopic(ctx)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		failures++
		if failures >= c.maxRetries {
			return nil, c.crash(ctx, fmt.Errorf("%w: subscribe failed %d times: %w", ErrRetriesExhausted, failures, err))
		}
		c.log.Warnw(ctx, "subscribe failed",
			"action", "kafka_subscribe_retry",
			"topic", c.cfg.Topic,
			"attempt", failures,
			"error", err.Error(),
		)
		if !c.sleep(ctx, c.withJitterEqual(retry)) {
			return nil, ctx.Err()
		}
		retry = c.nextBackoff(retry)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, nil
	}
	if c.reader == nil {
		c.reader = c.newReader(c.cfg.ReaderConfig())
	}
	r := c.reader
	c.mu.Unlock()

	c.publish(ctx, domain.LifecycleEvent{Kind: domain.LifecycleSubscribed})
	c.log.Infow(ctx, "kafka consumer started",
		"action", "consumer_started",
		"brokers", c.cfg.Brokers,
		"topic", c.cfg.Topic,
		"group_id", c.cfg.GroupID,
	)
	return r, nil
}

// Close — закрывает reader. Вызывается при остановке приложения.
func (c *Consumer) Close() (retErr error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.closed = true
		if c.reader != nil {
			retErr = c.reader.Close()
		}
	})
	return retErr
}
