package kafka

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Gunvolt24/cdc_ingest/internal/domain"
	"github.com/Gunvolt24/cdc_ingest/internal/kafka/mocks"
	"github.com/Gunvolt24/cdc_ingest/internal/ports"
	portmocks "github.com/Gunvolt24/cdc_ingest/internal/ports/mocks"
	"github.com/Gunvolt24/cdc_ingest/pkg/logger"
	"github.com/Gunvolt24/cdc_ingest/pkg/metrics"
	"github.com/Gunvolt24/cdc_ingest/pkg/telemetry"
	"github.com/Gunvolt24/cdc_ingest/pkg/validate"
)

const testTopic = "tidb_changes"

// recordingSink — запоминает порядок вызовов sink.
type recordingSink struct {
	mu      sync.Mutex
	entries []sinkEntry
}

type sinkEntry struct {
	emitted bool
	offset  int64
	event   *domain.ChangeEvent
	err     error
}

func (s *recordingSink) Emit(_ context.Context, msg *domain.RawMessage, ev *domain.ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, sinkEntry{emitted: true, offset: msg.Offset, event: ev})
}

func (s *recordingSink) Reject(_ context.Context, msg *domain.RawMessage, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, sinkEntry{offset: msg.Offset, err: err})
}

func (s *recordingSink) snapshot() []sinkEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sinkEntry(nil), s.entries...)
}

// runAsync запускает Consumer.Run в отдельной горутине и возвращает канал с ошибкой.
func runAsync(ctx context.Context, c *Consumer) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()
	return errCh
}

func waitRun(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for Run to stop")
		return nil
	}
}

func newTestConsumer(r reader, sink ports.EventSink, events chan<- domain.LifecycleEvent) (*Consumer, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Consumer{
		cfg:          ConsumerConfig{Brokers: []string{"b:9092"}, Topic: testTopic, GroupID: "g1"},
		newReader:    func(kafka.ReaderConfig) reader { return r },
		decoder:      validate.NewEventDecoder(),
		sink:         sink,
		events:       events,
		log:          logger.NewFromZap(zap.New(core)),
		tracer:       otel.Tracer(telemetry.TracerName),
		retryInitial: 5 * time.Millisecond,
		retryMax:     10 * time.Millisecond,
		maxRetries:   3,
		jitterRand:   rand.New(rand.NewSource(1)),
		sleep:        sleepWithBackoff,
	}, logs
}

func msgAt(offset int64, value string) kafka.Message {
	return kafka.Message{Topic: testTopic, Partition: 0, Offset: offset, Value: []byte(value)}
}

// blockUntilCancel — следующий fetch ждёт отмены контекста.
func blockUntilCancel(ctx context.Context) (kafka.Message, error) {
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func drain(events chan domain.LifecycleEvent) []domain.LifecycleKind {
	var kinds []domain.LifecycleKind
	for {
		select {
		case ev := <-events:
			kinds = append(kinds, ev.Kind)
		default:
			return kinds
		}
	}
}

func insertPayload(id string) string {
	return `{"type":"INSERT","database":"d","table":"t","ts":123,"data":{"id":` + id + `},"old":null}`
}

// Порядок: оффсеты 10, 11, 12 одной партиции → записи в том же порядке, каждый закоммичен
func TestRun_PreservesOrderAndCommits(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)

	var committed []int64
	gomock.InOrder(
		r.EXPECT().FetchMessage(gomock.Any()).Return(msgAt(10, insertPayload("1")), nil),
		r.EXPECT().FetchMessage(gomock.Any()).Return(msgAt(11, insertPayload("2")), nil),
		r.EXPECT().FetchMessage(gomock.Any()).Return(msgAt(12, insertPayload("3")), nil),
		r.EXPECT().FetchMessage(gomock.Any()).DoAndReturn(blockUntilCancel),
	)
	r.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msgs ...kafka.Message) error {
			committed = append(committed, msgs[0].Offset)
			return nil
		}).Times(3)

	sink := &recordingSink{}
	events := make(chan domain.LifecycleEvent, 8)
	c, logs := newTestConsumer(r, sink, events)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := runAsync(ctx, c)

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 3 }, time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, waitRun(t, errCh), context.Canceled)

	got := sink.snapshot()
	for i, want := range []int64{10, 11, 12} {
		require.True(t, got[i].emitted)
		require.Equal(t, want, got[i].offset)
		require.Equal(t, domain.ChangeInsert, got[i].event.Type)
	}
	require.Equal(t, []int64{10, 11, 12}, committed)

	require.Equal(t, []domain.LifecycleKind{domain.LifecycleSubscribed, domain.LifecycleStopped}, drain(events))
	require.Equal(t, 1, logs.FilterField(zap.String("action", "consumer_started")).Len())
}

// Служебные виды (bootstrap-insert, DDL) доходят до sink, метрика с меткой OTHER
func TestRun_OtherChangeTypesEmitted(t *testing.T) {
	const topic = "other_types"
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)

	at := func(offset int64, value string) kafka.Message {
		return kafka.Message{Topic: topic, Offset: offset, Value: []byte(value)}
	}
	gomock.InOrder(
		r.EXPECT().FetchMessage(gomock.Any()).Return(at(0, `{"type":"bootstrap-insert","database":"d","table":"t","ts":1,"data":{"id":1}}`), nil),
		r.EXPECT().FetchMessage(gomock.Any()).Return(at(1, `{"type":"DELETE","database":"d","table":"t","ts":2,"old":{"id":1}}`), nil),
		r.EXPECT().FetchMessage(gomock.Any()).DoAndReturn(blockUntilCancel),
	)
	r.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	otherBefore := testutil.ToFloat64(metrics.EventsDecoded.WithLabelValues(topic, "OTHER"))
	deleteBefore := testutil.ToFloat64(metrics.EventsDecoded.WithLabelValues(topic, "DELETE"))

	sink := &recordingSink{}
	c, _ := newTestConsumer(r, sink, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := runAsync(ctx, c)

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, waitRun(t, errCh), context.Canceled)

	got := sink.snapshot()
	require.True(t, got[0].emitted)
	require.Equal(t, domain.ChangeType("BOOTSTRAP-INSERT"), got[0].event.Type)
	require.Equal(t, domain.ChangeDelete, got[1].event.Type)

	require.Equal(t, otherBefore+1, testutil.ToFloat64(metrics.EventsDecoded.WithLabelValues(topic, "OTHER")))
	require.Equal(t, deleteBefore+1, testutil.ToFloat64(metrics.EventsDecoded.WithLabelValues(topic, "DELETE")))
}

// Невалидное сообщение → Reject и коммит, цикл продолжается
func TestRun_DecodeError_CommitsAndContinues(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	sink := portmocks.NewMockEventSink(ctrl)

	gomock.InOrder(
		r.EXPECT().FetchMessage(gomock.Any()).Return(msgAt(11, "not json"), nil),
		sink.EXPECT().Reject(gomock.Any(), gomock.Any(), gomock.Any()).
			Do(func(_ context.Context, msg *domain.RawMessage, err error) {
				require.Equal(t, []byte("not json"), msg.Payload)
				require.ErrorIs(t, err, validate.ErrInvalidEvent)

				var de *validate.DecodeError
				require.ErrorAs(t, err, &de)
				require.Equal(t, []byte("not json"), de.Raw)
			}),
		r.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).Return(nil),
		r.EXPECT().FetchMessage(gomock.Any()).Return(msgAt(12, insertPayload("1")), nil),
		sink.EXPECT().Emit(gomock.Any(), gomock.Any(), gomock.Any()),
		r.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).Return(nil),
		r.EXPECT().FetchMessage(gomock.Any()).DoAndReturn(blockUntilCancel),
	)

	c, _ := newTestConsumer(r, sink, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, waitRun(t, runAsync(ctx, c)), context.DeadlineExceeded)
}

// Ошибки fetch подряд сверх бюджета → Crashed, Stopped и ErrRetriesExhausted
func TestRun_FetchRetriesExhausted_Crashes(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)

	brokerDown := errors.New("dial tcp b:9092: connection refused")
	r.EXPECT().FetchMessage(gomock.Any()).Return(kafka.Message{}, brokerDown).Times(3)

	events := make(chan domain.LifecycleEvent, 8)
	c, logs := newTestConsumer(r, &recordingSink{}, events)

	err := waitRun(t, runAsync(context.Background(), c))
	require.ErrorIs(t, err, ErrRetriesExhausted)
	require.ErrorIs(t, err, brokerDown)

	require.Equal(t, []domain.LifecycleKind{
		domain.LifecycleSubscribed, domain.LifecycleCrashed, domain.LifecycleStopped,
	}, drain(events))

	require.Equal(t, 2, logs.FilterField(zap.String("action", "kafka_fetch_retry")).Len())
	crash := logs.FilterField(zap.String("action", "consumer_crash")).All()
	require.Len(t, crash, 1)
	require.Equal(t, zapcore.ErrorLevel, crash[0].Level)
}

// Успешный fetch сбрасывает счётчик ошибок
func TestRun_FetchErrorsResetAfterSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)

	flaky := errors.New("leader not available")
	gomock.InOrder(
		r.EXPECT().FetchMessage(gomock.Any()).Return(kafka.Message{}, flaky).Times(2),
		r.EXPECT().FetchMessage(gomock.Any()).Return(msgAt(1, insertPayload("1")), nil),
		r.EXPECT().FetchMessage(gomock.Any()).Return(kafka.Message{}, flaky).Times(2),
		r.EXPECT().FetchMessage(gomock.Any()).DoAndReturn(blockUntilCancel),
	)
	r.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).Return(nil)

	sink := &recordingSink{}
	c, _ := newTestConsumer(r, sink, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, waitRun(t, runAsync(ctx, c)), context.DeadlineExceeded)
	require.Len(t, sink.snapshot(), 1)
}

// Ошибка коммита только логируется
func TestRun_CommitWarnOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)

	gomock.InOrder(
		r.EXPECT().FetchMessage(gomock.Any()).Return(msgAt(5, insertPayload("1")), nil),
		r.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).Return(errors.New("rebalance in progress")),
		r.EXPECT().FetchMessage(gomock.Any()).Return(msgAt(6, insertPayload("2")), nil),
		r.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).Return(nil),
		r.EXPECT().FetchMessage(gomock.Any()).DoAndReturn(blockUntilCancel),
	)

	sink := &recordingSink{}
	c, logs := newTestConsumer(r, sink, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := runAsync(ctx, c)
	require.Eventually(t, func() bool { return len(sink.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, waitRun(t, errCh), context.Canceled)

	warns := logs.FilterField(zap.String("action", "kafka_commit_failed")).All()
	require.Len(t, warns, 1)
	require.Equal(t, zapcore.WarnLevel, warns[0].Level)
	require.EqualValues(t, 5, warns[0].ContextMap()["offset"])
}

// Подписка повторяется, пока топик не появится в метаданных
func TestRun_SubscribeRetriesTopicCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	checker := mocks.NewMocktopicChecker(ctrl)

	gomock.InOrder(
		checker.EXPECT().ReadPartitions(gomock.Any(), testTopic).Return(nil, errors.New("connection refused")),
		checker.EXPECT().ReadPartitions(gomock.Any(), testTopic).Return([]kafka.Partition{}, nil),
		checker.EXPECT().ReadPartitions(gomock.Any(), testTopic).Return([]kafka.Partition{{Topic: testTopic}}, nil),
	)
	r.EXPECT().FetchMessage(gomock.Any()).DoAndReturn(blockUntilCancel)

	events := make(chan domain.LifecycleEvent, 8)
	c, _ := newTestConsumer(r, &recordingSink{}, events)
	c.checker = checker

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, waitRun(t, runAsync(ctx, c)), context.DeadlineExceeded)
	require.Equal(t, []domain.LifecycleKind{domain.LifecycleSubscribed, domain.LifecycleStopped}, drain(events))
}

// Брокер недоступен при подписке → Crashed без создания reader
func TestRun_SubscribeExhausted_Crashes(t *testing.T) {
	ctrl := gomock.NewController(t)
	checker := mocks.NewMocktopicChecker(ctrl)
	checker.EXPECT().ReadPartitions(gomock.Any(), testTopic).Return(nil, errors.New("no route to host")).Times(3)

	events := make(chan domain.LifecycleEvent, 8)
	c, _ := newTestConsumer(nil, &recordingSink{}, events)
	c.checker = checker
	c.newReader = func(kafka.ReaderConfig) reader {
		t.Fatal("reader must not be created")
		return nil
	}

	err := waitRun(t, runAsync(context.Background(), c))
	require.ErrorIs(t, err, ErrRetriesExhausted)
	require.Equal(t, []domain.LifecycleKind{domain.LifecycleCrashed, domain.LifecycleStopped}, drain(events))
}

// Закрытый снаружи reader (io.EOF) — штатная остановка
func TestRun_ReaderClosed_StopsCleanly(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	r.EXPECT().FetchMessage(gomock.Any()).Return(kafka.Message{}, io.EOF)

	events := make(chan domain.LifecycleEvent, 8)
	c, _ := newTestConsumer(r, &recordingSink{}, events)

	require.NoError(t, waitRun(t, runAsync(context.Background(), c)))

	var stopped domain.LifecycleEvent
	require.Equal(t, domain.LifecycleSubscribed, (<-events).Kind)
	stopped = <-events
	require.Equal(t, domain.LifecycleStopped, stopped.Kind)
	require.NoError(t, stopped.Err)
}

func TestClose_Idempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	r.EXPECT().FetchMessage(gomock.Any()).Return(kafka.Message{}, io.EOF)
	r.EXPECT().Close().Return(nil).Times(1)

	c, _ := newTestConsumer(r, &recordingSink{}, nil)
	require.NoError(t, waitRun(t, runAsync(context.Background(), c)))

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

// Close до подписки: reader не создаётся, Run завершается без ошибки
func TestClose_BeforeRun(t *testing.T) {
	c, _ := newTestConsumer(nil, &recordingSink{}, nil)
	c.newReader = func(kafka.ReaderConfig) reader {
		t.Fatal("reader must not be created after Close")
		return nil
	}

	require.NoError(t, c.Close())
	require.NoError(t, waitRun(t, runAsync(context.Background(), c)))
}

func TestBackoffHelpers(t *testing.T) {
	c, _ := newTestConsumer(nil, nil, nil)
	c.retryMax = 40 * time.Millisecond

	require.Equal(t, 10*time.Millisecond, c.nextBackoff(5*time.Millisecond))
	require.Equal(t, 40*time.Millisecond, c.nextBackoff(30*time.Millisecond))

	for i := 0; i < 100; i++ {
		d := c.withJitterEqual(20 * time.Millisecond)
		require.GreaterOrEqual(t, d, 10*time.Millisecond)
		require.LessOrEqual(t, d, 20*time.Millisecond)
	}
	require.Zero(t, c.withJitterEqual(0))
}

func TestToRawMessage(t *testing.T) {
	msg := kafka.Message{
		Topic: testTopic, Partition: 2, Offset: 7,
		Key: []byte("k"), Value: []byte("v"),
		Headers: []kafka.Header{{Key: "traceparent", Value: []byte("00-abc")}},
	}

	raw := toRawMessage(&msg)
	require.Equal(t, testTopic, raw.Topic)
	require.Equal(t, 2, raw.Partition)
	require.EqualValues(t, 7, raw.Offset)
	require.Equal(t, []byte("v"), raw.Payload)
	require.Equal(t, map[string]string{"traceparent": "00-abc"}, raw.Headers)
	require.Equal(t, "other", decodeKind(errors.New("x")))
}
