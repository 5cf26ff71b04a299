package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Gunvolt24/cdc_ingest/internal/domain"
	"github.com/Gunvolt24/cdc_ingest/internal/ports"
	"github.com/Gunvolt24/cdc_ingest/pkg/metrics"
	"github.com/segmentio/kafka-go"
)

// Проверка, что Provisioner удовлетворяет порту.
var _ ports.TopicProvisioner = (*Provisioner)(nil)

// ErrProvisioningExhausted — все попытки создать топик исчерпаны.
var ErrProvisioningExhausted = errors.New("topic provisioning attempts exhausted")

// Outcome — результат одной попытки.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeExists  Outcome = "exists"
	OutcomeFailed  Outcome = "failed"
)

// Attempt — одна попытка создания топика. Не сохраняется, только логируется и
// передаётся наблюдателю.
type Attempt struct {
	Number  int
	Outcome Outcome
	Err     error
}

// FatalError — провижининг не удался за Attempts попыток. Err — последняя ошибка.
type FatalError struct {
	Topic    string
	Attempts int
	Err      error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("topic %q not provisioned after %d attempts: %v", e.Topic, e.Attempts, e.Err)
}

func (e *FatalError) Unwrap() []error { return []error{ErrProvisioningExhausted, e.Err} }

// Policy — параметры повторов.
type Policy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	LeaderWait  time.Duration
}

// AdminDialer — открывает новое административное соединение.
type AdminDialer interface {
	DialAdmin(ctx context.Context) (Admin, error)
}

// AdminDialerFunc — функция как AdminDialer.
type AdminDialerFunc func(ctx context.Context) (Admin, error)

func (f AdminDialerFunc) DialAdmin(ctx context.Context) (Admin, error) { return f(ctx) }

// Provisioner — создаёт топик с линейным ограниченным backoff между попытками.
type Provisioner struct {
	dialer   AdminDialer
	policy   Policy
	log      ports.Logger
	observer func(Attempt)

	sleep        func(ctx context.Context, d time.Duration) error
	pollInterval time.Duration
}

func NewProvisioner(dialer AdminDialer, policy Policy, log ports.Logger) *Provisioner {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.BaseBackoff <= 0 {
		policy.BaseBackoff = time.Second
	}
	if policy.MaxBackoff < policy.BaseBackoff {
		policy.MaxBackoff = policy.BaseBackoff
	}
	if policy.LeaderWait <= 0 {
		policy.LeaderWait = 10 * time.Second
	}
	return &Provisioner{
		dialer:       dialer,
		policy:       policy,
		log:          log,
		sleep:        sleepCtx,
		pollInterval: 200 * time.Millisecond,
	}
}

// WithObserver — колбэк на каждую попытку (включая успешную).
func (p *Provisioner) WithObserver(fn func(Attempt)) *Provisioner {
	p.observer = fn
	return p
}

// Backoff — min(base*attempt, ceiling); attempt начинается с 1.
func Backoff(base, ceiling time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if base <= 0 {
		return 0
	}
	if ceiling > 0 && base > ceiling/time.Duration(attempt) {
		return ceiling
	}
	return base * time.Duration(attempt)
}

// EnsureTopic — создаёт топик (или принимает существующий) и ждёт выбора лидеров.
// Исчерпание попыток возвращает *FatalError.
func (p *Provisioner) EnsureTopic(ctx context.Context, spec domain.TopicSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	var lastErr error
	for n := 1; n <= p.policy.MaxAttempts; n++ {
		outcome, err := p.attempt(ctx, spec)
		p.record(ctx, spec, Attempt{Number: n, Outcome: outcome, Err: err})
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return fmt.Errorf("ensure topic %q: %w", spec.Name, ctx.Err())
		}
		if n == p.policy.MaxAttempts {
			break
		}
		if err := p.sleep(ctx, Backoff(p.policy.BaseBackoff, p.policy.MaxBackoff, n)); err != nil {
			return fmt.Errorf("ensure topic %q: %w", spec.Name, err)
		}
	}

	return &FatalError{Topic: spec.Name, Attempts: p.policy.MaxAttempts, Err: lastErr}
}

func (p *Provisioner) attempt(ctx context.Context, spec domain.TopicSpec) (Outcome, error) {
	admin, err := p.dialer.DialAdmin(ctx)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("dial admin: %w", err)
	}
	defer func() {
		if cerr := admin.Close(); cerr != nil {
			p.log.Warnf(ctx, "close admin connection: %v", cerr)
		}
	}()

	outcome := OutcomeCreated
	err = admin.CreateTopics(kafka.TopicConfig{
		Topic:             spec.Name,
		NumPartitions:     spec.Partitions,
		ReplicationFactor: spec.ReplicationFactor,
	})
	if err != nil {
		if !IsTopicExists(err) {
			return OutcomeFailed, fmt.Errorf("create topic: %w", err)
		}
		outcome = OutcomeExists
	}

	// существующий топик мог быть создан с другим числом партиций: его не трогаем
	want := spec.Partitions
	if outcome == OutcomeExists {
		want = 1
	}
	have, err := p.waitForLeaders(ctx, admin, spec.Name, want)
	if err != nil {
		return OutcomeFailed, err
	}
	if outcome == OutcomeExists && have != spec.Partitions {
		p.log.Warnw(ctx, "existing topic partition count differs",
			"action", "topic_partitions_mismatch",
			"topic", spec.Name,
			"partitions", have,
			"requested", spec.Partitions,
		)
	}
	return outcome, nil
}

// waitForLeaders — опрашивает метаданные, пока у всех партиций нет лидера
// и их не меньше want. Ограничено LeaderWait. Возвращает число партиций.
func (p *Provisioner) waitForLeaders(ctx context.Context, admin Admin, topic string, want int) (int, error) {
	waitCtx, cancel := context.WithTimeout(ctx, p.policy.LeaderWait)
	defer cancel()

	for {
		parts, err := admin.ReadPartitions(topic)
		if err == nil {
			ready, total := leadersElected(parts, topic)
			if total >= want && ready == total {
				return total, nil
			}
			err = fmt.Errorf("%d/%d partitions have a leader (want %d)", ready, total, want)
		}

		select {
		case <-waitCtx.Done():
			return 0, fmt.Errorf("wait for leaders of %q: %w", topic, err)
		case <-time.After(p.pollInterval):
		}
	}
}

func leadersElected(parts []kafka.Partition, topic string) (ready, total int) {
	for _, pt := range parts {
		if pt.Topic != topic {
			continue
		}
		total++
		if pt.Leader.Host != "" && pt.Leader.ID >= 0 {
			ready++
		}
	}
	return ready, total
}

func (p *Provisioner) record(ctx context.Context, spec domain.TopicSpec, a Attempt) {
	metrics.TopicProvisionAttempts.WithLabelValues(string(a.Outcome)).Inc()
	if p.observer != nil {
		p.observer(a)
	}

	if a.Err != nil {
		p.log.Warnw(ctx, "topic create retry",
			"action", "topic_create_retry",
			"topic", spec.Name,
			"attempt", a.Number,
			"max_attempts", p.policy.MaxAttempts,
			"error", a.Err.Error(),
		)
		return
	}
	p.log.Infow(ctx, "topic ready",
		"action", "topic_ready",
		"topic", spec.Name,
		"partitions", spec.Partitions,
		"replication", spec.ReplicationFactor,
		"attempt", a.Number,
		"outcome", string(a.Outcome),
	)
}

// IsTopicExists — "топик уже существует" от брокера (код или текст ошибки).
func IsTopicExists(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, kafka.TopicAlreadyExists) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
