package health

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/Gunvolt24/cdc_ingest/internal/domain"
	"github.com/Gunvolt24/cdc_ingest/internal/ports"
	"github.com/Gunvolt24/cdc_ingest/pkg/metrics"
)

// Проверка, что Tracker удовлетворяет порту.
var _ ports.HealthReporter = (*Tracker)(nil)

const reasonStarting = "consumer group not joined yet"

// Tracker — состояние консьюмера для /health.
// Единственный писатель — Run; читатели получают копию снимка через Status.
type Tracker struct {
	log  ports.Logger
	snap atomic.Pointer[ports.HealthStatus]
}

func NewTracker(topic, groupID string, log ports.Logger) *Tracker {
	t := &Tracker{log: log}
	t.snap.Store(&ports.HealthStatus{
		State:   domain.StateStarting,
		Topic:   topic,
		GroupID: groupID,
		Reason:  reasonStarting,
	})
	metrics.ConsumerState.Set(float64(domain.StateStarting))
	return t
}

// Status — копия текущего снимка.
func (t *Tracker) Status() ports.HealthStatus {
	return *t.snap.Load()
}

// Run — применяет события жизненного цикла до закрытия канала или отмены ctx.
// При отмене дочитывает уже буферизованные события.
func (t *Tracker) Run(ctx context.Context, events <-chan domain.LifecycleEvent) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			t.apply(ctx, ev)
		case <-ctx.Done():
			for {
				select {
				case ev, ok := <-events:
					if !ok {
						return
					}
					t.apply(ctx, ev)
				default:
					return
				}
			}
		}
	}
}

// apply — переходы: Subscribed только из Starting; Crashed терминально;
// Stopped с ошибкой (кроме отмены контекста) эквивалентно Crashed.
func (t *Tracker) apply(ctx context.Context, ev domain.LifecycleEvent) {
	cur := t.snap.Load()
	if cur.State == domain.StateCrashed {
		return
	}

	next := *cur
	switch ev.Kind {
	case domain.LifecycleSubscribed:
		if cur.State != domain.StateStarting {
			return
		}
		next.State, next.Ready, next.Reason = domain.StateReady, true, ""
	case domain.LifecycleCrashed:
		next.State, next.Ready, next.Reason = domain.StateCrashed, false, reason(ev.Err)
	case domain.LifecycleStopped:
		if ev.Err == nil || errors.Is(ev.Err, context.Canceled) {
			return
		}
		next.State, next.Ready, next.Reason = domain.StateCrashed, false, reason(ev.Err)
	default:
		return
	}

	t.snap.Store(&next)
	metrics.ConsumerState.Set(float64(next.State))

	kv := []any{
		"action", "consumer_state",
		"from", cur.State.String(),
		"to", next.State.String(),
		"event", ev.Kind.String(),
		"topic", next.Topic,
		"group_id", next.GroupID,
	}
	if next.State == domain.StateCrashed {
		t.log.Errorw(ctx, "consumer state changed", append(kv, "reason", next.Reason)...)
		return
	}
	t.log.Infow(ctx, "consumer state changed", kv...)
}

func reason(err error) string {
	if err == nil {
		return "consumer crashed"
	}
	return err.Error()
}
