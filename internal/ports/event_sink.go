package ports

import (
	"context"

	"github.com/Gunvolt24/cdc_ingest/internal/domain"
)

// EventSink — приёмник декодированных событий (observability sink).
// Вызывается последовательно из цикла потребления, порядок вызовов = порядок сообщений.
type EventSink interface {
	// Emit — одно принятое событие.
	Emit(ctx context.Context, msg *domain.RawMessage, event *domain.ChangeEvent)
	// Reject — сообщение, которое не удалось декодировать.
	Reject(ctx context.Context, msg *domain.RawMessage, err error)
}
