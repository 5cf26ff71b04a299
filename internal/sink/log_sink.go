package sink

import (
	"context"
	"errors"
	"strconv"

	"github.com/Gunvolt24/cdc_ingest/internal/domain"
	"github.com/Gunvolt24/cdc_ingest/internal/ports"
	"github.com/Gunvolt24/cdc_ingest/pkg/validate"
)

// Проверка, что LogSink удовлетворяет порту.
var _ ports.EventSink = (*LogSink)(nil)

// maxRawLen — сколько байт payload попадает в запись об ошибке.
const maxRawLen = 4096

// LogSink — пишет каждое событие одной структурированной записью.
type LogSink struct {
	log ports.Logger
}

func NewLogSink(log ports.Logger) *LogSink {
	return &LogSink{log: log}
}

// Emit — запись action=cdc_event.
func (s *LogSink) Emit(ctx context.Context, msg *domain.RawMessage, ev *domain.ChangeEvent) {
	s.log.Infow(ctx, "cdc event",
		"action", "cdc_event",
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"change_type", string(ev.Type),
		"database", ev.Database,
		"table", ev.Table,
		"ts", tsValue(ev.TS),
		"data", ev.Data,
		"old", ev.Old,
	)
}

// Reject — запись action=cdc_parse_error с исходным payload.
func (s *LogSink) Reject(ctx context.Context, msg *domain.RawMessage, err error) {
	kv := []any{
		"action", "cdc_parse_error",
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"error", err.Error(),
		"raw", truncate(msg.Payload),
	}
	var de *validate.DecodeError
	if errors.As(err, &de) {
		kv = append(kv, "kind", string(de.Kind))
		if de.Field != "" {
			kv = append(kv, "field", de.Field)
		}
	}
	s.log.Errorw(ctx, "cdc parse error", kv...)
}

// tsValue — ts для записи без потери значения: целое как int64, дробное как float64,
// если оно печатается тем же литералом, иначе исходный литерал строкой.
func tsValue(ts domain.Timestamp) any {
	if v, ok := ts.Epoch(); ok {
		return v
	}
	if ts.IsNumeric() {
		if f, err := strconv.ParseFloat(ts.String(), 64); err == nil && strconv.FormatFloat(f, 'f', -1, 64) == ts.String() {
			return f
		}
	}
	return ts.String()
}

func truncate(b []byte) string {
	if len(b) <= maxRawLen {
		return string(b)
	}
	return string(b[:maxRawLen]) + "...(truncated)"
}
