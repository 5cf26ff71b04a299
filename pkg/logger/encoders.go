package logger

import (
	"time"

	"go.uber.org/zap/zapcore"
)

// zapISO8601 — время в UTC с миллисекундами.
func zapISO8601(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
}
