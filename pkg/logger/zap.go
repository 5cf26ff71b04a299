package logger

import (
	"context"

	"github.com/Gunvolt24/cdc_ingest/internal/ports"
	"github.com/Gunvolt24/cdc_ingest/pkg/ctxmeta"
	"go.uber.org/zap"
)

// Проверка, что ZapLogger удовлетворяет порту логгера.
var _ ports.Logger = (*ZapLogger)(nil)

type ZapLogger struct {
	base   *zap.Logger
	sugar  *zap.SugaredLogger
	isProd bool
}

// NewZapLogger — prod: JSON в stdout (одна запись = одна строка), dev: консольный формат.
func NewZapLogger(isProd bool) (*ZapLogger, func() error, error) {
	var (
		logger *zap.Logger
		err    error
	)

	if isProd {
		cfg := zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stdout"}
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapISO8601
		logger, err = cfg.Build()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, nil, err
	}

	loggerWrap := NewFromZap(logger.Named("consumer"))
	loggerWrap.isProd = isProd

	cleanup := func() error { return loggerWrap.base.Sync() }
	return loggerWrap, cleanup, nil
}

// NewFromZap — обёртка над готовым *zap.Logger (например, zaptest/observer в тестах).
func NewFromZap(base *zap.Logger) *ZapLogger {
	return &ZapLogger{base: base, sugar: base.Sugar()}
}

func (z *ZapLogger) Infof(_ context.Context, format string, args ...any) {
	z.sugar.Infof(format, args...)
}
func (z *ZapLogger) Warnf(_ context.Context, format string, args ...any) {
	z.sugar.Warnf(format, args...)
}
func (z *ZapLogger) Errorf(_ context.Context, format string, args ...any) {
	z.sugar.Errorf(format, args...)
}

func (z *ZapLogger) Infow(ctx context.Context, msg string, keysAndValues ...any) {
	z.sugar.Infow(msg, withContextFields(ctx, keysAndValues)...)
}
func (z *ZapLogger) Warnw(ctx context.Context, msg string, keysAndValues ...any) {
	z.sugar.Warnw(msg, withContextFields(ctx, keysAndValues)...)
}
func (z *ZapLogger) Errorw(ctx context.Context, msg string, keysAndValues ...any) {
	z.sugar.Errorw(msg, withContextFields(ctx, keysAndValues)...)
}

func (z *ZapLogger) Base() *zap.Logger           { return z.base }
func (z *ZapLogger) Sugared() *zap.SugaredLogger { return z.sugar }

// withContextFields — добавляет request_id/trace_id из контекста, если они есть.
func withContextFields(ctx context.Context, kv []any) []any {
	if rid, ok := ctxmeta.RequestIDFromContext(ctx); ok {
		kv = append(kv, "request_id", rid)
	}
	if tid, ok := ctxmeta.TraceIDFromContext(ctx); ok {
		kv = append(kv, "trace_id", tid)
	}
	return kv
}
