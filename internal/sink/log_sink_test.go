package sink_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Gunvolt24/cdc_ingest/internal/domain"
	"github.com/Gunvolt24/cdc_ingest/internal/ports/mocks"
	"github.com/Gunvolt24/cdc_ingest/internal/sink"
	"github.com/Gunvolt24/cdc_ingest/pkg/logger"
	"github.com/Gunvolt24/cdc_ingest/pkg/validate"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedSink() (*sink.LogSink, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return sink.NewLogSink(logger.NewFromZap(zap.New(core))), logs
}

func TestLogSink_Emit(t *testing.T) {
	s, logs := newObservedSink()

	msg := &domain.RawMessage{Topic: "tidb_changes", Partition: 0, Offset: 10}
	ev := &domain.ChangeEvent{
		Type:     domain.ChangeInsert,
		Database: "d",
		Table:    "t",
		TS:       domain.NewEpochTimestamp(123),
		Data:     map[string]any{"id": "1"},
	}
	s.Emit(context.Background(), msg, ev)

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, zapcore.InfoLevel, entries[0].Level)

	f := entries[0].ContextMap()
	require.Equal(t, "cdc_event", f["action"])
	require.Equal(t, "tidb_changes", f["topic"])
	require.EqualValues(t, 10, f["offset"])
	require.Equal(t, "INSERT", f["change_type"])
	require.Equal(t, "d", f["database"])
	require.Equal(t, "t", f["table"])
	require.EqualValues(t, 123, f["ts"])
	require.Equal(t, map[string]any{"id": "1"}, f["data"])
}

func TestLogSink_Emit_TextTimestamp(t *testing.T) {
	s, logs := newObservedSink()

	s.Emit(context.Background(), &domain.RawMessage{Topic: "x"}, &domain.ChangeEvent{
		Type: domain.ChangeDelete, Database: "d", Table: "t",
		TS: domain.NewTextTimestamp("2024-01-01T00:00:00Z"),
	})

	require.Equal(t, "2024-01-01T00:00:00Z", logs.All()[0].ContextMap()["ts"])
}

func TestLogSink_Emit_NumericTimestampUnchanged(t *testing.T) {
	tests := []struct {
		literal string
		want    any
	}{
		{"1700000000.789", 1700000000.789},
		{"9223372036854775808", "9223372036854775808"},
		{"1.7e9", "1.7e9"},
	}
	for _, tt := range tests {
		s, logs := newObservedSink()
		s.Emit(context.Background(), &domain.RawMessage{Topic: "x"}, &domain.ChangeEvent{
			Type: domain.ChangeInsert, Database: "d", Table: "t",
			TS: domain.NewNumericTimestamp(json.Number(tt.literal)),
		})
		require.Equal(t, tt.want, logs.All()[0].ContextMap()["ts"], "ts %s", tt.literal)
	}
}

func TestLogSink_Reject(t *testing.T) {
	s, logs := newObservedSink()

	raw := []byte("not json")
	_, err := validate.NewEventDecoder().Decode(raw)
	require.Error(t, err)

	s.Reject(context.Background(), &domain.RawMessage{Topic: "tidb_changes", Partition: 2, Offset: 11, Payload: raw}, err)

	entries := logs.FilterField(zap.String("action", "cdc_parse_error")).All()
	require.Len(t, entries, 1)
	require.Equal(t, zapcore.ErrorLevel, entries[0].Level)

	f := entries[0].ContextMap()
	require.Equal(t, "not json", f["raw"])
	require.EqualValues(t, 2, f["partition"])
	require.EqualValues(t, 11, f["offset"])
	require.Equal(t, "malformed", f["kind"])
	require.Contains(t, f["error"], "invalid change event")
}

func TestLogSink_Reject_PlainErrorAndTruncation(t *testing.T) {
	s, logs := newObservedSink()

	big := []byte(strings.Repeat("x", 5000))
	s.Reject(context.Background(), &domain.RawMessage{Payload: big}, errors.New("boom"))

	f := logs.All()[0].ContextMap()
	require.NotContains(t, f, "kind")
	require.True(t, strings.HasSuffix(f["raw"].(string), "...(truncated)"))
	require.Less(t, len(f["raw"].(string)), len(big))
}

// Отклонённое сообщение пишется только на уровне error, событие не эмитится.
func TestLogSink_Reject_OnlyErrorLevel(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Errorw(gomock.Any(), "cdc parse error", gomock.Any()).Times(1)

	s := sink.NewLogSink(log)
	s.Reject(context.Background(), &domain.RawMessage{Topic: "t", Payload: []byte("x")}, errors.New("boom"))
}
