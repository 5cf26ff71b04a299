package domain

import (
	"encoding/json"
	"strconv"
)

// ChangeType — вид изменения строки в источнике.
// Помимо INSERT/UPDATE/DELETE источник может присылать служебные виды
// (DDL, "bootstrap-insert" и т.п.): они сохраняются как есть, в верхнем регистре.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"

	// ChangeOther — метка для всех прочих видов (ограничивает кардинальность метрик).
	ChangeOther ChangeType = "OTHER"
)

// Known — true для строковых изменений INSERT/UPDATE/DELETE.
func (t ChangeType) Known() bool {
	switch t {
	case ChangeInsert, ChangeUpdate, ChangeDelete:
		return true
	}
	return false
}

// Label — значение для меток метрик: известный вид или ChangeOther.
func (t ChangeType) Label() string {
	if t.Known() {
		return string(t)
	}
	return string(ChangeOther)
}

// ChangeEvent — одно CDC-событие после декодирования.
// Живёт до передачи в sink, история не хранится.
type ChangeEvent struct {
	Type     ChangeType     `json:"type"`
	Database string         `json:"database"`
	Table    string         `json:"table"`
	TS       Timestamp      `json:"ts"`
	Data     map[string]any `json:"data"` // новая версия строки (nil, если null)
	Old      map[string]any `json:"old"`  // прежние значения (nil, если null)
}

// Timestamp — значение поля ts: число или строка, в том виде, как прислал источник.
// Числовой литерал хранится без преобразований (дробные и сверхбольшие значения не теряются).
type Timestamp struct {
	raw      string
	epoch    int64
	numeric  bool
	integral bool // литерал — целое в пределах int64
}

// NewEpochTimestamp — целочисленная метка времени.
func NewEpochTimestamp(epoch int64) Timestamp {
	return Timestamp{raw: strconv.FormatInt(epoch, 10), epoch: epoch, numeric: true, integral: true}
}

// NewNumericTimestamp — числовой литерал JSON как есть.
func NewNumericTimestamp(n json.Number) Timestamp {
	t := Timestamp{raw: n.String(), numeric: true}
	if v, err := n.Int64(); err == nil {
		t.epoch, t.integral = v, true
	}
	return t
}

// NewTextTimestamp — строковая метка времени (ISO-8601 и т.п.).
func NewTextTimestamp(s string) Timestamp {
	return Timestamp{raw: s}
}

// Epoch — значение как int64, если ts пришёл целым числом в пределах int64.
func (t Timestamp) Epoch() (int64, bool) { return t.epoch, t.integral }

// IsNumeric — ts пришёл числом (в том числе дробным или вне int64).
func (t Timestamp) IsNumeric() bool { return t.numeric }

// IsZero — ts не задан.
func (t Timestamp) IsZero() bool { return t.raw == "" }

func (t Timestamp) String() string { return t.raw }

// MarshalJSON — число остаётся числом, строка строкой.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.numeric {
		return []byte(t.raw), nil
	}
	return json.Marshal(t.raw)
}

// RawMessage — сообщение в том виде, как его отдал брокер.
type RawMessage struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Payload   []byte
	Headers   map[string]string
}
