package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Gunvolt24/cdc_ingest/internal/domain"
	"github.com/Gunvolt24/cdc_ingest/internal/ports"
)

// Проверка, что EventDecoder удовлетворяет порту декодера.
var _ ports.EventDecoder = (*EventDecoder)(nil)

// ErrInvalidEvent — базовая (sentinel error) ошибка декодирования CDC-события.
var ErrInvalidEvent = errors.New("invalid change event")

// DecodeErrorKind — причина отказа.
type DecodeErrorKind string

const (
	KindMalformed    DecodeErrorKind = "malformed"     // не JSON-объект
	KindMissingField DecodeErrorKind = "missing_field" // обязательное поле отсутствует/пустое
	KindTypeMismatch DecodeErrorKind = "type_mismatch" // поле неожиданного типа
	KindUnknownType  DecodeErrorKind = "unknown_type"  // type не похож на имя вида изменения
)

// DecodeError — ошибка декодирования вместе с исходным payload.
// Для цикла потребления не фатальна: логируется и сообщение пропускается.
type DecodeError struct {
	Raw    []byte
	Kind   DecodeErrorKind
	Field  string
	Detail string
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s: %s", ErrInvalidEvent, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %s %q: %s", ErrInvalidEvent, e.Kind, e.Field, e.Detail)
}

func (e *DecodeError) Unwrap() error { return ErrInvalidEvent }

const maxChangeTypeLen = 64

// EventDecoder — разбор конверта {type, database, table, ts, data, old}.
// Состояния не хранит, безопасен для конкурентного использования.
type EventDecoder struct{}

func NewEventDecoder() *EventDecoder { return &EventDecoder{} }

// Decode — payload должен быть одним JSON-объектом; type/database/table/ts обязательны,
// data/old — объект или null. Лишние поля игнорируются.
func (d *EventDecoder) Decode(raw []byte) (*domain.ChangeEvent, error) {
	var fields map[string]json.RawMessage

	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&fields); err != nil {
		return nil, &DecodeError{Raw: raw, Kind: KindMalformed, Detail: err.Error()}
	}
	if fields == nil {
		return nil, &DecodeError{Raw: raw, Kind: KindMalformed, Detail: "payload is not a JSON object"}
	}
	// Убеждаемся, что после объекта нет лишних данных.
	if err := dec.Decode(new(json.RawMessage)); err != io.EOF {
		return nil, &DecodeError{Raw: raw, Kind: KindMalformed, Detail: "trailing data after JSON object"}
	}

	typ, err := requiredString(raw, fields, "type")
	if err != nil {
		return nil, err
	}
	changeType := domain.ChangeType(strings.ToUpper(strings.TrimSpace(typ)))
	if !validChangeType(changeType) {
		return nil, &DecodeError{Raw: raw, Kind: KindUnknownType, Field: "type", Detail: fmt.Sprintf("unsupported change type %q", typ)}
	}

	database, err := requiredString(raw, fields, "database")
	if err != nil {
		return nil, err
	}
	table, err := requiredString(raw, fields, "table")
	if err != nil {
		return nil, err
	}
	ts, err := requiredTimestamp(raw, fields, "ts")
	if err != nil {
		return nil, err
	}
	data, err := optionalObject(raw, fields, "data")
	if err != nil {
		return nil, err
	}
	old, err := optionalObject(raw, fields, "old")
	if err != nil {
		return nil, err
	}

	return &domain.ChangeEvent{
		Type:     changeType,
		Database: database,
		Table:    table,
		TS:       ts,
		Data:     data,
		Old:      old,
	}, nil
}

// validChangeType — неизвестные виды пропускаются как есть, но только если
// это короткий токен из [A-Z0-9_-].
func validChangeType(t domain.ChangeType) bool {
	if t.Known() {
		return true
	}
	if t == "" || len(t) > maxChangeTypeLen {
		return false
	}
	for i := 0; i < len(t); i++ {
		c := t[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}
