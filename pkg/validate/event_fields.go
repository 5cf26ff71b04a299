package validate

import (
	"bytes"
	"encoding/json"

	"github.com/Gunvolt24/cdc_ingest/internal/domain"
)

// present — поле есть и не равно null.
func present(fields map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	v, ok := fields[name]
	if !ok {
		return nil, false
	}
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return nil, false
	}
	return v, true
}

func requiredString(raw []byte, fields map[string]json.RawMessage, name string) (string, error) {
	v, ok := present(fields, name)
	if !ok {
		return "", &DecodeError{Raw: raw, Kind: KindMissingField, Field: name, Detail: "field is required"}
	}
	if v[0] != '"' {
		return "", &DecodeError{Raw: raw, Kind: KindTypeMismatch, Field: name, Detail: "expected string"}
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", &DecodeError{Raw: raw, Kind: KindTypeMismatch, Field: name, Detail: err.Error()}
	}
	if s == "" {
		return "", &DecodeError{Raw: raw, Kind: KindMissingField, Field: name, Detail: "field must not be empty"}
	}
	return s, nil
}

// requiredTimestamp — ts: любое JSON-число или непустая строка.
func requiredTimestamp(raw []byte, fields map[string]json.RawMessage, name string) (domain.Timestamp, error) {
	v, ok := present(fields, name)
	if !ok {
		return domain.Timestamp{}, &DecodeError{Raw: raw, Kind: KindMissingField, Field: name, Detail: "field is required"}
	}

	if v[0] == '"' {
		s, err := requiredString(raw, fields, name)
		if err != nil {
			return domain.Timestamp{}, err
		}
		return domain.NewTextTimestamp(s), nil
	}

	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	var n any
	if err := dec.Decode(&n); err != nil {
		return domain.Timestamp{}, &DecodeError{Raw: raw, Kind: KindTypeMismatch, Field: name, Detail: err.Error()}
	}
	num, isNum := n.(json.Number)
	if !isNum {
		return domain.Timestamp{}, &DecodeError{Raw: raw, Kind: KindTypeMismatch, Field: name, Detail: "expected number or string"}
	}
	// литерал сохраняется как есть; Epoch доступен только для целых в пределах int64
	return domain.NewNumericTimestamp(num), nil
}

// optionalObject — отсутствие и null дают nil; числа внутри сохраняются как json.Number.
func optionalObject(raw []byte, fields map[string]json.RawMessage, name string) (map[string]any, error) {
	v, ok := present(fields, name)
	if !ok {
		return nil, nil
	}
	if v[0] != '{' {
		return nil, &DecodeError{Raw: raw, Kind: KindTypeMismatch, Field: name, Detail: "expected object or null"}
	}
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, &DecodeError{Raw: raw, Kind: KindTypeMismatch, Field: name, Detail: err.Error()}
	}
	return obj, nil
}
