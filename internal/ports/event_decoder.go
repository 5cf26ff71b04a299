package ports

import "github.com/Gunvolt24/cdc_ingest/internal/domain"

// EventDecoder — разбор сырого payload в ChangeEvent.
type EventDecoder interface {
	Decode(raw []byte) (*domain.ChangeEvent, error)
}
