package ports

import "github.com/Gunvolt24/cdc_ingest/internal/domain"

// HealthStatus — снимок состояния для health-проверки.
type HealthStatus struct {
	Ready   bool
	State   domain.ConsumerState
	Topic   string
	GroupID string
	Reason  string // причина not-ready (текст ошибки при crashed)
}

// HealthReporter — источник состояния для /health. Должен быть безопасен для конкурентных вызовов.
type HealthReporter interface {
	Status() HealthStatus
}
