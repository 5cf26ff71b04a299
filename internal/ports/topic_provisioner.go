package ports

import (
	"context"

	"github.com/Gunvolt24/cdc_ingest/internal/domain"
)

// TopicProvisioner — гарантирует существование топика до старта потребления.
type TopicProvisioner interface {
	EnsureTopic(ctx context.Context, spec domain.TopicSpec) error
}
