package ports

import (
	"context"

	"github.com/oracadehub/learning-portal/internal/core/domain"
)

// AuthEventRecorder accepts audit events. Implementations must not block
// the caller on persistence.
type AuthEventRecorder interface {
	Record(event domain.AuthEvent)
}

// AuthEventRepository persists audit events.
type AuthEventRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
}

// AuthEventProcessor handles one dequeued audit event.
type AuthEventProcessor interface {
	Process(ctx context.Context, event domain.AuthEvent) error
}
