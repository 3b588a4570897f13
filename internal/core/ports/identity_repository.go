package ports

import (
	"context"

	"github.com/oracadehub/learning-portal/internal/core/domain"
)

// AccountRepository is the identity provider's account storage.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByUID(ctx context.Context, uid string) (*domain.Account, error)
	// FindBySubject matches accounts created through the provider as well as
	// accounts the subject was later linked to.
	FindBySubject(ctx context.Context, provider, subject string) (*domain.Account, error)
	LinkSubject(ctx context.Context, uid, provider, subject string) error
}

// SessionStore maps opaque browser session ids to identity uids.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (string, error)
	Put(ctx context.Context, sessionID, uid string) error
	Delete(ctx context.Context, sessionID string) error
}

// StateStore keeps one-shot OAuth state values.
type StateStore interface {
	Save(ctx context.Context, state string, intendedRole *domain.Role) error
	// Consume returns domain.ErrInvalidState when state is unknown or was
	// already used.
	Consume(ctx context.Context, state string) (*domain.Role, error)
}
