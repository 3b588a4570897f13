package ports

import (
	"context"

	"github.com/oracadehub/learning-portal/internal/core/domain"
)

// RoleRepository persists role records keyed by user id.
type RoleRepository interface {
	// Get returns domain.ErrRoleNotFound when no record exists.
	Get(ctx context.Context, userID string) (*domain.RoleRecord, error)
	// Upsert merges email and role into the record, creating it if needed.
	Upsert(ctx context.Context, userID, email string, role domain.Role) error
}
