package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oracadehub/learning-portal/internal/core/domain"
	"github.com/oracadehub/learning-portal/internal/core/ports"
)

const (
	stateTTL = 10 * time.Minute
	// noRole marks a state saved without a role intent.
	noRole = "-"
)

// StateStore keeps one-shot OAuth state values together with the role the
// user picked before being redirected.
// Key format: oauth_state:<state>
type StateStore struct {
	client *redis.Client
}

func NewStateStore(client *redis.Client) *StateStore {
	return &StateStore{client: client}
}

// Save records state; it expires after stateTTL.
func (s *StateStore) Save(ctx context.Context, state string, intendedRole *domain.Role) error {
	value := noRole
	if intendedRole != nil && intendedRole.Valid() {
		value = string(*intendedRole)
	}
	ok, err := s.client.SetNX(ctx, s.key(state), value, stateTTL).Result()
	if err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	if !ok {
		return fmt.Errorf("save oauth state: %w", domain.ErrInvalidState)
	}
	return nil
}

// Consume atomically reads and deletes state. A second call for the same
// state returns domain.ErrInvalidState.
func (s *StateStore) Consume(ctx context.Context, state string) (*domain.Role, error) {
	if state == "" {
		return nil, domain.ErrInvalidState
	}
	value, err := s.client.GetDel(ctx, s.key(state)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrInvalidState
		}
		return nil, fmt.Errorf("consume oauth state: %w", err)
	}

	role, ok := domain.ParseRole(value)
	if !ok {
		return nil, nil
	}
	return &role, nil
}

func (s *StateStore) key(state string) string {
	return "oauth_state:" + state
}

var _ ports.StateStore = (*StateStore)(nil)
