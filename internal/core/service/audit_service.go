package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/oracadehub/learning-portal/internal/core/domain"
	"github.com/oracadehub/learning-portal/internal/core/ports"
)

// AuditService persists authentication audit events.
type AuditService struct {
	repo ports.AuthEventRepository
	log  zerolog.Logger
}

func NewAuditService(repo ports.AuthEventRepository, log zerolog.Logger) *AuditService {
	return &AuditService{repo: repo, log: log}
}

// Process validates and stores a single event.
func (s *AuditService) Process(ctx context.Context, event domain.AuthEvent) error {
	if event.UserID == "" || event.Kind == "" {
		return fmt.Errorf("process audit event: missing user or kind")
	}
	if event.At.IsZero() {
		return fmt.Errorf("process audit event: missing timestamp")
	}

	if err := s.repo.Insert(ctx, &event); err != nil {
		return fmt.Errorf("process audit event: %w", err)
	}

	s.log.Debug().
		Str("uid", event.UserID).
		Str("kind", string(event.Kind)).
		Str("method", event.Method).
		Msg("audit event stored")
	return nil
}
