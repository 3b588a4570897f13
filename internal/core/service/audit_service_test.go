package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/oracadehub/learning-portal/internal/core/domain"
)

type stubAuditRepo struct {
	inserted []domain.AuthEvent
	err      error
}

func (r *stubAuditRepo) Insert(_ context.Context, event *domain.AuthEvent) error {
	if r.err != nil {
		return r.err
	}
	r.inserted = append(r.inserted, *event)
	return nil
}

func TestAuditService_Process(t *testing.T) {
	repo := &stubAuditRepo{}
	svc := NewAuditService(repo, zerolog.Nop())

	event := domain.AuthEvent{UserID: "u1", Kind: domain.EventSignIn, Method: domain.ProviderPassword, At: time.Now()}
	if err := svc.Process(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.inserted) != 1 || repo.inserted[0].UserID != "u1" {
		t.Fatalf("event not stored: %+v", repo.inserted)
	}
}

func TestAuditService_RejectsIncompleteEvents(t *testing.T) {
	repo := &stubAuditRepo{}
	svc := NewAuditService(repo, zerolog.Nop())

	for _, event := range []domain.AuthEvent{
		{Kind: domain.EventSignIn, At: time.Now()},
		{UserID: "u1", At: time.Now()},
		{UserID: "u1", Kind: domain.EventSignOut},
	} {
		if err := svc.Process(context.Background(), event); err == nil {
			t.Fatalf("expected error for %+v", event)
		}
	}
	if len(repo.inserted) != 0 {
		t.Fatalf("incomplete events must not be stored")
	}
}

func TestAuditService_WrapsRepositoryError(t *testing.T) {
	cause := errors.New("mongo down")
	svc := NewAuditService(&stubAuditRepo{err: cause}, zerolog.Nop())

	err := svc.Process(context.Background(), domain.AuthEvent{UserID: "u1", Kind: domain.EventSignUp, At: time.Now()})
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped repository error, got %v", err)
	}
}
