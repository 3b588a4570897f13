package service

import (
	"testing"

	"github.com/oracadehub/learning-portal/internal/core/domain"
)

func TestGate(t *testing.T) {
	alice := &domain.Identity{UID: "u1", Email: "a@b.com"}

	tests := []struct {
		name     string
		state    domain.AuthState
		required domain.Role
		want     Decision
	}{
		{
			name:     "initializing shows placeholder",
			state:    domain.AuthState{Kind: domain.StateInitializing},
			required: domain.RoleStudent,
			want:     Loading,
		},
		{
			name:     "operation in flight shows placeholder",
			state:    domain.AuthState{Kind: domain.StateAuthenticated, Identity: alice, Role: domain.RoleStudent, Loading: true},
			required: domain.RoleStudent,
			want:     Loading,
		},
		{
			name:     "no identity redirects home",
			state:    domain.AuthState{Kind: domain.StateUnauthenticated},
			required: domain.RoleStudent,
			want:     RedirectHome,
		},
		{
			name:     "role mismatch redirects home",
			state:    domain.AuthState{Kind: domain.StateAuthenticated, Identity: alice, Role: domain.RoleStudent},
			required: domain.RoleInstructor,
			want:     RedirectHome,
		},
		{
			name:     "unknown role redirects home",
			state:    domain.AuthState{Kind: domain.StateRoleUnknown, Identity: alice},
			required: domain.RoleStudent,
			want:     RedirectHome,
		},
		{
			name:     "matching role renders",
			state:    domain.AuthState{Kind: domain.StateAuthenticated, Identity: alice, Role: domain.RoleInstructor},
			required: domain.RoleInstructor,
			want:     Render,
		},
		{
			name:     "error state with matching role still renders",
			state:    domain.AuthState{Kind: domain.StateError, Identity: alice, Role: domain.RoleStudent, Message: MsgSignOutFailed},
			required: domain.RoleStudent,
			want:     Render,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Gate(tt.state, tt.required); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestPublicOnly(t *testing.T) {
	alice := &domain.Identity{UID: "u1"}

	d, path := PublicOnly(domain.AuthState{Kind: domain.StateAuthenticated, Identity: alice, Role: domain.RoleInstructor})
	if d != RedirectDashboard || path != "/instructor/dashboard" {
		t.Fatalf("expected instructor dashboard redirect, got %s %q", d, path)
	}

	d, path = PublicOnly(domain.AuthState{Kind: domain.StateRoleUnknown, Identity: alice})
	if d != Render || path != "" {
		t.Fatalf("unresolved role must render the page, got %s %q", d, path)
	}

	d, _ = PublicOnly(domain.AuthState{Kind: domain.StateUnauthenticated})
	if d != Render {
		t.Fatalf("expected render, got %s", d)
	}

	d, _ = PublicOnly(domain.AuthState{Kind: domain.StateInitializing})
	if d != Loading {
		t.Fatalf("expected loading, got %s", d)
	}
}

func TestFallback(t *testing.T) {
	alice := &domain.Identity{UID: "u1"}

	if got := Fallback(domain.AuthState{Kind: domain.StateAuthenticated, Identity: alice, Role: domain.RoleStudent}); got != "/student/dashboard" {
		t.Fatalf("unexpected fallback %q", got)
	}
	if got := Fallback(domain.AuthState{Kind: domain.StateRoleUnknown, Identity: alice}); got != "/" {
		t.Fatalf("unexpected fallback %q", got)
	}
	if got := Fallback(domain.AuthState{Kind: domain.StateUnauthenticated}); got != "/" {
		t.Fatalf("unexpected fallback %q", got)
	}
}
