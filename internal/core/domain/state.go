package domain

// StateKind tags the coordinator's state.
type StateKind string

const (
	StateInitializing    StateKind = "initializing"
	StateAuthenticated   StateKind = "authenticated"
	StateRoleUnknown     StateKind = "role_unknown"
	StateUnauthenticated StateKind = "unauthenticated"
	StateError           StateKind = "error"
)

// AuthState is an immutable snapshot of the coordinator.
//
//	initializing                 Identity=nil
//	authenticated(identity,role) Identity!=nil, Role set
//	role_unknown(identity)       Identity!=nil, Role empty
//	unauthenticated              Identity=nil
//	error(message)               Message set; Identity/Role keep their last values
//
// Loading is true while an operation is in flight, whatever the kind.
type AuthState struct {
	Kind     StateKind `json:"kind"`
	Identity *Identity `json:"identity,omitempty"`
	Role     Role      `json:"role,omitempty"`
	Message  string    `json:"message,omitempty"`
	Loading  bool      `json:"loading"`
}

// Authenticated reports whether a session identity is present.
func (s AuthState) Authenticated() bool {
	return s.Identity != nil
}

// HasRole reports whether the identity is present and resolved to r.
func (s AuthState) HasRole(r Role) bool {
	return s.Identity != nil && s.Role != "" && s.Role == r
}
