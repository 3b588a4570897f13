package domain

import "time"

// AuthEventKind enumerates the audited coordinator outcomes.
type AuthEventKind string

const (
	EventSignIn       AuthEventKind = "sign_in"
	EventSignUp       AuthEventKind = "sign_up"
	EventSignOut      AuthEventKind = "sign_out"
	EventRoleAssigned AuthEventKind = "role_assigned"
)

// AuthEvent is one entry of the authentication audit trail.
type AuthEvent struct {
	UserID string        `json:"user_id" bson:"user_id"`
	Kind   AuthEventKind `json:"kind" bson:"kind"`
	Method string        `json:"method,omitempty" bson:"method,omitempty"`
	Role   Role          `json:"role,omitempty" bson:"role,omitempty"`
	At     time.Time     `json:"at" bson:"at"`
}
