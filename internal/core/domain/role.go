package domain

import "time"

// Role is the single, immutable role attached to a user.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
)

// ParseRole converts user input into a Role. The empty string and unknown
// values report ok=false.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleStudent, RoleInstructor:
		return Role(s), true
	default:
		return "", false
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// DashboardPath returns the landing path of the role's dashboard.
func (r Role) DashboardPath() string {
	return "/" + string(r) + "/dashboard"
}

// Title returns the capitalised role name used in page titles.
func (r Role) Title() string {
	switch r {
	case RoleStudent:
		return "Student"
	case RoleInstructor:
		return "Instructor"
	default:
		return ""
	}
}

// RoleRecord is the persisted mapping of a user to their role.
type RoleRecord struct {
	UserID    string    `json:"user_id" bson:"_id"`
	Email     string    `json:"email" bson:"email"`
	Role      Role      `json:"role" bson:"role"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
