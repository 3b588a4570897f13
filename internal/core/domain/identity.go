package domain

import "time"

const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// Identity is the session identity issued by the identity provider.
// The coordinator only ever holds it read-only.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	Provider    string `json:"provider"`
}

// Account is the identity provider's stored view of a user.
type Account struct {
	UID             string
	Email           string
	DisplayName     string
	PasswordHash    string
	Provider        string
	ProviderSubject string
	// LinkedSubjects maps a federated provider to the subject linked to this
	// account after it was created.
	LinkedSubjects map[string]string
	Disabled       bool
	CreatedAt      time.Time
}

// Identity projects the stored account onto a session identity.
func (a *Account) Identity() *Identity {
	return &Identity{
		UID:         a.UID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		Provider:    a.Provider,
	}
}
