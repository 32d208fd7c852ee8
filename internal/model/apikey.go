package model

import "time"

// Role is the access level attached to an API key.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
	RoleRoot  Role = "ROOT"
)

// APIKey is a stored credential. Only the hash of the raw key is persisted.
type APIKey struct {
	ID        int64      `json:"id" db:"id"`
	KeyHash   string     `json:"-" db:"key_hash"`
	Role      Role       `json:"role" db:"role"`
	Active    bool       `json:"active" db:"active"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty" db:"expires_at"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}

// Usable reports whether the key is active and not expired at now.
func (k *APIKey) Usable(now time.Time) bool {
	if !k.Active {
		return false
	}
	return k.ExpiresAt == nil || k.ExpiresAt.After(now)
}

// IssuedKey is returned once when a key is created; Key is never stored.
type IssuedKey struct {
	Key       string     `json:"key"`
	Role      Role       `json:"role"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}
