package model

import "time"

// User is the credential record for every subject in the marketplace:
// customers, practitioners and administrators. It is stored as JSON in the
// key-value store under the primary key `user:{id}` and under a secondary
// email index `user_email:{email}` used for login and uniqueness checks.
//
// The password is never stored in plaintext; PasswordHash holds the
// serialized PBKDF2 output (iterations:saltHex:hashHex). Accounts are never
// hard-deleted while other records reference them — admins flip Active
// instead, and the auth middleware re-reads this record on every request so
// a deactivation takes effect immediately even for unexpired tokens.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Permissions  []string  `json:"permissions"`
	Active       bool      `json:"active"`
	Verified     bool      `json:"verified"`
	Bio          string    `json:"bio,omitempty"`
	Specialty    string    `json:"specialty,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasPermission reports whether the user's permission list contains p.
func (u *User) HasPermission(p string) bool {
	for _, have := range u.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

// Public returns the user with credential material stripped, safe to embed
// in API responses.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Verified:  u.Verified,
		Bio:       u.Bio,
		Specialty: u.Specialty,
		CreatedAt: u.CreatedAt,
	}
}

// PublicUser is the externally visible projection of a User.
type PublicUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Verified  bool      `json:"verified"`
	Bio       string    `json:"bio,omitempty"`
	Specialty string    `json:"specialty,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
