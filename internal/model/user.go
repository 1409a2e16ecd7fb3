package model

import "time"

// User mirrors the 'users' table. PasswordHash is nil for accounts created
// through an OAuth provider; such accounts cannot use the password login path.
type User struct {
	ID              string
	Email           string
	PasswordHash    *string
	Name            *string
	Image           *string
	Role            string
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DisplayName returns the user's name or "" when none was set.
func (u *User) DisplayName() string {
	if u.Name == nil {
		return ""
	}
	return *u.Name
}
