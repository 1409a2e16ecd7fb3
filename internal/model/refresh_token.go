package model

import "time"

// RefreshToken mirrors the 'refresh_tokens' table. One row per issued
// refresh-token session. Rows are never deleted; revocation sets RevokedAt
// so the audit trail survives.
type RefreshToken struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	RevokedAt *time.Time
	UserAgent *string
	IPAddress *string
	CreatedAt time.Time
}

// IsRevoked reports whether the session was explicitly revoked.
func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsExpired reports whether the session expired at the given instant.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// IsActive reports whether the session may still mint access tokens.
func (t *RefreshToken) IsActive(now time.Time) bool {
	return !t.IsRevoked() && !t.IsExpired(now)
}
