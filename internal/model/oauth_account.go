package model

import "time"

// OAuthAccount links a third-party identity to exactly one local user.
// Unique on (Provider, ProviderAccountID). The provider's token material is
// stored for reference only; local sessions never depend on it. Links are
// created once and not updated afterwards (re-linking is out of scope).
type OAuthAccount struct {
	ID                string
	UserID            string
	Provider          string
	ProviderAccountID string
	AccessToken       *string
	RefreshToken      *string
	ExpiresAt         *int64
	TokenType         *string
	Scope             *string
	IDToken           *string
	CreatedAt         time.Time
}
