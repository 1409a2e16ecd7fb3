package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/financeflow/financeflow-api/internal/model"
)

// OAuthRepo persists rows of the 'oauth_accounts' table:
//
//	id CHAR(36) PK, user_id CHAR(36) FK, provider VARCHAR(50),
//	provider_account_id VARCHAR(191), access_token TEXT NULL,
//	refresh_token TEXT NULL, expires_at BIGINT NULL, token_type VARCHAR(32) NULL,
//	scope VARCHAR(255) NULL, id_token TEXT NULL, created_at,
//	UNIQUE (provider, provider_account_id)
type OAuthRepo struct{ DB *sql.DB }

func NewOAuthRepo(db *sql.DB) *OAuthRepo { return &OAuthRepo{DB: db} }

// GetByProviderAccount fetches the link for one external identity.
// Returns (nil, nil) when the identity has never authenticated here.
func (r *OAuthRepo) GetByProviderAccount(ctx context.Context, provider, providerAccountID string) (*model.OAuthAccount, error) {
	var a model.OAuthAccount
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, provider, provider_account_id, access_token, refresh_token,
		        expires_at, token_type, scope, id_token, created_at
		 FROM oauth_accounts WHERE provider=? AND provider_account_id=? LIMIT 1`,
		provider, providerAccountID).
		Scan(&a.ID, &a.UserID, &a.Provider, &a.ProviderAccountID, &a.AccessToken,
			&a.RefreshToken, &a.ExpiresAt, &a.TokenType, &a.Scope, &a.IDToken, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new link. Links are write-once; re-linking is out of scope.
func (r *OAuthRepo) Create(ctx context.Context, a *model.OAuthAccount) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO oauth_accounts
		 (id, user_id, provider, provider_account_id, access_token, refresh_token, expires_at, token_type, scope, id_token)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.UserID, a.Provider, a.ProviderAccountID, a.AccessToken, a.RefreshToken,
		a.ExpiresAt, a.TokenType, a.Scope, a.IDToken)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrLinkExists
		}
		return err
	}
	return nil
}
