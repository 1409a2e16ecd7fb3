package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/financeflow/financeflow-api/internal/model"
)

// TokenRepo persists rows of the 'refresh_tokens' table:
//
//	id CHAR(36) PK, user_id CHAR(36) FK, expires_at DATETIME,
//	revoked_at DATETIME NULL, user_agent VARCHAR(512) NULL,
//	ip_address VARCHAR(45) NULL, created_at
//
// Revocation is an UPDATE of revoked_at, never a DELETE, so the session
// audit trail is preserved.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Create inserts a refresh-token session row, assigning an id when none is
// set. The id is what gets embedded in the signed refresh token.
func (r *TokenRepo) Create(ctx context.Context, t *model.RefreshToken) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (id, user_id, expires_at, user_agent, ip_address) VALUES (?,?,?,?,?)",
		t.ID, t.UserID, t.ExpiresAt, t.UserAgent, t.IPAddress)
	return err
}

// GetWithUser fetches a session row joined with its owning user. Returns
// (nil, nil, nil) when the row does not exist. Revocation and expiry are
// left to the caller so the distinct failure causes can be logged.
func (r *TokenRepo) GetWithUser(ctx context.Context, id string) (*model.RefreshToken, *model.User, error) {
	var (
		t        model.RefreshToken
		u        model.User
		revoked  sql.NullTime
		verified sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT t.id, t.user_id, t.expires_at, t.revoked_at, t.user_agent, t.ip_address, t.created_at,
		        u.id, u.email, u.password_hash, u.name, u.image, u.role, u.email_verified_at, u.created_at, u.updated_at
		 FROM refresh_tokens t
		 JOIN users u ON u.id = t.user_id
		 WHERE t.id=? LIMIT 1`, id).
		Scan(&t.ID, &t.UserID, &t.ExpiresAt, &revoked, &t.UserAgent, &t.IPAddress, &t.CreatedAt,
			&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Image, &u.Role, &verified, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if revoked.Valid {
		rt := revoked.Time
		t.RevokedAt = &rt
	}
	if verified.Valid {
		vt := verified.Time
		u.EmailVerifiedAt = &vt
	}
	return &t, &u, nil
}

// Revoke marks one session as revoked. Revoking a row that is already
// revoked or missing affects nothing and is not an error.
func (r *TokenRepo) Revoke(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE id=? AND revoked_at IS NULL",
		id)
	return err
}

// RevokeAllForUser revokes every active session of one user. Run before
// each password login so a successful login invalidates prior sessions.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
