// Package repository persists users, accounts, refresh-token sessions and
// OAuth links in MySQL. It is the single source of truth for revocation:
// callers re-read rows at verification time and never cache token validity.
package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/financeflow/financeflow-api/internal/model"
)

// UserRepo persists rows of the 'users' table:
//
//	id CHAR(36) PK, email VARCHAR(255) UNIQUE, password_hash VARCHAR(100) NULL,
//	name VARCHAR(255) NULL, image VARCHAR(512) NULL, role VARCHAR(32),
//	email_verified_at DATETIME NULL, created_at, updated_at
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user, assigning an id when none is set.
// Emails are stored lowercase so uniqueness is case-insensitive.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, name, image, role, email_verified_at) VALUES (?,?,?,?,?,?,?)",
		u.ID, u.Email, u.PasswordHash, u.Name, u.Image, u.Role, u.EmailVerifiedAt)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByEmail fetches a user by normalized email. Returns (nil, nil) when no
// row matches.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,name,image,role,email_verified_at,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email))
}

// GetByID fetches a user by id. Returns (nil, nil) when no row matches.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,name,image,role,email_verified_at,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id))
}

func (r *UserRepo) scanOne(row *sql.Row) (*model.User, error) {
	var (
		u        model.User
		verified sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Image, &u.Role,
		&verified, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if verified.Valid {
		t := verified.Time
		u.EmailVerifiedAt = &t
	}
	return &u, nil
}
