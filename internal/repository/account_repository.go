package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/financeflow/financeflow-api/internal/model"
)

// AccountRepo persists rows of the 'accounts' table:
//
//	id CHAR(36) PK, user_id CHAR(36) FK, name VARCHAR(255),
//	type ENUM('INDIVIDUAL','COMPANY','CLUB'), created_at, updated_at
type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

// Create inserts the companion billing account created with every user.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO accounts (id, user_id, name, type) VALUES (?,?,?,?)",
		a.ID, a.UserID, a.Name, a.Type)
	return err
}
