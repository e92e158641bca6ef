package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAdminNotFound is returned when no admin user matches the lookup.
var ErrAdminNotFound = errors.New("admin user not found")

// AdminUser is a back-office account.
type AdminUser struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Admins is the admin account repository.
type Admins struct {
	pool *pgxpool.Pool
}

// NewAdmins creates the admin repository.
func NewAdmins(pool *pgxpool.Pool) *Admins {
	return &Admins{pool: pool}
}

// Create inserts a new admin account with a pre-hashed password.
func (r *Admins) Create(ctx context.Context, email, passwordHash string) (AdminUser, error) {
	u := AdminUser{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO admin_users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		return AdminUser{}, fmt.Errorf("inserting admin user %q: %w", email, err)
	}
	return u, nil
}

// GetByEmail looks up an admin account for login.
func (r *Admins) GetByEmail(ctx context.Context, email string) (AdminUser, error) {
	var u AdminUser
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at
		FROM admin_users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AdminUser{}, ErrAdminNotFound
		}
		return AdminUser{}, fmt.Errorf("getting admin user %q: %w", email, err)
	}
	return u, nil
}
