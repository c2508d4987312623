package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storefront/commerce-core/internal/core/domain"
)

const userColumns = `id, username, password_hash, is_privileged, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.fetch(ctx, q, username)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.fetch(ctx, q, id)
}

// Save inserts users without an ID and updates the rest.
func (r *UserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	var row pgx.Row
	if user.ID == "" {
		const q = `
INSERT INTO users (id, username, password_hash, is_privileged, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + userColumns
		row = r.pool.QueryRow(ctx, q, uuid.NewString(), user.Username, user.PasswordHash, user.IsPrivileged, user.CreatedAt, user.UpdatedAt)
	} else {
		const q = `
UPDATE users
SET username = $2, password_hash = $3, is_privileged = $4, updated_at = $5
WHERE id = $1
RETURNING ` + userColumns
		row = r.pool.QueryRow(ctx, q, user.ID, user.Username, user.PasswordHash, user.IsPrivileged, user.UpdatedAt)
	}

	saved, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUserExists
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("save user: %w", err)
	}
	return saved, nil
}

func (r *UserRepository) fetch(ctx context.Context, q string, args ...any) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsPrivileged, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}
