// Package repositories contains pgx-backed data access for uiforge-engine.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/uiforge/uiforge-engine/pkg/apperrors"
	"github.com/uiforge/uiforge-engine/pkg/database"
	"github.com/uiforge/uiforge-engine/pkg/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// UpsertOAuth creates or refreshes an account resolved through an OAuth
	// provider and returns the stored row.
	UpsertOAuth(ctx context.Context, user *models.User) (*models.User, error)
}

// userRepository implements UserRepository using PostgreSQL.
type userRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *database.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new password-based user.
// Returns apperrors.ErrConflict if the email is already registered.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()

	query := `
		INSERT INTO users (id, email, full_name, password_hash, provider, email_confirmed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.FullName,
		nullable(user.PasswordHash),
		user.Provider,
		user.EmailConfirmed,
		user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetByEmail retrieves a user by email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `WHERE email = $1`, email)
}

func (r *userRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `
		SELECT id, email, full_name, COALESCE(password_hash, ''), provider, email_confirmed, created_at
		FROM users ` + where

	var user models.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.Provider,
		&user.EmailConfirmed,
		&user.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// UpsertOAuth inserts the user or, if the email already exists, refreshes the
// profile name. OAuth identities arrive verified, so email_confirmed is set.
func (r *userRepository) UpsertOAuth(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.EmailConfirmed = true

	query := `
		INSERT INTO users (id, email, full_name, password_hash, provider, email_confirmed, created_at)
		VALUES ($1, $2, $3, NULL, $4, true, $5)
		ON CONFLICT (email) DO UPDATE
		SET full_name = EXCLUDED.full_name,
		    email_confirmed = true
		RETURNING id, email, full_name, COALESCE(password_hash, ''), provider, email_confirmed, created_at`

	var stored models.User
	err := r.db.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.FullName,
		user.Provider,
		user.CreatedAt,
	).Scan(
		&stored.ID,
		&stored.Email,
		&stored.FullName,
		&stored.PasswordHash,
		&stored.Provider,
		&stored.EmailConfirmed,
		&stored.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert oauth user: %w", err)
	}

	return &stored, nil
}

// nullable turns an empty string into a SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Ensure userRepository implements UserRepository at compile time.
var _ UserRepository = (*userRepository)(nil)
