package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/uiforge/uiforge-engine/pkg/apperrors"
	"github.com/uiforge/uiforge-engine/pkg/database"
	"github.com/uiforge/uiforge-engine/pkg/models"
)

// ComponentRepository defines the interface for component data access.
// Ownership checks go through the parent project's user_id.
type ComponentRepository interface {
	Create(ctx context.Context, component *models.Component, userID uuid.UUID) error
	Get(ctx context.Context, id, userID uuid.UUID) (*models.Component, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// componentRepository implements ComponentRepository using PostgreSQL.
type componentRepository struct {
	db *database.DB
}

// NewComponentRepository creates a new component repository.
func NewComponentRepository(db *database.DB) ComponentRepository {
	return &componentRepository{db: db}
}

// Create inserts a new component under a project the user owns.
// Returns apperrors.ErrNotFound if the project does not exist or belongs to
// someone else.
func (r *componentRepository) Create(ctx context.Context, component *models.Component, userID uuid.UUID) error {
	if component.ID == uuid.Nil {
		component.ID = uuid.New()
	}
	component.CreatedAt = time.Now()

	query := `
		INSERT INTO project_components (id, project_id, title, created_at)
		SELECT $1, p.id, $3, $4
		FROM projects p
		WHERE p.id = $2 AND p.user_id = $5`

	result, err := r.db.Exec(ctx, query,
		component.ID,
		component.ProjectID,
		component.Title,
		component.CreatedAt,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to create component: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Get retrieves a component by ID, restricted to the owning user.
func (r *componentRepository) Get(ctx context.Context, id, userID uuid.UUID) (*models.Component, error) {
	query := `
		SELECT c.id, c.project_id, c.title, c.created_at
		FROM project_components c
		JOIN projects p ON p.id = c.project_id
		WHERE c.id = $1 AND p.user_id = $2`

	var component models.Component
	err := r.db.QueryRow(ctx, query, id, userID).Scan(
		&component.ID,
		&component.ProjectID,
		&component.Title,
		&component.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get component: %w", err)
	}

	return &component, nil
}

// Delete removes a component by ID, restricted to the owning user.
// Versions and chat messages are removed via CASCADE.
func (r *componentRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := `
		DELETE FROM project_components c
		USING projects p
		WHERE c.id = $1 AND p.id = c.project_id AND p.user_id = $2`

	result, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete component: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// isNoRows reports whether err is the pgx no-rows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// Ensure componentRepository implements ComponentRepository at compile time.
var _ ComponentRepository = (*componentRepository)(nil)
