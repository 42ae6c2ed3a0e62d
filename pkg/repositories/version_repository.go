package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/uiforge/uiforge-engine/pkg/database"
	"github.com/uiforge/uiforge-engine/pkg/models"
)

// VersionRepository defines the interface for component version data access.
// Versions are immutable: there are no update or single-row delete operations.
type VersionRepository interface {
	// Create inserts a new version, assigning version_number as the count of
	// the component's existing versions plus one inside a single transaction.
	Create(ctx context.Context, version *models.Version) error

	// CreateWithMessage inserts a version and an assistant chat message in
	// one transaction, so a refinement turn never persists one without the
	// other.
	CreateWithMessage(ctx context.Context, version *models.Version, message *models.ChatMessage) error
}

// versionRepository implements VersionRepository using PostgreSQL.
type versionRepository struct {
	db *database.DB
}

// NewVersionRepository creates a new version repository.
func NewVersionRepository(db *database.DB) VersionRepository {
	return &versionRepository{db: db}
}

// Create inserts a new version with a transactionally assigned number.
func (r *versionRepository) Create(ctx context.Context, version *models.Version) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return insertVersion(ctx, tx, version)
	})
}

// CreateWithMessage inserts the version and the assistant reply atomically.
func (r *versionRepository) CreateWithMessage(ctx context.Context, version *models.Version, message *models.ChatMessage) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if err := insertVersion(ctx, tx, version); err != nil {
			return err
		}
		return insertChatMessage(ctx, tx, message)
	})
}

func (r *versionRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// insertVersion assigns the next contiguous version number and inserts the
// row. The component row is locked first so concurrent inserts for the same
// component cannot observe the same count.
func insertVersion(ctx context.Context, tx pgx.Tx, version *models.Version) error {
	if version.ID == uuid.Nil {
		version.ID = uuid.New()
	}
	version.CreatedAt = time.Now()

	_, err := tx.Exec(ctx, `SELECT 1 FROM project_components WHERE id = $1 FOR UPDATE`, version.ComponentID)
	if err != nil {
		return fmt.Errorf("failed to lock component: %w", err)
	}

	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) + 1 FROM component_versions WHERE component_id = $1`,
		version.ComponentID,
	).Scan(&version.VersionNumber)
	if err != nil {
		return fmt.Errorf("failed to count versions: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO component_versions (id, component_id, version_number, prompt, generated_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		version.ID,
		version.ComponentID,
		version.VersionNumber,
		version.Prompt,
		version.GeneratedCode,
		version.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create version: %w", err)
	}

	return nil
}

// Ensure versionRepository implements VersionRepository at compile time.
var _ VersionRepository = (*versionRepository)(nil)
