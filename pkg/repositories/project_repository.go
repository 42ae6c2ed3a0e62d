package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/uiforge/uiforge-engine/pkg/apperrors"
	"github.com/uiforge/uiforge-engine/pkg/database"
	"github.com/uiforge/uiforge-engine/pkg/models"
)

// ProjectRepository defines the interface for project data access.
// All reads and deletes are scoped to the owning user.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	Get(ctx context.Context, id, userID uuid.UUID) (*models.Project, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	// ListTreeByUser returns the user's projects joined with their components
	// and those components' versions, for the initial full-tree load.
	ListTreeByUser(ctx context.Context, userID uuid.UUID) ([]*models.ProjectTree, error)
}

// projectRepository implements ProjectRepository using PostgreSQL.
type projectRepository struct {
	db *database.DB
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *database.DB) ProjectRepository {
	return &projectRepository{db: db}
}

// Create inserts a new project.
func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	project.CreatedAt = time.Now()

	query := `
		INSERT INTO projects (id, user_id, title, description, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		project.ID,
		project.UserID,
		project.Title,
		nullable(project.Description),
		project.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// Get retrieves a project by ID, restricted to the owning user.
func (r *projectRepository) Get(ctx context.Context, id, userID uuid.UUID) (*models.Project, error) {
	query := `
		SELECT id, user_id, title, COALESCE(description, ''), created_at
		FROM projects
		WHERE id = $1 AND user_id = $2`

	var project models.Project
	err := r.db.QueryRow(ctx, query, id, userID).Scan(
		&project.ID,
		&project.UserID,
		&project.Title,
		&project.Description,
		&project.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &project, nil
}

// Delete removes a project by ID, restricted to the owning user.
// Components, versions and chat messages are removed via CASCADE.
func (r *projectRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListTreeByUser loads the whole project tree for a user in three queries,
// newest projects first to match the original listing order.
func (r *projectRepository) ListTreeByUser(ctx context.Context, userID uuid.UUID) ([]*models.ProjectTree, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, title, COALESCE(description, ''), created_at
		FROM projects
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var tree []*models.ProjectTree
	byProject := make(map[uuid.UUID]*models.ProjectTree)
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		node := &models.ProjectTree{Project: p, Components: []*models.ComponentTree{}}
		tree = append(tree, node)
		byProject[p.ID] = node
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}

	byComponent := make(map[uuid.UUID]*models.ComponentTree)
	crows, err := r.db.Query(ctx, `
		SELECT c.id, c.project_id, c.title, c.created_at
		FROM project_components c
		JOIN projects p ON p.id = c.project_id
		WHERE p.user_id = $1
		ORDER BY c.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list components: %w", err)
	}
	defer crows.Close()

	for crows.Next() {
		var c models.Component
		if err := crows.Scan(&c.ID, &c.ProjectID, &c.Title, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan component: %w", err)
		}
		node := &models.ComponentTree{Component: c, Versions: []*models.Version{}}
		byComponent[c.ID] = node
		if parent, ok := byProject[c.ProjectID]; ok {
			parent.Components = append(parent.Components, node)
		}
	}
	if err := crows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate components: %w", err)
	}

	vrows, err := r.db.Query(ctx, `
		SELECT v.id, v.component_id, v.version_number, v.prompt, v.generated_code, v.created_at
		FROM component_versions v
		JOIN project_components c ON c.id = v.component_id
		JOIN projects p ON p.id = c.project_id
		WHERE p.user_id = $1
		ORDER BY v.component_id, v.version_number`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer vrows.Close()

	for vrows.Next() {
		var v models.Version
		if err := vrows.Scan(&v.ID, &v.ComponentID, &v.VersionNumber, &v.Prompt, &v.GeneratedCode, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		if parent, ok := byComponent[v.ComponentID]; ok {
			parent.Versions = append(parent.Versions, &v)
		}
	}
	if err := vrows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate versions: %w", err)
	}

	return tree, nil
}

// Ensure projectRepository implements ProjectRepository at compile time.
var _ ProjectRepository = (*projectRepository)(nil)
