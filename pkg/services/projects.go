// Package services contains the application services between the HTTP
// handlers and the repositories.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uiforge/uiforge-engine/pkg/models"
	"github.com/uiforge/uiforge-engine/pkg/repositories"
)

// ErrTitleRequired is returned when a project or component title is empty.
var ErrTitleRequired = errors.New("title is required")

// ProjectService defines the interface for project operations.
type ProjectService interface {
	// Create creates a new project owned by the user.
	Create(ctx context.Context, userID uuid.UUID, title, description string) (*models.Project, error)

	// Delete removes the user's project and, via cascade, its components,
	// versions, and chat messages.
	Delete(ctx context.Context, id, userID uuid.UUID) error

	// GetTree returns the user's projects with their components and
	// versions in one read.
	GetTree(ctx context.Context, userID uuid.UUID) ([]*models.ProjectTree, error)
}

// projectService implements ProjectService.
type projectService struct {
	repo   repositories.ProjectRepository
	logger *zap.Logger
}

// NewProjectService creates a new project service.
func NewProjectService(repo repositories.ProjectRepository, logger *zap.Logger) ProjectService {
	return &projectService{repo: repo, logger: logger}
}

// Create creates a new project owned by the user.
func (s *projectService) Create(ctx context.Context, userID uuid.UUID, title, description string) (*models.Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	project := &models.Project{
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(description),
	}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("Created project",
		zap.String("project_id", project.ID.String()),
		zap.String("user_id", userID.String()))
	return project, nil
}

// Delete removes the user's project.
func (s *projectService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.logger.Info("Deleted project",
		zap.String("project_id", id.String()),
		zap.String("user_id", userID.String()))
	return nil
}

// GetTree returns the user's full project tree.
func (s *projectService) GetTree(ctx context.Context, userID uuid.UUID) ([]*models.ProjectTree, error) {
	return s.repo.ListTreeByUser(ctx, userID)
}

// Ensure projectService implements ProjectService at compile time.
var _ ProjectService = (*projectService)(nil)
