package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uiforge/uiforge-engine/pkg/models"
	"github.com/uiforge/uiforge-engine/pkg/repositories"
)

// ComponentService defines the interface for component operations.
type ComponentService interface {
	// Create creates a new component under one of the user's projects.
	// Returns apperrors.ErrNotFound if the project does not exist or is
	// owned by someone else.
	Create(ctx context.Context, userID, projectID uuid.UUID, title string) (*models.Component, error)

	// Get returns the component if it belongs to one of the user's projects.
	Get(ctx context.Context, id, userID uuid.UUID) (*models.Component, error)

	// Delete removes the component and, via cascade, its versions and
	// chat messages.
	Delete(ctx context.Context, id, userID uuid.UUID) error

	// Messages returns the component's chat thread ordered oldest first.
	Messages(ctx context.Context, componentID uuid.UUID) ([]*models.ChatMessage, error)
}

// componentService implements ComponentService.
type componentService struct {
	components repositories.ComponentRepository
	messages   repositories.ChatMessageRepository
	logger     *zap.Logger
}

// NewComponentService creates a new component service.
func NewComponentService(components repositories.ComponentRepository, messages repositories.ChatMessageRepository, logger *zap.Logger) ComponentService {
	return &componentService{
		components: components,
		messages:   messages,
		logger:     logger,
	}
}

// Create creates a new component under one of the user's projects.
func (s *componentService) Create(ctx context.Context, userID, projectID uuid.UUID, title string) (*models.Component, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	component := &models.Component{
		ProjectID: projectID,
		Title:     title,
	}
	if err := s.components.Create(ctx, component, userID); err != nil {
		return nil, err
	}

	s.logger.Info("Created component",
		zap.String("component_id", component.ID.String()),
		zap.String("project_id", projectID.String()))
	return component, nil
}

// Get returns the component if it belongs to one of the user's projects.
func (s *componentService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Component, error) {
	return s.components.Get(ctx, id, userID)
}

// Delete removes the component.
func (s *componentService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.components.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.logger.Info("Deleted component",
		zap.String("component_id", id.String()),
		zap.String("user_id", userID.String()))
	return nil
}

// Messages returns the component's chat thread ordered oldest first.
func (s *componentService) Messages(ctx context.Context, componentID uuid.UUID) ([]*models.ChatMessage, error) {
	return s.messages.ListByComponent(ctx, componentID)
}

// Ensure componentService implements ComponentService at compile time.
var _ ComponentService = (*componentService)(nil)
