package workspace

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/uiforge/uiforge-engine/pkg/apperrors"
	"github.com/uiforge/uiforge-engine/pkg/models"
	"github.com/uiforge/uiforge-engine/pkg/services"
)

// Session binds one user's State to the persistence layer. Every
// mutating operation persists first and applies to the local mirror
// only on success, so the mirror never diverges from the database.
type Session struct {
	mu     sync.Mutex
	userID uuid.UUID
	state  *State

	projects   services.ProjectService
	components services.ComponentService
}

// NewSession creates an unloaded session for the user.
func NewSession(userID uuid.UUID, projects services.ProjectService, components services.ComponentService) *Session {
	return &Session{
		userID:     userID,
		state:      NewState(),
		projects:   projects,
		components: components,
	}
}

// Load fetches the user's full tree in one read and resets the mirror.
func (s *Session) Load(ctx context.Context) error {
	tree, err := s.projects.GetTree(ctx, s.userID)
	if err != nil {
		return fmt.Errorf("failed to load workspace: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SetTree(tree)
	return nil
}

// Snapshot returns a copy of the current state for serialization.
func (s *Session) Snapshot() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// CreateProject persists a new project and selects it.
func (s *Session) CreateProject(ctx context.Context, title, description string) (*models.Project, error) {
	project, err := s.projects.Create(ctx, s.userID, title, description)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.AppendProject(project)
	_ = s.state.SelectProject(project.ID)
	return project, nil
}

// DeleteProject persists the delete, then prunes the project and its
// descendants from the mirror.
func (s *Session) DeleteProject(ctx context.Context, id uuid.UUID) error {
	if err := s.projects.Delete(ctx, id, s.userID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.RemoveProject(id)
	return nil
}

// CreateComponent persists a new component under the given project and
// selects it. A nil projectID targets the selected project.
func (s *Session) CreateComponent(ctx context.Context, projectID uuid.UUID, title string) (*models.Component, error) {
	if projectID == uuid.Nil {
		s.mu.Lock()
		projectID = s.state.SelectedProjectID
		s.mu.Unlock()
		if projectID == uuid.Nil {
			return nil, apperrors.ErrNoProjectSelected
		}
	}

	component, err := s.components.Create(ctx, s.userID, projectID, title)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.state.AppendComponent(component); err != nil {
		// The project vanished from the mirror between the persist and
		// the apply. The row exists; a reload will pick it up.
		return component, nil
	}
	_ = s.state.SelectComponent(component.ID)
	return component, nil
}

// DeleteComponent persists the delete, then prunes the component from
// the mirror.
func (s *Session) DeleteComponent(ctx context.Context, id uuid.UUID) error {
	if err := s.components.Delete(ctx, id, s.userID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.RemoveComponent(id)
	return nil
}

// SelectProject changes the active project.
func (s *Session) SelectProject(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SelectProject(id)
}

// SelectComponent changes the active component and fetches its chat
// thread fresh from the database.
func (s *Session) SelectComponent(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	if err := s.state.SelectComponent(id); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	messages, err := s.components.Messages(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load chat thread: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Apply only if the selection still points at this component.
	if s.state.SelectedComponentID == id {
		s.state.SetMessages(messages)
	}
	return nil
}

// applyMessage appends a persisted chat message to the mirror when the
// message's component is the selected one. Turns that finish after the
// user switched away skip the apply; the fresh fetch on re-select picks
// the message up.
func (s *Session) applyMessage(componentID uuid.UUID, message *models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.SelectedComponentID == componentID {
		s.state.AppendMessage(message)
	}
}

// applyVersion records a persisted version in the mirror. When the
// version's component is selected, the version becomes current; a
// refinement turn additionally appends its assistant message and
// replaces the suggestion list, while a manual save (nil assistant)
// touches neither.
func (s *Session) applyVersion(componentID uuid.UUID, version *models.Version, assistant *models.ChatMessage, actions []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.state.AppendVersion(version)
	if s.state.SelectedComponentID != componentID {
		return
	}
	s.state.SelectedVersionID = version.ID
	if assistant != nil {
		s.state.AppendMessage(assistant)
		s.state.SetSuggestions(actions)
	}
}

// latestVersion returns the component's most recent version from the
// mirror, or nil.
func (s *Session) latestVersion(componentID uuid.UUID) *models.Version {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.LatestVersion(componentID)
}

// baselineVersion returns the version a manual save is compared
// against: the currently selected version when the component is active,
// otherwise its latest stored version.
func (s *Session) baselineVersion(componentID uuid.UUID) *models.Version {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.SelectedComponentID == componentID {
		if current := s.state.CurrentVersion(); current != nil {
			return current
		}
	}
	return s.state.LatestVersion(componentID)
}

// suggestions returns the current suggestion list when the component is
// the selected one.
func (s *Session) suggestions(componentID uuid.UUID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.SelectedComponentID != componentID {
		return []string{}
	}
	return append([]string{}, s.state.Suggestions...)
}

// SelectVersion changes the current version, syncing the component and
// project selection. When that moves the selection to another
// component, its chat thread is fetched fresh.
func (s *Session) SelectVersion(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	componentChanged, err := s.state.SelectVersion(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	componentID := s.state.SelectedComponentID
	s.mu.Unlock()

	if !componentChanged {
		return nil
	}

	messages, err := s.components.Messages(ctx, componentID)
	if err != nil {
		return fmt.Errorf("failed to load chat thread: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.SelectedComponentID == componentID {
		s.state.SetMessages(messages)
	}
	return nil
}
