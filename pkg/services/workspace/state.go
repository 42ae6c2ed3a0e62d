// Package workspace maintains each user's view of the project tree and
// the selection that drives the editor: which project, component, and
// version are active, the active component's chat thread, and the
// current refinement suggestions.
package workspace

import (
	"github.com/google/uuid"

	"github.com/uiforge/uiforge-engine/pkg/apperrors"
	"github.com/uiforge/uiforge-engine/pkg/models"
)

// State is the in-memory mirror of one user's tree and selection.
// It performs no I/O; Session wraps it with persistence. All methods
// mutate in place and assume external synchronization.
type State struct {
	Projects []*models.ProjectTree `json:"projects"`

	SelectedProjectID   uuid.UUID `json:"selected_project_id"`
	SelectedComponentID uuid.UUID `json:"selected_component_id"`
	SelectedVersionID   uuid.UUID `json:"selected_version_id"`

	// Messages is the chat thread of the selected component, oldest first.
	Messages []*models.ChatMessage `json:"messages"`

	// Suggestions are the refinement follow-ups from the latest turn.
	Suggestions []string `json:"suggestions"`
}

// NewState creates an empty state.
func NewState() *State {
	return &State{}
}

// SetTree replaces the full project tree and resets the selection.
func (s *State) SetTree(projects []*models.ProjectTree) {
	s.Projects = projects
	s.clearProjectSelection()
}

// SelectProject makes the project the active one. The component and
// version selection are left as they are; highlighting a project does
// not close the component open in the editor.
func (s *State) SelectProject(id uuid.UUID) error {
	if s.findProject(id) == nil {
		return apperrors.ErrNotFound
	}
	s.SelectedProjectID = id
	return nil
}

// SelectComponent makes the component the active one, syncing the
// project selection to its parent. A version selection already pointing
// into this component is kept; otherwise the selection resolves to the
// component's most recent version, or stays empty for a component with
// no versions yet. The chat thread is cleared; callers fetch it fresh
// rather than reusing a stale one.
func (s *State) SelectComponent(id uuid.UUID) error {
	project, component := s.findComponent(id)
	if component == nil {
		return apperrors.ErrNotFound
	}

	s.SelectedProjectID = project.ID
	s.SelectedComponentID = id
	if _, owner, _ := s.findVersion(s.SelectedVersionID); owner == nil || owner.ID != id {
		s.SelectedVersionID = uuid.Nil
		if n := len(component.Versions); n > 0 {
			s.SelectedVersionID = component.Versions[n-1].ID
		}
	}
	s.Messages = nil
	s.Suggestions = nil
	return nil
}

// SelectVersion makes the version current, syncing the component and
// project selection bottom-up. Reports whether the active component
// changed, so callers know the chat thread needs a fresh fetch.
func (s *State) SelectVersion(id uuid.UUID) (componentChanged bool, err error) {
	project, component, version := s.findVersion(id)
	if version == nil {
		return false, apperrors.ErrNotFound
	}

	componentChanged = component.ID != s.SelectedComponentID
	s.SelectedProjectID = project.ID
	s.SelectedComponentID = component.ID
	s.SelectedVersionID = id
	if componentChanged {
		s.Messages = nil
		s.Suggestions = nil
	}
	return componentChanged, nil
}

// AppendProject adds a newly created project to the front of the tree,
// matching the newest-first ordering of the full fetch.
func (s *State) AppendProject(project *models.Project) {
	node := &models.ProjectTree{Project: *project}
	s.Projects = append([]*models.ProjectTree{node}, s.Projects...)
}

// AppendComponent adds a newly created component under its project.
func (s *State) AppendComponent(component *models.Component) error {
	project := s.findProject(component.ProjectID)
	if project == nil {
		return apperrors.ErrNotFound
	}
	project.Components = append(project.Components, &models.ComponentTree{Component: *component})
	return nil
}

// AppendVersion adds a newly created version under its component.
// Versions arrive in number order, so appending keeps the slice sorted.
func (s *State) AppendVersion(version *models.Version) error {
	_, component := s.findComponent(version.ComponentID)
	if component == nil {
		return apperrors.ErrNotFound
	}
	component.Versions = append(component.Versions, version)
	return nil
}

// RemoveProject prunes the project and everything beneath it. A
// component or version selection pointing into the removed project is
// cleared along with it, so nothing selected dangles.
func (s *State) RemoveProject(id uuid.UUID) {
	owner, _ := s.findComponent(s.SelectedComponentID)
	if owner != nil && owner.ID == id {
		s.clearComponentSelection()
	}
	for i, p := range s.Projects {
		if p.ID == id {
			s.Projects = append(s.Projects[:i], s.Projects[i+1:]...)
			break
		}
	}
	if s.SelectedProjectID == id {
		s.SelectedProjectID = uuid.Nil
	}
}

// RemoveComponent prunes the component and its versions. If it was
// selected, the component, version, chat, and suggestion state are
// cleared; the owning project stays selected.
func (s *State) RemoveComponent(id uuid.UUID) {
	project, _ := s.findComponent(id)
	if project == nil {
		return
	}
	for i, c := range project.Components {
		if c.ID == id {
			project.Components = append(project.Components[:i], project.Components[i+1:]...)
			break
		}
	}
	if s.SelectedComponentID == id {
		s.clearComponentSelection()
	}
}

// SetMessages replaces the chat thread.
func (s *State) SetMessages(messages []*models.ChatMessage) {
	s.Messages = messages
}

// AppendMessage appends one chat message to the thread.
func (s *State) AppendMessage(message *models.ChatMessage) {
	s.Messages = append(s.Messages, message)
}

// SetSuggestions replaces the refinement suggestion list. A nil list
// normalizes to empty.
func (s *State) SetSuggestions(suggestions []string) {
	if suggestions == nil {
		suggestions = []string{}
	}
	s.Suggestions = suggestions
}

// CurrentVersion returns the selected version, or nil when none is
// selected.
func (s *State) CurrentVersion() *models.Version {
	if s.SelectedVersionID == uuid.Nil {
		return nil
	}
	_, _, version := s.findVersion(s.SelectedVersionID)
	return version
}

// LatestVersion returns the most recent version of the given component,
// or nil when the component has none.
func (s *State) LatestVersion(componentID uuid.UUID) *models.Version {
	_, component := s.findComponent(componentID)
	if component == nil || len(component.Versions) == 0 {
		return nil
	}
	return component.Versions[len(component.Versions)-1]
}

// HasComponent reports whether the component exists in the tree.
func (s *State) HasComponent(id uuid.UUID) bool {
	_, component := s.findComponent(id)
	return component != nil
}

// Clone returns a copy safe to serialize after the caller releases its
// lock. Tree nodes are copied because their child slices grow in place;
// versions and messages are immutable once created and are shared.
func (s *State) Clone() *State {
	out := *s
	out.Projects = make([]*models.ProjectTree, len(s.Projects))
	for i, p := range s.Projects {
		pc := &models.ProjectTree{Project: p.Project}
		pc.Components = make([]*models.ComponentTree, len(p.Components))
		for j, c := range p.Components {
			cc := &models.ComponentTree{Component: c.Component}
			cc.Versions = append([]*models.Version(nil), c.Versions...)
			pc.Components[j] = cc
		}
		out.Projects[i] = pc
	}
	out.Messages = append([]*models.ChatMessage{}, s.Messages...)
	out.Suggestions = append([]string{}, s.Suggestions...)
	return &out
}

func (s *State) clearProjectSelection() {
	s.SelectedProjectID = uuid.Nil
	s.clearComponentSelection()
}

func (s *State) clearComponentSelection() {
	s.SelectedComponentID = uuid.Nil
	s.SelectedVersionID = uuid.Nil
	s.Messages = nil
	s.Suggestions = nil
}

func (s *State) findProject(id uuid.UUID) *models.ProjectTree {
	for _, p := range s.Projects {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *State) findComponent(id uuid.UUID) (*models.ProjectTree, *models.ComponentTree) {
	for _, p := range s.Projects {
		for _, c := range p.Components {
			if c.ID == id {
				return p, c
			}
		}
	}
	return nil, nil
}

func (s *State) findVersion(id uuid.UUID) (*models.ProjectTree, *models.ComponentTree, *models.Version) {
	for _, p := range s.Projects {
		for _, c := range p.Components {
			for _, v := range c.Versions {
				if v.ID == id {
					return p, c, v
				}
			}
		}
	}
	return nil, nil, nil
}
