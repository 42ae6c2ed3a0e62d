package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uiforge/uiforge-engine/pkg/apperrors"
	"github.com/uiforge/uiforge-engine/pkg/llm"
	"github.com/uiforge/uiforge-engine/pkg/models"
)

// ============================================================================
// Mocks
// ============================================================================

type mockProjectService struct {
	mu      sync.Mutex
	tree    []*models.ProjectTree
	created []*models.Project
	deleted []uuid.UUID
}

func (m *mockProjectService) Create(ctx context.Context, userID uuid.UUID, title, description string) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	project := &models.Project{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: description,
		CreatedAt:   time.Now(),
	}
	m.created = append(m.created, project)
	return project, nil
}

func (m *mockProjectService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockProjectService) GetTree(ctx context.Context, userID uuid.UUID) ([]*models.ProjectTree, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tree, nil
}

type mockComponentService struct {
	mu       sync.Mutex
	messages map[uuid.UUID][]*models.ChatMessage
	deleted  []uuid.UUID
}

func (m *mockComponentService) Create(ctx context.Context, userID, projectID uuid.UUID, title string) (*models.Component, error) {
	return &models.Component{
		ID:        uuid.New(),
		ProjectID: projectID,
		Title:     title,
		CreatedAt: time.Now(),
	}, nil
}

func (m *mockComponentService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Component, error) {
	return nil, apperrors.ErrNotFound
}

func (m *mockComponentService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockComponentService) Messages(ctx context.Context, componentID uuid.UUID) ([]*models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.messages[componentID], nil
}

type mockGenerator struct {
	mu               sync.Mutex
	GenerateFunc     func(ctx context.Context, prompt, existingCode string) (*llm.GenerationResult, error)
	calls            int
	lastPrompt       string
	lastExistingCode string
}

func (m *mockGenerator) Generate(ctx context.Context, prompt, existingCode string) (*llm.GenerationResult, error) {
	m.mu.Lock()
	m.calls++
	m.lastPrompt = prompt
	m.lastExistingCode = existingCode
	fn := m.GenerateFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, prompt, existingCode)
	}
	return &llm.GenerationResult{Code: "<div/>", Changed: true, Actions: []string{}}, nil
}

type mockVersionRepo struct {
	mu       sync.Mutex
	versions map[uuid.UUID][]*models.Version
}

func newMockVersionRepo() *mockVersionRepo {
	return &mockVersionRepo{versions: make(map[uuid.UUID][]*models.Version)}
}

func (m *mockVersionRepo) Create(ctx context.Context, version *models.Version) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	version.ID = uuid.New()
	version.VersionNumber = len(m.versions[version.ComponentID]) + 1
	version.CreatedAt = time.Now()
	m.versions[version.ComponentID] = append(m.versions[version.ComponentID], version)
	return nil
}

func (m *mockVersionRepo) CreateWithMessage(ctx context.Context, version *models.Version, message *models.ChatMessage) error {
	if err := m.Create(ctx, version); err != nil {
		return err
	}
	message.ID = uuid.New()
	message.CreatedAt = time.Now()
	return nil
}

func (m *mockVersionRepo) count(componentID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.versions[componentID])
}

type mockChatRepo struct {
	mu      sync.Mutex
	created []*models.ChatMessage
}

func (m *mockChatRepo) Create(ctx context.Context, message *models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	message.ID = uuid.New()
	message.CreatedAt = time.Now()
	m.created = append(m.created, message)
	return nil
}

func (m *mockChatRepo) ListByComponent(ctx context.Context, componentID uuid.UUID) ([]*models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ChatMessage
	for _, msg := range m.created {
		if msg.ComponentID == componentID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *mockChatRepo) last() *models.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.created) == 0 {
		return nil
	}
	return m.created[len(m.created)-1]
}

// ============================================================================
// Fixtures
// ============================================================================

type fixture struct {
	manager   *Manager
	projects  *mockProjectService
	generator *mockGenerator
	versions  *mockVersionRepo
	chat      *mockChatRepo
	userID    uuid.UUID
}

func newFixture(tree []*models.ProjectTree) *fixture {
	projects := &mockProjectService{tree: tree}
	components := &mockComponentService{messages: make(map[uuid.UUID][]*models.ChatMessage)}
	generator := &mockGenerator{}
	versions := newMockVersionRepo()
	chat := &mockChatRepo{}

	manager := NewManager(projects, components, generator, versions, chat, nil, zap.NewNop())
	return &fixture{
		manager:   manager,
		projects:  projects,
		generator: generator,
		versions:  versions,
		chat:      chat,
		userID:    uuid.New(),
	}
}

func treeWithComponent() ([]*models.ProjectTree, *models.ComponentTree) {
	component := &models.ComponentTree{
		Component: models.Component{ID: uuid.New(), Title: "Button"},
	}
	project := &models.ProjectTree{
		Project:    models.Project{ID: uuid.New(), Title: "Demo"},
		Components: []*models.ComponentTree{component},
	}
	component.ProjectID = project.ID
	return []*models.ProjectTree{project}, component
}

// ============================================================================
// Refinement turn
// ============================================================================

func TestRefine_ChangedCreatesVersionAndSelects(t *testing.T) {
	tree, component := treeWithComponent()
	f := newFixture(tree)
	ctx := context.Background()

	session, err := f.manager.SessionFor(ctx, f.userID)
	if err != nil {
		t.Fatalf("SessionFor: %v", err)
	}
	if err := session.SelectComponent(ctx, component.ID); err != nil {
		t.Fatalf("SelectComponent: %v", err)
	}

	f.generator.GenerateFunc = func(ctx context.Context, prompt, existingCode string) (*llm.GenerationResult, error) {
		return &llm.GenerationResult{Code: "<button/>", Changed: true, Actions: []string{"add icon"}}, nil
	}

	result, err := f.manager.Refine(ctx, f.userID, component.ID, "make a red button", false, "")
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}

	if !result.Changed {
		t.Error("expected a changed turn")
	}
	if result.Version == nil || result.Version.VersionNumber != 1 {
		t.Fatalf("expected version number 1, got %+v", result.Version)
	}
	if result.Version.Prompt != "make a red button" {
		t.Errorf("expected prompt stored on the version, got %q", result.Version.Prompt)
	}
	if result.Version.GeneratedCode != "<button/>" {
		t.Errorf("expected generated code stored, got %q", result.Version.GeneratedCode)
	}
	if len(result.Suggestions) != 1 || result.Suggestions[0] != "add icon" {
		t.Errorf("expected suggestions [add icon], got %v", result.Suggestions)
	}

	want := `I've generated a new component based on your prompt: "make a red button"`
	if result.Message.Content != want {
		t.Errorf("expected assistant message %q, got %q", want, result.Message.Content)
	}

	snapshot := session.Snapshot()
	if snapshot.SelectedVersionID != result.Version.ID {
		t.Error("expected the new version to become current")
	}
	if len(snapshot.Suggestions) != 1 || snapshot.Suggestions[0] != "add icon" {
		t.Errorf("expected snapshot suggestions [add icon], got %v", snapshot.Suggestions)
	}
	if len(snapshot.Messages) != 2 {
		t.Fatalf("expected user and assistant messages in thread, got %d", len(snapshot.Messages))
	}
	if snapshot.Messages[0].Role != models.ChatRoleUser || snapshot.Messages[0].Content != "make a red button" {
		t.Errorf("unexpected user message: %+v", snapshot.Messages[0])
	}
	if snapshot.Messages[1].Role != models.ChatRoleAssistant {
		t.Errorf("unexpected assistant message: %+v", snapshot.Messages[1])
	}
}

func TestRefine_UnchangedAppendsNoticeOnly(t *testing.T) {
	tree, component := treeWithComponent()
	f := newFixture(tree)
	ctx := context.Background()

	session, err := f.manager.SessionFor(ctx, f.userID)
	if err != nil {
		t.Fatalf("SessionFor: %v", err)
	}
	if err := session.SelectComponent(ctx, component.ID); err != nil {
		t.Fatalf("SelectComponent: %v", err)
	}

	f.generator.GenerateFunc = func(ctx context.Context, prompt, existingCode string) (*llm.GenerationResult, error) {
		return &llm.GenerationResult{Code: "", Changed: false, Actions: []string{}}, nil
	}

	result, err := f.manager.Refine(ctx, f.userID, component.ID, "keep it", true, "<button/>")
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}

	if result.Changed {
		t.Error("expected an unchanged turn")
	}
	if result.Version != nil {
		t.Error("expected no version for an unchanged turn")
	}
	if f.versions.count(component.ID) != 0 {
		t.Errorf("expected version list unchanged, got %d", f.versions.count(component.ID))
	}
	if result.Message.Content != NoChangeNotice {
		t.Errorf("expected the fixed no-change notice, got %q", result.Message.Content)
	}

	snapshot := session.Snapshot()
	if len(snapshot.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(snapshot.Messages))
	}
	if snapshot.Messages[1].Content != NoChangeNotice {
		t.Errorf("expected last message to be the notice, got %q", snapshot.Messages[1].Content)
	}
}

func TestRefine_UpdateTemplateAndExistingCode(t *testing.T) {
	tree, component := treeWithComponent()
	f := newFixture(tree)
	ctx := context.Background()

	f.generator.GenerateFunc = func(ctx context.Context, prompt, existingCode string) (*llm.GenerationResult, error) {
		return &llm.GenerationResult{Code: "<button class=\"red\"/>", Changed: true, Actions: []string{}}, nil
	}

	result, err := f.manager.Refine(ctx, f.userID, component.ID, "make it red", true, "<button/>")
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}

	want := `I've updated the component based on your request: "make it red"`
	if result.Message.Content != want {
		t.Errorf("expected assistant message %q, got %q", want, result.Message.Content)
	}
	if f.generator.lastExistingCode != "<button/>" {
		t.Errorf("expected gateway to receive the live code buffer, got %q", f.generator.lastExistingCode)
	}
}

func TestRefine_LatchIsPerComponent(t *testing.T) {
	componentA := &models.ComponentTree{Component: models.Component{ID: uuid.New(), Title: "A"}}
	componentB := &models.ComponentTree{Component: models.Component{ID: uuid.New(), Title: "B"}}
	project := &models.ProjectTree{
		Project:    models.Project{ID: uuid.New(), Title: "Demo"},
		Components: []*models.ComponentTree{componentA, componentB},
	}
	componentA.ProjectID = project.ID
	componentB.ProjectID = project.ID

	f := newFixture([]*models.ProjectTree{project})
	ctx := context.Background()

	started := make(chan struct{})
	unblock := make(chan struct{})
	f.generator.GenerateFunc = func(ctx context.Context, prompt, existingCode string) (*llm.GenerationResult, error) {
		close(started)
		<-unblock
		return &llm.GenerationResult{Code: "<a/>", Changed: true, Actions: []string{}}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.manager.Refine(ctx, f.userID, componentA.ID, "slow", false, "")
		done <- err
	}()
	<-started

	// Same component: rejected while the first turn runs.
	if _, err := f.manager.Refine(ctx, f.userID, componentA.ID, "second", false, ""); !errors.Is(err, apperrors.ErrGenerationInFlight) {
		t.Errorf("expected ErrGenerationInFlight, got %v", err)
	}

	// Another component: allowed.
	f.generator.mu.Lock()
	f.generator.GenerateFunc = func(ctx context.Context, prompt, existingCode string) (*llm.GenerationResult, error) {
		return &llm.GenerationResult{Code: "<b/>", Changed: true, Actions: []string{}}, nil
	}
	f.generator.mu.Unlock()
	if _, err := f.manager.Refine(ctx, f.userID, componentB.ID, "other", false, ""); err != nil {
		t.Errorf("expected other component to proceed, got %v", err)
	}

	close(unblock)
	if err := <-done; err != nil {
		t.Errorf("expected first turn to finish, got %v", err)
	}
}

func TestRefine_ReleasesLatchOnGatewayError(t *testing.T) {
	tree, component := treeWithComponent()
	f := newFixture(tree)
	ctx := context.Background()

	f.generator.GenerateFunc = func(ctx context.Context, prompt, existingCode string) (*llm.GenerationResult, error) {
		return nil, fmt.Errorf("parse generation response: %w", apperrors.ErrMalformedGenerationResponse)
	}

	if _, err := f.manager.Refine(ctx, f.userID, component.ID, "boom", false, ""); !errors.Is(err, apperrors.ErrMalformedGenerationResponse) {
		t.Fatalf("expected malformed response error, got %v", err)
	}

	// The latch must be free for the next attempt.
	f.generator.GenerateFunc = nil
	if _, err := f.manager.Refine(ctx, f.userID, component.ID, "again", false, ""); err != nil {
		t.Errorf("expected retry to proceed after failure, got %v", err)
	}
}

func TestRefine_UnknownComponent(t *testing.T) {
	tree, _ := treeWithComponent()
	f := newFixture(tree)

	_, err := f.manager.Refine(context.Background(), f.userID, uuid.New(), "prompt", false, "")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRefine_FinishedTurnDoesNotMoveSelection(t *testing.T) {
	componentA := &models.ComponentTree{Component: models.Component{ID: uuid.New(), Title: "A"}}
	componentB := &models.ComponentTree{Component: models.Component{ID: uuid.New(), Title: "B"}}
	project := &models.ProjectTree{
		Project:    models.Project{ID: uuid.New(), Title: "Demo"},
		Components: []*models.ComponentTree{componentA, componentB},
	}
	componentA.ProjectID = project.ID
	componentB.ProjectID = project.ID

	f := newFixture([]*models.ProjectTree{project})
	ctx := context.Background()

	session, err := f.manager.SessionFor(ctx, f.userID)
	if err != nil {
		t.Fatalf("SessionFor: %v", err)
	}
	if err := session.SelectComponent(ctx, componentB.ID); err != nil {
		t.Fatalf("SelectComponent: %v", err)
	}

	// The turn runs against A while B is selected.
	result, err := f.manager.Refine(ctx, f.userID, componentA.ID, "prompt", false, "")
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}

	snapshot := session.Snapshot()
	if snapshot.SelectedComponentID != componentB.ID {
		t.Error("expected selection to stay on the other component")
	}
	if snapshot.SelectedVersionID == result.Version.ID {
		t.Error("expected the new version not to become current for another component")
	}
	if len(snapshot.Messages) != 0 {
		t.Errorf("expected the selected component's thread untouched, got %d messages", len(snapshot.Messages))
	}

	// The version still landed on A in the tree.
	if snapshot.Projects[0].Components[0].Versions[0].ID != result.Version.ID {
		t.Error("expected the version recorded under the component the turn ran on")
	}
}

// ============================================================================
// Manual save
// ============================================================================

func TestSaveVersion_RejectsEmptyLabel(t *testing.T) {
	tree, component := treeWithComponent()
	f := newFixture(tree)

	_, err := f.manager.SaveVersion(context.Background(), f.userID, component.ID, "   ", "<div/>")
	if !errors.Is(err, apperrors.ErrEmptySaveLabel) {
		t.Errorf("expected ErrEmptySaveLabel, got %v", err)
	}
	if f.versions.count(component.ID) != 0 {
		t.Error("expected no persistence call for a rejected save")
	}
}

func TestSaveVersion_RejectsUnchangedCode(t *testing.T) {
	tree, component := treeWithComponent()
	f := newFixture(tree)
	ctx := context.Background()

	session, err := f.manager.SessionFor(ctx, f.userID)
	if err != nil {
		t.Fatalf("SessionFor: %v", err)
	}
	if err := session.SelectComponent(ctx, component.ID); err != nil {
		t.Fatalf("SelectComponent: %v", err)
	}

	if _, err := f.manager.SaveVersion(ctx, f.userID, component.ID, "first", "<div/>"); err != nil {
		t.Fatalf("SaveVersion: %v", err)
	}
	if _, err := f.manager.SaveVersion(ctx, f.userID, component.ID, "dup", "<div/>"); !errors.Is(err, apperrors.ErrUnchangedCode) {
		t.Errorf("expected ErrUnchangedCode, got %v", err)
	}
	if f.versions.count(component.ID) != 1 {
		t.Errorf("expected exactly one stored version, got %d", f.versions.count(component.ID))
	}
}

func TestSaveVersion_SelectsNewVersionWithoutTouchingChat(t *testing.T) {
	tree, component := treeWithComponent()
	f := newFixture(tree)
	ctx := context.Background()

	session, err := f.manager.SessionFor(ctx, f.userID)
	if err != nil {
		t.Fatalf("SessionFor: %v", err)
	}
	if err := session.SelectComponent(ctx, component.ID); err != nil {
		t.Fatalf("SelectComponent: %v", err)
	}

	version, err := f.manager.SaveVersion(ctx, f.userID, component.ID, "checkpoint", "<div/>")
	if err != nil {
		t.Fatalf("SaveVersion: %v", err)
	}

	if version.VersionNumber != 1 {
		t.Errorf("expected version number 1, got %d", version.VersionNumber)
	}
	if version.Prompt != "checkpoint" {
		t.Errorf("expected label stored as the prompt, got %q", version.Prompt)
	}

	snapshot := session.Snapshot()
	if snapshot.SelectedVersionID != version.ID {
		t.Error("expected the saved version to become current")
	}
	if len(snapshot.Messages) != 0 {
		t.Error("expected the chat thread untouched by a manual save")
	}
	if f.chat.last() != nil {
		t.Error("expected no chat message persisted by a manual save")
	}
}

// ============================================================================
// End to end
// ============================================================================

func TestWorkspace_EndToEndScenario(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	session, err := f.manager.SessionFor(ctx, f.userID)
	if err != nil {
		t.Fatalf("SessionFor: %v", err)
	}

	project, err := session.CreateProject(ctx, "Demo", "")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	component, err := session.CreateComponent(ctx, project.ID, "Button")
	if err != nil {
		t.Fatalf("CreateComponent: %v", err)
	}

	f.generator.GenerateFunc = func(ctx context.Context, prompt, existingCode string) (*llm.GenerationResult, error) {
		return &llm.GenerationResult{Code: "<button/>", Changed: true, Actions: []string{"add icon"}}, nil
	}

	result, err := f.manager.Refine(ctx, f.userID, component.ID, "make a red button", false, "")
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}

	if f.versions.count(component.ID) != 1 {
		t.Fatalf("expected exactly one version, got %d", f.versions.count(component.ID))
	}
	if result.Version.VersionNumber != 1 ||
		result.Version.Prompt != "make a red button" ||
		result.Version.GeneratedCode != "<button/>" {
		t.Errorf("unexpected version: %+v", result.Version)
	}

	snapshot := session.Snapshot()
	if snapshot.SelectedProjectID != project.ID || snapshot.SelectedComponentID != component.ID {
		t.Error("expected the created project and component to be selected")
	}
	if snapshot.SelectedVersionID != result.Version.ID {
		t.Error("expected the generated version to be current")
	}
	if len(snapshot.Suggestions) != 1 || snapshot.Suggestions[0] != "add icon" {
		t.Errorf("expected suggestions [add icon], got %v", snapshot.Suggestions)
	}
}
