package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/uiforge/uiforge-engine/pkg/apperrors"
	"github.com/uiforge/uiforge-engine/pkg/models"
	"github.com/uiforge/uiforge-engine/pkg/services"
)

// failingProjectService errors on every mutation.
type failingProjectService struct {
	tree []*models.ProjectTree
}

var errStorage = errors.New("storage down")

func (f *failingProjectService) Create(ctx context.Context, userID uuid.UUID, title, description string) (*models.Project, error) {
	return nil, errStorage
}

func (f *failingProjectService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return errStorage
}

func (f *failingProjectService) GetTree(ctx context.Context, userID uuid.UUID) ([]*models.ProjectTree, error) {
	return f.tree, nil
}

var _ services.ProjectService = (*failingProjectService)(nil)

func TestSession_PersistFailureLeavesMirrorUntouched(t *testing.T) {
	project := &models.ProjectTree{
		Project: models.Project{ID: uuid.New(), Title: "Keep"},
	}
	projects := &failingProjectService{tree: []*models.ProjectTree{project}}
	components := &mockComponentService{messages: make(map[uuid.UUID][]*models.ChatMessage)}

	session := NewSession(uuid.New(), projects, components)
	ctx := context.Background()
	if err := session.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, err := session.CreateProject(ctx, "New", ""); !errors.Is(err, errStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if err := session.DeleteProject(ctx, project.ID); !errors.Is(err, errStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}

	snapshot := session.Snapshot()
	if len(snapshot.Projects) != 1 || snapshot.Projects[0].ID != project.ID {
		t.Errorf("expected the mirror unchanged after failed writes, got %d projects", len(snapshot.Projects))
	}
}

func TestSession_CreateComponentRequiresProject(t *testing.T) {
	projects := &mockProjectService{}
	components := &mockComponentService{messages: make(map[uuid.UUID][]*models.ChatMessage)}

	session := NewSession(uuid.New(), projects, components)
	ctx := context.Background()
	if err := session.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, err := session.CreateComponent(ctx, uuid.Nil, "Button"); !errors.Is(err, apperrors.ErrNoProjectSelected) {
		t.Fatalf("expected ErrNoProjectSelected, got %v", err)
	}
}

func TestSession_SelectComponentFetchesThreadFresh(t *testing.T) {
	tree, component := treeWithComponent()
	stored := []*models.ChatMessage{
		{ID: uuid.New(), ComponentID: component.ID, Role: models.ChatRoleUser, Content: "hello"},
		{ID: uuid.New(), ComponentID: component.ID, Role: models.ChatRoleAssistant, Content: "hi"},
	}
	projects := &mockProjectService{tree: tree}
	components := &mockComponentService{messages: map[uuid.UUID][]*models.ChatMessage{component.ID: stored}}

	session := NewSession(uuid.New(), projects, components)
	ctx := context.Background()
	if err := session.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := session.SelectComponent(ctx, component.ID); err != nil {
		t.Fatalf("SelectComponent: %v", err)
	}

	snapshot := session.Snapshot()
	if len(snapshot.Messages) != 2 {
		t.Fatalf("expected 2 messages from the fresh fetch, got %d", len(snapshot.Messages))
	}
	if snapshot.Messages[0].Content != "hello" {
		t.Errorf("expected oldest-first ordering, got %q first", snapshot.Messages[0].Content)
	}
}
