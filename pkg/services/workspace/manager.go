package workspace

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uiforge/uiforge-engine/pkg/apperrors"
	"github.com/uiforge/uiforge-engine/pkg/metrics"
	"github.com/uiforge/uiforge-engine/pkg/models"
	"github.com/uiforge/uiforge-engine/pkg/repositories"
	"github.com/uiforge/uiforge-engine/pkg/services"
)

// NoChangeNotice is the assistant message recorded when the gateway
// judged a refinement request to have produced no real modification.
const NoChangeNotice = "No changes were applied to the component."

// TurnResult is the outcome of one refinement turn.
type TurnResult struct {
	Changed     bool                `json:"changed"`
	Version     *models.Version     `json:"version,omitempty"`
	Message     *models.ChatMessage `json:"message"`
	Suggestions []string            `json:"suggestions"`
}

// Manager owns the per-user sessions and runs refinement turns against
// them. Generation is latched per component, not globally, so a long
// turn on one component never blocks work on another.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	inFlight map[uuid.UUID]struct{}

	projects   services.ProjectService
	components services.ComponentService
	generator  services.GenerationService
	versions   repositories.VersionRepository
	chat       repositories.ChatMessageRepository
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewManager creates a workspace manager.
func NewManager(
	projects services.ProjectService,
	components services.ComponentService,
	generator services.GenerationService,
	versions repositories.VersionRepository,
	chat repositories.ChatMessageRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		sessions:   make(map[uuid.UUID]*Session),
		inFlight:   make(map[uuid.UUID]struct{}),
		projects:   projects,
		components: components,
		generator:  generator,
		versions:   versions,
		chat:       chat,
		metrics:    m,
		logger:     logger.Named("workspace"),
	}
}

// SessionFor returns the user's session, loading the tree from the
// database on first access.
func (m *Manager) SessionFor(ctx context.Context, userID uuid.UUID) (*Session, error) {
	m.mu.Lock()
	session, ok := m.sessions[userID]
	if !ok {
		session = NewSession(userID, m.projects, m.components)
		m.sessions[userID] = session
	}
	m.mu.Unlock()

	if !ok {
		if err := session.Load(ctx); err != nil {
			m.mu.Lock()
			delete(m.sessions, userID)
			m.mu.Unlock()
			return nil, err
		}
	}
	return session, nil
}

// EndSession discards the user's in-memory session, forcing a fresh
// tree load on next access. Called on sign-out.
func (m *Manager) EndSession(userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// tryAcquire latches the component for generation. Returns false when a
// turn is already running for it.
func (m *Manager) tryAcquire(componentID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inFlight[componentID]; busy {
		return false
	}
	m.inFlight[componentID] = struct{}{}
	return true
}

func (m *Manager) release(componentID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, componentID)
}

// Refine runs one refinement turn for the component: persist the user
// message, call the generation gateway, and either record a new version
// with its assistant message (changed) or just the fixed notice
// (unchanged). The latch is released on every exit path. A finished
// turn applies to the component it started on, even if the user
// switched selection while it ran.
func (m *Manager) Refine(ctx context.Context, userID, componentID uuid.UUID, prompt string, refine bool, currentCode string) (*TurnResult, error) {
	session, err := m.SessionFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	componentID, err = m.resolveComponent(session, componentID)
	if err != nil {
		return nil, err
	}

	if !m.tryAcquire(componentID) {
		return nil, apperrors.ErrGenerationInFlight
	}
	defer m.release(componentID)

	start := time.Now()

	userMessage := &models.ChatMessage{
		ComponentID: componentID,
		Role:        models.ChatRoleUser,
		Content:     prompt,
	}
	if err := m.chat.Create(ctx, userMessage); err != nil {
		return nil, err
	}
	session.applyMessage(componentID, userMessage)

	existingCode := ""
	if refine {
		existingCode = currentCode
		if existingCode == "" {
			// Client sent no buffer; refine against the latest stored code.
			if latest := session.latestVersion(componentID); latest != nil {
				existingCode = latest.GeneratedCode
			}
		}
	}

	result, err := m.generator.Generate(ctx, prompt, existingCode)
	if err != nil {
		m.metrics.ObserveGenerationTurn(metrics.OutcomeError, time.Since(start))
		return nil, err
	}

	if !result.Changed {
		assistant := &models.ChatMessage{
			ComponentID: componentID,
			Role:        models.ChatRoleAssistant,
			Content:     NoChangeNotice,
		}
		if err := m.chat.Create(ctx, assistant); err != nil {
			return nil, err
		}
		session.applyMessage(componentID, assistant)

		m.metrics.ObserveGenerationTurn(metrics.OutcomeUnchanged, time.Since(start))
		m.logger.Info("Refinement turn produced no change",
			zap.String("component_id", componentID.String()))
		return &TurnResult{Changed: false, Message: assistant, Suggestions: session.suggestions(componentID)}, nil
	}

	version := &models.Version{
		ComponentID:   componentID,
		Prompt:        prompt,
		GeneratedCode: result.Code,
	}
	assistant := &models.ChatMessage{
		ComponentID: componentID,
		Role:        models.ChatRoleAssistant,
		Content:     assistantText(refine, prompt),
	}
	if err := m.versions.CreateWithMessage(ctx, version, assistant); err != nil {
		return nil, err
	}
	session.applyVersion(componentID, version, assistant, result.Actions)

	if m.metrics != nil {
		m.metrics.VersionsCreatedTotal.Inc()
	}
	m.metrics.ObserveGenerationTurn(metrics.OutcomeChanged, time.Since(start))
	m.logger.Info("Refinement turn created version",
		zap.String("component_id", componentID.String()),
		zap.Int("version_number", version.VersionNumber))

	return &TurnResult{
		Changed:     true,
		Version:     version,
		Message:     assistant,
		Suggestions: append([]string{}, result.Actions...),
	}, nil
}

// SaveVersion records the current code buffer as a named version. The
// label is required and the code must differ from the component's
// current version; both checks run before any persistence call.
func (m *Manager) SaveVersion(ctx context.Context, userID, componentID uuid.UUID, label, code string) (*models.Version, error) {
	session, err := m.SessionFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	componentID, err = m.resolveComponent(session, componentID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(label) == "" {
		return nil, apperrors.ErrEmptySaveLabel
	}
	if current := session.baselineVersion(componentID); current != nil && current.GeneratedCode == code {
		return nil, apperrors.ErrUnchangedCode
	}

	version := &models.Version{
		ComponentID:   componentID,
		Prompt:        label,
		GeneratedCode: code,
	}
	if err := m.versions.Create(ctx, version); err != nil {
		return nil, err
	}
	session.applyVersion(componentID, version, nil, nil)

	if m.metrics != nil {
		m.metrics.VersionsCreatedTotal.Inc()
	}
	m.logger.Info("Saved manual version",
		zap.String("component_id", componentID.String()),
		zap.Int("version_number", version.VersionNumber))
	return version, nil
}

// resolveComponent defaults a nil component ID to the session's
// selection and verifies the component exists in the user's tree.
func (m *Manager) resolveComponent(session *Session, componentID uuid.UUID) (uuid.UUID, error) {
	session.mu.Lock()
	defer session.mu.Unlock()

	if componentID == uuid.Nil {
		componentID = session.state.SelectedComponentID
		if componentID == uuid.Nil {
			return uuid.Nil, apperrors.ErrNoComponentSelected
		}
	}
	if !session.state.HasComponent(componentID) {
		return uuid.Nil, apperrors.ErrNotFound
	}
	return componentID, nil
}

// assistantText is the assistant reply template. Wording depends on
// whether the turn refined existing code or generated from scratch.
func assistantText(refine bool, prompt string) string {
	if refine {
		return fmt.Sprintf("I've updated the component based on your request: %q", prompt)
	}
	return fmt.Sprintf("I've generated a new component based on your prompt: %q", prompt)
}
