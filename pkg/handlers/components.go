package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uiforge/uiforge-engine/pkg/apperrors"
	"github.com/uiforge/uiforge-engine/pkg/auth"
	"github.com/uiforge/uiforge-engine/pkg/llm"
	"github.com/uiforge/uiforge-engine/pkg/models"
	"github.com/uiforge/uiforge-engine/pkg/services"
	"github.com/uiforge/uiforge-engine/pkg/services/workspace"
)

// CreateComponentRequest for POST /api/projects/{pid}/components
type CreateComponentRequest struct {
	Title string `json:"title"`
}

// GenerateRequest for POST /api/components/{cid}/generate
type GenerateRequest struct {
	Prompt      string `json:"prompt"`
	Refine      bool   `json:"refine"`
	CurrentCode string `json:"current_code,omitempty"`
}

// SaveVersionRequest for POST /api/components/{cid}/versions
type SaveVersionRequest struct {
	Label string `json:"label"`
	Code  string `json:"code"`
}

// MessagesResponse for GET /api/components/{cid}/messages
type MessagesResponse struct {
	Messages []*models.ChatMessage `json:"messages"`
	Total    int                   `json:"total"`
}

// ComponentsHandler handles component, chat, and version HTTP requests.
type ComponentsHandler struct {
	workspaces *workspace.Manager
	components services.ComponentService
	logger     *zap.Logger
}

// NewComponentsHandler creates a new components handler.
func NewComponentsHandler(workspaces *workspace.Manager, components services.ComponentService, logger *zap.Logger) *ComponentsHandler {
	return &ComponentsHandler{
		workspaces: workspaces,
		components: components,
		logger:     logger,
	}
}

// RegisterRoutes registers the components handler's routes on the given mux.
func (h *ComponentsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/projects/{pid}/components", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("DELETE /api/components/{cid}", authMiddleware.RequireAuth(h.Delete))
	mux.HandleFunc("GET /api/components/{cid}/messages", authMiddleware.RequireAuth(h.Messages))
	mux.HandleFunc("POST /api/components/{cid}/generate", authMiddleware.RequireAuth(h.Generate))
	mux.HandleFunc("POST /api/components/{cid}/versions", authMiddleware.RequireAuth(h.SaveVersion))
}

// Create handles POST /api/projects/{pid}/components
func (h *ComponentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateComponentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	session, ok := h.session(w, r, userID)
	if !ok {
		return
	}

	component, err := session.CreateComponent(r.Context(), projectID, req.Title)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTitleRequired):
			err = ErrorResponse(w, http.StatusBadRequest, "validation_error", "Title is required")
		case errors.Is(err, apperrors.ErrNotFound):
			err = ErrorResponse(w, http.StatusNotFound, "project_not_found", "Project not found")
		default:
			h.logger.Error("Failed to create component",
				zap.String("project_id", projectID.String()),
				zap.Error(err))
			err = ErrorResponse(w, http.StatusInternalServerError, "create_component_failed", "Could not create component")
		}
		if err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, component); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/components/{cid}
func (h *ComponentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}
	componentID, ok := ParseComponentID(w, r, h.logger)
	if !ok {
		return
	}

	session, ok := h.session(w, r, userID)
	if !ok {
		return
	}

	if err := session.DeleteComponent(r.Context(), componentID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "component_not_found", "Component not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to delete component",
			zap.String("component_id", componentID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "delete_component_failed", "Could not delete component"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Messages handles GET /api/components/{cid}/messages
// Returns the component's chat thread ordered oldest first.
func (h *ComponentsHandler) Messages(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}
	componentID, ok := ParseComponentID(w, r, h.logger)
	if !ok {
		return
	}

	if _, err := h.components.Get(r.Context(), componentID, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "component_not_found", "Component not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to load component", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "list_messages_failed", "Could not load messages"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	messages, err := h.components.Messages(r.Context(), componentID)
	if err != nil {
		h.logger.Error("Failed to list messages",
			zap.String("component_id", componentID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "list_messages_failed", "Could not load messages"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := MessagesResponse{Messages: messages, Total: len(messages)}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Generate handles POST /api/components/{cid}/generate
// Runs one refinement turn against the component.
func (h *ComponentsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}
	componentID, ok := ParseComponentID(w, r, h.logger)
	if !ok {
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", "Prompt is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	result, err := h.workspaces.Refine(r.Context(), userID, componentID, req.Prompt, req.Refine, req.CurrentCode)
	if err != nil {
		h.handleTurnError(w, componentID, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// SaveVersion handles POST /api/components/{cid}/versions
// Records the current code buffer as a manually labeled version.
func (h *ComponentsHandler) SaveVersion(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}
	componentID, ok := ParseComponentID(w, r, h.logger)
	if !ok {
		return
	}

	var req SaveVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	version, err := h.workspaces.SaveVersion(r.Context(), userID, componentID, req.Label, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrEmptySaveLabel):
			err = ErrorResponse(w, http.StatusUnprocessableEntity, "empty_save_label", "A label is required to save a version")
		case errors.Is(err, apperrors.ErrUnchangedCode):
			err = ErrorResponse(w, http.StatusUnprocessableEntity, "unchanged_code", "The code is identical to the current version")
		case errors.Is(err, apperrors.ErrNotFound):
			err = ErrorResponse(w, http.StatusNotFound, "component_not_found", "Component not found")
		default:
			h.logger.Error("Failed to save version",
				zap.String("component_id", componentID.String()),
				zap.Error(err))
			err = ErrorResponse(w, http.StatusInternalServerError, "save_version_failed", "Could not save version")
		}
		if err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, version); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// handleTurnError maps refinement turn failures to HTTP responses.
func (h *ComponentsHandler) handleTurnError(w http.ResponseWriter, componentID uuid.UUID, err error) {
	var werr error
	switch {
	case errors.Is(err, apperrors.ErrGenerationInFlight):
		werr = ErrorResponse(w, http.StatusConflict, "generation_in_flight", "A generation is already running for this component")
	case errors.Is(err, apperrors.ErrNotFound):
		werr = ErrorResponse(w, http.StatusNotFound, "component_not_found", "Component not found")
	case errors.Is(err, apperrors.ErrMalformedGenerationResponse):
		h.logger.Error("Gateway returned a malformed response",
			zap.String("component_id", componentID.String()),
			zap.Error(err))
		werr = ErrorResponse(w, http.StatusBadGateway, "malformed_generation_response", "The generation service returned an unusable response")
	case llm.IsProviderError(err):
		h.logger.Error("Generation provider failed",
			zap.String("component_id", componentID.String()),
			zap.Error(err))
		werr = ErrorResponse(w, http.StatusBadGateway, "generation_failed", "The generation service is unavailable")
	default:
		h.logger.Error("Refinement turn failed",
			zap.String("component_id", componentID.String()),
			zap.Error(err))
		werr = ErrorResponse(w, http.StatusInternalServerError, "generation_failed", "Could not complete the generation")
	}
	if werr != nil {
		h.logger.Error("Failed to write error response", zap.Error(werr))
	}
}

// session loads the user's workspace session, writing a 500 on failure.
func (h *ComponentsHandler) session(w http.ResponseWriter, r *http.Request, userID uuid.UUID) (*workspace.Session, bool) {
	session, err := h.workspaces.SessionFor(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load workspace", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "load_workspace_failed", "Could not load workspace"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return nil, false
	}
	return session, true
}
