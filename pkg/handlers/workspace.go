package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uiforge/uiforge-engine/pkg/apperrors"
	"github.com/uiforge/uiforge-engine/pkg/auth"
	"github.com/uiforge/uiforge-engine/pkg/services/workspace"
)

// SelectRequest for POST /api/workspace/select
// Exactly one of the fields must be set.
type SelectRequest struct {
	ProjectID   *uuid.UUID `json:"project_id,omitempty"`
	ComponentID *uuid.UUID `json:"component_id,omitempty"`
	VersionID   *uuid.UUID `json:"version_id,omitempty"`
}

// WorkspaceHandler serves the workspace snapshot and selection changes.
type WorkspaceHandler struct {
	workspaces *workspace.Manager
	logger     *zap.Logger
}

// NewWorkspaceHandler creates a new workspace handler.
func NewWorkspaceHandler(workspaces *workspace.Manager, logger *zap.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{workspaces: workspaces, logger: logger}
}

// RegisterRoutes registers the workspace handler's routes on the given mux.
func (h *WorkspaceHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/workspace", authMiddleware.RequireAuth(h.Snapshot))
	mux.HandleFunc("POST /api/workspace/select", authMiddleware.RequireAuth(h.Select))
}

// Snapshot handles GET /api/workspace
// Returns the tree, selection, chat thread, and suggestions in one shot.
func (h *WorkspaceHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	session, err := h.workspaces.SessionFor(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load workspace", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "load_workspace_failed", "Could not load workspace"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, session.Snapshot()); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Select handles POST /api/workspace/select
// Moves the selection to the given project, component, or version and
// returns the resulting snapshot.
func (h *WorkspaceHandler) Select(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	set := 0
	for _, id := range []*uuid.UUID{req.ProjectID, req.ComponentID, req.VersionID} {
		if id != nil {
			set++
		}
	}
	if set != 1 {
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", "Exactly one of project_id, component_id, version_id must be set"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	session, err := h.workspaces.SessionFor(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load workspace", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "load_workspace_failed", "Could not load workspace"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	switch {
	case req.ProjectID != nil:
		err = session.SelectProject(*req.ProjectID)
	case req.ComponentID != nil:
		err = session.SelectComponent(r.Context(), *req.ComponentID)
	case req.VersionID != nil:
		err = session.SelectVersion(r.Context(), *req.VersionID)
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "selection_not_found", "The selected item does not exist"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to change selection", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "select_failed", "Could not change the selection"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, session.Snapshot()); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
