package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/uiforge/uiforge-engine/pkg/apperrors"
	"github.com/uiforge/uiforge-engine/pkg/auth"
	"github.com/uiforge/uiforge-engine/pkg/models"
	"github.com/uiforge/uiforge-engine/pkg/services"
	"github.com/uiforge/uiforge-engine/pkg/services/workspace"
)

// CreateProjectRequest for POST /api/projects
type CreateProjectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ProjectTreeResponse for GET /api/projects
type ProjectTreeResponse struct {
	Projects []*models.ProjectTree `json:"projects"`
	Total    int                   `json:"total"`
}

// ProjectsHandler handles project HTTP requests.
type ProjectsHandler struct {
	workspaces *workspace.Manager
	logger     *zap.Logger
}

// NewProjectsHandler creates a new projects handler.
func NewProjectsHandler(workspaces *workspace.Manager, logger *zap.Logger) *ProjectsHandler {
	return &ProjectsHandler{workspaces: workspaces, logger: logger}
}

// RegisterRoutes registers the projects handler's routes on the given mux.
func (h *ProjectsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/projects", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST /api/projects", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("DELETE /api/projects/{pid}", authMiddleware.RequireAuth(h.Delete))
}

// List handles GET /api/projects
// Returns the user's full tree: projects with their components and versions.
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	session, err := h.workspaces.SessionFor(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load workspace", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "load_projects_failed", "Could not load projects"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	snapshot := session.Snapshot()
	response := ProjectTreeResponse{
		Projects: snapshot.Projects,
		Total:    len(snapshot.Projects),
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/projects
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	session, err := h.workspaces.SessionFor(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load workspace", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "create_project_failed", "Could not create project"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	project, err := session.CreateProject(r.Context(), req.Title, req.Description)
	if err != nil {
		if errors.Is(err, services.ErrTitleRequired) {
			if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", "Title is required"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to create project", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "create_project_failed", "Could not create project"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, project); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/projects/{pid}
func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	session, err := h.workspaces.SessionFor(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load workspace", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "delete_project_failed", "Could not delete project"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := session.DeleteProject(r.Context(), projectID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "project_not_found", "Project not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to delete project",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "delete_project_failed", "Could not delete project"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
