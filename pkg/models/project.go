// Package models contains domain types for uiforge-engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Project is the top-level user-owned container for components.
type Project struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Component is a single generated UI element tracked under a project,
// with its own version history and chat thread.
type Component struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Version is one immutable snapshot of a component's source code plus the
// prompt or save label that produced it. Version numbers are contiguous
// per component starting at 1 and are never reused.
type Version struct {
	ID            uuid.UUID `json:"id"`
	ComponentID   uuid.UUID `json:"component_id"`
	VersionNumber int       `json:"version_number"`
	Prompt        string    `json:"prompt"`
	GeneratedCode string    `json:"generated_code"`
	CreatedAt     time.Time `json:"created_at"`
}

// ProjectTree is a project joined with its components and their versions,
// as returned by the initial full-tree fetch.
type ProjectTree struct {
	Project
	Components []*ComponentTree `json:"components"`
}

// ComponentTree is a component joined with its versions.
type ComponentTree struct {
	Component
	Versions []*Version `json:"versions"`
}
