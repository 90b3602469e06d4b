// Package events holds the typed events published on the application event bus.
// Subscribers register handlers taking a pointer to the event type.
package events

import (
	"time"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/project"
)

type ProjectChange string

const (
	ProjectCreated ProjectChange = "created"
	ProjectEdited  ProjectChange = "updated"
	ProjectDeleted ProjectChange = "deleted"
)

// ProjectManagerUpdated is published after a manager change and its asset cascade.
type ProjectManagerUpdated struct {
	ProjectID       string
	ManagerName     string
	PreviousManager string
}

// ProjectUpdated carries the project for create and update, only the id for delete.
type ProjectUpdated struct {
	Type      ProjectChange
	Project   *project.Project
	ProjectID string
}

// ForceProjectRefresh asks every view of the project to reload.
type ForceProjectRefresh struct {
	ProjectID string
}

// AssetsChanged is published after any asset mutation. ProjectID is empty when
// the change spans projects (bulk import, delete all servers).
type AssetsChanged struct {
	ProjectID string
	Count     int
}

// TeamChanged is published after the manual member list of a project changes.
type TeamChanged struct {
	ProjectID string
}

// SessionExpired is published when a token refresh fails and the session is cleared.
type SessionExpired struct {
	Reason string
	At     time.Time
}
