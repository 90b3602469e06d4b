package project

import (
	"regexp"
	"strings"

	"github.com/iota-uz/itam/pkg/constants"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusOnHold    Status = "on-hold"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var mockIDPattern = regexp.MustCompile(`^P\d+$`)

type Project struct {
	ID          string   `json:"id,omitempty"`
	LegacyID    string   `json:"_id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`
	StartDate   string   `json:"startDate,omitempty"`
	EndDate     string   `json:"endDate,omitempty"`
	Manager     string   `json:"manager"`
	Department  string   `json:"department,omitempty"`
	Tags        []string `json:"tags"`
}

// Identity returns id, falling back to the legacy _id.
func (p Project) Identity() string {
	if p.ID != "" {
		return p.ID
	}
	return p.LegacyID
}

// IsMockID reports whether id belongs to a read-only demo project.
func IsMockID(id string) bool {
	return mockIDPattern.MatchString(id)
}

func (p Project) IsMock() bool {
	return IsMockID(p.Identity())
}

// IsOpen reports whether the project still holds its manager. Completed and
// cancelled projects release the manager for reassignment.
func (p Project) IsOpen() bool {
	return p.Status != StatusCompleted && p.Status != StatusCancelled
}

// OfficialManager returns the trimmed manager name, or "" for the sentinels.
func (p Project) OfficialManager() string {
	if IsManagerSentinel(p.Manager) {
		return ""
	}
	return strings.TrimSpace(p.Manager)
}

// IsManagerSentinel reports whether name is empty or one of the placeholder values.
func IsManagerSentinel(name string) bool {
	name = strings.TrimSpace(name)
	return name == "" || name == constants.Unassigned || name == constants.AutoAssigned
}

// SameManager compares manager names the way the duplicate guard does.
func SameManager(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// FindByName returns the project whose name matches case-insensitively.
func FindByName(projects []Project, name string) (Project, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Project{}, false
	}
	for _, p := range projects {
		if strings.EqualFold(strings.TrimSpace(p.Name), name) {
			return p, true
		}
	}
	return Project{}, false
}

// Names returns the project names in input order.
func Names(projects []Project) []string {
	out := make([]string, 0, len(projects))
	for _, p := range projects {
		out = append(out, p.Name)
	}
	return out
}
