// Package team derives a project's roster from its manager field, the assignees
// of its assets and the manually added members kept in local state.
package team

import (
	"sort"
	"strings"
	"time"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/asset"
	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/project"
)

const (
	RoleProjectManager = "Project Manager"
	RoleTeamMember     = "Team Member"
)

type Source string

const (
	SourceManager Source = "manager"
	SourceAsset   Source = "asset"
	SourceManual  Source = "manual"
)

type Member struct {
	Name              string `json:"name"`
	Role              string `json:"role"`
	Email             string `json:"email,omitempty"`
	IsOfficialManager bool   `json:"isOfficialManager"`
	AssetsCount       int    `json:"assetsCount"`
	Source            Source `json:"source"`
}

// ManualMember is a roster entry added by hand and persisted per project.
type ManualMember struct {
	Name    string    `json:"name"`
	Role    string    `json:"role"`
	Email   string    `json:"email,omitempty"`
	AddedAt time.Time `json:"addedAt"`
}

// Reconcile merges the official manager, asset assignees and manual members
// into one roster. At most one member has IsOfficialManager set and its name
// equals the project's manager. The manager comes first, then members in the
// order they were first seen.
func Reconcile(p project.Project, assets []asset.Asset, manual []ManualMember) []Member {
	manager := p.OfficialManager()
	r := newRoster()

	if manager != "" {
		r.put(&Member{
			Name:              manager,
			Role:              RoleProjectManager,
			IsOfficialManager: true,
			Source:            SourceManager,
		})
	}

	for _, a := range assets {
		name := a.Assignee()
		if name == "" {
			continue
		}
		m, ok := r.get(name)
		if !ok {
			m = &Member{Name: name, Role: RoleTeamMember, Source: SourceAsset}
			r.put(m)
		}
		m.AssetsCount++
		if name != manager {
			m.IsOfficialManager = false
		}
	}

	for _, mm := range Dedupe(manual) {
		name := strings.TrimSpace(mm.Name)
		if name == "" {
			continue
		}
		m, ok := r.get(name)
		if !ok {
			r.put(&Member{
				Name:   name,
				Role:   demote(mm.Role),
				Email:  mm.Email,
				Source: SourceManual,
			})
			continue
		}
		if name == manager {
			continue
		}
		m.Role = demote(mm.Role)
		if mm.Email != "" {
			m.Email = mm.Email
		}
	}

	for _, m := range r.members {
		if manager != "" && m.Name == manager {
			m.IsOfficialManager = true
			m.Role = RoleProjectManager
			continue
		}
		m.IsOfficialManager = false
		m.Role = demote(m.Role)
	}

	return r.list()
}

// IsManagerDemotion reports whether giving name the role newRole takes the
// official manager badge away, which must also unassign the project's manager.
func IsManagerDemotion(p project.Project, name, newRole string) bool {
	manager := p.OfficialManager()
	if manager == "" || strings.TrimSpace(name) != manager {
		return false
	}
	return strings.TrimSpace(newRole) != RoleProjectManager
}

// Dedupe keeps the most recently added record per name. Ties keep the later record.
// The result is ordered by each name's first appearance.
func Dedupe(members []ManualMember) []ManualMember {
	latest := make(map[string]int, len(members))
	order := make([]string, 0, len(members))
	for i, m := range members {
		name := strings.TrimSpace(m.Name)
		j, ok := latest[name]
		if !ok {
			order = append(order, name)
			latest[name] = i
			continue
		}
		if !m.AddedAt.Before(members[j].AddedAt) {
			latest[name] = i
		}
	}
	out := make([]ManualMember, 0, len(order))
	for _, name := range order {
		out = append(out, members[latest[name]])
	}
	return out
}

// Official returns the official manager, if any.
func Official(members []Member) (Member, bool) {
	for _, m := range members {
		if m.IsOfficialManager {
			return m, true
		}
	}
	return Member{}, false
}

// SortByName orders members by name, keeping the official manager first.
func SortByName(members []Member) {
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].IsOfficialManager != members[j].IsOfficialManager {
			return members[i].IsOfficialManager
		}
		return strings.ToLower(members[i].Name) < strings.ToLower(members[j].Name)
	})
}

// A non-manager may not carry the manager label.
func demote(role string) string {
	role = strings.TrimSpace(role)
	if role == "" || role == RoleProjectManager {
		return RoleTeamMember
	}
	return role
}

type roster struct {
	members []*Member
	index   map[string]*Member
}

func newRoster() *roster {
	return &roster{index: make(map[string]*Member)}
}

func (r *roster) get(name string) (*Member, bool) {
	m, ok := r.index[name]
	return m, ok
}

func (r *roster) put(m *Member) {
	r.index[m.Name] = m
	r.members = append(r.members, m)
}

func (r *roster) list() []Member {
	out := make([]Member, 0, len(r.members))
	for _, m := range r.members {
		if m.IsOfficialManager {
			out = append(out, *m)
		}
	}
	for _, m := range r.members {
		if !m.IsOfficialManager {
			out = append(out, *m)
		}
	}
	return out
}
