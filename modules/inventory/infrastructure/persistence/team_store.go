package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/iota-uz/itam/modules/inventory/domain/team"
	"github.com/iota-uz/itam/pkg/appstate"
)

// TeamStore keeps manually added members per project in the application state
// store. Writes are visible to the next read.
type TeamStore struct {
	store appstate.Store
	now   func() time.Time
}

func NewTeamStore(store appstate.Store) *TeamStore {
	return &TeamStore{store: store, now: time.Now}
}

func (s *TeamStore) List(ctx context.Context, projectID string) ([]team.ManualMember, error) {
	members, _, err := appstate.GetJSON[[]team.ManualMember](ctx, s.store, appstate.TeamMembersKey(projectID))
	if err != nil {
		return nil, errors.Wrapf(err, "list team members of %s", projectID)
	}
	return members, nil
}

// Add appends a member record stamped with the current time. Earlier records with
// the same name stay in the list and lose to this one during reconciliation.
// Concurrent adds to one project all land.
func (s *TeamStore) Add(ctx context.Context, projectID string, m team.ManualMember) (team.ManualMember, error) {
	m.Name = strings.TrimSpace(m.Name)
	m.Role = strings.TrimSpace(m.Role)
	m.Email = strings.TrimSpace(m.Email)
	if m.AddedAt.IsZero() {
		m.AddedAt = s.now()
	}
	err := appstate.UpdateJSON(ctx, s.store, appstate.TeamMembersKey(projectID),
		func(members []team.ManualMember, _ bool) ([]team.ManualMember, error) {
			return append(members, m), nil
		})
	if err != nil {
		return team.ManualMember{}, errors.Wrapf(err, "add team member to %s", projectID)
	}
	return m, nil
}

// Remove drops every record with the given name. It reports whether anything was removed.
func (s *TeamStore) Remove(ctx context.Context, projectID, name string) (bool, error) {
	name = strings.TrimSpace(name)
	removed := false
	err := appstate.UpdateJSON(ctx, s.store, appstate.TeamMembersKey(projectID),
		func(members []team.ManualMember, _ bool) ([]team.ManualMember, error) {
			kept := make([]team.ManualMember, 0, len(members))
			for _, m := range members {
				if strings.TrimSpace(m.Name) != name {
					kept = append(kept, m)
				}
			}
			removed = len(kept) != len(members)
			if !removed {
				return nil, appstate.ErrSkipUpdate
			}
			return kept, nil
		})
	if err != nil {
		return false, errors.Wrapf(err, "remove team member from %s", projectID)
	}
	return removed, nil
}

// Clear removes the project's list, used when the project is deleted.
func (s *TeamStore) Clear(ctx context.Context, projectID string) error {
	if err := s.store.Delete(ctx, appstate.TeamMembersKey(projectID)); err != nil {
		return errors.Wrapf(err, "clear team members of %s", projectID)
	}
	return nil
}
