package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/asset"
	"github.com/iota-uz/itam/modules/inventory/domain/events"
	"github.com/iota-uz/itam/modules/inventory/domain/team"
	"github.com/iota-uz/itam/pkg/constants"
)

func teamMember(name, role string) team.ManualMember {
	return team.ManualMember{Name: name, Role: role}
}

func memberByName(t *testing.T, roster []team.Member, name string) team.Member {
	t.Helper()
	for _, m := range roster {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("%s not in roster", name)
	return team.Member{}
}

func TestTeamService_Roster(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, activeProject("p1", "Billing", "Alice"))
	h.backend.assets = []asset.Asset{
		{ID: "a1", Name: "web", AssignedTo: "Bob", Project: asset.ProjectRef{ID: "p1"}},
		{ID: "a2", Name: "db", AssignedTo: "Bob", Project: asset.ProjectRef{ID: "p1"}},
		{ID: "a3", Name: "cache", AssignedTo: constants.Unassigned, Project: asset.ProjectRef{ID: "p1"}},
		{ID: "a4", Name: "other", AssignedTo: "Zed", Project: asset.ProjectRef{ID: "p2"}},
	}
	_, err := h.team.Add(ctx, "p1", teamMember("Carol", "QA"))
	require.NoError(t, err)

	roster, err := h.members.Roster(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, roster, 3)
	assert.Equal(t, "Alice", roster[0].Name)
	assert.True(t, roster[0].IsOfficialManager)
	assert.Equal(t, 2, memberByName(t, roster, "Bob").AssetsCount)
	assert.Equal(t, "QA", memberByName(t, roster, "Carol").Role)
}

func TestTeamService_AddProjectManagerPromotes(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, activeProject("p1", "Billing", constants.Unassigned))

	_, err := h.members.AddMember(ctx, "p1", teamMember("Carol", team.RoleProjectManager))
	require.NoError(t, err)
	assert.Equal(t, "Carol", h.backend.projects[0].Manager)

	roster, err := h.members.Roster(ctx, "p1")
	require.NoError(t, err)
	official, ok := team.Official(roster)
	require.True(t, ok)
	assert.Equal(t, "Carol", official.Name)
}

func TestTeamService_AddRequiresName(t *testing.T) {
	h := newHarness(t, activeProject("p1", "Billing", "Alice"))
	_, err := h.members.AddMember(context.Background(), "p1", teamMember("  ", "QA"))
	require.ErrorIs(t, err, ErrMemberNameRequired)
	assert.Len(t, h.notifier.Drain(), 1)
}

func TestTeamService_DemotingManagerUnassignsProject(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, activeProject("p1", "Billing", "Alice"))

	var changed []*events.TeamChanged
	h.bus.Subscribe(func(e *events.TeamChanged) { changed = append(changed, e) })

	require.NoError(t, h.members.ChangeRole(ctx, "p1", "Alice", "Architect"))
	assert.Equal(t, constants.Unassigned, h.backend.projects[0].Manager)

	roster, err := h.members.Roster(ctx, "p1")
	require.NoError(t, err)
	_, ok := team.Official(roster)
	assert.False(t, ok)
	alice := memberByName(t, roster, "Alice")
	assert.Equal(t, "Architect", alice.Role)
	assert.False(t, alice.IsOfficialManager)
	assert.Len(t, changed, 1)
}

func TestTeamService_PromotionRespectsDuplicateGuard(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t,
		activeProject("p1", "Billing", "Alice"),
		activeProject("p2", "Search", "Bob"),
	)
	err := h.members.ChangeRole(ctx, "p2", "Alice", team.RoleProjectManager)
	require.ErrorIs(t, err, ErrManagerConflict)
	assert.Equal(t, "Bob", h.backend.projects[1].Manager)

	members, err := h.team.List(ctx, "p2")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestTeamService_RemoveManager(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, activeProject("p1", "Billing", "Alice"))
	_, err := h.team.Add(ctx, "p1", teamMember("Alice", "Lead"))
	require.NoError(t, err)

	require.NoError(t, h.members.RemoveMember(ctx, "p1", "Alice"))
	assert.Equal(t, constants.Unassigned, h.backend.projects[0].Manager)

	roster, err := h.members.Roster(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, roster)
}
