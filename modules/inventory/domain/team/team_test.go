package team

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/asset"
	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/project"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func byName(members []Member) map[string]Member {
	out := make(map[string]Member, len(members))
	for _, m := range members {
		out[m.Name] = m
	}
	return out
}

func TestReconcile_ManagerAssetsAndManual(t *testing.T) {
	p := project.Project{ID: "p1", Manager: "Alice"}
	assets := []asset.Asset{
		{Name: "web-1", AssignedTo: "Bob"},
		{Name: "web-2", AssignedTo: "Alice"},
		{Name: "web-3", AssignedTo: "Bob"},
		{Name: "web-4", AssignedTo: "Unassigned"},
		{Name: "web-5"},
	}
	manual := []ManualMember{
		{Name: "Carol", Role: "QA Engineer", Email: "carol@example.com", AddedAt: t0},
		{Name: "Bob", Role: "Developer", AddedAt: t0},
		{Name: "Alice", Role: "Developer", AddedAt: t0},
	}

	members := Reconcile(p, assets, manual)
	require.Len(t, members, 3)
	assert.Equal(t, "Alice", members[0].Name)

	got := byName(members)
	assert.Equal(t, Member{Name: "Alice", Role: RoleProjectManager, IsOfficialManager: true, AssetsCount: 1, Source: SourceManager}, got["Alice"])
	assert.Equal(t, Member{Name: "Bob", Role: "Developer", AssetsCount: 2, Source: SourceAsset}, got["Bob"])
	assert.Equal(t, Member{Name: "Carol", Role: "QA Engineer", Email: "carol@example.com", Source: SourceManual}, got["Carol"])
}

func TestReconcile_NoManagerForSentinels(t *testing.T) {
	for _, manager := range []string{"Unassigned", "Auto-assigned", ""} {
		members := Reconcile(project.Project{Manager: manager}, []asset.Asset{{AssignedTo: "Bob"}}, nil)
		_, ok := Official(members)
		assert.False(t, ok, manager)
		assert.Len(t, members, 1)
	}
}

func TestReconcile_ManualProjectManagerRoleIsDowngraded(t *testing.T) {
	p := project.Project{Manager: "Alice"}
	manual := []ManualMember{{Name: "Dave", Role: RoleProjectManager, AddedAt: t0}}

	got := byName(Reconcile(p, nil, manual))
	assert.False(t, got["Dave"].IsOfficialManager)
	assert.Equal(t, RoleTeamMember, got["Dave"].Role)
}

func TestReconcile_LatestManualRecordWins(t *testing.T) {
	manual := []ManualMember{
		{Name: "Eve", Role: "Developer", AddedAt: t0.Add(time.Hour)},
		{Name: "Eve", Role: "Architect", AddedAt: t0},
		{Name: "Eve", Role: "DBA", AddedAt: t0.Add(time.Hour)},
	}
	got := byName(Reconcile(project.Project{}, nil, manual))
	assert.Equal(t, "DBA", got["Eve"].Role)
}

func TestReconcile_FormerManagerLosesBadge(t *testing.T) {
	// Alice was manager; the project now says Bob. Her stored role is the old label.
	p := project.Project{Manager: "Bob"}
	assets := []asset.Asset{{AssignedTo: "Alice"}}
	manual := []ManualMember{{Name: "Alice", Role: RoleProjectManager, AddedAt: t0}}

	members := Reconcile(p, assets, manual)
	got := byName(members)
	assert.True(t, got["Bob"].IsOfficialManager)
	assert.False(t, got["Alice"].IsOfficialManager)
	assert.Equal(t, RoleTeamMember, got["Alice"].Role)
	assert.Equal(t, "Bob", members[0].Name)
}

func TestReconcile_SingleOfficialManagerProperty(t *testing.T) {
	names := []string{"Alice", "Bob", "Carol", "Dave", "Unassigned", ""}
	roles := []string{RoleProjectManager, RoleTeamMember, "Developer", ""}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		p := project.Project{Manager: names[rng.Intn(len(names))]}
		var assets []asset.Asset
		for n := rng.Intn(6); n > 0; n-- {
			assets = append(assets, asset.Asset{AssignedTo: names[rng.Intn(len(names))]})
		}
		var manual []ManualMember
		for n := rng.Intn(5); n > 0; n-- {
			manual = append(manual, ManualMember{
				Name:    names[rng.Intn(4)],
				Role:    roles[rng.Intn(len(roles))],
				AddedAt: t0.Add(time.Duration(rng.Intn(3)) * time.Minute),
			})
		}

		members := Reconcile(p, assets, manual)
		official := 0
		for _, m := range members {
			if m.IsOfficialManager {
				official++
				assert.Equal(t, p.OfficialManager(), m.Name)
				assert.Equal(t, RoleProjectManager, m.Role)
			} else {
				assert.NotEqual(t, RoleProjectManager, m.Role)
			}
		}
		assert.LessOrEqual(t, official, 1)
	}
}

func TestIsManagerDemotion(t *testing.T) {
	p := project.Project{Manager: "Alice"}
	assert.True(t, IsManagerDemotion(p, "Alice", "Developer"))
	assert.False(t, IsManagerDemotion(p, "Alice", RoleProjectManager))
	assert.False(t, IsManagerDemotion(p, "Bob", "Developer"))
	assert.False(t, IsManagerDemotion(project.Project{Manager: "Unassigned"}, "Unassigned", "Developer"))
}

func TestSortByName(t *testing.T) {
	members := []Member{{Name: "carol"}, {Name: "Zed", IsOfficialManager: true}, {Name: "Bob"}}
	SortByName(members)
	assert.Equal(t, []string{"Zed", "Bob", "carol"}, []string{members[0].Name, members[1].Name, members[2].Name})
}
