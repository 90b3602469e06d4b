package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/asset"
	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/project"
	"github.com/iota-uz/itam/modules/inventory/domain/events"
	"github.com/iota-uz/itam/pkg/appstate"
	"github.com/iota-uz/itam/pkg/constants"
	"github.com/iota-uz/itam/pkg/notify"
)

func strPtr(s string) *string { return &s }

func activeProject(id, name, manager string) project.Project {
	return project.Project{ID: id, Name: name, Manager: manager, Status: project.StatusActive, Priority: project.PriorityMedium}
}

func TestProjectService_MockGuard(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, activeProject("P1", "Demo", "Alice"))

	_, err := h.projects.Update(ctx, "P1", project.UpdateDTO{Name: strPtr("Renamed")})
	require.ErrorIs(t, err, ErrMockProject)
	err = h.projects.Delete(ctx, "P12")
	require.ErrorIs(t, err, ErrMockProject)
	_, err = h.projects.Allocate(ctx, "P3", []string{"a-1"})
	require.ErrorIs(t, err, ErrMockProject)

	assert.Equal(t, 0, h.backend.total(), "no backend call may be made")
	got := h.notifier.Drain()
	require.Len(t, got, 3)
	for _, n := range got {
		assert.Equal(t, notify.LevelDestructive, n.Level)
		assert.Equal(t, "Operation not permitted", n.Title)
	}
}

func TestProjectService_DuplicateManagerRejected(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t,
		activeProject("p1", "Billing", "Alice"),
		activeProject("p2", "Search", "Bob"),
	)

	_, err := h.projects.SetManager(ctx, "p2", " alice ")
	require.ErrorIs(t, err, ErrManagerConflict)
	assert.Contains(t, err.Error(), "Billing")
	assert.Equal(t, 0, h.backend.count("PatchProject"))

	got := h.notifier.Drain()
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, "Billing")

	_, err = h.projects.Create(ctx, project.CreateDTO{Name: "New", Manager: "Bob"})
	require.ErrorIs(t, err, ErrManagerConflict)
	assert.Equal(t, 0, h.backend.count("CreateProject"))
}

func TestProjectService_ManagerCheckFailureIsNotAConflict(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, activeProject("p1", "Billing", "Alice"))
	h.backend.listErr = errors.New("connection reset")

	_, err := h.projects.Create(ctx, project.CreateDTO{Name: "New", Manager: "Bob"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrManagerConflict)
	assert.Equal(t, 0, h.backend.count("CreateProject"))

	got := h.notifier.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, managerCheckFallback, got[0].Message)
	assert.NotContains(t, got[0].Message, "already assigned")
}

func TestProjectService_ClosedProjectsReleaseManager(t *testing.T) {
	ctx := context.Background()
	done := activeProject("p1", "Old", "Alice")
	done.Status = project.StatusCompleted
	h := newHarness(t, done, activeProject("p2", "Search", "Bob"))

	updated, err := h.projects.SetManager(ctx, "p2", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.Manager)
}

func TestProjectService_ManagerChangeCascades(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, activeProject("p1", "Billing", "Alice"))
	h.backend.users = []appstate.User{{Name: "Carol", Email: "carol@example.com"}}
	h.backend.assets = []asset.Asset{{ID: "a1", Name: "web", Project: asset.ProjectRef{ID: "p1"}}}

	var updates []*events.ProjectManagerUpdated
	h.bus.Subscribe(func(e *events.ProjectManagerUpdated) { updates = append(updates, e) })
	var refreshes []*events.ForceProjectRefresh
	h.bus.Subscribe(func(e *events.ForceProjectRefresh) { refreshes = append(refreshes, e) })

	updated, err := h.projects.SetManager(ctx, "p1", "Carol")
	require.NoError(t, err)
	assert.Equal(t, "Carol", updated.Manager)
	assert.Equal(t, 1, h.backend.count("UpdateProjectManager"))
	assert.Equal(t, "Carol", h.backend.assets[0].Data["projectManager"])

	require.Len(t, updates, 1)
	assert.Equal(t, "p1", updates[0].ProjectID)
	assert.Equal(t, "Carol", updates[0].ManagerName)
	assert.Equal(t, "Alice", updates[0].PreviousManager)
	require.Len(t, refreshes, 1)

	sent, err := h.projects.SentEmails(ctx)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "carol@example.com", sent[0].To)
	assert.Contains(t, sent[0].Subject, "Billing")

	cached, ok, err := appstate.GetJSON[[]project.Project](ctx, h.state, appstate.KeyCachedProjects)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Carol", cached[0].Manager)
}

func TestProjectService_UnchangedUpdateSkipsPatch(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, activeProject("p1", "Billing", "Alice"))

	got, err := h.projects.Update(ctx, "p1", project.UpdateDTO{Name: strPtr("Billing")})
	require.NoError(t, err)
	assert.Equal(t, "Billing", got.Name)
	assert.Equal(t, 0, h.backend.count("PatchProject"))
}

func TestProjectService_UnassignSkipsEmail(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, activeProject("p1", "Billing", "Alice"))

	_, err := h.projects.SetManager(ctx, "p1", "")
	require.NoError(t, err)
	assert.Equal(t, constants.Unassigned, h.backend.projects[0].Manager)

	sent, err := h.projects.SentEmails(ctx)
	require.NoError(t, err)
	assert.Empty(t, sent)
}

func TestProjectService_FreshAnnouncesRemoteManagerChanges(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, activeProject("p1", "Billing", "Alice"))
	_, err := h.projects.Fresh(ctx)
	require.NoError(t, err)

	var updates []*events.ProjectManagerUpdated
	h.bus.Subscribe(func(e *events.ProjectManagerUpdated) { updates = append(updates, e) })

	h.backend.projects[0].Manager = "Dave"
	_, err = h.projects.Fresh(ctx)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, "Dave", updates[0].ManagerName)
}

func TestProjectService_ListUsesCache(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, activeProject("p1", "Billing", "Alice"))

	for i := 0; i < 3; i++ {
		list, err := h.projects.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
	}
	assert.Equal(t, 1, h.backend.count("ListProjects"))
}

func TestProjectService_DeleteClearsTeam(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, activeProject("p1", "Billing", "Alice"))
	_, err := h.team.Add(ctx, "p1", teamMember("Carol", "QA"))
	require.NoError(t, err)

	var deleted []*events.ProjectUpdated
	h.bus.Subscribe(func(e *events.ProjectUpdated) { deleted = append(deleted, e) })

	require.NoError(t, h.projects.Delete(ctx, "p1"))
	members, err := h.team.List(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, members)
	require.Len(t, deleted, 1)
	assert.Equal(t, events.ProjectDeleted, deleted[0].Type)
	assert.Equal(t, "p1", deleted[0].ProjectID)

	err = h.projects.Delete(ctx, "p1")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectService_Allocate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, activeProject("p1", "Billing", "Alice"))
	h.backend.assets = []asset.Asset{
		{ID: "a1", Name: "web", Category: asset.CategoryServers, Status: asset.StatusOperational},
		{ID: "a2", Name: "db", Category: asset.CategoryServers, Status: asset.StatusOperational},
	}

	res, err := h.projects.Allocate(ctx, "p1", []string{"a1", "missing", "a2"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Allocated)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "missing")
	assert.Equal(t, "p1", h.backend.assets[0].Project.ID)
	assert.Equal(t, "Billing", h.backend.assets[1].ProjectName)
}
