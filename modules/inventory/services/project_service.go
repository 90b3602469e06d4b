package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/project"
	"github.com/iota-uz/itam/modules/inventory/domain/events"
	"github.com/iota-uz/itam/modules/inventory/infrastructure/api"
	"github.com/iota-uz/itam/pkg/appstate"
	"github.com/iota-uz/itam/pkg/authz"
	"github.com/iota-uz/itam/pkg/eventbus"
	"github.com/iota-uz/itam/pkg/notify"
	"github.com/iota-uz/itam/pkg/serrors"
)

// SentEmail is a manager-change email recorded instead of sent in development.
type SentEmail struct {
	To        string    `json:"to"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	ProjectID string    `json:"projectId"`
	SentAt    time.Time `json:"sentAt"`
}

type AllocationResult struct {
	Allocated int      `json:"allocated"`
	Errors    []string `json:"errors"`
}

type ProjectServiceConfig struct {
	Projects  ProjectGateway
	Assets    AssetGateway
	Users     UserGateway
	Team      TeamMembers
	Cache     ListingCache
	State     appstate.Store
	Publisher eventbus.EventBus
	Notifier  notify.Notifier
	Logger    *logrus.Logger
	// DevEmailSimulation appends manager-change emails to the sentEmails key.
	DevEmailSimulation bool
}

type ProjectService struct {
	projects  ProjectGateway
	assets    AssetGateway
	users     UserGateway
	team      TeamMembers
	cache     ListingCache
	state     appstate.Store
	publisher eventbus.EventBus
	notifier  notify.Notifier
	log       *logrus.Entry
	devEmail  bool
	now       func() time.Time
}

func NewProjectService(cfg ProjectServiceConfig) *ProjectService {
	return &ProjectService{
		projects:  cfg.Projects,
		assets:    cfg.Assets,
		users:     cfg.Users,
		team:      cfg.Team,
		cache:     cfg.Cache,
		state:     cfg.State,
		publisher: cfg.Publisher,
		notifier:  cfg.Notifier,
		log:       componentLogger(cfg.Logger, "projects"),
		devEmail:  cfg.DevEmailSimulation,
		now:       time.Now,
	}
}

// List returns the cached project list, loading it on a miss.
func (s *ProjectService) List(ctx context.Context) ([]project.Project, error) {
	if err := authorizeInventory(ctx, authz.ProjectView); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if v, ok := s.cache.Projects(); ok {
			return v, nil
		}
	}
	return s.Fresh(ctx)
}

// Fresh loads the project list from the backend, bypassing the cache. Manager
// changes made elsewhere since the last load are published as events.
func (s *ProjectService) Fresh(ctx context.Context) ([]project.Project, error) {
	return s.load(ctx, true)
}

func (s *ProjectService) load(ctx context.Context, announce bool) ([]project.Project, error) {
	list, err := s.projects.ListProjects(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list projects")
	}
	s.reconcileCached(ctx, list, announce)
	if s.cache != nil {
		s.cache.PutProjects(list)
	}
	return list, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (project.Project, error) {
	if err := authorizeInventory(ctx, authz.ProjectView); err != nil {
		return project.Project{}, err
	}
	p, err := s.projects.GetProject(ctx, id)
	if err != nil {
		return project.Project{}, notFound(err, ErrProjectNotFound, id)
	}
	return p, nil
}

func (s *ProjectService) Create(ctx context.Context, dto project.CreateDTO) (project.Project, error) {
	if err := authorizeInventory(ctx, authz.ProjectCreate); err != nil {
		return project.Project{}, err
	}
	if errs, ok := dto.Ok(); !ok {
		return project.Project{}, reportError(s.notifier, s.log, "Project not created", errs, "Check the form")
	}
	if err := s.checkManager(ctx, "", dto.Manager); err != nil {
		return project.Project{}, reportError(s.notifier, s.log, "Project not created", err, managerCheckFallback)
	}
	created, err := s.projects.CreateProject(ctx, dto)
	if err != nil {
		return project.Project{}, reportError(s.notifier, s.log, "Project not created", err, "The project could not be created")
	}
	s.projectsChanged(ctx)
	s.publish(&events.ProjectUpdated{Type: events.ProjectCreated, Project: &created, ProjectID: created.Identity()})
	s.success("Project created", fmt.Sprintf("%s was created", created.Name))
	return created, nil
}

// Update applies dto as a JSON merge patch. Changing the manager cascades to the
// project's assets and is announced with a ProjectManagerUpdated event.
func (s *ProjectService) Update(ctx context.Context, id string, dto project.UpdateDTO) (project.Project, error) {
	if err := authorizeInventory(ctx, authz.ProjectEdit); err != nil {
		return project.Project{}, err
	}
	if err := s.guardMock(id, "edit"); err != nil {
		return project.Project{}, err
	}
	if errs, ok := dto.Ok(); !ok {
		return project.Project{}, reportError(s.notifier, s.log, "Project not updated", errs, "Check the form")
	}
	current, err := s.projects.GetProject(ctx, id)
	if err != nil {
		return project.Project{}, reportError(s.notifier, s.log, "Project not updated", notFound(err, ErrProjectNotFound, id), "The project could not be loaded")
	}
	next := dto.Apply(current)
	managerChanged := !project.SameManager(current.Manager, next.Manager)
	if managerChanged {
		if err := s.checkManager(ctx, id, next.Manager); err != nil {
			return project.Project{}, reportError(s.notifier, s.log, "Project not updated", err, managerCheckFallback)
		}
	}

	patch, err := mergePatch(current, next)
	if err != nil {
		return project.Project{}, errors.Wrap(err, "build project patch")
	}
	if string(patch) == "{}" {
		return current, nil
	}
	updated, err := s.projects.PatchProject(ctx, id, patch)
	if err != nil {
		return project.Project{}, reportError(s.notifier, s.log, "Project not updated", err, "The project could not be updated")
	}
	log := s.log.WithFields(logrus.Fields{"project": id, "patch": string(patch)})
	log.Info("project updated")

	if managerChanged {
		s.cascadeManager(ctx, log, current, next.Manager)
	}
	s.projectsChanged(ctx)
	s.publish(&events.ProjectUpdated{Type: events.ProjectEdited, Project: &updated, ProjectID: id})
	s.success("Project updated", fmt.Sprintf("%s was updated", updated.Name))
	return updated, nil
}

// SetManager changes only the project's manager.
func (s *ProjectService) SetManager(ctx context.Context, id, manager string) (project.Project, error) {
	return s.Update(ctx, id, project.UpdateDTO{Manager: &manager})
}

func (s *ProjectService) Delete(ctx context.Context, id string) error {
	if err := authorizeInventory(ctx, authz.ProjectDelete); err != nil {
		return err
	}
	if err := s.guardMock(id, "delete"); err != nil {
		return err
	}
	if err := s.projects.DeleteProject(ctx, id); err != nil {
		return reportError(s.notifier, s.log, "Project not deleted", notFound(err, ErrProjectNotFound, id), "The project could not be deleted")
	}
	if s.team != nil {
		if err := s.team.Clear(ctx, id); err != nil {
			s.log.WithError(err).WithField("project", id).Warn("team members not cleared")
		}
	}
	s.projectsChanged(ctx)
	if s.cache != nil {
		s.cache.InvalidateAssets()
	}
	s.publish(&events.ProjectUpdated{Type: events.ProjectDeleted, ProjectID: id})
	s.publish(&events.AssetsChanged{ProjectID: id})
	s.success("Project deleted", "The project was deleted")
	return nil
}

// Allocate links assets to the project one by one. A failing asset is recorded
// and the rest are still processed.
func (s *ProjectService) Allocate(ctx context.Context, id string, assetIDs []string) (AllocationResult, error) {
	result := AllocationResult{Errors: []string{}}
	if err := authorizeInventory(ctx, authz.ProjectAllocate); err != nil {
		return result, err
	}
	if err := s.guardMock(id, "allocate"); err != nil {
		return result, err
	}
	p, err := s.projects.GetProject(ctx, id)
	if err != nil {
		return result, reportError(s.notifier, s.log, "Allocation failed", notFound(err, ErrProjectNotFound, id), "The project could not be loaded")
	}
	for _, assetID := range assetIDs {
		a, err := s.assets.GetAsset(ctx, assetID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", assetID, userMessage(err, err.Error())))
			continue
		}
		payload := a.Payload()
		payload.Project = p.Identity()
		payload.ProjectName = p.Name
		if _, err := s.assets.UpdateAsset(ctx, assetID, payload); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", a.Name, userMessage(err, err.Error())))
			continue
		}
		result.Allocated++
	}
	if s.cache != nil {
		s.cache.InvalidateAssets()
	}
	if result.Allocated > 0 {
		s.publish(&events.AssetsChanged{ProjectID: id, Count: result.Allocated})
	}
	msg := fmt.Sprintf("%d allocated, %d failed", result.Allocated, len(result.Errors))
	if result.Allocated == 0 && len(result.Errors) > 0 {
		s.fail("Allocation failed", msg)
	} else {
		s.success("Assets allocated", msg)
	}
	return result, nil
}

// ResourceUsage passes the backend's usage report through unchanged.
func (s *ProjectService) ResourceUsage(ctx context.Context) (json.RawMessage, error) {
	if err := authorizeInventory(ctx, authz.ResourceView); err != nil {
		return nil, err
	}
	return s.projects.ResourceUsage(ctx)
}

func (s *ProjectService) guardMock(id, op string) error {
	if !project.IsMockID(id) {
		return nil
	}
	s.log.WithFields(logrus.Fields{"project": id, "op": op}).Warn("refused change to demo project")
	s.fail("Operation not permitted", ErrMockProject.Message)
	return mockProjectError(id)
}

// managerCheckFallback is shown when the manager check itself failed. Conflicts
// carry their own message naming the other project.
const managerCheckFallback = "Projects could not be loaded to check the manager"

// checkManager rejects a manager already holding another open project. The list
// is loaded fresh. Placeholder managers never conflict.
func (s *ProjectService) checkManager(ctx context.Context, selfID, manager string) error {
	if project.IsManagerSentinel(manager) {
		return nil
	}
	list, err := s.projects.ListProjects(ctx)
	if err != nil {
		return errors.Wrap(err, "list projects for manager check")
	}
	for _, p := range list {
		if selfID != "" && p.Identity() == selfID {
			continue
		}
		if !p.IsOpen() || project.IsManagerSentinel(p.Manager) {
			continue
		}
		if project.SameManager(p.Manager, manager) {
			return &ManagerConflictError{Manager: strings.TrimSpace(manager), ProjectID: p.Identity(), ProjectName: p.Name}
		}
	}
	return nil
}

func (s *ProjectService) cascadeManager(ctx context.Context, log *logrus.Entry, before project.Project, manager string) {
	id := before.Identity()
	if s.assets != nil {
		modified, err := s.assets.UpdateProjectManager(ctx, id, manager)
		if err != nil {
			log.WithError(err).Warn("manager cascade to assets failed")
		} else {
			log.WithField("modified", modified).Info("manager cascaded to assets")
		}
		if s.cache != nil {
			s.cache.InvalidateAssets()
		}
	}
	s.publish(&events.ProjectManagerUpdated{ProjectID: id, ManagerName: manager, PreviousManager: before.Manager})
	s.publish(&events.ForceProjectRefresh{ProjectID: id})
	if !project.IsManagerSentinel(manager) {
		s.sendManagerEmail(ctx, before, manager)
	}
}

// sendManagerEmail records the notification to the new manager. Only the
// development simulation is implemented; otherwise the email is just logged.
func (s *ProjectService) sendManagerEmail(ctx context.Context, p project.Project, manager string) {
	email := SentEmail{
		Recipient: manager,
		Subject:   fmt.Sprintf("You are now the manager of %s", p.Name),
		Body:      fmt.Sprintf("Hello %s, you have been assigned as manager of project %q.", manager, p.Name),
		ProjectID: p.Identity(),
		SentAt:    s.now().UTC(),
	}
	if s.users != nil {
		if users, err := s.users.ListUsers(ctx); err == nil {
			for _, u := range users {
				if project.SameManager(u.Name, manager) {
					email.To = u.Email
					break
				}
			}
		} else {
			s.log.WithError(err).Debug("users not loaded for manager email")
		}
	}
	log := s.log.WithFields(logrus.Fields{"project": email.ProjectID, "to": email.To, "recipient": manager})
	if !s.devEmail || s.state == nil {
		log.Info("manager change email")
		return
	}
	sent, _, err := appstate.GetJSON[[]SentEmail](ctx, s.state, appstate.KeySentEmails)
	if err != nil {
		log.WithError(err).Warn("sent emails unreadable, starting over")
		sent = nil
	}
	sent = append(sent, email)
	if err := appstate.SetJSON(ctx, s.state, appstate.KeySentEmails, sent); err != nil {
		log.WithError(err).Warn("simulated email not recorded")
		return
	}
	log.Info("simulated manager change email")
}

// SentEmails returns the simulated emails recorded so far.
func (s *ProjectService) SentEmails(ctx context.Context) ([]SentEmail, error) {
	if s.state == nil {
		return nil, nil
	}
	sent, _, err := appstate.GetJSON[[]SentEmail](ctx, s.state, appstate.KeySentEmails)
	return sent, err
}

// reconcileCached compares list with cached_projects, publishes a manager event
// for every project whose manager changed when announce is set, then stores list.
func (s *ProjectService) reconcileCached(ctx context.Context, list []project.Project, announce bool) {
	if s.state == nil {
		return
	}
	cached, ok, err := appstate.GetJSON[[]project.Project](ctx, s.state, appstate.KeyCachedProjects)
	if err != nil {
		s.log.WithError(err).Warn("cached projects unreadable")
	}
	if ok && announce {
		prev := make(map[string]project.Project, len(cached))
		for _, p := range cached {
			prev[p.Identity()] = p
		}
		for _, p := range list {
			old, found := prev[p.Identity()]
			if found && !project.SameManager(old.Manager, p.Manager) {
				s.publish(&events.ProjectManagerUpdated{ProjectID: p.Identity(), ManagerName: p.Manager, PreviousManager: old.Manager})
			}
		}
	}
	if err := appstate.SetJSON(ctx, s.state, appstate.KeyCachedProjects, list); err != nil {
		s.log.WithError(err).Warn("cached projects not stored")
	}
}

// projectsChanged drops the listing cache and reloads cached_projects. Our own
// changes publish their events directly, so the reload stays quiet.
func (s *ProjectService) projectsChanged(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateProjects()
	}
	if _, err := s.load(ctx, false); err != nil {
		s.log.WithError(err).Warn("project list not refreshed")
	}
}

func (s *ProjectService) publish(event any) {
	if s.publisher != nil {
		s.publisher.Publish(event)
	}
}

func (s *ProjectService) success(title, msg string) {
	if s.notifier != nil {
		s.notifier.Success(title, msg)
	}
}

func (s *ProjectService) fail(title, msg string) {
	if s.notifier != nil {
		s.notifier.Error(title, msg)
	}
}

func mergePatch(before, after project.Project) (json.RawMessage, error) {
	a, err := json.Marshal(before)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(after)
	if err != nil {
		return nil, err
	}
	return jsonpatch.CreateMergePatch(a, b)
}

// notFound maps a backend 404 onto sentinel, keeping other errors as they are.
func notFound(err error, sentinel *serrors.BaseError, id string) error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.NotFound() {
		return sentinel.WithTemplateData(map[string]string{"id": id})
	}
	return err
}
