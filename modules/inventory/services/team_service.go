package services

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/project"
	"github.com/iota-uz/itam/modules/inventory/domain/events"
	"github.com/iota-uz/itam/modules/inventory/domain/team"
	"github.com/iota-uz/itam/pkg/authz"
	"github.com/iota-uz/itam/pkg/constants"
	"github.com/iota-uz/itam/pkg/eventbus"
	"github.com/iota-uz/itam/pkg/notify"
	"github.com/iota-uz/itam/pkg/serrors"
)

var ErrMemberNameRequired = serrors.NewError("MEMBER_NAME_REQUIRED", "A team member needs a name", "Team.Errors.NameRequired")

// TeamService manages a project's roster. Manager changes go through the
// project service so the duplicate guard and the asset cascade apply.
type TeamService struct {
	projects  *ProjectService
	assets    AssetGateway
	members   TeamMembers
	publisher eventbus.EventBus
	notifier  notify.Notifier
	log       *logrus.Entry
}

func NewTeamService(
	projects *ProjectService,
	assets AssetGateway,
	members TeamMembers,
	publisher eventbus.EventBus,
	notifier notify.Notifier,
	logger *logrus.Logger,
) *TeamService {
	return &TeamService{
		projects:  projects,
		assets:    assets,
		members:   members,
		publisher: publisher,
		notifier:  notifier,
		log:       componentLogger(logger, "team"),
	}
}

func (s *TeamService) Roster(ctx context.Context, projectID string) ([]team.Member, error) {
	if err := authorizeInventory(ctx, authz.TeamView); err != nil {
		return nil, err
	}
	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.roster(ctx, p)
}

func (s *TeamService) roster(ctx context.Context, p project.Project) ([]team.Member, error) {
	id := p.Identity()
	assets, err := s.assets.ListAssetsByProject(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "list assets of project %s", id)
	}
	manual, err := s.members.List(ctx, id)
	if err != nil {
		return nil, err
	}
	return team.Reconcile(p, assets, manual), nil
}

// AddMember stores a manual member. Adding someone as Project Manager makes them
// the project's manager.
func (s *TeamService) AddMember(ctx context.Context, projectID string, m team.ManualMember) (team.ManualMember, error) {
	if err := authorizeInventory(ctx, authz.TeamManage); err != nil {
		return team.ManualMember{}, err
	}
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return team.ManualMember{}, reportError(s.notifier, s.log, "Member not added", ErrMemberNameRequired, ErrMemberNameRequired.Message)
	}
	if strings.TrimSpace(m.Role) == "" {
		m.Role = team.RoleTeamMember
	}
	if strings.TrimSpace(m.Role) == team.RoleProjectManager {
		if _, err := s.projects.SetManager(ctx, projectID, m.Name); err != nil {
			return team.ManualMember{}, err
		}
	}
	stored, err := s.members.Add(ctx, projectID, m)
	if err != nil {
		return team.ManualMember{}, reportError(s.notifier, s.log, "Member not added", err, "The member could not be saved")
	}
	s.changed(projectID)
	s.success("Member added", stored.Name+" was added to the team")
	return stored, nil
}

// RemoveMember drops the manual records of name. Removing the official manager
// also unassigns the project's manager.
func (s *TeamService) RemoveMember(ctx context.Context, projectID, name string) error {
	if err := authorizeInventory(ctx, authz.TeamManage); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return reportError(s.notifier, s.log, "Member not removed", err, "The project could not be loaded")
	}
	if manager := p.OfficialManager(); manager != "" && manager == name {
		if _, err := s.projects.SetManager(ctx, projectID, constants.Unassigned); err != nil {
			return err
		}
	}
	removed, err := s.members.Remove(ctx, projectID, name)
	if err != nil {
		return reportError(s.notifier, s.log, "Member not removed", err, "The member could not be removed")
	}
	s.log.WithFields(logrus.Fields{"project": projectID, "member": name, "removed": removed}).Info("team member removed")
	s.changed(projectID)
	s.success("Member removed", name+" was removed from the team")
	return nil
}

// ChangeRole gives name a new role. Taking the Project Manager role away from
// the official manager unassigns the project's manager and keeps them on the
// team with the new role; granting it makes them the manager.
func (s *TeamService) ChangeRole(ctx context.Context, projectID, name, role string) error {
	if err := authorizeInventory(ctx, authz.TeamManage); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	role = strings.TrimSpace(role)
	if role == "" {
		role = team.RoleTeamMember
	}
	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return reportError(s.notifier, s.log, "Role not changed", err, "The project could not be loaded")
	}
	roster, err := s.roster(ctx, p)
	if err != nil {
		return reportError(s.notifier, s.log, "Role not changed", err, "The team could not be loaded")
	}
	email := ""
	for _, m := range roster {
		if m.Name == name {
			email = m.Email
			break
		}
	}

	switch {
	case team.IsManagerDemotion(p, name, role):
		if _, err := s.projects.SetManager(ctx, projectID, constants.Unassigned); err != nil {
			return err
		}
	case role == team.RoleProjectManager && p.OfficialManager() != name:
		if _, err := s.projects.SetManager(ctx, projectID, name); err != nil {
			return err
		}
	}
	if _, err := s.members.Add(ctx, projectID, team.ManualMember{Name: name, Role: role, Email: email}); err != nil {
		return reportError(s.notifier, s.log, "Role not changed", err, "The role could not be saved")
	}
	s.log.WithFields(logrus.Fields{"project": projectID, "member": name, "role": role}).Info("team role changed")
	s.changed(projectID)
	s.success("Role changed", name+" is now "+role)
	return nil
}

func (s *TeamService) changed(projectID string) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(&events.TeamChanged{ProjectID: projectID})
	s.publisher.Publish(&events.ForceProjectRefresh{ProjectID: projectID})
}

func (s *TeamService) success(title, msg string) {
	if s.notifier != nil {
		s.notifier.Success(title, msg)
	}
}
