package authz

import "strings"

const (
	RoleAdmin      = "admin"
	RoleTechnician = "technician"
	RoleUser       = "user"

	objectSeparator       = "."
	defaultActionWildcard = "*"
)

// Capabilities gated in the dashboard. Each is "object.action".
const (
	AssetView              = "asset.view"
	AssetCreate            = "asset.create"
	AssetEdit              = "asset.edit"
	AssetDelete            = "asset.delete"
	AssetDeleteAll         = "asset.delete_all"
	AssetAssign            = "asset.assign"
	AssetImport            = "asset.import"
	AssetExport            = "asset.export"
	AssetChangeEnvironment = "asset.change_environment"

	ProjectView     = "project.view"
	ProjectCreate   = "project.create"
	ProjectEdit     = "project.edit"
	ProjectDelete   = "project.delete"
	ProjectAllocate = "project.allocate"

	TeamView   = "team.view"
	TeamManage = "team.manage"

	ResourceView = "resource.view"
)

// Request is a single capability question.
type Request struct {
	Role   string
	Object string
	Action string
}

// NewRequest splits a capability like "asset.create" into object and action.
func NewRequest(role, capability string) Request {
	object, action, found := strings.Cut(capability, objectSeparator)
	if !found {
		action = defaultActionWildcard
	}
	return Request{
		Role:   NormalizeRole(role),
		Object: strings.ToLower(strings.TrimSpace(object)),
		Action: NormalizeAction(action),
	}
}

// NormalizeRole lowercases a role and maps empty to the least privileged role.
func NormalizeRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return RoleUser
	}
	return role
}

// NormalizeAction returns a normalized action string.
func NormalizeAction(action string) string {
	action = strings.ToLower(strings.TrimSpace(action))
	if action == "" {
		return defaultActionWildcard
	}
	return action
}
