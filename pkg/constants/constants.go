package constants

type ContextKey string

const (
	LoggerKey  ContextKey = "logger"
	AppKey     ContextKey = "app"
	SessionKey ContextKey = "session"
	RoleKey    ContextKey = "role"
)

// Sentinel assignee and manager values used across the inventory.
const (
	Unassigned   = "Unassigned"
	AutoAssigned = "Auto-assigned"
)
