package services

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/iota-uz/itam/modules/inventory/infrastructure/api"
	"github.com/iota-uz/itam/pkg/notify"
	"github.com/iota-uz/itam/pkg/serrors"
)

var (
	// ErrMockProject rejects edit, delete and allocate on demo projects (ids like P1).
	ErrMockProject = serrors.NewError(
		"OPERATION_NOT_PERMITTED",
		"This is a demo project and cannot be modified",
		"Projects.Errors.MockProject",
	)
	ErrManagerConflict = serrors.NewError(
		"MANAGER_CONFLICT",
		"This manager is already assigned to another project",
		"Projects.Errors.ManagerConflict",
	)
	ErrProjectNotFound = serrors.NewError("PROJECT_NOT_FOUND", "Project not found", "Projects.Errors.NotFound")
	ErrAssetNotFound   = serrors.NewError("ASSET_NOT_FOUND", "Asset not found", "Assets.Errors.NotFound")
)

// ManagerConflictError names the open project already managed by Manager.
type ManagerConflictError struct {
	Manager     string
	ProjectID   string
	ProjectName string
}

func (e *ManagerConflictError) Error() string {
	return fmt.Sprintf("%s is already the manager of project %q", e.Manager, e.ProjectName)
}

func (e *ManagerConflictError) Is(target error) bool {
	return errors.Is(ErrManagerConflict, target)
}

func mockProjectError(id string) error {
	return ErrMockProject.WithTemplateData(map[string]string{"projectId": id})
}

// userMessage picks the text shown in a destructive notification.
func userMessage(err error, fallback string) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	var conflict *ManagerConflictError
	if errors.As(err, &conflict) {
		return conflict.Error()
	}
	var base *serrors.BaseError
	if errors.As(err, &base) {
		return base.Message
	}
	var verrs serrors.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs.Error()
	}
	return fallback
}

// reportError logs err and raises a destructive notification. It returns err.
func reportError(n notify.Notifier, log logEntry, title string, err error, fallback string) error {
	log.WithError(err).Error(title)
	if n != nil {
		n.Error(title, userMessage(err, fallback))
	}
	return err
}
