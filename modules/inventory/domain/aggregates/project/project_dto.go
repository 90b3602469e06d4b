package project

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iota-uz/itam/pkg/constants"
	"github.com/iota-uz/itam/pkg/serrors"
)

type CreateDTO struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Status      Status   `json:"status" validate:"required,oneof=active on-hold completed cancelled"`
	Priority    Priority `json:"priority" validate:"required,oneof=low medium high critical"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate,omitempty"`
	Manager     string   `json:"manager"`
	Department  string   `json:"department,omitempty"`
	Tags        []string `json:"tags"`
}

func (d *CreateDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	d.Manager = strings.TrimSpace(d.Manager)
	if d.Manager == "" {
		d.Manager = constants.Unassigned
	}
	if d.Status == "" {
		d.Status = StatusActive
	}
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
}

func (d *CreateDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Normalize()
	return validate(d)
}

// UpdateDTO carries only the fields being changed.
type UpdateDTO struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *Status   `json:"status,omitempty" validate:"omitempty,oneof=active on-hold completed cancelled"`
	Priority    *Priority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high critical"`
	StartDate   *string   `json:"startDate,omitempty"`
	EndDate     *string   `json:"endDate,omitempty"`
	Manager     *string   `json:"manager,omitempty"`
	Department  *string   `json:"department,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
}

func (d *UpdateDTO) Ok() (serrors.ValidationErrors, bool) {
	if d.Name != nil {
		name := strings.TrimSpace(*d.Name)
		if name == "" {
			return serrors.ValidationErrors{"Name": "is required"}, false
		}
		d.Name = &name
	}
	if d.Manager != nil {
		manager := strings.TrimSpace(*d.Manager)
		if manager == "" {
			manager = constants.Unassigned
		}
		d.Manager = &manager
	}
	return validate(d)
}

// Apply returns p with the DTO's fields overlaid.
func (d UpdateDTO) Apply(p Project) Project {
	if d.Name != nil {
		p.Name = *d.Name
	}
	if d.Description != nil {
		p.Description = *d.Description
	}
	if d.Status != nil {
		p.Status = *d.Status
	}
	if d.Priority != nil {
		p.Priority = *d.Priority
	}
	if d.StartDate != nil {
		p.StartDate = *d.StartDate
	}
	if d.EndDate != nil {
		p.EndDate = *d.EndDate
	}
	if d.Manager != nil {
		p.Manager = *d.Manager
	}
	if d.Department != nil {
		p.Department = *d.Department
	}
	if d.Tags != nil {
		p.Tags = append([]string(nil), d.Tags...)
	}
	return p
}

func validate(v any) (serrors.ValidationErrors, bool) {
	errs := constants.Validate.Struct(v)
	if errs == nil {
		return serrors.ValidationErrors{}, true
	}
	validatorErrs, ok := errs.(validator.ValidationErrors)
	if !ok {
		return serrors.ValidationErrors{"payload": errs.Error()}, false
	}
	return serrors.ProcessValidatorErrors(validatorErrs), false
}
