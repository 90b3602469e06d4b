package asset

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iota-uz/itam/pkg/constants"
	"github.com/iota-uz/itam/pkg/serrors"
)

// CreatePayload is the body of POST /assets and PUT /assets/{id}.
type CreatePayload struct {
	Name           string    `json:"name" validate:"required"`
	Category       string    `json:"category" validate:"required"`
	Status         Status    `json:"status" validate:"required,oneof=operational maintenance repair retired"`
	Location       string    `json:"location,omitempty"`
	PurchaseDate   string    `json:"purchaseDate,omitempty"`
	AssignedTo     string    `json:"assignedTo"`
	Project        string    `json:"project,omitempty"`
	ProjectName    string    `json:"projectName"`
	Resources      Resources `json:"resources"`
	VMInfo         Bag       `json:"vmInfo,omitempty"`
	Specs          Bag       `json:"specs,omitempty"`
	AdditionalData Bag       `json:"additionalData,omitempty"`
}

func (d *CreatePayload) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Category = strings.TrimSpace(d.Category)
	d.Location = strings.TrimSpace(d.Location)
	d.AssignedTo = strings.TrimSpace(d.AssignedTo)
	if d.AssignedTo == "" {
		d.AssignedTo = constants.Unassigned
	}
	d.Project = strings.TrimSpace(d.Project)
	d.ProjectName = strings.TrimSpace(d.ProjectName)
	if d.ProjectName == "" {
		d.ProjectName = constants.Unassigned
	}
}

// Ok normalizes the payload and reports field errors, if any.
func (d *CreatePayload) Ok() (serrors.ValidationErrors, bool) {
	d.Normalize()

	errs := constants.Validate.Struct(d)
	if errs == nil {
		return serrors.ValidationErrors{}, true
	}
	validatorErrs, ok := errs.(validator.ValidationErrors)
	if !ok {
		return serrors.ValidationErrors{"payload": errs.Error()}, false
	}
	return serrors.ProcessValidatorErrors(validatorErrs), false
}

// AssignDTO is the body of an assignment action.
type AssignDTO struct {
	AssignedTo string `json:"assignedTo"`
	Project    string `json:"project"`
}

// ListParams selects one of the filtered listing endpoints. At most one field is honoured,
// in the order Project, Category, Status.
type ListParams struct {
	Category string
	Status   Status
	Project  string
}

func (p ListParams) CacheKey() string {
	switch {
	case p.Project != "":
		return "project:" + p.Project
	case p.Category != "":
		return "category:" + p.Category
	case p.Status != "":
		return "status:" + string(p.Status)
	default:
		return "all"
	}
}
