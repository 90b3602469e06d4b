package asset

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/iota-uz/itam/pkg/constants"
)

type Status string

const (
	StatusOperational Status = "operational"
	StatusMaintenance Status = "maintenance"
	StatusRepair      Status = "repair"
	StatusRetired     Status = "retired"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusOperational, StatusMaintenance, StatusRepair, StatusRetired:
		return true
	}
	return false
}

// CategoryServers is the category given to spreadsheet imports; "delete all
// servers" removes exactly this category.
const CategoryServers = "Servers"

// Resources is the normalized snapshot: cores, MB, MB.
type Resources struct {
	CPU  int `json:"cpu" validate:"gte=0"`
	RAM  int `json:"ram" validate:"gte=0"`
	Disk int `json:"disk" validate:"gte=0"`
}

func (r Resources) Add(o Resources) Resources {
	return Resources{CPU: r.CPU + o.CPU, RAM: r.RAM + o.RAM, Disk: r.Disk + o.Disk}
}

// ProjectRef is the asset's project reference. The backend sends a bare id or
// name, null, or a populated project object; all three decode here.
type ProjectRef struct {
	ID   string
	Name string
}

func (r ProjectRef) IsZero() bool { return r.ID == "" && r.Name == "" }

// Matches reports whether the reference points at the project with the given id or name.
func (r ProjectRef) Matches(id, name string) bool {
	if r.IsZero() {
		return false
	}
	if id != "" && r.ID == id {
		return true
	}
	return name != "" && (r.Name == name || r.ID == name)
}

func (r ProjectRef) MarshalJSON() ([]byte, error) {
	if r.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID)
}

func (r *ProjectRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*r = ProjectRef{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}
	var obj struct {
		ID       string `json:"id"`
		LegacyID string `json:"_id"`
		Name     string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	r.ID = obj.ID
	if r.ID == "" {
		r.ID = obj.LegacyID
	}
	r.Name = obj.Name
	return nil
}

type Asset struct {
	ID           string     `json:"id,omitempty"`
	LegacyID     string     `json:"_id,omitempty"`
	Name         string     `json:"name"`
	Category     string     `json:"category"`
	Status       Status     `json:"status"`
	Location     string     `json:"location,omitempty"`
	PurchaseDate string     `json:"purchaseDate,omitempty"`
	AssignedTo   string     `json:"assignedTo,omitempty"`
	Project      ProjectRef `json:"project"`
	ProjectName  string     `json:"projectName,omitempty"`
	Resources    Resources  `json:"resources"`
	VMInfo       Bag        `json:"vmInfo,omitempty"`
	Specs        Bag        `json:"specs,omitempty"`
	Data         Bag        `json:"additionalData,omitempty"`
}

// Identity returns id, falling back to the legacy _id.
func (a Asset) Identity() string {
	if a.ID != "" {
		return a.ID
	}
	return a.LegacyID
}

// Assignee returns the trimmed assignee, or "" when the asset is unassigned.
func (a Asset) Assignee() string {
	name := strings.TrimSpace(a.AssignedTo)
	if name == "" || name == constants.Unassigned {
		return ""
	}
	return name
}

func (a Asset) IsServer() bool {
	return strings.EqualFold(a.Category, CategoryServers)
}

// Payload converts the asset back into the body accepted by create and update.
func (a Asset) Payload() CreatePayload {
	return CreatePayload{
		Name:           a.Name,
		Category:       a.Category,
		Status:         a.Status,
		Location:       a.Location,
		PurchaseDate:   a.PurchaseDate,
		AssignedTo:     a.AssignedTo,
		Project:        a.Project.ID,
		ProjectName:    a.ProjectName,
		Resources:      a.Resources,
		VMInfo:         a.VMInfo.Clone(),
		Specs:          a.Specs.Clone(),
		AdditionalData: a.Data.Clone(),
	}
}
