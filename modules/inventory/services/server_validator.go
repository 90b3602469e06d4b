package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/asset"
	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/project"
	"github.com/iota-uz/itam/modules/inventory/domain/fields"
	"github.com/iota-uz/itam/pkg/constants"
)

// ServerValidator turns one spreadsheet row into an asset creation payload.
type ServerValidator struct {
	aliases ImportAliases
	log     *logrus.Entry
}

func NewServerValidator(aliases ImportAliases, logger *logrus.Logger) *ServerValidator {
	return &ServerValidator{aliases: aliases, log: componentLogger(logger, "server-validator")}
}

// RowError reports a row whose payload failed validation. The payload returned
// alongside it is still filled with everything that could be read.
type RowError struct {
	Row    int
	Name   string
	Reason error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d (%s): %v", e.Row, e.Name, e.Reason)
}

func (e *RowError) Unwrap() error { return e.Reason }

// Validate maps raw onto a payload. row is the 1-based data row, used in messages
// and recorded in additionalData.importRow. Projects are matched by name without
// regard to case; an unmatched name is kept in ProjectName and Project stays empty.
func (v *ServerValidator) Validate(row int, raw map[string]string, projects []project.Project) (asset.CreatePayload, error) {
	bag := make(asset.Bag, len(raw))
	for k, val := range raw {
		bag[k] = val
	}
	r := fields.Resolver{AdditionalData: bag}
	get := func(aliases []string) string { return r.Value(aliases, nil, "") }

	name := get(v.aliases.Name)
	ip := get(v.aliases.IP)
	location := get(v.aliases.Location)
	osName := get(v.aliases.OS)
	cpuRaw := get(v.aliases.CPU)
	ramRaw := get(v.aliases.RAM)
	diskRaw := get(v.aliases.Disk)
	projectRaw := get(v.aliases.Project)
	envRaw := get(v.aliases.Environment)

	resources := asset.Resources{
		CPU:  fields.ExtractNumericValue(cpuRaw),
		RAM:  fields.ConvertRAMToMB(ramRaw),
		Disk: fields.ConvertDiskToMB(diskRaw),
	}

	vmInfo := asset.Bag{}
	putText(vmInfo, "vm", name)
	putText(vmInfo, "ipAddress", ip)
	putText(vmInfo, "datacenter", location)
	putText(vmInfo, "os", osName)
	if cpuRaw != "" {
		vmInfo["cpu"] = resources.CPU
	}
	if ramRaw != "" {
		vmInfo["memory"] = resources.RAM
	}
	if diskRaw != "" {
		vmInfo["disk"] = resources.Disk
	}

	specs := asset.Bag{}
	putText(specs, "cpu", cpuRaw)
	putText(specs, "ram", ramRaw)
	putText(specs, "storage", diskRaw)
	putText(specs, "os", osName)

	data := bag.Clone()
	putText(data, "environment", envRaw)
	data["importRow"] = strconv.Itoa(row)

	payload := asset.CreatePayload{
		Name:           name,
		Category:       firstNonEmpty(get(v.aliases.Category), asset.CategoryServers),
		Status:         statusOrDefault(get(v.aliases.Status)),
		Location:       location,
		PurchaseDate:   get(v.aliases.PurchaseDate),
		AssignedTo:     firstNonEmpty(get(v.aliases.AssignedTo), constants.Unassigned),
		ProjectName:    constants.Unassigned,
		Resources:      resources,
		VMInfo:         vmInfo,
		Specs:          specs,
		AdditionalData: data,
	}

	if projectRaw != "" && !strings.EqualFold(projectRaw, constants.Unassigned) {
		if p, ok := project.FindByName(projects, projectRaw); ok {
			payload.Project = p.Identity()
			payload.ProjectName = p.Name
		} else {
			payload.ProjectName = projectRaw
		}
	}

	if errs, ok := payload.Ok(); !ok {
		v.log.WithFields(logrus.Fields{"row": row, "errors": errs}).Debug("row failed validation")
		return payload, &RowError{Row: row, Name: payload.Name, Reason: errs}
	}
	return payload, nil
}

func putText(b asset.Bag, key, value string) {
	if value != "" {
		b[key] = value
	}
}

func statusOrDefault(s string) asset.Status {
	st := asset.Status(strings.ToLower(strings.TrimSpace(s)))
	if st.IsValid() {
		return st
	}
	return asset.StatusOperational
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
