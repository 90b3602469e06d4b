package services

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ImportAliases lists, per logical field, the spreadsheet headers that may carry
// it. Earlier headers win. Matching is exact first, then case-insensitive.
type ImportAliases struct {
	Name         []string `yaml:"name"`
	IP           []string `yaml:"ip"`
	Location     []string `yaml:"location"`
	Project      []string `yaml:"project"`
	Environment  []string `yaml:"environment"`
	CPU          []string `yaml:"cpu"`
	RAM          []string `yaml:"ram"`
	Disk         []string `yaml:"disk"`
	OS           []string `yaml:"os"`
	Status       []string `yaml:"status"`
	AssignedTo   []string `yaml:"assignedTo"`
	PurchaseDate []string `yaml:"purchaseDate"`
	Category     []string `yaml:"category"`
}

func DefaultImportAliases() ImportAliases {
	return ImportAliases{
		Name:         []string{"Server Name", "server_name", "name", "Name", "VM", "vm", "Hostname", "hostname"},
		IP:           []string{"IP Address", "ip_address", "IP", "ipAddress", "ip"},
		Location:     []string{"location", "Location", "datacenter", "Datacenter"},
		Project:      []string{"project", "Project", "projet", "environment", "env", "classification"},
		Environment:  []string{"environment", "Environment", "env"},
		CPU:          []string{"cpu_cores", "CPUs", "CPU Count", "cpu", "CPU"},
		RAM:          []string{"ram_total", "Memory Size", "RAM", "ram", "memory"},
		Disk:         []string{"disk_total", "Provisioned MB", "Storage", "disk", "Disk"},
		OS:           []string{"os", "OS", "Operating System", "Guest OS"},
		Status:       []string{"status", "Status"},
		AssignedTo:   []string{"assignedTo", "Assigned To", "owner", "Owner"},
		PurchaseDate: []string{"purchaseDate", "Purchase Date"},
		Category:     []string{"category", "Category"},
	}
}

// LoadAliases reads a YAML file of extra headers and puts them ahead of the
// defaults. An empty path returns the defaults.
func LoadAliases(path string) (ImportAliases, error) {
	aliases := DefaultImportAliases()
	if path == "" {
		return aliases, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return aliases, errors.Wrap(err, "read import aliases")
	}
	var extra ImportAliases
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return aliases, errors.Wrapf(err, "parse import aliases %s", path)
	}
	return aliases.Merge(extra), nil
}

// Merge returns a copy with extra's headers in front of a's, without duplicates.
func (a ImportAliases) Merge(extra ImportAliases) ImportAliases {
	return ImportAliases{
		Name:         prepend(extra.Name, a.Name),
		IP:           prepend(extra.IP, a.IP),
		Location:     prepend(extra.Location, a.Location),
		Project:      prepend(extra.Project, a.Project),
		Environment:  prepend(extra.Environment, a.Environment),
		CPU:          prepend(extra.CPU, a.CPU),
		RAM:          prepend(extra.RAM, a.RAM),
		Disk:         prepend(extra.Disk, a.Disk),
		OS:           prepend(extra.OS, a.OS),
		Status:       prepend(extra.Status, a.Status),
		AssignedTo:   prepend(extra.AssignedTo, a.AssignedTo),
		PurchaseDate: prepend(extra.PurchaseDate, a.PurchaseDate),
		Category:     prepend(extra.Category, a.Category),
	}
}

func prepend(front, back []string) []string {
	out := make([]string, 0, len(front)+len(back))
	seen := make(map[string]struct{}, len(front)+len(back))
	for _, list := range [][]string{front, back} {
		for _, h := range list {
			if _, ok := seen[h]; ok || h == "" {
				continue
			}
			seen[h] = struct{}{}
			out = append(out, h)
		}
	}
	return out
}
