package fields

import (
	"strings"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/asset"
)

// Resolver looks up one logical field across the three bags of an asset.
//
// Search order, first non-blank value wins:
//  1. primary keys, exact, in VMInfo, then AdditionalData, then Specs
//  2. primary keys, case-insensitive, in AdditionalData, then Specs
//  3. fallback keys, exact, each key tried in VMInfo, AdditionalData, Specs
//  4. Name for "vm"/"name" keys, Location for "datacenter"/"location" keys
//  5. the default
type Resolver struct {
	VMInfo         asset.Bag
	AdditionalData asset.Bag
	Specs          asset.Bag
	Name           string
	Location       string
}

// ForAsset builds a Resolver over a.
func ForAsset(a asset.Asset) Resolver {
	return Resolver{
		VMInfo:         a.VMInfo,
		AdditionalData: a.Data,
		Specs:          a.Specs,
		Name:           a.Name,
		Location:       a.Location,
	}
}

// Value returns the first non-blank value for the logical field named by primary
// and fallback keys, following the Resolver search order, or def when none is found.
func (r Resolver) Value(primary, fallback []string, def string) string {
	for _, bag := range []asset.Bag{r.VMInfo, r.AdditionalData, r.Specs} {
		for _, key := range primary {
			if v, ok := accept(bag.Text(key)); ok {
				return v
			}
		}
	}
	for _, bag := range []asset.Bag{r.AdditionalData, r.Specs} {
		for _, key := range primary {
			if v, ok := accept(bag.TextFold(key)); ok {
				return v
			}
		}
	}
	for _, key := range fallback {
		for _, bag := range []asset.Bag{r.VMInfo, r.AdditionalData, r.Specs} {
			if v, ok := accept(bag.Text(key)); ok {
				return v
			}
		}
	}
	if v, ok := r.assetLevel(primary, fallback); ok {
		return v
	}
	return def
}

func (r Resolver) assetLevel(keyLists ...[]string) (string, bool) {
	for _, keys := range keyLists {
		for _, key := range keys {
			switch strings.ToLower(key) {
			case "vm", "name":
				if v, ok := accept(r.Name, true); ok {
					return v, true
				}
			case "datacenter", "location":
				if v, ok := accept(r.Location, true); ok {
					return v, true
				}
			}
		}
	}
	return "", false
}

func accept(v string, ok bool) (string, bool) {
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// Common field lookups used by exports and detail views.
var (
	IPAddress   = Lookup{Primary: []string{"ipAddress", "ip_address", "ip"}, Fallback: []string{"IP Address", "IP"}}
	Hostname    = Lookup{Primary: []string{"vm", "hostname"}, Fallback: []string{"Server Name", "server_name", "Hostname", "name"}}
	Location    = Lookup{Primary: []string{"datacenter"}, Fallback: []string{"Datacenter", "location"}}
	OS          = Lookup{Primary: []string{"os", "operatingSystem"}, Fallback: []string{"OS", "Operating System"}}
	Cluster     = Lookup{Primary: []string{"cluster"}, Fallback: []string{"Cluster"}}
	Host        = Lookup{Primary: []string{"host"}, Fallback: []string{"Host"}}
	PowerState  = Lookup{Primary: []string{"powerState", "power_state"}, Fallback: []string{"Power State", "Powerstate"}}
	Environment = Lookup{Primary: []string{"environment"}, Fallback: []string{"env", "Environment"}}
)

// Lookup is a named primary/fallback key set.
type Lookup struct {
	Primary  []string
	Fallback []string
}

func (l Lookup) In(r Resolver, def string) string {
	return r.Value(l.Primary, l.Fallback, def)
}
