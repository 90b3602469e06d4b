// Package environment buckets assets by deployment environment. Classification is
// recomputed from the asset's current fields on every call.
package environment

import (
	"sort"
	"strconv"
	"strings"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/asset"
)

type Label string

const (
	Production     Label = "Production"
	PCA            Label = "PCA"
	Integration    Label = "Integration"
	Infrastructure Label = "Infrastructure"
	Application    Label = "Application"
	Database       Label = "Database"
	Staging        Label = "Staging"
	Testing        Label = "Testing"
	Development    Label = "Development"
	PreProduction  Label = "PreProduction"
	Qualification  Label = "Qualification"
	Recette        Label = "Recette"
	Other          Label = "Other"
)

// Canonical is the display order.
var Canonical = []Label{
	Production, PCA, Integration, Infrastructure, Application, Database,
	Staging, Testing, Development, PreProduction, Qualification, Recette, Other,
}

var rank = func() map[Label]int {
	m := make(map[Label]int, len(Canonical))
	for i, l := range Canonical {
		m[l] = i
	}
	return m
}()

// lexicon maps lowercased additionalData.environment values.
var lexicon = map[string]Label{
	"production":    Production,
	"prod":          Production,
	"pca":           PCA,
	"integration":   Integration,
	"staging":       Staging,
	"testing":       Testing,
	"development":   Development,
	"preproduction": PreProduction,
	"qualification": Qualification,
	"recette":       Recette,
}

type flag struct {
	key   string
	label Label
}

// Legacy flags checked in vmInfo, then additionalData.
var sharedFlags = []flag{
	{"prod", Production},
	{"pca", PCA},
	{"integration", Integration},
	{"infra", Infrastructure},
	{"app", Application},
	{"db", Database},
}

// Legacy flags only ever written to additionalData.
var dataOnlyFlags = []flag{
	{"staging", Staging},
	{"testing", Testing},
	{"development", Development},
}

// Parse maps a free-text environment name through the lexicon.
func Parse(s string) (Label, bool) {
	l, ok := lexicon[strings.ToLower(strings.TrimSpace(s))]
	return l, ok
}

// IsKnown reports whether l is one of the canonical labels.
func IsKnown(l Label) bool {
	_, ok := rank[l]
	return ok
}

func Classify(a asset.Asset) Label {
	if env, ok := a.Data.Text("environment"); ok {
		if l, ok := Parse(env); ok {
			return l
		}
	}
	for _, f := range sharedFlags {
		if truthy(a.VMInfo, f.key) || truthy(a.Data, f.key) {
			return f.label
		}
	}
	for _, f := range dataOnlyFlags {
		if truthy(a.Data, f.key) {
			return f.label
		}
	}
	return Other
}

// Group buckets assets by Classify, keeping input order inside each bucket.
func Group(assets []asset.Asset) map[Label][]asset.Asset {
	out := make(map[Label][]asset.Asset)
	for _, a := range assets {
		l := Classify(a)
		out[l] = append(out[l], a)
	}
	return out
}

// Sort returns labels in canonical order, unknown labels alphabetically after.
func Sort(labels []Label) []Label {
	out := append([]Label(nil), labels...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, iKnown := rank[out[i]]
		rj, jKnown := rank[out[j]]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown != jKnown:
			return iKnown
		default:
			return out[i] < out[j]
		}
	})
	return out
}

// Labels returns the sorted keys of a grouping.
func Labels(groups map[Label][]asset.Asset) []Label {
	labels := make([]Label, 0, len(groups))
	for l := range groups {
		labels = append(labels, l)
	}
	return Sort(labels)
}

func truthy(b asset.Bag, key string) bool {
	v, ok := b.Lookup(key)
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		switch s {
		case "true", "yes", "y", "1", "x":
			return true
		}
		n, err := strconv.ParseFloat(s, 64)
		return err == nil && n != 0
	}
	return false
}

// Set returns a copy of a that classifies as l. Legacy flags are cleared; lexicon
// labels are written to additionalData.environment and the infrastructure,
// application and database buckets to their flag. Other clears everything.
func Set(a asset.Asset, l Label) asset.Asset {
	a.VMInfo = a.VMInfo.Clone()
	a.Data = a.Data.Clone()
	if a.VMInfo == nil {
		a.VMInfo = asset.Bag{}
	}
	if a.Data == nil {
		a.Data = asset.Bag{}
	}
	for _, f := range sharedFlags {
		delete(a.VMInfo, f.key)
		delete(a.Data, f.key)
	}
	for _, f := range dataOnlyFlags {
		delete(a.Data, f.key)
	}
	delete(a.Data, "environment")

	for _, f := range sharedFlags {
		if f.label == l && !inLexicon(l) {
			a.Data[f.key] = true
			return a
		}
	}
	if inLexicon(l) {
		a.Data["environment"] = string(l)
	}
	return a
}

func inLexicon(l Label) bool {
	for _, v := range lexicon {
		if v == l {
			return true
		}
	}
	return false
}
