package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/asset"
	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/project"
	"github.com/iota-uz/itam/modules/inventory/infrastructure/spreadsheet"
	"github.com/iota-uz/itam/pkg/authz"
	"github.com/iota-uz/itam/pkg/constants"
	"github.com/iota-uz/itam/pkg/metrics"
	"github.com/iota-uz/itam/pkg/notify"
)

const maxSuggestions = 3

// ValidatedServer is one row of the import preview. Warnings is non-empty when
// the row was recovered with best-effort defaults.
type ValidatedServer struct {
	Row      int                 `json:"row"`
	Payload  asset.CreatePayload `json:"payload"`
	Warnings []string            `json:"warnings,omitempty"`
}

type ImportPreview struct {
	RunID            string              `json:"runId"`
	FileName         string              `json:"fileName"`
	ValidatedServers []ValidatedServer   `json:"validatedServers"`
	NewProjects      []string            `json:"newProjects"`
	Suggestions      map[string][]string `json:"suggestions,omitempty"`
}

// Payloads returns the row payloads in file order.
func (p *ImportPreview) Payloads() []asset.CreatePayload {
	out := make([]asset.CreatePayload, 0, len(p.ValidatedServers))
	for _, vs := range p.ValidatedServers {
		out = append(out, vs.Payload)
	}
	return out
}

// CSVProcessor reads a spreadsheet and validates every row against the current
// project list. It never creates anything.
type CSVProcessor struct {
	projects  ProjectLister
	validator *ServerValidator
	notifier  notify.Notifier
	log       *logrus.Entry
}

func NewCSVProcessor(projects ProjectLister, validator *ServerValidator, notifier notify.Notifier, logger *logrus.Logger) *CSVProcessor {
	return &CSVProcessor{
		projects:  projects,
		validator: validator,
		notifier:  notifier,
		log:       componentLogger(logger, "csv-processor"),
	}
}

// Process parses f and validates each row independently. A row that fails
// validation is kept with its best-effort payload and a warning. A file that
// cannot be read fails the whole import.
func (p *CSVProcessor) Process(ctx context.Context, f spreadsheet.File) (*ImportPreview, error) {
	if err := authorizeInventory(ctx, authz.AssetImport); err != nil {
		return nil, err
	}
	sheet, err := spreadsheet.Read(f)
	if err != nil {
		return nil, reportError(p.notifier, p.log.WithField("file", f.Name), "Import failed", err, "The file could not be processed")
	}
	projects, err := p.projects.ListProjects(ctx)
	if err != nil {
		return nil, reportError(p.notifier, p.log, "Import failed", errors.Wrap(err, "list projects"), "Projects could not be loaded")
	}

	preview := &ImportPreview{
		RunID:            uuid.NewString(),
		FileName:         f.Name,
		ValidatedServers: make([]ValidatedServer, 0, len(sheet.Rows)),
	}
	log := p.log.WithFields(logrus.Fields{"run": preview.RunID, "file": f.Name})
	for i, row := range sheet.Rows {
		preview.ValidatedServers = append(preview.ValidatedServers, p.validateRow(log, i+1, row, projects))
	}
	preview.NewProjects = NewProjectNames(preview.Payloads(), projects)
	preview.Suggestions = suggestProjects(preview.NewProjects, projects)

	log.WithFields(logrus.Fields{
		"rows":        len(preview.ValidatedServers),
		"newProjects": len(preview.NewProjects),
	}).Info("import preview ready")
	return preview, nil
}

func (p *CSVProcessor) validateRow(log *logrus.Entry, n int, row spreadsheet.Row, projects []project.Project) (vs ValidatedServer) {
	vs.Row = n
	defer func() {
		if r := recover(); r != nil {
			log.WithField("row", n).Errorf("row validation panicked: %v", r)
			vs.Payload = fallbackPayload(n, row)
			vs.Warnings = append(vs.Warnings, fmt.Sprintf("row could not be read: %v", r))
			metrics.ImportRows.WithLabelValues("recovered").Inc()
		}
	}()

	payload, err := p.validator.Validate(n, row, projects)
	vs.Payload = payload
	if err != nil {
		log.WithError(err).WithField("row", n).Warn("row recovered with defaults")
		vs.Warnings = append(vs.Warnings, err.Error())
		if vs.Payload.Name == "" {
			vs.Payload.Name = fmt.Sprintf("Row %d", n)
		}
		metrics.ImportRows.WithLabelValues("recovered").Inc()
		return vs
	}
	metrics.ImportRows.WithLabelValues("validated").Inc()
	return vs
}

func fallbackPayload(n int, row spreadsheet.Row) asset.CreatePayload {
	data := make(asset.Bag, len(row))
	for k, v := range row {
		data[k] = v
	}
	payload := asset.CreatePayload{
		Name:           fmt.Sprintf("Row %d", n),
		Category:       asset.CategoryServers,
		Status:         asset.StatusOperational,
		AdditionalData: data,
	}
	payload.Normalize()
	return payload
}

// NewProjectNames lists, in first-seen order, the distinct project names of the
// payloads that are not "Unassigned" and not exactly the name of a known project.
func NewProjectNames(payloads []asset.CreatePayload, known []project.Project) []string {
	existing := make(map[string]struct{}, len(known))
	for _, p := range known {
		existing[p.Name] = struct{}{}
	}
	seen := map[string]struct{}{}
	out := []string{}
	for _, pl := range payloads {
		name := pl.ProjectName
		if name == "" || name == constants.Unassigned {
			continue
		}
		if _, ok := existing[name]; ok {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// suggestProjects finds, for each new name, up to three known projects it
// plausibly refers to.
func suggestProjects(names []string, known []project.Project) map[string][]string {
	if len(names) == 0 || len(known) == 0 {
		return nil
	}
	targets := project.Names(known)
	out := map[string][]string{}
	for _, name := range names {
		ranks := fuzzy.RankFindNormalizedFold(name, targets)
		for _, t := range targets {
			if fuzzy.MatchNormalizedFold(t, name) && !ranked(ranks, t) {
				ranks = append(ranks, fuzzy.Rank{Source: t, Target: t, Distance: fuzzy.LevenshteinDistance(name, t)})
			}
		}
		if len(ranks) == 0 {
			continue
		}
		sort.Sort(ranks)
		var picks []string
		for _, r := range ranks {
			if len(picks) == maxSuggestions {
				break
			}
			picks = append(picks, r.Target)
		}
		out[name] = picks
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func ranked(ranks fuzzy.Ranks, target string) bool {
	for _, r := range ranks {
		if r.Target == target {
			return true
		}
	}
	return false
}
