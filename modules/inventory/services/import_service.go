package services

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/asset"
	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/project"
	"github.com/iota-uz/itam/modules/inventory/infrastructure/spreadsheet"
	"github.com/iota-uz/itam/pkg/authz"
	"github.com/iota-uz/itam/pkg/constants"
	"github.com/iota-uz/itam/pkg/serrors"
)

const (
	previewCapacity = 32
	previewTTL      = 30 * time.Minute
)

var ErrPreviewExpired = serrors.NewError("IMPORT_PREVIEW_EXPIRED", "The import preview has expired, upload the file again", "Import.Errors.PreviewExpired")

type ApplyOptions struct {
	// CreateProjects creates the preview's new projects before uploading and
	// links the rows to them.
	CreateProjects bool
}

type ApplyResult struct {
	UploadResult
	CreatedProjects []string `json:"createdProjects,omitempty"`
	ProjectErrors   []string `json:"projectErrors,omitempty"`
}

// ImportService runs the bulk import: preview, then apply.
type ImportService struct {
	processor *CSVProcessor
	uploader  *ServerUploader
	projects  *ProjectService
	previews  *expirable.LRU[string, *ImportPreview]
	log       *logrus.Entry
}

func NewImportService(processor *CSVProcessor, uploader *ServerUploader, projects *ProjectService, logger *logrus.Logger) *ImportService {
	return &ImportService{
		processor: processor,
		uploader:  uploader,
		projects:  projects,
		previews:  expirable.NewLRU[string, *ImportPreview](previewCapacity, nil, previewTTL),
		log:       componentLogger(logger, "import"),
	}
}

// Preview validates f and keeps the result for ApplyRun.
func (s *ImportService) Preview(ctx context.Context, f spreadsheet.File) (*ImportPreview, error) {
	preview, err := s.processor.Process(ctx, f)
	if err != nil {
		return nil, err
	}
	s.previews.Add(preview.RunID, preview)
	return preview, nil
}

// ApplyRun applies a preview produced earlier by Preview. A run is applied at most
// once: it is claimed before the upload and put back only when Apply fails before
// uploading anything.
func (s *ImportService) ApplyRun(ctx context.Context, runID string, opts ApplyOptions) (*ApplyResult, error) {
	preview, ok := s.previews.Peek(runID)
	if !ok || !s.previews.Remove(runID) {
		return nil, ErrPreviewExpired.WithTemplateData(map[string]string{"runId": runID})
	}
	result, err := s.Apply(ctx, preview, opts)
	if err != nil {
		s.previews.Add(runID, preview)
		return nil, err
	}
	return result, nil
}

// Apply uploads the preview's rows. Project creation failures are reported and
// the affected rows are uploaded without a project id.
func (s *ImportService) Apply(ctx context.Context, preview *ImportPreview, opts ApplyOptions) (*ApplyResult, error) {
	if err := authorizeInventory(ctx, authz.AssetImport); err != nil {
		return nil, err
	}
	if preview == nil {
		return nil, errors.New("import preview is required")
	}
	payloads := preview.Payloads()
	result := &ApplyResult{}

	if opts.CreateProjects && len(preview.NewProjects) > 0 {
		for _, name := range preview.NewProjects {
			dto := project.CreateDTO{Name: name, Manager: constants.AutoAssigned}
			if _, err := s.projects.Create(ctx, dto); err != nil {
				result.ProjectErrors = append(result.ProjectErrors, name+": "+userMessage(err, err.Error()))
				continue
			}
			result.CreatedProjects = append(result.CreatedProjects, name)
		}
		known, err := s.projects.Fresh(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "reload projects")
		}
		payloads = linkProjects(payloads, known)
	}

	s.log.WithFields(logrus.Fields{
		"run":             preview.RunID,
		"rows":            len(payloads),
		"createdProjects": len(result.CreatedProjects),
	}).Info("applying import")
	result.UploadResult = s.uploader.Upload(ctx, payloads)
	return result, nil
}

// linkProjects fills Project on rows whose ProjectName now matches a known project.
func linkProjects(payloads []asset.CreatePayload, known []project.Project) []asset.CreatePayload {
	out := make([]asset.CreatePayload, len(payloads))
	for i, p := range payloads {
		if p.Project == "" && p.ProjectName != "" && p.ProjectName != constants.Unassigned {
			if match, ok := project.FindByName(known, p.ProjectName); ok {
				p.Project = match.Identity()
				p.ProjectName = match.Name
			}
		}
		out[i] = p
	}
	return out
}
