package services

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/asset"
	"github.com/iota-uz/itam/pkg/authz"
	"github.com/iota-uz/itam/pkg/constants"
)

// ProjectResources is the sum of the resource snapshots allocated to a project.
type ProjectResources struct {
	ProjectID   string          `json:"projectId,omitempty"`
	ProjectName string          `json:"projectName"`
	AssetCount  int             `json:"assetCount"`
	Resources   asset.Resources `json:"resources"`
}

type ResourceService struct {
	projects *ProjectService
	assets   *AssetService
}

func NewResourceService(projects *ProjectService, assets *AssetService) *ResourceService {
	return &ResourceService{projects: projects, assets: assets}
}

// Summary totals resources per project, in project list order. Assets without a
// known project are totalled under "Unassigned", which comes last when present.
func (s *ResourceService) Summary(ctx context.Context) ([]ProjectResources, error) {
	if err := authorizeInventory(ctx, authz.ResourceView); err != nil {
		return nil, err
	}
	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, err
	}
	assets, err := s.assets.List(ctx, asset.ListParams{})
	if err != nil {
		return nil, errors.Wrap(err, "list assets for resource summary")
	}

	out := make([]ProjectResources, len(projects))
	for i, p := range projects {
		out[i] = ProjectResources{ProjectID: p.Identity(), ProjectName: p.Name}
	}
	unassigned := ProjectResources{ProjectName: constants.Unassigned}
	for _, a := range assets {
		slot := &unassigned
		for i, p := range projects {
			if a.Project.Matches(p.Identity(), p.Name) || (a.Project.IsZero() && a.ProjectName != "" && a.ProjectName == p.Name) {
				slot = &out[i]
				break
			}
		}
		slot.AssetCount++
		slot.Resources = slot.Resources.Add(a.Resources)
	}
	if unassigned.AssetCount > 0 {
		out = append(out, unassigned)
	}
	return out, nil
}

// Usage is the backend's own usage report.
func (s *ResourceService) Usage(ctx context.Context) (json.RawMessage, error) {
	return s.projects.ResourceUsage(ctx)
}
