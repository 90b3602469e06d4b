package services

import (
	"context"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/asset"
	"github.com/iota-uz/itam/modules/inventory/domain/environment"
)

type EnvironmentGroup struct {
	Label  environment.Label `json:"label"`
	Assets []asset.Asset     `json:"assets"`
}

type EnvironmentService struct {
	assets *AssetService
}

func NewEnvironmentService(assets *AssetService) *EnvironmentService {
	return &EnvironmentService{assets: assets}
}

// Groups buckets the project's assets by environment, in display order. An
// empty projectID groups every asset.
func (s *EnvironmentService) Groups(ctx context.Context, projectID string) ([]EnvironmentGroup, error) {
	list, err := s.assets.List(ctx, asset.ListParams{Project: projectID})
	if err != nil {
		return nil, err
	}
	return GroupByEnvironment(list), nil
}

func GroupByEnvironment(list []asset.Asset) []EnvironmentGroup {
	groups := environment.Group(list)
	out := make([]EnvironmentGroup, 0, len(groups))
	for _, l := range environment.Labels(groups) {
		out = append(out, EnvironmentGroup{Label: l, Assets: groups[l]})
	}
	return out
}

// ChangeEnvironment moves an asset to another bucket.
func (s *EnvironmentService) ChangeEnvironment(ctx context.Context, assetID string, label environment.Label) (asset.Asset, error) {
	return s.assets.ChangeEnvironment(ctx, assetID, label)
}
