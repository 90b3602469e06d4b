package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/wI2L/jsondiff"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/asset"
	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/project"
	"github.com/iota-uz/itam/modules/inventory/domain/environment"
	"github.com/iota-uz/itam/modules/inventory/domain/events"
	"github.com/iota-uz/itam/pkg/authz"
	"github.com/iota-uz/itam/pkg/eventbus"
	"github.com/iota-uz/itam/pkg/notify"
)

type AssetService struct {
	assets    AssetGateway
	cache     ListingCache
	publisher eventbus.EventBus
	notifier  notify.Notifier
	log       *logrus.Entry
}

func NewAssetService(assets AssetGateway, cache ListingCache, publisher eventbus.EventBus, notifier notify.Notifier, logger *logrus.Logger) *AssetService {
	return &AssetService{
		assets:    assets,
		cache:     cache,
		publisher: publisher,
		notifier:  notifier,
		log:       componentLogger(logger, "assets"),
	}
}

// List serves one of the listing endpoints, selected by params, through the cache.
func (s *AssetService) List(ctx context.Context, params asset.ListParams) ([]asset.Asset, error) {
	if err := authorizeInventory(ctx, authz.AssetView); err != nil {
		return nil, err
	}
	key := params.CacheKey()
	if s.cache != nil {
		if v, ok := s.cache.Assets(key); ok {
			return v, nil
		}
	}
	var (
		list []asset.Asset
		err  error
	)
	switch {
	case params.Project != "":
		list, err = s.assets.ListAssetsByProject(ctx, params.Project)
	case params.Category != "":
		list, err = s.assets.ListAssetsByCategory(ctx, params.Category)
	case params.Status != "":
		list, err = s.assets.ListAssetsByStatus(ctx, params.Status)
	default:
		list, err = s.assets.ListAssets(ctx)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "list assets (%s)", key)
	}
	if s.cache != nil {
		s.cache.PutAssets(key, list)
	}
	return list, nil
}

func (s *AssetService) Get(ctx context.Context, id string) (asset.Asset, error) {
	if err := authorizeInventory(ctx, authz.AssetView); err != nil {
		return asset.Asset{}, err
	}
	a, err := s.assets.GetAsset(ctx, id)
	if err != nil {
		return asset.Asset{}, notFound(err, ErrAssetNotFound, id)
	}
	return a, nil
}

func (s *AssetService) Create(ctx context.Context, payload asset.CreatePayload) (asset.Asset, error) {
	if err := authorizeInventory(ctx, authz.AssetCreate); err != nil {
		return asset.Asset{}, err
	}
	if errs, ok := payload.Ok(); !ok {
		return asset.Asset{}, reportError(s.notifier, s.log, "Asset not created", errs, "Check the form")
	}
	if err := s.guardMockProject(payload.Project, "create"); err != nil {
		return asset.Asset{}, err
	}
	created, err := s.assets.CreateAsset(ctx, payload)
	if err != nil {
		return asset.Asset{}, reportError(s.notifier, s.log, "Asset not created", err, "The asset could not be created")
	}
	s.changed(payload.Project, 1)
	s.success("Asset created", fmt.Sprintf("%s was created", created.Name))
	return created, nil
}

// Update replaces the asset and logs what changed as a JSON patch.
func (s *AssetService) Update(ctx context.Context, id string, payload asset.CreatePayload) (asset.Asset, error) {
	if err := authorizeInventory(ctx, authz.AssetEdit); err != nil {
		return asset.Asset{}, err
	}
	if errs, ok := payload.Ok(); !ok {
		return asset.Asset{}, reportError(s.notifier, s.log, "Asset not updated", errs, "Check the form")
	}
	if err := s.guardMockProject(payload.Project, "update"); err != nil {
		return asset.Asset{}, err
	}
	return s.replace(ctx, id, payload, "Asset updated")
}

func (s *AssetService) replace(ctx context.Context, id string, payload asset.CreatePayload, title string) (asset.Asset, error) {
	log := s.log.WithField("asset", id)
	if before, err := s.assets.GetAsset(ctx, id); err == nil {
		if diff, err := jsondiff.Compare(before.Payload(), payload); err == nil && len(diff) > 0 {
			if b, err := json.Marshal(diff); err == nil {
				log = log.WithField("diff", string(b))
			}
		}
	}
	updated, err := s.assets.UpdateAsset(ctx, id, payload)
	if err != nil {
		return asset.Asset{}, reportError(s.notifier, log, "Asset not updated", notFound(err, ErrAssetNotFound, id), "The asset could not be updated")
	}
	log.Info("asset updated")
	s.changed(payload.Project, 1)
	s.success(title, fmt.Sprintf("%s was updated", updated.Name))
	return updated, nil
}

func (s *AssetService) Delete(ctx context.Context, id string) error {
	if err := authorizeInventory(ctx, authz.AssetDelete); err != nil {
		return err
	}
	if err := s.assets.DeleteAsset(ctx, id); err != nil {
		return reportError(s.notifier, s.log, "Asset not deleted", notFound(err, ErrAssetNotFound, id), "The asset could not be deleted")
	}
	s.changed("", 1)
	s.success("Asset deleted", "The asset was deleted")
	return nil
}

// DeleteAllServers removes every asset in the Servers category.
func (s *AssetService) DeleteAllServers(ctx context.Context) (int, error) {
	if err := authorizeInventory(ctx, authz.AssetDeleteAll); err != nil {
		return 0, err
	}
	n, err := s.assets.DeleteAllServers(ctx)
	if err != nil {
		return 0, reportError(s.notifier, s.log, "Servers not deleted", err, "The servers could not be deleted")
	}
	s.log.WithField("deleted", n).Warn("all servers deleted")
	s.changed("", n)
	s.success("Servers deleted", fmt.Sprintf("%d servers deleted", n))
	return n, nil
}

// Assign sets the assignee and, when given, the project of an asset.
func (s *AssetService) Assign(ctx context.Context, id string, dto asset.AssignDTO) (asset.Asset, error) {
	if err := authorizeInventory(ctx, authz.AssetAssign); err != nil {
		return asset.Asset{}, err
	}
	if err := s.guardMockProject(dto.Project, "assign"); err != nil {
		return asset.Asset{}, err
	}
	current, err := s.assets.GetAsset(ctx, id)
	if err != nil {
		return asset.Asset{}, reportError(s.notifier, s.log, "Asset not assigned", notFound(err, ErrAssetNotFound, id), "The asset could not be loaded")
	}
	payload := current.Payload()
	payload.AssignedTo = dto.AssignedTo
	if dto.Project != "" {
		payload.Project = dto.Project
	}
	payload.Normalize()
	return s.replace(ctx, id, payload, "Asset assigned")
}

// ChangeEnvironment moves an asset to another environment bucket.
func (s *AssetService) ChangeEnvironment(ctx context.Context, id string, label environment.Label) (asset.Asset, error) {
	if err := authorizeInventory(ctx, authz.AssetChangeEnvironment); err != nil {
		return asset.Asset{}, err
	}
	if !environment.IsKnown(label) {
		return asset.Asset{}, reportError(s.notifier, s.log, "Environment not changed",
			errors.Errorf("unknown environment %q", label), fmt.Sprintf("Unknown environment %q", label))
	}
	current, err := s.assets.GetAsset(ctx, id)
	if err != nil {
		return asset.Asset{}, reportError(s.notifier, s.log, "Environment not changed", notFound(err, ErrAssetNotFound, id), "The asset could not be loaded")
	}
	return s.replace(ctx, id, environment.Set(current, label).Payload(), "Environment changed")
}

// guardMockProject refuses to move an asset into a demo project. Demo projects
// are read-only, so nothing reaches the backend.
func (s *AssetService) guardMockProject(projectID, op string) error {
	if !project.IsMockID(strings.TrimSpace(projectID)) {
		return nil
	}
	s.log.WithFields(logrus.Fields{"project": projectID, "op": op}).Warn("refused asset change in demo project")
	if s.notifier != nil {
		s.notifier.Error("Operation not permitted", ErrMockProject.Message)
	}
	return mockProjectError(strings.TrimSpace(projectID))
}

func (s *AssetService) changed(projectID string, n int) {
	if s.cache != nil {
		s.cache.InvalidateAssets()
	}
	if s.publisher != nil {
		s.publisher.Publish(&events.AssetsChanged{ProjectID: projectID, Count: n})
	}
}

func (s *AssetService) success(title, msg string) {
	if s.notifier != nil {
		s.notifier.Success(title, msg)
	}
}
