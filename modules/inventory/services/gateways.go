package services

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/asset"
	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/project"
	"github.com/iota-uz/itam/modules/inventory/domain/team"
	"github.com/iota-uz/itam/modules/inventory/infrastructure/api"
	"github.com/iota-uz/itam/pkg/appstate"
)

// AssetCreator is the single call the upload loop needs.
type AssetCreator interface {
	CreateAsset(ctx context.Context, payload asset.CreatePayload) (asset.Asset, error)
}

type AssetGateway interface {
	AssetCreator
	ListAssets(ctx context.Context) ([]asset.Asset, error)
	ListAssetsByCategory(ctx context.Context, category string) ([]asset.Asset, error)
	ListAssetsByStatus(ctx context.Context, status asset.Status) ([]asset.Asset, error)
	ListAssetsByProject(ctx context.Context, projectID string) ([]asset.Asset, error)
	GetAsset(ctx context.Context, id string) (asset.Asset, error)
	UpdateAsset(ctx context.Context, id string, payload asset.CreatePayload) (asset.Asset, error)
	DeleteAsset(ctx context.Context, id string) error
	DeleteAllServers(ctx context.Context) (int, error)
	UpdateProjectManager(ctx context.Context, projectID, manager string) (int, error)
}

// ProjectLister fetches the current project list, bypassing any cache.
type ProjectLister interface {
	ListProjects(ctx context.Context) ([]project.Project, error)
}

type ProjectGateway interface {
	ProjectLister
	GetProject(ctx context.Context, id string) (project.Project, error)
	CreateProject(ctx context.Context, dto project.CreateDTO) (project.Project, error)
	PatchProject(ctx context.Context, id string, patch json.RawMessage) (project.Project, error)
	DeleteProject(ctx context.Context, id string) error
	ListProjectAssets(ctx context.Context, id string) ([]asset.Asset, error)
	ResourceUsage(ctx context.Context) (json.RawMessage, error)
}

type UserGateway interface {
	Login(ctx context.Context, creds api.Credentials) (appstate.User, error)
	ListUsers(ctx context.Context) ([]appstate.User, error)
	Session() *appstate.Session
}

// ListingCache is the slice of the listing cache the services touch.
type ListingCache interface {
	Assets(key string) ([]asset.Asset, bool)
	PutAssets(key string, v []asset.Asset)
	Projects() ([]project.Project, bool)
	PutProjects(v []project.Project)
	InvalidateAssets()
	InvalidateProjects()
}

// TeamMembers is the project-keyed store of manually added members.
type TeamMembers interface {
	List(ctx context.Context, projectID string) ([]team.ManualMember, error)
	Add(ctx context.Context, projectID string, m team.ManualMember) (team.ManualMember, error)
	Remove(ctx context.Context, projectID, name string) (bool, error)
	Clear(ctx context.Context, projectID string) error
}

type logEntry = *logrus.Entry

func componentLogger(logger *logrus.Logger, name string) *logrus.Entry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return logger.WithField("component", name)
}
