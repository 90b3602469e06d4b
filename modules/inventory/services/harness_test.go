package services

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/project"
	"github.com/iota-uz/itam/modules/inventory/infrastructure/cache"
	"github.com/iota-uz/itam/modules/inventory/infrastructure/persistence"
	"github.com/iota-uz/itam/pkg/appstate"
	"github.com/iota-uz/itam/pkg/eventbus"
	"github.com/iota-uz/itam/pkg/notify"
)

type harness struct {
	backend  *fakeBackend
	notifier *notify.Recorder
	bus      eventbus.EventBus
	cache    *cache.Listings
	state    appstate.Store
	team     *persistence.TeamStore
	logger   *logrus.Logger

	projects *ProjectService
	assets   *AssetService
	members  *TeamService
	uploader *ServerUploader
	importer *ImportService
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newHarness(t *testing.T, projects ...project.Project) *harness {
	t.Helper()
	h := &harness{
		backend:  newFakeBackend(),
		notifier: notify.NewRecorder(),
		cache:    cache.NewListings(16, time.Minute),
		state:    appstate.NewMemoryStore(),
		logger:   quietLogger(),
	}
	h.backend.projects = append(h.backend.projects, projects...)
	h.bus = eventbus.NewEventPublisher(h.logger)
	h.team = persistence.NewTeamStore(h.state)
	h.projects = NewProjectService(ProjectServiceConfig{
		Projects:           h.backend,
		Assets:             h.backend,
		Users:              h.backend,
		Team:               h.team,
		Cache:              h.cache,
		State:              h.state,
		Publisher:          h.bus,
		Notifier:           h.notifier,
		Logger:             h.logger,
		DevEmailSimulation: true,
	})
	h.assets = NewAssetService(h.backend, h.cache, h.bus, h.notifier, h.logger)
	h.members = NewTeamService(h.projects, h.backend, h.team, h.bus, h.notifier, h.logger)
	h.uploader = NewServerUploader(h.backend, h.cache, h.bus, h.notifier, h.logger)
	processor := NewCSVProcessor(h.backend, NewServerValidator(DefaultImportAliases(), h.logger), h.notifier, h.logger)
	h.importer = NewImportService(processor, h.uploader, h.projects, h.logger)
	return h
}
