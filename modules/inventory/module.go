package inventory

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/iota-uz/itam/modules/inventory/handlers"
	"github.com/iota-uz/itam/modules/inventory/infrastructure/api"
	"github.com/iota-uz/itam/modules/inventory/infrastructure/cache"
	"github.com/iota-uz/itam/modules/inventory/infrastructure/persistence"
	"github.com/iota-uz/itam/modules/inventory/presentation/controllers"
	"github.com/iota-uz/itam/modules/inventory/services"
	"github.com/iota-uz/itam/pkg/appstate"
	"github.com/iota-uz/itam/pkg/application"
	"github.com/iota-uz/itam/pkg/configuration"
	"github.com/iota-uz/itam/pkg/notify"
)

type ModuleOptions struct {
	Configuration *configuration.Configuration
	// State overrides the store selected by STATE_BACKEND.
	State      appstate.Store
	HTTPClient *http.Client
	Notifier   notify.Notifier
}

func NewModule(opts *ModuleOptions) application.Module {
	if opts == nil {
		opts = &ModuleOptions{}
	}
	return &Module{options: opts}
}

type Module struct {
	options *ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	conf := m.options.Configuration
	if conf == nil {
		conf = configuration.Use()
	}
	logger := app.Logger()
	bus := app.EventPublisher()

	state, err := m.state(conf)
	if err != nil {
		return err
	}
	session := appstate.NewSession(state)
	if conf.API.Token != "" && session.Token(context.Background()) == "" {
		if err := session.SetTokens(context.Background(), conf.API.Token, conf.API.RefreshToken); err != nil {
			return errors.Wrap(err, "seed session tokens")
		}
	}

	client := api.New(api.Options{
		BaseURL:         conf.API.BaseURL,
		Timeout:         conf.API.Timeout,
		HTTPClient:      m.options.HTTPClient,
		Session:         session,
		EventBus:        bus,
		Logger:          logger,
		RequestIDHeader: conf.RequestIDHeader,
	})

	aliases, err := services.LoadAliases(conf.ImportAliasesPath)
	if err != nil {
		return errors.Wrap(err, "load import aliases")
	}

	notifier := m.options.Notifier
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}

	listings := cache.NewListings(conf.Cache.Size, conf.Cache.TTL)
	listings.Subscribe(bus)
	members := persistence.NewTeamStore(state)

	projectService := services.NewProjectService(services.ProjectServiceConfig{
		Projects:           client,
		Assets:             client,
		Users:              client,
		Team:               members,
		Cache:              listings,
		State:              state,
		Publisher:          bus,
		Notifier:           notifier,
		Logger:             logger,
		DevEmailSimulation: conf.DevEmailSimulation,
	})
	assetService := services.NewAssetService(client, listings, bus, notifier, logger)
	uploader := services.NewServerUploader(client, listings, bus, notifier, logger)
	processor := services.NewCSVProcessor(client, services.NewServerValidator(aliases, logger), notifier, logger)

	app.RegisterServices(
		projectService,
		assetService,
		services.NewTeamService(projectService, client, members, bus, notifier, logger),
		services.NewUserService(client, logger),
		services.NewResourceService(projectService, assetService),
		services.NewExportService(assetService, logger),
		services.NewEnvironmentService(assetService),
		uploader,
		processor,
		services.NewImportService(processor, uploader, projectService, logger),
	)
	app.RegisterControllers(
		controllers.NewHealthController(),
		controllers.NewSessionController(app),
		controllers.NewAssetController(app),
		controllers.NewProjectController(app),
		controllers.NewImportController(app, conf.MaxUploadSize),
	)

	handlers.NewEventLogHandler(logger).Subscribe(bus)
	app.RegisterMiddleware(handlers.ActionLogMiddleware(conf.ActionLogEnabled, logger, conf.RequestIDHeader))
	return nil
}

func (m *Module) state(conf *configuration.Configuration) (appstate.Store, error) {
	if m.options.State != nil {
		return m.options.State, nil
	}
	if conf.State.Backend != "redis" {
		return appstate.NewMemoryStore(), nil
	}
	store, err := appstate.DialRedisStore(context.Background(), conf.State.RedisURL, conf.State.Prefix)
	if err != nil {
		return nil, errors.Wrap(err, "connect state store")
	}
	return store, nil
}

func (m *Module) Name() string {
	return "inventory"
}
