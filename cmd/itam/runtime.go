package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/itam/modules"
	"github.com/iota-uz/itam/modules/inventory"
	"github.com/iota-uz/itam/modules/inventory/services"
	"github.com/iota-uz/itam/pkg/application"
	"github.com/iota-uz/itam/pkg/composables"
	"github.com/iota-uz/itam/pkg/configuration"
	"github.com/iota-uz/itam/pkg/eventbus"
)

// runtime is the loaded application a command runs against.
type runtime struct {
	conf   *configuration.Configuration
	app    application.Application
	logger *logrus.Logger
}

func bootstrap() (*runtime, error) {
	conf := configuration.Use()
	logger := conf.Logger()
	app := application.New(&application.ApplicationOptions{
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := modules.Load(app, modules.BuiltInModules(&inventory.ModuleOptions{Configuration: conf})...); err != nil {
		return nil, withCode(exitUsage, err)
	}
	return &runtime{conf: conf, app: app, logger: logger}, nil
}

// scoped returns ctx carrying the signed-in user's role so capability checks
// apply to CLI calls the same way they apply to API requests.
func (rt *runtime) scoped(ctx context.Context) context.Context {
	if u, err := rt.users().Current(ctx); err == nil && u.Role != "" {
		ctx = composables.WithRole(ctx, u.Role)
	}
	return composables.WithLogger(ctx, logrus.NewEntry(rt.logger))
}

func (rt *runtime) users() *services.UserService {
	return rt.app.Service(services.UserService{}).(*services.UserService)
}

func (rt *runtime) assets() *services.AssetService {
	return rt.app.Service(services.AssetService{}).(*services.AssetService)
}

func (rt *runtime) projects() *services.ProjectService {
	return rt.app.Service(services.ProjectService{}).(*services.ProjectService)
}

func (rt *runtime) team() *services.TeamService {
	return rt.app.Service(services.TeamService{}).(*services.TeamService)
}

func (rt *runtime) importer() *services.ImportService {
	return rt.app.Service(services.ImportService{}).(*services.ImportService)
}

func (rt *runtime) exporter() *services.ExportService {
	return rt.app.Service(services.ExportService{}).(*services.ExportService)
}

func (rt *runtime) environments() *services.EnvironmentService {
	return rt.app.Service(services.EnvironmentService{}).(*services.EnvironmentService)
}

func (rt *runtime) resources() *services.ResourceService {
	return rt.app.Service(services.ResourceService{}).(*services.ResourceService)
}
