package modules

import (
	"fmt"

	"github.com/iota-uz/itam/modules/inventory"
	"github.com/iota-uz/itam/pkg/application"
)

// BuiltInModules returns the modules every entry point loads.
func BuiltInModules(opts *inventory.ModuleOptions) []application.Module {
	return []application.Module{
		inventory.NewModule(opts),
	}
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return fmt.Errorf("register module %s: %w", module.Name(), err)
		}
	}
	return nil
}
