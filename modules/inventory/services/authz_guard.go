package services

import (
	"context"

	"github.com/iota-uz/itam/pkg/authz"
	"github.com/iota-uz/itam/pkg/composables"
)

var authorizeInventoryFn = defaultAuthorizeInventory

func authorizeInventory(ctx context.Context, capability string) error {
	return authorizeInventoryFn(ctx, capability)
}

// Calls without a role in the context come from the CLI or background work and
// are not gated; the HTTP stack always sets one.
func defaultAuthorizeInventory(ctx context.Context, capability string) error {
	role, ok := composables.UseRole(ctx)
	if !ok {
		return nil
	}
	return authz.Use().Authorize(ctx, role, capability)
}
