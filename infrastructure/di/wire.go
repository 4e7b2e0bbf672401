//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"widgetboard/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideRegistry,
	ProvideMetrics,
	ProvideDataFS,
	ProvideSnapshotStore,
	ProvideIdentityStore,
	ProvideClientID,
	ProvideEntityGateway,
	ProvideEngine,
	ProvideMachine,
	ProvideBoardService,
	ProvideWidgetService,
	ProvideEdgeService,
	ProvideRateLimiter,
	ProvideCache,
	ProvideCommandBus,
	ProvideQueryBus,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
