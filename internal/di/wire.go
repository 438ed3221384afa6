//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideTracing,
	ProvideAWSConfig,
	ProvideStore,
	ProvideGuardedExecutor,
	ProvideExecutor,
	ProvideSchemaCache,
	ProvideNotifier,
	ProvideEngine,
	ProvideStructuralScorer,
	ProvideInterpreter,
	ProvideVerifier,
	ProvideHandlers,
	ProvideRouter,
	ProvideMCPServer,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
