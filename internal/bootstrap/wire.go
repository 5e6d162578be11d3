//go:build wireinject

package bootstrap

import (
	"context"
	"net/http"

	"fxrates-adapter/internal/application"

	"github.com/google/wire"
)

var infraSet = wire.NewSet(
	ProvideLogger,
	ProvideConfig,
	ProvideTelemetry,
	ProvideStorage,
	ProvideCacheConnector,
	ProvideDatabaseProvider,
	ProvideRegistry,
)

// API injector: builds the HTTP handler + Cleanup
func InitAPI(ctx context.Context) (http.Handler, func(), error) {
	wire.Build(
		infraSet,
		ProvideServer,
		ProvideHandler,
	)
	return nil, nil, nil
}

// Worker injector: builds application.Worker + Cleanup
func InitWorker(ctx context.Context) (application.Worker, func(), error) {
	wire.Build(
		infraSet,
		ProvideWorker,
	)
	return nil, nil, nil
}
