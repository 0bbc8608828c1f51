//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"nfcattend/internal"
	"nfcattend/internal/controllers"
	"nfcattend/internal/providers"
	"nfcattend/internal/services"
	"nfcattend/internal/snapshot"
	"nfcattend/internal/storage"
	"nfcattend/internal/structures"
)

var coreSet = wire.NewSet(
	providers.NewConfigProvider,
	providers.NewLogProvider,
	providers.NewMetricsProvider,
	providers.NewInstrumentedCacheProvider,

	storage.NewZstdCompressor,
	storage.NewStoreProvider,
	services.NewAttendanceService,
	snapshot.NewFileManager,
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		coreSet,
		snapshot.NewScheduler,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}

func InitToolkit(cfg *structures.CliFlags) (*internal.Toolkit, error) {

	wire.Build(
		coreSet,
		internal.NewToolkit,
	)

	return nil, nil
}
