package storage

import (
	"fmt"
	"nfcattend/internal/providers"
	"nfcattend/internal/storage/interfaces"
	"nfcattend/internal/structures"
)

// NewStoreProvider builds the backend selected by storage.kind.
func NewStoreProvider(conf *structures.Config, compressor interfaces.CompressorInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) (interfaces.StoreInterface, error) {
	var store interfaces.StoreInterface
	var err error

	switch conf.Storage.Kind {
	case structures.StoreFile, "":
		store, err = NewFileStore(conf, compressor, logger)
	case structures.StoreGist:
		store = NewGistStore(conf, logger)
	case structures.StorePostgres:
		store, err = NewPostgresStore(conf, logger)
	case structures.StoreRedis:
		store, err = NewRedisStore(conf, logger)
	default:
		return nil, fmt.Errorf("unknown storage kind %q", conf.Storage.Kind)
	}
	if err != nil {
		return nil, err
	}

	logger.Infof(providers.TypeApp, "Using %s attendance store", store.Kind())
	return NewInstrumentedStore(store, metrics, logger), nil
}
