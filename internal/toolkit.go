package internal

import (
	"nfcattend/internal/providers"
	"nfcattend/internal/services"
	"nfcattend/internal/snapshot"
	storage "nfcattend/internal/storage/interfaces"
	"nfcattend/internal/structures"
)

// Toolkit is the server-less object graph used by maintenance commands.
type Toolkit struct {
	Conf        *structures.Config
	Logger      providers.Logger
	Service     services.AttendanceServiceInterface
	Store       storage.StoreInterface
	FileManager *snapshot.FileManager
}

func NewToolkit(conf *structures.Config, logger providers.Logger, service services.AttendanceServiceInterface, store storage.StoreInterface, fileManager *snapshot.FileManager) *Toolkit {
	return &Toolkit{
		Conf:        conf,
		Logger:      logger,
		Service:     service,
		Store:       store,
		FileManager: fileManager,
	}
}

// Close releases the store connection and flushes the log files.
func (t *Toolkit) Close() error {
	err := t.Store.Close()
	t.FileManager.Close()
	t.Logger.Close()
	return err
}
