package snapshot

import (
	"context"
	"fmt"
	"nfcattend/internal/models"
	"nfcattend/internal/providers"
	"nfcattend/internal/storage/interfaces"
	"nfcattend/internal/structures"
	"os"
	"time"

	json "github.com/goccy/go-json"
)

// FileManager copies the whole attendance document between the active store
// and a zstd-compressed snapshot file.
type FileManager struct {
	store      interfaces.StoreInterface
	compressor interfaces.CompressorInterface
	loc        *time.Location
	logger     providers.Logger
}

func NewFileManager(conf *structures.Config, compressor interfaces.CompressorInterface, store interfaces.StoreInterface, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		store:      store,
		loc:        conf.Attendance.Location(),
		logger:     logger,
	}
}

func (f *FileManager) SaveToFile(ctx context.Context, fileName string) error {
	doc, err := f.store.Load(ctx)
	if err != nil {
		return err
	}
	doc.Version = models.CurrentVersion

	jsonData, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

// LoadFromFile reads a snapshot. Plain JSON files, such as an attendance.json
// exported from an older deployment, are accepted as well.
func (f *FileManager) LoadFromFile(fileName string) (*models.Document, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}

	decompressedData, err := f.compressor.Decompress(data)
	if err != nil {
		f.logger.Warnf(providers.TypeApp, "Snapshot %s is not compressed, reading it as plain JSON", fileName)
		decompressedData = data
	}

	doc, err := models.Normalize(decompressedData, f.loc)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", fileName, err)
	}
	return doc, nil
}

// Restore merges a snapshot into the active store. Records present in both
// are replaced by the snapshot's version.
func (f *FileManager) Restore(ctx context.Context, fileName string) (*models.Document, error) {
	doc, err := f.LoadFromFile(fileName)
	if err != nil {
		return nil, err
	}
	if err := f.store.Import(ctx, doc); err != nil {
		return nil, err
	}
	f.logger.Infof(providers.TypeApp, "Restored %d dates and %d card names from %s", len(doc.Attendance), len(doc.CardNames), fileName)
	return doc, nil
}
