package storage

import (
	"context"
	"errors"
	"fmt"
	"nfcattend/internal/models"
	"nfcattend/internal/providers"
	"nfcattend/internal/storage/interfaces"
	"nfcattend/internal/structures"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

const (
	attendanceFile = "attendance.json"
	cardNamesFile  = "card_names.json"
	zstdSuffix     = ".zst"
)

// FileStore keeps the whole document in one JSON file inside a directory.
// Every write is a read-modify-write under the store mutex followed by an
// atomic rename, so readers never see a half-written file.
type FileStore struct {
	mu         sync.Mutex
	dir        string
	mode       os.FileMode
	compressor interfaces.CompressorInterface
	loc        *time.Location
	logger     providers.Logger
}

// NewFileStore creates the data directory if needed. A nil compressor stores
// plain JSON.
func NewFileStore(conf *structures.Config, compressor interfaces.CompressorInterface, logger providers.Logger) (*FileStore, error) {
	fc := conf.Storage.File
	if err := os.MkdirAll(fc.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage error creating %s: %w", fc.Dir, err)
	}
	mode := os.FileMode(fc.Mode)
	if mode == 0 {
		mode = 0o644
	}
	fs := &FileStore{
		dir:    fc.Dir,
		mode:   mode,
		loc:    conf.Attendance.Location(),
		logger: logger,
	}
	if fc.Compress {
		fs.compressor = compressor
	}
	return fs, nil
}

func (fs *FileStore) Kind() string {
	return structures.StoreFile
}

func (fs *FileStore) path() string {
	p := filepath.Join(fs.dir, attendanceFile)
	if fs.compressor != nil {
		p += zstdSuffix
	}
	return p
}

func (fs *FileStore) Load(_ context.Context) (*models.Document, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.load()
}

func (fs *FileStore) Import(_ context.Context, doc *models.Document) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	current, err := fs.load()
	if err != nil {
		return err
	}
	current.Merge(doc)
	return fs.write(current)
}

func (fs *FileStore) PutRecord(_ context.Context, date, uid string, rec *models.EventRecord) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	doc, err := fs.load()
	if err != nil {
		return err
	}
	doc.PutRecord(date, uid, rec.Clone())
	return fs.write(doc)
}

func (fs *FileStore) PutName(_ context.Context, uid, name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	doc, err := fs.load()
	if err != nil {
		return err
	}
	doc.CardNames[uid] = name
	return fs.write(doc)
}

func (fs *FileStore) UpdatedAt(_ context.Context) (time.Time, error) {
	st, err := os.Stat(fs.path())
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return st.ModTime(), nil
}

func (fs *FileStore) Close() error {
	return nil
}

// load reads the document. A missing file is an empty document; an
// unreadable one is moved aside to *.corrupt and replaced by an empty one.
func (fs *FileStore) load() (*models.Document, error) {
	path := fs.path()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fs.withLegacyNames(models.NewDocument()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage error reading %s: %w", path, err)
	}

	if fs.compressor != nil && len(data) > 0 {
		data, err = fs.compressor.Decompress(data)
		if err != nil {
			fs.quarantine(path, err)
			return models.NewDocument(), nil
		}
	}

	doc, err := models.Normalize(data, fs.loc)
	if err != nil {
		fs.quarantine(path, err)
		return models.NewDocument(), nil
	}
	return fs.withLegacyNames(doc), nil
}

func (fs *FileStore) quarantine(path string, cause error) {
	backup := path + ".corrupt"
	if err := os.Rename(path, backup); err != nil {
		fs.logger.Errorf(providers.TypeStore, "Unreadable %s and backup failed: %s (%s)", path, cause, err)
		return
	}
	fs.logger.Warnf(providers.TypeStore, "Unreadable %s backed up to %s: %s", path, backup, cause)
}

// withLegacyNames fills in names from a card_names.json kept by older
// deployments. Names already in the document win.
func (fs *FileStore) withLegacyNames(doc *models.Document) *models.Document {
	data, err := os.ReadFile(filepath.Join(fs.dir, cardNamesFile))
	if err != nil {
		return doc
	}
	var names map[string]string
	if err := json.Unmarshal(data, &names); err != nil {
		fs.logger.Warnf(providers.TypeStore, "Ignoring malformed %s: %s", cardNamesFile, err)
		return doc
	}
	for uid, name := range names {
		if _, ok := doc.CardNames[uid]; !ok && name != "" {
			doc.CardNames[uid] = name
		}
	}
	return doc
}

func (fs *FileStore) write(doc *models.Document) error {
	doc.Version = models.CurrentVersion

	var data []byte
	var err error
	if fs.compressor != nil {
		data, err = json.Marshal(doc)
	} else {
		data, err = json.MarshalIndent(doc, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("storage error marshalling document: %w", err)
	}
	if fs.compressor != nil {
		if data, err = fs.compressor.Compress(data); err != nil {
			return fmt.Errorf("storage error compressing document: %w", err)
		}
	}
	return writeAtomic(fs.path(), data, fs.mode)
}

func writeAtomic(path string, data []byte, mode os.FileMode) error {
	tmpFile := path + ".tmp"
	file, err := os.OpenFile(tmpFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return fmt.Errorf("storage error creating temp file: %w", err)
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return fmt.Errorf("storage error writing temp file: %w", err)
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return fmt.Errorf("storage error syncing temp file: %w", err)
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("storage error closing temp file: %w", err)
	}

	if err = os.Rename(tmpFile, path); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}
