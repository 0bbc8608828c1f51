package interfaces

import (
	"context"
	"nfcattend/internal/models"
	"time"
)

// StoreInterface is implemented by every persistence backend. Writes only
// ever add or replace records and names; nothing is deleted.
type StoreInterface interface {
	Kind() string
	Load(ctx context.Context) (*models.Document, error)
	Import(ctx context.Context, doc *models.Document) error
	PutRecord(ctx context.Context, date, uid string, rec *models.EventRecord) error
	PutName(ctx context.Context, uid, name string) error
	// UpdatedAt reports the last write known to the backend, zero if unknown.
	UpdatedAt(ctx context.Context) (time.Time, error)
	Close() error
}

type CompressorInterface interface {
	Compress(val []byte) ([]byte, error)
	Decompress(val []byte) ([]byte, error)
	Close()
}
