package storage

import (
	"context"
	"nfcattend/internal/models"
	"nfcattend/internal/providers"
	"nfcattend/internal/storage/interfaces"
	"time"
)

// InstrumentedStore times every backend call and logs failures.
type InstrumentedStore struct {
	inner   interfaces.StoreInterface
	metrics providers.MetricsProviderInterface
	logger  providers.Logger
}

func NewInstrumentedStore(inner interfaces.StoreInterface, metrics providers.MetricsProviderInterface, logger providers.Logger) interfaces.StoreInterface {
	return &InstrumentedStore{inner: inner, metrics: metrics, logger: logger}
}

func (s *InstrumentedStore) observe(op string, start time.Time, err error) {
	s.metrics.ObserveStoreOperation(op, time.Since(start), err)
	if err != nil {
		s.logger.Errorf(providers.TypeStore, "%s store %s failed: %s", s.inner.Kind(), op, err)
	}
}

func (s *InstrumentedStore) Kind() string {
	return s.inner.Kind()
}

func (s *InstrumentedStore) Load(ctx context.Context) (*models.Document, error) {
	start := time.Now()
	doc, err := s.inner.Load(ctx)
	s.observe("load", start, err)
	if err == nil {
		s.metrics.SetRecordsTotal(doc.Attendance.RecordCount())
	}
	return doc, err
}

func (s *InstrumentedStore) Import(ctx context.Context, doc *models.Document) error {
	start := time.Now()
	err := s.inner.Import(ctx, doc)
	s.observe("import", start, err)
	return err
}

func (s *InstrumentedStore) PutRecord(ctx context.Context, date, uid string, rec *models.EventRecord) error {
	start := time.Now()
	err := s.inner.PutRecord(ctx, date, uid, rec)
	s.observe("put_record", start, err)
	return err
}

func (s *InstrumentedStore) PutName(ctx context.Context, uid, name string) error {
	start := time.Now()
	err := s.inner.PutName(ctx, uid, name)
	s.observe("put_name", start, err)
	return err
}

func (s *InstrumentedStore) UpdatedAt(ctx context.Context) (time.Time, error) {
	return s.inner.UpdatedAt(ctx)
}

func (s *InstrumentedStore) Close() error {
	return s.inner.Close()
}
