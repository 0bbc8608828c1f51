package testutil

import (
	"context"
	"nfcattend/internal/models"
	"nfcattend/internal/providers"
	"nfcattend/internal/structures"
	"sync"
	"time"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns how many entries were logged at level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.Logs {
		if l.Level == level {
			n++
		}
	}
	return n
}

// MockStore is an in-memory interfaces.StoreInterface. Setting one of the
// error fields makes the matching operation fail.
type MockStore struct {
	mu       sync.Mutex
	Doc      *models.Document
	Updated  time.Time
	LoadErr  error
	WriteErr error
	Loads    int
	Writes   int
	Imports  int
	Closed   bool
}

func NewMockStore() *MockStore {
	return &MockStore{Doc: models.NewDocument()}
}

func (m *MockStore) Kind() string { return "mock" }

func (m *MockStore) Load(_ context.Context) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Loads++
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return m.Doc.Clone(), nil
}

func (m *MockStore) Import(_ context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Imports++
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Doc.Merge(doc)
	m.Updated = time.Now()
	return nil
}

func (m *MockStore) PutRecord(_ context.Context, date, uid string, rec *models.EventRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Writes++
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Doc.PutRecord(date, uid, rec.Clone())
	m.Updated = time.Now()
	return nil
}

func (m *MockStore) PutName(_ context.Context, uid, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Writes++
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Doc.CardNames[uid] = name
	m.Updated = time.Now()
	return nil
}

func (m *MockStore) UpdatedAt(_ context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Updated, nil
}

func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// MockCache implements providers.CacheProviderInterface with a plain map.
type MockCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	Clears int
}

func NewMockCache() *MockCache {
	return &MockCache{data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func (m *MockCache) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string][]byte)
	m.Clears++
}

// MockMetrics implements providers.MetricsProviderInterface and counts the
// domain-level calls tests care about.
type MockMetrics struct {
	mu        sync.Mutex
	Events    map[string]int
	StoreOps  map[string]int
	StoreErrs map[string]int
	QueueLen  int
	Records   int
	Snapshots int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		Events:    make(map[string]int),
		StoreOps:  make(map[string]int),
		StoreErrs: make(map[string]int),
	}
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits()                                    {}
func (m *MockMetrics) IncCacheMisses()                                  {}

func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Snapshots++
}

func (m *MockMetrics) ObserveStoreOperation(op string, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoreOps[op]++
	if err != nil {
		m.StoreErrs[op]++
	}
}

func (m *MockMetrics) IncEvents(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events[kind]++
}

func (m *MockMetrics) SetQueueLength(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueueLen = n
}

func (m *MockMetrics) SetRecordsTotal(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records = count
}

// TestConfig returns a valid file-backed config rooted in dir.
func TestConfig(dir string) *structures.Config {
	return &structures.Config{
		AppName: "NFCAttendance",
		WebServer: structures.Server{
			Host: "127.0.0.1",
			Port: 5001,
		},
		Logger: structures.LoggerConfig{
			Level: "info",
			Mode:  0644,
			Dir:   dir,
		},
		Storage: structures.StorageConfig{
			Kind: structures.StoreFile,
			File: structures.FileStoreConfig{Dir: dir},
		},
		Attendance: structures.AttendanceConfig{
			Timezone:   "UTC",
			AllowWrite: true,
			QueueSize:  8,
		},
	}
}

// MockCompressor passes data through unchanged unless an error is set.
type MockCompressor struct {
	CompressErr   error
	DecompressErr error
	Closed        bool
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressErr != nil {
		return nil, m.CompressErr
	}
	return val, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressErr != nil {
		return nil, m.DecompressErr
	}
	return val, nil
}

func (m *MockCompressor) Close() {
	m.Closed = true
}
