package providers

import (
	"sync"
	"time"
)

// local mocks to avoid an import cycle with testutil

type testLogger struct {
	mu    sync.Mutex
	lines []string
	types []TypeEnum
}

func (m *testLogger) add(t TypeEnum, format string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, format)
	m.types = append(m.types, t)
}

func (m *testLogger) Errorf(t TypeEnum, format string, _ ...interface{}) { m.add(t, format) }
func (m *testLogger) Warnf(t TypeEnum, format string, _ ...interface{})  { m.add(t, format) }
func (m *testLogger) Debugf(t TypeEnum, format string, _ ...interface{}) { m.add(t, format) }
func (m *testLogger) Infof(t TypeEnum, format string, _ ...interface{})  { m.add(t, format) }
func (m *testLogger) Fatalf(t TypeEnum, format string, _ ...interface{}) { m.add(t, format) }
func (m *testLogger) Close()                                             {}

type mockMetrics struct {
	requestEndpoint string
	requestStatus   int
	requestCalls    int
	durationCalls   int
	hits            int
	misses          int
}

func (m *mockMetrics) IncRequestsTotal(endpoint string, status int) {
	m.requestEndpoint = endpoint
	m.requestStatus = status
	m.requestCalls++
}
func (m *mockMetrics) ObserveRequestDuration(_ string, _ time.Duration)         { m.durationCalls++ }
func (m *mockMetrics) IncCacheHits()                                            { m.hits++ }
func (m *mockMetrics) IncCacheMisses()                                          { m.misses++ }
func (m *mockMetrics) ObservePersistenceDuration(_ time.Duration)               {}
func (m *mockMetrics) ObserveStoreOperation(_ string, _ time.Duration, _ error) {}
func (m *mockMetrics) IncEvents(_ string)                                       {}
func (m *mockMetrics) SetQueueLength(_ int)                                     {}
func (m *mockMetrics) SetRecordsTotal(_ int)                                    {}
