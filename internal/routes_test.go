package internal

import (
	"net/http"
	"net/http/httptest"
	"nfcattend/internal/controllers"
	"nfcattend/internal/services"
	"nfcattend/internal/testutil"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T) *controllers.ApiController {
	t.Helper()
	conf := testutil.TestConfig(t.TempDir())
	logger := &testutil.MockLogger{}
	cache := testutil.NewMockCache()
	service := services.NewAttendanceService(conf, testutil.NewMockStore(), cache, testutil.NewMockMetrics(), logger)
	return controllers.NewApiController(conf, logger, service, cache)
}

func TestInitRoutes_RegistersAllRoutes(t *testing.T) {
	router := InitRoutes(newTestController(t))
	routes := router.GetRoutes()

	require.Len(t, routes, 16)

	urls := make([]string, len(routes))
	for i, r := range routes {
		urls[i] = r.Url
	}

	for _, u := range []string{
		"/api/fetch-attendance",
		"/api/save-attendance",
		"/api/receive-attendance",
		"/api/toggle",
		"/api/record-sign-in",
		"/api/manual-sign-in",
		"/api/card-detected",
		"/api/card-removed",
		"/api/poll-status",
		"/api/status",
		"/api/save-card-name",
		"/api/get-card-name",
		"/api/get-all-card-names",
		"/api/attendance-status",
		"/api/dates",
		"/api/person-profile",
	} {
		assert.Contains(t, urls, u)
	}
}

func TestInitRoutes_MethodEnforcement(t *testing.T) {
	router := InitRoutes(newTestController(t))

	handlers := make(map[string]http.Handler)
	for _, r := range router.GetRoutes() {
		handlers[r.Url] = r.Handler
	}

	tests := []struct {
		url    string
		method string
		status int
	}{
		{"/api/toggle", http.MethodGet, http.StatusMethodNotAllowed},
		{"/api/save-card-name", http.MethodGet, http.StatusMethodNotAllowed},
		{"/api/dates", http.MethodPost, http.StatusMethodNotAllowed},
		{"/api/person-profile", http.MethodPost, http.StatusMethodNotAllowed},
		{"/api/dates", http.MethodGet, http.StatusOK},
		{"/api/poll-status", http.MethodGet, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.url, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handlers[tt.url].ServeHTTP(rr, httptest.NewRequest(tt.method, tt.url, nil))
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestInitRoutes_ToggleThroughRouter(t *testing.T) {
	router := InitRoutes(newTestController(t))

	var toggle http.Handler
	for _, r := range router.GetRoutes() {
		if r.Url == "/api/toggle" {
			toggle = r.Handler
		}
	}
	require.NotNil(t, toggle)

	rr := httptest.NewRecorder()
	toggle.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/toggle", strings.NewReader(`{"uid":"04A1B2"}`)))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"signed_in":true`)
}
