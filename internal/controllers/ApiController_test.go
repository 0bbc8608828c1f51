package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"nfcattend/internal/models"
	"nfcattend/internal/services"
	"nfcattend/internal/testutil"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type controllerFixture struct {
	ac      *ApiController
	service services.AttendanceServiceInterface
	store   *testutil.MockStore
	cache   *testutil.MockCache
	logger  *testutil.MockLogger
}

func newControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()
	conf := testutil.TestConfig(t.TempDir())
	f := &controllerFixture{
		store:  testutil.NewMockStore(),
		cache:  testutil.NewMockCache(),
		logger: &testutil.MockLogger{},
	}
	f.service = services.NewAttendanceService(conf, f.store, f.cache, testutil.NewMockMetrics(), f.logger)
	f.ac = NewApiController(conf, f.logger, f.service, f.cache)
	return f
}

func call(h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func today() string {
	return time.Now().UTC().Format(models.DateLayout)
}

// --- toggle and sign-in ---

func TestToggle_SignsInThenOut(t *testing.T) {
	f := newControllerFixture(t)

	rr := call(f.ac.Toggle, http.MethodPost, "/api/toggle", `{"uid":"A1"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeBody(t, rr)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, true, resp["record"].(map[string]any)["signed_in"])

	rr = call(f.ac.Toggle, http.MethodPost, "/api/toggle", `{"uid":"A1"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, false, decodeBody(t, rr)["record"].(map[string]any)["signed_in"])
}

func TestToggle_MissingUID(t *testing.T) {
	f := newControllerFixture(t)

	rr := call(f.ac.Toggle, http.MethodPost, "/api/toggle", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	resp := decodeBody(t, rr)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "UID is required", resp["error"])
}

func TestToggle_InvalidJSON(t *testing.T) {
	f := newControllerFixture(t)

	rr := call(f.ac.Toggle, http.MethodPost, "/api/toggle", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestToggle_InvalidDate(t *testing.T) {
	f := newControllerFixture(t)

	rr := call(f.ac.Toggle, http.MethodPost, "/api/toggle", `{"uid":"A1","date":"01/15/2024"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestToggle_StoreFailureIs500(t *testing.T) {
	f := newControllerFixture(t)
	f.store.WriteErr = errors.New("disk full")

	rr := call(f.ac.Toggle, http.MethodPost, "/api/toggle", `{"uid":"A1"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, decodeBody(t, rr)["error"], "disk full")
	assert.Equal(t, 1, f.logger.Count("error"))
}

func TestToggle_OversizedBody(t *testing.T) {
	f := newControllerFixture(t)
	big := `{"uid":"` + strings.Repeat("a", maxRequestBodySize+1) + `"}`

	rr := call(f.ac.Toggle, http.MethodPost, "/api/toggle", big)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRecordSignIn_Message(t *testing.T) {
	f := newControllerFixture(t)
	f.store.Doc.CardNames["A1"] = "Ana"

	rr := call(f.ac.RecordSignIn, http.MethodPost, "/api/record-sign-in", `{"uid":"A1"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeBody(t, rr)
	assert.Equal(t, "Sign-in recorded for Ana", resp["message"])
	assert.Equal(t, "Ana", resp["name"])

	rr = call(f.ac.RecordSignIn, http.MethodPost, "/api/record-sign-in", `{"uid":"B2"}`)
	assert.Equal(t, "Sign-in recorded for B2", decodeBody(t, rr)["message"])
}

func TestManualSignIn_SavesName(t *testing.T) {
	f := newControllerFixture(t)

	rr := call(f.ac.ManualSignIn, http.MethodPost, "/api/manual-sign-in", `{"uid":"A1","name":"Ana","date":"2024-01-10"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Ana", f.store.Doc.CardNames["A1"])
	_, ok := f.store.Doc.Record("2024-01-10", "A1")
	assert.True(t, ok)
}

// --- reader events ---

func TestCardDetectedAndPoll(t *testing.T) {
	f := newControllerFixture(t)
	f.store.Doc.CardNames["A1"] = "Ana"

	rr := call(f.ac.CardDetected, http.MethodPost, "/api/card-detected", `{"uid":"A1"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	update := decodeBody(t, rr)["update"].(map[string]any)
	assert.Equal(t, models.CardDetected, update["status"])
	assert.Equal(t, "Ana", update["name"])

	rr = call(f.ac.ReaderStatus, http.MethodGet, "/api/status", "")
	reader := decodeBody(t, rr)["reader"].(map[string]any)
	assert.Equal(t, true, reader["cardPresent"])

	rr = call(f.ac.PollStatus, http.MethodGet, "/api/poll-status", "")
	polled := decodeBody(t, rr)["update"].(map[string]any)
	assert.Equal(t, "A1", polled["uid"])

	rr = call(f.ac.PollStatus, http.MethodGet, "/api/poll-status", "")
	resp := decodeBody(t, rr)
	assert.Equal(t, true, resp["success"])
	assert.Nil(t, resp["update"])
}

func TestCardRemoved(t *testing.T) {
	f := newControllerFixture(t)

	rr := call(f.ac.CardRemoved, http.MethodPost, "/api/card-removed", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, models.CardRemoved, decodeBody(t, rr)["update"].(map[string]any)["status"])
}

// --- names ---

func TestSaveAndGetCardName(t *testing.T) {
	f := newControllerFixture(t)

	rr := call(f.ac.SaveCardName, http.MethodPost, "/api/save-card-name", `{"uid":"A1","name":" Ana "}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Card name 'Ana' saved successfully", decodeBody(t, rr)["message"])

	rr = call(f.ac.GetCardName, http.MethodGet, "/api/get-card-name?uid=A1", "")
	assert.Equal(t, "Ana", decodeBody(t, rr)["name"])

	rr = call(f.ac.GetCardName, http.MethodGet, "/api/get-card-name?uid=ZZ", "")
	resp := decodeBody(t, rr)
	assert.Contains(t, resp, "name")
	assert.Nil(t, resp["name"])

	rr = call(f.ac.GetAllCardNames, http.MethodGet, "/api/get-all-card-names", "")
	names := decodeBody(t, rr)["cardNames"].(map[string]any)
	assert.Equal(t, "Ana", names["A1"])
}

func TestSaveCardName_Validation(t *testing.T) {
	f := newControllerFixture(t)

	rr := call(f.ac.SaveCardName, http.MethodPost, "/api/save-card-name", `{"uid":"A1","name":""}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Name cannot be empty", decodeBody(t, rr)["error"])

	rr = call(f.ac.GetCardName, http.MethodGet, "/api/get-card-name", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// --- read views and caching ---

func TestPersonProfile_CachedUntilWrite(t *testing.T) {
	f := newControllerFixture(t)
	f.store.Doc.CardNames["A1"] = "Ana"

	rr := call(f.ac.PersonProfile, http.MethodGet, "/api/person-profile?uid=A1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	profile := decodeBody(t, rr)["profile"].(map[string]any)
	assert.Equal(t, "Ana", profile["name"])
	assert.Contains(t, profile, "attendanceHistory")
	loads := f.store.Loads

	call(f.ac.PersonProfile, http.MethodGet, "/api/person-profile?uid=A1", "")
	assert.Equal(t, loads, f.store.Loads, "second read served from cache")

	call(f.ac.Toggle, http.MethodPost, "/api/toggle", `{"uid":"A1"}`)
	rr = call(f.ac.PersonProfile, http.MethodGet, "/api/person-profile?uid=A1", "")
	profile = decodeBody(t, rr)["profile"].(map[string]any)
	assert.Equal(t, float64(1), profile["daysAttended"])
}

func TestPersonProfile_DegradedNotCached(t *testing.T) {
	f := newControllerFixture(t)
	f.store.Doc.CardNames["A1"] = "Ana"
	f.store.LoadErr = errors.New("unreachable")

	rr := call(f.ac.PersonProfile, http.MethodGet, "/api/person-profile?uid=A1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	profile := decodeBody(t, rr)["profile"].(map[string]any)
	assert.Equal(t, "A1", profile["name"])
	assert.Equal(t, float64(0), profile["totalDays"])
	_, cached := f.cache.Get("profile:A1")
	assert.False(t, cached)

	f.store.LoadErr = nil
	rr = call(f.ac.PersonProfile, http.MethodGet, "/api/person-profile?uid=A1", "")
	profile = decodeBody(t, rr)["profile"].(map[string]any)
	assert.Equal(t, "Ana", profile["name"])
}

func TestPersonProfile_MissingUID(t *testing.T) {
	f := newControllerFixture(t)

	rr := call(f.ac.PersonProfile, http.MethodGet, "/api/person-profile", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAttendanceStatus(t *testing.T) {
	f := newControllerFixture(t)
	f.store.Doc.CardNames["A1"] = "Ana"
	f.store.Doc.CardNames["B2"] = "Ben"
	call(f.ac.Toggle, http.MethodPost, "/api/toggle", `{"uid":"B2"}`)

	rr := call(f.ac.AttendanceStatus, http.MethodGet, "/api/attendance-status", "")
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeBody(t, rr)
	assert.Equal(t, today(), resp["date"])
	assert.Equal(t, float64(2), resp["total"])
	assert.Equal(t, float64(1), resp["signedIn"])
	entries := resp["attendance"].([]any)
	assert.Equal(t, "Ana", entries[0].(map[string]any)["name"])

	rr = call(f.ac.AttendanceStatus, http.MethodGet, "/api/attendance-status?date=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDates(t *testing.T) {
	f := newControllerFixture(t)
	f.store.Doc.Attendance["2024-01-01"] = models.DayMap{}
	f.store.Doc.Attendance["2024-02-01"] = models.DayMap{}

	rr := call(f.ac.Dates, http.MethodGet, "/api/dates", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []any{"2024-02-01", "2024-01-01"}, decodeBody(t, rr)["dates"])
}

func TestDates_LoadFailureNotCached(t *testing.T) {
	f := newControllerFixture(t)
	f.store.LoadErr = errors.New("timeout")

	rr := call(f.ac.Dates, http.MethodGet, "/api/dates", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	_, cached := f.cache.Get("dates")
	assert.False(t, cached)
}

// --- document transfer ---

func TestFetchAttendance(t *testing.T) {
	f := newControllerFixture(t)
	f.store.Doc.Attendance["2024-01-01"] = models.DayMap{"A1": {SignedIn: true}}
	f.store.Doc.CardNames["A1"] = "Ana"

	rr := call(f.ac.FetchAttendance, http.MethodGet, "/api/fetch-attendance", "")
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeBody(t, rr)
	assert.Equal(t, true, resp["success"])
	assert.Contains(t, resp["attendance"], "2024-01-01")
	assert.Equal(t, "Ana", resp["cardNames"].(map[string]any)["A1"])
	source := resp["source"].(map[string]any)
	assert.Equal(t, "mock", source["kind"])
	assert.Nil(t, source["updatedAt"])
}

func TestSaveAttendance_AcceptsFetchEnvelope(t *testing.T) {
	f := newControllerFixture(t)
	body := `{"success":true,"attendance":{"2024-01-01":{"A1":{"signed_in":false,"hours":2}}},"cardNames":{"A1":"Ana"}}`

	rr := call(f.ac.SaveAttendance, http.MethodPost, "/api/save-attendance", body)
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeBody(t, rr)
	assert.Equal(t, float64(1), resp["records"])

	rec, ok := f.store.Doc.Record("2024-01-01", "A1")
	require.True(t, ok)
	assert.Equal(t, 2.0, rec.Hours)
	assert.Equal(t, "Ana", f.store.Doc.CardNames["A1"])
}

func TestSaveAttendance_Errors(t *testing.T) {
	f := newControllerFixture(t)

	rr := call(f.ac.SaveAttendance, http.MethodPost, "/api/save-attendance", `[1,2`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = call(f.ac.SaveAttendance, http.MethodPost, "/api/save-attendance", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSaveAttendance_WriteDisabled(t *testing.T) {
	conf := testutil.TestConfig(t.TempDir())
	conf.Attendance.AllowWrite = false
	store := testutil.NewMockStore()
	svc := services.NewAttendanceService(conf, store, testutil.NewMockCache(), testutil.NewMockMetrics(), &testutil.MockLogger{})
	ac := NewApiController(conf, &testutil.MockLogger{}, svc, testutil.NewMockCache())

	rr := call(ac.SaveAttendance, http.MethodPost, "/api/save-attendance", `{"2024-01-01":{}}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, 0, store.Imports)
}

func TestReceiveAttendance_Gone(t *testing.T) {
	f := newControllerFixture(t)

	rr := call(f.ac.ReceiveAttendance, http.MethodPost, "/api/receive-attendance", `{}`)
	assert.Equal(t, http.StatusGone, rr.Code)
	assert.Equal(t, false, decodeBody(t, rr)["success"])
}
