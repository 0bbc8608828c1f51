package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"nfcattend/internal/models"
	"nfcattend/internal/testutil"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGitHub serves the handful of gist endpoints the store uses.
type fakeGitHub struct {
	mu      sync.Mutex
	gists   map[string]*gist
	auth    []string
	created int
	patched int
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{gists: make(map[string]*gist)}
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/gists":
		list := make([]*gist, 0, len(f.gists))
		for _, g := range f.gists {
			list = append(list, g)
		}
		_ = json.NewEncoder(w).Encode(list)
	case r.Method == http.MethodPost && r.URL.Path == "/gists":
		var in gistWrite
		_ = json.NewDecoder(r.Body).Decode(&in)
		g := &gist{ID: "new-gist", Description: in.Description, UpdatedAt: time.Now().UTC(), Files: in.Files}
		f.gists[g.ID] = g
		f.created++
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(g)
	case strings.HasPrefix(r.URL.Path, "/gists/"):
		id := strings.TrimPrefix(r.URL.Path, "/gists/")
		g, ok := f.gists[id]
		if !ok {
			http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
			return
		}
		if r.Method == http.MethodPatch {
			var in gistWrite
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &in)
			for name, file := range in.Files {
				g.Files[name] = file
			}
			g.UpdatedAt = time.Now().UTC()
			f.patched++
		}
		_ = json.NewEncoder(w).Encode(g)
	default:
		http.NotFound(w, r)
	}
}

func newTestGistStore(t *testing.T, api *fakeGitHub, id string) *GistStore {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	conf := testutil.TestConfig(t.TempDir())
	conf.Storage.Kind = "gist"
	conf.Storage.Gist.Token = "ghp_test"
	conf.Storage.Gist.ID = id
	conf.Storage.Gist.APIURL = srv.URL
	conf.Storage.Gist.Description = "Attendance backup"
	conf.Storage.Gist.Timeout = 5 * time.Second
	return NewGistStore(conf, &testutil.MockLogger{})
}

func TestGistStore_LoadByIDWithLegacyNames(t *testing.T) {
	api := newFakeGitHub()
	api.gists["abc"] = &gist{
		ID: "abc",
		Files: map[string]*gistFile{
			attendanceFile: {Content: `{"2024-01-15": {"A1": {"sign_in_time": "2024-01-15T09:00:00Z", "signed_in": true}}}`},
			cardNamesFile:  {Content: `{"A1": "Ana"}`},
		},
	}
	gs := newTestGistStore(t, api, "abc")

	doc, err := gs.Load(context.Background())
	require.NoError(t, err)
	rec, ok := doc.Record("2024-01-15", "A1")
	require.True(t, ok)
	assert.True(t, rec.SignedIn)
	assert.Equal(t, "Ana", doc.CardNames["A1"])
	assert.Equal(t, "Bearer ghp_test", api.auth[0])
}

func TestGistStore_DiscoversByDescription(t *testing.T) {
	api := newFakeGitHub()
	api.gists["other"] = &gist{ID: "other", Description: "dotfiles", Files: map[string]*gistFile{"vimrc": {Content: ""}}}
	api.gists["found"] = &gist{ID: "found", Description: "Attendance backup 2024", Files: map[string]*gistFile{}}
	gs := newTestGistStore(t, api, "")

	_, err := gs.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "found", gs.id)
}

func TestGistStore_MissingGistLoadsEmptyAndCreatesOnWrite(t *testing.T) {
	api := newFakeGitHub()
	gs := newTestGistStore(t, api, "")
	ctx := context.Background()

	doc, err := gs.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Attendance)

	require.NoError(t, gs.PutName(ctx, "A1", "Ana"))
	assert.Equal(t, 1, api.created)
	assert.Equal(t, "new-gist", gs.id)

	doc, err = gs.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ana", doc.CardNames["A1"])
}

func TestGistStore_PutRecordPatchesBothFiles(t *testing.T) {
	api := newFakeGitHub()
	api.gists["abc"] = &gist{ID: "abc", Files: map[string]*gistFile{attendanceFile: {Content: "{}"}}}
	gs := newTestGistStore(t, api, "abc")
	ctx := context.Background()

	in := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	require.NoError(t, gs.PutRecord(ctx, "2024-01-15", "A1", &models.EventRecord{SignInTime: models.NewTimestamp(in), SignedIn: true}))
	require.NoError(t, gs.PutName(ctx, "A1", "Ana"))
	assert.Equal(t, 2, api.patched)

	stored := api.gists["abc"]
	var persisted models.Document
	require.NoError(t, json.Unmarshal([]byte(stored.Files[attendanceFile].Content), &persisted))
	assert.Equal(t, models.CurrentVersion, persisted.Version)
	assert.Contains(t, stored.Files[cardNamesFile].Content, "Ana")

	updated, err := gs.UpdatedAt(ctx)
	require.NoError(t, err)
	assert.False(t, updated.IsZero())
}

func TestGistStore_APIErrorSurfaces(t *testing.T) {
	api := newFakeGitHub()
	gs := newTestGistStore(t, api, "missing")

	_, err := gs.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestGistStore_TruncatedFileFollowsRawURL(t *testing.T) {
	raw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version":2,"attendance":{"2024-03-01":{}},"card_names":{}}`))
	}))
	defer raw.Close()

	api := newFakeGitHub()
	api.gists["big"] = &gist{ID: "big", Files: map[string]*gistFile{
		attendanceFile: {Content: `{"vers`, Truncated: true, RawURL: raw.URL},
	}}
	gs := newTestGistStore(t, api, "big")

	doc, err := gs.Load(context.Background())
	require.NoError(t, err)
	assert.Contains(t, doc.Attendance, "2024-03-01")
}
