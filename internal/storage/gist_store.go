package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"nfcattend/internal/models"
	"nfcattend/internal/providers"
	"nfcattend/internal/structures"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/oauth2"
)

var ErrGistNotFound = errors.New("no gist with attendance.json found")

type gistFile struct {
	Filename  string `json:"filename,omitempty"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated,omitempty"`
	RawURL    string `json:"raw_url,omitempty"`
}

type gist struct {
	ID          string               `json:"id"`
	Description string               `json:"description"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Files       map[string]*gistFile `json:"files"`
}

type gistWrite struct {
	Description string               `json:"description,omitempty"`
	Public      *bool                `json:"public,omitempty"`
	Files       map[string]*gistFile `json:"files"`
}

// GistStore keeps the document as attendance.json inside one GitHub gist.
// card_names.json is mirrored next to it for readers of the old layout.
type GistStore struct {
	mu          sync.Mutex
	client      *http.Client
	apiURL      string
	id          string
	description string
	loc         *time.Location
	logger      providers.Logger
	updatedAt   time.Time
}

func NewGistStore(conf *structures.Config, logger providers.Logger) *GistStore {
	gc := conf.Storage.Gist
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: gc.Token})
	client := oauth2.NewClient(context.Background(), ts)
	client.Timeout = gc.Timeout

	return &GistStore{
		client:      client,
		apiURL:      strings.TrimSuffix(gc.APIURL, "/"),
		id:          gc.ID,
		description: gc.Description,
		loc:         conf.Attendance.Location(),
		logger:      logger,
	}
}

func (gs *GistStore) Kind() string {
	return structures.StoreGist
}

func (gs *GistStore) Load(ctx context.Context) (*models.Document, error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	doc, err := gs.load(ctx)
	if errors.Is(err, ErrGistNotFound) {
		return models.NewDocument(), nil
	}
	return doc, err
}

func (gs *GistStore) Import(ctx context.Context, doc *models.Document) error {
	return gs.update(ctx, func(current *models.Document) {
		current.Merge(doc)
	})
}

func (gs *GistStore) PutRecord(ctx context.Context, date, uid string, rec *models.EventRecord) error {
	return gs.update(ctx, func(current *models.Document) {
		current.PutRecord(date, uid, rec.Clone())
	})
}

func (gs *GistStore) PutName(ctx context.Context, uid, name string) error {
	return gs.update(ctx, func(current *models.Document) {
		current.CardNames[uid] = name
	})
}

func (gs *GistStore) UpdatedAt(_ context.Context) (time.Time, error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.updatedAt, nil
}

func (gs *GistStore) Close() error {
	gs.client.CloseIdleConnections()
	return nil
}

func (gs *GistStore) update(ctx context.Context, mutate func(*models.Document)) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	doc, err := gs.load(ctx)
	missing := errors.Is(err, ErrGistNotFound)
	if err != nil && !missing {
		return err
	}
	if missing {
		doc = models.NewDocument()
	}
	mutate(doc)
	doc.Version = models.CurrentVersion

	files, err := gistFiles(doc)
	if err != nil {
		return err
	}
	if missing {
		return gs.create(ctx, files)
	}
	return gs.patch(ctx, files)
}

// load must be called with mu held.
func (gs *GistStore) load(ctx context.Context) (*models.Document, error) {
	if err := gs.resolve(ctx); err != nil {
		return nil, err
	}

	var g gist
	if err := gs.do(ctx, http.MethodGet, "/gists/"+gs.id, nil, &g); err != nil {
		return nil, err
	}
	gs.updatedAt = g.UpdatedAt

	file := g.Files[attendanceFile]
	if file == nil {
		return models.NewDocument(), nil
	}
	content, err := gs.content(ctx, file)
	if err != nil {
		return nil, err
	}
	doc, err := models.Normalize([]byte(content), gs.loc)
	if err != nil {
		gs.logger.Warnf(providers.TypeStore, "Gist %s holds malformed %s: %s", gs.id, attendanceFile, err)
	}

	if names := g.Files[cardNamesFile]; names != nil {
		content, err := gs.content(ctx, names)
		if err != nil {
			return nil, err
		}
		var legacy map[string]string
		if err := json.Unmarshal([]byte(content), &legacy); err != nil {
			gs.logger.Warnf(providers.TypeStore, "Gist %s holds malformed %s: %s", gs.id, cardNamesFile, err)
		}
		for uid, name := range legacy {
			if _, ok := doc.CardNames[uid]; !ok && name != "" {
				doc.CardNames[uid] = name
			}
		}
	}
	return doc, nil
}

// resolve finds the gist to use when no id is configured: the first one
// holding attendance.json or carrying the backup description.
func (gs *GistStore) resolve(ctx context.Context) error {
	if gs.id != "" {
		return nil
	}
	var list []gist
	if err := gs.do(ctx, http.MethodGet, "/gists?per_page=100", nil, &list); err != nil {
		return err
	}
	for _, g := range list {
		if _, ok := g.Files[attendanceFile]; ok {
			gs.id = g.ID
			return nil
		}
		if gs.description != "" && strings.Contains(g.Description, gs.description) {
			gs.id = g.ID
			return nil
		}
	}
	return ErrGistNotFound
}

func (gs *GistStore) create(ctx context.Context, files map[string]*gistFile) error {
	public := false
	var g gist
	body := gistWrite{Description: gs.description, Public: &public, Files: files}
	if err := gs.do(ctx, http.MethodPost, "/gists", body, &g); err != nil {
		return err
	}
	gs.id = g.ID
	gs.updatedAt = g.UpdatedAt
	gs.logger.Infof(providers.TypeStore, "Created attendance gist %s", g.ID)
	return nil
}

func (gs *GistStore) patch(ctx context.Context, files map[string]*gistFile) error {
	var g gist
	if err := gs.do(ctx, http.MethodPatch, "/gists/"+gs.id, gistWrite{Files: files}, &g); err != nil {
		return err
	}
	gs.updatedAt = g.UpdatedAt
	return nil
}

// content returns a file body, following raw_url when the API truncated it.
func (gs *GistStore) content(ctx context.Context, f *gistFile) (string, error) {
	if !f.Truncated || f.RawURL == "" {
		return f.Content, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.RawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := gs.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gist raw fetch failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gist raw fetch failed (%d): %s", resp.StatusCode, string(body))
	}
	return string(body), nil
}

func (gs *GistStore) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, gs.apiURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := gs.client.Do(req)
	if err != nil {
		return fmt.Errorf("github %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("github %s %s failed (%d): %s", method, path, resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func gistFiles(doc *models.Document) (map[string]*gistFile, error) {
	attendance, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	names, err := json.MarshalIndent(doc.CardNames, "", "  ")
	if err != nil {
		return nil, err
	}
	return map[string]*gistFile{
		attendanceFile: {Content: string(attendance)},
		cardNamesFile:  {Content: string(names)},
	}, nil
}
