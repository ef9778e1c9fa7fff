// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests:
// in-memory fakes for every store, plus real PostgreSQL for the
// integration test, which is skipped when the database is unavailable.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"propostaflow/internal/database"
	"propostaflow/internal/document"
	"propostaflow/internal/models"
	"propostaflow/internal/session"
	"propostaflow/internal/variables"
)

// fakeTemplates implements TemplateStore and RevisionStore in memory.
type fakeTemplates struct {
	mu        sync.Mutex
	records   map[uuid.UUID]*models.TemplateRecord
	revisions []*models.TemplateRevision
	err       error
}

func newFakeTemplates() *fakeTemplates {
	return &fakeTemplates{records: make(map[uuid.UUID]*models.TemplateRecord)}
}

func (f *fakeTemplates) List(category string) ([]models.TemplateSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []models.TemplateSummary
	for _, t := range f.records {
		if category != "" && t.Category != category {
			continue
		}
		out = append(out, models.TemplateSummary{ID: t.ID, Name: t.Name, Category: t.Category, Version: t.Version})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeTemplates) FindByID(id uuid.UUID) (*models.TemplateRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.records[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTemplates) Create(t *models.TemplateRecord) (*models.TemplateRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	rec := *t
	rec.ID = uuid.New()
	rec.Version = 1
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	f.records[rec.ID] = &rec
	cp := rec
	return &cp, nil
}

func (f *fakeTemplates) Update(t *models.TemplateRecord, title string) (*models.TemplateRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	prev, ok := f.records[t.ID]
	if !ok {
		return nil, nil
	}
	f.revisions = append(f.revisions, &models.TemplateRevision{
		ID:            uuid.New(),
		TemplateID:    prev.ID,
		Version:       prev.Version,
		Name:          prev.Name,
		Content:       prev.Content,
		RevisionTitle: title,
	})
	rec := *t
	rec.Version = prev.Version + 1
	rec.CreatedAt = prev.CreatedAt
	rec.UpdatedAt = time.Now()
	f.records[rec.ID] = &rec
	cp := rec
	return &cp, nil
}

func (f *fakeTemplates) Restore(templateID, revisionID uuid.UUID) (*models.TemplateRecord, error) {
	f.mu.Lock()
	cur, ok := f.records[templateID]
	var rev *models.TemplateRevision
	for _, r := range f.revisions {
		if r.ID == revisionID && r.TemplateID == templateID {
			rev = r
		}
	}
	f.mu.Unlock()
	if !ok || rev == nil {
		return nil, nil
	}
	next := *cur
	next.Name = rev.Name
	next.Content = rev.Content
	return f.Update(&next, fmt.Sprintf("Antes de restaurar a versão %d", rev.Version))
}

func (f *fakeTemplates) Delete(id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return false, nil
	}
	delete(f.records, id)
	return true, nil
}

func (f *fakeTemplates) ListByTemplateID(templateID uuid.UUID) ([]*models.TemplateRevision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.TemplateRevision
	for i := len(f.revisions) - 1; i >= 0; i-- {
		if f.revisions[i].TemplateID == templateID {
			out = append(out, f.revisions[i])
		}
	}
	return out, nil
}

// fakeProposals implements ProposalStore.
type fakeProposals map[uuid.UUID]*variables.DataContext

func (f fakeProposals) LoadContext(id uuid.UUID) (*variables.DataContext, error) {
	return f[id], nil
}

// fakeExports implements ExportStore.
type fakeExports struct {
	mu      sync.Mutex
	exports []models.Export
}

func (f *fakeExports) Create(e *models.Export) (*models.Export, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := *e
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now()
	f.exports = append(f.exports, rec)
	return &rec, nil
}

func (f *fakeExports) ListByTemplateID(templateID uuid.UUID, limit int) ([]models.Export, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Export
	for i := len(f.exports) - 1; i >= 0 && len(out) < limit; i-- {
		if f.exports[i].TemplateID == templateID {
			out = append(out, f.exports[i])
		}
	}
	return out, nil
}

// fakeRenderCache implements RenderCache.
type fakeRenderCache struct {
	mu          sync.Mutex
	entries     map[string][]byte
	hits        int
	invalidated []string
}

func newFakeRenderCache() *fakeRenderCache {
	return &fakeRenderCache{entries: make(map[string][]byte)}
}

func (f *fakeRenderCache) Get(_ context.Context, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	html, ok := f.entries[key]
	if ok {
		f.hits++
	}
	return html, ok
}

func (f *fakeRenderCache) Set(_ context.Context, key string, html []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = html
}

func (f *fakeRenderCache) InvalidateTemplate(_ context.Context, templateID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, templateID)
	for k := range f.entries {
		if strings.HasPrefix(k, templateID+":") {
			delete(f.entries, k)
		}
	}
}

// fakeArchive implements Archive.
type fakeArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeArchive) PutDocument(_ context.Context, key string, html []byte) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = html
	return int64(len(html)), nil
}

func (f *fakeArchive) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.test/" + key + "?X-Amz-Signature=test", nil
}

// fakeSessions implements SessionStore. Data round-trips through JSON
// like it does in Valkey.
type fakeSessions struct {
	mu    sync.Mutex
	data  map[string][]byte
	next  int
	locks sync.Map
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{data: make(map[string][]byte)}
}

func (f *fakeSessions) Create(ctx context.Context, data *session.Data) (string, error) {
	f.mu.Lock()
	f.next++
	id := fmt.Sprintf("s%d", f.next)
	f.mu.Unlock()
	return id, f.Save(ctx, id, data)
}

func (f *fakeSessions) Get(_ context.Context, id string) (*session.Data, error) {
	f.mu.Lock()
	payload, ok := f.data[id]
	f.mu.Unlock()
	if !ok {
		return nil, nil
	}
	var data session.Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (f *fakeSessions) Save(_ context.Context, id string, data *session.Data) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[id] = payload
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, id)
	return nil
}

func (f *fakeSessions) Lock(id string) func() {
	m, _ := f.locks.LoadOrStore(id, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// testEnv bundles an API with its fakes.
type testEnv struct {
	api       *API
	templates *fakeTemplates
	proposals fakeProposals
	exports   *fakeExports
	cache     *fakeRenderCache
	archive   *fakeArchive
	sessions  *fakeSessions
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		templates: newFakeTemplates(),
		proposals: fakeProposals{},
		exports:   &fakeExports{},
		cache:     newFakeRenderCache(),
		archive:   &fakeArchive{objects: make(map[string][]byte)},
		sessions:  newFakeSessions(),
	}
	env.api = NewAPI(Deps{
		Templates:   env.templates,
		Revisions:   env.templates,
		Proposals:   env.proposals,
		Exports:     env.exports,
		Sessions:    env.sessions,
		RenderCache: env.cache,
		Archive:     env.archive,
		URLExpiry:   time.Hour,
	})
	env.api.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	return env
}

// seedTemplate stores tpl directly in the fake store.
func (env *testEnv) seedTemplate(t *testing.T, tpl *document.Template) *models.TemplateRecord {
	t.Helper()
	content, err := document.Encode(tpl)
	if err != nil {
		t.Fatal(err)
	}
	rec, err := env.templates.Create(&models.TemplateRecord{
		Name:     tpl.Name,
		Category: tpl.Category,
		Content:  content,
	})
	if err != nil {
		t.Fatal(err)
	}
	return rec
}

// textTemplate returns a one-page template with a single text element.
func textTemplate(t *testing.T, text string) *document.Template {
	t.Helper()
	tpl := document.New("Proposta padrão", "Comercial")
	el, err := document.NewElement(document.KindText, &tpl.Pages[0])
	if err != nil {
		t.Fatal(err)
	}
	el.SetText(text)
	tpl.Pages[0].Append(el)
	return tpl
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withChiURLParam adds chi URL parameters to a request context.
func withChiURLParam(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeBody decodes a JSON response body into v.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "propostaflow")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "propostaflow")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}
