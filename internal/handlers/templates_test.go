package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"propostaflow/internal/document"
	"propostaflow/internal/models"
)

func TestCreateTemplate(t *testing.T) {
	env := newTestEnv(t)
	tpl := textTemplate(t, "Olá {{cliente_nome}}")

	rec := httptest.NewRecorder()
	env.api.CreateTemplate(rec, jsonRequest(t, http.MethodPost, "/api/templates", tpl))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created models.TemplateRecord
	decodeBody(t, rec, &created)
	if created.Version != 1 {
		t.Errorf("version = %d, want 1", created.Version)
	}
	if created.Name != "Proposta padrão" || created.Category != "Comercial" {
		t.Errorf("unexpected record %q / %q", created.Name, created.Category)
	}

	stored, err := document.Decode(created.Content)
	if err != nil {
		t.Fatalf("stored content does not decode: %v", err)
	}
	if got, _ := stored.Pages[0].Elements[0].Text(); got != "Olá {{cliente_nome}}" {
		t.Errorf("stored text = %q", got)
	}
}

func TestCreateTemplateValidation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantMsg  string
	}{
		{"missing name", `{"category":"Comercial","pages":[{"id":"p1","name":"Página 1"}]}`, http.StatusUnprocessableEntity, "name is required"},
		{"missing category", `{"name":"Modelo","pages":[{"id":"p1","name":"Página 1"}]}`, http.StatusUnprocessableEntity, "category is required"},
		{"duplicate element ids", `{"name":"Modelo","category":"Comercial","pages":[{"id":"p1","name":"Página 1","elements":[
			{"id":"e1","type":"line","position":{"x":0,"y":0}},
			{"id":"e1","type":"spacer","position":{"x":0,"y":10}}]}]}`, http.StatusUnprocessableEntity, "duplicate element id"},
		{"name too long", `{"name":"` + strings.Repeat("n", 201) + `","category":"Comercial"}`, http.StatusUnprocessableEntity, "too long"},
		{"malformed json", `{"name":`, http.StatusBadRequest, "invalid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			req := httptest.NewRequest(http.MethodPost, "/api/templates", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			env.api.CreateTemplate(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.wantMsg) {
				t.Errorf("expected body to mention %q, got %s", tt.wantMsg, rec.Body.String())
			}
			if len(env.templates.records) != 0 {
				t.Error("invalid template must not be stored")
			}
		})
	}
}

func TestCreateTemplateFromLegacyShape(t *testing.T) {
	env := newTestEnv(t)
	body := `{"name":"Legado","category":"Comercial","elementos":[
		{"id":"a","type":"text","content":"Um","position":{"x":10,"y":10}},
		{"id":"b","type":"line","position":{"x":10,"y":70}}],
		"configuracoes":{"width":794,"height":1123}}`

	rec := httptest.NewRecorder()
	env.api.CreateTemplate(rec, httptest.NewRequest(http.MethodPost, "/api/templates", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created models.TemplateRecord
	decodeBody(t, rec, &created)
	var wire map[string]json.RawMessage
	if err := json.Unmarshal(created.Content, &wire); err != nil {
		t.Fatal(err)
	}
	if _, ok := wire["pages"]; !ok {
		t.Error("saved content must use the pages shape")
	}
	if _, ok := wire["elementos"]; ok {
		t.Error("saved content must not keep the legacy element list")
	}
}

func TestGetTemplate(t *testing.T) {
	env := newTestEnv(t)
	stored := env.seedTemplate(t, textTemplate(t, "Conteúdo"))

	t.Run("found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", stored.ID.String())
		env.api.GetTemplate(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var got models.TemplateRecord
		decodeBody(t, rec, &got)
		if got.ID != stored.ID {
			t.Errorf("id = %s, want %s", got.ID, stored.ID)
		}
	})

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", uuid.NewString())
		env.api.GetTemplate(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("malformed id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "nope")
		env.api.GetTemplate(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestGetTemplateMigratesLegacyContent(t *testing.T) {
	env := newTestEnv(t)
	stored, _ := env.templates.Create(&models.TemplateRecord{
		Name:     "Antigo",
		Category: "Comercial",
		Content:  json.RawMessage(`{"name":"Antigo","category":"Comercial","elements":[{"id":"x","type":"spacer","position":{"x":0,"y":0}}]}`),
	})

	rec := httptest.NewRecorder()
	env.api.GetTemplate(rec, withChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", stored.ID.String()))

	var got models.TemplateRecord
	decodeBody(t, rec, &got)
	tpl, err := document.Decode(got.Content)
	if err != nil {
		t.Fatal(err)
	}
	if len(tpl.Pages) != 1 || len(tpl.Pages[0].Elements) != 1 {
		t.Fatalf("expected one page with one element, got %+v", tpl.Pages)
	}
	if !strings.Contains(string(got.Content), `"pages"`) {
		t.Error("expected content in the pages shape")
	}
}

func TestListTemplates(t *testing.T) {
	env := newTestEnv(t)
	env.seedTemplate(t, document.New("B", "Comercial"))
	env.seedTemplate(t, document.New("A", "Técnica"))

	t.Run("all", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.api.ListTemplates(rec, httptest.NewRequest(http.MethodGet, "/api/templates", nil))
		var body struct {
			Templates []models.TemplateSummary `json:"templates"`
		}
		decodeBody(t, rec, &body)
		if len(body.Templates) != 2 {
			t.Errorf("expected 2 templates, got %d", len(body.Templates))
		}
	})

	t.Run("by category", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.api.ListTemplates(rec, httptest.NewRequest(http.MethodGet, "/api/templates?category=T%C3%A9cnica", nil))
		var body struct {
			Templates []models.TemplateSummary `json:"templates"`
		}
		decodeBody(t, rec, &body)
		if len(body.Templates) != 1 || body.Templates[0].Name != "A" {
			t.Errorf("unexpected result %+v", body.Templates)
		}
	})

	t.Run("empty list is an array", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.api.ListTemplates(rec, httptest.NewRequest(http.MethodGet, "/api/templates?category=Nenhuma", nil))
		if !strings.Contains(rec.Body.String(), `"templates":[]`) {
			t.Errorf("expected an empty array, got %s", rec.Body.String())
		}
	})
}

func TestListTemplatesStoreError(t *testing.T) {
	env := newTestEnv(t)
	env.templates.err = errors.New("connection refused")

	rec := httptest.NewRecorder()
	env.api.ListTemplates(rec, httptest.NewRequest(http.MethodGet, "/api/templates", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Error("internal error details must not leak")
	}
}

func TestUpdateTemplateKeepsRevision(t *testing.T) {
	env := newTestEnv(t)
	stored := env.seedTemplate(t, textTemplate(t, "v1"))

	next := textTemplate(t, "v2")
	rec := httptest.NewRecorder()
	req := jsonRequest(t, http.MethodPut, "/", map[string]any{"template": next, "revision_title": "Ajuste de texto"})
	env.api.UpdateTemplate(rec, withChiURLParam(req, "id", stored.ID.String()))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated models.TemplateRecord
	decodeBody(t, rec, &updated)
	if updated.Version != 2 {
		t.Errorf("version = %d, want 2", updated.Version)
	}

	revs, _ := env.templates.ListByTemplateID(stored.ID)
	if len(revs) != 1 {
		t.Fatalf("expected 1 revision, got %d", len(revs))
	}
	if revs[0].Version != 1 || revs[0].RevisionTitle != "Ajuste de texto" {
		t.Errorf("unexpected revision %+v", revs[0])
	}
	if len(env.cache.invalidated) != 1 || env.cache.invalidated[0] != stored.ID.String() {
		t.Errorf("expected render cache invalidation, got %v", env.cache.invalidated)
	}
}

func TestUpdateTemplateErrors(t *testing.T) {
	env := newTestEnv(t)
	stored := env.seedTemplate(t, textTemplate(t, "v1"))

	tests := []struct {
		name     string
		id       string
		body     any
		wantCode int
	}{
		{"missing template", stored.ID.String(), map[string]any{"revision_title": "x"}, http.StatusBadRequest},
		{"unknown id", uuid.NewString(), map[string]any{"template": textTemplate(t, "x")}, http.StatusNotFound},
		{"invalid template", stored.ID.String(), map[string]any{"template": document.New("", "Comercial")}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := withChiURLParam(jsonRequest(t, http.MethodPut, "/", tt.body), "id", tt.id)
			env.api.UpdateTemplate(rec, req)
			if rec.Code != tt.wantCode {
				t.Errorf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestDeleteTemplate(t *testing.T) {
	env := newTestEnv(t)
	stored := env.seedTemplate(t, textTemplate(t, "x"))

	rec := httptest.NewRecorder()
	env.api.DeleteTemplate(rec, withChiURLParam(httptest.NewRequest(http.MethodDelete, "/", nil), "id", stored.ID.String()))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	env.api.DeleteTemplate(rec, withChiURLParam(httptest.NewRequest(http.MethodDelete, "/", nil), "id", stored.ID.String()))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", rec.Code)
	}
}

func TestRevisionsAndRestore(t *testing.T) {
	env := newTestEnv(t)
	stored := env.seedTemplate(t, textTemplate(t, "original"))

	edited := stored
	edited.Content, _ = document.Encode(textTemplate(t, "editado"))
	if _, err := env.templates.Update(edited, "Edição"); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	env.api.ListRevisions(rec, withChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", stored.ID.String()))
	var body struct {
		Revisions []models.TemplateRevision `json:"revisions"`
	}
	decodeBody(t, rec, &body)
	if len(body.Revisions) != 1 {
		t.Fatalf("expected 1 revision, got %d", len(body.Revisions))
	}

	rec = httptest.NewRecorder()
	req := withChiURLParam(httptest.NewRequest(http.MethodPost, "/", nil),
		"id", stored.ID.String(), "revID", body.Revisions[0].ID.String())
	env.api.RestoreRevision(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("restore: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var restored models.TemplateRecord
	decodeBody(t, rec, &restored)
	if restored.Version != 3 {
		t.Errorf("version = %d, want 3", restored.Version)
	}
	tpl, _ := document.Decode(restored.Content)
	if got, _ := tpl.Pages[0].Elements[0].Text(); got != "original" {
		t.Errorf("restored text = %q, want original", got)
	}

	t.Run("unknown revision", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := withChiURLParam(httptest.NewRequest(http.MethodPost, "/", nil),
			"id", stored.ID.String(), "revID", uuid.NewString())
		env.api.RestoreRevision(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestVariables(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.api.Variables(rec, httptest.NewRequest(http.MethodGet, "/api/variables", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "{{cliente_nome}}") {
		t.Errorf("expected the client name token in the catalog, got %s", rec.Body.String())
	}
}
