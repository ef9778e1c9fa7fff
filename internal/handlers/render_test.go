package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"propostaflow/internal/variables"
)

func renderRequestFor(t *testing.T, id uuid.UUID, body any) *http.Request {
	t.Helper()
	return withChiURLParam(jsonRequest(t, http.MethodPost, "/", body), "id", id.String())
}

func TestRenderInlineData(t *testing.T) {
	env := newTestEnv(t)
	stored := env.seedTemplate(t, textTemplate(t, "Cliente: {{cliente_nome}}"))
	body := map[string]any{"data": map[string]any{"cliente": map[string]any{"nome": "Ana Souza"}}}

	rec := httptest.NewRecorder()
	env.api.Render(rec, renderRequestFor(t, stored.ID, body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Cliente: Ana Souza") {
		t.Errorf("expected merged client name, got %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	env.api.Render(rec, renderRequestFor(t, stored.ID, body))
	if env.cache.hits != 1 {
		t.Errorf("expected the second render to hit the cache, hits = %d", env.cache.hits)
	}
}

func TestRenderWithoutBodyLeavesTokens(t *testing.T) {
	env := newTestEnv(t)
	stored := env.seedTemplate(t, textTemplate(t, "Olá {{cliente_nome}}"))

	req := withChiURLParam(httptest.NewRequest(http.MethodPost, "/", nil), "id", stored.ID.String())
	rec := httptest.NewRecorder()
	env.api.Render(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "{{cliente_nome}}") {
		t.Error("unresolved token must be left verbatim")
	}
}

func TestRenderFromProposal(t *testing.T) {
	env := newTestEnv(t)
	stored := env.seedTemplate(t, textTemplate(t, "Total: {{valor_total}}"))

	base := variables.Number(100)
	proposalID := uuid.New()
	env.proposals[proposalID] = &variables.DataContext{
		Proposal: &variables.Proposal{Numero: "PROP-0001", Desconto: 10},
		Services: []variables.Service{{Nome: "Site", Quantidade: 2, ValorBase: &base}},
	}

	rec := httptest.NewRecorder()
	env.api.Render(rec, renderRequestFor(t, stored.ID, map[string]any{"proposal_id": proposalID}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Total: R$ 180,00") {
		t.Errorf("expected discounted total, got %s", rec.Body.String())
	}

	t.Run("unknown proposal", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.api.Render(rec, renderRequestFor(t, stored.ID, map[string]any{"proposal_id": uuid.New()}))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestRenderErrors(t *testing.T) {
	env := newTestEnv(t)
	stored := env.seedTemplate(t, textTemplate(t, "x"))

	t.Run("unknown template", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.api.Render(rec, renderRequestFor(t, uuid.New(), nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		req := withChiURLParam(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"data":`)), "id", stored.ID.String())
		rec := httptest.NewRecorder()
		env.api.Render(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestRenderCurrentDateBypassesCache(t *testing.T) {
	env := newTestEnv(t)
	stored := env.seedTemplate(t, textTemplate(t, "Emitido em {{data_atual}}"))

	for range 2 {
		rec := httptest.NewRecorder()
		env.api.Render(rec, renderRequestFor(t, stored.ID, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}
	if len(env.cache.entries) != 0 || env.cache.hits != 0 {
		t.Errorf("date-dependent renders must not be cached: %d entries, %d hits", len(env.cache.entries), env.cache.hits)
	}
}

func TestRenderUsesDocumentMarkup(t *testing.T) {
	env := newTestEnv(t)
	stored := env.seedTemplate(t, textTemplate(t, "<script>alert(1)</script>Seguro"))

	rec := httptest.NewRecorder()
	env.api.Render(rec, renderRequestFor(t, stored.ID, nil))
	body := rec.Body.String()
	if strings.Contains(body, "<script>alert") {
		t.Error("script from element text must not reach the document")
	}
	if !strings.Contains(body, "Seguro") {
		t.Error("expected the plain text to survive")
	}
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)
	stored := env.seedTemplate(t, textTemplate(t, "Proposta para {{cliente_nome}}"))
	body := map[string]any{"data": map[string]any{"cliente": map[string]any{"nome": "Ana"}}}

	rec := httptest.NewRecorder()
	env.api.Export(rec, renderRequestFor(t, stored.ID, body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp exportResponse
	decodeBody(t, rec, &resp)
	wantPrefix := "exports/" + stored.ID.String() + "/proposta-padrao-v1-20260314T093000-"
	if !strings.HasPrefix(resp.Export.S3Key, wantPrefix) {
		t.Errorf("key = %q, want prefix %q", resp.Export.S3Key, wantPrefix)
	}
	if !strings.Contains(resp.URL, resp.Export.S3Key) {
		t.Errorf("url %q does not point at the object", resp.URL)
	}
	if resp.ExpiresAt.Sub(env.api.now()).Hours() != 1 {
		t.Errorf("expires_at = %v", resp.ExpiresAt)
	}

	html, ok := env.archive.objects[resp.Export.S3Key]
	if !ok {
		t.Fatal("document not archived")
	}
	if int64(len(html)) != resp.Export.SizeBytes {
		t.Errorf("size = %d, archived %d bytes", resp.Export.SizeBytes, len(html))
	}
	if !strings.Contains(string(html), "Proposta para Ana") {
		t.Error("archived document is not the merged render")
	}
	if len(env.exports.exports) != 1 {
		t.Errorf("expected 1 export record, got %d", len(env.exports.exports))
	}

	t.Run("listed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/?limit=5", nil), "id", stored.ID.String())
		env.api.ListExports(rec, req)
		var body struct {
			Exports []exportView `json:"exports"`
		}
		decodeBody(t, rec, &body)
		if len(body.Exports) != 1 || body.Exports[0].Size == "" {
			t.Errorf("unexpected exports %+v", body.Exports)
		}
	})

	t.Run("invalid limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/?limit=-1", nil), "id", stored.ID.String())
		env.api.ListExports(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestExportWithoutStorage(t *testing.T) {
	env := newTestEnv(t)
	env.api.archive = nil
	stored := env.seedTemplate(t, textTemplate(t, "x"))

	rec := httptest.NewRecorder()
	env.api.Export(rec, renderRequestFor(t, stored.ID, nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}
