// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the JSON HTTP API of propostaflow: template
// CRUD and revisions, rendering and export, the variable catalog and
// server-side editor sessions. Handlers receive their dependencies through
// the API struct, as narrow interfaces so tests can substitute fakes.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"propostaflow/internal/document"
	"propostaflow/internal/engine"
	"propostaflow/internal/imaging"
	"propostaflow/internal/models"
	"propostaflow/internal/session"
	"propostaflow/internal/variables"
)

// TemplateStore persists template records.
type TemplateStore interface {
	List(category string) ([]models.TemplateSummary, error)
	FindByID(id uuid.UUID) (*models.TemplateRecord, error)
	Create(t *models.TemplateRecord) (*models.TemplateRecord, error)
	Update(t *models.TemplateRecord, title string) (*models.TemplateRecord, error)
	Restore(templateID, revisionID uuid.UUID) (*models.TemplateRecord, error)
	Delete(id uuid.UUID) (bool, error)
}

// RevisionStore reads template history.
type RevisionStore interface {
	ListByTemplateID(templateID uuid.UUID) ([]*models.TemplateRevision, error)
}

// ProposalStore loads the data context of a stored proposal.
type ProposalStore interface {
	LoadContext(id uuid.UUID) (*variables.DataContext, error)
}

// ExportStore records archived documents.
type ExportStore interface {
	Create(e *models.Export) (*models.Export, error)
	ListByTemplateID(templateID uuid.UUID, limit int) ([]models.Export, error)
}

// RenderCache caches rendered documents across instances.
type RenderCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, html []byte)
	InvalidateTemplate(ctx context.Context, templateID string)
}

// Archive stores exported documents.
type Archive interface {
	PutDocument(ctx context.Context, key string, html []byte) (int64, error)
	PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// SessionStore parks editor sessions between requests.
type SessionStore interface {
	Create(ctx context.Context, data *session.Data) (string, error)
	Get(ctx context.Context, id string) (*session.Data, error)
	Save(ctx context.Context, id string, data *session.Data) error
	Delete(ctx context.Context, id string) error
	Lock(id string) func()
}

// ImageOptimizer shrinks the embedded images of a template snapshot.
type ImageOptimizer interface {
	Optimize(ctx context.Context, snap *document.Template) ([]imaging.Replacement, error)
}

// Deps lists the API's collaborators. RenderCache and Archive may be nil:
// rendering then always runs and exports answer 503.
type Deps struct {
	Templates   TemplateStore
	Revisions   RevisionStore
	Proposals   ProposalStore
	Exports     ExportStore
	Sessions    SessionStore
	RenderCache RenderCache
	Archive     Archive
	Engine      *engine.Engine
	Optimizer   ImageOptimizer
	Catalog     *variables.Catalog
	URLExpiry   time.Duration
}

// API groups all HTTP handlers and their dependencies.
type API struct {
	templates   TemplateStore
	revisions   RevisionStore
	proposals   ProposalStore
	exports     ExportStore
	sessions    SessionStore
	renderCache RenderCache
	archive     Archive
	engine      *engine.Engine
	optimizer   ImageOptimizer
	catalog     *variables.Catalog
	urlExpiry   time.Duration
	now         func() time.Time
}

// NewAPI creates the handler group. Engine, Optimizer and Catalog default
// when nil.
func NewAPI(d Deps) *API {
	a := &API{
		templates:   d.Templates,
		revisions:   d.Revisions,
		proposals:   d.Proposals,
		exports:     d.Exports,
		sessions:    d.Sessions,
		renderCache: d.RenderCache,
		archive:     d.Archive,
		engine:      d.Engine,
		optimizer:   d.Optimizer,
		catalog:     d.Catalog,
		urlExpiry:   d.URLExpiry,
		now:         time.Now,
	}
	if a.engine == nil {
		a.engine = engine.New(nil)
	}
	if a.optimizer == nil {
		a.optimizer = imaging.NewOptimizer(imaging.Options{})
	}
	if a.catalog == nil {
		a.catalog = variables.DefaultCatalog()
	}
	return a
}

// Variables returns the merge-field catalog grouped by category.
func (a *API) Variables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"groups": a.catalog.Groups()})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes {"error": msg}.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// serverError logs err and answers 500 without leaking details.
func serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Error(msg, "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// decodeJSON reads the request body into v. Oversized bodies map to 413,
// everything else to 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// uuidParam parses a UUID route parameter, answering 400 when malformed.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
