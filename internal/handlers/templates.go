// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"propostaflow/internal/document"
	"propostaflow/internal/imaging"
	"propostaflow/internal/models"
)

const (
	defaultExportListLimit = 20
	maxExportListLimit     = 100
)

// updateRequest is the body of PUT /api/templates/{id}.
type updateRequest struct {
	Template      *document.Template `json:"template"`
	RevisionTitle string             `json:"revision_title"`
}

// exportView adds the human-readable size to an export record.
type exportView struct {
	models.Export
	Size string `json:"size"`
}

// ListTemplates returns template summaries, optionally filtered by the
// category query parameter.
func (a *API) ListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := a.templates.List(strings.TrimSpace(r.URL.Query().Get("category")))
	if err != nil {
		serverError(w, r, "failed to list templates", err)
		return
	}
	if list == nil {
		list = []models.TemplateSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": list})
}

// GetTemplate returns a template. Legacy content is returned in the
// current multi-page shape.
func (a *API) GetTemplate(w http.ResponseWriter, r *http.Request) {
	rec, ok := a.findTemplate(w, r)
	if !ok {
		return
	}
	if tpl, err := document.Decode(rec.Content); err == nil {
		if content, err := document.Encode(tpl); err == nil {
			rec.Content = content
		}
	}
	writeJSON(w, http.StatusOK, rec)
}

// CreateTemplate stores a new template. The body is the template
// document itself.
func (a *API) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var tpl document.Template
	if !decodeJSON(w, r, &tpl) {
		return
	}
	content, _, ok := a.prepare(w, r, &tpl)
	if !ok {
		return
	}

	created, err := a.templates.Create(&models.TemplateRecord{
		Name:        strings.TrimSpace(tpl.Name),
		Description: tpl.Description,
		Category:    strings.TrimSpace(tpl.Category),
		Content:     content,
	})
	if err != nil {
		serverError(w, r, "failed to create template", err)
		return
	}
	slog.Info("template created", "template_id", created.ID, "name", created.Name)
	writeJSON(w, http.StatusCreated, created)
}

// UpdateTemplate replaces a template's content. The previous version is
// kept as a revision.
func (a *API) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req updateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Template == nil {
		writeError(w, http.StatusBadRequest, "template is required")
		return
	}

	updated, _, ok := a.save(w, r, id, req.Template, req.RevisionTitle)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteTemplate removes a template and its history.
func (a *API) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	deleted, err := a.templates.Delete(id)
	if err != nil {
		serverError(w, r, "failed to delete template", err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	a.invalidate(r.Context(), id)
	slog.Info("template deleted", "template_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// ListRevisions returns a template's history, newest first.
func (a *API) ListRevisions(w http.ResponseWriter, r *http.Request) {
	rec, ok := a.findTemplate(w, r)
	if !ok {
		return
	}
	revisions, err := a.revisions.ListByTemplateID(rec.ID)
	if err != nil {
		serverError(w, r, "failed to list revisions", err)
		return
	}
	if revisions == nil {
		revisions = []*models.TemplateRevision{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"revisions": revisions})
}

// RestoreRevision makes a revision's content the newest version.
func (a *API) RestoreRevision(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	revID, ok := uuidParam(w, r, "revID")
	if !ok {
		return
	}

	restored, err := a.templates.Restore(id, revID)
	if err != nil {
		serverError(w, r, "failed to restore revision", err)
		return
	}
	if restored == nil {
		writeError(w, http.StatusNotFound, "revision not found")
		return
	}
	a.invalidate(r.Context(), id)
	slog.Info("template revision restored", "template_id", id, "revision_id", revID, "version", restored.Version)
	writeJSON(w, http.StatusOK, restored)
}

// ListExports returns a template's archived exports, newest first.
func (a *API) ListExports(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	limit := defaultExportListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxExportListLimit)
	}

	exports, err := a.exports.ListByTemplateID(id, limit)
	if err != nil {
		serverError(w, r, "failed to list exports", err)
		return
	}
	views := make([]exportView, 0, len(exports))
	for _, e := range exports {
		views = append(views, exportView{Export: e, Size: e.HumanSize()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"exports": views})
}

// findTemplate loads the template named by the id route parameter,
// answering 400 or 404 itself when it cannot.
func (a *API) findTemplate(w http.ResponseWriter, r *http.Request) (*models.TemplateRecord, bool) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return nil, false
	}
	rec, err := a.templates.FindByID(id)
	if err != nil {
		serverError(w, r, "failed to load template", err)
		return nil, false
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "template not found")
		return nil, false
	}
	return rec, true
}

// prepare validates tpl, optimizes its embedded images and encodes it.
// Optimization runs on a private copy; the replacements applied to tpl
// are returned so callers can apply them to other copies too. Validation
// problems are answered with 422.
func (a *API) prepare(w http.ResponseWriter, r *http.Request, tpl *document.Template) (json.RawMessage, []imaging.Replacement, bool) {
	if err := tpl.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return nil, nil, false
	}
	if msg := validateTemplate(tpl); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return nil, nil, false
	}

	reps, err := a.optimizer.Optimize(r.Context(), tpl.Clone())
	if err != nil {
		// Keep the original images; the template itself is still valid.
		slog.Warn("image optimization failed", "template", tpl.Name, "error", err)
		reps = nil
	} else if n := imaging.Apply(tpl, reps); n > 0 {
		slog.Info("images optimized", "template", tpl.Name, "count", n)
	}

	content, err := document.Encode(tpl)
	if err != nil {
		serverError(w, r, "failed to encode template", err)
		return nil, nil, false
	}
	return content, reps, true
}

// save writes tpl over the stored template id and drops its cached
// renders. Shared by the update endpoint and editor sessions.
func (a *API) save(w http.ResponseWriter, r *http.Request, id uuid.UUID, tpl *document.Template, title string) (*models.TemplateRecord, []imaging.Replacement, bool) {
	content, reps, ok := a.prepare(w, r, tpl)
	if !ok {
		return nil, nil, false
	}
	if strings.TrimSpace(title) == "" {
		title = "Alteração"
	}

	updated, err := a.templates.Update(&models.TemplateRecord{
		ID:          id,
		Name:        strings.TrimSpace(tpl.Name),
		Description: tpl.Description,
		Category:    strings.TrimSpace(tpl.Category),
		Content:     content,
	}, title)
	if err != nil {
		serverError(w, r, "failed to update template", err)
		return nil, nil, false
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "template not found")
		return nil, nil, false
	}
	a.invalidate(r.Context(), id)
	slog.Info("template updated", "template_id", id, "version", updated.Version)
	return updated, reps, true
}

// invalidate drops every cached render of a template.
func (a *API) invalidate(ctx context.Context, id uuid.UUID) {
	a.engine.InvalidateTemplate(id.String())
	if a.renderCache != nil {
		a.renderCache.InvalidateTemplate(ctx, id.String())
	}
}
