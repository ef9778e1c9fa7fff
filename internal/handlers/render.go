// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"propostaflow/internal/cache"
	"propostaflow/internal/models"
	"propostaflow/internal/slug"
	"propostaflow/internal/storage"
	"propostaflow/internal/variables"
)

// renderRequest is the body of the render and export endpoints. When
// ProposalID is set the data context is loaded from the database and Data
// is ignored.
type renderRequest struct {
	ProposalID *uuid.UUID             `json:"proposal_id"`
	Data       *variables.DataContext `json:"data"`
}

// exportResponse is returned by the export endpoint.
type exportResponse struct {
	Export    exportView `json:"export"`
	URL       string     `json:"url"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Render merges a template with a data context and returns the printable
// HTML document.
func (a *API) Render(w http.ResponseWriter, r *http.Request) {
	rec, _, data, ok := a.renderInput(w, r)
	if !ok {
		return
	}
	html := a.renderCached(r, rec, data)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(html)
}

// Export renders a template, archives the document to object storage and
// returns a presigned download URL.
func (a *API) Export(w http.ResponseWriter, r *http.Request) {
	if a.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "export storage is not configured")
		return
	}
	rec, req, data, ok := a.renderInput(w, r)
	if !ok {
		return
	}
	html := a.renderCached(r, rec, data)

	now := a.now()
	key := storage.ExportKey(rec.ID.String(), slug.Generate(rec.Name), rec.Version, now, uuid.NewString()[:8])
	size, err := a.archive.PutDocument(r.Context(), key, html)
	if err != nil {
		serverError(w, r, "failed to archive export", err)
		return
	}

	export, err := a.exports.Create(&models.Export{
		TemplateID:      rec.ID,
		TemplateVersion: rec.Version,
		ProposalID:      req.ProposalID,
		S3Key:           key,
		SizeBytes:       size,
	})
	if err != nil {
		serverError(w, r, "failed to record export", err)
		return
	}

	url, err := a.archive.PresignedURL(r.Context(), key, a.urlExpiry)
	if err != nil {
		serverError(w, r, "failed to sign export url", err)
		return
	}
	expiry := a.urlExpiry
	if expiry <= 0 {
		expiry = storage.DefaultURLExpiry
	}

	slog.Info("template exported", "template_id", rec.ID, "version", rec.Version, "key", key, "size", size)
	writeJSON(w, http.StatusCreated, exportResponse{
		Export:    exportView{Export: *export, Size: export.HumanSize()},
		URL:       url,
		ExpiresAt: now.Add(expiry).UTC(),
	})
}

// renderInput loads the template and resolves the data context of a
// render request. It answers the request itself on failure.
func (a *API) renderInput(w http.ResponseWriter, r *http.Request) (*models.TemplateRecord, renderRequest, *variables.DataContext, bool) {
	var req renderRequest
	rec, ok := a.findTemplate(w, r)
	if !ok {
		return nil, req, nil, false
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		}
		return nil, req, nil, false
	}

	if req.ProposalID == nil {
		return rec, req, req.Data, true
	}
	if a.proposals == nil {
		writeError(w, http.StatusServiceUnavailable, "proposal data is not available")
		return nil, req, nil, false
	}
	data, err := a.proposals.LoadContext(*req.ProposalID)
	if err != nil {
		serverError(w, r, "failed to load proposal", err)
		return nil, req, nil, false
	}
	if data == nil {
		writeError(w, http.StatusNotFound, "proposal not found")
		return nil, req, nil, false
	}
	return rec, req, data, true
}

// renderCached renders through the shared render cache when one is
// configured. Renders that depend on the current date bypass it.
func (a *API) renderCached(r *http.Request, rec *models.TemplateRecord, data *variables.DataContext) []byte {
	id := rec.ID.String()
	if a.renderCache == nil || mentionsToday(rec.Content) {
		return []byte(a.engine.RenderRecord(id, rec.Version, rec.Content, data))
	}

	key := cache.RenderKey(id, rec.Version, data)
	if html, ok := a.renderCache.Get(r.Context(), key); ok {
		return html
	}
	html := []byte(a.engine.RenderRecord(id, rec.Version, rec.Content, data))
	a.renderCache.Set(r.Context(), key, html)
	return html
}

// mentionsToday reports whether content uses the current-date token,
// whose value changes without the template or data changing.
func mentionsToday(content []byte) bool {
	return strings.Contains(string(content), "data_atual")
}
