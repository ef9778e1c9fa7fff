package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"propostaflow/internal/document"
	"propostaflow/internal/editor"
	"propostaflow/internal/imaging"
	"propostaflow/internal/models"
	"propostaflow/internal/session"
)

// openRequest is the body of POST /api/editor/sessions. Without a
// template id the session starts on a blank template.
type openRequest struct {
	TemplateID *uuid.UUID `json:"template_id"`
}

// saveRequest is the optional body of the session save endpoint.
type saveRequest struct {
	RevisionTitle string `json:"revision_title"`
}

// sessionView is the JSON form of an editor session.
type sessionView struct {
	ID         string       `json:"id"`
	TemplateID *uuid.UUID   `json:"template_id,omitempty"`
	Version    int          `json:"version"`
	State      editor.State `json:"state"`
}

// commandResponse is returned after applying an editor command.
type commandResponse struct {
	Result editor.Result `json:"result"`
	State  editor.State  `json:"state"`
}

// saveResponse is returned after saving a session's template.
type saveResponse struct {
	Template *models.TemplateRecord `json:"template"`
	Session  sessionView            `json:"session"`
}

// OpenSession starts an editor session on a stored template, or on a
// blank one.
func (a *API) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	data := &session.Data{}
	var tpl *document.Template
	if req.TemplateID != nil {
		rec, err := a.templates.FindByID(*req.TemplateID)
		if err != nil {
			serverError(w, r, "failed to load template", err)
			return
		}
		if rec == nil {
			writeError(w, http.StatusNotFound, "template not found")
			return
		}
		if tpl, err = document.Decode(rec.Content); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "stored template cannot be edited: "+err.Error())
			return
		}
		data.TemplateID = &rec.ID
		data.Version = rec.Version
	}
	data.State = editor.New(tpl).State()

	id, err := a.sessions.Create(r.Context(), data)
	if err != nil {
		serverError(w, r, "failed to create editor session", err)
		return
	}
	slog.Info("editor session opened", "session", id, "template_id", data.TemplateID)
	writeJSON(w, http.StatusCreated, viewOf(id, data))
}

// GetSession returns the current state of an editor session.
func (a *API) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sid")
	data, ok := a.loadSession(w, r, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(id, data))
}

// ApplyCommand runs one editor command against a session. Refused
// commands still answer 200, with applied=false and any notices.
func (a *API) ApplyCommand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sid")
	var cmd editor.Command
	if !decodeJSON(w, r, &cmd) {
		return
	}

	unlock := a.sessions.Lock(id)
	defer unlock()

	data, ok := a.loadSession(w, r, id)
	if !ok {
		return
	}
	ed := editor.Restore(data.State)
	res, err := ed.Apply(cmd)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data.State = ed.State()
	if err := a.sessions.Save(r.Context(), id, data); err != nil {
		serverError(w, r, "failed to store editor session", err)
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{Result: res, State: data.State})
}

// SaveSession persists the session's template. Uncommitted edit buffers
// are not part of the saved document. A session on a blank template
// creates the template; later saves update it.
//
// The session lock is held only to take the snapshot and to write the
// result back, so commands keep flowing while images are optimized and
// the template is stored. Saves of one session run one at a time.
func (a *API) SaveSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sid")
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	unlockSave := a.sessions.Lock(saveLockKey(id))
	defer unlockSave()

	snap, templateID, ok := a.snapshotSession(w, r, id)
	if !ok {
		return
	}

	var (
		rec  *models.TemplateRecord
		reps []imaging.Replacement
	)
	if templateID == nil {
		content, applied, ok := a.prepare(w, r, snap)
		if !ok {
			return
		}
		created, err := a.templates.Create(&models.TemplateRecord{
			Name:        strings.TrimSpace(snap.Name),
			Description: snap.Description,
			Category:    strings.TrimSpace(snap.Category),
			Content:     content,
		})
		if err != nil {
			serverError(w, r, "failed to create template", err)
			return
		}
		rec, reps = created, applied
		slog.Info("template created", "template_id", rec.ID, "name", rec.Name, "session", id)
	} else {
		if rec, reps, ok = a.save(w, r, *templateID, snap, req.RevisionTitle); !ok {
			return
		}
	}

	unlock := a.sessions.Lock(id)
	defer unlock()

	data, ok := a.loadSession(w, r, id)
	if !ok {
		return
	}
	ed := editor.Restore(data.State)
	if n := imaging.Apply(ed.Template(), reps); n < len(reps) {
		slog.Debug("optimized images superseded by edits", "session", id, "skipped", len(reps)-n)
	}
	data.TemplateID = &rec.ID
	data.Version = rec.Version
	data.State = ed.State()
	if err := a.sessions.Save(r.Context(), id, data); err != nil {
		serverError(w, r, "failed to store editor session", err)
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{Template: rec, Session: viewOf(id, data)})
}

// snapshotSession copies the committed template of a session under its
// lock.
func (a *API) snapshotSession(w http.ResponseWriter, r *http.Request, id string) (*document.Template, *uuid.UUID, bool) {
	unlock := a.sessions.Lock(id)
	defer unlock()

	data, ok := a.loadSession(w, r, id)
	if !ok {
		return nil, nil, false
	}
	return editor.Restore(data.State).Snapshot(), data.TemplateID, true
}

func saveLockKey(id string) string {
	return "save:" + id
}

// CloseSession discards an editor session.
func (a *API) CloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sid")
	if err := a.sessions.Delete(r.Context(), id); err != nil {
		serverError(w, r, "failed to delete editor session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// loadSession fetches a session, answering 404 when it expired or never
// existed.
func (a *API) loadSession(w http.ResponseWriter, r *http.Request, id string) (*session.Data, bool) {
	data, err := a.sessions.Get(r.Context(), id)
	if err != nil {
		serverError(w, r, "failed to load editor session", err)
		return nil, false
	}
	if data == nil {
		writeError(w, http.StatusNotFound, "editor session not found")
		return nil, false
	}
	return data, true
}

func viewOf(id string, data *session.Data) sessionView {
	return sessionView{
		ID:         id,
		TemplateID: data.TemplateID,
		Version:    data.Version,
		State:      data.State,
	}
}
