// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TemplateRecord is a stored proposal template. Content holds the
// serialized document (current multi-page shape, or a legacy record not
// yet re-saved). Version increments on every update and keys the render
// caches.
type TemplateRecord struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Content     json.RawMessage `json:"content"`
	Version     int             `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TemplateSummary is the list view of a template, without its content.
type TemplateSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Version     int       `json:"version"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TemplateRevision is a snapshot of a template taken before it was
// overwritten.
type TemplateRevision struct {
	ID            uuid.UUID       `json:"id"`
	TemplateID    uuid.UUID       `json:"template_id"`
	Version       int             `json:"version"`
	Name          string          `json:"name"`
	Content       json.RawMessage `json:"content,omitempty"`
	RevisionTitle string          `json:"revision_title"`
	CreatedAt     time.Time       `json:"created_at"`
}
