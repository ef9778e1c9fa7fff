// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"propostaflow/internal/models"
)

// templateRevisionColumns lists all columns for template_revisions SELECTs.
const templateRevisionColumns = `id, template_id, version, name, content,
	revision_title, created_at`

// TemplateRevisionStore provides access to template revision data in PostgreSQL.
// Revisions are written by TemplateStore.Update.
type TemplateRevisionStore struct {
	db *sql.DB
}

// NewTemplateRevisionStore creates a new TemplateRevisionStore backed by the given database.
func NewTemplateRevisionStore(db *sql.DB) *TemplateRevisionStore {
	return &TemplateRevisionStore{db: db}
}

// scanTemplateRevision scans a single template_revisions row into a TemplateRevision.
func scanTemplateRevision(scanner interface{ Scan(...any) error }) (*models.TemplateRevision, error) {
	var r models.TemplateRevision
	var content []byte
	err := scanner.Scan(
		&r.ID, &r.TemplateID, &r.Version, &r.Name, &content,
		&r.RevisionTitle, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Content = json.RawMessage(content)
	return &r, nil
}

// ListByTemplateID returns all revisions for a template, newest first.
// Content is omitted; fetch a single revision to get it.
func (s *TemplateRevisionStore) ListByTemplateID(templateID uuid.UUID) ([]*models.TemplateRevision, error) {
	rows, err := s.db.Query(`
		SELECT id, template_id, version, name, revision_title, created_at
		FROM template_revisions
		WHERE template_id = $1
		ORDER BY version DESC
	`, templateID)
	if err != nil {
		return nil, fmt.Errorf("list template revisions: %w", err)
	}
	defer rows.Close()

	var revisions []*models.TemplateRevision
	for rows.Next() {
		var r models.TemplateRevision
		if err := rows.Scan(
			&r.ID, &r.TemplateID, &r.Version, &r.Name, &r.RevisionTitle, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan template revision: %w", err)
		}
		revisions = append(revisions, &r)
	}
	return revisions, rows.Err()
}

// FindByID returns a single template revision by its ID.
func (s *TemplateRevisionStore) FindByID(id uuid.UUID) (*models.TemplateRevision, error) {
	row := s.db.QueryRow(`
		SELECT `+templateRevisionColumns+`
		FROM template_revisions
		WHERE id = $1
	`, id)
	r, err := scanTemplateRevision(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find template revision: %w", err)
	}
	return r, nil
}
