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

// templateColumns lists all columns for templates SELECTs.
const templateColumns = `id, name, description, category, content, version, created_at, updated_at`

// TemplateStore handles all template-related database operations.
type TemplateStore struct {
	db *sql.DB
}

// NewTemplateStore creates a new TemplateStore with the given database connection.
func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

func scanTemplate(scanner interface{ Scan(...any) error }) (*models.TemplateRecord, error) {
	var t models.TemplateRecord
	var content []byte
	err := scanner.Scan(
		&t.ID, &t.Name, &t.Description, &t.Category, &content,
		&t.Version, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Content = json.RawMessage(content)
	return &t, nil
}

// List returns template summaries ordered by category and name. A
// non-empty category filters the result.
func (s *TemplateStore) List(category string) ([]models.TemplateSummary, error) {
	rows, err := s.db.Query(`
		SELECT id, name, description, category, version, updated_at
		FROM templates
		WHERE $1 = '' OR category = $1
		ORDER BY category, name
	`, category)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []models.TemplateSummary
	for rows.Next() {
		var t models.TemplateSummary
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Description, &t.Category, &t.Version, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// FindByID retrieves a template by its UUID. Returns nil if not found.
func (s *TemplateStore) FindByID(id uuid.UUID) (*models.TemplateRecord, error) {
	t, err := scanTemplate(s.db.QueryRow(`
		SELECT `+templateColumns+` FROM templates WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find template by id: %w", err)
	}
	return t, nil
}

// Create inserts a new template at version 1.
func (s *TemplateStore) Create(t *models.TemplateRecord) (*models.TemplateRecord, error) {
	created, err := scanTemplate(s.db.QueryRow(`
		INSERT INTO templates (name, description, category, content, version)
		VALUES ($1, $2, $3, $4, 1)
		RETURNING `+templateColumns,
		t.Name, t.Description, t.Category, []byte(t.Content),
	))
	if err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return created, nil
}

// Update overwrites a template and increments its version. The content
// being replaced is kept as a revision titled title, in the same
// transaction. Returns nil if the template does not exist.
func (s *TemplateStore) Update(t *models.TemplateRecord, title string) (*models.TemplateRecord, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var (
		prevName    string
		prevContent []byte
		prevVersion int
	)
	err = tx.QueryRow(`
		SELECT name, content, version FROM templates WHERE id = $1 FOR UPDATE
	`, t.ID).Scan(&prevName, &prevContent, &prevVersion)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock template: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO template_revisions (template_id, version, name, content, revision_title)
		VALUES ($1, $2, $3, $4, $5)
	`, t.ID, prevVersion, prevName, prevContent, title)
	if err != nil {
		return nil, fmt.Errorf("insert template revision: %w", err)
	}

	updated, err := scanTemplate(tx.QueryRow(`
		UPDATE templates SET
			name = $1, description = $2, category = $3, content = $4,
			version = version + 1, updated_at = NOW()
		WHERE id = $5
		RETURNING `+templateColumns,
		t.Name, t.Description, t.Category, []byte(t.Content), t.ID,
	))
	if err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit template update: %w", err)
	}
	return updated, nil
}

// Restore writes a revision's content back as the template's newest
// version. The current content becomes a revision of its own, so a
// restore can itself be undone. Returns nil if either record is missing
// or the revision belongs to another template.
func (s *TemplateStore) Restore(templateID, revisionID uuid.UUID) (*models.TemplateRecord, error) {
	current, err := s.FindByID(templateID)
	if err != nil || current == nil {
		return nil, err
	}
	rev, err := NewTemplateRevisionStore(s.db).FindByID(revisionID)
	if err != nil {
		return nil, err
	}
	if rev == nil || rev.TemplateID != templateID {
		return nil, nil
	}

	current.Name = rev.Name
	current.Content = rev.Content
	return s.Update(current, fmt.Sprintf("Antes de restaurar a versão %d", rev.Version))
}

// Delete removes a template by ID together with its revisions. It
// reports whether a row was deleted.
func (s *TemplateStore) Delete(id uuid.UUID) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete template: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// Count returns the total number of templates.
func (s *TemplateStore) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM templates`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count templates: %w", err)
	}
	return count, nil
}
