package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"propostaflow/internal/models"
)

const exportColumns = `id, template_id, template_version, proposal_id, s3_key, size_bytes, created_at`

// ExportStore records documents archived to object storage.
type ExportStore struct {
	db *sql.DB
}

// NewExportStore creates a new ExportStore.
func NewExportStore(db *sql.DB) *ExportStore {
	return &ExportStore{db: db}
}

func scanExport(scanner interface{ Scan(...any) error }) (*models.Export, error) {
	var e models.Export
	var proposalID uuid.NullUUID
	err := scanner.Scan(
		&e.ID, &e.TemplateID, &e.TemplateVersion, &proposalID,
		&e.S3Key, &e.SizeBytes, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if proposalID.Valid {
		e.ProposalID = &proposalID.UUID
	}
	return &e, nil
}

// Create inserts an export record.
func (s *ExportStore) Create(e *models.Export) (*models.Export, error) {
	var proposalID uuid.NullUUID
	if e.ProposalID != nil {
		proposalID = uuid.NullUUID{UUID: *e.ProposalID, Valid: true}
	}
	created, err := scanExport(s.db.QueryRow(`
		INSERT INTO template_exports (template_id, template_version, proposal_id, s3_key, size_bytes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+exportColumns,
		e.TemplateID, e.TemplateVersion, proposalID, e.S3Key, e.SizeBytes,
	))
	if err != nil {
		return nil, fmt.Errorf("create export: %w", err)
	}
	return created, nil
}

// ListByTemplateID returns a template's exports, newest first.
func (s *ExportStore) ListByTemplateID(templateID uuid.UUID, limit int) ([]models.Export, error) {
	rows, err := s.db.Query(`
		SELECT `+exportColumns+`
		FROM template_exports
		WHERE template_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, templateID, limit)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()

	var exports []models.Export
	for rows.Next() {
		e, err := scanExport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		exports = append(exports, *e)
	}
	return exports, rows.Err()
}
