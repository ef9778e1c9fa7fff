// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Export records a rendered document archived to object storage.
type Export struct {
	ID              uuid.UUID  `json:"id"`
	TemplateID      uuid.UUID  `json:"template_id"`
	TemplateVersion int        `json:"template_version"`
	ProposalID      *uuid.UUID `json:"proposal_id,omitempty"`
	S3Key           string     `json:"s3_key"`
	SizeBytes       int64      `json:"size_bytes"`
	CreatedAt       time.Time  `json:"created_at"`
}

// HumanSize returns a human-readable file size string.
func (e *Export) HumanSize() string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case e.SizeBytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(e.SizeBytes)/float64(mb))
	case e.SizeBytes >= kb:
		return fmt.Sprintf("%.0f KB", float64(e.SizeBytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", e.SizeBytes)
	}
}
