// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"propostaflow/internal/models"
	"propostaflow/internal/variables"
)

// ProposalStore reads proposal data for merging into templates.
type ProposalStore struct {
	db *sql.DB
}

// NewProposalStore creates a new ProposalStore.
func NewProposalStore(db *sql.DB) *ProposalStore {
	return &ProposalStore{db: db}
}

// LoadContext assembles the data context of a proposal: the proposal
// itself, its client, its services in order and the company settings.
// Returns nil if the proposal does not exist. Missing client or company
// rows leave those sections nil.
func (s *ProposalStore) LoadContext(id uuid.UUID) (*variables.DataContext, error) {
	var (
		p         variables.Proposal
		status    string
		createdAt time.Time
		due       sql.NullTime
		clientID  uuid.NullUUID
		subtotal  float64
		desconto  float64
		acrescimo float64
		total     float64
	)
	err := s.db.QueryRow(`
		SELECT numero, titulo, status, subtotal::float8, desconto::float8,
			acrescimo::float8, valor_total::float8, observacoes,
			data_vencimento, created_at, client_id
		FROM proposals WHERE id = $1
	`, id).Scan(
		&p.Numero, &p.Titulo, &status, &subtotal, &desconto,
		&acrescimo, &total, &p.Observacoes,
		&due, &createdAt, &clientID,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find proposal: %w", err)
	}
	p.Status = models.ProposalStatus(status).Label()
	p.Subtotal = variables.Number(subtotal)
	p.Desconto = variables.Number(desconto)
	p.Acrescimo = variables.Number(acrescimo)
	p.ValorTotal = variables.Number(total)
	p.CreatedAt = createdAt.Format("2006-01-02")
	if due.Valid {
		p.DataVencimento = due.Time.Format("2006-01-02")
	}

	ctx := &variables.DataContext{Proposal: &p}

	if clientID.Valid {
		if ctx.Client, err = s.client(clientID.UUID); err != nil {
			return nil, err
		}
	}
	if ctx.Services, err = s.services(id); err != nil {
		return nil, err
	}
	if ctx.Company, err = s.company(); err != nil {
		return nil, err
	}
	return ctx, nil
}

func (s *ProposalStore) client(id uuid.UUID) (*variables.Client, error) {
	var c variables.Client
	err := s.db.QueryRow(`
		SELECT nome, empresa, email, telefone FROM clients WHERE id = $1
	`, id).Scan(&c.Nome, &c.Empresa, &c.Email, &c.Telefone)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find client: %w", err)
	}
	return &c, nil
}

func (s *ProposalStore) services(proposalID uuid.UUID) ([]variables.Service, error) {
	rows, err := s.db.Query(`
		SELECT nome, descricao, quantidade::float8,
			valor_base::float8, valor_personalizado::float8
		FROM proposal_services
		WHERE proposal_id = $1
		ORDER BY position, nome
	`, proposalID)
	if err != nil {
		return nil, fmt.Errorf("list proposal services: %w", err)
	}
	defer rows.Close()

	var services []variables.Service
	for rows.Next() {
		var (
			svc        variables.Service
			qty        float64
			base, cust sql.NullFloat64
		)
		if err := rows.Scan(&svc.Nome, &svc.Descricao, &qty, &base, &cust); err != nil {
			return nil, fmt.Errorf("scan proposal service: %w", err)
		}
		svc.Quantidade = variables.Number(qty)
		svc.ValorBase = nullNumber(base)
		svc.ValorPersonalizado = nullNumber(cust)
		services = append(services, svc)
	}
	return services, rows.Err()
}

func (s *ProposalStore) company() (*variables.Company, error) {
	var c variables.Company
	err := s.db.QueryRow(`
		SELECT nome, endereco, telefone, email FROM company_settings WHERE id = 1
	`).Scan(&c.Nome, &c.Endereco, &c.Telefone, &c.Email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find company settings: %w", err)
	}
	return &c, nil
}

func nullNumber(v sql.NullFloat64) *variables.Number {
	if !v.Valid {
		return nil
	}
	n := variables.Number(v.Float64)
	return &n
}
