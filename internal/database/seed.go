package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"propostaflow/internal/document"
)

// Seed populates the database with initial development data: the company
// settings row and a starter proposal template. It does nothing once any
// template exists.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM templates").Scan(&count); err != nil {
		return fmt.Errorf("seed check templates: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	_, err := db.Exec(`
		INSERT INTO company_settings (id, nome, endereco, telefone, email)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`, "Minha Empresa", "Rua Exemplo, 100 - São Paulo/SP", "(11) 4000-0000", "contato@minhaempresa.com.br")
	if err != nil {
		return fmt.Errorf("seed insert company settings: %w", err)
	}

	tpl, err := StarterTemplate()
	if err != nil {
		return fmt.Errorf("seed build template: %w", err)
	}
	content, err := document.Encode(tpl)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO templates (name, description, category, content, version)
		VALUES ($1, $2, $3, $4, 1)
	`, tpl.Name, tpl.Description, tpl.Category, content)
	if err != nil {
		return fmt.Errorf("seed insert template: %w", err)
	}

	if err := seedDemoProposal(db); err != nil {
		return err
	}

	slog.Info("database seeded with starter template", "name", tpl.Name)
	return nil
}

// seedDemoProposal inserts one client and one proposal so templates can be
// previewed against real data from the start.
func seedDemoProposal(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin tx: %w", err)
	}
	defer tx.Rollback()

	var clientID, proposalID string
	err = tx.QueryRow(`
		INSERT INTO clients (nome, empresa, email, telefone)
		VALUES ('Cliente Exemplo', 'Exemplo Ltda', 'cliente@exemplo.com.br', '(11) 90000-0000')
		RETURNING id
	`).Scan(&clientID)
	if err != nil {
		return fmt.Errorf("seed insert client: %w", err)
	}

	err = tx.QueryRow(`
		INSERT INTO proposals (numero, titulo, client_id, desconto, data_vencimento)
		VALUES ('PROP-0001', 'Proposta de exemplo', $1, 10, CURRENT_DATE + 30)
		ON CONFLICT (numero) DO NOTHING
		RETURNING id
	`, clientID).Scan(&proposalID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed insert proposal: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO proposal_services (proposal_id, position, nome, descricao, quantidade, valor_base)
		VALUES ($1, 0, 'Consultoria', 'Levantamento de requisitos', 10, 150),
		       ($1, 1, 'Implantação', '', 1, 2500)
	`, proposalID)
	if err != nil {
		return fmt.Errorf("seed insert services: %w", err)
	}
	return tx.Commit()
}

// StarterTemplate builds the default proposal layout: a header with the
// company and proposal number, the client block, the services table and
// the totals.
func StarterTemplate() (*document.Template, error) {
	tpl := document.New("Proposta padrão", "comercial")
	tpl.Description = "Modelo inicial com cabeçalho, cliente, serviços e totais"
	page := &tpl.Pages[0]

	add := func(kind document.Kind, x, y float64, content document.Content, patch document.Style) error {
		el, err := document.NewElement(kind, page)
		if err != nil {
			return err
		}
		el.Position = document.Position{X: x, Y: y}
		el.Content = content
		el.Style = el.Style.Merge(patch)
		page.Append(el)
		return nil
	}

	steps := []struct {
		kind    document.Kind
		x, y    float64
		content document.Content
		style   document.Style
	}{
		{document.KindVariable, 50, 40, document.VariableContent{Token: "{{empresa_nome}}"},
			document.Style{FontSize: "22px", FontWeight: "bold", BackgroundColor: "transparent", Color: "#111827"}},
		{document.KindText, 500, 40, document.TextContent{Text: "Proposta nº {{proposta_numero}}\n{{data_atual}}"},
			document.Style{TextAlign: "right", Width: "250px"}},
		{document.KindLine, 50, 100, document.LineContent{}, document.Style{Width: "700px"}},
		{document.KindText, 50, 130, document.TextContent{Text: "Cliente: {{cliente_nome}}\n{{cliente_email}}"},
			document.Style{}},
		{document.KindTable, 50, 200, document.TableContent{Token: document.ServicesTableToken},
			document.Style{Width: "700px"}},
		{document.KindText, 50, 520, document.TextContent{Text: "Valor total: {{valor_total}}\nVálida até {{proposta_validade}}"},
			document.Style{FontSize: "16px", FontWeight: "bold"}},
	}
	for _, s := range steps {
		if err := add(s.kind, s.x, s.y, s.content, s.style); err != nil {
			return nil, err
		}
	}
	return tpl, tpl.Validate()
}
