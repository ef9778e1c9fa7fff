package variables

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Number is a lenient numeric field. It decodes JSON numbers and numeric
// strings ("100.50", "1.234,56", "R$ 99,90"); anything unparseable
// decodes to 0 so totals never become NaN.
type Number float64

// UnmarshalJSON implements json.Unmarshaler. It never fails.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*n = 0
			return nil
		}
		*n = ParseNumber(s)
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Number(finite(f))
	return nil
}

// Float returns the value as float64.
func (n Number) Float() float64 { return float64(n) }

// thousandsRe matches dot-grouped integers such as "1.500" or "12.345.678".
var thousandsRe = regexp.MustCompile(`^-?[1-9][0-9]{0,2}(\.[0-9]{3})+$`)

// ParseNumber converts user-entered numeric text to a Number, returning 0
// when it cannot be parsed. Text with a comma is read as pt-BR notation.
// Without a comma, a dot is the decimal mark unless every group after the
// leading digits has exactly three digits, so "1.500" is 1500 while "1.50"
// and "0.125" stay fractional.
func ParseNumber(s string) Number {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return 0
	}
	if strings.Contains(s, ",") {
		// pt-BR notation: dots group thousands, the comma is the decimal mark.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else if thousandsRe.MatchString(s) {
		s = strings.ReplaceAll(s, ".", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return Number(finite(f))
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Proposal holds the proposal-level merge fields. Dates are kept as the
// strings the data source supplied and formatted at resolution time.
type Proposal struct {
	Numero         string `json:"numero"`
	Titulo         string `json:"titulo"`
	CreatedAt      string `json:"created_at"`
	DataVencimento string `json:"data_vencimento"`
	Status         string `json:"status"`
	Subtotal       Number `json:"subtotal"`
	Desconto       Number `json:"desconto"`
	Acrescimo      Number `json:"acrescimo"`
	ValorTotal     Number `json:"valor_total"`
	Observacoes    string `json:"observacoes"`
}

// Client is the customer the proposal is addressed to.
type Client struct {
	Nome     string `json:"nome"`
	Empresa  string `json:"empresa,omitempty"`
	Email    string `json:"email"`
	Telefone string `json:"telefone,omitempty"`
}

// Service is one line item of the proposal.
type Service struct {
	Nome               string  `json:"nome"`
	Descricao          string  `json:"descricao,omitempty"`
	Quantidade         Number  `json:"quantidade"`
	ValorBase          *Number `json:"valor_base,omitempty"`
	ValorUnitario      *Number `json:"valor_unitario,omitempty"`
	ValorPersonalizado *Number `json:"valor_personalizado,omitempty"`
}

// UnmarshalJSON also accepts the camel-case "valorUnitario" spelling.
func (s *Service) UnmarshalJSON(data []byte) error {
	type plain Service
	var w struct {
		plain
		ValorUnitarioCamel *Number `json:"valorUnitario"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Service(w.plain)
	if s.ValorUnitario == nil {
		s.ValorUnitario = w.ValorUnitarioCamel
	}
	return nil
}

// UnitPrice is the custom price when set, otherwise the base price,
// otherwise the unit price, otherwise 0.
func (s Service) UnitPrice() float64 {
	switch {
	case s.ValorPersonalizado != nil:
		return s.ValorPersonalizado.Float()
	case s.ValorBase != nil:
		return s.ValorBase.Float()
	case s.ValorUnitario != nil:
		return s.ValorUnitario.Float()
	default:
		return 0
	}
}

// Company is the issuing company.
type Company struct {
	Nome     string `json:"nome"`
	Endereco string `json:"endereco,omitempty"`
	Telefone string `json:"telefone,omitempty"`
	Email    string `json:"email,omitempty"`
}

// DataContext is the business data merged into a template. Nil sections
// leave their tokens unresolved.
type DataContext struct {
	Proposal *Proposal `json:"proposta,omitempty"`
	Client   *Client   `json:"cliente,omitempty"`
	Services []Service `json:"servicos,omitempty"`
	Company  *Company  `json:"empresa,omitempty"`
}

// UnmarshalJSON accepts both the Portuguese section names and the English
// ones (proposal, client, services, company).
func (c *DataContext) UnmarshalJSON(data []byte) error {
	var w struct {
		Proposta *Proposal `json:"proposta"`
		Proposal *Proposal `json:"proposal"`
		Cliente  *Client   `json:"cliente"`
		Client   *Client   `json:"client"`
		Servicos []Service `json:"servicos"`
		Services []Service `json:"services"`
		Empresa  *Company  `json:"empresa"`
		Company  *Company  `json:"company"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = DataContext{
		Proposal: firstNonNil(w.Proposta, w.Proposal),
		Client:   firstNonNil(w.Cliente, w.Client),
		Services: w.Servicos,
		Company:  firstNonNil(w.Empresa, w.Company),
	}
	if c.Services == nil {
		c.Services = w.Services
	}
	return nil
}

func firstNonNil[T any](a, b *T) *T {
	if a != nil {
		return a
	}
	return b
}
