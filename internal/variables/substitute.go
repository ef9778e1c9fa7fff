// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package variables resolves {{token}} merge fields against a proposal's
// business data. Scalar tokens become HTML-escaped text; structural
// tokens such as {{tabela_servicos}} expand to generated markup. Tokens that
// cannot be resolved are left in place verbatim.
package variables

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// tokenRe matches {{identifier}}, tolerating spaces inside the braces.
var tokenRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// Structural tokens.
const (
	TokenServicesTable = "tabela_servicos"
	TokenServicesList  = "lista_servicos"
)

// resolver returns the value for a token, or false when the data context
// lacks what the token needs.
type resolver func(r *resolution) (string, bool)

// resolution is the per-call state: the context plus totals computed
// once and shared by every token in the content.
type resolution struct {
	ctx    *DataContext
	totals Totals
	now    time.Time
}

// Engine substitutes merge tokens.
type Engine struct {
	now       func() time.Time
	loc       *time.Location
	resolvers map[string]resolver
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used by {{data_atual}}.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the time zone used by {{data_atual}}.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// NewEngine creates an engine with the built-in resolvers.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now:       time.Now,
		loc:       time.Local,
		resolvers: builtinResolvers(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = NewEngine()

// Substitute resolves tokens with the default engine.
func Substitute(content string, ctx *DataContext) string {
	return defaultEngine.Substitute(content, ctx)
}

// Substitute replaces every resolvable token in content, which is treated
// as markup. Scalar values are escaped; only structural tokens add tags.
// Content without tokens is returned unchanged.
func (e *Engine) Substitute(content string, ctx *DataContext) string {
	if !strings.Contains(content, "{{") {
		return content
	}
	r := e.resolve(ctx)
	return tokenRe.ReplaceAllStringFunc(content, func(match string) string {
		name := tokenRe.FindStringSubmatch(match)[1]
		fn, ok := e.resolvers[name]
		if !ok {
			return match
		}
		v, ok := fn(r)
		if !ok {
			return match
		}
		if name == TokenServicesTable || name == TokenServicesList {
			return v
		}
		return neutralize(html.EscapeString(v))
	})
}

// Totals exposes the aggregate values the engine would use for ctx.
func (e *Engine) Totals(ctx *DataContext) Totals {
	return ComputeTotals(ctx)
}

// Resolves reports whether the engine knows the token name.
func (e *Engine) Resolves(name string) bool {
	_, ok := e.resolvers[name]
	return ok
}

// IsStructural reports whether a token string (with or without braces)
// expands to markup rather than text.
func IsStructural(token string) bool {
	name := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(token), "{{"), "}}"))
	return name == TokenServicesTable || name == TokenServicesList
}

func (e *Engine) resolve(ctx *DataContext) *resolution {
	if ctx == nil {
		ctx = &DataContext{}
	}
	return &resolution{
		ctx:    ctx,
		totals: ComputeTotals(ctx),
		now:    e.now().In(e.loc),
	}
}

// neutralize keeps resolved values from introducing new tokens, which
// makes a second substitution pass a no-op.
func neutralize(v string) string {
	return strings.ReplaceAll(v, "{{", "{ {")
}

func builtinResolvers() map[string]resolver {
	proposal := func(f func(p *Proposal) string) resolver {
		return func(r *resolution) (string, bool) {
			if r.ctx.Proposal == nil {
				return "", false
			}
			return f(r.ctx.Proposal), true
		}
	}
	client := func(f func(c *Client) string) resolver {
		return func(r *resolution) (string, bool) {
			if r.ctx.Client == nil {
				return "", false
			}
			return f(r.ctx.Client), true
		}
	}
	company := func(f func(c *Company) string) resolver {
		return func(r *resolution) (string, bool) {
			if r.ctx.Company == nil {
				return "", false
			}
			return f(r.ctx.Company), true
		}
	}
	// amount prefers the value computed from services and falls back to
	// the amount stored on the proposal when no services are present.
	amount := func(computed func(t Totals) float64, stored func(p *Proposal) float64) resolver {
		return func(r *resolution) (string, bool) {
			if len(r.ctx.Services) > 0 {
				return FormatCurrency(computed(r.totals)), true
			}
			if r.ctx.Proposal != nil && stored != nil {
				return FormatCurrency(stored(r.ctx.Proposal)), true
			}
			return "", false
		}
	}

	return map[string]resolver{
		"proposta_numero":      proposal(func(p *Proposal) string { return p.Numero }),
		"proposta_titulo":      proposal(func(p *Proposal) string { return p.Titulo }),
		"proposta_data":        proposal(func(p *Proposal) string { return FormatDate(p.CreatedAt) }),
		"proposta_validade":    proposal(func(p *Proposal) string { return FormatDate(p.DataVencimento) }),
		"proposta_status":      proposal(func(p *Proposal) string { return p.Status }),
		"proposta_observacoes": proposal(func(p *Proposal) string { return p.Observacoes }),

		"desconto":  proposal(func(p *Proposal) string { return FormatPercent(p.Desconto.Float()) }),
		"acrescimo": proposal(func(p *Proposal) string { return FormatPercent(p.Acrescimo.Float()) }),
		"subtotal": amount(
			func(t Totals) float64 { return t.Subtotal },
			func(p *Proposal) float64 { return p.Subtotal.Float() },
		),
		"valor_desconto": amount(
			func(t Totals) float64 { return t.Discount },
			func(p *Proposal) float64 { return p.Subtotal.Float() * p.Desconto.Float() / 100 },
		),
		"valor_acrescimo": amount(
			func(t Totals) float64 { return t.Surcharge },
			func(p *Proposal) float64 { return p.Subtotal.Float() * p.Acrescimo.Float() / 100 },
		),
		"valor_total": amount(
			func(t Totals) float64 { return t.Total },
			func(p *Proposal) float64 { return p.ValorTotal.Float() },
		),

		"cliente_nome":     client(func(c *Client) string { return c.Nome }),
		"cliente_empresa":  client(func(c *Client) string { return c.Empresa }),
		"cliente_email":    client(func(c *Client) string { return c.Email }),
		"cliente_telefone": client(func(c *Client) string { return c.Telefone }),

		"empresa_nome":     company(func(c *Company) string { return c.Nome }),
		"empresa_endereco": company(func(c *Company) string { return c.Endereco }),
		"empresa_telefone": company(func(c *Company) string { return c.Telefone }),
		"empresa_email":    company(func(c *Company) string { return c.Email }),

		"quantidade_servicos": func(r *resolution) (string, bool) {
			if len(r.ctx.Services) == 0 {
				return "", false
			}
			return strconv.Itoa(len(r.ctx.Services)), true
		},
		"data_atual": func(r *resolution) (string, bool) {
			return r.now.Format("02/01/2006"), true
		},

		TokenServicesTable: servicesTable,
		TokenServicesList:  servicesList,
	}
}

// servicesTable expands to a line-item table with the totals footer.
func servicesTable(r *resolution) (string, bool) {
	if len(r.totals.Lines) == 0 {
		return "", false
	}
	t := r.totals

	var b strings.Builder
	b.WriteString(`<table class="services-table">`)
	b.WriteString(`<thead><tr><th>Serviço</th><th class="num">Qtd.</th><th class="num">Valor unitário</th><th class="num">Total</th></tr></thead>`)
	b.WriteString(`<tbody>`)
	for _, l := range t.Lines {
		b.WriteString(`<tr><td>`)
		b.WriteString(html.EscapeString(l.Name))
		if l.Description != "" {
			b.WriteString(`<br><small>`)
			b.WriteString(html.EscapeString(l.Description))
			b.WriteString(`</small>`)
		}
		b.WriteString(`</td><td class="num">`)
		b.WriteString(FormatQuantity(l.Quantity))
		b.WriteString(`</td><td class="num">`)
		b.WriteString(FormatCurrency(l.UnitPrice))
		b.WriteString(`</td><td class="num">`)
		b.WriteString(FormatCurrency(l.Total))
		b.WriteString(`</td></tr>`)
	}
	b.WriteString(`</tbody><tfoot>`)
	footerRow(&b, "Subtotal", FormatCurrency(t.Subtotal))
	if t.Discount != 0 {
		footerRow(&b, "Desconto ("+FormatPercent(t.DiscountPercent)+")", "- "+FormatCurrency(t.Discount))
	}
	if t.Surcharge != 0 {
		footerRow(&b, "Acréscimo ("+FormatPercent(t.SurchargePercent)+")", "+ "+FormatCurrency(t.Surcharge))
	}
	b.WriteString(`<tr class="total"><td colspan="3">Total</td><td class="num">`)
	b.WriteString(FormatCurrency(t.Total))
	b.WriteString(`</td></tr></tfoot></table>`)
	return b.String(), true
}

func footerRow(b *strings.Builder, label, value string) {
	b.WriteString(`<tr><td colspan="3">`)
	b.WriteString(html.EscapeString(label))
	b.WriteString(`</td><td class="num">`)
	b.WriteString(value)
	b.WriteString(`</td></tr>`)
}

// servicesList expands to a bullet list of "quantity × name".
func servicesList(r *resolution) (string, bool) {
	if len(r.totals.Lines) == 0 {
		return "", false
	}
	var b strings.Builder
	b.WriteString(`<ul class="services-list">`)
	for _, l := range r.totals.Lines {
		b.WriteString(`<li>`)
		b.WriteString(FormatQuantity(l.Quantity))
		b.WriteString(` × `)
		b.WriteString(html.EscapeString(l.Name))
		b.WriteString(` (`)
		b.WriteString(FormatCurrency(l.Total))
		b.WriteString(`)</li>`)
	}
	b.WriteString(`</ul>`)
	return b.String(), true
}
