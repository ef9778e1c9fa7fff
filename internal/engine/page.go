package engine

import (
	"encoding/base64"
	"html"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"propostaflow/internal/document"
	"propostaflow/internal/variables"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// sanitizer allows the formatting users type into text elements and the
// markup generated by structural tokens, and nothing executable.
func sanitizer() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class").Globally()
		p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
		p.AllowElements("small", "u", "s")
		policy = p
	})
	return policy
}

func (e *Engine) renderPage(b *strings.Builder, p *document.Page, ctx *variables.DataContext) {
	cfg := p.Config
	def := document.DefaultPageConfig()
	if cfg.Width <= 0 {
		cfg.Width = def.Width
	}
	if cfg.Height <= 0 {
		cfg.Height = def.Height
	}

	var css cssBuilder
	css.px("width", float64(cfg.Width))
	css.px("height", float64(cfg.Height))
	css.set("background-color", cfg.BackgroundColor)
	if bg := backgroundURL(cfg.BackgroundImage); bg != "" {
		css.raw("background-image", "url('"+bg+"')")
		css.raw("background-size", "cover")
	}
	css.px("padding", float64(cfg.Padding))
	css.set("font-family", cfg.FontFamily)

	b.WriteString(`<section class="page" data-page="`)
	b.WriteString(html.EscapeString(p.ID))
	b.WriteString(`" style="`)
	b.WriteString(css.String())
	b.WriteString(`">`)
	for i := range p.Elements {
		e.renderElement(b, &p.Elements[i], ctx)
	}
	b.WriteString(`</section>`)
}

func (e *Engine) renderElement(b *strings.Builder, el *document.Element, ctx *variables.DataContext) {
	var css cssBuilder
	css.px("left", el.Position.X)
	css.px("top", el.Position.Y)
	s := el.Style
	css.set("width", s.Width)
	css.set("height", s.Height)
	css.set("font-size", s.FontSize)
	css.set("font-weight", s.FontWeight)
	css.set("color", s.Color)
	if el.Kind() != document.KindLine {
		css.set("background-color", s.BackgroundColor)
	}
	css.set("text-align", s.TextAlign)
	css.set("padding", s.Padding)
	css.set("margin", s.Margin)
	css.set("border-radius", s.BorderRadius)
	css.set("border", s.Border)

	b.WriteString(`<div class="element element-`)
	b.WriteString(string(el.Kind()))
	b.WriteString(`" style="`)
	b.WriteString(css.String())
	b.WriteString(`">`)

	switch c := el.Content.(type) {
	case document.TextContent:
		b.WriteString(e.text(c.Text, ctx))
	case document.VariableContent:
		b.WriteString(e.text(c.Token, ctx))
	case document.ImageContent:
		writeImage(b, c.Src)
	case document.TableContent:
		e.writeTable(b, c, ctx)
	case document.LineContent:
		color := s.BackgroundColor
		if color == "" || color == "transparent" {
			color = s.Color
		}
		height := s.Height
		if height == "" || height == "auto" {
			height = "2px"
		}
		var line cssBuilder
		line.set("border-top", height+" solid "+color)
		b.WriteString(`<hr style="`)
		b.WriteString(line.String())
		b.WriteString(`">`)
	case document.SpacerContent:
		// sized box only
	}
	b.WriteString(`</div>`)
}

// text merges tokens, turns newlines into line breaks and sanitizes.
func (e *Engine) text(content string, ctx *variables.DataContext) string {
	out := e.vars.Substitute(content, ctx)
	out = strings.ReplaceAll(out, "\r\n", "\n")
	out = strings.ReplaceAll(out, "\n", "<br>")
	return sanitizer().Sanitize(out)
}

func (e *Engine) writeTable(b *strings.Builder, c document.TableContent, ctx *variables.DataContext) {
	if c.Bound() {
		b.WriteString(e.text(c.Token, ctx))
		return
	}
	t := c.Data
	if t == nil {
		return
	}

	var tcss cssBuilder
	if t.Style.BorderWidth != "" && t.Style.BorderColor != "" {
		tcss.set("border", t.Style.BorderWidth+" solid "+t.Style.BorderColor)
	}
	b.WriteString(`<table class="data-table" style="`)
	b.WriteString(tcss.String())
	b.WriteString(`"><tbody>`)
	for _, row := range t.Rows {
		b.WriteString(`<tr>`)
		for _, cell := range row.Cells {
			var ccss cssBuilder
			ccss.set("background-color", cell.Style.BackgroundColor)
			ccss.set("color", cell.Style.Color)
			ccss.set("font-weight", cell.Style.FontWeight)
			ccss.set("text-align", cell.Style.TextAlign)
			if t.Style.BorderWidth != "" && t.Style.BorderColor != "" {
				ccss.set("border", t.Style.BorderWidth+" solid "+t.Style.BorderColor)
			}
			b.WriteString(`<td style="`)
			b.WriteString(ccss.String())
			b.WriteString(`">`)
			b.WriteString(e.text(cell.Content, ctx))
			b.WriteString(`</td>`)
		}
		b.WriteString(`</tr>`)
	}
	b.WriteString(`</tbody></table>`)
}

// dataURIRe matches a base64 image data URI and captures the payload.
var dataURIRe = regexp.MustCompile(`^data:image/(png|jpeg|jpg|gif|webp|svg\+xml);base64,([A-Za-z0-9+/=\s]+)$`)

// ValidImage reports whether src is an embedded image the renderer will
// emit.
func ValidImage(src string) bool {
	m := dataURIRe.FindStringSubmatch(strings.TrimSpace(src))
	if m == nil {
		return false
	}
	payload := strings.Join(strings.Fields(m[2]), "")
	_, err := base64.StdEncoding.DecodeString(payload)
	return err == nil
}

func writeImage(b *strings.Builder, src string) {
	switch {
	case strings.TrimSpace(src) == "":
		b.WriteString(`<div class="image-placeholder">Nenhuma imagem selecionada</div>`)
	case !ValidImage(src):
		b.WriteString(`<div class="image-placeholder">Imagem inválida ou não suportada</div>`)
	default:
		b.WriteString(`<img alt="" src="`)
		b.WriteString(html.EscapeString(strings.TrimSpace(src)))
		b.WriteString(`">`)
	}
}

// backgroundURL returns a page background image safe to embed in CSS, or
// "" when the value is not an image data URI or an http(s) URL.
func backgroundURL(src string) string {
	src = strings.TrimSpace(src)
	switch {
	case src == "":
		return ""
	case ValidImage(src):
	case strings.HasPrefix(src, "https://"), strings.HasPrefix(src, "http://"):
	default:
		return ""
	}
	if strings.ContainsAny(src, `'"()\<>`) {
		return ""
	}
	return html.EscapeString(src)
}

// cssBuilder assembles an inline style attribute. Values come from user
// input, so anything that could close the declaration or the attribute
// is dropped.
type cssBuilder struct {
	b strings.Builder
}

func (c *cssBuilder) set(prop, value string) {
	value = strings.TrimSpace(value)
	if value == "" || strings.ContainsAny(value, `;{}<>"'\`) {
		return
	}
	c.raw(prop, html.EscapeString(value))
}

func (c *cssBuilder) raw(prop, value string) {
	c.b.WriteString(prop)
	c.b.WriteByte(':')
	c.b.WriteString(value)
	c.b.WriteByte(';')
}

func (c *cssBuilder) px(prop string, v float64) {
	c.raw(prop, strconv.FormatFloat(v, 'f', -1, 64)+"px")
}

func (c *cssBuilder) String() string {
	return c.b.String()
}
