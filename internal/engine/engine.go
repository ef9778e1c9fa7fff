// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package engine renders proposal templates to static HTML for printing
// and export. Each page becomes a fixed-size box and each element an
// absolutely positioned child, in z-order. Text is merged with the data
// context through the variables engine and sanitized before output.
//
// Rendering never fails from the caller's point of view: a template that
// cannot be decoded or traversed produces a single error page instead.
package engine

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"runtime/debug"
	"strings"

	"propostaflow/internal/document"
	"propostaflow/internal/variables"
)

// Engine renders templates. It is safe for concurrent use.
type Engine struct {
	vars  *variables.Engine
	cache *documentCache
}

// New creates a renderer that resolves tokens with vars. A nil vars uses
// a default variables engine.
func New(vars *variables.Engine) *Engine {
	if vars == nil {
		vars = variables.NewEngine()
	}
	return &Engine{
		vars:  vars,
		cache: newDocumentCache(),
	}
}

// InvalidateTemplate removes a template from the L1 cache.
func (e *Engine) InvalidateTemplate(id string) {
	e.cache.invalidate(id)
}

// InvalidateAllTemplates clears the L1 cache.
func (e *Engine) InvalidateAllTemplates() {
	e.cache.invalidateAll()
}

// Render produces the complete HTML document for tpl merged with ctx.
func (e *Engine) Render(tpl *document.Template, ctx *variables.DataContext) (out string) {
	if tpl == nil || len(tpl.Pages) == 0 {
		return errorPage("o modelo não possui páginas")
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("render panic", "template", tpl.Name, "panic", r, "stack", string(debug.Stack()))
			out = errorPage(fmt.Sprint(r))
		}
	}()

	var body strings.Builder
	for i := range tpl.Pages {
		e.renderPage(&body, &tpl.Pages[i], ctx)
	}

	var buf bytes.Buffer
	err := shellTmpl.Execute(&buf, shellData{
		Title: documentTitle(tpl),
		CSS:   template.CSS(shellCSS),
		Body:  template.HTML(body.String()),
	})
	if err != nil {
		slog.Error("render shell", "error", err)
		return errorPage(err.Error())
	}
	return buf.String()
}

// RenderJSON decodes a stored template record, current or legacy shape,
// and renders it.
func (e *Engine) RenderJSON(raw []byte, ctx *variables.DataContext) string {
	tpl, err := document.Decode(raw)
	if err != nil {
		slog.Warn("render decode failed", "error", err)
		return errorPage(err.Error())
	}
	return e.Render(tpl, ctx)
}

// RenderRecord renders a stored record, reusing the decoded template from
// the L1 cache when the same id and version were rendered before.
func (e *Engine) RenderRecord(id string, version int, raw []byte, ctx *variables.DataContext) string {
	tpl := e.cache.get(id, version)
	if tpl == nil {
		var err error
		tpl, err = document.Decode(raw)
		if err != nil {
			slog.Warn("render decode failed", "id", id, "version", version, "error", err)
			return errorPage(err.Error())
		}
		e.cache.put(id, version, tpl)
	}
	return e.Render(tpl, ctx)
}

func documentTitle(tpl *document.Template) string {
	if name := strings.TrimSpace(tpl.Name); name != "" {
		return name
	}
	return "Proposta"
}

type shellData struct {
	Title string
	CSS   template.CSS
	Body  template.HTML
}

var shellTmpl = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>{{.CSS}}</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

var errorTmpl = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Erro ao gerar documento</title>
<style>body{font-family:Arial,sans-serif;background:#f9fafb;color:#111827}.render-error{max-width:640px;margin:80px auto;padding:32px;background:#fff;border:1px solid #fca5a5;border-radius:8px}.render-error h1{font-size:20px;color:#b91c1c;margin:0 0 12px}</style>
</head>
<body>
<div class="render-error">
<h1>Não foi possível gerar o documento</h1>
<p>{{.}}</p>
</div>
</body>
</html>
`))

// errorPage renders the single page shown instead of a broken document.
func errorPage(msg string) string {
	var buf bytes.Buffer
	if err := errorTmpl.Execute(&buf, msg); err != nil {
		return "<!DOCTYPE html><p>Não foi possível gerar o documento.</p>"
	}
	return buf.String()
}

const shellCSS = `*{box-sizing:border-box}
body{margin:0;background:#e5e7eb}
.page{position:relative;overflow:hidden;margin:24px auto;box-shadow:0 1px 4px rgba(0,0,0,.15);page-break-after:always;break-after:page}
.page:last-child{page-break-after:auto;break-after:auto}
.element{position:absolute;overflow:hidden;word-wrap:break-word}
.element img{display:block;width:100%;height:100%;object-fit:contain}
.image-placeholder{display:flex;align-items:center;justify-content:center;width:100%;height:100%;border:1px dashed #9ca3af;color:#6b7280;font-size:12px;text-align:center}
.element hr{margin:0;border:0}
.data-table,.services-table{width:100%;border-collapse:collapse}
.data-table td{padding:6px 8px}
.services-table th,.services-table td{padding:6px 8px;border-bottom:1px solid #e5e7eb;text-align:left}
.services-table th{background:#f3f4f6;font-weight:bold}
.services-table .num{text-align:right;white-space:nowrap}
.services-table tfoot td{border-bottom:0}
.services-table tr.total td{font-weight:bold;border-top:2px solid #111827}
.services-list{margin:0;padding-left:20px}
@media print{body{background:none}.page{margin:0;box-shadow:none}}
@page{margin:0}
`
