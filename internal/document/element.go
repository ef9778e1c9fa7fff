// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package document defines the multi-page proposal template: pages of
// absolutely positioned elements, the table sub-model, JSON persistence
// (including the legacy single-page shape) and validation.
package document

import "fmt"

// Kind identifies the element variant.
type Kind string

const (
	KindText     Kind = "text"
	KindVariable Kind = "variable"
	KindImage    Kind = "image"
	KindTable    Kind = "table"
	KindLine     Kind = "line"
	KindSpacer   Kind = "spacer"
)

// Kinds lists every element kind in toolbar order.
var Kinds = []Kind{KindText, KindVariable, KindImage, KindTable, KindLine, KindSpacer}

// Placement of newly created and duplicated elements.
const (
	DefaultX        = 50
	DefaultY        = 50
	VerticalStep    = 60
	DuplicateOffset = 20
)

// ServicesTableToken is the structural token a table element may be bound
// to instead of literal rows.
const ServicesTableToken = "{{tabela_servicos}}"

// Content is the kind-specific payload of an element. The set of
// implementations is closed; switch on the concrete type.
type Content interface {
	Kind() Kind
	clone(fresh bool) Content
}

// TextContent is free text that may contain merge tokens.
type TextContent struct {
	Text string
}

// VariableContent holds a single merge token such as {{cliente_nome}}.
type VariableContent struct {
	Token string
}

// ImageContent holds an embedded image as a data URI, or nothing.
type ImageContent struct {
	Src string
}

// TableContent is either literal table data or a binding to a structural
// token that expands at render time.
type TableContent struct {
	Data  *TableData
	Token string
}

// Bound reports whether the table renders from a structural token.
func (c TableContent) Bound() bool {
	return c.Token != ""
}

// LineContent is a horizontal rule; it carries no payload.
type LineContent struct{}

// SpacerContent is an empty box; it carries no payload.
type SpacerContent struct{}

func (TextContent) Kind() Kind     { return KindText }
func (VariableContent) Kind() Kind { return KindVariable }
func (ImageContent) Kind() Kind    { return KindImage }
func (TableContent) Kind() Kind    { return KindTable }
func (LineContent) Kind() Kind     { return KindLine }
func (SpacerContent) Kind() Kind   { return KindSpacer }

func (c TextContent) clone(bool) Content     { return c }
func (c VariableContent) clone(bool) Content { return c }
func (c ImageContent) clone(bool) Content    { return c }
func (c LineContent) clone(bool) Content     { return c }
func (c SpacerContent) clone(bool) Content   { return c }
func (c TableContent) clone(fresh bool) Content {
	return TableContent{Data: c.Data.Clone(fresh), Token: c.Token}
}

// Element is one visual unit on a page.
type Element struct {
	ID       string
	Position Position
	Style    Style
	Locked   bool
	Content  Content
}

// Kind returns the variant of the element's payload.
func (e *Element) Kind() Kind {
	if e.Content == nil {
		return ""
	}
	return e.Content.Kind()
}

// Editable reports whether the element accepts inline text editing.
func (e *Element) Editable() bool {
	k := e.Kind()
	return k == KindText || k == KindVariable
}

// Text returns the editable string of a text or variable element.
func (e *Element) Text() (string, bool) {
	switch c := e.Content.(type) {
	case TextContent:
		return c.Text, true
	case VariableContent:
		return c.Token, true
	default:
		return "", false
	}
}

// SetText replaces the content of a text or variable element verbatim.
func (e *Element) SetText(s string) bool {
	switch e.Content.(type) {
	case TextContent:
		e.Content = TextContent{Text: s}
	case VariableContent:
		e.Content = VariableContent{Token: s}
	default:
		return false
	}
	return true
}

// Table returns the literal table data of a table element.
func (e *Element) Table() (*TableData, bool) {
	c, ok := e.Content.(TableContent)
	if !ok || c.Data == nil {
		return nil, false
	}
	return c.Data, true
}

// Clone returns a deep copy that shares nothing with e.
func (e Element) Clone() Element {
	if e.Content != nil {
		e.Content = e.Content.clone(false)
	}
	return e
}

// Duplicate returns a copy with a fresh id, shifted down and right.
func (e Element) Duplicate() Element {
	d := e
	if e.Content != nil {
		d.Content = e.Content.clone(true)
	}
	d.ID = newID()
	d.Position = Position{X: e.Position.X + DuplicateOffset, Y: e.Position.Y + DuplicateOffset}
	return d
}

// NewElement builds an element of the given kind with default content and
// style, placed one step below the last element of page.
func NewElement(kind Kind, page *Page) (Element, error) {
	content, err := defaultContent(kind)
	if err != nil {
		return Element{}, err
	}

	el := Element{
		ID:       newID(),
		Position: Position{X: DefaultX, Y: DefaultY},
		Style:    DefaultStyle(),
		Content:  content,
	}
	if page != nil && len(page.Elements) > 0 {
		last := page.Elements[len(page.Elements)-1]
		el.Position.Y = last.Position.Y + VerticalStep
	}

	switch kind {
	case KindVariable:
		el.Style.BackgroundColor = "#eff6ff"
		el.Style.Color = "#1d4ed8"
	case KindTable:
		el.Style.Width = "500px"
		el.Style.Padding = "0px"
	case KindImage:
		el.Style.Width = "200px"
		el.Style.Height = "150px"
	case KindLine:
		el.Style.Width = "500px"
		el.Style.Height = "2px"
		el.Style.Padding = "0px"
		el.Style.BackgroundColor = "#000000"
	case KindSpacer:
		el.Style.Width = "500px"
		el.Style.Height = "40px"
		el.Style.Padding = "0px"
	}
	return el, nil
}

func defaultContent(kind Kind) (Content, error) {
	switch kind {
	case KindText:
		return TextContent{Text: "Clique duas vezes para editar"}, nil
	case KindVariable:
		return VariableContent{Token: "{{cliente_nome}}"}, nil
	case KindImage:
		return ImageContent{}, nil
	case KindTable:
		return TableContent{Data: NewTable(3, 3)}, nil
	case KindLine:
		return LineContent{}, nil
	case KindSpacer:
		return SpacerContent{}, nil
	default:
		return nil, fmt.Errorf("document: unknown element kind %q", kind)
	}
}
