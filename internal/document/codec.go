// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package document

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// wireElement is the persisted shape of an element. Content is a string
// for text, variable and image elements, a table object (or a structural
// token string) for tables, and absent for lines and spacers.
type wireElement struct {
	ID       string          `json:"id"`
	Type     Kind            `json:"type,omitempty"`
	Kind     Kind            `json:"kind,omitempty"`
	Content  json.RawMessage `json:"content,omitempty"`
	Position Position        `json:"position"`
	Style    Style           `json:"style"`
	Locked   bool            `json:"locked"`
}

// MarshalJSON writes the element in its persisted shape.
func (e Element) MarshalJSON() ([]byte, error) {
	w := wireElement{
		ID:       e.ID,
		Type:     e.Kind(),
		Position: e.Position,
		Style:    e.Style,
		Locked:   e.Locked,
	}

	var (
		raw []byte
		err error
	)
	switch c := e.Content.(type) {
	case TextContent:
		raw, err = json.Marshal(c.Text)
	case VariableContent:
		raw, err = json.Marshal(c.Token)
	case ImageContent:
		raw, err = json.Marshal(c.Src)
	case TableContent:
		if c.Bound() {
			raw, err = json.Marshal(c.Token)
		} else {
			raw, err = json.Marshal(c.Data)
		}
	case LineContent, SpacerContent:
	case nil:
		return nil, fmt.Errorf("element %s: missing content", e.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("element %s: encode content: %w", e.ID, err)
	}
	w.Content = raw
	return json.Marshal(w)
}

// UnmarshalJSON reads an element from its persisted shape. Older records
// may use "kind" instead of "type" as the discriminator.
func (e *Element) UnmarshalJSON(data []byte) error {
	var w wireElement
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	kind := w.Type
	if kind == "" {
		kind = w.Kind
	}

	content, err := decodeContent(kind, w.Content)
	if err != nil {
		return fmt.Errorf("element %s: %w", w.ID, err)
	}

	*e = Element{
		ID:       w.ID,
		Position: w.Position,
		Style:    w.Style,
		Locked:   w.Locked,
		Content:  content,
	}
	return nil
}

func decodeContent(kind Kind, raw json.RawMessage) (Content, error) {
	switch kind {
	case KindText:
		s, err := contentString(raw)
		return TextContent{Text: s}, err
	case KindVariable:
		s, err := contentString(raw)
		return VariableContent{Token: s}, err
	case KindImage:
		s, err := contentString(raw)
		return ImageContent{Src: s}, err
	case KindTable:
		return decodeTable(raw)
	case KindLine:
		return LineContent{}, nil
	case KindSpacer:
		return SpacerContent{}, nil
	default:
		return nil, fmt.Errorf("unknown element type %q", kind)
	}
}

func contentString(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("decode content: %w", err)
	}
	return s, nil
}

func decodeTable(raw json.RawMessage) (Content, error) {
	if isNull(raw) {
		return TableContent{Data: NewTable(1, 1)}, nil
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '"' {
		var token string
		if err := json.Unmarshal(trimmed, &token); err != nil {
			return nil, fmt.Errorf("decode table token: %w", err)
		}
		return TableContent{Token: token}, nil
	}

	var data TableData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode table: %w", err)
	}
	normalizeTable(&data)
	return TableContent{Data: &data}, nil
}

// normalizeTable pads short rows so tables written by older editors still
// satisfy the rectangular invariant once loaded.
func normalizeTable(t *TableData) {
	if len(t.Rows) == 0 {
		t.AddRow()
		return
	}
	width := 0
	for _, r := range t.Rows {
		if len(r.Cells) > width {
			width = len(r.Cells)
		}
	}
	if width == 0 {
		width = 1
	}
	for i := range t.Rows {
		for len(t.Rows[i].Cells) < width {
			t.Rows[i].Cells = append(t.Rows[i].Cells, Cell{ID: newID(), Style: DefaultCellStyle()})
		}
	}
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// wireTemplate accepts both the current multi-page record and the legacy
// single-page record ({elementos|elements, configuracoes}).
type wireTemplate struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Pages         json.RawMessage `json:"pages"`
	DefaultConfig *PageConfig     `json:"defaultConfig"`

	Elementos     []Element   `json:"elementos"`
	Elements      []Element   `json:"elements"`
	Configuracoes *PageConfig `json:"configuracoes"`
}

// UnmarshalJSON decodes a stored template, migrating the legacy shape.
func (t *Template) UnmarshalJSON(data []byte) error {
	var w wireTemplate
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	out := Template{
		Name:          w.Name,
		Description:   w.Description,
		Category:      w.Category,
		DefaultConfig: DefaultPageConfig(),
	}
	if w.DefaultConfig != nil {
		out.DefaultConfig = w.DefaultConfig.withDefaults()
	}

	if !isNull(w.Pages) {
		if err := json.Unmarshal(w.Pages, &out.Pages); err != nil {
			return fmt.Errorf("decode pages: %w", err)
		}
		for i := range out.Pages {
			out.Pages[i].Config = out.Pages[i].Config.withDefaults()
		}
	} else {
		out.Pages = migrateLegacy(&w, &out)
	}

	if len(out.Pages) == 0 {
		out.Pages = []Page{out.newPage()}
	}
	*t = out
	return nil
}

// migrateLegacy wraps a flat element list into a single page. The page
// uses the template-level config, which also becomes the default config
// for pages added later.
func migrateLegacy(w *wireTemplate, out *Template) []Page {
	elements := w.Elementos
	if elements == nil {
		elements = w.Elements
	}
	if w.Configuracoes != nil {
		out.DefaultConfig = w.Configuracoes.withDefaults()
	}
	if elements == nil && w.Configuracoes == nil {
		return nil
	}
	return []Page{{
		ID:       newID(),
		Name:     "Página 1",
		Elements: elements,
		Config:   out.DefaultConfig,
	}}
}

// Decode parses a stored template record. Legacy single-page records are
// migrated here, before any editing or rendering sees them.
func Decode(data []byte) (*Template, error) {
	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}
	return &t, nil
}

// Encode serializes a template in the current multi-page shape.
func Encode(t *Template) ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode template: %w", err)
	}
	return data, nil
}
