// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package document

import (
	"errors"
	"fmt"
	"strings"
)

// Page is an ordered list of elements. Later elements render on top.
type Page struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Elements []Element  `json:"elements"`
	Config   PageConfig `json:"config"`
}

// Template is a multi-page document definition. It always has at least
// one page.
type Template struct {
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Category      string     `json:"category"`
	Pages         []Page     `json:"pages"`
	DefaultConfig PageConfig `json:"defaultConfig"`
}

// New returns an empty template with a single blank page.
func New(name, category string) *Template {
	t := &Template{
		Name:          name,
		Category:      category,
		DefaultConfig: DefaultPageConfig(),
	}
	t.Pages = []Page{t.newPage()}
	return t
}

func (t *Template) newPage() Page {
	return Page{
		ID:     newID(),
		Name:   fmt.Sprintf("Página %d", len(t.Pages)+1),
		Config: t.DefaultConfig,
	}
}

// AddPage appends a page with a default name and the template's default
// config and returns its id.
func (t *Template) AddPage() string {
	p := t.newPage()
	t.Pages = append(t.Pages, p)
	return p.ID
}

// RemovePage deletes a page. The last remaining page cannot be removed.
func (t *Template) RemovePage(id string) error {
	idx := t.pageIndex(id)
	if idx < 0 {
		return ErrNotFound
	}
	if len(t.Pages) <= 1 {
		return ErrLastPage
	}
	t.Pages = append(t.Pages[:idx], t.Pages[idx+1:]...)
	return nil
}

// RenamePage changes the display name of a page.
func (t *Template) RenamePage(id, name string) error {
	p := t.Page(id)
	if p == nil {
		return ErrNotFound
	}
	p.Name = name
	return nil
}

// Page returns the page with the given id, or nil.
func (t *Template) Page(id string) *Page {
	idx := t.pageIndex(id)
	if idx < 0 {
		return nil
	}
	return &t.Pages[idx]
}

func (t *Template) pageIndex(id string) int {
	for i := range t.Pages {
		if t.Pages[i].ID == id {
			return i
		}
	}
	return -1
}

// Validate checks the invariants required before persistence.
func (t *Template) Validate() error {
	var problems []error
	if strings.TrimSpace(t.Name) == "" {
		problems = append(problems, ErrNameRequired)
	}
	if strings.TrimSpace(t.Category) == "" {
		problems = append(problems, ErrCategoryRequired)
	}
	if len(t.Pages) == 0 {
		problems = append(problems, ErrNoPages)
	}
	for _, p := range t.Pages {
		seen := make(map[string]bool, len(p.Elements))
		for _, el := range p.Elements {
			if seen[el.ID] {
				problems = append(problems, fmt.Errorf("%w %q on page %q", ErrDuplicateElementID, el.ID, p.Name))
			}
			seen[el.ID] = true
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// IsValidationError reports whether err came from Validate.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Clone returns a deep copy of the template.
func (t *Template) Clone() *Template {
	out := *t
	out.Pages = make([]Page, len(t.Pages))
	for i, p := range t.Pages {
		out.Pages[i] = p.Clone()
	}
	return &out
}

// Clone returns a deep copy of the page.
func (p Page) Clone() Page {
	out := p
	if p.Elements != nil {
		out.Elements = make([]Element, len(p.Elements))
		for i, el := range p.Elements {
			out.Elements[i] = el.Clone()
		}
	}
	return out
}

// Element returns the element with the given id, or nil.
func (p *Page) Element(id string) *Element {
	idx := p.IndexOf(id)
	if idx < 0 {
		return nil
	}
	return &p.Elements[idx]
}

// IndexOf returns the z-order index of an element, or -1.
func (p *Page) IndexOf(id string) int {
	for i := range p.Elements {
		if p.Elements[i].ID == id {
			return i
		}
	}
	return -1
}

// Append places el on top of every other element.
func (p *Page) Append(el Element) {
	p.Elements = append(p.Elements, el)
}

// Remove deletes an element from the page.
func (p *Page) Remove(id string) bool {
	idx := p.IndexOf(id)
	if idx < 0 {
		return false
	}
	p.Elements = append(p.Elements[:idx], p.Elements[idx+1:]...)
	return true
}

// MoveUp swaps an element with its next neighbour, bringing it one step
// to the front. The front-most element stays put.
func (p *Page) MoveUp(id string) bool {
	idx := p.IndexOf(id)
	if idx < 0 || idx == len(p.Elements)-1 {
		return false
	}
	p.Elements[idx], p.Elements[idx+1] = p.Elements[idx+1], p.Elements[idx]
	return true
}

// MoveDown swaps an element with its previous neighbour, sending it one
// step to the back. The back-most element stays put.
func (p *Page) MoveDown(id string) bool {
	idx := p.IndexOf(id)
	if idx <= 0 {
		return false
	}
	p.Elements[idx], p.Elements[idx-1] = p.Elements[idx-1], p.Elements[idx]
	return true
}
