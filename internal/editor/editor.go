// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package editor implements the template editor as a state machine over a
// document.Template. Every operation runs to completion and mutates the
// template directly; there is no undo stack.
//
// Operations that target a locked element are refused silently. Structural
// refusals (removing the last page, row or column) leave the document
// unchanged and queue a Notice for the user.
package editor

import (
	"errors"

	"propostaflow/internal/document"
)

// Mode is the primary editor state.
type Mode string

const (
	ModeIdle     Mode = "idle"
	ModeSelected Mode = "selected"
	ModeEditing  Mode = "editing"
)

// Notice levels.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
)

// Notice is a user-facing message produced by a refused or noteworthy
// operation.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Drag is the transient state of a pointer drag. Offset is the pointer
// position relative to the element's top-left corner at pointer-down.
type Drag struct {
	ElementID string            `json:"elementId"`
	Offset    document.Position `json:"offset"`

	// cached location of the dragged element, revalidated on every move
	pageIndex int
	elemIndex int
}

// CellEdit is the table cell editing sub-state. Keystrokes only touch
// Buffer; the cell is written on commit.
type CellEdit struct {
	ElementID string `json:"elementId"`
	RowID     string `json:"rowId"`
	CellID    string `json:"cellId"`
	Buffer    string `json:"buffer"`
}

// ContextMenu is the open context menu, anchored in page coordinates.
type ContextMenu struct {
	ElementID string            `json:"elementId"`
	At        document.Position `json:"at"`
}

// State is the serializable form of an editor, used to park a session
// between requests.
type State struct {
	Template    *document.Template `json:"template"`
	PageID      string             `json:"pageId"`
	Mode        Mode               `json:"mode"`
	Selected    string             `json:"selected,omitempty"`
	Buffer      string             `json:"buffer,omitempty"`
	Drag        *Drag              `json:"drag,omitempty"`
	Cell        *CellEdit          `json:"cell,omitempty"`
	Menu        *ContextMenu       `json:"menu,omitempty"`
	ColorPicker string             `json:"colorPicker,omitempty"`
}

// Editor edits one template. It is not safe for concurrent use.
type Editor struct {
	tpl         *document.Template
	pageID      string
	mode        Mode
	selected    string
	buffer      string
	drag        *Drag
	cell        *CellEdit
	menu        *ContextMenu
	colorPicker string
	notices     []Notice
}

// New starts an editor on tpl, which it mutates in place. A nil template
// starts a blank one.
func New(tpl *document.Template) *Editor {
	if tpl == nil {
		tpl = document.New("", "")
	}
	if len(tpl.Pages) == 0 {
		tpl.AddPage()
	}
	return &Editor{
		tpl:    tpl,
		pageID: tpl.Pages[0].ID,
		mode:   ModeIdle,
	}
}

// Restore rebuilds an editor from a parked State. References to pages or
// elements that no longer exist are dropped. A drag in progress survives,
// so a pointer drag can span several requests.
func Restore(s State) *Editor {
	e := New(s.Template)
	if e.tpl.Page(s.PageID) != nil {
		e.pageID = s.PageID
	}
	e.colorPicker = s.ColorPicker
	if s.Selected == "" || e.element(s.Selected) == nil {
		return e
	}
	e.mode = ModeSelected
	e.selected = s.Selected
	if s.Mode == ModeEditing {
		e.mode = ModeEditing
		e.buffer = s.Buffer
	}
	if s.Cell != nil && s.Cell.ElementID == s.Selected {
		c := *s.Cell
		e.cell = &c
	}
	if s.Menu != nil && e.element(s.Menu.ElementID) != nil {
		m := *s.Menu
		e.menu = &m
	}
	if s.Drag != nil && s.Drag.ElementID == s.Selected && e.unlocked(s.Selected) != nil {
		// indices are re-resolved on the next move
		e.drag = &Drag{ElementID: s.Drag.ElementID, Offset: s.Drag.Offset, pageIndex: -1, elemIndex: -1}
	}
	return e
}

// State returns a deep copy of the editor's state.
func (e *Editor) State() State {
	s := State{
		Template:    e.tpl.Clone(),
		PageID:      e.pageID,
		Mode:        e.mode,
		Selected:    e.selected,
		Buffer:      e.buffer,
		ColorPicker: e.colorPicker,
	}
	if e.drag != nil {
		d := *e.drag
		s.Drag = &d
	}
	if e.cell != nil {
		c := *e.cell
		s.Cell = &c
	}
	if e.menu != nil {
		m := *e.menu
		s.Menu = &m
	}
	return s
}

// Template returns the live template.
func (e *Editor) Template() *document.Template { return e.tpl }

// Snapshot returns a deep copy of the template, safe to hand to a save
// that runs while editing continues.
func (e *Editor) Snapshot() *document.Template { return e.tpl.Clone() }

// Mode returns the primary state.
func (e *Editor) Mode() Mode { return e.mode }

// Selected returns the selected element id, or "" when idle.
func (e *Editor) Selected() string { return e.selected }

// Buffer returns the pending text while editing.
func (e *Editor) Buffer() string { return e.buffer }

// Dragging reports the element being dragged, if any.
func (e *Editor) Dragging() (string, bool) {
	if e.drag == nil {
		return "", false
	}
	return e.drag.ElementID, true
}

// CellEditing returns the cell edit in progress, if any.
func (e *Editor) CellEditing() (CellEdit, bool) {
	if e.cell == nil {
		return CellEdit{}, false
	}
	return *e.cell, true
}

// ContextMenu returns the open context menu, if any.
func (e *Editor) ContextMenu() (ContextMenu, bool) {
	if e.menu == nil {
		return ContextMenu{}, false
	}
	return *e.menu, true
}

// ColorPicker returns the style field whose colour picker is open.
func (e *Editor) ColorPicker() string { return e.colorPicker }

// Notices returns and clears the queued notices.
func (e *Editor) Notices() []Notice {
	n := e.notices
	e.notices = nil
	return n
}

func (e *Editor) notify(level, msg string) {
	e.notices = append(e.notices, Notice{Level: level, Message: msg})
}

// CurrentPage returns the page being edited. It is never nil.
func (e *Editor) CurrentPage() *document.Page {
	if p := e.tpl.Page(e.pageID); p != nil {
		return p
	}
	e.pageID = e.tpl.Pages[0].ID
	return &e.tpl.Pages[0]
}

func (e *Editor) element(id string) *document.Element {
	if id == "" {
		return nil
	}
	return e.CurrentPage().Element(id)
}

// unlocked returns the element on the current page if it exists and is
// not locked.
func (e *Editor) unlocked(id string) *document.Element {
	el := e.element(id)
	if el == nil || el.Locked {
		return nil
	}
	return el
}

// reset drops every transient state and returns to Idle.
func (e *Editor) reset() {
	e.mode = ModeIdle
	e.selected = ""
	e.buffer = ""
	e.drag = nil
	e.cell = nil
	e.menu = nil
	e.colorPicker = ""
}

// SetInfo updates the template's descriptive fields.
func (e *Editor) SetInfo(name, description, category string) {
	e.tpl.Name = name
	e.tpl.Description = description
	e.tpl.Category = category
}

// SelectPage switches the current page. Selection is cleared.
func (e *Editor) SelectPage(id string) bool {
	if e.tpl.Page(id) == nil {
		return false
	}
	if id == e.pageID {
		return true
	}
	e.blur()
	e.reset()
	e.pageID = id
	return true
}

// AddPage appends a page and makes it current.
func (e *Editor) AddPage() string {
	e.blur()
	e.reset()
	e.pageID = e.tpl.AddPage()
	return e.pageID
}

// RemovePage deletes a page. The last page is never removed. Removing the
// current page moves to the first remaining page.
func (e *Editor) RemovePage(id string) bool {
	err := e.tpl.RemovePage(id)
	switch {
	case errors.Is(err, document.ErrLastPage):
		e.notify(LevelWarning, "O modelo precisa ter pelo menos uma página.")
		return false
	case err != nil:
		return false
	}
	if id == e.pageID {
		e.reset()
		e.pageID = e.tpl.Pages[0].ID
	}
	return true
}

// RenamePage changes a page's display name.
func (e *Editor) RenamePage(id, name string) bool {
	return e.tpl.RenamePage(id, name) == nil
}

// SetPageConfig replaces the current page's config.
func (e *Editor) SetPageConfig(cfg document.PageConfig) {
	e.CurrentPage().Config = cfg
}

// SetDefaultConfig replaces the config applied to new pages.
func (e *Editor) SetDefaultConfig(cfg document.PageConfig) {
	e.tpl.DefaultConfig = cfg
}

// blur commits whatever edit is pending, as losing focus does.
func (e *Editor) blur() {
	if e.cell != nil {
		e.CommitCellEdit()
	}
	if e.mode == ModeEditing {
		e.CommitEdit()
	}
}
