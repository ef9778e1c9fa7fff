package editor

import (
	"propostaflow/internal/document"
)

// Nudge steps.
const (
	NudgeStep      = 1
	NudgeLargeStep = 10
)

// Direction is an arrow-key direction.
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// AddElement appends a new element of the given kind to the current page
// and selects it.
func (e *Editor) AddElement(kind document.Kind) (string, error) {
	page := e.CurrentPage()
	el, err := document.NewElement(kind, page)
	if err != nil {
		return "", err
	}
	e.blur()
	page.Append(el)
	e.selectOnly(el.ID)
	return el.ID, nil
}

// Duplicate copies an element onto the current page and selects the copy.
func (e *Editor) Duplicate(id string) (string, bool) {
	el := e.element(id)
	if el == nil {
		return "", false
	}
	e.blur()
	dup := el.Duplicate()
	e.CurrentPage().Append(dup)
	e.selectOnly(dup.ID)
	return dup.ID, true
}

// Delete removes an unlocked element. Deleting the selection returns to
// Idle.
func (e *Editor) Delete(id string) bool {
	if e.unlocked(id) == nil {
		return false
	}
	if !e.CurrentPage().Remove(id) {
		return false
	}
	if e.selected == id {
		e.reset()
	} else if e.menu != nil && e.menu.ElementID == id {
		e.menu = nil
	}
	return true
}

// Select makes id the selection. A pending edit on another element is
// committed first.
func (e *Editor) Select(id string) bool {
	if e.element(id) == nil {
		return false
	}
	if e.selected == id && e.mode != ModeIdle {
		e.menu = nil
		return true
	}
	e.blur()
	e.selectOnly(id)
	return true
}

func (e *Editor) selectOnly(id string) {
	e.reset()
	e.mode = ModeSelected
	e.selected = id
}

// ClickCanvas handles a click on empty canvas: pending edits are
// committed and the editor returns to Idle.
func (e *Editor) ClickCanvas() {
	e.blur()
	e.reset()
}

// BeginEdit enters Editing on a text or variable element. The buffer
// starts with the element's current content.
func (e *Editor) BeginEdit(id string) bool {
	el := e.unlocked(id)
	if el == nil || !el.Editable() {
		return false
	}
	text, _ := el.Text()
	if e.selected != id {
		e.blur()
	}
	e.selectOnly(id)
	e.mode = ModeEditing
	e.buffer = text
	return true
}

// UpdateBuffer replaces the pending text. The element is not touched.
func (e *Editor) UpdateBuffer(text string) bool {
	if e.mode != ModeEditing {
		return false
	}
	e.buffer = text
	return true
}

// CommitEdit writes the buffer into the element verbatim and returns to
// Selected.
func (e *Editor) CommitEdit() bool {
	if e.mode != ModeEditing {
		return false
	}
	text := e.buffer
	e.mode = ModeSelected
	e.buffer = ""
	el := e.unlocked(e.selected)
	if el == nil {
		return false
	}
	return el.SetText(text)
}

// CancelEdit discards the buffer and returns to Selected.
func (e *Editor) CancelEdit() bool {
	if e.mode != ModeEditing {
		return false
	}
	e.mode = ModeSelected
	e.buffer = ""
	return true
}

// PointerDown selects the element under the pointer and, when it is
// unlocked, starts a drag. The pointer is in page coordinates.
func (e *Editor) PointerDown(id string, pointer document.Position) bool {
	if !e.Select(id) {
		return false
	}
	if e.mode == ModeEditing || e.cell != nil {
		return true
	}
	page := e.CurrentPage()
	idx := page.IndexOf(id)
	el := &page.Elements[idx]
	if el.Locked {
		return true
	}
	e.menu = nil
	e.drag = &Drag{
		ElementID: id,
		Offset: document.Position{
			X: pointer.X - el.Position.X,
			Y: pointer.Y - el.Position.Y,
		},
		pageIndex: e.pageIndex(),
		elemIndex: idx,
	}
	return true
}

// PointerMove moves the dragged element so it keeps its offset from the
// pointer. Positions are clamped at 0 and written immediately. Only the
// dragged element is touched.
func (e *Editor) PointerMove(pointer document.Position) bool {
	el := e.dragged()
	if el == nil {
		return false
	}
	el.Position = document.Position{
		X: pointer.X - e.drag.Offset.X,
		Y: pointer.Y - e.drag.Offset.Y,
	}.Clamp()
	return true
}

// PointerUp ends the drag. The position is already committed.
func (e *Editor) PointerUp() bool {
	if e.drag == nil {
		return false
	}
	e.drag = nil
	return true
}

// dragged resolves the drag target through its cached indices, falling
// back to a lookup if the page changed underneath.
func (e *Editor) dragged() *document.Element {
	d := e.drag
	if d == nil {
		return nil
	}
	pages := e.tpl.Pages
	if d.pageIndex >= 0 && d.pageIndex < len(pages) && pages[d.pageIndex].ID == e.pageID {
		els := pages[d.pageIndex].Elements
		if d.elemIndex >= 0 && d.elemIndex < len(els) && els[d.elemIndex].ID == d.ElementID {
			if els[d.elemIndex].Locked {
				return nil
			}
			return &els[d.elemIndex]
		}
	}
	el := e.unlocked(d.ElementID)
	if el == nil {
		e.drag = nil
		return nil
	}
	d.pageIndex = e.pageIndex()
	d.elemIndex = e.CurrentPage().IndexOf(d.ElementID)
	return el
}

func (e *Editor) pageIndex() int {
	for i := range e.tpl.Pages {
		if e.tpl.Pages[i].ID == e.pageID {
			return i
		}
	}
	return 0
}

// ToggleLock flips an element's lock. Selection and position are kept;
// locking an element ends any drag or edit on it.
func (e *Editor) ToggleLock(id string) bool {
	el := e.element(id)
	if el == nil {
		return false
	}
	el.Locked = !el.Locked
	if el.Locked && e.selected == id {
		if e.mode == ModeEditing {
			e.mode = ModeSelected
			e.buffer = ""
		}
		e.drag = nil
		e.cell = nil
	}
	return true
}

// MoveUp brings an element one step toward the front.
func (e *Editor) MoveUp(id string) bool {
	if e.unlocked(id) == nil {
		return false
	}
	return e.CurrentPage().MoveUp(id)
}

// MoveDown sends an element one step toward the back.
func (e *Editor) MoveDown(id string) bool {
	if e.unlocked(id) == nil {
		return false
	}
	return e.CurrentPage().MoveDown(id)
}

// Nudge moves the selected element by one unit, or ten with large set.
// It is ignored while editing text or a table cell.
func (e *Editor) Nudge(dir Direction, large bool) bool {
	if e.mode != ModeSelected || e.cell != nil {
		return false
	}
	el := e.unlocked(e.selected)
	if el == nil {
		return false
	}
	step := float64(NudgeStep)
	if large {
		step = NudgeLargeStep
	}
	p := el.Position
	switch dir {
	case Up:
		p.Y -= step
	case Down:
		p.Y += step
	case Left:
		p.X -= step
	case Right:
		p.X += step
	default:
		return false
	}
	el.Position = p.Clamp()
	return true
}

// SetStyle merges the non-empty fields of patch into an element's style.
func (e *Editor) SetStyle(id string, patch document.Style) bool {
	el := e.unlocked(id)
	if el == nil {
		return false
	}
	el.Style = el.Style.Merge(patch)
	return true
}

// SetImage replaces the payload of an image element.
func (e *Editor) SetImage(id, src string) bool {
	el := e.unlocked(id)
	if el == nil || el.Kind() != document.KindImage {
		return false
	}
	el.Content = document.ImageContent{Src: src}
	return true
}

// OpenContextMenu selects an element and anchors the menu at a point.
func (e *Editor) OpenContextMenu(id string, at document.Position) bool {
	if !e.Select(id) {
		return false
	}
	e.menu = &ContextMenu{ElementID: id, At: at}
	return true
}

// CloseContextMenu closes the context menu, if open.
func (e *Editor) CloseContextMenu() {
	e.menu = nil
}

// OpenColorPicker marks the colour picker for a style field as active.
// Only one picker is open at a time.
func (e *Editor) OpenColorPicker(field string) bool {
	if e.mode == ModeIdle {
		return false
	}
	e.colorPicker = field
	return true
}

// CloseColorPicker closes the active colour picker.
func (e *Editor) CloseColorPicker() {
	e.colorPicker = ""
}
