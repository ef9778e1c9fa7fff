package editor

import (
	"errors"

	"propostaflow/internal/document"
)

// table returns the literal table of an unlocked table element on the
// current page. Tables bound to the services token have no cells.
func (e *Editor) table(id string) *document.TableData {
	el := e.unlocked(id)
	if el == nil {
		return nil
	}
	t, ok := el.Table()
	if !ok {
		return nil
	}
	return t
}

// AddRow appends a row to a table element.
func (e *Editor) AddRow(id string) (string, bool) {
	t := e.table(id)
	if t == nil {
		return "", false
	}
	return t.AddRow(), true
}

// RemoveRow deletes a row. The last row is kept and a notice is queued.
func (e *Editor) RemoveRow(id, rowID string) bool {
	t := e.table(id)
	if t == nil {
		return false
	}
	if err := t.RemoveRow(rowID); err != nil {
		if errors.Is(err, document.ErrLastRow) {
			e.notify(LevelWarning, "A tabela precisa ter pelo menos uma linha.")
		}
		return false
	}
	if e.cell != nil && e.cell.ElementID == id && e.cell.RowID == rowID {
		e.cell = nil
	}
	return true
}

// AddColumn appends a column to a table element.
func (e *Editor) AddColumn(id string) bool {
	t := e.table(id)
	if t == nil {
		return false
	}
	t.AddColumn()
	return true
}

// RemoveColumn deletes the column at index. The last column is kept and a
// notice is queued; an index out of range is ignored.
func (e *Editor) RemoveColumn(id string, index int) bool {
	t := e.table(id)
	if t == nil {
		return false
	}
	editedCol := -1
	if e.cell != nil && e.cell.ElementID == id {
		editedCol = columnOf(t, e.cell.RowID, e.cell.CellID)
	}
	if err := t.RemoveColumn(index); err != nil {
		if errors.Is(err, document.ErrLastColumn) {
			e.notify(LevelWarning, "A tabela precisa ter pelo menos uma coluna.")
		}
		return false
	}
	if editedCol == index {
		e.cell = nil
	}
	return true
}

func columnOf(t *document.TableData, rowID, cellID string) int {
	for _, r := range t.Rows {
		if r.ID != rowID {
			continue
		}
		for i, c := range r.Cells {
			if c.ID == cellID {
				return i
			}
		}
	}
	return -1
}

// SetCellStyle merges patch into a single cell's style.
func (e *Editor) SetCellStyle(id, rowID, cellID string, patch document.CellStyle) bool {
	t := e.table(id)
	if t == nil {
		return false
	}
	return t.SetCellStyle(rowID, cellID, patch) == nil
}

// SetTableStyle replaces a table's border style.
func (e *Editor) SetTableStyle(id string, style document.TableStyle) bool {
	t := e.table(id)
	if t == nil {
		return false
	}
	t.Style = style
	return true
}

// BindServices switches a table element between the generated services
// table and a literal table. Unbinding starts from a fresh 3x3 table.
func (e *Editor) BindServices(id string, bound bool) bool {
	el := e.unlocked(id)
	if el == nil || el.Kind() != document.KindTable {
		return false
	}
	if bound {
		el.Content = document.TableContent{Token: document.ServicesTableToken}
	} else if _, ok := el.Table(); !ok {
		el.Content = document.TableContent{Data: document.NewTable(3, 3)}
	}
	if e.cell != nil && e.cell.ElementID == id {
		e.cell = nil
	}
	return true
}

// BeginCellEdit activates a cell. Any other pending edit is committed and
// the table element becomes the selection.
func (e *Editor) BeginCellEdit(id, rowID, cellID string) bool {
	t := e.table(id)
	if t == nil {
		return false
	}
	cell, ok := t.Cell(rowID, cellID)
	if !ok {
		return false
	}
	e.blur()
	if e.selected != id {
		e.selectOnly(id)
	}
	e.menu = nil
	e.drag = nil
	e.cell = &CellEdit{ElementID: id, RowID: rowID, CellID: cellID, Buffer: cell.Content}
	return true
}

// UpdateCellBuffer replaces the pending cell text. The cell is not
// touched.
func (e *Editor) UpdateCellBuffer(text string) bool {
	if e.cell == nil {
		return false
	}
	e.cell.Buffer = text
	return true
}

// CommitCellEdit writes the buffer into the cell, as on blur or Enter.
func (e *Editor) CommitCellEdit() bool {
	c := e.cell
	if c == nil {
		return false
	}
	e.cell = nil
	t := e.table(c.ElementID)
	if t == nil {
		return false
	}
	return t.SetCellContent(c.RowID, c.CellID, c.Buffer) == nil
}

// CancelCellEdit discards the buffer, as on Escape.
func (e *Editor) CancelCellEdit() bool {
	if e.cell == nil {
		return false
	}
	e.cell = nil
	return true
}
