// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package document

import (
	"strconv"

	"github.com/google/uuid"
)

// Cell is a single table cell.
type Cell struct {
	ID      string    `json:"id"`
	Content string    `json:"content"`
	Style   CellStyle `json:"style"`
}

// Row is an ordered list of cells.
type Row struct {
	ID    string `json:"id"`
	Cells []Cell `json:"cells"`
}

// TableData is a rectangular matrix of cells. Every row always has the
// same number of cells; only AddColumn and RemoveColumn change the width.
type TableData struct {
	Rows  []Row      `json:"rows"`
	Style TableStyle `json:"style"`
}

// NewTable builds a rows×cols table whose first row is styled as a header.
func NewTable(rows, cols int) *TableData {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	t := &TableData{
		Style: TableStyle{BorderColor: "#dddddd", BorderWidth: "1px"},
	}
	for r := 0; r < rows; r++ {
		row := Row{ID: newID()}
		for c := 0; c < cols; c++ {
			cell := Cell{ID: newID(), Style: DefaultCellStyle()}
			if r == 0 {
				cell.Content = "Coluna " + strconv.Itoa(c+1)
				cell.Style.BackgroundColor = "#f3f4f6"
				cell.Style.FontWeight = "bold"
			}
			row.Cells = append(row.Cells, cell)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Columns returns the width of the table.
func (t *TableData) Columns() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0].Cells)
}

// AddRow appends an empty row as wide as the table and returns its id.
func (t *TableData) AddRow() string {
	cols := t.Columns()
	if cols == 0 {
		cols = 1
	}
	row := Row{ID: newID(), Cells: make([]Cell, cols)}
	for i := range row.Cells {
		row.Cells[i] = Cell{ID: newID(), Style: DefaultCellStyle()}
	}
	t.Rows = append(t.Rows, row)
	return row.ID
}

// RemoveRow deletes the row with the given id. The last remaining row
// cannot be removed.
func (t *TableData) RemoveRow(rowID string) error {
	idx := t.rowIndex(rowID)
	if idx < 0 {
		return ErrNotFound
	}
	if len(t.Rows) <= 1 {
		return ErrLastRow
	}
	t.Rows = append(t.Rows[:idx], t.Rows[idx+1:]...)
	return nil
}

// AddColumn appends one default-styled cell to every row.
func (t *TableData) AddColumn() {
	if len(t.Rows) == 0 {
		t.AddRow()
		return
	}
	for i := range t.Rows {
		t.Rows[i].Cells = append(t.Rows[i].Cells, Cell{ID: newID(), Style: DefaultCellStyle()})
	}
}

// RemoveColumn deletes the cell at index from every row. The last
// remaining column cannot be removed.
func (t *TableData) RemoveColumn(index int) error {
	cols := t.Columns()
	if index < 0 || index >= cols {
		return ErrColumnRange
	}
	if cols <= 1 {
		return ErrLastColumn
	}
	for i := range t.Rows {
		cells := t.Rows[i].Cells
		t.Rows[i].Cells = append(cells[:index:index], cells[index+1:]...)
	}
	return nil
}

// SetCellContent replaces the text of a single cell.
func (t *TableData) SetCellContent(rowID, cellID, text string) error {
	cell := t.cell(rowID, cellID)
	if cell == nil {
		return ErrNotFound
	}
	cell.Content = text
	return nil
}

// SetCellStyle applies the non-empty fields of patch to a single cell.
func (t *TableData) SetCellStyle(rowID, cellID string, patch CellStyle) error {
	cell := t.cell(rowID, cellID)
	if cell == nil {
		return ErrNotFound
	}
	cell.Style = cell.Style.Merge(patch)
	return nil
}

// Cell returns a copy of the addressed cell.
func (t *TableData) Cell(rowID, cellID string) (Cell, bool) {
	c := t.cell(rowID, cellID)
	if c == nil {
		return Cell{}, false
	}
	return *c, true
}

// Rectangular reports whether every row has the same number of cells.
func (t *TableData) Rectangular() bool {
	cols := t.Columns()
	for _, r := range t.Rows {
		if len(r.Cells) != cols {
			return false
		}
	}
	return true
}

// Clone returns a deep copy. When fresh is true rows and cells get new ids.
func (t *TableData) Clone(fresh bool) *TableData {
	if t == nil {
		return nil
	}
	out := &TableData{Style: t.Style, Rows: make([]Row, len(t.Rows))}
	for i, r := range t.Rows {
		row := Row{ID: r.ID, Cells: make([]Cell, len(r.Cells))}
		copy(row.Cells, r.Cells)
		if fresh {
			row.ID = newID()
			for j := range row.Cells {
				row.Cells[j].ID = newID()
			}
		}
		out.Rows[i] = row
	}
	return out
}

func (t *TableData) rowIndex(rowID string) int {
	for i, r := range t.Rows {
		if r.ID == rowID {
			return i
		}
	}
	return -1
}

func (t *TableData) cell(rowID, cellID string) *Cell {
	idx := t.rowIndex(rowID)
	if idx < 0 {
		return nil
	}
	cells := t.Rows[idx].Cells
	for i := range cells {
		if cells[i].ID == cellID {
			return &cells[i]
		}
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}
