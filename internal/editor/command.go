package editor

import (
	"errors"
	"fmt"

	"propostaflow/internal/document"
)

// ErrUnknownCommand is returned by Apply for an unrecognised op.
var ErrUnknownCommand = errors.New("unknown editor command")

// Command is a JSON-decodable editor operation. Op selects the operation;
// the other fields are its arguments and are ignored when not relevant.
type Command struct {
	Op        string               `json:"op"`
	ID        string               `json:"id,omitempty"`
	PageID    string               `json:"pageId,omitempty"`
	RowID     string               `json:"rowId,omitempty"`
	CellID    string               `json:"cellId,omitempty"`
	Kind      document.Kind        `json:"kind,omitempty"`
	Text      string               `json:"text,omitempty"`
	Name      string               `json:"name,omitempty"`
	Category  string               `json:"category,omitempty"`
	X         float64              `json:"x,omitempty"`
	Y         float64              `json:"y,omitempty"`
	Index     int                  `json:"index,omitempty"`
	Direction Direction            `json:"direction,omitempty"`
	Large     bool                 `json:"large,omitempty"`
	Bound     bool                 `json:"bound,omitempty"`
	Field     string               `json:"field,omitempty"`
	Style     *document.Style      `json:"style,omitempty"`
	CellStyle *document.CellStyle  `json:"cellStyle,omitempty"`
	Table     *document.TableStyle `json:"tableStyle,omitempty"`
	Config    *document.PageConfig `json:"config,omitempty"`
}

// Result reports the outcome of an applied command. Applied is false when
// the editor refused the operation; ID carries a newly created id.
type Result struct {
	Applied bool     `json:"applied"`
	ID      string   `json:"id,omitempty"`
	Notices []Notice `json:"notices,omitempty"`
}

// Apply runs a command. Refusals are not errors: they come back as
// Applied=false, possibly with notices. Errors mean the command itself is
// malformed.
func (e *Editor) Apply(cmd Command) (Result, error) {
	var (
		ok  bool
		id  string
		err error
	)
	pointer := document.Position{X: cmd.X, Y: cmd.Y}

	switch cmd.Op {
	case "selectPage":
		ok = e.SelectPage(cmd.PageID)
	case "addPage":
		id, ok = e.AddPage(), true
	case "removePage":
		ok = e.RemovePage(cmd.PageID)
	case "renamePage":
		ok = e.RenamePage(cmd.PageID, cmd.Name)
	case "setPageConfig":
		if cmd.Config == nil {
			return Result{}, fmt.Errorf("%s: config is required", cmd.Op)
		}
		e.SetPageConfig(*cmd.Config)
		ok = true
	case "setDefaultConfig":
		if cmd.Config == nil {
			return Result{}, fmt.Errorf("%s: config is required", cmd.Op)
		}
		e.SetDefaultConfig(*cmd.Config)
		ok = true
	case "setInfo":
		e.SetInfo(cmd.Name, cmd.Text, cmd.Category)
		ok = true

	case "addElement":
		id, err = e.AddElement(cmd.Kind)
		if err != nil {
			return Result{}, err
		}
		ok = true
	case "duplicate":
		id, ok = e.Duplicate(cmd.ID)
	case "delete":
		ok = e.Delete(cmd.ID)
	case "select":
		ok = e.Select(cmd.ID)
	case "clickCanvas":
		e.ClickCanvas()
		ok = true
	case "beginEdit":
		ok = e.BeginEdit(cmd.ID)
	case "updateBuffer":
		ok = e.UpdateBuffer(cmd.Text)
	case "commitEdit":
		ok = e.CommitEdit()
	case "cancelEdit":
		ok = e.CancelEdit()
	case "pointerDown":
		ok = e.PointerDown(cmd.ID, pointer)
	case "pointerMove":
		ok = e.PointerMove(pointer)
	case "pointerUp":
		ok = e.PointerUp()
	case "toggleLock":
		ok = e.ToggleLock(cmd.ID)
	case "moveUp":
		ok = e.MoveUp(cmd.ID)
	case "moveDown":
		ok = e.MoveDown(cmd.ID)
	case "nudge":
		ok = e.Nudge(cmd.Direction, cmd.Large)
	case "setStyle":
		if cmd.Style == nil {
			return Result{}, fmt.Errorf("%s: style is required", cmd.Op)
		}
		ok = e.SetStyle(cmd.ID, *cmd.Style)
	case "setImage":
		ok = e.SetImage(cmd.ID, cmd.Text)
	case "openContextMenu":
		ok = e.OpenContextMenu(cmd.ID, pointer)
	case "closeContextMenu":
		e.CloseContextMenu()
		ok = true
	case "openColorPicker":
		ok = e.OpenColorPicker(cmd.Field)
	case "closeColorPicker":
		e.CloseColorPicker()
		ok = true

	case "addRow":
		id, ok = e.AddRow(cmd.ID)
	case "removeRow":
		ok = e.RemoveRow(cmd.ID, cmd.RowID)
	case "addColumn":
		ok = e.AddColumn(cmd.ID)
	case "removeColumn":
		ok = e.RemoveColumn(cmd.ID, cmd.Index)
	case "setCellStyle":
		if cmd.CellStyle == nil {
			return Result{}, fmt.Errorf("%s: cellStyle is required", cmd.Op)
		}
		ok = e.SetCellStyle(cmd.ID, cmd.RowID, cmd.CellID, *cmd.CellStyle)
	case "setTableStyle":
		if cmd.Table == nil {
			return Result{}, fmt.Errorf("%s: tableStyle is required", cmd.Op)
		}
		ok = e.SetTableStyle(cmd.ID, *cmd.Table)
	case "bindServices":
		ok = e.BindServices(cmd.ID, cmd.Bound)
	case "beginCellEdit":
		ok = e.BeginCellEdit(cmd.ID, cmd.RowID, cmd.CellID)
	case "updateCellBuffer":
		ok = e.UpdateCellBuffer(cmd.Text)
	case "commitCellEdit":
		ok = e.CommitCellEdit()
	case "cancelCellEdit":
		ok = e.CancelCellEdit()

	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Op)
	}

	return Result{Applied: ok, ID: id, Notices: e.Notices()}, nil
}
