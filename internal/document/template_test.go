package document

import (
	"errors"
	"testing"
)

func TestNewTemplateHasOnePage(t *testing.T) {
	tpl := New("Proposta padrão", "comercial")
	if len(tpl.Pages) != 1 {
		t.Fatalf("pages: got %d, want 1", len(tpl.Pages))
	}
	if tpl.Pages[0].Config != DefaultPageConfig() {
		t.Errorf("page config: got %+v", tpl.Pages[0].Config)
	}
}

func TestAddAndRemovePages(t *testing.T) {
	tpl := New("x", "y")
	id := tpl.AddPage()
	if len(tpl.Pages) != 2 {
		t.Fatalf("pages: got %d, want 2", len(tpl.Pages))
	}
	if tpl.Page(id).Name != "Página 2" {
		t.Errorf("name: got %q", tpl.Page(id).Name)
	}

	if err := tpl.RemovePage(id); err != nil {
		t.Fatalf("RemovePage: %v", err)
	}
	if err := tpl.RemovePage(tpl.Pages[0].ID); !errors.Is(err, ErrLastPage) {
		t.Fatalf("expected ErrLastPage, got %v", err)
	}
	if len(tpl.Pages) != 1 {
		t.Errorf("pages: got %d, want 1", len(tpl.Pages))
	}
}

func TestRenamePage(t *testing.T) {
	tpl := New("x", "y")
	if err := tpl.RenamePage(tpl.Pages[0].ID, "Capa"); err != nil {
		t.Fatalf("RenamePage: %v", err)
	}
	if tpl.Pages[0].Name != "Capa" {
		t.Errorf("name: got %q", tpl.Pages[0].Name)
	}
	if err := tpl.RenamePage("nope", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		tpl  *Template
		want []error
	}{
		{name: "valid", tpl: New("Proposta", "vendas")},
		{name: "missing name", tpl: New(" ", "vendas"), want: []error{ErrNameRequired}},
		{name: "missing both", tpl: New("", ""), want: []error{ErrNameRequired, ErrCategoryRequired}},
		{name: "no pages", tpl: &Template{Name: "a", Category: "b"}, want: []error{ErrNoPages}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tpl.Validate()
			if len(tt.want) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !IsValidationError(err) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			for _, w := range tt.want {
				if !errors.Is(err, w) {
					t.Errorf("expected %v in %v", w, err)
				}
			}
		})
	}
}

func TestValidateDuplicateElementIDs(t *testing.T) {
	tpl := New("a", "b")
	el, _ := NewElement(KindText, &tpl.Pages[0])
	tpl.Pages[0].Append(el)
	tpl.Pages[0].Append(el)

	if err := tpl.Validate(); !errors.Is(err, ErrDuplicateElementID) {
		t.Fatalf("expected ErrDuplicateElementID, got %v", err)
	}
}

func ids(p *Page) []string {
	out := make([]string, len(p.Elements))
	for i, el := range p.Elements {
		out[i] = el.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestZOrder(t *testing.T) {
	page := &Page{}
	for i := 0; i < 4; i++ {
		el, _ := NewElement(KindText, page)
		page.Append(el)
	}
	original := ids(page)

	t.Run("up then down restores order", func(t *testing.T) {
		id := original[1]
		if !page.MoveUp(id) {
			t.Fatal("MoveUp should apply")
		}
		if page.IndexOf(id) != 2 {
			t.Errorf("index after MoveUp: got %d, want 2", page.IndexOf(id))
		}
		page.MoveDown(id)
		if !equalIDs(ids(page), original) {
			t.Errorf("order: got %v, want %v", ids(page), original)
		}
	})

	t.Run("front-most cannot move up", func(t *testing.T) {
		if page.MoveUp(original[3]) {
			t.Error("MoveUp on the last element should be a no-op")
		}
		if !equalIDs(ids(page), original) {
			t.Error("order changed")
		}
	})

	t.Run("back-most cannot move down", func(t *testing.T) {
		if page.MoveDown(original[0]) {
			t.Error("MoveDown on the first element should be a no-op")
		}
		if !equalIDs(ids(page), original) {
			t.Error("order changed")
		}
	})
}

func TestTemplateCloneIsDeep(t *testing.T) {
	tpl := New("a", "b")
	el, _ := NewElement(KindTable, &tpl.Pages[0])
	tpl.Pages[0].Append(el)

	cp := tpl.Clone()
	cp.Pages[0].Elements[0].Position.X = 999
	data, _ := cp.Pages[0].Elements[0].Table()
	data.Rows[0].Cells[0].Content = "changed"

	if tpl.Pages[0].Elements[0].Position.X == 999 {
		t.Error("clone shares element storage")
	}
	orig, _ := tpl.Pages[0].Elements[0].Table()
	if orig.Rows[0].Cells[0].Content == "changed" {
		t.Error("clone shares table storage")
	}
}
