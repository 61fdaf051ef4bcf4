package quickopen

import "testing"

func testItems() []Item {
	return []Item{
		{Label: "editor/buffer.go", Detail: "/p/editor/buffer.go"},
		{Label: "editor/folding.go", Detail: "/p/editor/folding.go"},
		{Label: "main.go", Detail: "/p/main.go"},
		{Label: "textlayout/wrap.go", Detail: "/p/textlayout/wrap.go"},
	}
}

func TestModelFilterEmptyQueryKeepsOrder(t *testing.T) {
	m := NewModel(testItems())

	got := m.Filter("")
	if len(got) != m.Len() {
		t.Fatalf("Filter(\"\") returned %d items, want %d", len(got), m.Len())
	}
	for i, it := range testItems() {
		if got[i].Label != it.Label {
			t.Errorf("item[%d] = %q, want %q (order must be stable)", i, got[i].Label, it.Label)
		}
	}
}

func TestModelFilterRanksBasenameFirst(t *testing.T) {
	m := NewModel(testItems())

	got := m.Filter("buffer")
	if len(got) == 0 {
		t.Fatal("expected at least one match for \"buffer\"")
	}
	if got[0].Label != "editor/buffer.go" {
		t.Errorf("best match = %q, want editor/buffer.go", got[0].Label)
	}
}

func TestModelFilterExcludesNonMatches(t *testing.T) {
	m := NewModel(testItems())

	got := m.Filter("wrap")
	for _, it := range got {
		if it.Label == "main.go" {
			t.Errorf("main.go should not match query %q", "wrap")
		}
	}
	if len(got) == 0 {
		t.Error("expected textlayout/wrap.go to match")
	}
}

func TestModelSetItems(t *testing.T) {
	m := NewModel(nil)
	if m.Len() != 0 {
		t.Fatalf("Len = %d, want 0", m.Len())
	}
	m.SetItems(testItems())
	if m.Len() != 4 {
		t.Errorf("Len = %d, want 4", m.Len())
	}
}
