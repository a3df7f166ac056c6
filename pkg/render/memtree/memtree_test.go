package memtree

import (
	"testing"
)

func TestTreeEdits(t *testing.T) {
	tr := New("surface")
	a := tr.CreateNode("row").(*Node)
	b := tr.CreateNode("text").(*Node)
	c := tr.CreateNode("text").(*Node)

	tr.AppendChild(tr.Root(), a)
	tr.AppendChild(a, b)
	tr.InsertChild(a, c, 0)

	if got := tr.NumChildren(a); got != 2 {
		t.Fatalf("NumChildren = %d, want 2", got)
	}
	if tr.ChildAt(a, 0) != c || tr.ChildAt(a, 1) != b {
		t.Errorf("InsertChild did not place child at index 0")
	}
	if !tr.Contains(b) {
		t.Errorf("Contains(attached node) = false")
	}

	d := tr.CreateNode("text").(*Node)
	tr.ReplaceChild(a, b, d)
	if tr.ChildAt(a, 1) != d || b.Parent() != nil {
		t.Errorf("ReplaceChild did not swap nodes")
	}
	if tr.Contains(b) {
		t.Errorf("Contains(detached node) = true")
	}

	tr.RemoveChild(a, c)
	if tr.NumChildren(a) != 1 || c.Parent() != nil {
		t.Errorf("RemoveChild did not detach child")
	}
	if tr.NodesCreated() != 4 {
		t.Errorf("NodesCreated = %d, want 4", tr.NodesCreated())
	}
}

func TestReset(t *testing.T) {
	tr := New("surface")
	n := tr.CreateNode("label").(*Node)
	tr.SetAttr(n, "color", "red")
	tr.SetText(n, "hello")
	tr.AppendChild(n, tr.CreateNode("text").(*Node))

	tr.Reset(n)
	if n.Text != "" || len(n.Attrs) != 0 || len(n.Children) != 0 || n.Parent() != nil {
		t.Errorf("Reset left state behind: %+v", n)
	}
	if n.Tag != "label" {
		t.Errorf("Reset cleared the tag")
	}
}

func TestDump(t *testing.T) {
	tr := New("surface")
	row := tr.CreateNode("row").(*Node)
	tr.SetAttr(row, "gap", 2)
	leaf := tr.CreateNode("text").(*Node)
	tr.SetText(leaf, "hi")
	tr.AppendChild(tr.Root(), row)
	tr.AppendChild(row, leaf)

	want := "surface\n  row gap=2\n    text \"hi\"\n"
	if got := tr.Dump(); got != want {
		t.Errorf("Dump:\n%s\nwant:\n%s", got, want)
	}
}
