package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vtree-ui/vtree/pkg/decl"
)

func mustTree(t *testing.T, produced any) *VNode {
	t.Helper()
	tree, err := buildTree(produced, "")
	if err != nil {
		t.Fatalf("buildTree: %v", err)
	}
	return tree
}

func patchStrings(patches []Patch) []string {
	var ss []string
	for _, p := range patches {
		ss = append(ss, p.String())
	}
	return ss
}

func checkPatches(t *testing.T, patches []Patch, want ...string) {
	t.Helper()
	if diff := cmp.Diff(want, patchStrings(patches)); diff != "" {
		t.Errorf("patches (-want +got):\n%s", diff)
	}
}

func texts(ss ...string) []*decl.Desc {
	ds := make([]*decl.Desc, len(ss))
	for i, s := range ss {
		ds[i] = decl.Text(s)
	}
	return ds
}

func column(children ...*decl.Desc) *decl.Desc {
	return decl.New("column", nil, children...)
}

func TestDiff_IdenticalTrees(t *testing.T) {
	d := column(texts("a", "b", "c")...)
	checkPatches(t, Diff(mustTree(t, d), mustTree(t, d), nil))
}

func TestDiff_BothAbsent(t *testing.T) {
	checkPatches(t, Diff(nil, nil, nil))
}

func TestDiff_InsertAndRemoveAtRoot(t *testing.T) {
	tree := mustTree(t, decl.Text("a"))
	checkPatches(t, Diff(nil, tree, nil), "insert@/")
	checkPatches(t, Diff(tree, nil, nil), "remove@/")
}

func TestDiff_TypeChangeReplacesSubtree(t *testing.T) {
	old := mustTree(t, column(texts("a", "b")...))
	new := mustTree(t, decl.New("row", nil, texts("a", "b")...))
	// No recursion into children: one replace swaps the whole subtree.
	checkPatches(t, Diff(old, new, nil), "replace@/")
}

func TestDiff_KeyChangeReplacesAndCountsIdentityChange(t *testing.T) {
	old := mustTree(t, column(decl.Text("a").WithKey("x")))
	new := mustTree(t, column(decl.Text("a").WithKey("y")))
	var st Stats
	checkPatches(t, Diff(old, new, &st), "replace@/0")
	if st.IdentityChanges != 1 {
		t.Errorf("IdentityChanges = %d, want 1", st.IdentityChanges)
	}
}

func TestDiff_LeafTextChange(t *testing.T) {
	old := mustTree(t, column(texts("a", "b", "c")...))
	new := mustTree(t, column(texts("a", "x", "c")...))
	checkPatches(t, Diff(old, new, nil), "update@/1")
}

func TestDiff_SelfChangeStopsChildRecursion(t *testing.T) {
	old := mustTree(t, decl.New("row", map[string]any{"gap": 1}, texts("a", "b")...))
	new := mustTree(t, decl.New("row", map[string]any{"gap": 2}, texts("a", "x")...))
	checkPatches(t, Diff(old, new, nil), "update@/")
}

func TestDiff_UnkeyedTailInsertRemove(t *testing.T) {
	two := mustTree(t, column(texts("a", "b")...))
	four := mustTree(t, column(texts("a", "b", "c", "d")...))
	checkPatches(t, Diff(two, four, nil), "insert@/2", "insert@/3")

	two = mustTree(t, column(texts("a", "b")...))
	four = mustTree(t, column(texts("a", "b", "c", "d")...))
	checkPatches(t, Diff(four, two, nil), "remove@/2", "remove@/3")
}

func keyedList(keys ...string) *decl.Desc {
	children := make([]*decl.Desc, len(keys))
	for i, k := range keys {
		children[i] = decl.Text(k).WithKey(k)
	}
	return column(children...)
}

func TestDiff_KeyedReorderProducesNoPatches(t *testing.T) {
	old := mustTree(t, keyedList("A", "B", "C"))
	new := mustTree(t, keyedList("C", "A", "B"))
	checkPatches(t, Diff(old, new, nil))
	// Matched pairs carry their live-node references.
	for i, c := range new.children {
		if c.node != nil {
			t.Errorf("child %d: unexpected live node before mounting", i)
		}
	}
}

func TestDiff_KeyedInsertRemove(t *testing.T) {
	old := mustTree(t, keyedList("A", "B", "C"))
	new := mustTree(t, keyedList("B", "D"))
	// B matches by key; A and C are removed at their original paths; D is a
	// pure insert at its new path.
	checkPatches(t, Diff(old, new, nil), "insert@/1", "remove@/0", "remove@/2")
}

func TestDiff_MixedKeyedAndUnkeyed(t *testing.T) {
	old := mustTree(t, column(
		decl.Text("k1").WithKey("k1"),
		decl.Text("u1"),
		decl.Text("u2"),
	))
	new := mustTree(t, column(
		decl.Text("u1"),
		decl.Text("k1").WithKey("k1"),
		decl.Text("u2"),
	))
	// The unkeyed children are consumed in original order: u1 pairs with
	// u1, u2 with u2, k1 matches by key. Nothing changes.
	checkPatches(t, Diff(old, new, nil))
}

func TestDiff_MemoizedSubtreeSkipped(t *testing.T) {
	factory := decl.Memoized0(func() *decl.Desc {
		return column(texts("a", "b")...)
	})
	old := mustTree(t, factory())
	old.node = "live-root"
	old.children[0].node = "live-0"

	new := mustTree(t, factory())
	var st Stats
	checkPatches(t, Diff(old, new, &st))
	if st.SubtreesSkipped != 1 {
		t.Errorf("SubtreesSkipped = %d, want 1", st.SubtreesSkipped)
	}
	if new.node != "live-root" || new.children[0].node != "live-0" {
		t.Errorf("live-node references not carried into the skipped subtree")
	}
}

func TestDiff_FingerprintMatchAloneIsNotTrusted(t *testing.T) {
	// Without the memoized mark, a fingerprint match still goes through the
	// structural comparison and child recursion.
	old := mustTree(t, column(texts("a", "b")...))
	new := mustTree(t, column(texts("a", "b")...))
	if old.desc.Fingerprint() != new.desc.Fingerprint() {
		t.Fatalf("fingerprints differ for identical structures")
	}
	var st Stats
	checkPatches(t, Diff(old, new, &st))
	if st.SubtreesSkipped != 0 {
		t.Errorf("SubtreesSkipped = %d, want 0 for non-memoized trees", st.SubtreesSkipped)
	}
}
