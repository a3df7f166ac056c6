package engine

import (
	"testing"

	"github.com/vtree-ui/vtree/pkg/decl"
	"github.com/vtree-ui/vtree/pkg/reconcile"
	"github.com/vtree-ui/vtree/pkg/render/memtree"
	"github.com/vtree-ui/vtree/pkg/sched"
	"github.com/vtree-ui/vtree/pkg/sched/schedtest"
)

type app struct {
	items []string
}

func (a *app) Produce() (any, error) {
	children := make([]*decl.Desc, len(a.items))
	for i, s := range a.items {
		children[i] = decl.Text(s)
	}
	return decl.New("column", nil, children...), nil
}

type fixture struct {
	tree   *memtree.Tree
	driver *schedtest.Driver
	eng    *Engine
	app    *app
	root   *Root
}

func newFixture(t *testing.T, items ...string) *fixture {
	t.Helper()
	tree := memtree.New("surface")
	driver := schedtest.New()
	eng := New(tree, WithDriver(driver))
	a := &app{items: items}
	root, err := eng.Mount(a, tree.Root())
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	return &fixture{tree, driver, eng, a, root}
}

func (f *fixture) liveRoot() *memtree.Node { return f.tree.Root().Children[0] }

func TestInvalidateCoalesces(t *testing.T) {
	f := newFixture(t, "a")

	f.app.items = []string{"a", "b"}
	f.root.Invalidate(sched.Default)
	f.root.Invalidate(sched.Default)
	f.root.Invalidate(sched.Default)
	f.driver.FireMicrotasks()

	st := f.eng.Stats()
	if st.Reconcile.Updates != 1 {
		t.Errorf("Updates = %d, want 1", st.Reconcile.Updates)
	}
	if st.Sched.SkippedDuplicates != 2 {
		t.Errorf("SkippedDuplicates = %d, want 2", st.Sched.SkippedDuplicates)
	}
	if len(f.liveRoot().Children) != 2 {
		t.Errorf("live tree not updated: %s", f.tree.Dump())
	}
}

func TestDispatchBatchesWrites(t *testing.T) {
	f := newFixture(t, "a")

	f.root.Dispatch(func() {
		f.app.items = append(f.app.items, "b")
		f.root.Invalidate(sched.Sync)
		f.app.items = append(f.app.items, "c")
		f.root.Invalidate(sched.Sync)
		f.root.Dispatch(func() { // nested dispatch
			f.app.items = append(f.app.items, "d")
			f.root.Invalidate(sched.Sync)
		})
		if len(f.liveRoot().Children) != 1 {
			t.Errorf("reconciliation ran inside the batch")
		}
	})

	st := f.eng.Stats()
	if st.Reconcile.Updates != 1 {
		t.Errorf("Updates = %d, want exactly one pass for the whole batch", st.Reconcile.Updates)
	}
	if len(f.liveRoot().Children) != 4 {
		t.Errorf("live tree missing writes: %s", f.tree.Dump())
	}
}

func TestSyncInvalidateFlushesImmediately(t *testing.T) {
	f := newFixture(t, "a")
	f.app.items = []string{"z"}
	f.root.Invalidate(sched.Sync)
	if got := f.liveRoot().Children[0].Text; got != "z" {
		t.Errorf("text = %q immediately after sync invalidate, want z", got)
	}
}

func TestAfterFlushSeesUpdatedTree(t *testing.T) {
	f := newFixture(t, "a")
	var seen int
	f.eng.AfterFlush(func() { seen = len(f.liveRoot().Children) })

	f.app.items = []string{"a", "b", "c"}
	f.root.Invalidate(sched.Default)
	f.driver.FireMicrotasks()

	if seen != 3 {
		t.Errorf("post-flush callback saw %d children, want 3", seen)
	}
}

func TestTransitionInvalidateWaitsForFrame(t *testing.T) {
	f := newFixture(t, "a")
	f.app.items = []string{"a", "b"}
	f.root.Invalidate(sched.Transition)

	if len(f.liveRoot().Children) != 1 {
		t.Fatalf("transition work ran before the frame window")
	}
	f.driver.FireFrame()
	if len(f.liveRoot().Children) != 2 {
		t.Errorf("transition work did not run in the frame window")
	}
}

func TestUnmountRecyclesAndRemountHits(t *testing.T) {
	f := newFixture(t, "a", "b", "c", "d")
	if err := f.root.Unmount(); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
	root2, err := f.eng.Mount(f.app, f.tree.Root())
	if err != nil {
		t.Fatalf("remount: %v", err)
	}
	defer root2.Unmount()

	st := f.eng.Stats()
	if st.Pool.Hits != 5 {
		t.Errorf("Pool.Hits = %d, want 5", st.Pool.Hits)
	}
}

func TestEngineInstancesAreIndependent(t *testing.T) {
	f1 := newFixture(t, "a")
	f2 := newFixture(t, "a")

	f1.app.items = []string{"a", "b"}
	f1.root.Invalidate(sched.Sync)

	if got := f2.eng.Stats().Reconcile.Updates; got != 0 {
		t.Errorf("engine 2 saw engine 1's update; Updates = %d", got)
	}
	if len(f2.liveRoot().Children) != 1 {
		t.Errorf("engine 2's tree changed")
	}
}

var _ reconcile.Producer = (*app)(nil)
