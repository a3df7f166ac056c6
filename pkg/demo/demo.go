// Package demo implements the default vtree subprogram. It mounts a scene on
// an in-memory surface, drives a number of scripted update passes through the
// engine, and prints the resulting tree along with engine statistics.
package demo

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vtree-ui/vtree/pkg/decl"
	"github.com/vtree-ui/vtree/pkg/engine"
	"github.com/vtree-ui/vtree/pkg/prog"
	"github.com/vtree-ui/vtree/pkg/render/memtree"
	"github.com/vtree-ui/vtree/pkg/scene"
	"github.com/vtree-ui/vtree/pkg/sched"
	"github.com/vtree-ui/vtree/pkg/statstore"
	"github.com/vtree-ui/vtree/pkg/sys"
)

// Program is the demo subprogram. It is the fallback program of the vtree
// command, so it has no activation flag.
type Program struct {
	frames int
	db     string
	label  string
}

func (p *Program) RegisterFlags(fs *prog.FlagSet) {
	fs.IntVar(&p.frames, "frames", 10, "Number of update passes to drive")
	fs.StringVar(&p.db, "db", "", "Record engine statistics in this database file")
	fs.StringVar(&p.label, "label", "demo", "Label to record statistics under")
}

func (p *Program) Run(fds [3]*os.File, args []string) error {
	if len(args) > 1 {
		return prog.BadUsage("want 0 or 1 arguments, got " + fmt.Sprint(len(args)))
	}

	body := defaultScene()
	if len(args) == 1 {
		var err error
		body, err = scene.Load(args[0])
		if err != nil {
			return err
		}
	}

	tree := memtree.New("surface")
	eng := engine.New(tree)
	defer eng.Close()

	app := &app{body: body}
	root, err := eng.Mount(app, tree.Root())
	if err != nil {
		return err
	}
	defer root.Unmount()

	for i := 0; i < p.frames; i++ {
		root.Dispatch(func() {
			app.frame++
			root.Invalidate(sched.Sync)
		})
	}

	report(fds[1], tree, eng.Stats())

	if p.db != "" {
		store, err := statstore.Open(p.db)
		if err != nil {
			return err
		}
		defer store.Close()
		_, err = store.AddRun(statstore.Record{
			When: time.Now(), Label: p.label, Stats: eng.Stats()})
		if err != nil {
			return err
		}
	}
	return nil
}

// app rotates the scene's top-level children once per frame, exercising
// keyed matching, and renders a ticking header, exercising in-place text
// updates.
type app struct {
	body  *decl.Desc
	frame int
}

func (a *app) Produce() (any, error) {
	header := decl.Text(fmt.Sprintf("frame %d", a.frame)).WithKey("header")
	body := a.body
	if n := body.NumChildren(); n > 1 {
		rotated := make([]*decl.Desc, n)
		for i := 0; i < n; i++ {
			rotated[i] = body.Child((i + a.frame) % n)
		}
		body = body.WithChildren(rotated...)
	}
	return decl.New("column", nil, header, body), nil
}

func defaultScene() *decl.Desc {
	return decl.New("list", nil,
		decl.New("row", map[string]any{"text": "north"}).WithKey("north"),
		decl.New("row", map[string]any{"text": "east"}).WithKey("east"),
		decl.New("row", map[string]any{"text": "south"}).WithKey("south"),
		decl.New("row", map[string]any{"text": "west"}).WithKey("west"),
	)
}

func report(out *os.File, tree *memtree.Tree, st engine.Stats) {
	isTTY := sys.IsATTY(out.Fd())
	width := 40
	if isTTY {
		if _, col := sys.WinSize(out); col > 0 {
			width = col
		}
	}
	heading := func(s string) {
		if isTTY {
			fmt.Fprintf(out, "\033[1m%s\033[m\n", s)
		} else {
			fmt.Fprintln(out, s)
		}
		fmt.Fprintln(out, strings.Repeat("-", width))
	}

	heading("Surface")
	fmt.Fprint(out, tree.Dump())
	heading("Statistics")
	fmt.Fprintln(out, "updates:", st.Reconcile.Updates)
	fmt.Fprintln(out, "in-place text updates:", st.Reconcile.InPlaceTextUpdates)
	fmt.Fprintln(out, "subtrees skipped:", st.Reconcile.SubtreesSkipped)
	fmt.Fprintln(out, "full re-renders:", st.Reconcile.FullRerenders)
	fmt.Fprintln(out, "nodes created:", tree.NodesCreated())
	fmt.Fprintln(out, "nodes recycled:", st.Reconcile.NodesRecycled)
	fmt.Fprintln(out, "pool hits:", st.Pool.Hits, "misses:", st.Pool.Misses)
	fmt.Fprintln(out, "flushes:", st.Sched.Flushes)
}
