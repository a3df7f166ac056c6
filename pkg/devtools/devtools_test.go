package devtools

import (
	"context"
	"net"
	"testing"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/vtree-ui/vtree/pkg/decl"
	"github.com/vtree-ui/vtree/pkg/engine"
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
		children[i] = decl.Text(s).WithKey(s)
	}
	return decl.New("column", nil, children...), nil
}

type fixture struct {
	server *Server
	client *jsonrpc2.Conn
	app    *app
	root   *engine.Root
	driver *schedtest.Driver
	cancel func()
}

func setup(t *testing.T, items ...string) *fixture {
	t.Helper()
	tree := memtree.New("surface")
	driver := schedtest.New()
	eng := engine.New(tree, engine.WithDriver(driver))
	a := &app{items: items}
	root, err := eng.Mount(a, tree.Root())
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}

	server := NewServer(eng)
	server.AddRoot("main", root)

	serverConn, clientConn := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	go server.Serve(ctx, serverConn)
	client := jsonrpc2.NewConn(ctx,
		jsonrpc2.NewBufferedStream(clientConn, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.HandlerWithError(func(context.Context, *jsonrpc2.Conn, *jsonrpc2.Request) (any, error) {
			return nil, nil
		}))
	t.Cleanup(func() {
		client.Close()
		cancel()
	})
	return &fixture{server, client, a, root, driver, cancel}
}

func (f *fixture) call(t *testing.T, method string, params, result any) {
	t.Helper()
	err := f.client.Call(context.Background(), method, params, result)
	if err != nil {
		t.Fatalf("call %s: %v", method, err)
	}
}

func TestStats(t *testing.T) {
	f := setup(t, "a", "b")

	var st engine.Stats
	f.call(t, "vtree/stats", nil, &st)
	if st.Reconcile.Mounts != 1 {
		t.Errorf("Mounts = %d, want 1", st.Reconcile.Mounts)
	}
	if st.Pool.Misses == 0 {
		t.Errorf("Pool.Misses = 0, want > 0")
	}
}

func TestRoots(t *testing.T) {
	f := setup(t, "a")
	f.server.AddRoot("aux", f.root)

	var names []string
	f.call(t, "vtree/roots", nil, &names)
	want := []string{"aux", "main"}
	if len(names) != 2 || names[0] != want[0] || names[1] != want[1] {
		t.Errorf("roots = %v, want %v", names, want)
	}
}

func TestTree(t *testing.T) {
	f := setup(t, "a", "b")

	var tree TreeNode
	f.call(t, "vtree/tree", TreeParams{Root: "main"}, &tree)
	if tree.Type != "column" {
		t.Errorf("root type = %q, want column", tree.Type)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("len(children) = %d, want 2", len(tree.Children))
	}
	if tree.Children[0].Key != "a" || tree.Children[1].Key != "b" {
		t.Errorf("child keys = %q, %q, want a, b",
			tree.Children[0].Key, tree.Children[1].Key)
	}
}

func TestTreeNoSuchRoot(t *testing.T) {
	f := setup(t, "a")

	var tree TreeNode
	err := f.client.Call(context.Background(), "vtree/tree", TreeParams{Root: "bogus"}, &tree)
	if err == nil {
		t.Errorf("want error, got nil")
	}
}

func TestFlush(t *testing.T) {
	f := setup(t, "a")

	f.app.items = []string{"a", "b"}
	f.root.Invalidate(sched.Default)
	f.call(t, "vtree/flush", nil, nil)

	var tree TreeNode
	f.call(t, "vtree/tree", TreeParams{Root: "main"}, &tree)
	if len(tree.Children) != 2 {
		t.Errorf("len(children) after flush = %d, want 2", len(tree.Children))
	}
}

func TestMethodNotFound(t *testing.T) {
	f := setup(t, "a")

	err := f.client.Call(context.Background(), "vtree/bogus", nil, nil)
	if err == nil {
		t.Errorf("want error, got nil")
	}
}
