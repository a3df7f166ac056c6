// Package devtools implements an engine inspector speaking JSON-RPC 2.0.
// Clients can read engine counters, dump the virtual tree of any mounted
// surface and force a flush, which makes black-box performance verification
// possible without linking against the engine.
package devtools

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"sync"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/vtree-ui/vtree/pkg/engine"
	"github.com/vtree-ui/vtree/pkg/logutil"
	"github.com/vtree-ui/vtree/pkg/reconcile"
)

var logger = logutil.GetLogger("[devtools] ")

var (
	errMethodNotFound = &jsonrpc2.Error{
		Code: jsonrpc2.CodeMethodNotFound, Message: "method not found"}
	errInvalidParams = &jsonrpc2.Error{
		Code: jsonrpc2.CodeInvalidParams, Message: "invalid params"}
	errNoSuchRoot = &jsonrpc2.Error{
		Code: jsonrpc2.CodeInvalidParams, Message: "no such root"}
)

// Server inspects one engine and its mounted roots.
type Server struct {
	eng *engine.Engine

	mu    sync.Mutex
	roots map[string]*engine.Root
}

// NewServer creates a server inspecting the given engine.
func NewServer(eng *engine.Engine) *Server {
	return &Server{eng: eng, roots: map[string]*engine.Root{}}
}

// AddRoot registers a mounted root under a name for tree dumps.
func (s *Server) AddRoot(name string, r *engine.Root) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roots[name] = r
}

// RemoveRoot unregisters a root.
func (s *Server) RemoveRoot(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roots, name)
}

// Serve speaks the inspector protocol over stream until the peer
// disconnects or ctx is canceled.
func (s *Server) Serve(ctx context.Context, stream io.ReadWriteCloser) {
	conn := jsonrpc2.NewConn(ctx,
		jsonrpc2.NewBufferedStream(stream, jsonrpc2.VSCodeObjectCodec{}),
		s.handler())
	select {
	case <-conn.DisconnectNotify():
	case <-ctx.Done():
		conn.Close()
	}
}

func (s *Server) handler() jsonrpc2.Handler {
	return routingHandler(map[string]method{
		"vtree/stats": s.stats,
		"vtree/roots": s.listRoots,
		"vtree/tree":  s.tree,
		"vtree/flush": s.flush,
	})
}

type method func(context.Context, json.RawMessage) (any, error)

func routingHandler(methods map[string]method) jsonrpc2.Handler {
	return jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
		fn, ok := methods[req.Method]
		if !ok {
			return nil, errMethodNotFound
		}
		var params json.RawMessage
		if req.Params != nil {
			params = *req.Params
		}
		return fn(ctx, params)
	})
}

// Handler implementations. These are all called synchronously.

func (s *Server) stats(_ context.Context, _ json.RawMessage) (any, error) {
	return s.eng.Stats(), nil
}

func (s *Server) listRoots(_ context.Context, _ json.RawMessage) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.roots))
	for name := range s.roots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// TreeParams identifies the surface to dump.
type TreeParams struct {
	Root string `json:"root"`
}

// TreeNode is one node in a tree dump.
type TreeNode struct {
	Type     string     `json:"type"`
	Key      string     `json:"key,omitempty"`
	Identity string     `json:"identity"`
	Children []TreeNode `json:"children,omitempty"`
}

func (s *Server) tree(_ context.Context, rawParams json.RawMessage) (any, error) {
	var params TreeParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	s.mu.Lock()
	root, ok := s.roots[params.Root]
	s.mu.Unlock()
	if !ok {
		return nil, errNoSuchRoot
	}
	tree := root.Tree()
	if tree == nil {
		return nil, nil
	}
	return dumpVNode(tree), nil
}

func dumpVNode(v *reconcile.VNode) TreeNode {
	n := TreeNode{Type: v.Type(), Key: v.Key(), Identity: v.Identity()}
	for _, c := range v.Children() {
		n.Children = append(n.Children, dumpVNode(c))
	}
	return n
}

func (s *Server) flush(_ context.Context, _ json.RawMessage) (any, error) {
	s.eng.Scheduler().Flush()
	return nil, nil
}
