package devtools

import (
	"context"
	"os"

	"github.com/vtree-ui/vtree/pkg/decl"
	"github.com/vtree-ui/vtree/pkg/engine"
	"github.com/vtree-ui/vtree/pkg/prog"
	"github.com/vtree-ui/vtree/pkg/render/memtree"
	"github.com/vtree-ui/vtree/pkg/scene"
)

// Program is the devtools subprogram. It mounts a scene on an in-memory
// surface and serves the inspector protocol on stdin and stdout.
type Program struct {
	run bool
}

func (p *Program) RegisterFlags(fs *prog.FlagSet) {
	fs.BoolVar(&p.run, "devtools", false,
		"Serve the inspector protocol on stdin/stdout instead of running a demo")
}

func (p *Program) Run(fds [3]*os.File, args []string) error {
	if !p.run {
		return prog.ErrNextProgram
	}

	tree := memtree.New("surface")
	eng := engine.New(tree)
	defer eng.Close()

	producer := staticProducer{decl.New("column", nil)}
	if len(args) > 0 {
		desc, err := scene.Load(args[0])
		if err != nil {
			return err
		}
		producer = staticProducer{desc}
	}
	root, err := eng.Mount(producer, tree.Root())
	if err != nil {
		return err
	}

	s := NewServer(eng)
	s.AddRoot("main", root)
	s.Serve(context.Background(), transport{fds[0], fds[1]})
	return nil
}

type staticProducer struct{ desc *decl.Desc }

func (p staticProducer) Produce() (any, error) { return p.desc, nil }

type transport struct{ in, out *os.File }

func (c transport) Read(p []byte) (int, error)  { return c.in.Read(p) }
func (c transport) Write(p []byte) (int, error) { return c.out.Write(p) }

func (c transport) Close() error {
	if err := c.in.Close(); err != nil {
		c.out.Close()
		return err
	}
	return c.out.Close()
}
