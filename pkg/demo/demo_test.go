package demo

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vtree-ui/vtree/pkg/must"
	"github.com/vtree-ui/vtree/pkg/prog"
	"github.com/vtree-ui/vtree/pkg/statstore"
)

func run(args ...string) (int, string, string) {
	r1, w1 := must.OK2(os.Pipe())
	r2, w2 := must.OK2(os.Pipe())
	exit := prog.Run([3]*os.File{os.Stdin, w1, w2},
		append([]string{"vtree"}, args...), &Program{})
	w1.Close()
	w2.Close()
	stdout := string(must.OK1(io.ReadAll(r1)))
	stderr := string(must.OK1(io.ReadAll(r2)))
	return exit, stdout, stderr
}

func TestDefaultScene(t *testing.T) {
	exit, stdout, stderr := run("-frames", "3")
	if exit != 0 {
		t.Fatalf("exit = %d, stderr = %q", exit, stderr)
	}
	if !strings.Contains(stdout, "frame 3") {
		t.Errorf("stdout lacks final header: %q", stdout)
	}
	if !strings.Contains(stdout, "north") {
		t.Errorf("stdout lacks scene row: %q", stdout)
	}
	if !strings.Contains(stdout, "updates: 3") {
		t.Errorf("stdout lacks update count: %q", stdout)
	}
}

func TestSceneFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "scene.yaml")
	must.OK(os.WriteFile(fname, []byte(`
type: column
children:
  - text: alpha
  - text: beta
`), 0o600))

	exit, stdout, stderr := run("-frames", "1", fname)
	if exit != 0 {
		t.Fatalf("exit = %d, stderr = %q", exit, stderr)
	}
	if !strings.Contains(stdout, "alpha") || !strings.Contains(stdout, "beta") {
		t.Errorf("stdout lacks scene content: %q", stdout)
	}
}

func TestBadSceneFile(t *testing.T) {
	exit, _, stderr := run(filepath.Join(t.TempDir(), "missing.yaml"))
	if exit == 0 {
		t.Errorf("exit = 0, want non-zero")
	}
	if stderr == "" {
		t.Errorf("stderr empty")
	}
}

func TestTooManyArgs(t *testing.T) {
	exit, _, stderr := run("a.yaml", "b.yaml")
	if exit != 2 {
		t.Errorf("exit = %d, want 2", exit)
	}
	if !strings.Contains(stderr, "Usage:") {
		t.Errorf("stderr lacks usage: %q", stderr)
	}
}

func TestRecordsStats(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "stats.db")
	exit, _, stderr := run("-frames", "2", "-db", fname, "-label", "bench")
	if exit != 0 {
		t.Fatalf("exit = %d, stderr = %q", exit, stderr)
	}

	store := must.OK1(statstore.Open(fname))
	defer store.Close()
	rec, err := store.Run(1)
	if err != nil {
		t.Fatalf("Run(1): %v", err)
	}
	if rec.Label != "bench" {
		t.Errorf("Label = %q, want bench", rec.Label)
	}
	if rec.Stats.Reconcile.Updates != 2 {
		t.Errorf("recorded Updates = %d, want 2", rec.Stats.Reconcile.Updates)
	}
}
