package statstore

import (
	"errors"
	"testing"
	"time"

	"github.com/vtree-ui/vtree/pkg/engine"
	"github.com/vtree-ui/vtree/pkg/must"
	"github.com/vtree-ui/vtree/pkg/reconcile"
)

func record(label string, updates int) Record {
	return Record{
		When:  time.Unix(1700000000, 0).UTC(),
		Label: label,
		Stats: engine.Stats{Reconcile: reconcile.Stats{Updates: updates}},
	}
}

func TestAddAndGetRun(t *testing.T) {
	st, cleanup := MustTempStore()
	defer cleanup()

	seq := must.OK1(st.AddRun(record("warmup", 3)))
	if seq != 1 {
		t.Errorf("first seq = %d, want 1", seq)
	}
	r := must.OK1(st.Run(seq))
	if r.Label != "warmup" || r.Stats.Reconcile.Updates != 3 || r.Seq != seq {
		t.Errorf("got record %+v", r)
	}

	if _, err := st.Run(99); !errors.Is(err, ErrNoSuchRun) {
		t.Errorf("Run(99) error = %v, want ErrNoSuchRun", err)
	}
}

func TestIterateRuns(t *testing.T) {
	st, cleanup := MustTempStore()
	defer cleanup()

	for i := 1; i <= 4; i++ {
		must.OK1(st.AddRun(record("r", i)))
	}

	var got []int
	must.OK(st.IterateRuns(2, 4, func(r Record) { got = append(got, r.Stats.Reconcile.Updates) }))
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("IterateRuns(2, 4) visited %v, want [2 3]", got)
	}

	if seq := must.OK1(st.NextRunSeq()); seq != 5 {
		t.Errorf("NextRunSeq = %d, want 5", seq)
	}
}

func TestReopenPersists(t *testing.T) {
	st, cleanup := MustTempStore()
	fname := st.db.Path()
	must.OK1(st.AddRun(record("persisted", 7)))
	must.OK(st.Close())

	st2 := must.OK1(Open(fname))
	defer func() { st2.Close(); cleanup() }()
	r := must.OK1(st2.Run(1))
	if r.Label != "persisted" || r.Stats.Reconcile.Updates != 7 {
		t.Errorf("reopened record = %+v", r)
	}
}
