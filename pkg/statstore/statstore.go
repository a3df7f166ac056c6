// Package statstore persists engine statistics snapshots in a bolt
// database, one record per reconciliation run. Tools use it to compare
// reconciliation cost across program runs.
package statstore

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/vtree-ui/vtree/pkg/engine"
)

const bucketRun = "run"

// ErrNoSuchRun is returned when a run with the requested sequence number
// does not exist.
var ErrNoSuchRun = errors.New("no such run")

// Record is one persisted stats snapshot.
type Record struct {
	// Seq is the sequence number assigned by AddRun.
	Seq int `json:"-"`
	// When is the time the snapshot was taken.
	When time.Time `json:"when"`
	// Label names the scenario the snapshot belongs to.
	Label string       `json:"label"`
	Stats engine.Stats `json:"stats"`
}

// Store is a bolt-backed run store.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if needed) the store in the named file.
func Open(fname string) (*Store, error) {
	db, err := bolt.Open(fname, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketRun))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db}, nil
}

// Close closes the store.
func (s *Store) Close() error { return s.db.Close() }

// NextRunSeq returns the sequence number the next AddRun will use.
func (s *Store) NextRunSeq() (int, error) {
	var seq uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		seq = tx.Bucket([]byte(bucketRun)).Sequence() + 1
		return nil
	})
	return int(seq), err
}

// AddRun persists a record and returns its sequence number.
func (s *Store) AddRun(r Record) (int, error) {
	var seq uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketRun))
		var err error
		seq, err = b.NextSequence()
		if err != nil {
			return err
		}
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		return b.Put(marshalSeq(seq), data)
	})
	return int(seq), err
}

// Run retrieves the record with the given sequence number.
func (s *Store) Run(seq int) (Record, error) {
	var r Record
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketRun)).Get(marshalSeq(uint64(seq)))
		if v == nil {
			return ErrNoSuchRun
		}
		return json.Unmarshal(v, &r)
	})
	r.Seq = seq
	return r, err
}

// IterateRuns calls f with each record in [from, upto), in sequence order.
func (s *Store) IterateRuns(from, upto int, f func(Record)) error {
	return s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketRun)).Cursor()
		for k, v := c.Seek(marshalSeq(uint64(from))); k != nil && unmarshalSeq(k) < uint64(upto); k, v = c.Next() {
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			r.Seq = int(unmarshalSeq(k))
			f(r)
		}
		return nil
	})
}

func marshalSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func unmarshalSeq(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}
