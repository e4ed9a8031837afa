package main

import (
	"fmt"
	"strconv"

	"github.com/cockroachdb/pebble"

	"noidkv/internal/kvuuid"
)

// pebbleBaseline wraps a Pebble LSM database behind the same int-key
// shape the engine benchmarks use, so noidkv's B+tree can be compared
// against a mature LSM implementation (spec §2 item 11). benchPebble
// drives it with one insert-all-then-get-all pass only; the
// OLTP/OLAP/Reporting workloads run against noidkv alone, and Range is
// not exercised.
type pebbleBaseline struct {
	db *pebble.DB
}

func openPebbleBaseline(dir string) (*pebbleBaseline, error) {
	opts := &pebble.Options{
		MemTableSize:                16 << 20,
		MemTableStopWritesThreshold: 4,
		L0CompactionThreshold:       4,
		L0StopWritesThreshold:       12,
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("noidbench: open pebble baseline: %w", err)
	}
	return &pebbleBaseline{db: db}, nil
}

func (p *pebbleBaseline) Close() error { return p.db.Close() }

func (p *pebbleBaseline) Insert(n int, value []byte) error {
	return p.db.Set(pebbleKey(n), value, pebble.NoSync)
}

func (p *pebbleBaseline) Get(n int) ([]byte, error) {
	val, closer, err := p.db.Get(pebbleKey(n))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("noidbench: pebble get: %w", err)
	}
	defer closer.Close()
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (p *pebbleBaseline) Range(lo, hi int) (int, error) {
	it, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: pebbleKey(lo),
		UpperBound: pebbleKey(hi + 1),
	})
	if err != nil {
		return 0, fmt.Errorf("noidbench: pebble range: %w", err)
	}
	defer it.Close()
	count := 0
	for it.First(); it.Valid(); it.Next() {
		count++
	}
	return count, nil
}

// pebbleKey mirrors opKey's name-uuid derivation so both engines walk the
// same key distribution during a comparison run.
func pebbleKey(n int) []byte {
	u := kvuuid.NameUUID(strconv.Itoa(n))
	b := u.Bytes()
	return b[:]
}
