package main

import (
	"math/rand"
	"strconv"

	"noidkv/internal/kvengine"
	"noidkv/internal/kvuuid"
)

// WorkloadType selects a mixed read/write distribution, in the manner of
// the teacher's own OLTP/OLAP/Reporting sweep.
type WorkloadType string

const (
	OLTP      WorkloadType = "OLTP (90/10)"
	OLAP      WorkloadType = "OLAP (10/90)"
	Reporting WorkloadType = "Reporting (Range)"
)

// ExecuteWorkload runs ops operations of the given mix against tree,
// keying every record by a name-uuid derived from the operation's
// integer key so the fixed 16-byte key requirement is met without the
// caller juggling byte layout.
func ExecuteWorkload(tree *kvengine.Tree, wType WorkloadType, ops int) error {
	for i := 0; i < ops; i++ {
		choice := rand.Intn(100)
		n := rand.Intn(ops)
		key := opKey(n)

		switch wType {
		case OLTP:
			if choice < 90 {
				if _, _, err := tree.Get(key); err != nil {
					return err
				}
			} else if _, err := tree.Insert(key, []byte("x")); err != nil {
				return err
			}
		case OLAP:
			if choice < 10 {
				if _, _, err := tree.Get(key); err != nil {
					return err
				}
			} else if _, err := tree.Insert(key, []byte("x")); err != nil {
				return err
			}
		case Reporting:
			cur, err := tree.Range(key, opKey(n+100))
			if err != nil {
				return err
			}
			for cur.Next() {
			}
			if err := cur.Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

// opKey derives a stable 16-byte key for a small integer workload key,
// reusing the name-uuid hash so keys stay uniformly distributed across
// the tree rather than monotonically increasing.
func opKey(n int) []byte {
	u := kvuuid.NameUUID(strconv.Itoa(n))
	b := u.Bytes()
	return b[:]
}
