package bptree

import "noidkv/internal/page"

// Cursor scans leaves in ascending key order starting from a bound,
// following RightSibling links so a range scan never re-descends the
// tree (adapted from the teacher's RangeIterator over the leaf linked
// list, here keyed on fixed-size byte keys through the NodeStore seam).
type Cursor struct {
	t      *Tree
	end    []byte // nil = unbounded
	leafPN page.PageNumber
	idx    int
	key    []byte
	value  []byte
	err    error
	done   bool
}

// Range returns a Cursor over [start, end] inclusive; end == nil scans
// to the last key.
func (t *Tree) Range(start, end []byte) (*Cursor, error) {
	c := &Cursor{t: t, end: end, done: t.root.IsNull()}
	if c.done {
		return c, nil
	}

	pn := t.root
	for {
		n, err := t.store.Get(pn)
		if err != nil {
			return nil, err
		}
		if n.Kind == KindLeaf {
			idx := GreatestNotExceeding(n.Leaf.Keys, start, t.cmp) + 1
			if idx > 0 && t.cmp(n.Leaf.Keys[idx-1], start) == 0 {
				idx--
			}
			c.leafPN = pn
			c.idx = idx
			return c, nil
		}
		pn = t.descendTarget(n, start)
	}
}

// Next advances the cursor, returning false once the range is
// exhausted.
func (c *Cursor) Next() bool {
	if c.done {
		return false
	}
	for {
		n, err := c.t.store.Get(c.leafPN)
		if err != nil {
			c.err = err
			c.done = true
			return false
		}

		if c.idx < len(n.Leaf.Keys) {
			k := n.Leaf.Keys[c.idx]
			if c.end != nil && c.t.cmp(k, c.end) > 0 {
				c.done = true
				return false
			}
			c.key = k
			c.value = n.Leaf.Values[c.idx]
			c.idx++
			return true
		}

		if n.Leaf.RightSibling.IsNull() {
			c.done = true
			return false
		}
		c.leafPN = n.Leaf.RightSibling
		c.idx = 0
	}
}

func (c *Cursor) Key() []byte   { return c.key }
func (c *Cursor) Value() []byte { return c.value }
func (c *Cursor) Err() error    { return c.err }
