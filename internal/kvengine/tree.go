package kvengine

import (
	"noidkv/internal/bptree"
	"noidkv/internal/page"
)

// Tree is a handle to one named tree opened or created through a
// Database. It wraps the core bptree.Tree with the bookkeeping needed
// to persist the tree's root page back into its TreeHeader whenever a
// mutation changes it.
type Tree struct {
	db       *Database
	headerPN page.PageNumber
	header   *page.TreeHeader
	core     *bptree.Tree
}

// Type reports whether this is a table or index tree.
func (t *Tree) Type() page.TreeType { return t.header.Type }

// Get performs a point lookup.
func (t *Tree) Get(key []byte) ([]byte, bool, error) {
	return t.core.Get(key)
}

// Insert inserts or overwrites key/value, persisting the tree's root if
// the mutation changed it.
func (t *Tree) Insert(key, value []byte) (bptree.Result, error) {
	res, err := t.core.Insert(key, value)
	if err != nil {
		return res, err
	}
	return res, t.persistRoot()
}

// Delete removes key, persisting the tree's root if the mutation changed
// it. Returns the removed value.
func (t *Tree) Delete(key []byte) (bool, []byte, error) {
	removed, old, err := t.core.Delete(key)
	if err != nil {
		return removed, old, err
	}
	return removed, old, t.persistRoot()
}

// Range returns a cursor over [start, end] inclusive; end == nil scans to
// the last key.
func (t *Tree) Range(start, end []byte) (*bptree.Cursor, error) {
	return t.core.Range(start, end)
}

func (t *Tree) persistRoot() error {
	if t.core.Root() == t.header.Root {
		return nil
	}
	h, err := page.TreeHeaderBuilderFrom(t.db.p.PageSize(), t.db.p.KeySize(), t.header).WithRoot(t.core.Root()).Build()
	if err != nil {
		return err
	}
	if _, err := t.db.p.WriteTreeHeader(h, t.headerPN); err != nil {
		return err
	}
	t.header = h
	return nil
}
