package bptree

import (
	"bytes"
	"io"

	"noidkv/internal/page"
)

// Write emits a level-order textual dump, one line per level: nodes
// separated by spaces, keys within a node space-separated, leaf keys
// suffixed with "*" (spec §4.8's canonical, test-visible debug form).
// keyText renders a single fixed-size key for display (e.g. trimming
// its padding to the literal byte the scenarios use).
func (t *Tree) Write(out io.Writer, keyText func([]byte) string) error {
	if t.root.IsNull() {
		return nil
	}

	level := []page.PageNumber{t.root}
	for len(level) > 0 {
		var line bytes.Buffer
		var next []page.PageNumber

		for i, pn := range level {
			n, err := t.store.Get(pn)
			if err != nil {
				return err
			}
			if i > 0 {
				line.WriteByte(' ')
			}
			line.WriteByte('[')
			if n.Kind == KindInternal {
				next = append(next, n.Internal.LeftmostChild)
				for j, k := range n.Internal.Keys {
					if j > 0 {
						line.WriteByte(' ')
					}
					line.WriteString(keyText(k))
					next = append(next, n.Internal.RightChildren[j])
				}
			} else {
				for j, k := range n.Leaf.Keys {
					if j > 0 {
						line.WriteByte(' ')
					}
					line.WriteString(keyText(k))
					line.WriteByte('*')
				}
			}
			line.WriteByte(']')
		}
		line.WriteByte('\n')
		if _, err := out.Write(line.Bytes()); err != nil {
			return err
		}
		level = next
	}
	return nil
}
