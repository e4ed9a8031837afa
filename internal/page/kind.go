package page

// NodeKind distinguishes which typed page codec a raw page's magic bytes
// select. Used by callers (the pager-backed B+tree node store) that must
// pick between ReadInternalNode and ReadLeafNode before they know which
// one a given page number holds.
type NodeKind int

const (
	NodeKindUnknown NodeKind = iota
	NodeKindInternal
	NodeKindLeaf
)

// SniffNodeKind inspects a page's leading magic bytes without parsing
// the rest of it.
func SniffNodeKind(magic [2]byte) NodeKind {
	switch {
	case magic[0] == internalMagic[0] && magic[1] == internalMagic[1]:
		return NodeKindInternal
	case magic[0] == leafMagic[0] && magic[1] == leafMagic[1]:
		return NodeKindLeaf
	default:
		return NodeKindUnknown
	}
}
