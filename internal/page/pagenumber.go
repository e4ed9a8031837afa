// Package page implements the on-disk page codecs from spec §4.6 and §6:
// builder/parser pairs for the file header, tree header, internal node,
// leaf node, overflow, and freelist pages. Every builder is created
// fresh, from an existing parsed page, or from a raw page-sized buffer,
// and every builder's Build consumes it and returns the immutable parsed
// form or an error — the value-type-plus-consuming-builder shape spec §9
// calls for in place of the source's heap-pointer builder pattern.
package page

// PageNumber indexes a page within the file. Zero is the null-page
// sentinel (spec glossary) and is never returned as a valid allocated
// page; it is also, not coincidentally, the byte offset of the file
// header. Wrapping it in a distinct type (rather than a bare uint32)
// mirrors the PageNumber type present in original_source, making "no
// page" a value a caller cannot confuse with an actual page 0 reference.
type PageNumber uint32

// NullPage is the reserved sentinel meaning "no page".
const NullPage PageNumber = 0

// IsNull reports whether pn is the null-page sentinel.
func (pn PageNumber) IsNull() bool { return pn == NullPage }
