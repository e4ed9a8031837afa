// Package kvengine is the database facade from spec §12: it resolves the
// named-tree lookup the core B+tree layer leaves out by keeping one
// directory tree, rooted at the file's first tree-header page, mapping
// each tree's name_uuid(name) to the page number of that tree's own
// TreeHeader. CreateTree/OpenTree are built directly on this directory
// rather than on a hand-walked linked list of header pages, since the
// engine already has a general-purpose fixed-key B+tree available and
// name_uuid keys are exactly the file's default fixed key size.
package kvengine

import (
	"bytes"
	"encoding/binary"

	"go.uber.org/zap"

	"noidkv/internal/bptree"
	"noidkv/internal/kverrors"
	"noidkv/internal/kvuuid"
	"noidkv/internal/logging"
	"noidkv/internal/pager"
	"noidkv/internal/page"
	"noidkv/internal/vfs"
)

// Database owns a pager-backed file and the directory tree used to
// resolve tree names to their header pages.
type Database struct {
	p     *pager.Pager
	log   *zap.Logger
	order int

	dirHeaderPN page.PageNumber
	dirHeader   *page.TreeHeader
	dir         *bptree.Tree
}

// Open opens a pager over f (creating a fresh file if empty, per
// pager.Open) and loads or creates the name-uuid directory tree. The
// caller owns f's lifecycle, matching the pager's own convention of
// never closing what it didn't open.
func Open(f vfs.File, log *zap.Logger) (*Database, error) {
	if log == nil {
		log = logging.Nop()
	}
	p, err := pager.Open(f, log)
	if err != nil {
		return nil, err
	}
	if p.KeySize() != kvuuid.Size {
		return nil, kverrors.Newf(kverrors.InvalidArgument,
			"kvengine: database key_size must be %d to hold name-uuid directory keys, got %d", kvuuid.Size, p.KeySize())
	}

	db := &Database{p: p, log: log, order: treeOrder(p)}
	if err := db.openOrCreateDirectory(); err != nil {
		return nil, err
	}
	return db, nil
}

// treeOrder derives the largest order m such that a transient node of up
// to 2m+1 entries (the maximum insert/delete ever holds before splitting
// or after borrowing, per spec §4.8) still fits within what the page
// codecs' builders will accept once trimmed back to <= 2m.
func treeOrder(p *pager.Pager) int {
	maxInt := page.MaxInternalEntries(p.PageSize(), p.KeySize())
	maxLeaf := page.MaxLeafRecords(p.PageSize(), p.KeySize())
	order := maxInt
	if maxLeaf < order {
		order = maxLeaf
	}
	order /= 2
	if order < 1 {
		order = 1
	}
	return order
}

func (db *Database) openOrCreateDirectory() error {
	fh := db.p.ReadFileHeader()
	if fh.FirstTreeHeaderPage.IsNull() {
		h, err := db.p.NewTreeHeaderBuilder(page.TreeTypeTable).Build()
		if err != nil {
			return err
		}
		pn, err := db.p.AllocatePage()
		if err != nil {
			return err
		}
		if _, err := db.p.WriteTreeHeader(h, pn); err != nil {
			return err
		}

		newFH, err := page.FileHeaderBuilderFrom(fh).WithFirstTreeHeaderPage(pn).Build()
		if err != nil {
			return err
		}
		if err := db.p.WriteFileHeader(newFH); err != nil {
			return err
		}

		db.dirHeaderPN = pn
		db.dirHeader = h
	} else {
		h, err := db.p.ReadTreeHeader(fh.FirstTreeHeaderPage)
		if err != nil {
			return err
		}
		db.dirHeaderPN = fh.FirstTreeHeaderPage
		db.dirHeader = h
	}

	db.dir = bptree.New(bptree.NewPagerStore(db.p), db.order, db.dirHeader.Root, bytes.Compare)
	return nil
}

func (db *Database) persistDirectoryRoot() error {
	if db.dir.Root() == db.dirHeader.Root {
		return nil
	}
	h, err := page.TreeHeaderBuilderFrom(db.p.PageSize(), db.p.KeySize(), db.dirHeader).WithRoot(db.dir.Root()).Build()
	if err != nil {
		return err
	}
	if _, err := db.p.WriteTreeHeader(h, db.dirHeaderPN); err != nil {
		return err
	}
	db.dirHeader = h
	return nil
}

// CreateTree allocates a new tree of the given type and registers it
// under name in the directory. It fails with InvalidArgument if name is
// already registered.
func (db *Database) CreateTree(name string, kind page.TreeType) (*Tree, error) {
	key := kvuuid.NameUUID(name).Bytes()

	if _, found, err := db.dir.Get(key[:]); err != nil {
		return nil, err
	} else if found {
		return nil, kverrors.Newf(kverrors.InvalidArgument, "kvengine: tree %q already exists", name)
	}

	h, err := db.p.NewTreeHeaderBuilder(kind).Build()
	if err != nil {
		return nil, err
	}
	pn, err := db.p.AllocatePage()
	if err != nil {
		return nil, err
	}
	if _, err := db.p.WriteTreeHeader(h, pn); err != nil {
		return nil, err
	}

	var pnBuf [4]byte
	binary.LittleEndian.PutUint32(pnBuf[:], uint32(pn))
	if _, err := db.dir.Insert(key[:], pnBuf[:]); err != nil {
		return nil, err
	}
	if err := db.persistDirectoryRoot(); err != nil {
		return nil, err
	}

	return db.newTreeHandle(pn, h), nil
}

// OpenTree resolves name through the directory and returns a handle to
// its existing tree. It fails with NotFound if no tree is registered
// under that name.
func (db *Database) OpenTree(name string) (*Tree, error) {
	key := kvuuid.NameUUID(name).Bytes()

	pnBuf, found, err := db.dir.Get(key[:])
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, kverrors.Newf(kverrors.NotFound, "kvengine: no tree named %q", name)
	}
	if len(pnBuf) != 4 {
		return nil, kverrors.Newf(kverrors.InvalidFormat, "kvengine: directory entry for %q has bad length %d", name, len(pnBuf))
	}
	pn := page.PageNumber(binary.LittleEndian.Uint32(pnBuf))

	h, err := db.p.ReadTreeHeader(pn)
	if err != nil {
		return nil, err
	}
	return db.newTreeHandle(pn, h), nil
}

func (db *Database) newTreeHandle(headerPN page.PageNumber, h *page.TreeHeader) *Tree {
	return &Tree{
		db:       db,
		headerPN: headerPN,
		header:   h,
		core:     bptree.New(bptree.NewPagerStore(db.p), db.order, h.Root, bytes.Compare),
	}
}
