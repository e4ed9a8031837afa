//go:build unix

package osrangelock

import (
	"golang.org/x/sys/unix"

	"noidkv/internal/kverrors"
)

// Unix locks the entire file referenced by fd using open-file-description
// (OFD) locks: F_OFD_SETLK/F_OFD_SETLKW rather than the classic
// F_SETLK/F_SETLKW, which are associated with the process and are
// silently dropped/merged across multiple opens by the same process.
// OFD locks are scoped to the struct file (the open file description),
// matching spec §4.5's explicit requirement.
type Unix struct {
	fd int
}

// NewUnix wraps the given file descriptor for OFD whole-file locking.
func NewUnix(fd int) *Unix { return &Unix{fd: fd} }

func (u *Unix) flock(unique bool, wait bool) (bool, error) {
	typ := int16(unix.F_RDLCK)
	if unique {
		typ = unix.F_WRLCK
	}
	lk := unix.Flock_t{
		Type:   typ,
		Whence: 0,
		Start:  0,
		Len:    0, // 0 == lock to end of file, i.e. the whole file
	}
	cmd := unix.F_OFD_SETLK
	if wait {
		cmd = unix.F_OFD_SETLKW
	}
	for {
		err := unix.FcntlFlock(uintptr(u.fd), cmd, &lk)
		if err == nil {
			return true, nil
		}
		if err == unix.EINTR {
			continue
		}
		if !wait && (err == unix.EACCES || err == unix.EAGAIN) {
			return false, nil
		}
		return false, kverrors.Wrap(err, kverrors.Io, "osrangelock: fcntl lock")
	}
}

func (u *Unix) Lock(unique bool) error {
	_, err := u.flock(unique, true)
	return err
}

func (u *Unix) TryLock(unique bool) (bool, error) {
	return u.flock(unique, false)
}

func (u *Unix) Unlock() error {
	lk := unix.Flock_t{Type: unix.F_UNLCK, Whence: 0, Start: 0, Len: 0}
	if err := unix.FcntlFlock(uintptr(u.fd), unix.F_OFD_SETLK, &lk); err != nil {
		return kverrors.Wrap(err, kverrors.Io, "osrangelock: fcntl unlock")
	}
	return nil
}
