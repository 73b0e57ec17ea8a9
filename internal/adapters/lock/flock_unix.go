//go:build unix

package lock

import (
	"errors"
	"os"

	"go.trai.ch/envcache/internal/core/domain"
	"golang.org/x/sys/unix"
)

// tryLock attempts a non-blocking exclusive lock on path.
// It returns nil, nil when another process holds the lock.
func tryLock(path string) (*os.File, error) {
	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, domain.PrivateFilePerm) //nolint:gosec // cache dir
		if err != nil {
			return nil, err
		}

		if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil { //nolint:gosec // fd fits in int
			_ = f.Close()
			if errors.Is(err, unix.EWOULDBLOCK) {
				return nil, nil
			}
			return nil, err
		}

		// A breaker may have unlinked the file between open and flock.
		// Holding a lock on an orphaned inode protects nothing, so retry.
		ok, err := sameFile(f, path)
		if ok {
			return f, nil
		}
		_ = unlock(f)
		if err != nil {
			return nil, err
		}
	}
}

func unlock(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_UN) //nolint:gosec // fd fits in int
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// guard is a short-lived blocking lock.
type guard struct {
	file *os.File
}

func lockGuard(path string) (*guard, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, domain.PrivateFilePerm) //nolint:gosec // cache dir
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil { //nolint:gosec // fd fits in int
		_ = f.Close()
		return nil, err
	}
	return &guard{file: f}, nil
}

func (g *guard) release() {
	_ = unlock(g.file)
}

// processAlive reports whether pid exists. EPERM means it exists but belongs to someone else.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
