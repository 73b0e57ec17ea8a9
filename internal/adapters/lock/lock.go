// Package lock serializes envcache processes that share a cache directory.
package lock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.trai.ch/envcache/internal/core/domain"
	"go.trai.ch/envcache/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Locker = (*Locker)(nil)

// DefaultPollInterval is how often a busy lock is retried.
const DefaultPollInterval = 100 * time.Millisecond

const breakSuffix = ".break"

// Holder is the metadata the current owner writes into the lock file.
type Holder struct {
	PID        int       `json:"pid"`
	Host       string    `json:"host"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// Locker implements ports.Locker with an advisory file lock on cache_dir/lock.
//
// The kernel drops the lock when its holder dies, so a crashed build never
// blocks the next one. The holder metadata is used to report who is being
// waited on and to break a lock that is still held on behalf of a process
// that no longer exists.
type Locker struct {
	logger ports.Logger
	poll   time.Duration
	pid    int
	host   string
	now    func() time.Time
}

// NewLocker creates a Locker for the current process.
func NewLocker(logger ports.Logger) *Locker {
	host, _ := os.Hostname()
	return &Locker{
		logger: logger,
		poll:   DefaultPollInterval,
		pid:    os.Getpid(),
		host:   host,
		now:    time.Now,
	}
}

// Acquire blocks until the lock for dir is held, ctx is done or opts.Timeout elapses.
func (l *Locker) Acquire(ctx context.Context, dir string, opts ports.LockOptions) (ports.Lock, error) {
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return nil, zerr.With(errors.Join(domain.ErrStoreCreateFailed, err), "path", dir)
	}

	path := domain.LockPath(dir)
	deadline := l.now().Add(opts.Timeout)
	announced := false

	for {
		f, err := tryLock(path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to lock cache directory"), "path", path)
		}
		if f != nil {
			held, err := l.claim(path, f)
			if err != nil {
				return nil, zerr.With(zerr.Wrap(err, "failed to lock cache directory"), "path", path)
			}
			if held != nil {
				return held, nil
			}
			continue
		}

		holder := readHolder(path)
		if l.isStale(holder, opts.StaleAfter) {
			if broke, err := l.breakLock(path, holder); err != nil {
				return nil, err
			} else if broke {
				continue
			}
		}

		if !l.now().Before(deadline) {
			err := zerr.Wrap(domain.ErrLockTimeout, fmt.Sprintf("gave up waiting for the cache lock after %s", opts.Timeout))
			if holder != nil {
				err = zerr.With(zerr.With(err, "holder_pid", holder.PID), "holder_host", holder.Host)
			}
			return nil, zerr.With(err, "path", path)
		}

		if !announced {
			l.logger.Info(waitingMessage(holder))
			announced = true
		}

		select {
		case <-ctx.Done():
			return nil, zerr.Wrap(ctx.Err(), "interrupted while waiting for the cache lock")
		case <-time.After(l.poll):
		}
	}
}

// claim records this process as holder and reports a dead predecessor.
//
// Until the metadata is written the file still names the previous holder, so a
// breaker could take the fresh lock for a stale one and unlink it. Claiming
// under the break guard orders the two: either the breaker sees our metadata
// and leaves the file alone, or it unlinked the file first and we notice the
// path no longer names our inode. In that case f is unlocked and claim
// returns nil so the caller retries.
func (l *Locker) claim(path string, f *os.File) (*fileLock, error) {
	guard, err := lockGuard(path + breakSuffix)
	if err != nil {
		_ = unlock(f)
		return nil, err
	}
	defer guard.release()

	if ok, err := sameFile(f, path); !ok || err != nil {
		_ = unlock(f)
		return nil, err
	}

	if prev := decodeHolder(f); prev != nil && prev.PID != l.pid && prev.Host == l.host && !processAlive(prev.PID) {
		l.logger.Warn(fmt.Sprintf("%s: recovered lock left by pid %d", domain.ErrStaleLock, prev.PID))
	}

	data, err := json.Marshal(Holder{PID: l.pid, Host: l.host, AcquiredAt: l.now().UTC()})
	if err != nil {
		_ = unlock(f)
		return nil, err
	}
	if err := f.Truncate(0); err != nil {
		_ = unlock(f)
		return nil, err
	}
	if _, err := f.WriteAt(data, 0); err != nil {
		_ = unlock(f)
		return nil, err
	}
	return &fileLock{file: f}, nil
}

// sameFile reports whether path still names the inode f was opened on.
func sameFile(f *os.File, path string) (bool, error) {
	held, err := f.Stat()
	if err != nil {
		return false, err
	}
	onDisk, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return os.SameFile(held, onDisk), nil
}

// isStale reports whether holder names a process on this host that no longer
// exists and has held the lock for at least staleAfter.
func (l *Locker) isStale(holder *Holder, staleAfter time.Duration) bool {
	if holder == nil || holder.PID <= 0 || holder.Host != l.host || holder.PID == l.pid {
		return false
	}
	if l.now().Sub(holder.AcquiredAt) < staleAfter {
		return false
	}
	return !processAlive(holder.PID)
}

// breakLock unlinks a lock file held for a dead process so the next attempt
// creates a fresh one. Breakers and claimers serialize on the break guard and
// the holder is re-read under it, so a lock whose new owner has written its
// metadata is never removed.
func (l *Locker) breakLock(path string, seen *Holder) (bool, error) {
	guard, err := lockGuard(path + breakSuffix)
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, "failed to lock cache directory"), "path", path)
	}
	defer guard.release()

	if current := readHolder(path); !seen.same(current) {
		return false, nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, zerr.With(zerr.Wrap(err, "failed to break stale lock"), "path", path)
	}
	l.logger.Warn(fmt.Sprintf("%s: broke lock held for dead pid %d since %s",
		domain.ErrStaleLock, seen.PID, seen.AcquiredAt.Format(time.RFC3339)))
	return true, nil
}

func (h *Holder) same(other *Holder) bool {
	return other != nil && h.PID == other.PID && h.Host == other.Host && h.AcquiredAt.Equal(other.AcquiredAt)
}

func waitingMessage(holder *Holder) string {
	if holder == nil {
		return "waiting for another envcache process to finish building"
	}
	return fmt.Sprintf("waiting for envcache (pid %d on %s) to finish building", holder.PID, holder.Host)
}

func readHolder(path string) *Holder {
	f, err := os.Open(path) //nolint:gosec // lock file inside the cache dir
	if err != nil {
		return nil
	}
	defer f.Close() //nolint:errcheck // read-only
	return decodeHolder(f)
}

func decodeHolder(f *os.File) *Holder {
	info, err := f.Stat()
	if err != nil || info.Size() == 0 {
		return nil
	}
	data := make([]byte, info.Size())
	n, err := f.ReadAt(data, 0)
	if n == 0 || (err != nil && n != len(data)) {
		return nil
	}
	var h Holder
	if err := json.Unmarshal(data[:n], &h); err != nil {
		return nil
	}
	return &h
}

// fileLock is a held lock.
type fileLock struct {
	file *os.File
	once sync.Once
	err  error
}

// Release clears the holder metadata and unlocks. The file stays in place:
// unlinking a lock file that others may have open would split the lock.
func (f *fileLock) Release() error {
	f.once.Do(func() {
		_ = f.file.Truncate(0)
		f.err = unlock(f.file)
	})
	return f.err
}
