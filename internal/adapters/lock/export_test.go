package lock

import (
	"os"
	"time"
)

// SetPoll shortens the retry interval.
func (l *Locker) SetPoll(d time.Duration) {
	l.poll = d
}

// Hold takes the lock on path through a separate descriptor, as another process would.
func Hold(path string) (*os.File, error) {
	return tryLock(path)
}

// Unhold releases a lock taken with Hold.
func Unhold(f *os.File) error {
	return unlock(f)
}

// Claim finishes taking a lock obtained with Hold and reports whether it is held.
func (l *Locker) Claim(path string, f *os.File) (bool, error) {
	held, err := l.claim(path, f)
	return held != nil, err
}
