package cas

import "time"

// SetRename replaces the rename step, to simulate a crash before the entry is published.
func (s *Store) SetRename(fn func(oldpath, newpath string) error) {
	s.rename = fn
}

// SetNow pins the clock used for CreatedAt.
func (s *Store) SetNow(fn func() time.Time) {
	s.now = fn
}
