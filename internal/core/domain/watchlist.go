package domain

import (
	"iter"
	"slices"
)

// WatchList is an ordered set of file paths.
// The zero value is an empty list ready to use.
type WatchList struct {
	paths []string
	seen  map[string]struct{}
}

// NewWatchList builds a WatchList from paths, keeping the first occurrence of each.
func NewWatchList(paths ...string) WatchList {
	var w WatchList
	for _, p := range paths {
		w.Add(p)
	}
	return w
}

// Add appends path unless it is already present. It reports whether path was added.
func (w *WatchList) Add(path string) bool {
	if path == "" {
		return false
	}
	if w.seen == nil {
		w.seen = make(map[string]struct{})
	}
	if _, ok := w.seen[path]; ok {
		return false
	}
	w.seen[path] = struct{}{}
	w.paths = append(w.paths, path)
	return true
}

// Contains reports whether path is in the list.
func (w WatchList) Contains(path string) bool {
	_, ok := w.seen[path]
	return ok
}

// Len returns the number of paths.
func (w WatchList) Len() int {
	return len(w.paths)
}

// Paths returns a copy of the paths in insertion order.
func (w WatchList) Paths() []string {
	return slices.Clone(w.paths)
}

// All iterates over the paths in insertion order.
func (w WatchList) All() iter.Seq[string] {
	return slices.Values(w.paths)
}
