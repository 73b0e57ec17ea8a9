package ports

import "go.trai.ch/envcache/internal/core/domain"

// EnvironmentStore persists the single cache entry of a project.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type EnvironmentStore interface {
	// Lookup returns the snapshot stored for fp.
	// Returns nil, nil on a miss. A damaged entry yields domain.ErrCacheCorrupt.
	Lookup(dir string, fp domain.Fingerprint) (*domain.Snapshot, error)

	// Store atomically replaces the entry in dir.
	Store(dir string, fp domain.Fingerprint, snapshot *domain.Snapshot) error

	// Current returns the entry in dir whatever its fingerprint.
	// Returns nil, nil if there is none.
	Current(dir string) (*domain.Entry, error)

	// AppendLog records a finished build in the build log.
	AppendLog(dir string, record domain.BuildRecord) error

	// Clean removes dir entirely. A missing dir is not an error.
	Clean(dir string) error
}
