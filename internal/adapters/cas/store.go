// Package cas implements the single-slot environment cache on disk.
package cas

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/envcache/internal/core/domain"
	"go.trai.ch/envcache/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.EnvironmentStore = (*Store)(nil)

// Store implements ports.EnvironmentStore with one JSON entry per cache directory.
// Writes go through a temp file and a rename, so readers never need the lock.
type Store struct {
	now    func() time.Time
	rename func(oldpath, newpath string) error
}

// NewStore creates a new Store.
func NewStore() *Store {
	return &Store{now: time.Now, rename: os.Rename}
}

// header is decoded before the full entry so that entries written by other
// format versions are recognized without interpreting their payload.
type header struct {
	FormatVersion int `json:"format_version"`
}

// Lookup returns the snapshot stored for fp, or nil on a miss.
func (s *Store) Lookup(dir string, fp domain.Fingerprint) (*domain.Snapshot, error) {
	entry, err := s.read(dir)
	if err != nil || entry == nil {
		return nil, err
	}
	if entry.FormatVersion != domain.FormatVersion || entry.Fingerprint != fp {
		return nil, nil
	}
	return entry.Snapshot, nil
}

// Current returns the entry whatever its fingerprint.
// An entry of another format version is returned with only FormatVersion set.
func (s *Store) Current(dir string) (*domain.Entry, error) {
	return s.read(dir)
}

func (s *Store) read(dir string) (*domain.Entry, error) {
	path := domain.EntryPath(dir)
	data, err := os.ReadFile(path) //nolint:gosec // path is inside the configured cache dir
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrStoreReadFailed, err), "path", path)
	}

	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, corrupt(path, "entry is not valid JSON")
	}
	if h.FormatVersion != domain.FormatVersion {
		return &domain.Entry{FormatVersion: h.FormatVersion}, nil
	}

	var entry domain.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, corrupt(path, "entry does not match the format")
	}
	if !entry.Complete {
		return nil, corrupt(path, "entry is missing its completion marker")
	}
	if entry.Snapshot == nil || entry.Fingerprint == "" {
		return nil, corrupt(path, "entry is missing its snapshot")
	}
	sum, err := checksum(entry.Snapshot)
	if err != nil {
		return nil, err
	}
	if sum != entry.Checksum {
		return nil, zerr.With(corrupt(path, "entry checksum mismatch"), "expected", entry.Checksum)
	}
	return &entry, nil
}

// Store replaces the entry in dir. The caller must hold the cache lock; any
// temp file left in dir is treated as debris from a crashed writer.
func (s *Store) Store(dir string, fp domain.Fingerprint, snapshot *domain.Snapshot) error {
	if snapshot == nil {
		return zerr.New("refusing to store an empty snapshot")
	}
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(errors.Join(domain.ErrStoreCreateFailed, err), "path", dir)
	}
	sweepTemp(dir)

	sum, err := checksum(snapshot)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(domain.Entry{
		FormatVersion: domain.FormatVersion,
		Fingerprint:   fp,
		CreatedAt:     s.now().UTC(),
		Checksum:      sum,
		Snapshot:      snapshot,
		Complete:      true,
	}, "", "  ")
	if err != nil {
		return errors.Join(domain.ErrStoreMarshalFailed, err)
	}

	tmpFile, err := os.CreateTemp(dir, domain.EntryTempPattern)
	if err != nil {
		return writeFailed(err, "failed to create temp entry")
	}
	tmpName := tmpFile.Name()

	defer func() {
		if _, err := os.Stat(tmpName); err == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return writeFailed(err, "failed to write temp entry")
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return writeFailed(err, "failed to sync temp entry")
	}
	if err := tmpFile.Close(); err != nil {
		return writeFailed(err, "failed to close temp entry")
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return writeFailed(err, "failed to chmod temp entry")
	}
	if err := s.rename(tmpName, domain.EntryPath(dir)); err != nil {
		return writeFailed(err, "failed to move entry into place")
	}

	syncDir(dir)
	return nil
}

// AppendLog appends record as one JSON line to the build log.
func (s *Store) AppendLog(dir string, record domain.BuildRecord) error {
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(errors.Join(domain.ErrStoreCreateFailed, err), "path", dir)
	}
	line, err := json.Marshal(record)
	if err != nil {
		return errors.Join(domain.ErrStoreMarshalFailed, err)
	}

	path := domain.BuildLogPath(dir)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, domain.FilePerm) //nolint:gosec // inside cache dir
	if err != nil {
		return writeFailed(err, "failed to open build log")
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return writeFailed(err, "failed to append to build log")
	}
	return f.Close()
}

// Clean removes dir and everything below it.
func (s *Store) Clean(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return zerr.With(errors.Join(domain.ErrStoreCleanFailed, err), "path", dir)
	}
	return nil
}

// checksum digests the canonical JSON form of a snapshot.
// encoding/json sorts map keys, so equal snapshots always digest alike.
func checksum(snapshot *domain.Snapshot) (string, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", errors.Join(domain.ErrStoreMarshalFailed, err)
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(data)), nil
}

func sweepTemp(dir string) {
	matches, _ := filepath.Glob(filepath.Join(dir, domain.EntryTempPattern))
	for _, m := range matches {
		_ = os.Remove(m)
	}
}

// syncDir flushes the rename to disk. Not every filesystem supports it.
func syncDir(dir string) {
	d, err := os.Open(dir) //nolint:gosec // cache dir
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

func corrupt(path, msg string) error {
	return zerr.With(zerr.Wrap(domain.ErrCacheCorrupt, msg), "path", path)
}

func writeFailed(err error, msg string) error {
	return errors.Join(domain.ErrStoreWriteFailed, zerr.Wrap(err, msg))
}
