// Package fs fingerprints the files that define an environment.
package fs

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"slices"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/envcache/internal/core/domain"
	"go.trai.ch/envcache/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Fingerprinter = (*Hasher)(nil)

// Tags written before each watched path so that a missing file, an empty file
// and a directory never digest alike.
const (
	tagFile    byte = 'f'
	tagMissing byte = 'm'
	tagDir     byte = 'd'
)

// skipEntries are directory entries left out when a watched directory is listed.
var skipEntries = []string{".git", ".jj"}

// Hasher implements ports.Fingerprinter with xxhash.
type Hasher struct{}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// Compute digests the config file followed by every watched path in order.
func (h *Hasher) Compute(configPath string, watch domain.WatchList) (domain.Fingerprint, error) {
	digest := xxhash.New()

	_, _ = digest.WriteString("config")
	_, _ = digest.Write([]byte{0})
	_, _ = digest.WriteString(configPath)
	_, _ = digest.Write([]byte{0})
	sum, err := h.ComputeFileHash(configPath)
	if err != nil {
		return "", err
	}
	writeSum(digest, sum)

	_, _ = digest.WriteString("watch")
	_, _ = digest.Write([]byte{0})
	for path := range watch.All() {
		if err := h.hashPath(path, digest); err != nil {
			return "", err
		}
	}

	return domain.Fingerprint(fmt.Sprintf("%016x", digest.Sum64())), nil
}

// ComputeFileHash computes the xxhash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the config or the watch list
	if err != nil {
		return 0, unreadable(err, path)
	}
	defer f.Close() //nolint:errcheck // read-only file

	digest := xxhash.New()
	if _, err := io.Copy(digest, f); err != nil {
		return 0, unreadable(err, path)
	}

	return digest.Sum64(), nil
}

func (h *Hasher) hashPath(path string, digest *xxhash.Digest) error {
	_, _ = digest.WriteString(path)
	_, _ = digest.Write([]byte{0})

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, iofs.ErrNotExist):
		_, _ = digest.Write([]byte{tagMissing})
		return nil
	case err != nil:
		return unreadable(err, path)
	case info.IsDir():
		_, _ = digest.Write([]byte{tagDir})
		return h.hashDir(path, digest)
	}

	sum, err := h.ComputeFileHash(path)
	if errors.Is(err, iofs.ErrNotExist) {
		// Removed between stat and open.
		_, _ = digest.Write([]byte{tagMissing})
		return nil
	}
	if err != nil {
		return err
	}
	_, _ = digest.Write([]byte{tagFile})
	writeSum(digest, sum)
	return nil
}

// hashDir folds in the sorted entry names of a directory, not their contents.
func (h *Hasher) hashDir(path string, digest *xxhash.Digest) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		return unreadable(err, path)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if slices.Contains(skipEntries, e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)

	for _, name := range names {
		_, _ = digest.WriteString(name)
		_, _ = digest.Write([]byte{0})
	}
	_, _ = digest.Write([]byte{0})
	return nil
}

func writeSum(w io.Writer, sum uint64) {
	_ = binary.Write(w, binary.LittleEndian, sum)
}

func unreadable(err error, path string) error {
	return errors.Join(domain.ErrInputUnreadable, zerr.With(zerr.Wrap(err, "cannot read "+path), "path", path))
}
