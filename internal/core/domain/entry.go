package domain

import "time"

// Fingerprint identifies the inputs an environment was built from.
type Fingerprint string

// String returns the fingerprint as hex.
func (f Fingerprint) String() string {
	return string(f)
}

// Short returns an abbreviated form for status lines.
func (f Fingerprint) Short() string {
	if len(f) > 8 {
		return string(f[:8])
	}
	return string(f)
}

// Entry is the on-disk unit of the cache.
type Entry struct {
	FormatVersion int         `json:"format_version"`
	Fingerprint   Fingerprint `json:"fingerprint"`
	CreatedAt     time.Time   `json:"created_at"`
	Checksum      string      `json:"checksum"`
	Snapshot      *Snapshot   `json:"snapshot"`
	Complete      bool        `json:"complete"`
}

// BuildRecord is one line of the build log.
type BuildRecord struct {
	Time        time.Time     `json:"time"`
	Fingerprint Fingerprint   `json:"fingerprint"`
	Duration    time.Duration `json:"duration"`
	Variables   int           `json:"variables"`
	Unset       int           `json:"unset"`
}
