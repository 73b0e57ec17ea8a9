package domain

import (
	"bytes"
	"maps"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// FormatVersion is the version of the on-disk entry format.
// Bump it whenever the meaning of a stored field changes.
const FormatVersion = 1

// Snapshot is the environment produced by a successful build, expressed as a
// change against the environment the builder was started from.
type Snapshot struct {
	// Variables maps names to the values the builder set or changed.
	Variables map[string]string `json:"variables"`
	// Unset lists names the builder removed, sorted.
	Unset []string `json:"unset,omitempty"`
}

// Names returns the variable names in sorted order.
func (s *Snapshot) Names() []string {
	return slices.Sorted(maps.Keys(s.Variables))
}

// Equal reports whether both snapshots describe the same change.
func (s *Snapshot) Equal(other *Snapshot) bool {
	if s == nil || other == nil {
		return s == other
	}
	return maps.Equal(s.Variables, other.Variables) && slices.Equal(s.Unset, other.Unset)
}

// volatileVars never become part of a snapshot. They describe the shell the
// builder happened to run in rather than the environment it built.
var volatileVars = []string{
	"TERM",
	"SHELL",
	"EDITOR",
	"VISUAL",
	"PAGER",
	"LESS",
	"HOME",
	"USER",
	"LOGNAME",
	"PS1",
	"PS2",
	"SHLVL",
	"PWD",
	"OLDPWD",
	"_",
	"TMPDIR",
	"TEMP",
	"TMP",
	"NIX_BUILD_TOP",
	"NIX_BUILD_CORES",
	"NIX_LOG_FD",
}

// ShouldIncludeVar reports whether a variable may be recorded in a snapshot.
func ShouldIncludeVar(key string) bool {
	return !slices.Contains(volatileVars, key)
}

// ParseEnv decodes a NUL-separated list of NAME=value entries.
// Empty records are skipped; a record without '=' is an error.
func ParseEnv(data []byte) (map[string]string, error) {
	env := make(map[string]string)
	for record := range bytes.SplitSeq(data, []byte{0}) {
		if len(record) == 0 {
			continue
		}
		key, value, ok := strings.Cut(string(record), "=")
		if !ok || key == "" {
			return nil, zerr.With(zerr.New("malformed environment record"), "record", string(record))
		}
		env[key] = value
	}
	return env, nil
}

// EncodeEnv encodes NAME=value entries NUL-separated, in the order given.
func EncodeEnv(entries []string) []byte {
	var buf bytes.Buffer
	for _, e := range entries {
		buf.WriteString(e)
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

// EnvMap converts os.Environ style entries into a map. Later entries win.
func EnvMap(entries []string) map[string]string {
	env := make(map[string]string, len(entries))
	for _, e := range entries {
		if key, value, ok := strings.Cut(e, "="); ok && key != "" {
			env[key] = value
		}
	}
	return env
}

// DiffEnv builds the snapshot that turns outside into inside.
func DiffEnv(outside, inside map[string]string) *Snapshot {
	snap := &Snapshot{Variables: make(map[string]string)}
	for key, value := range inside {
		if !ShouldIncludeVar(key) {
			continue
		}
		if prev, ok := outside[key]; !ok || prev != value {
			snap.Variables[key] = value
		}
	}
	for key := range outside {
		if !ShouldIncludeVar(key) {
			continue
		}
		if _, ok := inside[key]; !ok {
			snap.Unset = append(snap.Unset, key)
		}
	}
	slices.Sort(snap.Unset)
	return snap
}
