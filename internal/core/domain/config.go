package domain

import "time"

const (
	// DefaultLockTimeout bounds how long an invocation waits for another build.
	DefaultLockTimeout = 30 * time.Minute

	// DefaultStaleAfter is the age after which a dead holder's lock is reported as stale.
	DefaultStaleAfter = time.Minute

	// DefaultGettingStarted is printed after a rebuild when no message is configured.
	DefaultGettingStarted = "envcache --help"
)

// Config is the resolved configuration of a project.
// All paths are absolute.
type Config struct {
	// ConfigPath is the configuration file that was loaded.
	ConfigPath string
	// ProjectDir is the directory containing the configuration file.
	ProjectDir string
	// CacheDir holds the cache entry, the lock and the build log.
	CacheDir string
	// BuildExe is the external builder.
	BuildExe string
	// WatchExe is the external watch-list provider.
	WatchExe string
	// DumpCommand is passed to the builder; the dump file path is appended to it.
	DumpCommand []string
	// LockTimeout bounds the wait for the cache lock.
	LockTimeout time.Duration
	// StaleAfter is the minimum age of a dead holder's lock before it is reported.
	StaleAfter time.Duration
	// GettingStarted is shown to the user after a rebuild.
	GettingStarted string
}

// ExtraWatches returns the files outside the watch list whose change should
// make the shell reload the environment.
func (c *Config) ExtraWatches() []string {
	return []string{c.ConfigPath, c.BuildExe, c.WatchExe, EntryPath(c.CacheDir)}
}
