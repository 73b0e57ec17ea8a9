package domain

import (
	"errors"

	"go.trai.ch/zerr"
)

var (
	// ErrInputUnreadable is returned when the config file or a watched file cannot be read,
	// or when the watch-list provider fails.
	ErrInputUnreadable = zerr.New("input unreadable")

	// ErrBuildFailed is returned when the builder exits nonzero or produces no usable dump.
	ErrBuildFailed = zerr.New("build failed")

	// ErrCacheCorrupt is returned when a cache entry fails its consistency checks.
	ErrCacheCorrupt = zerr.New("cache corrupt")

	// ErrLockTimeout is returned when the cache lock could not be acquired in time.
	ErrLockTimeout = zerr.New("lock timeout")

	// ErrStaleLock reports a lock left behind by a process that is no longer alive.
	ErrStaleLock = zerr.New("stale lock")

	// ErrLockUnsupported is returned on platforms without advisory file locks.
	ErrLockUnsupported = zerr.New("file locking is not supported on this platform")

	// ErrConfigNotFound is returned when no configuration file is found.
	ErrConfigNotFound = zerr.New("no configuration file found")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigInvalid is returned when a required option is missing or malformed.
	ErrConfigInvalid = zerr.New("invalid configuration")

	// ErrStoreCreateFailed is returned when the cache directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create cache directory")

	// ErrStoreReadFailed is returned when the cache entry cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read cache entry")

	// ErrStoreMarshalFailed is returned when a cache entry cannot be encoded.
	ErrStoreMarshalFailed = zerr.New("failed to marshal cache entry")

	// ErrStoreWriteFailed is returned when a cache entry cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write cache entry")

	// ErrStoreCleanFailed is returned when the cache directory cannot be removed.
	ErrStoreCleanFailed = zerr.New("failed to remove cache directory")

	// ErrWatchFailed is returned when the file watcher cannot be set up.
	ErrWatchFailed = zerr.New("failed to watch files")

	// ErrFailureReported marks an error whose user-facing line was already printed.
	ErrFailureReported = zerr.New("failure reported")
)

// categories lists the failure kinds shown to the user, most specific first.
var categories = []error{
	ErrBuildFailed,
	ErrLockTimeout,
	ErrInputUnreadable,
	ErrCacheCorrupt,
	ErrConfigNotFound,
	ErrConfigReadFailed,
	ErrConfigParseFailed,
	ErrConfigInvalid,
	ErrLockUnsupported,
}

// Category returns the failure kind of err, or "error" when it does not belong to one.
func Category(err error) string {
	for _, c := range categories {
		if errors.Is(err, c) {
			return c.Error()
		}
	}
	return "error"
}

// Summary returns the outermost message of err without its cause chain.
// Joined errors are summarized by their last member, since sentinels are
// joined first, and zerr links carrying only metadata are skipped.
func Summary(err error) string {
	for {
		switch e := err.(type) {
		case interface{ Unwrap() []error }:
			errs := e.Unwrap()
			if len(errs) == 0 {
				return err.Error()
			}
			err = errs[len(errs)-1]
		case *zerr.Error:
			if e.Message() != "" || e.Unwrap() == nil {
				return e.Message()
			}
			err = e.Unwrap()
		default:
			return err.Error()
		}
	}
}

// Describe renders err as the one-line categorized message shown to users.
func Describe(err error) string {
	category := Category(err)
	summary := Summary(err)
	if summary == category {
		return category
	}
	return category + ": " + summary
}
