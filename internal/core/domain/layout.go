package domain

import "path/filepath"

const (
	// ConfigFileYAML is the YAML configuration file name.
	ConfigFileYAML = ".envcache.yaml"

	// ConfigFileYML is the alternative YAML configuration file name.
	ConfigFileYML = ".envcache.yml"

	// ConfigFileTOML is the TOML configuration file name.
	ConfigFileTOML = ".envcache.toml"

	// EntryFileName is the name of the current cache entry inside the cache directory.
	EntryFileName = "env.json"

	// EntryTempPattern is the pattern used for in-flight cache entry writes.
	EntryTempPattern = "env-*.tmp"

	// LockFileName is the name of the lock file inside the cache directory.
	LockFileName = "lock"

	// BuildLogFileName is the name of the build history log.
	BuildLogFileName = "build.log"

	// BuildTempPattern is the pattern for per-build scratch directories.
	BuildTempPattern = "build-*"

	// DumpFileName is the name of the environment dump inside a build scratch directory.
	DumpFileName = "env.dump"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// ConfigFileNames lists the configuration file names in lookup order.
var ConfigFileNames = []string{ConfigFileYAML, ConfigFileYML, ConfigFileTOML}

// EntryPath returns the canonical location of the cache entry in dir.
func EntryPath(dir string) string {
	return filepath.Join(dir, EntryFileName)
}

// LockPath returns the location of the lock file in dir.
func LockPath(dir string) string {
	return filepath.Join(dir, LockFileName)
}

// BuildLogPath returns the location of the build log in dir.
func BuildLogPath(dir string) string {
	return filepath.Join(dir, BuildLogFileName)
}
