// Package config discovers and loads the envcache configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.trai.ch/envcache/internal/core/domain"
	"go.trai.ch/envcache/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader.
type Loader struct {
	Logger ports.Logger
	// Executable resolves the running binary, used in the default dump command.
	Executable func() (string, error)
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, Executable: os.Executable}
}

// Load finds the nearest configuration file at or above cwd and resolves it.
func (l *Loader) Load(cwd string) (*domain.Config, error) {
	absCwd, err := filepath.Abs(cwd)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to resolve working directory")
	}

	configPath, err := findConfiguration(absCwd)
	if err != nil {
		return nil, err
	}
	l.Logger.Debug("using configuration " + configPath)

	file, err := decode(configPath)
	if err != nil {
		return nil, err
	}

	return l.resolve(configPath, file)
}

// findConfiguration walks from dir to the filesystem root and returns the
// first configuration file found. Within one directory ConfigFileNames order wins.
func findConfiguration(dir string) (string, error) {
	for current := dir; ; {
		for _, name := range domain.ConfigFileNames {
			candidate := filepath.Join(current, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return "", zerr.Wrap(domain.ErrConfigNotFound, "searched "+dir+" and its parents")
}

func decode(path string) (*Envfile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from discovery
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrConfigReadFailed, err), "path", path)
	}

	var file Envfile
	if filepath.Ext(path) == ".toml" {
		err = toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&file)
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&file)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	}
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrConfigParseFailed, err), "path", path)
	}
	return &file, nil
}

func (l *Loader) resolve(configPath string, file *Envfile) (*domain.Config, error) {
	projectDir := filepath.Dir(configPath)
	invalid := func(msg string) error {
		return zerr.With(zerr.Wrap(domain.ErrConfigInvalid, msg), "path", configPath)
	}

	required := []struct{ key, value string }{
		{"cache_dir", file.CacheDir},
		{"build_exe", file.BuildExe},
		{"watch_exe", file.WatchExe},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, invalid(r.key + " is required")
		}
	}

	lockTimeout, err := parseDuration(file.LockTimeout, domain.DefaultLockTimeout)
	if err != nil {
		return nil, invalid(fmt.Sprintf("lock_timeout: %v", err))
	}
	staleAfter, err := parseDuration(file.StaleAfter, domain.DefaultStaleAfter)
	if err != nil {
		return nil, invalid(fmt.Sprintf("stale_after: %v", err))
	}

	self, err := l.Executable()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to locate the envcache executable")
	}

	gettingStarted := file.Messages.GettingStarted
	if gettingStarted == "" {
		gettingStarted = domain.DefaultGettingStarted
	}

	return &domain.Config{
		ConfigPath:     configPath,
		ProjectDir:     projectDir,
		CacheDir:       resolvePath(projectDir, file.CacheDir),
		BuildExe:       resolvePath(projectDir, file.BuildExe),
		WatchExe:       resolvePath(projectDir, file.WatchExe),
		DumpCommand:    []string{self, "env", "--out"},
		LockTimeout:    lockTimeout,
		StaleAfter:     staleAfter,
		GettingStarted: gettingStarted,
	}, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, zerr.New("must not be negative")
	}
	return d, nil
}

// resolvePath makes path absolute relative to the directory of the config file.
func resolvePath(base, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}
