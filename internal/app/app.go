// Package app implements the application layer for envcache.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/envcache/internal/adapters/watcher" //nolint:depguard // debouncing is owned by the watch loop
	"go.trai.ch/envcache/internal/core/domain"
	"go.trai.ch/envcache/internal/core/ports"
	"go.trai.ch/envcache/internal/engine/orchestrator"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Engine decides whether the cached environment is usable and rebuilds it otherwise.
type Engine interface {
	Ensure(ctx context.Context, cfg *domain.Config, opts orchestrator.Options) (*domain.Result, error)
	Inspect(ctx context.Context, cfg *domain.Config) (domain.WatchList, domain.Fingerprint, error)
}

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	engine       Engine
	store        ports.EnvironmentStore
	locker       ports.Locker
	renderer     ports.HookRenderer
	watcher      ports.Watcher
	logger       ports.Logger

	dir      string
	stdout   io.Writer
	stderr   io.Writer
	environ  func() []string
	debounce time.Duration
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	engine Engine,
	store ports.EnvironmentStore,
	locker ports.Locker,
	renderer ports.HookRenderer,
	fileWatcher ports.Watcher,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		engine:       engine,
		store:        store,
		locker:       locker,
		renderer:     renderer,
		watcher:      fileWatcher,
		logger:       log,
		dir:          ".",
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		environ:      os.Environ,
		debounce:     watcher.DefaultDebounceWindow,
	}
}

// WithOutput redirects the script and status streams.
// This is primarily used for testing.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// WithDebounce changes how long the watch loop waits for changes to settle.
func (a *App) WithDebounce(window time.Duration) *App {
	a.debounce = window
	return a
}

// Options holds the global command line settings.
type Options struct {
	// Dir is where configuration discovery starts.
	Dir string
	// Verbose enables debug logs and stage timings.
	Verbose bool
	// JSON switches the logs to JSON.
	JSON bool
}

// Configure applies the global settings before a command runs.
func (a *App) Configure(opts Options) {
	if opts.Dir != "" {
		a.dir = opts.Dir
	}
	if l, ok := a.logger.(interface{ SetVerbose(bool) }); ok {
		l.SetVerbose(opts.Verbose)
	}
	if l, ok := a.logger.(interface{ SetJSON(bool) }); ok {
		l.SetJSON(opts.JSON)
	}
}

// BuildOptions configuration for the Build method.
type BuildOptions struct {
	Force bool
}

// Build makes sure the environment is cached and prints its status.
func (a *App) Build(ctx context.Context, opts BuildOptions) error {
	cfg, err := a.configLoader.Load(a.dir)
	if err != nil {
		return err
	}

	res, err := a.engine.Ensure(ctx, cfg, orchestrator.Options{Force: opts.Force})
	if err != nil {
		return a.reportFailure(err)
	}
	return a.renderer.Status(a.stderr, cfg, res)
}

// Hook prints the shell script that loads the environment.
// Nothing is written to stdout unless the environment is valid.
func (a *App) Hook(ctx context.Context) error {
	cfg, err := a.configLoader.Load(a.dir)
	if err != nil {
		return a.reportFailure(err)
	}

	res, err := a.engine.Ensure(ctx, cfg, orchestrator.Options{})
	if err != nil {
		return a.reportFailure(err)
	}

	if err := a.renderer.Render(a.stdout, cfg, res); err != nil {
		return zerr.Wrap(err, "failed to write hook script")
	}
	// The script is already out, so a broken status stream must not fail the hook.
	if err := a.renderer.Status(a.stderr, cfg, res); err != nil {
		a.logger.Warn("failed to write hook status: " + err.Error())
	}
	return nil
}

// reportFailure prints the one-line error and marks err as reported.
func (a *App) reportFailure(err error) error {
	if werr := a.renderer.Failure(a.stderr, err); werr != nil {
		return errors.Join(err, werr)
	}
	return errors.Join(domain.ErrFailureReported, err)
}

// Clean removes the cache directory while holding the cache lock.
func (a *App) Clean(ctx context.Context) error {
	cfg, err := a.configLoader.Load(a.dir)
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.CacheDir); errors.Is(err, os.ErrNotExist) {
		a.logger.Info("nothing to clean")
		return nil
	}

	lock, err := a.locker.Acquire(ctx, cfg.CacheDir, ports.LockOptions{
		Timeout:    cfg.LockTimeout,
		StaleAfter: cfg.StaleAfter,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			a.logger.Warn("failed to release the cache lock: " + err.Error())
		}
	}()

	a.logger.Info(fmt.Sprintf("removing %s...", cfg.CacheDir))
	if err := a.store.Clean(cfg.CacheDir); err != nil {
		return err
	}
	a.logger.Info(fmt.Sprintf("removed %s", cfg.CacheDir))
	return nil
}

// Status compares the current inputs with the cache entry and prints the verdict.
func (a *App) Status(ctx context.Context) (domain.Status, error) {
	cfg, err := a.configLoader.Load(a.dir)
	if err != nil {
		return domain.StatusUnknown, err
	}

	_, fp, err := a.engine.Inspect(ctx, cfg)
	if err != nil {
		return domain.StatusUnknown, err
	}

	status := a.status(cfg, fp)
	if _, err := fmt.Fprintln(a.stdout, status); err != nil {
		return status, zerr.Wrap(err, "failed to write status")
	}
	return status, nil
}

func (a *App) status(cfg *domain.Config, fp domain.Fingerprint) domain.Status {
	snap, err := a.store.Lookup(cfg.CacheDir, fp)
	switch {
	case err != nil:
		a.logger.Debug(domain.Describe(err))
		return domain.StatusUnknown
	case snap != nil:
		return domain.StatusOkay
	}

	entry, err := a.store.Current(cfg.CacheDir)
	if err != nil || entry == nil || entry.FormatVersion != domain.FormatVersion {
		return domain.StatusUnknown
	}
	a.logger.Debug(fmt.Sprintf("entry was built from %s, inputs are now %s", entry.Fingerprint.Short(), fp.Short()))
	return domain.StatusStale
}

// Watch rebuilds the environment whenever one of its inputs changes, until ctx is done.
func (a *App) Watch(ctx context.Context) error {
	for {
		cfg, err := a.configLoader.Load(a.dir)
		if err != nil {
			return err
		}

		res, err := a.engine.Ensure(ctx, cfg, orchestrator.Options{})
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			_ = a.renderer.Failure(a.stderr, err)
		} else {
			_ = a.renderer.Status(a.stderr, cfg, res)
		}

		batch, err := a.waitForChange(ctx, a.watchPaths(ctx, cfg, res))
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		a.logger.Info("changed: " + strings.Join(relative(cfg.ProjectDir, batch), ", "))
	}
}

// watchPaths lists the files whose change triggers a rebuild. After a failed
// build the watch list is asked for again so fixing a watched file recovers.
func (a *App) watchPaths(ctx context.Context, cfg *domain.Config, res *domain.Result) []string {
	var list domain.WatchList
	if res != nil {
		list = res.WatchList
	} else if watch, _, err := a.engine.Inspect(ctx, cfg); err == nil {
		list = watch
	}

	paths := domain.NewWatchList(list.Paths()...)
	entry := domain.EntryPath(cfg.CacheDir)
	for _, extra := range cfg.ExtraWatches() {
		if extra != entry {
			paths.Add(extra)
		}
	}
	return paths.Paths()
}

// waitForChange blocks until a debounced batch of changes arrives or ctx is done.
func (a *App) waitForChange(ctx context.Context, paths []string) ([]string, error) {
	if err := a.watcher.Start(ctx, paths); err != nil {
		return nil, err
	}
	a.logger.Debug(fmt.Sprintf("watching %d paths", len(paths)))

	debouncer := watcher.NewDebouncer(a.debounce)
	defer debouncer.Stop()

	var batch []string
	g := new(errgroup.Group)
	g.Go(func() error {
		for event := range a.watcher.Events() {
			debouncer.Add(event.Path)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case batch = <-debouncer.C():
		case <-ctx.Done():
		}
		return a.watcher.Stop()
	})

	if err := g.Wait(); err != nil {
		return nil, errors.Join(domain.ErrWatchFailed, err)
	}
	return batch, nil
}

func relative(base string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if rel, err := filepath.Rel(base, p); err == nil && !strings.HasPrefix(rel, "..") {
			p = rel
		}
		out = append(out, p)
	}
	return out
}

// DumpEnv writes the process environment to path, NUL-separated.
// It is the default dump command handed to the builder.
func (a *App) DumpEnv(path string) error {
	if err := os.WriteFile(path, domain.EncodeEnv(a.environ()), domain.PrivateFilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write environment dump"), "path", path)
	}
	return nil
}
