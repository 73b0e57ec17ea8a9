// Package orchestrator implements the cache-or-build state machine.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.trai.ch/envcache/internal/core/domain"
	"go.trai.ch/envcache/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// Options tunes a single Ensure call.
type Options struct {
	// Force skips both cache lookups and always runs the builder.
	Force bool
}

// Orchestrator decides whether the cached environment can be served and
// rebuilds it under the cache lock when it cannot. It keeps no state between
// calls; everything persistent lives in the store.
type Orchestrator struct {
	lister  ports.WatchLister
	hasher  ports.Fingerprinter
	store   ports.EnvironmentStore
	builder ports.Builder
	locker  ports.Locker
	tracer  ports.Tracer
	logger  ports.Logger
	now     func() time.Time

	// builds collapses concurrent rebuilds of one fingerprint within the process.
	builds  singleflight.Group
	mu      sync.Mutex
	flights map[string]*flight
	seq     int
}

// New creates a new Orchestrator.
func New(
	lister ports.WatchLister,
	hasher ports.Fingerprinter,
	store ports.EnvironmentStore,
	builder ports.Builder,
	locker ports.Locker,
	tracer ports.Tracer,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		lister:  lister,
		hasher:  hasher,
		store:   store,
		builder: builder,
		locker:  locker,
		tracer:  tracer,
		logger:  logger,
		now:     time.Now,
		flights: make(map[string]*flight),
	}
}

// Ensure returns a valid environment for cfg, building it if necessary.
func (o *Orchestrator) Ensure(ctx context.Context, cfg *domain.Config, opts Options) (*domain.Result, error) {
	ctx, span := o.tracer.Start(ctx, "ensure")
	defer span.End()

	res, err := o.ensure(ctx, cfg, opts)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttribute("outcome", res.Outcome.String())
	span.SetAttribute("fingerprint", res.Fingerprint.String())
	return res, nil
}

// Inspect computes the current watch list and fingerprint without touching the cache.
func (o *Orchestrator) Inspect(ctx context.Context, cfg *domain.Config) (domain.WatchList, domain.Fingerprint, error) {
	watch, err := o.watchList(ctx, cfg)
	if err != nil {
		return domain.WatchList{}, "", err
	}
	fp, err := o.fingerprint(ctx, cfg, watch)
	if err != nil {
		return domain.WatchList{}, "", err
	}
	return watch, fp, nil
}

func (o *Orchestrator) ensure(ctx context.Context, cfg *domain.Config, opts Options) (*domain.Result, error) {
	path := []domain.State{domain.StateIdle, domain.StateFingerprinting}
	o.trace(domain.StateFingerprinting)

	watch, fp, err := o.Inspect(ctx, cfg)
	if err != nil {
		o.trace(domain.StateFailed)
		return nil, err
	}

	if !opts.Force {
		if snap := o.lookup(ctx, cfg, fp); snap != nil {
			path = append(path, domain.StateCacheHit, domain.StateDone)
			o.trace(domain.StateCacheHit)
			return &domain.Result{
				Fingerprint: fp,
				Snapshot:    snap,
				WatchList:   watch,
				Outcome:     domain.OutcomeCached,
				Path:        path,
			}, nil
		}
	}

	path = append(path, domain.StateCacheMiss)
	o.trace(domain.StateCacheMiss)

	key := fmt.Sprintf("%s\x00%s\x00%t", cfg.CacheDir, fp, opts.Force)
	b, err := o.shared(ctx, key, func(ctx context.Context) (*built, error) {
		return o.rebuild(ctx, cfg, fp, opts.Force)
	})
	if err != nil {
		o.trace(domain.StateFailed)
		return nil, err
	}

	return &domain.Result{
		Fingerprint: fp,
		Snapshot:    b.snapshot,
		WatchList:   watch,
		Outcome:     b.outcome,
		Path:        append(path, b.path...),
	}, nil
}

// built is the outcome of rebuild, shared between collapsed callers.
type built struct {
	snapshot *domain.Snapshot
	outcome  domain.Outcome
	path     []domain.State
}

// flight is one rebuild shared by every caller that asked for the same key
// while it ran. Its context is detached from the callers and canceled once the
// last of them has given up.
type flight struct {
	key     string
	ctx     context.Context //nolint:containedctx // outlives each caller
	cancel  context.CancelFunc
	waiters int
}

// shared runs fn once for all concurrent callers with the same key. Each caller
// waits on its own ctx, so canceling one does not fail the others.
func (o *Orchestrator) shared(ctx context.Context, key string, fn func(context.Context) (*built, error)) (*built, error) {
	f := o.join(ctx, key)
	ch := o.builds.DoChan(f.key, func() (any, error) {
		return fn(f.ctx)
	})

	select {
	case r := <-ch:
		o.leave(key, f)
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*built), nil //nolint:forcetypeassert // fn always returns *built
	case <-ctx.Done():
		if o.leave(key, f) {
			// The build is being canceled; let it kill the builder and release the lock.
			<-ch
		}
		return nil, zerr.Wrap(ctx.Err(), "interrupted while waiting for the build")
	}
}

func (o *Orchestrator) join(ctx context.Context, key string) *flight {
	o.mu.Lock()
	defer o.mu.Unlock()

	f, ok := o.flights[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		o.seq++
		f = &flight{key: fmt.Sprintf("%s\x00%d", key, o.seq), ctx: fctx, cancel: cancel}
		o.flights[key] = f
	}
	f.waiters++
	return f
}

// leave reports whether the caller was the last one waiting on f.
func (o *Orchestrator) leave(key string, f *flight) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return false
	}
	f.cancel()
	if o.flights[key] == f {
		delete(o.flights, key)
	}
	return true
}

// rebuild runs the builder while holding the cache lock. Unless forced it first
// checks whether another process stored the entry while we were waiting.
func (o *Orchestrator) rebuild(ctx context.Context, cfg *domain.Config, fp domain.Fingerprint, force bool) (*built, error) {
	lockCtx, span := o.tracer.Start(ctx, "lock")
	lock, err := o.locker.Acquire(lockCtx, cfg.CacheDir, ports.LockOptions{
		Timeout:    cfg.LockTimeout,
		StaleAfter: cfg.StaleAfter,
	})
	span.RecordError(err)
	span.End()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			o.logger.Warn("failed to release the cache lock: " + err.Error())
		}
	}()

	if !force {
		if snap := o.lookup(ctx, cfg, fp); snap != nil {
			o.trace(domain.StateCacheHit)
			o.logger.Debug("another process built " + fp.Short() + " while we waited")
			return &built{
				snapshot: snap,
				outcome:  domain.OutcomeCached,
				path:     []domain.State{domain.StateCacheHit, domain.StateDone},
			}, nil
		}
	}

	o.trace(domain.StateBuilding)
	o.logger.Info("building environment " + fp.Short())

	start := o.now()
	buildCtx, span := o.tracer.Start(ctx, "build")
	snap, err := o.builder.Build(buildCtx, cfg)
	span.RecordError(err)
	span.End()
	if err != nil {
		o.trace(domain.StateBuildFailed)
		return nil, err
	}
	elapsed := o.now().Sub(start)

	o.trace(domain.StateBuildSucceeded)
	o.trace(domain.StateStoring)

	_, span = o.tracer.Start(ctx, "store")
	err = o.store.Store(cfg.CacheDir, fp, snap)
	span.RecordError(err)
	span.End()
	if err != nil {
		return nil, err
	}

	record := domain.BuildRecord{
		Time:        start.UTC(),
		Fingerprint: fp,
		Duration:    elapsed,
		Variables:   len(snap.Variables),
		Unset:       len(snap.Unset),
	}
	if err := o.store.AppendLog(cfg.CacheDir, record); err != nil {
		o.logger.Warn("failed to append to the build log: " + err.Error())
	}

	return &built{
		snapshot: snap,
		outcome:  domain.OutcomeRebuilt,
		path: []domain.State{
			domain.StateBuilding,
			domain.StateBuildSucceeded,
			domain.StateStoring,
			domain.StateDone,
		},
	}, nil
}

func (o *Orchestrator) watchList(ctx context.Context, cfg *domain.Config) (domain.WatchList, error) {
	ctx, span := o.tracer.Start(ctx, "watch-list")
	defer span.End()

	list, err := o.lister.List(ctx, cfg)
	if err != nil {
		span.RecordError(err)
		return domain.WatchList{}, err
	}

	// Paths under the cache directory change with every build and are never fingerprinted.
	var kept domain.WatchList
	for p := range list.All() {
		if within(cfg.CacheDir, p) {
			o.logger.Debug("ignoring watched path inside the cache directory: " + p)
			continue
		}
		kept.Add(p)
	}
	span.SetAttribute("paths", kept.Len())
	return kept, nil
}

func (o *Orchestrator) fingerprint(ctx context.Context, cfg *domain.Config, watch domain.WatchList) (domain.Fingerprint, error) {
	_, span := o.tracer.Start(ctx, "fingerprint")
	defer span.End()

	fp, err := o.hasher.Compute(cfg.ConfigPath, watch)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	span.SetAttribute("fingerprint", fp.String())
	return fp, nil
}

// lookup returns the cached snapshot for fp. Any doubt about the entry is a miss.
func (o *Orchestrator) lookup(ctx context.Context, cfg *domain.Config, fp domain.Fingerprint) *domain.Snapshot {
	_, span := o.tracer.Start(ctx, "lookup")
	defer span.End()

	snap, err := o.store.Lookup(cfg.CacheDir, fp)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrCacheCorrupt) {
			o.logger.Warn(domain.Describe(err) + ", rebuilding")
		} else {
			o.logger.Warn("cannot read the cache entry, rebuilding: " + err.Error())
		}
		return nil
	}
	span.SetAttribute("hit", snap != nil)
	return snap
}

func (o *Orchestrator) trace(state domain.State) {
	o.logger.Debug("state: " + state.String())
}

// within reports whether path is dir or below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
