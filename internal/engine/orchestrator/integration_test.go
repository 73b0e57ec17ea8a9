package orchestrator_test

import (
	"bytes"
	"context"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/envcache/internal/adapters/cas"
	"go.trai.ch/envcache/internal/adapters/fs"
	"go.trai.ch/envcache/internal/adapters/hook"
	"go.trai.ch/envcache/internal/adapters/lock"
	"go.trai.ch/envcache/internal/adapters/shell"
	"go.trai.ch/envcache/internal/adapters/telemetry"
	"go.trai.ch/envcache/internal/core/domain"
	"go.trai.ch/envcache/internal/core/ports"
	"go.trai.ch/envcache/internal/core/ports/mocks"
	"go.trai.ch/envcache/internal/engine/orchestrator"
	"go.uber.org/mock/gomock"
)

type staticLister struct {
	paths []string
}

func (s staticLister) List(context.Context, *domain.Config) (domain.WatchList, error) {
	return domain.NewWatchList(s.paths...), nil
}

type countingBuilder struct {
	builds atomic.Int32
	delay  time.Duration
	fail   atomic.Bool
	env    map[string]string
}

func (b *countingBuilder) Build(context.Context, *domain.Config) (*domain.Snapshot, error) {
	b.builds.Add(1)
	time.Sleep(b.delay)
	if b.fail.Load() {
		return nil, domain.ErrBuildFailed
	}
	return &domain.Snapshot{Variables: maps.Clone(b.env)}, nil
}

func quietLogger(t *testing.T) ports.Logger {
	t.Helper()
	log := mocks.NewMockLogger(gomock.NewController(t))
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()
	return log
}

type project struct {
	cfg *domain.Config
	f1  string
}

func newProject(t *testing.T) project {
	t.Helper()
	dir := t.TempDir()
	p := project{
		cfg: &domain.Config{
			ConfigPath:  filepath.Join(dir, domain.ConfigFileYAML),
			ProjectDir:  dir,
			CacheDir:    filepath.Join(dir, ".cache"),
			BuildExe:    filepath.Join(dir, "build.sh"),
			WatchExe:    filepath.Join(dir, "watch.sh"),
			LockTimeout: 10 * time.Second,
			StaleAfter:  time.Minute,
		},
		f1: filepath.Join(dir, "f1"),
	}
	writeFile(t, p.cfg.ConfigPath, "A")
	writeFile(t, p.f1, "x")
	return p
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o700)) //nolint:gosec // test scripts are executable
}

func newOrchestrator(t *testing.T, p project, builder ports.Builder) *orchestrator.Orchestrator {
	t.Helper()
	log := quietLogger(t)
	return orchestrator.New(
		staticLister{paths: []string{p.f1}},
		fs.NewHasher(),
		cas.NewStore(),
		builder,
		lock.NewLocker(log),
		telemetry.NewNoOpTracer(),
		log,
	)
}

func TestEnsure_Idempotent(t *testing.T) {
	p := newProject(t)
	builder := &countingBuilder{env: map[string]string{"ENV_X": "1"}}
	o := newOrchestrator(t, p, builder)

	first, err := o.Ensure(context.Background(), p.cfg, orchestrator.Options{})
	require.NoError(t, err)
	second, err := o.Ensure(context.Background(), p.cfg, orchestrator.Options{})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeRebuilt, first.Outcome)
	assert.Equal(t, domain.OutcomeCached, second.Outcome)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.True(t, first.Snapshot.Equal(second.Snapshot))
	assert.Equal(t, int32(1), builder.builds.Load())
}

func TestEnsure_Invalidation(t *testing.T) {
	p := newProject(t)
	builder := &countingBuilder{env: map[string]string{"ENV_X": "1"}}
	o := newOrchestrator(t, p, builder)
	ctx := context.Background()

	first, err := o.Ensure(ctx, p.cfg, orchestrator.Options{})
	require.NoError(t, err)

	writeFile(t, p.f1, "y")
	second, err := o.Ensure(ctx, p.cfg, orchestrator.Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRebuilt, second.Outcome)
	assert.NotEqual(t, first.Fingerprint, second.Fingerprint)

	writeFile(t, p.cfg.ConfigPath, "B")
	third, err := o.Ensure(ctx, p.cfg, orchestrator.Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRebuilt, third.Outcome)
	assert.NotEqual(t, second.Fingerprint, third.Fingerprint)

	assert.Equal(t, int32(3), builder.builds.Load())
}

func TestEnsure_ConcurrentProcessesBuildOnce(t *testing.T) {
	p := newProject(t)
	builder := &countingBuilder{delay: 100 * time.Millisecond, env: map[string]string{"ENV_X": "1"}}

	const n = 8
	results := make([]*domain.Result, n)
	var wg sync.WaitGroup
	for i := range n {
		// A separate orchestrator per goroutine stands in for a separate process.
		o := newOrchestrator(t, p, builder)
		wg.Go(func() {
			res, err := o.Ensure(context.Background(), p.cfg, orchestrator.Options{})
			if assert.NoError(t, err) {
				results[i] = res
			}
		})
	}
	wg.Wait()

	assert.Equal(t, int32(1), builder.builds.Load())
	for _, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, results[0].Fingerprint, res.Fingerprint)
		assert.True(t, results[0].Snapshot.Equal(res.Snapshot))
	}
}

func TestEnsure_ConcurrentCallsShareOneBuild(t *testing.T) {
	p := newProject(t)
	builder := &countingBuilder{delay: 100 * time.Millisecond, env: map[string]string{"ENV_X": "1"}}
	o := newOrchestrator(t, p, builder)

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			_, err := o.Ensure(context.Background(), p.cfg, orchestrator.Options{})
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	assert.Equal(t, int32(1), builder.builds.Load())
}

// gatedBuilder blocks every build until release is closed.
type gatedBuilder struct {
	builds  atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (b *gatedBuilder) Build(ctx context.Context, _ *domain.Config) (*domain.Snapshot, error) {
	if b.builds.Add(1) == 1 {
		close(b.started)
	}
	select {
	case <-b.release:
		return &domain.Snapshot{Variables: map[string]string{"ENV_X": "1"}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestEnsure_CanceledCallerDoesNotFailSharedBuild(t *testing.T) {
	p := newProject(t)
	builder := &gatedBuilder{started: make(chan struct{}), release: make(chan struct{})}
	o := newOrchestrator(t, p, builder)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()
	firstErr := make(chan error, 1)
	go func() {
		_, err := o.Ensure(firstCtx, p.cfg, orchestrator.Options{})
		firstErr <- err
	}()
	<-builder.started

	type outcome struct {
		res *domain.Result
		err error
	}
	second := make(chan outcome, 1)
	go func() {
		res, err := o.Ensure(context.Background(), p.cfg, orchestrator.Options{})
		second <- outcome{res, err}
	}()
	// Give the second caller time to join the running build.
	time.Sleep(100 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("canceled caller did not return")
	}

	close(builder.release)
	select {
	case got := <-second:
		require.NoError(t, got.err)
		assert.Equal(t, domain.OutcomeRebuilt, got.res.Outcome)
		assert.Equal(t, "1", got.res.Snapshot.Variables["ENV_X"])
	case <-time.After(5 * time.Second):
		t.Fatal("second caller did not return")
	}
	assert.Equal(t, int32(1), builder.builds.Load())
}

func TestEnsure_LastCallerCancelStopsBuild(t *testing.T) {
	p := newProject(t)
	builder := &gatedBuilder{started: make(chan struct{}), release: make(chan struct{})}
	o := newOrchestrator(t, p, builder)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := o.Ensure(ctx, p.cfg, orchestrator.Options{})
		errCh <- err
	}()
	<-builder.started
	cancel()

	select {
	case err := <-errCh:
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("build was not canceled")
	}

	// The lock was released, so another build can start right away.
	close(builder.release)
	res, err := o.Ensure(context.Background(), p.cfg, orchestrator.Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRebuilt, res.Outcome)
}

func TestEnsure_FailureIsolation(t *testing.T) {
	p := newProject(t)
	builder := &countingBuilder{env: map[string]string{"ENV_X": "1"}}
	o := newOrchestrator(t, p, builder)
	ctx := context.Background()

	first, err := o.Ensure(ctx, p.cfg, orchestrator.Options{})
	require.NoError(t, err)
	before, err := os.ReadFile(domain.EntryPath(p.cfg.CacheDir))
	require.NoError(t, err)

	writeFile(t, p.f1, "y")
	builder.fail.Store(true)
	_, err = o.Ensure(ctx, p.cfg, orchestrator.Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBuildFailed))

	after, err := os.ReadFile(domain.EntryPath(p.cfg.CacheDir))
	require.NoError(t, err)
	assert.Equal(t, before, after, "a failed build does not touch the entry")

	writeFile(t, p.f1, "x")
	again, err := o.Ensure(ctx, p.cfg, orchestrator.Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCached, again.Outcome)
	assert.Equal(t, first.Fingerprint, again.Fingerprint)
}

func TestEnsure_FailedFirstBuildCreatesNoEntry(t *testing.T) {
	p := newProject(t)
	builder := &countingBuilder{}
	builder.fail.Store(true)
	o := newOrchestrator(t, p, builder)

	_, err := o.Ensure(context.Background(), p.cfg, orchestrator.Options{})

	require.Error(t, err)
	_, statErr := os.Stat(domain.EntryPath(p.cfg.CacheDir))
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestEnsure_CorruptEntryRebuilds(t *testing.T) {
	p := newProject(t)
	builder := &countingBuilder{env: map[string]string{"ENV_X": "1"}}
	o := newOrchestrator(t, p, builder)
	ctx := context.Background()

	_, err := o.Ensure(ctx, p.cfg, orchestrator.Options{})
	require.NoError(t, err)
	entry, err := os.ReadFile(domain.EntryPath(p.cfg.CacheDir))
	require.NoError(t, err)
	writeFile(t, domain.EntryPath(p.cfg.CacheDir), string(entry[:len(entry)/2]))

	res, err := o.Ensure(ctx, p.cfg, orchestrator.Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRebuilt, res.Outcome)

	res, err = o.Ensure(ctx, p.cfg, orchestrator.Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCached, res.Outcome)
}

// TestEnsure_F1Scenario runs the real builder and watch-list provider and
// renders the hook script, as the hook command does.
func TestEnsure_F1Scenario(t *testing.T) {
	p := newProject(t)
	builds := filepath.Join(p.cfg.ProjectDir, "builds")
	writeFile(t, p.cfg.BuildExe, "#!/bin/sh\necho built >> "+builds+"\nexport ENV_X=1\nexec \"$@\"\n")
	writeFile(t, p.cfg.WatchExe, "#!/bin/sh\nprintf 'f1\\0'\n")
	p.cfg.DumpCommand = []string{"sh", "-c", `env -0 > "$1"`, "sh"}

	log := quietLogger(t)
	o := orchestrator.New(
		shell.NewWatchLister(log),
		fs.NewHasher(),
		cas.NewStore(),
		shell.NewBuilder(log),
		lock.NewLocker(log),
		telemetry.NewNoOpTracer(),
		log,
	)
	renderer := hook.NewRenderer()
	ctx := context.Background()

	run := func() (*domain.Result, string) {
		t.Helper()
		res, err := o.Ensure(ctx, p.cfg, orchestrator.Options{})
		require.NoError(t, err)
		var out bytes.Buffer
		require.NoError(t, renderer.Render(&out, p.cfg, res))
		return res, out.String()
	}
	buildCount := func() int {
		t.Helper()
		data, err := os.ReadFile(builds) //nolint:gosec // test
		require.NoError(t, err)
		return strings.Count(string(data), "built")
	}

	first, script := run()
	assert.Equal(t, domain.OutcomeRebuilt, first.Outcome)
	assert.Contains(t, script, "export ENV_X=1\n")
	assert.Contains(t, script, "  "+p.f1+" \\\n")
	assert.Equal(t, 1, buildCount())

	second, again := run()
	assert.Equal(t, domain.OutcomeCached, second.Outcome)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, strings.Replace(script, "(rebuilt)", "(cache hit)", 1), again)
	assert.Equal(t, 1, buildCount())

	writeFile(t, p.f1, "y")
	third, _ := run()
	assert.Equal(t, domain.OutcomeRebuilt, third.Outcome)
	assert.NotEqual(t, first.Fingerprint, third.Fingerprint)
	assert.Equal(t, 2, buildCount())
}
