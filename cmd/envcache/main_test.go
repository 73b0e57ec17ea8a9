package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/envcache/internal/adapters/hook"
	"go.trai.ch/envcache/internal/adapters/watcher"
	"go.trai.ch/envcache/internal/app"
	"go.trai.ch/envcache/internal/core/domain"
	"go.trai.ch/envcache/internal/core/ports/mocks"
	"go.trai.ch/envcache/internal/engine/orchestrator"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type stubEngine struct {
	fp domain.Fingerprint
}

func (s *stubEngine) Ensure(context.Context, *domain.Config, orchestrator.Options) (*domain.Result, error) {
	return nil, zerr.Wrap(domain.ErrBuildFailed, "build exited with status 1")
}

func (s *stubEngine) Inspect(context.Context, *domain.Config) (domain.WatchList, domain.Fingerprint, error) {
	return domain.WatchList{}, s.fp, nil
}

type fixture struct {
	loader *mocks.MockConfigLoader
	store  *mocks.MockEnvironmentStore
	logger *mocks.MockLogger
	app    *app.App
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		loader: mocks.NewMockConfigLoader(ctrl),
		store:  mocks.NewMockEnvironmentStore(ctrl),
		logger: mocks.NewMockLogger(ctrl),
	}
	f.app = app.New(
		f.loader,
		&stubEngine{fp: "0123456789abcdef"},
		f.store,
		mocks.NewMockLocker(ctrl),
		hook.NewRenderer(),
		watcher.NewWatcher(f.logger),
		f.logger,
	)
	return f
}

func (f *fixture) provider(context.Context) (*app.Components, func(), error) {
	return &app.Components{App: f.app, Logger: f.logger}, func() {}, nil
}

// TestRun_Success verifies that the run function returns 0 when the command succeeds.
func TestRun_Success(t *testing.T) {
	f := newFixture(t)

	exitCode := run(context.Background(), []string{"version"}, new(bytes.Buffer), f.provider)

	assert.Equal(t, 0, exitCode)
}

// TestRun_InitializationError verifies that run returns 1 when component initialization fails.
func TestRun_InitializationError(t *testing.T) {
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

// TestRun_ExecutionError verifies that command failures are logged with their category first.
func TestRun_ExecutionError(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(".").Return(nil, zerr.Wrap(domain.ErrConfigNotFound, "searched /work and its parents"))

	var logged error
	f.logger.EXPECT().Error(gomock.Any()).Do(func(err error) { logged = err })

	exitCode := run(context.Background(), []string{"clean"}, io.Discard, f.provider)

	assert.Equal(t, 1, exitCode)
	var zerrErr *zerr.Error
	if assert.ErrorAs(t, logged, &zerrErr) {
		assert.Equal(t, "no configuration file found: searched /work and its parents", zerrErr.Message())
	}
	assert.True(t, errors.Is(logged, domain.ErrConfigNotFound))
}

// TestRun_FailureAlreadyReported verifies that failures printed by the hook are not logged twice.
func TestRun_FailureAlreadyReported(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	f := newFixture(t)
	f.loader.EXPECT().Load(".").Return(&domain.Config{}, nil)

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"hook"}, io.Discard, f.provider, func(a *app.App) {
		a.WithOutput(stdout, stderr)
	})

	assert.Equal(t, 1, exitCode)
	assert.Empty(t, stdout.String())
	assert.Equal(t, "envcache: ✗ build failed: build exited with status 1\n", stderr.String())
}

// TestRun_StatusExitCode verifies that status reports through the exit code.
func TestRun_StatusExitCode(t *testing.T) {
	f := newFixture(t)
	cfg := &domain.Config{CacheDir: "/work/.cache"}
	f.loader.EXPECT().Load(".").Return(cfg, nil)
	f.store.EXPECT().Lookup(cfg.CacheDir, domain.Fingerprint("0123456789abcdef")).Return(nil, nil)
	f.store.EXPECT().Current(cfg.CacheDir).Return(nil, nil)

	stdout := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"status"}, io.Discard, f.provider, func(a *app.App) {
		a.WithOutput(stdout, io.Discard)
	})

	assert.Equal(t, domain.StatusUnknown.ExitCode(), exitCode)
	assert.Equal(t, "Environment not built or otherwise broken\n", stdout.String())
}

// TestRun_Signal verifies that the context is canceled on signal.
func TestRun_Signal(t *testing.T) {
	f := newFixture(t)
	blockCh := make(chan struct{})

	f.loader.EXPECT().Load(gomock.Any()).DoAndReturn(func(_ string) (*domain.Config, error) {
		select {
		case <-blockCh:
			return nil, context.Canceled
		case <-time.After(5 * time.Second):
			return nil, errors.New("timeout in mock")
		}
	})
	f.logger.EXPECT().Error(gomock.Any()).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan int)

	go func() {
		errCh <- run(ctx, []string{"clean"}, io.Discard, f.provider)
	}()

	time.Sleep(100 * time.Millisecond)

	cancel()
	close(blockCh)

	select {
	case ret := <-errCh:
		assert.NotEqual(t, 0, ret)
	case <-time.After(2 * time.Second):
		t.Fatal("TestRun_Signal timed out waiting for run() to return")
	}
}

func TestCategorize(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, categorize(plain), "uncategorized errors are left alone")

	err := categorize(zerr.Wrap(domain.ErrLockTimeout, "gave up waiting for the cache lock after 1s"))
	assert.True(t, errors.Is(err, domain.ErrLockTimeout))
	assert.Equal(t, "lock timeout: gave up waiting for the cache lock after 1s", domain.Summary(err))
}
