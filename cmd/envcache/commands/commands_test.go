package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/envcache/cmd/envcache/commands"
	"go.trai.ch/envcache/internal/app"
	"go.trai.ch/envcache/internal/build"
	"go.trai.ch/envcache/internal/core/domain"
)

type mockApp struct {
	opts        app.Options
	buildFunc   func(ctx context.Context, opts app.BuildOptions) error
	hookFunc    func(ctx context.Context) error
	cleanFunc   func(ctx context.Context) error
	statusFunc  func(ctx context.Context) (domain.Status, error)
	watchFunc   func(ctx context.Context) error
	dumpEnvFunc func(path string) error
}

func (m *mockApp) Configure(opts app.Options) {
	m.opts = opts
}

func (m *mockApp) Build(ctx context.Context, opts app.BuildOptions) error {
	if m.buildFunc != nil {
		return m.buildFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) Hook(ctx context.Context) error {
	if m.hookFunc != nil {
		return m.hookFunc(ctx)
	}
	return nil
}

func (m *mockApp) Clean(ctx context.Context) error {
	if m.cleanFunc != nil {
		return m.cleanFunc(ctx)
	}
	return nil
}

func (m *mockApp) Status(ctx context.Context) (domain.Status, error) {
	if m.statusFunc != nil {
		return m.statusFunc(ctx)
	}
	return domain.StatusOkay, nil
}

func (m *mockApp) Watch(ctx context.Context) error {
	if m.watchFunc != nil {
		return m.watchFunc(ctx)
	}
	return nil
}

func (m *mockApp) DumpEnv(path string) error {
	if m.dumpEnvFunc != nil {
		return m.dumpEnvFunc(path)
	}
	return nil
}

func execute(t *testing.T, mock *mockApp, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(mock)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return buf.String(), err
}

func TestCommands_Build(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var captured app.BuildOptions
		called := false
		mock := &mockApp{
			buildFunc: func(_ context.Context, opts app.BuildOptions) error {
				captured = opts
				called = true
				return nil
			},
		}

		_, err := execute(t, mock, "build", "--force")

		require.NoError(t, err)
		assert.True(t, called)
		assert.True(t, captured.Force)
	})

	t.Run("returns error on build failure", func(t *testing.T) {
		mock := &mockApp{
			buildFunc: func(context.Context, app.BuildOptions) error {
				return errors.New("simulated error")
			},
		}

		_, err := execute(t, mock, "build")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})

	t.Run("rejects arguments", func(t *testing.T) {
		mock := &mockApp{
			buildFunc: func(context.Context, app.BuildOptions) error {
				panic("should not be called")
			},
		}

		_, err := execute(t, mock, "build", "extra")

		require.Error(t, err)
	})
}

func TestCommands_GlobalFlags(t *testing.T) {
	mock := &mockApp{}

	_, err := execute(t, mock, "hook", "-v", "--json", "-C", "/work/project")

	require.NoError(t, err)
	assert.Equal(t, app.Options{Dir: "/work/project", Verbose: true, JSON: true}, mock.opts)
}

func TestCommands_GlobalFlags_Defaults(t *testing.T) {
	mock := &mockApp{}

	_, err := execute(t, mock, "clean")

	require.NoError(t, err)
	assert.Equal(t, app.Options{Dir: "."}, mock.opts)
}

func TestCommands_Hook(t *testing.T) {
	called := false
	mock := &mockApp{
		hookFunc: func(context.Context) error {
			called = true
			return nil
		},
	}

	_, err := execute(t, mock, "hook")

	require.NoError(t, err)
	assert.True(t, called)
}

func TestCommands_Clean(t *testing.T) {
	mock := &mockApp{
		cleanFunc: func(context.Context) error {
			return domain.ErrLockTimeout
		},
	}

	_, err := execute(t, mock, "clean")

	assert.True(t, errors.Is(err, domain.ErrLockTimeout))
}

func TestCommands_Status(t *testing.T) {
	tests := []struct {
		status domain.Status
		code   int
	}{
		{status: domain.StatusOkay, code: 0},
		{status: domain.StatusStale, code: 1},
		{status: domain.StatusUnknown, code: 2},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			mock := &mockApp{
				statusFunc: func(context.Context) (domain.Status, error) {
					return tt.status, nil
				},
			}

			_, err := execute(t, mock, "status")

			if tt.code == 0 {
				require.NoError(t, err)
				return
			}
			var exitErr *commands.ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, tt.code, exitErr.Code)
		})
	}
}

func TestCommands_Watch(t *testing.T) {
	called := false
	mock := &mockApp{
		watchFunc: func(context.Context) error {
			called = true
			return nil
		},
	}

	_, err := execute(t, mock, "watch")

	require.NoError(t, err)
	assert.True(t, called)
}

func TestCommands_Env(t *testing.T) {
	t.Run("writes to the given file", func(t *testing.T) {
		var path string
		mock := &mockApp{
			dumpEnvFunc: func(p string) error {
				path = p
				return nil
			},
		}

		_, err := execute(t, mock, "env", "--out", "/tmp/env.dump")

		require.NoError(t, err)
		assert.Equal(t, "/tmp/env.dump", path)
	})

	t.Run("requires --out", func(t *testing.T) {
		mock := &mockApp{
			dumpEnvFunc: func(string) error {
				panic("should not be called")
			},
		}

		_, err := execute(t, mock, "env")

		require.Error(t, err)
	})

	t.Run("is hidden from help", func(t *testing.T) {
		out, err := execute(t, &mockApp{}, "--help")

		require.NoError(t, err)
		assert.Contains(t, out, "hook")
		assert.NotContains(t, out, "Dump the process environment")
	})
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, &mockApp{}, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "envcache version "+build.Version)
	assert.Contains(t, out, "commit: "+build.Commit)
}
