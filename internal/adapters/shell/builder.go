// Package shell runs the external builder and watch-list provider.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/creack/pty"
	"go.trai.ch/envcache/internal/core/domain"
	"go.trai.ch/envcache/internal/core/ports"
	"go.trai.ch/envcache/internal/ui/output"
	"go.trai.ch/zerr"
)

var _ ports.Builder = (*Builder)(nil)

// Builder implements ports.Builder by running build_exe with the dump command.
type Builder struct {
	logger  ports.Logger
	out     io.Writer
	environ func() []string
}

// NewBuilder creates a Builder that forwards the builder's output to stderr.
func NewBuilder(logger ports.Logger) *Builder {
	return &Builder{
		logger:  logger,
		out:     os.Stderr,
		environ: os.Environ,
	}
}

// Build runs `build_exe <dump-command...> <dump-file>` in the project directory
// and returns the environment the dump command observed, relative to ours.
func (b *Builder) Build(ctx context.Context, cfg *domain.Config) (*domain.Snapshot, error) {
	if err := os.MkdirAll(cfg.CacheDir, domain.DirPerm); err != nil {
		return nil, zerr.With(errors.Join(domain.ErrStoreCreateFailed, err), "path", cfg.CacheDir)
	}

	scratch, err := os.MkdirTemp(cfg.CacheDir, domain.BuildTempPattern)
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrStoreCreateFailed, err), "path", cfg.CacheDir)
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	dump := filepath.Join(scratch, domain.DumpFileName)
	outside := b.environ()

	cmd := exec.CommandContext(ctx, cfg.BuildExe, append(slices.Clone(cfg.DumpCommand), dump)...) //nolint:gosec // configured builder
	cmd.Dir = cfg.ProjectDir
	cmd.Env = outside

	b.logger.Debug("running " + strings.Join(cmd.Args, " "))

	if err := b.run(cmd); err != nil {
		return nil, buildFailed(ctx, cfg.BuildExe, err)
	}

	data, err := os.ReadFile(dump) //nolint:gosec // inside our scratch dir
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrBuildFailed, "builder did not write an environment dump"), "path", dump)
	}

	inside, err := domain.ParseEnv(data)
	if err != nil {
		return nil, errors.Join(domain.ErrBuildFailed, zerr.Wrap(err, "builder wrote a malformed environment dump"))
	}

	return domain.DiffEnv(domain.EnvMap(outside), inside), nil
}

// run forwards the builder's output live. Through a terminal the builder gets
// a PTY of its own so progress output keeps rendering.
func (b *Builder) run(cmd *exec.Cmd) error {
	if !output.IsTerminal(b.out) {
		cmd.Stdout = b.out
		cmd.Stderr = b.out
		return cmd.Run()
	}

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return zerr.Wrap(err, "failed to start pty")
	}
	if f, ok := b.out.(*os.File); ok {
		_ = pty.InheritSize(f, ptmx)
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		defer func() { _ = ptmx.Close() }()
		_, _ = io.Copy(b.out, ptmx)
	}()

	err = cmd.Wait()
	<-ioDone
	return err
}

func buildFailed(ctx context.Context, exe string, err error) error {
	if ctx.Err() != nil {
		return errors.Join(domain.ErrBuildFailed, zerr.Wrap(ctx.Err(), "build interrupted"))
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return errors.Join(domain.ErrBuildFailed, zerr.With(zerr.Wrap(err, "failed to start builder"), "build_exe", exe))
	}

	code := exitErr.ExitCode()
	msg := fmt.Sprintf("%s exited with status %d", filepath.Base(exe), code)
	return zerr.With(zerr.With(zerr.Wrap(domain.ErrBuildFailed, msg), "exit_code", code), "build_exe", exe)
}
