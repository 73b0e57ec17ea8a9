package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"go.trai.ch/envcache/internal/core/domain"
	"go.trai.ch/envcache/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.WatchLister = (*WatchLister)(nil)

// WatchLister implements ports.WatchLister by running watch_exe.
type WatchLister struct {
	logger ports.Logger
}

// NewWatchLister creates a WatchLister.
func NewWatchLister(logger ports.Logger) *WatchLister {
	return &WatchLister{logger: logger}
}

// List runs watch_exe in the project directory and parses the NUL-separated
// paths it prints. Relative paths resolve against the project directory.
func (w *WatchLister) List(ctx context.Context, cfg *domain.Config) (domain.WatchList, error) {
	var stdout bytes.Buffer
	stderr := &logWriter{logger: w.logger, prefix: filepath.Base(cfg.WatchExe) + ": "}

	cmd := exec.CommandContext(ctx, cfg.WatchExe) //nolint:gosec // configured provider
	cmd.Dir = cfg.ProjectDir
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	_ = stderr.Close()
	if err != nil {
		return domain.WatchList{}, providerFailed(cfg.WatchExe, err)
	}

	var list domain.WatchList
	for record := range bytes.SplitSeq(stdout.Bytes(), []byte{0}) {
		path := strings.TrimRight(string(record), "\n")
		if path == "" {
			continue
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.ProjectDir, path)
		}
		list.Add(filepath.Clean(path))
	}

	w.logger.Debug(fmt.Sprintf("watch list has %d paths", list.Len()))
	return list, nil
}

func providerFailed(exe string, err error) error {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return errors.Join(domain.ErrInputUnreadable,
			zerr.With(zerr.Wrap(err, "failed to start watch-list provider"), "watch_exe", exe))
	}
	code := exitErr.ExitCode()
	msg := fmt.Sprintf("watch-list provider %s exited with status %d", filepath.Base(exe), code)
	return errors.Join(domain.ErrInputUnreadable,
		zerr.With(zerr.With(zerr.Wrap(err, msg), "exit_code", code), "watch_exe", exe))
}

// logWriter turns a child's stderr into warnings, one per line.
type logWriter struct {
	logger ports.Logger
	prefix string
	buf    []byte
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	msg := strings.TrimSuffix(string(line), "\r")
	if msg == "" {
		return
	}
	w.logger.Warn(w.prefix + msg)
}
