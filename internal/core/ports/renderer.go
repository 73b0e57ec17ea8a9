package ports

import (
	"io"

	"go.trai.ch/envcache/internal/core/domain"
)

// HookRenderer turns orchestration results into the shell-integration protocol.
type HookRenderer interface {
	// Render writes the script for a successful result to w.
	Render(w io.Writer, cfg *domain.Config, res *domain.Result) error
	// Status writes the one-line status for a successful result to w.
	Status(w io.Writer, cfg *domain.Config, res *domain.Result) error
	// Failure writes the one-line error status to w.
	Failure(w io.Writer, err error) error
}
