package ports

import (
	"context"

	"go.trai.ch/envcache/internal/core/domain"
)

// Builder materializes a fresh environment by running the external builder.
//
//go:generate go run go.uber.org/mock/mockgen -source=builder.go -destination=mocks/mock_builder.go -package=mocks
type Builder interface {
	// Build runs the builder and returns the environment it produced.
	// A nonzero exit yields domain.ErrBuildFailed.
	Build(ctx context.Context, cfg *domain.Config) (*domain.Snapshot, error)
}

// WatchLister asks the external watch-list provider which files define the environment.
type WatchLister interface {
	// List returns the absolute watched paths in provider order, without duplicates.
	List(ctx context.Context, cfg *domain.Config) (domain.WatchList, error)
}
