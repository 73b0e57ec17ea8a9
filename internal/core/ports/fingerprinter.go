package ports

import "go.trai.ch/envcache/internal/core/domain"

// Fingerprinter computes the identity of the environment-defining inputs.
//
//go:generate go run go.uber.org/mock/mockgen -source=fingerprinter.go -destination=mocks/mock_fingerprinter.go -package=mocks
type Fingerprinter interface {
	// Compute digests the config file and every watched path.
	// It must not have side effects.
	Compute(configPath string, watch domain.WatchList) (domain.Fingerprint, error)
}
