package ports

import "go.trai.ch/envcache/internal/core/domain"

// ConfigLoader defines the interface for loading the project configuration.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load walks up from cwd to the first configuration file and resolves it.
	Load(cwd string) (*domain.Config, error)
}
