package backend

import (
	"fmt"
	"log/slog"

	"finboard/internal/backend/memory"
	"finboard/internal/backend/rest"
	"finboard/internal/config"
)

// New creates the backend selected by the configuration.
func New(cfg *config.Config, logger *slog.Logger) (Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.DataBackend {
	case config.RESTBackend:
		client, err := rest.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout)
		if err != nil {
			return nil, fmt.Errorf("initialize rest backend: %w", err)
		}
		logger.Info("Initialized REST backend", "base_url", cfg.BackendBaseURL, "timeout", cfg.BackendTimeout)
		return client, nil

	case config.MemoryBackend:
		store := memory.NewStore()
		logger.Info("Initialized memory backend")
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}
