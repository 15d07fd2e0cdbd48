package ports

import (
	"context"

	"github.com/helios-robotics/simlink/internal/domain"
)

// ConfigRepository persists the simulation configuration.
type ConfigRepository interface {
	// Load reads the whole configuration file.
	Load(ctx context.Context, path string) (domain.ConfigPayload, error)

	// Save replaces the configuration file atomically. An existing file is
	// never left partially written.
	Save(ctx context.Context, path string, cfg domain.ConfigPayload) error
}
