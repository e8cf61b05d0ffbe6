package preview

import (
	"fmt"
	"log/slog"
)

// NewRegistry creates the registry backend named by registryType.
// An empty type selects the in-memory registry.
func NewRegistry(registryType, connectionString string) (registry Registry, err error) {
	switch registryType {
	case "", "memory":
		registry = NewMemoryRegistry()
	case "sqlite":
		registry, err = NewSQLiteRegistry(connectionString)
	case "redis":
		if connectionString == "" {
			return nil, fmt.Errorf("redis preview registry requires a connection string")
		}
		registry, err = NewRedisRegistry(connectionString)
	default:
		return nil, fmt.Errorf("unsupported preview registry: %s", registryType)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("preview registry initialized", "type", registryType)
	return registry, nil
}
