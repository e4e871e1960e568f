package container

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
)

// Container own every long living dependency of the process.
// It is returned as a struct so the caller can Close it in deferred mode.
type Container struct {
	Repositories *RepositoryImpl
	Services     *ServicesImpl
}

// Setup connect all resources of cfg and build the services on top of them.
func Setup(ctx context.Context, cfg Config) (*Container, error) {
	repos, err := SetupRepositories(ctx, cfg.DatabaseResources, cfg.RedisResources)
	if err != nil {
		return nil, fmt.Errorf("repositories preparation: %w", err)
	}

	services, err := SetupServices(ctx, cfg, repos)
	if err != nil {
		err = fmt.Errorf("services preparation: %w", err)
		return nil, multierr.Append(err, repos.Close())
	}

	return &Container{Repositories: repos, Services: services}, nil
}

// Close will close all dependencies, services first so pending notifications still see open resources.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}

	var err error
	if _err := c.Services.Close(); _err != nil {
		err = multierr.Append(err, fmt.Errorf("close services: %w", _err))
	}

	if _err := c.Repositories.Close(); _err != nil {
		err = multierr.Append(err, fmt.Errorf("close repositories: %w", _err))
	}

	return err
}
