package storage

import (
	"context"
	"fmt"

	"github.com/rl1809/products-api/internal/config"
	"github.com/rl1809/products-api/internal/port"
)

// Open builds the product repository selected by cfg.Driver. The returned
// close func releases whatever connection the adapter holds.
func Open(cfg config.StoreConfig) (port.ProductRepository, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	switch cfg.Driver {
	case config.DriverCosmos:
		return NewCosmosAdapter(CosmosConfig{
			Endpoint:  cfg.CosmosEndpoint,
			Key:       cfg.CosmosKey,
			Database:  cfg.DatabaseName,
			Container: cfg.ContainerName,
		}), noop, nil
	case config.DriverMongo:
		a := NewMongoAdapter(cfg.MongoURI, cfg.DatabaseName, cfg.ContainerName)
		return a, a.Close, nil
	case config.DriverMySQL, config.DriverPostgres:
		a, err := OpenSQL(cfg.Driver, cfg.SQLDSN)
		if err != nil {
			return nil, nil, err
		}
		return a, func(context.Context) error { return a.Close() }, nil
	case config.DriverMemory:
		return NewMemoryAdapter(), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
