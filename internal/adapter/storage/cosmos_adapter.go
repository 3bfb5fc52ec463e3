package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"

	"github.com/rl1809/products-api/internal/core/domain"
	"github.com/rl1809/products-api/internal/obs"
)

const (
	cosmosListQuery       = "SELECT * FROM products p"
	cosmosByCategoryQuery = "SELECT * FROM products p WHERE p.category = @category"
)

// cosmosContainer is the subset of *azcosmos.ContainerClient the adapter
// uses.
type cosmosContainer interface {
	CreateItem(ctx context.Context, partitionKey azcosmos.PartitionKey, item []byte, o *azcosmos.ItemOptions) (azcosmos.ItemResponse, error)
	UpsertItem(ctx context.Context, partitionKey azcosmos.PartitionKey, item []byte, o *azcosmos.ItemOptions) (azcosmos.ItemResponse, error)
	ReadItem(ctx context.Context, partitionKey azcosmos.PartitionKey, itemId string, o *azcosmos.ItemOptions) (azcosmos.ItemResponse, error)
	DeleteItem(ctx context.Context, partitionKey azcosmos.PartitionKey, itemId string, o *azcosmos.ItemOptions) (azcosmos.ItemResponse, error)
	NewQueryItemsPager(query string, partitionKey azcosmos.PartitionKey, o *azcosmos.QueryOptions) *runtime.Pager[azcosmos.QueryItemsResponse]
	Read(ctx context.Context, o *azcosmos.ReadContainerOptions) (azcosmos.ContainerResponse, error)
}

type CosmosConfig struct {
	Endpoint  string
	Key       string
	Database  string
	Container string
}

// CosmosAdapter stores products in one Cosmos DB container partitioned by
// /category.
type CosmosAdapter struct {
	container *lazy[cosmosContainer]
}

// NewCosmosAdapter returns an adapter that connects on first use. Without
// a key it authenticates through DefaultAzureCredential.
func NewCosmosAdapter(cfg CosmosConfig) *CosmosAdapter {
	return &CosmosAdapter{container: newLazy(func(ctx context.Context) (cosmosContainer, error) {
		return dialCosmos(cfg)
	})}
}

func newCosmosAdapterWithContainer(c cosmosContainer) *CosmosAdapter {
	return &CosmosAdapter{container: newLazy(func(ctx context.Context) (cosmosContainer, error) {
		return c, nil
	})}
}

func dialCosmos(cfg CosmosConfig) (cosmosContainer, error) {
	var (
		client *azcosmos.Client
		err    error
	)
	if cfg.Key != "" {
		obs.Logger.Info().Str("endpoint", cfg.Endpoint).Msg("cosmos: using account key authentication")
		cred, kerr := azcosmos.NewKeyCredential(cfg.Key)
		if kerr != nil {
			return nil, fmt.Errorf("cosmos key credential: %w", kerr)
		}
		client, err = azcosmos.NewClientWithKey(cfg.Endpoint, cred, nil)
	} else {
		obs.Logger.Info().Str("endpoint", cfg.Endpoint).Msg("cosmos: using Entra ID authentication (DefaultAzureCredential)")
		cred, cerr := azidentity.NewDefaultAzureCredential(nil)
		if cerr != nil {
			return nil, fmt.Errorf("azure credential: %w", cerr)
		}
		client, err = azcosmos.NewClient(cfg.Endpoint, cred, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("cosmos client: %w", err)
	}

	container, err := client.NewContainer(cfg.Database, cfg.Container)
	if err != nil {
		return nil, fmt.Errorf("cosmos container %s/%s: %w", cfg.Database, cfg.Container, err)
	}
	return container, nil
}

func (a *CosmosAdapter) List(ctx context.Context) ([]domain.Product, error) {
	c, err := a.container.get(ctx)
	if err != nil {
		return nil, err
	}
	// Empty partition key: cross-partition query.
	return a.query(ctx, c, cosmosListQuery, azcosmos.NewPartitionKey(), nil)
}

func (a *CosmosAdapter) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	c, err := a.container.get(ctx)
	if err != nil {
		return nil, err
	}
	params := []azcosmos.QueryParameter{{Name: "@category", Value: category}}
	return a.query(ctx, c, cosmosByCategoryQuery, azcosmos.NewPartitionKeyString(category), params)
}

func (a *CosmosAdapter) query(ctx context.Context, c cosmosContainer, query string, pk azcosmos.PartitionKey, params []azcosmos.QueryParameter) ([]domain.Product, error) {
	pager := c.NewQueryItemsPager(query, pk, &azcosmos.QueryOptions{QueryParameters: params})

	out := []domain.Product{}
	var charge float32
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, translateCosmosErr(err)
		}
		charge += page.RequestCharge
		for _, raw := range page.Items {
			var p domain.Product
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("decode product: %w", err)
			}
			out = append(out, p)
		}
	}

	obs.Logger.Debug().Str("query", query).Int("items", len(out)).Float32("request_charge", charge).Msg("cosmos: query")
	return out, nil
}

func (a *CosmosAdapter) Get(ctx context.Context, id, category string) (domain.Product, error) {
	c, err := a.container.get(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	resp, err := c.ReadItem(ctx, azcosmos.NewPartitionKeyString(category), id, nil)
	if err != nil {
		return domain.Product{}, translateCosmosErr(err)
	}
	obs.Logger.Debug().Str("id", id).Float32("request_charge", resp.RequestCharge).Msg("cosmos: read item")
	return decodeItem(resp.Value)
}

func (a *CosmosAdapter) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	return a.write(ctx, "create", product, cosmosContainer.CreateItem)
}

func (a *CosmosAdapter) Upsert(ctx context.Context, product domain.Product) (domain.Product, error) {
	return a.write(ctx, "upsert", product, cosmosContainer.UpsertItem)
}

type cosmosWriteFunc func(c cosmosContainer, ctx context.Context, pk azcosmos.PartitionKey, item []byte, o *azcosmos.ItemOptions) (azcosmos.ItemResponse, error)

func (a *CosmosAdapter) write(ctx context.Context, op string, product domain.Product, fn cosmosWriteFunc) (domain.Product, error) {
	c, err := a.container.get(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	item, err := json.Marshal(product)
	if err != nil {
		return domain.Product{}, fmt.Errorf("encode product: %w", err)
	}

	opts := &azcosmos.ItemOptions{EnableContentResponseOnWrite: true}
	resp, err := fn(c, ctx, azcosmos.NewPartitionKeyString(product.Category), item, opts)
	if err != nil {
		return domain.Product{}, translateCosmosErr(err)
	}

	obs.Logger.Info().Str("op", op).Str("id", product.ID).Str("name", product.Name).
		Float32("request_charge", resp.RequestCharge).Msg("cosmos: wrote product")

	if len(resp.Value) == 0 {
		return product, nil
	}
	return decodeItem(resp.Value)
}

func (a *CosmosAdapter) Delete(ctx context.Context, id, category string) error {
	c, err := a.container.get(ctx)
	if err != nil {
		return err
	}

	resp, err := c.DeleteItem(ctx, azcosmos.NewPartitionKeyString(category), id, nil)
	if err != nil {
		return translateCosmosErr(err)
	}
	obs.Logger.Info().Str("id", id).Float32("request_charge", resp.RequestCharge).Msg("cosmos: deleted product")
	return nil
}

func (a *CosmosAdapter) Ping(ctx context.Context) error {
	c, err := a.container.get(ctx)
	if err != nil {
		return err
	}
	if _, err := c.Read(ctx, nil); err != nil {
		return translateCosmosErr(err)
	}
	return nil
}

func decodeItem(raw []byte) (domain.Product, error) {
	var p domain.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Product{}, fmt.Errorf("decode product: %w", err)
	}
	return p, nil
}

func translateCosmosErr(err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case http.StatusNotFound:
			return domain.ErrNotFound
		case http.StatusConflict:
			return ErrConflict
		}
	}
	return err
}
