package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/utafrali/storefront-search/internal/catalog"
	"github.com/utafrali/storefront-search/internal/domain"
)

// Catalog is an Elasticsearch-backed implementation of catalog.Catalog.
type Catalog struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger
}

// esSearchResponse is the structure used to decode search responses.
type esSearchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source domain.Product `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// esCountResponse is the structure used to decode count responses.
type esCountResponse struct {
	Count int `json:"count"`
}

// esBulkResponse is the structure used to decode bulk responses.
type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID    string `json:"_id"`
			Error struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

// esErrorResponse is used to decode error responses.
type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// New creates a new Elasticsearch catalog connected to the given URL.
// It ensures the index exists, creating it if necessary.
// If indexName is empty, DefaultIndexName is used.
func New(esURL, indexName string, logger *slog.Logger) (*Catalog, error) {
	if indexName == "" {
		indexName = DefaultIndexName
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}

	c := &Catalog{
		client:    client,
		indexName: indexName,
		logger:    logger,
	}

	if err := c.ensureIndex(); err != nil {
		return nil, fmt.Errorf("elasticsearch: ensure index: %w", err)
	}

	return c, nil
}

// Ping checks whether the Elasticsearch cluster is reachable.
func (c *Catalog) Ping(ctx context.Context) error {
	res, err := c.client.Ping(c.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// ensureIndex creates the catalog index when it does not exist yet.
func (c *Catalog) ensureIndex() error {
	res, err := c.client.Indices.Exists([]string{c.indexName})
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == 200 {
		c.logger.Info("elasticsearch index already exists", slog.String("index", c.indexName))
		return nil
	}

	res, err = c.client.Indices.Create(
		c.indexName,
		c.client.Indices.Create.WithBody(strings.NewReader(buildIndexMapping())),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if err := responseError(res); err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	c.logger.Info("elasticsearch index created", slog.String("index", c.indexName))
	return nil
}

// QueryProducts executes the filtered, sorted and paginated search.
func (c *Catalog) QueryProducts(ctx context.Context, filter catalog.Filter, sort catalog.Sort, limit, offset int) ([]domain.Product, int, error) {
	data, err := json.Marshal(buildSearchBody(&filter, sort, limit, offset))
	if err != nil {
		return nil, 0, fmt.Errorf("elasticsearch search: marshal query: %w", err)
	}

	res, err := c.client.Search(
		c.client.Search.WithIndex(c.indexName),
		c.client.Search.WithBody(bytes.NewReader(data)),
		c.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if err := responseError(res); err != nil {
		return nil, 0, fmt.Errorf("elasticsearch search: %w", err)
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, 0, fmt.Errorf("elasticsearch search: decode response: %w", err)
	}

	products := make([]domain.Product, 0, len(esResp.Hits.Hits))
	for _, hit := range esResp.Hits.Hits {
		products = append(products, hit.Source)
	}

	return products, esResp.Hits.Total.Value, nil
}

// CountProducts returns the number of documents matching filter.
func (c *Catalog) CountProducts(ctx context.Context, filter catalog.Filter) (int, error) {
	data, err := json.Marshal(map[string]any{"query": buildQuery(&filter)})
	if err != nil {
		return 0, fmt.Errorf("elasticsearch count: marshal query: %w", err)
	}

	res, err := c.client.Count(
		c.client.Count.WithIndex(c.indexName),
		c.client.Count.WithBody(bytes.NewReader(data)),
		c.client.Count.WithContext(ctx),
	)
	if err != nil {
		return 0, fmt.Errorf("elasticsearch count: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if err := responseError(res); err != nil {
		return 0, fmt.Errorf("elasticsearch count: %w", err)
	}

	var countResp esCountResponse
	if err := json.NewDecoder(res.Body).Decode(&countResp); err != nil {
		return 0, fmt.Errorf("elasticsearch count: decode response: %w", err)
	}
	return countResp.Count, nil
}

// BulkIndex adds or updates products using the bulk NDJSON API.
func (c *Catalog) BulkIndex(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range products {
		action := map[string]any{
			"index": map[string]any{"_index": c.indexName, "_id": products[i].ID},
		}
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode action: %w", err)
		}
		if err := enc.Encode(products[i]); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode document: %w", err)
		}
	}

	res, err := c.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		c.client.Bulk.WithIndex(c.indexName),
		c.client.Bulk.WithRefresh("true"),
		c.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch bulk index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if err := responseError(res); err != nil {
		return fmt.Errorf("elasticsearch bulk index: %w", err)
	}

	var bulkResp esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return fmt.Errorf("elasticsearch bulk index: decode response: %w", err)
	}
	if bulkResp.Errors {
		var msgs []string
		for _, item := range bulkResp.Items {
			if item.Index.Error.Type != "" {
				msgs = append(msgs, fmt.Sprintf("id=%s: %s: %s", item.Index.ID, item.Index.Error.Type, item.Index.Error.Reason))
			}
		}
		return fmt.Errorf("elasticsearch bulk index: partial errors: %s", strings.Join(msgs, "; "))
	}

	c.logger.InfoContext(ctx, "bulk indexed products", slog.Int("count", len(products)))
	return nil
}

// DeleteIndex removes the whole index. Intended for tests and administrative
// operations; a missing index is not an error.
func (c *Catalog) DeleteIndex(ctx context.Context) error {
	res, err := c.client.Indices.Delete(
		[]string{c.indexName},
		c.client.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == 404 {
		return nil
	}
	if err := responseError(res); err != nil {
		return fmt.Errorf("elasticsearch delete index: %w", err)
	}
	return nil
}

// responseError converts an error response into a Go error.
func responseError(res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}
	body, _ := io.ReadAll(res.Body)
	var errResp esErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Type != "" {
		return fmt.Errorf("%s: %s", errResp.Error.Type, errResp.Error.Reason)
	}
	return fmt.Errorf("unexpected status %s", res.Status())
}
