package productsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/utafrali/storefront-search/internal/domain"
	"github.com/utafrali/storefront-search/pkg/httpclient"
	"github.com/utafrali/storefront-search/pkg/pagination"
)

const serviceName = "product-service"

// Getter performs GET requests against the product service.
type Getter interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Indexer receives the loaded products.
type Indexer interface {
	BulkIndex(ctx context.Context, products []domain.Product) error
}

// Loader pages through the product service's catalog listing.
type Loader struct {
	client  Getter
	baseURL string
	perPage int
	logger  *slog.Logger
}

// NewLoader creates a Loader for the product service at baseURL.
func NewLoader(client Getter, baseURL string, perPage int, logger *slog.Logger) *Loader {
	if perPage <= 0 {
		perPage = 100
	}
	return &Loader{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		perPage: perPage,
		logger:  logger,
	}
}

// Load fetches every page and hands each to idx. It returns the number of
// products indexed.
func (l *Loader) Load(ctx context.Context, idx Indexer) (int, error) {
	loaded := 0
	for page := 1; ; page++ {
		res, err := l.fetchPage(ctx, page)
		if err != nil {
			return loaded, err
		}
		if len(res.Data) > 0 {
			if err := idx.BulkIndex(ctx, res.Data); err != nil {
				return loaded, fmt.Errorf("index page %d: %w", page, err)
			}
			loaded += len(res.Data)
		}

		l.logger.DebugContext(ctx, "catalog page loaded",
			slog.Int("page", page),
			slog.Int("count", len(res.Data)),
			slog.Int("total", res.TotalCount),
		)

		if !res.HasNext || len(res.Data) == 0 {
			break
		}
	}

	l.logger.InfoContext(ctx, "catalog loaded from product service", slog.Int("products", loaded))
	return loaded, nil
}

func (l *Loader) fetchPage(ctx context.Context, page int) (*pagination.Result[domain.Product], error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(l.perPage))

	resp, err := l.client.Get(ctx, l.baseURL+"/api/v1/products?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch products page %d: %w", page, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, serviceName)
	}
	defer func() { _ = resp.Body.Close() }()

	var res pagination.Result[domain.Product]
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode products page %d: %w", page, err)
	}
	return &res, nil
}
