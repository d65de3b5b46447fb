package productsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront-search/internal/catalog/memory"
	"github.com/utafrali/storefront-search/internal/domain"
	apperrors "github.com/utafrali/storefront-search/pkg/errors"
	"github.com/utafrali/storefront-search/pkg/httpclient"
	"github.com/utafrali/storefront-search/pkg/logger"
	"github.com/utafrali/storefront-search/pkg/pagination"
)

func newClient() *httpclient.Client {
	return httpclient.New(httpclient.Config{
		Timeout:         5 * time.Second,
		MaxRetries:      0,
		MaxConnsPerHost: 2,
	})
}

func catalogServer(t *testing.T, total int) *httptest.Server {
	t.Helper()
	products := make([]domain.Product, total)
	for i := range products {
		products[i] = domain.Product{ID: fmt.Sprintf("p-%d", i+1), Name: fmt.Sprintf("Product %d", i+1), IsActive: true}
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/products", r.URL.Path)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
		params := pagination.Clamp(page, perPage, 100)

		end := min(params.Offset+params.PerPage, total)
		var data []domain.Product
		if params.Offset < total {
			data = products[params.Offset:end]
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(pagination.NewResult(data, total, params))
	}))
}

func TestLoader_LoadsAllPages(t *testing.T) {
	server := catalogServer(t, 25)
	defer server.Close()

	store := memory.New()
	loaded, err := NewLoader(newClient(), server.URL+"/", 10, logger.Discard()).Load(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 25, loaded)

	assert.Equal(t, 25, store.Len())
}

func TestLoader_EmptyCatalog(t *testing.T) {
	server := catalogServer(t, 0)
	defer server.Close()

	loaded, err := NewLoader(newClient(), server.URL, 10, logger.Discard()).Load(context.Background(), memory.New())
	require.NoError(t, err)
	assert.Zero(t, loaded)
}

func TestLoader_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"code":"DB_DOWN","message":"database unavailable"}}`))
	}))
	defer server.Close()

	_, err := NewLoader(newClient(), server.URL, 10, logger.Discard()).Load(context.Background(), memory.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
	assert.Contains(t, err.Error(), "database unavailable")
}

type failingIndexer struct{}

func (failingIndexer) BulkIndex(context.Context, []domain.Product) error {
	return fmt.Errorf("index closed")
}

func TestLoader_IndexError(t *testing.T) {
	server := catalogServer(t, 5)
	defer server.Close()

	loaded, err := NewLoader(newClient(), server.URL, 10, logger.Discard()).Load(context.Background(), failingIndexer{})
	require.Error(t, err)
	assert.Zero(t, loaded)
	assert.Contains(t, err.Error(), "index page 1")
}
