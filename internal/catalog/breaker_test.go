package catalog_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront-search/internal/catalog"
	"github.com/utafrali/storefront-search/internal/domain"
)

type stubCatalog struct {
	err   error
	calls int
}

func (s *stubCatalog) QueryProducts(_ context.Context, _ catalog.Filter, _ catalog.Sort, _, _ int) ([]domain.Product, int, error) {
	s.calls++
	if s.err != nil {
		return nil, 0, s.err
	}
	return []domain.Product{{ID: "p-1"}}, 1, nil
}

func (s *stubCatalog) CountProducts(_ context.Context, _ catalog.Filter) (int, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return 7, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBreakerConfig(name string) catalog.BreakerConfig {
	cfg := catalog.DefaultBreakerConfig(name)
	cfg.MinRequests = 2
	cfg.Timeout = time.Minute
	return cfg
}

func TestBreaker_PassesThrough(t *testing.T) {
	stub := &stubCatalog{}
	b := catalog.NewBreaker(stub, testBreakerConfig("pass"), testLogger())

	products, total, err := b.QueryProducts(context.Background(), catalog.Filter{}, nil, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, products, 1)

	n, err := b.CountProducts(context.Background(), catalog.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_OpensAfterFailures(t *testing.T) {
	upstream := errors.New("connection refused")
	stub := &stubCatalog{err: upstream}
	b := catalog.NewBreaker(stub, testBreakerConfig("trip"), testLogger())

	for i := 0; i < 2; i++ {
		_, _, err := b.QueryProducts(context.Background(), catalog.Filter{}, nil, 10, 0)
		assert.ErrorIs(t, err, upstream)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, _, err := b.QueryProducts(context.Background(), catalog.Filter{}, nil, 10, 0)
	assert.ErrorIs(t, err, catalog.ErrCircuitOpen)
	assert.Equal(t, 2, stub.calls)
}

func TestBreaker_CanceledIsNotFailure(t *testing.T) {
	stub := &stubCatalog{err: context.Canceled}
	b := catalog.NewBreaker(stub, testBreakerConfig("cancel"), testLogger())

	for i := 0; i < 5; i++ {
		_, err := b.CountProducts(context.Background(), catalog.Filter{})
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}
