package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"

	"github.com/utafrali/storefront-search/internal/domain"
)

// ErrCircuitOpen is returned while the breaker rejects catalog calls.
var ErrCircuitOpen = gobreaker.ErrOpenState

var breakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "catalog_circuit_breaker_state",
		Help: "Current state of the catalog circuit breaker (0=closed, 1=half-open, 2=open)",
	},
	[]string{"name"},
)

// BreakerConfig holds configuration for the catalog circuit breaker.
type BreakerConfig struct {
	Name string

	// MaxRequests is the number of probe requests allowed while half-open.
	MaxRequests uint32

	// Interval clears the failure counts while closed. Zero never clears.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration

	// FailureRatio trips the breaker once at least MinRequests were seen.
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerConfig returns sensible defaults for a catalog breaker.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

type page struct {
	products []domain.Product
	total    int
}

// Breaker wraps a Catalog with circuit breaker protection. It never retries;
// an open circuit fails the call immediately.
type Breaker struct {
	next    Catalog
	breaker *gobreaker.CircuitBreaker[page]
}

// NewBreaker wraps next with a circuit breaker.
func NewBreaker(next Catalog, cfg BreakerConfig, logger *slog.Logger) *Breaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			// Callers giving up is not a catalog failure.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("catalog circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateValue(to))
		},
	}

	breakerState.WithLabelValues(cfg.Name).Set(0)

	return &Breaker{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[page](settings),
	}
}

// QueryProducts runs the query through the circuit breaker.
func (b *Breaker) QueryProducts(ctx context.Context, filter Filter, sort Sort, limit, offset int) ([]domain.Product, int, error) {
	res, err := b.breaker.Execute(func() (page, error) {
		products, total, err := b.next.QueryProducts(ctx, filter, sort, limit, offset)
		return page{products: products, total: total}, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("catalog query: %w", err)
	}
	return res.products, res.total, nil
}

// CountProducts runs the count through the circuit breaker.
func (b *Breaker) CountProducts(ctx context.Context, filter Filter) (int, error) {
	res, err := b.breaker.Execute(func() (page, error) {
		total, err := b.next.CountProducts(ctx, filter)
		return page{total: total}, err
	})
	if err != nil {
		return 0, fmt.Errorf("catalog count: %w", err)
	}
	return res.total, nil
}

// State returns the current breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.breaker.State()
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
