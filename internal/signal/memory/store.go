package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/utafrali/storefront-search/internal/domain"
	"github.com/utafrali/storefront-search/internal/signal"
)

type popularity struct {
	count int64
	seq   int
}

// Store is an in-process signal.Store. Histories are FIFO-bounded and
// interaction records are evicted least-recently-used once maxInteractions
// is reached.
type Store struct {
	mu           sync.Mutex
	historyLimit int
	history      map[string][]string
	popular      map[string]*popularity
	interactions *lru.Cache[string, *domain.Interaction]
}

var _ signal.Store = (*Store)(nil)

// New creates a Store. Non-positive limits fall back to the signal defaults.
func New(historyLimit, maxInteractions int) (*Store, error) {
	if historyLimit <= 0 {
		historyLimit = signal.DefaultHistoryLimit
	}
	if maxInteractions <= 0 {
		maxInteractions = signal.DefaultMaxInteractions
	}
	cache, err := lru.New[string, *domain.Interaction](maxInteractions)
	if err != nil {
		return nil, fmt.Errorf("create interaction cache: %w", err)
	}
	return &Store{
		historyLimit: historyLimit,
		history:      make(map[string][]string),
		popular:      make(map[string]*popularity),
		interactions: cache,
	}, nil
}

// TrackSearch implements signal.Store.
func (s *Store) TrackSearch(ctx context.Context, query, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	normalized := signal.NormalizeQuery(query)
	if normalized == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.popular[normalized]
	if !ok {
		p = &popularity{seq: len(s.popular)}
		s.popular[normalized] = p
	}
	p.count++

	if userID != "" {
		h := append(s.history[userID], strings.TrimSpace(query))
		if len(h) > s.historyLimit {
			h = append([]string(nil), h[len(h)-s.historyLimit:]...)
		}
		s.history[userID] = h
	}
	return nil
}

// TrackInteraction implements signal.Store.
func (s *Store) TrackInteraction(ctx context.Context, userID, productID string, kind domain.InteractionType) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if userID == "" || productID == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(userID, productID)
	rec, ok := s.interactions.Get(k)
	if !ok {
		rec = &domain.Interaction{}
		s.interactions.Add(k, rec)
	}
	signal.Apply(rec, kind)
	return nil
}

// Trending implements signal.Store. Equal counts keep first-tracked order.
func (s *Store) Trending(ctx context.Context, limit int) ([]domain.TrendingQuery, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []domain.TrendingQuery{}, nil
	}

	s.mu.Lock()
	type entry struct {
		query string
		popularity
	}
	entries := make([]entry, 0, len(s.popular))
	for q, p := range s.popular {
		entries = append(entries, entry{query: q, popularity: *p})
	}
	s.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].seq < entries[j].seq
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]domain.TrendingQuery, len(entries))
	for i, e := range entries {
		out[i] = domain.TrendingQuery{Query: e.query, Count: e.count}
	}
	return out, nil
}

// History implements signal.Store.
func (s *Store) History(ctx context.Context, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.history[userID]...), nil
}

// Interactions implements signal.Store.
func (s *Store) Interactions(ctx context.Context, userID string, productIDs []string) (map[string]domain.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string]domain.Interaction)
	if userID == "" {
		return out, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range productIDs {
		if rec, ok := s.interactions.Peek(key(userID, id)); ok {
			out[id] = *rec
		}
	}
	return out, nil
}

// InteractionCount returns the number of retained interaction records.
func (s *Store) InteractionCount() int {
	return s.interactions.Len()
}

func key(userID, productID string) string {
	return userID + "\x00" + productID
}
