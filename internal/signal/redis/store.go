package redis

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront-search/internal/domain"
	"github.com/utafrali/storefront-search/internal/signal"
)

const (
	keyPrefix      = "search:"
	popularityKey  = keyPrefix + "popularity"
	firstSeenKey   = keyPrefix + "popularity:first_seen"
	sequenceKey    = keyPrefix + "popularity:seq"
	historyPrefix  = keyPrefix + "history:"
	interactPrefix = keyPrefix + "interactions:"

	fieldViews     = "views"
	fieldClicks    = "clicks"
	fieldAddToCart = "add_to_cart"
)

// trackSearchScript bumps a query's count, stamps its first-seen sequence
// once and appends to the user's capped history.
var trackSearchScript = redis.NewScript(`
redis.call('ZINCRBY', KEYS[1], 1, ARGV[1])
if not redis.call('ZSCORE', KEYS[2], ARGV[1]) then
  redis.call('ZADD', KEYS[2], redis.call('INCR', KEYS[3]), ARGV[1])
end
if ARGV[2] ~= '' then
  redis.call('RPUSH', KEYS[4], ARGV[2])
  redis.call('LTRIM', KEYS[4], -tonumber(ARGV[3]), -1)
end
return 1
`)

// Store implements signal.Store on Redis. Popularity is a sorted set with a
// companion set of first-seen sequence numbers, histories are capped lists
// and interaction records are hashes whose TTL slides on every write.
type Store struct {
	client         redis.Cmdable
	historyLimit   int
	interactionTTL time.Duration
}

var _ signal.Store = (*Store)(nil)

// New creates a Redis-backed signal store.
func New(client redis.Cmdable, historyLimit int, interactionTTL time.Duration) *Store {
	if historyLimit <= 0 {
		historyLimit = signal.DefaultHistoryLimit
	}
	return &Store{
		client:         client,
		historyLimit:   historyLimit,
		interactionTTL: interactionTTL,
	}
}

// TrackSearch implements signal.Store.
func (s *Store) TrackSearch(ctx context.Context, query, userID string) error {
	normalized := signal.NormalizeQuery(query)
	if normalized == "" {
		return nil
	}

	var entry string
	if userID != "" {
		entry = strings.TrimSpace(query)
	}
	keys := []string{popularityKey, firstSeenKey, sequenceKey, historyPrefix + userID}
	if err := trackSearchScript.Run(ctx, s.client, keys, normalized, entry, s.historyLimit).Err(); err != nil {
		return fmt.Errorf("redis track search: %w", err)
	}
	return nil
}

// TrackInteraction implements signal.Store.
func (s *Store) TrackInteraction(ctx context.Context, userID, productID string, kind domain.InteractionType) error {
	if userID == "" || productID == "" {
		return nil
	}
	field, err := interactionField(kind)
	if err != nil {
		return err
	}

	key := interactionKey(userID, productID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, field, 1)
		if s.interactionTTL > 0 {
			pipe.Expire(ctx, key, s.interactionTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis track interaction: %w", err)
	}
	return nil
}

// Trending implements signal.Store. Equal counts keep first-seen order.
func (s *Store) Trending(ctx context.Context, limit int) ([]domain.TrendingQuery, error) {
	if limit <= 0 {
		return []domain.TrendingQuery{}, nil
	}

	top, err := s.client.ZRevRangeWithScores(ctx, popularityKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis trending: %w", err)
	}
	if len(top) == 0 {
		return []domain.TrendingQuery{}, nil
	}

	// Everything tied with the last entry competes for the final slots.
	floor := strconv.FormatFloat(top[len(top)-1].Score, 'f', -1, 64)
	members, err := s.client.ZRevRangeByScoreWithScores(ctx, popularityKey, &redis.ZRangeBy{Min: floor, Max: "+inf"}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis trending: %w", err)
	}

	seqs := make([]*redis.FloatCmd, len(members))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, m := range members {
			seqs[i] = pipe.ZScore(ctx, firstSeenKey, fmt.Sprint(m.Member))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis trending: first seen: %w", err)
	}

	type ranked struct {
		query string
		count int64
		seq   float64
	}
	items := make([]ranked, 0, len(members))
	for i, m := range members {
		q, ok := m.Member.(string)
		if !ok {
			continue
		}
		seq, err := seqs[i].Result()
		if err != nil {
			seq = math.MaxFloat64
		}
		items = append(items, ranked{query: q, count: int64(m.Score), seq: seq})
	}
	slices.SortFunc(items, func(a, b ranked) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		if c := cmp.Compare(a.seq, b.seq); c != 0 {
			return c
		}
		return strings.Compare(a.query, b.query)
	})

	if len(items) > limit {
		items = items[:limit]
	}
	out := make([]domain.TrendingQuery, len(items))
	for i, it := range items {
		out[i] = domain.TrendingQuery{Query: it.query, Count: it.count}
	}
	return out, nil
}

// History implements signal.Store.
func (s *Store) History(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return []string{}, nil
	}
	h, err := s.client.LRange(ctx, historyPrefix+userID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis history: %w", err)
	}
	return h, nil
}

// Interactions implements signal.Store.
func (s *Store) Interactions(ctx context.Context, userID string, productIDs []string) (map[string]domain.Interaction, error) {
	out := make(map[string]domain.Interaction)
	if userID == "" || len(productIDs) == 0 {
		return out, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(productIDs))
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range productIDs {
			cmds[i] = pipe.HGetAll(ctx, interactionKey(userID, id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis interactions: %w", err)
	}

	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		out[productIDs[i]] = domain.Interaction{
			Views:     parseCount(fields[fieldViews]),
			Clicks:    parseCount(fields[fieldClicks]),
			AddToCart: parseCount(fields[fieldAddToCart]),
		}
	}
	return out, nil
}

// Ping checks connectivity for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func interactionKey(userID, productID string) string {
	return interactPrefix + userID + ":" + productID
}

func interactionField(kind domain.InteractionType) (string, error) {
	switch kind {
	case domain.InteractionView:
		return fieldViews, nil
	case domain.InteractionClick:
		return fieldClicks, nil
	case domain.InteractionCart:
		return fieldAddToCart, nil
	default:
		return "", fmt.Errorf("unknown interaction type %q", kind)
	}
}

func parseCount(v string) int64 {
	n, _ := strconv.ParseInt(v, 10, 64)
	return n
}
