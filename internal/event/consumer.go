package event

import (
	"context"
	"errors"
	"log/slog"

	"github.com/utafrali/storefront-search/internal/domain"
	apperrors "github.com/utafrali/storefront-search/pkg/errors"
	pkgkafka "github.com/utafrali/storefront-search/pkg/kafka"
)

// Kafka topic constants for the behavior events consumed by the search service.
var (
	TopicProductViewed  = pkgkafka.Topic("product", "viewed")
	TopicProductClicked = pkgkafka.Topic("product", "clicked")
	TopicCartItemAdded  = pkgkafka.Topic("cart", "item_added")
)

// Topics returns every topic the consumer handles.
func Topics() []string {
	return []string{TopicProductViewed, TopicProductClicked, TopicCartItemAdded}
}

// InteractionData is the payload shared by the consumed events. Cart events
// carry more fields; only the identifiers are read.
type InteractionData struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
}

// InteractionRecorder records a single user interaction.
type InteractionRecorder interface {
	RecordInteraction(ctx context.Context, userID, productID, kind string) error
}

// Consumer turns behavior events into interaction records.
type Consumer struct {
	recorder InteractionRecorder
	logger   *slog.Logger
}

// NewConsumer creates a new event consumer for the search service.
func NewConsumer(recorder InteractionRecorder, logger *slog.Logger) *Consumer {
	return &Consumer{
		recorder: recorder,
		logger:   logger,
	}
}

// Handle processes a Kafka event based on its type. Events that can never
// succeed are logged and acknowledged; store failures are returned so the
// consumer retries them.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	var kind domain.InteractionType
	switch event.EventType {
	case TopicProductViewed:
		kind = domain.InteractionView
	case TopicProductClicked:
		kind = domain.InteractionClick
	case TopicCartItemAdded:
		kind = domain.InteractionCart
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	var data InteractionData
	if err := event.UnmarshalData(&data); err != nil {
		c.logger.WarnContext(ctx, "dropping event with unreadable payload",
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()),
		)
		return nil
	}

	err := c.recorder.RecordInteraction(ctx, data.UserID, data.ProductID, string(kind))
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		c.logger.WarnContext(ctx, "dropping invalid interaction event",
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()),
		)
		return nil
	case err != nil:
		return err
	}

	c.logger.DebugContext(ctx, "recorded interaction from event",
		slog.String("event_type", event.EventType),
		slog.String("user_id", data.UserID),
		slog.String("product_id", data.ProductID),
	)
	return nil
}
