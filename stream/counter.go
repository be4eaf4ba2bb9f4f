// Package stream consumes the event table's DynamoDB stream to maintain
// the denormalized attendeeCount aggregate on event records.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/symphony/store"
)

// Counter applies compensating attendeeCount updates for attendee record
// mutations observed on the stream.
type Counter struct {
	store  *store.Store
	logger *slog.Logger
}

// NewCounter creates a new stream counter.
func NewCounter(s *store.Store, logger *slog.Logger) *Counter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Counter{
		store:  s,
		logger: logger,
	}
}

// HandleStream processes one stream batch in record order. This function
// is designed to be used as an AWS Lambda handler.
//
// Any unexpected store error aborts the batch so the event source mapping
// retries it; delivery is at-least-once, so a retried batch re-applies
// increments it already applied. That double count is accepted rather
// than deduplicated.
func (c *Counter) HandleStream(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := c.processRecord(ctx, record); err != nil {
			c.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // batch retried by the event source mapping
		}
	}
	return nil
}

// processRecord classifies a single stream record and applies the
// matching counter action.
func (c *Counter) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	pk := recordPK(record)
	if !store.IsAttendeePK(pk) {
		return nil
	}

	slug := store.SlugFromEntityPK(pk)
	if slug == "" {
		c.logger.Warn("could not extract event slug from record", "pk", pk)
		return nil
	}

	switch record.EventName {
	case "INSERT":
		return c.increment(ctx, slug)
	case "REMOVE":
		return c.decrement(ctx, slug)
	case "MODIFY":
		// Attendee still exists; count unaffected.
		return nil
	default:
		c.logger.Warn("unhandled stream event type",
			"eventName", record.EventName,
			"eventSlug", slug,
		)
		return nil
	}
}

func (c *Counter) increment(ctx context.Context, slug string) error {
	key, err := c.resolveEvent(ctx, slug)
	if err != nil || key == nil {
		return err
	}

	if err := c.store.IncrementAttendeeCount(ctx, *key); err != nil {
		return fmt.Errorf("increment attendee count for %s: %w", slug, err)
	}
	c.logger.Info("incremented attendee count", "eventSlug", slug, "sk", key.SK)
	return nil
}

func (c *Counter) decrement(ctx context.Context, slug string) error {
	key, err := c.resolveEvent(ctx, slug)
	if err != nil || key == nil {
		return err
	}

	err = c.store.DecrementAttendeeCount(ctx, *key)
	if errors.Is(err, store.ErrCounterAtFloor) {
		c.logger.Info("attendee count already at minimum", "eventSlug", slug)
		if err := c.store.ResetAttendeeCount(ctx, *key); err != nil {
			// Corrective action only; the next REMOVE at the floor
			// retries the reset.
			c.logger.Error("failed to reset attendee count",
				"eventSlug", slug,
				"error", err,
			)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("decrement attendee count for %s: %w", slug, err)
	}
	c.logger.Info("decremented attendee count", "eventSlug", slug, "sk", key.SK)
	return nil
}

// resolveEvent locates the event record owning the slug. A missing event
// is benign: the counter update is dropped with a warning, never escalated.
func (c *Counter) resolveEvent(ctx context.Context, slug string) (*store.EventKey, error) {
	key, err := c.store.FindEventKeyBySlug(ctx, slug)
	if errors.Is(err, store.ErrNotFound) {
		c.logger.Warn("event record not found, counter update skipped", "eventSlug", slug)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve event for %s: %w", slug, err)
	}
	return &key, nil
}

// recordPK extracts the partition key from a stream record, preferring
// Keys and falling back to the images.
func recordPK(record events.DynamoDBEventRecord) string {
	for _, image := range []map[string]events.DynamoDBAttributeValue{
		record.Change.Keys,
		record.Change.NewImage,
		record.Change.OldImage,
	} {
		if pk := stringAttr(image, "pk"); pk != "" {
			return pk
		}
	}
	return ""
}

// stringAttr extracts a string attribute from a DynamoDB stream image.
func stringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}
