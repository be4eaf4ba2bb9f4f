package httpapi

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/symphony/store"
)

const invalidEventTypeMsg = "Invalid eventType parameter. Must be 'fad' or 'event'"

func (h *Handler) createEvent(ctx context.Context, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	var event store.Event
	if err := json.Unmarshal([]byte(req.Body), &event); err != nil {
		return errorResponse(400, "Invalid JSON")
	}

	eventType := req.PathParameters["eventType"]
	if eventType == "" {
		return errorResponse(400, "Missing eventType path parameter")
	}
	partition := store.NormalizeEventType(eventType)
	if partition == "" {
		return errorResponse(400, invalidEventTypeMsg)
	}

	if err := h.validate.Struct(&event); err != nil {
		return errorResponse(400, validationMessage(err))
	}

	event.SetKey(partition)
	if err := h.store.PutEvent(ctx, &event); err != nil {
		return h.internalError("create event", err)
	}
	return jsonResponse(200, event)
}

func (h *Handler) listEvents(ctx context.Context, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	eventType := req.QueryStringParameters["type"]
	if eventType == "" {
		return legacyErrorResponse(400, "Missing required query parameter: type (should be 'fad' or 'event')")
	}
	partition := store.NormalizeEventType(eventType)
	if partition == "" {
		return legacyErrorResponse(400, "Invalid type parameter. Must be 'fad' or 'event'")
	}

	items, err := h.store.ListEventsByType(ctx, partition)
	if err != nil {
		h.logger.Error("request failed", "op", "list events", "error", err)
		return legacyErrorResponse(500, "Internal server error")
	}
	return jsonResponse(200, items)
}

func (h *Handler) getEvent(ctx context.Context, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	eventType := req.PathParameters["eventType"]
	eventSlug := req.PathParameters["eventSlug"]
	if eventType == "" || eventSlug == "" {
		return legacyErrorResponse(400, "Missing eventType or eventSlug path parameters")
	}
	partition := store.NormalizeEventType(eventType)
	if partition == "" {
		return legacyErrorResponse(400, invalidEventTypeMsg)
	}

	items, err := h.store.QueryEventRecords(ctx, partition, eventSlug)
	if err != nil {
		h.logger.Error("request failed", "op", "get event", "error", err)
		return legacyErrorResponse(500, "Internal server error")
	}
	return jsonResponse(200, items)
}

func (h *Handler) updateEvent(ctx context.Context, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	eventType := req.PathParameters["eventType"]
	if eventType == "" {
		return errorResponse(400, "Missing eventType path parameter")
	}
	eventSlug := req.PathParameters["eventSlug"]
	if eventSlug == "" {
		return errorResponse(400, "Missing eventSlug path parameter")
	}

	var changes map[string]any
	if err := json.Unmarshal([]byte(req.Body), &changes); err != nil {
		return errorResponse(400, "Invalid JSON format")
	}
	if len(changes) == 0 {
		return errorResponse(400, "No valid fields to update")
	}

	partition := store.NormalizeEventType(eventType)
	if partition == "" {
		return errorResponse(400, invalidEventTypeMsg)
	}

	// The sort key is composite, so the exact record is resolved first.
	key, err := h.store.FindEventKey(ctx, partition, eventSlug)
	if errors.Is(err, store.ErrNotFound) {
		return errorResponse(404, "Event not found")
	}
	if err != nil {
		return h.internalError("update event", err)
	}

	updated, err := h.store.UpdateEvent(ctx, key, changes, callerUsername(req))
	switch {
	case errors.Is(err, store.ErrFieldNotAllowed):
		return errorResponse(400, fieldMessage(err))
	case errors.Is(err, store.ErrNoFields):
		return errorResponse(400, "No valid fields to update")
	case err != nil:
		return h.internalError("update event", err)
	}

	return jsonResponse(200, map[string]any{
		"status":       "OK",
		"message":      "Event updated successfully",
		"updatedEvent": updated,
	})
}

func (h *Handler) deleteEvent(ctx context.Context, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	eventType := req.PathParameters["eventType"]
	if eventType == "" {
		return errorResponse(400, "Missing eventType path parameter")
	}
	eventSlug := req.PathParameters["eventSlug"]
	if eventSlug == "" {
		return errorResponse(400, "Missing eventSlug path parameter")
	}
	partition := store.NormalizeEventType(eventType)
	if partition == "" {
		return errorResponse(400, invalidEventTypeMsg)
	}

	key, err := h.store.FindEventKey(ctx, partition, eventSlug)
	if errors.Is(err, store.ErrNotFound) {
		return errorResponse(404, "Event not found")
	}
	if err != nil {
		return h.internalError("delete event", err)
	}

	// Attendee and participant records are left in place.
	if err := h.store.DeleteEvent(ctx, key); err != nil {
		return h.internalError("delete event", err)
	}
	return jsonResponse(200, map[string]string{"status": "OK"})
}
