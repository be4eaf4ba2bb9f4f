// Package httpapi dispatches API Gateway HTTP API requests to the event,
// attendee, participant and storage handlers.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jacentio/symphony/blob"
	"github.com/jacentio/symphony/store"
)

// Handler holds the request handlers' shared dependencies. One instance
// is built per process and dispatched by route key.
type Handler struct {
	store      *store.Store
	blob       *blob.Client
	cdnDomain  string
	validate   *validator.Validate
	quizSchema *jsonschema.Schema
	logger     *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New creates a request handler. A nil logger falls back to slog.Default.
func New(s *store.Store, b *blob.Client, cdnDomain string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	v := validator.New()
	// Validation errors report the wire field name, not the Go one.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{
		store:      s,
		blob:       b,
		cdnDomain:  cdnDomain,
		validate:   v,
		quizSchema: compileQuizSchema(),
		logger:     logger,
		now:        time.Now,
	}
}

// Route dispatches one API Gateway HTTP API request by its route key.
// This function is designed to be used as an AWS Lambda handler.
func (h *Handler) Route(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	h.logger.Info("handling request", "routeKey", req.RouteKey)

	switch req.RouteKey {
	case "POST /events/{eventType}":
		return h.createEvent(ctx, req), nil
	case "GET /events":
		return h.listEvents(ctx, req), nil
	case "GET /events/{eventType}/{eventSlug}":
		return h.getEvent(ctx, req), nil
	case "PUT /events/{eventType}/{eventSlug}":
		return h.updateEvent(ctx, req), nil
	case "DELETE /events/{eventType}/{eventSlug}":
		return h.deleteEvent(ctx, req), nil

	case "GET /events/{eventSlug}/attendees":
		return h.listAttendees(ctx, req), nil
	case "POST /events/{eventSlug}/attendees":
		return h.manualRegister(ctx, req), nil
	case "POST /events/{eventSlug}/attendees/register":
		return h.selfRegister(ctx, req), nil
	case "PUT /events/{eventSlug}/attendees/{attendeeId}":
		return h.updateAttendee(ctx, req), nil
	case "PATCH /events/{eventSlug}/attendees/{attendeeId}/verify":
		return h.verifyAttendee(ctx, req), nil
	case "DELETE /events/{eventSlug}/attendees/{attendeeId}":
		return h.deleteAttendee(ctx, req), nil

	case "POST /participants":
		return h.registerParticipant(ctx, req), nil
	case "GET /events/{eventSlug}/participants":
		return h.listParticipants(ctx, req), nil

	case "POST /quiz/{eventSlug}":
		return h.uploadQuiz(ctx, req), nil
	case "GET /quiz/{eventSlug}":
		return h.getQuiz(ctx, req), nil
	case "POST /files":
		return h.uploadFile(ctx, req), nil
	case "GET /files":
		return h.listFiles(ctx, req), nil
	}

	return errorResponse(404, "Route not found"), nil
}

// internalError logs the full error and returns an opaque 500 response.
func (h *Handler) internalError(op string, err error) events.APIGatewayV2HTTPResponse {
	h.logger.Error("request failed", "op", op, "error", err)
	return errorResponse(500, "Internal server error")
}

var responseHeaders = map[string]string{
	"Content-Type":                "application/json",
	"Access-Control-Allow-Origin": "*",
}

func jsonResponse(statusCode int, body any) events.APIGatewayV2HTTPResponse {
	payload, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{
			StatusCode: 500,
			Headers:    responseHeaders,
			Body:       `{"status":"Error","message":"Internal server error"}`,
		}
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: statusCode,
		Headers:    responseHeaders,
		Body:       string(payload),
	}
}

type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func errorResponse(statusCode int, message string) events.APIGatewayV2HTTPResponse {
	return jsonResponse(statusCode, errorBody{Status: "Error", Message: message})
}

// legacyErrorResponse matches the {"error": ...} shape the event read
// endpoints have always used; their consumers depend on it.
func legacyErrorResponse(statusCode int, message string) events.APIGatewayV2HTTPResponse {
	return jsonResponse(statusCode, map[string]string{"error": message})
}

// validationMessage maps the first failed DTO check to its client-facing
// message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Tag() == "email" {
			return "Invalid email format"
		}
		return "Missing required field: " + fe.Field()
	}
	return "Invalid input"
}

// fieldMessage turns a store allow-list rejection into a client-facing
// message naming the offending field.
func fieldMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return "Field not updatable: " + msg[i+2:]
	}
	return "Field not updatable"
}
