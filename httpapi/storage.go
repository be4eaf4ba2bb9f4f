package httpapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"

	"github.com/aws/aws-lambda-go/events"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jacentio/symphony/blob"
)

//go:embed quiz_schema.json
var quizSchemaJSON string

func compileQuizSchema() *jsonschema.Schema {
	return jsonschema.MustCompileString("quiz_schema.json", quizSchemaJSON)
}

func (h *Handler) uploadQuiz(ctx context.Context, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	eventSlug := req.PathParameters["eventSlug"]
	if eventSlug == "" {
		return errorResponse(400, "Missing eventSlug path parameter")
	}
	if req.Body == "" {
		return errorResponse(400, "Request body is required")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(req.Body), &payload); err != nil {
		return errorResponse(400, "Invalid JSON format")
	}
	if payload["quiz"] == nil {
		return errorResponse(400, "Quiz object is required")
	}
	if err := h.quizSchema.Validate(payload); err != nil {
		h.logger.Warn("quiz rejected by schema", "eventSlug", eventSlug, "error", err)
		return errorResponse(400, "Quiz does not match the expected schema")
	}

	doc, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return h.internalError("upload quiz", err)
	}

	key, err := h.blob.PutQuiz(ctx, eventSlug, doc)
	if err != nil {
		return h.internalError("upload quiz", err)
	}

	return jsonResponse(200, map[string]string{
		"status":    "OK",
		"message":   "Quiz uploaded successfully",
		"key":       key,
		"eventSlug": eventSlug,
	})
}

func (h *Handler) getQuiz(ctx context.Context, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	eventSlug := req.PathParameters["eventSlug"]
	if eventSlug == "" {
		return errorResponse(400, "Missing eventSlug path parameter")
	}

	doc, err := h.blob.GetQuiz(ctx, eventSlug)
	if errors.Is(err, blob.ErrNotFound) {
		return errorResponse(404, "Quiz not found")
	}
	if err != nil {
		return h.internalError("get quiz", err)
	}

	// The stored document is already JSON; pass it through untouched.
	return events.APIGatewayV2HTTPResponse{
		StatusCode: 200,
		Headers:    responseHeaders,
		Body:       string(doc),
	}
}

func (h *Handler) uploadFile(ctx context.Context, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	_, file, err := parseForm(req, "")
	if errors.Is(err, errNotMultipart) {
		return errorResponse(400, "Invalid input")
	}
	if err != nil {
		return errorResponse(400, "Failed to parse form data")
	}
	if file == nil {
		return errorResponse(400, "No file found")
	}

	key, err := h.blob.PutFile(ctx, file.filename, file.data)
	if err != nil {
		return h.internalError("upload file", err)
	}

	return jsonResponse(200, map[string]string{
		"status": "OK",
		"url":    "https://" + h.cdnDomain + "/" + key,
	})
}

func (h *Handler) listFiles(ctx context.Context, _ events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	objects, err := h.blob.List(ctx, "")
	if err != nil {
		return h.internalError("list files", err)
	}

	return jsonResponse(200, map[string]any{
		"status":   "OK",
		"contents": objects,
	})
}
