package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jacentio/symphony/blob"
	"github.com/jacentio/symphony/store"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeDynamo struct {
	getItem    func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	putItem    func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	deleteItem func(*dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error)
	query      func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error)
	updateItem func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.getItem != nil {
		return f.getItem(in)
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.putItem != nil {
		return f.putItem(in)
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if f.deleteItem != nil {
		return f.deleteItem(in)
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if f.query != nil {
		return f.query(in)
	}
	return &dynamodb.QueryOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	if f.updateItem != nil {
		return f.updateItem(in)
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

var _ store.DynamoAPI = (*fakeDynamo)(nil)

type fakeS3 struct {
	putObject     func(*s3.PutObjectInput) (*s3.PutObjectOutput, error)
	getObject     func(*s3.GetObjectInput) (*s3.GetObjectOutput, error)
	listObjectsV2 func(*s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error)
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putObject != nil {
		return f.putObject(in)
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getObject != nil {
		return f.getObject(in)
	}
	return &s3.GetObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.listObjectsV2 != nil {
		return f.listObjectsV2(in)
	}
	return &s3.ListObjectsV2Output{}, nil
}

var _ blob.S3API = (*fakeS3)(nil)

func newTestHandler(d *fakeDynamo, s *fakeS3) *Handler {
	if d == nil {
		d = &fakeDynamo{}
	}
	if s == nil {
		s = &fakeS3{}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(store.New(d, store.DefaultConfig()), blob.New(s, "assets"), "cdn.example.com", logger)
	h.now = func() time.Time { return fixedNow }
	return h
}

func request(routeKey string, pathParams map[string]string, body string) events.APIGatewayV2HTTPRequest {
	return events.APIGatewayV2HTTPRequest{
		RouteKey:       routeKey,
		PathParameters: pathParams,
		Body:           body,
	}
}

func decodeBody(t *testing.T, resp events.APIGatewayV2HTTPResponse) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("response body is not JSON: %v\n%s", err, resp.Body)
	}
	return body
}

func stringAttr(v types.AttributeValue) string {
	if s, ok := v.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

// --- Routing Tests ---

func TestRoute_UnknownRouteKey(t *testing.T) {
	h := newTestHandler(nil, nil)

	resp, err := h.Route(context.Background(), request("GET /nope", nil, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestRoute_ResponseHeaders(t *testing.T) {
	h := newTestHandler(nil, nil)

	resp, _ := h.Route(context.Background(), request("GET /files", nil, ""))
	if resp.Headers["Content-Type"] != "application/json" {
		t.Errorf("missing JSON content type: %v", resp.Headers)
	}
	if resp.Headers["Access-Control-Allow-Origin"] != "*" {
		t.Errorf("missing CORS header: %v", resp.Headers)
	}
}

// --- Documented Behavior Tests ---

func TestRoute_CreateEventStoresDerivedKey(t *testing.T) {
	var stored map[string]types.AttributeValue
	d := &fakeDynamo{putItem: func(in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
		stored = in.Item
		return &dynamodb.PutItemOutput{}, nil
	}}
	h := newTestHandler(d, nil)

	resp, err := h.Route(context.Background(), request(
		"POST /events/{eventType}",
		map[string]string{"eventType": "FAD"},
		`{"slug":"summit","creationDate":"2024-01-01","title":"Summit"}`,
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, resp.Body)
	}

	if pk := stringAttr(stored["pk"]); pk != "FAD" {
		t.Errorf("expected pk FAD, got %q", pk)
	}
	if sk := stringAttr(stored["sk"]); sk != "summit#2024-01-01" {
		t.Errorf("expected sk summit#2024-01-01, got %q", sk)
	}
	if et := stringAttr(stored["eventType"]); et != "FAD" {
		t.Errorf("expected eventType FAD, got %q", et)
	}

	body := decodeBody(t, resp)
	if body["pk"] != "FAD" || body["sk"] != "summit#2024-01-01" {
		t.Errorf("response must echo the stored item, got %v", body)
	}
}

func TestRoute_VerifyMissingAttendee(t *testing.T) {
	h := newTestHandler(&fakeDynamo{}, nil) // GetItem returns no item

	resp, _ := h.Route(context.Background(), request(
		"PATCH /events/{eventSlug}/attendees/{attendeeId}/verify",
		map[string]string{"eventSlug": "summit", "attendeeId": "a@b.co"},
		"",
	))
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["message"] != "Attendee not found" {
		t.Errorf("expected 'Attendee not found', got %v", body["message"])
	}
}

func TestRoute_DeleteEventBogusType(t *testing.T) {
	h := newTestHandler(nil, nil)

	resp, _ := h.Route(context.Background(), request(
		"DELETE /events/{eventType}/{eventSlug}",
		map[string]string{"eventType": "bogus", "eventSlug": "summit"},
		"",
	))
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["message"] != "Invalid eventType parameter. Must be 'fad' or 'event'" {
		t.Errorf("unexpected message: %v", body["message"])
	}
}
