package httpapi

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func eventItem(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk":    &types.AttributeValueMemberS{Value: pk},
		"sk":    &types.AttributeValueMemberS{Value: sk},
		"title": &types.AttributeValueMemberS{Value: "Summit"},
	}
}

// --- Create Tests ---

func TestCreateEvent_InvalidJSON(t *testing.T) {
	h := newTestHandler(nil, nil)

	resp := h.createEvent(context.Background(), request(
		"POST /events/{eventType}", map[string]string{"eventType": "fad"}, "{broken",
	))
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["message"] != "Invalid JSON" {
		t.Errorf("unexpected message: %v", body["message"])
	}
}

func TestCreateEvent_MissingSlug(t *testing.T) {
	h := newTestHandler(nil, nil)

	resp := h.createEvent(context.Background(), request(
		"POST /events/{eventType}",
		map[string]string{"eventType": "fad"},
		`{"title":"Summit","creationDate":"2024-01-01"}`,
	))
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["message"] != "Missing required field: slug" {
		t.Errorf("unexpected message: %v", body["message"])
	}
}

func TestCreateEvent_LowercaseTypeAccepted(t *testing.T) {
	var stored map[string]types.AttributeValue
	d := &fakeDynamo{putItem: func(in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
		stored = in.Item
		return &dynamodb.PutItemOutput{}, nil
	}}
	h := newTestHandler(d, nil)

	resp := h.createEvent(context.Background(), request(
		"POST /events/{eventType}",
		map[string]string{"eventType": "event"},
		`{"slug":"workshop","creationDate":"2024-03-01","title":"Workshop"}`,
	))
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, resp.Body)
	}
	if pk := stringAttr(stored["pk"]); pk != "EVENT" {
		t.Errorf("expected uppercased pk EVENT, got %q", pk)
	}
}

// --- List Tests ---

func TestListEvents_MissingTypeParam(t *testing.T) {
	h := newTestHandler(nil, nil)

	resp := h.listEvents(context.Background(), request("GET /events", nil, ""))
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["error"] != "Missing required query parameter: type (should be 'fad' or 'event')" {
		t.Errorf("unexpected message: %v", body["error"])
	}
}

func TestListEvents_InvalidTypeParam(t *testing.T) {
	h := newTestHandler(nil, nil)

	req := request("GET /events", nil, "")
	req.QueryStringParameters = map[string]string{"type": "conference"}

	resp := h.listEvents(context.Background(), req)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["error"] != "Invalid type parameter. Must be 'fad' or 'event'" {
		t.Errorf("unexpected message: %v", body["error"])
	}
}

func TestListEvents_QueriesPartition(t *testing.T) {
	var queriedPK string
	d := &fakeDynamo{query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
		queriedPK = stringAttr(in.ExpressionAttributeValues[":pk"])
		return &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{
			eventItem("FAD", "summit#2024-01-01"),
		}}, nil
	}}
	h := newTestHandler(d, nil)

	req := request("GET /events", nil, "")
	req.QueryStringParameters = map[string]string{"type": "fad"}

	resp := h.listEvents(context.Background(), req)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if queriedPK != "FAD" {
		t.Errorf("expected partition FAD, got %q", queriedPK)
	}
}

// --- Get Tests ---

func TestGetEvent_PrefixQuery(t *testing.T) {
	var captured *dynamodb.QueryInput
	d := &fakeDynamo{query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
		captured = in
		return &dynamodb.QueryOutput{}, nil
	}}
	h := newTestHandler(d, nil)

	resp := h.getEvent(context.Background(), request(
		"GET /events/{eventType}/{eventSlug}",
		map[string]string{"eventType": "fad", "eventSlug": "summit"},
		"",
	))
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if *captured.KeyConditionExpression != "pk = :pk AND begins_with(sk, :slug)" {
		t.Errorf("unexpected key condition %q", *captured.KeyConditionExpression)
	}
}

// --- Update Tests ---

func TestUpdateEvent_NotFound(t *testing.T) {
	h := newTestHandler(&fakeDynamo{}, nil) // query returns no items

	resp := h.updateEvent(context.Background(), request(
		"PUT /events/{eventType}/{eventSlug}",
		map[string]string{"eventType": "fad", "eventSlug": "ghost"},
		`{"title":"New"}`,
	))
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["message"] != "Event not found" {
		t.Errorf("unexpected message: %v", body["message"])
	}
}

func TestUpdateEvent_EmptyBody(t *testing.T) {
	h := newTestHandler(nil, nil)

	resp := h.updateEvent(context.Background(), request(
		"PUT /events/{eventType}/{eventSlug}",
		map[string]string{"eventType": "fad", "eventSlug": "summit"},
		`{}`,
	))
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["message"] != "No valid fields to update" {
		t.Errorf("unexpected message: %v", body["message"])
	}
}

func TestUpdateEvent_RejectsProtectedField(t *testing.T) {
	d := &fakeDynamo{query: func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
		return &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{
			eventItem("FAD", "summit#2024-01-01"),
		}}, nil
	}}
	h := newTestHandler(d, nil)

	resp := h.updateEvent(context.Background(), request(
		"PUT /events/{eventType}/{eventSlug}",
		map[string]string{"eventType": "fad", "eventSlug": "summit"},
		`{"pk":"EVENT"}`,
	))
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d: %s", resp.StatusCode, resp.Body)
	}
	if body := decodeBody(t, resp); body["message"] != "Field not updatable: pk" {
		t.Errorf("unexpected message: %v", body["message"])
	}
}

func TestUpdateEvent_UsesResolvedSortKey(t *testing.T) {
	var updateKey string
	d := &fakeDynamo{
		query: func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			return &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{
				eventItem("FAD", "summit#2024-01-01"),
			}}, nil
		},
		updateItem: func(in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			updateKey = stringAttr(in.Key["sk"])
			return &dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{
				"title": &types.AttributeValueMemberS{Value: "New Title"},
			}}, nil
		},
	}
	h := newTestHandler(d, nil)

	resp := h.updateEvent(context.Background(), request(
		"PUT /events/{eventType}/{eventSlug}",
		map[string]string{"eventType": "fad", "eventSlug": "summit"},
		`{"title":"New Title"}`,
	))
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, resp.Body)
	}
	// The composite sort key comes from the lookup, not the raw slug.
	if updateKey != "summit#2024-01-01" {
		t.Errorf("expected resolved sort key, got %q", updateKey)
	}

	body := decodeBody(t, resp)
	updated, _ := body["updatedEvent"].(map[string]any)
	if updated["title"] != "New Title" {
		t.Errorf("expected updated title in response, got %v", body)
	}
}

// --- Delete Tests ---

func TestDeleteEvent_NotFound(t *testing.T) {
	h := newTestHandler(&fakeDynamo{}, nil)

	resp := h.deleteEvent(context.Background(), request(
		"DELETE /events/{eventType}/{eventSlug}",
		map[string]string{"eventType": "fad", "eventSlug": "ghost"},
		"",
	))
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestDeleteEvent_DeletesResolvedKey(t *testing.T) {
	var deleted *dynamodb.DeleteItemInput
	d := &fakeDynamo{
		query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			if aws.ToInt32(in.Limit) != 1 {
				t.Errorf("expected Limit 1 lookup, got %v", in.Limit)
			}
			return &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{
				eventItem("FAD", "summit#2024-01-01"),
			}}, nil
		},
		deleteItem: func(in *dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error) {
			deleted = in
			return &dynamodb.DeleteItemOutput{}, nil
		},
	}
	h := newTestHandler(d, nil)

	resp := h.deleteEvent(context.Background(), request(
		"DELETE /events/{eventType}/{eventSlug}",
		map[string]string{"eventType": "fad", "eventSlug": "summit"},
		"",
	))
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if sk := stringAttr(deleted.Key["sk"]); sk != "summit#2024-01-01" {
		t.Errorf("expected delete by composite sort key, got %q", sk)
	}
	if body := decodeBody(t, resp); body["status"] != "OK" {
		t.Errorf("unexpected body: %v", body)
	}
}
