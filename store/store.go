package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the slice of the DynamoDB client used by the Store.
// *dynamodb.Client satisfies it.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Store provides single-table operations for events, attendees and
// participants.
type Store struct {
	client DynamoAPI
	config Config

	// now is swappable for tests.
	now func() time.Time
}

// New creates a new Store instance.
func New(client DynamoAPI, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
		now:    time.Now,
	}
}

// recordKey builds a marshalled primary key.
func recordKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: pk},
		"sk": &types.AttributeValueMemberS{Value: sk},
	}
}

// --- Events ---

// PutEvent writes an event record. The caller is expected to have set the
// key via Event.SetKey.
func (s *Store) PutEvent(ctx context.Context, event *Event) error {
	item, err := attributevalue.MarshalMap(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.config.TableName),
		Item:      item,
	})
	return err
}

// ListEventsByType returns all event records under one partition key
// variant, as raw attribute maps so legacy fields survive round trips.
func (s *Store) ListEventsByType(ctx context.Context, partition string) ([]map[string]any, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.config.TableName),
		KeyConditionExpression: aws.String("pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: partition},
		},
	})
	if err != nil {
		return nil, err
	}
	return unmarshalItems(result.Items)
}

// QueryEventRecords returns all records under a partition whose sort key
// starts with the event slug.
func (s *Store) QueryEventRecords(ctx context.Context, partition, slug string) ([]map[string]any, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.config.TableName),
		KeyConditionExpression: aws.String("pk = :pk AND begins_with(sk, :slug)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":   &types.AttributeValueMemberS{Value: partition},
			":slug": &types.AttributeValueMemberS{Value: slug},
		},
	})
	if err != nil {
		return nil, err
	}
	return unmarshalItems(result.Items)
}

// FindEventKey resolves the full key of the event with the given slug
// under one partition. The sort key is composite ({slug}#{creationDate}),
// so resolution is a prefix query limited to one result.
func (s *Store) FindEventKey(ctx context.Context, partition, slug string) (EventKey, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.config.TableName),
		KeyConditionExpression: aws.String("pk = :pk AND begins_with(sk, :slug)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":   &types.AttributeValueMemberS{Value: partition},
			":slug": &types.AttributeValueMemberS{Value: slug},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return EventKey{}, err
	}
	if len(result.Items) == 0 {
		return EventKey{}, ErrNotFound
	}

	sk, ok := result.Items[0]["sk"].(*types.AttributeValueMemberS)
	if !ok {
		return EventKey{}, fmt.Errorf("event %s/%s: malformed sort key", partition, slug)
	}
	return EventKey{PK: partition, SK: sk.Value}, nil
}

// FindEventKeyBySlug probes every event partition variant for the slug and
// returns the first match. Attendee records do not say which variant owns
// their event, hence the probe.
func (s *Store) FindEventKeyBySlug(ctx context.Context, slug string) (EventKey, error) {
	for _, partition := range EventPartitions {
		key, err := s.FindEventKey(ctx, partition, slug)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return EventKey{}, err
		}
		return key, nil
	}
	return EventKey{}, ErrNotFound
}

// UpdateEvent applies an allow-listed change set to an event record and
// returns the record's new attributes.
func (s *Store) UpdateEvent(ctx context.Context, key EventKey, changes map[string]any, updatedBy string) (map[string]any, error) {
	expr, names, values, err := buildUpdate(changes, eventMutableFields, updatedBy, s.now())
	if err != nil {
		return nil, err
	}

	result, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.config.TableName),
		Key:                       recordKey(key.PK, key.SK),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, err
	}

	var attrs map[string]any
	if err := attributevalue.UnmarshalMap(result.Attributes, &attrs); err != nil {
		return nil, fmt.Errorf("unmarshal attributes: %w", err)
	}
	return attrs, nil
}

// DeleteEvent removes an event record. Attendee and participant records
// are deliberately left in place (kept for audit).
func (s *Store) DeleteEvent(ctx context.Context, key EventKey) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.config.TableName),
		Key:       recordKey(key.PK, key.SK),
	})
	return err
}

// --- Attendees and participants ---

// PutRegistrant writes an attendee or participant record. With
// mustNotExist set, the put is conditional on the key being absent and
// ErrAlreadyExists is returned when it isn't.
func (s *Store) PutRegistrant(ctx context.Context, r *Registrant, mustNotExist bool) error {
	item, err := attributevalue.MarshalMap(r)
	if err != nil {
		return fmt.Errorf("marshal registrant: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.config.TableName),
		Item:      item,
	}
	if mustNotExist {
		input.ConditionExpression = aws.String("attribute_not_exists(pk) AND attribute_not_exists(sk)")
	}

	_, err = s.client.PutItem(ctx, input)
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrAlreadyExists
	}
	return err
}

// GetAttendee fetches one attendee record, returning ErrNotFound when
// absent.
func (s *Store) GetAttendee(ctx context.Context, eventSlug, email string) (*Registrant, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.TableName),
		Key:       recordKey(AttendeePK(eventSlug), email),
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}

	var r Registrant
	if err := attributevalue.UnmarshalMap(result.Item, &r); err != nil {
		return nil, fmt.Errorf("unmarshal attendee: %w", err)
	}
	return &r, nil
}

// ListAttendees returns all attendees of an event.
func (s *Store) ListAttendees(ctx context.Context, eventSlug string) ([]Registrant, error) {
	return s.listRegistrants(ctx, AttendeePK(eventSlug))
}

// ListParticipants returns all participants of an event.
func (s *Store) ListParticipants(ctx context.Context, eventSlug string) ([]Registrant, error) {
	return s.listRegistrants(ctx, ParticipantPK(eventSlug))
}

func (s *Store) listRegistrants(ctx context.Context, pk string) ([]Registrant, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.config.TableName),
		KeyConditionExpression: aws.String("pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
		},
	})
	if err != nil {
		return nil, err
	}

	var registrants []Registrant
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &registrants); err != nil {
		return nil, fmt.Errorf("unmarshal registrants: %w", err)
	}
	return registrants, nil
}

// UpdateAttendee applies an allow-listed change set to an attendee record
// and returns the updated record.
func (s *Store) UpdateAttendee(ctx context.Context, eventSlug, email string, changes map[string]any, updatedBy string) (*Registrant, error) {
	expr, names, values, err := buildUpdate(changes, registrantMutableFields, updatedBy, s.now())
	if err != nil {
		return nil, err
	}

	result, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.config.TableName),
		Key:                       recordKey(AttendeePK(eventSlug), email),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, err
	}
	return unmarshalRegistrant(result.Attributes)
}

// VerifyAttendee transitions an attendee to VERIFIED and stamps who
// verified it and when. The reverse transition does not exist.
func (s *Store) VerifyAttendee(ctx context.Context, eventSlug, email, verifiedBy string) (*Registrant, error) {
	result, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.config.TableName),
		Key:              recordKey(AttendeePK(eventSlug), email),
		UpdateExpression: aws.String("SET attendanceStatus = :status, verifiedDate = :verifiedDate, verifiedBy = :verifiedBy"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":       &types.AttributeValueMemberS{Value: StatusVerified},
			":verifiedDate": &types.AttributeValueMemberS{Value: s.now().UTC().Format(time.RFC3339)},
			":verifiedBy":   &types.AttributeValueMemberS{Value: verifiedBy},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, err
	}
	return unmarshalRegistrant(result.Attributes)
}

// DeleteAttendee removes one attendee record.
func (s *Store) DeleteAttendee(ctx context.Context, eventSlug, email string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.config.TableName),
		Key:       recordKey(AttendeePK(eventSlug), email),
	})
	return err
}

// --- Attendee counter primitives ---
//
// The counter relies on DynamoDB's server-side atomic ADD rather than
// read-modify-write, so concurrent stream invocations cannot lose updates.

// IncrementAttendeeCount adds one to an event's attendeeCount.
func (s *Store) IncrementAttendeeCount(ctx context.Context, key EventKey) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.config.TableName),
		Key:              recordKey(key.PK, key.SK),
		UpdateExpression: aws.String("ADD attendeeCount :inc"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":inc": &types.AttributeValueMemberN{Value: "1"},
		},
	})
	return err
}

// DecrementAttendeeCount subtracts one from an event's attendeeCount,
// guarded so the count never goes below zero. Returns ErrCounterAtFloor
// when the guard fails; callers are expected to fall back to
// ResetAttendeeCount.
func (s *Store) DecrementAttendeeCount(ctx context.Context, key EventKey) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.config.TableName),
		Key:                 recordKey(key.PK, key.SK),
		UpdateExpression:    aws.String("ADD attendeeCount :dec"),
		ConditionExpression: aws.String("attribute_exists(attendeeCount) AND attendeeCount > :zero"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":dec":  &types.AttributeValueMemberN{Value: "-1"},
			":zero": &types.AttributeValueMemberN{Value: "0"},
		},
	})

	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrCounterAtFloor
	}
	return err
}

// ResetAttendeeCount unconditionally sets an event's attendeeCount to
// zero. Corrective action for the floor case.
func (s *Store) ResetAttendeeCount(ctx context.Context, key EventKey) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.config.TableName),
		Key:              recordKey(key.PK, key.SK),
		UpdateExpression: aws.String("SET attendeeCount = :zero"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
		},
	})
	return err
}

// --- Helpers ---

func unmarshalItems(items []map[string]types.AttributeValue) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		var m map[string]any
		if err := attributevalue.UnmarshalMap(item, &m); err != nil {
			return nil, fmt.Errorf("unmarshal item: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

func unmarshalRegistrant(attrs map[string]types.AttributeValue) (*Registrant, error) {
	var r Registrant
	if err := attributevalue.UnmarshalMap(attrs, &r); err != nil {
		return nil, fmt.Errorf("unmarshal registrant: %w", err)
	}
	return &r, nil
}
