// Package store provides the single-table DynamoDB data access layer for
// the event-management platform.
//
// Every record lives in one table keyed by partition key "pk" and sort key
// "sk":
//
//	Event       pk = "FAD" | "EVENT"        sk = "{slug}#{creationDate}"
//	Attendee    pk = "{slug}#ATTENDEE"      sk = email
//	Participant pk = "{slug}#PARTICIPANT"   sk = email
//
// Event records carry a derived attendeeCount aggregate that is mutated
// only through the counter primitives (IncrementAttendeeCount,
// DecrementAttendeeCount, ResetAttendeeCount); the request handlers never
// touch it directly.
//
// # Updates
//
// Update operations take a map of changed fields and check it against a
// per-entity allow-list. Unknown or protected fields (pk, sk, eventType,
// attendanceStatus) are rejected with [ErrFieldNotAllowed] rather than
// silently dropped. Every update stamps updatedDate and updatedBy.
//
// # Errors
//
// The package defines domain-specific errors:
//
//   - [ErrNotFound] - record doesn't exist
//   - [ErrAlreadyExists] - conditional put hit an existing record
//   - [ErrFieldNotAllowed] - update touched a field outside the allow-list
//   - [ErrNoFields] - update carried no fields at all
//   - [ErrCounterAtFloor] - guarded decrement found the count already at zero
package store
