package store

import "errors"

var (
	// ErrNotFound is returned when a record doesn't exist.
	ErrNotFound = errors.New("symphony: record not found")

	// ErrAlreadyExists is returned when a conditional put found an existing record.
	ErrAlreadyExists = errors.New("symphony: record already exists")

	// ErrFieldNotAllowed is returned when an update touches a field outside
	// the entity's allow-list.
	ErrFieldNotAllowed = errors.New("symphony: field not allowed")

	// ErrNoFields is returned when an update carries no fields.
	ErrNoFields = errors.New("symphony: no updatable fields")

	// ErrCounterAtFloor is returned when a guarded decrement finds the
	// attendee count absent or already at zero.
	ErrCounterAtFloor = errors.New("symphony: attendee count already at zero")
)
