package store

import "strings"

// Event partition key variants. Two exist for historical reasons; attendee
// records do not say which one owns their event, so resolution is a probe
// over both (see Store.FindEventKeyBySlug).
const (
	PartitionFAD   = "FAD"
	PartitionEvent = "EVENT"
)

const (
	attendeeSuffix    = "#ATTENDEE"
	participantSuffix = "#PARTICIPANT"
)

// EventPartitions lists the partition keys an event record may live under,
// in probe order.
var EventPartitions = []string{PartitionFAD, PartitionEvent}

// EventKey identifies one event record.
type EventKey struct {
	PK string
	SK string
}

// NormalizeEventType maps a path- or query-supplied event type to its
// partition key. Returns "" when the value is not a known variant.
func NormalizeEventType(eventType string) string {
	pk := strings.ToUpper(eventType)
	if pk != PartitionFAD && pk != PartitionEvent {
		return ""
	}
	return pk
}

// EventSK builds an event sort key from its slug and creation date.
func EventSK(slug, creationDate string) string {
	return slug + "#" + creationDate
}

// AttendeePK builds the attendee partition key for an event.
func AttendeePK(eventSlug string) string {
	return eventSlug + attendeeSuffix
}

// ParticipantPK builds the participant partition key for an event.
func ParticipantPK(eventSlug string) string {
	return eventSlug + participantSuffix
}

// IsAttendeePK reports whether pk belongs to an attendee record.
func IsAttendeePK(pk string) bool {
	return strings.Contains(pk, attendeeSuffix)
}

// SlugFromEntityPK extracts the owning event slug from an attendee or
// participant partition key ("{slug}#ATTENDEE"). Returns the input
// unchanged when it has no "#" segment, and "" when the slug segment is
// empty.
func SlugFromEntityPK(pk string) string {
	if i := strings.Index(pk, "#"); i >= 0 {
		return pk[:i]
	}
	return pk
}
