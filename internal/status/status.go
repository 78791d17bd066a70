// Package status derives a message's delivery status from its event log.
package status

import "chat-core/internal/models"

// precedence orders event kinds from lowest to highest. A message's status is
// the highest-precedence kind present in its log; timestamps are ignored, so a
// RECEIVED event appended after READ does not downgrade the status.
var precedence = map[models.MessageEventKind]int{
	models.EventCreated:  0,
	models.EventStored:   1,
	models.EventReceived: 2,
	models.EventRead:     3,
}

// FromEvents collapses an event log to a single status. Recipient-scoped
// USER_RECEIVED/USER_READ events count as RECEIVED/READ. An empty log means
// the message exists but nothing else is known, so CREATED.
func FromEvents(events []models.MessageEvent) models.MessageEventKind {
	result := models.EventCreated
	for _, event := range events {
		kind := Normalize(event.Kind)
		if precedence[kind] > precedence[result] {
			result = kind
		}
	}
	return result
}

// Normalize maps recipient-scoped event kinds to their base kind.
func Normalize(kind models.MessageEventKind) models.MessageEventKind {
	switch kind {
	case models.EventUserReceived:
		return models.EventReceived
	case models.EventUserRead:
		return models.EventRead
	default:
		return kind
	}
}
