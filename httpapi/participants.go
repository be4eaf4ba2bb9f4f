package httpapi

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/symphony/store"
)

// participantInput is the JSON body of a participant registration. Unlike
// attendees, the event slug travels in the body: the route is not scoped
// to an event.
type participantInput struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required"`
	EventSlug string `json:"eventSlug" validate:"required"`
	EventType string `json:"eventType" validate:"required"`
}

func (h *Handler) registerParticipant(ctx context.Context, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	var input participantInput
	if err := json.Unmarshal([]byte(req.Body), &input); err != nil {
		return errorResponse(400, "Invalid JSON format")
	}
	if err := h.validate.Struct(&input); err != nil {
		return errorResponse(400, validationMessage(err))
	}

	registeredBy := callerEmail(req)
	participant := store.Registrant{
		PK:               store.ParticipantPK(input.EventSlug),
		SK:               input.Email,
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		Email:            input.Email,
		Phone:            input.Phone,
		EventSlug:        input.EventSlug,
		EventType:        input.EventType,
		AttendanceStatus: store.StatusVerified,
		RegistrationType: store.RegistrationManual,
		RegistrationDate: h.now().UTC().Format(time.RFC3339),
		RegisteredBy:     registeredBy,
	}

	if err := h.store.PutRegistrant(ctx, &participant, false); err != nil {
		return h.internalError("register participant", err)
	}

	return jsonResponse(200, map[string]string{
		"status":           "OK",
		"message":          "Manual registration successful",
		"participantId":    input.Email,
		"registrationType": store.RegistrationManual,
		"registeredBy":     registeredBy,
	})
}

func (h *Handler) listParticipants(ctx context.Context, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	eventSlug := req.PathParameters["eventSlug"]
	if eventSlug == "" {
		return errorResponse(400, "Missing eventSlug path parameter")
	}

	registrants, err := h.store.ListParticipants(ctx, eventSlug)
	if err != nil {
		return h.internalError("list participants", err)
	}

	participants := make([]registrantView, 0, len(registrants))
	for _, r := range registrants {
		participants = append(participants, newRegistrantView(r))
	}

	return jsonResponse(200, map[string]any{
		"status":           "OK",
		"eventSlug":        eventSlug,
		"participantCount": len(participants),
		"participants":     participants,
	})
}
