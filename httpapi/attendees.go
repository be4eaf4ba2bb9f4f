package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/symphony/store"
)

// registrantView is the client-facing projection of a registrant record;
// the table keys stay internal.
type registrantView struct {
	FirstName            string `json:"firstName"`
	LastName             string `json:"lastName"`
	Email                string `json:"email"`
	Phone                string `json:"phone,omitempty"`
	Profession           string `json:"profession,omitempty"`
	EventSlug            string `json:"eventSlug"`
	EventType            string `json:"eventType"`
	PaymentScreenshotKey string `json:"paymentScreenshotKey,omitempty"`
	AttendanceStatus     string `json:"attendanceStatus"`
	RegistrationDate     string `json:"registrationDate"`
	RegistrationType     string `json:"registrationType"`
	RegisteredBy         string `json:"registeredBy,omitempty"`
}

func newRegistrantView(r store.Registrant) registrantView {
	v := registrantView{
		FirstName:            r.FirstName,
		LastName:             r.LastName,
		Email:                r.Email,
		Phone:                r.Phone,
		Profession:           r.Profession,
		EventSlug:            r.EventSlug,
		EventType:            r.EventType,
		PaymentScreenshotKey: r.PaymentScreenshotKey,
		AttendanceStatus:     r.AttendanceStatus,
		RegistrationDate:     r.RegistrationDate,
		RegistrationType:     r.RegistrationType,
		RegisteredBy:         r.RegisteredBy,
	}
	if v.RegistrationType == "" {
		// Records predating the registrationType attribute were all
		// self-service.
		v.RegistrationType = store.RegistrationSelfService
	}
	return v
}

func (h *Handler) listAttendees(ctx context.Context, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	eventSlug := req.PathParameters["eventSlug"]
	if eventSlug == "" {
		return errorResponse(400, "Missing eventSlug path parameter")
	}

	registrants, err := h.store.ListAttendees(ctx, eventSlug)
	if err != nil {
		return h.internalError("list attendees", err)
	}

	attendees := make([]registrantView, 0, len(registrants))
	for _, r := range registrants {
		attendees = append(attendees, newRegistrantView(r))
	}

	return jsonResponse(200, map[string]any{
		"status":        "OK",
		"eventSlug":     eventSlug,
		"attendeeCount": len(attendees),
		"attendees":     attendees,
	})
}

// manualRegistrationInput is the JSON body of a back-office registration.
type manualRegistrationInput struct {
	FirstName  string `json:"firstName" validate:"required"`
	LastName   string `json:"lastName" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required"`
	Profession string `json:"profession" validate:"required"`
	EventType  string `json:"eventType" validate:"required"`
}

func (h *Handler) manualRegister(ctx context.Context, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	eventSlug := req.PathParameters["eventSlug"]
	if eventSlug == "" {
		return errorResponse(400, "Missing eventSlug path parameter")
	}

	var input manualRegistrationInput
	if err := json.Unmarshal([]byte(req.Body), &input); err != nil {
		return errorResponse(400, "Invalid JSON format")
	}
	if err := h.validate.Struct(&input); err != nil {
		return errorResponse(400, validationMessage(err))
	}

	registeredBy := callerUsername(req)
	attendee := store.Registrant{
		PK:               store.AttendeePK(eventSlug),
		SK:               input.Email,
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		Email:            input.Email,
		Phone:            input.Phone,
		Profession:       input.Profession,
		EventSlug:        eventSlug,
		EventType:        input.EventType,
		AttendanceStatus: store.StatusVerified,
		RegistrationType: store.RegistrationManual,
		RegistrationDate: h.now().UTC().Format(time.RFC3339),
		RegisteredBy:     registeredBy,
	}

	err := h.store.PutRegistrant(ctx, &attendee, true)
	if errors.Is(err, store.ErrAlreadyExists) {
		return errorResponse(400, "Attendee already registered")
	}
	if err != nil {
		return h.internalError("manual register", err)
	}

	return jsonResponse(200, map[string]string{
		"status":           "OK",
		"message":          "Manual registration successful",
		"attendeeId":       input.Email,
		"registrationType": store.RegistrationManual,
		"registeredBy":     registeredBy,
	})
}

func (h *Handler) selfRegister(ctx context.Context, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	eventSlug := req.PathParameters["eventSlug"]
	if eventSlug == "" {
		return errorResponse(400, "Missing eventSlug path parameter")
	}

	form, file, err := parseForm(req, "paymentScreenshot")
	if errors.Is(err, errNotMultipart) {
		return errorResponse(400, "Invalid input - multipart form data required")
	}
	if err != nil {
		return errorResponse(400, "Failed to parse form data")
	}

	for _, field := range []string{"firstName", "lastName", "email", "eventType"} {
		if form[field] == "" {
			return errorResponse(400, "Missing required field: "+field)
		}
	}
	if h.validate.Var(form["email"], "email") != nil {
		return errorResponse(400, "Invalid email format")
	}

	var screenshotKey *string
	if file != nil {
		key, err := h.blob.PutPaymentScreenshot(ctx, eventSlug, file.data)
		if err != nil {
			return h.internalError("self register", err)
		}
		screenshotKey = &key
		h.logger.Info("payment screenshot uploaded", "key", key)
	}

	attendee := store.Registrant{
		PK:               store.AttendeePK(eventSlug),
		SK:               form["email"],
		FirstName:        form["firstName"],
		LastName:         form["lastName"],
		Email:            form["email"],
		Phone:            form["phone"],
		EventSlug:        eventSlug,
		EventType:        form["eventType"],
		AttendanceStatus: store.StatusPending,
		RegistrationType: store.RegistrationSelfService,
		RegistrationDate: h.now().UTC().Format(time.RFC3339),
	}
	if screenshotKey != nil {
		attendee.PaymentScreenshotKey = *screenshotKey
	}

	if err := h.store.PutRegistrant(ctx, &attendee, false); err != nil {
		return h.internalError("self register", err)
	}

	return jsonResponse(200, map[string]any{
		"status":               "OK",
		"message":              "Registration successful",
		"paymentScreenshotKey": screenshotKey,
		"attendeeId":           form["email"],
		"registrationType":     store.RegistrationSelfService,
	})
}

func (h *Handler) updateAttendee(ctx context.Context, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	eventSlug := req.PathParameters["eventSlug"]
	if eventSlug == "" {
		return errorResponse(400, "Missing eventSlug path parameter")
	}
	attendeeID := req.PathParameters["attendeeId"]
	if attendeeID == "" {
		return errorResponse(400, "Missing attendeeId path parameter")
	}

	var changes map[string]any
	if err := json.Unmarshal([]byte(req.Body), &changes); err != nil {
		return errorResponse(400, "Invalid JSON format")
	}
	if len(changes) == 0 {
		return errorResponse(400, "No valid fields to update")
	}

	if _, err := h.store.GetAttendee(ctx, eventSlug, attendeeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errorResponse(404, "Attendee not found")
		}
		return h.internalError("update attendee", err)
	}

	updated, err := h.store.UpdateAttendee(ctx, eventSlug, attendeeID, changes, callerUsername(req))
	switch {
	case errors.Is(err, store.ErrFieldNotAllowed):
		return errorResponse(400, fieldMessage(err))
	case errors.Is(err, store.ErrNoFields):
		return errorResponse(400, "No valid fields to update")
	case err != nil:
		return h.internalError("update attendee", err)
	}

	return jsonResponse(200, map[string]any{
		"status":  "OK",
		"message": "Attendee details updated successfully",
		"updatedAttendee": map[string]string{
			"eventSlug":        eventSlug,
			"attendeeId":       attendeeID,
			"firstName":        updated.FirstName,
			"lastName":         updated.LastName,
			"email":            updated.Email,
			"phone":            updated.Phone,
			"profession":       updated.Profession,
			"attendanceStatus": updated.AttendanceStatus,
			"updatedDate":      updated.UpdatedDate,
			"updatedBy":        updated.UpdatedBy,
		},
	})
}

func (h *Handler) verifyAttendee(ctx context.Context, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	eventSlug := req.PathParameters["eventSlug"]
	if eventSlug == "" {
		return errorResponse(400, "Missing eventSlug path parameter")
	}
	attendeeID := req.PathParameters["attendeeId"]
	if attendeeID == "" {
		return errorResponse(400, "Missing attendeeId path parameter")
	}

	if _, err := h.store.GetAttendee(ctx, eventSlug, attendeeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errorResponse(404, "Attendee not found")
		}
		return h.internalError("verify attendee", err)
	}

	updated, err := h.store.VerifyAttendee(ctx, eventSlug, attendeeID, callerUsername(req))
	if err != nil {
		return h.internalError("verify attendee", err)
	}

	return jsonResponse(200, map[string]any{
		"status":  "OK",
		"message": "Attendee status updated to VERIFIED successfully",
		"updatedAttendee": map[string]string{
			"eventSlug":        eventSlug,
			"attendeeId":       attendeeID,
			"firstName":        updated.FirstName,
			"lastName":         updated.LastName,
			"email":            updated.Email,
			"attendanceStatus": updated.AttendanceStatus,
			"verifiedDate":     updated.VerifiedDate,
			"verifiedBy":       updated.VerifiedBy,
		},
	})
}

func (h *Handler) deleteAttendee(ctx context.Context, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	eventSlug := req.PathParameters["eventSlug"]
	if eventSlug == "" {
		return errorResponse(400, "Missing eventSlug path parameter")
	}
	attendeeID := req.PathParameters["attendeeId"]
	if attendeeID == "" {
		return errorResponse(400, "Missing attendeeId path parameter")
	}

	existing, err := h.store.GetAttendee(ctx, eventSlug, attendeeID)
	if errors.Is(err, store.ErrNotFound) {
		return errorResponse(404, "Attendee not found")
	}
	if err != nil {
		return h.internalError("delete attendee", err)
	}

	if err := h.store.DeleteAttendee(ctx, eventSlug, attendeeID); err != nil {
		return h.internalError("delete attendee", err)
	}

	return jsonResponse(200, map[string]any{
		"status":  "OK",
		"message": "Attendee deleted successfully",
		"deletedAttendee": map[string]string{
			"eventSlug": eventSlug,
			"email":     attendeeID,
			"firstName": existing.FirstName,
			"lastName":  existing.LastName,
		},
		"deletedBy": callerUsername(req),
	})
}
