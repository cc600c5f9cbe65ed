package presenter

import (
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/domain"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/identity"
)

// CanAttend rejects organizers and events that already took place.
func CanAttend(e domain.Event, userID string, now time.Time) error {
	switch {
	case userID == "":
		return domain.ErrUnauthenticated
	case e.IsOrganizedBy(userID):
		return domain.NewValidationError("asistentes", "organizers cannot attend their own event")
	case e.HasPassed(now):
		return domain.NewValidationError("fecha", "this event has already taken place")
	}
	return nil
}

// CanComment admits anyone but the organizer once the event date has passed.
func CanComment(e domain.Event, userID string, now time.Time) error {
	switch {
	case userID == "":
		return domain.ErrUnauthenticated
	case e.IsOrganizedBy(userID):
		return domain.NewValidationError("eventoId", "organizers cannot review their own event")
	case !e.HasPassed(now):
		return domain.NewValidationError("eventoId", "reviews open once the event has taken place")
	}
	return nil
}

// eventMessage renders err for the event screens, prefixed with what failed.
func eventMessage(action string, err error) string {
	var v *domain.ValidationError
	switch {
	case errors.As(err, &v):
		return v.Message
	case errors.Is(err, domain.ErrUnauthenticated):
		return "Sign in to continue"
	case errors.Is(err, domain.ErrNotFound):
		return "Event not found"
	case errors.Is(err, domain.ErrForbidden):
		return "Only the organizer can modify this event"
	}
	return fmt.Sprintf("Could not %s: %v", action, err)
}

// AuthMessage turns a provider or store error into something a user can act on.
func AuthMessage(err error) string {
	var v *domain.ValidationError
	switch {
	case errors.As(err, &v):
		return v.Message
	case errors.Is(err, identity.ErrWrongPassword):
		return "Incorrect password"
	case errors.Is(err, identity.ErrUnknownEmail), errors.Is(err, identity.ErrInvalidEmail):
		return "Invalid or unregistered email"
	case errors.Is(err, identity.ErrEmailInUse):
		return "This email is already registered"
	case errors.Is(err, identity.ErrWeakPassword):
		return "Password must be at least 6 characters"
	case errors.Is(err, identity.ErrInvalidToken):
		return "Your session has expired, sign in again"
	case errors.Is(err, identity.ErrUnsupportedMethod):
		return "This sign-in method is not available"
	case errors.Is(err, identity.ErrProviderUnavailable), errors.Is(err, domain.ErrStore):
		return "Connection error. Check your internet"
	}
	return "Unknown error"
}
