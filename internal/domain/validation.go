package domain

import (
	"strings"
	"unicode/utf8"
)

const (
	MinTitleLength       = 5
	MinDescriptionLength = 20
	MaxCommentLength     = 500
)

// ValidateDraft checks the fields an organizer must fill before an event is
// created or edited.
func ValidateDraft(e Event) error {
	title := strings.TrimSpace(e.Title)
	switch {
	case title == "":
		return NewValidationError("titulo", "title is required")
	case utf8.RuneCountInString(title) < MinTitleLength:
		return NewValidationError("titulo", "title must be at least 5 characters")
	}

	desc := strings.TrimSpace(e.Description)
	switch {
	case desc == "":
		return NewValidationError("descripcion", "description is required")
	case utf8.RuneCountInString(desc) < MinDescriptionLength:
		return NewValidationError("descripcion", "description must be at least 20 characters")
	}

	if strings.TrimSpace(e.Location) == "" {
		return NewValidationError("ubicacion", "location is required")
	}
	if e.Date <= 0 {
		return NewValidationError("fecha", "select a date")
	}
	if strings.TrimSpace(e.Time) == "" {
		return NewValidationError("hora", "select a time")
	}
	if e.Category != "" && !IsCategory(e.Category) {
		return NewValidationError("categoria", "unknown category "+e.Category)
	}
	if e.State != "" && !e.State.Valid() {
		return NewValidationError("estado", "unknown state "+string(e.State))
	}
	if e.Capacity != nil && *e.Capacity <= 0 {
		return NewValidationError("capacidadMaxima", "capacity must be greater than 0")
	}
	if (e.Latitude == nil) != (e.Longitude == nil) {
		return NewValidationError("latitud", "latitude and longitude must be set together")
	}
	return nil
}

// ValidateComment checks the text and star rating of a review.
func ValidateComment(c Comment) error {
	text := strings.TrimSpace(c.Text)
	if text == "" {
		return NewValidationError("texto", "comment is required")
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return NewValidationError("texto", "comment must be under 500 characters")
	}
	if c.Rating < MinRating || c.Rating > MaxRating {
		return NewValidationError("calificacion", "rating must be between 1 and 5")
	}
	if strings.TrimSpace(c.EventID) == "" {
		return NewValidationError("eventoId", "event is required")
	}
	return nil
}
