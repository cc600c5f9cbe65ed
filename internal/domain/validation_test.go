package domain

import (
	"errors"
	"strings"
	"testing"
)

func validDraft() Event {
	return Event{
		Title:       "Feria de ciencia",
		Description: "Exposición de proyectos escolares abierta",
		Date:        1_800_000_000_000,
		Time:        "10:00",
		Location:    "Plaza Mayor",
		Category:    "Educación",
	}
}

func TestValidateDraft(t *testing.T) {
	zero := 0
	lat := 19.4
	tests := []struct {
		name  string
		edit  func(*Event)
		field string
	}{
		{"valid", func(*Event) {}, ""},
		{"empty title", func(e *Event) { e.Title = "   " }, "titulo"},
		{"short title", func(e *Event) { e.Title = "Fiña" }, "titulo"},
		{"short description", func(e *Event) { e.Description = "muy corta" }, "descripcion"},
		{"no location", func(e *Event) { e.Location = "" }, "ubicacion"},
		{"no date", func(e *Event) { e.Date = 0 }, "fecha"},
		{"no time", func(e *Event) { e.Time = "" }, "hora"},
		{"unknown category", func(e *Event) { e.Category = "Cocina" }, "categoria"},
		{"unknown state", func(e *Event) { e.State = "ABIERTO" }, "estado"},
		{"zero capacity", func(e *Event) { e.Capacity = &zero }, "capacidadMaxima"},
		{"half coordinates", func(e *Event) { e.Latitude = &lat }, "latitud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validDraft()
			tt.edit(&e)
			err := ValidateDraft(e)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var v *ValidationError
			if !errors.As(err, &v) || v.Field != tt.field {
				t.Fatalf("expected validation error on %s, got %v", tt.field, err)
			}
		})
	}
}

func TestValidateComment(t *testing.T) {
	ok := Comment{EventID: "e1", Text: "Muy buena organización", Rating: 4}
	if err := ValidateComment(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []Comment{
		{EventID: "e1", Text: " ", Rating: 3},
		{EventID: "e1", Text: strings.Repeat("a", MaxCommentLength+1), Rating: 3},
		{EventID: "e1", Text: "bien", Rating: 0},
		{EventID: "e1", Text: "bien", Rating: 6},
		{EventID: "", Text: "bien", Rating: 3},
	}
	for i, c := range bad {
		if err := ValidateComment(c); !IsValidation(err) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestStoreErrorMatchesSentinel(t *testing.T) {
	cause := errors.New("deadline exceeded")
	err := NewStoreError("create event", cause)
	if !errors.Is(err, ErrStore) || !errors.Is(err, cause) {
		t.Fatalf("store error should match ErrStore and its cause: %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("store error should not match ErrNotFound")
	}
}
