package domain

import "time"

// EventState is the stored lifecycle state of an event. It is set by the
// organizer and never derived from the event date.
type EventState string

const (
	StateUpcoming   EventState = "PROXIMO"
	StateInProgress EventState = "EN_CURSO"
	StateFinished   EventState = "FINALIZADO"
	StateCancelled  EventState = "CANCELADO"
)

func (s EventState) Valid() bool {
	switch s {
	case StateUpcoming, StateInProgress, StateFinished, StateCancelled:
		return true
	}
	return false
}

// Event is a community event. Dates are epoch milliseconds to match the
// records written by the mobile client.
type Event struct {
	ID            string     `json:"id"`
	Title         string     `json:"titulo"`
	Description   string     `json:"descripcion"`
	Date          int64      `json:"fecha"`
	Time          string     `json:"hora"`
	Location      string     `json:"ubicacion"`
	Latitude      *float64   `json:"latitud,omitempty"`
	Longitude     *float64   `json:"longitud,omitempty"`
	OrganizerID   string     `json:"organizadorId"`
	OrganizerName string     `json:"organizadorNombre"`
	ImageURL      *string    `json:"imagenUrl,omitempty"`
	License       string     `json:"licenciaCC"`
	Category      string     `json:"categoria"`
	Capacity      *int       `json:"capacidadMaxima,omitempty"`
	Attendees     []string   `json:"asistentes"`
	AverageRating float64    `json:"calificacionPromedio"`
	RatingCount   int        `json:"totalCalificaciones"`
	State         EventState `json:"estado"`
	CreatedAt     int64      `json:"fechaCreacion"`
}

// HasPassed reports whether the stored date is before now. It may disagree
// with State; neither is reconciled with the other.
func (e Event) HasPassed(now time.Time) bool {
	return e.Date < now.UnixMilli()
}

func (e Event) HasAttendee(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range e.Attendees {
		if id == userID {
			return true
		}
	}
	return false
}

func (e Event) IsOrganizedBy(userID string) bool {
	return userID != "" && e.OrganizerID == userID
}

// AttendeeCount is the number of confirmed attendees.
func (e Event) AttendeeCount() int {
	return len(e.Attendees)
}

// WithDefaults fills the zero values a freshly drafted event should carry.
func (e Event) WithDefaults() Event {
	if e.License == "" {
		e.License = LicenseCCBY.Code
	}
	if e.Category == "" {
		e.Category = DefaultCategory
	}
	if e.State == "" {
		e.State = StateUpcoming
	}
	if e.Attendees == nil {
		e.Attendees = []string{}
	}
	return e
}

// Clone returns a copy that shares no slices or pointers with e.
func (e Event) Clone() Event {
	c := e
	c.Attendees = append([]string{}, e.Attendees...)
	if e.Latitude != nil {
		v := *e.Latitude
		c.Latitude = &v
	}
	if e.Longitude != nil {
		v := *e.Longitude
		c.Longitude = &v
	}
	if e.ImageURL != nil {
		v := *e.ImageURL
		c.ImageURL = &v
	}
	if e.Capacity != nil {
		v := *e.Capacity
		c.Capacity = &v
	}
	return c
}

// FilterByCategory keeps events of the given category. AllCategories and the
// empty string keep everything.
func FilterByCategory(events []Event, category string) []Event {
	if category == "" || category == AllCategories {
		return events
	}
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}
