package dto

import "github.com/ahmetcoskunkizilkaya/eventcenter/internal/domain"

// EventRequest is the editable part of an event. Organizer, attendees and
// ratings are set by the server.
type EventRequest struct {
	Title       string            `json:"titulo"`
	Description string            `json:"descripcion"`
	Date        int64             `json:"fecha"`
	Time        string            `json:"hora"`
	Location    string            `json:"ubicacion"`
	Latitude    *float64          `json:"latitud,omitempty"`
	Longitude   *float64          `json:"longitud,omitempty"`
	ImageURL    *string           `json:"imagenUrl,omitempty"`
	License     string            `json:"licenciaCC"`
	Category    string            `json:"categoria"`
	Capacity    *int              `json:"capacidadMaxima,omitempty"`
	State       domain.EventState `json:"estado,omitempty"`
}

func (r EventRequest) ToEvent(id string) domain.Event {
	return domain.Event{
		ID:          id,
		Title:       r.Title,
		Description: r.Description,
		Date:        r.Date,
		Time:        r.Time,
		Location:    r.Location,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		ImageURL:    r.ImageURL,
		License:     r.License,
		Category:    r.Category,
		Capacity:    r.Capacity,
		State:       r.State,
	}
}

type CommentRequest struct {
	Text   string `json:"texto"`
	Rating int    `json:"calificacion"`
}

type AttendeeResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"nombre"`
	PhotoURL *string `json:"photoUrl,omitempty"`
}

type CatalogResponse struct {
	Licenses   []domain.License `json:"licencias,omitempty"`
	Categories []string         `json:"categorias,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
