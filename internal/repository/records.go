package repository

import (
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/domain"
)

// Collection names and field keys are shared with the mobile client.
const (
	CollectionUsers    = "users"
	CollectionEvents   = "events"
	CollectionComments = "comments"

	fieldDate           = "fecha"
	fieldOrganizerID    = "organizadorId"
	fieldAttendees      = "asistentes"
	fieldAverageRating  = "calificacionPromedio"
	fieldRatingCount    = "totalCalificaciones"
	fieldEventID        = "eventoId"
	fieldCreatedEvents  = "eventosCreados"
	fieldAttendedEvents = "eventosAsistidos"
)

func eventDoc(e domain.Event) docstore.Document {
	return docstore.Document{
		"id":                e.ID,
		"titulo":            e.Title,
		"descripcion":       e.Description,
		fieldDate:           e.Date,
		"hora":              e.Time,
		"ubicacion":         e.Location,
		"latitud":           e.Latitude,
		"longitud":          e.Longitude,
		fieldOrganizerID:    e.OrganizerID,
		"organizadorNombre": e.OrganizerName,
		"imagenUrl":         e.ImageURL,
		"licenciaCC":        e.License,
		"categoria":         e.Category,
		"capacidadMaxima":   e.Capacity,
		fieldAttendees:      stringsOrEmpty(e.Attendees),
		fieldAverageRating:  e.AverageRating,
		fieldRatingCount:    e.RatingCount,
		"estado":            string(e.State),
		"fechaCreacion":     e.CreatedAt,
	}
}

func eventFromDoc(d docstore.Document) domain.Event {
	e := domain.Event{
		ID:            str(d, "id"),
		Title:         str(d, "titulo"),
		Description:   str(d, "descripcion"),
		Date:          integer(d, fieldDate),
		Time:          str(d, "hora"),
		Location:      str(d, "ubicacion"),
		Latitude:      floatPtr(d, "latitud"),
		Longitude:     floatPtr(d, "longitud"),
		OrganizerID:   str(d, fieldOrganizerID),
		OrganizerName: str(d, "organizadorNombre"),
		ImageURL:      strPtr(d, "imagenUrl"),
		License:       str(d, "licenciaCC"),
		Category:      str(d, "categoria"),
		Capacity:      intPtr(d, "capacidadMaxima"),
		Attendees:     stringList(d, fieldAttendees),
		AverageRating: float(d, fieldAverageRating),
		RatingCount:   int(integer(d, fieldRatingCount)),
		State:         domain.EventState(str(d, "estado")),
		CreatedAt:     integer(d, "fechaCreacion"),
	}
	return e.WithDefaults()
}

func userDoc(u domain.User) docstore.Document {
	return docstore.Document{
		"id":                u.ID,
		"nombre":            u.Name,
		"email":             u.Email,
		"photoUrl":          u.PhotoURL,
		fieldCreatedEvents:  stringsOrEmpty(u.CreatedEvents),
		fieldAttendedEvents: stringsOrEmpty(u.AttendedEvents),
		"fechaRegistro":     u.RegisteredAt,
	}
}

func userFromDoc(d docstore.Document) domain.User {
	return domain.User{
		ID:             str(d, "id"),
		Name:           str(d, "nombre"),
		Email:          str(d, "email"),
		PhotoURL:       strPtr(d, "photoUrl"),
		CreatedEvents:  stringList(d, fieldCreatedEvents),
		AttendedEvents: stringList(d, fieldAttendedEvents),
		RegisteredAt:   integer(d, "fechaRegistro"),
	}
}

func commentDoc(c domain.Comment) docstore.Document {
	return docstore.Document{
		"id":           c.ID,
		fieldEventID:   c.EventID,
		"userId":       c.UserID,
		"userName":     c.UserName,
		"userPhotoUrl": c.UserPhotoURL,
		"texto":        c.Text,
		"calificacion": c.Rating,
		fieldDate:      c.Date,
		"editado":      c.Edited,
	}
}

func commentFromDoc(d docstore.Document) domain.Comment {
	edited, _ := d["editado"].(bool)
	return domain.Comment{
		ID:           str(d, "id"),
		EventID:      str(d, fieldEventID),
		UserID:       str(d, "userId"),
		UserName:     str(d, "userName"),
		UserPhotoURL: strPtr(d, "userPhotoUrl"),
		Text:         str(d, "texto"),
		Rating:       int(integer(d, "calificacion")),
		Date:         integer(d, fieldDate),
		Edited:       edited,
	}
}

func eventsFromDocs(docs []docstore.Document) []domain.Event {
	out := make([]domain.Event, len(docs))
	for i, d := range docs {
		out[i] = eventFromDoc(d)
	}
	return out
}

func commentsFromDocs(docs []docstore.Document) []domain.Comment {
	out := make([]domain.Comment, len(docs))
	for i, d := range docs {
		out[i] = commentFromDoc(d)
	}
	return out
}

func str(d docstore.Document, key string) string {
	s, _ := d[key].(string)
	return s
}

func strPtr(d docstore.Document, key string) *string {
	s, ok := d[key].(string)
	if !ok {
		return nil
	}
	return &s
}

// integer accepts both integer and floating point encodings; the mobile
// client writes some numbers as doubles.
func integer(d docstore.Document, key string) int64 {
	switch v := d[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case int:
		return int64(v)
	}
	return 0
}

func float(d docstore.Document, key string) float64 {
	switch v := d[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func floatPtr(d docstore.Document, key string) *float64 {
	if _, ok := d[key]; !ok || d[key] == nil {
		return nil
	}
	v := float(d, key)
	return &v
}

func intPtr(d docstore.Document, key string) *int {
	if _, ok := d[key]; !ok || d[key] == nil {
		return nil
	}
	v := int(integer(d, key))
	return &v
}

func stringList(d docstore.Document, key string) []string {
	out := []string{}
	switch v := d[key].(type) {
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
	case []string:
		out = append(out, v...)
	}
	return out
}

func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
