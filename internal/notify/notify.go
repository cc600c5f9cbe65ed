// Package notify tells organizers about activity on their events. Delivery
// is fire-and-forget from the caller's point of view.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/domain"
)

type Kind string

const (
	KindNewAttendee Kind = "new_attendee"
	KindNewComment  Kind = "new_comment"
	KindReminder    Kind = "reminder"
)

// Notification is addressed to Recipient, normally the event organizer.
type Notification struct {
	Kind       Kind      `json:"kind"`
	EventID    string    `json:"eventId"`
	EventTitle string    `json:"eventTitle"`
	Recipient  string    `json:"recipient"`
	ActorName  string    `json:"actorName,omitempty"`
	Rating     int       `json:"rating,omitempty"`
	EventDate  int64     `json:"eventDate,omitempty"`
	EventTime  string    `json:"eventTime,omitempty"`
	At         time.Time `json:"at"`
}

const anonymous = "Alguien"

func NewAttendee(e domain.Event, attendeeName string, at time.Time) Notification {
	if strings.TrimSpace(attendeeName) == "" {
		attendeeName = anonymous
	}
	return Notification{
		Kind:       KindNewAttendee,
		EventID:    e.ID,
		EventTitle: e.Title,
		Recipient:  e.OrganizerID,
		ActorName:  attendeeName,
		At:         at,
	}
}

func NewComment(e domain.Event, c domain.Comment, at time.Time) Notification {
	name := c.UserName
	if strings.TrimSpace(name) == "" {
		name = anonymous
	}
	return Notification{
		Kind:       KindNewComment,
		EventID:    e.ID,
		EventTitle: e.Title,
		Recipient:  e.OrganizerID,
		ActorName:  name,
		Rating:     c.Rating,
		At:         at,
	}
}

// Reminder is sent to recipient the day before the event.
func Reminder(e domain.Event, recipient string, at time.Time) Notification {
	return Notification{
		Kind:       KindReminder,
		EventID:    e.ID,
		EventTitle: e.Title,
		Recipient:  recipient,
		EventDate:  e.Date,
		EventTime:  e.Time,
		At:         at,
	}
}

func (n Notification) Title() string {
	switch n.Kind {
	case KindNewAttendee:
		return "🎉 Nuevo asistente"
	case KindNewComment:
		return "💬 Nuevo comentario"
	case KindReminder:
		return "⏰ Recordatorio de Evento"
	}
	return string(n.Kind)
}

func (n Notification) Text() string {
	switch n.Kind {
	case KindNewAttendee:
		return fmt.Sprintf("%s confirmó asistencia a %q", n.ActorName, n.EventTitle)
	case KindNewComment:
		return fmt.Sprintf("%s comentó en %q %s", n.ActorName, n.EventTitle, strings.Repeat("⭐", n.Rating))
	case KindReminder:
		date := time.UnixMilli(n.EventDate).UTC().Format("02/01/2006")
		return fmt.Sprintf("%s - %s a las %s", n.EventTitle, date, n.EventTime)
	}
	return n.EventTitle
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, n Notification) error

func (f Func) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, target := range m {
		if err := target.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
