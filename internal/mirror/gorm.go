package mirror

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/domain"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/models"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/stream"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm is the Mirror backed by SQL tables.
type Gorm struct {
	db       *gorm.DB
	notifier Notifier
}

func NewGorm(db *gorm.DB, n Notifier) *Gorm {
	if n == nil {
		n = NewLocalNotifier()
	}
	return &Gorm{db: db, notifier: n}
}

func upsert() clause.OnConflict {
	return clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}
}

func (g *Gorm) UpsertEvent(ctx context.Context, e domain.Event) error {
	row := eventRow(e)
	if err := g.db.WithContext(ctx).Clauses(upsert()).Create(&row).Error; err != nil {
		return fmt.Errorf("upsert event %s: %w", e.ID, err)
	}
	g.notifier.Publish(ctx, TableEvents)
	return nil
}

func (g *Gorm) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	var row models.MirrorEvent
	if err := g.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Event{}, fmt.Errorf("event %s: %w", id, domain.ErrNotFound)
		}
		return domain.Event{}, err
	}
	return eventFromRow(row), nil
}

func (g *Gorm) DeleteEvent(ctx context.Context, id string) error {
	if err := g.db.WithContext(ctx).Delete(&models.MirrorEvent{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	g.notifier.Publish(ctx, TableEvents)
	return nil
}

func (g *Gorm) DeleteAllEvents(ctx context.Context) error {
	return g.ReplaceEvents(ctx, nil)
}

func (g *Gorm) ReplaceEvents(ctx context.Context, events []domain.Event) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.MirrorEvent{}).Error; err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		rows := make([]models.MirrorEvent, len(events))
		for i, e := range events {
			rows[i] = eventRow(e)
		}
		return tx.CreateInBatches(rows, 100).Error
	})
	if err != nil {
		return fmt.Errorf("replace events: %w", err)
	}
	g.notifier.Publish(ctx, TableEvents)
	return nil
}

func (g *Gorm) Events(ctx context.Context, q EventQuery) ([]domain.Event, error) {
	db := g.db.WithContext(ctx).Model(&models.MirrorEvent{})
	switch q.Kind {
	case QueryUpcoming:
		db = db.Where("date >= ? AND state = ?", q.Now, string(domain.StateUpcoming))
	case QueryPast:
		db = db.Where("date < ? OR state = ?", q.Now, string(domain.StateFinished))
	case QueryByOrganizer:
		db = db.Where("organizer_id = ?", q.OrganizerID)
	case QueryByState:
		db = db.Where("state = ?", string(q.State))
	}
	if q.Ascending() {
		db = db.Order("date ASC")
	} else {
		db = db.Order("date DESC")
	}

	var rows []models.MirrorEvent
	if err := db.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Event, len(rows))
	for i, r := range rows {
		out[i] = eventFromRow(r)
	}
	return out, nil
}

func (g *Gorm) WatchEvents(ctx context.Context, q EventQuery) *stream.Subscription[[]domain.Event] {
	return watch(ctx, g.notifier, TableEvents, func(ctx context.Context) ([]domain.Event, error) {
		return g.Events(ctx, q)
	})
}

func (g *Gorm) UpsertComment(ctx context.Context, c domain.Comment) error {
	row := commentRow(c)
	if err := g.db.WithContext(ctx).Clauses(upsert()).Create(&row).Error; err != nil {
		return fmt.Errorf("upsert comment %s: %w", c.ID, err)
	}
	g.notifier.Publish(ctx, TableComments)
	return nil
}

func (g *Gorm) DeleteCommentsByEvent(ctx context.Context, eventID string) error {
	if err := g.db.WithContext(ctx).Delete(&models.MirrorComment{}, "event_id = ?", eventID).Error; err != nil {
		return fmt.Errorf("delete comments of %s: %w", eventID, err)
	}
	g.notifier.Publish(ctx, TableComments)
	return nil
}

func (g *Gorm) DeleteAllComments(ctx context.Context) error {
	return g.ReplaceComments(ctx, nil)
}

func (g *Gorm) ReplaceComments(ctx context.Context, comments []domain.Comment) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.MirrorComment{}).Error; err != nil {
			return err
		}
		if len(comments) == 0 {
			return nil
		}
		rows := make([]models.MirrorComment, len(comments))
		for i, c := range comments {
			rows[i] = commentRow(c)
		}
		return tx.CreateInBatches(rows, 100).Error
	})
	if err != nil {
		return fmt.Errorf("replace comments: %w", err)
	}
	g.notifier.Publish(ctx, TableComments)
	return nil
}

func (g *Gorm) Comments(ctx context.Context, eventID string) ([]domain.Comment, error) {
	var rows []models.MirrorComment
	err := g.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("date DESC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Comment, len(rows))
	for i, r := range rows {
		out[i] = commentFromRow(r)
	}
	return out, nil
}

func (g *Gorm) WatchComments(ctx context.Context, eventID string) *stream.Subscription[[]domain.Comment] {
	return watch(ctx, g.notifier, TableComments, func(ctx context.Context) ([]domain.Comment, error) {
		return g.Comments(ctx, eventID)
	})
}

func (g *Gorm) UpsertUser(ctx context.Context, u domain.User) error {
	row := models.MirrorUser{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		PhotoURL:       u.PhotoURL,
		CreatedEvents:  datatypes.NewJSONSlice(nonNil(u.CreatedEvents)),
		AttendedEvents: datatypes.NewJSONSlice(nonNil(u.AttendedEvents)),
		RegisteredAt:   u.RegisteredAt,
	}
	if err := g.db.WithContext(ctx).Clauses(upsert()).Create(&row).Error; err != nil {
		return fmt.Errorf("upsert user %s: %w", u.ID, err)
	}
	g.notifier.Publish(ctx, TableUsers)
	return nil
}

func (g *Gorm) GetUser(ctx context.Context, id string) (domain.User, error) {
	var row models.MirrorUser
	if err := g.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return domain.User{}, err
	}
	return domain.User{
		ID:             row.ID,
		Name:           row.Name,
		Email:          row.Email,
		PhotoURL:       row.PhotoURL,
		CreatedEvents:  nonNil(row.CreatedEvents),
		AttendedEvents: nonNil(row.AttendedEvents),
		RegisteredAt:   row.RegisteredAt,
	}, nil
}

func (g *Gorm) DeleteAllUsers(ctx context.Context) error {
	if err := g.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.MirrorUser{}).Error; err != nil {
		return fmt.Errorf("delete users: %w", err)
	}
	g.notifier.Publish(ctx, TableUsers)
	return nil
}

func (g *Gorm) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string{}, s...)
}

func eventRow(e domain.Event) models.MirrorEvent {
	return models.MirrorEvent{
		ID:            e.ID,
		Title:         e.Title,
		Description:   e.Description,
		Date:          e.Date,
		Time:          e.Time,
		Location:      e.Location,
		Latitude:      e.Latitude,
		Longitude:     e.Longitude,
		OrganizerID:   e.OrganizerID,
		OrganizerName: e.OrganizerName,
		ImageURL:      e.ImageURL,
		License:       e.License,
		Category:      e.Category,
		Capacity:      e.Capacity,
		Attendees:     datatypes.NewJSONSlice(nonNil(e.Attendees)),
		AverageRating: e.AverageRating,
		RatingCount:   e.RatingCount,
		State:         string(e.State),
		CreatedAt:     e.CreatedAt,
	}
}

func eventFromRow(r models.MirrorEvent) domain.Event {
	return domain.Event{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		Date:          r.Date,
		Time:          r.Time,
		Location:      r.Location,
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
		OrganizerID:   r.OrganizerID,
		OrganizerName: r.OrganizerName,
		ImageURL:      r.ImageURL,
		License:       r.License,
		Category:      r.Category,
		Capacity:      r.Capacity,
		Attendees:     nonNil(r.Attendees),
		AverageRating: r.AverageRating,
		RatingCount:   r.RatingCount,
		State:         domain.EventState(r.State),
		CreatedAt:     r.CreatedAt,
	}
}

func commentRow(c domain.Comment) models.MirrorComment {
	return models.MirrorComment{
		ID:           c.ID,
		EventID:      c.EventID,
		UserID:       c.UserID,
		UserName:     c.UserName,
		UserPhotoURL: c.UserPhotoURL,
		Text:         c.Text,
		Rating:       c.Rating,
		Date:         c.Date,
		Edited:       c.Edited,
	}
}

func commentFromRow(r models.MirrorComment) domain.Comment {
	return domain.Comment{
		ID:           r.ID,
		EventID:      r.EventID,
		UserID:       r.UserID,
		UserName:     r.UserName,
		UserPhotoURL: r.UserPhotoURL,
		Text:         r.Text,
		Rating:       r.Rating,
		Date:         r.Date,
		Edited:       r.Edited,
	}
}
