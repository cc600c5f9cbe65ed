package presenter

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/domain"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/identity"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/moderation"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/notify"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/repository"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/stream"
)

// EventView is the state of the event screens.
type EventView struct {
	Loading  bool             `json:"isLoading"`
	Events   []domain.Event   `json:"eventos"`
	Upcoming []domain.Event   `json:"proximosEventos"`
	Past     []domain.Event   `json:"eventosPasados"`
	Mine     []domain.Event   `json:"misEventos"`
	Current  *domain.Event    `json:"eventoActual"`
	Comments []domain.Comment `json:"comentarios"`
	Error    string           `json:"errorMessage,omitempty"`
	Success  string           `json:"successMessage,omitempty"`
}

// Options are shared by both presenters.
type Options struct {
	Notifier      notify.Notifier
	Filter        *moderation.Filter
	FlashDuration time.Duration
	Now           func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Notifier == nil {
		o.Notifier = notify.Log{}
	}
	if o.Filter == nil {
		o.Filter = moderation.NewFilter()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type EventPresenter struct {
	repo *repository.EventRepository
	opts Options
	*holder[EventView]

	subMu sync.Mutex
	subs  map[string]func()
}

func NewEventPresenter(repo *repository.EventRepository, opts Options) *EventPresenter {
	opts = opts.withDefaults()
	return &EventPresenter{
		repo: repo,
		opts: opts,
		holder: newHolder(opts.FlashDuration, func(s *EventView) {
			s.Error = ""
			s.Success = ""
		}),
		subs: make(map[string]func()),
	}
}

// State returns the current snapshot.
func (p *EventPresenter) State() EventView { return p.snapshot() }

// Watch streams state snapshots until ctx ends or the presenter is closed.
func (p *EventPresenter) Watch(ctx context.Context) *stream.Subscription[EventView] {
	return p.watch(ctx)
}

// Close cancels every repository subscription the presenter holds.
func (p *EventPresenter) Close() {
	p.subMu.Lock()
	cancels := p.subs
	p.subs = make(map[string]func())
	p.subMu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
	p.close()
}

func (p *EventPresenter) fail(action string, err error) {
	p.flash(func(s *EventView) {
		s.Loading = false
		s.Error = eventMessage(action, err)
	})
}

func (p *EventPresenter) succeed(msg string, f func(*EventView)) {
	p.flash(func(s *EventView) {
		s.Loading = false
		if f != nil {
			f(s)
		}
		s.Success = msg
	})
}

func (p *EventPresenter) setLoading() {
	p.update(func(s *EventView) { s.Loading = true })
}

// follow pumps sub into the state under key, replacing any previous
// subscription with the same key.
func follow[T any](p *EventPresenter, key, action string, sub *stream.Subscription[T], apply func(*EventView, T)) {
	p.subMu.Lock()
	prev := p.subs[key]
	p.subs[key] = sub.Cancel
	p.subMu.Unlock()
	if prev != nil {
		prev()
	}

	go func() {
		for v := range sub.Updates() {
			p.update(func(s *EventView) {
				s.Loading = false
				apply(s, v)
			})
		}
		if err := sub.Err(); err != nil {
			p.fail(action, err)
		}
	}()
}

func (p *EventPresenter) LoadAll(ctx context.Context) {
	p.setLoading()
	follow(p, "all", "load events", p.repo.WatchAll(ctx), func(s *EventView, v []domain.Event) { s.Events = v })
}

func (p *EventPresenter) LoadUpcoming(ctx context.Context) {
	follow(p, "upcoming", "load upcoming events", p.repo.WatchUpcoming(ctx), func(s *EventView, v []domain.Event) { s.Upcoming = v })
}

func (p *EventPresenter) LoadPast(ctx context.Context) {
	follow(p, "past", "load past events", p.repo.WatchPast(ctx), func(s *EventView, v []domain.Event) { s.Past = v })
}

func (p *EventPresenter) LoadMine(ctx context.Context) {
	follow(p, "mine", "load your events", p.repo.WatchMine(ctx), func(s *EventView, v []domain.Event) { s.Mine = v })
}

// LoadEvent makes id the current event and follows its comments.
func (p *EventPresenter) LoadEvent(ctx context.Context, id string) (domain.Event, error) {
	p.setLoading()
	e, err := p.repo.GetEvent(ctx, id)
	if err != nil {
		p.fail("load event", err)
		return domain.Event{}, err
	}
	p.update(func(s *EventView) {
		s.Loading = false
		s.Current = &e
	})
	follow(p, "comments", "load comments", p.repo.WatchComments(ctx, id), func(s *EventView, v []domain.Comment) { s.Comments = v })
	return e, nil
}

func (p *EventPresenter) screenDraft(e domain.Event) error {
	if err := domain.ValidateDraft(e); err != nil {
		return err
	}
	if err := p.opts.Filter.Validate("titulo", e.Title); err != nil {
		return err
	}
	return p.opts.Filter.Validate("descripcion", e.Description)
}

func (p *EventPresenter) CreateEvent(ctx context.Context, draft domain.Event) (domain.Event, error) {
	if err := p.screenDraft(draft); err != nil {
		p.fail("create event", err)
		return domain.Event{}, err
	}
	p.setLoading()
	e, err := p.repo.CreateEvent(ctx, draft)
	if err != nil {
		p.fail("create event", err)
		return domain.Event{}, err
	}
	p.succeed("Event created", func(s *EventView) { s.Current = &e })
	return e, nil
}

func (p *EventPresenter) UpdateEvent(ctx context.Context, e domain.Event) (domain.Event, error) {
	if err := p.screenDraft(e); err != nil {
		p.fail("update event", err)
		return domain.Event{}, err
	}
	p.setLoading()
	updated, err := p.repo.UpdateEvent(ctx, e)
	if err != nil {
		p.fail("update event", err)
		return domain.Event{}, err
	}
	p.succeed("Event updated", func(s *EventView) { s.Current = &updated })
	return updated, nil
}

func (p *EventPresenter) DeleteEvent(ctx context.Context, id string) error {
	p.setLoading()
	if err := p.repo.DeleteEvent(ctx, id); err != nil {
		p.fail("delete event", err)
		return err
	}
	p.succeed("Event deleted", func(s *EventView) {
		if s.Current != nil && s.Current.ID == id {
			s.Current = nil
			s.Comments = nil
		}
	})
	return nil
}

// ConfirmAttendance notifies the organizer the first time the caller
// confirms.
func (p *EventPresenter) ConfirmAttendance(ctx context.Context, id string) (domain.Event, error) {
	who, _ := identity.CallerFrom(ctx)
	e, err := p.repo.GetEvent(ctx, id)
	if err == nil {
		err = CanAttend(e, who.UserID, p.opts.Now())
	}
	if err != nil {
		p.fail("confirm attendance", err)
		return domain.Event{}, err
	}

	updated, err := p.repo.ConfirmAttendance(ctx, id)
	if err != nil {
		p.fail("confirm attendance", err)
		return domain.Event{}, err
	}
	if !e.HasAttendee(who.UserID) {
		p.notify(ctx, notify.NewAttendee(updated, who.DisplayName, p.opts.Now()))
	}
	p.succeed("Attendance confirmed", func(s *EventView) { s.Current = &updated })
	return updated, nil
}

func (p *EventPresenter) CancelAttendance(ctx context.Context, id string) (domain.Event, error) {
	updated, err := p.repo.CancelAttendance(ctx, id)
	if err != nil {
		p.fail("cancel attendance", err)
		return domain.Event{}, err
	}
	p.succeed("Attendance cancelled", func(s *EventView) { s.Current = &updated })
	return updated, nil
}

func (p *EventPresenter) AddComment(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	who, _ := identity.CallerFrom(ctx)
	e, err := p.repo.GetEvent(ctx, c.EventID)
	if err == nil {
		err = CanComment(e, who.UserID, p.opts.Now())
	}
	if err == nil {
		err = domain.ValidateComment(c)
	}
	if err == nil {
		err = p.opts.Filter.Validate("texto", c.Text)
	}
	if err != nil {
		p.fail("add comment", err)
		return domain.Comment{}, err
	}

	saved, err := p.repo.AddComment(ctx, c)
	if err != nil {
		p.fail("add comment", err)
		return domain.Comment{}, err
	}
	p.notify(ctx, notify.NewComment(e, saved, p.opts.Now()))
	p.succeed("Comment added", nil)
	return saved, nil
}

func (p *EventPresenter) notify(ctx context.Context, n notify.Notification) {
	if err := p.opts.Notifier.Notify(ctx, n); err != nil {
		slog.Warn("notification failed", "op", "notify", "kind", n.Kind, "event_id", n.EventID, "error", err)
	}
}

func (p *EventPresenter) ClearMessages() { p.clearNow() }

func (p *EventPresenter) IsOrganizer(ctx context.Context, e domain.Event) bool {
	who, _ := identity.CallerFrom(ctx)
	return e.IsOrganizedBy(who.UserID)
}

func (p *EventPresenter) HasConfirmedAttendance(ctx context.Context, e domain.Event) bool {
	who, _ := identity.CallerFrom(ctx)
	return e.HasAttendee(who.UserID)
}

func (p *EventPresenter) HasEventPassed(e domain.Event) bool {
	return e.HasPassed(p.opts.Now())
}

// UpcomingByCategory filters the loaded upcoming list for the home screen.
func (p *EventPresenter) UpcomingByCategory(category string) []domain.Event {
	return domain.FilterByCategory(p.State().Upcoming, category)
}
