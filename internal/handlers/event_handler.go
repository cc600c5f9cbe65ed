package handlers

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/domain"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/dto"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/presenter"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/repository"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/stream"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

type EventHandler struct {
	events *repository.EventRepository
	opts   presenter.Options
	loc    *time.Location
}

func NewEventHandler(events *repository.EventRepository, opts presenter.Options, loc *time.Location) *EventHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &EventHandler{events: events, opts: opts, loc: loc}
}

func (h *EventHandler) newPresenter() *presenter.EventPresenter {
	return presenter.NewEventPresenter(h.events, h.opts)
}

// eventID copies the route id. Fiber reuses the request buffers once the
// handler returns, and ids outlive it in stores and live streams.
func eventID(c *fiber.Ctx) string {
	return utils.CopyString(c.Params("id"))
}

func (h *EventHandler) scope(c *fiber.Ctx) (repository.Scope, bool) {
	scope, ok := repository.ParseScope(c.Query("scope"))
	return scope, ok && scope != repository.ScopeMine
}

// fromCache reports whether the request asked for the local mirror instead of
// the remote store.
func fromCache(c *fiber.Ctx) (bool, bool) {
	switch c.Query("source") {
	case "", "remote":
		return false, true
	case "cache":
		return true, true
	}
	return false, false
}

const (
	badScope  = "scope must be all, upcoming or past"
	badSource = "source must be remote or cache"
)

// List returns events by scope, optionally narrowed to one category.
// source=cache reads the local mirror.
func (h *EventHandler) List(c *fiber.Ctx) error {
	scope, ok := h.scope(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, badScope)
	}
	cached, ok := fromCache(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, badSource)
	}

	var (
		events []domain.Event
		err    error
	)
	if cached {
		events, err = h.cachedEvents(c, scope)
	} else {
		events, err = h.events.ListEvents(c.UserContext(), scope)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(domain.FilterByCategory(events, c.Query("category")))
}

func (h *EventHandler) cachedEvents(c *fiber.Ctx, scope repository.Scope) ([]domain.Event, error) {
	q, err := h.events.CacheQuery(c.UserContext(), scope)
	if err != nil {
		return nil, err
	}
	return h.events.CachedEvents(c.UserContext(), q)
}

func (h *EventHandler) Live(c *fiber.Ctx) error {
	scope, ok := h.scope(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, badScope)
	}
	cached, ok := fromCache(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, badSource)
	}
	category := utils.CopyString(c.Query("category"))

	ctx := streamContext(c)
	var sub *stream.Subscription[[]domain.Event]
	if cached {
		q, err := h.events.CacheQuery(ctx, scope)
		if err != nil {
			return respondError(c, err)
		}
		sub = h.events.WatchCachedEvents(ctx, q)
	} else {
		sub = h.events.Watch(ctx, scope)
	}
	return serveSSE(c, stream.Map(sub, func(v []domain.Event) []domain.Event {
		return domain.FilterByCategory(v, category)
	}))
}

func (h *EventHandler) Mine(c *fiber.Ctx) error {
	events, err := h.events.ListEvents(c.UserContext(), repository.ScopeMine)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(events)
}

func (h *EventHandler) Get(c *fiber.Ctx) error {
	e, err := h.events.GetEvent(c.UserContext(), eventID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(e)
}

func (h *EventHandler) Share(c *fiber.Ctx) error {
	e, err := h.events.GetEvent(c.UserContext(), eventID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(domain.NewShareLinks(e, h.loc))
}

func (h *EventHandler) Create(c *fiber.Ctx) error {
	var req dto.EventRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	p := h.newPresenter()
	defer p.Close()
	e, err := p.CreateEvent(c.UserContext(), req.ToEvent(""))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(e)
}

func (h *EventHandler) Update(c *fiber.Ctx) error {
	var req dto.EventRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	p := h.newPresenter()
	defer p.Close()
	e, err := p.UpdateEvent(c.UserContext(), req.ToEvent(eventID(c)))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(e)
}

func (h *EventHandler) Delete(c *fiber.Ctx) error {
	p := h.newPresenter()
	defer p.Close()
	if err := p.DeleteEvent(c.UserContext(), eventID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: p.State().Success})
}

func (h *EventHandler) Attend(c *fiber.Ctx) error {
	p := h.newPresenter()
	defer p.Close()
	e, err := p.ConfirmAttendance(c.UserContext(), eventID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(e)
}

func (h *EventHandler) Unattend(c *fiber.Ctx) error {
	p := h.newPresenter()
	defer p.Close()
	e, err := p.CancelAttendance(c.UserContext(), eventID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(e)
}

// Attendees lists the confirmed attendees. Only the organizer may see them.
func (h *EventHandler) Attendees(c *fiber.Ctx) error {
	users, err := h.events.Attendees(c.UserContext(), eventID(c))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.AttendeeResponse, 0, len(users))
	for _, u := range users {
		out = append(out, dto.AttendeeResponse{ID: u.ID, Name: u.Name, PhotoURL: u.PhotoURL})
	}
	return c.JSON(out)
}

func (h *EventHandler) Comments(c *fiber.Ctx) error {
	cached, ok := fromCache(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, badSource)
	}
	var (
		comments []domain.Comment
		err      error
	)
	if cached {
		comments, err = h.events.CachedComments(c.UserContext(), eventID(c))
	} else {
		comments, err = h.events.ListComments(c.UserContext(), eventID(c))
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

func (h *EventHandler) CommentsLive(c *fiber.Ctx) error {
	cached, ok := fromCache(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, badSource)
	}
	id := eventID(c)
	if cached {
		return serveSSE(c, h.events.WatchCachedComments(streamContext(c), id))
	}
	return serveSSE(c, h.events.WatchComments(streamContext(c), id))
}

func (h *EventHandler) AddComment(c *fiber.Ctx) error {
	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	p := h.newPresenter()
	defer p.Close()
	saved, err := p.AddComment(c.UserContext(), domain.Comment{
		EventID: eventID(c),
		Text:    req.Text,
		Rating:  req.Rating,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(saved)
}

// Dashboard streams the organizer dashboard: the caller's events and the
// upcoming list, as presenter snapshots.
func (h *EventHandler) Dashboard(c *fiber.Ctx) error {
	ctx := streamContext(c)
	p := h.newPresenter()
	sub := p.Watch(ctx)
	p.LoadMine(ctx)
	p.LoadUpcoming(ctx)
	return serveSSE(c, stream.Run(ctx, func(ctx context.Context, emit stream.Emit[presenter.EventView]) error {
		defer p.Close()
		defer sub.Cancel()
		for {
			select {
			case <-ctx.Done():
				return nil
			case v, ok := <-sub.Updates():
				if !ok {
					return sub.Err()
				}
				if !emit(v) {
					return nil
				}
			}
		}
	}))
}
