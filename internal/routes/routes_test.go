package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/config"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/domain"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/dto"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/identity"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/mirror"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/models"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/notify"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/presenter"
	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/repository"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type memCredentials struct {
	mu    sync.Mutex
	byUID map[string]*models.Credential
}

func (m *memCredentials) FindByEmail(_ context.Context, email string) (*models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byUID {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memCredentials) FindByAppleID(context.Context, string) (*models.Credential, error) {
	return nil, gorm.ErrRecordNotFound
}

func (m *memCredentials) Create(_ context.Context, c *models.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.byUID[c.UID] = &cp
	return nil
}

func (m *memCredentials) LinkApple(context.Context, *models.Credential, string) error { return nil }

type memRefresh struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
}

func (m *memRefresh) Save(_ context.Context, t *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tokens[t.TokenHash] = &cp
	return nil
}

func (m *memRefresh) Consume(_ context.Context, hash string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[hash]
	if !ok || t.Revoked {
		return nil, gorm.ErrRecordNotFound
	}
	t.Revoked = true
	cp := *t
	return &cp, nil
}

func (m *memRefresh) Revoke(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[hash]; ok {
		t.Revoked = true
	}
	return nil
}

type googleVerifier struct{}

func (googleVerifier) VerifyIDToken(_ context.Context, token string) (*auth.Token, error) {
	if token != "valid-google-token" {
		return nil, errors.New("ID token has invalid signature")
	}
	return &auth.Token{UID: "google-uid", Claims: map[string]interface{}{
		"email": "lucia@example.com",
		"name":  "Lucía",
	}}, nil
}

type harness struct {
	t       *testing.T
	app     *fiber.App
	store   *docstore.Memory
	local   *mirror.Memory
	changes *mirror.LocalNotifier

	mu   sync.Mutex
	sent []notify.Notification
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{t: t}

	cfg := &config.Config{JWTSecret: "test-secret", CORSOrigins: "*"}
	store := docstore.NewMemory()
	changes := mirror.NewLocalNotifier()
	local := mirror.NewMemory(changes)
	h.store, h.local, h.changes = store, local, changes

	ids := identity.NewService(identity.NewPasswordProvider(&memCredentials{byUID: make(map[string]*models.Credential)})).
		With(identity.MethodGoogle, identity.NewGoogleProvider(googleVerifier{}))
	sessions := identity.NewSessionManager(&memRefresh{tokens: make(map[string]*models.RefreshToken)}, cfg.JWTSecret, time.Hour, 24*time.Hour)

	authRepo := repository.NewAuthRepository(ids, sessions, store, local)
	eventRepo := repository.NewEventRepository(store, local)

	opts := presenter.Options{
		Notifier: notify.Func(func(_ context.Context, n notify.Notification) error {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.sent = append(h.sent, n)
			return nil
		}),
		FlashDuration: time.Second,
	}

	h.app = fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler, DisableStartupMessage: true})
	Setup(h.app, cfg,
		handlers.NewAuthHandler(authRepo, opts),
		handlers.NewEventHandler(eventRepo, opts, time.UTC),
		handlers.NewCatalogHandler(),
		handlers.NewLegalHandler(""),
		handlers.NewHealthHandler(map[string]handlers.Pinger{"store": store.Ping, "mirror": local.Ping}),
	)
	return h
}

func (h *harness) call(method, path, token string, body any) *http.Response {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			h.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.app.Test(req, -1)
	if err != nil {
		h.t.Fatal(err)
	}
	return resp
}

func (h *harness) expect(resp *http.Response, status int, out any) {
	h.t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != status {
		var e dto.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		h.t.Fatalf("status = %d, want %d (%s)", resp.StatusCode, status, e.Message)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			h.t.Fatal(err)
		}
	}
}

func (h *harness) register(name, email string) dto.AuthResponse {
	h.t.Helper()
	var out dto.AuthResponse
	h.expect(h.call("POST", "/api/auth/register", "", dto.RegisterRequest{
		Name: name, Email: email, Password: "secret123",
	}), fiber.StatusCreated, &out)
	return out
}

func (h *harness) notifications() []notify.Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]notify.Notification(nil), h.sent...)
}

func eventBody(title string, at time.Time) dto.EventRequest {
	return dto.EventRequest{
		Title:       title,
		Description: "Una noche de música en vivo para toda la familia",
		Date:        at.UnixMilli(),
		Time:        at.Format("15:04"),
		Location:    "Plaza Mayor",
		Category:    "Música",
	}
}

func TestRegisterLoginAndMe(t *testing.T) {
	h := newHarness(t)

	reg := h.register("Ana", "ana@example.com")
	if reg.AccessToken == "" || reg.RefreshToken == "" || reg.User.Name != "Ana" {
		t.Fatalf("unexpected register response %+v", reg)
	}

	var me domain.User
	h.expect(h.call("GET", "/api/auth/me", reg.AccessToken, nil), fiber.StatusOK, &me)
	if me.ID != reg.User.ID || me.Email != "ana@example.com" {
		t.Errorf("me = %+v", me)
	}

	var login dto.AuthResponse
	h.expect(h.call("POST", "/api/auth/login", "", dto.LoginRequest{Email: " ANA@example.com", Password: "secret123"}), fiber.StatusOK, &login)
	if login.User.ID != reg.User.ID || !strings.Contains(login.Message, "Ana") {
		t.Errorf("login = %+v", login)
	}

	h.expect(h.call("POST", "/api/auth/login", "", dto.LoginRequest{Email: "ana@example.com", Password: "wrong-pass"}), fiber.StatusUnauthorized, nil)
	h.expect(h.call("POST", "/api/auth/login", "", dto.LoginRequest{Email: "nobody@example.com", Password: "secret123"}), fiber.StatusUnauthorized, nil)
	h.expect(h.call("POST", "/api/auth/register", "", dto.RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "secret123"}), fiber.StatusConflict, nil)
	h.expect(h.call("POST", "/api/auth/register", "", dto.RegisterRequest{Name: "Ana", Email: "ana2@example.com", Password: "123"}), fiber.StatusBadRequest, nil)
}

func TestRefreshRotatesToken(t *testing.T) {
	h := newHarness(t)
	reg := h.register("Ana", "ana@example.com")

	var refreshed dto.AuthResponse
	h.expect(h.call("POST", "/api/auth/refresh", "", dto.RefreshRequest{RefreshToken: reg.RefreshToken}), fiber.StatusOK, &refreshed)
	if refreshed.RefreshToken == "" || refreshed.RefreshToken == reg.RefreshToken {
		t.Fatalf("refresh token not rotated")
	}
	h.expect(h.call("POST", "/api/auth/refresh", "", dto.RefreshRequest{RefreshToken: reg.RefreshToken}), fiber.StatusUnauthorized, nil)

	h.expect(h.call("POST", "/api/auth/logout", refreshed.AccessToken, dto.LogoutRequest{RefreshToken: refreshed.RefreshToken}), fiber.StatusOK, nil)
	h.expect(h.call("POST", "/api/auth/refresh", "", dto.RefreshRequest{RefreshToken: refreshed.RefreshToken}), fiber.StatusUnauthorized, nil)
}

func TestGoogleSignInCreatesProfile(t *testing.T) {
	h := newHarness(t)

	var out dto.AuthResponse
	h.expect(h.call("POST", "/api/auth/google", "", dto.GoogleSignInRequest{IDToken: "valid-google-token"}), fiber.StatusOK, &out)
	if out.User.ID != "google-uid" || out.User.Name != "Lucía" {
		t.Fatalf("unexpected user %+v", out.User)
	}

	h.expect(h.call("POST", "/api/auth/google", "", dto.GoogleSignInRequest{IDToken: "forged"}), fiber.StatusBadGateway, nil)
	h.expect(h.call("POST", "/api/auth/google", "", dto.GoogleSignInRequest{}), fiber.StatusBadRequest, nil)
	h.expect(h.call("POST", "/api/auth/apple", "", dto.AppleSignInRequest{IdentityToken: "x"}), fiber.StatusBadRequest, nil)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newHarness(t)
	body := eventBody("Concierto de verano", time.Now().Add(48*time.Hour))

	h.expect(h.call("POST", "/api/events", "", body), fiber.StatusUnauthorized, nil)
	h.expect(h.call("POST", "/api/events", "not-a-jwt", body), fiber.StatusUnauthorized, nil)
	h.expect(h.call("GET", "/api/me/events", "", nil), fiber.StatusUnauthorized, nil)
	h.expect(h.call("GET", "/api/auth/me", "", nil), fiber.StatusUnauthorized, nil)
}

func TestEventLifecycle(t *testing.T) {
	h := newHarness(t)
	org := h.register("Ana", "ana@example.com")
	guest := h.register("Beto", "beto@example.com")

	var created domain.Event
	h.expect(h.call("POST", "/api/events", org.AccessToken, eventBody("Concierto de verano", time.Now().Add(48*time.Hour))), fiber.StatusCreated, &created)
	if created.ID == "" || created.OrganizerID != org.User.ID || created.State != domain.StateUpcoming {
		t.Fatalf("unexpected event %+v", created)
	}

	var upcoming []domain.Event
	h.expect(h.call("GET", "/api/events?scope=upcoming&category=M%C3%BAsica", "", nil), fiber.StatusOK, &upcoming)
	if len(upcoming) != 1 || upcoming[0].ID != created.ID {
		t.Errorf("upcoming = %+v", upcoming)
	}
	h.expect(h.call("GET", "/api/events?scope=mine", "", nil), fiber.StatusBadRequest, nil)

	var mine []domain.Event
	h.expect(h.call("GET", "/api/me/events", org.AccessToken, nil), fiber.StatusOK, &mine)
	if len(mine) != 1 {
		t.Errorf("mine = %+v", mine)
	}

	// The organizer cannot attend their own event.
	h.expect(h.call("POST", "/api/events/"+created.ID+"/attendance", org.AccessToken, nil), fiber.StatusBadRequest, nil)

	var attended domain.Event
	h.expect(h.call("POST", "/api/events/"+created.ID+"/attendance", guest.AccessToken, nil), fiber.StatusOK, &attended)
	if !attended.HasAttendee(guest.User.ID) {
		t.Fatalf("guest not attending: %+v", attended.Attendees)
	}
	h.expect(h.call("POST", "/api/events/"+created.ID+"/attendance", guest.AccessToken, nil), fiber.StatusOK, nil)
	if sent := h.notifications(); len(sent) != 1 || sent[0].Kind != notify.KindNewAttendee || sent[0].ActorName != "Beto" {
		t.Errorf("notifications = %+v", sent)
	}

	var attendees []dto.AttendeeResponse
	h.expect(h.call("GET", "/api/events/"+created.ID+"/attendees", org.AccessToken, nil), fiber.StatusOK, &attendees)
	if len(attendees) != 1 || attendees[0].ID != guest.User.ID {
		t.Errorf("attendees = %+v", attendees)
	}
	h.expect(h.call("GET", "/api/events/"+created.ID+"/attendees", guest.AccessToken, nil), fiber.StatusForbidden, nil)

	edit := eventBody("Concierto de otoño", time.Now().Add(72*time.Hour))
	h.expect(h.call("PUT", "/api/events/"+created.ID, guest.AccessToken, edit), fiber.StatusForbidden, nil)
	var updated domain.Event
	h.expect(h.call("PUT", "/api/events/"+created.ID, org.AccessToken, edit), fiber.StatusOK, &updated)
	if updated.Title != "Concierto de otoño" || !updated.HasAttendee(guest.User.ID) {
		t.Errorf("update lost fields: %+v", updated)
	}

	var share domain.ShareLinks
	h.expect(h.call("GET", "/api/events/"+created.ID+"/share", "", nil), fiber.StatusOK, &share)
	if !strings.HasPrefix(share.WhatsApp, "https://wa.me/?text=") || !strings.Contains(share.Text, "Concierto de otoño") {
		t.Errorf("share = %+v", share)
	}

	var left domain.Event
	h.expect(h.call("DELETE", "/api/events/"+created.ID+"/attendance", guest.AccessToken, nil), fiber.StatusOK, &left)
	if left.HasAttendee(guest.User.ID) {
		t.Errorf("guest still attending")
	}

	h.expect(h.call("DELETE", "/api/events/"+created.ID, guest.AccessToken, nil), fiber.StatusForbidden, nil)
	h.expect(h.call("DELETE", "/api/events/"+created.ID, org.AccessToken, nil), fiber.StatusOK, nil)
	h.expect(h.call("GET", "/api/events/"+created.ID, "", nil), fiber.StatusNotFound, nil)
}

func TestCreateEventValidation(t *testing.T) {
	h := newHarness(t)
	org := h.register("Ana", "ana@example.com")

	short := eventBody("Fest", time.Now().Add(time.Hour))
	h.expect(h.call("POST", "/api/events", org.AccessToken, short), fiber.StatusBadRequest, nil)

	badCategory := eventBody("Concierto de verano", time.Now().Add(time.Hour))
	badCategory.Category = "Astrología"
	h.expect(h.call("POST", "/api/events", org.AccessToken, badCategory), fiber.StatusBadRequest, nil)

	var all []domain.Event
	h.expect(h.call("GET", "/api/events", "", nil), fiber.StatusOK, &all)
	if len(all) != 0 {
		t.Errorf("rejected drafts were stored: %+v", all)
	}
}

func TestCommentsOnPastEvent(t *testing.T) {
	h := newHarness(t)
	org := h.register("Ana", "ana@example.com")
	guest := h.register("Beto", "beto@example.com")

	var past domain.Event
	h.expect(h.call("POST", "/api/events", org.AccessToken, eventBody("Concierto de ayer", time.Now().Add(-24*time.Hour))), fiber.StatusCreated, &past)

	h.expect(h.call("POST", "/api/events/"+past.ID+"/comments", org.AccessToken, dto.CommentRequest{Text: "Salió genial", Rating: 5}), fiber.StatusBadRequest, nil)
	h.expect(h.call("POST", "/api/events/"+past.ID+"/comments", guest.AccessToken, dto.CommentRequest{Text: "Buen sonido", Rating: 9}), fiber.StatusBadRequest, nil)

	var c domain.Comment
	h.expect(h.call("POST", "/api/events/"+past.ID+"/comments", guest.AccessToken, dto.CommentRequest{Text: "Buen sonido", Rating: 4}), fiber.StatusCreated, &c)
	if c.UserID != guest.User.ID || c.UserName != "Beto" || c.Rating != 4 {
		t.Errorf("comment = %+v", c)
	}

	var comments []domain.Comment
	h.expect(h.call("GET", "/api/events/"+past.ID+"/comments", "", nil), fiber.StatusOK, &comments)
	if len(comments) != 1 {
		t.Errorf("comments = %+v", comments)
	}

	var e domain.Event
	h.expect(h.call("GET", "/api/events/"+past.ID, "", nil), fiber.StatusOK, &e)
	if e.AverageRating != 4 || e.RatingCount != 1 {
		t.Errorf("rating = %v/%d", e.AverageRating, e.RatingCount)
	}

	sent := h.notifications()
	if len(sent) != 1 || sent[0].Kind != notify.KindNewComment || sent[0].Rating != 4 {
		t.Errorf("notifications = %+v", sent)
	}
}

func TestPublicEndpoints(t *testing.T) {
	h := newHarness(t)

	var health dto.HealthResponse
	h.expect(h.call("GET", "/api/health", "", nil), fiber.StatusOK, &health)
	if health.Status != "ok" {
		t.Errorf("health = %+v", health)
	}

	var categories []string
	h.expect(h.call("GET", "/api/catalog/categories", "", nil), fiber.StatusOK, &categories)
	if len(categories) != len(domain.Categories) {
		t.Errorf("categories = %v", categories)
	}

	var licenses []domain.License
	h.expect(h.call("GET", "/api/catalog/licenses", "", nil), fiber.StatusOK, &licenses)
	if len(licenses) != len(domain.Licenses) {
		t.Errorf("licenses = %v", licenses)
	}

	resp := h.call("GET", "/api/legal/licenses/"+url.PathEscape(domain.LicenseCCBY.Code), "", nil)
	defer resp.Body.Close()
	page, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusOK || !strings.Contains(string(page), domain.LicenseCCBY.FullName) {
		t.Errorf("license page: %d %s", resp.StatusCode, page)
	}
	h.expect(h.call("GET", "/api/legal/privacy", "", nil), fiber.StatusOK, nil)
}
