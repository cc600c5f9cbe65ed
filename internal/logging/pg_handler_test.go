package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/models"
)

type captureSink struct {
	mu   sync.Mutex
	logs []models.SystemLog
}

func (s *captureSink) Write(batch []models.SystemLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, batch...)
	return nil
}

func (s *captureSink) all() []models.SystemLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SystemLog(nil), s.logs...)
}

func TestPGHandlerPromotesKnownKeys(t *testing.T) {
	sink := &captureSink{}
	h := NewPGHandler(sink, time.Hour)
	logger := slog.New(h).With("op", "events.create")

	logger.Info("ignored")
	logger.Error("write failed", "user_id", "u1", "event_id", "e1", "error", "boom", "attempt", 2)
	h.Stop()

	logs := sink.all()
	if len(logs) != 1 {
		t.Fatalf("expected 1 persisted record, got %d", len(logs))
	}
	l := logs[0]
	if l.Op != "events.create" || l.Error != "boom" || *l.UserID != "u1" || *l.EventID != "e1" {
		t.Fatalf("known keys not promoted: %+v", l)
	}
	var extra map[string]any
	if err := json.Unmarshal(l.Extra, &extra); err != nil || extra["attempt"] != float64(2) {
		t.Fatalf("extra = %s (%v)", l.Extra, err)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	h := NewPGHandler(&captureSink{}, time.Hour)
	h.Stop()
	h.Stop()
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("sink down")
}

func TestMultiHandlerContinuesAfterFailure(t *testing.T) {
	var buf bytes.Buffer
	out := slog.NewJSONHandler(&buf, nil)
	logger := slog.New(NewMultiHandler(failingHandler{}, out))
	logger.Info("hello", "k", "v")
	if !bytes.Contains(buf.Bytes(), []byte(`"msg":"hello"`)) {
		t.Fatalf("second handler skipped: %s", buf.String())
	}
}

func TestSetupLevel(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	setup(&buf, "production").Debug("hidden")
	if buf.Len() != 0 {
		t.Fatal("debug logged in production")
	}
	setup(&buf, "development").Debug("shown")
	if buf.Len() == 0 {
		t.Fatal("debug not logged in development")
	}
}
