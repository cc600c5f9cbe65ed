package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/stream"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/valyala/fasthttp"
)

const heartbeatInterval = 15 * time.Second

// serveSSE streams every value of sub as a server-sent event. The
// subscription is canceled when the client goes away.
func serveSSE[T any](c *fiber.Ctx, sub *stream.Subscription[T]) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	path := utils.CopyString(c.Path())
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Cancel()
		if err := writeEvents(w, sub, heartbeatInterval); err != nil {
			slog.Debug("sse stream closed", "path", path, "error", err)
		}
	}))
	return nil
}

// writeEvents blocks until the subscription ends or a write fails.
func writeEvents[T any](w *bufio.Writer, sub *stream.Subscription[T], heartbeat time.Duration) error {
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()
	id := 0
	for {
		select {
		case v, ok := <-sub.Updates():
			if !ok {
				if err := sub.Err(); err != nil {
					msg, _ := json.Marshal(map[string]string{"message": err.Error()})
					fmt.Fprintf(w, "event: error\ndata: %s\n\n", msg)
					_ = w.Flush()
				}
				return sub.Err()
			}
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			id++
			if _, err := fmt.Fprintf(w, "id: %d\nevent: snapshot\ndata: %s\n\n", id, data); err != nil {
				return err
			}
			if err := w.Flush(); err != nil {
				return err
			}
		case <-ticker.C:
			if _, err := w.WriteString(": ping\n\n"); err != nil {
				return err
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}
	}
}

// streamContext outlives the handler: fasthttp runs the body writer after
// the handler returns. It carries the caller and is canceled through the
// subscription.
func streamContext(c *fiber.Ctx) context.Context {
	return context.WithoutCancel(c.UserContext())
}
