package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldforge/fieldforge/internal/push"
	"github.com/fieldforge/fieldforge/pkg/tenantctx"
)

// StreamPushEvents delivers the caller's realtime events over SSE.
func (s *Server) StreamPushEvents(c *gin.Context) {
	if s.pushHub == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	caller, _ := tenantctx.CallerFromContext(c.Request.Context())
	subscription, backlog, err := s.pushHub.Subscribe(caller.UserID)
	if err != nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	defer subscription.Close()

	writer := c.Writer
	headers := writer.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	flusher, ok := writer.(http.Flusher)
	if !ok {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	if _, err := io.WriteString(writer, "retry: 2000\n\n"); err != nil {
		return
	}

	for _, event := range backlog {
		if err := writePushEvent(writer, event); err != nil {
			return
		}
	}
	flusher.Flush()

	ctx := c.Request.Context()
	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-subscription.Events():
			if err := writePushEvent(writer, event); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := io.WriteString(writer, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writePushEvent(w io.Writer, event push.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Name, data)
	return err
}
