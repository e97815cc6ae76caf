package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/bugboard/internal/models"
)

// Polling and heartbeat intervals for the event stream.
var (
	ssePollInterval      = 3 * time.Second
	sseHeartbeatInterval = 15 * time.Second
)

// bugUpdatedEvent holds data for a bug-updated SSE event.
type bugUpdatedEvent struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Status    models.Status `json:"status"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Created   bool          `json:"created"`
}

// handleSSE streams bug-updated events by polling the store for changed
// UpdatedAt timestamps.
func handleSSE(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		ctx := c.Request.Context()

		// Snapshot current state so only changes after connect are reported.
		seen, err := snapshot(ctx, opts)
		if err != nil {
			opts.Logger.WithError(err).Warn("sse: initial snapshot failed")
			seen = map[string]time.Time{}
		}

		writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
		c.Writer.Flush()

		ticker := time.NewTicker(ssePollInterval)
		heartbeat := time.NewTicker(sseHeartbeatInterval)
		defer ticker.Stop()
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case <-ticker.C:
				bugs, err := opts.Store.List(ctx)
				if err != nil {
					opts.Logger.WithError(err).Warn("sse: poll failed")
					continue
				}
				for _, evt := range changedBugs(seen, bugs) {
					writeSSE(c.Writer, "bug-updated", evt)
				}
				c.Writer.Flush()
			}
		}
	}
}

func snapshot(ctx context.Context, opts StartOpts) (map[string]time.Time, error) {
	bugs, err := opts.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]time.Time, len(bugs))
	for _, b := range bugs {
		seen[b.ID] = b.UpdatedAt
	}
	return seen, nil
}

// changedBugs returns an event for every bug that is new or whose UpdatedAt
// moved since the last poll, and records the new timestamps in seen.
func changedBugs(seen map[string]time.Time, bugs []models.Bug) []bugUpdatedEvent {
	var events []bugUpdatedEvent
	for _, b := range bugs {
		last, ok := seen[b.ID]
		if ok && last.Equal(b.UpdatedAt) {
			continue
		}
		seen[b.ID] = b.UpdatedAt
		events = append(events, bugUpdatedEvent{
			ID:        b.ID,
			Title:     b.Title,
			Status:    b.Status,
			UpdatedAt: b.UpdatedAt,
			Created:   !ok,
		})
	}
	return events
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
