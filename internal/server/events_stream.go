package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ugclabs/innova/internal/events"
)

// EventsStreamHandler pushes bus events to clients over server-sent events.
type EventsStreamHandler struct {
	bus *events.Bus
	log zerolog.Logger
}

// NewEventsStreamHandler creates a new SSE handler
func NewEventsStreamHandler(bus *events.Bus, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		bus: bus,
		log: log.With().Str("handler", "events_stream").Logger(),
	}
}

// ServeHTTP handles GET /api/events/stream. An optional types query parameter
// (comma separated event types) narrows the stream.
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	filter := parseTypeFilter(r.URL.Query().Get("types"))

	id, ch := h.bus.Subscribe()
	defer h.bus.Unsubscribe(id)

	h.log.Debug().Int("subscriber", id).Msg("SSE client connected")

	fmt.Fprintf(w, "data: {\"type\":\"connected\"}\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.log.Debug().Int("subscriber", id).Msg("SSE client disconnected")
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case evt, open := <-ch:
			if !open {
				return
			}
			if filter != nil && !filter[evt.Type] {
				continue
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				h.log.Error().Err(err).Str("type", string(evt.Type)).Msg("Failed to marshal event")
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, payload)
			flusher.Flush()
		}
	}
}

func parseTypeFilter(raw string) map[events.EventType]bool {
	if raw == "" {
		return nil
	}
	filter := make(map[events.EventType]bool)
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			filter[events.EventType(t)] = true
		}
	}
	if len(filter) == 0 {
		return nil
	}
	return filter
}
