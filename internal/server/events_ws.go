package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/ugclabs/innova/internal/events"
)

// EventsWSHandler pushes bus events to clients over a websocket.
type EventsWSHandler struct {
	bus *events.Bus
	log zerolog.Logger
}

// NewEventsWSHandler creates a new websocket events handler
func NewEventsWSHandler(bus *events.Bus, log zerolog.Logger) *EventsWSHandler {
	return &EventsWSHandler{
		bus: bus,
		log: log.With().Str("handler", "events_ws").Logger(),
	}
}

// ServeHTTP handles GET /api/events/ws
func (h *EventsWSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	id, ch := h.bus.Subscribe()
	defer h.bus.Unsubscribe(id)

	h.log.Debug().Int("subscriber", id).Msg("Websocket client connected")

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case evt, open := <-ch:
			if !open {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := h.writeEvent(ctx, conn, evt); err != nil {
				h.log.Debug().Err(err).Int("subscriber", id).Msg("Websocket write failed")
				return
			}
		}
	}
}

func (h *EventsWSHandler) writeEvent(ctx context.Context, conn *websocket.Conn, evt events.Event) error {
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return wsjson.Write(writeCtx, conn, evt)
}
