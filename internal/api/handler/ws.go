package handler

import (
	"net/http"

	"github.com/coder/websocket"

	"github.com/hoopslive/hoops-data/internal/event"
)

// GameEventsSocket accepts game events as JSON text frames over a WebSocket.
// Invalid or malformed frames are logged and dropped; the socket stays open
// and the client gets no error frame back.
func (h *Handler) GameEventsSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closed")

	h.logger.Info("websocket client connected", "remote", r.RemoteAddr)
	ctx := r.Context()

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			h.logger.Info("websocket client disconnected", "remote", r.RemoteAddr)
			conn.Close(websocket.StatusNormalClosure, "")
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		ev, err := event.Decode(data)
		if err != nil {
			h.logger.Error("dropping undecodable game event frame", "error", err)
			continue
		}
		if errs := ev.Validate(); len(errs) > 0 {
			h.logger.Error("dropping invalid game event frame",
				"game_id", ev.GameID, "violations", len(errs))
			continue
		}
		if err := h.publisher.Publish(ctx, ev); err != nil {
			h.logger.Error("failed to publish game event from websocket", "error", err)
			continue
		}
	}
}
