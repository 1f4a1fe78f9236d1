package handler

import (
	"io"
	"net/http"

	"github.com/hoopslive/hoops-data/internal/api/respond"
	"github.com/hoopslive/hoops-data/internal/event"
)

// maxEventBody bounds ingest request bodies. Game events are tiny.
const maxEventBody = 1 << 20

// IngestEvent accepts one game event, validates it, and appends it to the
// durable stream. Validation failures get field-level detail; publish
// failures surface as a bare 500: the event never entered the stream and
// the client must decide whether to resend.
func (h *Handler) IngestEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
	if err != nil {
		respond.WriteJSONObject(w, http.StatusBadRequest, map[string]interface{}{
			"errors": []event.FieldError{{Field: "body", Message: "Unable to read request body"}},
		})
		return
	}

	ev, err := event.Decode(body)
	if err != nil {
		h.logger.Debug("rejected undecodable game event", "error", err)
		respond.WriteJSONObject(w, http.StatusBadRequest, map[string]interface{}{
			"errors": []event.FieldError{{Field: "event", Message: "Malformed game event payload"}},
		})
		return
	}

	if errs := ev.Validate(); len(errs) > 0 {
		respond.WriteJSONObject(w, http.StatusBadRequest, map[string]interface{}{
			"errors": errs,
		})
		return
	}

	h.logger.Info("received game event",
		"game_id", ev.GameID, "player_id", ev.PlayerID, "event", string(ev.Kind))

	if err := h.publisher.Publish(r.Context(), ev); err != nil {
		h.logger.Error("error processing game event", "error", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Error processing game event"))
		return
	}

	w.WriteHeader(http.StatusOK)
}
