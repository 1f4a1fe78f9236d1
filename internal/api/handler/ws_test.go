package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopslive/hoops-data/internal/event"
)

// chanPublisher hands published events to the test goroutine. The socket
// handler runs on the server goroutine, so a plain slice would race.
type chanPublisher struct {
	events chan event.GameEvent
}

func (p *chanPublisher) Publish(ctx context.Context, ev event.GameEvent) error {
	p.events <- ev
	return nil
}

func (p *chanPublisher) next(t *testing.T) event.GameEvent {
	t.Helper()
	select {
	case ev := <-p.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a published event")
		return event.GameEvent{}
	}
}

func TestGameEventsSocketDropsInvalidFramesAndStaysOpen(t *testing.T) {
	pub := &chanPublisher{events: make(chan event.GameEvent, 4)}
	h := New(pub, &fakeReader{}, &passthroughCache{}, nil, nil, discardLogger())

	srv := httptest.NewServer(http.HandlerFunc(h.GameEventsSocket))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Malformed JSON, a failing value rule, and a binary frame: all dropped
	// without closing the socket or surfacing an error frame.
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{not json`)))
	require.NoError(t, conn.Write(ctx, websocket.MessageText,
		[]byte(`{"version":1,"gameId":"2025110101","teamId":"BOS","playerId":"jt0","event":"point","value":5}`)))
	require.NoError(t, conn.Write(ctx, websocket.MessageBinary, []byte{0x01, 0x02}))

	require.NoError(t, conn.Write(ctx, websocket.MessageText,
		[]byte(`{"version":1,"gameId":"2025110101","teamId":"BOS","playerId":"jt0","event":"point","value":3}`)))

	ev := pub.next(t)
	assert.Equal(t, event.StatPoint, ev.Kind)
	assert.Equal(t, float64(3), ev.Value)

	// The connection survived the bad frames: a second valid event still
	// flows through the same socket.
	require.NoError(t, conn.Write(ctx, websocket.MessageText,
		[]byte(`{"version":2,"gameId":"2025110101","teamId":"BOS","playerId":"jb7","event":"rebound","value":7}`)))

	ev = pub.next(t)
	assert.Equal(t, event.StatRebound, ev.Kind)
	assert.Equal(t, "jb7", ev.PlayerID)
}
