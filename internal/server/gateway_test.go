package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftline/driftline/internal/core/input"
	"github.com/driftline/driftline/internal/core/observability/log"
	"github.com/driftline/driftline/internal/level"
	"github.com/driftline/driftline/internal/session"
)

func newTestGateway(t *testing.T) (*Gateway, *session.Session) {
	t.Helper()
	lvl, err := level.Decode(strings.NewReader(`
name: test-loop
world_scale: 10
path:
  - {gx: 0, gz: 0}
  - {gx: 1, gz: 0}
`))
	require.NoError(t, err)

	sess := session.Start(lvl)
	return NewGateway(sess, 10, log.Provide()), sess
}

func dialInput(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/input"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestGateway_HelloOnConnect(t *testing.T) {
	gw, sess := newTestGateway(t)
	srv := httptest.NewServer(gw)
	defer srv.Close()

	conn := dialInput(t, srv)

	hello := readMessage(t, conn)
	assert.Equal(t, "hello", hello["type"])
	assert.Equal(t, sess.ID.String(), hello["session"])
	assert.Equal(t, "test-loop", hello["level"])
	assert.Equal(t, false, hello["touch"])
	assert.Equal(t, false, hello["forward"], "hello carries the current button state")
	assert.Equal(t, false, hello["drift"])
}

func TestGateway_UpdatePushesButtonsOnDiscreteChangeOnly(t *testing.T) {
	gw, sess := newTestGateway(t)
	srv := httptest.NewServer(gw)
	defer srv.Close()

	conn := dialInput(t, srv)
	readMessage(t, conn) // hello

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "update", "forward": true}))
	msg := readMessage(t, conn)
	assert.Equal(t, "buttons", msg["type"])
	assert.Equal(t, true, msg["forward"])
	assert.Equal(t, false, msg["drift"])

	// analog-only: merged silently, so the next push on the wire belongs to
	// the drift update that follows
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "update", "steerX": 0.5}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "update", "drift": true}))

	msg = readMessage(t, conn)
	assert.Equal(t, "buttons", msg["type"])
	assert.Equal(t, true, msg["drift"])

	s := sess.Controls.Snapshot()
	assert.Equal(t, 0.5, s.SteerX, "analog value merged even though nothing was pushed for it")
	assert.True(t, s.Forward)
}

func TestGateway_JoystickMapping(t *testing.T) {
	gw, sess := newTestGateway(t)
	srv := httptest.NewServer(gw)
	defer srv.Close()

	conn := dialInput(t, srv)
	readMessage(t, conn) // hello

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "joystick", "dx": -30.0, "dy": -40.0}))

	msg := readMessage(t, conn)
	assert.Equal(t, "buttons", msg["type"])
	assert.Equal(t, true, msg["forward"])
	assert.Equal(t, true, msg["left"])
	assert.Equal(t, false, msg["backward"])
	assert.Equal(t, false, msg["right"])

	s := sess.Controls.Snapshot()
	assert.Equal(t, -30.0, s.SteerX)
	assert.Equal(t, -40.0, s.ThrottleY)
}

func TestGateway_ReleaseResets(t *testing.T) {
	gw, sess := newTestGateway(t)
	srv := httptest.NewServer(gw)
	defer srv.Close()

	conn := dialInput(t, srv)
	readMessage(t, conn) // hello

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "joystick", "dx": 50.0, "dy": 0.0}))
	readMessage(t, conn) // buttons: right held

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "release"}))
	msg := readMessage(t, conn)
	assert.Equal(t, "buttons", msg["type"])
	assert.Equal(t, false, msg["right"])

	assert.Equal(t, input.Snapshot{}, sess.Controls.Snapshot())
}

func TestGateway_ResizeRecomputesTouch(t *testing.T) {
	gw, _ := newTestGateway(t)
	srv := httptest.NewServer(gw)
	defer srv.Close()

	conn := dialInput(t, srv)
	readMessage(t, conn) // hello

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "resize", "coarsePointer": true}))
	msg := readMessage(t, conn)
	assert.Equal(t, "device", msg["type"])
	assert.Equal(t, true, msg["touch"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "resize"}))
	msg = readMessage(t, conn)
	assert.Equal(t, "device", msg["type"])
	assert.Equal(t, false, msg["touch"])
}

func TestGateway_SecondConnectionSupersedes(t *testing.T) {
	gw, _ := newTestGateway(t)
	srv := httptest.NewServer(gw)
	defer srv.Close()

	first := dialInput(t, srv)
	readMessage(t, first) // hello

	second := dialInput(t, srv)
	readMessage(t, second) // hello
	readMessage(t, second) // buttons push from the supersede reset

	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	var discard map[string]any
	assert.Error(t, first.ReadJSON(&discard), "superseded connection gets closed")

	// the surviving connection still drives the controls
	require.NoError(t, second.WriteJSON(map[string]any{"type": "update", "item": true}))
	msg := readMessage(t, second)
	assert.Equal(t, "buttons", msg["type"])
	assert.Equal(t, true, msg["item"])
}

func TestGateway_SupersedeClearsHeldButtons(t *testing.T) {
	gw, sess := newTestGateway(t)
	srv := httptest.NewServer(gw)
	defer srv.Close()

	first := dialInput(t, srv)
	readMessage(t, first) // hello

	require.NoError(t, first.WriteJSON(map[string]any{"type": "update", "drift": true}))
	readMessage(t, first) // buttons: drift held

	// a page reload while drift is held: the new connection replaces the old
	second := dialInput(t, srv)
	hello := readMessage(t, second)
	assert.Equal(t, "hello", hello["type"])
	assert.Equal(t, true, hello["drift"], "hello resyncs the authoritative button state")

	msg := readMessage(t, second)
	assert.Equal(t, "buttons", msg["type"])
	assert.Equal(t, false, msg["drift"], "replaced controller's held buttons are released")

	assert.Equal(t, input.Snapshot{}, sess.Controls.Snapshot())
}

func TestGateway_ControlWritesAreSerialized(t *testing.T) {
	gw, sess := newTestGateway(t)

	const writes = 200
	held := true

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < writes; i++ {
			gw.applyUpdate(input.Partial{Forward: &held})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < writes; i++ {
			gw.applyUpdate(input.Partial{Backward: &held})
		}
	}()
	wg.Wait()

	s := sess.Controls.Snapshot()
	assert.True(t, s.Forward, "no merge may be lost to an overlapping writer")
	assert.True(t, s.Backward)
	assert.Equal(t, uint64(2*writes), sess.Controls.Version())
}

func TestGateway_DisconnectResetsControls(t *testing.T) {
	gw, sess := newTestGateway(t)
	srv := httptest.NewServer(gw)
	defer srv.Close()

	conn := dialInput(t, srv)
	readMessage(t, conn) // hello

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "update", "forward": true}))
	readMessage(t, conn)
	conn.Close()

	assert.Eventually(t, func() bool {
		return sess.Controls.Snapshot() == input.Snapshot{}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGateway_StateEndpoint(t *testing.T) {
	gw, sess := newTestGateway(t)
	srv := httptest.NewServer(gw)
	defer srv.Close()

	held := true
	sess.Controls.Update(input.Partial{Backward: &held})

	resp, err := http.Get(srv.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var state stateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, sess.ID.String(), state.Session)
	assert.Equal(t, "test-loop", state.Level)
	assert.Equal(t, sess.Level.Checksum(), state.Checksum)
	assert.Equal(t, uint64(1), state.Version)
	assert.True(t, state.Controls.Backward)
}

func TestGateway_UnknownPath(t *testing.T) {
	gw, _ := newTestGateway(t)
	srv := httptest.NewServer(gw)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
