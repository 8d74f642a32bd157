// Package server exposes the control core to the touch UI client. The
// gateway is the only mutation path into the control state machine: the UI
// sends signal-level input messages over a WebSocket, the gateway merges them
// and pushes button-state notifications back so the client can restyle
// pressed buttons.
package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/driftline/driftline/internal/core/input"
	"github.com/driftline/driftline/internal/core/observability/log"
	"github.com/driftline/driftline/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// same-origin policy is the embedding app's concern, not the core's
	CheckOrigin: func(*http.Request) bool { return true },
}

// client is one connected UI; writes are serialized per connection.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// environment holds the capability signals the UI last reported. The touch
// detector's probes read from here.
type environment struct {
	mu            sync.Mutex
	touchStart    bool
	touchPoints   int
	coarsePointer bool
}

// Gateway serves one play session to one UI client at a time. A second
// /input connection supersedes the first.
type Gateway struct {
	sess     *session.Session
	detector *input.TouchDetector
	deadZone float64
	logger   log.Log

	env environment

	// serializes control writes: during supersession the displaced
	// connection's read loop can overlap the new one for a moment, and
	// Controls itself assumes a single logical writer.
	writeMu sync.Mutex

	mu      sync.Mutex
	current *client
}

func NewGateway(sess *session.Session, deadZone float64, logger log.Log) *Gateway {
	g := &Gateway{
		sess:     sess,
		deadZone: deadZone,
		logger:   logger,
	}
	g.detector = input.NewTouchDetector(
		func() bool { g.env.mu.Lock(); defer g.env.mu.Unlock(); return g.env.touchStart },
		func() bool { g.env.mu.Lock(); defer g.env.mu.Unlock(); return g.env.touchPoints > 0 },
		func() bool { g.env.mu.Lock(); defer g.env.mu.Unlock(); return g.env.coarsePointer },
	)

	// the UI re-render channel: one push per discrete change
	sess.Controls.Notify(func(s input.Snapshot) {
		g.push(buttonsMessage{Type: msgButtons, Buttons: s.Buttons()})
	})

	return g
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/input":
		g.handleInput(w, r)
	case "/state":
		g.handleState(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (g *Gateway) handleInput(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("websocket upgrade failed", log.Error(err))
		return
	}

	c := &client{conn: conn}
	displaced := g.attach(c)
	g.logger.Info("ui client connected",
		log.String("remote", conn.RemoteAddr().String()),
		log.String("session", g.sess.ID.String()),
	)

	hello := helloMessage{
		Type:     msgHello,
		Session:  g.sess.ID.String(),
		Level:    g.sess.Level.Name,
		Checksum: g.sess.Level.Checksum(),
		Touch:    g.detector.Touch(),
		Buttons:  g.sess.Controls.Snapshot().Buttons(),
	}
	if err := c.send(hello); err != nil {
		g.logger.Error("hello write failed", log.Error(err))
		g.detach(c)
		conn.Close()
		if displaced {
			g.resetControls()
		}
		return
	}

	if displaced {
		// the old controller's held buttons must not keep driving the kart;
		// the reset's push also hands the new client a clean button state
		g.resetControls()
		g.logger.Info("ui client superseded, controls reset")
	}

	g.readLoop(c)
}

func (g *Gateway) readLoop(c *client) {
	defer func() {
		c.conn.Close()
		if g.detach(c) {
			// the controlling client is gone, same as the pointer lifting
			g.resetControls()
			g.logger.Info("ui client disconnected, controls reset")
		}
	}()

	for {
		var msg clientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		g.handleMessage(c, msg)
	}
}

func (g *Gateway) handleMessage(c *client, msg clientMessage) {
	switch msg.Type {
	case msgUpdate:
		g.applyUpdate(msg.Partial)
	case msgJoystick:
		g.applyUpdate(input.JoystickPartial(msg.DX, msg.DY, g.deadZone))
	case msgRelease:
		g.resetControls()
	case msgResize:
		g.env.mu.Lock()
		g.env.touchStart = msg.TouchStart
		g.env.touchPoints = msg.TouchPoints
		g.env.coarsePointer = msg.CoarsePointer
		g.env.mu.Unlock()

		touch := g.detector.Refresh()
		if err := c.send(deviceMessage{Type: msgDevice, Touch: touch}); err != nil {
			g.logger.Error("device write failed", log.Error(err))
		}
	default:
		g.logger.Warn("unknown input message type", log.String("type", msg.Type))
	}
}

// stateResponse is the /state diagnostics payload.
type stateResponse struct {
	Session  string         `json:"session"`
	Level    string         `json:"level"`
	Checksum uint64         `json:"checksum"`
	Touch    bool           `json:"touch"`
	Version  uint64         `json:"version"`
	Controls input.Snapshot `json:"controls"`
}

func (g *Gateway) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := stateResponse{
		Session:  g.sess.ID.String(),
		Level:    g.sess.Level.Name,
		Checksum: g.sess.Level.Checksum(),
		Touch:    g.detector.Touch(),
		Version:  g.sess.Controls.Version(),
		Controls: g.sess.Controls.Snapshot(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		g.logger.Error("state write failed", log.Error(err))
	}
}

func (g *Gateway) applyUpdate(p input.Partial) {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	g.sess.Controls.Update(p)
}

func (g *Gateway) resetControls() {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	g.sess.Controls.Reset()
}

// attach makes c the controlling client and reports whether it displaced a
// live one.
func (g *Gateway) attach(c *client) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	displaced := g.current != nil
	if displaced {
		g.current.conn.Close()
	}
	g.current = c
	return displaced
}

// detach clears the current client if it is still c and reports whether it
// was.
func (g *Gateway) detach(c *client) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current != c {
		return false
	}
	g.current = nil
	return true
}

func (g *Gateway) push(v any) {
	g.mu.Lock()
	c := g.current
	g.mu.Unlock()

	if c == nil {
		return
	}
	if err := c.send(v); err != nil {
		g.logger.Error("push failed", log.Error(err))
	}
}
