package server

import "github.com/driftline/driftline/internal/core/input"

// Client → server message types.
const (
	msgUpdate   = "update"   // partial signal update, signal fields inline
	msgJoystick = "joystick" // raw stick displacement, mapped server-side
	msgRelease  = "release"  // controlling pointer lifted off-screen
	msgResize   = "resize"   // viewport resized, environment signals attached
)

// Server → client message types.
const (
	msgHello   = "hello"   // sent once after connect
	msgButtons = "buttons" // discrete state changed, restyle the UI
	msgDevice  = "device"  // touch capability recomputed
)

// clientMessage is every inbound message shape in one envelope; Type selects
// which fields are meaningful. The embedded Partial keeps the signal set
// closed: unknown signal names have nowhere to decode into.
type clientMessage struct {
	Type string `json:"type"`

	input.Partial

	// joystick displacement from the stick center, screen coordinates
	DX float64 `json:"dx,omitempty"`
	DY float64 `json:"dy,omitempty"`

	// environment signals reported with resize
	TouchStart    bool `json:"touchStart,omitempty"`
	TouchPoints   int  `json:"touchPoints,omitempty"`
	CoarsePointer bool `json:"coarsePointer,omitempty"`
}

// helloMessage resyncs a fresh connection: identity, level and the current
// button state, so a client that replaces another starts from the
// authoritative styling rather than all-unpressed.
type helloMessage struct {
	Type     string `json:"type"`
	Session  string `json:"session"`
	Level    string `json:"level"`
	Checksum uint64 `json:"checksum"`
	Touch    bool   `json:"touch"`

	input.Buttons
}

type buttonsMessage struct {
	Type string `json:"type"`

	input.Buttons
}

type deviceMessage struct {
	Type  string `json:"type"`
	Touch bool   `json:"touch"`
}
