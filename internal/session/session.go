// Package session ties one play session together: a unique identity, the
// control state machine and the loaded level geometry. Sessions live in
// memory only and die with the process.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/driftline/driftline/internal/core/input"
	"github.com/driftline/driftline/internal/core/track"
	"github.com/driftline/driftline/internal/level"
)

type Session struct {
	ID        uuid.UUID
	StartedAt time.Time

	Controls *input.Controls
	Level    *level.Level

	// built once at level load, read-only afterwards
	centerline []track.Point
}

// Start creates a fresh session for a loaded level: new identity, neutral
// controls, centerline built once.
func Start(lvl *level.Level) *Session {
	return &Session{
		ID:         uuid.New(),
		StartedAt:  time.Now(),
		Controls:   input.New(),
		Level:      lvl,
		centerline: lvl.Centerline(),
	}
}

// Centerline returns the track centerline built at session start. Callers
// must not mutate the returned slice.
func (s *Session) Centerline() []track.Point {
	return s.centerline
}

// Restart puts the session back at its starting state for a level restart.
// The identity and geometry survive; only the controls reset.
func (s *Session) Restart() {
	s.Controls.Reset()
}
