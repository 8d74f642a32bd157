package input

import (
	"sync"
	"sync/atomic"
)

// Snapshot is the complete control state at one instant: every discrete
// button signal plus the analog stick axes. The signal set is closed; a
// signal that is not a field here does not exist.
type Snapshot struct {
	Forward  bool `json:"forward"`
	Backward bool `json:"backward"`
	Left     bool `json:"left"`
	Right    bool `json:"right"`
	Drift    bool `json:"drift"`
	Item     bool `json:"item"`
	Reset    bool `json:"reset"`

	// Stick displacement, neutral at 0 (centered). Read by the simulation
	// tick only; never part of button-change detection.
	SteerX    float64 `json:"steerX"`
	ThrottleY float64 `json:"throttleY"`
}

// Buttons is the discrete subset of a Snapshot, the part that drives visible
// button styling.
type Buttons struct {
	Forward  bool `json:"forward"`
	Backward bool `json:"backward"`
	Left     bool `json:"left"`
	Right    bool `json:"right"`
	Drift    bool `json:"drift"`
	Item     bool `json:"item"`
	Reset    bool `json:"reset"`
}

// Buttons projects the discrete signals out of a snapshot.
func (s Snapshot) Buttons() Buttons {
	return Buttons{
		Forward:  s.Forward,
		Backward: s.Backward,
		Left:     s.Left,
		Right:    s.Right,
		Drift:    s.Drift,
		Item:     s.Item,
		Reset:    s.Reset,
	}
}

// Partial is a partial control update: any subset of the signal set. A nil
// field leaves that signal untouched. Because signals are struct fields and
// not name keys, an unknown signal cannot be expressed at all.
type Partial struct {
	Forward  *bool `json:"forward,omitempty"`
	Backward *bool `json:"backward,omitempty"`
	Left     *bool `json:"left,omitempty"`
	Right    *bool `json:"right,omitempty"`
	Drift    *bool `json:"drift,omitempty"`
	Item     *bool `json:"item,omitempty"`
	Reset    *bool `json:"reset,omitempty"`

	SteerX    *float64 `json:"steerX,omitempty"`
	ThrottleY *float64 `json:"throttleY,omitempty"`
}

func (p Partial) apply(s Snapshot) Snapshot {
	if p.Forward != nil {
		s.Forward = *p.Forward
	}
	if p.Backward != nil {
		s.Backward = *p.Backward
	}
	if p.Left != nil {
		s.Left = *p.Left
	}
	if p.Right != nil {
		s.Right = *p.Right
	}
	if p.Drift != nil {
		s.Drift = *p.Drift
	}
	if p.Item != nil {
		s.Item = *p.Item
	}
	if p.Reset != nil {
		s.Reset = *p.Reset
	}
	if p.SteerX != nil {
		s.SteerX = *p.SteerX
	}
	if p.ThrottleY != nil {
		s.ThrottleY = *p.ThrottleY
	}
	return s
}

// Controls owns the authoritative control snapshot for one play session.
//
// Updates merge last-writer-wins and publish atomically, so the simulation
// tick always reads the most recent merge without blocking. Observers are
// notified only when a discrete signal actually changed value; analog-only
// updates stay silent. There is one logical writer (the input event source);
// reads may come from any goroutine.
type Controls struct {
	current atomic.Pointer[Snapshot]
	version atomic.Uint64

	mu        sync.Mutex
	observers []func(Snapshot)
}

// New returns a control state machine with every signal at its initial
// value: all buttons released, stick centered.
func New() *Controls {
	c := &Controls{}
	c.current.Store(&Snapshot{})
	return c
}

// Snapshot returns the current authoritative state. Never blocks, never
// writes.
func (c *Controls) Snapshot() Snapshot {
	return *c.current.Load()
}

// Version returns the number of writes applied so far. Useful for resync
// checks and tests; one Update or Reset is exactly one version step.
func (c *Controls) Version() uint64 {
	return c.version.Load()
}

// Update merges a partial set of signal changes into the snapshot,
// unconditionally and last-writer-wins per signal. Value ranges are not
// validated here. Observers fire iff at least one discrete signal changed;
// an analog-only change is published silently.
func (c *Controls) Update(p Partial) {
	prev := *c.current.Load()
	next := p.apply(prev)

	c.current.Store(&next)
	c.version.Add(1)

	if next.Buttons() != prev.Buttons() {
		c.notify(next)
	}
}

// Reset restores every signal, discrete and analog, to its initial value and
// always notifies observers. Used when the controlling pointer lifts
// off-screen, a level restarts, or a reset action is invoked.
func (c *Controls) Reset() {
	next := Snapshot{}
	c.current.Store(&next)
	c.version.Add(1)
	c.notify(next)
}

// Notify registers an observer for discrete-signal changes. Observers run
// synchronously in the frame that triggered them, in registration order.
func (c *Controls) Notify(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

func (c *Controls) notify(s Snapshot) {
	c.mu.Lock()
	observers := make([]func(Snapshot), len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	for _, fn := range observers {
		fn(s)
	}
}
