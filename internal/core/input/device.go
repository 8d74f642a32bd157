package input

import "sync/atomic"

// Probe is one boolean environment query, e.g. "does the client report a
// touch-start capability" or "does a coarse-pointer media query match".
type Probe func() bool

// TouchDetector caches the answer to "is this a touch-capable device".
//
// The fact is the OR of all probes: touch support is declared present if any
// signal indicates it. The cached value is computed synchronously at
// construction and recomputed only on Refresh, which the surrounding layer
// wires to viewport-resize events (a convertible toggling pointer mode).
// Redundant refreshes are harmless.
type TouchDetector struct {
	probes []Probe
	touch  atomic.Bool
}

func NewTouchDetector(probes ...Probe) *TouchDetector {
	d := &TouchDetector{probes: probes}
	d.Refresh()
	return d
}

// Touch reports the cached capability fact.
func (d *TouchDetector) Touch() bool {
	return d.touch.Load()
}

// Refresh recomputes the fact from the probes and returns the new value.
func (d *TouchDetector) Refresh() bool {
	touch := false
	for _, probe := range d.probes {
		if probe() {
			touch = true
			break
		}
	}
	d.touch.Store(touch)
	return touch
}
