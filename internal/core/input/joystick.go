package input

// JoystickPartial translates a stick displacement from its fixed center into
// a partial control update, the translation the touch joystick widget applies
// before calling Update.
//
// dx and dy are in screen coordinates (y grows downward), so pushing the
// stick up gives a negative dy and sets Forward. Displacement past deadZone
// on an axis sets that axis's directional signal; a diagonal push sets two
// signals at once. All four directional signals are always present in the
// result, so re-centering the stick releases them on the next merge. The raw
// displacement is carried through as the analog axes.
func JoystickPartial(dx, dy, deadZone float64) Partial {
	forward := dy < -deadZone
	backward := dy > deadZone
	left := dx < -deadZone
	right := dx > deadZone

	return Partial{
		Forward:   &forward,
		Backward:  &backward,
		Left:      &left,
		Right:     &right,
		SteerX:    &dx,
		ThrottleY: &dy,
	}
}
