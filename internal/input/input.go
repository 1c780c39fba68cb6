// Package input translates wire-protocol mouse/keyboard events (normalized
// monitor-relative coordinates and virtual key codes) into OS input events,
// behind a single per-platform Injector.
package input

import "fmt"

// MouseButton identifies which button a MouseButton event targets. The
// session maps the client's wire numbering (0 left, 1 middle, 2 right,
// 3 x1, 4 x2) onto these values.
type MouseButton uint8

const (
	ButtonLeft MouseButton = iota
	ButtonRight
	ButtonMiddle
	ButtonX1
	ButtonX2
)

// Injector delivers input to the OS. A session owns exactly one Injector
// for the monitor it is currently bound to.
type Injector interface {
	// SetMonitorBounds records the captured monitor's placement in the
	// virtual desktop, so normalized (0..1) coordinates can be translated
	// to absolute screen coordinates.
	SetMonitorBounds(left, top int32, width, height uint32)

	// MouseMove moves the pointer to a position normalized to the current
	// monitor's bounds (0,0 = top-left, 1,1 = bottom-right).
	MouseMove(xNorm, yNorm float32) error

	// MouseButton presses or releases button at the given normalized
	// position (the position is applied first, same as the teacher's
	// move-before-press/release ordering, so drag operations land at the
	// correct origin).
	MouseButton(button MouseButton, down bool, xNorm, yNorm float32) error

	// MouseWheel scrolls by deltaX/deltaY wheel units.
	MouseWheel(deltaX, deltaY int32) error

	// KeyboardKey presses or releases the given virtual key code.
	KeyboardKey(keyCode uint16, down bool) error

	Close() error
}

var ErrUnsupportedKey = fmt.Errorf("input: unsupported key code")

// New constructs the platform Injector.
func New() (Injector, error) {
	return newPlatformInjector()
}
