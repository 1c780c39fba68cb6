// Package capture abstracts per-frame screen acquisition behind a single
// interface implemented by a platform-specific backend, selected once at
// process start from the monitor the session is bound to.
package capture

import (
	"fmt"
)

// Frame is a single captured desktop image together with the metadata the
// encoder and session loop need to decide whether to encode it.
type Frame struct {
	// Pix holds raw pixel bytes. BGRA unless IsBGRA() on the originating
	// Capturer reports false, in which case it is RGBA.
	Pix    []byte
	Stride int
	Width  int
	Height int
}

// Capturer acquires frames for a single monitor. Implementations are not
// required to be safe for concurrent use; the session loop owns one
// Capturer per client and drives it from a single goroutine.
type Capturer interface {
	// Capture blocks for up to timeout waiting for a new frame. It returns
	// (nil, nil) on a timeout with no new frame, so callers can distinguish
	// "nothing changed" from a hard error.
	Capture() (*Frame, error)

	// Bounds returns the full captured surface's width and height.
	Bounds() (width, height int)

	// Close releases any backend resources (GPU device, duplication
	// handle, X11 connection).
	Close() error
}

// Config selects which monitor to capture and at what cadence.
type Config struct {
	MonitorIndex int
	TimeoutMS    int // capture wait timeout, see session package for the ceil(1000/fps)+1 formula
}

// New constructs the platform capturer for Config.
func New(cfg Config) (Capturer, error) {
	return newPlatformCapturer(cfg)
}

// BGRAProvider is implemented by capturers that natively produce BGRA pixel
// data. The encoder uses this to skip a BGRA->RGBA swap and convert directly
// to NV12.
type BGRAProvider interface {
	IsBGRA() bool
}

// TightLoopHint is implemented by capturers that internally block waiting
// for the next frame (e.g. DXGI AcquireNextFrame). The session loop uses
// this to run a tight capture loop instead of a fixed-interval ticker.
type TightLoopHint interface {
	TightLoop() bool
}

// FrameChangeHint is implemented by capturers that can report how many
// frames have accumulated since the last Capture without a pixel-level
// diff. A count of zero lets the caller skip encoding entirely.
type FrameChangeHint interface {
	AccumulatedFrames() uint32
}

// TextureProvider is implemented by capturers that can hand back a raw GPU
// texture handle for a zero-copy path into a hardware encoder.
type TextureProvider interface {
	CaptureTexture() (texture uintptr, err error)
	ReleaseTexture()
	D3D11Device() uintptr
	D3D11Context() uintptr
}

// CursorProvider is implemented by capturers that can report the system
// cursor position independent of the captured frame, so the viewer can
// render the cursor as a local overlay at input rate instead of frame rate.
type CursorProvider interface {
	CursorPosition() (x, y int32, visible bool)
}

// DesktopSwitchNotifier is implemented by capturers that detect Windows
// desktop-session transitions (Default <-> Winlogon/Screen-saver), so the
// session can force a keyframe and reset input offsets across the switch.
type DesktopSwitchNotifier interface {
	ConsumeDesktopSwitch() bool
	OnSecureDesktop() bool
}

var (
	ErrNotSupported    = fmt.Errorf("capture: not supported on this platform")
	ErrDisplayNotFound = fmt.Errorf("capture: display not found")
	ErrDeviceLost      = fmt.Errorf("capture: device lost, backend must be recreated")
)
