//go:build !windows && !linux

package input

// stubInjector is the fallback for platforms without a wired input
// binding; it accepts every call so the session loop can run end-to-end
// in environments with no real input subsystem (e.g. CI, macOS until a
// CGEventPost-based backend is added).
type stubInjector struct {
	monLeft, monTop     int32
	monWidth, monHeight uint32
}

func newPlatformInjector() (Injector, error) {
	return &stubInjector{monWidth: 1920, monHeight: 1080}, nil
}

func (s *stubInjector) SetMonitorBounds(left, top int32, width, height uint32) {
	s.monLeft, s.monTop, s.monWidth, s.monHeight = left, top, width, height
}
func (s *stubInjector) MouseMove(xNorm, yNorm float32) error                         { return nil }
func (s *stubInjector) MouseButton(b MouseButton, down bool, x, y float32) error       { return nil }
func (s *stubInjector) MouseWheel(deltaX, deltaY int32) error                        { return nil }
func (s *stubInjector) KeyboardKey(keyCode uint16, down bool) error                   { return nil }
func (s *stubInjector) Close() error                                                 { return nil }

var _ Injector = (*stubInjector)(nil)
