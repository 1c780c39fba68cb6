//go:build linux

package input

import (
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"sync"
)

// linuxInjector shells out to xdotool, same as the teacher's Linux input
// handler. xdotool addresses keys by X11 keysym name rather than the
// Windows-style virtual key codes the wire protocol carries, so
// keysymForVK covers the ranges a browser client actually sends.
type linuxInjector struct {
	mu                  sync.Mutex
	monLeft, monTop     int32
	monWidth, monHeight uint32
}

func newPlatformInjector() (Injector, error) {
	return &linuxInjector{monWidth: 1920, monHeight: 1080}, nil
}

func (l *linuxInjector) SetMonitorBounds(left, top int32, width, height uint32) {
	l.mu.Lock()
	l.monLeft, l.monTop, l.monWidth, l.monHeight = left, top, width, height
	l.mu.Unlock()
}

func (l *linuxInjector) toAbsolute(xNorm, yNorm float32) (int, int) {
	nx := math.Min(math.Max(float64(xNorm), 0), 1)
	ny := math.Min(math.Max(float64(yNorm), 0), 1)
	l.mu.Lock()
	defer l.mu.Unlock()
	x := int(float64(l.monLeft) + math.Round(nx*(float64(l.monWidth)-1)))
	y := int(float64(l.monTop) + math.Round(ny*(float64(l.monHeight)-1)))
	return x, y
}

func (l *linuxInjector) MouseMove(xNorm, yNorm float32) error {
	x, y := l.toAbsolute(xNorm, yNorm)
	return exec.Command("xdotool", "mousemove", strconv.Itoa(x), strconv.Itoa(y)).Run()
}

func (l *linuxInjector) MouseButton(button MouseButton, down bool, xNorm, yNorm float32) error {
	if err := l.MouseMove(xNorm, yNorm); err != nil {
		return err
	}
	btn := xdotoolButton(button)
	if down {
		return exec.Command("xdotool", "mousedown", btn).Run()
	}
	return exec.Command("xdotool", "mouseup", btn).Run()
}

func xdotoolButton(b MouseButton) string {
	switch b {
	case ButtonRight:
		return "3"
	case ButtonMiddle:
		return "2"
	case ButtonX1:
		return "8"
	case ButtonX2:
		return "9"
	default:
		return "1"
	}
}

func (l *linuxInjector) MouseWheel(deltaX, deltaY int32) error {
	if deltaY != 0 {
		dir, n := "4", deltaY // up
		if deltaY < 0 {
			dir, n = "5", -deltaY
		}
		for i := int32(0); i < n; i++ {
			if err := exec.Command("xdotool", "click", dir).Run(); err != nil {
				return err
			}
		}
	}
	if deltaX != 0 {
		dir, n := "7", deltaX // right
		if deltaX < 0 {
			dir, n = "6", -deltaX
		}
		for i := int32(0); i < n; i++ {
			if err := exec.Command("xdotool", "click", dir).Run(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *linuxInjector) KeyboardKey(keyCode uint16, down bool) error {
	sym, ok := keysymForVK(keyCode)
	if !ok {
		return fmt.Errorf("%w: 0x%X", ErrUnsupportedKey, keyCode)
	}
	if down {
		return exec.Command("xdotool", "keydown", sym).Run()
	}
	return exec.Command("xdotool", "keyup", sym).Run()
}

func (l *linuxInjector) Close() error { return nil }

// keysymForVK maps the Windows-numbered virtual key codes the wire protocol
// carries to X11 keysym names, covering the ranges a browser client emits
// (letters, digits, editing/navigation, function keys).
func keysymForVK(vk uint16) (string, bool) {
	switch {
	case vk >= 'A' && vk <= 'Z':
		return string(rune(vk + ('a' - 'A'))), true
	case vk >= '0' && vk <= '9':
		return string(rune(vk)), true
	case vk >= 0x70 && vk <= 0x7B: // F1-F12
		return "F" + strconv.Itoa(int(vk-0x70+1)), true
	}
	switch vk {
	case 0x0D:
		return "Return", true
	case 0x09:
		return "Tab", true
	case 0x20:
		return "space", true
	case 0x08:
		return "BackSpace", true
	case 0x1B:
		return "Escape", true
	case 0x2E:
		return "Delete", true
	case 0x2D:
		return "Insert", true
	case 0x24:
		return "Home", true
	case 0x23:
		return "End", true
	case 0x21:
		return "Page_Up", true
	case 0x22:
		return "Page_Down", true
	case 0x26:
		return "Up", true
	case 0x28:
		return "Down", true
	case 0x25:
		return "Left", true
	case 0x27:
		return "Right", true
	case 0x10:
		return "shift", true
	case 0x11:
		return "ctrl", true
	case 0x12:
		return "alt", true
	case 0x5B:
		return "super", true
	}
	return "", false
}

var _ Injector = (*linuxInjector)(nil)
