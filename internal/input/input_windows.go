//go:build windows

package input

import (
	"fmt"
	"math"
	"sync"
	"syscall"
	"unsafe"
)

var (
	user32           = syscall.NewLazyDLL("user32.dll")
	procSendInput    = user32.NewProc("SendInput")
	procGetSysMetric = user32.NewProc("GetSystemMetrics")
)

const (
	inputMouse    = 0
	inputKeyboard = 1

	mouseeventfMove       = 0x0001
	mouseeventfLeftDown   = 0x0002
	mouseeventfLeftUp     = 0x0004
	mouseeventfRightDown  = 0x0008
	mouseeventfRightUp    = 0x0010
	mouseeventfMiddleDown = 0x0020
	mouseeventfMiddleUp   = 0x0040
	mouseeventfXDown      = 0x0080
	mouseeventfXUp        = 0x0100
	mouseeventfWheel      = 0x0800
	mouseeventfHWheel     = 0x1000
	mouseeventfAbsolute   = 0x8000
	mouseeventfVirtualDesk = 0x4000

	xbutton1 = 0x0001
	xbutton2 = 0x0002

	keyeventfExtendedKey = 0x0001
	keyeventfKeyUp       = 0x0002

	smXVirtualScreen  = 76
	smYVirtualScreen  = 77
	smCXVirtualScreen = 78
	smCYVirtualScreen = 79
)

type mouseInput struct {
	dx, dy      int32
	mouseData   uint32
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

type keybdInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

// rawInput mirrors the variable-length Windows INPUT struct, sized to the
// larger of MOUSEINPUT/KEYBDINPUT (both are padded to the same union size
// on amd64).
type rawInput struct {
	inputType uint32
	_         [4]byte
	data      [32]byte
}

type windowsInjector struct {
	mu                        sync.Mutex
	monLeft, monTop           int32
	monWidth, monHeight       uint32
}

func newPlatformInjector() (Injector, error) {
	return &windowsInjector{monWidth: 1920, monHeight: 1080}, nil
}

func (w *windowsInjector) SetMonitorBounds(left, top int32, width, height uint32) {
	w.mu.Lock()
	w.monLeft, w.monTop, w.monWidth, w.monHeight = left, top, width, height
	w.mu.Unlock()
}

// toAbsolute converts a normalized (monitor-relative) coordinate to the
// 0..65535 virtual-screen-relative coordinate SendInput's
// MOUSEEVENTF_ABSOLUTE|MOUSEEVENTF_VIRTUALDESK expects.
func (w *windowsInjector) toAbsolute(xNorm, yNorm float32) (int32, int32) {
	nx := math.Min(math.Max(float64(xNorm), 0), 1)
	ny := math.Min(math.Max(float64(yNorm), 0), 1)
	w.mu.Lock()
	screenX := float64(w.monLeft) + math.Round(nx*(float64(w.monWidth)-1))
	screenY := float64(w.monTop) + math.Round(ny*(float64(w.monHeight)-1))
	w.mu.Unlock()

	vx, _, _ := procGetSysMetric.Call(smXVirtualScreen)
	vy, _, _ := procGetSysMetric.Call(smYVirtualScreen)
	cw, _, _ := procGetSysMetric.Call(smCXVirtualScreen)
	ch, _, _ := procGetSysMetric.Call(smCYVirtualScreen)
	if int32(cw) <= 1 || int32(ch) <= 1 {
		return 0, 0
	}

	absX := int32(((screenX - float64(int32(vx))) * 65535) / float64(int32(cw)-1))
	absY := int32(((screenY - float64(int32(vy))) * 65535) / float64(int32(ch)-1))
	return absX, absY
}

func (w *windowsInjector) sendMouse(flags uint32, dx, dy int32, mouseData uint32) error {
	inp := rawInput{inputType: inputMouse}
	mi := (*mouseInput)(unsafe.Pointer(&inp.data))
	mi.dx, mi.dy = dx, dy
	mi.dwFlags = flags
	mi.mouseData = mouseData

	ret, _, _ := procSendInput.Call(1, uintptr(unsafe.Pointer(&inp)), unsafe.Sizeof(inp))
	if ret == 0 {
		return fmt.Errorf("input: SendInput (mouse) failed")
	}
	return nil
}

func (w *windowsInjector) MouseMove(xNorm, yNorm float32) error {
	x, y := w.toAbsolute(xNorm, yNorm)
	return w.sendMouse(mouseeventfMove|mouseeventfAbsolute|mouseeventfVirtualDesk, x, y, 0)
}

func (w *windowsInjector) MouseButton(button MouseButton, down bool, xNorm, yNorm float32) error {
	if err := w.MouseMove(xNorm, yNorm); err != nil {
		return err
	}

	var flags uint32
	var data uint32
	switch button {
	case ButtonLeft:
		flags = pick(down, mouseeventfLeftDown, mouseeventfLeftUp)
	case ButtonRight:
		flags = pick(down, mouseeventfRightDown, mouseeventfRightUp)
	case ButtonMiddle:
		flags = pick(down, mouseeventfMiddleDown, mouseeventfMiddleUp)
	case ButtonX1:
		flags = pick(down, mouseeventfXDown, mouseeventfXUp)
		data = xbutton1
	case ButtonX2:
		flags = pick(down, mouseeventfXDown, mouseeventfXUp)
		data = xbutton2
	default:
		return fmt.Errorf("input: unknown mouse button %d", button)
	}
	return w.sendMouse(flags, 0, 0, data)
}

func pick(cond bool, a, b uint32) uint32 {
	if cond {
		return a
	}
	return b
}

func (w *windowsInjector) MouseWheel(deltaX, deltaY int32) error {
	if deltaY != 0 {
		if err := w.sendMouse(mouseeventfWheel, 0, 0, uint32(deltaY*120)); err != nil {
			return err
		}
	}
	if deltaX != 0 {
		if err := w.sendMouse(mouseeventfHWheel, 0, 0, uint32(deltaX*120)); err != nil {
			return err
		}
	}
	return nil
}

func (w *windowsInjector) KeyboardKey(keyCode uint16, down bool) error {
	inp := rawInput{inputType: inputKeyboard}
	ki := (*keybdInput)(unsafe.Pointer(&inp.data))
	ki.wVk = keyCode
	if down {
		ki.dwFlags = 0
	} else {
		ki.dwFlags = keyeventfKeyUp
	}
	if isExtendedKey(keyCode) {
		ki.dwFlags |= keyeventfExtendedKey
	}

	ret, _, _ := procSendInput.Call(1, uintptr(unsafe.Pointer(&inp)), unsafe.Sizeof(inp))
	if ret == 0 {
		return fmt.Errorf("input: SendInput (keyboard) failed for vk=0x%X", keyCode)
	}
	return nil
}

// isExtendedKey mirrors the set of VKs requiring KEYEVENTF_EXTENDEDKEY: the
// navigation cluster (arrows, Page Up/Down, Home/End, Insert/Delete), numpad
// divide, the Windows keys, Num Lock, Scroll Lock and Print Screen.
func isExtendedKey(vk uint16) bool {
	switch vk {
	case 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27, 0x28, 0x2D, 0x2E, 0x5B, 0x5C, 0x6F, 0x90, 0x91, 0x2C:
		return true
	}
	return false
}

func (w *windowsInjector) Close() error { return nil }

var _ Injector = (*windowsInjector)(nil)
