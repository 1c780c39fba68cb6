//go:build windows

package session

import "syscall"

var (
	winmm               = syscall.NewLazyDLL("winmm.dll")
	procTimeBeginPeriod = winmm.NewProc("timeBeginPeriod")
	procTimeEndPeriod   = winmm.NewProc("timeEndPeriod")
)

// EnableHighResTimer requests 1ms timer granularity for the process. pace's
// pre-spin sleep needs the OS scheduler tick fine enough that it doesn't
// overshoot past the spinTail window on its own; Windows otherwise defaults
// to a ~15.6ms tick. Call once at process start; call the returned func to
// release the request on shutdown.
func EnableHighResTimer() (disable func()) {
	procTimeBeginPeriod.Call(1)
	return func() { procTimeEndPeriod.Call(1) }
}
