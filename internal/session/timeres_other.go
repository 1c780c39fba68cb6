//go:build !windows

package session

// EnableHighResTimer is a no-op outside Windows: the platforms this builds
// for otherwise already tick well under the pacing bound's 1ms budget.
func EnableHighResTimer() (disable func()) {
	return func() {}
}
