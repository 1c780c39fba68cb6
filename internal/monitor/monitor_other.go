//go:build !windows

package monitor

// listPlatform is a stub on platforms without a wired GPU-duplication
// binding. A single synthetic descriptor keeps the rest of the server
// runnable (e.g. in CI) rather than refusing to start.
func listPlatform() ([]Descriptor, error) {
	return []Descriptor{{
		Name:    "default",
		Width:   1920,
		Height:  1080,
		Primary: true,
	}}, nil
}
