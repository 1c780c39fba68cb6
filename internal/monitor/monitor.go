// Package monitor enumerates connected displays once at process start and
// exposes the resulting dense, read-only list to the rest of the server.
package monitor

import (
	"encoding/json"

	"github.com/lanternops/streamd/internal/wire"
)

// Descriptor is the in-process representation of a connected display.
// Immutable after Enumerate returns.
type Descriptor struct {
	Index   uint32
	Name    string
	Left    int32
	Top     int32
	Width   uint32
	Height  uint32
	Primary bool
}

func (d Descriptor) toWire() wire.MonitorDescriptor {
	return wire.MonitorDescriptor{
		Index:   d.Index,
		Name:    d.Name,
		Left:    d.Left,
		Top:     d.Top,
		Width:   d.Width,
		Height:  d.Height,
		Primary: d.Primary,
	}
}

// Registry is the process-wide, read-only monitor list shared by every
// session. It is built once at startup and never mutated afterward, so it
// needs no lock beyond what's required to publish it safely to goroutines
// started after construction (a plain pointer suffices since all writes
// happen before any session reads).
type Registry struct {
	descriptors []Descriptor
	listJSON    json.RawMessage
}

// Enumerate discovers connected displays in OS-declared order and builds the
// Registry. Enumeration failure yields an empty list rather than an error —
// display-less servers are supported.
func Enumerate() *Registry {
	raw, err := listPlatform()
	if err != nil || len(raw) == 0 {
		raw = nil
	}

	descs := make([]Descriptor, len(raw))
	wireDescs := make([]wire.MonitorDescriptor, len(raw))
	for i, d := range raw {
		d.Index = uint32(i)
		descs[i] = d
		wireDescs[i] = d.toWire()
	}

	payload, err := json.Marshal(wireDescs)
	if err != nil {
		payload = []byte("[]")
	}

	r := &Registry{descriptors: descs, listJSON: payload}
	return r
}

// List returns the full dense monitor list. The returned slice must not be
// mutated by callers.
func (r *Registry) List() []Descriptor {
	return r.descriptors
}

// ListJSON returns the pre-serialized JSON array used as the MonitorList
// wire frame payload.
func (r *Registry) ListJSON() json.RawMessage {
	return r.listJSON
}

// ByIndex returns the descriptor at index and whether it exists.
func (r *Registry) ByIndex(index uint32) (Descriptor, bool) {
	if int(index) < 0 || int(index) >= len(r.descriptors) {
		return Descriptor{}, false
	}
	return r.descriptors[index], true
}
