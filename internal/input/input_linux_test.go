//go:build linux

package input

import "testing"

func TestKeysymForVK(t *testing.T) {
	cases := []struct {
		vk   uint16
		want string
	}{
		{0x41, "a"},
		{0x39, "9"},
		{0x70, "F1"},
		{0x0D, "Return"},
	}
	for _, c := range cases {
		got, ok := keysymForVK(c.vk)
		if !ok || got != c.want {
			t.Fatalf("keysymForVK(0x%X) = (%q, %v), want (%q, true)", c.vk, got, ok, c.want)
		}
	}
}

func TestKeysymForVK_Unknown(t *testing.T) {
	if _, ok := keysymForVK(0xFFFF); ok {
		t.Fatalf("expected 0xFFFF to be unmapped")
	}
}
