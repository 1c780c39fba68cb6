package capture

import "testing"

func TestCompositeCursor_ColorOutOfBounds(t *testing.T) {
	frame := make([]byte, 4*4*4) // 4x4 BGRA
	shape := &CursorShape{
		Kind:   CursorColor,
		Width:  2,
		Height: 2,
		Pixels: []byte{255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255},
	}
	// Position entirely off the right/bottom edge; must not panic or write.
	CompositeCursor(frame, 4, 4, 16, shape, 10, 10, true)
	for _, b := range frame {
		if b != 0 {
			t.Fatalf("expected untouched frame, got %v", frame)
		}
	}
}

func TestCompositeCursor_NotVisible(t *testing.T) {
	frame := make([]byte, 4*4*4)
	shape := &CursorShape{Kind: CursorColor, Width: 1, Height: 1, Pixels: []byte{1, 2, 3, 255}}
	CompositeCursor(frame, 4, 4, 16, shape, 0, 0, false)
	for _, b := range frame {
		if b != 0 {
			t.Fatalf("expected untouched frame when not visible")
		}
	}
}

func TestCompositeCursor_MaskedColorXOR(t *testing.T) {
	frame := make([]byte, 1*1*4)
	frame[0], frame[1], frame[2], frame[3] = 0x0F, 0xF0, 0xAA, 0xFF
	shape := &CursorShape{Kind: CursorMaskedColor, Width: 1, Height: 1, Pixels: []byte{0xFF, 0x0F, 0x55, 255}}
	CompositeCursor(frame, 1, 1, 4, shape, 0, 0, true)
	if frame[0] != 0x0F^0xFF || frame[1] != 0xF0^0x0F || frame[2] != 0xAA^0x55 {
		t.Fatalf("unexpected XOR composite: %v", frame[:3])
	}
}
