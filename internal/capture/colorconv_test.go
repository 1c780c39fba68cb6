package capture

import "testing"

func TestRGBAToNV12_2x2(t *testing.T) {
	// 2x2 RGBA pixels, row-major: (0,0)=red (1,0)=green (0,1)=blue (1,1)=white
	rgba := []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 255, 255, 255, 255,
	}

	nv12 := RGBAToNV12(rgba, 2, 2, 2*4)
	defer PutNV12Buffer(nv12)

	if len(nv12) != 6 {
		t.Fatalf("expected nv12 length 6, got %d", len(nv12))
	}

	want := []byte{
		82, 144,
		41, 235,
		90, 240,
	}
	for i := range want {
		if nv12[i] != want[i] {
			t.Fatalf("byte[%d]: expected %d, got %d (nv12=%v)", i, want[i], nv12[i], nv12)
		}
	}
}

func TestBGRAToNV12_2x2(t *testing.T) {
	// Same colors as the RGBA test, byte-swapped to BGRA order.
	bgra := []byte{
		0, 0, 255, 255, 0, 255, 0, 255,
		255, 0, 0, 255, 255, 255, 255, 255,
	}

	nv12 := BGRAToNV12(bgra, 2, 2, 2*4)
	defer PutNV12Buffer(nv12)

	want := []byte{
		82, 144,
		41, 235,
		90, 240,
	}
	for i := range want {
		if nv12[i] != want[i] {
			t.Fatalf("byte[%d]: expected %d, got %d (nv12=%v)", i, want[i], nv12[i], nv12)
		}
	}
}

func TestBGRAToNV12_OddStride(t *testing.T) {
	// 2x1 image padded to a 16-byte stride (simulates a DXGI staging
	// texture row pitch wider than width*4).
	bgra := make([]byte, 16)
	copy(bgra[0:4], []byte{0, 0, 255, 255}) // red
	copy(bgra[4:8], []byte{0, 255, 0, 255}) // green

	nv12 := BGRAToNV12(bgra, 2, 1, 16)
	defer PutNV12Buffer(nv12)

	if len(nv12) != 3 {
		t.Fatalf("expected nv12 length 3, got %d", len(nv12))
	}
	if nv12[0] != 82 || nv12[1] != 144 {
		t.Fatalf("unexpected Y plane: %v", nv12[:2])
	}
}
