package capture

import "sync"

var nv12Pool = struct {
	mu   sync.Mutex
	pool sync.Pool
	w, h int
}{}

// GetNV12Buffer returns a Y+UV buffer sized for w x h, reused across calls
// at a fixed resolution and reallocated whenever the resolution changes.
func GetNV12Buffer(w, h int) []byte {
	size := w*h + w*h/2
	nv12Pool.mu.Lock()
	if nv12Pool.w == w && nv12Pool.h == h {
		nv12Pool.mu.Unlock()
		if v := nv12Pool.pool.Get(); v != nil {
			if b := v.([]byte); len(b) == size {
				return b
			}
		}
		return make([]byte, size)
	}
	nv12Pool.w, nv12Pool.h = w, h
	nv12Pool.pool = sync.Pool{}
	nv12Pool.mu.Unlock()
	return make([]byte, size)
}

// PutNV12Buffer returns buf to the pool.
func PutNV12Buffer(buf []byte) {
	nv12Pool.pool.Put(buf)
}

// BGRAToNV12 converts BGRA pixel data (as produced by DXGI and most GDI
// paths) to NV12 using BT.601 fixed-point coefficients with studio-range
// clamping (luma 16-235, chroma 16-240). Chroma is subsampled 2x2 using the
// top-left sample of each block.
func BGRAToNV12(bgra []byte, width, height, stride int) []byte {
	return convertToNV12(bgra, width, height, stride, 2, 1, 0)
}

// RGBAToNV12 is BGRAToNV12 with the red/blue channels swapped.
func RGBAToNV12(rgba []byte, width, height, stride int) []byte {
	return convertToNV12(rgba, width, height, stride, 0, 1, 2)
}

// convertToNV12 reads the channel at byte offset rOff/gOff/bOff within each
// 4-byte pixel, so the same loop serves both BGRA and RGBA sources.
func convertToNV12(pix []byte, width, height, stride, rOff, gOff, bOff int) []byte {
	nv12 := GetNV12Buffer(width, height)
	yPlane := nv12[:width*height]
	uvPlane := nv12[width*height:]

	for y := 0; y < height; y++ {
		rowOff := y * stride
		yOff := y * width

		for x := 0; x < width; x++ {
			pi := rowOff + x*4
			r := int(pix[pi+rOff])
			g := int(pix[pi+gOff])
			b := int(pix[pi+bOff])

			yVal := clamp((66*r+129*g+25*b+128)>>8+16, 16, 235)
			yPlane[yOff+x] = byte(yVal)

			if y%2 == 0 && x%2 == 0 {
				uVal := clamp((-38*r-74*g+112*b+128)>>8+128, 16, 240)
				vVal := clamp((112*r-94*g-18*b+128)>>8+128, 16, 240)

				uvIdx := (y/2)*width + (x/2)*2
				if uvIdx+1 < len(uvPlane) {
					uvPlane[uvIdx+0] = byte(uVal)
					uvPlane[uvIdx+1] = byte(vVal)
				}
			}
		}
	}
	return nv12
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
