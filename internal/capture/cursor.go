package capture

// CursorShapeKind is the tag of the CursorShape sum type. The compositor
// branches on this value rather than using Go interface dispatch, mirroring
// the integer-discriminant union the GPU shader pattern-matches on.
type CursorShapeKind int

const (
	CursorColor CursorShapeKind = iota
	CursorMaskedColor
	CursorMonochrome
)

// CursorShape is a captured hardware cursor, rebuilt whenever the capture
// source reports a shape change. Pixels holds the kind-specific payload:
//
//   - CursorColor: premultiplied-alpha 32bpp BGRA, len == Width*Height*4.
//   - CursorMaskedColor: 32bpp BGRA where alpha 0 means "keep destination",
//     255 means "XOR destination with RGB", and anything else alpha-blends.
//   - CursorMonochrome: two stacked 1-bit planes (AND mask then XOR mask),
//     each row-padded to a 4-byte boundary per the Windows AND/XOR cursor
//     mask convention; len == 2 * ((Width+31)/32*4) * Height.
type CursorShape struct {
	Kind     CursorShapeKind
	Width    int
	Height   int
	HotspotX int
	HotspotY int
	Pixels   []byte
}

// Rotation is the inverse-rotation applied to the scan-out frame before
// composite, expressed the same way the constant buffer in the GPU pass
// does: 0, 90, 180, 270 degrees clockwise.
type Rotation int

const (
	Rotate0 Rotation = iota
	Rotate90
	Rotate180
	Rotate270
)

// CompositeCursor draws shape onto a BGRA frame buffer (stride bytes per
// row) at pos, following the rule for its Kind. visible=false is a no-op.
// This is the CPU-path equivalent of the shader compositor described for
// GPU backends; Capturer implementations without their own GPU compositor
// call this after acquiring the raw frame.
func CompositeCursor(frame []byte, width, height, stride int, shape *CursorShape, posX, posY int32, visible bool) {
	if !visible || shape == nil || len(shape.Pixels) == 0 {
		return
	}

	originX := int(posX) - shape.HotspotX
	originY := int(posY) - shape.HotspotY

	switch shape.Kind {
	case CursorColor:
		compositeColor(frame, width, height, stride, shape, originX, originY)
	case CursorMaskedColor:
		compositeMaskedColor(frame, width, height, stride, shape, originX, originY)
	case CursorMonochrome:
		compositeMonochrome(frame, width, height, stride, shape, originX, originY)
	}
}

func compositeColor(frame []byte, width, height, stride int, shape *CursorShape, originX, originY int) {
	for sy := 0; sy < shape.Height; sy++ {
		dy := originY + sy
		if dy < 0 || dy >= height {
			continue
		}
		for sx := 0; sx < shape.Width; sx++ {
			dx := originX + sx
			if dx < 0 || dx >= width {
				continue
			}
			si := (sy*shape.Width + sx) * 4
			alpha := int(shape.Pixels[si+3])
			if alpha == 0 {
				continue
			}
			di := dy*stride + dx*4
			for c := 0; c < 3; c++ {
				src := int(shape.Pixels[si+c])
				dst := int(frame[di+c])
				frame[di+c] = byte((src*255 + dst*(255-alpha)) / 255)
			}
		}
	}
}

func compositeMaskedColor(frame []byte, width, height, stride int, shape *CursorShape, originX, originY int) {
	for sy := 0; sy < shape.Height; sy++ {
		dy := originY + sy
		if dy < 0 || dy >= height {
			continue
		}
		for sx := 0; sx < shape.Width; sx++ {
			dx := originX + sx
			if dx < 0 || dx >= width {
				continue
			}
			si := (sy*shape.Width + sx) * 4
			alpha := int(shape.Pixels[si+3])
			di := dy*stride + dx*4
			switch alpha {
			case 0:
				continue
			case 255:
				for c := 0; c < 3; c++ {
					frame[di+c] ^= shape.Pixels[si+c]
				}
			default:
				for c := 0; c < 3; c++ {
					src := int(shape.Pixels[si+c])
					dst := int(frame[di+c])
					frame[di+c] = byte((src*alpha + dst*(255-alpha)) / 255)
				}
			}
		}
	}
}

func compositeMonochrome(frame []byte, width, height, stride int, shape *CursorShape, originX, originY int) {
	rowBytes := ((shape.Width + 31) / 32) * 4
	planeSize := rowBytes * shape.Height
	if len(shape.Pixels) < 2*planeSize {
		return
	}
	andMask := shape.Pixels[:planeSize]
	xorMask := shape.Pixels[planeSize : 2*planeSize]

	for sy := 0; sy < shape.Height; sy++ {
		dy := originY + sy
		if dy < 0 || dy >= height {
			continue
		}
		for sx := 0; sx < shape.Width; sx++ {
			dx := originX + sx
			if dx < 0 || dx >= width {
				continue
			}
			bitIdx := sy*rowBytes*8 + sx
			andBit := (andMask[bitIdx/8] >> (7 - uint(bitIdx%8))) & 1
			xorBit := (xorMask[bitIdx/8] >> (7 - uint(bitIdx%8))) & 1

			di := dy*stride + dx*4
			for c := 0; c < 3; c++ {
				v := frame[di+c]
				if andBit == 0 {
					v = 0
				}
				if xorBit == 1 {
					v ^= 0xFF
				}
				frame[di+c] = v
			}
		}
	}
}
