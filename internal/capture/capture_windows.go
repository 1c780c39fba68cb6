//go:build windows

package capture

import (
	"fmt"
	"sync"
	"syscall"
	"unsafe"
)

// dxgiOutdupFrameInfo mirrors DXGI_OUTDUPL_FRAME_INFO.
type dxgiOutdupFrameInfo struct {
	LastPresentTime           int64
	LastMouseUpdateTime       int64
	AccumulatedFrames         uint32
	RectsCoalesced            int32
	ProtectedContentMaskedOut int32
	PointerPositionX          int32
	PointerPositionY          int32
	PointerVisible            int32
	TotalMetadataBufferSize   uint32
	PointerShapeBufferSize    uint32
}

// dxgiCapturer implements Capturer via DXGI Output Duplication. It owns a
// D3D11 device, the duplication handle for one output, and a CPU-readable
// staging texture sized to the native (pre-rotation) scan-out dimensions —
// DXGI always hands back textures in native orientation, so readback undoes
// rotation into the logical (post-rotation) width/height callers see.
type dxgiCapturer struct {
	mu sync.Mutex

	device      uintptr
	context     uintptr
	duplication uintptr
	output      uintptr
	staging     uintptr // ID3D11Texture2D, D3D11_USAGE_STAGING, CPU-readable

	width, height     int // logical (post-rotation) dimensions
	texWidth, texHeight int // native (pre-rotation) dimensions, what DXGI hands back
	rotation          uint32 // DXGI_MODE_ROTATION: 1=identity, 2=90, 3=180, 4=270
	timeoutMS         int    // AcquireNextFrame wait, from Config.TimeoutMS

	lastCursorX, lastCursorY int32
	lastCursorVisible        bool
	cursorShape              *CursorShape
	shapeBuf                 []byte // reused scratch buffer for GetFramePointerShape

	accumulated uint32
	deviceLost  bool
}

func newPlatformCapturer(cfg Config) (Capturer, error) {
	// Device creation mirrors monitor.listPlatform's sequence; a capturer
	// creates its own device rather than sharing the monitor package's,
	// since it must keep the device alive for the session's lifetime.
	var device, context uintptr
	featureLevel := uint32(d3dFeatureLevel11_0)
	var actualLevel uint32

	hr, _, _ := procD3D11CreateDevice.Call(
		0,
		uintptr(d3dDriverTypeHardware),
		0, 0,
		uintptr(unsafe.Pointer(&featureLevel)), 1,
		uintptr(d3d11SDKVersion),
		uintptr(unsafe.Pointer(&device)),
		uintptr(unsafe.Pointer(&actualLevel)),
		uintptr(unsafe.Pointer(&context)),
	)
	if int32(hr) < 0 {
		return nil, fmt.Errorf("D3D11CreateDevice failed: 0x%08X", uint32(hr))
	}

	output, width, height, err := findOutput(device, cfg.MonitorIndex)
	if err != nil {
		comRelease(context)
		comRelease(device)
		return nil, err
	}

	var output1 uintptr
	if _, err := comCall(output, vtblQueryInterface,
		uintptr(unsafe.Pointer(&iidIDXGIOutput1)),
		uintptr(unsafe.Pointer(&output1)),
	); err != nil {
		comRelease(output)
		comRelease(context)
		comRelease(device)
		return nil, fmt.Errorf("QueryInterface IDXGIOutput1: %w", err)
	}
	comRelease(output)

	var duplication uintptr
	if _, err := comCall(output1, dxgiOutputDuplicate,
		device,
		uintptr(unsafe.Pointer(&duplication)),
	); err != nil {
		comRelease(output1)
		comRelease(context)
		comRelease(device)
		return nil, fmt.Errorf("DuplicateOutput: %w", err)
	}

	// GetDesc reports the DXGI_MODE_ROTATION the duplicated output is
	// currently displayed at. DXGI acquires textures in native (pre-rotation)
	// orientation regardless, so a 90/270 rotation means the native texture's
	// width/height are swapped relative to the logical desktop dimensions
	// findOutput already resolved.
	var duplDesc dxgiOutDuplDesc
	if _, err := comCall(duplication, dxgiDuplGetDesc, uintptr(unsafe.Pointer(&duplDesc))); err != nil {
		comRelease(duplication)
		comRelease(output1)
		comRelease(context)
		comRelease(device)
		return nil, fmt.Errorf("IDXGIOutputDuplication::GetDesc: %w", err)
	}

	texWidth, texHeight := width, height
	if duplDesc.Rotation == 2 || duplDesc.Rotation == 4 {
		texWidth, texHeight = height, width
	}

	stagingDesc := d3d11Texture2DDesc{
		Width:          uint32(texWidth),
		Height:         uint32(texHeight),
		MipLevels:      1,
		ArraySize:      1,
		Format:         dxgiFormatB8G8R8A8,
		SampleCount:    1,
		SampleQuality:  0,
		Usage:          d3d11UsageStaging,
		BindFlags:      0,
		CPUAccessFlags: d3d11CPUAccessRead,
		MiscFlags:      0,
	}
	var staging uintptr
	if _, err := comCall(device, d3d11DeviceCreateTexture2D,
		uintptr(unsafe.Pointer(&stagingDesc)),
		0, // pInitialData
		uintptr(unsafe.Pointer(&staging)),
	); err != nil {
		comRelease(duplication)
		comRelease(output1)
		comRelease(context)
		comRelease(device)
		return nil, fmt.Errorf("CreateTexture2D staging: %w", err)
	}

	return &dxgiCapturer{
		device:      device,
		context:     context,
		duplication: duplication,
		output:      output1,
		staging:     staging,
		width:       width,
		height:      height,
		texWidth:    texWidth,
		texHeight:   texHeight,
		rotation:    duplDesc.Rotation,
		timeoutMS:   cfg.TimeoutMS,
	}, nil
}

func findOutput(device uintptr, index int) (output uintptr, width, height int, err error) {
	var dxgiDevice uintptr
	if _, err := comCall(device, vtblQueryInterface,
		uintptr(unsafe.Pointer(&iidIDXGIDevice)),
		uintptr(unsafe.Pointer(&dxgiDevice)),
	); err != nil {
		return 0, 0, 0, fmt.Errorf("QueryInterface IDXGIDevice: %w", err)
	}
	defer comRelease(dxgiDevice)

	var adapter uintptr
	if _, err := comCall(dxgiDevice, dxgiDeviceGetAdapter, uintptr(unsafe.Pointer(&adapter))); err != nil {
		return 0, 0, 0, fmt.Errorf("IDXGIDevice::GetAdapter: %w", err)
	}
	defer comRelease(adapter)

	hr, _, _ := syscall.SyscallN(comVtblFn(adapter, dxgiAdapterEnumOutputs), adapter, uintptr(index), uintptr(unsafe.Pointer(&output)))
	if int32(hr) < 0 {
		return 0, 0, 0, fmt.Errorf("EnumOutputs(%d): 0x%08X", index, uint32(hr))
	}

	var desc dxgiOutputDesc
	hr, _, _ = syscall.SyscallN(comVtblFn(output, dxgiOutputGetDesc), output, uintptr(unsafe.Pointer(&desc)))
	if int32(hr) < 0 {
		comRelease(output)
		return 0, 0, 0, fmt.Errorf("GetDesc: 0x%08X", uint32(hr))
	}

	return output, int(desc.Right - desc.Left), int(desc.Bottom - desc.Top), nil
}

// dxgiOutputDesc mirrors DXGI_OUTPUT_DESC, shared layout with the monitor
// package's copy (kept separate per-package to avoid a cross-package
// dependency for a 40-byte struct).
type dxgiOutputDesc struct {
	DeviceName        [32]uint16
	Left              int32
	Top               int32
	Right             int32
	Bottom            int32
	AttachedToDesktop int32
	Rotation          uint32
	Monitor           uintptr
}

const dxgiOutputGetDesc = 7

func (c *dxgiCapturer) Capture() (*Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.deviceLost {
		return nil, ErrDeviceLost
	}

	var info dxgiOutdupFrameInfo
	var resource uintptr
	hr, _, _ := syscall.SyscallN(comVtblFn(c.duplication, dxgiDuplAcquireNextFrame), c.duplication,
		uintptr(c.timeoutMS), // ceil(1000/fps)+1, computed by the session
		uintptr(unsafe.Pointer(&info)),
		uintptr(unsafe.Pointer(&resource)),
	)
	switch {
	case uint32(hr) == dxgiErrorWaitTimeout:
		return nil, nil
	case uint32(hr) == dxgiErrorAccessLost:
		c.deviceLost = true
		return nil, ErrDeviceLost
	case int32(hr) < 0:
		return nil, fmt.Errorf("AcquireNextFrame: 0x%08X", uint32(hr))
	}
	defer syscall.SyscallN(comVtblFn(c.duplication, dxgiDuplReleaseFrame), c.duplication)
	defer comRelease(resource)

	if info.PointerPositionX != c.lastCursorX || info.PointerPositionY != c.lastCursorY || (info.PointerVisible != 0) != c.lastCursorVisible {
		c.lastCursorX = info.PointerPositionX
		c.lastCursorY = info.PointerPositionY
		c.lastCursorVisible = info.PointerVisible != 0
	}
	if info.PointerShapeBufferSize > 0 {
		if shape, err := c.fetchCursorShape(info.PointerShapeBufferSize); err == nil {
			c.cursorShape = shape
		}
	}

	c.accumulated = info.AccumulatedFrames
	if info.AccumulatedFrames == 0 {
		return nil, nil
	}

	// QueryInterface the acquired IDXGIResource to the ID3D11Texture2D DXGI
	// hands back, then copy it GPU-side into the persistent staging texture
	// so it can be mapped for CPU readback.
	var texture uintptr
	if _, err := comCall(resource, vtblQueryInterface,
		uintptr(unsafe.Pointer(&iidID3D11Texture2D)),
		uintptr(unsafe.Pointer(&texture)),
	); err != nil {
		return nil, fmt.Errorf("QueryInterface ID3D11Texture2D: %w", err)
	}

	// CopyResource is void — no HRESULT return. Errors surface via a failed
	// Map on the staging texture below.
	syscall.SyscallN(comVtblFn(c.context, d3d11CtxCopyResource), c.context, c.staging, texture)
	comRelease(texture)

	var mapped d3d11MappedSubresource
	hr, _, _ = syscall.SyscallN(
		comVtblFn(c.context, d3d11CtxMap),
		c.context,
		c.staging,
		0, // Subresource
		d3d11MapRead,
		0, // MapFlags
		uintptr(unsafe.Pointer(&mapped)),
	)
	if int32(hr) < 0 {
		return nil, fmt.Errorf("Map staging texture: 0x%08X", uint32(hr))
	}

	stride := c.width * 4
	buf := make([]byte, stride*c.height)
	rowPitch := int(mapped.RowPitch)

	if c.rotation == 2 || c.rotation == 3 || c.rotation == 4 {
		c.readRotated(mapped.PData, rowPitch, buf, stride)
	} else if rowPitch == stride {
		src := unsafe.Slice((*byte)(unsafe.Pointer(mapped.PData)), c.height*rowPitch)
		copy(buf, src)
	} else {
		for y := 0; y < c.height; y++ {
			srcRow := unsafe.Slice((*byte)(unsafe.Pointer(mapped.PData+uintptr(y*rowPitch))), stride)
			copy(buf[y*stride:], srcRow)
		}
	}

	syscall.SyscallN(comVtblFn(c.context, d3d11CtxUnmap), c.context, c.staging, 0)

	CompositeCursor(buf, c.width, c.height, stride, c.cursorShape, c.lastCursorX, c.lastCursorY, c.lastCursorVisible)

	return &Frame{
		Pix:    buf,
		Stride: stride,
		Width:  c.width,
		Height: c.height,
	}, nil
}

// readRotated reads pixels from mapped GPU memory (native, pre-rotation
// orientation) into dst (logical, post-rotation orientation), undoing the
// duplicated output's rotation the way the session's coordinate invariant
// requires: src = rot⁻¹(dst).
func (c *dxgiCapturer) readRotated(pData uintptr, rowPitch int, dst []byte, dstStride int) {
	srcW, srcH := c.texWidth, c.texHeight

	if c.rotation == 2 {
		// 90°: desktop(ox, oy) = native(oy, srcH-1-ox).
		for oy := 0; oy < c.height; oy++ {
			sx := oy
			for ox := 0; ox < c.width; ox++ {
				sy := srcH - 1 - ox
				srcOff := uintptr(sy*rowPitch + sx*4)
				dstOff := oy*dstStride + ox*4
				*(*[4]byte)(unsafe.Pointer(&dst[dstOff])) = *(*[4]byte)(unsafe.Pointer(pData + srcOff))
			}
		}
		return
	}

	if c.rotation == 3 {
		// 180°: desktop(ox, oy) = native(srcW-1-ox, srcH-1-oy).
		for oy := 0; oy < c.height; oy++ {
			sy := srcH - 1 - oy
			for ox := 0; ox < c.width; ox++ {
				sx := srcW - 1 - ox
				srcOff := uintptr(sy*rowPitch + sx*4)
				dstOff := oy*dstStride + ox*4
				*(*[4]byte)(unsafe.Pointer(&dst[dstOff])) = *(*[4]byte)(unsafe.Pointer(pData + srcOff))
			}
		}
		return
	}

	// 270°: desktop(ox, oy) = native(srcW-1-oy, ox).
	for oy := 0; oy < c.height; oy++ {
		sx := srcW - 1 - oy
		for ox := 0; ox < c.width; ox++ {
			sy := ox
			srcOff := uintptr(sy*rowPitch + sx*4)
			dstOff := oy*dstStride + ox*4
			*(*[4]byte)(unsafe.Pointer(&dst[dstOff])) = *(*[4]byte)(unsafe.Pointer(pData + srcOff))
		}
	}
}

// fetchCursorShape calls IDXGIOutputDuplication::GetFramePointerShape and
// converts the result to the kind-tagged CursorShape the compositor expects.
// Called only when the just-acquired frame reports a nonzero
// PointerShapeBufferSize, i.e. the shape changed since the last frame.
func (c *dxgiCapturer) fetchCursorShape(bufSize uint32) (*CursorShape, error) {
	if uint32(len(c.shapeBuf)) < bufSize {
		c.shapeBuf = make([]byte, bufSize)
	}

	var info dxgiOutduplPointerShapeInfo
	var required uint32
	if _, err := comCall(c.duplication, dxgiDuplGetFramePointerShape,
		uintptr(bufSize),
		uintptr(unsafe.Pointer(&c.shapeBuf[0])),
		uintptr(unsafe.Pointer(&required)),
		uintptr(unsafe.Pointer(&info)),
	); err != nil {
		return nil, fmt.Errorf("GetFramePointerShape: %w", err)
	}

	shape := &CursorShape{
		Width:    int(info.Width),
		Height:   int(info.Height),
		HotspotX: int(info.HotspotX),
		HotspotY: int(info.HotspotY),
	}

	switch info.Type {
	case dxgiOutduplPointerShapeTypeColor:
		shape.Kind = CursorColor
		shape.Pixels = append([]byte(nil), c.shapeBuf[:required]...)
	case dxgiOutduplPointerShapeTypeMaskedColor:
		shape.Kind = CursorMaskedColor
		shape.Pixels = append([]byte(nil), c.shapeBuf[:required]...)
	case dxgiOutduplPointerShapeTypeMonochrome:
		// DXGI reports Height as AND-plane-plus-XOR-plane combined; the
		// compositor's shape.Height is the cursor's actual displayed height.
		shape.Kind = CursorMonochrome
		shape.Height = int(info.Height) / 2
		shape.Pixels = append([]byte(nil), c.shapeBuf[:required]...)
	default:
		return nil, fmt.Errorf("unknown pointer shape type %d", info.Type)
	}

	return shape, nil
}

func (c *dxgiCapturer) Bounds() (int, int) {
	return c.width, c.height
}

func (c *dxgiCapturer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	comRelease(c.staging)
	comRelease(c.duplication)
	comRelease(c.output)
	comRelease(c.context)
	comRelease(c.device)
	return nil
}

func (c *dxgiCapturer) IsBGRA() bool      { return true }
func (c *dxgiCapturer) TightLoop() bool   { return true }
func (c *dxgiCapturer) AccumulatedFrames() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accumulated
}
func (c *dxgiCapturer) CursorPosition() (x, y int32, visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastCursorX, c.lastCursorY, c.lastCursorVisible
}

var (
	_ Capturer        = (*dxgiCapturer)(nil)
	_ BGRAProvider    = (*dxgiCapturer)(nil)
	_ TightLoopHint   = (*dxgiCapturer)(nil)
	_ FrameChangeHint = (*dxgiCapturer)(nil)
	_ CursorProvider  = (*dxgiCapturer)(nil)
)
