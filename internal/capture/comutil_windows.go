//go:build windows

package capture

import (
	"fmt"
	"syscall"
	"unsafe"
)

// Same minimal raw-vtable COM calling convention used by the monitor
// package: DXGI/D3D11 interfaces are vtable COM, not IDispatch automation.

const (
	vtblQueryInterface = 0
	vtblRelease        = 2

	dxgiDeviceGetAdapter   = 7
	dxgiAdapterEnumOutputs = 7
	dxgiOutputDuplicate    = 22 // IDXGIOutput1::DuplicateOutput

	dxgiDuplGetDesc              = 7
	dxgiDuplAcquireNextFrame     = 8
	dxgiDuplGetFramePointerShape = 11
	dxgiDuplReleaseFrame         = 14

	d3dDriverTypeHardware = 1
	d3dFeatureLevel11_0   = 0xb000
	d3d11SDKVersion       = 7

	d3d11DeviceCreateTexture2D = 5  // ID3D11Device
	d3d11CtxMap                = 14 // ID3D11DeviceContext
	d3d11CtxUnmap              = 15 // ID3D11DeviceContext
	d3d11CtxCopyResource       = 47 // ID3D11DeviceContext

	d3d11UsageStaging  = 3
	d3d11CPUAccessRead = 0x20000
	dxgiFormatB8G8R8A8 = 87
	d3d11MapRead       = 1

	// DXGI_OUTDUPL_POINTER_SHAPE_TYPE values.
	dxgiOutduplPointerShapeTypeMonochrome = 1
	dxgiOutduplPointerShapeTypeColor      = 2
	dxgiOutduplPointerShapeTypeMaskedColor = 4

	dxgiErrorWaitTimeout = 0x887A0027
	dxgiErrorAccessLost  = 0x887A0026
	dxgiErrorNotFound    = 0x887A0002
)

var (
	d3d11                 = syscall.NewLazyDLL("d3d11.dll")
	procD3D11CreateDevice = d3d11.NewProc("D3D11CreateDevice")

	iidIDXGIDevice     = guid{0x54ec77fa, 0x1377, 0x44e6, [8]byte{0x8c, 0x32, 0x88, 0xfd, 0x5f, 0x44, 0xc8, 0x4c}}
	iidIDXGIOutput1    = guid{0x00cddea8, 0x939b, 0x4b83, [8]byte{0xa3, 0x40, 0xa6, 0x85, 0x22, 0x66, 0x66, 0xcc}}
	iidID3D11Texture2D = guid{0x6f15aaf2, 0xd208, 0x4e89, [8]byte{0x9a, 0xb4, 0x48, 0x95, 0x35, 0xd3, 0x4f, 0x9c}}
)

type guid struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// d3d11Texture2DDesc mirrors D3D11_TEXTURE2D_DESC.
type d3d11Texture2DDesc struct {
	Width          uint32
	Height         uint32
	MipLevels      uint32
	ArraySize      uint32
	Format         uint32
	SampleCount    uint32 // DXGI_SAMPLE_DESC.Count
	SampleQuality  uint32 // DXGI_SAMPLE_DESC.Quality
	Usage          uint32
	BindFlags      uint32
	CPUAccessFlags uint32
	MiscFlags      uint32
}

// d3d11MappedSubresource mirrors D3D11_MAPPED_SUBRESOURCE.
type d3d11MappedSubresource struct {
	PData      uintptr
	RowPitch   uint32
	DepthPitch uint32
}

type dxgiRational struct {
	Numerator   uint32
	Denominator uint32
}

// dxgiModeDesc mirrors DXGI_MODE_DESC.
type dxgiModeDesc struct {
	Width            uint32
	Height           uint32
	RefreshRate      dxgiRational
	Format           uint32
	ScanlineOrdering uint32
	Scaling          uint32
}

// dxgiOutDuplDesc mirrors DXGI_OUTDUPL_DESC; Rotation reports the
// DXGI_MODE_ROTATION the duplicated output is displayed at (1=identity,
// 2=90°, 3=180°, 4=270°), needed to undo it on readback.
type dxgiOutDuplDesc struct {
	ModeDesc                   dxgiModeDesc
	Rotation                   uint32
	DesktopImageInSystemMemory int32 // BOOL
}

// dxgiOutduplPointerShapeInfo mirrors DXGI_OUTDUPL_POINTER_SHAPE_INFO.
type dxgiOutduplPointerShapeInfo struct {
	Type    uint32
	Width   uint32
	Height  uint32
	Pitch   uint32
	HotspotX int32
	HotspotY int32
}

func comVtblFn(obj uintptr, index int) uintptr {
	vtbl := *(*uintptr)(unsafe.Pointer(obj))
	return *(*uintptr)(unsafe.Pointer(vtbl + uintptr(index)*unsafe.Sizeof(uintptr(0))))
}

func comCall(obj uintptr, vtblIndex int, args ...uintptr) (uintptr, error) {
	callArgs := append([]uintptr{obj}, args...)
	hr, _, _ := syscall.SyscallN(comVtblFn(obj, vtblIndex), callArgs...)
	if int32(hr) < 0 {
		return hr, fmt.Errorf("COM call failed: hr=0x%08X", uint32(hr))
	}
	return hr, nil
}

func comRelease(obj uintptr) {
	if obj == 0 {
		return
	}
	syscall.SyscallN(comVtblFn(obj, vtblRelease), obj)
}
