//go:build windows

package monitor

import (
	"fmt"
	"syscall"
	"unsafe"
)

// Minimal raw-vtable COM calling helpers. DXGI/D3D11 expose classic vtable
// COM interfaces, not IDispatch automation, so this talks to them directly
// through syscall rather than through an automation-oriented COM library.

const (
	vtblQueryInterface = 0
	vtblRelease        = 2

	dxgiDeviceGetAdapter   = 7
	dxgiAdapterEnumOutputs = 7

	d3dDriverTypeHardware = 1
	d3dFeatureLevel11_0   = 0xb000
	d3d11SDKVersion       = 7
)

var (
	d3d11 = syscall.NewLazyDLL("d3d11.dll")

	procD3D11CreateDevice = d3d11.NewProc("D3D11CreateDevice")

	iidIDXGIDevice = guid{0x54ec77fa, 0x1377, 0x44e6, [8]byte{0x8c, 0x32, 0x88, 0xfd, 0x5f, 0x44, 0xc8, 0x4c}}
)

type guid struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
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
