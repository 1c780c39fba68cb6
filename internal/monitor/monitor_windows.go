//go:build windows

package monitor

import (
	"fmt"
	"log/slog"
	"syscall"
	"unsafe"
)

// dxgiOutputDesc mirrors DXGI_OUTPUT_DESC:
//
//	WCHAR DeviceName[32]     — 64 bytes
//	RECT  DesktopCoordinates — 16 bytes (left, top, right, bottom int32)
//	BOOL  AttachedToDesktop  — 4 bytes
//	DXGI_MODE_ROTATION       — 4 bytes
//	HMONITOR                 — 8 bytes
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

const dxgiOutputGetDesc = 7 // IDXGIOutput::GetDesc

// listPlatform enumerates displays via the DXGI adapter's outputs, grounding
// the physical scan-out geometry that the capture engine (C2) later composes
// against.
func listPlatform() ([]Descriptor, error) {
	var device, context uintptr
	featureLevel := uint32(d3dFeatureLevel11_0)
	var actualLevel uint32

	hr, _, _ := procD3D11CreateDevice.Call(
		0,
		uintptr(d3dDriverTypeHardware),
		0,
		0,
		uintptr(unsafe.Pointer(&featureLevel)),
		1,
		uintptr(d3d11SDKVersion),
		uintptr(unsafe.Pointer(&device)),
		uintptr(unsafe.Pointer(&actualLevel)),
		uintptr(unsafe.Pointer(&context)),
	)
	if int32(hr) < 0 {
		return nil, fmt.Errorf("D3D11CreateDevice failed: 0x%08X", uint32(hr))
	}
	defer comRelease(context)
	defer comRelease(device)

	var dxgiDevice uintptr
	if _, err := comCall(device, vtblQueryInterface,
		uintptr(unsafe.Pointer(&iidIDXGIDevice)),
		uintptr(unsafe.Pointer(&dxgiDevice)),
	); err != nil {
		return nil, fmt.Errorf("QueryInterface IDXGIDevice: %w", err)
	}
	defer comRelease(dxgiDevice)

	var adapter uintptr
	if _, err := comCall(dxgiDevice, dxgiDeviceGetAdapter, uintptr(unsafe.Pointer(&adapter))); err != nil {
		return nil, fmt.Errorf("IDXGIDevice::GetAdapter: %w", err)
	}
	defer comRelease(adapter)

	var out []Descriptor
	for i := 0; ; i++ {
		var output uintptr
		hr, _, _ := syscall.SyscallN(
			comVtblFn(adapter, dxgiAdapterEnumOutputs),
			adapter,
			uintptr(i),
			uintptr(unsafe.Pointer(&output)),
		)
		if int32(hr) < 0 {
			if uint32(hr) != 0x887A0002 { // DXGI_ERROR_NOT_FOUND
				slog.Warn("DXGI EnumOutputs failed", "index", i, "hr", fmt.Sprintf("0x%08X", uint32(hr)))
			}
			break
		}

		var desc dxgiOutputDesc
		hr, _, _ = syscall.SyscallN(comVtblFn(output, dxgiOutputGetDesc), output, uintptr(unsafe.Pointer(&desc)))
		comRelease(output)
		if int32(hr) < 0 {
			slog.Warn("DXGI GetDesc failed", "index", i, "hr", fmt.Sprintf("0x%08X", uint32(hr)))
			continue
		}
		if desc.AttachedToDesktop == 0 {
			continue
		}

		out = append(out, Descriptor{
			Name:    syscall.UTF16ToString(desc.DeviceName[:]),
			Left:    desc.Left,
			Top:     desc.Top,
			Width:   uint32(desc.Right - desc.Left),
			Height:  uint32(desc.Bottom - desc.Top),
			Primary: desc.Left == 0 && desc.Top == 0,
		})
	}

	return out, nil
}
