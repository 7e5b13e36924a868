// Windows idle time from GetLastInputInfo, which user32 exposes but
// golang.org/x/sys/windows does not wrap.

//go:build windows

package idle

import (
	"context"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var procGetLastInputInfo = windows.NewLazySystemDLL("user32.dll").NewProc("GetLastInputInfo")

// lastInputInfo mirrors the Win32 LASTINPUTINFO struct.
type lastInputInfo struct {
	cbSize uint32
	dwTime uint32
}

func systemIdleSeconds(context.Context) (uint64, error) {
	if err := procGetLastInputInfo.Find(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	info := lastInputInfo{cbSize: uint32(unsafe.Sizeof(lastInputInfo{}))}
	ok, _, err := procGetLastInputInfo.Call(uintptr(unsafe.Pointer(&info)))
	if ok == 0 {
		return 0, fmt.Errorf("GetLastInputInfo: %w", err)
	}
	// Both tick counts are 32-bit milliseconds; unsigned subtraction survives
	// the 49.7-day wraparound.
	now := uint32(windows.DurationSinceBoot().Milliseconds())
	return uint64(now-info.dwTime) / 1000, nil
}
