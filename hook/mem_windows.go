//go:build windows

package hook

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// memPatcher rewrites live instruction memory, flipping page protection
// around the write.
type memPatcher struct{}

func (memPatcher) inspect(addr uintptr, n int) ([]byte, error) {
	out := make([]byte, n)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(addr)), n))
	return out, nil
}

func (memPatcher) patch(addr uintptr, code []byte) error {
	size := uintptr(len(code))

	var oldProtect uint32
	if err := windows.VirtualProtect(addr, size, windows.PAGE_EXECUTE_READWRITE, &oldProtect); err != nil {
		return fmt.Errorf("VirtualProtect: %w", err)
	}

	copy(unsafe.Slice((*byte)(unsafe.Pointer(addr)), len(code)), code)

	if err := windows.VirtualProtect(addr, size, oldProtect, &oldProtect); err != nil {
		return fmt.Errorf("VirtualProtect restore: %w", err)
	}
	return nil
}
