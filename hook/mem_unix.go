//go:build linux || darwin

package hook

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
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
	pageSize := uintptr(os.Getpagesize())
	pageStart := addr &^ (pageSize - 1)
	span := addr + uintptr(len(code)) - pageStart

	pages := unsafe.Slice((*byte)(unsafe.Pointer(pageStart)), span)
	if err := unix.Mprotect(pages, unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC); err != nil {
		return fmt.Errorf("mprotect: %w", err)
	}

	copy(unsafe.Slice((*byte)(unsafe.Pointer(addr)), len(code)), code)

	if err := unix.Mprotect(pages, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return fmt.Errorf("mprotect restore: %w", err)
	}
	return nil
}
