//go:build windows

package modbase

import (
	"fmt"

	"golang.org/x/sys/windows"
)

func baseAddress(name string) (uint64, error) {
	var namePtr *uint16
	if name != "" {
		p, err := windows.UTF16PtrFromString(name)
		if err != nil {
			return 0, fmt.Errorf("modbase: invalid module name %q: %w", name, err)
		}
		namePtr = p
	}

	// A nil name returns the handle of the executable. The handle of a
	// loaded module is its base address.
	handle, err := windows.GetModuleHandle(namePtr)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrModuleNotFound, name, err)
	}

	return uint64(handle), nil
}
