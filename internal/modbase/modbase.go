// Package modbase resolves the load address of a module mapped into the
// current process. Symbol RVAs from a PDB are offsets from this base.
package modbase

import "errors"

var (
	// ErrModuleNotFound indicates the named module is not loaded.
	ErrModuleNotFound = errors.New("modbase: module not loaded in this process")

	// ErrUnsupported indicates the platform has no module lookup.
	ErrUnsupported = errors.New("modbase: unsupported platform")
)

// BaseAddress returns the address the named module is loaded at. An
// empty name resolves the main executable.
func BaseAddress(name string) (uint64, error) {
	return baseAddress(name)
}
