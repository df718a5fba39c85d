// Package pdb reads the streams of a Microsoft PDB file that locate
// public symbols: the DBI stream, the symbol record stream and the PE
// section headers.
package pdb

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrNotPDB indicates the file is not a valid PDB.
	ErrNotPDB = errors.New("pdb: not a valid PDB file")

	// ErrInvalidStream indicates a corrupted or invalid stream.
	ErrInvalidStream = errors.New("pdb: invalid stream")

	// ErrNoSectionHeaders indicates the PDB carries no PE section headers.
	ErrNoSectionHeaders = errors.New("pdb: no section header stream")

	// ErrSymbolNotFound indicates a symbol was not found.
	ErrSymbolNotFound = errors.New("pdb: symbol not found")

	// ErrFileClosed indicates the PDB file has been closed.
	ErrFileClosed = errors.New("pdb: file is closed")
)

// ParseError provides detailed information about parsing failures.
type ParseError struct {
	Stream  string // Stream name where error occurred
	Message string // Description of the error
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pdb: parse error in %s: %s: %v", e.Stream, e.Message, e.Err)
	}
	return fmt.Sprintf("pdb: parse error in %s: %s", e.Stream, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }
