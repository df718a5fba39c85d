// Package abi maps calling-convention tokens found in demangled
// declarations to convention tags.
//
// A wrong convention silently corrupts the stack of the hooked process at
// call time, so lookup is exact: anything outside the five recognized
// tokens is reported as unknown and the caller must refuse to proceed.
package abi

import "strings"

// Convention identifies an x86/x64 calling convention.
type Convention uint8

const (
	ConventionUnknown Convention = iota
	Cdecl
	Stdcall
	Fastcall
	Thiscall
	Vectorcall
)

func (c Convention) String() string {
	switch c {
	case Cdecl:
		return "__cdecl"
	case Stdcall:
		return "__stdcall"
	case Fastcall:
		return "__fastcall"
	case Thiscall:
		return "__thiscall"
	case Vectorcall:
		return "__vectorcall"
	default:
		return "unknown"
	}
}

// Resolve maps a convention token to its Convention tag.
// The token may carry the MSVC "__" prefix or not.
// Unrecognized tokens return ok=false; there is no default.
func Resolve(token string) (Convention, bool) {
	switch strings.TrimPrefix(token, "__") {
	case "cdecl":
		return Cdecl, true
	case "stdcall":
		return Stdcall, true
	case "fastcall":
		return Fastcall, true
	case "thiscall":
		return Thiscall, true
	case "vectorcall":
		return Vectorcall, true
	default:
		return ConventionUnknown, false
	}
}

// FromDeclaration scans a demangled declaration for the first
// calling-convention token and resolves it.
func FromDeclaration(decl string) (Convention, bool) {
	for _, field := range strings.Fields(decl) {
		if strings.HasPrefix(field, "__") {
			if conv, ok := Resolve(field); ok {
				return conv, true
			}
		}
	}
	return ConventionUnknown, false
}
