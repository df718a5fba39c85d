package hook

import "unsafe"

// FuncAt reinterprets a raw code address as a typed Go func value. The
// caller guarantees that F matches the target's actual signature and
// calling convention; nothing here can verify it.
//
// A Go func value points at a closure context whose first word is the
// code address, so a one-word context is enough.
func FuncAt[F any](addr uintptr) F {
	var f F
	code := new(uintptr)
	*code = addr
	*(*unsafe.Pointer)(unsafe.Pointer(&f)) = unsafe.Pointer(code)
	return f
}
