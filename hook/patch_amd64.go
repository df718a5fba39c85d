//go:build amd64

package hook

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/arch/x86/x86asm"
)

// jmpInstrLength is the size of a JMP rel32 instruction.
const jmpInstrLength = 5

// prologueWindow is how many bytes of the target's prologue are decoded
// before patching.
const prologueWindow = 16

// jumpTo encodes a JMP rel32 from one address to another. The
// displacement is relative to the end of the instruction.
func jumpTo(from, to uintptr) ([]byte, error) {
	disp := int64(to) - int64(from) - jmpInstrLength
	if disp > math.MaxInt32 || disp < math.MinInt32 {
		return nil, fmt.Errorf("%w: displacement %#x", ErrJumpOutOfRange, disp)
	}

	code := make([]byte, jmpInstrLength)
	code[0] = 0xE9
	binary.LittleEndian.PutUint32(code[1:], uint32(int32(disp)))
	return code, nil
}

// checkPrologue decodes instructions from the start of the target until
// the jump's footprint is covered. Decode failures mean the address does
// not hold recognizable code and must not be patched.
func checkPrologue(code []byte) error {
	covered := 0
	for covered < jmpInstrLength {
		inst, err := x86asm.Decode(code[covered:], 64)
		if err != nil {
			return fmt.Errorf("%w: undecodable instruction at offset %d: %v",
				ErrUnpatchablePrologue, covered, err)
		}
		covered += inst.Len
	}
	return nil
}
