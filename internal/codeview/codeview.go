// Package codeview parses CodeView symbol records from the PDB symbol
// record stream. Only the public-symbol record (S_PUB32) is interpreted;
// that is the record kind carrying the linker-visible function names the
// resolver cares about.
package codeview

import (
	"errors"

	"github.com/remora-dev/remora/internal/lereader"
)

// Record kinds seen in the symbol record stream.
const (
	KindPub32 uint16 = 0x110e
)

var (
	ErrUnexpectedEnd    = errors.New("codeview: unexpected end of data")
	ErrInvalidRecord    = errors.New("codeview: invalid symbol record")
	ErrNotPublicSymbol  = errors.New("codeview: not a public symbol record")
)

// Record is one raw symbol record: its kind and undecoded payload.
type Record struct {
	Kind uint16
	Data []byte
}

// ParseRecord decodes the record at the start of data and returns it with
// the total encoded size, so callers can walk the stream record by record.
func ParseRecord(data []byte) (*Record, int, error) {
	if len(data) < 4 {
		return nil, 0, ErrUnexpectedEnd
	}

	r := lereader.New(data)

	// The length field does not count itself.
	length, err := r.ReadU16()
	if err != nil {
		return nil, 0, err
	}
	kind, err := r.ReadU16()
	if err != nil {
		return nil, 0, err
	}

	totalSize := int(length) + 2
	if totalSize > len(data) {
		return nil, 0, ErrUnexpectedEnd
	}
	dataLen := int(length) - 2
	if dataLen < 0 {
		return nil, 0, ErrInvalidRecord
	}

	return &Record{Kind: kind, Data: data[4 : 4+dataLen]}, totalSize, nil
}

// PublicFlags describes an S_PUB32 symbol.
type PublicFlags uint32

func (f PublicFlags) IsCode() bool     { return f&0x01 != 0 }
func (f PublicFlags) IsFunction() bool { return f&0x02 != 0 }
func (f PublicFlags) IsManaged() bool  { return f&0x04 != 0 }

// PublicSymbol is a decoded S_PUB32 record: a linker-public name with its
// section-relative location.
type PublicSymbol struct {
	Flags   PublicFlags
	Offset  uint32
	Section uint16
	Name    string
}

// ParsePublicSymbol decodes an S_PUB32 payload.
func ParsePublicSymbol(data []byte) (*PublicSymbol, error) {
	r := lereader.New(data)

	flags, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	offset, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	section, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	name, err := r.ReadCString()
	if err != nil {
		return nil, err
	}

	return &PublicSymbol{
		Flags:   PublicFlags(flags),
		Offset:  offset,
		Section: section,
		Name:    name,
	}, nil
}

// WalkPublicSymbols calls fn for each S_PUB32 record in the symbol
// record stream. Records of other kinds are skipped; a record that fails
// to parse ends the walk, matching the forgiving behavior expected of
// debug data.
func WalkPublicSymbols(data []byte, fn func(*PublicSymbol) bool) {
	offset := 0
	for offset < len(data)-4 {
		rec, size, err := ParseRecord(data[offset:])
		if err != nil {
			return
		}

		if rec.Kind == KindPub32 {
			if sym, err := ParsePublicSymbol(rec.Data); err == nil {
				if !fn(sym) {
					return
				}
			}
		}

		offset += size
	}
}
