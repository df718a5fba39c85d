package pdb

import (
	"iter"

	"github.com/remora-dev/remora/internal/codeview"
)

// PublicSymbol is an exported symbol from the PDB's symbol record
// stream, carrying the mangled name and its section-relative location.
type PublicSymbol struct {
	Name    string
	Section uint16
	Offset  uint32
	flags   codeview.PublicFlags
}

// IsCode reports whether the symbol lives in a code section.
func (s *PublicSymbol) IsCode() bool { return s.flags.IsCode() }

// IsFunction reports whether the symbol is a function.
func (s *PublicSymbol) IsFunction() bool { return s.flags.IsFunction() }

// PublicSymbols iterates over all public symbols in the PDB.
func (f *File) PublicSymbols() (iter.Seq[*PublicSymbol], error) {
	data, err := f.symbolRecords()
	if err != nil {
		return nil, err
	}

	return func(yield func(*PublicSymbol) bool) {
		codeview.WalkPublicSymbols(data, func(sym *codeview.PublicSymbol) bool {
			return yield(&PublicSymbol{
				Name:    sym.Name,
				Section: sym.Section,
				Offset:  sym.Offset,
				flags:   sym.Flags,
			})
		})
	}, nil
}

func (f *File) symbolRecords() ([]byte, error) {
	f.symRecordsOnce.Do(func() {
		f.symRecords, f.symRecordsErr = f.loadSymbolRecords()
	})

	if f.symRecordsErr != nil {
		return nil, f.symRecordsErr
	}
	return f.symRecords, nil
}

func (f *File) loadSymbolRecords() ([]byte, error) {
	stream, err := f.dbi()
	if err != nil {
		return nil, err
	}

	return f.readStream(stream.Header.SymRecordStreamIndex, "symbol records")
}
