package pdb

import (
	"encoding/binary"

	"github.com/remora-dev/remora/internal/dbi"
)

const sectionHeaderSize = 40

// SectionHeader represents a PE section header.
// This matches the IMAGE_SECTION_HEADER structure.
type SectionHeader struct {
	Name                 [8]byte
	VirtualSize          uint32
	VirtualAddress       uint32 // RVA of the section
	SizeOfRawData        uint32
	PointerToRawData     uint32
	PointerToRelocations uint32
	PointerToLinenumbers uint32
	NumberOfRelocations  uint16
	NumberOfLinenumbers  uint16
	Characteristics      uint32
}

// NameString returns the section name as a string.
func (s *SectionHeader) NameString() string {
	n := 0
	for n < 8 && s.Name[n] != 0 {
		n++
	}
	return string(s.Name[:n])
}

// SectionHeaders provides access to the PE section headers stored in
// the PDB's optional debug streams.
type SectionHeaders struct {
	sections []SectionHeader
}

// Count returns the number of sections.
func (sh *SectionHeaders) Count() int {
	return len(sh.sections)
}

// All returns all section headers.
func (sh *SectionHeaders) All() []SectionHeader {
	return sh.sections
}

// ToRVA converts a section:offset pair to an RVA (Relative Virtual
// Address). Section numbers are 1-based, as used in PDB symbols.
// Returns 0 if the section number is out of range.
func (sh *SectionHeaders) ToRVA(section uint16, offset uint32) uint32 {
	if section == 0 || int(section) > len(sh.sections) {
		return 0
	}
	return sh.sections[section-1].VirtualAddress + offset
}

// Sections returns the PE section headers, parsing them on first use.
func (f *File) Sections() (*SectionHeaders, error) {
	f.sectionsOnce.Do(func() {
		f.sections, f.sectionsErr = f.loadSections()
	})

	if f.sectionsErr != nil {
		return nil, f.sectionsErr
	}
	return f.sections, nil
}

func (f *File) loadSections() (*SectionHeaders, error) {
	stream, err := f.dbi()
	if err != nil {
		return nil, err
	}

	if stream.SectionHdrStreamIndex == dbi.InvalidStreamIndex {
		return nil, ErrNoSectionHeaders
	}

	data, err := f.readStream(stream.SectionHdrStreamIndex, "section headers")
	if err != nil {
		return nil, err
	}

	return parseSectionHeaders(data)
}

func parseSectionHeaders(data []byte) (*SectionHeaders, error) {
	if len(data)%sectionHeaderSize != 0 {
		return nil, &ParseError{
			Stream:  "section headers",
			Message: "stream size is not a multiple of the header size",
		}
	}

	sections := make([]SectionHeader, len(data)/sectionHeaderSize)
	for i := range sections {
		buf := data[i*sectionHeaderSize:]
		s := &sections[i]

		copy(s.Name[:], buf[0:8])
		s.VirtualSize = binary.LittleEndian.Uint32(buf[8:])
		s.VirtualAddress = binary.LittleEndian.Uint32(buf[12:])
		s.SizeOfRawData = binary.LittleEndian.Uint32(buf[16:])
		s.PointerToRawData = binary.LittleEndian.Uint32(buf[20:])
		s.PointerToRelocations = binary.LittleEndian.Uint32(buf[24:])
		s.PointerToLinenumbers = binary.LittleEndian.Uint32(buf[28:])
		s.NumberOfRelocations = binary.LittleEndian.Uint16(buf[32:])
		s.NumberOfLinenumbers = binary.LittleEndian.Uint16(buf[34:])
		s.Characteristics = binary.LittleEndian.Uint32(buf[36:])
	}

	return &SectionHeaders{sections: sections}, nil
}
