// Package dbi parses the header of the DBI (Debug Information) stream,
// which locates the symbol record stream and the PE section header
// stream inside the container.
package dbi

import (
	"errors"
	"fmt"

	"github.com/remora-dev/remora/internal/lereader"
)

// InvalidStreamIndex marks an absent optional stream.
const InvalidStreamIndex uint16 = 0xFFFF

const headerSize = 64

var (
	ErrInvalidHeader   = errors.New("dbi: invalid DBI header")
	ErrTruncatedStream = errors.New("dbi: truncated stream")
)

// Header is the fixed-size DBI stream header. Only the fields needed to
// locate symbols are interpreted; the substream sizes are used to skip
// ahead to the optional debug header.
type Header struct {
	VersionSignature     int32
	VersionHeader        uint32
	Age                  uint32
	GlobalStreamIndex    uint16
	BuildNumber          uint16
	PublicStreamIndex    uint16
	PDBDllVersion        uint16
	SymRecordStreamIndex uint16
	PDBDllRbld           uint16

	ModInfoSize             uint32
	SectionContributionSize uint32
	SectionMapSize          uint32
	SourceInfoSize          uint32
	TypeServerMapSize       uint32
	MFCTypeServerIndex      uint32
	OptionalDbgHeaderSize   uint32
	ECSubstreamSize         uint32

	Flags   uint16
	Machine uint16
}

// Stream is the parsed DBI stream: the header plus the optional debug
// header's stream indices.
type Stream struct {
	Header Header

	// SectionHdrStreamIndex locates the PE section headers, or
	// InvalidStreamIndex when the PDB carries none.
	SectionHdrStreamIndex uint16
}

// ParseStream parses the DBI stream. Substreams other than the optional
// debug header are skipped over by size.
func ParseStream(data []byte) (*Stream, error) {
	if len(data) < headerSize {
		return nil, ErrInvalidHeader
	}

	s := &Stream{SectionHdrStreamIndex: InvalidStreamIndex}
	if err := s.parseHeader(lereader.New(data)); err != nil {
		return nil, err
	}

	// The optional debug header sits after all the sized substreams.
	offset := headerSize +
		int(s.Header.ModInfoSize) +
		int(s.Header.SectionContributionSize) +
		int(s.Header.SectionMapSize) +
		int(s.Header.SourceInfoSize) +
		int(s.Header.TypeServerMapSize) +
		int(s.Header.ECSubstreamSize)

	if s.Header.OptionalDbgHeaderSize > 0 {
		end := offset + int(s.Header.OptionalDbgHeaderSize)
		if end > len(data) {
			return nil, ErrTruncatedStream
		}
		s.parseOptionalDbgHeader(data[offset:end])
	}

	return s, nil
}

func (s *Stream) parseHeader(r *lereader.Reader) error {
	var err error

	read32 := func(dst *uint32) {
		if err == nil {
			*dst, err = r.ReadU32()
		}
	}
	read16 := func(dst *uint16) {
		if err == nil {
			*dst, err = r.ReadU16()
		}
	}

	h := &s.Header
	if h.VersionSignature, err = r.ReadI32(); err != nil {
		return fmt.Errorf("dbi: %w", err)
	}
	read32(&h.VersionHeader)
	read32(&h.Age)
	read16(&h.GlobalStreamIndex)
	read16(&h.BuildNumber)
	read16(&h.PublicStreamIndex)
	read16(&h.PDBDllVersion)
	read16(&h.SymRecordStreamIndex)
	read16(&h.PDBDllRbld)
	read32(&h.ModInfoSize)
	read32(&h.SectionContributionSize)
	read32(&h.SectionMapSize)
	read32(&h.SourceInfoSize)
	read32(&h.TypeServerMapSize)
	read32(&h.MFCTypeServerIndex)
	read32(&h.OptionalDbgHeaderSize)
	read32(&h.ECSubstreamSize)
	read16(&h.Flags)
	read16(&h.Machine)

	if err != nil {
		return fmt.Errorf("dbi: %w", err)
	}
	if h.VersionSignature != -1 {
		return ErrInvalidHeader
	}
	return nil
}

// parseOptionalDbgHeader reads the array of optional stream indices.
// The section header stream is the sixth entry.
func (s *Stream) parseOptionalDbgHeader(data []byte) {
	r := lereader.New(data)

	// FPO, exception, fixup, omap-to-src, omap-from-src precede the
	// section header index.
	for i := 0; i < 5; i++ {
		if _, err := r.ReadU16(); err != nil {
			return
		}
	}
	if idx, err := r.ReadU16(); err == nil {
		s.SectionHdrStreamIndex = idx
	}
}
