// Package pdbtest assembles minimal in-memory PDB images for tests. The
// images carry only the streams the resolution path reads: the PDB info
// stream, the DBI stream, the PE section headers and the symbol records.
package pdbtest

import (
	"encoding/binary"
	"fmt"

	"github.com/remora-dev/remora/msf"
)

const blockSize = 512

// Symbol is one S_PUB32 record to place in the symbol record stream.
type Symbol struct {
	Name    string
	Section uint16
	Offset  uint32
	Flags   uint32
}

// FlagFunction marks a symbol as a function living in a code section.
const FlagFunction = 0x3

// Section is one PE section header. Sections are 1-based in symbol
// records, so the first entry here is section 1.
type Section struct {
	Name           string
	VirtualAddress uint32
}

// Stream indices used by the generated image.
const (
	sectionHdrStream = 5
	symRecordStream  = 6
	numStreams       = 7
)

// Image builds a complete PDB file image holding the given sections and
// public symbols. Each stream must fit in a single block.
func Image(sections []Section, symbols []Symbol) []byte {
	info := infoStream()
	dbi := dbiStream()
	secHdrs := sectionStream(sections)
	symRecs := symbolStream(symbols)

	// Block 0 superblock, 1 and 2 free page maps, 3 block map,
	// 4 directory, then one block per stream.
	const (
		blockMapBlock  = 3
		directoryBlock = 4
		infoBlock      = 5
		dbiBlock       = 6
		sectionBlock   = 7
		symRecordBlock = 8
		numBlocks      = 9
	)

	streamSizes := [numStreams]uint32{
		msf.StreamPDBInfo: uint32(len(info)),
		msf.StreamDBI:     uint32(len(dbi)),
		sectionHdrStream:  uint32(len(secHdrs)),
		symRecordStream:   uint32(len(symRecs)),
	}
	streamBlocks := [numStreams]uint32{
		msf.StreamPDBInfo: infoBlock,
		msf.StreamDBI:     dbiBlock,
		sectionHdrStream:  sectionBlock,
		symRecordStream:   symRecordBlock,
	}

	var directory []byte
	directory = appendU32(directory, numStreams)
	for _, size := range streamSizes {
		directory = appendU32(directory, size)
	}
	for i, size := range streamSizes {
		if size > 0 {
			directory = appendU32(directory, streamBlocks[i])
		}
	}

	var super []byte
	super = append(super, msf.Magic...)
	super = appendU32(super, blockSize)
	super = appendU32(super, 1) // free block map
	super = appendU32(super, numBlocks)
	super = appendU32(super, uint32(len(directory)))
	super = appendU32(super, 0)
	super = appendU32(super, blockMapBlock)

	img := make([]byte, numBlocks*blockSize)
	writeBlock := func(block int, data []byte) {
		if len(data) > blockSize {
			panic(fmt.Sprintf("pdbtest: stream of %d bytes exceeds one block", len(data)))
		}
		copy(img[block*blockSize:], data)
	}

	writeBlock(0, super)
	writeBlock(blockMapBlock, appendU32(nil, directoryBlock))
	writeBlock(directoryBlock, directory)
	writeBlock(infoBlock, info)
	writeBlock(dbiBlock, dbi)
	writeBlock(sectionBlock, secHdrs)
	writeBlock(symRecordBlock, symRecs)

	return img
}

func infoStream() []byte {
	var b []byte
	b = appendU32(b, 20000404) // VC70 version
	b = appendU32(b, 0x5eadbeef)
	b = appendU32(b, 1)
	b = append(b, make([]byte, 16)...) // GUID
	return b
}

func dbiStream() []byte {
	var b []byte
	b = appendU32(b, 0xFFFFFFFF) // version signature -1
	b = appendU32(b, 19990903)   // V70
	b = appendU32(b, 1)          // age
	b = appendU16(b, 0xFFFF)     // global stream
	b = appendU16(b, 0)          // build number
	b = appendU16(b, 0xFFFF)     // public stream
	b = appendU16(b, 0)          // pdb dll version
	b = appendU16(b, symRecordStream)
	b = appendU16(b, 0) // pdb dll rbld
	for i := 0; i < 5; i++ {
		b = appendU32(b, 0) // substream sizes
	}
	b = appendU32(b, 0)  // mfc type server
	b = appendU32(b, 12) // optional dbg header size
	b = appendU32(b, 0)  // ec substream size
	b = appendU16(b, 0)  // flags
	b = appendU16(b, 0x8664)
	b = appendU32(b, 0) // padding to 64 bytes

	// Optional debug header: five absent streams, then section headers.
	for i := 0; i < 5; i++ {
		b = appendU16(b, 0xFFFF)
	}
	b = appendU16(b, sectionHdrStream)
	return b
}

func sectionStream(sections []Section) []byte {
	var b []byte
	for _, s := range sections {
		name := make([]byte, 8)
		copy(name, s.Name)
		b = append(b, name...)
		b = appendU32(b, 0x1000) // virtual size
		b = appendU32(b, s.VirtualAddress)
		b = append(b, make([]byte, 24)...)
	}
	return b
}

func symbolStream(symbols []Symbol) []byte {
	var b []byte
	for _, s := range symbols {
		payload := 10 + len(s.Name) + 1
		b = appendU16(b, uint16(2+payload))
		b = appendU16(b, 0x110e) // S_PUB32
		b = appendU32(b, s.Flags)
		b = appendU32(b, s.Offset)
		b = appendU16(b, s.Section)
		b = append(b, s.Name...)
		b = append(b, 0)
	}
	return b
}

func appendU16(b []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(b, v)
}

func appendU32(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}
