// Package msf reads the MSF (Multi-Stream File) container format that
// Microsoft PDB files are stored in.
package msf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Magic is the PDB 7.0 ("BigMsf") signature at file offset 0.
const Magic = "Microsoft C/C++ MSF 7.00\r\n\x1a\x44\x53\x00\x00\x00"

const (
	magicSize      = 32
	superBlockSize = 56

	blockSizeMin uint32 = 512
	blockSizeMax uint32 = 65536
)

var (
	ErrInvalidMagic     = errors.New("msf: invalid magic signature, not a valid PDB file")
	ErrInvalidBlockSize = errors.New("msf: invalid block size")
	ErrInvalidFPMBlock  = errors.New("msf: invalid free block map block index")
	ErrTruncatedFile    = errors.New("msf: file is truncated")
)

// SuperBlock describes the container's block layout and the location of
// the stream directory.
type SuperBlock struct {
	FileMagic         [magicSize]byte
	BlockSize         uint32
	FreeBlockMapBlock uint32
	NumBlocks         uint32
	NumDirectoryBytes uint32
	Unknown           uint32
	BlockMapAddr      uint32
}

func readSuperBlock(r io.Reader) (*SuperBlock, error) {
	var sb SuperBlock
	if err := binary.Read(r, binary.LittleEndian, &sb); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrTruncatedFile
		}
		return nil, fmt.Errorf("msf: failed to read superblock: %w", err)
	}
	if err := sb.validate(); err != nil {
		return nil, err
	}
	return &sb, nil
}

func (sb *SuperBlock) validate() error {
	if string(sb.FileMagic[:]) != Magic {
		return ErrInvalidMagic
	}
	// Power of 2 within the documented range.
	if sb.BlockSize < blockSizeMin || sb.BlockSize > blockSizeMax ||
		sb.BlockSize&(sb.BlockSize-1) != 0 {
		return ErrInvalidBlockSize
	}
	if sb.FreeBlockMapBlock != 1 && sb.FreeBlockMapBlock != 2 {
		return ErrInvalidFPMBlock
	}
	return nil
}

func (sb *SuperBlock) numDirectoryBlocks() uint32 {
	return (sb.NumDirectoryBytes + sb.BlockSize - 1) / sb.BlockSize
}

func (sb *SuperBlock) fileSize() int64 {
	return int64(sb.NumBlocks) * int64(sb.BlockSize)
}

func (sb *SuperBlock) blockOffset(blockNum uint32) int64 {
	return int64(blockNum) * int64(sb.BlockSize)
}
