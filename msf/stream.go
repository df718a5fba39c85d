package msf

import (
	"fmt"
	"io"
)

// Stream reads one logical stream whose data is scattered across
// non-contiguous blocks of the container. It implements io.ReaderAt.
type Stream struct {
	data       io.ReaderAt
	blocks     []uint32
	blockSize  uint32
	streamSize uint32
}

func newStream(data io.ReaderAt, blocks []uint32, blockSize, streamSize uint32) *Stream {
	return &Stream{
		data:       data,
		blocks:     blocks,
		blockSize:  blockSize,
		streamSize: streamSize,
	}
}

// ReadAt reads stream data at the given offset, remapping through the
// block list transparently.
func (s *Stream) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("msf: negative offset: %d", off)
	}
	if off >= int64(s.streamSize) {
		return 0, io.EOF
	}

	pos := uint32(off)
	totalRead := 0

	for len(p) > 0 && pos < s.streamSize {
		blockIndex := pos / s.blockSize
		blockOffset := pos % s.blockSize

		if int(blockIndex) >= len(s.blocks) {
			return totalRead, io.EOF
		}

		fileOffset := int64(s.blocks[blockIndex])*int64(s.blockSize) + int64(blockOffset)

		toRead := uint32(len(p))
		if rem := s.blockSize - blockOffset; toRead > rem {
			toRead = rem
		}
		if rem := s.streamSize - pos; toRead > rem {
			toRead = rem
		}

		n, err := s.data.ReadAt(p[:toRead], fileOffset)
		totalRead += n
		p = p[n:]
		pos += uint32(n)

		if err != nil {
			if err == io.EOF && totalRead > 0 {
				break
			}
			return totalRead, err
		}
	}

	return totalRead, nil
}

// Size returns the stream size in bytes.
func (s *Stream) Size() uint32 { return s.streamSize }

// Bytes reads the entire stream into memory.
func (s *Stream) Bytes() ([]byte, error) {
	data := make([]byte, s.streamSize)
	n, err := s.ReadAt(data, 0)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return data[:n], nil
}
