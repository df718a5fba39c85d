package msf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// NilStreamSize marks a deleted or nil stream.
const NilStreamSize = 0xFFFFFFFF

// Well-known stream indices.
const (
	StreamOldDirectory = 0
	StreamPDBInfo      = 1
	StreamTPI          = 2
	StreamDBI          = 3
	StreamIPI          = 4
)

var (
	ErrTruncatedDirectory = errors.New("msf: truncated stream directory")
	ErrInvalidStreamIndex = errors.New("msf: invalid stream index")
	ErrInvalidBlockIndex  = errors.New("msf: invalid block index")
)

// streamDirectory describes every stream in the container: its byte size
// and the (possibly non-contiguous) blocks holding its data.
type streamDirectory struct {
	numStreams   uint32
	streamSizes  []uint32
	streamBlocks [][]uint32
}

func (d *streamDirectory) size(streamIndex uint32) uint32 {
	if streamIndex >= d.numStreams || d.streamSizes[streamIndex] == NilStreamSize {
		return 0
	}
	return d.streamSizes[streamIndex]
}

func (d *streamDirectory) exists(streamIndex uint32) bool {
	return streamIndex < d.numStreams &&
		d.streamSizes[streamIndex] != NilStreamSize &&
		d.streamSizes[streamIndex] > 0
}

func parseDirectory(data []byte, blockSize uint32) (*streamDirectory, error) {
	if len(data) < 4 {
		return nil, ErrTruncatedDirectory
	}

	dir := &streamDirectory{}
	offset := 0

	dir.numStreams = binary.LittleEndian.Uint32(data[offset:])
	offset += 4

	if len(data) < offset+int(dir.numStreams)*4 {
		return nil, ErrTruncatedDirectory
	}

	dir.streamSizes = make([]uint32, dir.numStreams)
	for i := range dir.streamSizes {
		dir.streamSizes[i] = binary.LittleEndian.Uint32(data[offset:])
		offset += 4
	}

	dir.streamBlocks = make([][]uint32, dir.numStreams)
	for i, size := range dir.streamSizes {
		if size == NilStreamSize || size == 0 {
			continue
		}

		numBlocks := (size + blockSize - 1) / blockSize
		dir.streamBlocks[i] = make([]uint32, numBlocks)
		for j := range dir.streamBlocks[i] {
			if offset+4 > len(data) {
				return nil, ErrTruncatedDirectory
			}
			dir.streamBlocks[i][j] = binary.LittleEndian.Uint32(data[offset:])
			offset += 4
		}
	}

	return dir, nil
}

// readDirectory loads the stream directory, following the extra level of
// indirection through the block map at BlockMapAddr.
func readDirectory(sb *SuperBlock, data io.ReaderAt) (*streamDirectory, error) {
	numDirBlocks := sb.numDirectoryBlocks()
	blockMapSize := numDirBlocks * 4
	numBlockMapBlocks := (blockMapSize + sb.BlockSize - 1) / sb.BlockSize

	blockMapData := make([]byte, numBlockMapBlocks*sb.BlockSize)
	for i := uint32(0); i < numBlockMapBlocks; i++ {
		off := sb.blockOffset(sb.BlockMapAddr + i)
		if _, err := data.ReadAt(blockMapData[i*sb.BlockSize:(i+1)*sb.BlockSize], off); err != nil {
			return nil, fmt.Errorf("msf: failed to read block map: %w", err)
		}
	}

	directoryData := make([]byte, sb.NumDirectoryBytes)
	remaining := sb.NumDirectoryBytes
	for i := uint32(0); i < numDirBlocks; i++ {
		blockIdx := binary.LittleEndian.Uint32(blockMapData[i*4:])
		if blockIdx >= sb.NumBlocks {
			return nil, fmt.Errorf("%w: %d >= %d", ErrInvalidBlockIndex, blockIdx, sb.NumBlocks)
		}

		toRead := sb.BlockSize
		if toRead > remaining {
			toRead = remaining
		}

		dst := directoryData[i*sb.BlockSize : i*sb.BlockSize+toRead]
		if _, err := data.ReadAt(dst, sb.blockOffset(blockIdx)); err != nil {
			return nil, fmt.Errorf("msf: failed to read directory block %d: %w", blockIdx, err)
		}
		remaining -= toRead
	}

	return parseDirectory(directoryData, sb.BlockSize)
}
