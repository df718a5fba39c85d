package msf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
)

// File is an opened MSF container. It is safe for concurrent reads once
// opened.
type File struct {
	data       io.ReaderAt
	closer     io.Closer // nil when the caller owns the reader
	size       int64
	superBlock *SuperBlock

	directory *streamDirectory
	dirOnce   sync.Once
	dirErr    error
}

// Open opens an MSF container from a file path.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("msf: failed to open file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("msf: failed to stat file: %w", err)
	}

	m, err := NewFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, err
	}

	m.closer = f
	return m, nil
}

// NewFile opens an MSF container from an io.ReaderAt. The caller keeps
// ownership of the reader.
func NewFile(r io.ReaderAt, size int64) (*File, error) {
	if size < superBlockSize {
		return nil, ErrTruncatedFile
	}

	sbData := make([]byte, superBlockSize)
	if _, err := r.ReadAt(sbData, 0); err != nil {
		return nil, fmt.Errorf("msf: failed to read superblock: %w", err)
	}

	sb, err := readSuperBlock(bytes.NewReader(sbData))
	if err != nil {
		return nil, err
	}

	if size < sb.fileSize() {
		return nil, fmt.Errorf("msf: file too small: got %d bytes, expected %d", size, sb.fileSize())
	}

	return &File{data: r, size: size, superBlock: sb}, nil
}

// Close releases the underlying file, if this File owns one.
func (f *File) Close() error {
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}

// BlockSize returns the container's block size.
func (f *File) BlockSize() uint32 { return f.superBlock.BlockSize }

func (f *File) dir() (*streamDirectory, error) {
	f.dirOnce.Do(func() {
		f.directory, f.dirErr = readDirectory(f.superBlock, f.data)
	})
	return f.directory, f.dirErr
}

// StreamExists reports whether the stream exists and is not nil.
func (f *File) StreamExists(streamIndex uint32) (bool, error) {
	dir, err := f.dir()
	if err != nil {
		return false, err
	}
	return dir.exists(streamIndex), nil
}

// OpenStream opens a stream for reading.
func (f *File) OpenStream(streamIndex uint32) (*Stream, error) {
	dir, err := f.dir()
	if err != nil {
		return nil, err
	}

	if streamIndex >= dir.numStreams {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStreamIndex, streamIndex)
	}
	size := dir.streamSizes[streamIndex]
	if size == NilStreamSize {
		return nil, fmt.Errorf("msf: stream %d is nil", streamIndex)
	}

	return newStream(f.data, dir.streamBlocks[streamIndex], f.superBlock.BlockSize, size), nil
}

// ReadStream reads an entire stream into memory.
func (f *File) ReadStream(streamIndex uint32) ([]byte, error) {
	stream, err := f.OpenStream(streamIndex)
	if err != nil {
		return nil, err
	}
	return stream.Bytes()
}
