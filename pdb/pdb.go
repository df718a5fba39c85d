package pdb

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/remora-dev/remora/internal/dbi"
	"github.com/remora-dev/remora/msf"
)

// File represents an opened PDB file.
// It is safe for concurrent read access after opening.
type File struct {
	msf    *msf.File
	closed bool
	mu     sync.RWMutex

	// Lazy-loaded streams
	pdbInfo     *PDBInfo
	pdbInfoOnce sync.Once
	pdbInfoErr  error

	dbiStream     *dbi.Stream
	dbiStreamOnce sync.Once
	dbiStreamErr  error

	sections     *SectionHeaders
	sectionsOnce sync.Once
	sectionsErr  error

	symRecords     []byte
	symRecordsOnce sync.Once
	symRecordsErr  error
}

// PDBInfo contains metadata about the PDB file.
type PDBInfo struct {
	Version   uint32
	Signature uint32
	Age       uint32
	GUID      [16]byte
}

// Open opens a PDB file from the given path.
func Open(path string) (*File, error) {
	msfFile, err := msf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pdb: failed to open file: %w", err)
	}

	return &File{msf: msfFile}, nil
}

// OpenReader opens a PDB from an io.ReaderAt.
// This allows reading from arbitrary sources (embedded, network, etc.)
func OpenReader(r io.ReaderAt, size int64) (*File, error) {
	msfFile, err := msf.NewFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("pdb: failed to open file: %w", err)
	}

	return &File{msf: msfFile}, nil
}

// Close releases resources associated with the PDB file.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}

	f.closed = true
	return f.msf.Close()
}

// Info returns metadata about the PDB file.
func (f *File) Info() (*PDBInfo, error) {
	f.pdbInfoOnce.Do(func() {
		f.pdbInfo, f.pdbInfoErr = f.loadPDBInfo()
	})

	if f.pdbInfoErr != nil {
		return nil, f.pdbInfoErr
	}
	return f.pdbInfo, nil
}

func (f *File) loadPDBInfo() (*PDBInfo, error) {
	data, err := f.msf.ReadStream(msf.StreamPDBInfo)
	if err != nil {
		return nil, fmt.Errorf("pdb: failed to read PDB info stream: %w", err)
	}

	if len(data) < 28 {
		return nil, &ParseError{Stream: "PDB info", Message: "stream too short"}
	}

	info := &PDBInfo{
		Version:   binary.LittleEndian.Uint32(data[0:]),
		Signature: binary.LittleEndian.Uint32(data[4:]),
		Age:       binary.LittleEndian.Uint32(data[8:]),
	}
	copy(info.GUID[:], data[12:28])

	return info, nil
}

func (f *File) dbi() (*dbi.Stream, error) {
	f.dbiStreamOnce.Do(func() {
		f.dbiStream, f.dbiStreamErr = f.loadDBI()
	})

	if f.dbiStreamErr != nil {
		return nil, f.dbiStreamErr
	}
	return f.dbiStream, nil
}

func (f *File) loadDBI() (*dbi.Stream, error) {
	data, err := f.msf.ReadStream(msf.StreamDBI)
	if err != nil {
		return nil, fmt.Errorf("pdb: failed to read DBI stream: %w", err)
	}

	stream, err := dbi.ParseStream(data)
	if err != nil {
		return nil, &ParseError{Stream: "DBI", Message: "header parse failed", Err: err}
	}
	return stream, nil
}

func (f *File) readStream(streamIndex uint16, name string) ([]byte, error) {
	if streamIndex == dbi.InvalidStreamIndex {
		return nil, &ParseError{Stream: name, Message: "stream not present", Err: ErrInvalidStream}
	}

	data, err := f.msf.ReadStream(uint32(streamIndex))
	if err != nil {
		return nil, fmt.Errorf("pdb: failed to read %s stream: %w", name, err)
	}
	return data, nil
}
