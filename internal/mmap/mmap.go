package mmap

import (
	"errors"
	"io"
	"os"
)

// ErrClosed is returned when reading from a closed mapping.
var ErrClosed = errors.New("mmap: mapping is closed")

// File represents a read-only memory-mapped file.
type File struct {
	data   []byte
	f      *os.File
	closed bool
}

// Open maps the file at path into memory as read-only.
// Empty files are opened without a mapping.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	size := fi.Size()
	if size == 0 {
		return &File{f: f}, nil
	}
	if size < 0 || int64(int(size)) != size {
		_ = f.Close()
		return nil, errors.New("mmap: invalid file size")
	}

	data, err := mmap(f, int(size))
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return &File{data: data, f: f}, nil
}

// Bytes returns the mapped region. The slice is valid until Close.
func (m *File) Bytes() []byte { return m.data }

// Size returns the mapped length in bytes.
func (m *File) Size() int { return len(m.data) }

// ReadAt implements io.ReaderAt on the mapped file.
func (m *File) ReadAt(p []byte, off int64) (int, error) {
	if m.closed {
		return 0, ErrClosed
	}
	if off < 0 || off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close unmaps the memory and closes the underlying file.
func (m *File) Close() error {
	if m == nil || m.closed {
		return nil
	}
	m.closed = true

	var err error
	if m.data != nil {
		err = munmap(m.data)
		m.data = nil
	}
	if m.f != nil {
		if closeErr := m.f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		m.f = nil
	}
	return err
}
