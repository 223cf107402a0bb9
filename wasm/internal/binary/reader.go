package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// ErrOverflow is returned when a LEB128 value does not fit its target width.
var ErrOverflow = errors.New("leb128: overflow")

// Reader decodes WASM binary primitives from a byte slice, tracking the
// current offset for error reporting.
type Reader struct {
	data []byte
	off  int
}

// NewReader creates a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Position returns the current byte offset.
func (r *Reader) Position() int {
	return r.off
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.data) - r.off
}

// Reset seeks to the given offset.
func (r *Reader) Reset(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return fmt.Errorf("reset to %d outside buffer of %d bytes", pos, len(r.data))
	}
	r.off = pos
	return nil
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	if r.off >= len(r.data) {
		return 0, io.EOF
	}
	b := r.data[r.off]
	r.off++
	return b, nil
}

// ReadBytes reads exactly n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.data) {
		return nil, io.ErrUnexpectedEOF
	}
	buf := make([]byte, n)
	copy(buf, r.data[r.off:])
	r.off += n
	return buf, nil
}

// ReadRemaining reads all unread bytes.
func (r *Reader) ReadRemaining() ([]byte, error) {
	return r.ReadBytes(r.Len())
}

// ReadU32 reads an unsigned LEB128 encoded uint32.
func (r *Reader) ReadU32() (uint32, error) {
	v, err := r.readULEB(35)
	return uint32(v), err
}

// ReadU64 reads an unsigned LEB128 encoded uint64.
func (r *Reader) ReadU64() (uint64, error) {
	return r.readULEB(70)
}

func (r *Reader) readULEB(maxShift uint) (uint64, error) {
	var v uint64
	for shift := uint(0); shift < maxShift; shift += 7 {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, nil
		}
	}
	return 0, r.wrapError(ErrOverflow)
}

// ReadS32 reads a signed LEB128 encoded int32.
func (r *Reader) ReadS32() (int32, error) {
	v, err := r.readSLEB(35, 32)
	return int32(v), err
}

// ReadS64 reads a signed LEB128 encoded int64.
func (r *Reader) ReadS64() (int64, error) {
	return r.readSLEB(70, 64)
}

func (r *Reader) readSLEB(maxShift, width uint) (int64, error) {
	var v int64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < width && b&0x40 != 0 {
				v |= ^int64(0) << shift
			}
			return v, nil
		}
		if shift >= maxShift {
			return 0, r.wrapError(ErrOverflow)
		}
	}
}

// ReadName reads a length-prefixed UTF-8 name.
func (r *Reader) ReadName() (string, error) {
	n, err := r.ReadU32()
	if err != nil {
		return "", err
	}
	data, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", r.wrapError(errors.New("invalid UTF-8 in name"))
	}
	return string(data), nil
}

// ReadU32LE reads a fixed 4-byte little-endian uint32.
func (r *Reader) ReadU32LE() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

func (r *Reader) wrapError(err error) error {
	return fmt.Errorf("at offset %d: %w", r.off, err)
}

// ParseError carries the section and byte offset where decoding failed.
type ParseError struct {
	Err      error
	Section  string
	Position int
}

func (e *ParseError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("wasm: %s at offset %d: %v", e.Section, e.Position, e.Err)
	}
	return fmt.Sprintf("wasm: at offset %d: %v", e.Position, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// WrapError creates a ParseError at the current offset.
func (r *Reader) WrapError(section string, err error) error {
	return &ParseError{
		Position: r.off,
		Section:  section,
		Err:      err,
	}
}
