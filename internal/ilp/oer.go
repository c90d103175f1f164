package ilp

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// This file implements the OER (Octet Encoding Rules) length determinant
// and variable-octet-string primitives used by Prepare/Fulfill/Reject.
// The length determinant itself follows the same short-form/long-form
// split as the DER lengths parsed in internal/core/tx/escrow/crypto.go:
// a first byte < 0x80 is the length itself; a first byte with the high
// bit set carries, in its low 7 bits, how many following big-endian bytes
// encode the real length.

var (
	errShortBuffer   = errors.New("ilp: buffer too short")
	errLengthTooBig  = errors.New("ilp: length determinant too large")
	errTrailingBytes = errors.New("ilp: trailing bytes after packet")
)

// reader walks a byte slice left to right, matching the ReadByte/ReadBytes/
// HasMore shape of internal/types/interfaces.BinaryParser.
type reader struct {
	buf []byte
	pos int
}

func newReader(buf []byte) *reader { return &reader{buf: buf} }

func (r *reader) HasMore() bool { return r.pos < len(r.buf) }

func (r *reader) ReadByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, errShortBuffer
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, errShortBuffer
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

// ReadLength reads an OER length determinant.
func (r *reader) ReadLength() (int, error) {
	first, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if first < 0x80 {
		return int(first), nil
	}
	numBytes := int(first & 0x7F)
	if numBytes == 0 || numBytes > 4 {
		return 0, errLengthTooBig
	}
	lenBytes, err := r.ReadBytes(numBytes)
	if err != nil {
		return 0, err
	}
	var length uint64
	for _, b := range lenBytes {
		length = (length << 8) | uint64(b)
	}
	if length > uint64(1)<<31 {
		return 0, errLengthTooBig
	}
	return int(length), nil
}

// ReadVarOctetString reads a length-prefixed byte string.
func (r *reader) ReadVarOctetString() ([]byte, error) {
	n, err := r.ReadLength()
	if err != nil {
		return nil, err
	}
	return r.ReadBytes(n)
}

// ReadUint64 reads a fixed 8-byte big-endian integer.
func (r *reader) ReadUint64() (uint64, error) {
	b, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// writer accumulates OER-encoded output, matching the append-style
// BinarySerializer used elsewhere in the codec.
type writer struct {
	buf []byte
}

func (w *writer) WriteByte(b byte) { w.buf = append(w.buf, b) }

func (w *writer) WriteBytes(b []byte) { w.buf = append(w.buf, b...) }

// WriteLength writes an OER length determinant for the given length.
func (w *writer) WriteLength(n int) error {
	if n < 0 {
		return fmt.Errorf("ilp: negative length %d", n)
	}
	if n < 0x80 {
		w.WriteByte(byte(n))
		return nil
	}
	var lenBytes []byte
	v := uint64(n)
	for v > 0 {
		lenBytes = append([]byte{byte(v & 0xFF)}, lenBytes...)
		v >>= 8
	}
	if len(lenBytes) > 4 {
		return errLengthTooBig
	}
	w.WriteByte(0x80 | byte(len(lenBytes)))
	w.WriteBytes(lenBytes)
	return nil
}

// WriteVarOctetString writes a length-prefixed byte string.
func (w *writer) WriteVarOctetString(b []byte) error {
	if err := w.WriteLength(len(b)); err != nil {
		return err
	}
	w.WriteBytes(b)
	return nil
}

// WriteUint64 writes a fixed 8-byte big-endian integer.
func (w *writer) WriteUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.WriteBytes(b[:])
}

func (w *writer) Bytes() []byte { return w.buf }
