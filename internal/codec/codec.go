// codec.go - Little-endian wire codec shared by the event parser and the
// instruction encoder.
//
// The layout matches the on-chain ABI bit-for-bit: fixed-width integers are
// little-endian, length prefixes are u32 counts, and variable-length
// elements each carry their own length.

package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// ErrTruncatedInput is returned by the decoder when a read runs past the end
// of the buffer.
var ErrTruncatedInput = errors.New("codec: truncated input")

// Encoder builds a wire payload left to right.
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Bytes returns the accumulated payload.
func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int {
	return e.buf.Len()
}

// WriteU8 appends a single byte.
func (e *Encoder) WriteU8(v uint8) {
	e.buf.WriteByte(v)
}

// WriteU16 appends a little-endian u16.
func (e *Encoder) WriteU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	e.buf.Write(b[:])
}

// WriteU32 appends a little-endian u32.
func (e *Encoder) WriteU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

// WriteU64 appends a little-endian u64.
func (e *Encoder) WriteU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

// WriteFixed appends raw bytes with no length prefix.
func (e *Encoder) WriteFixed(b []byte) {
	e.buf.Write(b)
}

// WriteBytes32 appends a fixed 32-byte array.
func (e *Encoder) WriteBytes32(b [32]byte) {
	e.buf.Write(b[:])
}

// WriteBytes appends a u32 length prefix followed by the bytes.
func (e *Encoder) WriteBytes(b []byte) {
	e.WriteU32(uint32(len(b)))
	e.buf.Write(b)
}

// WriteString appends a u32 length prefix followed by the UTF-8 bytes.
func (e *Encoder) WriteString(s string) {
	e.WriteU32(uint32(len(s)))
	e.buf.WriteString(s)
}

// WriteBytes32Vec appends a u32 count followed by the fixed-width elements.
func (e *Encoder) WriteBytes32Vec(items [][32]byte) {
	e.WriteU32(uint32(len(items)))
	for _, it := range items {
		e.buf.Write(it[:])
	}
}

// WriteU64Vec appends a u32 count followed by little-endian u64 elements.
func (e *Encoder) WriteU64Vec(items []uint64) {
	e.WriteU32(uint32(len(items)))
	for _, it := range items {
		e.WriteU64(it)
	}
}

// WriteBytesVec appends a u32 count followed by length-prefixed elements.
func (e *Encoder) WriteBytesVec(items [][]byte) {
	e.WriteU32(uint32(len(items)))
	for _, it := range items {
		e.WriteBytes(it)
	}
}

// Decoder consumes a wire payload left to right with a cursor.
type Decoder struct {
	data []byte
	off  int
}

// NewDecoder wraps data for reading. The decoder does not copy; callers must
// not mutate data while decoding.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.data) - d.off
}

func (d *Decoder) take(n int) ([]byte, error) {
	if n < 0 || d.Remaining() < n {
		return nil, ErrTruncatedInput
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b, nil
}

// ReadU8 reads a single byte.
func (d *Decoder) ReadU8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a little-endian u16.
func (d *Decoder) ReadU16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32 reads a little-endian u32.
func (d *Decoder) ReadU32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU64 reads a little-endian u64.
func (d *Decoder) ReadU64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadFixed reads exactly n raw bytes.
func (d *Decoder) ReadFixed(n int) ([]byte, error) {
	b, err := d.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadBytes32 reads a fixed 32-byte array.
func (d *Decoder) ReadBytes32() ([32]byte, error) {
	var out [32]byte
	b, err := d.take(32)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// ReadBytes reads a u32 length prefix followed by that many bytes.
func (d *Decoder) ReadBytes() ([]byte, error) {
	n, err := d.ReadU32()
	if err != nil {
		return nil, err
	}
	return d.ReadFixed(int(n))
}

// ReadString reads a u32 length prefix followed by UTF-8 bytes.
func (d *Decoder) ReadString() (string, error) {
	b, err := d.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadBytes32Vec reads a u32 count followed by fixed 32-byte elements.
func (d *Decoder) ReadBytes32Vec() ([][32]byte, error) {
	n, err := d.ReadU32()
	if err != nil {
		return nil, err
	}
	if d.Remaining() < int(n)*32 {
		return nil, ErrTruncatedInput
	}
	out := make([][32]byte, n)
	for i := range out {
		out[i], err = d.ReadBytes32()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReadU64Vec reads a u32 count followed by little-endian u64 elements.
func (d *Decoder) ReadU64Vec() ([]uint64, error) {
	n, err := d.ReadU32()
	if err != nil {
		return nil, err
	}
	if d.Remaining() < int(n)*8 {
		return nil, ErrTruncatedInput
	}
	out := make([]uint64, n)
	for i := range out {
		out[i], err = d.ReadU64()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReadBytesVec reads a u32 count of length-prefixed elements.
func (d *Decoder) ReadBytesVec() ([][]byte, error) {
	n, err := d.ReadU32()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, n)
	for i := uint32(0); i < n; i++ {
		b, err := d.ReadBytes()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
