// Package wire implements the low-level byte encodings shared by the registry
// and coder packages: variable-length integers (7 data bits per byte, high bit
// as continuation flag, little-endian group order) and varint-length-prefixed
// byte strings.
package wire

import (
	"bytes"
	"errors"
	"io"
	"math"
)

// maxEagerPayloadAlloc bounds the allocation made up-front from a decoded
// length prefix. Payloads claiming more are read incrementally, so a corrupt
// length cannot demand an arbitrarily large allocation before any payload
// byte has been read.
const maxEagerPayloadAlloc = 1 << 20

// ErrVarIntTooLong indicates a corrupt varint whose continuation bits exceed
// the capacity of a uint64.
var ErrVarIntTooLong = errors.New("varint too long")

// EncodeVarUint64 writes a varint-encoded uint64 to w
func EncodeVarUint64(value uint64, w io.Writer) error {
	ret := make([]byte, 0, 10)
	for {
		bits := value & 0x7f
		value >>= 7
		var mask uint64
		if value != 0 {
			mask = 0x80
		}
		ret = append(ret, byte(bits|mask))
		if value == 0 {
			_, err := w.Write(ret)
			return err
		}
	}
}

// DecodeVarUint64 reads a varint-encoded uint64 from r
func DecodeVarUint64(r io.Reader) (uint64, error) {
	var ret uint64
	var shift uint
	var data [1]byte
	for {
		if n, err := io.ReadFull(r, data[:]); n < 1 {
			return 0, err
		}
		b := data[0]
		bits := uint64(b & 0x7f)
		if shift >= 64 || (shift == 63 && bits > 1) {
			return 0, ErrVarIntTooLong
		}
		ret |= bits << shift
		shift += 7
		if (b & 0x80) == 0 {
			return ret, nil
		}
	}
}

// EncodeVarInt writes a varint-encoded int64 to w. Negative values occupy the
// full ten bytes.
func EncodeVarInt(value int64, w io.Writer) error {
	return EncodeVarUint64(uint64(value), w)
}

// DecodeVarInt reads a varint-encoded int64 from r
func DecodeVarInt(r io.Reader) (int64, error) {
	ret, err := DecodeVarUint64(r)
	if err != nil {
		return 0, err
	}
	return int64(ret), nil
}

// EncodeBytes writes a varint length prefix followed by the given bytes to w
func EncodeBytes(data []byte, w io.Writer) error {
	if err := EncodeVarUint64(uint64(len(data)), w); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// DecodeBytes reads a varint length prefix and exactly that many bytes from r
func DecodeBytes(r io.Reader) ([]byte, error) {
	length, err := DecodeVarUint64(r)
	if err != nil {
		return nil, err
	}
	return ReadPayload(length, r)
}

// ReadPayload reads exactly length bytes from r, returning
// io.ErrUnexpectedEOF if the stream ends first. The length is untrusted - it
// comes off the wire - so allocation is driven by the bytes actually read
// once the claim exceeds maxEagerPayloadAlloc.
func ReadPayload(length uint64, r io.Reader) ([]byte, error) {
	if length <= maxEagerPayloadAlloc {
		data := make([]byte, length)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, err
		}
		return data, nil
	}
	if length > math.MaxInt64 {
		// no stream can satisfy such a claim
		return nil, io.ErrUnexpectedEOF
	}
	buf := bytes.NewBuffer(make([]byte, 0, maxEagerPayloadAlloc))
	if _, err := io.CopyN(buf, r, int64(length)); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeString writes a varint length prefix followed by the UTF-8 bytes of s
func EncodeString(s string, w io.Writer) error {
	return EncodeBytes([]byte(s), w)
}

// DecodeString reads a varint-length-prefixed string from r
func DecodeString(r io.Reader) (string, error) {
	data, err := DecodeBytes(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
