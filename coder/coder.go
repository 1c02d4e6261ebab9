// Package coder implements sifkit's generic record Coder. Values of any
// registered type are encoded polymorphically: a type identifier precedes
// each payload so that the decode side can select the correct deserialization
// strategy without external hints. In chunked mode each value is additionally
// framed as varint(length) + payload, so that independent values may share a
// stream back-to-back; in whole-stream mode the value's encoding occupies the
// entire stream with no length prefix.
package coder

import (
	"bytes"
	"io"
	"reflect"

	"github.com/go-sif/sifkit"
	serrors "github.com/go-sif/sifkit/errors"
	"github.com/go-sif/sifkit/internal/wire"
)

// Create returns a generic Coder backed by the shared engine pool. Coders
// are cheap value wrappers and may be created freely at use-sites.
func Create() sifkit.Coder {
	return &atomicCoder{engines: defaultEngines}
}

type atomicCoder struct {
	engines *enginePool
}

// isNilValue reports whether v is nil at any pointer depth. A typed nil
// pointer is as unencodable as an untyped one, and must be rejected before
// any byte reaches the stream.
func isNilValue(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return true
		}
		rv = rv.Elem()
	}
	return false
}

// Encode writes v to w. In chunked mode the value is serialized to an
// in-memory buffer first, because the length prefix must precede bytes whose
// length is unknown until serialization completes.
func (c *atomicCoder) Encode(v interface{}, w io.Writer, ctx sifkit.EncodingContext) error {
	if isNilValue(v) {
		// fail before anything reaches the stream
		return serrors.EncodeNilError{}
	}
	eng, err := c.engines.checkout()
	if err != nil {
		return err
	}
	defer c.engines.release(eng)
	if ctx.WholeStream {
		return eng.WriteValue(w, v)
	}
	var buf bytes.Buffer
	if err := eng.WriteValue(&buf, v); err != nil {
		return err
	}
	if err := wire.EncodeVarInt(int64(buf.Len()), w); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// Decode reads one value from r. On failure the stream position is
// undefined; callers must not attempt recovery by re-reading the same
// stream. The decoded value's concrete type is not validated against the
// caller's expectations - a mismatch surfaces later as a type assertion
// failure at the use-site.
func (c *atomicCoder) Decode(r io.Reader, ctx sifkit.EncodingContext) (interface{}, error) {
	eng, err := c.engines.checkout()
	if err != nil {
		return nil, err
	}
	defer c.engines.release(eng)
	if ctx.WholeStream {
		return eng.ReadValue(r)
	}
	length, err := wire.DecodeVarInt(r)
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, serrors.InvalidLengthError{Length: length}
	}
	payload, err := wire.ReadPayload(uint64(length), r)
	if err != nil {
		return nil, err
	}
	return eng.ReadValue(bytes.NewReader(payload))
}
