package sifkit

import "io"

// A Coder encodes and decodes records of arbitrary concrete type to and from
// byte streams, so that they may be shuffled, persisted or exchanged with
// other pipeline components. Encoded data is self-describing: a type
// identifier precedes each payload, allowing Decode to recover the concrete
// type without external hints.
type Coder interface {
	// Encode writes v to w. The value may not be nil - encode nullability
	// out-of-band if nil is a legitimate payload.
	Encode(v interface{}, w io.Writer, ctx EncodingContext) error
	// Decode reads one value from r. The result's concrete type is whatever
	// was encoded; it is not validated against the caller's expectations.
	Decode(r io.Reader, ctx EncodingContext) (interface{}, error)
}

// An EncodingContext tells a Coder whether it owns the entirety of a stream,
// or shares it with other encoded values.
type EncodingContext struct {
	// WholeStream is true iff this Coder is the sole, terminal consumer of
	// the stream and no subsequent value follows in the same stream. When
	// false, each value is framed with a varint length prefix so that
	// multiple values may be written back-to-back.
	WholeStream bool
}

// WholeStreamContext is the EncodingContext for a value which occupies an
// entire stream by itself.
var WholeStreamContext = EncodingContext{WholeStream: true}

// ChunkedContext is the EncodingContext for values which share a stream with
// other encoded values, requiring length-prefixed framing.
var ChunkedContext = EncodingContext{WholeStream: false}
