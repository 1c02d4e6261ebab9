package sifkit

import (
	"io"
	"reflect"
)

// A Strategy reads and writes values of a specific concrete type (or type
// family) to and from streams. Strategies are stateless or cheaply
// constructed, and are owned by the StrategyRegistry which registered them.
type Strategy interface {
	// Write serializes v to w. The supplied Codec may be used to recursively
	// encode nested values polymorphically.
	Write(c Codec, w io.Writer, v interface{}) error
	// Read deserializes one value of concrete type t from r. The supplied
	// Codec may be used to recursively decode nested values polymorphically.
	Read(c Codec, r io.Reader, t reflect.Type) (interface{}, error)
}

// A Codec writes and reads self-describing values, dispatching to the
// appropriate Strategy based on the concrete type of the value (when writing)
// or the embedded type identifier (when reading). It is handed to Strategies
// so that container types can encode their elements polymorphically.
type Codec interface {
	WriteValue(w io.Writer, v interface{}) error
	ReadValue(r io.Reader) (interface{}, error)
}
