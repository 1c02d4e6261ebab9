package registry

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"

	"github.com/go-sif/sifkit"
	"github.com/go-sif/sifkit/internal/wire"
)

// registerDefaults installs strategies for the primitive types every engine
// understands out of the box
func registerDefaults(reg *Registry) error {
	defaults := []struct {
		t reflect.Type
		s sifkit.Strategy
	}{
		{reflect.TypeOf(false), &boolStrategy{}},
		{reflect.TypeOf(int(0)), &intStrategy{}},
		{reflect.TypeOf(int64(0)), &int64Strategy{}},
		{reflect.TypeOf(uint64(0)), &uint64Strategy{}},
		{reflect.TypeOf(float64(0)), &float64Strategy{}},
		{reflect.TypeOf(""), &stringStrategy{}},
		{reflect.TypeOf([]byte(nil)), &bytesStrategy{}},
	}
	for _, d := range defaults {
		if err := reg.Register(d.t, d.s); err != nil {
			return err
		}
	}
	return nil
}

// registerBuiltins installs strategies for the record types the surrounding
// pipeline ecosystem defines specially: timestamps, loosely-structured rows,
// key-value pairs, plain iterables, and the Elements wrapper shim which must
// encode byte-identically to the plain iterable it wraps.
func registerBuiltins(reg *Registry) error {
	if err := reg.Register(reflect.TypeOf(sifkit.Instant(0)), &instantStrategy{}); err != nil {
		return err
	}
	if err := reg.Register(reflect.TypeOf(sifkit.Row{}), &rowStrategy{}); err != nil {
		return err
	}
	if err := reg.Register(reflect.TypeOf(sifkit.KV{}), &kvStrategy{}); err != nil {
		return err
	}
	iterableType := reflect.TypeOf([]interface{}(nil))
	if err := reg.Register(iterableType, &iterableStrategy{}); err != nil {
		return err
	}
	// the wrapper must be indistinguishable from the plain iterable on the
	// wire, re-delegating to the plain-iterable strategy
	return reg.registerAlias(reflect.TypeOf(sifkit.Elements(nil)), iterableType)
}

type boolStrategy struct{}

func (s *boolStrategy) Write(c sifkit.Codec, w io.Writer, v interface{}) error {
	var b byte
	if derefValue(v).(bool) {
		b = 1
	}
	_, err := w.Write([]byte{b})
	return err
}

func (s *boolStrategy) Read(c sifkit.Codec, r io.Reader, t reflect.Type) (interface{}, error) {
	var data [1]byte
	if _, err := io.ReadFull(r, data[:]); err != nil {
		return nil, err
	}
	return data[0] != 0, nil
}

type intStrategy struct{}

func (s *intStrategy) Write(c sifkit.Codec, w io.Writer, v interface{}) error {
	return wire.EncodeVarInt(int64(derefValue(v).(int)), w)
}

func (s *intStrategy) Read(c sifkit.Codec, r io.Reader, t reflect.Type) (interface{}, error) {
	val, err := wire.DecodeVarInt(r)
	if err != nil {
		return nil, err
	}
	return int(val), nil
}

type int64Strategy struct{}

func (s *int64Strategy) Write(c sifkit.Codec, w io.Writer, v interface{}) error {
	return wire.EncodeVarInt(derefValue(v).(int64), w)
}

func (s *int64Strategy) Read(c sifkit.Codec, r io.Reader, t reflect.Type) (interface{}, error) {
	return wire.DecodeVarInt(r)
}

type uint64Strategy struct{}

func (s *uint64Strategy) Write(c sifkit.Codec, w io.Writer, v interface{}) error {
	return wire.EncodeVarUint64(derefValue(v).(uint64), w)
}

func (s *uint64Strategy) Read(c sifkit.Codec, r io.Reader, t reflect.Type) (interface{}, error) {
	return wire.DecodeVarUint64(r)
}

type float64Strategy struct{}

func (s *float64Strategy) Write(c sifkit.Codec, w io.Writer, v interface{}) error {
	var data [8]byte
	binary.BigEndian.PutUint64(data[:], math.Float64bits(derefValue(v).(float64)))
	_, err := w.Write(data[:])
	return err
}

func (s *float64Strategy) Read(c sifkit.Codec, r io.Reader, t reflect.Type) (interface{}, error) {
	var data [8]byte
	if _, err := io.ReadFull(r, data[:]); err != nil {
		return nil, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(data[:])), nil
}

type stringStrategy struct{}

func (s *stringStrategy) Write(c sifkit.Codec, w io.Writer, v interface{}) error {
	return wire.EncodeString(derefValue(v).(string), w)
}

func (s *stringStrategy) Read(c sifkit.Codec, r io.Reader, t reflect.Type) (interface{}, error) {
	return wire.DecodeString(r)
}

type bytesStrategy struct{}

func (s *bytesStrategy) Write(c sifkit.Codec, w io.Writer, v interface{}) error {
	return wire.EncodeBytes(derefValue(v).([]byte), w)
}

func (s *bytesStrategy) Read(c sifkit.Codec, r io.Reader, t reflect.Type) (interface{}, error) {
	return wire.DecodeBytes(r)
}

// instantStrategy encodes Instants as fixed eight-byte big-endian millisecond
// timestamps
type instantStrategy struct{}

func (s *instantStrategy) Write(c sifkit.Codec, w io.Writer, v interface{}) error {
	var data [8]byte
	binary.BigEndian.PutUint64(data[:], uint64(derefValue(v).(sifkit.Instant)))
	_, err := w.Write(data[:])
	return err
}

func (s *instantStrategy) Read(c sifkit.Codec, r io.Reader, t reflect.Type) (interface{}, error) {
	var data [8]byte
	if _, err := io.ReadFull(r, data[:]); err != nil {
		return nil, err
	}
	return sifkit.Instant(binary.BigEndian.Uint64(data[:])), nil
}

// rowStrategy encodes Rows field-by-field in sorted field order, with field
// values encoded polymorphically. Sorting makes Row encoding deterministic
// regardless of map iteration order.
type rowStrategy struct{}

func (s *rowStrategy) Write(c sifkit.Codec, w io.Writer, v interface{}) error {
	row, ok := derefValue(v).(sifkit.Row)
	if !ok {
		return fmt.Errorf("Value %v is not a Row", v)
	}
	fields := make([]string, 0, len(row))
	for name := range row {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	if err := wire.EncodeVarUint64(uint64(len(fields)), w); err != nil {
		return err
	}
	for _, name := range fields {
		if err := wire.EncodeString(name, w); err != nil {
			return err
		}
		if err := c.WriteValue(w, row[name]); err != nil {
			return err
		}
	}
	return nil
}

func (s *rowStrategy) Read(c sifkit.Codec, r io.Reader, t reflect.Type) (interface{}, error) {
	numFields, err := wire.DecodeVarUint64(r)
	if err != nil {
		return nil, err
	}
	row := make(sifkit.Row, numFields)
	for i := uint64(0); i < numFields; i++ {
		name, err := wire.DecodeString(r)
		if err != nil {
			return nil, err
		}
		value, err := c.ReadValue(r)
		if err != nil {
			return nil, err
		}
		row[name] = value
	}
	return row, nil
}

// kvStrategy encodes both halves of a KV polymorphically
type kvStrategy struct{}

func (s *kvStrategy) Write(c sifkit.Codec, w io.Writer, v interface{}) error {
	kv, ok := derefValue(v).(sifkit.KV)
	if !ok {
		return fmt.Errorf("Value %v is not a KV", v)
	}
	if err := c.WriteValue(w, kv.Key); err != nil {
		return err
	}
	return c.WriteValue(w, kv.Value)
}

func (s *kvStrategy) Read(c sifkit.Codec, r io.Reader, t reflect.Type) (interface{}, error) {
	key, err := c.ReadValue(r)
	if err != nil {
		return nil, err
	}
	value, err := c.ReadValue(r)
	if err != nil {
		return nil, err
	}
	return sifkit.KV{Key: key, Value: value}, nil
}

// iterableStrategy encodes slices of records as a varint element count
// followed by polymorphically-encoded elements. It serves both plain
// []interface{} values and named wrapper types aliased to it, so elements are
// accessed reflectively.
type iterableStrategy struct{}

func (s *iterableStrategy) Write(c sifkit.Codec, w io.Writer, v interface{}) error {
	rv := reflect.ValueOf(derefValue(v))
	if rv.Kind() != reflect.Slice {
		return fmt.Errorf("Value %v is not a slice", v)
	}
	if err := wire.EncodeVarUint64(uint64(rv.Len()), w); err != nil {
		return err
	}
	for i := 0; i < rv.Len(); i++ {
		if err := c.WriteValue(w, rv.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

func (s *iterableStrategy) Read(c sifkit.Codec, r io.Reader, t reflect.Type) (interface{}, error) {
	count, err := wire.DecodeVarUint64(r)
	if err != nil {
		return nil, err
	}
	elements := make([]interface{}, count)
	for i := uint64(0); i < count; i++ {
		element, err := c.ReadValue(r)
		if err != nil {
			return nil, err
		}
		elements[i] = element
	}
	return elements, nil
}
