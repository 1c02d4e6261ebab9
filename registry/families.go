package registry

import (
	"encoding"
	"fmt"
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-sif/sifkit"
	"github.com/go-sif/sifkit/internal/wire"
	"google.golang.org/protobuf/proto"
)

// binaryRecord is the family selector for self-describing generated record
// types, which carry their own binary schema via the standard marshaler pair
type binaryRecord interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

var (
	binaryRecordType = reflect.TypeOf((*binaryRecord)(nil)).Elem()
	protoMessageType = reflect.TypeOf((*proto.Message)(nil)).Elem()
)

// registerFamilies installs the family-level strategies: self-describing
// generated records, protobuf messages, and the terminal reflection fallback
// for everything else
func registerFamilies(reg *Registry) error {
	if err := reg.RegisterFamily(binaryRecordType, &binaryStrategy{}); err != nil {
		return err
	}
	if err := reg.RegisterFamily(protoMessageType, &protoStrategy{}); err != nil {
		return err
	}
	return reg.SetFallback(&cborStrategy{})
}

// binaryStrategy delegates to a type's own MarshalBinary/UnmarshalBinary
// pair. Decoded values are returned in value form.
type binaryStrategy struct{}

func (s *binaryStrategy) Write(c sifkit.Codec, w io.Writer, v interface{}) error {
	m, ok := v.(encoding.BinaryMarshaler)
	if !ok {
		// the marshaler may be declared on the pointer type
		m, ok = addressableCopy(v).(encoding.BinaryMarshaler)
		if !ok {
			return fmt.Errorf("Value %v does not implement BinaryMarshaler", v)
		}
	}
	data, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	return wire.EncodeBytes(data, w)
}

func (s *binaryStrategy) Read(c sifkit.Codec, r io.Reader, t reflect.Type) (interface{}, error) {
	data, err := wire.DecodeBytes(r)
	if err != nil {
		return nil, err
	}
	p := reflect.New(t)
	u, ok := p.Interface().(encoding.BinaryUnmarshaler)
	if !ok {
		return nil, fmt.Errorf("Type %v does not implement BinaryUnmarshaler", t)
	}
	if err := u.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return p.Elem().Interface(), nil
}

// protoStrategy delegates to the protobuf codec. Decoded messages are
// returned in pointer form, as protobuf messages always are.
type protoStrategy struct{}

func (s *protoStrategy) Write(c sifkit.Codec, w io.Writer, v interface{}) error {
	msg, ok := v.(proto.Message)
	if !ok {
		msg, ok = addressableCopy(v).(proto.Message)
		if !ok {
			return fmt.Errorf("Value %v is not a protobuf message", v)
		}
	}
	data, err := proto.Marshal(msg)
	if err != nil {
		return err
	}
	return wire.EncodeBytes(data, w)
}

func (s *protoStrategy) Read(c sifkit.Codec, r io.Reader, t reflect.Type) (interface{}, error) {
	data, err := wire.DecodeBytes(r)
	if err != nil {
		return nil, err
	}
	msg, ok := reflect.New(t).Interface().(proto.Message)
	if !ok {
		return nil, fmt.Errorf("Type %v is not a protobuf message", t)
	}
	if err := proto.Unmarshal(data, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// cborStrategy is the terminal fallback: generic reflection-based encoding of
// any remaining record type. Decoded values are returned in value form.
type cborStrategy struct{}

func (s *cborStrategy) Write(c sifkit.Codec, w io.Writer, v interface{}) error {
	data, err := cbor.Marshal(v)
	if err != nil {
		return err
	}
	return wire.EncodeBytes(data, w)
}

func (s *cborStrategy) Read(c sifkit.Codec, r io.Reader, t reflect.Type) (interface{}, error) {
	data, err := wire.DecodeBytes(r)
	if err != nil {
		return nil, err
	}
	p := reflect.New(t)
	if err := cbor.Unmarshal(data, p.Interface()); err != nil {
		return nil, err
	}
	return p.Elem().Interface(), nil
}

// addressableCopy boxes a value into a fresh pointer, for values whose
// capability methods are declared on the pointer type
func addressableCopy(v interface{}) interface{} {
	p := reflect.New(reflect.TypeOf(v))
	p.Elem().Set(reflect.ValueOf(v))
	return p.Interface()
}
