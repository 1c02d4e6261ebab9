package registry

import (
	"fmt"
	"io"
	"reflect"

	"github.com/go-sif/sif"
	"github.com/go-sif/sifkit"
	"github.com/go-sif/sifkit/internal/wire"
)

var accumulatorType = reflect.TypeOf((*sif.Accumulator)(nil)).Elem()

// accumulatorRegistrar contributes the family strategy for Sif Accumulators,
// delegating to each accumulator's own ToBytes/FromBytes pair. It is wired
// into every build directly, not via the registrar list: Coders must always
// be able to carry accumulator state between workers.
type accumulatorRegistrar struct{}

// Contribute registers the accumulator family strategy
func (ar accumulatorRegistrar) Contribute(reg sifkit.StrategyRegistry) error {
	return reg.RegisterFamily(accumulatorType, &accumulatorStrategy{})
}

type accumulatorStrategy struct{}

func (s *accumulatorStrategy) Write(c sifkit.Codec, w io.Writer, v interface{}) error {
	acc, ok := v.(sif.Accumulator)
	if !ok {
		acc, ok = addressableCopy(v).(sif.Accumulator)
		if !ok {
			return fmt.Errorf("Value %v is not an Accumulator", v)
		}
	}
	data, err := acc.ToBytes()
	if err != nil {
		return err
	}
	return wire.EncodeBytes(data, w)
}

func (s *accumulatorStrategy) Read(c sifkit.Codec, r io.Reader, t reflect.Type) (interface{}, error) {
	data, err := wire.DecodeBytes(r)
	if err != nil {
		return nil, err
	}
	acc, ok := reflect.New(t).Interface().(sif.Accumulator)
	if !ok {
		return nil, fmt.Errorf("Type %v is not an Accumulator", t)
	}
	return acc.FromBytes(data)
}
