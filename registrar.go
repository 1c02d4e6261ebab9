package sifkit

import (
	"reflect"

	"github.com/go-sif/sifkit/internal/plugin"
)

// A Registrar contributes serialization Strategies to a StrategyRegistry.
// Packages which define their own record types implement Registrar and hand
// an instance to RegisterRegistrar from an init function; the registry
// builder invokes Contribute on every registered Registrar each time a new
// registry is constructed.
type Registrar interface {
	Contribute(reg StrategyRegistry) error
}

// RegisterRegistrar records a candidate Registrar under a unique name, to be
// invoked whenever a StrategyRegistry is built. It should be called in init()
// only, and panics if called after the first registry has been built, or if
// the name is already taken. Candidates which do not implement Registrar, or
// whose Contribute fails, are skipped during registry construction rather
// than aborting it - each registry build reports such candidates
// individually. Contribution order is registration order, which fixes
// family-match precedence deterministically.
func RegisterRegistrar(name string, candidate interface{}) {
	plugin.Register(name, candidate)
}

// RegisterType inserts a type into the process-wide type table, making it
// resolvable from the type identifier embedded in encoded data. Types covered
// by an exact Strategy registration are resolvable automatically; concrete
// types reached through a family or fallback Strategy must be registered
// here. It should be called in init() only, and panics after the first
// registry has been built. Returns the wire identifier for the type.
func RegisterType(t reflect.Type) string {
	return plugin.RegisterType(t)
}

// LookupType resolves a wire type identifier previously registered via
// RegisterType.
func LookupType(key string) (reflect.Type, bool) {
	return plugin.LookupType(key)
}
