// Package registry implements sifkit's serialization strategy registry: a
// write-once table mapping concrete types and type families to Strategies,
// which doubles as the polymorphic Codec used to put self-describing values
// on the wire. A Registry is not safe for concurrent use - callers own one
// Registry per execution context (see the coder package's engine pool).
package registry

import (
	"fmt"
	"io"
	"reflect"

	"github.com/go-sif/sifkit"
	serrors "github.com/go-sif/sifkit/errors"
	"github.com/go-sif/sifkit/internal/wire"
)

type familyEntry struct {
	iface    reflect.Type
	strategy sifkit.Strategy
}

// Registry is the concrete StrategyRegistry and Codec implementation. Exact
// registrations win over families; families match in registration order; the
// fallback covers everything else.
type Registry struct {
	strategies map[reflect.Type]sifkit.Strategy
	families   []familyEntry
	fallback   sifkit.Strategy
	names      map[string]reflect.Type
	keys       map[reflect.Type]string
	frozen     bool
}

func createRegistry() *Registry {
	return &Registry{
		strategies: make(map[reflect.Type]sifkit.Strategy),
		names:      make(map[string]reflect.Type),
		keys:       make(map[reflect.Type]string),
	}
}

// Register binds a Strategy to an exact concrete type
func (r *Registry) Register(t reflect.Type, s sifkit.Strategy) error {
	if r.frozen {
		return fmt.Errorf("Registry is frozen and cannot accept new registrations")
	}
	t = indirectType(t)
	if _, exists := r.strategies[t]; exists {
		return fmt.Errorf("Type %v already has a registered strategy", t)
	}
	key := typeKeyOf(t)
	r.strategies[t] = s
	r.keys[t] = key
	r.names[key] = t
	return nil
}

// RegisterFamily binds a Strategy to all types implementing the given
// interface type. Families are consulted in registration order when no exact
// registration matches.
func (r *Registry) RegisterFamily(iface reflect.Type, s sifkit.Strategy) error {
	if r.frozen {
		return fmt.Errorf("Registry is frozen and cannot accept new registrations")
	}
	if iface.Kind() != reflect.Interface {
		return fmt.Errorf("Family selector %v is not an interface type", iface)
	}
	r.families = append(r.families, familyEntry{iface: iface, strategy: s})
	return nil
}

// SetFallback binds the Strategy used when no exact or family registration
// matches a type
func (r *Registry) SetFallback(s sifkit.Strategy) error {
	if r.frozen {
		return fmt.Errorf("Registry is frozen and cannot accept new registrations")
	}
	if r.fallback != nil {
		return fmt.Errorf("Registry already has a fallback strategy")
	}
	r.fallback = s
	return nil
}

// registerAlias binds t to the same strategy and wire identifier as target,
// making the two types indistinguishable on the wire. Decoding yields the
// target type's representation. Used for wrapper types which must encode
// byte-identically to what they wrap.
func (r *Registry) registerAlias(t reflect.Type, target reflect.Type) error {
	if r.frozen {
		return fmt.Errorf("Registry is frozen and cannot accept new registrations")
	}
	s, exists := r.strategies[target]
	if !exists {
		return fmt.Errorf("Alias target %v has no registered strategy", target)
	}
	r.strategies[t] = s
	r.keys[t] = typeKeyOf(target)
	return nil
}

// StrategyFor resolves the Strategy for a concrete type
func (r *Registry) StrategyFor(t reflect.Type) (sifkit.Strategy, error) {
	t = indirectType(t)
	if s, exists := r.strategies[t]; exists {
		return s, nil
	}
	for _, f := range r.families {
		if t.Implements(f.iface) || reflect.PtrTo(t).Implements(f.iface) {
			return f.strategy, nil
		}
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, serrors.UnknownTypeError{Type: t}
}

// WriteValue writes v to w as a self-describing value: the type identifier
// for v's concrete type, then the payload produced by the resolved Strategy
func (r *Registry) WriteValue(w io.Writer, v interface{}) error {
	if isNilValue(v) {
		return serrors.EncodeNilError{}
	}
	t := indirectType(reflect.TypeOf(v))
	s, err := r.StrategyFor(t)
	if err != nil {
		return err
	}
	if err := wire.EncodeString(r.keyFor(t), w); err != nil {
		return err
	}
	return s.Write(r, w, v)
}

// ReadValue reads one self-describing value from r, resolving the embedded
// type identifier against this Registry and the process-wide type table
func (r *Registry) ReadValue(rd io.Reader) (interface{}, error) {
	key, err := wire.DecodeString(rd)
	if err != nil {
		return nil, err
	}
	t, ok := r.typeFor(key)
	if !ok {
		return nil, serrors.UnresolvableTypeError{Key: key}
	}
	s, err := r.StrategyFor(t)
	if err != nil {
		return nil, serrors.UnresolvableTypeError{Key: key}
	}
	return s.Read(r, rd, t)
}

// keyFor returns the wire identifier for a type, preferring identifiers
// pinned at registration time (which includes aliases)
func (r *Registry) keyFor(t reflect.Type) string {
	if key, exists := r.keys[t]; exists {
		return key
	}
	return typeKeyOf(t)
}

// typeFor resolves a wire identifier, first against this Registry's own
// registrations, then against the process-wide type table
func (r *Registry) typeFor(key string) (reflect.Type, bool) {
	if t, exists := r.names[key]; exists {
		return t, true
	}
	return sifkit.LookupType(key)
}

// typeKeyOf derives the wire identifier for a type: the full package path and
// name for named types, or the reflected string form for predeclared and
// unnamed types (e.g. "int", "[]uint8", "[]interface {}")
func typeKeyOf(t reflect.Type) string {
	if t.PkgPath() != "" && t.Name() != "" {
		return fmt.Sprintf("%s.%s", t.PkgPath(), t.Name())
	}
	return t.String()
}

// isNilValue reports whether v is nil at any pointer depth. A typed nil
// pointer is as unencodable as an untyped one - strategies operate on the
// pointed-to value, which does not exist.
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

func indirectType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// derefValue normalizes a pointer value to its element for strategies which
// operate on the value form
func derefValue(v interface{}) interface{} {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	return rv.Interface()
}
