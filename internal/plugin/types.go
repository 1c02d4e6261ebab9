package plugin

import (
	"fmt"
	"log"
	"reflect"
	"sync"
)

var (
	typesMu     sync.RWMutex
	typesSealed bool
	types       = make(map[string]reflect.Type)
)

// RegisterType inserts a named type into the process-wide type table under
// its wire identifier, so that decoders can resolve embedded type tags for
// types reached through family or fallback strategies. Panics on unnamed
// types, on conflicting re-registration, or if called after the first
// registry build.
func RegisterType(t reflect.Type) string {
	t = indirect(t)
	key, ok := TypeKey(t)
	if !ok {
		log.Panicf("Type %v cannot be registered: only named types have wire identifiers", t)
	}
	typesMu.Lock()
	defer typesMu.Unlock()
	if typesSealed {
		log.Panicf("Type %s registered after the first registry build - register during init() instead", key)
	}
	if existing, exists := types[key]; exists && existing != t {
		log.Panicf("Type identifier %s already registered for %v, refusing to rebind to %v", key, existing, t)
	}
	types[key] = t
	return key
}

// LookupType resolves a wire type identifier to its registered type
func LookupType(key string) (reflect.Type, bool) {
	typesMu.RLock()
	defer typesMu.RUnlock()
	t, ok := types[key]
	return t, ok
}

// SealTypes closes the type table against further registration. Called by
// the registry builder so that all registries built in this process resolve
// an identical type set.
func SealTypes() {
	typesMu.Lock()
	defer typesMu.Unlock()
	typesSealed = true
}

// TypeKey returns the wire identifier for a named type, or false for
// pre-declared and unnamed types.
func TypeKey(t reflect.Type) (string, bool) {
	if t.PkgPath() == "" || t.Name() == "" {
		return "", false
	}
	return fmt.Sprintf("%s.%s", t.PkgPath(), t.Name()), true
}

// indirect strips pointer layers from a type
func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
