package sifkit

import "reflect"

// A StrategyRegistry maps concrete types (or type families) to serialization
// Strategies. A registry is populated exactly once, during construction, and
// is read-only thereafter. Exact-type registrations always take precedence
// over family registrations; families are consulted in registration order,
// with the first match winning; the fallback Strategy, if any, covers
// everything else.
type StrategyRegistry interface {
	Register(t reflect.Type, s Strategy) error             // Register binds a Strategy to an exact concrete type
	RegisterFamily(iface reflect.Type, s Strategy) error   // RegisterFamily binds a Strategy to all types implementing the given interface type
	SetFallback(s Strategy) error                          // SetFallback binds the Strategy used when no exact or family registration matches
	StrategyFor(t reflect.Type) (Strategy, error)          // StrategyFor resolves the Strategy for a concrete type
}
