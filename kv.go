package sifkit

// KV is a key-value pair of records, the unit of data for keyed pipeline
// operations and for key-value side-input stores. Both halves are encoded
// polymorphically, so keys and values of any registered type may be paired.
type KV struct {
	Key   interface{}
	Value interface{}
}
