package sifkit

// A Row is a loosely-structured record: named fields with values of any
// registered type. Rows encode field-by-field in sorted field order, with
// each value encoded polymorphically, so heterogeneous Rows round-trip
// without a schema.
type Row map[string]interface{}
