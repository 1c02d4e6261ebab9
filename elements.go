package sifkit

// Elements is a named wrapper around a plain slice of records, produced by
// pipeline operations which hand groups of values to user code. Left to the
// engine's generic handling it would be tagged (and therefore encoded) as a
// distinct type from the plain slice it wraps; its registration instead
// aliases the plain-iterable encoding, so an Elements value and the
// equivalent []interface{} produce identical bytes. Decoding those bytes
// yields the plain slice form.
type Elements []interface{}
