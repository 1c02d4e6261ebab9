package sifkit

import "time"

// An Instant is a timestamp with millisecond precision, the temporal value
// type attached to records by the surrounding pipeline ecosystem. It encodes
// as a fixed eight-byte big-endian quantity.
type Instant int64

// InstantOf converts a time.Time to an Instant, truncating to milliseconds
func InstantOf(t time.Time) Instant {
	return Instant(t.UnixNano() / int64(time.Millisecond))
}

// Time converts this Instant to a time.Time
func (i Instant) Time() time.Time {
	return time.Unix(0, int64(i)*int64(time.Millisecond))
}
