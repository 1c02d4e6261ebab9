// Package sifkit contains convenience components for building Sif pipelines.
// This root package defines the types which are employed during the regular use
// of the library, as well as in the extension of the library: the generic record
// Coder and its pluggable serialization Strategy registry, along with the value
// types those strategies cover. Implementations live in the registry, coder,
// sink, distcache and kvstore packages.
package sifkit
