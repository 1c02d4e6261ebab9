package errors

import (
	"fmt"
	"reflect"
)

// ConfigurationError occurs when a mandatory built-in Strategy registration
// fails during registry construction. It is fatal: a Coder cannot function
// without its built-in strategies.
type ConfigurationError struct{ Err error }

// Error returns a textual representation of this ConfigurationError
func (e ConfigurationError) Error() string {
	return fmt.Sprintf("Unable to construct strategy registry: %v", e.Err)
}

// Unwrap returns the underlying registration failure
func (e ConfigurationError) Unwrap() error {
	return e.Err
}

// EncodeNilError occurs when a nil value is passed to Encode
type EncodeNilError struct{}

// Error returns a textual representation of this EncodeNilError
func (e EncodeNilError) Error() string {
	return "Cannot encode a nil value"
}

// InvalidLengthError occurs when a chunked frame's length prefix decodes to a
// negative value, indicating corrupt or truncated framing
type InvalidLengthError struct{ Length int64 }

// Error returns a textual representation of this InvalidLengthError
func (e InvalidLengthError) Error() string {
	return fmt.Sprintf("Invalid frame length %d", e.Length)
}

// UnknownTypeError occurs when no Strategy is registered for a value's
// concrete type at encode time
type UnknownTypeError struct{ Type reflect.Type }

// Error returns a textual representation of this UnknownTypeError
func (e UnknownTypeError) Error() string {
	return fmt.Sprintf("No serialization strategy registered for type %v", e.Type)
}

// UnresolvableTypeError occurs when an embedded type identifier names a type
// with no matching registration at decode time
type UnresolvableTypeError struct{ Key string }

// Error returns a textual representation of this UnresolvableTypeError
func (e UnresolvableTypeError) Error() string {
	return fmt.Sprintf("Type identifier %q does not name a registered type", e.Key)
}

// OutputPathExistsError occurs when a FileSink's destination path already
// exists during validation
type OutputPathExistsError struct{ Path string }

// Error returns a textual representation of this OutputPathExistsError
func (e OutputPathExistsError) Error() string {
	return fmt.Sprintf("Output path %s already exists", e.Path)
}

// ShardMismatchError occurs when the shards present after all writers finish
// do not match the writer results reported to Finalize
type ShardMismatchError struct{ Missing, Unexpected []string }

// Error returns a textual representation of this ShardMismatchError
func (e ShardMismatchError) Error() string {
	return fmt.Sprintf("Writer results and output shards do not match (missing %v, unexpected %v)", e.Missing, e.Unexpected)
}

// ShardCollisionError occurs when two writer results collide on the same
// shard name, which would silently lose data during commit
type ShardCollisionError struct{}

// Error returns a textual representation of this ShardCollisionError
func (e ShardCollisionError) Error() string {
	return "Data loss due to writer results hash collision"
}

// KeyNotFoundError occurs when a key-value store lookup finds no value for
// the given key
type KeyNotFoundError struct{ Key string }

// Error returns a textual representation of this KeyNotFoundError
func (e KeyNotFoundError) Error() string {
	return fmt.Sprintf("Key %s does not exist in the store", e.Key)
}

// ArtifactNotFoundError occurs when a staged artifact cannot be located in a
// distributed cache
type ArtifactNotFoundError struct{ Name string }

// Error returns a textual representation of this ArtifactNotFoundError
func (e ArtifactNotFoundError) Error() string {
	return fmt.Sprintf("Artifact %s is not staged in the cache", e.Name)
}
