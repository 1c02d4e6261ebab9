// Package kvstore persists encoded records in an embedded key-value store,
// for side-input lookup tables too large to hold in memory. Values are
// encoded with a sifkit Coder in whole-stream mode - each stored blob is a
// complete, self-describing stream - so heterogeneous value types share one
// store.
package kvstore

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/go-sif/sifkit"
	serrors "github.com/go-sif/sifkit/errors"
)

// A Store is an embedded key-value store of encoded records
type Store struct {
	db    *pebble.DB
	coder sifkit.Coder
}

// CreateStore opens (or creates) a Store at the given directory, encoding
// values with the given Coder
func CreateStore(dir string, c sifkit.Coder) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Store{db: db, coder: c}, nil
}

// Put encodes v and stores it under key, replacing any existing value
func (s *Store) Put(key string, v interface{}) error {
	var buf bytes.Buffer
	if err := s.coder.Encode(v, &buf, sifkit.WholeStreamContext); err != nil {
		return err
	}
	return s.db.Set([]byte(key), buf.Bytes(), pebble.NoSync)
}

// PutAll stores a batch of key-value pairs atomically. Keys must be strings.
func (s *Store) PutAll(kvs []sifkit.KV) error {
	batch := s.db.NewBatch()
	defer batch.Close()
	for _, kv := range kvs {
		key, ok := kv.Key.(string)
		if !ok {
			return fmt.Errorf("Store keys must be strings, got %T", kv.Key)
		}
		var buf bytes.Buffer
		if err := s.coder.Encode(kv.Value, &buf, sifkit.WholeStreamContext); err != nil {
			return err
		}
		if err := batch.Set([]byte(key), buf.Bytes(), nil); err != nil {
			return err
		}
	}
	return s.db.Apply(batch, pebble.Sync)
}

// Get decodes the value stored under key
func (s *Store) Get(key string) (interface{}, error) {
	data, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, serrors.KeyNotFoundError{Key: key}
		}
		return nil, err
	}
	defer closer.Close()
	return s.coder.Decode(bytes.NewReader(data), sifkit.WholeStreamContext)
}

// Close releases the underlying store
func (s *Store) Close() error {
	return s.db.Close()
}
