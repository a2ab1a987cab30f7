// Package persistence is the Name Server's durable store: file metadata
// records and the set of all known usernames, backed by an embedded
// BadgerDB instance.
package persistence

import (
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// Store wraps a BadgerDB instance with the key namespace the Name Server
// needs. Grounded on marmos91-dittofs/pkg/metadata/store/badger: prefixed
// keys, one View/Update transaction per call, JSON-encoded values.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) a BadgerDB instance rooted at dir. Pass
// an empty dir to run purely in memory, useful for tests.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("persistence: open badger: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

const (
	prefixFile = "file:"
	prefixUser = "user:"
)

func keyFile(filename string) []byte {
	return []byte(prefixFile + filename)
}

func keyUser(username string) []byte {
	return []byte(prefixUser + username)
}
