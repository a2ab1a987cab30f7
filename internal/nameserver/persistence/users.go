package persistence

import (
	"errors"

	badger "github.com/dgraph-io/badger/v4"
)

// RegisterUser idempotently records username in the all-users set.
// Grounded on nm_register_persistent_user: called unconditionally on every
// INIT_CLIENT, cheap no-op if the user is already known.
func (s *Store) RegisterUser(username string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(keyUser(username))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(keyUser(username), []byte{1})
	})
}

// ListUsers returns every known username, for LIST.
func (s *Store) ListUsers() ([]string, error) {
	var users []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefixUser)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			key := string(it.Item().Key())
			users = append(users, key[len(prefixUser):])
		}
		return nil
	})
	return users, err
}
