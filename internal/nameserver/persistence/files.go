package persistence

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// GetFile retrieves a file's metadata, or ErrNotFound.
func (s *Store) GetFile(filename string) (*FileMeta, error) {
	var meta *FileMeta
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyFile(filename))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			m, err := decodeFile(val)
			if err != nil {
				return err
			}
			meta = m
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// CreateFile inserts a brand new file record, failing with ErrExists if the
// filename is already taken. Grounded on handle_create's 409 rule.
func (s *Store) CreateFile(meta *FileMeta) error {
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(keyFile(meta.Filename))
		if err == nil {
			return ErrExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		b, err := encodeFile(meta)
		if err != nil {
			return err
		}
		return txn.Set(keyFile(meta.Filename), b)
	})
}

// PutFile overwrites (or creates) a file's metadata record unconditionally.
func (s *Store) PutFile(meta *FileMeta) error {
	b, err := encodeFile(meta)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keyFile(meta.Filename), b)
	})
}

// DeleteFile removes a file's metadata record. A missing record is not an
// error — DELETE's caller already checked existence via GetFile.
func (s *Store) DeleteFile(filename string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(keyFile(filename))
	})
}

// UpdateFile runs fn against the current record under a single transaction,
// persisting whatever fn leaves in place. Returns ErrNotFound if the record
// doesn't exist. Use this for read-modify-write updates (stats refresh,
// access-grant changes, last_accessed bump) so concurrent NM connections
// don't race on a stale in-memory copy.
func (s *Store) UpdateFile(filename string, fn func(*FileMeta) error) error {
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(keyFile(filename))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var meta *FileMeta
		err = item.Value(func(val []byte) error {
			m, err := decodeFile(val)
			if err != nil {
				return err
			}
			meta = m
			return nil
		})
		if err != nil {
			return err
		}

		if err := fn(meta); err != nil {
			return err
		}

		b, err := encodeFile(meta)
		if err != nil {
			return err
		}
		return txn.Set(keyFile(filename), b)
	})
}

// ListFiles returns every file record, for VIEW.
func (s *Store) ListFiles() ([]*FileMeta, error) {
	var files []*FileMeta
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixFile)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				m, err := decodeFile(val)
				if err != nil {
					return err
				}
				files = append(files, m)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("persistence: list files: %w", err)
	}
	return files, nil
}

// RetargetFilesOnSS updates ss_addr (and clears Offline) for every file
// record whose filename is in advertised, used by SS reconnection
// reconciliation. Returns the subset of advertised that matched no existing
// record — the caller logs these as orphans.
func (s *Store) RetargetFilesOnSS(ssAddr string, advertised []string) (orphans []string, err error) {
	known := make(map[string]bool, len(advertised))
	for _, f := range advertised {
		known[f] = true
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, filename := range advertised {
			item, getErr := txn.Get(keyFile(filename))
			if getErr == badger.ErrKeyNotFound {
				orphans = append(orphans, filename)
				continue
			}
			if getErr != nil {
				return getErr
			}

			var meta *FileMeta
			valErr := item.Value(func(val []byte) error {
				m, decErr := decodeFile(val)
				if decErr != nil {
					return decErr
				}
				meta = m
				return nil
			})
			if valErr != nil {
				return valErr
			}

			meta.SSAddr = ssAddr
			meta.Offline = false
			b, encErr := encodeFile(meta)
			if encErr != nil {
				return encErr
			}
			if setErr := txn.Set(keyFile(filename), b); setErr != nil {
				return setErr
			}
		}
		return nil
	})
	return orphans, err
}

// MarkOffline flags every file record pointing at ssAddr as offline,
// used when an SS's NM control channel drops.
func (s *Store) MarkOffline(ssAddr string) error {
	files, err := s.ListFiles()
	if err != nil {
		return err
	}
	for _, f := range files {
		if f.SSAddr != ssAddr || f.Offline {
			continue
		}
		if err := s.UpdateFile(f.Filename, func(m *FileMeta) error {
			m.Offline = true
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}
