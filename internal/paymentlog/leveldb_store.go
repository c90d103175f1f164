package paymentlog

import (
	"context"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
)

// levelDBStore is the alternate KV backend, mirroring
// internal/core/ledger/node/storage.go's NodeStore: a *leveldb.DB opened
// once via leveldb.OpenFile and wrapped in a mutex for consistency with
// the other backends (goleveldb's own handle is already safe for
// concurrent use, but the mutex keeps this type's locking story uniform).
type levelDBStore struct {
	mu       sync.RWMutex
	db       *leveldb.DB
	compress bool
}

func newLevelDBStore(path string, compress bool) (*levelDBStore, error) {
	if path == "" {
		return nil, fmt.Errorf("paymentlog: goleveldb backend requires a path")
	}

	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("paymentlog: opening goleveldb at %s: %w", path, err)
	}

	return &levelDBStore{db: db, compress: compress}, nil
}

func (s *levelDBStore) Put(_ context.Context, id string, rec Record) error {
	encoded, err := encodeRecord(rec, s.compress)
	if err != nil {
		return fmt.Errorf("paymentlog: encoding record %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Put([]byte(id), encoded, nil)
}

func (s *levelDBStore) Get(_ context.Context, id string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, err := s.db.Get([]byte(id), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("paymentlog: reading record %s: %w", id, err)
	}

	rec, err := decodeRecord(value)
	if err != nil {
		return Record{}, false, fmt.Errorf("paymentlog: decoding record %s: %w", id, err)
	}
	return rec, true, nil
}

func (s *levelDBStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
