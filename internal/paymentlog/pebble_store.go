package paymentlog

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/cockroachdb/pebble"
)

// pebbleStore is the default payment-log backend, mirroring
// internal/storage/nodestore/pebble.go's PebbleBackend shape: a mutex
// guarding a single *pebble.DB handle opened once at construction.
type pebbleStore struct {
	mu       sync.RWMutex
	db       *pebble.DB
	compress bool
}

func newPebbleStore(path string, compress bool) (*pebbleStore, error) {
	if path == "" {
		return nil, fmt.Errorf("paymentlog: pebble backend requires a path")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("paymentlog: creating pebble directory: %w", err)
	}

	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("paymentlog: opening pebble at %s: %w", path, err)
	}

	return &pebbleStore{db: db, compress: compress}, nil
}

func (s *pebbleStore) Put(_ context.Context, id string, rec Record) error {
	encoded, err := encodeRecord(rec, s.compress)
	if err != nil {
		return fmt.Errorf("paymentlog: encoding record %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Set([]byte(id), encoded, pebble.Sync)
}

func (s *pebbleStore) Get(_ context.Context, id string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, closer, err := s.db.Get([]byte(id))
	if err != nil {
		if err == pebble.ErrNotFound {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("paymentlog: reading record %s: %w", id, err)
	}
	defer closer.Close()

	rec, err := decodeRecord(value)
	if err != nil {
		return Record{}, false, fmt.Errorf("paymentlog: decoding record %s: %w", id, err)
	}
	return rec, true, nil
}

func (s *pebbleStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
