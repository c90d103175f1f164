package paymentlog

import (
	"context"
	"fmt"

	"github.com/LeJamon/ilpstreamd/internal/config"
)

// Store persists and retrieves payment-log records, keyed by payment id.
type Store interface {
	// Put records the outcome of one send_money call. Overwriting an
	// existing id is allowed; callers are expected to generate unique ids
	// (e.g. via google/uuid) per call.
	Put(ctx context.Context, id string, rec Record) error

	// Get retrieves a previously stored record. ok is false if id isn't
	// present.
	Get(ctx context.Context, id string) (rec Record, ok bool, err error)

	// Close releases any resources (open files, connections) the backend
	// holds.
	Close() error
}

// Open selects and opens a backend from cfg, mirroring the way the
// teacher's storage layer picks pebble/goleveldb/postgres from config
// (internal/storage/database, internal/storage/relationaldb/manager.go).
// An empty Backend disables persistence and Open returns a nil Store.
func Open(cfg config.PaymentLogConfig) (Store, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "pebble":
		return newPebbleStore(cfg.Path, cfg.Compress)
	case "goleveldb":
		return newLevelDBStore(cfg.Path, cfg.Compress)
	case "sql":
		return newSQLStore(cfg.DSN, cfg.Compress)
	default:
		return nil, fmt.Errorf("paymentlog: unknown backend %q", cfg.Backend)
	}
}
