package paymentlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq" // postgres driver, selected when dsn starts with "postgres://"
	_ "modernc.org/sqlite" // sqlite driver, selected otherwise
)

// sqlStore is the relational backend: a sql.Open + schema bootstrap
// pattern with postgres and sqlite as two driver choices selected by DSN
// shape rather than by a separate config field.
type sqlStore struct {
	db       *sql.DB
	compress bool
	// postgres uses $N placeholders; modernc.org/sqlite uses plain "?".
	upsertQuery string
	selectQuery string
}

func newSQLStore(dsn string, compress bool) (*sqlStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("paymentlog: sql backend requires a dsn")
	}

	driver := "sqlite"
	upsertQuery := `INSERT INTO payment_log (payment_id, record) VALUES (?, ?)
		ON CONFLICT (payment_id) DO UPDATE SET record = excluded.record`
	selectQuery := `SELECT record FROM payment_log WHERE payment_id = ?`
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = "postgres"
		upsertQuery = `INSERT INTO payment_log (payment_id, record) VALUES ($1, $2)
			ON CONFLICT (payment_id) DO UPDATE SET record = excluded.record`
		selectQuery = `SELECT record FROM payment_log WHERE payment_id = $1`
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("paymentlog: opening %s database: %w", driver, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("paymentlog: pinging %s database: %w", driver, err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS payment_log (
		payment_id TEXT PRIMARY KEY,
		record BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("paymentlog: initializing schema: %w", err)
	}

	return &sqlStore{db: db, compress: compress, upsertQuery: upsertQuery, selectQuery: selectQuery}, nil
}

func (s *sqlStore) Put(ctx context.Context, id string, rec Record) error {
	encoded, err := encodeRecord(rec, s.compress)
	if err != nil {
		return fmt.Errorf("paymentlog: encoding record %s: %w", id, err)
	}

	_, err = s.db.ExecContext(ctx, s.upsertQuery, id, encoded)
	if err != nil {
		return fmt.Errorf("paymentlog: writing record %s: %w", id, err)
	}
	return nil
}

func (s *sqlStore) Get(ctx context.Context, id string) (Record, bool, error) {
	var encoded []byte
	err := s.db.QueryRowContext(ctx, s.selectQuery, id).Scan(&encoded)
	if err == sql.ErrNoRows {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("paymentlog: reading record %s: %w", id, err)
	}

	rec, err := decodeRecord(encoded)
	if err != nil {
		return Record{}, false, fmt.Errorf("paymentlog: decoding record %s: %w", id, err)
	}
	return rec, true, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
