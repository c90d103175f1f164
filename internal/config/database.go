package config

import "fmt"

// PaymentLogConfig represents the [payment_log] section: the persistent
// store that records completed or aborted send_money receipts. This is
// payment history, not account balance bookkeeping, so it stays in scope
// even though the wider connector's account persistence does not.
type PaymentLogConfig struct {
	// Backend selects the storage engine: "pebble", "goleveldb", "sql", or
	// "" to disable persistence entirely (send_money still returns the
	// receipt directly; nothing is recorded).
	Backend string `toml:"backend" mapstructure:"backend"`

	// Path is the data directory for the pebble/goleveldb backends.
	Path string `toml:"path" mapstructure:"path"`

	// DSN is the database/sql data source name for the sql backend.
	// A "postgres://..." DSN selects lib/pq; anything else is treated as
	// a sqlite file path.
	DSN string `toml:"dsn" mapstructure:"dsn"`

	// Compress enables lz4 compression of encoded receipt records before
	// they're written to the backend.
	Compress bool `toml:"compress" mapstructure:"compress"`
}

// Validate performs validation on the payment log configuration.
func (p *PaymentLogConfig) Validate() error {
	if p.Backend == "" {
		return nil
	}

	validBackends := []string{"pebble", "goleveldb", "sql"}
	if !contains_slice(validBackends, p.Backend) {
		return fmt.Errorf("invalid payment_log backend: %s (valid options: pebble, goleveldb, sql)", p.Backend)
	}

	switch p.Backend {
	case "pebble", "goleveldb":
		if p.Path == "" {
			return fmt.Errorf("payment_log path is required for backend %q", p.Backend)
		}
	case "sql":
		if p.DSN == "" {
			return fmt.Errorf("payment_log dsn is required for backend %q", p.Backend)
		}
	}

	return nil
}

// MetricsConfig represents the [metrics] section.
type MetricsConfig struct {
	// Enabled turns on the prometheus collectors.
	Enabled bool `toml:"enabled" mapstructure:"enabled"`

	// Namespace prefixes every exported metric name.
	Namespace string `toml:"namespace" mapstructure:"namespace"`
}
