// Package config loads sender configuration with viper defaults, a TOML
// file, then environment overrides, unmarshalled into a plain struct.
package config

import "time"

// Config holds everything the streamsend CLI needs to construct a sender.
type Config struct {
	// Sender holds the STREAM sender's own tunables.
	Sender SenderConfig `toml:"sender" mapstructure:"sender"`

	// PaymentLog configures the optional receipt-persistence backend.
	PaymentLog PaymentLogConfig `toml:"payment_log" mapstructure:"payment_log"`

	// Metrics configures the prometheus exporter.
	Metrics MetricsConfig `toml:"metrics" mapstructure:"metrics"`

	configPath string
}

// SenderConfig carries the congestion and timing knobs left injectable.
type SenderConfig struct {
	// Slippage is the fraction of exchange rate conceded to intermediaries.
	Slippage float64 `toml:"slippage" mapstructure:"slippage"`

	// PacketTimeout is how long a single Prepare is allowed to stay
	// outstanding before its expires_at is reached.
	PacketTimeout time.Duration `toml:"packet_timeout" mapstructure:"packet_timeout"`

	// IdleTimeout is the global liveness bound: if no Fulfill lands within
	// this window, send_money aborts with a timeout error.
	IdleTimeout time.Duration `toml:"idle_timeout" mapstructure:"idle_timeout"`

	// MaxInFlightWait bounds how long the MaxInFlight event waits on any
	// single pending packet task before re-checking the other events.
	MaxInFlightWait time.Duration `toml:"max_in_flight_wait" mapstructure:"max_in_flight_wait"`

	// InitialPacketAmountFraction sizes the first packet as
	// source_amount / N for slow start.
	InitialPacketAmountFraction uint64 `toml:"initial_packet_amount_fraction" mapstructure:"initial_packet_amount_fraction"`

	// SlowStartGrowthFactor multiplies the congestion window on fulfill
	// while still in slow start.
	SlowStartGrowthFactor float64 `toml:"slow_start_growth_factor" mapstructure:"slow_start_growth_factor"`

	// BackoffFactor scales down the congestion window on a temporary
	// reject or an F08.
	BackoffFactor float64 `toml:"backoff_factor" mapstructure:"backoff_factor"`
}

// GetConfigPath returns the path the config was loaded from, if any.
func (c *Config) GetConfigPath() string {
	return c.configPath
}
