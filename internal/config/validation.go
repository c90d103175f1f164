package config

import "fmt"

// ValidateConfig performs comprehensive validation on the complete configuration.
func ValidateConfig(config *Config) error {
	if err := validateSenderConfig(&config.Sender); err != nil {
		return fmt.Errorf("sender config validation failed: %w", err)
	}

	if err := config.PaymentLog.Validate(); err != nil {
		return fmt.Errorf("payment_log validation failed: %w", err)
	}

	return nil
}

// validateSenderConfig validates the sender's own tunables.
func validateSenderConfig(s *SenderConfig) error {
	if s.Slippage < 0 || s.Slippage >= 1 {
		return fmt.Errorf("slippage must be in [0, 1), got %f", s.Slippage)
	}
	if s.PacketTimeout <= 0 {
		return fmt.Errorf("packet_timeout must be positive, got %s", s.PacketTimeout)
	}
	if s.IdleTimeout <= 0 {
		return fmt.Errorf("idle_timeout must be positive, got %s", s.IdleTimeout)
	}
	if s.MaxInFlightWait <= 0 {
		return fmt.Errorf("max_in_flight_wait must be positive, got %s", s.MaxInFlightWait)
	}
	if s.InitialPacketAmountFraction == 0 {
		return fmt.Errorf("initial_packet_amount_fraction must be positive")
	}
	if s.SlowStartGrowthFactor <= 1 {
		return fmt.Errorf("slow_start_growth_factor must be greater than 1, got %f", s.SlowStartGrowthFactor)
	}
	if s.BackoffFactor <= 0 || s.BackoffFactor >= 1 {
		return fmt.Errorf("backoff_factor must be in (0, 1), got %f", s.BackoffFactor)
	}
	return nil
}

// contains_slice reports whether value is present in options.
func contains_slice(options []string, value string) bool {
	for _, opt := range options {
		if opt == value {
			return true
		}
	}
	return false
}
