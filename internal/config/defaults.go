package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets all default values for a fresh sender configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("sender.slippage", 0.01)
	v.SetDefault("sender.packet_timeout", 30*time.Second)
	v.SetDefault("sender.idle_timeout", 30*time.Second)
	v.SetDefault("sender.max_in_flight_wait", 100*time.Millisecond)
	v.SetDefault("sender.initial_packet_amount_fraction", uint64(10))
	v.SetDefault("sender.slow_start_growth_factor", 2.0)
	v.SetDefault("sender.backoff_factor", 0.5)

	v.SetDefault("payment_log.backend", "")
	v.SetDefault("payment_log.compress", true)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.namespace", "ilpstream")
}
