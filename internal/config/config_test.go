package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "streamsend_config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	cfg, err := LoadConfig(ConfigPaths{Main: filepath.Join(tempDir, "missing.toml")})
	require.NoError(t, err)
	require.NotNil(t, cfg)

	require.Equal(t, 0.01, cfg.Sender.Slippage)
	require.Equal(t, 30*time.Second, cfg.Sender.PacketTimeout)
	require.Equal(t, 30*time.Second, cfg.Sender.IdleTimeout)
	require.Equal(t, 100*time.Millisecond, cfg.Sender.MaxInFlightWait)
	require.Equal(t, uint64(10), cfg.Sender.InitialPacketAmountFraction)
	require.Equal(t, "", cfg.PaymentLog.Backend)
}

func TestLoadConfigFromFile(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "streamsend_config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	mainConfigContent := `
[sender]
slippage = 0.02
packet_timeout = "15s"
idle_timeout = "45s"
max_in_flight_wait = "200ms"
initial_packet_amount_fraction = 5
slow_start_growth_factor = 1.5
backoff_factor = 0.25

[payment_log]
backend = "pebble"
path = "/tmp/test/paylog"
`
	mainConfigPath := filepath.Join(tempDir, "streamsend.toml")
	require.NoError(t, os.WriteFile(mainConfigPath, []byte(mainConfigContent), 0644))

	cfg, err := LoadConfig(ConfigPaths{Main: mainConfigPath})
	require.NoError(t, err)

	require.Equal(t, 0.02, cfg.Sender.Slippage)
	require.Equal(t, 15*time.Second, cfg.Sender.PacketTimeout)
	require.Equal(t, "pebble", cfg.PaymentLog.Backend)
	require.Equal(t, "/tmp/test/paylog", cfg.PaymentLog.Path)
	require.Equal(t, mainConfigPath, cfg.GetConfigPath())
}

func TestValidateConfigRejectsBadSlippage(t *testing.T) {
	cfg := Config{
		Sender: SenderConfig{
			Slippage:                    1.5,
			PacketTimeout:               time.Second,
			IdleTimeout:                 time.Second,
			MaxInFlightWait:             time.Millisecond,
			InitialPacketAmountFraction: 1,
			SlowStartGrowthFactor:       2,
			BackoffFactor:               0.5,
		},
	}
	require.Error(t, ValidateConfig(&cfg))
}

func TestPaymentLogConfigValidate(t *testing.T) {
	require.NoError(t, (&PaymentLogConfig{}).Validate())
	require.Error(t, (&PaymentLogConfig{Backend: "nope"}).Validate())
	require.Error(t, (&PaymentLogConfig{Backend: "pebble"}).Validate())
	require.NoError(t, (&PaymentLogConfig{Backend: "pebble", Path: "/tmp/x"}).Validate())
	require.Error(t, (&PaymentLogConfig{Backend: "sql"}).Validate())
	require.NoError(t, (&PaymentLogConfig{Backend: "sql", DSN: "file:test.db"}).Validate())
}
