package cli

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/LeJamon/ilpstreamd/internal/ilp"
	"github.com/LeJamon/ilpstreamd/internal/metrics"
	"github.com/LeJamon/ilpstreamd/internal/payment"
	"github.com/LeJamon/ilpstreamd/internal/paymentlog"
	"github.com/LeJamon/ilpstreamd/internal/sender"
	"github.com/LeJamon/ilpstreamd/internal/transport/wsrelay"
)

var (
	sendFrom        string
	sendFromCode    string
	sendFromScale   uint8
	sendTo          string
	sendSecretHex   string
	sendAmount      uint64
	sendPeerURL     string
	sendRateSource  string
	sendRateAmount  float64
)

// sendCmd drives one send_money call against a peer reachable over
// wsrelay, the one transport this repository implements.
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a STREAM payment and print the resulting receipt",
	Long: `send packetizes sourceAmount units of the sender's own asset
into a STREAM payment to destination, dispatching Prepare packets over
a wsrelay connection to --peer-url, and prints the resulting delivery
receipt as JSON.`,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVar(&sendFrom, "from", "", "sender ILP address (required)")
	sendCmd.Flags().StringVar(&sendFromCode, "from-asset-code", "", "sender asset code (required)")
	sendCmd.Flags().Uint8Var(&sendFromScale, "from-asset-scale", 0, "sender asset scale")
	sendCmd.Flags().StringVar(&sendTo, "to", "", "destination ILP address (required)")
	sendCmd.Flags().StringVar(&sendSecretHex, "secret", "", "hex-encoded STREAM shared secret (required)")
	sendCmd.Flags().Uint64Var(&sendAmount, "amount", 0, "source amount to send (required)")
	sendCmd.Flags().StringVar(&sendPeerURL, "peer-url", "ws://127.0.0.1:7768/stream", "wsrelay URL of the next-hop peer")
	sendCmd.Flags().StringVar(&sendRateSource, "rate-asset", "", "destination asset code used for a single fixed exchange rate (omit for same-asset sends)")
	sendCmd.Flags().Float64Var(&sendRateAmount, "rate", 1.0, "fixed price of one unit of --from-asset-code in units of --rate-asset")

	sendCmd.MarkFlagRequired("from")
	sendCmd.MarkFlagRequired("from-asset-code")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("secret")
	sendCmd.MarkFlagRequired("amount")
}

// fixedRateStore answers ratecalc.RateStore with one configured price per
// asset code, standing in for a real quoting service.
type fixedRateStore map[string]float64

func (s fixedRateStore) Price(code string) (float64, bool) {
	p, ok := s[code]
	return p, ok
}

type cliFromAccount struct {
	address ilp.Address
	code    string
	scale   uint8
}

func (a cliFromAccount) Address() ilp.Address { return a.address }
func (a cliFromAccount) AssetCode() string     { return a.code }
func (a cliFromAccount) AssetScale() uint8     { return a.scale }

func runSend(cmd *cobra.Command, args []string) error {
	from := ilp.Address(sendFrom)
	if err := from.Validate(); err != nil {
		return fmt.Errorf("invalid --from address: %w", err)
	}
	to := ilp.Address(sendTo)
	if err := to.Validate(); err != nil {
		return fmt.Errorf("invalid --to address: %w", err)
	}

	secret, err := hex.DecodeString(sendSecretHex)
	if err != nil {
		return fmt.Errorf("invalid --secret: %w", err)
	}

	client, err := wsrelay.Dial(sendPeerURL)
	if err != nil {
		return fmt.Errorf("connecting to peer: %w", err)
	}
	defer client.Close()

	cfg := loadedConfig.Sender
	engine := sender.New(sender.Config{
		Slippage:                    cfg.Slippage,
		PacketTimeout:               cfg.PacketTimeout,
		IdleTimeout:                 cfg.IdleTimeout,
		MaxInFlightWait:             cfg.MaxInFlightWait,
		InitialPacketAmountFraction: cfg.InitialPacketAmountFraction,
		SlowStartGrowthFactor:       cfg.SlowStartGrowthFactor,
		BackoffFactor:               cfg.BackoffFactor,
	})

	if loadedConfig.Metrics.Enabled {
		collector := metrics.New(loadedConfig.Metrics.Namespace)
		engine = engine.WithMetrics(collector)
	}

	rateStore := fixedRateStore{}
	if sendRateSource != "" {
		rateStore[sendFromCode] = sendRateAmount
		rateStore[sendRateSource] = 1.0
	}

	paymentID := uuid.NewString()
	startedAt := time.Now()

	receipt, sendErr := engine.SendMoney(
		context.Background(),
		client,
		rateStore,
		cliFromAccount{address: from, code: sendFromCode, scale: sendFromScale},
		to,
		secret,
		sendAmount,
	)

	if logErr := recordPaymentLog(paymentID, receipt, sendErr, startedAt); logErr != nil && !quiet {
		fmt.Printf("warning: failed to record payment log: %v\n", logErr)
	}

	if sendErr != nil {
		return sendErr
	}

	out, err := json.MarshalIndent(receipt, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling receipt: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// recordPaymentLog persists the outcome of one send_money call when
// payment-log persistence is configured; a nil store (the default) is a
// no-op.
func recordPaymentLog(paymentID string, receipt *payment.Delivery, sendErr error, startedAt time.Time) error {
	store, err := paymentlog.Open(loadedConfig.PaymentLog)
	if err != nil {
		return err
	}
	if store == nil {
		return nil
	}
	defer store.Close()

	rec := paymentlog.Record{
		PaymentID: paymentID,
		Succeeded: sendErr == nil,
		StartedAt: startedAt,
		EndedAt:   time.Now(),
	}
	if sendErr != nil {
		rec.ErrMessage = sendErr.Error()
	}
	if receipt != nil {
		rec.Receipt = *receipt
	}

	return store.Put(context.Background(), paymentID, rec)
}
