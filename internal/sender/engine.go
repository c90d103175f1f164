// Package sender implements the STREAM sender event loop: the single public
// operation send_money that packetizes a payment, dispatches packets
// through an injected request pipeline, and reacts to outcomes until the
// payment completes, fails, or times out.
package sender

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/ilpstreamd/internal/congestion"
	"github.com/LeJamon/ilpstreamd/internal/ilp"
	"github.com/LeJamon/ilpstreamd/internal/metrics"
	"github.com/LeJamon/ilpstreamd/internal/payment"
	"github.com/LeJamon/ilpstreamd/internal/ratecalc"
	"github.com/LeJamon/ilpstreamd/internal/stream"
)

// FromAccount supplies the sender's own address and asset details
//.
type FromAccount interface {
	Address() ilp.Address
	AssetCode() string
	AssetScale() uint8
}

// RequestPipeline is the injected "next service": it dispatches one ILP
// Prepare and returns either a Fulfill or a Reject. It must not mutate
// prepare and must enforce its own timeout/expiry handling. A non-nil error signals a transport/pipeline failure
// distinct from a protocol-level Reject.
type RequestPipeline interface {
	HandleRequest(ctx context.Context, from ilp.Address, prepare *ilp.Prepare) (*ilp.Fulfill, *ilp.Reject, error)
}

// SendMoneyError reports that a final (or unrecognized relative) reject
// terminated the payment.
type SendMoneyError struct {
	Message string
}

func (e *SendMoneyError) Error() string { return "sender: " + e.Message }

// TimeoutError reports that the global liveness timeout elapsed without a
// Fulfill.
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string { return "sender: timeout: " + e.Message }

// Config holds the sender's tunable parameters, mirroring
// internal/config.SenderConfig.
type Config struct {
	Slippage                    float64
	PacketTimeout               time.Duration
	IdleTimeout                 time.Duration
	MaxInFlightWait             time.Duration
	InitialPacketAmountFraction uint64
	SlowStartGrowthFactor       float64
	BackoffFactor               float64
}

// Engine runs send_money against an injected pipeline and rate store.
type Engine struct {
	config  Config
	metrics *metrics.Collector
}

// New creates an Engine with the given configuration.
func New(config Config) *Engine {
	return &Engine{config: config}
}

// WithMetrics attaches a prometheus collector; nil disables instrumentation
// entirely, which is the default.
func (e *Engine) WithMetrics(m *metrics.Collector) *Engine {
	e.metrics = m
	return e
}

// taskOutcome is how a per-packet task reports back to the event loop.
type taskOutcome struct {
	err error
}

// SendMoney is the core's public surface: it delivers
// sourceAmount from `from` to destination over a STREAM connection
// authenticated under sharedSecret, using pipeline to dispatch packets and
// rateStore to compute per-packet minimums.
func (e *Engine) SendMoney(ctx context.Context, pipeline RequestPipeline, rateStore ratecalc.RateStore, from FromAccount, destination ilp.Address, sharedSecret []byte, sourceAmount uint64) (*payment.Delivery, error) {
	if from.Address().Scheme() != destination.Scheme() {
		log.Printf("sender: warning: source scheme %q differs from destination scheme %q", from.Address().Scheme(), destination.Scheme())
	}

	calc, err := ratecalc.New(rateStore)
	if err != nil {
		return nil, fmt.Errorf("sender: rate calculator: %w", err)
	}

	initialMaxInFlight := sourceAmount / maxUint64(e.config.InitialPacketAmountFraction, 1)
	if initialMaxInFlight == 0 {
		initialMaxInFlight = 1
	}
	// Each Prepare carries at most the initial window's worth of source
	// amount, so a grown window is filled by several concurrent packets.
	maxPacketAmount := initialMaxInFlight
	controller := congestion.New(congestion.Config{
		InitialMaxInFlight:    initialMaxInFlight,
		SlowStartGrowthFactor: e.config.SlowStartGrowthFactor,
		BackoffFactor:         e.config.BackoffFactor,
	})

	state := payment.New(from.Address(), destination, from.AssetCode(), from.AssetScale(), sourceAmount, controller)

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan taskOutcome)
	pending := 0

	abort := func(err error) (*payment.Delivery, error) {
		drainPending(done, pending)
		_ = g.Wait()
		return nil, err
	}

	for {
		snap := state.Snapshot()
		if e.metrics != nil {
			e.metrics.ObserveInFlight(snap.InFlightAmount, snap.MaxPacketAmount+snap.InFlightAmount)
		}

		if time.Since(snap.LastFulfillTime) >= e.config.IdleTimeout {
			return abort(&TimeoutError{Message: fmt.Sprintf("no fulfill received within %s", e.config.IdleTimeout)})
		}

		if state.IsComplete() {
			e.closeConnection(ctx, pipeline, state, from, destination, sharedSecret, done, &pending)
			_ = g.Wait() // reap goroutines; errors already surfaced via done
			receipt := state.Receipt()
			return &receipt, nil
		}

		amount := state.MaxAvailableAmount()
		if amount > maxPacketAmount {
			amount = maxPacketAmount
		}
		if amount == 0 {
			if pending == 0 {
				// Nothing in flight and no room: wait briefly and re-check
				// Timeout/CloseConnection on the next iteration.
				time.Sleep(e.config.MaxInFlightWait)
				continue
			}
			select {
			case outcome := <-done:
				pending--
				if outcome.err != nil {
					return abort(outcome.err)
				}
			case <-time.After(e.config.MaxInFlightWait):
				// re-enter the loop to re-check Timeout first
			}
			continue
		}

		reserved := state.ApplyPrepare(amount)
		pending++
		g.Go(func() error {
			err := e.sendPacket(gctx, pipeline, calc, state, from, destination, sharedSecret, reserved)
			done <- taskOutcome{err: err}
			return err
		})

		// Drain any already-completed tasks without blocking, keeping
		// `pending` accurate for the next MaxInFlight check.
	drain:
		for {
			select {
			case outcome := <-done:
				pending--
				if outcome.err != nil {
					return abort(outcome.err)
				}
			default:
				break drain
			}
		}
	}
}

// drainPending reads the remaining n outcomes off done, discarding them, so
// goroutines that are about to send don't block forever after the loop has
// already decided to return.
func drainPending(done chan taskOutcome, n int) {
	for i := 0; i < n; i++ {
		<-done
	}
}

// closeConnection drains all pending tasks, then best-effort sends one
// unfulfillable Prepare carrying a ConnectionClose frame.
func (e *Engine) closeConnection(ctx context.Context, pipeline RequestPipeline, state *payment.State, from FromAccount, destination ilp.Address, sharedSecret []byte, done chan taskOutcome, pending *int) {
	for *pending > 0 {
		<-done
		*pending--
	}

	sequence := state.NextSequence()
	pkt := &stream.Packet{
		Sequence:      sequence,
		IlpPacketType: stream.IlpPacketTypePrepare,
		PrepareAmount: 0,
		Frames: []stream.Frame{
			stream.ConnectionClose{Code: 0, Message: "payment complete"},
		},
	}
	prepareData, err := stream.Encode(sharedSecret, pkt)
	if err != nil {
		return
	}
	condition, err := stream.RandomCondition()
	if err != nil {
		return
	}
	prepare := &ilp.Prepare{
		Destination:        destination,
		Amount:              0,
		ExpiresAt:           time.Now().Add(e.config.PacketTimeout),
		ExecutionCondition:  condition,
		Data:                prepareData,
	}
	_, _, _ = pipeline.HandleRequest(ctx, from.Address(), prepare)
}

func maxUint64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
