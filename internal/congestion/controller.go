// Package congestion implements the AIMD congestion controller that bounds
// how much source amount may be in flight at once on a STREAM payment
//.
package congestion

import (
	"sync"

	"github.com/LeJamon/ilpstreamd/internal/ilp"
)

// Controller tracks the in-flight source amount against a dynamic
// max_in_flight ceiling, mirroring the slow-start/AIMD behavior of a
// STREAM sender. It is safe for concurrent use by the
// per-packet task pool.
type Controller struct {
	mu sync.Mutex

	// config holds the tunable growth/backoff factors.
	config Config

	// maxInFlight is the current ceiling on total source amount permitted
	// in flight concurrently. It grows multiplicatively during slow start
	// and additively afterward, and shrinks multiplicatively on backoff.
	maxInFlight uint64

	// inFlightAmount is the sum of source amounts for packets sent but not
	// yet fulfilled or rejected.
	inFlightAmount uint64

	// slowStart is true until the first F08 (amount too large) reject,
	// after which the controller switches to additive increase.
	slowStart bool
}

// Config holds the constructor-injected growth/backoff parameters (see
// DESIGN.md Open Question decisions for the rationale).
type Config struct {
	// InitialMaxInFlight seeds maxInFlight before any fulfill has been
	// observed, typically source_amount/10.
	InitialMaxInFlight uint64

	// SlowStartGrowthFactor multiplies maxInFlight on each fulfill while
	// slowStart is true. Must be > 1.
	SlowStartGrowthFactor float64

	// BackoffFactor multiplies maxInFlight down on F08 and other
	// temporary rejects. Must be in (0, 1).
	BackoffFactor float64
}

// New creates a Controller seeded with config.InitialMaxInFlight.
func New(config Config) *Controller {
	return &Controller{
		config:      config,
		maxInFlight: config.InitialMaxInFlight,
		slowStart:   true,
	}
}

// GetMaxAmount returns the current room available for a new Prepare: the
// ceiling minus what's already in flight, floored at 0. A return of 0 signals max-in-flight-reached.
func (c *Controller) GetMaxAmount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlightAmount >= c.maxInFlight {
		return 0
	}
	return c.maxInFlight - c.inFlightAmount
}

// Prepare reserves amount against max_in_flight.
func (c *Controller) Prepare(amount uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlightAmount += amount
}

// Fulfill releases the reservation and grows the ceiling, multiplicatively
// during slow start and additively afterward.
func (c *Controller) Fulfill(amount uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked(amount)

	if c.slowStart {
		grown := float64(c.maxInFlight) * c.config.SlowStartGrowthFactor
		c.maxInFlight = clampUint64(grown)
	} else {
		c.maxInFlight += amount
	}
}

// Reject releases the reservation and applies the AIMD backoff rule
// appropriate to the reject's classification:
//   - F08 (amount too large): leave slow start, shrink the ceiling
//     multiplicatively, and trust any claimed maximum amount in the reject.
//   - other temporary (T-class): shrink the ceiling multiplicatively without
//     exiting slow start, since the failure isn't about packet size.
//   - final, non-F08: no ceiling change; the caller is expected to abort
//     the payment rather than keep probing.
func (c *Controller) Reject(amount uint64, code ilp.ErrorCode, claimedMaxAmount uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked(amount)

	switch {
	case code == ilp.CodeAmountTooLarge:
		c.slowStart = false
		next := clampUint64(float64(c.maxInFlight) * c.config.BackoffFactor)
		if claimedMaxAmount > 0 && claimedMaxAmount < next {
			next = claimedMaxAmount
		}
		c.maxInFlight = maxUint64(next, 1)
	case code.Class() == ilp.ClassTemporary:
		c.maxInFlight = maxUint64(clampUint64(float64(c.maxInFlight)*c.config.BackoffFactor), 1)
	default:
		// Final, non-amount error: leave the ceiling alone. The sender
		// engine decides whether this is fatal for the whole payment.
	}
}

// releaseLocked removes amount from the in-flight pool. Caller must hold
// the lock.
func (c *Controller) releaseLocked(amount uint64) {
	if amount >= c.inFlightAmount {
		c.inFlightAmount = 0
		return
	}
	c.inFlightAmount -= amount
}

// InFlightAmount returns the current in-flight source amount.
func (c *Controller) InFlightAmount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlightAmount
}

func clampUint64(f float64) uint64 {
	if f < 0 {
		return 0
	}
	if f > float64(^uint64(0)) {
		return ^uint64(0)
	}
	return uint64(f)
}

func maxUint64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
