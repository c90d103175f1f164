// Package payment holds the mutable accounting for one STREAM payment: the
// receipt, the sequence counter, and the apply_prepare/apply_fulfill/
// apply_reject bookkeeping that the sender engine drives under a single
// lock.
package payment

import (
	"sync"
	"time"

	"github.com/LeJamon/ilpstreamd/internal/congestion"
	"github.com/LeJamon/ilpstreamd/internal/ilp"
)

// Delivery is the receipt a payment produces, whether it completes or not
//.
type Delivery struct {
	From   ilp.Address
	To     ilp.Address

	SourceAssetCode  string
	SourceAssetScale uint8
	SourceAmount     uint64

	// SentAmount reflects "successfully sent or still in flight" rather
	// than "ever attempted": apply_reject subtracts the rejected amount
	// back out, by design.
	SentAmount     uint64
	InFlightAmount uint64
	DeliveredAmount uint64

	// DestinationAssetCode/Scale are set at most once, from the first
	// authenticated reply that carries ConnectionAssetDetails
	//.
	DestinationAssetCode  string
	DestinationAssetScale uint8
	destinationAssetKnown bool
}

// State is the mutable StreamPayment record: a Delivery plus
// the bookkeeping the sender engine needs, all protected by a single
// mutex so its invariants hold at every observable point.
type State struct {
	mu sync.Mutex

	receipt Delivery

	congestionController *congestion.Controller

	// ShouldSendSourceAccount starts true and becomes false permanently
	// after the first successfully-decrypted STREAM reply.
	shouldSendSourceAccount bool

	sequence uint64

	fulfilledPackets uint64
	rejectedPackets  uint64

	lastFulfillTime time.Time
}

// New creates payment state for a transfer of sourceAmount from `from` to
// `to`, denominated in (sourceAssetCode, sourceAssetScale).
func New(from, to ilp.Address, sourceAssetCode string, sourceAssetScale uint8, sourceAmount uint64, controller *congestion.Controller) *State {
	return &State{
		receipt: Delivery{
			From:             from,
			To:               to,
			SourceAssetCode:  sourceAssetCode,
			SourceAssetScale: sourceAssetScale,
			SourceAmount:     sourceAmount,
		},
		congestionController:    controller,
		shouldSendSourceAccount: true,
		// Seeded at creation, not the zero value: the 30s global-liveness
		// timeout is measured from payment start until the first Fulfill.
		lastFulfillTime: time.Now(),
	}
}

// NextSequence returns the next strictly-increasing sequence number
//. Caller must hold no other lock on this state.
func (s *State) NextSequence() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequence++
	return s.sequence
}

// Snapshot is an immutable, consistent view of the payment used by the
// sender engine to decide the next event and build a packet, without
// holding the lock across dispatch.
type Snapshot struct {
	Delivery
	MaxPacketAmount         uint64
	ShouldSendSourceAccount bool
	FulfilledPackets        uint64
	RejectedPackets         uint64
	LastFulfillTime         time.Time
}

// Snapshot takes a point-in-time copy of the state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Delivery:                s.receipt,
		MaxPacketAmount:         s.congestionController.GetMaxAmount(),
		ShouldSendSourceAccount: s.shouldSendSourceAccount,
		FulfilledPackets:        s.fulfilledPackets,
		RejectedPackets:         s.rejectedPackets,
		LastFulfillTime:         s.lastFulfillTime,
	}
}

// IsComplete reports whether the fulfilled source amount has reached the
// target.
func (s *State) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fulfilledSourceAmountLocked() >= s.receipt.SourceAmount
}

func (s *State) fulfilledSourceAmountLocked() uint64 {
	if s.receipt.InFlightAmount >= s.receipt.SentAmount {
		return 0
	}
	return s.receipt.SentAmount - s.receipt.InFlightAmount
}

// MaxAvailableAmount returns min(source_amount - sent_amount,
// congestion.get_max_amount()), the amount the next Prepare is allowed to
// carry.
func (s *State) MaxAvailableAmount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	remaining := s.receipt.SourceAmount - s.receipt.SentAmount
	available := s.congestionController.GetMaxAmount()
	if available < remaining {
		return available
	}
	return remaining
}

// ApplyPrepare reserves amount against the in-flight budget and advances
// sent_amount, returning the amount actually reserved.
// amount is normally the value MaxAvailableAmount returned just before, in
// a separate lock acquisition; ApplyPrepare clamps it again to the remaining
// source amount, but not to the congestion controller's current room.
func (s *State) ApplyPrepare(amount uint64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := s.receipt.SourceAmount - s.receipt.SentAmount
	if amount > remaining {
		amount = remaining
	}

	s.congestionController.Prepare(amount)
	s.receipt.SentAmount += amount
	s.receipt.InFlightAmount += amount
	return amount
}

// ApplyFulfill applies a successful packet outcome.
func (s *State) ApplyFulfill(sourceAmount, deliveredAmount uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.congestionController.Fulfill(sourceAmount)
	s.receipt.InFlightAmount = subNoUnderflow(s.receipt.InFlightAmount, sourceAmount)
	s.receipt.DeliveredAmount += deliveredAmount
	s.lastFulfillTime = time.Now()
	s.fulfilledPackets++
}

// ApplyReject applies a failed packet outcome. sent_amount and
// in_flight_amount both shrink back by sourceAmount, so mid-payment
// sent_amount reads as "successfully sent or still in flight" rather than
// "ever attempted".
func (s *State) ApplyReject(sourceAmount uint64, code ilp.ErrorCode, claimedMaxAmount uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.congestionController.Reject(sourceAmount, code, claimedMaxAmount)
	s.receipt.SentAmount = subNoUnderflow(s.receipt.SentAmount, sourceAmount)
	s.receipt.InFlightAmount = subNoUnderflow(s.receipt.InFlightAmount, sourceAmount)
	s.rejectedPackets++
}

// ClearShouldSendSourceAccount permanently flips should_send_source_account
// to false, called after the first successfully-decrypted STREAM reply
//.
func (s *State) ClearShouldSendSourceAccount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shouldSendSourceAccount = false
}

// SetDestinationAsset records the destination asset code/scale the first
// time they are observed; subsequent calls are no-ops.
func (s *State) SetDestinationAsset(code string, scale uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.receipt.destinationAssetKnown {
		return
	}
	s.receipt.DestinationAssetCode = code
	s.receipt.DestinationAssetScale = scale
	s.receipt.destinationAssetKnown = true
}

// Receipt returns the final Delivery record.
func (s *State) Receipt() Delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receipt
}

func subNoUnderflow(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
