package sender

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/LeJamon/ilpstreamd/internal/ilp"
	"github.com/LeJamon/ilpstreamd/internal/payment"
	"github.com/LeJamon/ilpstreamd/internal/ratecalc"
	"github.com/LeJamon/ilpstreamd/internal/stream"
)

// sendPacket builds, sends, and applies the reply for one Prepare of
// source amount `amount`. It returns a non-nil error only
// when the payment must abort; absorbed rejects and malformed replies
// return nil.
func (e *Engine) sendPacket(ctx context.Context, pipeline RequestPipeline, calc *ratecalc.Calculator, state *payment.State, from FromAccount, destination ilp.Address, sharedSecret []byte, amount uint64) error {
	sequence := state.NextSequence()
	snap := state.Snapshot()

	frames := []stream.Frame{stream.StreamMoney{StreamID: 1, Shares: 1}}
	if snap.ShouldSendSourceAccount {
		frames = append(frames, stream.ConnectionNewAddress{SourceAccount: from.Address()})
	}

	minDestinationAmount := calc.MinDestinationAmount(
		amount,
		ratecalc.Asset{Code: snap.SourceAssetCode, Scale: snap.SourceAssetScale},
		ratecalc.Asset{Code: snap.DestinationAssetCode, Scale: snap.DestinationAssetScale},
		e.config.Slippage,
	)

	outPkt := &stream.Packet{
		Sequence:      sequence,
		IlpPacketType: stream.IlpPacketTypePrepare,
		PrepareAmount: minDestinationAmount,
		Frames:        frames,
	}

	prepareData, err := stream.Encode(sharedSecret, outPkt)
	if err != nil {
		state.ApplyReject(amount, ilp.CodeBadRequest, 0)
		return fmt.Errorf("sender: encoding prepare: %w", err)
	}

	var condition [32]byte
	if minDestinationAmount > 0 {
		condition, err = stream.GenerateCondition(sharedSecret, prepareData)
	} else {
		condition, err = stream.RandomCondition()
	}
	if err != nil {
		state.ApplyReject(amount, ilp.CodeBadRequest, 0)
		return fmt.Errorf("sender: generating condition: %w", err)
	}

	prepare := &ilp.Prepare{
		Destination:        destination,
		Amount:              amount,
		ExpiresAt:           time.Now().Add(e.config.PacketTimeout),
		ExecutionCondition:  condition,
		Data:                prepareData,
	}

	fulfill, reject, err := pipeline.HandleRequest(ctx, from.Address(), prepare)
	if err != nil {
		state.ApplyReject(amount, ilp.CodeBadRequest, 0)
		return fmt.Errorf("sender: request pipeline: %w", err)
	}

	var replyData []byte
	if fulfill != nil {
		replyData = fulfill.Data
	} else if reject != nil {
		replyData = reject.Data
	}

	claimedAmount := uint64(0)
	if replyPkt, decErr := stream.Decode(sharedSecret, replyData); decErr == nil {
		switch {
		case replyPkt.Sequence != sequence:
			// Replay defense: a reply for the wrong sequence proves
			// nothing about this packet.
			log.Printf("sender: reply sequence %d does not match request sequence %d, ignoring stream frame", replyPkt.Sequence, sequence)
		case replyPkt.IlpPacketType == stream.IlpPacketTypeReject && fulfill != nil:
			// Lying-peer defense: the ILP envelope says Fulfill but the
			// authenticated STREAM reply says the receiver meant to
			// reject. Trust the ILP Fulfill below for crediting purposes
			// but do not trust this reply's claimed amount.
			log.Printf("sender: packet %d: outer Fulfill but stream reply claims Reject", sequence)
		default:
			state.ClearShouldSendSourceAccount()
			if snap.DestinationAssetCode == "" {
				for _, f := range replyPkt.Frames {
					if details, ok := f.(stream.ConnectionAssetDetails); ok {
						state.SetDestinationAsset(details.SourceAssetCode, details.SourceAssetScale)
						break
					}
				}
			}
			claimedAmount = replyPkt.PrepareAmount
		}
	}

	if fulfill != nil {
		delivered := maxUint64(minDestinationAmount, claimedAmount)
		state.ApplyFulfill(amount, delivered)
		if e.metrics != nil {
			e.metrics.IncFulfilled()
		}
		return nil
	}

	if reject == nil {
		// Pipeline returned neither a Fulfill nor a Reject: treat as a
		// hard failure rather than silently dropping the reservation.
		state.ApplyReject(amount, ilp.CodeBadRequest, 0)
		if e.metrics != nil {
			e.metrics.IncRejected(string(ilp.CodeBadRequest))
		}
		return fmt.Errorf("sender: request pipeline returned neither fulfill nor reject")
	}

	state.ApplyReject(amount, reject.Code, 0)
	if e.metrics != nil {
		e.metrics.IncRejected(string(reject.Code))
	}

	switch {
	case reject.Code.Class() == ilp.ClassTemporary:
		return nil
	case reject.Code == ilp.CodeAmountTooLarge:
		return nil
	case reject.Code == ilp.CodeApplicationError:
		return nil
	default:
		return &SendMoneyError{Message: fmt.Sprintf("packet %d rejected with %s: %s", sequence, reject.Code, reject.Message)}
	}
}
