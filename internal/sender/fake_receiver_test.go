package sender

import (
	"context"
	"crypto/sha256"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LeJamon/ilpstreamd/internal/ilp"
	"github.com/LeJamon/ilpstreamd/internal/stream"
)

// fakeReceiver is a cooperative-or-not simulated STREAM receiver used to
// drive the sender engine end to end in engine_test.go, standing in for
// the real connector and transport a deployed sender would talk to.
type fakeReceiver struct {
	secret []byte

	mu          sync.Mutex
	requests    int
	peakInFlight int32
	inFlight    int32

	// behavior knobs, set per test.
	mode        receiverMode
	stallFor    time.Duration
	rejectCode  ilp.ErrorCode
}

type receiverMode int

const (
	modeFulfillAll receiverMode = iota
	modeRejectAlways
	modeRejectFirstOnly
)

func newFakeReceiver(secret []byte) *fakeReceiver {
	return &fakeReceiver{secret: secret, mode: modeFulfillAll}
}

func (r *fakeReceiver) HandleRequest(ctx context.Context, from ilp.Address, prepare *ilp.Prepare) (*ilp.Fulfill, *ilp.Reject, error) {
	atomic.AddInt32(&r.inFlight, 1)
	defer atomic.AddInt32(&r.inFlight, -1)
	r.recordPeak()

	r.mu.Lock()
	r.requests++
	attempt := r.requests
	r.mu.Unlock()

	if r.stallFor > 0 {
		select {
		case <-time.After(r.stallFor):
		case <-ctx.Done():
			return nil, &ilp.Reject{Code: ilp.CodeUnreachable, TriggeredBy: ilp.Address("g.receiver"), Message: "canceled"}, nil
		}
	}

	reqPkt, err := stream.Decode(r.secret, prepare.Data)
	if err != nil {
		return nil, &ilp.Reject{Code: ilp.CodeBadRequest, TriggeredBy: ilp.Address("g.receiver"), Message: "bad stream data"}, nil
	}

	switch r.mode {
	case modeRejectAlways:
		return nil, r.buildReject(reqPkt.Sequence, r.rejectCode), nil
	case modeRejectFirstOnly:
		if attempt == 1 {
			return nil, r.buildReject(reqPkt.Sequence, r.rejectCode), nil
		}
	}

	if reqPkt.PrepareAmount == 0 {
		// The sender demanded nothing, so it used an unfulfillable random
		// condition: no party can produce a preimage for
		// it. Reject with an absorbed code but still report asset
		// details, mirroring how a real STREAM connection bootstraps.
		return nil, r.buildReject(reqPkt.Sequence, ilp.CodeApplicationError), nil
	}

	fulfillment, err := stream.GenerateFulfillment(r.secret, prepare.Data)
	if err != nil {
		return nil, &ilp.Reject{Code: ilp.CodeBadRequest, TriggeredBy: ilp.Address("g.receiver"), Message: "fulfillment error"}, nil
	}
	if sha256.Sum256(fulfillment[:]) != prepare.ExecutionCondition {
		return nil, &ilp.Reject{Code: ilp.CodeBadRequest, TriggeredBy: ilp.Address("g.receiver"), Message: "condition mismatch"}, nil
	}

	replyPkt := &stream.Packet{
		Sequence:      reqPkt.Sequence,
		IlpPacketType: stream.IlpPacketTypeFulfill,
		PrepareAmount: prepare.Amount,
		Frames: []stream.Frame{
			stream.ConnectionAssetDetails{SourceAssetCode: "XYZ", SourceAssetScale: 9},
		},
	}
	replyData, err := stream.Encode(r.secret, replyPkt)
	if err != nil {
		return nil, &ilp.Reject{Code: ilp.CodeBadRequest, TriggeredBy: ilp.Address("g.receiver"), Message: "reply encode error"}, nil
	}

	return &ilp.Fulfill{Fulfillment: fulfillment, Data: replyData}, nil, nil
}

func (r *fakeReceiver) buildReject(sequence uint64, code ilp.ErrorCode) *ilp.Reject {
	replyPkt := &stream.Packet{
		Sequence:      sequence,
		IlpPacketType: stream.IlpPacketTypeReject,
		Frames: []stream.Frame{
			stream.ConnectionAssetDetails{SourceAssetCode: "XYZ", SourceAssetScale: 9},
		},
	}
	replyData, err := stream.Encode(r.secret, replyPkt)
	if err != nil {
		replyData = nil
	}
	return &ilp.Reject{Code: code, TriggeredBy: ilp.Address("g.receiver"), Message: "rejected", Data: replyData}
}

func (r *fakeReceiver) recordPeak() {
	for {
		cur := atomic.LoadInt32(&r.peakInFlight)
		now := atomic.LoadInt32(&r.inFlight)
		if now <= cur {
			return
		}
		if atomic.CompareAndSwapInt32(&r.peakInFlight, cur, now) {
			return
		}
	}
}

func (r *fakeReceiver) requestCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests
}

type fakeFromAccount struct {
	address ilp.Address
	code    string
	scale   uint8
}

func (f fakeFromAccount) Address() ilp.Address { return f.address }
func (f fakeFromAccount) AssetCode() string     { return f.code }
func (f fakeFromAccount) AssetScale() uint8     { return f.scale }

type fakeRateStore map[string]float64

func (f fakeRateStore) Price(code string) (float64, bool) {
	p, ok := f[code]
	return p, ok
}
