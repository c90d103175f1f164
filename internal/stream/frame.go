// Package stream implements the STREAM transport layer carried encrypted
// inside ILP Prepare/Fulfill/Reject data: frames,
// packets, and the shared-secret-derived crypto that authenticates them.
package stream

import (
	"fmt"

	"github.com/LeJamon/ilpstreamd/internal/ilp"
)

// FrameType identifies a STREAM frame's wire encoding. Unknown types are
// skipped on decode rather than rejected, so new frame kinds can be added
// without breaking older peers.
type FrameType byte

const (
	FrameTypeConnectionClose         FrameType = 0x01
	FrameTypeConnectionNewAddress    FrameType = 0x02
	FrameTypeConnectionAssetDetails  FrameType = 0x03
	FrameTypeStreamMoney             FrameType = 0x10
)

// Frame is any STREAM frame. Decode preserves frame order.
type Frame interface {
	Type() FrameType
	encodeBody(w *writer) error
}

// StreamMoney requests that shares of the packet's prepare_amount be
// attributed to a particular money stream.
type StreamMoney struct {
	StreamID uint64
	Shares   uint64
}

func (StreamMoney) Type() FrameType { return FrameTypeStreamMoney }

func (f StreamMoney) encodeBody(w *writer) error {
	w.WriteVarUint(f.StreamID)
	w.WriteVarUint(f.Shares)
	return nil
}

// ConnectionNewAddress informs the receiver of the sender's address, sent
// only until the receiver's first authenticated reply.
type ConnectionNewAddress struct {
	SourceAccount ilp.Address
}

func (ConnectionNewAddress) Type() FrameType { return FrameTypeConnectionNewAddress }

func (f ConnectionNewAddress) encodeBody(w *writer) error {
	return w.WriteVarOctetString([]byte(f.SourceAccount))
}

// ConnectionAssetDetails announces the sender's (or, in a reply, the
// receiver's) asset code and scale.
type ConnectionAssetDetails struct {
	SourceAssetCode  string
	SourceAssetScale uint8
}

func (ConnectionAssetDetails) Type() FrameType { return FrameTypeConnectionAssetDetails }

func (f ConnectionAssetDetails) encodeBody(w *writer) error {
	if err := w.WriteVarOctetString([]byte(f.SourceAssetCode)); err != nil {
		return err
	}
	w.WriteByte(f.SourceAssetScale)
	return nil
}

// ConnectionClose signals the end of the STREAM connection, sent best-effort
// with no acknowledgement expected.
type ConnectionClose struct {
	Code    uint8
	Message string
}

func (ConnectionClose) Type() FrameType { return FrameTypeConnectionClose }

func (f ConnectionClose) encodeBody(w *writer) error {
	w.WriteByte(f.Code)
	return w.WriteVarOctetString([]byte(f.Message))
}

// encodeFrame writes a frame's type octet, its OER-length-prefixed body,
// onto w.
func encodeFrame(w *writer, f Frame) error {
	body := &writer{}
	if err := f.encodeBody(body); err != nil {
		return err
	}
	w.WriteByte(byte(f.Type()))
	return w.WriteVarOctetString(body.Bytes())
}

// decodeFrame reads one frame. If the frame type is unrecognized, its body
// is consumed and (nil, nil) is returned so the caller skips it, preserving
// forward compatibility.
func decodeFrame(r *reader) (Frame, error) {
	typeOctet, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	body, err := r.ReadVarOctetString()
	if err != nil {
		return nil, fmt.Errorf("stream: frame body: %w", err)
	}
	br := newReader(body)

	switch FrameType(typeOctet) {
	case FrameTypeStreamMoney:
		streamID, err := br.ReadVarUint()
		if err != nil {
			return nil, err
		}
		shares, err := br.ReadVarUint()
		if err != nil {
			return nil, err
		}
		return StreamMoney{StreamID: streamID, Shares: shares}, nil

	case FrameTypeConnectionNewAddress:
		addr, err := br.ReadVarOctetString()
		if err != nil {
			return nil, err
		}
		return ConnectionNewAddress{SourceAccount: ilp.Address(addr)}, nil

	case FrameTypeConnectionAssetDetails:
		code, err := br.ReadVarOctetString()
		if err != nil {
			return nil, err
		}
		scale, err := br.ReadByte()
		if err != nil {
			return nil, err
		}
		return ConnectionAssetDetails{SourceAssetCode: string(code), SourceAssetScale: scale}, nil

	case FrameTypeConnectionClose:
		code, err := br.ReadByte()
		if err != nil {
			return nil, err
		}
		msg, err := br.ReadVarOctetString()
		if err != nil {
			return nil, err
		}
		return ConnectionClose{Code: code, Message: string(msg)}, nil

	default:
		// Unknown frame type: already consumed via body above, ignore.
		return nil, nil
	}
}
