package ilp

import (
	"errors"
	"fmt"
	"time"
)

// Packet type octets, per the Interledger v4 wire format.
const (
	TypePrepare byte = 12
	TypeFulfill byte = 13
	TypeReject  byte = 14
)

// ilpTimeLayout is the 19-character fixed-width timestamp this codec writes
// and reads: YYYYMMDDHHMMSS.fffZ truncated to milliseconds, always UTC. The
// '.' separator and trailing 'Z' make it two characters longer than a bare
// 17-digit YYYYMMDDHHMMSSfff timestamp.
const ilpTimeLayout = "20060102150405.000Z"

// ConditionSize and FulfillmentSize are both 32 bytes.
const (
	ConditionSize   = 32
	FulfillmentSize = 32
)

var (
	// ErrMalformedPacket is returned for any packet that fails to parse.
	ErrMalformedPacket = errors.New("ilp: malformed packet")
	// ErrUnknownPacketType is returned when the leading type octet isn't
	// Prepare, Fulfill, or Reject.
	ErrUnknownPacketType = errors.New("ilp: unknown packet type")
)

// Prepare is a conditional transfer request.
type Prepare struct {
	Destination         Address
	Amount              uint64
	ExpiresAt           time.Time
	ExecutionCondition  [ConditionSize]byte
	Data                []byte
}

// Fulfill is the proof that a Prepare's condition was met.
type Fulfill struct {
	Fulfillment [FulfillmentSize]byte
	Data        []byte
}

// Reject explains why a Prepare could not be completed.
type Reject struct {
	Code        ErrorCode
	TriggeredBy Address
	Message     string
	Data        []byte
}

func encodeTime(t time.Time) []byte {
	return []byte(t.UTC().Format(ilpTimeLayout))
}

func decodeTime(b []byte) (time.Time, error) {
	t, err := time.Parse(ilpTimeLayout, string(b))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad timestamp: %v", ErrMalformedPacket, err)
	}
	return t.UTC(), nil
}

// Encode serializes the Prepare packet as type octet + OER length + contents.
func (p *Prepare) Encode() ([]byte, error) {
	body := &writer{}
	body.WriteUint64(p.Amount)
	body.WriteBytes(encodeTime(p.ExpiresAt))
	body.WriteBytes(p.ExecutionCondition[:])
	if err := body.WriteVarOctetString([]byte(p.Destination)); err != nil {
		return nil, err
	}
	if err := body.WriteVarOctetString(p.Data); err != nil {
		return nil, err
	}
	return wrapEnvelope(TypePrepare, body.Bytes())
}

// DecodePrepare parses a Prepare packet previously produced by Encode.
func DecodePrepare(raw []byte) (*Prepare, error) {
	body, err := unwrapEnvelope(TypePrepare, raw)
	if err != nil {
		return nil, err
	}
	r := newReader(body)

	amount, err := r.ReadUint64()
	if err != nil {
		return nil, fmt.Errorf("%w: amount: %v", ErrMalformedPacket, err)
	}
	tsBytes, err := r.ReadBytes(len(ilpTimeLayout))
	if err != nil {
		return nil, fmt.Errorf("%w: expires_at: %v", ErrMalformedPacket, err)
	}
	expiresAt, err := decodeTime(tsBytes)
	if err != nil {
		return nil, err
	}
	condBytes, err := r.ReadBytes(ConditionSize)
	if err != nil {
		return nil, fmt.Errorf("%w: execution_condition: %v", ErrMalformedPacket, err)
	}
	destBytes, err := r.ReadVarOctetString()
	if err != nil {
		return nil, fmt.Errorf("%w: destination: %v", ErrMalformedPacket, err)
	}
	data, err := r.ReadVarOctetString()
	if err != nil {
		return nil, fmt.Errorf("%w: data: %v", ErrMalformedPacket, err)
	}
	if r.HasMore() {
		return nil, errTrailingBytes
	}

	p := &Prepare{
		Destination: Address(destBytes),
		Amount:      amount,
		ExpiresAt:   expiresAt,
		Data:        data,
	}
	copy(p.ExecutionCondition[:], condBytes)
	return p, nil
}

// Encode serializes the Fulfill packet.
func (f *Fulfill) Encode() ([]byte, error) {
	body := &writer{}
	body.WriteBytes(f.Fulfillment[:])
	if err := body.WriteVarOctetString(f.Data); err != nil {
		return nil, err
	}
	return wrapEnvelope(TypeFulfill, body.Bytes())
}

// DecodeFulfill parses a Fulfill packet previously produced by Encode.
func DecodeFulfill(raw []byte) (*Fulfill, error) {
	body, err := unwrapEnvelope(TypeFulfill, raw)
	if err != nil {
		return nil, err
	}
	r := newReader(body)

	fulfillmentBytes, err := r.ReadBytes(FulfillmentSize)
	if err != nil {
		return nil, fmt.Errorf("%w: fulfillment: %v", ErrMalformedPacket, err)
	}
	data, err := r.ReadVarOctetString()
	if err != nil {
		return nil, fmt.Errorf("%w: data: %v", ErrMalformedPacket, err)
	}
	if r.HasMore() {
		return nil, errTrailingBytes
	}

	f := &Fulfill{Data: data}
	copy(f.Fulfillment[:], fulfillmentBytes)
	return f, nil
}

// Encode serializes the Reject packet.
func (rj *Reject) Encode() ([]byte, error) {
	body := &writer{}
	code := rj.Code.String()
	if len(code) != 3 {
		return nil, fmt.Errorf("ilp: reject code must be 3 characters, got %q", code)
	}
	body.WriteBytes([]byte(code))
	if err := body.WriteVarOctetString([]byte(rj.TriggeredBy)); err != nil {
		return nil, err
	}
	if err := body.WriteVarOctetString([]byte(rj.Message)); err != nil {
		return nil, err
	}
	if err := body.WriteVarOctetString(rj.Data); err != nil {
		return nil, err
	}
	return wrapEnvelope(TypeReject, body.Bytes())
}

// DecodeReject parses a Reject packet previously produced by Encode.
func DecodeReject(raw []byte) (*Reject, error) {
	body, err := unwrapEnvelope(TypeReject, raw)
	if err != nil {
		return nil, err
	}
	r := newReader(body)

	codeBytes, err := r.ReadBytes(3)
	if err != nil {
		return nil, fmt.Errorf("%w: code: %v", ErrMalformedPacket, err)
	}
	triggeredBy, err := r.ReadVarOctetString()
	if err != nil {
		return nil, fmt.Errorf("%w: triggered_by: %v", ErrMalformedPacket, err)
	}
	message, err := r.ReadVarOctetString()
	if err != nil {
		return nil, fmt.Errorf("%w: message: %v", ErrMalformedPacket, err)
	}
	data, err := r.ReadVarOctetString()
	if err != nil {
		return nil, fmt.Errorf("%w: data: %v", ErrMalformedPacket, err)
	}
	if r.HasMore() {
		return nil, errTrailingBytes
	}

	return &Reject{
		Code:        ErrorCode(codeBytes),
		TriggeredBy: Address(triggeredBy),
		Message:     string(message),
		Data:        data,
	}, nil
}

// wrapEnvelope prefixes body with its type octet and OER length determinant.
func wrapEnvelope(typeOctet byte, body []byte) ([]byte, error) {
	w := &writer{}
	w.WriteByte(typeOctet)
	if err := w.WriteVarOctetString(body); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// unwrapEnvelope validates the type octet and returns the inner body,
// rejecting anything with trailing bytes after the declared length.
func unwrapEnvelope(wantType byte, raw []byte) ([]byte, error) {
	r := newReader(raw)
	gotType, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPacket, err)
	}
	if gotType != wantType {
		return nil, ErrUnknownPacketType
	}
	body, err := r.ReadVarOctetString()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPacket, err)
	}
	if r.HasMore() {
		return nil, errTrailingBytes
	}
	return body, nil
}

// PeekType returns the packet type octet of an encoded ILP packet without
// fully decoding it, so callers can dispatch to DecodePrepare/Fulfill/Reject.
func PeekType(raw []byte) (byte, error) {
	if len(raw) == 0 {
		return 0, errShortBuffer
	}
	return raw[0], nil
}
