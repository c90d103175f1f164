package stream

import (
	"fmt"
)

// IlpPacketType mirrors the outer ILP packet this STREAM packet rode inside,
// so the receiver can tell a Prepare-carrying STREAM packet from a reply
//.
type IlpPacketType byte

const (
	IlpPacketTypePrepare IlpPacketType = 12
	IlpPacketTypeFulfill IlpPacketType = 13
	IlpPacketTypeReject  IlpPacketType = 14
)

const streamVersion = 1

// Packet is a decrypted STREAM packet.
type Packet struct {
	Sequence      uint64
	IlpPacketType IlpPacketType
	PrepareAmount uint64
	Frames        []Frame
}

// encode serializes the plaintext STREAM packet. Encryption is applied by
// the caller (see crypto.go) to the bytes this returns.
func (p *Packet) encode() ([]byte, error) {
	w := &writer{}
	w.WriteByte(streamVersion)
	w.WriteVarUint(p.Sequence)
	w.WriteByte(byte(p.IlpPacketType))
	w.WriteVarUint(p.PrepareAmount)

	frames := &writer{}
	frames.WriteVarUint(uint64(len(p.Frames)))
	for _, f := range p.Frames {
		if err := encodeFrame(frames, f); err != nil {
			return nil, err
		}
	}
	w.WriteBytes(frames.Bytes())

	return w.Bytes(), nil
}

// decodePacket parses a plaintext STREAM packet, skipping unrecognized
// frame types in place.
func decodePacket(plaintext []byte) (*Packet, error) {
	r := newReader(plaintext)

	version, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("stream: version: %w", err)
	}
	if version != streamVersion {
		return nil, fmt.Errorf("stream: unsupported version %d", version)
	}
	sequence, err := r.ReadVarUint()
	if err != nil {
		return nil, fmt.Errorf("stream: sequence: %w", err)
	}
	packetTypeByte, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("stream: ilp packet type: %w", err)
	}
	prepareAmount, err := r.ReadVarUint()
	if err != nil {
		return nil, fmt.Errorf("stream: prepare amount: %w", err)
	}
	frameCount, err := r.ReadVarUint()
	if err != nil {
		return nil, fmt.Errorf("stream: frame count: %w", err)
	}

	frames := make([]Frame, 0, frameCount)
	for i := uint64(0); i < frameCount; i++ {
		f, err := decodeFrame(r)
		if err != nil {
			return nil, fmt.Errorf("stream: frame %d: %w", i, err)
		}
		if f != nil {
			frames = append(frames, f)
		}
	}
	if r.HasMore() {
		return nil, errTrailingBytes
	}

	return &Packet{
		Sequence:      sequence,
		IlpPacketType: IlpPacketType(packetTypeByte),
		PrepareAmount: prepareAmount,
		Frames:        frames,
	}, nil
}
