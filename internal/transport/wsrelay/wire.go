// Package wsrelay implements a websocket-backed RequestPipeline so the
// sender engine can be exercised against a real socket in integration
// tests, without implementing a production ILP transport. It generalizes
// an upgrade-and-pump websocket shape from JSON-RPC commands to framed
// binary ILP packets with request/response correlation, since concurrent
// in-flight Prepare packets need that where simple fire-and-forget
// JSON-RPC traffic didn't.
package wsrelay

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/LeJamon/ilpstreamd/internal/ilp"
)

// kind tags a response frame's payload.
type kind byte

const (
	kindFulfill kind = 0
	kindReject  kind = 1
	kindError   kind = 2
)

var errShortFrame = errors.New("wsrelay: frame too short")

// encodeRequestFrame lays out one outstanding Prepare as:
// [8B id][4B len(from)][from][4B len(prepare)][prepare].
func encodeRequestFrame(id uint64, from ilp.Address, prepare *ilp.Prepare) ([]byte, error) {
	prepareBytes, err := prepare.Encode()
	if err != nil {
		return nil, fmt.Errorf("wsrelay: encoding prepare: %w", err)
	}
	fromBytes := []byte(from)

	buf := make([]byte, 8+4+len(fromBytes)+4+len(prepareBytes))
	binary.BigEndian.PutUint64(buf[0:8], id)
	binary.BigEndian.PutUint32(buf[8:12], uint32(len(fromBytes)))
	copy(buf[12:12+len(fromBytes)], fromBytes)
	offset := 12 + len(fromBytes)
	binary.BigEndian.PutUint32(buf[offset:offset+4], uint32(len(prepareBytes)))
	copy(buf[offset+4:], prepareBytes)
	return buf, nil
}

func decodeRequestFrame(frame []byte) (id uint64, from ilp.Address, prepare *ilp.Prepare, err error) {
	if len(frame) < 8+4 {
		return 0, "", nil, errShortFrame
	}
	id = binary.BigEndian.Uint64(frame[0:8])
	fromLen := int(binary.BigEndian.Uint32(frame[8:12]))
	if len(frame) < 12+fromLen+4 {
		return 0, "", nil, errShortFrame
	}
	from = ilp.Address(frame[12 : 12+fromLen])

	offset := 12 + fromLen
	prepareLen := int(binary.BigEndian.Uint32(frame[offset : offset+4]))
	if len(frame) < offset+4+prepareLen {
		return 0, "", nil, errShortFrame
	}
	prepareBytes := frame[offset+4 : offset+4+prepareLen]

	prepare, err = ilp.DecodePrepare(prepareBytes)
	if err != nil {
		return 0, "", nil, fmt.Errorf("wsrelay: decoding prepare: %w", err)
	}
	return id, from, prepare, nil
}

// encodeResponseFrame lays out one reply as [8B id][1B kind][4B len(payload)][payload].
func encodeResponseFrame(id uint64, k kind, payload []byte) []byte {
	buf := make([]byte, 8+1+4+len(payload))
	binary.BigEndian.PutUint64(buf[0:8], id)
	buf[8] = byte(k)
	binary.BigEndian.PutUint32(buf[9:13], uint32(len(payload)))
	copy(buf[13:], payload)
	return buf
}

func decodeResponseFrame(frame []byte) (id uint64, k kind, payload []byte, err error) {
	if len(frame) < 8+1+4 {
		return 0, 0, nil, errShortFrame
	}
	id = binary.BigEndian.Uint64(frame[0:8])
	k = kind(frame[8])
	payloadLen := int(binary.BigEndian.Uint32(frame[9:13]))
	if len(frame) < 13+payloadLen {
		return 0, 0, nil, errShortFrame
	}
	payload = frame[13 : 13+payloadLen]
	return id, k, payload, nil
}
