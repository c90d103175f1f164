// Package paymentlog durably records the receipt of a completed or aborted
// send_money call. This is payment history, not account balance
// bookkeeping, so it stays in scope even though the wider connector's
// account persistence does not.
package paymentlog

import (
	"bytes"
	"errors"
	"time"

	"github.com/pierrec/lz4"
	"github.com/ugorji/go/codec"

	"github.com/LeJamon/ilpstreamd/internal/payment"
)

// minCompressibleSize is the smallest record worth the lz4 framing
// overhead; anything under it is stored raw regardless of the compress flag.
const minCompressibleSize = 70

// ErrRecordCorrupt is returned when a stored record's encoding or declared
// uncompressed size doesn't match what comes back out of the backend.
var ErrRecordCorrupt = errors.New("paymentlog: stored record is corrupt")

// Record is one payment-log entry: a delivery receipt plus the outcome and
// timestamps of the send_money call that produced it.
type Record struct {
	PaymentID  string
	Receipt    payment.Delivery
	Succeeded  bool
	ErrMessage string
	StartedAt  time.Time
	EndedAt    time.Time
}

var cborHandle = new(codec.CborHandle)

// encodeRecord ugorji-encodes r as CBOR, then lz4-compresses the result
// when requested and when it's large enough to be worth it. The returned
// bytes carry a one-byte flag prefix so decodeRecord knows whether to
// decompress: 0 = raw CBOR, 1 = lz4(CBOR) with a 4-byte big-endian
// uncompressed-length header.
func encodeRecord(r Record, compress bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf, cborHandle)
	if err := enc.Encode(&r); err != nil {
		return nil, err
	}
	raw := buf.Bytes()

	if !compress || len(raw) < minCompressibleSize {
		out := make([]byte, 1+len(raw))
		out[0] = 0
		copy(out[1:], raw)
		return out, nil
	}

	maxSize := lz4.CompressBlockBound(len(raw))
	compressed := make([]byte, maxSize)
	n, err := lz4.CompressBlock(raw, compressed, nil)
	if err != nil || n == 0 || n >= len(raw) {
		// Incompressible or lz4 declined: fall back to raw, same as the
		// teacher's CompressLZ4 does for undersized savings.
		out := make([]byte, 1+len(raw))
		out[0] = 0
		copy(out[1:], raw)
		return out, nil
	}

	out := make([]byte, 5+n)
	out[0] = 1
	putUint32(out[1:5], uint32(len(raw)))
	copy(out[5:], compressed[:n])
	return out, nil
}

func decodeRecord(stored []byte) (Record, error) {
	var r Record
	if len(stored) < 1 {
		return r, ErrRecordCorrupt
	}

	flag := stored[0]
	body := stored[1:]

	switch flag {
	case 0:
		if err := codec.NewDecoderBytes(body, cborHandle).Decode(&r); err != nil {
			return r, err
		}
		return r, nil
	case 1:
		if len(body) < 4 {
			return r, ErrRecordCorrupt
		}
		uncompressedSize := int(getUint32(body[:4]))
		compressed := body[4:]
		raw := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(compressed, raw)
		if err != nil {
			return r, err
		}
		if n != uncompressedSize {
			return r, ErrRecordCorrupt
		}
		if err := codec.NewDecoderBytes(raw, cborHandle).Decode(&r); err != nil {
			return r, err
		}
		return r, nil
	default:
		return r, ErrRecordCorrupt
	}
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func getUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
