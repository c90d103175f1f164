package paymentlog

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/ilpstreamd/internal/ilp"
	"github.com/LeJamon/ilpstreamd/internal/payment"
)

func sampleRecord() Record {
	return Record{
		PaymentID: "pay-1",
		Receipt: payment.Delivery{
			From:                  ilp.Address("g.alice"),
			To:                    ilp.Address("g.bob"),
			SourceAssetCode:       "XYZ",
			SourceAssetScale:      9,
			SourceAmount:          100,
			SentAmount:            100,
			DeliveredAmount:       99,
			DestinationAssetCode:  "XYZ",
			DestinationAssetScale: 9,
		},
		Succeeded: true,
		StartedAt: time.Unix(1000, 0).UTC(),
		EndedAt:   time.Unix(1001, 0).UTC(),
	}
}

func TestEncodeDecodeRecordRoundTripUncompressed(t *testing.T) {
	rec := sampleRecord()
	encoded, err := encodeRecord(rec, false)
	require.NoError(t, err)
	require.Equal(t, byte(0), encoded[0])

	decoded, err := decodeRecord(encoded)
	require.NoError(t, err)
	require.Equal(t, rec, decoded)
}

func TestEncodeDecodeRecordRoundTripCompressed(t *testing.T) {
	rec := sampleRecord()
	rec.ErrMessage = strings.Repeat("timed out waiting for fulfill; ", 10)

	encoded, err := encodeRecord(rec, true)
	require.NoError(t, err)
	require.Equal(t, byte(1), encoded[0])

	decoded, err := decodeRecord(encoded)
	require.NoError(t, err)
	require.Equal(t, rec, decoded)
}

func TestEncodeRecordSkipsCompressionBelowThreshold(t *testing.T) {
	rec := Record{PaymentID: "p"}
	encoded, err := encodeRecord(rec, true)
	require.NoError(t, err)
	require.Equal(t, byte(0), encoded[0])
}

func TestDecodeRecordRejectsCorruptFlag(t *testing.T) {
	_, err := decodeRecord([]byte{9, 1, 2, 3})
	require.ErrorIs(t, err, ErrRecordCorrupt)
}

func TestDecodeRecordRejectsEmptyInput(t *testing.T) {
	_, err := decodeRecord(nil)
	require.ErrorIs(t, err, ErrRecordCorrupt)
}
