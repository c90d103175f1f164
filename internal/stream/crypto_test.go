package stream

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/ilpstreamd/internal/ilp"
)

func testPacket() *Packet {
	return &Packet{
		Sequence:      7,
		IlpPacketType: IlpPacketTypePrepare,
		PrepareAmount: 500,
		Frames: []Frame{
			ConnectionNewAddress{SourceAccount: ilp.Address("g.connector.alice")},
			StreamMoney{StreamID: 1, Shares: 500},
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	secret := []byte("a shared secret known to both ends of the stream")

	ciphertext, err := Encode(secret, testPacket())
	require.NoError(t, err)

	decoded, err := Decode(secret, ciphertext)
	require.NoError(t, err)

	require.Equal(t, uint64(7), decoded.Sequence)
	require.Equal(t, IlpPacketTypePrepare, decoded.IlpPacketType)
	require.Equal(t, uint64(500), decoded.PrepareAmount)
	require.Len(t, decoded.Frames, 2)
}

func TestDecodeFailsUnderWrongSecret(t *testing.T) {
	correct := []byte("correct shared secret")
	wrong := []byte("a different shared secret entirely")

	ciphertext, err := Encode(correct, testPacket())
	require.NoError(t, err)

	_, err = Decode(wrong, ciphertext)
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecodeFailsOnTamperedCiphertext(t *testing.T) {
	secret := []byte("shared secret for tamper test")

	ciphertext, err := Encode(secret, testPacket())
	require.NoError(t, err)

	tampered := append([]byte{}, ciphertext...)
	tampered[len(tampered)-1] ^= 0xFF

	_, err = Decode(secret, tampered)
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecodeFailsOnTruncatedCiphertext(t *testing.T) {
	secret := []byte("shared secret for truncation test")

	ciphertext, err := Encode(secret, testPacket())
	require.NoError(t, err)

	_, err = Decode(secret, ciphertext[:nonceSize-1])
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestGenerateConditionDeterministic(t *testing.T) {
	secret := []byte("fulfillment shared secret")
	data := []byte("prepare data payload")

	c1, err := GenerateCondition(secret, data)
	require.NoError(t, err)
	c2, err := GenerateCondition(secret, data)
	require.NoError(t, err)
	require.Equal(t, c1, c2)

	fulfillment, err := GenerateFulfillment(secret, data)
	require.NoError(t, err)
	require.Equal(t, sha256.Sum256(fulfillment[:]), c1)
}

func TestGenerateConditionDiffersPerSecretAndData(t *testing.T) {
	secretA := []byte("secret A")
	secretB := []byte("secret B")
	data := []byte("identical prepare data")

	ca, err := GenerateCondition(secretA, data)
	require.NoError(t, err)
	cb, err := GenerateCondition(secretB, data)
	require.NoError(t, err)
	require.NotEqual(t, ca, cb)

	cc, err := GenerateCondition(secretA, []byte("different prepare data"))
	require.NoError(t, err)
	require.NotEqual(t, ca, cc)
}

func TestRandomConditionUnfulfillable(t *testing.T) {
	secret := []byte("some shared secret")
	data := []byte("prepare data")

	deterministic, err := GenerateCondition(secret, data)
	require.NoError(t, err)

	random1, err := RandomCondition()
	require.NoError(t, err)
	random2, err := RandomCondition()
	require.NoError(t, err)

	require.NotEqual(t, random1, random2)
	require.NotEqual(t, deterministic, random1)
}
