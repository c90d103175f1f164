package stream

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Key derivation, AEAD, and condition/fulfillment generation.
//
// Two keys are derived from the shared secret via HKDF-SHA256, mirroring the
// lnd-family onion/key-schedule pattern the pack's lightning manifests pull
// golang.org/x/crypto in for: one for AES-256-GCM payload encryption, one
// for the HMAC that produces fulfillments.

const (
	encryptionKeyInfo  = "ilp_stream_encryption"
	fulfillmentKeyInfo = "ilp_stream_fulfillment"
	keySize            = 32
	nonceSize          = 12
)

// ErrDecryptionFailed covers AEAD authentication failures and truncated
// ciphertexts alike: STREAM decode must not distinguish the two to an
// attacker.
var ErrDecryptionFailed = errors.New("stream: decryption failed")

// deriveKey runs HKDF-SHA256 over sharedSecret with the given info string,
// producing a single 32-byte key.
func deriveKey(sharedSecret []byte, info string) ([]byte, error) {
	kdf := hkdf.New(sha256.New, sharedSecret, nil, []byte(info))
	key := make([]byte, keySize)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("stream: key derivation: %w", err)
	}
	return key, nil
}

// deriveKeys produces the encryption key and fulfillment-HMAC key for a
// shared secret.
func deriveKeys(sharedSecret []byte) (encKey, fulfillKey []byte, err error) {
	encKey, err = deriveKey(sharedSecret, encryptionKeyInfo)
	if err != nil {
		return nil, nil, err
	}
	fulfillKey, err = deriveKey(sharedSecret, fulfillmentKeyInfo)
	if err != nil {
		return nil, nil, err
	}
	return encKey, fulfillKey, nil
}

// encrypt seals plaintext under key using AES-256-GCM with a random nonce,
// returning nonce||ciphertext.
func encrypt(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("stream: cipher init: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("stream: gcm init: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("stream: nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// decrypt opens a ciphertext produced by encrypt. Any authentication or
// framing failure collapses to ErrDecryptionFailed.
func decrypt(key, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	if len(ciphertext) < nonceSize {
		return nil, ErrDecryptionFailed
	}
	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// Encode encrypts a STREAM packet under the connection's shared secret,
// producing bytes suitable for ILP Prepare.Data or a reply's Data
//.
func Encode(sharedSecret []byte, p *Packet) ([]byte, error) {
	encKey, _, err := deriveKeys(sharedSecret)
	if err != nil {
		return nil, err
	}
	plaintext, err := p.encode()
	if err != nil {
		return nil, err
	}
	return encrypt(encKey, plaintext)
}

// Decode authenticates and decrypts a STREAM packet. Tampered, truncated,
// or wrong-secret ciphertexts fail.
func Decode(sharedSecret []byte, ciphertext []byte) (*Packet, error) {
	encKey, _, err := deriveKeys(sharedSecret)
	if err != nil {
		return nil, err
	}
	plaintext, err := decrypt(encKey, ciphertext)
	if err != nil {
		return nil, err
	}
	return decodePacket(plaintext)
}

// GenerateCondition derives the deterministic execution condition for a
// Prepare whose data is prepareData: a party without the shared secret
// cannot compute the fulfillment (the preimage), so only the true receiver
// can later satisfy it.
func GenerateCondition(sharedSecret []byte, prepareData []byte) ([32]byte, error) {
	fulfillment, err := GenerateFulfillment(sharedSecret, prepareData)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(fulfillment[:]), nil
}

// GenerateFulfillment computes the preimage for a Prepare's execution
// condition: HMAC-SHA256(fulfillmentKey, prepareData). Only a holder of the
// shared secret and the exact ciphertext can reproduce it, which is what
// makes the matching condition an admission-control commitment rather than
// just a random challenge.
func GenerateFulfillment(sharedSecret []byte, prepareData []byte) ([32]byte, error) {
	_, fulfillKey, err := deriveKeys(sharedSecret)
	if err != nil {
		return [32]byte{}, err
	}
	mac := hmac.New(sha256.New, fulfillKey)
	mac.Write(prepareData)
	var out [32]byte
	copy(out[:], mac.Sum(nil))
	return out, nil
}

// RandomCondition returns 32 uniformly random bytes: a condition nobody can
// fulfill, used whenever min_destination_amount is zero so no money can
// move on that packet.
func RandomCondition() ([32]byte, error) {
	var out [32]byte
	if _, err := rand.Read(out[:]); err != nil {
		return out, fmt.Errorf("stream: random condition: %w", err)
	}
	return out, nil
}
