// seal.go - Authenticated encryption of note records under a viewing key.
//
// A sealed note is nonce(12) ‖ ciphertext ‖ tag(16). Anyone holding the
// recipient's viewing key can open it; everyone else fails authentication,
// which is how the scanner distinguishes owned outputs from foreign ones.

package note

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	// ErrSealedTooShort is returned when a sealed blob cannot even hold a
	// nonce and a tag.
	ErrSealedTooShort = errors.New("note: sealed note too short")
	// ErrDecryptionFailed is returned when authentication fails; for the
	// scanner this is the normal "not ours" signal.
	ErrDecryptionFailed = errors.New("note: decryption failed")
)

// Seal serializes the note and encrypts it under the recipient's viewing key
// with ChaCha20-Poly1305 and a fresh 12-byte nonce.
func Seal(n *Note, viewingKey [32]byte) ([]byte, error) {
	plaintext, err := n.Serialize()
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(viewingKey[:])
	if err != nil {
		return nil, fmt.Errorf("note: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("note: nonce generation failed: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open authenticates and decrypts a sealed note. The first 12 bytes are the
// nonce; the rest is ciphertext plus tag.
func Open(sealed []byte, viewingKey [32]byte) (*Note, error) {
	if len(sealed) < chacha20poly1305.NonceSize+chacha20poly1305.Overhead {
		return nil, ErrSealedTooShort
	}
	aead, err := chacha20poly1305.New(viewingKey[:])
	if err != nil {
		return nil, fmt.Errorf("note: %w", err)
	}
	nonce := sealed[:chacha20poly1305.NonceSize]
	plaintext, err := aead.Open(nil, nonce, sealed[chacha20poly1305.NonceSize:], nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return Deserialize(plaintext)
}
