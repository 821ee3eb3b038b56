package calendarsync

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrCiphertextTooShort is returned by Open when the ciphertext is shorter
// than the nonce it must be prefixed with.
var ErrCiphertextTooShort = errors.New("calendarsync: ciphertext too short")

// TokenVault seals and opens the JSON-encoded oauth2.Token blob stored in
// ConnectedAccount.EncryptedTokens with ChaCha20-Poly1305, the same AEAD
// family golang.org/x/crypto already contributes to this module via
// argon2's sibling package, rather than reaching for a new dependency.
type TokenVault struct {
	aead interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
		NonceSize() int
		Overhead() int
	}
}

// NewTokenVault constructs a TokenVault from a 32-byte key.
func NewTokenVault(key []byte) (*TokenVault, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("calendarsync: constructing AEAD: %w", err)
	}
	return &TokenVault{aead: aead}, nil
}

// Seal encrypts plaintext, returning nonce||ciphertext.
func (v *TokenVault) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("calendarsync: generating nonce: %w", err)
	}
	return v.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a nonce||ciphertext blob produced by Seal.
func (v *TokenVault) Open(sealed []byte) ([]byte, error) {
	nonceSize := v.aead.NonceSize()
	if len(sealed) < nonceSize {
		return nil, ErrCiphertextTooShort
	}
	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := v.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("calendarsync: opening ciphertext: %w", err)
	}
	return plaintext, nil
}
