package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// SealBox encrypts small secrets (provider refresh tokens) before they are
// persisted. A nil SealBox passes values through unchanged so local setups
// without a cipher key keep working.
type SealBox struct {
	key []byte
}

// NewSealBox creates a SealBox from a 32-byte key. A nil or empty key yields
// a nil box, which performs no sealing.
func NewSealBox(key []byte) (*SealBox, error) {
	if len(key) == 0 {
		return nil, nil
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("seal box key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return &SealBox{key: key}, nil
}

// Seal encrypts plaintext and returns a base64 string with the nonce prepended.
func (b *SealBox) Seal(plaintext string) (string, error) {
	if b == nil {
		return plaintext, nil
	}

	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return "", fmt.Errorf("failed to initialise cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal.
func (b *SealBox) Open(sealed string) (string, error) {
	if b == nil {
		return sealed, nil
	}

	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("sealed value is not valid base64: %w", err)
	}

	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return "", fmt.Errorf("failed to initialise cipher: %w", err)
	}

	if len(raw) < aead.NonceSize() {
		return "", fmt.Errorf("sealed value too short")
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to open sealed value: %w", err)
	}
	return string(plaintext), nil
}
