package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// AESFieldCodec implements ports.FieldCodec using AES-256-GCM. Unlike the
// default encoding codec its tokens are non-deterministic (random nonce per
// Protect call); Reveal remains the exact inverse.
type AESFieldCodec struct {
	key []byte // 32-byte key for AES-256
}

// NewAESFieldCodec creates an AES-256-GCM field codec.
// hexKey must be a 64-character hex string (32 bytes decoded).
func NewAESFieldCodec(hexKey string) (*AESFieldCodec, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decoding AES key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("AES key must be 32 bytes, got %d", len(key))
	}
	return &AESFieldCodec{key: key}, nil
}

// Protect encrypts plaintext using AES-256-GCM.
// Returns hex-encoded string: nonce + ciphertext. Empty in, empty out.
func (c *AESFieldCodec) Protect(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("creating GCM: %w", err)
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	ciphertext := aesGCM.Seal(nonce, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(ciphertext), nil
}

// Reveal decrypts a hex-encoded AES-256-GCM token.
func (c *AESFieldCodec) Reveal(token string) (string, error) {
	if token == "" {
		return "", nil
	}

	ciphertext, err := hex.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("decoding field token: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("creating GCM: %w", err)
	}

	nonceSize := aesGCM.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("field token too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decrypting field token: %w", err)
	}

	return string(plaintext), nil
}
