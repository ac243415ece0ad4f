package service

import (
	"encoding/base64"
	"fmt"
)

// EncodingFieldCodec implements ports.FieldCodec with a deterministic,
// reversible base64 transform. It is a storage encoding, not a
// confidentiality mechanism: swap in AESFieldCodec (codec.mode=aes) for
// deployments that need real encryption at rest.
type EncodingFieldCodec struct{}

// NewEncodingFieldCodec creates the default reversible field codec.
func NewEncodingFieldCodec() *EncodingFieldCodec {
	return &EncodingFieldCodec{}
}

// Protect encodes plaintext into its storage token. Empty in, empty out.
func (c *EncodingFieldCodec) Protect(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	return base64.StdEncoding.EncodeToString([]byte(plaintext)), nil
}

// Reveal decodes a storage token back to plaintext. A malformed token is a
// data-integrity fault and yields an error.
func (c *EncodingFieldCodec) Reveal(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	plaintext, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("decoding field token: %w", err)
	}
	return string(plaintext), nil
}
