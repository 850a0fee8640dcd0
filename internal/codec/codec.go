// Package codec provides the symmetric at-rest encryption for message
// text. Ciphertext is deterministic for a given key and plaintext: AES
// in ECB mode with PKCS#7 padding, base64-encoded. This mirrors the
// historical wire format and is intentionally not randomized; it makes
// stored text opaque, nothing more.
package codec

import (
	"crypto/aes"
	"encoding/base64"
	"errors"
)

var (
	// ErrBadKey is returned by New for key material that is not a
	// valid AES key length (16, 24 or 32 bytes).
	ErrBadKey = errors.New("codec: key must be 16, 24 or 32 bytes")

	// ErrCiphertext is returned when stored ciphertext cannot be
	// decoded or decrypted.
	ErrCiphertext = errors.New("codec: malformed ciphertext")
)

// Codec encrypts and decrypts message text with a static key. Safe for
// concurrent use.
type Codec struct {
	key []byte
}

// New creates a codec from raw key material.
func New(key string) (*Codec, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, ErrBadKey
	}
	// Fail early on anything the cipher would reject later.
	if _, err := aes.NewCipher([]byte(key)); err != nil {
		return nil, ErrBadKey
	}
	return &Codec{key: []byte(key)}, nil
}

// Encrypt returns the base64 ciphertext of plaintext.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}

	padded := pad([]byte(plaintext), block.BlockSize())
	out := make([]byte, len(padded))
	for i := 0; i < len(padded); i += block.BlockSize() {
		block.Encrypt(out[i:i+block.BlockSize()], padded[i:i+block.BlockSize()])
	}

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. It returns ErrCiphertext for input that is
// not valid base64, not block-aligned, or carries corrupt padding.
func (c *Codec) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrCiphertext
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 || len(raw)%block.BlockSize() != 0 {
		return "", ErrCiphertext
	}

	out := make([]byte, len(raw))
	for i := 0; i < len(raw); i += block.BlockSize() {
		block.Decrypt(out[i:i+block.BlockSize()], raw[i:i+block.BlockSize()])
	}

	plain, err := unpad(out, block.BlockSize())
	if err != nil {
		return "", ErrCiphertext
	}
	return string(plain), nil
}

// pad applies PKCS#7 padding.
func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

// unpad strips and verifies PKCS#7 padding.
func unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrCiphertext
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, ErrCiphertext
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrCiphertext
		}
	}
	return data[:len(data)-n], nil
}
