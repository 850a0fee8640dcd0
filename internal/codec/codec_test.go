package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testKey = "MySuperSecretKey"

func TestRoundTrip(t *testing.T) {
	req := require.New(t)
	c, err := New(testKey)
	req.NoError(err)

	texts := []string{
		"hi",
		"",
		"a longer message that spans multiple AES blocks without any trouble",
		"unicode: привет мир 你好",
		"exactly sixteen b", // one byte over a block boundary
	}
	for _, text := range texts {
		ciphertext, err := c.Encrypt(text)
		req.NoError(err)
		req.NotEqual(text, ciphertext)

		plain, err := c.Decrypt(ciphertext)
		req.NoError(err)
		req.Equal(text, plain)
	}
}

func TestDeterministic(t *testing.T) {
	req := require.New(t)
	c, err := New(testKey)
	req.NoError(err)

	a, err := c.Encrypt("same text")
	req.NoError(err)
	b, err := c.Encrypt("same text")
	req.NoError(err)
	req.Equal(a, b)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	req := require.New(t)
	c, err := New(testKey)
	req.NoError(err)

	for _, bad := range []string{
		"not base64 !!!",
		"aGVsbG8", // valid base64, not block-aligned
		"",
	} {
		_, err := c.Decrypt(bad)
		req.ErrorIs(err, ErrCiphertext)
	}
}

func TestDecryptWrongKey(t *testing.T) {
	req := require.New(t)
	c1, err := New(testKey)
	req.NoError(err)
	c2, err := New("AnotherSecretKey")
	req.NoError(err)

	ciphertext, err := c1.Encrypt("secret message")
	req.NoError(err)

	plain, err := c2.Decrypt(ciphertext)
	if err == nil {
		// Padding may accidentally verify; the text must still differ.
		req.NotEqual("secret message", plain)
	}
}

func TestNewRejectsBadKeys(t *testing.T) {
	req := require.New(t)
	for _, key := range []string{"", "short", "seventeen bytes!!"} {
		_, err := New(key)
		req.ErrorIs(err, ErrBadKey)
	}
}
