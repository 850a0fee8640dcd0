// Command genkey prints fresh key material for the server's .env:
// a JWT signing secret and an AES message key.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log"
)

func main() {
	secret := make([]byte, 48)
	if _, err := rand.Read(secret); err != nil {
		log.Fatalf("failed to generate secret: %v", err)
	}

	key := make([]byte, 16)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate key: %v", err)
	}

	// 16 random bytes hex-encode to a 32-character string, a valid
	// AES-256 key.
	fmt.Printf("JWT_SECRET=%s\n", base64.RawStdEncoding.EncodeToString(secret))
	fmt.Printf("MESSAGE_KEY=%s\n", hex.EncodeToString(key))
}
