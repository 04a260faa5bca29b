package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// Key-derivation parameters for the session blob. Fixed for
// interoperability with existing stored sessions.
const (
	kdfSalt       = "salt"
	kdfIterations = 100000
	keyLength     = 32
	nonceLength   = 12
)

// Crypter encrypts and decrypts the persisted session record.
type Crypter interface {
	Encrypt(plaintext []byte) (string, error)
	Decrypt(ciphertext string) ([]byte, error)
}

// AESGCMCrypter derives a 256-bit AES-GCM key from a passphrase via PBKDF2
// (SHA-256). The derived key is computed once per instance, not cached in a
// package global, so independent instances never share state.
type AESGCMCrypter struct {
	aead cipher.AEAD
}

func NewAESGCMCrypter(passphrase string) (*AESGCMCrypter, error) {
	key := pbkdf2.Key([]byte(passphrase), []byte(kdfSalt), kdfIterations, keyLength, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return &AESGCMCrypter{aead: aead}, nil
}

// Encrypt seals the plaintext under a fresh random 12-byte nonce, prepends
// the nonce to the ciphertext and returns the result base64-encoded.
func (c *AESGCMCrypter) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, nonceLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *AESGCMCrypter) Decrypt(ciphertext string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(raw) < nonceLength {
		return nil, fmt.Errorf("ciphertext shorter than nonce")
	}
	plaintext, err := c.aead.Open(nil, raw[:nonceLength], raw[nonceLength:], nil)
	if err != nil {
		return nil, fmt.Errorf("open ciphertext: %w", err)
	}
	return plaintext, nil
}
