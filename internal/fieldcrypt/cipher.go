// Package fieldcrypt encrypts individual text fields before they reach storage.
//
// Tokens have the form nonce:tag:ciphertext, each part hex encoded, so a token
// can be opened with nothing but the process key.
package fieldcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"ethos/backend/internal/config"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	// ErrInvalidCiphertext is returned for tokens that are malformed or fail authentication.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	// ErrInvalidKey is returned by constructors for a missing or wrong-sized key.
	ErrInvalidKey = errors.New("invalid cipher key")
	// ErrEmptyPlaintext is returned by Encrypt: an empty body would produce an empty
	// ciphertext segment, which Decrypt rejects.
	ErrEmptyPlaintext = errors.New("empty plaintext")
)

const separator = ":"

// Cipher seals and opens field tokens with a fixed key. It is safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
	rand io.Reader
}

// NewFromHex builds a Cipher for alg from a hex-encoded 32-byte key.
func NewFromHex(hexKey, alg string) (*Cipher, error) {
	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return New(key, alg)
}

// New builds a Cipher for alg. An empty alg selects AES-256-GCM.
func New(key []byte, alg string) (*Cipher, error) {
	if len(key) != config.CipherKeySize {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidKey, config.CipherKeySize, len(key))
	}

	var (
		aead cipher.AEAD
		err  error
	)
	switch alg {
	case "", config.CipherAESGCM:
		var block cipher.Block
		block, err = aes.NewCipher(key)
		if err == nil {
			aead, err = cipher.NewGCM(block)
		}
	case config.CipherXChaCha20Poly1305:
		aead, err = chacha20poly1305.NewX(key)
	default:
		return nil, fmt.Errorf("unsupported cipher algorithm %q", alg)
	}
	if err != nil {
		return nil, err
	}

	return &Cipher{aead: aead, rand: rand.Reader}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPlaintext
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}

	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	split := len(sealed) - c.aead.Overhead()
	body, tag := sealed[:split], sealed[split:]

	return hex.EncodeToString(nonce) + separator +
		hex.EncodeToString(tag) + separator +
		hex.EncodeToString(body), nil
}

// Decrypt opens a token produced by Encrypt.
func (c *Cipher) Decrypt(token string) (string, error) {
	parts := strings.Split(token, separator)
	if len(parts) != 3 {
		return "", ErrInvalidCiphertext
	}
	for _, p := range parts {
		if p == "" {
			return "", ErrInvalidCiphertext
		}
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != c.aead.NonceSize() {
		return "", ErrInvalidCiphertext
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != c.aead.Overhead() {
		return "", ErrInvalidCiphertext
	}
	body, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", ErrInvalidCiphertext
	}

	plain, err := c.aead.Open(nil, nonce, append(body, tag...), nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plain), nil
}

// GenerateKeyHex returns a fresh random key suitable for CHAT_CIPHER_KEY.
func GenerateKeyHex() (string, error) {
	key := make([]byte, config.CipherKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}
