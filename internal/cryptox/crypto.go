// Package cryptox implements password-based key derivation and authenticated
// encryption of JSON-serializable records.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/dmitrijs2005/timekeeper/internal/common"
)

const (
	// SaltSize is the salt length in bytes (128 bits).
	SaltSize = 16
	// DefaultIterations is the argon2id time cost used when none is configured.
	DefaultIterations uint32 = 3
	// DefaultKeyBits selects AES-256.
	DefaultKeyBits = 256

	argonMemoryKiB = 64 * 1024
	argonThreads   = 4
	nonceSize      = 12
)

var (
	// ErrDecryption is returned when a token cannot be decrypted with the
	// given key: wrong key, corrupt or truncated token, or a plaintext that
	// is not well-formed JSON.
	ErrDecryption = errors.New("decryption failed")

	ErrInvalidKeySize    = errors.New("key size must be 128, 192 or 256 bits")
	ErrInvalidIterations = errors.New("iterations must be at least 1")
)

// DeriveKey stretches password with salt using argon2id. The same inputs always
// produce the same key; iterations is the argon2 time cost.
func DeriveKey(password, salt []byte, iterations uint32, keyBits int) ([]byte, error) {
	if iterations < 1 {
		return nil, ErrInvalidIterations
	}
	switch keyBits {
	case 128, 192, 256:
	default:
		return nil, ErrInvalidKeySize
	}
	return argon2.IDKey(password, salt, iterations, argonMemoryKiB, argonThreads, uint32(keyBits/8)), nil
}

// GenerateSalt returns SaltSize random bytes, hex encoded.
func GenerateSalt() (string, error) {
	s, err := common.MakeRandHexString(SaltSize)
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return s, nil
}

// Encrypt serializes doc to JSON and seals it with AES-GCM under key.
//
// The key must be 16, 24 or 32 bytes. A fresh 12-byte nonce is generated for
// each call and prepended to the ciphertext; the result is base64 (std
// encoding) so it can be stored as text.
//
// Example:
//
//	token, err := cryptox.Encrypt(models.Tag{Name: "coding"}, key)
//	if err != nil {
//	    return err
//	}
//	var tag models.Tag
//	err = cryptox.Decrypt(token, key, &tag)
func Encrypt(doc any, key []byte) (string, error) {
	plaintext, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	nonce := common.GenerateRandByteArray(nonceSize)

	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a token produced by Encrypt and unmarshals the plaintext into v.
// Every failure is reported as ErrDecryption; the plaintext is only accepted
// when it parses as JSON.
func Decrypt(token string, key []byte, v any) error {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return fmt.Errorf("%w: malformed token: %w", ErrDecryption, err)
	}
	if len(raw) < nonceSize {
		return fmt.Errorf("%w: token too short", ErrDecryption)
	}

	aead, err := newAEAD(key)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecryption, err)
	}

	plaintext, err := aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecryption, err)
	}

	if !json.Valid(plaintext) {
		return fmt.Errorf("%w: plaintext is not valid JSON", ErrDecryption)
	}
	if err := json.Unmarshal(plaintext, v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecryption, err)
	}
	return nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
