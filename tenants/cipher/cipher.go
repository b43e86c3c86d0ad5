// Package cipher provides reversible encryption for per-tenant datastore
// passwords. It uses AES-256-CBC with a random IV per call and emits blobs
// of the form hex(iv) + ":" + hex(ciphertext).
//
// There is no authentication tag: decrypting with the wrong key either
// fails padding validation or yields garbled output. Tampering is not
// detected, only garbled.
package cipher

import (
	"bytes"
	"crypto/aes"
	cryptocipher "crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/jrsteele09/go-tenant-api/internal/apperrors"
	"github.com/pkg/errors"
)

// KeyLength is the required key size in bytes (AES-256).
const KeyLength = 32

// Cipher encrypts and decrypts credential strings with a fixed 32-byte key.
type Cipher struct {
	key []byte
}

// New creates a Cipher. The key must be exactly 32 bytes.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeyLength {
		return nil, errors.Errorf("encryption key must be exactly %d bytes, got %d", KeyLength, len(key))
	}
	return &Cipher{key: append([]byte(nil), key...)}, nil
}

// Encrypt encrypts plaintext and returns a hex(iv):hex(ciphertext) blob.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", errors.Wrap(err, "cipher.Encrypt NewCipher")
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", errors.Wrap(err, "cipher.Encrypt rand.Read")
	}

	padded := pad([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cryptocipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. A malformed blob (missing delimiter, bad hex,
// wrong IV length, truncated ciphertext) or a key mismatch that breaks
// padding surfaces as a decryption error, never a panic.
func (c *Cipher) Decrypt(blob string) (string, error) {
	ivHex, ciphertextHex, found := strings.Cut(blob, ":")
	if !found {
		return "", apperrors.Decryption("malformed ciphertext blob")
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return "", apperrors.Decryption("malformed ciphertext blob")
	}

	ciphertext, err := hex.DecodeString(ciphertextHex)
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", apperrors.Decryption("malformed ciphertext blob")
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", errors.Wrap(err, "cipher.Decrypt NewCipher")
	}

	plaintext := make([]byte, len(ciphertext))
	cryptocipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := unpad(plaintext, aes.BlockSize)
	if err != nil {
		return "", apperrors.Decryption("decryption failed")
	}
	return string(unpadded), nil
}

// pad applies PKCS#7 padding.
func pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

// unpad strips PKCS#7 padding, rejecting invalid padding bytes.
func unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize {
		return nil, errors.New("invalid padding")
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, errors.New("invalid padding")
		}
	}
	return data[:len(data)-padding], nil
}
