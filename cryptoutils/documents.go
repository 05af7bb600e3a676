package cryptoutils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// AES-256-GCM parameters for document encryption.
const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32

	// NonceSize is the standard GCM nonce length in bytes.
	NonceSize = 12

	// TagSize is the GCM authentication tag length, appended to ciphertext.
	TagSize = 16
)

// Algorithm labels advertised by the service. Kyber-768 is a conceptual
// label only: the service performs no key encapsulation anywhere.
const (
	// AlgorithmLabel names the advertised scheme in health responses.
	AlgorithmLabel = "Kyber-768 + AES-256-GCM"

	// KEMLabel is reported for the key-encapsulation slot of the status
	// endpoint.
	KEMLabel = "Kyber-768 (conceptual)"

	// SymmetricLabel names the cipher actually applied to documents.
	SymmetricLabel = "AES-256-GCM"

	// StoredAlgorithmLabel is recorded in the documents table's
	// encryption_algorithm column.
	StoredAlgorithmLabel = "Kyber768+AES256-GCM"
)

var (
	// ErrInvalidKeySize is returned when a key is not exactly KeySize bytes.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrInvalidNonceSize is returned when a nonce is not exactly NonceSize bytes.
	ErrInvalidNonceSize = errors.New("invalid nonce size")

	// ErrDecryptionFailed is returned when the authentication tag does not
	// verify: tampered ciphertext, wrong key, or wrong nonce.
	ErrDecryptionFailed = errors.New("decryption failed")
)

// GenerateDocumentKey returns a fresh random AES-256 key.
func GenerateDocumentKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// EncryptDocument encrypts plaintext with AES-256-GCM under a fresh random
// 12-byte nonce, generated per call. The returned ciphertext carries the
// authentication tag appended per standard AEAD convention.
func EncryptDocument(plaintext, key []byte) (nonce, ciphertext []byte, err error) {
	if len(key) != KeySize {
		return nil, nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKeySize, KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce = make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext = aesGCM.Seal(nil, nonce, plaintext, nil)

	return nonce, ciphertext, nil
}

// DecryptDocument reverses EncryptDocument. It returns ErrDecryptionFailed
// when the tag does not verify; it never returns altered plaintext.
func DecryptDocument(nonce, ciphertext, key []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKeySize, KeySize, len(key))
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidNonceSize, NonceSize, len(nonce))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	return plaintext, nil
}
