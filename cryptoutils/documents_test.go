package cryptoutils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key, err := GenerateDocumentKey()
	require.NoError(t, err)
	require.Len(t, key, KeySize)

	testCases := []struct {
		name string
		data []byte
	}{
		{
			name: "Simple string",
			data: []byte("hello world"),
		},
		{
			name: "JSON data",
			data: []byte(`{"client":"acme","classification":"confidential"}`),
		},
		{
			name: "Binary data",
			data: []byte{0x00, 0x01, 0x02, 0x03, 0xFF, 0xFE, 0xFD},
		},
		{
			name: "Empty data",
			data: []byte{},
		},
		{
			name: "Long data",
			data: make([]byte, 64*1024),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			nonce, ciphertext, err := EncryptDocument(tc.data, key)
			require.NoError(t, err)
			require.Len(t, nonce, NonceSize)

			// Ciphertext carries the appended tag
			require.Len(t, ciphertext, len(tc.data)+TagSize)

			plaintext, err := DecryptDocument(nonce, ciphertext, key)
			require.NoError(t, err)
			require.True(t, bytes.Equal(tc.data, plaintext))
		})
	}
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	key, err := GenerateDocumentKey()
	require.NoError(t, err)

	nonce, ciphertext, err := EncryptDocument([]byte("sensitive filing"), key)
	require.NoError(t, err)

	// Flipping a single bit anywhere must fail authentication
	for _, pos := range []int{0, len(ciphertext) / 2, len(ciphertext) - 1} {
		tampered := make([]byte, len(ciphertext))
		copy(tampered, ciphertext)
		tampered[pos] ^= 0x01

		plaintext, err := DecryptDocument(nonce, tampered, key)
		require.ErrorIs(t, err, ErrDecryptionFailed, "bit flip at %d must not verify", pos)
		require.Nil(t, plaintext)
	}
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	key, err := GenerateDocumentKey()
	require.NoError(t, err)
	otherKey, err := GenerateDocumentKey()
	require.NoError(t, err)

	nonce, ciphertext, err := EncryptDocument([]byte("sensitive filing"), key)
	require.NoError(t, err)

	plaintext, err := DecryptDocument(nonce, ciphertext, otherKey)
	require.ErrorIs(t, err, ErrDecryptionFailed)
	require.Nil(t, plaintext)
}

func TestKeyAndNonceSizeValidation(t *testing.T) {
	key, err := GenerateDocumentKey()
	require.NoError(t, err)

	_, _, err = EncryptDocument([]byte("data"), key[:16])
	assert.ErrorIs(t, err, ErrInvalidKeySize)

	nonce, ciphertext, err := EncryptDocument([]byte("data"), key)
	require.NoError(t, err)

	_, err = DecryptDocument(nonce, ciphertext, key[:31])
	assert.ErrorIs(t, err, ErrInvalidKeySize)

	_, err = DecryptDocument(nonce[:8], ciphertext, key)
	assert.ErrorIs(t, err, ErrInvalidNonceSize)
}

func TestNonceUniqueAcrossCalls(t *testing.T) {
	key, err := GenerateDocumentKey()
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		nonce, _, err := EncryptDocument([]byte("same plaintext"), key)
		require.NoError(t, err)
		require.False(t, seen[string(nonce)], "nonce reused")
		seen[string(nonce)] = true
	}
}

func TestGeneratedKeysDiffer(t *testing.T) {
	a, err := GenerateDocumentKey()
	require.NoError(t, err)
	b, err := GenerateDocumentKey()
	require.NoError(t, err)
	assert.False(t, bytes.Equal(a, b))
}

func TestProbeReportsReady(t *testing.T) {
	status := Probe()
	assert.True(t, status.Available)
	assert.Equal(t, "ready", status.Detail)
}

func TestUnavailableStatusDetail(t *testing.T) {
	status := Unavailable(assert.AnError)
	assert.False(t, status.Available)
	assert.Contains(t, status.Detail, "error: ")
}
