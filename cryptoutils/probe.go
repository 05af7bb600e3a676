package cryptoutils

import (
	"bytes"
	"fmt"
)

// Status reports whether the cipher passed its startup self-test. It is
// computed once during process startup and passed by value into every
// component that needs it; there is no package-level availability flag.
type Status struct {
	// Available is true when the self-test round trip succeeded. All
	// encrypt/decrypt paths refuse to run while false.
	Available bool

	// Detail is "ready", or "error: <cause>" when unavailable. Reported
	// verbatim by the health endpoint.
	Detail string
}

// Unavailable builds a failed status from an error. Used by tests and by
// startup code when the probe itself cannot run.
func Unavailable(err error) Status {
	return Status{Available: false, Detail: fmt.Sprintf("error: %v", err)}
}

// Probe runs one encrypt/decrypt round trip on a fixed message and reports
// the result. Run once at startup; the returned Status is read-only
// afterwards.
func Probe() Status {
	key, err := GenerateDocumentKey()
	if err != nil {
		return Unavailable(err)
	}

	message := []byte("cipher self-test")
	nonce, ciphertext, err := EncryptDocument(message, key)
	if err != nil {
		return Unavailable(err)
	}

	plaintext, err := DecryptDocument(nonce, ciphertext, key)
	if err != nil {
		return Unavailable(err)
	}
	if !bytes.Equal(plaintext, message) {
		return Unavailable(fmt.Errorf("self-test round trip mismatch"))
	}

	return Status{Available: true, Detail: "ready"}
}
