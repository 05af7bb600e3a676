// Package cryptoutils provides the document encryption primitives for the
// quantum-safe encryption backend.
//
// Documents are encrypted with AES-256-GCM: a fresh random 32-byte key and
// 12-byte nonce per document, authentication tag appended to the ciphertext.
// The advertised "Kyber-768" key encapsulation is a conceptual label only;
// no KEM is implemented or performed anywhere in the service, and the label
// constants in this package are the single source for that claim.
//
// # Key Functions
//
//   - GenerateDocumentKey - fresh random AES-256 key
//   - EncryptDocument - seal plaintext under a fresh nonce
//   - DecryptDocument - open ciphertext, failing closed on tag mismatch
//   - Probe - startup self-test producing a read-only Status
//
// # Availability
//
// Probe runs once at startup. The resulting Status is passed by value into
// the components that gate on cipher availability (service handlers,
// compliance snapshots); nothing in this package holds mutable state.
//
// # Failure Behavior
//
// DecryptDocument returns ErrDecryptionFailed for any tag mismatch, whether
// from tampered ciphertext, a wrong key, or a wrong nonce. Callers cannot
// distinguish the causes, and no partial plaintext is ever returned.
package cryptoutils
