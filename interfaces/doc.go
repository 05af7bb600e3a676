// Package interfaces defines the contracts between the encryption service's
// components, separating interface definitions from implementations.
//
// # Storage Interfaces
//
// DocumentStore: persists encrypted blobs plus recovery metadata, retrievable
// by opaque document identifier, across multiple backend types (file, S3,
// Vault, Postgres).
//
// AuditLog: append-only record of actions taken against documents; durable
// only with the relational backend.
//
// DocumentStoreFactory: creates document stores from location URIs.
//
// # Core Types
//
//   - DocumentID: 32-hex-character random external handle
//   - DocumentRecord: one document's persisted state (ciphertext, nonce, key backup, compliance snapshot)
//   - DocumentInfo: the recovery metadata returned to clients and stored in file sidecars
//   - AuditEvent / AuditRecord: audit trail write and read shapes
//
// Sentinel errors (ErrDocumentNotFound, ErrDuplicateDocument, ...) are
// matched with errors.Is at the HTTP boundary and translated to status codes
// there, never inside backends.
package interfaces
