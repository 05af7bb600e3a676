package interfaces

import (
	"context"
)

// DocumentStore persists encrypted documents and their recovery metadata.
// All backends expose the identical contract; the service layer selects one
// implementation at startup and never branches on the backend afterwards.
type DocumentStore interface {
	// SaveDocument persists the ciphertext blob and metadata in one logical
	// write. Backends with a uniqueness constraint return
	// ErrDuplicateDocument on identifier collision; the file-backed store
	// overwrites silently.
	SaveDocument(ctx context.Context, rec DocumentRecord) error

	// LoadBlob retrieves the raw ciphertext by document identifier.
	// Returns ErrDocumentNotFound if absent.
	LoadBlob(ctx context.Context, id DocumentID) ([]byte, error)

	// LoadInfo retrieves recovery metadata including the key backup and the
	// compliance snapshot frozen at encryption time. Returns
	// ErrDocumentNotFound if absent.
	LoadInfo(ctx context.Context, id DocumentID) (DocumentInfo, error)

	// CountTotal reports the number of stored documents.
	CountTotal(ctx context.Context) (int, error)

	// CountFullyCompliant reports how many documents have a compliant
	// snapshot entry for every recognized framework.
	CountFullyCompliant(ctx context.Context) (int, error)

	// Available checks if the backend is reachable.
	Available(ctx context.Context) bool

	// Name returns identifier for logging.
	Name() string

	// LocationURI returns URI identifying this backend.
	LocationURI() string
}

// AuditLog is an append-only record of actions taken against documents.
// Only the relational backend implements a durable log; other backends pair
// with a no-op log that reports Enabled() == false.
type AuditLog interface {
	// Record appends one event. Failures must not abort the operation that
	// produced the event; callers log and continue.
	Record(ctx context.Context, event AuditEvent) error

	// Recent returns up to limit entries, most recent first.
	Recent(ctx context.Context, limit int) ([]AuditRecord, error)

	// Enabled reports whether entries are durably recorded.
	Enabled() bool
}

// DocumentStoreFactory creates document stores from location URIs.
type DocumentStoreFactory interface {
	// StoreFor creates the backend selected by the URI scheme.
	// Supports file://, s3://, vault://, postgres://
	StoreFor(location StorageLocation) (DocumentStore, error)
}
