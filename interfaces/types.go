package interfaces

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// DocumentIDLength is the length of a document identifier in hex characters.
// Identifiers are 16 random bytes, hex-encoded.
const DocumentIDLength = 32

// DocumentID is the opaque external handle for a stored document. It is
// unrelated to any internal sequential key, so documents cannot be
// enumerated by guessing.
type DocumentID string

// NewDocumentID generates a fresh random document identifier.
func NewDocumentID() (DocumentID, error) {
	raw := make([]byte, DocumentIDLength/2)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate document id: %w", err)
	}
	return DocumentID(hex.EncodeToString(raw)), nil
}

// ParseDocumentID validates an externally supplied identifier. Lookups with
// a malformed identifier behave like lookups of an unknown document, so
// callers may map the error to a not-found response.
func ParseDocumentID(s string) (DocumentID, error) {
	if len(s) != DocumentIDLength {
		return "", fmt.Errorf("%w: expected %d hex characters, got %d", ErrInvalidDocumentID, DocumentIDLength, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDocumentID, err)
	}
	return DocumentID(s), nil
}

// String returns the hex form of the identifier.
func (id DocumentID) String() string {
	return string(id)
}

// DocumentRecord carries everything the service persists for one encrypted
// document. Nonce and KeyBackup are raw bytes; backends apply their own
// encoding (base64 in sidecars and relational columns).
type DocumentRecord struct {
	DocumentID   DocumentID
	Filename     string
	SizeOriginal int64
	Ciphertext   []byte
	Nonce        []byte
	KeyBackup    []byte
	Compliance   map[string]bool
	Timestamp    time.Time
}

// Info derives the client-facing recovery metadata from a record. Backends
// use it to build sidecars and responses so all of them encode identically.
func (rec DocumentRecord) Info() DocumentInfo {
	return DocumentInfo{
		DocumentID:   rec.DocumentID.String(),
		Filename:     rec.Filename,
		SizeOriginal: rec.SizeOriginal,
		Nonce:        base64.StdEncoding.EncodeToString(rec.Nonce),
		KeyBackup:    base64.StdEncoding.EncodeToString(rec.KeyBackup),
		Timestamp:    rec.Timestamp.UTC().Format(time.RFC3339),
		Compliance:   rec.Compliance,
	}
}

// DocumentInfo is the recovery metadata for a stored document as returned
// to clients: nonce and key backup are base64, the timestamp is RFC 3339.
// The JSON encoding of this struct is also the file-backed store's sidecar
// format, so the info endpoint serves sidecars verbatim.
//
// KeyBackup is the document's raw symmetric key in recoverable encoding.
// Returning it is a deliberate escrow decision enabling self-service
// decryption without a key-management system; it trades confidentiality
// at rest for recoverability and is part of the external contract.
type DocumentInfo struct {
	DocumentID   string          `json:"document_id"`
	Filename     string          `json:"filename"`
	SizeOriginal int64           `json:"size_original"`
	Nonce        string          `json:"nonce"`
	KeyBackup    string          `json:"key_backup"`
	Timestamp    string          `json:"timestamp"`
	Compliance   map[string]bool `json:"compliance_status"`
}

// AuditEvent is one action to append to the audit trail.
type AuditEvent struct {
	DocumentID DocumentID
	Action     string
	Details    string
	SourceAddr string
	UserAgent  string
	Status     string
}

// Audit action and status names.
const (
	AuditActionEncrypt  = "encrypt"
	AuditActionDownload = "download"
	AuditStatusSuccess  = "success"
)

// AuditRecord is one audit trail entry as returned to clients, joined with
// the document's filename when the document still exists.
type AuditRecord struct {
	Action    string `json:"action"`
	Details   string `json:"details"`
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
	Filename  string `json:"filename"`
}

// StorageLocation is a URI selecting and configuring a document store
// backend, e.g. file://./data, s3://bucket/prefix?region=us-east-1,
// vault://vault.example.com:8200/secret/qse, postgres://user@host/db.
type StorageLocation string

// String returns the URI string.
func (loc StorageLocation) String() string {
	return string(loc)
}

var (
	// ErrDocumentNotFound is returned when no document exists for the
	// requested identifier.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrInvalidDocumentID is returned for identifiers that are not 32 hex
	// characters. It never matches a stored document.
	ErrInvalidDocumentID = errors.New("invalid document id")

	// ErrDuplicateDocument is returned when persisting a document whose
	// identifier already exists. Only backends with a uniqueness constraint
	// (the relational store) can detect this; the file-backed store
	// silently overwrites.
	ErrDuplicateDocument = errors.New("document id already exists")

	// ErrBackendUnavailable is returned when a document store backend is
	// not reachable.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidLocationURI is returned for malformed or unsupported
	// storage location URIs.
	ErrInvalidLocationURI = errors.New("invalid storage location URI")
)
