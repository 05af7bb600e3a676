package api

import (
	"github.com/quantumsafe-io/qse-backend/interfaces"
)

// ServiceName is the identity reported by the status endpoint.
const ServiceName = "Quantum-Safe Encryption Backend"

// ServiceVersion is the external contract version, independent of the
// build version.
const ServiceVersion = "2.0.0"

// CryptoDetails describes the cipher stack and its current state as
// reported by the health endpoint.
type CryptoDetails struct {
	// Algorithm is the encryption scheme label.
	Algorithm string `json:"algorithm"`

	// Status is "ready", or "error: <cause>" when the cipher self-test failed.
	Status string `json:"status"`
}

// HealthResponse is returned by GET /api/v1/health. The endpoint always
// answers 200; degradation is expressed in the body.
type HealthResponse struct {
	// Status is "operational", or "degraded" when the cipher is unavailable.
	Status string `json:"status"`

	// CryptographyAvailable reports whether encrypt and decrypt can serve.
	CryptographyAvailable bool `json:"cryptography_available"`

	// DatabaseAvailable reports whether a relational backend is configured
	// and reachable right now.
	DatabaseAvailable bool `json:"database_available"`

	// CryptoDetails carries the algorithm label and cipher state.
	CryptoDetails CryptoDetails `json:"crypto_details"`

	// Timestamp is the server time of the check, RFC 3339.
	Timestamp string `json:"timestamp"`
}

// Algorithms names the cryptographic schemes in use.
type Algorithms struct {
	KeyEncapsulation    string `json:"key_encapsulation"`
	SymmetricEncryption string `json:"symmetric_encryption"`
}

// StatusResponse is returned by GET /api/v1/status: static service
// identity plus availability flags.
type StatusResponse struct {
	Service               string `json:"service"`
	Version               string `json:"version"`
	CryptographyAvailable bool   `json:"cryptography_available"`
	DatabaseAvailable     bool   `json:"database_available"`

	// Error is the cipher failure cause, null while the cipher is healthy.
	Error *string `json:"error"`

	Algorithms Algorithms `json:"algorithms"`

	// Compliance lists the marketed compliance labels. These are distinct
	// from the nine framework keys tracked per document.
	Compliance []string `json:"compliance"`
}

// ComplianceSummaryResponse is returned by GET /api/v1/compliance/summary.
type ComplianceSummaryResponse struct {
	CryptographyAvailable bool `json:"cryptography_available"`
	DatabaseAvailable     bool `json:"database_available"`

	// TotalDocuments counts stored documents.
	TotalDocuments int `json:"total_documents"`

	// FullyCompliant counts documents compliant with every framework.
	FullyCompliant int `json:"fully_compliant"`

	// Frameworks is the snapshot a document encrypted right now would get.
	Frameworks map[string]bool `json:"frameworks"`
}

// EncryptResponse is returned by POST /api/v1/encrypt after the document
// has been encrypted and persisted.
type EncryptResponse struct {
	Status      string `json:"status"`
	DocumentID  string `json:"document_id"`
	DownloadURL string `json:"download_url"`

	// Filename is the original upload name.
	Filename string `json:"filename"`

	// SizeOriginal is the plaintext size in bytes.
	SizeOriginal int64 `json:"size_original"`

	Timestamp        string          `json:"timestamp"`
	ComplianceStatus map[string]bool `json:"compliance_status"`

	// DatabaseStored reports whether the metadata went to the relational
	// backend rather than a sidecar.
	DatabaseStored bool `json:"database_stored"`
}

// DecryptRequest is the body of POST /api/v1/decrypt. All three fields are
// base64; the caller obtained nonce and key from the document info endpoint
// and the ciphertext from the download endpoint.
type DecryptRequest struct {
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
	Key        string `json:"key"`
}

// DecryptResponse is returned by POST /api/v1/decrypt.
type DecryptResponse struct {
	Status        string `json:"status"`
	SizeDecrypted int    `json:"size_decrypted"`

	// Plaintext is the recovered document, base64.
	Plaintext string `json:"plaintext"`

	Timestamp string `json:"timestamp"`
}

// AuditTrailResponse is returned by GET /api/v1/audit-trail.
type AuditTrailResponse struct {
	Entries []interfaces.AuditRecord `json:"entries"`

	// Message explains an empty trail when no relational backend is
	// configured.
	Message string `json:"message,omitempty"`
}

// RootResponse is the banner served at GET /.
type RootResponse struct {
	Message  string `json:"message"`
	Health   string `json:"health"`
	Database string `json:"database"`
}

// ErrorResponse is the uniform error body. Type is set on internal errors
// only, naming the failure kind.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Type   string `json:"type,omitempty"`
}

// EncryptionProvider is the client-side interface to the document
// encryption service.
type EncryptionProvider interface {
	// Encrypt uploads a document for encryption and storage.
	Encrypt(filename string, content []byte) (*EncryptResponse, error)

	// Download fetches the stored ciphertext for a document.
	Download(documentID string) ([]byte, error)

	// Info fetches the recovery metadata for a document.
	Info(documentID string) (*interfaces.DocumentInfo, error)

	// Decrypt asks the service to decrypt previously downloaded ciphertext.
	Decrypt(req DecryptRequest) (*DecryptResponse, error)
}
