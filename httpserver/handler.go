package httpserver

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/quantumsafe-io/qse-backend/api"
	"github.com/quantumsafe-io/qse-backend/compliance"
	"github.com/quantumsafe-io/qse-backend/cryptoutils"
	"github.com/quantumsafe-io/qse-backend/interfaces"
	"github.com/quantumsafe-io/qse-backend/metrics"
)

const (
	// uploadFieldName is the multipart form field carrying the document.
	uploadFieldName = "file"

	// maxUploadSize is the maximum accepted plaintext size (32MB). The
	// whole upload is buffered in memory before encryption.
	maxUploadSize = 32 * 1024 * 1024

	// auditTrailDefaultLimit is the number of audit entries returned when
	// the limit query parameter is absent.
	auditTrailDefaultLimit = 10
)

// Failure kinds reported in the type field of internal error responses.
const (
	errKindEncryption = "EncryptionError"
	errKindStorage    = "StorageError"
)

// Handler processes HTTP requests for the document encryption service.
// It encrypts uploads with per-document AES-256-GCM keys, persists the
// ciphertext and recovery metadata through the configured store, and
// appends audit events when a relational backend is present.
type Handler struct {
	store          interfaces.DocumentStore
	audit          interfaces.AuditLog
	cryptoStatus   cryptoutils.Status
	databaseBacked bool
	log            *slog.Logger
}

// NewHandler creates a new HTTP request handler with the specified dependencies.
//
// Parameters:
//   - store: Document store persisting ciphertext blobs and recovery metadata
//   - audit: Audit log receiving encrypt and download events
//   - cryptoStatus: Result of the startup cipher self-test, read-only afterwards
//   - databaseBacked: Whether the store persists metadata relationally
//   - log: Structured logger for operational insights
//
// Returns a configured Handler instance.
func NewHandler(store interfaces.DocumentStore, audit interfaces.AuditLog, cryptoStatus cryptoutils.Status, databaseBacked bool, log *slog.Logger) *Handler {
	return &Handler{
		store:          store,
		audit:          audit,
		cryptoStatus:   cryptoStatus,
		databaseBacked: databaseBacked,
		log:            log,
	}
}

// HandleRoot serves the service banner with a pointer to the health endpoint.
//
// URL format: GET /
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	database := "not connected"
	if h.databaseBacked {
		database = "connected"
	}

	h.writeJSON(w, http.StatusOK, api.RootResponse{
		Message:  "Quantum-Safe Backend API v2.0",
		Health:   "/api/v1/health",
		Database: database,
	})
}

// HandleHealth reports component health. The endpoint always answers 200;
// a failed cipher self-test degrades the body, not the status code, so
// load balancers keep routing to an instance that can still serve
// downloads and metadata.
//
// URL format: GET /api/v1/health
//
// Response: JSON containing:
//   - status: "operational", or "degraded" when the cipher is unavailable
//   - cryptography_available: whether encrypt and decrypt can serve
//   - database_available: whether the relational backend is reachable now
//   - crypto_details: algorithm label and cipher self-test state
//   - timestamp: server time, RFC 3339
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "operational"
	if !h.cryptoStatus.Available {
		status = "degraded"
	}

	h.writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:                status,
		CryptographyAvailable: h.cryptoStatus.Available,
		DatabaseAvailable:     h.databaseBacked && h.store.Available(r.Context()),
		CryptoDetails: api.CryptoDetails{
			Algorithm: cryptoutils.AlgorithmLabel,
			Status:    h.cryptoStatus.Detail,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleStatus reports the static service identity, algorithm labels, and
// availability flags.
//
// URL format: GET /api/v1/status
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var cryptoErr *string
	if !h.cryptoStatus.Available {
		cause := strings.TrimPrefix(h.cryptoStatus.Detail, "error: ")
		cryptoErr = &cause
	}

	h.writeJSON(w, http.StatusOK, api.StatusResponse{
		Service:               api.ServiceName,
		Version:               api.ServiceVersion,
		CryptographyAvailable: h.cryptoStatus.Available,
		DatabaseAvailable:     h.databaseBacked,
		Error:                 cryptoErr,
		Algorithms: api.Algorithms{
			KeyEncapsulation:    cryptoutils.KEMLabel,
			SymmetricEncryption: cryptoutils.SymmetricLabel,
		},
		Compliance: compliance.ServiceLabels(),
	})
}

// HandleComplianceSummary aggregates stored-document counts with the
// snapshot a document encrypted right now would receive.
//
// URL format: GET /api/v1/compliance/summary
func (h *Handler) HandleComplianceSummary(w http.ResponseWriter, r *http.Request) {
	total, err := h.store.CountTotal(r.Context())
	if err != nil {
		h.log.Error("Failed to count stored documents", "err", err)
		h.writeInternalError(w, errKindStorage, err)
		return
	}

	fullyCompliant, err := h.store.CountFullyCompliant(r.Context())
	if err != nil {
		h.log.Error("Failed to count compliant documents", "err", err)
		h.writeInternalError(w, errKindStorage, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.ComplianceSummaryResponse{
		CryptographyAvailable: h.cryptoStatus.Available,
		DatabaseAvailable:     h.databaseBacked,
		TotalDocuments:        total,
		FullyCompliant:        fullyCompliant,
		Frameworks:            compliance.Snapshot(h.cryptoStatus.Available),
	})
}

// HandleEncrypt accepts a multipart upload, encrypts it with a fresh
// AES-256-GCM key, and persists the ciphertext together with the recovery
// metadata and the compliance snapshot taken at encryption time. The
// per-document key is escrowed in the metadata so the document stays
// recoverable without a key-management system.
//
// URL format: POST /api/v1/encrypt
// Request body: multipart/form-data with the document in the "file" field
//
// Response: JSON containing:
//   - document_id: opaque handle for the stored document
//   - download_url: absolute URL serving the ciphertext
//   - compliance_status: snapshot frozen onto the document
//   - database_stored: whether metadata went to the relational backend
func (h *Handler) HandleEncrypt(w http.ResponseWriter, r *http.Request) {
	if !h.cryptoStatus.Available {
		h.writeError(w, http.StatusServiceUnavailable, "Encryption service unavailable - cryptography not loaded")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile(uploadFieldName)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Missing file upload")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.log.Error("Failed to read upload", "err", err, "filename", header.Filename)
		h.writeError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	if len(content) == 0 {
		h.writeError(w, http.StatusBadRequest, "Empty file uploaded")
		return
	}

	key, err := cryptoutils.GenerateDocumentKey()
	if err != nil {
		metrics.EncryptionErrors.Inc()
		h.log.Error("Failed to generate document key", "err", err)
		h.writeInternalError(w, errKindEncryption, err)
		return
	}

	nonce, ciphertext, err := cryptoutils.EncryptDocument(content, key)
	if err != nil {
		metrics.EncryptionErrors.Inc()
		h.log.Error("Failed to encrypt document", "err", err, "filename", header.Filename)
		h.writeInternalError(w, errKindEncryption, err)
		return
	}

	id, err := interfaces.NewDocumentID()
	if err != nil {
		metrics.EncryptionErrors.Inc()
		h.log.Error("Failed to generate document id", "err", err)
		h.writeInternalError(w, errKindEncryption, err)
		return
	}

	rec := interfaces.DocumentRecord{
		DocumentID:   id,
		Filename:     header.Filename,
		SizeOriginal: int64(len(content)),
		Ciphertext:   ciphertext,
		Nonce:        nonce,
		KeyBackup:    key,
		Compliance:   compliance.Snapshot(h.cryptoStatus.Available),
		Timestamp:    time.Now().UTC(),
	}

	if err := h.store.SaveDocument(r.Context(), rec); err != nil {
		if errors.Is(err, interfaces.ErrDuplicateDocument) {
			h.writeError(w, http.StatusConflict, "Document id already exists")
			return
		}
		h.log.Error("Failed to persist document", "err", err, "documentID", id.String(), "store", h.store.Name())
		h.writeInternalError(w, errKindStorage, err)
		return
	}

	h.recordAudit(r, interfaces.AuditEvent{
		DocumentID: id,
		Action:     interfaces.AuditActionEncrypt,
		Details:    fmt.Sprintf("Document %s encrypted", header.Filename),
		Status:     interfaces.AuditStatusSuccess,
	})

	metrics.DocumentsEncrypted.Inc()
	h.log.Info("Document encrypted", "documentID", id.String(), "filename", header.Filename, "size", len(content))

	h.writeJSON(w, http.StatusOK, api.EncryptResponse{
		Status:           "success",
		DocumentID:       id.String(),
		DownloadURL:      downloadURL(r, id),
		Filename:         header.Filename,
		SizeOriginal:     rec.SizeOriginal,
		Timestamp:        rec.Timestamp.Format(time.RFC3339),
		ComplianceStatus: rec.Compliance,
		DatabaseStored:   h.databaseBacked,
	})
}

// HandleDownload serves the stored ciphertext blob as a file attachment
// named after the original upload with a .qse suffix.
//
// URL format: GET /api/v1/document/{document_id}
//
// Malformed identifiers are reported as not found, identical to unknown
// ones, so the endpoint leaks nothing about the identifier space.
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := interfaces.ParseDocumentID(r.PathValue("document_id"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, "Document not found")
		return
	}

	blob, err := h.store.LoadBlob(r.Context(), id)
	if err != nil {
		if errors.Is(err, interfaces.ErrDocumentNotFound) {
			h.writeError(w, http.StatusNotFound, "Document not found")
			return
		}
		h.log.Error("Failed to load document blob", "err", err, "documentID", id.String())
		h.writeInternalError(w, errKindStorage, err)
		return
	}

	// The attachment name falls back to the identifier when the metadata
	// cannot be read; the blob itself is still served.
	filename := id.String() + ".bin"
	if info, err := h.store.LoadInfo(r.Context(), id); err == nil && info.Filename != "" {
		filename = info.Filename
	}

	h.recordAudit(r, interfaces.AuditEvent{
		DocumentID: id,
		Action:     interfaces.AuditActionDownload,
		Details:    fmt.Sprintf("Document %s downloaded", filename),
		Status:     interfaces.AuditStatusSuccess,
	})

	metrics.DocumentsDownloaded.Inc()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".qse"))
	w.Header().Set("Content-Length", strconv.Itoa(len(blob)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(blob); err != nil {
		h.log.Error("Failed to write document blob", "err", err, "documentID", id.String())
	}
}

// HandleDocumentInfo returns the recovery metadata for a stored document:
// the base64 nonce, the escrowed key backup, and the compliance snapshot
// frozen at encryption time.
//
// URL format: GET /api/v1/document/{document_id}/info
func (h *Handler) HandleDocumentInfo(w http.ResponseWriter, r *http.Request) {
	id, err := interfaces.ParseDocumentID(r.PathValue("document_id"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, "Document not found")
		return
	}

	info, err := h.store.LoadInfo(r.Context(), id)
	if err != nil {
		if errors.Is(err, interfaces.ErrDocumentNotFound) {
			h.writeError(w, http.StatusNotFound, "Document not found")
			return
		}
		h.log.Error("Failed to load document info", "err", err, "documentID", id.String())
		h.writeInternalError(w, errKindStorage, err)
		return
	}

	h.writeJSON(w, http.StatusOK, info)
}

// HandleDecrypt decrypts caller-supplied ciphertext with the supplied
// nonce and key. The service performs no document lookup here; the
// endpoint exists so recovery tooling can verify escrowed material end
// to end.
//
// URL format: POST /api/v1/decrypt
// Request body: JSON with base64 nonce, ciphertext, and key fields
//
// An authentication failure (tampered ciphertext, wrong key or nonce) is
// answered with 422 and never returns partial plaintext.
func (h *Handler) HandleDecrypt(w http.ResponseWriter, r *http.Request) {
	if !h.cryptoStatus.Available {
		h.writeError(w, http.StatusServiceUnavailable, "Decryption service unavailable - cryptography not loaded")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	var req api.DecryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Nonce == "" || req.Ciphertext == "" || req.Key == "" {
		h.writeError(w, http.StatusBadRequest, "Missing fields")
		return
	}

	nonce, err := base64.StdEncoding.DecodeString(req.Nonce)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid base64 nonce")
		return
	}
	ciphertext, err := base64.StdEncoding.DecodeString(req.Ciphertext)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid base64 ciphertext")
		return
	}
	key, err := base64.StdEncoding.DecodeString(req.Key)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid base64 key")
		return
	}

	metrics.DecryptRequests.Inc()

	plaintext, err := cryptoutils.DecryptDocument(nonce, ciphertext, key)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, api.DecryptResponse{
		Status:        "success",
		SizeDecrypted: len(plaintext),
		Plaintext:     base64.StdEncoding.EncodeToString(plaintext),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleAuditTrail returns recent audit entries, most recent first.
//
// URL format: GET /api/v1/audit-trail?limit=N
//
// Without a relational backend the trail is empty and the response
// carries an explanatory message instead of failing.
func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	if !h.audit.Enabled() {
		h.writeJSON(w, http.StatusOK, api.AuditTrailResponse{
			Entries: []interfaces.AuditRecord{},
			Message: "Database not available",
		})
		return
	}

	limit := auditTrailDefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	entries, err := h.audit.Recent(r.Context(), limit)
	if err != nil {
		h.log.Error("Failed to read audit trail", "err", err)
		h.writeInternalError(w, errKindStorage, err)
		return
	}
	if entries == nil {
		entries = []interfaces.AuditRecord{}
	}

	h.writeJSON(w, http.StatusOK, api.AuditTrailResponse{Entries: entries})
}

// recordAudit appends one audit event with request attribution filled in.
// Failures are logged and counted, never surfaced to the client: the
// operation that produced the event has already succeeded.
func (h *Handler) recordAudit(r *http.Request, event interfaces.AuditEvent) {
	event.SourceAddr = r.RemoteAddr
	event.UserAgent = r.UserAgent()
	if err := h.audit.Record(r.Context(), event); err != nil {
		metrics.AuditWriteFailures.Inc()
		h.log.Error("Failed to record audit event", "err", err, "action", event.Action, "documentID", event.DocumentID.String())
	}
}

// writeJSON encodes v as the response body with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

// writeError sends the uniform error body for request-caused failures.
func (h *Handler) writeError(w http.ResponseWriter, status int, detail string) {
	h.writeJSON(w, status, api.ErrorResponse{Detail: detail})
}

// writeInternalError sends a 500 carrying the failure kind in the type
// field, mirroring the error body shape of every other failure.
func (h *Handler) writeInternalError(w http.ResponseWriter, kind string, err error) {
	h.writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{Detail: err.Error(), Type: kind})
}

// downloadURL builds the absolute ciphertext URL from the request's host,
// so the response works behind whatever name the client used to reach us.
func downloadURL(r *http.Request, id interfaces.DocumentID) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/api/v1/document/%s", scheme, r.Host, id)
}
