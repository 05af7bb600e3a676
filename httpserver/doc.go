/*
Package httpserver implements the HTTP server for the document encryption
service.

It exposes API endpoints for uploading documents, which are encrypted with
a fresh AES-256-GCM key per document, and for retrieving the stored
ciphertext and the recovery metadata needed to decrypt it again. The
per-document key is escrowed in the metadata, so a document remains
recoverable through the API alone.

# Document Lifecycle

  - A multipart upload is encrypted and persisted as a ciphertext blob plus
    recovery metadata (nonce, key backup, compliance snapshot)
  - The ciphertext can be downloaded as a .qse attachment at any time
  - The info endpoint returns the metadata needed for decryption
  - The decrypt endpoint reverses the encryption for caller-supplied
    ciphertext, nonce, and key, verifying the authentication tag

# API Endpoints

  - GET / - Service banner
  - GET /api/v1/health - Component health, always 200
  - GET /api/v1/status - Service identity and algorithm labels
  - GET /api/v1/compliance/summary - Document counts and framework snapshot
  - POST /api/v1/encrypt - Encrypt and store an uploaded document
  - GET /api/v1/document/{document_id} - Download the ciphertext blob
  - GET /api/v1/document/{document_id}/info - Recovery metadata
  - POST /api/v1/decrypt - Decrypt caller-supplied ciphertext
  - GET /api/v1/audit-trail - Recent audit entries
  - GET /livez - Liveness check
  - GET /readyz - Readiness check, 503 while draining
  - GET /drain - Gracefully mark server as not ready
  - GET /undrain - Mark server as ready

# Error Responses

Every failure is reported as a JSON body with a detail field. Internal
errors additionally carry a type field naming the failure kind. Unknown
and malformed document identifiers both answer 404; decrypt requests that
fail authentication answer 422.

# Audit Trail

Encrypt and download operations append audit events with request
attribution. The trail is durable only with a relational backend; other
configurations serve an empty trail with an explanatory message. Audit
failures never abort the operation that produced them.
*/
package httpserver
