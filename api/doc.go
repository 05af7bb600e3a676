/*
Package api defines the wire contract of the document encryption service.

Every request and response body exchanged over HTTP lives here, shared by
the server handlers in httpserver and the client library in clients. The
types mirror the JSON key names of the external contract exactly; handlers
and clients never build response maps by hand.

# Endpoints

The service exposes its API under /api/v1:

  - GET  /health             - service and cipher health, always 200
  - GET  /status             - static service identity
  - GET  /compliance/summary - document counts and framework snapshot
  - POST /encrypt            - multipart upload, encrypt and store
  - GET  /document/{id}      - download ciphertext as an attachment
  - GET  /document/{id}/info - recovery metadata (nonce, key backup)
  - POST /decrypt            - decrypt with client-supplied material
  - GET  /audit-trail        - recent audit entries, relational only

# Errors

Errors use a uniform JSON body with a "detail" message; internal errors add
a "type" naming the failure kind. Not-found and invalid identifiers both
answer 404, duplicate identifiers 409, failed decryption 422, and a missing
cipher 503.
*/
package api
