package clients

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumsafe-io/qse-backend/api"
	"github.com/quantumsafe-io/qse-backend/interfaces"
)

func TestDocumentClient_Encrypt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/encrypt", r.URL.Path)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "report.pdf", header.Filename)

		json.NewEncoder(w).Encode(api.EncryptResponse{
			Status:     "success",
			DocumentID: "0123456789abcdef0123456789abcdef",
			Filename:   header.Filename,
		})
	}))
	defer srv.Close()

	client := NewDocumentClient(srv.URL)
	resp, err := client.Encrypt("report.pdf", []byte("secret content"))
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", resp.DocumentID)
}

func TestDocumentClient_ErrorBodySurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(api.ErrorResponse{Detail: "Document not found"})
	}))
	defer srv.Close()

	client := NewDocumentClient(srv.URL)

	_, err := client.Download("0123456789abcdef0123456789abcdef")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "Document not found")
}

func TestDocumentClient_Recover(t *testing.T) {
	const docID = "0123456789abcdef0123456789abcdef"
	ciphertext := []byte("opaque-ciphertext")
	plaintext := []byte("the original document")

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/document/"+docID+"/info", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(interfaces.DocumentInfo{
			DocumentID: docID,
			Filename:   "report.pdf",
			Nonce:      base64.StdEncoding.EncodeToString([]byte("0123456789ab")),
			KeyBackup:  base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef")),
		})
	})
	mux.HandleFunc("/api/v1/document/"+docID, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(ciphertext)
	})
	mux.HandleFunc("/api/v1/decrypt", func(w http.ResponseWriter, r *http.Request) {
		var req api.DecryptRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// The client must hand back exactly what it downloaded.
		sent, err := base64.StdEncoding.DecodeString(req.Ciphertext)
		require.NoError(t, err)
		assert.Equal(t, ciphertext, sent)
		assert.NotEmpty(t, req.Nonce)
		assert.NotEmpty(t, req.Key)

		json.NewEncoder(w).Encode(api.DecryptResponse{
			Status:        "success",
			SizeDecrypted: len(plaintext),
			Plaintext:     base64.StdEncoding.EncodeToString(plaintext),
		})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewDocumentClient(srv.URL)
	recovered, err := client.Recover(docID)
	require.NoError(t, err)
	assert.Equal(t, plaintext, recovered)
}
