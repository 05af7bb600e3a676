package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(DocumentsEncrypted)
	DocumentsEncrypted.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(DocumentsEncrypted))
}

func TestScrapeEndpoint(t *testing.T) {
	srv, err := New("qse_backend", "127.0.0.1:0")
	require.NoError(t, err)

	DocumentsEncrypted.Inc()
	DecryptRequests.Inc()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "qse_documents_encrypted_total")
	assert.Contains(t, string(body), "qse_decrypt_requests_total")
	assert.Contains(t, string(body), "go_goroutines")
}
