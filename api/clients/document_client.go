package clients

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/quantumsafe-io/qse-backend/api"
	"github.com/quantumsafe-io/qse-backend/interfaces"
)

// DocumentClient implements api.EncryptionProvider for HTTP-based
// communication with the encryption service.
type DocumentClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewDocumentClient creates a client for the encryption service.
//
// Parameters:
//   - baseURL: The base URL of the service (e.g., "http://localhost:8000")
//   - timeout: Request timeout duration (optional, default 30 seconds)
//
// Returns:
//   - Configured DocumentClient instance
func NewDocumentClient(baseURL string, timeout ...time.Duration) *DocumentClient {
	clientTimeout := 30 * time.Second
	if len(timeout) > 0 {
		clientTimeout = timeout[0]
	}

	return &DocumentClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: clientTimeout,
		},
	}
}

// Encrypt uploads a document for encryption and storage. The content is
// sent as a multipart form under the "file" field.
func (c *DocumentClient) Encrypt(filename string, content []byte) (*api.EncryptResponse, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/encrypt", c.baseURL)
	req, err := http.NewRequest(http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("encrypt request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("encrypt request failed with code %d: %s", resp.StatusCode, string(body))
	}

	var result api.EncryptResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse encrypt response: %w", err)
	}

	return &result, nil
}

// Download fetches the stored ciphertext for a document.
func (c *DocumentClient) Download(documentID string) ([]byte, error) {
	url := fmt.Sprintf("%s/api/v1/document/%s", c.baseURL, documentID)

	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("download request failed with code %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

// Info fetches the recovery metadata for a document.
func (c *DocumentClient) Info(documentID string) (*interfaces.DocumentInfo, error) {
	url := fmt.Sprintf("%s/api/v1/document/%s/info", c.baseURL, documentID)

	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("info request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("info request failed with code %d: %s", resp.StatusCode, string(body))
	}

	var result interfaces.DocumentInfo
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse info response: %w", err)
	}

	return &result, nil
}

// Decrypt asks the service to decrypt previously downloaded ciphertext.
func (c *DocumentClient) Decrypt(decReq api.DecryptRequest) (*api.DecryptResponse, error) {
	reqJSON, err := json.Marshal(decReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal decrypt request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/decrypt", c.baseURL)
	resp, err := c.httpClient.Post(url, "application/json", bytes.NewReader(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("decrypt request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("decrypt request failed with code %d: %s", resp.StatusCode, string(body))
	}

	var result api.DecryptResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse decrypt response: %w", err)
	}

	return &result, nil
}

// Recover runs the full recovery flow for a document: fetch the metadata,
// download the ciphertext, and have the service decrypt it with the
// escrowed key. Returns the plaintext.
func (c *DocumentClient) Recover(documentID string) ([]byte, error) {
	info, err := c.Info(documentID)
	if err != nil {
		return nil, err
	}

	ciphertext, err := c.Download(documentID)
	if err != nil {
		return nil, err
	}

	decrypted, err := c.Decrypt(api.DecryptRequest{
		Nonce:      info.Nonce,
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		Key:        info.KeyBackup,
	})
	if err != nil {
		return nil, err
	}

	plaintext, err := base64.StdEncoding.DecodeString(decrypted.Plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to decode recovered plaintext: %w", err)
	}

	return plaintext, nil
}

// MockEncryptionProvider implements a mock api.EncryptionProvider for
// testing. The behavior is determined by how the mock is configured.
type MockEncryptionProvider struct {
	mock.Mock
}

func (m *MockEncryptionProvider) Encrypt(filename string, content []byte) (*api.EncryptResponse, error) {
	args := m.Called(filename, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.EncryptResponse), args.Error(1)
}

func (m *MockEncryptionProvider) Download(documentID string) ([]byte, error) {
	args := m.Called(documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockEncryptionProvider) Info(documentID string) (*interfaces.DocumentInfo, error) {
	args := m.Called(documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.DocumentInfo), args.Error(1)
}

func (m *MockEncryptionProvider) Decrypt(req api.DecryptRequest) (*api.DecryptResponse, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.DecryptResponse), args.Error(1)
}
