package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"

	"github.com/quantumsafe-io/qse-backend/compliance"
	"github.com/quantumsafe-io/qse-backend/interfaces"
)

// Secret path segments under the data path. Blobs are stored base64-encoded
// since KV v2 payloads are JSON.
const (
	vaultBlobSegment    = "blobs"
	vaultSidecarSegment = "sidecars"
)

// VaultStore implements a document store on HashiCorp Vault's KV v2 secrets
// engine. Each document becomes two secrets: the base64 blob and the JSON
// sidecar. Token auth comes from the client's environment (VAULT_TOKEN) or
// an explicit token.
type VaultStore struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI string
}

// NewVaultStore creates a new Vault document store.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - mountPath: KV v2 mount path (e.g. "secret")
//   - dataPath: path within the mount (e.g. "qse")
//   - token: explicit auth token; empty means the environment's token
//   - log: structured logger for operational insights
func NewVaultStore(address, mountPath, dataPath, token string, log *slog.Logger) (*VaultStore, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	mountPath = strings.TrimSuffix(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultStore{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", strings.TrimPrefix(strings.TrimPrefix(address, "https://"), "http://"), mountPath, dataPath),
	}, nil
}

// SaveDocument writes the blob secret and then the sidecar secret.
func (s *VaultStore) SaveDocument(ctx context.Context, rec interfaces.DocumentRecord) error {
	start := time.Now()

	blob := base64.StdEncoding.EncodeToString(rec.Ciphertext)
	if err := s.writeContent(ctx, s.blobSecretPath(rec.DocumentID), blob); err != nil {
		return fmt.Errorf("failed to write blob to Vault: %w", err)
	}

	sidecar, err := json.Marshal(rec.Info())
	if err != nil {
		return fmt.Errorf("failed to encode sidecar: %w", err)
	}
	if err := s.writeContent(ctx, s.sidecarSecretPath(rec.DocumentID), string(sidecar)); err != nil {
		return fmt.Errorf("failed to write sidecar to Vault: %w", err)
	}

	s.log.Debug("Stored document in Vault",
		slog.String("documentID", rec.DocumentID.String()),
		slog.Int("size", len(rec.Ciphertext)),
		slog.Duration("duration", time.Since(start)))

	return nil
}

// LoadBlob retrieves and decodes the blob secret.
func (s *VaultStore) LoadBlob(ctx context.Context, id interfaces.DocumentID) ([]byte, error) {
	content, err := s.readContent(ctx, s.blobSecretPath(id))
	if err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return nil, fmt.Errorf("invalid blob encoding in Vault: %w", err)
	}

	return data, nil
}

// LoadInfo retrieves and decodes the sidecar secret.
func (s *VaultStore) LoadInfo(ctx context.Context, id interfaces.DocumentID) (interfaces.DocumentInfo, error) {
	content, err := s.readContent(ctx, s.sidecarSecretPath(id))
	if err != nil {
		return interfaces.DocumentInfo{}, err
	}

	var info interfaces.DocumentInfo
	if err := json.Unmarshal([]byte(content), &info); err != nil {
		return interfaces.DocumentInfo{}, fmt.Errorf("failed to decode sidecar: %w", err)
	}

	return info, nil
}

// CountTotal counts sidecar secrets.
func (s *VaultStore) CountTotal(ctx context.Context) (int, error) {
	keys, err := s.listSidecars(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// CountFullyCompliant reads every sidecar and counts fully compliant
// snapshots.
func (s *VaultStore) CountFullyCompliant(ctx context.Context) (int, error) {
	keys, err := s.listSidecars(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, key := range keys {
		content, err := s.readContent(ctx, fmt.Sprintf("%s/data/%s/%s/%s", s.mountPath, s.dataPath, vaultSidecarSegment, key))
		if err != nil {
			s.log.Warn("Skipping unreadable sidecar", slog.String("key", key), "err", err)
			continue
		}

		var info interfaces.DocumentInfo
		if err := json.Unmarshal([]byte(content), &info); err != nil {
			s.log.Warn("Skipping malformed sidecar", slog.String("key", key), "err", err)
			continue
		}

		if compliance.FullyCompliant(info.Compliance) {
			count++
		}
	}

	return count, nil
}

// Available checks that Vault is initialized and unsealed.
func (s *VaultStore) Available(ctx context.Context) bool {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := s.client.Sys().HealthWithContext(healthCtx)
	if err != nil {
		s.log.Debug("Vault health check failed", "err", err)
		return false
	}

	if !health.Initialized || health.Sealed {
		s.log.Debug("Vault is not available",
			slog.Bool("initialized", health.Initialized),
			slog.Bool("sealed", health.Sealed))
		return false
	}

	return true
}

// Name returns a unique identifier for this store.
func (s *VaultStore) Name() string {
	return fmt.Sprintf("vault-%s-%s", s.mountPath, s.dataPath)
}

// LocationURI returns the URI that identifies this store.
func (s *VaultStore) LocationURI() string {
	return s.locationURI
}

// writeContent stores a single content string at a KV v2 data path.
func (s *VaultStore) writeContent(ctx context.Context, path, content string) error {
	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"content": content,
		},
	}

	if _, err := s.client.Logical().WriteWithContext(ctx, path, secretData); err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	return nil
}

// readContent fetches a single content string from a KV v2 data path.
// Returns ErrDocumentNotFound when the secret doesn't exist.
func (s *VaultStore) readContent(ctx context.Context, path string) (string, error) {
	secret, err := s.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	if secret == nil || secret.Data == nil {
		return "", interfaces.ErrDocumentNotFound
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("invalid data format in Vault response")
	}

	content, ok := data["content"].(string)
	if !ok {
		return "", fmt.Errorf("content key not found in Vault data")
	}

	return content, nil
}

func (s *VaultStore) listSidecars(ctx context.Context) ([]string, error) {
	listPath := fmt.Sprintf("%s/metadata/%s/%s", s.mountPath, s.dataPath, vaultSidecarSegment)

	secret, err := s.client.Logical().ListWithContext(ctx, listPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, nil
	}

	raw, ok := secret.Data["keys"].([]interface{})
	if !ok {
		return nil, nil
	}

	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		if name, ok := k.(string); ok {
			keys = append(keys, name)
		}
	}
	return keys, nil
}

func (s *VaultStore) blobSecretPath(id interfaces.DocumentID) string {
	return fmt.Sprintf("%s/data/%s/%s/%s", s.mountPath, s.dataPath, vaultBlobSegment, id.String())
}

func (s *VaultStore) sidecarSecretPath(id interfaces.DocumentID) string {
	return fmt.Sprintf("%s/data/%s/%s/%s", s.mountPath, s.dataPath, vaultSidecarSegment, id.String())
}
