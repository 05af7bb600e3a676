package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/quantumsafe-io/qse-backend/interfaces"
)

// DefaultVaultDataPath is where documents land when a vault:// URI names only
// the mount.
const DefaultVaultDataPath = "documents"

// StoreFactory creates document stores from URI strings. The same factory can
// produce any supported backend, so deployments switch storage by changing
// configuration alone.
type StoreFactory struct {
	log     *slog.Logger
	blobDir string
}

// NewStoreFactory creates a new factory instance that can create document stores.
func NewStoreFactory(logger *slog.Logger) *StoreFactory {
	return &StoreFactory{
		log:     logger,
		blobDir: BlobDirName,
	}
}

// WithBlobDir creates a new factory whose database-backed stores keep
// ciphertext blobs under dir.
func (sf *StoreFactory) WithBlobDir(dir string) *StoreFactory {
	return &StoreFactory{
		log:     sf.log,
		blobDir: dir,
	}
}

// StoreFor creates a document store from a location URI.
// The URI format should be [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - file:// - Local filesystem storage
//   - s3:// - Amazon S3 or compatible object storage
//   - vault:// - HashiCorp Vault KV v2 secrets engine
//   - postgres:// - PostgreSQL with blobs kept on the local filesystem
//
// Returns an error if the URI is invalid or the scheme is unsupported.
func (sf *StoreFactory) StoreFor(location interfaces.StorageLocation) (interfaces.DocumentStore, error) {
	u, err := url.Parse(string(location))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return sf.createFileStore(u)
	case "s3":
		return sf.createS3Store(u)
	case "vault":
		return sf.createVaultStore(u)
	case "postgres", "postgresql":
		return NewPostgresStore(string(location), sf.blobDir, sf.log)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// createFileStore creates a filesystem document store.
// URI format: file:///absolute/path/ or file://./relative/path/
func (sf *StoreFactory) createFileStore(u *url.URL) (interfaces.DocumentStore, error) {
	sf.log.Debug("Creating file store", slog.String("uri", u.String()))

	// Join host and path so relative URIs like file://./data work.
	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty path in file URI %q", interfaces.ErrInvalidLocationURI, u.String())
	}

	return NewFileStore(path, sf.log)
}

// createS3Store creates an S3 or S3-compatible document store.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/prefix/?region=us-west-2&endpoint=minio.local:9000
func (sf *StoreFactory) createS3Store(u *url.URL) (interfaces.DocumentStore, error) {
	sf.log.Debug("Creating S3 store", slog.String("uri", u.Redacted()))

	bucketName := u.Host
	if bucketName == "" {
		return nil, fmt.Errorf("%w: missing bucket name in S3 URI", interfaces.ErrInvalidLocationURI)
	}
	prefix := strings.Trim(u.Path, "/")

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = "us-east-1"
	}
	endpoint := query.Get("endpoint")

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
	} else {
		sf.log.Debug("No credentials in S3 URI, relying on the environment")
	}

	return NewS3Store(bucketName, prefix, region, endpoint, accessKey, secretKey, sf.log)
}

// createVaultStore creates a HashiCorp Vault document store.
// URI format: vault://host:port/mount/data-path?token=...&tls=disable
// The token query parameter overrides VAULT_TOKEN from the environment.
func (sf *StoreFactory) createVaultStore(u *url.URL) (interfaces.DocumentStore, error) {
	sf.log.Debug("Creating Vault store", slog.String("uri", u.Redacted()))

	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing Vault address", interfaces.ErrInvalidLocationURI)
	}

	query := u.Query()
	scheme := "https"
	if query.Get("tls") == "disable" {
		scheme = "http"
	}
	address := fmt.Sprintf("%s://%s", scheme, u.Host)

	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	if parts[0] == "" {
		return nil, fmt.Errorf("%w: missing KV mount in Vault URI", interfaces.ErrInvalidLocationURI)
	}
	mountPath := parts[0]
	dataPath := DefaultVaultDataPath
	if len(parts) == 2 && parts[1] != "" {
		dataPath = parts[1]
	}

	return NewVaultStore(address, mountPath, dataPath, query.Get("token"), sf.log)
}
