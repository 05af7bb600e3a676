package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/quantumsafe-io/qse-backend/compliance"
	"github.com/quantumsafe-io/qse-backend/interfaces"
)

// On-disk layout shared by the file store and the relational store's blob
// directory.
const (
	// BlobDirName holds one ciphertext file per document.
	BlobDirName = "encrypted_documents"

	// MetaDirName holds one JSON sidecar per document (file store only).
	MetaDirName = "document_metadata"

	// BlobExtension is the ciphertext file extension, also used for
	// download attachment names.
	BlobExtension = ".qse"

	sidecarExtension = ".json"
)

// FileStore implements a document store on the local file system: one
// binary blob per document plus one JSON sidecar holding the same metadata
// object the info endpoint returns. There is no uniqueness check; saving an
// existing identifier silently overwrites, and there is no delete path.
type FileStore struct {
	baseDir     string
	blobDir     string
	metaDir     string
	log         *slog.Logger
	locationURI string
}

// NewFileStore creates a file-backed document store rooted at baseDir,
// creating the blob and sidecar subdirectories if needed.
func NewFileStore(baseDir string, log *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	blobDir := filepath.Join(baseDir, BlobDirName)
	metaDir := filepath.Join(baseDir, MetaDirName)

	if err := os.MkdirAll(blobDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}

	if err := os.MkdirAll(metaDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create metadata directory: %w", err)
	}

	return &FileStore{
		baseDir:     baseDir,
		blobDir:     blobDir,
		metaDir:     metaDir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// SaveDocument writes the ciphertext blob and then the JSON sidecar.
// A crash between the two writes leaves a blob without metadata; the
// store makes no atomicity promise across the pair.
func (s *FileStore) SaveDocument(ctx context.Context, rec interfaces.DocumentRecord) error {
	blobPath := s.blobPath(rec.DocumentID)
	if err := os.WriteFile(blobPath, rec.Ciphertext, 0644); err != nil {
		return fmt.Errorf("failed to write blob: %w", err)
	}

	sidecar, err := json.Marshal(rec.Info())
	if err != nil {
		return fmt.Errorf("failed to encode sidecar: %w", err)
	}

	if err := os.WriteFile(s.sidecarPath(rec.DocumentID), sidecar, 0644); err != nil {
		return fmt.Errorf("failed to write sidecar: %w", err)
	}

	s.log.Debug("Stored document",
		slog.String("documentID", rec.DocumentID.String()),
		slog.String("path", blobPath),
		slog.Int("size", len(rec.Ciphertext)))

	return nil
}

// LoadBlob retrieves the ciphertext by document identifier.
// Returns ErrDocumentNotFound if the blob file doesn't exist.
func (s *FileStore) LoadBlob(ctx context.Context, id interfaces.DocumentID) ([]byte, error) {
	blobPath := s.blobPath(id)

	if _, err := os.Stat(blobPath); os.IsNotExist(err) {
		return nil, interfaces.ErrDocumentNotFound
	}

	data, err := os.ReadFile(blobPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}

	s.log.Debug("Fetched document blob",
		slog.String("documentID", id.String()),
		slog.Int("size", len(data)))

	return data, nil
}

// LoadInfo retrieves the sidecar metadata by document identifier.
// Returns ErrDocumentNotFound if the sidecar doesn't exist.
func (s *FileStore) LoadInfo(ctx context.Context, id interfaces.DocumentID) (interfaces.DocumentInfo, error) {
	data, err := os.ReadFile(s.sidecarPath(id))
	if os.IsNotExist(err) {
		return interfaces.DocumentInfo{}, interfaces.ErrDocumentNotFound
	} else if err != nil {
		return interfaces.DocumentInfo{}, fmt.Errorf("failed to read sidecar: %w", err)
	}

	var info interfaces.DocumentInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return interfaces.DocumentInfo{}, fmt.Errorf("failed to decode sidecar: %w", err)
	}

	return info, nil
}

// CountTotal counts stored documents by their sidecars.
func (s *FileStore) CountTotal(ctx context.Context) (int, error) {
	sidecars, err := filepath.Glob(filepath.Join(s.metaDir, "*"+sidecarExtension))
	if err != nil {
		return 0, fmt.Errorf("failed to list sidecars: %w", err)
	}
	return len(sidecars), nil
}

// CountFullyCompliant counts documents whose frozen snapshot is compliant
// for every recognized framework. Sidecars that cannot be read are skipped.
func (s *FileStore) CountFullyCompliant(ctx context.Context) (int, error) {
	sidecars, err := filepath.Glob(filepath.Join(s.metaDir, "*"+sidecarExtension))
	if err != nil {
		return 0, fmt.Errorf("failed to list sidecars: %w", err)
	}

	count := 0
	for _, path := range sidecars {
		data, err := os.ReadFile(path)
		if err != nil {
			s.log.Warn("Skipping unreadable sidecar", slog.String("path", path), "err", err)
			continue
		}

		var info interfaces.DocumentInfo
		if err := json.Unmarshal(data, &info); err != nil {
			s.log.Warn("Skipping malformed sidecar", slog.String("path", path), "err", err)
			continue
		}

		if compliance.FullyCompliant(info.Compliance) {
			count++
		}
	}

	return count, nil
}

// Available checks if the base directory still exists.
func (s *FileStore) Available(ctx context.Context) bool {
	_, err := os.Stat(s.baseDir)
	if err != nil {
		s.log.Debug("File store unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this store.
func (s *FileStore) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(s.baseDir))
}

// LocationURI returns the URI that identifies this store.
func (s *FileStore) LocationURI() string {
	return s.locationURI
}

func (s *FileStore) blobPath(id interfaces.DocumentID) string {
	return filepath.Join(s.blobDir, id.String()+BlobExtension)
}

func (s *FileStore) sidecarPath(id interfaces.DocumentID) string {
	return filepath.Join(s.metaDir, id.String()+sidecarExtension)
}
