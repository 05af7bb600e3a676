package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/quantumsafe-io/qse-backend/compliance"
	"github.com/quantumsafe-io/qse-backend/interfaces"
)

// S3Store implements a document store on Amazon S3 or compatible services.
// Blobs and sidecars mirror the file store's layout as object keys under
// the configured prefix. Like the file store, saving an existing identifier
// silently overwrites.
type S3Store struct {
	client         *s3.S3
	writeClient    *s3.S3
	bucketName     string
	prefix         string
	log            *slog.Logger
	locationURI    string
	hasWriteAccess bool
}

// NewS3Store creates a new S3 document store. If accessKey and secretKey
// are provided, writes use static credentials; otherwise both clients rely
// on the environment's default credential chain.
func NewS3Store(bucketName, prefix, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*S3Store, error) {
	uri := fmt.Sprintf("s3://%s/%s?region=%s", bucketName, prefix, region)
	if endpoint != "" {
		uri += fmt.Sprintf("&endpoint=%s", endpoint)
	}
	if accessKey != "" {
		uri = fmt.Sprintf("s3://%s:***@%s/%s?region=%s", accessKey, bucketName, prefix, region)
		if endpoint != "" {
			uri += fmt.Sprintf("&endpoint=%s", endpoint)
		}
	}

	baseCfg := aws.Config{
		Region: aws.String(region),
	}
	if endpoint != "" {
		baseCfg.Endpoint = aws.String(endpoint)
		baseCfg.S3ForcePathStyle = aws.Bool(true)
	}

	baseSess, err := session.NewSession(&baseCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	readClient := s3.New(baseSess)

	hasWriteAccess := accessKey != "" && secretKey != ""
	writeClient := readClient

	if hasWriteAccess {
		writeCfg := baseCfg.Copy()
		writeCfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")

		writeSess, err := session.NewSession(writeCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS write session: %w", err)
		}

		writeClient = s3.New(writeSess)
	}

	return &S3Store{
		client:         readClient,
		writeClient:    writeClient,
		bucketName:     bucketName,
		prefix:         strings.TrimSuffix(prefix, "/"),
		log:            log,
		locationURI:    uri,
		hasWriteAccess: hasWriteAccess,
	}, nil
}

// SaveDocument uploads the ciphertext blob and then the JSON sidecar.
func (s *S3Store) SaveDocument(ctx context.Context, rec interfaces.DocumentRecord) error {
	blobKey := s.blobKey(rec.DocumentID)
	_, err := s.writeClient.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(blobKey),
		Body:   bytes.NewReader(rec.Ciphertext),
	})
	if err != nil {
		if !s.hasWriteAccess {
			return fmt.Errorf("failed to upload blob to S3 (no write credentials provided): %w", err)
		}
		return fmt.Errorf("failed to upload blob to S3: %w", err)
	}

	sidecar, err := json.Marshal(rec.Info())
	if err != nil {
		return fmt.Errorf("failed to encode sidecar: %w", err)
	}

	_, err = s.writeClient.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(s.sidecarKey(rec.DocumentID)),
		Body:   bytes.NewReader(sidecar),
	})
	if err != nil {
		return fmt.Errorf("failed to upload sidecar to S3: %w", err)
	}

	s.log.Debug("Stored document in S3",
		slog.String("documentID", rec.DocumentID.String()),
		slog.String("bucket", s.bucketName),
		slog.String("key", blobKey),
		slog.Int("size", len(rec.Ciphertext)))

	return nil
}

// LoadBlob retrieves the ciphertext object.
// Returns ErrDocumentNotFound if the object doesn't exist.
func (s *S3Store) LoadBlob(ctx context.Context, id interfaces.DocumentID) ([]byte, error) {
	return s.getObject(ctx, id, s.blobKey(id))
}

// LoadInfo retrieves and decodes the sidecar object.
func (s *S3Store) LoadInfo(ctx context.Context, id interfaces.DocumentID) (interfaces.DocumentInfo, error) {
	data, err := s.getObject(ctx, id, s.sidecarKey(id))
	if err != nil {
		return interfaces.DocumentInfo{}, err
	}

	var info interfaces.DocumentInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return interfaces.DocumentInfo{}, fmt.Errorf("failed to decode sidecar: %w", err)
	}

	return info, nil
}

// CountTotal counts sidecar objects under the metadata prefix.
func (s *S3Store) CountTotal(ctx context.Context) (int, error) {
	count := 0
	err := s.eachSidecarKey(ctx, func(string) error {
		count++
		return nil
	})
	return count, err
}

// CountFullyCompliant fetches every sidecar and counts fully compliant
// snapshots. Linear in document count; acceptable for the report endpoint.
func (s *S3Store) CountFullyCompliant(ctx context.Context) (int, error) {
	start := time.Now()
	count := 0
	err := s.eachSidecarKey(ctx, func(key string) error {
		result, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucketName),
			Key:    aws.String(key),
		})
		if err != nil {
			s.log.Warn("Skipping unreadable sidecar", slog.String("key", key), "err", err)
			return nil
		}
		defer result.Body.Close()

		data, err := io.ReadAll(result.Body)
		if err != nil {
			return nil
		}

		var info interfaces.DocumentInfo
		if err := json.Unmarshal(data, &info); err != nil {
			s.log.Warn("Skipping malformed sidecar", slog.String("key", key), "err", err)
			return nil
		}

		if compliance.FullyCompliant(info.Compliance) {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Debug("Counted fully compliant documents in S3",
		slog.Int("count", count),
		slog.Duration("duration", time.Since(start)))

	return count, nil
}

// Available checks if the bucket is accessible.
func (s *S3Store) Available(ctx context.Context) bool {
	start := time.Now()

	_, err := s.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucketName),
	})
	if err != nil {
		s.log.Warn("S3 store unavailable",
			slog.String("bucket", s.bucketName),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return false
	}

	return true
}

// Name returns a unique identifier for this store.
func (s *S3Store) Name() string {
	return fmt.Sprintf("s3-%s", s.bucketName)
}

// LocationURI returns the URI that identifies this store, secret redacted.
func (s *S3Store) LocationURI() string {
	return s.locationURI
}

func (s *S3Store) getObject(ctx context.Context, id interfaces.DocumentID, key string) ([]byte, error) {
	start := time.Now()

	result, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "404") {
			s.log.Debug("Document not found in S3",
				slog.String("documentID", id.String()),
				slog.String("key", key),
				slog.Duration("duration", time.Since(start)))
			return nil, interfaces.ErrDocumentNotFound
		}

		s.log.Error("Failed to get object from S3",
			slog.String("documentID", id.String()),
			slog.String("bucket", s.bucketName),
			slog.String("key", key),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}

	return data, nil
}

func (s *S3Store) eachSidecarKey(ctx context.Context, fn func(key string) error) error {
	prefix := s.keyFor(MetaDirName, "") + "/"

	var iterErr error
	err := s.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucketName),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			if obj.Key == nil || !strings.HasSuffix(*obj.Key, sidecarExtension) {
				continue
			}
			if iterErr = fn(*obj.Key); iterErr != nil {
				return false
			}
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("failed to list sidecars in S3: %w", err)
	}
	return iterErr
}

func (s *S3Store) blobKey(id interfaces.DocumentID) string {
	return s.keyFor(BlobDirName, id.String()+BlobExtension)
}

func (s *S3Store) sidecarKey(id interfaces.DocumentID) string {
	return s.keyFor(MetaDirName, id.String()+sidecarExtension)
}

func (s *S3Store) keyFor(dir, name string) string {
	if s.prefix == "" {
		return path.Join(dir, name)
	}
	return path.Join(s.prefix, dir, name)
}
