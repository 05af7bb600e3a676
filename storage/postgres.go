package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/quantumsafe-io/qse-backend/compliance"
	"github.com/quantumsafe-io/qse-backend/cryptoutils"
	"github.com/quantumsafe-io/qse-backend/interfaces"
	"github.com/quantumsafe-io/qse-backend/storage/migrations"
)

// pgUniqueViolation is the Postgres error code for unique constraint
// violations, raised on document_id collisions.
const pgUniqueViolation = "23505"

const (
	pgMaxOpenConns   = 10
	pgMaxIdleConns   = 1
	pgStartupTimeout = 30 * time.Second
)

// PostgresStore implements a document store over a relational backend.
// Metadata, compliance rows, and the audit trail live in Postgres; the
// ciphertext blob itself is written to the local blob directory, same
// layout as the file store uses.
type PostgresStore struct {
	db          *sql.DB
	blobDir     string
	log         *slog.Logger
	locationURI string
}

// NewPostgresStore opens the database, verifies connectivity, applies the
// embedded goose migrations, and prepares the blob directory. The DSN is
// the standard postgres:// connection string.
func NewPostgresStore(dsn, blobDir string, log *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(pgMaxOpenConns)
	db.SetMaxIdleConns(pgMaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), pgStartupTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := os.MkdirAll(blobDir, 0755); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}

	return &PostgresStore{
		db:          db,
		blobDir:     blobDir,
		log:         log,
		locationURI: redactDSN(dsn),
	}, nil
}

// SaveDocument writes the blob to disk, then the document row, then one
// compliance row per recognized framework. Statements are not wrapped in a
// transaction; a partial failure can leave a blob or document without
// compliance rows, matching the backend's documented durability contract.
func (s *PostgresStore) SaveDocument(ctx context.Context, rec interfaces.DocumentRecord) error {
	blobPath := s.blobPath(rec.DocumentID)
	if err := os.WriteFile(blobPath, rec.Ciphertext, 0644); err != nil {
		return fmt.Errorf("failed to write blob: %w", err)
	}

	snapshot, err := json.Marshal(rec.Compliance)
	if err != nil {
		return fmt.Errorf("failed to encode compliance snapshot: %w", err)
	}

	info := rec.Info()

	var internalID int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO documents
		    (document_id, filename, file_size, encryption_algorithm,
		     nonce, key_backup, created_at, encrypted_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		rec.DocumentID.String(), rec.Filename, rec.SizeOriginal, cryptoutils.StoredAlgorithmLabel,
		info.Nonce, info.KeyBackup, rec.Timestamp.UTC(), rec.Timestamp.UTC(), string(snapshot),
	).Scan(&internalID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: %s", interfaces.ErrDuplicateDocument, rec.DocumentID)
		}
		return fmt.Errorf("failed to insert document: %w", err)
	}

	for _, framework := range compliance.Frameworks() {
		isCompliant := rec.Compliance[framework]
		score := compliance.ScoreNonCompliant
		findings := compliance.FindingNonCompliant
		if isCompliant {
			score = compliance.ScoreCompliant
			findings = compliance.FindingCompliant
		}

		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO compliance_records
			    (document_id, framework_name, is_compliant, score, findings)
			VALUES ($1, $2, $3, $4, $5)`,
			internalID, framework, isCompliant, score, findings); err != nil {
			return fmt.Errorf("failed to insert compliance record: %w", err)
		}
	}

	s.log.Debug("Stored document",
		slog.String("documentID", rec.DocumentID.String()),
		slog.Int64("internalID", internalID),
		slog.Int("size", len(rec.Ciphertext)))

	return nil
}

// LoadBlob retrieves the ciphertext from the blob directory. Blob presence
// on disk is the existence test, as in the file store.
func (s *PostgresStore) LoadBlob(ctx context.Context, id interfaces.DocumentID) ([]byte, error) {
	blobPath := s.blobPath(id)

	if _, err := os.Stat(blobPath); os.IsNotExist(err) {
		return nil, interfaces.ErrDocumentNotFound
	}

	data, err := os.ReadFile(blobPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}

	return data, nil
}

// LoadInfo retrieves recovery metadata from the documents table, including
// the compliance snapshot frozen into the metadata column.
func (s *PostgresStore) LoadInfo(ctx context.Context, id interfaces.DocumentID) (interfaces.DocumentInfo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT document_id, filename, file_size, nonce, key_backup, created_at, metadata
		FROM documents
		WHERE document_id = $1`, id.String())

	var info interfaces.DocumentInfo
	var nonce, keyBackup, snapshot sql.NullString
	var createdAt sql.NullTime
	if err := row.Scan(&info.DocumentID, &info.Filename, &info.SizeOriginal, &nonce, &keyBackup, &createdAt, &snapshot); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return interfaces.DocumentInfo{}, interfaces.ErrDocumentNotFound
		}
		return interfaces.DocumentInfo{}, fmt.Errorf("failed to query document: %w", err)
	}

	info.Nonce = nonce.String
	info.KeyBackup = keyBackup.String
	if createdAt.Valid {
		info.Timestamp = createdAt.Time.UTC().Format(time.RFC3339)
	}

	info.Compliance = map[string]bool{}
	if snapshot.Valid && snapshot.String != "" {
		if err := json.Unmarshal([]byte(snapshot.String), &info.Compliance); err != nil {
			return interfaces.DocumentInfo{}, fmt.Errorf("failed to decode compliance snapshot: %w", err)
		}
	}

	return info, nil
}

// CountTotal counts documents not marked deleted.
func (s *PostgresStore) CountTotal(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE is_deleted = false`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// CountFullyCompliant counts documents holding a compliant row for every
// recognized framework.
func (s *PostgresStore) CountFullyCompliant(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM (
			SELECT d.id
			FROM documents d
			JOIN compliance_records cr ON d.id = cr.document_id
			WHERE d.is_deleted = false AND cr.is_compliant = true
			GROUP BY d.id
			HAVING COUNT(cr.id) >= $1
		) fully_compliant`, compliance.Count()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count fully compliant documents: %w", err)
	}
	return count, nil
}

// Available checks database connectivity.
func (s *PostgresStore) Available(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.db.PingContext(pingCtx); err != nil {
		s.log.Debug("Postgres store unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this store.
func (s *PostgresStore) Name() string {
	return "postgres"
}

// LocationURI returns the URI that identifies this store, password redacted.
func (s *PostgresStore) LocationURI() string {
	return s.locationURI
}

// AuditLog returns the audit log backed by the same database handle.
func (s *PostgresStore) AuditLog() *PostgresAuditLog {
	return &PostgresAuditLog{db: s.db, log: s.log}
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) blobPath(id interfaces.DocumentID) string {
	return filepath.Join(s.blobDir, id.String()+BlobExtension)
}

func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "postgres://"
	}
	return u.Redacted()
}
