package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quantumsafe-io/qse-backend/interfaces"
)

// PostgresAuditLog appends audit entries to the audit_trail table. Entries
// reference the document's internal row id; events for documents without a
// row are recorded with a null reference.
type PostgresAuditLog struct {
	db  *sql.DB
	log *slog.Logger
}

// NewPostgresAuditLog creates an audit log over an existing database handle.
func NewPostgresAuditLog(db *sql.DB, log *slog.Logger) *PostgresAuditLog {
	return &PostgresAuditLog{db: db, log: log}
}

// Record appends one event. Callers treat failures as non-fatal.
func (l *PostgresAuditLog) Record(ctx context.Context, event interfaces.AuditEvent) error {
	var internalID sql.NullInt64
	err := l.db.QueryRowContext(ctx,
		`SELECT id FROM documents WHERE document_id = $1`, event.DocumentID.String(),
	).Scan(&internalID.Int64)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to resolve document for audit entry: %w", err)
	}
	internalID.Valid = err == nil

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO audit_trail
		    (document_id, action, action_details, ip_address, user_agent, status)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		internalID, event.Action, event.Details, event.SourceAddr, event.UserAgent, event.Status)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	return nil
}

// Recent returns up to limit entries, most recent first, joined with the
// document's filename where the document row still exists.
func (l *PostgresAuditLog) Recent(ctx context.Context, limit int) ([]interfaces.AuditRecord, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT at.action, at.action_details, at.timestamp, at.status, d.filename
		FROM audit_trail at
		LEFT JOIN documents d ON at.document_id = d.id
		ORDER BY at.timestamp DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit trail: %w", err)
	}
	defer rows.Close()

	entries := make([]interfaces.AuditRecord, 0, limit)
	for rows.Next() {
		var rec interfaces.AuditRecord
		var details, status, filename sql.NullString
		var ts sql.NullTime
		if err := rows.Scan(&rec.Action, &details, &ts, &status, &filename); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		rec.Details = details.String
		rec.Status = status.String
		rec.Filename = filename.String
		if ts.Valid {
			rec.Timestamp = ts.Time.UTC().Format(time.RFC3339)
		}

		entries = append(entries, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit trail: %w", err)
	}

	return entries, nil
}

// Enabled reports that entries are durably recorded.
func (l *PostgresAuditLog) Enabled() bool {
	return true
}

// NoopAuditLog pairs with non-relational document stores, which have no
// audit trail. Writes are dropped and reads return no entries.
type NoopAuditLog struct {
	log *slog.Logger
}

// NewNoopAuditLog creates the no-op audit log.
func NewNoopAuditLog(log *slog.Logger) *NoopAuditLog {
	return &NoopAuditLog{log: log}
}

// Record drops the event.
func (l *NoopAuditLog) Record(ctx context.Context, event interfaces.AuditEvent) error {
	l.log.Debug("Audit entry dropped, no relational backend",
		slog.String("action", event.Action),
		slog.String("documentID", event.DocumentID.String()))
	return nil
}

// Recent returns no entries.
func (l *NoopAuditLog) Recent(ctx context.Context, limit int) ([]interfaces.AuditRecord, error) {
	return []interfaces.AuditRecord{}, nil
}

// Enabled reports that entries are not recorded.
func (l *NoopAuditLog) Enabled() bool {
	return false
}
