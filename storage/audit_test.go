package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumsafe-io/qse-backend/interfaces"
)

func newMockAuditLog(t *testing.T) (*PostgresAuditLog, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewPostgresAuditLog(db, testLogger()), mock
}

func TestPostgresAuditLog_Record(t *testing.T) {
	log, mock := newMockAuditLog(t)
	ctx := context.Background()

	event := interfaces.AuditEvent{
		DocumentID: testRecord("a1", true).DocumentID,
		Action:     interfaces.AuditActionEncrypt,
		Details:    "Document encrypted: report.pdf",
		SourceAddr: "203.0.113.7",
		UserAgent:  "curl/8.5.0",
		Status:     interfaces.AuditStatusSuccess,
	}

	mock.ExpectQuery(`SELECT id FROM documents WHERE document_id = \$1`).
		WithArgs(event.DocumentID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	mock.ExpectExec(`INSERT INTO audit_trail`).
		WithArgs(int64(7), event.Action, event.Details, event.SourceAddr, event.UserAgent, event.Status).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, log.Record(ctx, event))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAuditLog_RecordUnknownDocument(t *testing.T) {
	log, mock := newMockAuditLog(t)
	ctx := context.Background()

	event := interfaces.AuditEvent{
		DocumentID: testRecord("ff", true).DocumentID,
		Action:     interfaces.AuditActionDownload,
		Details:    "Document downloaded",
		SourceAddr: "203.0.113.7",
		Status:     interfaces.AuditStatusSuccess,
	}

	// No matching document row; the entry keeps a null reference.
	mock.ExpectQuery(`SELECT id FROM documents WHERE document_id = \$1`).
		WithArgs(event.DocumentID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	mock.ExpectExec(`INSERT INTO audit_trail`).
		WithArgs(nil, event.Action, event.Details, event.SourceAddr, event.UserAgent, event.Status).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, log.Record(ctx, event))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAuditLog_RecordInsertError(t *testing.T) {
	log, mock := newMockAuditLog(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT id FROM documents WHERE document_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	mock.ExpectExec(`INSERT INTO audit_trail`).
		WillReturnError(errors.New("connection reset"))

	err := log.Record(ctx, interfaces.AuditEvent{
		DocumentID: testRecord("a1", true).DocumentID,
		Action:     interfaces.AuditActionEncrypt,
		Status:     interfaces.AuditStatusSuccess,
	})
	assert.Error(t, err)
}

func TestPostgresAuditLog_Recent(t *testing.T) {
	log, mock := newMockAuditLog(t)
	ctx := context.Background()

	first := time.Date(2026, 1, 15, 10, 35, 0, 0, time.UTC)
	second := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"action", "action_details", "timestamp", "status", "filename"}).
		AddRow("download", "Document downloaded: report.pdf", first, "success", "report.pdf").
		AddRow("encrypt", "Document encrypted: report.pdf", second, "success", nil)

	mock.ExpectQuery(`FROM audit_trail`).
		WithArgs(10).
		WillReturnRows(rows)

	entries, err := log.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "download", entries[0].Action)
	assert.Equal(t, "2026-01-15T10:35:00Z", entries[0].Timestamp)
	assert.Equal(t, "report.pdf", entries[0].Filename)

	// Entries whose document row is gone keep an empty filename.
	assert.Equal(t, "encrypt", entries[1].Action)
	assert.Empty(t, entries[1].Filename)
}

func TestPostgresAuditLog_RecentQueryError(t *testing.T) {
	log, mock := newMockAuditLog(t)
	ctx := context.Background()

	mock.ExpectQuery(`FROM audit_trail`).
		WillReturnError(errors.New("connection reset"))

	_, err := log.Recent(ctx, 10)
	assert.Error(t, err)
}

func TestNoopAuditLog(t *testing.T) {
	log := NewNoopAuditLog(testLogger())
	ctx := context.Background()

	assert.False(t, log.Enabled())

	err := log.Record(ctx, interfaces.AuditEvent{
		DocumentID: testRecord("a1", true).DocumentID,
		Action:     interfaces.AuditActionEncrypt,
	})
	assert.NoError(t, err)

	entries, err := log.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPostgresStore_AuditLogSharesHandle(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	log := store.AuditLog()
	require.NotNil(t, log)
	assert.True(t, log.Enabled())

	mock.ExpectQuery(`SELECT id FROM documents WHERE document_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectExec(`INSERT INTO audit_trail`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, log.Record(ctx, interfaces.AuditEvent{
		DocumentID: testRecord("a1", true).DocumentID,
		Action:     interfaces.AuditActionEncrypt,
		Status:     interfaces.AuditStatusSuccess,
	}))
	require.NoError(t, mock.ExpectationsWereMet())
}
