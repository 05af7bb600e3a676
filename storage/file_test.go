package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumsafe-io/qse-backend/compliance"
	"github.com/quantumsafe-io/qse-backend/interfaces"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testRecord builds a document record with a deterministic identifier.
// seed selects the identifier; available selects the compliance snapshot.
func testRecord(seed string, available bool) interfaces.DocumentRecord {
	return interfaces.DocumentRecord{
		DocumentID:   interfaces.DocumentID(strings.Repeat(seed, interfaces.DocumentIDLength/2)),
		Filename:     "report.pdf",
		SizeOriginal: 2048,
		Ciphertext:   []byte("ciphertext-" + seed),
		Nonce:        []byte("0123456789ab"),
		KeyBackup:    []byte("0123456789abcdef0123456789abcdef"),
		Compliance:   compliance.Snapshot(available),
		Timestamp:    time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC),
	}
}

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)
	return store, dir
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	store, dir := newTestFileStore(t)
	ctx := context.Background()

	rec := testRecord("a1", true)
	require.NoError(t, store.SaveDocument(ctx, rec))

	// Blob and sidecar land in their own subdirectories.
	assert.FileExists(t, filepath.Join(dir, BlobDirName, rec.DocumentID.String()+BlobExtension))
	assert.FileExists(t, filepath.Join(dir, MetaDirName, rec.DocumentID.String()+sidecarExtension))

	blob, err := store.LoadBlob(ctx, rec.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, rec.Ciphertext, blob)

	info, err := store.LoadInfo(ctx, rec.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, rec.Info(), info)
	assert.Equal(t, "report.pdf", info.Filename)
	assert.Equal(t, int64(2048), info.SizeOriginal)
	assert.Equal(t, "2026-01-15T10:30:00Z", info.Timestamp)
	assert.Len(t, info.Compliance, compliance.Count())
}

func TestFileStore_MissingDocument(t *testing.T) {
	store, _ := newTestFileStore(t)
	ctx := context.Background()

	id := interfaces.DocumentID(strings.Repeat("ff", interfaces.DocumentIDLength/2))

	_, err := store.LoadBlob(ctx, id)
	assert.ErrorIs(t, err, interfaces.ErrDocumentNotFound)

	_, err = store.LoadInfo(ctx, id)
	assert.ErrorIs(t, err, interfaces.ErrDocumentNotFound)
}

func TestFileStore_Counts(t *testing.T) {
	store, _ := newTestFileStore(t)
	ctx := context.Background()

	total, err := store.CountTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	require.NoError(t, store.SaveDocument(ctx, testRecord("a1", true)))
	require.NoError(t, store.SaveDocument(ctx, testRecord("b2", true)))
	require.NoError(t, store.SaveDocument(ctx, testRecord("c3", false)))

	// A single non-compliant framework disqualifies the whole document.
	partial := testRecord("d4", true)
	partial.Compliance[compliance.SOC2] = false
	require.NoError(t, store.SaveDocument(ctx, partial))

	total, err = store.CountTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	compliant, err := store.CountFullyCompliant(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, compliant)
}

func TestFileStore_CountSkipsMalformedSidecar(t *testing.T) {
	store, dir := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testRecord("a1", true)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, MetaDirName, "broken.json"), []byte("{not json"), 0644))

	compliant, err := store.CountFullyCompliant(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, compliant)
}

func TestFileStore_OverwriteKeepsLatest(t *testing.T) {
	store, _ := newTestFileStore(t)
	ctx := context.Background()

	rec := testRecord("a1", true)
	require.NoError(t, store.SaveDocument(ctx, rec))

	rec.Ciphertext = []byte("ciphertext-second")
	rec.Filename = "updated.pdf"
	require.NoError(t, store.SaveDocument(ctx, rec))

	blob, err := store.LoadBlob(ctx, rec.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, []byte("ciphertext-second"), blob)

	info, err := store.LoadInfo(ctx, rec.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "updated.pdf", info.Filename)

	total, err := store.CountTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestFileStore_Available(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "docs")
	store, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)

	assert.True(t, store.Available(context.Background()))

	require.NoError(t, os.RemoveAll(dir))
	assert.False(t, store.Available(context.Background()))
}

func TestFileStore_NameAndLocation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "docs")
	store, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)

	assert.Equal(t, "file-docs", store.Name())
	assert.Equal(t, "file://"+dir, store.LocationURI())
}
