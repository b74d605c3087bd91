package registry

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZayedShahcode/ChatPDF/internal/logger"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := Open(filepath.Join(t.TempDir(), "metadata.db"), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })
	require.NoError(t, reg.Init(context.Background()))
	return reg
}

func record(filename, sessionID string) *Document {
	return &Document{
		Filename:        filename,
		UploadTimestamp: time.Now().UTC(),
		FilePath:        filepath.Join("uploads", filename),
		VectorPath:      filepath.Join("vector_data", filename),
		SessionID:       sessionID,
	}
}

func TestUpsertAndGet(t *testing.T) {
	reg := openTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Upsert(ctx, record("a.pdf", "s1")))

	doc, err := reg.GetByFilename(ctx, "a.pdf")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "s1", doc.SessionID)

	missing, err := reg.GetByFilename(ctx, "nope.pdf")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpsertReplacesExistingFilename(t *testing.T) {
	reg := openTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Upsert(ctx, record("a.pdf", "s1")))
	require.NoError(t, reg.Upsert(ctx, record("a.pdf", "s2")))

	docs, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "s2", docs[0].SessionID)
}

func TestListBySession(t *testing.T) {
	reg := openTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Upsert(ctx, record("a.pdf", "s1")))
	require.NoError(t, reg.Upsert(ctx, record("b.pdf", "s1")))
	require.NoError(t, reg.Upsert(ctx, record("c.pdf", "s2")))

	docs, err := reg.ListBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestDeleteByFilenameIsIdempotent(t *testing.T) {
	reg := openTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Upsert(ctx, record("a.pdf", "s1")))
	require.NoError(t, reg.DeleteByFilename(ctx, "a.pdf"))
	require.NoError(t, reg.DeleteByFilename(ctx, "a.pdf"))

	docs, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDeleteBySessionLeavesOtherSessions(t *testing.T) {
	reg := openTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Upsert(ctx, record("a.pdf", "s1")))
	require.NoError(t, reg.Upsert(ctx, record("b.pdf", "s2")))

	require.NoError(t, reg.DeleteBySession(ctx, "s1"))

	docs, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "b.pdf", docs[0].Filename)
}

func TestReset(t *testing.T) {
	reg := openTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Upsert(ctx, record("a.pdf", "s1")))
	require.NoError(t, reg.Upsert(ctx, record("b.pdf", "s2")))
	require.NoError(t, reg.Reset(ctx))

	docs, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}
