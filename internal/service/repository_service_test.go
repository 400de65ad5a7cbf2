package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/repowhisper/internal/model"
	"github.com/xxxsen/repowhisper/internal/pkg/errors"
)

func TestRepositoryService_ListIncludesChunkCounts(t *testing.T) {
	repos := newMemRepositoryStore()
	chunks := newMemChunkStore(repos)
	svc := NewRepositoryService(repos, chunks)

	repoRow, err := repos.CreateOrGet(context.Background(), "u1", "/work/app", model.IndexModeFull)
	require.NoError(t, err)
	seedChunk(t, chunks, "u1", repoRow.ID, "a.go", 1, []float32{1, 0, 0, 0})
	seedChunk(t, chunks, "u1", repoRow.ID, "b.go", 1, []float32{0, 1, 0, 0})

	items, err := svc.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.EqualValues(t, 2, items[0].ChunkCount)
}

func TestRepositoryService_DeleteUnknownRepo(t *testing.T) {
	repos := newMemRepositoryStore()
	svc := NewRepositoryService(repos, newMemChunkStore(repos))
	err := svc.Delete(context.Background(), "u1", "missing")
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestRepositoryService_DeleteIsScopedToOwner(t *testing.T) {
	repos := newMemRepositoryStore()
	svc := NewRepositoryService(repos, newMemChunkStore(repos))

	repoRow, err := repos.CreateOrGet(context.Background(), "u1", "/work/app", model.IndexModeFull)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), "u2", repoRow.ID)
	require.ErrorIs(t, err, errors.ErrNotFound)
	require.NoError(t, svc.Delete(context.Background(), "u1", repoRow.ID))
}

func TestRepositoryService_SweepOrphanChunks(t *testing.T) {
	repos := newMemRepositoryStore()
	chunks := newMemChunkStore(repos)
	svc := NewRepositoryService(repos, chunks)

	repoRow, err := repos.CreateOrGet(context.Background(), "u1", "/work/app", model.IndexModeFull)
	require.NoError(t, err)
	seedChunk(t, chunks, "u1", repoRow.ID, "a.go", 1, []float32{1, 0, 0, 0})
	require.NoError(t, svc.Delete(context.Background(), "u1", repoRow.ID))

	removed, err := svc.SweepOrphanChunks(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	count, err := chunks.CountByRepo(context.Background(), "u1", repoRow.ID)
	require.NoError(t, err)
	require.Zero(t, count)
}
