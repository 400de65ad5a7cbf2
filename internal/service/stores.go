package service

import (
	"context"

	"github.com/xxxsen/repowhisper/internal/model"
)

// ChunkStore is the persistence surface the services need for embedded
// chunks. internal/repo provides the postgres implementation.
type ChunkStore interface {
	Upsert(ctx context.Context, chunks []model.CodeChunk) error
	SearchNearest(ctx context.Context, userID, repoID string, embedding []float32, limit int) ([]model.CodeChunk, []float32, error)
	DeleteStale(ctx context.Context, userID, repoID string, indexedBefore int64) (int64, error)
	DeleteOrphans(ctx context.Context) (int64, error)
	CountByRepo(ctx context.Context, userID, repoID string) (int64, error)
}

type RepositoryStore interface {
	CreateOrGet(ctx context.Context, userID, rootPath string, mode model.IndexMode) (*model.Repository, error)
	Get(ctx context.Context, userID, id string) (*model.Repository, error)
	ListByUser(ctx context.Context, userID string) ([]model.Repository, error)
	ActiveIDs(ctx context.Context, userID string) (map[string]struct{}, error)
	UpdateLastIndexed(ctx context.Context, userID, id string, ts int64) error
	Delete(ctx context.Context, userID, id string) error
}

// SessionStore holds per-session advisor context; internal/contextstore is
// the in-memory implementation.
type SessionStore interface {
	SetTranscript(userID, sessionID, segment string)
	SetScreenshot(userID, sessionID string, ref model.ScreenshotRef)
	Get(userID, sessionID string) (*model.SessionContext, error)
}
