package service

import (
	"context"

	"github.com/xxxsen/repowhisper/internal/model"
)

type RepositoryInfo struct {
	model.Repository
	ChunkCount int64 `json:"chunk_count"`
}

// RepositoryService lists and removes indexed repos. Removal only drops the
// repo row; chunks are swept later while search already ignores them.
type RepositoryService struct {
	repos  RepositoryStore
	chunks ChunkStore
}

func NewRepositoryService(repos RepositoryStore, chunks ChunkStore) *RepositoryService {
	return &RepositoryService{repos: repos, chunks: chunks}
}

func (s *RepositoryService) List(ctx context.Context, userID string) ([]RepositoryInfo, error) {
	items, err := s.repos.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	results := make([]RepositoryInfo, 0, len(items))
	for _, item := range items {
		count, err := s.chunks.CountByRepo(ctx, userID, item.ID)
		if err != nil {
			return nil, err
		}
		results = append(results, RepositoryInfo{Repository: item, ChunkCount: count})
	}
	return results, nil
}

func (s *RepositoryService) Delete(ctx context.Context, userID, id string) error {
	return s.repos.Delete(ctx, userID, id)
}

// SweepOrphanChunks deletes chunk rows whose repo row is gone. Invoked from
// the maintenance schedule, never from the request path.
func (s *RepositoryService) SweepOrphanChunks(ctx context.Context) (int64, error) {
	return s.chunks.DeleteOrphans(ctx)
}
