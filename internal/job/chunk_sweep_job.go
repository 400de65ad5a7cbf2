package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/repowhisper/internal/service"
)

// ChunkSweepJob reclaims chunk rows left behind by deleted repos.
type ChunkSweepJob struct {
	repos *service.RepositoryService
}

func NewChunkSweepJob(repos *service.RepositoryService) *ChunkSweepJob {
	return &ChunkSweepJob{repos: repos}
}

func (j *ChunkSweepJob) Name() string {
	return "chunk_sweep"
}

func (j *ChunkSweepJob) Run(ctx context.Context) error {
	if j.repos == nil {
		return nil
	}
	removed, err := j.repos.SweepOrphanChunks(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("swept orphan chunks", zap.Int64("count", removed))
	}
	return nil
}
