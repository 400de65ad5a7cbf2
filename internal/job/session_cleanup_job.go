package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/repowhisper/internal/contextstore"
)

type SessionCleanupJob struct {
	store          *contextstore.Store
	idleTTLMinutes int
}

func NewSessionCleanupJob(store *contextstore.Store, idleTTLMinutes int) *SessionCleanupJob {
	return &SessionCleanupJob{store: store, idleTTLMinutes: idleTTLMinutes}
}

func (j *SessionCleanupJob) Name() string {
	return "session_cleanup"
}

func (j *SessionCleanupJob) Run(ctx context.Context) error {
	if j.store == nil {
		return nil
	}
	ttlMinutes := j.idleTTLMinutes
	if ttlMinutes <= 0 {
		ttlMinutes = 120
	}
	removed := j.store.PruneIdle(time.Duration(ttlMinutes) * time.Minute)
	if removed > 0 {
		logutil.GetLogger(ctx).Info("pruned idle sessions", zap.Int("count", removed))
	}
	return nil
}
