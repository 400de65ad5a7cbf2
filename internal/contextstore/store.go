// Package contextstore keeps per-session advisor context in memory. Each
// session holds the latest transcript segment and screenshot reference with
// independent last-writer-wins versions, so a slow screenshot upload never
// clobbers a newer transcript.
package contextstore

import (
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/repowhisper/internal/model"
	"github.com/xxxsen/repowhisper/internal/pkg/errors"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*model.SessionContext
	now      func() time.Time
}

func New() *Store {
	return &Store{
		sessions: make(map[string]*model.SessionContext),
		now:      time.Now,
	}
}

func sessionKey(userID, sessionID string) string {
	return userID + "|" + sessionID
}

// SetTranscript replaces the transcript segment for the session, creating the
// session on first write. Empty segments are ignored.
func (s *Store) SetTranscript(userID, sessionID, segment string) {
	if strings.TrimSpace(segment) == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx := s.getOrCreateLocked(userID, sessionID)
	ctx.TranscriptSegment = segment
	ctx.TranscriptVersion++
	ctx.UpdatedAt = s.now().UnixMilli()
}

// SetScreenshot replaces the screenshot reference for the session.
func (s *Store) SetScreenshot(userID, sessionID string, ref model.ScreenshotRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx := s.getOrCreateLocked(userID, sessionID)
	ref2 := ref
	ctx.Screenshot = &ref2
	ctx.ScreenshotVersion++
	ctx.UpdatedAt = s.now().UnixMilli()
}

// Get returns a copy of the session context, or ErrNotFound if the session
// has never been written or was pruned.
func (s *Store) Get(userID, sessionID string) (*model.SessionContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ctx, ok := s.sessions[sessionKey(userID, sessionID)]
	if !ok {
		return nil, errors.ErrNotFound
	}
	cp := *ctx
	if ctx.Screenshot != nil {
		ref := *ctx.Screenshot
		cp.Screenshot = &ref
	}
	return &cp, nil
}

// PruneIdle drops sessions untouched for longer than ttl and returns the
// number removed.
func (s *Store) PruneIdle(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl).UnixMilli()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, ctx := range s.sessions {
		if ctx.UpdatedAt < cutoff {
			delete(s.sessions, key)
			removed++
		}
	}
	return removed
}

func (s *Store) getOrCreateLocked(userID, sessionID string) *model.SessionContext {
	key := sessionKey(userID, sessionID)
	ctx, ok := s.sessions[key]
	if !ok {
		ctx = &model.SessionContext{SessionID: sessionID}
		s.sessions[key] = ctx
	}
	return ctx
}
