package contextstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/repowhisper/internal/model"
	"github.com/xxxsen/repowhisper/internal/pkg/errors"
)

func TestStore_GetMissingSession(t *testing.T) {
	s := New()
	_, err := s.Get("u1", "s1")
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestStore_TranscriptAndScreenshotVersionsAreIndependent(t *testing.T) {
	s := New()
	s.SetTranscript("u1", "s1", "first segment")
	s.SetTranscript("u1", "s1", "second segment")
	s.SetScreenshot("u1", "s1", model.ScreenshotRef{Key: "a.png", Size: 10})

	ctx, err := s.Get("u1", "s1")
	require.NoError(t, err)
	require.Equal(t, "second segment", ctx.TranscriptSegment)
	require.EqualValues(t, 2, ctx.TranscriptVersion)
	require.EqualValues(t, 1, ctx.ScreenshotVersion)
	require.NotNil(t, ctx.Screenshot)
	require.Equal(t, "a.png", ctx.Screenshot.Key)
}

func TestStore_EmptyTranscriptIgnored(t *testing.T) {
	s := New()
	s.SetTranscript("u1", "s1", "   ")
	_, err := s.Get("u1", "s1")
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestStore_SessionsIsolatedPerUser(t *testing.T) {
	s := New()
	s.SetTranscript("u1", "s1", "alpha")
	s.SetTranscript("u2", "s1", "beta")

	first, err := s.Get("u1", "s1")
	require.NoError(t, err)
	second, err := s.Get("u2", "s1")
	require.NoError(t, err)
	require.Equal(t, "alpha", first.TranscriptSegment)
	require.Equal(t, "beta", second.TranscriptSegment)
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := New()
	s.SetScreenshot("u1", "s1", model.ScreenshotRef{Key: "a.png"})
	ctx, err := s.Get("u1", "s1")
	require.NoError(t, err)
	ctx.Screenshot.Key = "mutated.png"

	again, err := s.Get("u1", "s1")
	require.NoError(t, err)
	require.Equal(t, "a.png", again.Screenshot.Key)
}

func TestStore_PruneIdle(t *testing.T) {
	s := New()
	current := time.Now()
	s.now = func() time.Time { return current }

	s.SetTranscript("u1", "old", "stale")
	current = current.Add(3 * time.Hour)
	s.SetTranscript("u1", "fresh", "recent")

	removed := s.PruneIdle(2 * time.Hour)
	require.Equal(t, 1, removed)

	_, err := s.Get("u1", "old")
	require.ErrorIs(t, err, errors.ErrNotFound)
	_, err = s.Get("u1", "fresh")
	require.NoError(t, err)
}
