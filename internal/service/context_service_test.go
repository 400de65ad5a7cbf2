package service

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/repowhisper/internal/config"
	"github.com/xxxsen/repowhisper/internal/contextstore"
	"github.com/xxxsen/repowhisper/internal/pkg/errors"
)

type memBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[string][]byte)}
}

func (s *memBlobStore) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = data
	return nil
}

func (s *memBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{MaxScreenshotBytes: 1 << 20}
}

func TestContextService_SavesScreenshot(t *testing.T) {
	sessions := contextstore.New()
	blobs := newMemBlobStore()
	svc := NewContextService(sessions, blobs, testSessionConfig())

	ref, err := svc.SaveScreenshot(context.Background(), "u1", "sess-1", pngBytes(t))
	require.NoError(t, err)
	require.Equal(t, "image/png", ref.ContentType)
	require.Contains(t, blobs.blobs, ref.Key)

	session, err := sessions.Get("u1", "sess-1")
	require.NoError(t, err)
	require.NotNil(t, session.Screenshot)
	require.Equal(t, ref.Key, session.Screenshot.Key)
	require.EqualValues(t, 1, session.ScreenshotVersion)
}

func TestContextService_RejectsNonImagePayload(t *testing.T) {
	svc := NewContextService(contextstore.New(), newMemBlobStore(), testSessionConfig())
	_, err := svc.SaveScreenshot(context.Background(), "u1", "sess-1", []byte("definitely not an image"))
	require.ErrorIs(t, err, errors.ErrInvalid)
}

func TestContextService_RejectsOversizedPayload(t *testing.T) {
	cfg := config.SessionConfig{MaxScreenshotBytes: 16}
	svc := NewContextService(contextstore.New(), newMemBlobStore(), cfg)
	_, err := svc.SaveScreenshot(context.Background(), "u1", "sess-1", pngBytes(t))
	require.ErrorIs(t, err, errors.ErrInvalid)
}

func TestContextService_RequiresSessionID(t *testing.T) {
	svc := NewContextService(contextstore.New(), newMemBlobStore(), testSessionConfig())
	_, err := svc.SaveScreenshot(context.Background(), "u1", "", pngBytes(t))
	require.ErrorIs(t, err, errors.ErrInvalid)
}

func TestContextService_LatestScreenshotWins(t *testing.T) {
	sessions := contextstore.New()
	svc := NewContextService(sessions, newMemBlobStore(), testSessionConfig())

	first, err := svc.SaveScreenshot(context.Background(), "u1", "sess-1", pngBytes(t))
	require.NoError(t, err)
	second, err := svc.SaveScreenshot(context.Background(), "u1", "sess-1", pngBytes(t))
	require.NoError(t, err)
	require.NotEqual(t, first.Key, second.Key)

	session, err := sessions.Get("u1", "sess-1")
	require.NoError(t, err)
	require.Equal(t, second.Key, session.Screenshot.Key)
	require.EqualValues(t, 2, session.ScreenshotVersion)
}
