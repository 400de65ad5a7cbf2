package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"

	"github.com/xxxsen/repowhisper/internal/config"
	"github.com/xxxsen/repowhisper/internal/filestore"
	"github.com/xxxsen/repowhisper/internal/model"
	"github.com/xxxsen/repowhisper/internal/pkg/errors"
)

// ContextService manages session context: screenshots go to the file store
// and their reference lands in the session, next to the transcript.
type ContextService struct {
	sessions SessionStore
	files    filestore.Store
	cfg      config.SessionConfig
}

func NewContextService(sessions SessionStore, files filestore.Store, cfg config.SessionConfig) *ContextService {
	return &ContextService{sessions: sessions, files: files, cfg: cfg}
}

// SaveScreenshot validates that the payload is a real jpeg or png, stores the
// bytes and attaches the reference to the session.
func (s *ContextService) SaveScreenshot(ctx context.Context, userID, sessionID string, data []byte) (*model.ScreenshotRef, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session_id is required", errors.ErrInvalid)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: screenshot payload is empty", errors.ErrInvalid)
	}
	if int64(len(data)) > s.cfg.MaxScreenshotBytes {
		return nil, fmt.Errorf("%w: screenshot exceeds %d bytes", errors.ErrInvalid, s.cfg.MaxScreenshotBytes)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: not a decodable image", errors.ErrInvalid)
	}
	var contentType, ext string
	switch format {
	case "jpeg":
		contentType, ext = "image/jpeg", ".jpg"
	case "png":
		contentType, ext = "image/png", ".png"
	default:
		return nil, fmt.Errorf("%w: unsupported image format: %s", errors.ErrInvalid, format)
	}

	key := uuid.NewString() + ext
	if err := s.files.Save(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, fmt.Errorf("store screenshot: %w", err)
	}
	ref := model.ScreenshotRef{Key: key, Size: int64(len(data)), ContentType: contentType}
	s.sessions.SetScreenshot(userID, sessionID, ref)
	return &ref, nil
}

// GetSession exposes the session snapshot, mainly for the advisor.
func (s *ContextService) GetSession(userID, sessionID string) (*model.SessionContext, error) {
	return s.sessions.Get(userID, sessionID)
}
