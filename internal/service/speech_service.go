package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/repowhisper/internal/config"
	"github.com/xxxsen/repowhisper/internal/pkg/errors"
	"github.com/xxxsen/repowhisper/internal/stt"
)

const defaultSampleRate = 16000

type TranscribeResult struct {
	Text           string `json:"text"`
	ModelAvailable bool   `json:"model_available"`
}

// SpeechService converts PCM audio to text. When no engine is loaded or the
// engine fails, the call still succeeds with an empty transcript and
// ModelAvailable false so clients can keep recording.
type SpeechService struct {
	engine   stt.Engine
	sessions SessionStore
	cfg      config.STTConfig
}

func NewSpeechService(engine stt.Engine, sessions SessionStore, cfg config.STTConfig) *SpeechService {
	return &SpeechService{engine: engine, sessions: sessions, cfg: cfg}
}

func (s *SpeechService) Transcribe(ctx context.Context, userID, sessionID string, audio []byte, sampleRate int) (*TranscribeResult, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: audio payload is empty", errors.ErrInvalid)
	}
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	// 16-bit mono PCM: two bytes per sample.
	maxBytes := int64(s.cfg.MaxDurationSec) * int64(sampleRate) * 2
	if int64(len(audio)) > maxBytes {
		return nil, fmt.Errorf("%w: audio exceeds %d seconds", errors.ErrInvalid, s.cfg.MaxDurationSec)
	}
	if s.engine == nil || !s.engine.Available() {
		return &TranscribeResult{Text: "", ModelAvailable: false}, nil
	}

	tctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSec)*time.Second)
	defer cancel()
	text, err := s.engine.Transcribe(tctx, audio, sampleRate)
	if err != nil {
		logutil.GetLogger(ctx).Warn("transcription failed, degrading",
			zap.String("engine", s.engine.Name()), zap.Error(err))
		return &TranscribeResult{Text: "", ModelAvailable: false}, nil
	}
	if sessionID != "" && text != "" {
		s.sessions.SetTranscript(userID, sessionID, text)
	}
	return &TranscribeResult{Text: text, ModelAvailable: true}, nil
}
