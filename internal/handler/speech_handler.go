package handler

import (
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/repowhisper/internal/pkg/errcode"
	"github.com/xxxsen/repowhisper/internal/pkg/response"
	"github.com/xxxsen/repowhisper/internal/service"
)

type SpeechHandler struct {
	speech *service.SpeechService
}

func NewSpeechHandler(speech *service.SpeechService) *SpeechHandler {
	return &SpeechHandler{speech: speech}
}

// Transcribe accepts a multipart form with an "audio" file of raw 16-bit
// mono PCM, plus optional "sample_rate" and "session_id" fields.
func (h *SpeechHandler) Transcribe(c *gin.Context) {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "audio file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "cannot read audio file")
		return
	}
	defer file.Close()
	audio, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "cannot read audio file")
		return
	}
	sampleRate, _ := strconv.Atoi(c.PostForm("sample_rate"))
	sessionID := c.PostForm("session_id")

	result, err := h.speech.Transcribe(c.Request.Context(), getUserID(c), sessionID, audio, sampleRate)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
