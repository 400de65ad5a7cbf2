package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/repowhisper/internal/pkg/errcode"
	"github.com/xxxsen/repowhisper/internal/pkg/response"
	"github.com/xxxsen/repowhisper/internal/service"
)

type AdvisorHandler struct {
	advisor *service.AdvisorService
	context *service.ContextService
}

func NewAdvisorHandler(advisor *service.AdvisorService, context *service.ContextService) *AdvisorHandler {
	return &AdvisorHandler{advisor: advisor, context: context}
}

type adviseRequest struct {
	SessionID string `json:"session_id"`
	RepoID    string `json:"repo_id,omitempty"`
}

func (h *AdvisorHandler) Advise(c *gin.Context) {
	var req adviseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.SessionID == "" {
		response.Error(c, errcode.ErrInvalid, "session_id is required")
		return
	}
	result, err := h.advisor.Advise(c.Request.Context(), getUserID(c), &service.AdviseRequest{
		SessionID: req.SessionID,
		RepoID:    req.RepoID,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

// Screenshot accepts a multipart form with an "image" file and a
// "session_id" field.
func (h *AdvisorHandler) Screenshot(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "image file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "cannot read image file")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "cannot read image file")
		return
	}
	sessionID := c.PostForm("session_id")

	ref, err := h.context.SaveScreenshot(c.Request.Context(), getUserID(c), sessionID, data)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, ref)
}
