package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/repowhisper/internal/model"
	"github.com/xxxsen/repowhisper/internal/pkg/errcode"
	"github.com/xxxsen/repowhisper/internal/pkg/response"
	"github.com/xxxsen/repowhisper/internal/service"
)

type IndexHandler struct {
	index *service.IndexService
}

func NewIndexHandler(index *service.IndexService) *IndexHandler {
	return &IndexHandler{index: index}
}

type indexRequest struct {
	RootPath string   `json:"root_path"`
	Mode     string   `json:"mode"`
	Files    []string `json:"files,omitempty"`
	Include  []string `json:"include,omitempty"`
	Exclude  []string `json:"exclude,omitempty"`
}

func (h *IndexHandler) Index(c *gin.Context) {
	var req indexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.Mode == "" {
		req.Mode = string(model.IndexModeFull)
	}
	result, err := h.index.Index(c.Request.Context(), getUserID(c), &service.IndexRequest{
		RootPath: req.RootPath,
		Mode:     model.IndexMode(req.Mode),
		Files:    req.Files,
		Include:  req.Include,
		Exclude:  req.Exclude,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
