package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/repowhisper/internal/pkg/errcode"
	"github.com/xxxsen/repowhisper/internal/pkg/response"
	"github.com/xxxsen/repowhisper/internal/service"
)

type RepositoryHandler struct {
	repos *service.RepositoryService
}

func NewRepositoryHandler(repos *service.RepositoryService) *RepositoryHandler {
	return &RepositoryHandler{repos: repos}
}

func (h *RepositoryHandler) List(c *gin.Context) {
	items, err := h.repos.List(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"repositories": items})
}

func (h *RepositoryHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.Error(c, errcode.ErrInvalid, "repo id is required")
		return
	}
	if err := h.repos.Delete(c.Request.Context(), getUserID(c), id); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
