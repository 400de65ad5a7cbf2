package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/repowhisper/internal/pkg/errcode"
	"github.com/xxxsen/repowhisper/internal/pkg/response"
	"github.com/xxxsen/repowhisper/internal/service"
)

type SearchHandler struct {
	search *service.SearchService
}

func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

type searchRequest struct {
	Query  string `json:"query"`
	RepoID string `json:"repo_id,omitempty"`
	TopK   int    `json:"top_k,omitempty"`
}

func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	results, err := h.search.Search(c.Request.Context(), getUserID(c), &service.SearchRequest{
		Query:  req.Query,
		RepoID: req.RepoID,
		TopK:   req.TopK,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"results": results})
}
