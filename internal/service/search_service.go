package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/xxxsen/repowhisper/internal/ai"
	"github.com/xxxsen/repowhisper/internal/config"
	"github.com/xxxsen/repowhisper/internal/model"
	"github.com/xxxsen/repowhisper/internal/pkg/errors"
)

const (
	defaultTopK      = 10
	queryCacheSize   = 512
	queryCacheTTL    = 10 * time.Minute
	taskTypeQuery    = "RETRIEVAL_QUERY"
	taskTypeDocument = "RETRIEVAL_DOCUMENT"
)

type SearchRequest struct {
	Query  string
	RepoID string
	TopK   int
}

// SearchService ranks stored chunks against a query embedding. It over-fetches
// from the vector index, drops rows whose repo no longer exists, then reranks
// deterministically.
type SearchService struct {
	chunks   ChunkStore
	repos    RepositoryStore
	embedder ai.IEmbedder
	cache    *expirable.LRU[string, []float32]
	cfg      config.SearchConfig
}

func NewSearchService(chunks ChunkStore, repos RepositoryStore, embedder ai.IEmbedder, cfg config.SearchConfig) *SearchService {
	return &SearchService{
		chunks:   chunks,
		repos:    repos,
		embedder: embedder,
		cache:    expirable.NewLRU[string, []float32](queryCacheSize, nil, queryCacheTTL),
		cfg:      cfg,
	}
}

func (s *SearchService) Search(ctx context.Context, userID string, req *SearchRequest) ([]model.ScoredChunk, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", errors.ErrInvalid)
	}
	if len(query) > s.cfg.MaxQueryChars {
		return nil, fmt.Errorf("%w: query exceeds %d chars", errors.ErrInvalid, s.cfg.MaxQueryChars)
	}
	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	if topK > s.cfg.MaxTopK {
		topK = s.cfg.MaxTopK
	}
	if req.RepoID != "" {
		if _, err := s.repos.Get(ctx, userID, req.RepoID); err != nil {
			return nil, err
		}
	}

	embedding, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	active, err := s.repos.ActiveIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	chunks, distances, err := s.chunks.SearchNearest(ctx, userID, req.RepoID, embedding, topK*s.cfg.Overfetch)
	if err != nil {
		return nil, err
	}

	results := make([]model.ScoredChunk, 0, len(chunks))
	for i, chunk := range chunks {
		if _, ok := active[chunk.RepoID]; !ok {
			continue
		}
		results = append(results, model.ScoredChunk{
			Chunk: chunk,
			Score: 1 - distances[i],
		})
	}
	sortScored(results)
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// sortScored orders by score descending, breaking ties on shorter path, then
// lexical path, then lower start line. The full chain makes ranking stable
// across runs.
func sortScored(results []model.ScoredChunk) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if len(a.Chunk.FilePath) != len(b.Chunk.FilePath) {
			return len(a.Chunk.FilePath) < len(b.Chunk.FilePath)
		}
		if a.Chunk.FilePath != b.Chunk.FilePath {
			return a.Chunk.FilePath < b.Chunk.FilePath
		}
		return a.Chunk.StartLine < b.Chunk.StartLine
	})
}

func (s *SearchService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("embedding model not configured")
	}
	key := cacheKey(s.embedder.ModelName(), query)
	if vec, ok := s.cache.Get(key); ok {
		return vec, nil
	}
	vec, err := s.embedder.Embed(ctx, query, taskTypeQuery)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, vec)
	return vec, nil
}

func cacheKey(modelName, query string) string {
	sum := sha256.Sum256([]byte(modelName + "|" + query))
	return hex.EncodeToString(sum[:])
}
