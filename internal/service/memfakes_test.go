package service

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/xxxsen/repowhisper/internal/model"
	"github.com/xxxsen/repowhisper/internal/pkg/errors"
)

// In-memory stores backing the service tests. They mirror the postgres
// semantics closely enough for ranking and tenancy checks.

type memChunkStore struct {
	mu     sync.Mutex
	chunks map[string]model.CodeChunk
	repos  *memRepositoryStore
}

func newMemChunkStore(repos *memRepositoryStore) *memChunkStore {
	return &memChunkStore{chunks: make(map[string]model.CodeChunk), repos: repos}
}

func (s *memChunkStore) Upsert(ctx context.Context, chunks []model.CodeChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		s.chunks[c.ChunkID] = c
	}
	return nil
}

func (s *memChunkStore) SearchNearest(ctx context.Context, userID, repoID string, embedding []float32, limit int) ([]model.CodeChunk, []float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	type scored struct {
		chunk    model.CodeChunk
		distance float32
	}
	var all []scored
	for _, c := range s.chunks {
		if c.UserID != userID {
			continue
		}
		if repoID != "" && c.RepoID != repoID {
			continue
		}
		all = append(all, scored{chunk: c, distance: cosineDistance(embedding, c.Embedding)})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].distance != all[j].distance {
			return all[i].distance < all[j].distance
		}
		return all[i].chunk.ChunkID < all[j].chunk.ChunkID
	})
	if len(all) > limit {
		all = all[:limit]
	}
	var chunks []model.CodeChunk
	var distances []float32
	for _, item := range all {
		chunks = append(chunks, item.chunk)
		distances = append(distances, item.distance)
	}
	return chunks, distances, nil
}

func (s *memChunkStore) DeleteStale(ctx context.Context, userID, repoID string, indexedBefore int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, c := range s.chunks {
		if c.UserID == userID && c.RepoID == repoID && c.IndexedAt < indexedBefore {
			delete(s.chunks, id)
			removed++
		}
	}
	return removed, nil
}

func (s *memChunkStore) DeleteOrphans(ctx context.Context) (int64, error) {
	active := make(map[string]struct{})
	if s.repos != nil {
		s.repos.mu.Lock()
		for id := range s.repos.items {
			active[id] = struct{}{}
		}
		s.repos.mu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, c := range s.chunks {
		if _, ok := active[c.RepoID]; !ok {
			delete(s.chunks, id)
			removed++
		}
	}
	return removed, nil
}

func (s *memChunkStore) CountByRepo(ctx context.Context, userID, repoID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, c := range s.chunks {
		if c.UserID == userID && c.RepoID == repoID {
			count++
		}
	}
	return count, nil
}

type memRepositoryStore struct {
	mu    sync.Mutex
	items map[string]model.Repository
	next  int
}

func newMemRepositoryStore() *memRepositoryStore {
	return &memRepositoryStore{items: make(map[string]model.Repository)}
}

func (s *memRepositoryStore) CreateOrGet(ctx context.Context, userID, rootPath string, mode model.IndexMode) (*model.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.UserID == userID && item.RootPath == rootPath {
			item.Mode = mode
			s.items[item.ID] = item
			cp := item
			return &cp, nil
		}
	}
	s.next++
	item := model.Repository{
		ID:       fmt.Sprintf("repo-%d", s.next),
		UserID:   userID,
		RootPath: rootPath,
		Mode:     mode,
	}
	s.items[item.ID] = item
	cp := item
	return &cp, nil
}

func (s *memRepositoryStore) Get(ctx context.Context, userID, id string) (*model.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok || item.UserID != userID {
		return nil, errors.ErrNotFound
	}
	cp := item
	return &cp, nil
}

func (s *memRepositoryStore) ListByUser(ctx context.Context, userID string) ([]model.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var results []model.Repository
	for _, item := range s.items {
		if item.UserID == userID {
			results = append(results, item)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (s *memRepositoryStore) ActiveIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	items, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(items))
	for _, item := range items {
		ids[item.ID] = struct{}{}
	}
	return ids, nil
}

func (s *memRepositoryStore) UpdateLastIndexed(ctx context.Context, userID, id string, ts int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok || item.UserID != userID {
		return errors.ErrNotFound
	}
	item.LastIndexedAt = ts
	s.items[id] = item
	return nil
}

func (s *memRepositoryStore) Delete(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok || item.UserID != userID {
		return errors.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// stubEmbedder returns a deterministic unit vector per text. Explicit vectors
// can be pinned for ranking tests.
type stubEmbedder struct {
	mu      sync.Mutex
	pinned  map[string][]float32
	calls   int
	failErr error
}

func newStubEmbedder() *stubEmbedder {
	return &stubEmbedder{pinned: make(map[string][]float32)}
}

func (e *stubEmbedder) pin(text string, vec []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pinned[text] = vec
}

func (e *stubEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.failErr != nil {
		return nil, e.failErr
	}
	if vec, ok := e.pinned[text]; ok {
		return vec, nil
	}
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, 4)
	var norm float64
	for i := range vec {
		vec[i] = float32(sum[i]) + 1
		norm += float64(vec[i]) * float64(vec[i])
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}

func (e *stubEmbedder) ModelName() string {
	return "stub"
}

func (e *stubEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type stubGenerator struct {
	text string
	err  error
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

func cosineDistance(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return float32(1 - dot/(math.Sqrt(na)*math.Sqrt(nb)))
}
