package handler

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/repowhisper/internal/config"
	"github.com/xxxsen/repowhisper/internal/model"
	"github.com/xxxsen/repowhisper/internal/pkg/jwt"
	"github.com/xxxsen/repowhisper/internal/service"
)

type emptyRepositoryStore struct{}

func (s *emptyRepositoryStore) CreateOrGet(ctx context.Context, userID, rootPath string, mode model.IndexMode) (*model.Repository, error) {
	return &model.Repository{}, nil
}

func (s *emptyRepositoryStore) Get(ctx context.Context, userID, id string) (*model.Repository, error) {
	return &model.Repository{}, nil
}

func (s *emptyRepositoryStore) ListByUser(ctx context.Context, userID string) ([]model.Repository, error) {
	return nil, nil
}

func (s *emptyRepositoryStore) ActiveIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func (s *emptyRepositoryStore) UpdateLastIndexed(ctx context.Context, userID, id string, ts int64) error {
	return nil
}

func (s *emptyRepositoryStore) Delete(ctx context.Context, userID, id string) error {
	return nil
}

type emptyChunkStore struct{}

func (s *emptyChunkStore) Upsert(ctx context.Context, chunks []model.CodeChunk) error {
	return nil
}

func (s *emptyChunkStore) SearchNearest(ctx context.Context, userID, repoID string, embedding []float32, limit int) ([]model.CodeChunk, []float32, error) {
	return nil, nil, nil
}

func (s *emptyChunkStore) DeleteStale(ctx context.Context, userID, repoID string, indexedBefore int64) (int64, error) {
	return 0, nil
}

func (s *emptyChunkStore) DeleteOrphans(ctx context.Context) (int64, error) {
	return 0, nil
}

func (s *emptyChunkStore) CountByRepo(ctx context.Context, userID, repoID string) (int64, error) {
	return 0, nil
}

func newRepoTestEngine(t *testing.T, secret []byte) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	repoService := service.NewRepositoryService(&emptyRepositoryStore{}, &emptyChunkStore{})
	deps := RouterDeps{
		Health:       NewHealthHandler(nil, nil, nil),
		Repositories: NewRepositoryHandler(repoService),
		JWTSecret:    secret,
		RateLimit: config.RateLimitConfig{
			RepoListMS:   60000,
			RepoDeleteMS: 60000,
		},
	}
	RegisterRoutes(engine.Group("/api/v1"), deps)
	return engine
}

func doRepoRequest(engine *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	engine.ServeHTTP(rec, req)
	return rec
}

func TestRepoRoutes_RequireAuth(t *testing.T) {
	engine := newRepoTestEngine(t, []byte("secret"))
	rec := doRepoRequest(engine, "GET", "/api/v1/repos", "")
	require.Contains(t, rec.Body.String(), "authorization")
}

func TestRepoRoutes_RateLimited(t *testing.T) {
	secret := []byte("secret")
	token, err := jwt.GenerateToken("user-1", secret, time.Hour)
	require.NoError(t, err)

	engine := newRepoTestEngine(t, secret)
	first := doRepoRequest(engine, "GET", "/api/v1/repos", token)
	require.Contains(t, first.Body.String(), "repositories")

	second := doRepoRequest(engine, "GET", "/api/v1/repos", token)
	require.Contains(t, second.Body.String(), "Too Many Requests")

	del := doRepoRequest(engine, "DELETE", "/api/v1/repos/repo-1", token)
	require.Contains(t, del.Body.String(), "deleted")
	delAgain := doRepoRequest(engine, "DELETE", "/api/v1/repos/repo-1", token)
	require.Contains(t, delAgain.Body.String(), "Too Many Requests")
}
