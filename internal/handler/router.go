package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/repowhisper/internal/config"
	"github.com/xxxsen/repowhisper/internal/middleware"
)

type RouterDeps struct {
	Health       *HealthHandler
	Index        *IndexHandler
	Search       *SearchHandler
	Speech       *SpeechHandler
	Advisor      *AdvisorHandler
	Repositories *RepositoryHandler
	JWTSecret    []byte
	RateLimit    config.RateLimitConfig
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/health", deps.Health.Health)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	authGroup.POST("/index",
		middleware.RateLimit(time.Duration(deps.RateLimit.IndexMS)*time.Millisecond),
		deps.Index.Index)
	authGroup.POST("/search",
		middleware.RateLimit(time.Duration(deps.RateLimit.SearchMS)*time.Millisecond),
		deps.Search.Search)
	authGroup.POST("/transcribe",
		middleware.RateLimit(time.Duration(deps.RateLimit.TranscribeMS)*time.Millisecond),
		deps.Speech.Transcribe)
	authGroup.POST("/advise",
		middleware.RateLimit(time.Duration(deps.RateLimit.AdviseMS)*time.Millisecond),
		deps.Advisor.Advise)
	authGroup.POST("/screenshot",
		middleware.RateLimit(time.Duration(deps.RateLimit.ScreenshotMS)*time.Millisecond),
		deps.Advisor.Screenshot)

	authGroup.GET("/repos",
		middleware.RateLimit(time.Duration(deps.RateLimit.RepoListMS)*time.Millisecond),
		deps.Repositories.List)
	authGroup.DELETE("/repos/:id",
		middleware.RateLimit(time.Duration(deps.RateLimit.RepoDeleteMS)*time.Millisecond),
		deps.Repositories.Delete)
}
