package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/repowhisper/internal/ai"
	"github.com/xxxsen/repowhisper/internal/config"
	"github.com/xxxsen/repowhisper/internal/contextstore"
	"github.com/xxxsen/repowhisper/internal/db"
	"github.com/xxxsen/repowhisper/internal/filestore"
	"github.com/xxxsen/repowhisper/internal/handler"
	"github.com/xxxsen/repowhisper/internal/job"
	"github.com/xxxsen/repowhisper/internal/middleware"
	"github.com/xxxsen/repowhisper/internal/pathguard"
	"github.com/xxxsen/repowhisper/internal/repo"
	"github.com/xxxsen/repowhisper/internal/schedule"
	"github.com/xxxsen/repowhisper/internal/service"
	"github.com/xxxsen/repowhisper/internal/stt"
)

const chunkSweepSpec = "15 * * * *"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "repowhisper",
		Short: "repowhisper backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run repowhisper server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(database); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, database)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func buildEmbedder(items []config.ProviderConfig) (ai.IEmbedder, error) {
	entries := make([]ai.EmbedderEntry, 0, len(items))
	for _, item := range items {
		provider, err := ai.NewEmbedProvider(item.Provider, item.Data)
		if err != nil {
			return nil, fmt.Errorf("init embed provider %s: %w", item.Provider, err)
		}
		entries = append(entries, ai.EmbedderEntry{
			Name:     item.Provider + "/" + item.Model,
			Embedder: ai.NewEmbedder(provider, item.Model),
		})
	}
	return ai.NewGroupEmbedder(entries), nil
}

func buildGenerator(items []config.ProviderConfig) (ai.IGenerator, error) {
	entries := make([]ai.GeneratorEntry, 0, len(items))
	for _, item := range items {
		provider, err := ai.NewProvider(item.Provider, item.Data)
		if err != nil {
			return nil, fmt.Errorf("init ai provider %s: %w", item.Provider, err)
		}
		entries = append(entries, ai.GeneratorEntry{
			Name:      item.Provider + "/" + item.Model,
			Generator: ai.NewGenerator(provider, item.Model),
		})
	}
	return ai.NewGroupGenerator(entries), nil
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("stt_engine", cfg.STT.Engine),
	)

	chunkRepo := repo.NewChunkRepo(database)
	repositoryRepo := repo.NewRepositoryRepo(database)

	guard, err := pathguard.New(cfg.Sandbox.AllowedRoots)
	if err != nil {
		return fmt.Errorf("init path guard: %w", err)
	}
	embedder, err := buildEmbedder(cfg.AI.Embed)
	if err != nil {
		return err
	}
	generator, err := buildGenerator(cfg.AI.Generate)
	if err != nil {
		return err
	}
	engine, err := stt.New(cfg.STT.Engine, cfg.STT.Data)
	if err != nil {
		return fmt.Errorf("init stt engine: %w", err)
	}
	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	sessions := contextstore.New()

	indexService := service.NewIndexService(repositoryRepo, chunkRepo, embedder, guard, cfg.Index, cfg.AI.EmbedDim)
	searchService := service.NewSearchService(chunkRepo, repositoryRepo, embedder, cfg.Search)
	speechService := service.NewSpeechService(engine, sessions, cfg.STT)
	contextService := service.NewContextService(sessions, store, cfg.Session)
	advisorService := service.NewAdvisorService(sessions, searchService, generator, cfg.Advisor)
	repositoryService := service.NewRepositoryService(repositoryRepo, chunkRepo)

	deps := handler.RouterDeps{
		Health:       handler.NewHealthHandler(database, embedder, engine),
		Index:        handler.NewIndexHandler(indexService),
		Search:       handler.NewSearchHandler(searchService),
		Speech:       handler.NewSpeechHandler(speechService),
		Advisor:      handler.NewAdvisorHandler(advisorService, contextService),
		Repositories: handler.NewRepositoryHandler(repositoryService),
		JWTSecret:    []byte(cfg.JWTSecret),
		RateLimit:    cfg.RateLimit,
	}

	webEngine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORS),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewSessionCleanupJob(sessions, cfg.Session.IdleTTLMinutes), cfg.Session.CleanupSpec); err != nil {
		return fmt.Errorf("schedule session cleanup: %w", err)
	}
	if err := scheduler.AddJob(job.NewChunkSweepJob(repositoryService), chunkSweepSpec); err != nil {
		return fmt.Errorf("schedule chunk sweep: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := webEngine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
