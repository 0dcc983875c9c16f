package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/renardhq/renard/internal/ai"
	"github.com/renardhq/renard/internal/config"
	"github.com/renardhq/renard/internal/db"
	"github.com/renardhq/renard/internal/handler"
	"github.com/renardhq/renard/internal/job"
	"github.com/renardhq/renard/internal/middleware"
	"github.com/renardhq/renard/internal/pkg/logutil"
	"github.com/renardhq/renard/internal/repo"
	"github.com/renardhq/renard/internal/schedule"
	"github.com/renardhq/renard/internal/service"
	"github.com/renardhq/renard/internal/vecstore"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "renard",
		Short: "renard activity pipeline server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run renard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logutil.Init(cfg.LogConfig)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logutil.GetLogger(ctx)
	logger.Info("starting server",
		zap.Int("port", cfg.Port),
		zap.String("qdrant", fmt.Sprintf("%s:%d", cfg.Qdrant.Host, cfg.Qdrant.Port)),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	conn, err := db.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer conn.Close()
	if err := db.ApplyMigrations(conn); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	index, err := vecstore.New(cfg.Qdrant.Host, cfg.Qdrant.Port)
	if err != nil {
		return fmt.Errorf("init vector store: %w", err)
	}
	defer index.Close()
	if err := index.EnsureCollection(ctx, cfg.Qdrant.Collection, cfg.AI.Dimension, "cosine"); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	providerArgs := cfg.AI.Data
	if providerArgs == nil {
		providerArgs = cfg.AI
	}
	provider, err := ai.NewProvider(cfg.AI.Provider, providerArgs)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	embedder := ai.NewEmbedder(provider, cfg.AI.Model, cfg.AI.Dimension)

	activityRepo := repo.NewActivityRepo(conn)
	cacheRepo := repo.NewEmbeddingCacheRepo(conn)

	chunkDelay := time.Duration(cfg.Pipeline.ChunkDelayMs) * time.Millisecond
	ingestService := service.NewIngestService(activityRepo)
	activityService := service.NewActivityService(activityRepo, embedder, index, cacheRepo, cfg.Qdrant.Collection)
	processorService := service.NewProcessorService(activityRepo, embedder, index, cfg.Qdrant.Collection, chunkDelay)
	graphService := service.NewGraphService(index, cfg.Qdrant.Collection)

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewEmbeddingBatchJob(processorService, cfg.Pipeline.BatchSize, cfg.Pipeline.RunLimit), cfg.Pipeline.CronSpec); err != nil {
		return fmt.Errorf("schedule embedding batch: %w", err)
	}
	if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(cacheRepo, cfg.Pipeline.CacheMaxAgeDays), "30 3 * * *"); err != nil {
		return fmt.Errorf("schedule cache cleanup: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	deps := handler.RouterDeps{
		Messages:   handler.NewMessageHandler(ingestService),
		Activities: handler.NewActivityHandler(activityService),
		Processing: handler.NewProcessingHandler(processorService),
		Graph:      handler.NewGraphHandler(graphService),
		JWTSecret:  []byte(cfg.JWTSecret),
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.CORS(cfg.CORSOrigins))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))
	handler.RegisterRoutes(engine.Group("/api/v1"), deps)

	server := &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		Handler: engine,
	}
	logger.Info("http server listening", zap.String("addr", server.Addr))

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("server stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
