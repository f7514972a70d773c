package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/kelas-qna-api/api/swagger"
	"github.com/noah-isme/kelas-qna-api/internal/handler"
	"github.com/noah-isme/kelas-qna-api/internal/llm"
	"github.com/noah-isme/kelas-qna-api/internal/repository"
	"github.com/noah-isme/kelas-qna-api/internal/service"
	"github.com/noah-isme/kelas-qna-api/pkg/cache"
	"github.com/noah-isme/kelas-qna-api/pkg/config"
	"github.com/noah-isme/kelas-qna-api/pkg/database"
	"github.com/noah-isme/kelas-qna-api/pkg/docstore"
	"github.com/noah-isme/kelas-qna-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/kelas-qna-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/kelas-qna-api/pkg/middleware/requestid"
	"github.com/noah-isme/kelas-qna-api/pkg/storage"
)

// @title Kelas QnA API
// @version 0.1.0
// @description Classroom Q&A service with model-assisted response analysis
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	store := docstore.NewPostgresStore(db)
	if err := store.Migrate(ctx); err != nil {
		logr.Sugar().Fatalw("failed to migrate document store", "error", err)
	}

	metrics := service.NewMetricsService()

	// The cache is an optimization for public lesson reads. A missing redis
	// only costs latency, so startup proceeds without it.
	var cacheService *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
	} else {
		cacheService = service.NewCacheService(repository.NewCacheRepository(redisClient), metrics, cfg.Lessons.PublicCacheTTL, logr)
		defer redisClient.Close() //nolint:errcheck
	}

	signer := storage.NewSignedURLSigner(cfg.Media.SignedURLSecret, cfg.Media.SignedURLTTL)
	blobs, err := storage.NewLocalBlobStore(cfg.Media.StorageDir, cfg.Media.PublicBaseURL, signer)
	if err != nil {
		logr.Sugar().Fatalw("failed to init media storage", "error", err)
	}

	model, err := llm.NewAnthropicClient(cfg.LLM)
	if err != nil {
		logr.Sugar().Fatalw("failed to init model client", "error", err)
	}

	teacherRepo := repository.NewTeacherRepository(store)
	classRepo := repository.NewClassRepository(store)
	planRepo := repository.NewLessonPlanRepository(store)
	lessonRepo := repository.NewLessonRepository(store)
	responseRepo := repository.NewResponseRepository(store)

	teacherService := service.NewTeacherService(teacherRepo, classRepo, planRepo, lessonRepo, nil, logr)
	classService := service.NewClassService(classRepo, nil, logr)
	planService := service.NewLessonPlanService(planRepo, nil, logr)

	categorizer := service.NewCategorizer(model, blobs, service.NewHTTPMaterialFetcher(cfg.LLM.CallTimeout), metrics, logr, cfg.LLM.MaxAttempts)
	lessonService := service.NewLessonService(store, categorizer, cacheService, nil, logr, cfg.Lessons.IDLength)

	summarizer := service.NewSummarizer(model, responseRepo, lessonRepo, planRepo, metrics, logr, cfg.Summarizer)
	summarizer.Start(ctx)
	defer summarizer.Stop()

	responseService := service.NewResponseService(store, summarizer, cacheService, nil, logr, cfg.Media.MaxUploadBytes)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Routes(r, handler.RouterConfig{
		Identity:  service.NewJWTIdentityProvider(cfg.JWT),
		Teachers:  teacherService,
		Classes:   classService,
		Plans:     planService,
		Lessons:   lessonService,
		Responses: responseService,
		Metrics:   metrics,
		Blobs:     blobs,
		Signer:    signer,
		Logger:    logr,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
