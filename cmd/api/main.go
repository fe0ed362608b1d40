package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldsense/fieldsense-backend/internal/config"
	"github.com/fieldsense/fieldsense-backend/internal/handler"
	"github.com/fieldsense/fieldsense-backend/internal/middleware"
	"github.com/fieldsense/fieldsense-backend/internal/migration"
	"github.com/fieldsense/fieldsense-backend/internal/repository"
	"github.com/fieldsense/fieldsense-backend/internal/routes"
	"github.com/fieldsense/fieldsense-backend/internal/service"
	pkgcache "github.com/fieldsense/fieldsense-backend/pkg/cache"
	pkges "github.com/fieldsense/fieldsense-backend/pkg/elasticsearch"
	pkglogger "github.com/fieldsense/fieldsense-backend/pkg/logger"
	pkgredis "github.com/fieldsense/fieldsense-backend/pkg/redis"
	pkgstorage "github.com/fieldsense/fieldsense-backend/pkg/storage"
	"github.com/fieldsense/fieldsense-backend/pkg/vision"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// @title           FieldSense Backend API
// @version         1.0
// @description     Crop image analysis and automated wildlife deterrent
//
// @host            localhost:8082
// @BasePath        /api

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath(env string) string {
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	dotenvFiles := config.LoadDotEnv(env)

	// 로거 초기화
	pkglogger.InitStructured(env)
	pkglogger.Info("APP_ENV=%s, loaded env files: %v", env, dotenvFiles)

	// 설정 로드
	configPath := getConfigPath(env)
	cfg, err := config.Load(configPath)
	if err != nil {
		pkglogger.GetLogger().Fatal().Err(err).Str("path", configPath).Msg("failed to load config")
	}
	config.LogResolved(cfg)

	// MySQL 연결
	db, err := initDB(cfg)
	if err != nil {
		pkglogger.GetLogger().Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := migration.Run(db); err != nil {
		pkglogger.GetLogger().Fatal().Err(err).Msg("migration failed")
	}
	pkglogger.Info("Connected to MySQL")

	// Redis 연결 (optional)
	var redisClient *goredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize)
	if err != nil {
		pkglogger.Warn("Failed to connect to Redis: %v (continuing without cache, rate limit and command publishing)", err)
		redisClient = nil
	} else {
		pkglogger.Info("Connected to Redis")
	}
	cacheService := pkgcache.NewService(redisClient)

	// Elasticsearch (optional activity mirror)
	var indexer service.ActivityIndexer
	if cfg.Elasticsearch.Enabled && len(cfg.Elasticsearch.Addresses) > 0 {
		esClient, esErr := pkges.NewClient(cfg.Elasticsearch.Addresses, cfg.Elasticsearch.Username, cfg.Elasticsearch.Password)
		if esErr != nil {
			pkglogger.Warn("Elasticsearch connection failed: %v (continuing without activity mirror)", esErr)
		} else if err := esClient.EnsureIndex(context.Background(), cfg.Elasticsearch.ActivityIndex, pkges.ActivityMapping); err != nil {
			pkglogger.Warn("Elasticsearch index setup failed: %v (continuing without activity mirror)", err)
		} else {
			indexer = esClient
		}
	}

	// S3-compatible capture storage (optional)
	var imageStore service.ImageStore
	if cfg.Storage.Enabled {
		s3Client, s3Err := pkgstorage.NewS3Client(pkgstorage.S3Config{
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Bucket:          cfg.Storage.Bucket,
			CDNURL:          cfg.Storage.CDNURL,
			BasePath:        cfg.Storage.BasePath,
			ForcePathStyle:  cfg.Storage.ForcePathStyle,
		})
		if s3Err != nil {
			pkglogger.Warn("S3 storage init failed: %v (captures stay inline)", s3Err)
		} else {
			imageStore = s3Client
		}
	}

	// Vision model
	var model service.VisionModel
	if cfg.Vision.APIKey != "" {
		model = vision.NewClient(vision.Config{
			BaseURL:   cfg.Vision.BaseURL,
			APIKey:    cfg.Vision.APIKey,
			Model:     cfg.Vision.Model,
			MaxTokens: cfg.Vision.MaxTokens,
			Timeout:   cfg.Vision.VisionTimeout(),
		})
	} else {
		pkglogger.Warn("VISION_API_KEY not set: every analysis will be the unavailable fallback")
	}

	// Services
	activityService := service.NewActivityService(repository.NewActivityLogRepository(db), indexer, cfg.Elasticsearch.ActivityIndex)
	deterrentService := service.NewDeterrentService(
		repository.NewAnimalDetectionRepository(db),
		repository.NewDeterrentSettingsRepository(db),
		activityService,
		cacheService,
		pkgredis.NewPublisher(redisClient, pkgredis.DeterrentChannel),
	)
	reportService := service.NewReportService(db, activityService, deterrentService, service.NewAnalysisInvoker(model), imageStore, cacheService)
	adminService := service.NewAdminService(repository.NewReportRepository(db), repository.NewScanAnalyticRepository(db), cacheService)
	automationService := service.NewAutomationService(
		repository.NewAnimalDetectionRepository(db),
		repository.NewScanAnalyticRepository(db),
		repository.NewDeterrentSettingsRepository(db),
		cacheService,
	)

	// Gin 라우터 생성
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.SplitOrigins(),
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "fieldsense-backend",
			"time":    time.Now().Unix(),
			"redis":   cacheService.IsAvailable(),
		})
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	var processLimit gin.HandlerFunc
	if redisClient != nil {
		processLimit = middleware.RateLimit(redisClient, middleware.ProcessRateLimitConfig(cfg.RateLimit.ProcessPerMinute))
	}
	routes.Setup(router, routes.Handlers{
		Report:    handler.NewReportHandler(reportService),
		Detection: handler.NewDetectionHandler(deterrentService),
		Admin:     handler.NewAdminHandler(adminService, automationService, activityService),
	}, processLimit)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		pkglogger.Info("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			pkglogger.GetLogger().Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// in-flight process calls may be waiting on the model
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		pkglogger.Error("Server shutdown failed: %v", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	pkglogger.Info("Server stopped")
}

// initDB MySQL 연결 초기화
func initDB(cfg *config.Config) (*gorm.DB, error) {
	mysqlCfg, err := mysqldriver.ParseDSN(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("DSN 파싱 실패: %w", err)
	}
	if mysqlCfg.Params == nil {
		mysqlCfg.Params = map[string]string{}
	}
	mysqlCfg.Params["time_zone"] = "'+00:00'"

	logLevel := gormlogger.Warn
	if cfg.IsDevelopment() {
		logLevel = gormlogger.Info
	}
	db, err := gorm.Open(mysql.Open(mysqlCfg.FormatDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	return db, nil
}
