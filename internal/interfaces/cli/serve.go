package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/qiyas/continuity/internal/application/continuity"
	"github.com/qiyas/continuity/internal/config"
	"github.com/qiyas/continuity/internal/domain/index"
	"github.com/qiyas/continuity/internal/domain/mapping"
	"github.com/qiyas/continuity/internal/domain/matching"
	"github.com/qiyas/continuity/internal/domain/recommendation"
	"github.com/qiyas/continuity/internal/domain/requirement"
	"github.com/qiyas/continuity/internal/infrastructure/database/postgres"
	"github.com/qiyas/continuity/internal/infrastructure/database/postgres/repositories"
	"github.com/qiyas/continuity/internal/infrastructure/database/redis"
	"github.com/qiyas/continuity/internal/infrastructure/messaging/kafka"
	"github.com/qiyas/continuity/internal/infrastructure/monitoring/logging"
	"github.com/qiyas/continuity/internal/infrastructure/monitoring/prometheus"
	"github.com/qiyas/continuity/internal/infrastructure/storage/minio"
	apihttp "github.com/qiyas/continuity/internal/interfaces/http"
	"github.com/qiyas/continuity/internal/interfaces/http/handlers"
	"github.com/qiyas/continuity/internal/interfaces/http/middleware"
)

// newServeCmd builds the serve command: migrations, infrastructure,
// services, and the HTTP server with graceful shutdown.
func newServeCmd(opts *RootOptions) *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the continuity API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, err := buildLogger(cfg, opts)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg, logger, skipMigrations)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not run schema migrations on startup")
	return cmd
}

func runServer(parent context.Context, cfg *config.Config, logger logging.Logger, skipMigrations bool) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !skipMigrations {
		dbURL := postgres.BuildDSN(cfg.Database)
		if err := postgres.RunMigrations(dbURL, migrationPath(cfg)); err != nil {
			return err
		}
		logger.Info("database schema up to date")
	}

	// Database
	conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	repoLogger := repositories.NewLoggerAdapter(logger)
	indexRepo := repositories.NewIndexRepository(conn.Pool(), repoLogger)
	requirementRepo := repositories.NewRequirementRepository(conn.Pool(), repoLogger)
	mappingRepo := repositories.NewMappingRepository(conn.Pool(), repoLogger)
	recommendationRepo := repositories.NewRecommendationRepository(conn.Pool(), repoLogger)

	// Cache
	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	contextCache := redis.NewContextCache(redisClient, cfg.Redis.KeyPrefix, logger)
	uploadLock := redis.NewUploadLock(redisClient, cfg.Redis.KeyPrefix, logger)

	// Optional event publishing
	var publisher continuity.EventPublisher
	if cfg.Kafka.Enabled {
		tm, err := kafka.NewTopicManager(cfg.Kafka.Brokers, logger)
		if err != nil {
			return err
		}
		if err := tm.EnsureDefaultTopics(ctx, cfg.Kafka.TopicPrefix); err != nil {
			tm.Close()
			return err
		}
		tm.Close()

		kafkaPublisher, err := kafka.NewPublisher(cfg.Kafka, logger)
		if err != nil {
			return err
		}
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	// Optional sheet archiving
	var archiver continuity.SheetArchiver
	var minioClient *minio.Client
	if cfg.MinIO.Enabled {
		minioClient, err = minio.NewClient(cfg.MinIO, logger)
		if err != nil {
			return err
		}
		defer minioClient.Close()
		archiver = minio.NewSheetArchiver(minioClient, logger)
	}

	// Metrics
	var (
		appMetrics *prometheus.AppMetrics
		observer   continuity.Observer
		routerCfg  apihttp.RouterConfig
	)
	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace: "qiyas",
			Subsystem: "continuity",
		}, logger)
		if err != nil {
			return err
		}
		appMetrics = prometheus.NewAppMetrics(collector)
		observer = prometheus.NewEngineObserver(appMetrics)
		routerCfg.MetricsHandler = collector.Handler()
		routerCfg.MetricsPath = cfg.Metrics.Path
	}

	// Matching
	normalizer := matching.NewDefaultNormalizer()
	scorer := matching.NewScorer(normalizer)
	matcher := matching.NewMatcher(scorer, cfg.Matching.Threshold)

	// Domain services
	indexSvc := index.NewService(indexRepo, logger)
	indexSvc.SetInvalidator(contextCache)
	requirementSvc := requirement.NewService(requirementRepo, logger)
	mappingSvc := mapping.NewService(mappingRepo, requirementRepo, scorer, logger)
	mappingSvc.SetSuggestThreshold(cfg.Matching.SuggestThreshold)
	mappingSvc.SetInvalidator(contextCache)
	recommendationSvc := recommendation.NewService(recommendationRepo, logger)
	if publisher != nil {
		indexSvc.SetPublisher(publisher)
		requirementSvc.SetPublisher(publisher)
	}

	assignerCfg := continuity.AssignerConfig{
		ThreeFieldFloor: cfg.Matching.ThreeFieldFloor,
		TwoFieldFloor:   cfg.Matching.TwoFieldFloor,
		TwoFieldTypes:   cfg.Matching.TwoFieldTypes,
	}
	assigner := continuity.NewAssigner(requirementRepo, recommendationRepo, scorer, archiver, assignerCfg, logger)
	continuitySvc := continuity.NewService(
		indexSvc, requirementRepo, mappingRepo, recommendationRepo,
		matcher, assigner, contextCache, publisher, observer, logger,
		continuity.WithUploadGuard(uploadLock),
	)

	// HTTP surface
	health := handlers.NewHealthHandler(logger)
	health.Register("postgres", conn)
	health.Register("redis", handlers.HealthCheckerFunc(redisClient.Ping))
	if minioClient != nil {
		health.Register("minio", minioClient)
	}

	uploadLimiter := middleware.UploadLimiter(cfg.Upload.RatePerMinute)
	defer uploadLimiter.Stop()

	routerCfg.Mode = apihttp.ModeFromConfig(cfg.Server)
	routerCfg.Health = health
	routerCfg.Indices = handlers.NewIndexHandler(indexSvc, logger)
	routerCfg.Requirements = handlers.NewRequirementHandler(requirementSvc, continuitySvc, logger)
	routerCfg.Mappings = handlers.NewMappingHandler(mappingSvc, logger)
	routerCfg.Recommendation = handlers.NewRecommendationHandler(
		recommendationSvc, indexSvc, continuitySvc, assignerCfg, cfg.Upload.MaxFileSize, logger)
	routerCfg.AppMetrics = appMetrics
	routerCfg.UploadLimiter = uploadLimiter
	routerCfg.CORS = middleware.DefaultCORSConfig()
	routerCfg.Logger = logger

	server := apihttp.NewServer(cfg.Server, apihttp.NewRouter(routerCfg), logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	if err := server.Stop(context.Background()); err != nil {
		return err
	}
	return <-errCh
}
