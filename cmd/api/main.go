// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "go.uber.org/automaxprocs"

	"github.com/carterperez-dev/forum-api/internal/admin"
	"github.com/carterperez-dev/forum-api/internal/announcement"
	"github.com/carterperez-dev/forum-api/internal/auth"
	"github.com/carterperez-dev/forum-api/internal/comment"
	"github.com/carterperez-dev/forum-api/internal/config"
	"github.com/carterperez-dev/forum-api/internal/core"
	"github.com/carterperez-dev/forum-api/internal/health"
	"github.com/carterperez-dev/forum-api/internal/media"
	"github.com/carterperez-dev/forum-api/internal/membership"
	"github.com/carterperez-dev/forum-api/internal/middleware"
	"github.com/carterperez-dev/forum-api/internal/notification"
	"github.com/carterperez-dev/forum-api/internal/payment"
	"github.com/carterperez-dev/forum-api/internal/policy"
	"github.com/carterperez-dev/forum-api/internal/post"
	"github.com/carterperez-dev/forum-api/internal/search"
	"github.com/carterperez-dev/forum-api/internal/server"
	"github.com/carterperez-dev/forum-api/internal/tag"
	"github.com/carterperez-dev/forum-api/internal/user"
)

const (
	drainDelay           = 5 * time.Second
	refreshPurgeEvery    = time.Hour
	healthDatabaseTarget = "database"
	healthRedisTarget    = "redis"
	healthStorageTarget  = "storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	generateKeys := flag.Bool("generate-keys", false, "write a new ES256 key pair and exit")
	flag.Parse()

	//nolint:errcheck // .env is optional
	_ = godotenv.Load()

	if *generateKeys {
		if err := writeKeys(*configPath); err != nil {
			slog.Error("key generation failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func writeKeys(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := auth.GenerateKeyPair(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath); err != nil {
		return err
	}
	slog.Info("key pair written",
		"private", cfg.JWT.PrivateKeyPath,
		"public", cfg.JWT.PublicKeyPath,
	)
	return nil
}

//nolint:funlen,gocyclo // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, closeLog := core.NewLogger(cfg.Log)
	defer func() {
		if err := closeLog(); err != nil {
			slog.Error("log close error", "error", err)
		}
	}()
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		applied, migErr := db.Migrate(ctx)
		if migErr != nil {
			return migErr
		}
		logger.Info("migrations applied", "files", applied)
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	cache := redis.Cache(cfg.Cache.TTL)
	pol := policy.New(cfg.Forum.BronzePostLimit, cfg.Forum.AllowSelfVote)

	notifSvc := notification.NewService(notification.NewRepository(db.DB), pol)

	userRepo := user.NewRepository(db.DB)
	members := membership.NewService(userRepo, notifSvc, cfg.Membership.GoldDuration)
	userSvc := user.NewService(userRepo, pol, members, notifSvc)

	identity := auth.NewIdentityVerifier(cfg.Identity)
	authSvc := auth.NewService(
		auth.NewRepository(db.DB),
		jwtManager,
		identity,
		userSvc,
		redis.Client,
	)
	go authSvc.PurgeExpired(ctx, refreshPurgeEvery)

	tagSvc := tag.NewService(tag.NewRepository(db.DB), pol, cache)
	postSvc := post.NewService(post.NewRepository(db.DB), pol, tagSvc)
	commentSvc := comment.NewService(comment.NewRepository(db.DB), postSvc, pol, notifSvc)
	announcementSvc := announcement.NewService(announcement.NewRepository(db.DB), pol, cache)
	tracker := search.NewTracker(
		redis.Client,
		tagSvc,
		cfg.Forum.PopularWindow,
		cfg.Forum.PopularLimit,
	)

	var processor payment.Processor
	if cfg.Payment.StripeSecretKey != "" {
		processor = payment.NewStripeProcessor(cfg.Payment.StripeSecretKey)
	} else {
		logger.Warn("payments disabled: no processor key configured")
	}
	paymentSvc := payment.NewService(
		payment.NewRepository(db.DB),
		processor,
		members,
		pol,
		cfg.Membership,
	)

	deps := []health.Dependency{
		{Name: healthDatabaseTarget, Checker: db},
		{Name: healthRedisTarget, Checker: redis},
	}

	var mediaHandler *media.Handler
	if cfg.Media.Endpoint != "" {
		store, storeErr := media.NewMinioStore(ctx, cfg.Media)
		if storeErr != nil {
			return storeErr
		}
		mediaHandler = media.NewHandler(media.NewService(store), cfg.Media.MaxUploadBytes)
		deps = append(deps, health.Dependency{Name: healthStorageTarget, Checker: store})
		logger.Info("object storage connected", "bucket", cfg.Media.Bucket)
	}

	healthHandler := health.NewHandler(deps...)

	adminHandler := admin.NewHandler(admin.NewService(admin.Config{
		Repo:   admin.NewRepository(db.DB),
		Policy: pol,
		Probes: []admin.Probe{
			{Name: healthDatabaseTarget, Ping: db.Ping},
			{Name: healthRedisTarget, Ping: redis.Ping},
		},
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
	}))

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	if cfg.Metrics.Enabled {
		router.Use(middleware.Metrics)
	}
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen:   true,
			BypassFunc: middleware.BypassPaths("/healthz", "/livez", "/readyz", cfg.Metrics.Path),
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)
	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, promhttp.Handler())
	}

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	tiered := middleware.TieredRateLimiter(redis.Client, middleware.DefaultTiers)
	authenticated := func(next http.Handler) http.Handler {
		return middleware.Authenticated(authSvc, userSvc)(tiered(next))
	}
	optional := func(next http.Handler) http.Handler {
		return middleware.Optional(authSvc, userSvc)(tiered(next))
	}

	router.Route("/v1", func(r chi.Router) {
		auth.NewHandler(authSvc).RegisterRoutes(r, middleware.Authenticator(authSvc))
		user.NewHandler(userSvc).RegisterRoutes(r, authenticated)
		post.NewHandler(postSvc, commentSvc).RegisterRoutes(r, authenticated, optional)
		comment.NewHandler(commentSvc).RegisterRoutes(r, authenticated)
		tag.NewHandler(tagSvc).RegisterRoutes(r, authenticated)
		announcement.NewHandler(announcementSvc).RegisterRoutes(r, authenticated)
		notification.NewHandler(notifSvc).RegisterRoutes(r, authenticated)
		payment.NewHandler(paymentSvc).RegisterRoutes(r, authenticated)
		search.NewHandler(tracker).RegisterRoutes(r)
		if mediaHandler != nil {
			mediaHandler.RegisterRoutes(r, authenticated)
		}
		adminHandler.RegisterRoutes(r, authenticated, middleware.RequireAdmin)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}
