package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/LeXarDev/Server-Monitoring/internal/config"
	"github.com/LeXarDev/Server-Monitoring/internal/infra/httpclient"
	"github.com/LeXarDev/Server-Monitoring/internal/jobs/cleanup"
	s3infra "github.com/LeXarDev/Server-Monitoring/internal/infra/s3"
	pgrepo "github.com/LeXarDev/Server-Monitoring/internal/repo/postgres"
	redrepo "github.com/LeXarDev/Server-Monitoring/internal/repo/redis"
	authsvc "github.com/LeXarDev/Server-Monitoring/internal/services/auth"
	avatarsvc "github.com/LeXarDev/Server-Monitoring/internal/services/avatars"
	geosvc "github.com/LeXarDev/Server-Monitoring/internal/services/geo"
	profilesvc "github.com/LeXarDev/Server-Monitoring/internal/services/profiles"
	ratesvc "github.com/LeXarDev/Server-Monitoring/internal/services/rate"
	serversvc "github.com/LeXarDev/Server-Monitoring/internal/services/servers"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
	historyJob *cleanup.Job
	jobsCancel context.CancelFunc
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
		if err := pgrepo.InitSchema(ctx, pool); err != nil {
			log.Warn("schema init failed, continuing in degraded mode", zap.Error(err))
		}
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	userRepo := pgrepo.NewUserRepo(pool)
	profileRepo := pgrepo.NewProfileRepo(pool)
	serverRepo := pgrepo.NewServerRepo(pool)
	loginHistoryRepo := pgrepo.NewLoginHistoryRepo(pool)
	rateRepo := redrepo.NewRateRepo(redisClient)
	geoCacheRepo := redrepo.NewGeoCacheRepo(redisClient)
	ssoStateRepo := redrepo.NewSSOStateRepo(redisClient)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, avatar uploads disabled", zap.Error(err))
	} else {
		s3Client = c
	}

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := authsvc.NewService(userRepo, loginHistoryRepo, jwtManager)
	ssoProvider := authsvc.NewSSOProvider(cfg.SSO, httpclient.New(cfg.Geo.Timeout), ssoStateRepo)
	loginLimiter := ratesvc.NewLimiter(rateRepo, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow)
	profileService := profilesvc.NewService(profileRepo, loginHistoryRepo)
	avatarStorage := avatarsvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	avatarService := avatarsvc.NewService(profileRepo, avatarStorage)
	serverService := serversvc.NewService(serverRepo)
	geoService := geosvc.NewService(cfg.Geo, httpclient.New(cfg.Geo.Timeout), geoCacheRepo)

	var historyJob *cleanup.Job
	if pool != nil {
		historyJob = cleanup.NewLoginHistoryJob(loginHistoryRepo, cfg.Auth.HistoryRetention, log)
	}

	RegisterRoutes(r, Dependencies{
		AuthService:    authService,
		SSOProvider:    ssoProvider,
		LoginLimiter:   loginLimiter,
		ProfileService: profileService,
		AvatarService:  avatarService,
		ServerService:  serverService,
		GeoService:     geoService,
		Logger:         log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
		historyJob: historyJob,
	}, nil
}

func (a *App) Run() error {
	jobsCtx, cancel := context.WithCancel(context.Background())
	a.jobsCancel = cancel
	go a.runHistoryCleanup(jobsCtx)

	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) runHistoryCleanup(ctx context.Context) {
	if a.historyJob == nil {
		return
	}

	interval := a.cfg.Auth.CleanupInterval
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	if err := a.historyJob.Run(ctx); err != nil {
		a.logger.Warn("login history cleanup failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.historyJob.Run(ctx); err != nil {
				a.logger.Warn("login history cleanup failed", zap.Error(err))
			}
		}
	}
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if a.jobsCancel != nil {
		a.jobsCancel()
	}
	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
