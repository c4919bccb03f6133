package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/princinho/sessionauth/config"
	"github.com/princinho/sessionauth/controllers"
	"github.com/princinho/sessionauth/database"
	"github.com/princinho/sessionauth/logging"
	"github.com/princinho/sessionauth/media"
	"github.com/princinho/sessionauth/middleware"
	"github.com/princinho/sessionauth/ratelimit"
	"github.com/princinho/sessionauth/session"
	"github.com/princinho/sessionauth/store"
	"github.com/princinho/sessionauth/tokens"
	"github.com/princinho/sessionauth/users"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.Config) error {
	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	userStore, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ts, err := tokens.NewService(tokens.Config{
		AccessSecret:  cfg.AccessTokenSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshSecret: cfg.RefreshTokenSecret,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}

	limiter, closeLimiter := newLimiter(cfg)
	defer closeLimiter()

	uploader, closeUploader, err := newUploader(ctx, cfg.Media)
	if err != nil {
		return err
	}
	defer closeUploader()

	sessions := session.NewManager(userStore, ts, limiter, logger)
	userService := users.NewService(userStore, uploader, logger)
	if err := userService.Seed(ctx, cfg.Seed); err != nil {
		return err
	}

	cookies := controllers.CookieConfig{
		Secure:     cfg.CookieSecure,
		Domain:     cfg.CookieDomain,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(corsMiddleware(cfg.AllowedOrigins))

	controllers.RegisterRoutes(r,
		controllers.NewAuthController(sessions, cookies, logger),
		controllers.NewUsersController(userService, sessions, cookies, logger),
		middleware.AuthMiddleware(ts, userStore, logger),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server listening", "addr", srv.Addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config) (store.UserStore, func(), error) {
	switch cfg.StoreDriver {
	case "mongo":
		client, err := database.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		s := store.NewMongoStore(client.Database(cfg.DatabaseName))
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return s, func() { _ = client.Disconnect(context.Background()) }, nil
	case "postgres":
		pool, err := database.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return store.NewPostgresStore(pool), pool.Close, nil
	default:
		return store.NewMemoryStore(), func() {}, nil
	}
}

func newLimiter(cfg *config.Config) (ratelimit.Limiter, func()) {
	if cfg.LoginMaxAttempts <= 0 {
		return ratelimit.Noop{}, func() {}
	}
	rc := ratelimit.Config{MaxAttempts: cfg.LoginMaxAttempts, Cooldown: cfg.LoginCooldown}
	if cfg.RedisAddr == "" {
		return ratelimit.NewLocalLimiter(rc), func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return ratelimit.NewRedisLimiter(client, rc), func() { _ = client.Close() }
}

func newUploader(ctx context.Context, cfg config.MediaConfig) (media.Uploader, func(), error) {
	switch cfg.Backend {
	case "r2":
		u, err := media.NewR2Uploader(ctx, media.R2Config{
			Bucket:          cfg.R2Bucket,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			Endpoint:        cfg.R2Endpoint,
			PublicDomain:    cfg.R2PublicDomain,
		})
		if err != nil {
			return nil, nil, err
		}
		return u, func() {}, nil
	case "gcs":
		u, err := media.NewGCSUploader(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		return u, func() { _ = u.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowed[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
