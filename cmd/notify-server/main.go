package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sungwon/notify-mailer/internal/api"
	"github.com/sungwon/notify-mailer/internal/archive"
	"github.com/sungwon/notify-mailer/internal/auth"
	"github.com/sungwon/notify-mailer/internal/catalog"
	"github.com/sungwon/notify-mailer/internal/config"
	"github.com/sungwon/notify-mailer/internal/events"
	"github.com/sungwon/notify-mailer/internal/logger"
	"github.com/sungwon/notify-mailer/internal/mailer"
	"github.com/sungwon/notify-mailer/internal/notify"
	"github.com/sungwon/notify-mailer/internal/settings"
	"github.com/sungwon/notify-mailer/internal/storage"
)

func main() {
	// A missing .env file is fine; the environment and config.yaml still apply.
	_ = godotenv.Load()

	// Load configuration from the "config" directory.
	cfg, err := config.Load("config")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewFromOptions(logger.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePath:   cfg.Logging.FilePath,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	log.Info().Msg("starting notification server")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Settings store. Without a database the service runs on built-in
	// defaults, which leaves sending disabled.
	var (
		store settings.Store
		ready api.Pinger
	)
	if cfg.Database.URL != "" {
		db, err := storage.NewDB(ctx, cfg.Database.URL, cfg.Database.PoolMin, cfg.Database.PoolMax, cfg.Database.ConnectTimeout)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()
		go db.ReportStats(ctx, 15*time.Second)

		store = storage.New(db.Pool)
		ready = db
		log.Info().Msg("database connection established")
	} else {
		log.Warn().Msg("no database configured, using built-in settings")
	}

	var (
		redisClient *redis.Client
		eventsRedis redis.Cmdable
	)
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis not reachable at startup")
		}
		eventsRedis = redisClient
	}

	verifier, err := newVerifier(cfg.Auth, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure token verification")
	}

	arch, err := archive.New(ctx, archive.Config{
		Type:       cfg.Archive.Type,
		Path:       cfg.Archive.Path,
		S3Bucket:   cfg.Archive.S3Bucket,
		S3Prefix:   cfg.Archive.S3Prefix,
		S3Endpoint: cfg.Archive.S3Endpoint,
		S3Region:   cfg.Archive.S3Region,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure archive")
	}

	publisher, err := events.NewPublisher(ctx, events.Config{
		Type:        cfg.Events.Type,
		RedisStream: cfg.Events.RedisStream,
		SQSQueueURL: cfg.Events.SQSQueueURL,
		SQSRegion:   cfg.Events.SQSRegion,
		SQSEndpoint: cfg.Events.SQSEndpoint,
	}, eventsRedis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure event publisher")
	}

	svc := notify.NewService(notify.Deps{
		Settings: settings.NewResolver(store),
		Catalog:  catalog.NewResolver(store),
		Verifier: verifier,
		Limiter:  auth.NewRateLimiter(redisClient, cfg.RateLimit.SendsPerHour, cfg.RateLimit.SystemSendsPerHour),
		Deliverer: mailer.NewSMTPClient(mailer.Options{
			DialTimeout:    cfg.SMTP.DialTimeout,
			CommandTimeout: cfg.SMTP.CommandTimeout,
			InsecureTLS:    cfg.SMTP.InsecureTLS,
		}),
		Archive: arch,
		Events:  publisher,
	})

	router := api.NewRouter(svc, ready, api.RouterConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		CORSMaxAge:     cfg.CORS.MaxAge,
		MaxBodyBytes:   cfg.API.MaxBodyBytes,
	}, log)

	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("API server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down API server")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API server shutdown error")
	}

	log.Info().Msg("API server stopped")
}

func newVerifier(cfg config.AuthConfig, log zerolog.Logger) (auth.Verifier, error) {
	switch cfg.Mode {
	case "jwt":
		if cfg.JWTSecret == "" {
			log.Warn().Msg("auth.jwt_secret is empty, bearer tokens will be rejected and only skipAuth requests can be sent; set NOTIFY_AUTH_JWT_SECRET")
			return nil, nil
		}
		return auth.NewJWTVerifier(auth.JWTConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}), nil
	case "introspection":
		if cfg.IntrospectionURL == "" {
			return nil, fmt.Errorf("auth.introspection_url is required in introspection mode")
		}
		return auth.NewIntrospectionVerifier(cfg.IntrospectionURL, cfg.APIKey, auth.NewHTTPClient(cfg.Timeout)), nil
	case "":
		log.Warn().Msg("no token verifier configured, only skipAuth requests can be sent")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}
