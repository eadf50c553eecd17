package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"medagenda/backend/internal/config"
	"medagenda/backend/internal/media"
	appredis "medagenda/backend/internal/redis"
	"medagenda/backend/internal/service/accounts"
	"medagenda/backend/internal/service/auth"
	"medagenda/backend/internal/service/booking"
	"medagenda/backend/internal/service/practitioners"
	"medagenda/backend/internal/service/stats"
	"medagenda/backend/internal/store/postgres"
	"medagenda/backend/internal/token"
	httpTransport "medagenda/backend/internal/transport/http"
)

func main() {
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "medagenda-server"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "medagenda-server"),
	)
	slog.SetDefault(log)

	log.Info("starting", slog.String("http_addr", cfg.HTTPAddr), slog.String("log_level", cfg.LogLevel))

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		os.Exit(1)
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens, err := token.NewManager(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		log.Error("token manager init failed", slog.Any("err", err))
		os.Exit(1)
	}

	var statsCache stats.Cache
	if cfg.RedisAddr != "" {
		client, err := appredis.Open(ctx, appredis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Error("redis connection failed", slog.Any("err", err), slog.String("redis_addr", cfg.RedisAddr))
			os.Exit(1)
		}
		defer func() {
			if err := client.Close(); err != nil {
				log.Warn("redis close failed", slog.Any("err", err))
			}
		}()
		statsCache = stats.NewRedisCache(client)
		log.Info("stats cache enabled", slog.String("redis_addr", cfg.RedisAddr))
	}

	var photos practitioners.PhotoStorage
	if cfg.MinioEndpoint != "" {
		store, err := media.NewPhotoStore(ctx, media.MinioConfig{
			Endpoint:      cfg.MinioEndpoint,
			AccessKey:     cfg.MinioAccessKey,
			SecretKey:     cfg.MinioSecretKey,
			UseSSL:        cfg.MinioUseSSL,
			Bucket:        cfg.MinioBucket,
			PublicBaseURL: cfg.MinioPublicBaseURL,
		})
		if err != nil {
			log.Error("photo storage init failed", slog.Any("err", err), slog.String("minio_endpoint", cfg.MinioEndpoint))
			os.Exit(1)
		}
		photos = store
		log.Info("photo storage enabled", slog.String("minio_endpoint", cfg.MinioEndpoint), slog.String("bucket", cfg.MinioBucket))
	}

	accountRepo := postgres.NewAccountRepo(db)
	practitionerRepo := postgres.NewPractitionerRepo(db)
	scheduleRepo := postgres.NewWorkScheduleRepo(db)
	appointmentRepo := postgres.NewAppointmentRepo(db)

	server := httpTransport.NewServer(httpTransport.ServerConfig{
		Logger:          log,
		Tokens:          tokens,
		Accounts:        accountRepo,
		AccountsService: accounts.NewService(accountRepo),
		AuthService:     auth.NewService(accountRepo, tokens),
		BookingService:  booking.NewService(appointmentRepo, scheduleRepo, practitionerRepo),
		PractitionerSvc: practitioners.NewService(practitionerRepo, scheduleRepo, appointmentRepo, accountRepo, photos),
		StatsService:    stats.NewService(accountRepo, appointmentRepo, statsCache, cfg.StatsCacheTTL),
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	log.Info("http server started", slog.String("http_addr", cfg.HTTPAddr))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdown(log, httpServer, cfg.ShutdownTimeout)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped with error", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func shutdown(log *slog.Logger, s *http.Server, timeout time.Duration) {
	log.Info("shutting down http server", slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		log.Warn("http graceful shutdown timed out; forcing close", slog.Any("err", err))
		_ = s.Close()
	} else {
		log.Info("http server stopped")
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
