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

	"github.com/Ayman482/nile-dose-cafe-website/internal/auth"
	"github.com/Ayman482/nile-dose-cafe-website/internal/authz"
	"github.com/Ayman482/nile-dose-cafe-website/internal/clock"
	"github.com/Ayman482/nile-dose-cafe-website/internal/dbconnector"
	apperr "github.com/Ayman482/nile-dose-cafe-website/internal/errors"
	"github.com/Ayman482/nile-dose-cafe-website/internal/events"
	"github.com/Ayman482/nile-dose-cafe-website/internal/logger"
	"github.com/Ayman482/nile-dose-cafe-website/internal/metrics"
	"github.com/Ayman482/nile-dose-cafe-website/internal/ratelimit"
	"github.com/Ayman482/nile-dose-cafe-website/internal/server"
	"github.com/Ayman482/nile-dose-cafe-website/internal/serverconfig"
	"github.com/Ayman482/nile-dose-cafe-website/internal/service"
	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	tokenTTL        = 24 * time.Hour
	shutdownTimeout = 10 * time.Second
)

func main() {
	configStore := serverconfig.NewConfigStore()
	configStore.ParseFlags()

	log, err := logger.New(configStore.FlagLogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, configStore, log); err != nil {
		log.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(ctx context.Context, configStore *serverconfig.ConfigStore, log *zap.Logger) error {
	devSecret := configStore.FlagJWTSecret == ""
	if err := configStore.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if devSecret {
		log.Warn("signing tokens with the development secret", zap.String("database", configStore.FlagDatabase))
	}

	node, err := snowflake.NewNode(configStore.SnowflakeNode)
	if err != nil {
		return fmt.Errorf("snowflake node: %w", err)
	}

	db, err := dbconnector.OpenDBConnect(configStore.FlagDatabase, node, clock.Real{})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	if err := db.DBInitialize(); err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if brokers := configStore.KafkaBrokers(); len(brokers) > 0 {
		publisher = events.NewProducer(brokers, log)
		log.Info("publishing domain events", zap.Strings("brokers", brokers))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("failed to close event publisher", zap.Error(err))
		}
	}()

	var redisClient *redis.Client
	if configStore.FlagRedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: configStore.FlagRedisAddr})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, rate limiting fails open until it is back", zap.Error(err))
		}
	}

	enforcer, err := authz.NewEnforcer(db.DB)
	if err != nil {
		return fmt.Errorf("load authorization policies: %w", err)
	}

	tokens := auth.NewTokenManager(configStore.FlagJWTSecret, tokenTTL, clock.Real{})
	users := service.NewUserService(db, tokens, log)
	loyalty := service.NewLoyaltyService(db, publisher, m, log)
	catering := service.NewCateringService(db, loyalty, publisher, m, log)

	if configStore.FlagAdminEmail != "" {
		err := users.PromoteAdmin(ctx, configStore.FlagAdminEmail)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			log.Warn("admin account is not registered yet", zap.String("email", configStore.FlagAdminEmail))
		case err != nil:
			return fmt.Errorf("promote admin: %w", err)
		}
	}

	ls := server.NewServerSystem(server.Dependencies{
		Users:      users,
		Loyalty:    loyalty,
		Rewards:    service.NewRewardCatalog(db, log),
		Catering:   catering,
		Tokens:     tokens,
		Authorizer: authz.NewAuthorizer(enforcer, log),
		Limiter:    ratelimit.NewFixedWindow(redisClient, configStore.RateLimitPerMinute, time.Minute, clock.Real{}),
		Metrics:    m,
		Health:     db,
		StaticDir:  configStore.FlagStaticDir,
	}, log)
	srv := ls.MakeServer(configStore.FlagRunAddr)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", configStore.FlagRunAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
