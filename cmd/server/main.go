// @title        OracadeHub Learning Portal API
// @version      1.0
// @description  Session, sign-in and health endpoints of the OracadeHub learning portal.
// @BasePath     /
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

	"go.mongodb.org/mongo-driver/mongo/readpref"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/oracadehub/learning-portal/internal/api"
	"github.com/oracadehub/learning-portal/internal/api/handler"
	"github.com/oracadehub/learning-portal/internal/api/middleware"
	"github.com/oracadehub/learning-portal/internal/api/session"
	"github.com/oracadehub/learning-portal/internal/api/view"
	"github.com/oracadehub/learning-portal/internal/content"
	"github.com/oracadehub/learning-portal/internal/core/service"
	"github.com/oracadehub/learning-portal/internal/infrastructure/config"
	mongodb "github.com/oracadehub/learning-portal/internal/infrastructure/db/mongo"
	redisdb "github.com/oracadehub/learning-portal/internal/infrastructure/db/redis"
	"github.com/oracadehub/learning-portal/internal/infrastructure/identity"
	"github.com/oracadehub/learning-portal/internal/infrastructure/queue"
	"github.com/oracadehub/learning-portal/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "learning-portal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Development(),
		Service: "learning-portal",
	})
	log.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("configuration loaded")

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect failed")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	accounts := mongodb.NewAccountRepository(db)
	roles := mongodb.NewRoleRepository(db)
	courses := mongodb.NewCourseRepository(db)
	enrollments := mongodb.NewEnrollmentRepository(db)
	audit := mongodb.NewAuditRepository(db)

	for _, repo := range []indexer{accounts, roles, courses, enrollments, audit} {
		if err := repo.EnsureIndexes(ctx); err != nil {
			return err
		}
	}

	// --- Services ---
	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, service.NewAuditService(audit, logger.Component("audit")), logger.Component("dispatcher"))

	backend := identity.NewBackend(
		accounts,
		redisdb.NewSessionStore(rdb, cfg.Session.TTL),
		redisdb.NewStateStore(rdb),
		identity.GoogleConfig{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
		},
		logger.Component("identity"),
	)

	sessions := session.NewManager(session.Config{
		Secret: cfg.Session.Secret,
		TTL:    cfg.Session.TTL,
		Secure: !cfg.Development(),
	}, backend, roles, dispatcher, logger.Component("session"))

	blog, err := service.NewBlogService(content.Posts())
	if err != nil {
		return err
	}
	renderer, err := view.NewRenderer()
	if err != nil {
		return err
	}

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.Auth.RateLimit), cfg.Auth.RateBurst)

	e := api.NewRouter(api.Deps{
		Sessions:    sessions,
		RateLimiter: limiter,
		Renderer:    renderer,
		Posts:       blog,
		Dashboards:  service.NewDashboardService(enrollments, courses, logger.Component("dashboard")),
		Checks: map[string]handler.Check{
			"mongodb": func(ctx context.Context) error { return mongoClient.Ping(ctx, readpref.Primary()) },
			"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		GoogleClientID: cfg.Google.ClientID,
		Log:            log,
	})

	// --- Run until signalled ---
	g, gCtx := errgroup.WithContext(ctx)

	dispatcher.Start(gCtx)
	g.Go(func() error {
		sessions.Run(gCtx)
		return nil
	})
	g.Go(func() error {
		limiter.Run(gCtx)
		return nil
	})

	address := ":" + cfg.Port
	g.Go(func() error {
		log.Info().Str("address", address).Msg("starting learning portal")
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	log.Info().Msg("server exited properly")
	return nil
}
