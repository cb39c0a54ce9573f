package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/anushka-codergirl/workoutwise/internal/application"
	appai "github.com/anushka-codergirl/workoutwise/internal/application/ai"
	appreport "github.com/anushka-codergirl/workoutwise/internal/application/report"
	"github.com/anushka-codergirl/workoutwise/internal/config"
	domainai "github.com/anushka-codergirl/workoutwise/internal/domain/ai"
	"github.com/anushka-codergirl/workoutwise/internal/domain/report"
	domainstorage "github.com/anushka-codergirl/workoutwise/internal/domain/storage"
	"github.com/anushka-codergirl/workoutwise/internal/domain/usage"
	"github.com/anushka-codergirl/workoutwise/internal/infra/ai/gemini"
	"github.com/anushka-codergirl/workoutwise/internal/infra/ai/openai"
	"github.com/anushka-codergirl/workoutwise/internal/infra/ai/prompt"
	mysqlp "github.com/anushka-codergirl/workoutwise/internal/infra/db/mysql"
	postgresp "github.com/anushka-codergirl/workoutwise/internal/infra/db/postgres"
	"github.com/anushka-codergirl/workoutwise/internal/infra/httpserver"
	"github.com/anushka-codergirl/workoutwise/internal/infra/pdf"
	"github.com/anushka-codergirl/workoutwise/internal/infra/storage"
	"github.com/anushka-codergirl/workoutwise/internal/middleware"
	"github.com/anushka-codergirl/workoutwise/internal/web"
)

const defaultOpenAIModel = "gpt-4o-mini"

// journal is what the usage repositories offer on top of usage.Repository.
type journal interface {
	usage.Repository
	EnsureSchema(ctx context.Context) error
	Ping(ctx context.Context) error
}

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// load config (CONFIG_PATH, default config.yaml)
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("config load error: %w", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("storage init error: %w", err)
	}
	if err := store.Prepare(ctx, domainstorage.AreaUpload, domainstorage.AreaDownload); err != nil {
		return fmt.Errorf("storage prepare error: %w", err)
	}

	janitor := storage.NewJanitor(store, logger, 30*time.Second)
	if err := janitor.PurgeAll(ctx, domainstorage.AreaUpload, domainstorage.AreaDownload); err != nil {
		logger.Warn("startup purge incomplete", "error", err)
	}

	describer, err := newDescriber(ctx, cfg)
	if err != nil {
		return fmt.Errorf("ai init error: %w", err)
	}

	health := map[string]middleware.HealthChecker{
		"storage": middleware.HealthCheckFunc(store.Check),
	}

	var repo usage.Repository
	if cfg.Database.Driver != "" {
		j, closeDB, err := newJournal(ctx, cfg)
		if err != nil {
			return fmt.Errorf("%s connect error: %w", cfg.Database.Driver, err)
		}
		defer closeDB()
		if err := j.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("usage schema error: %w", err)
		}
		repo = j
		health["database"] = &middleware.DatabaseHealthChecker{DB: j}
	}

	clock := application.SystemClock{}
	analyzer := &appai.Service{
		Describer: describer,
		Store:     store,
		Journal:   repo,
		Clock:     clock,
		Logger:    logger,
		Prompt:    prompt.GetWorkoutPrompt(),
		Timeout:   cfg.AI.Timeout,
	}
	reports := &appreport.Service{
		Renderer: pdf.NewRenderer(pdf.Options{
			Fit:      report.FitPolicy(cfg.Report.Fit),
			BoxSize:  cfg.Report.BoxSize,
			Compress: cfg.Report.Compress,
			Clock:    clock,
		}),
		Store:      store,
		Sweeper:    janitor,
		Journal:    repo,
		Clock:      clock,
		Logger:     logger,
		Title:      cfg.Report.Title,
		FilePrefix: cfg.Report.FilenamePrefix,
	}

	var limiter *middleware.RateLimiter
	if cfg.Server.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.Server.RateLimit)
	}

	handler := httpserver.NewRouter(httpserver.Options{
		Analyzer:       analyzer,
		Reports:        reports,
		Journal:        repo,
		Logger:         logger,
		Health:         health,
		Metrics:        map[string]func() map[string]any{"janitor": janitor.Stats},
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		MaxJSONBytes:   cfg.Server.MaxJSONBytes,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateLimiter:    limiter,
		Static:         web.StaticFS,
	})

	// no WriteTimeout by default: a slow model call must not cut the response
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       time.Minute,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Env, "ai", cfg.AI.Provider, "storage", cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if limiter != nil {
		g.Go(func() error {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case now := <-ticker.C:
					limiter.Prune(now)
				}
			}
		})
	}

	// graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	janitor.Wait()
	logger.Info("stopped server", "cleanup", janitor.Stats())
	return err
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func newStore(ctx context.Context, cfg *config.Config) (domainstorage.Store, error) {
	switch cfg.Storage.Backend {
	case "minio":
		m := cfg.Storage.Minio
		return storage.NewMinio(ctx, m.Endpoint, m.Region, m.BucketName, m.AccessKey, m.SecretKey, m.UseSSL)
	default:
		return storage.NewLocal(cfg.Storage.Dir), nil
	}
}

func newDescriber(ctx context.Context, cfg *config.Config) (domainai.Describer, error) {
	switch strings.ToLower(cfg.AI.Provider) {
	case "openai":
		model := cfg.AI.Model
		if model == "" {
			model = defaultOpenAIModel
		}
		return openai.NewClient(cfg.AI.APIKey, model, cfg.AI.BaseURL), nil
	default:
		return gemini.NewClient(ctx, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL)
	}
}

func newJournal(ctx context.Context, cfg *config.Config) (journal, func(), error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.DSN())
		if err != nil {
			return nil, nil, err
		}
		return postgresp.NewUsageRepository(db), func() { db.Close() }, nil
	default:
		db, err := mysqlp.Connect(ctx, cfg.DSN())
		if err != nil {
			return nil, nil, err
		}
		return mysqlp.NewUsageRepository(db), func() { db.Close() }, nil
	}
}
