package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"atelier/api/internal/app"
	"atelier/api/internal/auth"
	"atelier/api/internal/config"
	"atelier/api/internal/contact"
	"atelier/api/internal/email"
	"atelier/api/internal/logger"
	"atelier/api/internal/schema"
	"atelier/api/internal/search"
	"atelier/api/internal/store"
	"atelier/api/internal/upload"
)

func main() {
	if err := config.LoadEnvFiles(); err != nil {
		fmt.Fprintf(os.Stderr, "env files: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Load()

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Development: cfg.IsDevelopment()})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("api stopped", logger.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, log logger.Logger) error {
	ctx := context.Background()

	registry, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	backend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backend.Close()

	limiterClient, err := openRateLimitClient(ctx, cfg)
	switch {
	case errors.Is(err, contact.ErrSharedKeyspace):
		return fmt.Errorf("%w: set CONTACT_REDIS_URL to another database or set CMS_REDIS_NAMESPACE", err)
	case err != nil:
		log.Warn("contact rate limit disabled", logger.Error(err))
	default:
		defer limiterClient.Close()
	}

	content := store.NewContentStore(backend)

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey, log)
	}
	scan := search.NewScan(content, func() []string {
		ids := make([]string, 0)
		for _, c := range registry.Categories() {
			ids = append(ids, c.ID)
		}
		return ids
	})
	searchService := search.NewService(meiliClient, scan, log)
	defer searchService.Close()
	go searchService.Reindex(ctx)

	opts := app.Options{
		Content:  content,
		Registry: registry,
		Search:   searchService,
		Contact:  newContactService(cfg, limiterClient, log),
		Logger:   log,
	}
	uploader, err := upload.New(upload.Config{
		Endpoint:  cfg.UploadsEndpoint,
		AccessKey: cfg.UploadsAccessKey,
		SecretKey: cfg.UploadsSecretKey,
		Bucket:    cfg.UploadsBucket,
		BucketURL: cfg.UploadsBucketURL,
		Region:    cfg.UploadsRegion,
		UseSSL:    cfg.UploadsUseSSL,
	}, log)
	switch {
	case err == nil:
		opts.Uploads = uploader
	case errors.Is(err, upload.ErrNotConfigured):
		log.Warn("uploads disabled", logger.Error(err))
	default:
		return err
	}

	gate := auth.NewGate(cfg.AllowedEmails, cfg.IsDevelopment(), cfg.DevelopmentAdminUser)
	if len(cfg.AllowedEmails) == 0 {
		log.Warn("ALLOWED_EMAILS is empty; every admin request will be refused")
	}

	httpServer := app.NewHTTPServer(app.NewService(opts), gate, cfg.CORSOrigin, log)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("content API listening",
			logger.String("addr", cfg.Addr),
			logger.String("backend", cfg.Backend),
			logger.String("env", cfg.Environment),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-sigCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown error", logger.Error(err))
	}
	return nil
}

func loadRegistry(cfg config.Config) (*schema.Registry, error) {
	if cfg.SchemaFile == "" {
		return schema.Default(), nil
	}
	registry, err := schema.LoadFile(cfg.SchemaFile)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	return registry, nil
}

func openBackend(ctx context.Context, cfg config.Config, log logger.Logger) (store.Backend, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		return store.NewRedisBackend(cfg.RedisURL, cfg.RedisNamespace)
	case config.BackendBadger:
		backend, err := store.OpenBadger(cfg.BadgerDir)
		if err != nil {
			return nil, err
		}
		log.Info("using badger content store", logger.String("dir", cfg.BadgerDir))
		return backend, nil
	case config.BackendPostgres:
		db, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		var migrations fs.FS = store.Migrations()
		if cfg.MigrationsDir != "" {
			migrations = os.DirFS(cfg.MigrationsDir)
		}
		if err := store.ApplyMigrations(ctx, db, migrations); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
		return store.NewPostgresBackend(db), nil
	default:
		return nil, fmt.Errorf("unknown CONTENT_BACKEND %q", cfg.Backend)
	}
}

// openRateLimitClient connects to CONTACT_REDIS_URL. Counters are written
// under "rate_limit:{ip}", so they must never land in the database holding
// unnamespaced content keys.
func openRateLimitClient(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if cfg.Backend == config.BackendRedis && cfg.RedisNamespace == "" {
		shared, err := contact.SharesKeyspace(cfg.RedisURL, cfg.ContactRedisURL)
		if err != nil {
			return nil, err
		}
		if shared {
			return nil, contact.ErrSharedKeyspace
		}
	}

	opt, err := redis.ParseURL(cfg.ContactRedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse CONTACT_REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to rate limit redis: %w", err)
	}
	return client, nil
}

func newContactService(cfg config.Config, limiterClient *redis.Client, log logger.Logger) *contact.Service {
	opts := contact.Options{VerifyTokens: !cfg.IsDevelopment()}

	if limiterClient != nil {
		opts.Limiter = contact.NewRedisLimiter(limiterClient, cfg.ContactRateLimit, cfg.ContactRateWindow)
	}

	if cfg.TurnstileSecretKey != "" {
		opts.Verifier = contact.NewTurnstileVerifier(cfg.TurnstileSecretKey)
	}

	mailer := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})
	switch {
	case cfg.DiscordWebhookURL != "":
		opts.Notifier = contact.NewDiscordNotifier(cfg.DiscordWebhookURL)
	case mailer.IsConfigured() && cfg.ContactNotifyTo != "":
		opts.Notifier = contact.NewEmailNotifier(mailer, auth.ParseAllowList(cfg.ContactNotifyTo))
	default:
		log.Info("contact notifications are logged only (no webhook or SMTP configured)")
	}
	if cfg.DiscordSpamWebhookURL != "" {
		opts.Spam = contact.NewDiscordNotifier(cfg.DiscordSpamWebhookURL)
	}

	return contact.NewService(opts, log)
}
