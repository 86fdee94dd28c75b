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

	"github.com/gorilla/sessions"
	"github.com/hashicorp/go-hclog"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"github.com/petermazzocco/photo-lobby/internal/auth"
	"github.com/petermazzocco/photo-lobby/internal/blob"
	"github.com/petermazzocco/photo-lobby/internal/config"
	"github.com/petermazzocco/photo-lobby/internal/handlers"
	"github.com/petermazzocco/photo-lobby/internal/service"
	"github.com/petermazzocco/photo-lobby/internal/store"
	"github.com/petermazzocco/photo-lobby/internal/transform"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func main() {
	flags := config.Flags()
	root := &cobra.Command{
		Use:           "lobby",
		Short:         "Shared photo lobby API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().AddFlagSet(flags)
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, log, err := setup(flags)
				if err != nil {
					return err
				}
				return serve(cmd.Context(), cfg, log)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, log, err := setup(flags)
				if err != nil {
					return err
				}
				db, err := store.Open(cfg.Database.Driver, cfg.Database.DSN, log.Named("db"))
				if err != nil {
					return err
				}
				if err := store.Migrate(db); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				log.Info("schema up to date")
				return nil
			},
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setup(flags *pflag.FlagSet) (*config.Config, hclog.Logger, error) {
	cfg, err := config.Load(flags)
	if err != nil {
		return nil, nil, err
	}
	log := hclog.New(&hclog.LoggerOptions{
		Name:       "lobby",
		Level:      hclog.LevelFromString(cfg.LogLevel),
		JSONFormat: cfg.IsProd,
		Output:     os.Stderr,
	})
	return cfg, log, nil
}

func newBlobStore(ctx context.Context, cfg config.BlobConfig) (blob.Store, error) {
	if cfg.Driver == "memory" {
		return blob.NewMemory(), nil
	}
	client, err := blob.NewR2Client(ctx, cfg.AccountID, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, err
	}
	return blob.NewS3(client, cfg.Bucket), nil
}

func newSessionStore(cfg *config.Config) *sessions.CookieStore {
	maxAge := 86400 * 30
	store := sessions.NewCookieStore([]byte(cfg.Auth.SessionSecret))
	store.MaxAge(maxAge)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.IsProd
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}

func serve(ctx context.Context, cfg *config.Config, log hclog.Logger) error {
	db, err := store.Open(cfg.Database.Driver, cfg.Database.DSN, log.Named("db"))
	if err != nil {
		return err
	}
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	blobs, err := newBlobStore(ctx, cfg.Blob)
	if err != nil {
		return err
	}
	if cfg.Blob.Driver == "memory" {
		log.Warn("using in-memory blob store, images are lost on restart")
	}

	// OAuth
	goth.UseProviders(google.New(cfg.Auth.GoogleKey, cfg.Auth.GoogleSecret, cfg.Auth.CallbackURL, "email", "profile"))
	cookies := newSessionStore(cfg)
	gothic.Store = cookies
	resolver := auth.SessionResolver{Store: cookies}

	svc := service.New(store.New(db), blobs, transform.Bimg{}, log.Named("service"))
	api := handlers.NewAPI(svc, resolver, handlers.Gothic{}, log.Named("http"))
	api.AfterLogin = cfg.Auth.AfterLoginURL

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: handlers.NewRouter(api, resolver, handlers.RouterOptions{
			AllowedOrigins: cfg.AllowedOrigins,
			RateLimit:      cfg.RateLimit,
			AccessLog:      true,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          log.StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true}),
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("starting API server", "addr", cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
