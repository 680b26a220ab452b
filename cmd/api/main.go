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

	"github.com/book-network/cmd/api/auth"
	"github.com/book-network/cmd/api/book"
	"github.com/book-network/cmd/api/config"
	"github.com/book-network/cmd/api/database"
	bookhttp "github.com/book-network/cmd/api/http"
	"github.com/book-network/cmd/api/inmemory"
	"github.com/book-network/cmd/api/logging"
	"github.com/book-network/cmd/api/notifications"
	"github.com/book-network/cmd/api/storage"
	"github.com/book-network/cmd/api/user"
	"github.com/golang-migrate/migrate/v4"
)

// repository is what both stores implement.
type repository interface {
	book.Repository
	user.Repository
}

func main() {
	err := run()
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cfg.Log)
	logger.Info("starting book network", "config", cfg.String())

	repo, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	covers, err := openCovers(ctx, cfg)
	if err != nil {
		return err
	}

	ntfy := notifications.NewNtfy(cfg.Notifications.Enabled, cfg.Notifications.BaseURL, &http.Client{Timeout: cfg.Notifications.Timeout})
	issuer := auth.NewIssuer(cfg.Auth)

	userService := user.NewService(repo, auth.NewHasher(cfg.Auth.BcryptCost), issuer, ntfy, cfg.Accounts.ActivationTTL).
		WithLogger(logger.Named("accounts").Logger)
	err = userService.SeedRoles(ctx)
	if err != nil {
		return fmt.Errorf("seeding roles: %w", err)
	}

	bookService := book.NewService(repo, covers, ntfy, cfg.Notifications.Timeout).
		WithLogger(logger.Named("books").Logger)
	feedbackService := book.NewFeedbackService(repo)

	metrics := bookhttp.NewMetrics("booknetwork")
	handlers := bookhttp.Handlers{
		Books:     bookhttp.NewBookHandler(bookService, metrics, logger),
		Feedbacks: bookhttp.NewFeedbackHandler(feedbackService, metrics, logger),
		Accounts:  bookhttp.NewAuthHandler(userService, logger),
	}

	server := bookhttp.NewServer(bookhttp.ServerConfig{
		Port:           cfg.Server.Port,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, handlers, issuer, metrics, logger)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", server.Addr)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("unexpected http server error: %w", err)
		}
		close(serverErr)
	}()

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sc:
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownRelease()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP shutdown error: %w", err)
	}
	logger.Info("graceful shutdown complete")
	return nil
}

/* Opens the configured store. Postgres is migrated up before use. */
func openStore(cfg *config.Config, logger *logging.Logger) (repository, func(), error) {
	if cfg.Store == config.StoreMemory {
		store, err := inmemory.NewInMemoryStore()
		if err != nil {
			return nil, nil, fmt.Errorf("creating in memory store: %w", err)
		}
		logger.Warn("using the in memory store, data is lost on restart")
		return store, func() {}, nil
	}

	db, err := database.ConnectDb(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting with db: %w", err)
	}

	store := database.NewStore(db)
	err = database.MigrationUp(store, cfg.Database.MigrationsPath)
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		db.Close()
		return nil, nil, fmt.Errorf("migrating: %w", err)
	}
	return store, func() { db.Close() }, nil
}

func openCovers(ctx context.Context, cfg *config.Config) (book.FileStorage, error) {
	if cfg.Covers.Backend == config.CoversLocal {
		covers, err := storage.NewLocalStore(cfg.Covers.LocalDir)
		if err != nil {
			return nil, fmt.Errorf("opening local cover store: %w", err)
		}
		return covers, nil
	}

	covers, err := storage.NewMinIOStore(cfg.Covers.MinIO)
	if err != nil {
		return nil, fmt.Errorf("opening minio cover store: %w", err)
	}
	err = covers.EnsureBucket(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening minio cover store: %w", err)
	}
	return covers, nil
}
