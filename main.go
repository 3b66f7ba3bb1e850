package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/danielhkuo/servicoja/auth"
	"github.com/danielhkuo/servicoja/cliparse"
	"github.com/danielhkuo/servicoja/db"
	"github.com/danielhkuo/servicoja/metrics"
	"github.com/danielhkuo/servicoja/middleware"
	"github.com/danielhkuo/servicoja/router"
	"github.com/danielhkuo/servicoja/seed"
	"github.com/danielhkuo/servicoja/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg cliparse.Config) error {
	storage, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer storage.Close()

	if cfg.SeedDemoData {
		if _, err := seed.Run(ctx, storage, seed.Options{BcryptCost: cfg.BcryptCost}); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	mux := router.NewRouter(storage, cfg, router.Deps{Tokens: tokens})

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateBurst)
	limiter.OnLimited = metrics.RecordRateLimited
	go limiter.Run(ctx, time.Minute)

	// Outermost first: metrics see every response, including 429s
	authn := middleware.NewAuthenticator(tokens)
	handler := metrics.Instrument(middleware.CORS(authn.Identify(limiter.Middleware(mux))))

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("Listening", "port", cfg.Port, "storage", cfg.DatabaseType)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("Server closed")
	return nil
}

func openStore(ctx context.Context, cfg cliparse.Config) (store.Storage, error) {
	if cfg.DatabaseType == cliparse.DatabaseMemory {
		slog.Warn("using in-memory storage, data is lost on exit")
		return store.NewMemoryStore(), nil
	}

	conn, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if err := db.CreateSchema(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("schema creation failed: %w", err)
	}
	slog.Info("Database schema ready")

	return store.NewPostgresStore(conn), nil
}
