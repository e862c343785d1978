// Package main starts the authentication server: configuration, logging,
// database, repositories, services, handlers and the HTTP(S) listener.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/zkauth/internal/config"
	"github.com/atinyakov/zkauth/internal/db"
	"github.com/atinyakov/zkauth/internal/logger"
	"github.com/atinyakov/zkauth/internal/repository"
	"github.com/atinyakov/zkauth/internal/server/handler/http"
	"github.com/atinyakov/zkauth/internal/service"
	"github.com/atinyakov/zkauth/internal/session"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

func main() {
	options := config.Parse()

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, options, log.Log); err != nil {
		log.Log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, options *config.Options, zapLogger *zap.Logger) error {
	postgresDB, err := db.InitPostgres(ctx, options.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer postgresDB.Close()

	issuer, err := session.NewManager([]byte(options.SessionSecret), options.SessionTTL)
	if err != nil {
		return fmt.Errorf("init session issuer: %w", err)
	}

	clientRepo := repository.NewPostgresClientRepository(postgresDB)
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	sessionRepo := repository.NewPostgresSessionRepository(postgresDB)

	authService := service.NewAuthService(userRepo, sessionRepo, issuer, zapLogger)
	userService := service.NewUserService(userRepo)

	router := http.NewRouter(http.Deps{
		Clients:     clientRepo,
		Sessions:    issuer,
		Auth:        &http.AuthHandler{AuthService: authService, Log: zapLogger},
		Users:       &http.UserHandler{UserService: userService, Log: zapLogger},
		WWWDir:      options.WWWDir,
		CORSOrigins: options.CORSOrigins,
		Logger:      zapLogger,
	})

	server := &nethttp.Server{
		Addr:              options.Address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	db.StartExpiredSessionCleaner(gctx, postgresDB,
		options.CleanerInterval,
		options.SessionRetention,
		zapLogger,
	)

	g.Go(func() error {
		var err error
		if options.TLSCert != "" {
			server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Address))
			err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
		} else {
			zapLogger.Info("starting HTTP server", zap.String("addr", options.Address))
			err = server.ListenAndServe()
		}
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
