package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/hieupm-149/Network-Programming-Final-Project/internal/auth"
	"github.com/hieupm-149/Network-Programming-Final-Project/internal/config"
	"github.com/hieupm-149/Network-Programming-Final-Project/internal/core"
	"github.com/hieupm-149/Network-Programming-Final-Project/internal/store"
	"github.com/hieupm-149/Network-Programming-Final-Project/internal/store/memory"
	"github.com/hieupm-149/Network-Programming-Final-Project/internal/store/sqlite"
	"github.com/hieupm-149/Network-Programming-Final-Project/internal/transport/tcp"
	"github.com/hieupm-149/Network-Programming-Final-Project/internal/transport/ws"
)

// App wires together store, core, and transport layers.
type App struct {
	tcpServer       *tcp.Server
	wsServer        *stdhttp.Server
	shutdownTimeout time.Duration
	creds           store.Credentials
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	var creds store.Credentials
	if cfg.DatabasePath != "" {
		st, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		logger.Info().Str("db_path", cfg.DatabasePath).Msg("sqlite credential store initialized")
		creds = st
	} else {
		creds = memory.New()
		logger.Info().Msg("in-memory credential store initialized")
	}

	authService := auth.NewService(creds, cfg.HashPasswords)
	hub := core.NewHub(authService, logger)

	a := &App{
		tcpServer:       tcp.New(cfg.Addr, hub, logger),
		shutdownTimeout: cfg.ShutdownTimeout,
		creds:           creds,
		log:             logger,
	}
	if cfg.WSAddr != "" {
		a.wsServer = ws.NewServer(cfg.WSAddr, hub, logger)
	}
	return a, nil
}

// Run starts the listeners and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 2)

	go func() {
		serverErr <- a.tcpServer.Run(ctx)
	}()

	if a.wsServer != nil {
		go func() {
			a.log.Info().Str("addr", a.wsServer.Addr).Msg("ws bridge started")
			if err := a.wsServer.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
				serverErr <- err
				return
			}
			serverErr <- nil
		}()
	}

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		if a.wsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
			defer cancel()

			a.log.Info().Msg("shutting down ws bridge")
			if err := a.wsServer.Shutdown(shutdownCtx); err != nil {
				a.cleanup()
				return err
			}
		}
		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the credential store and other resources.
func (a *App) cleanup() {
	if a.creds != nil {
		if err := a.creds.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close credential store")
		} else {
			a.log.Info().Msg("credential store closed")
		}
	}
}
