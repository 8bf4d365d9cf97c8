package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hieupm-149/Network-Programming-Final-Project/internal/app"
	"github.com/hieupm-149/Network-Programming-Final-Project/internal/config"
	"github.com/hieupm-149/Network-Programming-Final-Project/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		overrides  config.Config
	)

	root := &cobra.Command{
		Use:           "lobbyd",
		Short:         "Multi-user lobby server with rooms and broadcast chat",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the lobby server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootstrap := log.New(overrides.LogLevel)

			cfg, path, err := config.Load(bootstrap, configPath)
			if err != nil {
				return err
			}
			cfg.UpdateFrom(overrides)

			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting lobby server")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(cfg, logger)
			if err != nil {
				logger.Error().Err(err).Msg("startup failed")
				return err
			}

			if err := application.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("server exited with error")
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	serve.Flags().StringVarP(&configPath, "config", "c", "", "path to config.yaml")
	serve.Flags().StringVar(&overrides.Addr, "addr", "", "TCP listen address")
	serve.Flags().StringVar(&overrides.WSAddr, "ws-addr", "", "WebSocket bridge listen address")
	serve.Flags().StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	serve.Flags().StringVar(&overrides.DatabasePath, "db", "", "SQLite path for credentials (empty keeps them in memory)")
	serve.Flags().BoolVar(&overrides.HashPasswords, "hash-passwords", false, "store bcrypt digests instead of raw passwords")
	serve.Flags().DurationVar(&overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")

	root.AddCommand(serve)
	return root
}
