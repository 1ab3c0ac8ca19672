package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetupboard/pkg/cli/config"
	httpctrl "github.com/secmon-lab/meetupboard/pkg/controller/http"
	"github.com/secmon-lab/meetupboard/pkg/metrics"
	"github.com/secmon-lab/meetupboard/pkg/service/worker"
	"github.com/secmon-lab/meetupboard/pkg/usecase"
	"github.com/secmon-lab/meetupboard/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var apiKey string
	var enableMetrics bool
	var appCfg config.App
	var repoCfg config.Repository
	var graphCfg config.Graph
	var leaderboardCfg config.Leaderboard

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("MEETUPBOARD_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "api-key",
			Usage:       "Shared secret expected in the X-Key header",
			Required:    true,
			Sources:     cli.EnvVars("MEETUPBOARD_API_KEY"),
			Destination: &apiKey,
		},
		&cli.BoolFlag{
			Name:        "metrics",
			Usage:       "Expose Prometheus metrics at /metrics",
			Value:       true,
			Sources:     cli.EnvVars("MEETUPBOARD_METRICS"),
			Destination: &enableMetrics,
		},
	}

	// Add shared config flags
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, graphCfg.Flags()...)
	flags = append(flags, leaderboardCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.Default().Info("Serve configuration",
				"repository", repoCfg,
				"graph", graphCfg,
				"leaderboard", leaderboardCfg,
			)

			app, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load application configuration")
			}

			repo, err := repoCfg.Configure(ctx, app.SeedUsers())
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			clients, err := graphCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure graph")
			}

			ucOpts, err := leaderboardCfg.Configure(app)
			if err != nil {
				return err
			}
			uc := usecase.New(repo, clients.Service, ucOpts...)

			// Keep the bot credential warm between requests
			var botWorker *worker.TokenRefreshWorker
			if clients.BotTokenRefreshInterval > 0 {
				botWorker, err = worker.NewTokenRefreshWorker("bot", clients.Bot, clients.BotTokenRefreshInterval)
				if err != nil {
					return goerr.Wrap(err, "failed to create bot token refresh worker")
				}
				if err := botWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start bot token refresh worker")
				}
			}

			if enableMetrics {
				metrics.InitMetrics()
			}

			httpHandler, err := httpctrl.New(uc.Leaderboard, apiKey,
				httpctrl.WithPrewarmer(clients.Bot),
				httpctrl.WithMetrics(enableMetrics),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr, "metrics", enableMetrics)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				if botWorker != nil {
					botWorker.Stop()
				}
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				if botWorker != nil {
					botWorker.Stop()
				}

				// Create shutdown context with timeout
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				// Attempt graceful shutdown
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
