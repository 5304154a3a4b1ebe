/*
main.go - Application entry point

PURPOSE:
  Command-line entry point of the agency analytics service. Builds the
  store, optional cache and event publisher, and runs one of the commands.

COMMANDS:
  serve                       HTTP API (default when no command is given)
  import <file.xlsx>          Import a workbook into the configured database
  sample <out.xlsx>           Write a demo workbook (--scenario demo|minimo)

STARTUP SEQUENCE (serve):
  1. Load configuration (flags, env, .env, viajante.yaml)
  2. Initialize logging
  3. Open SQLite store
  4. Connect Redis cache and RabbitMQ publisher when configured
  5. Configure HTTP router and the watched-file importer
  6. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the watched-file importer
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close publisher, cache and database
  5. Exit

EXAMPLES:
  # Run with file database
  ./server serve --db="./data/viajante.db"

  # Run with in-memory database and the demo data
  ./server serve --db=":memory:"
  curl -X POST localhost:8000/scenarios/load -d '{"scenario_id":"demo"}'

  # Import from the command line
  ./server import agencia.xlsx

ENVIRONMENT:
  Every flag has a VIAJANTE_ variable, see config/config.go.

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration sources
  - store/sqlite/sqlite.go: Database implementation
*/
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

	"github.com/op/go-logging"
	"github.com/spf13/cobra"
	"github.com/viajante/agency-analytics/api"
	"github.com/viajante/agency-analytics/config"
)

var log = logging.MustGetLogger("server")

func main() {
	rootCmd := &cobra.Command{
		Use:   "server",
		Short: "Travel agency analytics service",
		Long: `Imports the agency workbook (reservas, clientes, destinos) into SQLite
and serves the reservation listing and analytics over HTTP.`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			Args:  cobra.NoArgs,
			RunE:  runServe,
		},
		newImportCmd(),
		newSampleCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	deps, err := openDeps(cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	// Initialize handler
	handler := api.NewHandler(deps.Service, deps.Store)
	handler.MaxUploadBytes = cfg.MaxUploadBytes()

	// Create router
	router := api.NewRouter(handler, cfg.CORSOrigins)

	// Watched-file importer
	watcher := api.NewImportWatcher(deps.Service, cfg.WatchPath)
	watcher.CheckInterval = cfg.WatchInterval
	watcher.Start()
	defer watcher.Stop()

	// Create server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Server starting on %s (db %s)", cfg.Addr, cfg.DB)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

// setup loads the configuration and initializes logging.
func setup(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := InitLogger(cfg.LogLevel); err != nil {
		return nil, err
	}
	log.Debugf("Config: addr=%s db=%s redis=%q amqp-queue=%s watch=%q", cfg.Addr, cfg.DB, cfg.RedisAddr, cfg.AMQPQueue, cfg.WatchPath)
	return cfg, nil
}
