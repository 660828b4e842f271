package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/pantry/am"
	"github.com/teranos/pantry/errors"
	"github.com/teranos/pantry/logger"
	"github.com/teranos/pantry/plan/parser"
	"github.com/teranos/pantry/server"
)

// ServerCmd runs the HTTP API
var ServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the pantry HTTP API",
	Long: `Start the HTTP API and the WebSocket list feed.

Endpoints:
  GET  /health             liveness and client count
  GET  /api/items          current list
  POST /api/plan           compile {"utterance": "..."} into a plan
  POST /api/plan/execute   apply a plan, returns per-entry outcomes
  GET  /ws                 list snapshots and updates

Changes to executor.floor_policy in the active config file are applied
without a restart.`,
	Args: cobra.NoArgs,
	RunE: runServer,
}

var (
	serverPort            int
	serverShutdownTimeout time.Duration
)

func init() {
	ServerCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "Port to listen on (default from server.port)")
	ServerCmd.Flags().DurationVar(&serverShutdownTimeout, "shutdown-timeout", 10*time.Second, "Time allowed for graceful shutdown")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}

	port := cfg.GetServerPort()
	if serverPort != 0 {
		port = serverPort
	}

	store, database, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	exec, err := buildExecutor(store, cfg, "")
	if err != nil {
		return err
	}

	srv := server.New(store, parser.NewCompiler(logger.Named("parser")), exec, cfg.Server, logger.Named("server"))

	if path := am.ConfigFileUsed(); path != "" {
		cw, err := am.NewConfigWatcher(path)
		if err != nil {
			logger.Warnw("Config hot reload disabled", logger.FieldPath, path, logger.FieldError, err)
		} else {
			srv.WatchConfig(cw)
			cw.Start()
			defer cw.Stop()
		}
	}

	pterm.DefaultHeader.Println("pantry server")
	pterm.Info.Printfln("Listening on http://localhost:%d", port)
	pterm.Info.Printfln("Floor policy: %s", exec.FloorPolicy())

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.ListenAndServe(fmt.Sprintf(":%d", port))
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return errors.Wrap(err, "server stopped unexpectedly")
	case <-sigChan:
		pterm.Info.Println("Shutting down gracefully (press Ctrl+C again to force)...")

		ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
		defer cancel()

		shutdownDone := make(chan error, 1)
		go func() {
			shutdownDone <- srv.Shutdown(ctx)
		}()

		select {
		case err := <-shutdownDone:
			if err != nil {
				return errors.Wrap(err, "shutdown error")
			}
			pterm.Success.Println("Server stopped cleanly")
			return nil
		case <-sigChan:
			pterm.Warning.Println("Force shutdown - exiting immediately")
			os.Exit(1)
			return nil
		}
	}
}
