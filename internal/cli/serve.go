package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hermes-labs/keeper/internal/config"
	"github.com/hermes-labs/keeper/internal/engine"
	"github.com/hermes-labs/keeper/internal/server"
	"github.com/hermes-labs/keeper/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Default()

	dbPath := cfg.Database.Path
	if p := os.Getenv("KEEPER_DB"); p != "" {
		dbPath = p
	}
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	eng, err := engine.New(cfg, db)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	if err := eng.LoadFromDB(); err != nil {
		return fmt.Errorf("load working set: %w", err)
	}
	eng.StartSweepTimer()
	defer eng.Stop()

	srv := server.New(eng, db, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "keeper listening on http://%s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", dbPath)
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server: %w", err)
		}
	case sig := <-sigCh:
		fmt.Fprintf(os.Stderr, "received %s, shutting down\n", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}

	return nil
}
