// ABOUTME: dev-server command: serves an in-memory backend for local use
// ABOUTME: Seeds demo accounts so the CLI and TUI can be tried without the real platform

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/markalston/placement-cli/internal/config"
	"github.com/markalston/placement-cli/internal/fakeapi"
	"github.com/markalston/placement-cli/internal/logger"
)

var (
	devAddr  string
	devEmpty bool
)

var devServerCmd = &cobra.Command{
	Use:   "dev-server",
	Short: "Run an in-memory placement backend",
	Long: `Run an in-memory implementation of the placement REST API under /api.

Data lives only as long as the process. Unless --empty is given, demo
accounts are created; their credentials are printed at startup.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		logger.Init(os.Stderr)
		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		if exitCode := runDevServer(ctx, cfg, os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(devServerCmd)
	devServerCmd.Flags().StringVar(&devAddr, "addr", "", "Listen address (default: PLACEMENT_DEV_ADDR or 127.0.0.1:8000)")
	devServerCmd.Flags().BoolVar(&devEmpty, "empty", false, "Start without demo data")
}

func newDevBackend(cfg *config.Config) (*fakeapi.Server, *fakeapi.Demo, error) {
	var opts []fakeapi.Option
	if cfg.DevSecret != "" {
		opts = append(opts, fakeapi.WithSecret(cfg.DevSecret))
	}
	srv := fakeapi.New(opts...)
	if devEmpty {
		return srv, nil, nil
	}
	demo, err := fakeapi.Seed(srv)
	if err != nil {
		return nil, nil, fmt.Errorf("seeding demo data: %w", err)
	}
	return srv, &demo, nil
}

// runDevServer serves until ctx is canceled.
func runDevServer(ctx context.Context, cfg *config.Config, w io.Writer) int {
	addr := devAddr
	if addr == "" {
		addr = cfg.DevAddr
	}

	backend, demo, err := newDevBackend(cfg)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           backend.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	fmt.Fprintf(w, "Serving placement API at http://%s/api\n", addr)
	if demo != nil {
		fmt.Fprintf(w, "Demo accounts (password %q):\n", fakeapi.DemoPassword)
		fmt.Fprintf(w, "  admin    %s\n", demo.AdminEmail)
		fmt.Fprintf(w, "  company  %s\n", demo.CompanyEmail)
		fmt.Fprintf(w, "  intern   %s\n", demo.InternEmail)
	}

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
		return 0
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Server shutdown", "error", err)
	}
	return 0
}
