// ABOUTME: tui command: starts the interactive terminal interface
// ABOUTME: Logs to debug.log in the config directory while the screen is in use

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/markalston/placement-cli/internal/logger"
	"github.com/markalston/placement-cli/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive terminal interface",
	Long: `Open the interactive terminal interface.

Browse and search offers, apply, review applications, manage your CV and
follow notifications. Press m for the menu and n for notifications.
Logs are written to debug.log in the configuration directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
		defer cancel()

		logger.Init(os.Stderr)
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		d, err := newDeps(ctx, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}

		exitCode := runTUI(d, os.Stderr)
		d.Close()
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(d *deps, w io.Writer) int {
	closeLog, err := logger.InitFile(d.cfg.ConfigDir)
	if err != nil {
		fmt.Fprintf(w, "Warning: %v; logging disabled\n", err)
		logger.Discard()
	} else {
		defer closeLog()
	}
	slog.Info("Starting TUI", "api_url", d.cfg.APIURL)

	err = tui.Run(tui.Options{
		Session:      d.session,
		API:          d.api,
		PollInterval: d.cfg.PollInterval,
		ConfigDir:    d.cfg.ConfigDir,
	})
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	return 0
}
