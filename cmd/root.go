// ABOUTME: Root command for the placement CLI
// ABOUTME: Handles global flags, configuration, and wiring of the session and API client

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/markalston/placement-cli/internal/access"
	"github.com/markalston/placement-cli/internal/client"
	"github.com/markalston/placement-cli/internal/config"
	"github.com/markalston/placement-cli/internal/logger"
	"github.com/markalston/placement-cli/internal/model"
	"github.com/markalston/placement-cli/internal/session"
)

var (
	apiURL     string
	jsonOutput bool
	configPath string
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "placement",
	Short: "Terminal client for the internship placement platform",
	Long: `placement is a command-line and terminal UI client for the internship
placement platform. Interns browse offers and apply, companies publish offers
and review applications, and administrators manage accounts.

Exit codes:
  0 - Success
  1 - Action refused (wrong role, rejected credentials, validation)
  2 - Error (connectivity, configuration, not logged in)

Environment Variables:
  PLACEMENT_API_URL        Backend API URL (default: http://localhost:8000/api)
  PLACEMENT_SESSION_STORE  file, redis or memory (default: file)
  PLACEMENT_REDIS_URL      Redis URL when the session store is redis
  PLACEMENT_ALL_PROXY      ssh+socks5://user@jumpbox:22?private-key=/path
  PLACEMENT_POLL_INTERVAL  Notification poll interval (default: 30s)
  LOG_LEVEL, LOG_FORMAT    Logging (default: warn, text)`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides PLACEMENT_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/placement/config.yaml)")
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}

// deps holds what every command needs, built once per invocation.
type deps struct {
	cfg     *config.Config
	api     *client.Client
	store   session.Store
	session *session.Manager
}

// loadConfig reads configuration and applies the --api-url override.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newDeps builds the API client, the session store and the session manager.
// The client reads its bearer token from the manager, and a rejected session
// clears the manager.
func newDeps(ctx context.Context, cfg *config.Config) (*deps, error) {
	opts := []client.Option{
		client.WithTimeout(cfg.HTTPTimeout),
		client.WithOfferCacheTTL(cfg.OfferCacheTTL),
	}
	if cfg.AllProxy != "" {
		dial, err := client.SOCKS5DialContext(cfg.AllProxy)
		if err != nil {
			return nil, fmt.Errorf("configuring proxy: %w", err)
		}
		opts = append(opts, client.WithDialContext(dial))
	}
	api := client.New(cfg.APIURL, opts...)

	store, err := openStore(ctx, cfg)
	if err != nil {
		api.Close()
		return nil, err
	}
	return wire(cfg, api, store), nil
}

func wire(cfg *config.Config, api *client.Client, store session.Store) *deps {
	mgr := session.NewManager(store, api)
	api.SetTokenSource(mgr)
	api.OnUnauthorized(func() {
		mgr.Expire(context.Background())
	})
	return &deps{cfg: cfg, api: api, store: store, session: mgr}
}

func openStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	switch cfg.SessionStore {
	case config.StoreMemory:
		return session.NewMemoryStore(), nil
	case config.StoreRedis:
		return session.NewRedisStore(ctx, cfg.RedisURL, cfg.Profile, 0)
	default:
		return session.NewFileStore(cfg.ConfigDir), nil
	}
}

// Close releases the client and, for redis, the store connection.
func (d *deps) Close() {
	d.api.Close()
	if c, ok := d.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			slog.Debug("Closing session store", "error", err)
		}
	}
}

// runFunc is the shape of every command body.
type runFunc func(ctx context.Context, d *deps, w io.Writer) int

// execute loads configuration, builds deps, runs fn and exits with its code.
func execute(fn runFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
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

	exitCode := fn(ctx, d, os.Stdout)
	d.Close()
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// command wraps a runFunc as a cobra Run function.
func command(fn runFunc) func(*cobra.Command, []string) {
	return func(*cobra.Command, []string) { execute(fn) }
}

// require restores the session and gates it like a protected route. It
// returns 0 when the command may proceed, otherwise the exit code after
// printing why.
func (d *deps) require(ctx context.Context, w io.Writer, roles ...model.Role) int {
	d.session.Initialize(ctx)

	dec := access.Decide(d.session.Snapshot(), roles, false)
	switch dec.Kind {
	case access.Render:
		return 0
	case access.Redirect:
		if dec.Target == access.Login {
			fmt.Fprintln(w, "Error: not logged in. Run 'placement login' first.")
			return 2
		}
		fmt.Fprintf(w, "Error: this command is for %s accounts; you are logged in as %s.\n",
			roleList(roles), d.session.Snapshot().Role().Label())
		return 1
	default:
		fmt.Fprintln(w, "Error: session is still loading")
		return 2
	}
}

func roleList(roles []model.Role) string {
	s := ""
	for i, r := range roles {
		switch {
		case i == 0:
		case i == len(roles)-1:
			s += " or "
		default:
			s += ", "
		}
		s += r.Label()
	}
	return s
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) int {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	fmt.Fprintln(w, string(data))
	return 0
}

// failure prints err the way every command does and maps it to an exit code:
// refusals (forbidden, validation, not found) are 1, everything else 2.
func failure(w io.Writer, err error) int {
	msg := err.Error()
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message() != "" {
		msg = apiErr.Message()
	}
	fmt.Fprintf(w, "Error: %s\n", msg)

	switch client.KindOf(err) {
	case client.KindForbidden, client.KindValidation, client.KindNotFound:
		return 1
	default:
		return 2
	}
}
