package cli

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/angelmondragon/saree-storefront/pkg/config"
	"github.com/angelmondragon/saree-storefront/pkg/db"
	"github.com/angelmondragon/saree-storefront/pkg/logger"
	"github.com/angelmondragon/saree-storefront/pkg/redis"
	"github.com/angelmondragon/saree-storefront/pkg/shopper"
	"github.com/angelmondragon/saree-storefront/pkg/shopper/bridge"
	"github.com/angelmondragon/saree-storefront/pkg/shopper/identity"
	"github.com/angelmondragon/saree-storefront/pkg/shopper/partition"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

var (
	ValidFormats  = []string{"text", "json"}
	ValidBackends = []string{BackendSQLite, BackendRedis, BackendMemory}
)

// RootOptions holds the global flags shared by every command.
type RootOptions struct {
	APIBaseURL string
	StatePath  string
	Backend    string
	RedisURL   string
	Format     string
	Verbose    bool

	cfg *config.ClientConfig
	// memory keeps the memory backend alive across commands run from one
	// process, which tests rely on.
	memory *partition.Memory
}

// NewRootCommand builds the shopper command tree. Defaults come from the
// STOREFRONT_* environment; flags override them.
func NewRootCommand() *cobra.Command {
	cfg, err := config.LoadClient()
	if err != nil {
		cfg = &config.ClientConfig{APIBaseURL: "http://localhost:8080", StatePath: ".shopper.db", StateBackend: BackendSQLite}
	}
	opts := &RootOptions{cfg: cfg}

	cmd := &cobra.Command{
		Use:   "shopper",
		Short: "Saree storefront shopper client",
		Long: `Manage a cart and wishlist against the saree storefront.

Guests keep their cart locally. Signing in replays it to the server and
switches to the account's partition.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}
			opts.Backend = strings.ToLower(strings.TrimSpace(opts.Backend))
			if !slices.Contains(ValidBackends, opts.Backend) {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid backend %q: must be one of %v", opts.Backend, ValidBackends), nil)
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.APIBaseURL, "api", cfg.APIBaseURL, "storefront API base URL")
	flags.StringVar(&opts.StatePath, "state", cfg.StatePath, "sqlite file holding local state")
	flags.StringVar(&opts.Backend, "backend", cfg.StateBackend, "state backend (sqlite|redis|memory)")
	flags.StringVar(&opts.RedisURL, "redis-url", cfg.StateRedisURL, "redis URL for --backend=redis")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewRefreshCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewCartCommand(opts))
	cmd.AddCommand(NewWishlistCommand(opts))
	cmd.AddCommand(NewProductsCommand(opts))

	return cmd
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context) int {
	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if GetExitCode(err) == ExitCommandError {
			fmt.Fprintln(os.Stderr, err)
		}
		return GetExitCode(err)
	}
	return ExitSuccess
}

func (o *RootOptions) output(cmd *cobra.Command) *Output {
	return &Output{Format: o.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: o.Verbose}
}

func (o *RootOptions) logger(cmd *cobra.Command) *logger.Logger {
	level := o.cfg.LogLevel
	if o.Verbose {
		level = "debug"
	}
	return logger.New(logger.Options{ServiceName: "shopper", Level: logger.ParseLevel(level), Output: cmd.ErrOrStderr()})
}

func (o *RootOptions) openBackend(ctx context.Context) (partition.Backend, func() error, error) {
	switch o.Backend {
	case BackendMemory:
		if o.memory == nil {
			o.memory = partition.NewMemory()
		}
		return o.memory, func() error { return nil }, nil
	case BackendRedis:
		client, err := redis.NewFromURL(ctx, o.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return partition.NewRedis(client), client.Close, nil
	}
	client, err := db.OpenSQLite(o.StatePath)
	if err != nil {
		return nil, nil, err
	}
	backend, err := partition.NewSQL(client.DB())
	if err != nil {
		return nil, nil, multierr.Append(err, client.Close())
	}
	return backend, client.Close, nil
}

// run opens a client, hands it to fn and waits for queued mirror calls
// before closing the state backend.
func (o *RootOptions) run(cmd *cobra.Command, fn func(ctx context.Context, c *shopper.Client, out *Output) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := o.output(cmd)

	backend, closeBackend, err := o.openBackend(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "open state backend", err)
	}

	client, err := shopper.New(shopper.Config{
		APIBaseURL: o.APIBaseURL,
		Backend:    backend,
		Timeout:    o.cfg.RequestTimeout,
		Logger:     o.logger(cmd),
		Navigator: identity.NavigatorFunc(func(context.Context) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Sign in first: shopper login --email <email>")
		}),
		OnSyncFailure: func(f bridge.Failure) {
			out.Logf("sync %s for %s failed: %v", f.Op, f.Key, f.Err)
		},
	})
	if err != nil {
		return multierr.Append(WrapExitError(ExitCommandError, "build client", err), closeBackend())
	}

	runErr := fn(ctx, client, out)
	if flushErr := client.Flush(ctx); flushErr != nil {
		out.Logf("pending sync calls abandoned: %v", flushErr)
	}
	if closeErr := closeBackend(); closeErr != nil {
		out.Logf("closing state backend: %v", closeErr)
	}
	if runErr != nil {
		out.Failure(runErr)
		return WrapExitError(ExitFailure, cmd.CommandPath(), runErr)
	}
	return nil
}
