package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/platinummonkey/crm/pkg/app"
	"github.com/platinummonkey/crm/pkg/config"
	"github.com/platinummonkey/crm/pkg/observability"
	"github.com/platinummonkey/crm/pkg/seed"
	"github.com/platinummonkey/crm/pkg/storage"
	"github.com/spf13/cobra"
)

// OpenStoreFunc opens the document store a command works against
type OpenStoreFunc func(ctx context.Context, cfg storage.Config, metrics *observability.Metrics) (storage.Store, error)

// Options configures the command tree
type Options struct {
	Out io.Writer

	// OpenStore defaults to storage.Open
	OpenStore OpenStoreFunc
}

// runtime carries the global flags and the application context of one invocation
type runtime struct {
	opts Options

	storageType string
	dataDir     string
	logLevel    string
	asJSON      bool

	loc *time.Location
	crm *app.Context
}

// NewRootCommand creates the crmctl command tree
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.OpenStore == nil {
		opts.OpenStore = storage.Open
	}
	rt := &runtime{opts: opts}

	root := &cobra.Command{
		Use:   "crmctl",
		Short: "Work with the CRM from the terminal",
		Long: `crmctl signs in, manages leads and accounts, and exports reports against
the configured CRM store. The session is kept in the store, so a login
carries over to later invocations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(opts.Out)

	flags := root.PersistentFlags()
	flags.StringVar(&rt.storageType, "storage", "", "storage backend (overrides CRM_STORAGE_TYPE)")
	flags.StringVar(&rt.dataDir, "data-dir", "", "filesystem store root (overrides CRM_FILESYSTEM_ROOT)")
	flags.StringVar(&rt.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flags.BoolVar(&rt.asJSON, "json", false, "print JSON instead of tables")

	root.AddCommand(
		newLoginCommand(rt),
		newLogoutCommand(rt),
		newWhoamiCommand(rt),
		newLeadsCommand(rt),
		newMeetingsCommand(rt),
		newReportCommand(rt),
		newUsersCommand(rt),
		newSettingsCommand(rt),
	)
	return root
}

// run wraps a command body with opening and closing the application context
func (rt *runtime) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		if err := rt.open(cmd.Context()); err != nil {
			return err
		}
		defer func() {
			if closeErr := rt.crm.Close(); err == nil {
				err = closeErr
			}
			rt.crm = nil
		}()
		return fn(cmd, args)
	}
}

func (rt *runtime) open(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if rt.storageType != "" {
		cfg.Storage.Type = rt.storageType
	}
	if rt.dataDir != "" {
		cfg.Storage.FilesystemRoot = rt.dataDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := observability.NewLogger(observability.ParseLogLevel(rt.logLevel), "text", os.Stderr)
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	rt.loc = loc

	var seedFile *seed.File
	if cfg.SeedFile != "" {
		if seedFile, err = seed.LoadFile(cfg.SeedFile); err != nil {
			return err
		}
	}
	sink, err := cfg.Export.OpenSink(ctx)
	if err != nil {
		return err
	}

	trail, err := cfg.Observability.OpenAudit(log)
	if err != nil {
		return err
	}

	store, err := rt.opts.OpenStore(ctx, cfg.Storage, nil)
	if err != nil {
		trail.Close()
		return fmt.Errorf("failed to open %s store: %w", cfg.Storage.Type, err)
	}
	crm, err := app.New(ctx, app.Options{Store: store, Logger: log, Location: loc, Sink: sink, Seed: seedFile, Audit: trail})
	if err != nil {
		trail.Close()
		store.Close()
		return err
	}
	rt.crm = crm
	return nil
}

// printJSON writes v as indented JSON
func (rt *runtime) printJSON(v interface{}) error {
	enc := json.NewEncoder(rt.opts.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table returns a tabwriter over the command output; callers Flush it
func (rt *runtime) table(header string) *tabwriter.Writer {
	w := tabwriter.NewWriter(rt.opts.Out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, header)
	return w
}
