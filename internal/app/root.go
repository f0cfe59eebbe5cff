package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/blackwell-systems/shelfview/internal/api"
	"github.com/blackwell-systems/shelfview/internal/cache"
	"github.com/blackwell-systems/shelfview/internal/config"
	"github.com/blackwell-systems/shelfview/internal/events"
	"github.com/blackwell-systems/shelfview/internal/logging"
	"github.com/blackwell-systems/shelfview/internal/session"
	"github.com/blackwell-systems/shelfview/internal/util"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg       *config.Config
	client    *api.Client
	sess      *session.FileStore
	downloads *cache.Manager
	bus       *events.Bus
	logger    = zap.NewNop()

	flagNoColor       bool
	flagNoInteractive bool
	flagDebug         bool
	flagConfig        string
)

var rootCmd = &cobra.Command{
	Use:   "shelfview",
	Short: "Browse and manage a remote book catalog from the terminal",
	Long: `shelfview browses a remote book catalog.

Books are filtered by category and price, sorted, searched by title, author
or ISBN, and shown page by page as you scroll. Books can be added to or
removed from your personal library, created, deleted and imported from a
spreadsheet.

Run 'shelfview' with no arguments to launch the interactive browser.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if shouldUseTUI(cmd) {
			return runBrowser(cmd.Context(), browseOptions{})
		}
		return cmd.Help()
	},
}

// Execute is the entry point called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagNoInteractive, "no-interactive", false, "Disable interactive TUI mode")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Log at debug level")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/shelfview/config.yml)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		util.InitColor(flagNoColor)
		return setup()
	}

	// Register sub-commands.
	rootCmd.AddCommand(
		newBrowseCmd(),
		newSearchCmd(),
		newCategoriesCmd(),
		newLibraryCmd(),
		newDeleteCmd(),
		newCreateCmd(),
		newImportCmd(),
		newTemplateCmd(),
		newExportCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
}

// setup loads the config and builds the shared clients.
func setup() error {
	var err error
	cfg, err = config.LoadFrom(configPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err = logging.New(cfg.Log.Level, cfg.Log.File, flagDebug)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}

	sess, err = session.Open(cfg.Session.Path)
	if err != nil {
		return err
	}

	bus = events.NewBus()
	downloads = cache.New(cfg.Downloads.Dir)
	client = api.New(cfg.API.BaseURL,
		session.EnvOverride{Store: sess, TokenEnv: cfg.API.TokenEnv},
		api.WithTimeout(cfg.API.Timeout),
		api.WithRateLimit(cfg.API.RatePerSecond),
		api.WithLogger(logger.Named("api")),
	)
	return nil
}
