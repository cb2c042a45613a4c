// Package commands implements the CLI commands for zebra.
package commands

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tcrawf/zebra/internal/application"
	appSync "github.com/tcrawf/zebra/internal/application/sync"
	domainErrors "github.com/tcrawf/zebra/internal/domain/errors"
	"github.com/tcrawf/zebra/internal/infrastructure/config"
	"github.com/tcrawf/zebra/internal/presentation/cli/output"
	"github.com/tcrawf/zebra/internal/presentation/cli/prompt"
)

// Version information - set at build time via ldflags.
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// GlobalFlags holds the global CLI flags.
type GlobalFlags struct {
	ConfigFile string
	Output     string
	Verbose    bool
	Yes        bool
}

// AppContext holds the application runtime context.
type AppContext struct {
	Config    *config.Config
	Formatter *output.Formatter
	Flags     *GlobalFlags
	Container *application.Container
}

var (
	globalFlags GlobalFlags
	appCtx      *AppContext
	appCtxMu    sync.RWMutex // Protects appCtx for thread-safe access
)

// NewRootCmd creates the root command for the zebra CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "zebra",
		Short: "Zebra - personal time tracking with timesheet sync",
		Long: `Zebra is a personal time-tracking tool in the start/stop frame style.

Tracked frames are grouped into quarter-hour timesheets and synchronized
with the Zebra timesheet service. Tracking works fully offline; only the
timesheet and update commands talk to the API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip initialization for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}
			return initializeApp()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigFile, "config", "c", "", "config file path (default: ~/.zebra/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&globalFlags.Output, "output", "o", "text", "output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Yes, "yes", "y", false, "answer yes to all confirmation prompts")

	// Tracking
	rootCmd.AddCommand(NewStartCmd())
	rootCmd.AddCommand(NewStopCmd())
	rootCmd.AddCommand(NewCancelCmd())
	rootCmd.AddCommand(NewAddCmd())
	rootCmd.AddCommand(NewRestartCmd())
	rootCmd.AddCommand(NewStatusCmd())
	rootCmd.AddCommand(NewLogCmd())
	rootCmd.AddCommand(NewEditCmd())
	rootCmd.AddCommand(NewRemoveCmd())

	// Catalog
	rootCmd.AddCommand(NewProjectCmd())
	rootCmd.AddCommand(NewActivityCmd())
	rootCmd.AddCommand(NewUpdateCmd())

	// Timesheets
	rootCmd.AddCommand(NewTimesheetCmd())

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// initializeApp initializes the application context.
func initializeApp() error {
	format := output.FormatText
	if globalFlags.Output == "json" {
		format = output.FormatJSON
	}

	formatter := output.NewFormatter(
		output.WithFormat(format),
		output.WithColor(format != output.FormatJSON && output.IsColorSupported()),
	)

	cfg, err := loadConfig(globalFlags.ConfigFile)
	if err != nil {
		if globalFlags.Verbose {
			formatter.Warning("Could not load config: %v, using defaults", err)
		}
		cfg = config.NewDefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	container, err := application.NewContainer(cfg, globalFlags.Verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	appCtxMu.Lock()
	appCtx = &AppContext{
		Config:    cfg,
		Formatter: formatter,
		Flags:     &globalFlags,
		Container: container,
	}
	appCtxMu.Unlock()

	return nil
}

// loadConfig loads configuration from the specified file or default location.
func loadConfig(configPath string) (*config.Config, error) {
	loader, err := config.NewLoader("")
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}

	return loader.Load(configPath)
}

// GetAppContext returns the current application context.
// Returns nil if the app hasn't been initialized.
// Thread-safe via mutex protection.
func GetAppContext() *AppContext {
	appCtxMu.RLock()
	defer appCtxMu.RUnlock()
	return appCtx
}

// GetFormatter returns the output formatter.
// Creates a default formatter if app context is not initialized.
// Thread-safe via mutex protection.
func GetFormatter() *output.Formatter {
	appCtxMu.RLock()
	ctx := appCtx
	appCtxMu.RUnlock()

	if ctx != nil {
		return ctx.Formatter
	}
	return output.NewFormatter()
}

// GetContainer returns the application container.
// Returns nil if the app hasn't been initialized.
// Thread-safe via mutex protection.
func GetContainer() *application.Container {
	appCtxMu.RLock()
	ctx := appCtx
	appCtxMu.RUnlock()

	if ctx != nil {
		return ctx.Container
	}
	return nil
}

// getConfirm returns the confirmation callback for guarded sync steps,
// honoring the global --yes flag.
func getConfirm() appSync.ConfirmFunc {
	confirmer := prompt.NewConfirmer(globalFlags.Yes)
	return confirmer.Confirm
}

// requireRemote fails with a configuration hint when no Zebra URL is set.
func requireRemote(container *application.Container) error {
	if container == nil || !container.RemoteConfigured() {
		return domainErrors.RemoteUnavailable("no Zebra URL configured, set zebra.url in ~/.zebra/config.yaml", nil)
	}
	return nil
}

// Shutdown performs graceful shutdown of the application.
// Cancels the context and cleans up resources.
func Shutdown() {
	appCtxMu.Lock()
	defer appCtxMu.Unlock()

	if appCtx != nil && appCtx.Container != nil {
		_ = appCtx.Container.Close()
	}
}

// Execute runs the root command with graceful shutdown support.
func Execute() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		rootCmd := NewRootCmd()
		errChan <- rootCmd.Execute()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			formatter := GetFormatter()
			formatter.Error("%s", err.Error())
			Shutdown()
			os.Exit(1)
		}
	case sig := <-sigChan:
		formatter := GetFormatter()
		formatter.Warning("Received signal %v, shutting down...", sig)
		Shutdown()
		os.Exit(130) // Standard exit code for SIGINT
	}

	Shutdown()
}
