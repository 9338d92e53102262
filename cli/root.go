// Package cli holds the photodedupe cobra commands.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"photodedupe/config"
	"photodedupe/logging"
)

const rootLongDesc string = `photodedupe finds near-duplicate photographs in a folder and moves all
but one copy of each into a duplicates folder.

Every image is reduced to a perceptual fingerprint. Images whose fingerprints
differ in at most --threshold bits form a group; the smallest file of each
group is kept and the rest are discarded.

Commands:
  photodedupe scan <dir>       Report duplicate groups (optionally move discards)
  photodedupe resolve <dir>    Review groups interactively, then move discards
  photodedupe cache            Inspect or maintain the fingerprint cache
  photodedupe config           Show or create the configuration file`

const rootShortDesc string = "photodedupe - near-duplicate photo finder"

// app carries the state shared by every subcommand
type app struct {
	configFile string
	debug      bool
	pretty     bool
	jsonLogs   bool
	noColor    bool
	logFile    string

	viper     *viper.Viper
	logger    *slog.Logger
	logCloser io.Closer
}

// NewRootCmd builds the photodedupe command tree
func NewRootCmd(version string) *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "photodedupe",
		Short:         rootShortDesc,
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.teardown()
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "Path to config.toml (default: user config dir)")
	cmd.PersistentFlags().BoolVarP(&a.debug, "debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&a.pretty, "pretty", false, "Colourful human readable log output")
	cmd.PersistentFlags().BoolVar(&a.jsonLogs, "json-logs", false, "Write logs to stderr as JSON")
	cmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable coloured output")
	cmd.PersistentFlags().StringVar(&a.logFile, "logfile", "", "Also write debug logs as JSON to this file")

	// Add subcommands
	cmd.AddCommand(a.newScanCmd())
	cmd.AddCommand(a.newResolveCmd())
	cmd.AddCommand(a.newCacheCmd())
	cmd.AddCommand(a.newConfigCmd())
	cmd.AddCommand(newVersionCmd(version))

	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	level := slog.LevelWarn
	if a.debug {
		level = slog.LevelDebug
	}
	console := logging.New(
		logging.WithWriter(cmd.ErrOrStderr()),
		logging.WithLevel(level),
		logging.WithPretty(a.pretty),
		logging.WithJSON(a.jsonLogs),
	)

	if a.logFile == "" {
		a.logger = console
		return nil
	}

	f, err := logging.OpenLogFile(a.logFile)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	a.logCloser = f
	a.logger = logging.Multi(console, logging.New(
		logging.WithWriter(f),
		logging.WithJSON(true),
		logging.WithDebug(true),
	))
	return nil
}

func (a *app) teardown() error {
	if a.logCloser == nil {
		return nil
	}
	err := a.logCloser.Close()
	a.logCloser = nil
	return err
}

// loadConfig binds the command's registered flags and returns the merged config.
// The config file is read on first use so commands that write it can run without one.
func (a *app) loadConfig(cmd *cobra.Command, keys []string) (*config.Config, error) {
	if a.viper == nil {
		v, err := config.InitViper(a.configFile)
		if err != nil {
			return nil, err
		}
		a.viper = v
	}

	config.BindRegisteredFlags(a.viper, cmd, config.Flags, keys)
	return config.Load(a.viper)
}

func (a *app) log() *slog.Logger {
	return logging.OrNop(a.logger)
}
