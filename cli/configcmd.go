package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"photodedupe/config"
)

const configLongDesc string = `Show or create the photodedupe configuration file.

Configuration is read from config.toml in the user config directory (or the
file given with --config) and provides default values for command flags.
Environment variables prefixed with PHOTODEDUPE_ override file values, and
CLI flags always take precedence over both.

Keys use dotted notation matching the TOML section structure:
  detect.threshold, detect.algorithm, detect.filter, detect.strategy,
  detect.auto_orient, detect.workers, detect.extensions,
  cache.enabled, cache.path, commit.folder_name

Examples:
  photodedupe config show
  photodedupe config init
  PHOTODEDUPE_DETECT_THRESHOLD=4 photodedupe config show`

const configShortDesc string = "Show or create the configuration file"

func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(a.newConfigShowCmd())
	cmd.AddCommand(a.newConfigInitCmd())
	cmd.AddCommand(a.newConfigPathCmd())

	return cmd
}

func (a *app) newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig(cmd, nil)
			if err != nil {
				return err
			}

			data, err := config.Encode(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func (a *app) newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config.toml with the default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.configPath()
			if err != nil {
				return err
			}
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s wrote %s\n", successMark, path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing config file")
	return cmd
}

func (a *app) newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the config file is read from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.configPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func (a *app) configPath() (string, error) {
	if a.configFile != "" {
		return a.configFile, nil
	}
	return config.DefaultPath()
}
