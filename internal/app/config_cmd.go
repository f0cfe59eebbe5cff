package app

import (
	"fmt"
	"os"

	"github.com/blackwell-systems/shelfview/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialise the configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				header("# %s", configPath())
				return cfg.Encode(os.Stdout)
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write the effective configuration to the config file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path := configPath()
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists", path)
				}
				if err := config.Save(cfg, path); err != nil {
					return err
				}
				ok("Wrote %s", path)
				return nil
			},
		},
	)
	return cmd
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	if p := os.Getenv("SHELFVIEW_CONFIG"); p != "" {
		return p
	}
	return config.DefaultPath()
}
