package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tasks/pkg/api"
	"github.com/harrisonrobin/tasks/pkg/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				path, _ := config.GetConfigPath()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "file:      %s\n", path)
				fmt.Fprintf(out, "server:    %s\n", cfg.Server)
				fmt.Fprintf(out, "store:     %s\n", cfg.Store)
				fmt.Fprintf(out, "data_dir:  %s\n", cfg.DataDir)
				fmt.Fprintf(out, "timeout:   %s\n", cfg.Timeout)
				fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
				fmt.Fprintf(out, "log_file:  %s\n", cfg.LogFile)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set-server <url>",
			Short: "Set the task service URL",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := api.NewClient(args[0]); err != nil {
					return err
				}
				return updateConfig(cmd, func(cfg *config.Config) {
					cfg.Server = args[0]
				}, "Server set to: %s\n", args[0])
			},
		},
		&cobra.Command{
			Use:   "set-store <file|sqlite>",
			Short: "Choose where the session and preferences are kept",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return updateConfig(cmd, func(cfg *config.Config) {
					cfg.Store = args[0]
				}, "Store set to: %s\n", args[0])
			},
		},
	)
	return cmd
}

func updateConfig(cmd *cobra.Command, change func(*config.Config), format string, a ...any) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	change(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), format, a...)
	return nil
}
