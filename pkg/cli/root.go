// Package cli is the tasks command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	server  string
	verbose bool
}

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage your tasks from the terminal",
		Long: `tasks keeps a list of things to do for today, tomorrow, this week and this month.

Sign in once with "tasks signin"; the session is kept until "tasks signout" or until it expires.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.server, "server", "", "Task service URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr")

	rootCmd.AddCommand(
		newSignUpCmd(opts),
		newSignInCmd(opts),
		newSignOutCmd(opts),
		newListCmd(opts),
		newAddCmd(opts),
		newToggleCmd(opts),
		newDeleteCmd(opts),
		newFilterCmd(opts),
		newTUICmd(opts),
		newConfigCmd(),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute(version string) error {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
