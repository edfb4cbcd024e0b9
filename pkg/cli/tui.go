package cli

import (
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tasks/pkg/tui"
)

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive task board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				board, sess, err := a.board(cmd.Context())
				if err != nil {
					return err
				}
				return tui.Run(cmd.Context(), board, sess, a.log)
			})
		},
	}
}
