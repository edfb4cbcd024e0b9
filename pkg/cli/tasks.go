package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tasks/pkg/model"
	"github.com/harrisonrobin/tasks/pkg/tasklist"
)

const windowUsage = "Window: today, tomorrow, week or month"

func newListCmd(opts *rootOptions) *cobra.Command {
	var window string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the tasks of a window",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(cmd.Context(), opts, window, func(c *tasklist.Controller) error {
				printState(cmd, c.Snapshot())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&window, "window", "w", "today", windowUsage)
	return cmd
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var window, due string
	cmd := &cobra.Command{
		Use:   "add <description>",
		Short: "Add a task",
		Long: `Adds a task. Without --due the estimate is the last day of the window,
at the current time of day.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc := strings.Join(args, " ")
			return withController(cmd.Context(), opts, window, func(c *tasklist.Controller) error {
				estimate := c.Window().DefaultEstimate(time.Now())
				if due != "" {
					parsed, err := model.ParseTime(due)
					if err != nil {
						return fmt.Errorf("%w: --due: %v", model.ErrValidation, err)
					}
					estimate = parsed
				}
				if err := c.Add(cmd.Context(), desc, estimate); err != nil {
					return err
				}
				printState(cmd, c.Snapshot())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&window, "window", "w", "today", windowUsage)
	cmd.Flags().StringVar(&due, "due", "", "Estimate date (YYYY-MM-DD or YYYY-MM-DD HH:MM:SS)")
	return cmd
}

func newToggleCmd(opts *rootOptions) *cobra.Command {
	var window string
	cmd := &cobra.Command{
		Use:     "toggle <id>",
		Aliases: []string{"done"},
		Short:   "Mark a task done, or pending again",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(cmd.Context(), opts, window, func(c *tasklist.Controller) error {
				if err := c.Toggle(cmd.Context(), model.ID(args[0])); err != nil {
					return err
				}
				printState(cmd, c.Snapshot())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&window, "window", "w", "today", windowUsage)
	return cmd
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	var window string
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(cmd.Context(), opts, window, func(c *tasklist.Controller) error {
				if err := c.Delete(cmd.Context(), model.ID(args[0])); err != nil {
					return err
				}
				printState(cmd, c.Snapshot())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&window, "window", "w", "today", windowUsage)
	return cmd
}

func newFilterCmd(opts *rootOptions) *cobra.Command {
	var window string
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Show or hide completed tasks in a window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(cmd.Context(), opts, window, func(c *tasklist.Controller) error {
				c.ToggleFilter(cmd.Context())
				s := c.Snapshot()
				if s.ShowDoneTasks {
					fmt.Fprintf(cmd.OutOrStdout(), "Showing completed tasks in %s\n", s.Window)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Hiding completed tasks in %s\n", s.Window)
				}
				printState(cmd, s)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&window, "window", "w", "today", windowUsage)
	return cmd
}

// withController activates the controller of the named window and passes it
// to fn.
func withController(ctx context.Context, opts *rootOptions, window string, fn func(*tasklist.Controller) error) error {
	w, err := model.ParseWindow(window)
	if err != nil {
		return err
	}
	return withApp(opts, func(a *app) error {
		b, _, err := a.board(ctx)
		if err != nil {
			return err
		}
		if _, err := b.Activate(ctx, w); err != nil {
			return err
		}
		c, err := b.Controller(w)
		if err != nil {
			return err
		}
		return fn(c)
	})
}
