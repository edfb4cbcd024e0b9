package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tasks/pkg/tasklist"
	"github.com/harrisonrobin/tasks/pkg/view"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

func printState(cmd *cobra.Command, s tasklist.ViewState) {
	out := cmd.OutOrStdout()
	hidden := len(s.Tasks) - len(s.VisibleTasks)

	fmt.Fprintln(out, headerStyle.Render(s.Window.Title()))
	if len(s.VisibleTasks) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("  No tasks"))
	} else {
		now := time.Now()
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			Headers("ID", "TASK", "WHEN").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		for _, task := range s.VisibleTasks {
			t.Row(task.ID.String(), view.Label(task, now), view.When(task, now))
		}
		fmt.Fprintln(out, t.String())
	}
	if hidden > 0 {
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("  %d completed hidden (tasks filter -w %s)", hidden, s.Window)))
	}
}
