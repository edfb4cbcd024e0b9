// Package tui is the interactive task board.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/harrisonrobin/tasks/pkg/logging"
	"github.com/harrisonrobin/tasks/pkg/model"
	"github.com/harrisonrobin/tasks/pkg/tasklist"
	"github.com/harrisonrobin/tasks/pkg/view"
)

const dueLayout = "2006-01-02"

// App is the root Bubble Tea model.
type App struct {
	ctx     context.Context
	board   *tasklist.Board
	session model.Session
	log     *zap.SugaredLogger
	now     func() time.Time

	width  int
	height int

	windows []model.Window
	active  int
	states  map[model.Window]tasklist.ViewState
	started map[model.Window]bool
	pending map[model.Window]int
	cursor  map[model.Window]int

	formActive bool
	form       *huh.Form
	formDesc   *string
	formDue    *string

	spinner  spinner.Model
	help     help.Model
	showHelp bool
	status   string
	isError  bool
}

func NewApp(ctx context.Context, board *tasklist.Board, sess model.Session, log *zap.SugaredLogger) App {
	h := help.New()
	h.ShowAll = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = mutedStyle

	desc, due := "", ""
	return App{
		ctx:      ctx,
		board:    board,
		session:  sess,
		log:      logging.OrNop(log),
		now:      time.Now,
		windows:  board.Windows(),
		states:   make(map[model.Window]tasklist.ViewState),
		started:  make(map[model.Window]bool),
		pending:  make(map[model.Window]int),
		cursor:   make(map[model.Window]int),
		formDesc: &desc,
		formDue:  &due,
		spinner:  sp,
		help:     h,
	}
}

// Run shows the board until the user quits.
func Run(ctx context.Context, board *tasklist.Board, sess model.Session, log *zap.SugaredLogger) error {
	p := tea.NewProgram(NewApp(ctx, board, sess, log), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (a App) Init() tea.Cmd {
	a, cmd := a.open(a.window())
	return tea.Batch(a.spinner.Tick, cmd)
}

func (a App) window() model.Window {
	return a.windows[a.active]
}

func (a App) controller(w model.Window) *tasklist.Controller {
	c, err := a.board.Controller(w)
	if err != nil {
		a.log.Errorw("no controller for window", "window", w.String(), "error", err)
		return nil
	}
	return c
}

// open activates w the first time it is shown.
func (a App) open(w model.Window) (App, tea.Cmd) {
	if a.started[w] {
		return a, nil
	}
	c := a.controller(w)
	if c == nil {
		return a, nil
	}
	a.started[w] = true
	return a.dispatch(w, activateCmd(a.ctx, c))
}

// dispatch marks w as busy and runs cmd.
func (a App) dispatch(w model.Window, cmd tea.Cmd) (App, tea.Cmd) {
	a.pending[w]++
	return a, cmd
}

func (a App) selected() (model.Task, bool) {
	s := a.states[a.window()]
	i := a.cursor[a.window()]
	if i < 0 || i >= len(s.VisibleTasks) {
		return model.Task{}, false
	}
	return s.VisibleTasks[i], true
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case stateMsg:
		return a.applyState(msg), nil

	case tea.KeyMsg:
		if a.formActive {
			return a.updateForm(msg)
		}
		return a.updateKeys(msg)
	}

	if a.formActive {
		return a.updateForm(msg)
	}
	return a, nil
}

func (a App) applyState(msg stateMsg) App {
	if a.pending[msg.window] > 0 {
		a.pending[msg.window]--
	}
	// Commands finish in any order; a snapshot older than the one shown
	// is dropped but its outcome is still reported.
	if cur, ok := a.states[msg.window]; !ok || msg.state.Version >= cur.Version {
		a.states[msg.window] = msg.state
	}
	if n := len(a.states[msg.window].VisibleTasks); a.cursor[msg.window] >= n {
		a.cursor[msg.window] = max(0, n-1)
	}

	if msg.err != nil {
		a.status = describe(msg.err)
		a.isError = true
		a.log.Warnw("operation failed", "window", msg.window.String(), "action", msg.action, "error", msg.err)
		return a
	}
	a.status = fmt.Sprintf("%s: %s", msg.window.Title(), msg.action)
	a.isError = false
	return a
}

func (a App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	w := a.window()
	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, keys.Help):
		a.showHelp = !a.showHelp
		a.help.ShowAll = a.showHelp
		return a, nil
	case key.Matches(msg, keys.Tab):
		return a.switchTo((a.active + 1) % len(a.windows))
	case key.Matches(msg, keys.Tab1):
		return a.switchTo(0)
	case key.Matches(msg, keys.Tab2):
		return a.switchTo(1)
	case key.Matches(msg, keys.Tab3):
		return a.switchTo(2)
	case key.Matches(msg, keys.Tab4):
		return a.switchTo(3)
	case key.Matches(msg, keys.Up):
		if a.cursor[w] > 0 {
			a.cursor[w]--
		}
		return a, nil
	case key.Matches(msg, keys.Down):
		if a.cursor[w] < len(a.states[w].VisibleTasks)-1 {
			a.cursor[w]++
		}
		return a, nil
	case key.Matches(msg, keys.Add):
		return a.showAddForm()
	}

	c := a.controller(w)
	if c == nil {
		return a, nil
	}
	switch {
	case key.Matches(msg, keys.Reload):
		return a.dispatch(w, reloadCmd(a.ctx, c))
	case key.Matches(msg, keys.Filter):
		return a.dispatch(w, filterCmd(a.ctx, c))
	case key.Matches(msg, keys.Toggle):
		if t, ok := a.selected(); ok {
			return a.dispatch(w, toggleCmd(a.ctx, c, t.ID))
		}
	case key.Matches(msg, keys.Delete):
		if t, ok := a.selected(); ok {
			return a.dispatch(w, deleteCmd(a.ctx, c, t.ID))
		}
	}
	return a, nil
}

func (a App) switchTo(i int) (tea.Model, tea.Cmd) {
	if i < 0 || i >= len(a.windows) {
		return a, nil
	}
	a.active = i
	return a.open(a.window())
}

func (a App) showAddForm() (tea.Model, tea.Cmd) {
	*a.formDesc = ""
	*a.formDue = a.window().DefaultEstimate(a.now()).Format(dueLayout)

	a.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Task").Value(a.formDesc).Validate(model.ValidateDesc),
			huh.NewInput().Title("Due (YYYY-MM-DD)").Value(a.formDue).Validate(func(s string) error {
				_, err := model.ParseTime(s)
				return err
			}),
		),
	).WithShowHelp(true).WithShowErrors(true)

	a.formActive = true
	return a, a.form.Init()
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.Back) {
		a.formActive = false
		a.form = nil
		return a, nil
	}

	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateAborted:
		a.formActive = false
		a.form = nil
		return a, nil
	case huh.StateCompleted:
		a.formActive = false
		a.form = nil
		return a.submitAdd(*a.formDesc, *a.formDue)
	}
	return a, cmd
}

// submitAdd creates the task in the active window.
func (a App) submitAdd(desc, due string) (tea.Model, tea.Cmd) {
	w := a.window()
	estimate, err := model.ParseTime(due)
	if err != nil {
		a.status = describe(err)
		a.isError = true
		return a, nil
	}
	if d := estimate; d.Hour() == 0 && d.Minute() == 0 && d.Second() == 0 {
		now := a.now()
		estimate = time.Date(d.Year(), d.Month(), d.Day(), now.Hour(), now.Minute(), now.Second(), 0, d.Location())
	}
	c := a.controller(w)
	if c == nil {
		return a, nil
	}
	return a.dispatch(w, addCmd(a.ctx, c, desc, estimate))
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	if a.formActive && a.form != nil {
		title := titleStyle.Render("New task in " + a.window().Title())
		content = panelStyle.Width(a.width - 4).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", a.form.View()),
		)
	} else {
		content = a.renderList()
	}

	contentHeight := a.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 1 {
		contentHeight = 1
	}
	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, w := range a.windows {
		if i == a.active {
			tabs = append(tabs, activeTabStyle(w).Render(w.Title()))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(w.Title()))
		}
	}
	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	user := mutedStyle.Render(a.session.Name)
	gap := a.width - lipgloss.Width(user) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, tabRow, spacer, user),
	)
}

func (a App) renderList() string {
	w := a.window()
	s, ok := a.states[w]
	now := a.now()

	title := lipgloss.NewStyle().Bold(true).Foreground(accent(w)).Render(w.Title())
	rows := []string{title, mutedStyle.Render(now.Format("Monday, January 2")), ""}

	switch {
	case !ok || (s.Phase != tasklist.Ready && len(s.VisibleTasks) == 0 && a.pending[w] > 0):
		rows = append(rows, mutedStyle.Render("  Loading tasks..."))
	case len(s.VisibleTasks) == 0:
		rows = append(rows, mutedStyle.Render("  No tasks"))
	default:
		for i, t := range s.VisibleTasks {
			rows = append(rows, a.renderTask(t, i == a.cursor[w], now))
		}
	}

	if hidden := len(s.Tasks) - len(s.VisibleTasks); hidden > 0 {
		rows = append(rows, "", mutedStyle.Render(fmt.Sprintf("  %d completed hidden, press f to show", hidden)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (a App) renderTask(t model.Task, selected bool, now time.Time) string {
	cursor := "  "
	if selected {
		cursor = "> "
	}

	style := normalItemStyle
	switch {
	case t.Done():
		style = doneStyle
	case t.Overdue(now):
		style = overdueStyle
	}
	if selected {
		style = style.Bold(true)
	}

	line := style.Render(cursor + view.Label(t, now))
	if when := view.When(t, now); when != "" {
		line += "  " + mutedStyle.Render(when)
	}
	return line
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	right := ""
	if a.pending[a.window()] > 0 {
		right = a.spinner.View() + " "
	}
	if a.status != "" {
		if a.isError {
			right += errorStyle.Render(a.status)
		} else {
			right += mutedStyle.Render(a.status)
		}
	}

	left := footerStyle.Render(helpView)
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

// describe turns an error into a one-line status.
func describe(err error) string {
	switch {
	case errors.Is(err, model.ErrAuth):
		return "Not signed in: run tasks signin"
	case errors.Is(err, model.ErrNetwork):
		return "Service unreachable, press r to retry"
	}
	return err.Error()
}
