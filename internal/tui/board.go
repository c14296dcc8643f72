// Package tui renders the task board as a Bubble Tea program with one column
// per status.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/TWRT/buildtrack/internal/board"
	"github.com/TWRT/buildtrack/internal/models"
	"github.com/TWRT/buildtrack/internal/repository"
	"github.com/TWRT/buildtrack/internal/service"
	"github.com/TWRT/buildtrack/internal/tui/styles"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Board is the part of service.BoardService the view drives.
type Board interface {
	Snapshot() board.Store
	FetchAll(ctx context.Context, criteria models.Criteria, sort models.SortConfig) error
	Reload(ctx context.Context) error
	BeginStatusChange(id string, status models.Status) (service.Transition, error)
	CompleteStatusChange(ctx context.Context, tr service.Transition) (repository.TransitionOutcome, error)
}

type mode int

const (
	modeBrowse mode = iota
	modeMove
	modeSearch
)

var statusLabels = map[models.Status]string{
	models.StatusNotStarted: "Not Started",
	models.StatusInProgress: "In Progress",
	models.StatusOnHold:     "On Hold",
	models.StatusCompleted:  "Completed",
	models.StatusCancelled:  "Cancelled",
}

type loadedMsg struct {
	err error
}

type statusDoneMsg struct {
	tr      service.Transition
	outcome repository.TransitionOutcome
	err     error
}

// storeChangedMsg is sent when the board changes outside of Update, for
// example when a reload finishes.
type storeChangedMsg struct{}

type Model struct {
	ctx context.Context
	svc Board

	criteria models.Criteria
	columns  board.Columns
	hidden   int

	col int
	row int

	mode    mode
	input   textinput.Model
	spinner spinner.Model
	loading bool
	pending int

	err    error
	notice string

	width  int
	height int
}

// New creates a board model. The first fetch runs from Init.
func New(ctx context.Context, svc Board) Model {
	ti := textinput.New()
	ti.Placeholder = "task name..."
	ti.Prompt = "/ "
	ti.CharLimit = 128
	ti.Width = 40

	s := spinner.New()
	s.Spinner = spinner.Dot

	m := Model{
		ctx:     ctx,
		svc:     svc,
		input:   ti,
		spinner: s,
		loading: true,
	}
	m.refresh()
	return m
}

// Run starts the board program and blocks until the user quits.
func Run(ctx context.Context, svc *service.BoardService) error {
	p := tea.NewProgram(New(ctx, svc), tea.WithAltScreen(), tea.WithContext(ctx))
	svc.Subscribe(func(board.Store) {
		go p.Send(storeChangedMsg{})
	})
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m Model) fetch() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.svc.FetchAll(m.ctx, models.Criteria{}, models.SortConfig{})}
	}
}

func (m Model) reload() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.svc.Reload(m.ctx)}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		m.loading = false
		m.err = msg.err
		m.refresh()
		return m, nil

	case statusDoneMsg:
		m.pending--
		m.err = msg.err
		if msg.err == nil && msg.outcome == repository.OutcomeReloaded {
			name := msg.tr.TaskID
			if task, ok := m.svc.Snapshot().Get(msg.tr.TaskID); ok {
				name = task.Name
			}
			m.notice = fmt.Sprintf("Move of %q to %s was not accepted, board reloaded", name, statusLabels[msg.tr.To])
		}
		m.refresh()
		return m, nil

	case storeChangedMsg:
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.mode == modeSearch {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeMove:
		return m.handleMoveKey(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "left", "h":
		m.moveCursor(-1, 0)
	case "right", "l":
		m.moveCursor(1, 0)
	case "up", "k":
		m.moveCursor(0, -1)
	case "down", "j":
		m.moveCursor(0, 1)
	case "[":
		return m.shiftSelected(-1)
	case "]":
		return m.shiftSelected(1)
	case "m":
		if _, ok := m.selected(); ok {
			m.mode = modeMove
		}
	case "/":
		m.mode = modeSearch
		m.input.SetValue(m.criteria.Search)
		cmd := m.input.Focus()
		return m, cmd
	case "c":
		m.criteria = m.criteria.Clear()
		m.refresh()
	case "r":
		m.loading = true
		m.notice = ""
		return m, tea.Batch(m.spinner.Tick, m.reload())
	case "esc":
		m.notice = ""
		m.err = nil
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	case "esc":
		m.mode = modeBrowse
		m.input.Blur()
		m.criteria.Search = ""
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.criteria.Search = strings.TrimSpace(m.input.Value())
	m.refresh()
	return m, cmd
}

func (m Model) handleMoveKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeBrowse
	key := msg.String()
	if len(key) == 1 && key[0] >= '1' && key[0] <= byte('0'+len(models.Statuses)) {
		return m.moveSelected(models.Statuses[key[0]-'1'])
	}
	return m, nil
}

func (m Model) shiftSelected(delta int) (tea.Model, tea.Cmd) {
	task, ok := m.selected()
	if !ok {
		return m, nil
	}
	next := task.Status.Rank() + delta
	if next < 0 || next >= len(models.Statuses) {
		return m, nil
	}
	return m.moveSelected(models.Statuses[next])
}

// moveSelected applies the move optimistically and sends it in the
// background. The cursor follows the task into its new column.
func (m Model) moveSelected(status models.Status) (tea.Model, tea.Cmd) {
	task, ok := m.selected()
	if !ok || task.Status == status {
		return m, nil
	}

	tr, err := m.svc.BeginStatusChange(task.ID, status)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.notice = ""
	m.pending++
	m.refresh()
	m.focus(task.ID)

	svc, ctx := m.svc, m.ctx
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		outcome, err := svc.CompleteStatusChange(ctx, tr)
		return statusDoneMsg{tr: tr, outcome: outcome, err: err}
	})
}

// refresh regroups the snapshot under the current criteria.
func (m *Model) refresh() {
	visible := board.Filter(m.svc.Snapshot().Tasks(), m.criteria)
	m.columns = board.Group(visible)
	m.hidden = len(visible) - m.columns.Total()
	m.clampCursor()
}

func (m *Model) focus(id string) {
	for c, col := range m.columns {
		for r, t := range col.Tasks {
			if t.ID == id {
				m.col, m.row = c, r
				return
			}
		}
	}
}

func (m *Model) moveCursor(dc, dr int) {
	m.col += dc
	m.row += dr
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if len(m.columns) == 0 {
		m.col, m.row = 0, 0
		return
	}
	m.col = max(0, min(m.col, len(m.columns)-1))
	n := len(m.columns[m.col].Tasks)
	m.row = max(0, min(m.row, n-1))
}

func (m Model) selected() (models.Task, bool) {
	if m.col >= len(m.columns) {
		return models.Task{}, false
	}
	tasks := m.columns[m.col].Tasks
	if m.row >= len(tasks) {
		return models.Task{}, false
	}
	return tasks[m.row], true
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	title := "Task Board"
	if m.loading || m.pending > 0 {
		title += " " + m.spinner.View()
	}
	b.WriteString(styles.TitleStyle.Render(title))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(styles.ErrorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString(styles.SubtleStyle.Render(m.notice))
		b.WriteString("\n")
	}

	if m.mode == modeSearch {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	} else if m.criteria.Search != "" {
		b.WriteString(styles.SubtleStyle.Render(fmt.Sprintf("Filter: %q (c to clear)", m.criteria.Search)))
		b.WriteString("\n")
	}

	cols := make([]string, 0, len(m.columns))
	for i, col := range m.columns {
		cols = append(cols, m.renderColumn(i, col))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	b.WriteString("\n")

	if m.hidden > 0 {
		b.WriteString(styles.SubtleStyle.Render(fmt.Sprintf("%d task(s) with unknown status not shown", m.hidden)))
		b.WriteString("\n")
	}

	b.WriteString(styles.HelpStyle.Render(m.help()))
	return b.String()
}

func (m Model) columnWidth() int {
	if m.width <= 0 || len(m.columns) == 0 {
		return 22
	}
	// border and padding take four cells per column
	return max(12, m.width/len(m.columns)-4)
}

func (m Model) renderColumn(i int, col board.Column) string {
	width := m.columnWidth()

	var lines []string
	header := fmt.Sprintf("%s (%d)", statusLabels[col.Status], len(col.Tasks))
	lines = append(lines, styles.StatusHeader(col.Status).Render(header), "")

	if len(col.Tasks) == 0 {
		lines = append(lines, styles.SubtleStyle.Render("no tasks"))
	}
	for r, t := range col.Tasks {
		line := truncate(t.Name, width-2)
		if i == m.col && r == m.row {
			lines = append(lines, styles.SelectedStyle.Render("> "+line))
			continue
		}
		lines = append(lines, "  "+line)
	}

	return styles.ColumnStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) help() string {
	switch m.mode {
	case modeMove:
		var opts []string
		for i, s := range models.Statuses {
			opts = append(opts, fmt.Sprintf("%d %s", i+1, statusLabels[s]))
		}
		return "move to: " + strings.Join(opts, "  ") + "  (esc cancel)"
	case modeSearch:
		return "enter apply  esc clear"
	}
	return "←/→ column  ↑/↓ task  [/] move  m move to  / search  c clear  r reload  q quit"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
