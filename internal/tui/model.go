package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"imsystem/internal/inventory/grid"
	"imsystem/internal/inventory/viewer"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
)

const (
	// DoublePressWindow is how close two presses of a column key must be
	// to count as one header activation.
	DoublePressWindow = 400 * time.Millisecond

	statusTickInterval = 250 * time.Millisecond
	chromeHeight       = 10
)

// columnWidths follows grid.Columns order.
var columnWidths = []int{12, 6, 6, 14, 36, 6, 10}

// Refresher is the part of grid.Refresher the viewer needs.
type Refresher interface {
	Refresh(ctx context.Context) error
	Status() grid.RefreshStatus
	Store() *grid.Store
}

type statusTickMsg time.Time

type flashMsg string

type refreshDoneMsg struct {
	err error
}

// Model is a single-user terminal host over the grid pipeline. It owns
// its GridState; the refresher owns the snapshot.
type Model struct {
	ctx       context.Context
	refresher Refresher
	locale    language.Tag
	flash     *grid.Flash
	flashes   chan string
	now       func() time.Time

	state   grid.GridState
	view    grid.View
	table   table.Model
	search  textinput.Model
	spinner spinner.Model

	searching  bool
	refreshing bool
	lastKey    string
	lastKeyAt  time.Time
	message    string
	failure    string
}

func New(ctx context.Context, refresher Refresher, locale language.Tag) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "search item code or description"
	ti.Prompt = "/ "
	ti.CharLimit = 64
	ti.Width = 32

	t := table.New(
		table.WithColumns(columns(grid.Derive(nil, grid.DefaultState(), locale))),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	t.SetStyles(tableStyles())

	flashes := make(chan string, 8)
	m := Model{
		ctx:       ctx,
		refresher: refresher,
		locale:    locale,
		flash:     grid.NewFlash(grid.FlashDuration),
		flashes:   flashes,
		now:       time.Now,
		state:     grid.DefaultState(),
		table:     t,
		search:    ti,
		spinner:   s,
	}
	m.flash.OnChange(func(column string) {
		select {
		case flashes <- column:
		default:
		}
	})
	m.rederive()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickStatus(), waitForFlash(m.flashes))
}

// Close stops a pending header highlight.
func (m Model) Close() {
	m.flash.Stop()
}

func (m Model) State() grid.GridState {
	return m.state
}

func (m Model) CurrentView() grid.View {
	return m.view
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-chromeHeight, 3))
		return m, nil

	case statusTickMsg:
		if m.refresher.Status().LastError == "" {
			m.failure = ""
		}
		m.rederive()
		return m, tickStatus()

	case flashMsg:
		m.rederive()
		return m, waitForFlash(m.flashes)

	case refreshDoneMsg:
		m.refreshing = false
		m.failure = ""
		if msg.err != nil {
			m.failure = msg.err.Error()
		}
		m.rederive()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateGrid(msg)
	}

	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.Close()
		return m, tea.Quit
	case "enter", "esc":
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.state.Filter.Search {
		m.state = grid.ApplySearch(m.state, m.search.Value())
		m.rederive()
	}
	return m, cmd
}

func (m Model) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c", "q":
		m.Close()
		return m, tea.Quit

	case "/":
		m.searching = true
		m.message = ""
		return m, m.search.Focus()

	case "d":
		m.state = grid.ApplyDepartment(m.state, m.nextDepartment())
	case "left", "p":
		m.state = grid.PrevPage(m.state, m.view.TotalPages)
	case "right", "n":
		m.state = grid.NextPage(m.state, m.view.TotalPages)
	case "[":
		m.state = grid.GoToPage(m.state, 1, m.view.TotalPages)
	case "]":
		m.state = grid.GoToPage(m.state, m.view.TotalPages, m.view.TotalPages)

	case "r":
		if m.refreshing {
			return m, nil
		}
		m.refreshing = true
		m.message = ""
		m.rederive()
		return m, tea.Batch(m.refreshCmd(), m.spinner.Tick)

	case "o":
		m.state = grid.Reset()
		m.flash.Stop()
		m.search.SetValue("")
		m.lastKey = ""
		m.message = viewer.LogoutMessage

	case "1", "2", "3", "4", "5", "6", "7":
		m.activateHeader(grid.Columns[int(key[0]-'1')])

	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	m.rederive()
	return m, nil
}

// activateHeader toggles the sort of column on the second press within
// DoublePressWindow. The first press only arms it.
func (m *Model) activateHeader(column grid.Column) {
	now := m.now()
	if m.lastKey == column.Key && now.Sub(m.lastKeyAt) <= DoublePressWindow {
		m.state = grid.ToggleSort(m.state, column.Key)
		m.flash.Trigger(column.Key)
		m.lastKey = ""
		m.message = ""
		return
	}
	m.lastKey = column.Key
	m.lastKeyAt = now
	m.message = fmt.Sprintf("Press again to sort by %s", column.Label)
}

func (m Model) nextDepartment() string {
	options := m.view.Departments
	if len(options) == 0 {
		return grid.AllDepartments
	}
	i := slices.Index(options, m.state.Filter.Department)
	return options[(i+1)%len(options)]
}

func (m Model) refreshCmd() tea.Cmd {
	ctx, refresher := m.ctx, m.refresher
	return func() tea.Msg {
		return refreshDoneMsg{err: refresher.Refresh(ctx)}
	}
}

func (m *Model) rederive() {
	view := grid.Derive(m.refresher.Store().Load(), m.state, m.locale).WithFlash(m.flash.Column())
	status := m.refresher.Status()
	view.Loading = status.Loading || m.refreshing
	view.Status.LastError = status.LastError
	m.view = view

	m.table.SetColumns(columns(view))
	m.table.SetRows(rows(view))
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Inventory"))
	b.WriteString("  ")
	b.WriteString(filterStyle.Render("Department: " + m.view.Filter.Department))
	b.WriteString("  ")
	if m.searching || m.search.Value() != "" {
		b.WriteString(m.search.View())
	}
	b.WriteString("\n")

	if m.view.Sort.Active() {
		b.WriteString(m.sortLabel())
	}
	b.WriteString("\n\n")

	switch {
	case m.view.Loading:
		b.WriteString(m.spinner.View() + " Loading inventory...\n")
	case m.view.Empty:
		b.WriteString(m.table.View() + "\n")
		b.WriteString(emptyStyle.Render("No items found") + "\n")
	default:
		b.WriteString(m.table.View() + "\n")
	}

	b.WriteString(fmt.Sprintf("Page %d of %d  |  %d of %d items",
		m.view.Page, m.view.TotalPages, m.view.FilteredRecords, m.view.TotalRecords))
	if !m.view.Status.FetchedAt.IsZero() {
		b.WriteString("  |  updated " + m.view.Status.FetchedAt.Local().Format("15:04:05"))
	}
	b.WriteString("\n")

	if m.failure != "" {
		b.WriteString(errorStyle.Render("Refresh failed: "+m.failure) + "\n")
	} else if m.view.Status.LastError != "" {
		b.WriteString(errorStyle.Render("Last refresh failed: "+m.view.Status.LastError) + "\n")
	}
	if m.message != "" {
		b.WriteString(infoStyle.Render(m.message) + "\n")
	}

	b.WriteString(helpStyle.Render("1-7 twice: sort  d: department  /: search  ←/→: page  r: refresh  o: log out  q: quit"))

	return docStyle.Render(b.String())
}

func (m Model) sortLabel() string {
	column, err := grid.LookupColumn(m.view.Sort.Key)
	if err != nil {
		return ""
	}
	label := fmt.Sprintf("Sorted by %s (%s)", column.Label, m.view.Sort.Direction)
	if m.view.FlashColumn == column.Key {
		return flashStyle.Render(label)
	}
	return sortStyle.Render(label)
}

func columns(view grid.View) []table.Column {
	out := make([]table.Column, len(view.Columns))
	for i, c := range view.Columns {
		title := c.Label
		switch c.Direction {
		case grid.Ascending:
			title += " ▲"
		case grid.Descending:
			title += " ▼"
		}
		if c.Flashing {
			title = "» " + title
		}
		out[i] = table.Column{Title: title, Width: columnWidths[i]}
	}
	return out
}

func rows(view grid.View) []table.Row {
	out := make([]table.Row, len(view.Rows))
	for i, r := range view.Rows {
		cells := grid.Cells(r)
		for j, c := range grid.Columns {
			if c.Align == grid.AlignRight {
				cells[j] = fmt.Sprintf("%*s", columnWidths[j], cells[j])
			}
		}
		out[i] = cells
	}
	return out
}

func tickStatus() tea.Cmd {
	return tea.Tick(statusTickInterval, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}

func waitForFlash(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		return flashMsg(<-ch)
	}
}

// Run starts the viewer in the alternate screen and blocks until the user
// quits or ctx is cancelled.
func Run(ctx context.Context, refresher Refresher, locale language.Tag) error {
	model := New(ctx, refresher, locale)
	defer model.Close()

	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("run inventory viewer: %w", err)
	}
	return nil
}
