package shelf

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	journeydto "pathway/internal/modules/journey/dto"
	"pathway/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type Port interface {
	ListJourneys(ctx context.Context) ([]journeydto.JourneySummaryOutput, error)
	RestoreJourney(ctx context.Context, id string) (journeydto.RestoreOutput, error)
	DeleteJourney(ctx context.Context, id string) error
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	Journeys []journeydto.JourneySummaryOutput
	Err      error
}

// RestoredMsg bubbles up so the app can switch back to the journey tab.
type RestoredMsg struct {
	Out journeydto.RestoreOutput
	Err error
}

type DeletedMsg struct {
	ID  string
	Err error
}

// ─── list item ───────────────────────────────────────────────────────────────

type journeyItem struct {
	summary journeydto.JourneySummaryOutput
}

func (i journeyItem) Title() string { return i.summary.Title }

func (i journeyItem) Description() string {
	state := fmt.Sprintf("step %d", i.summary.CurrentStep+1)
	if i.summary.IsCompleted {
		state = "completed"
	}
	return fmt.Sprintf("%s  ·  %s", i.summary.UpdatedAt.Format("Jan 2, 2006"), state)
}

func (i journeyItem) FilterValue() string { return i.summary.Title }

// ─── model ───────────────────────────────────────────────────────────────────

// Model lists the saved journeys: enter restores one into the current draft,
// d deletes, r reloads.
type Model struct {
	port    Port
	list    list.Model
	spinner spinner.Model
	loading bool
	err     error
	width   int
	height  int
}

func New(port Port) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Saved journeys"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{port: port, list: l, spinner: sp, loading: true}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(m.width, m.height-1)

	case LoadedMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		items := make([]list.Item, len(msg.Journeys))
		for i, j := range msg.Journeys {
			items[i] = journeyItem{summary: j}
		}
		cmds = append(cmds, m.list.SetItems(items))

	case DeletedMsg:
		if msg.Err == nil {
			cmds = append(cmds, m.loadCmd())
		}

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(journeyItem); ok {
				return m, m.restoreCmd(item.summary.ID)
			}
		case "d":
			if item, ok := m.list.SelectedItem().(journeyItem); ok {
				return m, m.deleteCmd(item.summary.ID)
			}
		case "r":
			m.loading = true
			return m, tea.Batch(m.loadCmd(), m.spinner.Tick)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading saved journeys…")
	}
	if m.err != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			theme.Hot.Render("Could not load journeys: "+m.err.Error()))
	}
	footer := theme.Muted.Render("enter: restore  d: delete  r: reload")
	return lipgloss.JoinVertical(lipgloss.Left, m.list.View(), footer)
}

// Filtering reports whether the list filter owns the keyboard.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// Reload refreshes the list, e.g. after a save on the journey tab.
func (m *Model) Reload() tea.Cmd {
	m.loading = true
	return tea.Batch(m.loadCmd(), m.spinner.Tick)
}

// ─── commands ────────────────────────────────────────────────────────────────

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		journeys, err := m.port.ListJourneys(context.Background())
		return LoadedMsg{Journeys: journeys, Err: err}
	}
}

func (m Model) restoreCmd(id string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.RestoreJourney(context.Background(), id)
		return RestoredMsg{Out: out, Err: err}
	}
}

func (m Model) deleteCmd(id string) tea.Cmd {
	return func() tea.Msg {
		err := m.port.DeleteJourney(context.Background(), id)
		return DeletedMsg{ID: id, Err: err}
	}
}
