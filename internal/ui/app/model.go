package app

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	authdto "pathway/internal/modules/auth/dto"
	journeydto "pathway/internal/modules/journey/dto"
	apperrors "pathway/internal/platform/errors"
	"pathway/internal/ui/components"
	"pathway/internal/ui/theme"
	journeyview "pathway/internal/ui/views/journey"
	shelfview "pathway/internal/ui/views/shelf"
)

// ─── ports ───────────────────────────────────────────────────────────────────
// Each port is the minimal interface that this orchestration layer requires.
// Sub-view ports are defined in their own packages and narrowed further.

type journeyPort interface {
	Current(ctx context.Context) (journeydto.CurrentOutput, error)
	Begin(ctx context.Context) (journeydto.CurrentOutput, error)
	Respond(ctx context.Context, input journeydto.RespondInput) (journeydto.CurrentOutput, error)
	Advance(ctx context.Context) (journeydto.CurrentOutput, error)
	Back(ctx context.Context) (journeydto.CurrentOutput, error)
	Complete(ctx context.Context) (journeydto.CurrentOutput, error)
	Reset(ctx context.Context) (journeydto.CurrentOutput, error)
	SetAudio(ctx context.Context, input journeydto.AudioInput) (journeydto.CurrentOutput, error)
	SaveJourney(ctx context.Context, input journeydto.SaveInput) (journeydto.SaveOutput, error)
	ListJourneys(ctx context.Context) ([]journeydto.JourneySummaryOutput, error)
	RestoreJourney(ctx context.Context, id string) (journeydto.RestoreOutput, error)
	DeleteJourney(ctx context.Context, id string) error
	ExportJourney(ctx context.Context) (journeydto.ExportOutput, error)
}

type authPort interface {
	CurrentSession(ctx context.Context) (authdto.SessionOutput, bool, error)
	RedirectURL(ctx context.Context, native bool, webOrigin string) (authdto.RedirectURLOutput, error)
	ResetPassword(ctx context.Context, newPassword, confirm string) error
	SignOut(ctx context.Context) error
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabJourney tabID = iota
	tabShelf
	tabCount
)

var tabLabels = [tabCount]string{"Journey", "Saved"}

// ─── async messages ───────────────────────────────────────────────────────────

type sessionLoadedMsg struct {
	session authdto.SessionOutput
	ok      bool
	err     error
}

type savedMsg struct {
	out journeydto.SaveOutput
	err error
}

type exportedMsg struct {
	out journeydto.ExportOutput
	err error
}

type signedOutMsg struct{ err error }

type signInURLMsg struct {
	url string
	err error
}

type passwordResetMsg struct{ err error }

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Save    key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Save:    key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save journey")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Save, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Save},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It owns tab routing, the signed-in
// account state, the help overlay, and the command palette. Business logic is
// delegated to port interfaces; rendering of the two tabs to sub-views.
type Model struct {
	journey journeyPort
	auth    authPort

	journeyView journeyview.Model
	shelfView   shelfview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	session   authdto.SessionOutput
	signedIn  bool
	status    string
	width     int
	height    int
}

func NewModel(journey journeyPort, auth authPort) Model {
	return Model{
		journey:     journey,
		auth:        auth,
		journeyView: journeyview.New(journey),
		shelfView:   shelfview.New(journey),
		activeTab:   tabJourney,
		keys:        defaultKeys(),
		help:        help.New(),
		palette:     components.NewPalette(),
		status:      "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.journeyView.Init(),
		m.shelfView.Init(),
		m.loadSessionCmd(),
	)
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// The palette intercepts all input while open.
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()

	case sessionLoadedMsg:
		if msg.err != nil {
			m.status = "session check: " + msg.err.Error()
			m.signedIn = false
		} else {
			m.signedIn = msg.ok
			m.session = msg.session
			if msg.ok {
				m.status = "signed in as " + msg.session.Email
			}
		}

	case savedMsg:
		if msg.err != nil {
			m.status = saveErrorStatus(msg.err)
		} else if msg.out.Updated {
			m.status = "updated: " + msg.out.Title
		} else {
			m.status = "saved: " + msg.out.Title
		}
		cmds = append(cmds, m.journeyView.Refresh(), m.shelfView.Reload())

	case exportedMsg:
		if msg.err != nil {
			m.status = "export failed: " + msg.err.Error()
		} else {
			m.status = "exported to " + msg.out.Path
		}

	case signedOutMsg:
		if msg.err != nil {
			m.status = "sign out failed: " + msg.err.Error()
		} else {
			m.signedIn = false
			m.session = authdto.SessionOutput{}
			m.status = "signed out"
			cmds = append(cmds, m.journeyView.Refresh())
		}

	case signInURLMsg:
		if msg.err != nil {
			m.status = "sign in: " + msg.err.Error()
		} else {
			m.status = "open in a browser: " + msg.url
		}

	case passwordResetMsg:
		if msg.err != nil {
			m.status = "password reset failed: " + msg.err.Error()
		} else {
			m.status = "password updated; local draft cleared"
			cmds = append(cmds, m.journeyView.Refresh())
		}

	case shelfview.DeletedMsg:
		if msg.Err != nil {
			m.status = "delete failed: " + msg.Err.Error()
		} else {
			m.status = "deleted " + msg.ID
			// A delete severs the draft's linkage, so the save indicator
			// needs a refresh; the shelf reloads itself when it is active.
			cmds = append(cmds, m.journeyView.Refresh())
			if m.activeTab != tabShelf {
				cmds = append(cmds, m.shelfView.Reload())
			}
		}

	case shelfview.RestoredMsg:
		if msg.Err != nil {
			m.status = "restore failed: " + msg.Err.Error()
		} else {
			m.status = "restored: " + msg.Out.Title
			m.activeTab = tabJourney
			cmds = append(cmds, m.journeyView.Refresh())
		}

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if handled, model, cmd := m.handleGlobalKey(msg); handled {
			return model, cmd
		}
	}

	// Propagate the message to the active tab's sub-view.
	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabJourney:
		m.journeyView, tabCmd = m.journeyView.Update(msg)
	case tabShelf:
		m.shelfView, tabCmd = m.shelfView.Update(msg)
	}
	cmds = append(cmds, tabCmd)

	return m, tea.Batch(cmds...)
}

// handleGlobalKey intercepts app-level bindings. While the journey editor or
// the shelf filter owns the keyboard, only ctrl-chords stay global so free
// typing is never stolen.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "ctrl+c":
		return true, m, tea.Quit
	case "ctrl+s":
		if m.journeyView.Current().Phase == "saving" {
			m.status = "a save is already in flight"
			return true, m, nil
		}
		prefill := "save "
		if title := m.journeyView.Current().SavedJourneyTitle; title != "" {
			prefill += title
		}
		return true, m, m.palette.OpenWith(prefill)
	}

	typing := (m.activeTab == tabJourney && m.journeyView.Editing()) ||
		(m.activeTab == tabShelf && m.shelfView.Filtering())
	if typing {
		return false, m, nil
	}

	switch key {
	case "q":
		return true, m, tea.Quit
	case "tab":
		m.activeTab = (m.activeTab + 1) % tabCount
		return true, m, nil
	case "shift+tab":
		m.activeTab = (m.activeTab + tabCount - 1) % tabCount
		return true, m, nil
	case "?":
		m.showHelp = !m.showHelp
		return true, m, nil
	case ":":
		return true, m, m.palette.Open()
	}
	return false, m, nil
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	tabBarH := lipgloss.Height(tabBar)
	statusBarH := lipgloss.Height(statusBar)

	contentH := m.height - tabBarH - statusBarH
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		content = m.activeView()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) activeView() string {
	switch m.activeTab {
	case tabJourney:
		return m.journeyView.View()
	case tabShelf:
		return m.shelfView.View()
	}
	return ""
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	sep := theme.Muted.Render(" │ ")
	bar := "pathway  " + strings.Join(parts, sep)
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	account := theme.Muted.Render("○ anonymous")
	if m.signedIn {
		account = theme.Good.Render("● " + m.session.Email)
	}
	left := account + "  " + m.saveIndicator() + "  " + m.status
	right := theme.Muted.Render("?:help  tab:switch  :::palette  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

func (m Model) saveIndicator() string {
	c := m.journeyView.Current()
	switch {
	case c.Phase == "saving":
		return theme.Hot.Render("saving…")
	case c.Phase == "failed":
		return theme.Hot.Render("save failed")
	case c.IsDirty:
		return theme.Muted.Render("unsaved")
	case c.IsSaved:
		return theme.Good.Render("saved")
	default:
		return ""
	}
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(input) == "" {
		return m, nil
	}
	parts := strings.Fields(input)

	switch parts[0] {
	case "save":
		title := strings.TrimSpace(strings.TrimPrefix(input, "save"))
		if title == "" {
			m.status = "usage: save <title>"
			return m, nil
		}
		if !m.signedIn {
			m.status = "sign in to save journeys (:signin)"
			return m, nil
		}
		m.status = "saving…"
		return m, m.saveCmd(title)

	case "journeys":
		m.activeTab = tabShelf
		return m, m.shelfView.Reload()

	case "restore":
		if len(parts) < 2 {
			m.status = "usage: restore <id>"
			return m, nil
		}
		return m, m.restoreCmd(parts[1])

	case "delete":
		if len(parts) < 2 {
			m.status = "usage: delete <id>"
			return m, nil
		}
		return m, m.deleteCmd(parts[1])

	case "export":
		return m, m.exportCmd()

	case "reset":
		return m, m.resetCmd()

	case "audio":
		if len(parts) < 2 || (parts[1] != "on" && parts[1] != "off") {
			m.status = "usage: audio on|off [volume]"
			return m, nil
		}
		volume := m.journeyView.Current().AudioVolume
		if len(parts) >= 3 {
			v, err := strconv.Atoi(parts[2])
			if err != nil {
				m.status = "invalid volume"
				return m, nil
			}
			volume = v
		}
		return m, m.audioCmd(parts[1] == "on", volume)

	case "signin":
		return m, m.signInURLCmd()

	case "signout":
		return m, m.signOutCmd()

	case "reset-password":
		if len(parts) < 3 {
			m.status = "usage: reset-password <new> <confirm>"
			return m, nil
		}
		return m, m.passwordResetCmd(parts[1], parts[2])

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.journeyView, _ = m.journeyView.Update(sz)
	m.shelfView, _ = m.shelfView.Update(sz)
}

func saveErrorStatus(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrSaveInFlight):
		return "a save is already in flight"
	case errors.Is(err, apperrors.ErrUnauthenticated):
		return "sign in to save journeys (:signin)"
	case errors.Is(err, apperrors.ErrValidation):
		return "save rejected: " + err.Error()
	default:
		return "save failed: " + err.Error()
	}
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) loadSessionCmd() tea.Cmd {
	return func() tea.Msg {
		session, ok, err := m.auth.CurrentSession(context.Background())
		return sessionLoadedMsg{session: session, ok: ok, err: err}
	}
}

func (m Model) saveCmd(title string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.journey.SaveJourney(context.Background(), journeydto.SaveInput{Title: title})
		return savedMsg{out: out, err: err}
	}
}

func (m Model) restoreCmd(id string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.journey.RestoreJourney(context.Background(), id)
		return shelfview.RestoredMsg{Out: out, Err: err}
	}
}

func (m Model) deleteCmd(id string) tea.Cmd {
	return func() tea.Msg {
		err := m.journey.DeleteJourney(context.Background(), id)
		return shelfview.DeletedMsg{ID: id, Err: err}
	}
}

func (m Model) exportCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.journey.ExportJourney(context.Background())
		return exportedMsg{out: out, err: err}
	}
}

func (m Model) resetCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.journey.Reset(context.Background())
		return journeyview.StateMsg{Out: out, Err: err}
	}
}

func (m Model) audioCmd(enabled bool, volume int) tea.Cmd {
	return func() tea.Msg {
		out, err := m.journey.SetAudio(context.Background(), journeydto.AudioInput{Enabled: enabled, Volume: volume})
		return journeyview.StateMsg{Out: out, Err: err}
	}
}

func (m Model) signInURLCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.auth.RedirectURL(context.Background(), false, "")
		return signInURLMsg{url: out.URL, err: err}
	}
}

func (m Model) signOutCmd() tea.Cmd {
	return func() tea.Msg {
		return signedOutMsg{err: m.auth.SignOut(context.Background())}
	}
}

func (m Model) passwordResetCmd(newPassword, confirm string) tea.Cmd {
	return func() tea.Msg {
		return passwordResetMsg{err: m.auth.ResetPassword(context.Background(), newPassword, confirm)}
	}
}
