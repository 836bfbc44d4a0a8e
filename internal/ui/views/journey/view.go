package journey

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/timer"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	catalog "pathway/internal/modules/catalog/domain"
	journeydto "pathway/internal/modules/journey/dto"
	"pathway/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

// Port is the minimal interface this view needs from the journey use-case.
type Port interface {
	Current(ctx context.Context) (journeydto.CurrentOutput, error)
	Begin(ctx context.Context) (journeydto.CurrentOutput, error)
	Respond(ctx context.Context, input journeydto.RespondInput) (journeydto.CurrentOutput, error)
	Advance(ctx context.Context) (journeydto.CurrentOutput, error)
	Back(ctx context.Context) (journeydto.CurrentOutput, error)
	Complete(ctx context.Context) (journeydto.CurrentOutput, error)
	Reset(ctx context.Context) (journeydto.CurrentOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

// StateMsg carries the refreshed read model after any journey operation.
type StateMsg struct {
	Out journeydto.CurrentOutput
	Err error
}

const (
	kindLanding = "landing"
	kindInput   = "input"
	kindReading = "reading"
	kindTimer   = "timer"
	kindSummary = "summary"

	lastStepIndex = 8
	pauseDuration = 2 * time.Minute
)

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the self-contained Bubble Tea model for walking the pathway. The
// textarea owns most keys on input steps; esc drops into nav mode so arrows
// move between steps, and enter picks the editor back up.
type Model struct {
	port    Port
	input   textarea.Model
	pause   timer.Model
	spinner spinner.Model
	current journeydto.CurrentOutput
	loaded  bool
	loading bool
	navMode bool
	width   int
	height  int
}

func New(port Port) Model {
	ta := textarea.New()
	ta.Placeholder = "Write here…"
	ta.CharLimit = 0
	ta.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{
		port:    port,
		input:   ta,
		pause:   timer.NewWithInterval(pauseDuration, time.Second),
		spinner: sp,
		loading: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case StateMsg:
		m.loading = false
		if msg.Err != nil {
			return m, nil
		}
		return m.applyState(msg.Out)

	case timer.TickMsg, timer.StartStopMsg:
		var cmd tea.Cmd
		m.pause, cmd = m.pause.Update(msg)
		cmds = append(cmds, cmd)

	case timer.TimeoutMsg:
		// The silence is over; enter moves on.

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.input.Focused() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	key := msg.String()

	// Step navigation that works regardless of editor focus.
	switch key {
	case "ctrl+n":
		return m, m.advanceCmd()
	case "ctrl+p":
		return m, m.backCmd()
	}

	switch m.current.StepKind {
	case kindLanding:
		if key == "enter" {
			m.loading = true
			return m, tea.Batch(m.beginCmd(), m.spinner.Tick)
		}

	case kindInput:
		if m.input.Focused() {
			if key == "esc" {
				m.input.Blur()
				m.navMode = true
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		switch key {
		case "enter", "i":
			m.navMode = false
			return m, m.input.Focus()
		case "right", "l":
			return m, m.advanceCmd()
		case "left", "h":
			return m, m.backCmd()
		}

	case kindReading, kindTimer:
		switch key {
		case "enter", "right", "l":
			return m, m.advanceCmd()
		case "left", "h":
			return m, m.backCmd()
		}

	case kindSummary:
		switch key {
		case "left", "h":
			return m, m.backCmd()
		case "n":
			return m, m.resetCmd()
		}
	}
	return m, nil
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.loading && !m.loaded {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Finding the trailhead…")
	}

	header := m.renderHeader()
	body := m.renderBody()
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

func (m Model) renderHeader() string {
	c := m.current
	title := theme.Title.Render(c.StepTitle)
	if c.StepKind == kindLanding || c.StepKind == kindSummary {
		return title + "\n"
	}
	progress := theme.Muted.Render(fmt.Sprintf("  step %d of %d", c.Step+1, lastStepIndex+1))
	return title + progress + "\n"
}

func (m Model) renderBody() string {
	c := m.current
	prompt := theme.Muted.Render(c.StepPrompt)

	switch c.StepKind {
	case kindLanding:
		return prompt + "\n\n" + theme.Hot.Render("enter") + theme.Muted.Render(" to begin")

	case kindInput:
		hint := theme.Muted.Render("esc: step nav  ctrl+n/ctrl+p: next/back  ctrl+s: save")
		if m.navMode {
			hint = theme.Muted.Render("←/→: move  enter: write  ctrl+s: save")
		}
		return prompt + "\n\n" + m.input.View() + "\n" + hint

	case kindReading:
		return prompt + "\n\n" + theme.Muted.Render("enter when ready")

	case kindTimer:
		remaining := m.pause.View()
		if m.pause.Timedout() {
			remaining = theme.Good.Render("time")
		}
		return prompt + "\n\n" + theme.Hot.Render(remaining) + "\n\n" + theme.Muted.Render("enter to continue")

	case kindSummary:
		return m.renderSummary()
	}
	return prompt
}

func (m Model) renderSummary() string {
	var sb strings.Builder
	sb.WriteString(theme.Muted.Render(m.current.StepPrompt) + "\n\n")
	for _, step := range catalog.Steps() {
		if step.Key == "" {
			continue
		}
		text := m.current.Responses[string(step.Key)]
		if strings.TrimSpace(text) == "" {
			continue
		}
		sb.WriteString(theme.Title.Render(step.Title) + "\n")
		sb.WriteString("  " + strings.ReplaceAll(text, "\n", "\n  ") + "\n\n")
	}
	if m.current.IsSaved {
		sb.WriteString(theme.Good.Render("saved as " + m.current.SavedJourneyTitle))
	} else {
		sb.WriteString(theme.Muted.Render("ctrl+s to save this journey"))
	}
	sb.WriteString("\n" + theme.Muted.Render("n: start a new journey"))
	return sb.String()
}

// ─── state plumbing ──────────────────────────────────────────────────────────

// Current exposes the latest read model to the orchestrating app.
func (m Model) Current() journeydto.CurrentOutput { return m.current }

// Editing reports whether the textarea currently owns the keyboard.
func (m Model) Editing() bool { return m.input.Focused() }

// Refresh reloads state from the use-case, e.g. after a restore.
func (m Model) Refresh() tea.Cmd { return m.refreshCmd() }

func (m Model) applyState(out journeydto.CurrentOutput) (Model, tea.Cmd) {
	arrivedAtTimer := out.StepKind == kindTimer && m.current.StepKind != kindTimer
	m.current = out
	m.loaded = true

	var cmds []tea.Cmd
	switch out.StepKind {
	case kindInput:
		m.input.SetValue(out.Response)
		if !m.navMode {
			cmds = append(cmds, m.input.Focus())
		}
	default:
		m.input.Blur()
	}
	if arrivedAtTimer {
		m.pause = timer.NewWithInterval(pauseDuration, time.Second)
		cmds = append(cmds, m.pause.Init())
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) resize() {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	m.input.SetWidth(w)
	h := m.height - 8
	if h < 3 {
		h = 3
	}
	if h > 12 {
		h = 12
	}
	m.input.SetHeight(h)
}

// ─── commands ────────────────────────────────────────────────────────────────

func (m Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.Current(context.Background())
		return StateMsg{Out: out, Err: err}
	}
}

func (m Model) beginCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.Begin(context.Background())
		return StateMsg{Out: out, Err: err}
	}
}

// advanceCmd submits any pending editor text before moving, so leaving a step
// never loses what was typed on it. Only input steps submit: the timer step
// has a response key too, but no editor on screen.
func (m Model) advanceCmd() tea.Cmd {
	key, text := m.current.StepKey, m.input.Value()
	submit := m.current.StepKind == kindInput && key != ""
	atLast := m.current.Step == lastStepIndex
	return func() tea.Msg {
		ctx := context.Background()
		if submit {
			if _, err := m.port.Respond(ctx, journeydto.RespondInput{Key: key, Text: text}); err != nil {
				return StateMsg{Err: err}
			}
		}
		if atLast {
			out, err := m.port.Complete(ctx)
			return StateMsg{Out: out, Err: err}
		}
		out, err := m.port.Advance(ctx)
		return StateMsg{Out: out, Err: err}
	}
}

func (m Model) backCmd() tea.Cmd {
	key, text := m.current.StepKey, m.input.Value()
	submit := m.current.StepKind == kindInput && key != ""
	return func() tea.Msg {
		ctx := context.Background()
		if submit {
			if _, err := m.port.Respond(ctx, journeydto.RespondInput{Key: key, Text: text}); err != nil {
				return StateMsg{Err: err}
			}
		}
		out, err := m.port.Back(ctx)
		return StateMsg{Out: out, Err: err}
	}
}

func (m Model) resetCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.Reset(context.Background())
		return StateMsg{Out: out, Err: err}
	}
}
