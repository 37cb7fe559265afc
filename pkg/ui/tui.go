package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/pool-sniper/business/pipeline/domain"
	scoringDomain "github.com/fd1az/pool-sniper/business/scoring/domain"
	"github.com/fd1az/pool-sniper/internal/solana"
	"github.com/fd1az/pool-sniper/pkg/ui/components"
)

// StartupStep represents a step in the startup process.
type StartupStep struct {
	Name   string
	Status string
}

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"
	PhaseStartup   Phase = "startup"
	PhaseDashboard Phase = "dashboard"
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

// Connection names shown in the status bar.
const (
	ConnSolanaWS = "solana_ws"
)

var stepOrder = []string{StepConfig, StepSolana, StepPipeline}

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	signals *components.SignalsComponent
	factors *components.FactorsComponent
	stats   *components.StatsComponent
	status  *components.StatusComponent
	keys    KeyMap
	help    help.Model

	phase        Phase
	welcomeStart time.Time

	ready      bool
	quitting   bool
	paused     bool
	width      int
	height     int
	lastUpdate time.Time
	errors     []ErrorEntry
	activity   []string

	controller Controller

	startupSteps map[string]*StartupStep
	startupTime  time.Time

	now func() time.Time
}

// New creates a new TUI model.
func New() Model {
	now := time.Now()
	return Model{
		signals:      components.NewSignalsComponent(100),
		factors:      components.NewFactorsComponent(),
		stats:        components.NewStatsComponent(),
		status:       components.NewStatusComponent(),
		keys:         DefaultKeyMap(),
		help:         help.New(),
		phase:        PhaseWelcome,
		welcomeStart: now,
		errors:       make([]ErrorEntry, 0, 3),
		activity:     make([]string, 0, 6),
		startupSteps: map[string]*StartupStep{
			StepConfig:   {Name: "Loading configuration", Status: StepReady},
			StepSolana:   {Name: "Connecting to Solana", Status: StepPending},
			StepPipeline: {Name: "Starting pipeline", Status: StepPending},
		},
		startupTime: now,
		now:         time.Now,
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick every 100ms for smooth animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		// During welcome phase, any other key skips to startup
		if m.phase == PhaseWelcome {
			m.leaveWelcome()
			return m, tickCmd()
		}
		switch {
		case key.Matches(msg, m.keys.Pause):
			m.togglePause()
		case key.Matches(msg, m.keys.Clear):
			m.signals.Clear()
			m.factors.Reset()
		case key.Matches(msg, m.keys.Up):
			m.signals.ScrollUp()
			m.showSelected()
		case key.Matches(msg, m.keys.Down):
			m.signals.ScrollDown()
			m.showSelected()
		case key.Matches(msg, m.keys.ClearErrors):
			m.errors = m.errors[:0]
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true

	case TickMsg:
		if m.phase == PhaseWelcome && m.now().Sub(m.welcomeStart) >= WelcomeDuration {
			m.leaveWelcome()
		}
		return m, tickCmd()

	case OutcomeMsg:
		m.addOutcome(msg.Outcome, msg.At)
		m.lastUpdate = m.now()

	case StatsMsg:
		m.paused = msg.Stats.Paused
		m.stats.Update(components.Stats{
			Received:      msg.Stats.Received,
			Scored:        msg.Stats.Scored,
			Executed:      msg.Stats.Executed,
			Failed:        msg.Stats.ExecutionFailures,
			Skipped:       msg.Stats.TotalSkipped(),
			Duplicates:    msg.Stats.Duplicates,
			Invalid:       msg.Stats.Invalid,
			AlertsSent:    msg.Stats.NotificationsSent,
			AlertsPending: msg.Stats.NotificationsPending,
			AlertsDropped: msg.Stats.NotificationsDropped,
			TradesToday:   msg.Gate.TodayCount,
			MaxDaily:      msg.Gate.MaxDaily,
			Cooldown:      msg.Gate.Remaining,
		})

	case ConnectionStatusMsg:
		m.status.Update(components.ConnectionStatus{Name: msg.Name, State: msg.State, Since: m.now()})
		m.activity = addActivity(m.activity, m.now(), fmt.Sprintf("%s %s", msg.Name, msg.State))
		if msg.Name == ConnSolanaWS {
			status := StepConnecting
			if msg.State == "connected" {
				status = StepReady
			}
			m.setStep(StepSolana, status)
		}

	case ControllerMsg:
		m.controller = msg.Controller
		if m.controller != nil {
			m.paused = m.controller.Paused()
		}

	case StartupMsg:
		m.setStep(msg.Step, msg.Status)
		if msg.Status == StepFailed && msg.Message != "" {
			m.addError(msg.Message)
		}

	case ErrorMsg:
		if msg.Error != nil {
			m.addError(msg.Error.Error())
		}

	case LogMsg:
		m.activity = addActivity(m.activity, m.now(), msg.Level+": "+msg.Message)
	}

	return m, nil
}

func (m *Model) leaveWelcome() {
	m.phase = PhaseStartup
	m.startupTime = m.now()
	// Trigger callback directly (don't use Send() from within Update)
	if OnStartModules != nil {
		go OnStartModules()
	}
}

func (m *Model) togglePause() {
	if m.controller == nil {
		return
	}
	if m.controller.Paused() {
		m.controller.Resume()
		m.activity = addActivity(m.activity, m.now(), "trading resumed")
	} else {
		m.controller.Pause()
		m.activity = addActivity(m.activity, m.now(), "trading paused")
	}
	m.paused = m.controller.Paused()
}

func (m *Model) addOutcome(o domain.Outcome, at time.Time) {
	if at.IsZero() {
		at = m.now()
	}
	switch o.State {
	case domain.StateDuplicate:
		return
	case domain.StateInvalid:
		m.activity = addActivity(m.activity, at, "invalid event "+solana.Shorten(o.Opportunity.ID))
		return
	}

	row := NewSignalRow(o, at)
	m.signals.Add(row)
	if m.phase == PhaseStartup {
		m.phase = PhaseDashboard
	}
	m.showSelected()
}

func (m *Model) showSelected() {
	if row, ok := m.signals.Selected(); ok {
		m.factors.Show(row)
	}
}

func (m *Model) setStep(name, status string) {
	if step, ok := m.startupSteps[name]; ok {
		step.Status = status
	}
	if m.phase == PhaseStartup && m.startupComplete() {
		m.phase = PhaseDashboard
	}
}

func (m Model) startupComplete() bool {
	for _, step := range m.startupSteps {
		if step.Status != StepReady {
			return false
		}
	}
	return true
}

func (m *Model) addError(message string) {
	m.errors = append(m.errors, ErrorEntry{Message: message, Timestamp: m.now()})
	if len(m.errors) > 3 {
		m.errors = m.errors[len(m.errors)-3:]
	}
}

// NewSignalRow converts an outcome into a dashboard row.
func NewSignalRow(o domain.Outcome, at time.Time) components.SignalRow {
	row := components.SignalRow{
		Time:     at.Format("15:04:05"),
		Pool:     solana.Shorten(o.Opportunity.Pool),
		Mint:     solana.Shorten(o.Opportunity.BaseMint),
		Decision: o.DecisionLine(),
		Kind:     components.KindSkipped,
	}
	switch o.State {
	case domain.StateExecuted:
		row.Kind = components.KindExecuted
	case domain.StateExecutionFailed:
		row.Kind = components.KindFailed
	}

	if o.Signal != nil {
		a := o.Signal.Assessment
		row.Symbol = a.TokenSymbol
		row.Tier = a.Tier().Emoji() + " " + string(a.Tier())
		row.Composite = a.Composite()
		row.Liquidity = a.Liquidity
		row.Tags = a.Tags()
		for _, f := range scoringDomain.Factors {
			s, ok := a.Score(f)
			row.Factors = append(row.Factors, components.FactorRow{Name: string(f), Score: s, OK: ok})
		}
	}
	return row
}

// addActivity adds an activity message and keeps the last 6.
func addActivity(feed []string, at time.Time, message string) []string {
	feed = append(feed, fmt.Sprintf("[%s] %s", at.Format("15:04:05"), message))
	if len(feed) > 6 {
		feed = feed[len(feed)-6:]
	}
	return feed
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		return m.renderStartupScreen()
	}

	var b strings.Builder

	b.WriteString(BannerStyle.Render(" 🎯 Solana Pool Sniper "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	left := m.signals.View() + "\n\n" + m.renderActivityFeed()
	right := m.factors.View()

	if m.width > 100 {
		l := PanelStyle.Width(m.width*3/5 - 2).Render(left)
		r := PanelStyle.Width(m.width*2/5 - 2).Render(right)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, l, r))
	} else {
		width := max(m.width-4, 40)
		b.WriteString(PanelStyle.Width(width).Render(left))
		b.WriteString("\n")
		b.WriteString(PanelStyle.Width(width).Render(right))
	}
	b.WriteString("\n\n")
	b.WriteString(m.stats.View())
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		errorStyle := lipgloss.NewStyle().Foreground(ColorBad)
		errorHeader := lipgloss.NewStyle().Bold(true).Foreground(ColorBad)

		b.WriteString(errorHeader.Render("ERRORS"))
		b.WriteString(DimText.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := m.now().Sub(err.Timestamp).Round(time.Second)
			b.WriteString(errorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(DimText.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.paused {
		b.WriteString(PausedStyle.Render("⏸ TRADING PAUSED"))
		b.WriteString(" • ")
	}
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m Model) renderActivityFeed() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("ACTIVITY"))
	sb.WriteString("\n")
	if len(m.activity) == 0 {
		sb.WriteString(DimText.Render("  Nothing yet"))
		return sb.String()
	}
	for _, line := range m.activity {
		sb.WriteString(DimText.Render("  " + line))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	greenStyle := lipgloss.NewStyle().Foreground(ColorGood)

	dotCount := int(m.now().Sub(m.welcomeStart).Milliseconds()/300) % 4

	var sb strings.Builder
	sb.WriteString("\n\n\n\n")
	logo := `
   ███████╗███╗   ██╗██╗██████╗ ███████╗██████╗
   ██╔════╝████╗  ██║██║██╔══██╗██╔════╝██╔══██╗
   ███████╗██╔██╗ ██║██║██████╔╝█████╗  ██████╔╝
   ╚════██║██║╚██╗██║██║██╔═══╝ ██╔══╝  ██╔══██╗
   ███████║██║ ╚████║██║██║     ███████╗██║  ██║
   ╚══════╝╚═╝  ╚═══╝╚═╝╚═╝     ╚══════╝╚═╝  ╚═╝
`
	sb.WriteString(titleStyle.Render(logo))
	sb.WriteString("\n")
	sb.WriteString(DimText.Render("            S O L A N A   P O O L   S N I P E R"))
	sb.WriteString("\n\n\n")
	sb.WriteString(greenStyle.Render("                    Initializing" + strings.Repeat(".", dotCount)))
	sb.WriteString("\n\n")
	sb.WriteString(DimText.Render("              Press any key to skip, or wait..."))
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) renderStartupScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorAccent).MarginBottom(1)
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	successStyle := lipgloss.NewStyle().Foreground(ColorGood)
	connectingStyle := lipgloss.NewStyle().Foreground(ColorCaution)
	failedStyle := lipgloss.NewStyle().Foreground(ColorBad)

	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(titleStyle.Render("  🎯 Solana Pool Sniper"))
	sb.WriteString("\n\n")
	sb.WriteString(headerStyle.Render("  Starting up..."))
	sb.WriteString("\n\n")

	elapsed := m.now().Sub(m.startupTime)
	for _, name := range stepOrder {
		step, ok := m.startupSteps[name]
		if !ok {
			continue
		}

		var icon, statusText string
		var style lipgloss.Style
		switch step.Status {
		case StepReady:
			icon, statusText, style = "✓", "Ready", successStyle
		case StepConnecting:
			spinners := []string{"◐", "◓", "◑", "◒"}
			icon = spinners[int(elapsed.Milliseconds()/200)%len(spinners)]
			statusText, style = "Connecting...", connectingStyle
		case StepFailed:
			icon, statusText, style = "✗", "Failed", failedStyle
		default:
			icon, statusText, style = "○", "Pending", DimText
		}

		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			style.Render(icon),
			DimText.Render(step.Name),
			style.Render(statusText),
		))
	}

	sb.WriteString("\n")
	sb.WriteString(DimText.Render(fmt.Sprintf("  Elapsed: %s", elapsed.Round(time.Second))))
	sb.WriteString("\n")

	for _, err := range m.errors {
		sb.WriteString(failedStyle.Render("  • " + err.Message))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderStatusBar() string {
	parts := []string{m.status.View()}

	if !m.lastUpdate.IsZero() {
		ago := m.now().Sub(m.lastUpdate).Round(time.Second)
		parts = append(parts, DimText.Render(fmt.Sprintf("Last signal: %s ago", ago)))
	}
	return strings.Join(parts, "  │  ")
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called when the welcome screen completes and modules should start.
// This is set by main.go to signal when to begin loading modules.
var OnStartModules func()

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}
