// Package tui provides a Bubble Tea terminal user interface for xchina-downloader.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/handiism/xchina-downloader/internal/config"
	"github.com/handiism/xchina-downloader/internal/download"
	"github.com/handiism/xchina-downloader/internal/logger"
	"github.com/handiism/xchina-downloader/internal/model"
	"github.com/handiism/xchina-downloader/internal/pagerange"
	"github.com/handiism/xchina-downloader/internal/xchina"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	targetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// logLines is how many log entries the log pane shows.
const logLines = 10

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateResolving
	StateDownloading
	StateComplete
	StateError
)

// Downloader is the part of download.Manager the TUI drives.
type Downloader interface {
	Run(ctx context.Context, target xchina.Target, pageExpr string) error
	Progress() download.Progress
	SetFilter(f model.Filter)
	Filter() model.Filter
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	err       error

	// Download context
	ctx    context.Context
	cancel context.CancelFunc

	manager Downloader
	hook    *logger.RingHook

	target   xchina.Target
	pageExpr string
	stats    download.Progress

	verbose bool

	width  int
	height int
}

// NewModel creates a new TUI model. hook receives the entries of the
// logger the manager was built with.
func NewModel(settings *config.Settings, manager Downloader, hook *logger.RingHook) Model {
	ti := textinput.New()
	ti.Placeholder = "https://xchina.co/photos/series-5f1476781eab4.html 1~3"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		ctx:       ctx,
		cancel:    cancel,
		manager:   manager,
		hook:      hook,
		verbose:   settings.Debug,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// DownloadDoneMsg is sent when the run completes.
	DownloadDoneMsg struct {
		Progress download.Progress
		Err      error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// parseInput splits "URL [page range]" and validates both parts.
func parseInput(input string) (xchina.Target, string, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return xchina.Target{}, "", errors.New("no URL given")
	}

	target, ok := xchina.Classify(fields[0])
	if !ok {
		return xchina.Target{}, "", fmt.Errorf("%w: %s", xchina.ErrInvalidURL, fields[0])
	}

	expr := strings.Join(fields[1:], "")
	if expr == "" {
		return target, "", nil
	}
	if target.Kind != xchina.KindListing {
		return xchina.Target{}, "", fmt.Errorf("page range %q requires a listing URL", expr)
	}
	if _, err := pagerange.Parse(expr, 1); err != nil {
		return xchina.Target{}, "", err
	}
	return target, expr, nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateDownloading || m.state == StateResolving {
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}

		case "enter":
			if m.state == StateInput && m.textInput.Value() != "" {
				target, expr, err := parseInput(m.textInput.Value())
				if err != nil {
					m.state = StateError
					m.err = err
					return m, nil
				}
				m.target, m.pageExpr = target, expr
				m.state = StateResolving
				return m, tea.Batch(m.startDownload(), m.tickProgress(), m.spinner.Tick)
			}

		// Letters belong to the URL field while it has focus.
		case "f":
			if m.state != StateInput {
				m.manager.SetFilter(m.manager.Filter().Next())
			}

		case "v":
			if m.state != StateInput {
				m.verbose = !m.verbose
			}

		case "tab":
			if m.state == StateInput {
				m.manager.SetFilter(m.manager.Filter().Next())
			}

		case "ctrl+t":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for new download
				m.cancel()
				m.state = StateInput
				m.err = nil
				m.stats = download.Progress{}
				m.target, m.pageExpr = xchina.Target{}, ""
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.SetValue("")
				m.textInput.Focus()
				return m, m.progress.SetPercent(0)
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case DownloadDoneMsg:
		// A run cancelled with esc may report after the user moved on.
		if m.state != StateResolving && m.state != StateDownloading {
			return m, nil
		}
		m.stats = msg.Progress
		switch {
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		default:
			m.state = StateComplete
		}
		cmds = append(cmds, m.progress.SetPercent(m.stats.Ratio()))

	case TickMsg:
		if m.state == StateResolving || m.state == StateDownloading {
			m.stats = m.manager.Progress()
			if m.state == StateResolving && m.stats.FilesScheduled > 0 {
				m.state = StateDownloading
			}
			cmds = append(cmds, m.progress.SetPercent(m.stats.Ratio()), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("xchina downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download galleries from xchina.co"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateResolving:
		b.WriteString(m.viewResolving())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter URL and optional page range:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	verboseCheck := "[ ]"
	if m.verbose {
		verboseCheck = "[x]"
	}

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Media: %s (tab)\n", m.manager.Filter()))
	b.WriteString(fmt.Sprintf("  %s Verbose/debug output (ctrl+t)\n", verboseCheck))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Save directory: %s", m.settings.SaveDir)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewTarget() string {
	line := fmt.Sprintf("%s %s", m.target.Kind, m.target.URL)
	if m.pageExpr != "" {
		line += " pages " + m.pageExpr
	}
	return targetStyle.Render(line) + "\n\n"
}

func (m Model) viewResolving() string {
	var b strings.Builder

	b.WriteString(m.viewTarget())
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Resolving pages..."))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	b.WriteString(m.viewTarget())

	b.WriteString(m.progress.View())
	b.WriteString("\n")

	s := m.stats
	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Items: %d/%d | Files: %d/%d (%d skipped, %d failed) | %.2f MB | Media: %s",
		s.ItemsDone+s.ItemsFailed, s.ItemsTotal,
		s.FilesFinished(), s.FilesScheduled,
		s.FilesSkipped, s.FilesFailed,
		float64(s.Bytes)/1024/1024,
		m.manager.Filter(),
	)))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	s := m.stats
	return boxStyle.Render(successStyle.Render("Download complete") + fmt.Sprintf(
		"\n\n"+
			"Items: %d (%d failed)\n"+
			"Files: %d saved, %d skipped, %d failed\n"+
			"Size: %.2f MB",
		s.ItemsTotal, s.ItemsFailed,
		s.FilesDone, s.FilesSkipped, s.FilesFailed,
		float64(s.Bytes)/1024/1024,
	))
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}

	return b.String()
}

// visibleLogs returns the newest entries at the displayed levels.
func (m Model) visibleLogs() []logger.Entry {
	if m.hook == nil {
		return nil
	}
	threshold := logrus.InfoLevel
	if m.verbose {
		threshold = logrus.DebugLevel
	}

	var entries []logger.Entry
	for _, e := range m.hook.Entries() {
		if e.Level <= threshold {
			entries = append(entries, e)
		}
	}
	if len(entries) > logLines {
		entries = entries[len(entries)-logLines:]
	}
	return entries
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, e := range m.visibleLogs() {
		var style lipgloss.Style
		prefix := "-"
		switch {
		case e.Level <= logrus.ErrorLevel:
			style = errorStyle
			prefix = "x"
		case e.Level == logrus.WarnLevel:
			style = warningStyle
			prefix = "!"
		case e.Level == logrus.InfoLevel:
			style = infoStyle
			prefix = ">"
		default:
			style = dimStyle
		}

		line := e.Message
		for _, key := range []string{"url", "file", "path"} {
			if v, ok := e.Fields[key]; ok {
				line += fmt.Sprintf(" %s=%v", key, v)
				break
			}
		}
		if v, ok := e.Fields[logrus.ErrorKey]; ok {
			line += fmt.Sprintf(" (%v)", v)
		}

		b.WriteString(style.Render(prefix + " " + line))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) helpText() string {
	switch m.state {
	case StateInput:
		return "enter: start | tab: media | ctrl+t: verbose | esc: quit"
	case StateResolving, StateDownloading:
		return "f: media | v: verbose | esc: cancel"
	case StateComplete, StateError:
		return "r: new download | q: quit"
	}
	return ""
}

// startDownload runs the download in the background.
func (m Model) startDownload() tea.Cmd {
	ctx, manager, target, expr := m.ctx, m.manager, m.target, m.pageExpr
	return func() tea.Msg {
		err := manager.Run(ctx, target, expr)
		return DownloadDoneMsg{Progress: manager.Progress(), Err: err}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings, manager Downloader, hook *logger.RingHook) error {
	p := tea.NewProgram(NewModel(settings, manager, hook), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
