// Package tui is a terminal console for the tag bot: it shows and flips
// the feature toggles, switches the current template and tags local files
// with the live configuration.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	ioutils "github.com/handiism/tagbot/internal/io"
	"github.com/handiism/tagbot/internal/model"
	"github.com/handiism/tagbot/internal/pipeline"
	"github.com/handiism/tagbot/internal/state"
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

	fieldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// State represents the current UI state.
type State int

const (
	StateHome State = iota
	StateInput
	StateProcessing
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   pipeline.ProgressLevel
}

// Processor tags one item.
type Processor interface {
	Process(ctx context.Context, item *model.AudioItem) (*pipeline.Result, error)
}

// maxLogs is how many progress lines stay on screen.
const maxLogs = 10

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model

	snapshots *state.Manager
	processor Processor
	events    <-chan pipeline.ProgressEvent
	outDir    string

	logs   []LogEntry
	notice string
	err    error

	// Last finished job
	output  string
	title   string
	changes []string
	flags   []string

	ctx    context.Context
	cancel context.CancelFunc

	width  int
	height int
}

// NewModel creates a new TUI model. events may be nil; when set it should
// receive the processor's progress events. Tagged files are written to
// outDir.
func NewModel(snapshots *state.Manager, processor Processor, events <-chan pipeline.ProgressEvent, outDir string) Model {
	ti := textinput.New()
	ti.Placeholder = "/path/to/file.mp3 | optional title"
	ti.CharLimit = 1000
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateHome,
		textInput: ti,
		spinner:   sp,
		snapshots: snapshots,
		processor: processor,
		events:    events,
		outDir:    outDir,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent())
}

// Message types
type (
	// ProgressMsg carries one progress event of the running job.
	ProgressMsg struct {
		Event pipeline.ProgressEvent
	}

	// DoneMsg is sent when a job finishes.
	DoneMsg struct {
		Output  string
		Title   string
		Changes []string
		Flags   []string
		Err     error
	}
)

// featureKeys maps the number keys to the toggles they flip.
var featureKeys = map[string]model.Feature{
	"1": model.FeatureBot,
	"2": model.FeatureReplacement,
	"3": model.FeatureFooter,
	"4": model.FeatureLinkStripping,
	"5": model.FeatureAlbumCover,
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = max(20, min(80, msg.Width-10))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit
		}

		switch m.state {
		case StateHome:
			return m.updateHome(msg)
		case StateInput:
			switch msg.String() {
			case "esc":
				m.state = StateHome
				m.textInput.Blur()
				return m, nil
			case "enter":
				path, title := parseInput(m.textInput.Value())
				if path == "" {
					return m, nil
				}
				m.state = StateProcessing
				m.logs = nil
				m.err = nil
				return m, tea.Batch(m.process(path, title), m.spinner.Tick)
			}
		case StateProcessing:
			if msg.String() == "esc" {
				m.cancel()
			}
		case StateComplete, StateError:
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "r", "enter", "esc":
				m.state = StateHome
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.SetValue("")
				return m, nil
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		m.logs = append(m.logs, LogEntry{Message: msg.Event.Message, Level: msg.Event.Level})
		if len(m.logs) > maxLogs {
			m.logs = m.logs[len(m.logs)-maxLogs:]
		}
		cmds = append(cmds, m.waitForEvent())

	case DoneMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
			break
		}
		m.state = StateComplete
		m.output = msg.Output
		m.title = msg.Title
		m.changes = msg.Changes
		m.flags = msg.Flags
	}

	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if f, ok := featureKeys[key]; ok {
		var on bool
		err := m.snapshots.Update(m.ctx, func(snap *model.Snapshot) error {
			var err error
			on, err = snap.Toggles.Flip(f)
			return err
		})
		switch {
		case err != nil:
			m.notice = errorStyle.Render(err.Error())
		case on:
			m.notice = successStyle.Render(f.Label() + " enabled")
		default:
			m.notice = warningStyle.Render(f.Label() + " disabled")
		}
		return m, nil
	}

	switch key {
	case "q", "esc":
		m.cancel()
		return m, tea.Quit
	case "t":
		m.notice = m.nextTemplate()
	case "o", "enter":
		m.state = StateInput
		m.notice = ""
		m.textInput.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

// nextTemplate makes the template after the current one current.
func (m Model) nextTemplate() string {
	var name string
	err := m.snapshots.Update(m.ctx, func(snap *model.Snapshot) error {
		keys := snap.TemplateKeys()
		next := keys[0]
		for i, key := range keys {
			if key == snap.CurrentKey {
				next = keys[(i+1)%len(keys)]
				break
			}
		}
		name = snap.Templates[next].Name
		return snap.SetCurrentTemplate(next)
	})
	if err != nil {
		return errorStyle.Render(err.Error())
	}
	return successStyle.Render("Template: " + name)
}

// parseInput splits "path | title" into its parts.
func parseInput(raw string) (path, title string) {
	path, title, _ = strings.Cut(raw, "|")
	return strings.Trim(strings.TrimSpace(path), `"'`), strings.TrimSpace(title)
}

// waitForEvent delivers the next progress event as a ProgressMsg.
func (m Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return ProgressMsg{Event: event}
	}
}

// process tags the file at path and copies the result into outDir.
func (m Model) process(path, title string) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		item := &model.AudioItem{
			LocalPath: path,
			FileName:  filepath.Base(path),
			Caption:   title,
			Origin:    model.OriginLocal,
		}
		res, err := m.processor.Process(ctx, item)
		if err != nil {
			return DoneMsg{Err: err}
		}
		defer res.Close()

		out := filepath.Join(m.outDir, res.FileName)
		if err := ioutils.CopyFile(ctx, res.Path, out); err != nil {
			return DoneMsg{Err: fmt.Errorf("write output: %w", err)}
		}

		done := DoneMsg{Output: out, Title: res.Title}
		for _, c := range res.Changes {
			done.Changes = append(done.Changes, fmt.Sprintf("%s: %q → %q", c.Field.Label(), c.From, c.To))
		}
		switch {
		case res.Passthrough:
			done.Flags = append(done.Flags, "bot disabled, file copied unchanged")
		case res.Unsupported:
			done.Flags = append(done.Flags, "not an MP3, file copied unchanged")
		}
		if res.CoverApplied {
			done.Flags = append(done.Flags, "album cover embedded")
		}
		return done
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("🎵 tagbot console"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Live settings and local tagging"))
	b.WriteString("\n\n")

	switch m.state {
	case StateHome:
		b.WriteString(m.viewHome())
	case StateInput:
		b.WriteString(m.viewInput())
	case StateProcessing:
		b.WriteString(m.viewProcessing())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewHome() string {
	var b strings.Builder
	snap := m.snapshots.View()

	b.WriteString(subtitleStyle.Render("Features:"))
	b.WriteString("\n")
	for i, f := range model.Features {
		check := "[ ]"
		if snap.Toggles.Enabled(f) {
			check = "[×]"
		}
		fmt.Fprintf(&b, "  %s %s (%d)\n", check, f.Label(), i+1)
	}
	b.WriteString("\n")

	tpl := snap.CurrentTemplate()
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("Template: %s", tpl.Name)))
	b.WriteString("\n")
	for _, f := range model.TemplateFields {
		v, ok := tpl.Fields[f]
		if !ok {
			continue
		}
		b.WriteString(fieldStyle.Render(fmt.Sprintf("  %s: %s", f.Label(), v)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf("Replacements: %d • Footers: %d • Cover: %t",
		snap.Replacements.Len(), snap.Footers.Len(), snap.HasCover())))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Source: %s • Target: %s", orDash(snap.SourceChannel), orDash(snap.TargetChannel))))
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(m.notice)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("File to tag (add \"| title\" to override the title):"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Output directory: %s", m.outDir)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewProcessing() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Tagging..."))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	body := fmt.Sprintf("✨ Done!\n\nTitle: %s\nSaved to: %s", orDash(m.title), m.output)
	if len(m.changes) > 0 {
		body += "\n\nChanged:\n  " + strings.Join(m.changes, "\n  ")
	} else {
		body += "\n\nNo field changed."
	}
	for _, f := range m.flags {
		body += "\n• " + f
	}
	b.WriteString(boxStyle.Render(body))
	b.WriteString("\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case pipeline.LevelError:
			style = errorStyle
			prefix = "✗"
		case pipeline.LevelWarning:
			style = warningStyle
			prefix = "!"
		case pipeline.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case pipeline.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateHome:
		return "1-5: toggle • t: next template • o: tag a file • q: quit"
	case StateInput:
		return "enter: start • esc: back"
	case StateProcessing:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: back • q: quit"
	}
	return ""
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Run starts the TUI application.
func Run(m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
