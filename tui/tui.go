// Package tui is a terminal inspector for a replica: it shows the tree as it
// changes and lets the user send parameter requests to the host.
package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errBadInput = errors.New("expected <id>=<number>")
)

// TreeMsg carries a new rendering of the replica.
type TreeMsg struct {
	Tree      string
	Synced    bool
	OutOfSync bool
}

type statusMsg string

// SetFunc sends a parameter request.
type SetFunc func(id string, value float64) error

// Model is the inspector's bubbletea model.
type Model struct {
	treeID   string
	viewport viewport.Model
	input    textinput.Model
	ready    bool
	editing  bool

	tree   TreeMsg
	status string

	onSet    SetFunc
	onResync func() error
}

// Option configures a Model.
type Option func(*Model)

// WithSet enables editing parameters with the e key.
func WithSet(fn SetFunc) Option {
	return func(m *Model) { m.onSet = fn }
}

// WithResync makes the r key request a full sync.
func WithResync(fn func() error) Option {
	return func(m *Model) { m.onResync = fn }
}

func New(treeID string, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "density=0.5"
	ti.CharLimit = 64
	ti.Width = 32

	m := Model{
		treeID: treeID,
		input:  ti,
		status: "waiting for the initial sync",
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.updateInput(msg)
		}

		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m, tea.Quit
		case "e":
			if m.onSet != nil {
				m.editing = true
				m.input.Focus()
				return m, textinput.Blink
			}
		case "r":
			if m.onResync != nil {
				return m, run(m.onResync, "full sync requested")
			}
		}

	case tea.WindowSizeMsg:
		// Title and status take two lines, the input one more.
		height := msg.Height - 3
		if height < 1 {
			height = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.viewport.SetContent(m.tree.Tree)

	case TreeMsg:
		if msg.Synced && !m.tree.Synced {
			m.status = "initial sync received"
		}
		m.tree = msg
		if m.ready {
			m.viewport.SetContent(msg.Tree)
		}
		return m, nil

	case statusMsg:
		m.status = string(msg)
		return m, nil
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.stopEditing()
		return m, nil
	case tea.KeyEnter:
		text := m.input.Value()
		m.stopEditing()

		id, value, err := parseAssignment(text)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		return m, run(func() error { return m.onSet(id, value) }, fmt.Sprintf("requested %s = %v", id, value))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) stopEditing() {
	m.editing = false
	m.input.Blur()
	m.input.Reset()
}

// run calls fn off the update loop and reports the outcome in the status line.
func run(fn func() error, ok string) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return statusMsg("error: " + err.Error())
		}
		return statusMsg(ok)
	}
}

func parseAssignment(s string) (string, float64, error) {
	id, raw, found := strings.Cut(s, "=")
	id, raw = strings.TrimSpace(id), strings.TrimSpace(raw)
	if !found || id == "" {
		return "", 0, errBadInput
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", errBadInput, err)
	}
	return id, value, nil
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	var state string
	switch {
	case m.tree.OutOfSync:
		state = warnStyle.Render("out of sync")
	case m.tree.Synced:
		state = okStyle.Render("synced")
	default:
		state = warnStyle.Render("not synced")
	}

	var bottom string
	if m.editing {
		bottom = m.input.View()
	} else {
		keys := "q quit"
		if m.onSet != nil {
			keys += " • e edit"
		}
		if m.onResync != nil {
			keys += " • r resync"
		}
		bottom = helpStyle.Render(keys)
	}

	return fmt.Sprintf("%s  %s  %s\n%s\n%s",
		titleStyle.Render(m.treeID), state, helpStyle.Render(m.status), m.viewport.View(), bottom)
}

// Inspector runs the model as a full-screen program.
type Inspector struct {
	program *tea.Program
}

func NewInspector(treeID string, opts ...Option) *Inspector {
	return &Inspector{program: tea.NewProgram(New(treeID, opts...), tea.WithAltScreen())}
}

// Run blocks until the user quits.
func (i *Inspector) Run() error {
	return i.program.Start()
}

// Show replaces the displayed tree. It blocks until the program accepts the
// update, so call it only while Run is active.
func (i *Inspector) Show(msg TreeMsg) {
	i.program.Send(msg)
}

// Quit stops the program.
func (i *Inspector) Quit() {
	i.program.Send(tea.Quit())
}
