package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/objgen/arch"
	"github.com/wippyai/objgen/asm"
	"github.com/wippyai/objgen/class"
	"github.com/wippyai/objgen/emit"
	"github.com/wippyai/objgen/schema"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	classStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	archStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#444444")).
			PaddingLeft(1)
)

const (
	listWidth    = 24
	chromeHeight = 4
)

type viewMode int

const (
	viewCode viewMode = iota
	viewLayout
)

// target is one backend's build of the schema.
type target struct {
	reg  *class.Registry
	unit *emit.Unit
	err  error
}

type interactiveModel struct {
	err      error
	targets  map[string]target
	opts     options
	archs    []string
	classes  []string
	vp       viewport.Model
	archIdx  int
	selected int
	mode     viewMode
	ready    bool
}

type loadedMsg struct {
	err     error
	targets map[string]target
	classes []string
}

func newInteractiveModel(o options) *interactiveModel {
	archs := arch.Names()
	idx := 0
	for i, name := range archs {
		if b, err := arch.Lookup(o.archName); err == nil && b.Name() == name {
			idx = i
		}
	}
	return &interactiveModel{
		opts:    o,
		archs:   archs,
		archIdx: idx,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadSchema
}

// loadSchema builds the schema for every backend up front so switching
// targets is instant. A backend that fails keeps its error for display.
func (m *interactiveModel) loadSchema() tea.Msg {
	s, err := schema.Load(m.opts.schemaFile)
	if err != nil {
		return loadedMsg{err: err}
	}

	opts := emit.DefaultOptions()
	opts.Thunks = !m.opts.noThunks

	targets := make(map[string]target, len(m.archs))
	var classes []string
	for _, name := range m.archs {
		t := buildTarget(s, name, opts)
		if t.err == nil && classes == nil {
			for _, d := range t.reg.Classes() {
				classes = append(classes, d.Name)
			}
		}
		targets[name] = t
	}
	if classes == nil {
		return loadedMsg{err: targets[m.archs[0]].err}
	}
	return loadedMsg{targets: targets, classes: classes}
}

func buildTarget(s *schema.Schema, archName string, opts emit.Options) target {
	b, err := arch.Lookup(archName)
	if err != nil {
		return target{err: err}
	}
	reg, err := s.Build(b)
	if err != nil {
		return target{err: err}
	}
	e, err := emit.New(b, opts)
	if err != nil {
		return target{err: err}
	}
	u, err := e.BuildUnit(reg)
	return target{reg: reg, unit: u, err: err}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.selected > 0 {
				m.selected--
				m.refresh()
			}
			return m, nil

		case "down", "j":
			if m.selected < len(m.classes)-1 {
				m.selected++
				m.refresh()
			}
			return m, nil

		case "tab":
			m.archIdx = (m.archIdx + 1) % len(m.archs)
			m.refresh()
			return m, nil

		case "shift+tab":
			m.archIdx = (m.archIdx + len(m.archs) - 1) % len(m.archs)
			m.refresh()
			return m, nil

		case "v":
			if m.mode == viewCode {
				m.mode = viewLayout
			} else {
				m.mode = viewCode
			}
			m.refresh()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.targets = msg.targets
		m.classes = msg.classes
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m *interactiveModel) resize(width, height int) {
	w := max(width-listWidth-2, 20)
	h := max(height-chromeHeight, 5)
	if !m.ready {
		m.vp = viewport.New(w, h)
		m.ready = true
	} else {
		m.vp.Width = w
		m.vp.Height = h
	}
	m.refresh()
}

func (m *interactiveModel) refresh() {
	if !m.ready || len(m.classes) == 0 {
		return
	}
	m.vp.SetContent(m.content())
	m.vp.GotoTop()
}

// content renders the selected class for the selected backend.
func (m *interactiveModel) content() string {
	archName := m.archs[m.archIdx]
	t := m.targets[archName]
	if t.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", t.err))
	}
	name := m.classes[m.selected]

	if m.mode == viewLayout {
		return layoutTable(t.reg, true, name)
	}
	return classCode(t.unit, name)
}

// classCode renders the tables and thunks emitted for one class.
func classCode(u *emit.Unit, name string) string {
	style := asm.DefaultStyle
	var b strings.Builder
	if bk, err := u.Backend(); err == nil {
		if tt, ok := bk.(arch.TextTarget); ok {
			style = tt.Style()
			for _, t := range u.Tables {
				if t.Class == name {
					b.WriteString(emit.TablesSeq(tt, &emit.Unit{Arch: u.Arch, Width: u.Width, Tables: []emit.Table{t}}).Text(style))
					b.WriteString("\n")
				}
			}
		}
	}
	n := 0
	for _, f := range u.Funcs {
		if f.Class != name {
			continue
		}
		b.WriteString(f.Body.Text(style))
		b.WriteString("\n")
		n++
	}
	if n == 0 {
		b.WriteString(helpStyle.Render("(thunks disabled)"))
	}
	return b.String()
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if len(m.classes) == 0 || !m.ready {
		return "Loading schema..."
	}

	var list strings.Builder
	for i, name := range m.classes {
		if i == m.selected {
			list.WriteString(selectedStyle.Render("> " + name))
		} else {
			list.WriteString("  " + classStyle.Render(name))
		}
		list.WriteString("\n")
	}

	mode := "code"
	if m.mode == viewLayout {
		mode = "layout"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("objgen"))
	b.WriteString(" ")
	b.WriteString(m.opts.schemaFile)
	b.WriteString("  ")
	b.WriteString(archStyle.Render(m.archs[m.archIdx]))
	b.WriteString(" ")
	b.WriteString(helpStyle.Render(mode))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(listWidth).Render(list.String()),
		paneStyle.Render(m.vp.View()),
	))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ class • tab arch • v code/layout • pgup/pgdn scroll • q quit"))
	return b.String()
}

func runInteractive(o options) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode needs a terminal")
	}
	m := newInteractiveModel(o)
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		m.resize(w, h)
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
