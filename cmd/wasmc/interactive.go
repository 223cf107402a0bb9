package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wasm-compiler/ir"
	"github.com/wippyai/wasm-compiler/runtime"
	"github.com/wippyai/wasm-compiler/wasm"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err      error
	module   *runtime.Module
	filename string
	validate bool
	funcs    []funcEntry
	view     viewport.Model
	width    int
	height   int
	selected int
	state    modelState
}

type funcEntry struct {
	fn     *ir.Function
	name   string
	export string
	sig    string
}

type modelState int

const (
	stateSelectFunc modelState = iota
	stateViewIR
)

func newInteractiveModel(filename string, validate bool) *interactiveModel {
	return &interactiveModel{
		filename: filename,
		validate: validate,
		state:    stateSelectFunc,
	}
}

type compiledMsg struct {
	err   error
	mod   *runtime.Module
	funcs []funcEntry
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.compileModule
}

func (m *interactiveModel) compileModule() tea.Msg {
	ctx := context.Background()

	data, err := os.ReadFile(m.filename)
	if err != nil {
		return compiledMsg{err: err}
	}

	mod, err := runtime.Compile(ctx, data, runtime.WithValidation(m.validate))
	if err != nil {
		return compiledMsg{err: err}
	}

	info := mod.Info()
	exports := make(map[string]string)
	for name, exp := range info.Exports {
		if exp.Kind != wasm.KindFunc || exp.Index < info.NumImportedFuncs() {
			continue
		}
		exports[fmt.Sprintf("func_%d", exp.Index-info.NumImportedFuncs())] = name
	}

	var funcs []funcEntry
	for _, fn := range mod.IR().Funcs() {
		if fn.IsDeclaration() {
			continue
		}
		funcs = append(funcs, funcEntry{
			fn:     fn,
			name:   fn.Name(),
			export: exports[fn.Name()],
			sig:    fn.Sig().String(),
		})
	}
	sort.Slice(funcs, func(i, j int) bool { return funcs[i].name < funcs[j].name })

	return compiledMsg{mod: mod, funcs: funcs}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.view.Width = msg.Width
		m.view.Height = msg.Height - 4

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.funcs)-1 {
				m.selected++
			}

		case "enter":
			if m.state == stateSelectFunc && len(m.funcs) > 0 {
				m.view = viewport.New(m.width, m.height-4)
				m.view.SetContent(m.funcs[m.selected].fn.String())
				m.state = stateViewIR
			}

		case "esc":
			if m.state == stateViewIR {
				m.state = stateSelectFunc
			}
		}

	case compiledMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.module = msg.mod
		m.funcs = msg.funcs
	}

	if m.state == stateViewIR {
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.module == nil {
		return "Compiling module..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("wasmc"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		if len(m.funcs) == 0 {
			b.WriteString("Module has no function bodies.\n\n")
			b.WriteString(helpStyle.Render("q quit"))
			break
		}
		b.WriteString("Select a function to inspect:\n\n")
		for i, f := range m.funcs {
			cursor := "  "
			if i == m.selected {
				cursor = "> "
				b.WriteString(selectedStyle.Render(cursor + m.formatFunc(f)))
			} else {
				b.WriteString(cursor + m.formatFunc(f))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter view IR • q quit"))

	case stateViewIR:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("IR for %s\n\n", funcStyle.Render(f.name)))
		b.WriteString(m.view.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ scroll • esc back • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatFunc(f funcEntry) string {
	label := funcStyle.Render(f.name)
	if f.export != "" {
		label += " (" + f.export + ")"
	}
	return label + " " + typeStyle.Render(f.sig)
}

func runInteractive(filename string, validate bool) error {
	p := tea.NewProgram(newInteractiveModel(filename, validate), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
