package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Purpose says what a modal was opened for; it travels back with the result.
type Purpose int

const (
	PurposeRowMenu Purpose = iota
	PurposeColumnMenu
	PurposeThemeMenu
	PurposeSaveAs
	PurposeExport
	PurposeQuit
	PurposeNewFile
	PurposeReload
)

// MenuItem is one choice in a menu modal.
type MenuItem struct {
	Label  string
	Action string
	Active bool // drawn highlighted, e.g. the current theme
}

// ModalResultMsg is sent when a modal is confirmed. Row and Col are the grid
// coordinates captured when the modal was opened. Action holds the chosen
// menu action, Value the prompt text; a confirm modal sends Action "yes".
type ModalResultMsg struct {
	Purpose Purpose
	Action  string
	Value   string
	Row     int
	Col     int
}

// ModalClosedMsg is sent when a modal is dismissed without a result.
type ModalClosedMsg struct {
	Purpose Purpose
}

type modalMode int

const (
	modalMenu modalMode = iota
	modalPrompt
	modalConfirm
)

// ModalModel is a centred dialog that shows a menu, a one-line prompt or a
// yes/no question.
type ModalModel struct {
	visible bool
	mode    modalMode
	purpose Purpose
	title   string
	items   []MenuItem
	cursor  int
	input   textinput.Model
	row     int
	col     int
	err     string
	width   int
	height  int
}

func NewModalModel() ModalModel {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 0
	return ModalModel{input: ti}
}

// OpenMenu shows items and remembers the grid position they apply to.
func (m *ModalModel) OpenMenu(p Purpose, title string, items []MenuItem, row, col int) {
	m.open(p, modalMenu, title)
	m.items = items
	m.row, m.col = row, col
	for i, it := range items {
		if it.Active {
			m.cursor = i
		}
	}
}

// OpenPrompt asks for a line of text, pre-filled with initial.
func (m *ModalModel) OpenPrompt(p Purpose, title, initial string) tea.Cmd {
	m.open(p, modalPrompt, title)
	m.input.SetValue(initial)
	m.input.CursorEnd()
	return m.input.Focus()
}

// OpenConfirm asks a yes/no question.
func (m *ModalModel) OpenConfirm(p Purpose, question string) {
	m.open(p, modalConfirm, question)
}

func (m *ModalModel) open(p Purpose, mode modalMode, title string) {
	m.visible = true
	m.mode = mode
	m.purpose = p
	m.title = title
	m.items = nil
	m.cursor = 0
	m.err = ""
	m.row, m.col = 0, 0
}

func (m *ModalModel) Close() {
	m.visible = false
	m.err = ""
	m.input.Blur()
}

func (m ModalModel) Visible() bool {
	return m.visible
}

func (m *ModalModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m ModalModel) Update(msg tea.Msg) (ModalModel, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.mode == modalPrompt {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if keyMsg.String() == "esc" {
		p := m.purpose
		m.Close()
		return m, func() tea.Msg { return ModalClosedMsg{Purpose: p} }
	}

	switch m.mode {
	case modalMenu:
		return m.updateMenu(keyMsg)
	case modalPrompt:
		return m.updatePrompt(keyMsg)
	case modalConfirm:
		return m.updateConfirm(keyMsg)
	}
	return m, nil
}

func (m ModalModel) result(action, value string) tea.Cmd {
	res := ModalResultMsg{Purpose: m.purpose, Action: action, Value: value, Row: m.row, Col: m.col}
	return func() tea.Msg { return res }
}

func (m ModalModel) updateMenu(msg tea.KeyMsg) (ModalModel, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor < len(m.items) {
			cmd := m.result(m.items[m.cursor].Action, "")
			m.Close()
			return m, cmd
		}
	}
	return m, nil
}

func (m ModalModel) updatePrompt(msg tea.KeyMsg) (ModalModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		if value == "" {
			m.err = "Name cannot be empty"
			return m, nil
		}
		cmd := m.result("", value)
		m.Close()
		return m, cmd
	case "ctrl+u":
		m.input.SetValue("")
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.err = ""
	return m, cmd
}

func (m ModalModel) updateConfirm(msg tea.KeyMsg) (ModalModel, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		cmd := m.result("yes", "")
		m.Close()
		return m, cmd
	case "n", "N":
		p := m.purpose
		m.Close()
		return m, func() tea.Msg { return ModalClosedMsg{Purpose: p} }
	}
	return m, nil
}

func (m ModalModel) View() string {
	if !m.visible {
		return ""
	}

	modalW := 50
	if m.width > 0 && modalW > m.width-4 {
		modalW = m.width - 4
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render(m.title))
	b.WriteString("\n")

	switch m.mode {
	case modalConfirm:
		b.WriteString("\n")
		b.WriteString(DimText.Render("  y confirm | n/Esc cancel"))
		b.WriteString("\n")

	case modalPrompt:
		b.WriteString("\n")
		b.WriteString("  " + SearchInput.Render(m.input.Value()) + SearchInput.Render("█"))
		b.WriteString("\n")
		if m.err != "" {
			b.WriteString(ErrorText.Render("  " + m.err))
			b.WriteString("\n")
		}
		b.WriteString(DimText.Render("  Enter confirm | Esc cancel"))
		b.WriteString("\n")

	default:
		b.WriteString(DimText.Render("  Enter select | Esc close"))
		b.WriteString("\n\n")
		for i, it := range m.items {
			switch {
			case i == m.cursor:
				b.WriteString(MenuCursor.Width(modalW - 4).Render("  " + it.Label))
			case it.Active:
				b.WriteString(MenuActive.Render("  " + it.Label))
			default:
				b.WriteString(MenuNormal.Render("  " + it.Label))
			}
			b.WriteString("\n")
		}
	}

	modalStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorAccent).
		Padding(1, 2).
		Width(modalW)

	return Center(modalStyle.Render(b.String()), m.width, m.height)
}

// Center pads rendered so it sits in the middle of a w×h screen.
func Center(rendered string, w, h int) string {
	if w <= 0 || h <= 0 {
		return rendered
	}
	renderedLines := strings.Split(rendered, "\n")
	topPad := (h - len(renderedLines)) / 2
	if topPad < 0 {
		topPad = 0
	}
	leftPad := (w - lipgloss.Width(rendered)) / 2
	if leftPad < 0 {
		leftPad = 0
	}

	var out strings.Builder
	for i := 0; i < topPad; i++ {
		out.WriteString("\n")
	}
	for _, line := range renderedLines {
		out.WriteString(strings.Repeat(" ", leftPad))
		out.WriteString(line)
		out.WriteString("\n")
	}
	return out.String()
}
