package ui

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// FileChosenMsg carries the file picked in the open dialog.
type FileChosenMsg struct {
	Path string
}

// FileCancelledMsg is sent when the open dialog is dismissed.
type FileCancelledMsg struct{}

// OpenerModel is the Open CSV dialog. Only .csv files can be selected.
type OpenerModel struct {
	picker  filepicker.Model
	visible bool
	width   int
	height  int
}

func NewOpenerModel() OpenerModel {
	return OpenerModel{}
}

// Open shows the dialog starting in the directory of current, or the working
// directory when current is empty.
func (m *OpenerModel) Open(current string) tea.Cmd {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".csv", ".CSV"}
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.ShowHidden = false
	fp.AutoHeight = false
	fp.Height = m.pickerHeight()
	// Esc closes the dialog instead of going up a directory.
	fp.KeyMap.Back = key.NewBinding(
		key.WithKeys("h", "backspace", "left"),
		key.WithHelp("h", "back"),
	)
	fp.CurrentDirectory = startDir(current)

	m.picker = fp
	m.visible = true
	return m.picker.Init()
}

func startDir(current string) string {
	if current != "" {
		dir := filepath.Dir(current)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}
	return "."
}

func (m OpenerModel) pickerHeight() int {
	height := 12
	if m.height > 0 {
		height = m.height - 10
		if height < 5 {
			height = 5
		}
	}
	return height
}

func (m *OpenerModel) Close() {
	m.visible = false
}

func (m OpenerModel) Visible() bool {
	return m.visible
}

func (m *OpenerModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.picker.Height = m.pickerHeight()
}

func (m OpenerModel) Update(msg tea.Msg) (OpenerModel, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		m.Close()
		return m, func() tea.Msg { return FileCancelledMsg{} }
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if selected, path := m.picker.DidSelectFile(msg); selected {
		m.Close()
		return m, tea.Batch(cmd, func() tea.Msg { return FileChosenMsg{Path: path} })
	}
	return m, cmd
}

func (m OpenerModel) View() string {
	if !m.visible {
		return ""
	}

	modalW := 70
	if m.width > 0 && modalW > m.width-4 {
		modalW = m.width - 4
	}

	content := HeaderStyle.Render("Open CSV") + "\n" +
		DimText.Render(m.picker.CurrentDirectory) + "\n\n" +
		m.picker.View() + "\n" +
		DimText.Render("Enter open | h back | Esc cancel")

	modalStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorAccent).
		Padding(1, 2).
		Width(modalW)

	return Center(modalStyle.Render(content), m.width, m.height)
}
