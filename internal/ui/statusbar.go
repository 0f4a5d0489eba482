package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// MessageType represents the type of status message.
type MessageType int

const (
	MsgInfo MessageType = iota
	MsgSuccess
	MsgError
)

// Mode tells the status bar which key hints to show.
type Mode int

const (
	ModeNavigate Mode = iota
	ModeEdit
	ModeSearch
	ModePreview
	ModeDialog
)

// StatusBarModel is the context-aware status bar at the bottom.
type StatusBarModel struct {
	message        string
	messageType    MessageType
	messageTime    time.Time
	pendingChanges int
	mode           Mode
	fileName       string
	allowNonASCII  bool
	row, col       int
	width          int
}

// NewStatusBarModel creates a new status bar.
func NewStatusBarModel() StatusBarModel {
	return StatusBarModel{}
}

// SetWidth sets the status bar width.
func (m *StatusBarModel) SetWidth(w int) {
	m.width = w
}

// SetMessage sets a status message.
func (m *StatusBarModel) SetMessage(msg string, t MessageType) {
	m.message = msg
	m.messageType = t
	m.messageTime = time.Now()
}

// Message returns the current message and its type.
func (m StatusBarModel) Message() (string, MessageType) {
	return m.message, m.messageType
}

// SetPendingChanges updates the pending changes count.
func (m *StatusBarModel) SetPendingChanges(count int) {
	m.pendingChanges = count
}

// SetMode sets the interaction mode used for hints.
func (m *StatusBarModel) SetMode(mode Mode) {
	m.mode = mode
}

// SetFile sets the current file path; empty means unsaved.
func (m *StatusBarModel) SetFile(path string) {
	m.fileName = ""
	if path != "" {
		m.fileName = filepath.Base(path)
	}
}

// SetValidation shows whether non-English characters are allowed.
func (m *StatusBarModel) SetValidation(allow bool) {
	m.allowNonASCII = allow
}

// SetPosition updates the cursor coordinates shown on the right.
func (m *StatusBarModel) SetPosition(row, col int) {
	m.row, m.col = row, col
}

// ClearExpiredMessage clears info and success messages after 3 seconds.
// Errors stay until replaced.
func (m *StatusBarModel) ClearExpiredMessage() {
	if m.messageType != MsgError && time.Since(m.messageTime) > 3*time.Second {
		m.message = ""
	}
}

// View renders the status bar.
func (m StatusBarModel) View() string {
	hints := m.contextHints()

	var rightParts []string
	if m.pendingChanges > 0 {
		rightParts = append(rightParts, fmt.Sprintf("Pending: %d | Ctrl+S to save", m.pendingChanges))
	}
	if m.allowNonASCII {
		rightParts = append(rightParts, "Non-English: on")
	} else {
		rightParts = append(rightParts, "ASCII only")
	}
	rowLabel := fmt.Sprintf("R%d", m.row)
	if m.row == 0 {
		rowLabel = "Header"
	}
	rightParts = append(rightParts, fmt.Sprintf("%s C%d", rowLabel, m.col+1))
	right := strings.Join(rightParts, " | ")

	if m.message != "" {
		var msgStyle lipgloss.Style
		switch m.messageType {
		case MsgError:
			msgStyle = StatusErrorStyle
		case MsgSuccess:
			msgStyle = StatusSuccessStyle
		default:
			msgStyle = StatusBarStyle
		}
		hints = msgStyle.Render(m.message)
	}

	w := m.width
	if w < 20 {
		w = 20
	}
	gap := w - lipgloss.Width(hints) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}

	line := hints + strings.Repeat(" ", gap) + right
	return StatusBarStyle.Width(w).Render(line)
}

func (m StatusBarModel) contextHints() string {
	switch m.mode {
	case ModeEdit:
		return "Type to edit | Enter save | Tab/Shift+Tab Next/Prev col | Esc Cancel"
	case ModeSearch:
		return "Type to search | Enter jump | Esc Clear"
	case ModePreview:
		return "e Edit | j/k Scroll | Esc Close"
	case ModeDialog:
		return "Enter Confirm | Esc Cancel"
	default:
		return "e Edit | r Row | c Column | t Theme | Ctrl+O Open | Ctrl+S Save | ? Help"
	}
}
