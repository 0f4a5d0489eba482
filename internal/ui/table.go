package ui

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"csvedit/internal/grid"
)

const (
	minColWidth = 8
	maxColWidth = 30
)

// CellEdit is new text the user committed for a cell.
type CellEdit struct {
	Row   int
	Col   int
	Value string
}

// TableModel is the interactive grid view. It reads the grid but never
// mutates it; committed edits queue up until the owner calls TakeEdits.
type TableModel struct {
	grid            *grid.Grid
	cursorRow       int
	cursorCol       int
	editing         bool
	edits           []CellEdit
	input           textinput.Model
	scrollOffset    int // first visible data row, 1-based
	colOffset       int
	width           int
	height          int
	colWidths       []int
	indexWidth      int
	searching       bool
	searchQuery     string
	filteredIndices []int
	searchCursor    int
	previewing      bool
	previewScroll   int
	previewEditing  bool
	previewTextarea textarea.Model
}

// NewTableModel creates a table view over g.
func NewTableModel(g *grid.Grid) TableModel {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 0
	m := TableModel{input: ti}
	m.SetGrid(g)
	return m
}

// SetGrid replaces the grid being shown and resets the view.
func (m *TableModel) SetGrid(g *grid.Grid) {
	m.grid = g
	m.cursorRow = 1
	m.cursorCol = 0
	m.scrollOffset = 1
	m.colOffset = 0
	m.editing = false
	m.previewing = false
	m.searchQuery = ""
	m.filteredIndices = nil
	m.edits = nil
	m.Refresh()
}

// Refresh recomputes layout after the grid changed shape and keeps the
// cursor inside it.
func (m *TableModel) Refresh() {
	if m.cursorRow >= m.grid.NumRows() {
		m.cursorRow = m.grid.NumRows() - 1
	}
	if m.cursorRow < 0 {
		m.cursorRow = 0
	}
	if m.cursorCol >= m.grid.NumCols() {
		m.cursorCol = m.grid.NumCols() - 1
	}
	if m.cursorCol < 0 {
		m.cursorCol = 0
	}
	if m.searchQuery != "" {
		m.findMatches()
	}
	m.calcColWidths()
	m.ensureRowVisible()
	m.ensureColVisible()
}

// SetSize sets the table dimensions.
func (m *TableModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.ensureRowVisible()
	m.ensureColVisible()
}

// Cursor returns the grid coordinates under the cursor.
func (m TableModel) Cursor() (row, col int) {
	return m.cursorRow, m.cursorCol
}

// SetCursor moves the cursor to row r, column c.
func (m *TableModel) SetCursor(r, c int) {
	m.cursorRow = r
	m.cursorCol = c
	m.Refresh()
}

// IsEditing returns whether a cell editor is open.
func (m TableModel) IsEditing() bool {
	return m.editing || m.previewEditing
}

// IsSearching returns whether we're in search mode.
func (m TableModel) IsSearching() bool {
	return m.searching
}

// IsPreviewing returns whether we're in cell preview mode.
func (m TableModel) IsPreviewing() bool {
	return m.previewing
}

// Busy reports whether the table is consuming keys for its own modes.
func (m TableModel) Busy() bool {
	return m.editing || m.searching || m.previewing
}

// TakeEdits returns the edits committed since the last call and clears them.
func (m *TableModel) TakeEdits() []CellEdit {
	edits := m.edits
	m.edits = nil
	return edits
}

// applyRowFilter recomputes the matches for a changed query and jumps to the
// first one.
func (m *TableModel) applyRowFilter() {
	m.findMatches()
	m.searchCursor = 0
	if len(m.filteredIndices) > 0 {
		m.cursorRow = m.filteredIndices[0]
		m.ensureRowVisible()
	}
}

// findMatches recomputes the matching rows without moving the cursor. The
// search position follows the cursor when it sits on a match.
func (m *TableModel) findMatches() {
	m.filteredIndices = nil
	m.searchCursor = 0
	if m.searchQuery == "" {
		return
	}
	for ri := 1; ri < m.grid.NumRows(); ri++ {
		for _, cell := range m.grid.Row(ri).Cells[1:] {
			if FuzzyMatch(cell.Text, m.searchQuery) {
				if ri == m.cursorRow {
					m.searchCursor = len(m.filteredIndices)
				}
				m.filteredIndices = append(m.filteredIndices, ri)
				break
			}
		}
	}
}

func (m *TableModel) calcColWidths() {
	cols := m.grid.NumCols()
	m.colWidths = make([]int, cols)
	for c := 0; c < cols; c++ {
		w := minColWidth
		for r := 0; r < m.grid.NumRows(); r++ {
			if cw := runewidth.StringWidth(sanitizeCell(m.grid.Cell(r, c).Text)); cw > w {
				w = cw
			}
		}
		if w > maxColWidth {
			w = maxColWidth
		}
		m.colWidths[c] = w
	}
	m.indexWidth = len(strconv.Itoa(m.grid.NumRows() - 1))
	if m.indexWidth < 3 {
		m.indexWidth = 3
	}
}

// Init satisfies tea.Model.
func (m TableModel) Init() tea.Cmd {
	return nil
}

// Update handles key events.
func (m TableModel) Update(msg tea.Msg) (TableModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.previewing {
			return m.updatePreviewMode(msg)
		}
		if m.searching {
			return m.updateSearchMode(msg)
		}
		if m.editing {
			return m.updateEditMode(msg)
		}
		return m.updateNavMode(msg)
	}
	return m, nil
}

func (m TableModel) updateNavMode(msg tea.KeyMsg) (TableModel, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursorRow > 0 {
			m.cursorRow--
			m.ensureRowVisible()
		}
	case "down", "j":
		if m.cursorRow < m.grid.NumRows()-1 {
			m.cursorRow++
			m.ensureRowVisible()
		}
	case "left", "h":
		if m.cursorCol > 0 {
			m.cursorCol--
			m.ensureColVisible()
		}
	case "right", "l":
		if m.cursorCol < m.grid.NumCols()-1 {
			m.cursorCol++
			m.ensureColVisible()
		}
	case "home", "0":
		m.cursorCol = 0
		m.ensureColVisible()
	case "end", "$":
		m.cursorCol = m.grid.NumCols() - 1
		m.ensureColVisible()
	case "enter", "e":
		cmd := m.startEditing()
		return m, cmd
	case "g":
		m.cursorRow = 0
		m.ensureRowVisible()
	case "G":
		m.cursorRow = m.grid.NumRows() - 1
		m.ensureRowVisible()
	case "pgup":
		m.cursorRow -= m.visibleRowCount()
		if m.cursorRow < 0 {
			m.cursorRow = 0
		}
		m.ensureRowVisible()
	case "pgdown":
		m.cursorRow += m.visibleRowCount()
		if m.cursorRow >= m.grid.NumRows() {
			m.cursorRow = m.grid.NumRows() - 1
		}
		m.ensureRowVisible()
	case "/":
		m.searching = true
		m.searchQuery = ""
		m.filteredIndices = nil
		m.searchCursor = 0
	case "n":
		if len(m.filteredIndices) > 0 {
			m.searchCursor++
			if m.searchCursor >= len(m.filteredIndices) {
				m.searchCursor = 0
			}
			m.cursorRow = m.filteredIndices[m.searchCursor]
			m.ensureRowVisible()
		}
	case "N":
		if len(m.filteredIndices) > 0 {
			m.searchCursor--
			if m.searchCursor < 0 {
				m.searchCursor = len(m.filteredIndices) - 1
			}
			m.cursorRow = m.filteredIndices[m.searchCursor]
			m.ensureRowVisible()
		}
	case "v":
		if cell := m.currentCell(); cell != nil {
			m.previewing = true
			m.previewScroll = 0
			m.previewEditing = false
			ta := textarea.New()
			ta.SetValue(cell.Text)
			ta.CharLimit = 0
			ta.ShowLineNumbers = true
			pw := m.width - 6
			if pw < 20 {
				pw = 20
			}
			ph := m.height - 8
			if ph < 4 {
				ph = 4
			}
			ta.SetWidth(pw)
			ta.SetHeight(ph)
			m.previewTextarea = ta
		}
	}
	return m, nil
}

func (m *TableModel) startEditing() tea.Cmd {
	cell := m.currentCell()
	if cell == nil || !cell.Editable() {
		return nil
	}
	m.editing = true
	m.input.SetValue(cell.Text)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m TableModel) currentCell() *grid.Cell {
	return m.grid.Cell(m.cursorRow, m.cursorCol)
}

func (m *TableModel) commit(value string) {
	m.edits = append(m.edits, CellEdit{Row: m.cursorRow, Col: m.cursorCol, Value: value})
}

func (m TableModel) updateEditMode(msg tea.KeyMsg) (TableModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.commit(m.input.Value())
		m.editing = false
		m.input.Blur()
		return m, nil
	case "tab":
		m.commit(m.input.Value())
		if m.cursorCol < m.grid.NumCols()-1 {
			m.cursorCol++
			m.ensureColVisible()
			cmd := m.startEditing()
			return m, cmd
		}
		m.editing = false
		m.input.Blur()
		return m, nil
	case "shift+tab":
		m.commit(m.input.Value())
		if m.cursorCol > 0 {
			m.cursorCol--
			m.ensureColVisible()
			cmd := m.startEditing()
			return m, cmd
		}
		m.editing = false
		m.input.Blur()
		return m, nil
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m TableModel) updateSearchMode(msg tea.KeyMsg) (TableModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.searchQuery = ""
		m.filteredIndices = nil
		m.searchCursor = 0
	case "enter":
		m.searching = false
		if len(m.filteredIndices) > 0 {
			m.cursorRow = m.filteredIndices[m.searchCursor]
			m.ensureRowVisible()
		}
	case "backspace":
		if len(m.searchQuery) > 0 {
			r := []rune(m.searchQuery)
			m.searchQuery = string(r[:len(r)-1])
			m.applyRowFilter()
		}
	default:
		if msg.Type == tea.KeySpace {
			m.searchQuery += " "
			m.applyRowFilter()
		} else if msg.Type == tea.KeyRunes {
			m.searchQuery += string(msg.Runes)
			m.applyRowFilter()
		}
	}
	return m, nil
}

func (m TableModel) updatePreviewMode(msg tea.KeyMsg) (TableModel, tea.Cmd) {
	if m.previewEditing {
		switch msg.String() {
		case "esc":
			m.previewEditing = false
			m.previewTextarea.Blur()
			return m, nil
		case "ctrl+s":
			m.commit(m.previewTextarea.Value())
			m.previewing = false
			m.previewEditing = false
			return m, nil
		}
		var cmd tea.Cmd
		m.previewTextarea, cmd = m.previewTextarea.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "esc", "v":
		m.previewing = false
		m.previewScroll = 0
	case "e":
		if cell := m.currentCell(); cell == nil || !cell.Editable() {
			return m, nil
		}
		m.previewEditing = true
		cmd := m.previewTextarea.Focus()
		return m, cmd
	case "j", "down":
		m.previewScroll++
	case "k", "up":
		if m.previewScroll > 0 {
			m.previewScroll--
		}
	case "G":
		m.previewScroll = 99999
	case "g":
		m.previewScroll = 0
	}
	return m, nil
}

func (m TableModel) renderPreviewOverlay(w, h int) string {
	var b strings.Builder

	colName := ""
	if hdr := m.grid.Cell(0, m.cursorCol); hdr != nil {
		colName = hdr.Text
	}

	if m.previewEditing {
		title := HeaderStyle.Render(fmt.Sprintf("Edit: %s", colName))
		hint := DimText.Render("Ctrl+S save | Esc cancel")
		b.WriteString(title + "  " + hint)
		b.WriteString("\n")
		b.WriteString(m.previewTextarea.View())
		return b.String()
	}

	title := HeaderStyle.Render(fmt.Sprintf("Preview: %s [row %d]", colName, m.cursorRow))
	hint := DimText.Render("e edit | j/k scroll | Esc close")
	b.WriteString(title + "  " + hint)
	b.WriteString("\n")
	b.WriteString(DimText.Render(strings.Repeat("─", w)))
	b.WriteString("\n")

	val := ""
	if cell := m.currentCell(); cell != nil {
		val = cell.Text
	}
	lines := strings.Split(wordWrap(val, w), "\n")

	viewH := h - 4
	if viewH < 1 {
		viewH = 1
	}

	scroll := m.previewScroll
	maxScroll := len(lines) - viewH
	if maxScroll < 0 {
		maxScroll = 0
	}
	if scroll > maxScroll {
		scroll = maxScroll
	}

	endLine := scroll + viewH
	if endLine > len(lines) {
		endLine = len(lines)
	}

	for i := scroll; i < endLine; i++ {
		b.WriteString(lines[i])
		if i < endLine-1 {
			b.WriteString("\n")
		}
	}

	if len(lines) > viewH {
		b.WriteString("\n")
		b.WriteString(DimText.Render(fmt.Sprintf("[lines %d-%d of %d]", scroll+1, endLine, len(lines))))
	}

	return b.String()
}

// wordWrap hard-wraps each line of s at width display columns.
func wordWrap(s string, width int) string {
	if width <= 0 || len(s) == 0 {
		return s
	}
	var result strings.Builder
	for li, line := range strings.Split(s, "\n") {
		if li > 0 {
			result.WriteString("\n")
		}
		lineW := 0
		for _, r := range line {
			rw := runewidth.RuneWidth(r)
			if lineW+rw > width {
				result.WriteString("\n")
				lineW = 0
			}
			result.WriteRune(r)
			lineW += rw
		}
	}
	return result.String()
}

func (m *TableModel) ensureRowVisible() {
	if m.cursorRow == 0 {
		// Header is always on screen.
		return
	}
	visRows := m.visibleRowCount()
	if m.scrollOffset < 1 {
		m.scrollOffset = 1
	}
	if m.cursorRow < m.scrollOffset {
		m.scrollOffset = m.cursorRow
	} else if m.cursorRow >= m.scrollOffset+visRows {
		m.scrollOffset = m.cursorRow - visRows + 1
	}
}

func (m *TableModel) ensureColVisible() {
	if m.cursorCol < m.colOffset {
		m.colOffset = m.cursorCol
	}
	usedWidth := 0
	for i := m.colOffset; i <= m.cursorCol && i < len(m.colWidths); i++ {
		usedWidth += m.colWidths[i] + 3 // +3 for padding/separator
	}
	innerW := m.width - 4 - m.indexWidth - 3
	for usedWidth > innerW && m.colOffset < m.cursorCol {
		usedWidth -= m.colWidths[m.colOffset] + 3
		m.colOffset++
	}
}

func (m TableModel) visibleRowCount() int {
	// Available height minus border (2), header row (1), separator (1) and
	// scroll indicator (1)
	h := m.height - 5
	if m.searching || m.searchQuery != "" {
		h--
	}
	if h < 1 {
		h = 1
	}
	return h
}

// View renders the table.
func (m TableModel) View() string {
	borderStyle := TableBorder

	innerW := m.width - 2
	if innerW < 10 {
		innerW = 10
	}
	innerH := m.height - 2
	if innerH < 3 {
		innerH = 3
	}

	var content string
	if m.previewing {
		content = m.renderPreviewOverlay(innerW, innerH)
	} else {
		content = m.renderTable(innerW)
	}

	return borderStyle.Width(innerW).Height(innerH).MaxHeight(innerH + 2).Render(content)
}

func (m TableModel) isMatchRow(rowIdx int) bool {
	for _, fi := range m.filteredIndices {
		if fi == rowIdx {
			return true
		}
	}
	return false
}

func (m TableModel) renderTable(w int) string {
	var b strings.Builder

	if m.searching || m.searchQuery != "" {
		searchDisp := SearchLabel.Render("/") + SearchInput.Render(m.searchQuery)
		if m.searching {
			searchDisp += SearchInput.Render("█")
		}
		if len(m.filteredIndices) > 0 {
			searchDisp += DimText.Render(fmt.Sprintf(" [%d/%d]", m.searchCursor+1, len(m.filteredIndices)))
		} else if m.searchQuery != "" {
			searchDisp += DimText.Render(" [no matches]")
		}
		b.WriteString(searchDisp)
		b.WriteString("\n")
	}

	visibleCols := m.visibleColumns(w - m.indexWidth - 3)

	b.WriteString(m.renderRow(0, visibleCols))
	b.WriteString("\n")

	sepParts := make([]string, 0, len(visibleCols)+1)
	sepParts = append(sepParts, strings.Repeat("─", m.indexWidth))
	for _, ci := range visibleCols {
		sepParts = append(sepParts, strings.Repeat("─", m.colWidths[ci]))
	}
	b.WriteString(DimText.Render(strings.Join(sepParts, "─┼─")))

	dataRows := m.grid.NumRows() - 1
	startRow := m.scrollOffset
	if startRow < 1 {
		startRow = 1
	}
	endRow := startRow + m.visibleRowCount()
	if endRow > m.grid.NumRows() {
		endRow = m.grid.NumRows()
	}
	for ri := startRow; ri < endRow; ri++ {
		b.WriteString("\n")
		b.WriteString(m.renderRow(ri, visibleCols))
	}

	if dataRows > m.visibleRowCount() {
		scrollInfo := fmt.Sprintf(" [%d-%d of %d]", startRow, endRow-1, dataRows)
		b.WriteString("\n" + DimText.Render(scrollInfo))
	}

	return b.String()
}

func (m TableModel) renderRow(ri int, visibleCols []int) string {
	row := m.grid.Row(ri)
	parts := make([]string, 0, len(visibleCols)+1)
	parts = append(parts, CellIndex.Width(m.indexWidth).Render(row.Cells[0].Text))

	isMatch := ri > 0 && len(m.filteredIndices) > 0 && m.isMatchRow(ri)
	for _, ci := range visibleCols {
		cell := row.Cells[ci+1]
		colW := m.colWidths[ci]
		isCursor := ri == m.cursorRow && ci == m.cursorCol

		if m.editing && isCursor {
			parts = append(parts, CellEditing.Width(colW).Render(tailFit(m.input.Value(), colW-1)+"█"))
			continue
		}

		var style lipgloss.Style
		switch {
		case isCursor:
			style = CellSelected
		case cell.Invalid:
			style = CellInvalid
		case cell.Modified:
			style = ModifiedText
		case isMatch:
			style = SearchInput
		case cell.Kind == grid.KindHeader:
			style = HeaderStyle
		default:
			style = CellNormal
		}
		parts = append(parts, style.Width(colW).Render(truncate(sanitizeCell(cell.Text), colW)))
	}
	return strings.Join(parts, " | ")
}

func (m TableModel) visibleColumns(availWidth int) []int {
	if len(m.colWidths) == 0 {
		return nil
	}
	var cols []int
	usedWidth := 0
	for i := m.colOffset; i < len(m.colWidths); i++ {
		needed := m.colWidths[i]
		if len(cols) > 0 {
			needed += 3 // " | " separator
		}
		if usedWidth+needed > availWidth && len(cols) > 0 {
			break
		}
		cols = append(cols, i)
		usedWidth += needed
	}
	return cols
}

func sanitizeCell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "↵")
	s = strings.ReplaceAll(s, "\n", "↵")
	s = strings.ReplaceAll(s, "\r", "↵")
	s = strings.ReplaceAll(s, "\t", " ")
	return s
}

// truncate cuts s to at most maxWidth display columns.
func truncate(s string, maxWidth int) string {
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// tailFit keeps the end of s so the text near the edit cursor stays visible.
func tailFit(s string, maxWidth int) string {
	s = sanitizeCell(s)
	for runewidth.StringWidth(s) > maxWidth && s != "" {
		_, size := utf8.DecodeRuneInString(s)
		s = s[size:]
	}
	return s
}
