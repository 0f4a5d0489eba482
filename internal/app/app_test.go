package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"csvedit/internal/config"
	"csvedit/internal/db"
	"csvedit/internal/editor"
	"csvedit/internal/ui"
)

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) ReadAll() (string, error) { return c.text, c.err }

func (c *fakeClipboard) WriteAll(text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

func newTestModel(t *testing.T) (Model, *editor.Session, *fakeClipboard) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := editor.NewSession(nil, editor.ThemeDark, editor.Options{Rows: 3, Cols: 2, Logger: logger})
	m := NewModel(context.Background(), s, &config.Settings{})
	clip := &fakeClipboard{}
	m.clip = clip
	m = update(m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, s, clip
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

// send delivers msg, then feeds the message produced by the returned command
// back into the model. It returns the command of that second update.
func send(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil {
		return m, nil
	}
	out := cmd()
	if out == nil {
		return m, nil
	}
	next, cmd = m.Update(out)
	return next.(Model), cmd
}

// edit applies text to a cell the way a committed table edit is applied.
func edit(m Model, r, c int, text string) Model {
	m.editCell(r, c, text)
	m.syncStatus()
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func statusText(m Model) (string, ui.MessageType) {
	return m.statusbar.Message()
}

// ---------------------------------------------------------------------------
// Editing
// ---------------------------------------------------------------------------

func TestEditThroughTable(t *testing.T) {
	m, s, _ := newTestModel(t)

	m = update(m, tea.KeyMsg{Type: tea.KeyDown})
	m = update(m, runes("e"))
	if !m.table.IsEditing() {
		t.Fatal("e should open the cell editor")
	}
	m = update(m, runes("hi"))
	m = update(m, tea.KeyMsg{Type: tea.KeyEnter})

	if got := s.Grid().Cell(2, 0).Text; got != "hi" {
		t.Errorf("cell (2,0) = %q, want hi", got)
	}
	if got := s.Changes().PendingCount(); got != 1 {
		t.Errorf("PendingCount = %d, want 1", got)
	}
	if m.table.IsEditing() {
		t.Error("editor should close after enter")
	}
}

func TestBusyTableReceivesKeys(t *testing.T) {
	m, s, _ := newTestModel(t)

	m = update(m, runes("e"))
	m = update(m, runes("q"))
	if !m.table.IsEditing() || m.modal.Visible() {
		t.Fatal("q while editing should be typed into the cell")
	}
	m = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := s.Grid().Cell(1, 0).Text; got != "q" {
		t.Errorf("cell (1,0) = %q, want q", got)
	}
}

func TestEditAppliedBeforeNextMessage(t *testing.T) {
	m, s, _ := newTestModel(t)

	m = update(m, tea.KeyMsg{Type: tea.KeyDown})
	m = update(m, runes("e"))
	m = update(m, runes("moved"))
	m = update(m, tea.KeyMsg{Type: tea.KeyTab})
	if got := s.Grid().Cell(2, 0).Text; got != "moved" {
		t.Fatalf("cell (2,0) = %q, want moved right after tab", got)
	}
	m = update(m, tea.KeyMsg{Type: tea.KeyEsc})

	m = update(m, ui.ModalResultMsg{Purpose: ui.PurposeRowMenu, Action: "insert-above", Row: 2})
	g := s.Grid()
	if got := g.Cell(3, 0).Text; got != "moved" {
		t.Errorf("cell (3,0) = %q, want moved", got)
	}
	if got := g.Cell(2, 0).Text; got != "" {
		t.Errorf("inserted row cell = %q, want empty", got)
	}
	if m.table.IsEditing() {
		t.Error("esc should close the editor")
	}
}

func TestEditRejectsNonASCII(t *testing.T) {
	m, s, _ := newTestModel(t)

	m = edit(m, 1, 0, "café")
	cell := s.Grid().Cell(1, 0)
	if cell.Text != "café" {
		t.Errorf("text = %q, invalid text should still be stored", cell.Text)
	}
	if !cell.Invalid {
		t.Error("cell should be flagged invalid")
	}
	if _, typ := statusText(m); typ != ui.MsgError {
		t.Errorf("status type = %v, want MsgError", typ)
	}

	m = update(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	if !s.AllowNonASCII() {
		t.Fatal("ctrl+n should allow non-English characters")
	}
	m = edit(m, 1, 0, "café!")
	if cell.Invalid {
		t.Error("cell should be valid once non-English characters are allowed")
	}
}

func TestEditIndexCellRefused(t *testing.T) {
	m, s, _ := newTestModel(t)

	m = edit(m, 1, -1, "x")
	if s.Changes().HasChanges() {
		t.Error("editing the index column should not be journalled")
	}
	if _, typ := statusText(m); typ != ui.MsgError {
		t.Errorf("status type = %v, want MsgError", typ)
	}
}

// ---------------------------------------------------------------------------
// Row and column menus
// ---------------------------------------------------------------------------

func TestRowMenuInsertBelow(t *testing.T) {
	m, s, _ := newTestModel(t)
	m = edit(m, 1, 0, "first")

	m = update(m, runes("r"))
	if !m.modal.Visible() {
		t.Fatal("r should open the row menu")
	}
	m = update(m, runes("j"))
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyEnter})

	g := s.Grid()
	if g.NumRows() != 5 {
		t.Fatalf("NumRows = %d, want 5", g.NumRows())
	}
	if g.Cell(1, 0).Text != "first" || g.Cell(2, 0).Text != "" {
		t.Errorf("new row should sit below row 1: %v", g.Records())
	}
	if m.modal.Visible() {
		t.Error("menu should close after a choice")
	}
}

func TestRowMenuEscapeIsNoop(t *testing.T) {
	m, s, _ := newTestModel(t)

	m = update(m, runes("r"))
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.modal.Visible() {
		t.Error("esc should close the menu")
	}
	if s.Grid().NumRows() != 4 || s.Changes().HasChanges() {
		t.Error("cancelled menu changed the grid")
	}
}

func TestHeaderRowMenu(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = update(m, runes("g"))
	m = update(m, runes("r"))
	if len(m.modal.View()) == 0 {
		t.Fatal("menu should render")
	}
	if strings.Contains(m.modal.View(), "Delete row") {
		t.Error("header row menu should not offer Delete row")
	}
}

func TestStructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		msgs []ui.ModalResultMsg
		want string
	}{
		{
			name: "delete header",
			msgs: []ui.ModalResultMsg{{Purpose: ui.PurposeRowMenu, Action: "delete", Row: 0}},
			want: "Not allowed on the header row",
		},
		{
			name: "stale row",
			msgs: []ui.ModalResultMsg{{Purpose: ui.PurposeRowMenu, Action: "delete", Row: 42}},
			want: "That row or column no longer exists",
		},
		{
			name: "stale column",
			msgs: []ui.ModalResultMsg{{Purpose: ui.PurposeColumnMenu, Action: "empty", Col: 9}},
			want: "That row or column no longer exists",
		},
		{
			name: "last column",
			msgs: []ui.ModalResultMsg{
				{Purpose: ui.PurposeColumnMenu, Action: "delete", Col: 1},
				{Purpose: ui.PurposeColumnMenu, Action: "delete", Col: 0},
			},
			want: "Cannot delete the last column",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := newTestModel(t)
			for _, msg := range tt.msgs {
				m = update(m, msg)
			}
			text, typ := statusText(m)
			if typ != ui.MsgError || text != tt.want {
				t.Errorf("status = %q (%v), want %q", text, typ, tt.want)
			}
		})
	}
}

func TestColumnMenuInsertRight(t *testing.T) {
	m, s, _ := newTestModel(t)

	m = update(m, runes("c"))
	m = update(m, runes("j"))
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyEnter})

	if got := s.Grid().NumCols(); got != 3 {
		t.Fatalf("NumCols = %d, want 3", got)
	}
	if got := s.Changes().PendingCount(); got != 1 {
		t.Errorf("PendingCount = %d, want 1", got)
	}
}

// ---------------------------------------------------------------------------
// Files
// ---------------------------------------------------------------------------

func TestSaveWithoutPathPrompts(t *testing.T) {
	m, s, _ := newTestModel(t)
	m = edit(m, 1, 0, "a")

	m = update(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if !m.modal.Visible() {
		t.Fatal("save without a file name should open Save As")
	}

	path := filepath.Join(t.TempDir(), "out")
	m = update(m, tea.KeyMsg{Type: tea.KeyCtrlU})
	m = update(m, runes(path))
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyEnter})

	want := path + ".csv"
	if s.Path() != want {
		t.Fatalf("Path = %q, want %q", s.Path(), want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.HasPrefix(string(data), "Header 1,Header 2\na,") {
		t.Errorf("file = %q", data)
	}
	if s.Changes().HasChanges() {
		t.Error("save should clear pending changes")
	}
	if text, typ := statusText(m); typ != ui.MsgSuccess || text != "Saved out.csv" {
		t.Errorf("status = %q (%v)", text, typ)
	}
}

func TestSaveBlockedMovesCursor(t *testing.T) {
	m, s, _ := newTestModel(t)
	path := filepath.Join(t.TempDir(), "blocked.csv")

	m = edit(m, 2, 1, "ü")
	m = update(m, ui.ModalResultMsg{Purpose: ui.PurposeSaveAs, Value: path})

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("file should not be written, stat error = %v", err)
	}
	if s.Path() != "" {
		t.Errorf("Path = %q, want empty", s.Path())
	}
	if r, c := m.table.Cursor(); r != 2 || c != 1 {
		t.Errorf("cursor = (%d,%d), want (2,1)", r, c)
	}
	if _, typ := statusText(m); typ != ui.MsgError {
		t.Errorf("status type = %v, want MsgError", typ)
	}
}

func TestFileChosen(t *testing.T) {
	m, s, _ := newTestModel(t)
	path := filepath.Join(t.TempDir(), "people.csv")
	if err := os.WriteFile(path, []byte("name,age\nann,31\nbob,42\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	m = update(m, ui.FileChosenMsg{Path: path})
	if s.Path() != path {
		t.Fatalf("Path = %q, want %q", s.Path(), path)
	}
	if got := s.Grid().Cell(2, 0).Text; got != "bob" {
		t.Errorf("cell (2,0) = %q, want bob", got)
	}
	if r, c := m.table.Cursor(); r != 1 || c != 0 {
		t.Errorf("cursor = (%d,%d), want (1,0)", r, c)
	}

	missing := filepath.Join(t.TempDir(), "missing.csv")
	m = update(m, ui.FileChosenMsg{Path: missing})
	if s.Path() != path {
		t.Error("a failed open should keep the current file")
	}
	if _, typ := statusText(m); typ != ui.MsgError {
		t.Errorf("status type = %v, want MsgError", typ)
	}
}

func TestNewFileConfirmsWhenDirty(t *testing.T) {
	m, s, _ := newTestModel(t)
	m = edit(m, 1, 0, "keep?")

	m = update(m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if !m.modal.Visible() {
		t.Fatal("new grid with unsaved changes should ask first")
	}
	m, _ = send(m, runes("y"))

	if got := s.Grid().Cell(1, 0).Text; got != "" {
		t.Errorf("cell (1,0) = %q, want empty", got)
	}
	if s.Changes().HasChanges() {
		t.Error("new grid should have no pending changes")
	}
}

// ---------------------------------------------------------------------------
// Quit
// ---------------------------------------------------------------------------

func TestQuitClean(t *testing.T) {
	m, _, _ := newTestModel(t)

	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}

func TestQuitPromptsWhenDirty(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = edit(m, 1, 0, "x")

	next, cmd := m.Update(runes("q"))
	m = next.(Model)
	if cmd != nil || !m.modal.Visible() {
		t.Fatal("q with unsaved changes should ask for confirmation")
	}

	m, cmd = send(m, runes("n"))
	if cmd != nil || m.modal.Visible() {
		t.Fatal("n should dismiss the prompt without quitting")
	}

	m = update(m, runes("q"))
	_, cmd = send(m, runes("y"))
	if cmd == nil {
		t.Fatal("y should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("y should return tea.Quit")
	}
}

// ---------------------------------------------------------------------------
// Theme, clipboard, export
// ---------------------------------------------------------------------------

func TestThemeMenu(t *testing.T) {
	t.Cleanup(func() { ui.ApplyTheme("dark") })
	m, s, _ := newTestModel(t)

	m = update(m, runes("t"))
	m = update(m, runes("j"))
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyEnter})

	if s.Theme() != editor.ThemeLight {
		t.Errorf("Theme = %q, want light", s.Theme())
	}
	if ui.ColorAccent != ui.Palettes["light"].Accent {
		t.Errorf("ColorAccent = %q, want light accent", ui.ColorAccent)
	}
	if !strings.Contains(m.View(), "theme: light") {
		t.Error("top bar should show the new theme")
	}
}

func TestClipboard(t *testing.T) {
	m, s, clip := newTestModel(t)
	m = edit(m, 1, 0, "abc")

	m = update(m, runes("y"))
	if clip.text != "abc" {
		t.Errorf("clipboard = %q, want abc", clip.text)
	}

	m = update(m, runes("l"))
	m = update(m, runes("p"))
	if got := s.Grid().Cell(1, 1).Text; got != "abc" {
		t.Errorf("pasted cell = %q, want abc", got)
	}

	m = update(m, runes("h"))
	m = update(m, runes("x"))
	if got := s.Grid().Cell(1, 0).Text; got != "" {
		t.Errorf("cut cell = %q, want empty", got)
	}
	if clip.text != "abc" {
		t.Errorf("clipboard after cut = %q, want abc", clip.text)
	}

	clip.err = errors.New("no clipboard")
	m = update(m, runes("p"))
	if _, typ := statusText(m); typ != ui.MsgError {
		t.Errorf("status type = %v, want MsgError", typ)
	}
}

func TestExportNeedsDatabase(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = update(m, tea.KeyMsg{Type: tea.KeyCtrlE})
	if m.modal.Visible() {
		t.Error("export prompt should not open without a database URL")
	}
	if text, _ := statusText(m); !strings.Contains(text, "CSVEDIT_DATABASE_URL") {
		t.Errorf("status = %q", text)
	}
}

func TestExportPromptDefaultsToFileName(t *testing.T) {
	m, s, _ := newTestModel(t)
	m.settings = &config.Settings{Database: config.DatabaseSettings{URL: "postgres://localhost/test"}}

	path := filepath.Join(t.TempDir(), "Sales Report.csv")
	if err := s.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	m = update(m, tea.KeyMsg{Type: tea.KeyCtrlE})
	if !m.modal.Visible() {
		t.Fatal("ctrl+e should open the export prompt")
	}
	if !strings.Contains(m.modal.View(), "sales_report") {
		t.Error("prompt should default to the table name derived from the file")
	}
}

func TestExportResultShowsTarget(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.exporting = true

	m = update(m, exportResultMsg{result: &db.ExportResult{
		Table:    "people",
		Target:   "postgres://alice@db.local:5432/sales",
		Rows:     3,
		Created:  true,
		ExecTime: 12 * time.Millisecond,
	}})
	if m.exporting {
		t.Error("exporting should be cleared")
	}
	text, typ := statusText(m)
	want := "Exported 3 rows to people (new table) on postgres://alice@db.local:5432/sales in 12ms"
	if text != want || typ != ui.MsgSuccess {
		t.Errorf("status = %q (%v), want %q", text, typ, want)
	}
}

func TestHelpToggle(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = update(m, tea.WindowSizeMsg{Width: 200, Height: 40})

	m = update(m, runes("?"))
	if !m.help.ShowAll {
		t.Fatal("? should expand help")
	}
	if !strings.Contains(m.View(), "column menu") {
		t.Error("full help should list the column menu")
	}
}
