package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"csvedit/internal/config"
	"csvedit/internal/db"
	"csvedit/internal/editor"
	"csvedit/internal/grid"
	"csvedit/internal/logging"
	"csvedit/internal/ui"
)

const defaultSaveName = "data.csv"

// tickMsg is sent to clear expired status messages.
type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg{}
	})
}

// exportResultMsg carries the outcome of a database export.
type exportResultMsg struct {
	result *db.ExportResult
	err    error
}

// Clipboard is the system clipboard as the editor uses it.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error) { return clipboard.ReadAll() }

func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// Model is the root Bubble Tea model.
type Model struct {
	ctx       context.Context
	log       *slog.Logger
	session   *editor.Session
	settings  *config.Settings
	table     ui.TableModel
	statusbar ui.StatusBarModel
	modal     ui.ModalModel
	opener    ui.OpenerModel
	help      help.Model
	keys      keyMap
	clip      Clipboard
	exporting bool
	width     int
	height    int
}

// NewModel creates the root app model around an editing session.
func NewModel(ctx context.Context, session *editor.Session, settings *config.Settings) Model {
	if settings == nil {
		settings = &config.Settings{}
	}
	m := Model{
		ctx:       ctx,
		log:       logging.FromContext(ctx),
		session:   session,
		settings:  settings,
		table:     ui.NewTableModel(session.Grid()),
		statusbar: ui.NewStatusBarModel(),
		modal:     ui.NewModalModel(),
		opener:    ui.NewOpenerModel(),
		help:      help.New(),
		keys:      defaultKeyMap(),
		clip:      systemClipboard{},
	}
	ui.ApplyTheme(string(session.Theme()))
	m.syncStatus()
	return m
}

// Init starts the app.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.syncStatus()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.recalcLayout()
		return m, nil

	case tickMsg:
		m.statusbar.ClearExpiredMessage()
		return m, tickCmd()

	case ui.ModalResultMsg:
		return m.handleModalResult(msg)

	case ui.ModalClosedMsg:
		return m, nil

	case ui.FileChosenMsg:
		m.openFile(msg.Path)
		return m, nil

	case ui.FileCancelledMsg:
		return m, nil

	case exportResultMsg:
		m.exporting = false
		if msg.err != nil {
			m.statusbar.SetMessage(fmt.Sprintf("Export failed: %v", msg.err), ui.MsgError)
			return m, nil
		}
		created := ""
		if msg.result.Created {
			created = " (new table)"
		}
		m.statusbar.SetMessage(fmt.Sprintf("Exported %d rows to %s%s on %s in %s",
			msg.result.Rows, msg.result.Table, created, msg.result.Target,
			msg.result.ExecTime.Round(time.Millisecond)), ui.MsgSuccess)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Everything else (cursor blinks, directory listings) goes to whichever
	// component is in front.
	var cmd tea.Cmd
	switch {
	case m.opener.Visible():
		m.opener, cmd = m.opener.Update(msg)
	case m.modal.Visible():
		m.modal, cmd = m.modal.Update(msg)
	default:
		m.table, cmd = m.table.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.opener.Visible() {
		m.opener, cmd = m.opener.Update(msg)
		return m, cmd
	}
	if m.modal.Visible() {
		m.modal, cmd = m.modal.Update(msg)
		return m, cmd
	}
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	if m.table.Busy() {
		m.table, cmd = m.table.Update(msg)
		m.applyEdits()
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.recalcLayout()
		return m, nil

	case key.Matches(msg, m.keys.Open):
		m.opener.SetSize(m.width, m.height)
		cmd = m.opener.Open(m.session.Path())
		return m, cmd

	case key.Matches(msg, m.keys.Save):
		return m.save()

	case key.Matches(msg, m.keys.SaveAs):
		cmd = m.promptSaveAs()
		return m, cmd

	case key.Matches(msg, m.keys.New):
		if m.session.Changes().HasChanges() {
			m.modal.OpenConfirm(ui.PurposeNewFile, "Discard unsaved changes and start a new grid?")
			return m, nil
		}
		m.newFile()
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		if m.session.Path() == "" {
			m.statusbar.SetMessage("Nothing to reload, the grid has never been saved", ui.MsgInfo)
			return m, nil
		}
		if m.session.Changes().HasChanges() {
			m.modal.OpenConfirm(ui.PurposeReload, "Discard unsaved changes and reload from disk?")
			return m, nil
		}
		m.openFile(m.session.Path())
		return m, nil

	case key.Matches(msg, m.keys.RowMenu):
		m.openRowMenu()
		return m, nil

	case key.Matches(msg, m.keys.ColMenu):
		m.openColumnMenu()
		return m, nil

	case key.Matches(msg, m.keys.Theme):
		m.openThemeMenu()
		return m, nil

	case key.Matches(msg, m.keys.Validate):
		allow := !m.session.AllowNonASCII()
		m.session.ToggleValidationMode(allow)
		if allow {
			m.statusbar.SetMessage("Non-English characters allowed", ui.MsgInfo)
		} else {
			m.statusbar.SetMessage("Only ASCII characters allowed", ui.MsgInfo)
		}
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		m.copyCell(false)
		return m, nil

	case key.Matches(msg, m.keys.Cut):
		m.copyCell(true)
		return m, nil

	case key.Matches(msg, m.keys.Paste):
		m.paste()
		return m, nil

	case key.Matches(msg, m.keys.Export):
		cmd = m.promptExport()
		return m, cmd
	}

	m.table, cmd = m.table.Update(msg)
	m.applyEdits()
	return m, cmd
}

func (m Model) quit() (Model, tea.Cmd) {
	if m.session.Changes().HasChanges() {
		m.modal.OpenConfirm(ui.PurposeQuit,
			fmt.Sprintf("Quit without saving? (%s)", m.session.Changes().Summary()))
		return m, nil
	}
	return m, tea.Quit
}

func (m Model) handleModalResult(msg ui.ModalResultMsg) (Model, tea.Cmd) {
	switch msg.Purpose {
	case ui.PurposeRowMenu:
		m.applyRowAction(msg.Action, msg.Row)
	case ui.PurposeColumnMenu:
		m.applyColumnAction(msg.Action, msg.Col)
	case ui.PurposeThemeMenu:
		if err := m.session.SetTheme(msg.Action); err != nil {
			m.statusbar.SetMessage(err.Error(), ui.MsgError)
		} else {
			m.statusbar.SetMessage(fmt.Sprintf("Theme: %s", msg.Action), ui.MsgSuccess)
		}
		// The theme is applied even when saving the preference failed.
		ui.ApplyTheme(string(m.session.Theme()))
	case ui.PurposeSaveAs:
		m.saveAs(msg.Value)
	case ui.PurposeExport:
		cmd := m.export(msg.Value)
		return m, cmd
	case ui.PurposeQuit:
		return m, tea.Quit
	case ui.PurposeNewFile:
		m.newFile()
	case ui.PurposeReload:
		m.openFile(m.session.Path())
	}
	return m, nil
}

// applyEdits writes the table's committed edits to the session before the
// next message is handled, so they land on the cells they were made in.
func (m *Model) applyEdits() {
	for _, e := range m.table.TakeEdits() {
		m.editCell(e.Row, e.Col, e.Value)
	}
}

func (m *Model) editCell(r, c int, text string) {
	ok, err := m.session.EditCell(r, c, text)
	if err != nil {
		m.statusbar.SetMessage(describeError(err), ui.MsgError)
		return
	}
	m.table.Refresh()
	if !ok {
		m.statusbar.SetMessage("Non-English characters are not allowed (Ctrl+N to allow)", ui.MsgError)
	}
}

func (m *Model) openFile(path string) {
	if err := m.session.OpenFile(path); err != nil {
		m.statusbar.SetMessage(err.Error(), ui.MsgError)
		return
	}
	m.table.SetGrid(m.session.Grid())
	g := m.session.Grid()
	m.statusbar.SetMessage(fmt.Sprintf("Opened %s (%d rows, %d columns)",
		filepath.Base(path), g.NumRows()-1, g.NumCols()), ui.MsgSuccess)
}

func (m *Model) newFile() {
	m.session.NewFile()
	m.table.SetGrid(m.session.Grid())
	m.statusbar.SetMessage("New grid", ui.MsgInfo)
}

func (m Model) save() (Model, tea.Cmd) {
	err := m.session.Save()
	if errors.Is(err, editor.ErrNoPath) {
		cmd := m.promptSaveAs()
		return m, cmd
	}
	m.afterSave(err)
	return m, nil
}

func (m *Model) saveAs(path string) {
	if filepath.Ext(path) == "" {
		path += ".csv"
	}
	m.afterSave(m.session.SaveAs(path))
}

func (m *Model) afterSave(err error) {
	var verr *editor.ValidationError
	switch {
	case err == nil:
		m.table.Refresh()
		m.statusbar.SetMessage(fmt.Sprintf("Saved %s", filepath.Base(m.session.Path())), ui.MsgSuccess)
	case errors.As(err, &verr):
		m.table.SetCursor(verr.Row, verr.Col)
		m.statusbar.SetMessage(verr.Error(), ui.MsgError)
	default:
		m.statusbar.SetMessage(err.Error(), ui.MsgError)
	}
}

func (m *Model) promptSaveAs() tea.Cmd {
	initial := m.session.Path()
	if initial == "" {
		initial = defaultSaveName
	}
	m.modal.SetSize(m.width, m.height)
	return m.modal.OpenPrompt(ui.PurposeSaveAs, "Save As", initial)
}

func (m *Model) openRowMenu() {
	row, col := m.table.Cursor()
	title := fmt.Sprintf("Row %d", row)
	items := []ui.MenuItem{
		{Label: "Insert row above", Action: "insert-above"},
		{Label: "Insert row below", Action: "insert-below"},
		{Label: "Delete row", Action: "delete"},
		{Label: "Empty row", Action: "empty"},
	}
	if row == 0 {
		title = "Header row"
		items = []ui.MenuItem{
			{Label: "Insert row below", Action: "insert-below"},
			{Label: "Clear header labels", Action: "empty"},
		}
	}
	m.modal.SetSize(m.width, m.height)
	m.modal.OpenMenu(ui.PurposeRowMenu, title, items, row, col)
}

func (m *Model) openColumnMenu() {
	row, col := m.table.Cursor()
	title := fmt.Sprintf("Column %d", col+1)
	if cell := m.session.Grid().Cell(0, col); cell != nil && cell.Text != "" {
		title = fmt.Sprintf("Column %q", cell.Text)
	}
	m.modal.SetSize(m.width, m.height)
	m.modal.OpenMenu(ui.PurposeColumnMenu, title, []ui.MenuItem{
		{Label: "Insert column left", Action: "insert-left"},
		{Label: "Insert column right", Action: "insert-right"},
		{Label: "Delete column", Action: "delete"},
		{Label: "Empty column", Action: "empty"},
	}, row, col)
}

func (m *Model) openThemeMenu() {
	items := make([]ui.MenuItem, 0, len(editor.Themes))
	for _, t := range editor.Themes {
		items = append(items, ui.MenuItem{
			Label:  string(t),
			Action: string(t),
			Active: t == m.session.Theme(),
		})
	}
	row, col := m.table.Cursor()
	m.modal.SetSize(m.width, m.height)
	m.modal.OpenMenu(ui.PurposeThemeMenu, "Theme", items, row, col)
}

// applyRowAction runs a row menu choice against the row captured when the
// menu was opened.
func (m *Model) applyRowAction(action string, row int) {
	var err error
	switch action {
	case "insert-above":
		err = m.session.InsertRow(row, grid.Above)
	case "insert-below":
		err = m.session.InsertRow(row, grid.Below)
	case "delete":
		err = m.session.DeleteRow(row)
	case "empty":
		err = m.session.EmptyRow(row)
	default:
		return
	}
	m.afterStructural(err)
}

// applyColumnAction runs a column menu choice against the captured column.
func (m *Model) applyColumnAction(action string, col int) {
	var err error
	switch action {
	case "insert-left":
		err = m.session.InsertColumn(col, grid.Left)
	case "insert-right":
		err = m.session.InsertColumn(col, grid.Right)
	case "delete":
		err = m.session.DeleteColumn(col)
	case "empty":
		err = m.session.EmptyColumn(col)
	default:
		return
	}
	m.afterStructural(err)
}

func (m *Model) afterStructural(err error) {
	m.table.Refresh()
	if err != nil {
		m.log.Debug("structural operation refused", "error", err)
		m.statusbar.SetMessage(describeError(err), ui.MsgError)
	}
}

// describeError turns grid policy errors into status bar text.
func describeError(err error) string {
	switch {
	case errors.Is(err, grid.ErrHeaderRow):
		return "Not allowed on the header row"
	case errors.Is(err, grid.ErrLastColumn):
		return "Cannot delete the last column"
	case errors.Is(err, grid.ErrNoSuchRow), errors.Is(err, grid.ErrNoSuchColumn):
		return "That row or column no longer exists"
	default:
		return err.Error()
	}
}

func (m *Model) copyCell(cut bool) {
	row, col := m.table.Cursor()
	cell := m.session.Grid().Cell(row, col)
	if cell == nil || !cell.Editable() {
		return
	}
	if err := m.clip.WriteAll(cell.Text); err != nil {
		m.log.Warn("clipboard write failed", "error", err)
		m.statusbar.SetMessage(fmt.Sprintf("Clipboard unavailable: %v", err), ui.MsgError)
		return
	}
	if !cut {
		m.statusbar.SetMessage("Copied", ui.MsgInfo)
		return
	}
	m.editCell(row, col, "")
	m.statusbar.SetMessage("Cut", ui.MsgInfo)
}

func (m *Model) paste() {
	text, err := m.clip.ReadAll()
	if err != nil {
		m.log.Warn("clipboard read failed", "error", err)
		m.statusbar.SetMessage(fmt.Sprintf("Clipboard unavailable: %v", err), ui.MsgError)
		return
	}
	row, col := m.table.Cursor()
	m.editCell(row, col, strings.TrimRight(text, "\r\n"))
}

func (m *Model) promptExport() tea.Cmd {
	if !m.settings.ExportEnabled() {
		m.statusbar.SetMessage("Set CSVEDIT_DATABASE_URL to export", ui.MsgError)
		return nil
	}
	if m.exporting {
		m.statusbar.SetMessage("An export is already running", ui.MsgInfo)
		return nil
	}
	m.modal.SetSize(m.width, m.height)
	return m.modal.OpenPrompt(ui.PurposeExport, "Export to table", db.TableName(m.session.Path()))
}

// export copies the grid into table. The records are copied before the
// command runs so later edits cannot race with it.
func (m *Model) export(table string) tea.Cmd {
	m.exporting = true
	m.statusbar.SetMessage(fmt.Sprintf("Exporting to %s...", table), ui.MsgInfo)

	records := m.session.Grid().Records()
	uri := m.settings.Database.URL
	timeout := m.settings.Database.ExportTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	parent := m.ctx
	exportLogger := logging.WithFields(parent, "table", table, "target", db.RedactURI(uri))

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()

		exportLogger.Info("export started", "records", len(records))
		conn, err := db.Connect(ctx, uri)
		if err != nil {
			exportLogger.Error("export connect failed", "error", err)
			return exportResultMsg{err: fmt.Errorf("connect: %w", err)}
		}
		defer conn.Close()

		res, err := conn.ExportGrid(ctx, table, records)
		if err != nil {
			exportLogger.Error("export failed", "error", err)
			return exportResultMsg{err: err}
		}
		exportLogger.Info("export completed", "rows", res.Rows, "created", res.Created,
			"duration_ms", res.ExecTime.Milliseconds())
		return exportResultMsg{result: res}
	}
}

func (m *Model) syncStatus() {
	row, col := m.table.Cursor()
	m.statusbar.SetFile(m.session.Path())
	m.statusbar.SetValidation(m.session.AllowNonASCII())
	m.statusbar.SetPendingChanges(m.session.Changes().PendingCount())
	m.statusbar.SetPosition(row, col)

	switch {
	case m.opener.Visible(), m.modal.Visible():
		m.statusbar.SetMode(ui.ModeDialog)
	case m.table.IsPreviewing():
		m.statusbar.SetMode(ui.ModePreview)
	case m.table.IsEditing():
		m.statusbar.SetMode(ui.ModeEdit)
	case m.table.IsSearching():
		m.statusbar.SetMode(ui.ModeSearch)
	default:
		m.statusbar.SetMode(ui.ModeNavigate)
	}
}

// View renders the full layout.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.opener.Visible() {
		return m.opener.View()
	}
	if m.modal.Visible() {
		return m.modal.View()
	}

	parts := []string{m.topBar(), m.table.View(), m.statusbar.View()}
	if m.help.ShowAll {
		parts = append(parts, m.help.View(m.keys))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) topBar() string {
	name := "untitled"
	if p := m.session.Path(); p != "" {
		name = filepath.Base(p)
	}
	if m.session.Changes().HasChanges() {
		name += ui.ModifiedText.Render(" [+]")
	}
	info := fmt.Sprintf(" csvedit | %s | theme: %s", name, m.session.Theme())
	if m.exporting {
		info += " | exporting..."
	}
	return ui.TopBarStyle.Width(m.width).Render(info)
}

func (m *Model) recalcLayout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	helpH := 0
	if m.help.ShowAll {
		helpH = lipgloss.Height(m.help.View(m.keys))
	}
	tableH := m.height - 2 - helpH // top bar + status bar
	if tableH < 4 {
		tableH = 4
	}
	m.table.SetSize(m.width, tableH)
	m.statusbar.SetWidth(m.width)
	m.modal.SetSize(m.width, m.height)
	m.opener.SetSize(m.width, m.height)
}
