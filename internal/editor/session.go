// Package editor is the controller between user intents and the grid: it
// opens and saves files, applies structural edits, validates cell text and
// keeps the session state (current file, validation mode, theme).
package editor

import (
	"fmt"
	"log/slog"

	"csvedit/internal/csvcodec"
	"csvedit/internal/grid"
	"csvedit/internal/validation"
)

// Preferences persists the user's choices between runs.
type Preferences interface {
	SetTheme(name string) error
	AddRecent(path string) error
}

// Options tunes a Session.
type Options struct {
	Rows        int   // data rows in a new grid
	Cols        int   // columns in a new grid
	MaxFileSize int64 // refuse to open larger files; 0 means no limit
	Logger      *slog.Logger
}

// Session is the state of one editing session.
type Session struct {
	grid          *grid.Grid
	path          string
	allowNonASCII bool
	theme         Theme
	prefs         Preferences
	changes       *ChangeTracker
	opts          Options
	log           *slog.Logger
}

// NewSession starts a session on an empty grid. prefs may be nil, in which
// case nothing is persisted.
func NewSession(prefs Preferences, theme Theme, opts Options) *Session {
	if opts.Rows <= 0 {
		opts.Rows = grid.DefaultRows
	}
	if opts.Cols <= 0 {
		opts.Cols = grid.DefaultCols
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if _, ok := ParseTheme(string(theme)); !ok {
		theme = DefaultTheme
	}
	return &Session{
		grid:    grid.New(opts.Rows, opts.Cols),
		theme:   theme,
		prefs:   prefs,
		changes: NewChangeTracker(),
		opts:    opts,
		log:     logger,
	}
}

// Grid returns the current grid.
func (s *Session) Grid() *grid.Grid { return s.grid }

// Path returns the file the grid was opened from or last saved to.
func (s *Session) Path() string { return s.path }

// AllowNonASCII reports the validation mode.
func (s *Session) AllowNonASCII() bool { return s.allowNonASCII }

// Theme returns the selected theme.
func (s *Session) Theme() Theme { return s.theme }

// Changes returns the unsaved change journal.
func (s *Session) Changes() *ChangeTracker { return s.changes }

// NewFile replaces the grid with an empty default-sized one.
func (s *Session) NewFile() {
	s.grid = grid.New(s.opts.Rows, s.opts.Cols)
	s.path = ""
	s.changes.Clear()
	s.log.Info("new grid", "rows", s.opts.Rows, "cols", s.opts.Cols)
}

// OpenFile replaces the grid with the contents of path. On failure the
// current grid and path are kept and a *FileReadError is returned.
func (s *Session) OpenFile(path string) error {
	records, err := csvcodec.ReadFile(path, s.opts.MaxFileSize)
	if err != nil {
		s.log.Warn("open failed", "path", path, "error", err)
		return &FileReadError{Path: path, Err: err}
	}

	s.grid = grid.FromRecords(records)
	s.path = path
	s.changes.Clear()
	s.rememberRecent(path)

	s.log.Info("file opened", "path", path,
		"rows", s.grid.NumRows()-1, "cols", s.grid.NumCols())
	return nil
}

// Save writes the grid back to its current file.
func (s *Session) Save() error {
	if s.path == "" {
		return ErrNoPath
	}
	return s.SaveAs(s.path)
}

// SaveAs writes the grid to path and makes it the current file. While
// non-ASCII text is disallowed and present the save is refused with a
// *ValidationError and nothing is written.
func (s *Session) SaveAs(path string) error {
	if path == "" {
		return ErrNoPath
	}

	if !s.allowNonASCII {
		if row, col, found := validation.FirstNonASCII(s.grid); found {
			flagged := validation.MarkAll(s.grid, false)
			s.log.Warn("save blocked by validation", "path", path, "cells", flagged)
			return &ValidationError{Row: row, Col: col}
		}
	}

	text, dropped := csvcodec.Serialize(s.grid.Records())
	if dropped > 0 {
		s.log.Warn("cells not valid UTF-8 written empty", "path", path, "count", dropped)
	}
	if err := csvcodec.WriteFile(path, text); err != nil {
		s.log.Error("save failed", "path", path, "error", err)
		return &FileWriteError{Path: path, Err: err}
	}

	s.path = path
	s.grid.MarkClean()
	s.changes.Clear()
	s.rememberRecent(path)
	s.log.Info("file saved", "path", path, "bytes", len(text))
	return nil
}

func (s *Session) rememberRecent(path string) {
	if s.prefs == nil {
		return
	}
	if err := s.prefs.AddRecent(path); err != nil {
		s.log.Warn("could not record recent file", "path", path, "error", err)
	}
}

// ToggleValidationMode sets whether non-ASCII text is allowed. Existing cells
// are re-checked on their next edit or on save.
func (s *Session) ToggleValidationMode(allow bool) {
	s.allowNonASCII = allow
	s.log.Info("validation mode changed", "allow_non_ascii", allow)
}

// SetTheme selects and persists a theme.
func (s *Session) SetTheme(name string) error {
	theme, ok := ParseTheme(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	s.theme = theme
	if s.prefs != nil {
		if err := s.prefs.SetTheme(string(theme)); err != nil {
			return fmt.Errorf("persist theme: %w", err)
		}
	}
	return nil
}

// EditCell sets the text of the cell at row r, column c and validates it.
// It reports whether the new text passes validation; an invalid cell is
// still updated and flagged.
func (s *Session) EditCell(r, c int, text string) (bool, error) {
	cell := s.grid.Cell(r, c)
	if cell == nil {
		return false, fmt.Errorf("edit cell %d,%d: %w", r, c, grid.ErrNoSuchColumn)
	}
	old := cell.Text
	if err := s.grid.SetText(r, c, text); err != nil {
		return false, err
	}
	if old != text {
		s.changes.RecordEdit(r, c, old, text)
	}
	return validation.ValidateCell(cell, s.allowNonASCII), nil
}

// InsertRow inserts an empty row next to row at.
func (s *Session) InsertRow(at int, pos grid.Position) error {
	if err := s.grid.InsertRow(at, pos); err != nil {
		return err
	}
	s.changes.Record(OpInsertRow, at, grid.IndexCol, pos)
	return nil
}

// DeleteRow removes row n.
func (s *Session) DeleteRow(n int) error {
	if err := s.grid.DeleteRow(n); err != nil {
		return err
	}
	s.changes.Record(OpDeleteRow, n, grid.IndexCol, 0)
	return nil
}

// EmptyRow clears row n.
func (s *Session) EmptyRow(n int) error {
	if err := s.grid.EmptyRow(n); err != nil {
		return err
	}
	s.changes.Record(OpEmptyRow, n, grid.IndexCol, 0)
	return nil
}

// InsertColumn inserts an empty column next to column c.
func (s *Session) InsertColumn(c int, pos grid.Position) error {
	if err := s.grid.InsertColumn(c, pos); err != nil {
		return err
	}
	s.changes.Record(OpInsertColumn, 0, c, pos)
	return nil
}

// DeleteColumn removes column c.
func (s *Session) DeleteColumn(c int) error {
	if err := s.grid.DeleteColumn(c); err != nil {
		return err
	}
	s.changes.Record(OpDeleteColumn, 0, c, 0)
	return nil
}

// EmptyColumn clears the data cells of column c.
func (s *Session) EmptyColumn(c int) error {
	if err := s.grid.EmptyColumn(c); err != nil {
		return err
	}
	s.changes.Record(OpEmptyColumn, 0, c, 0)
	return nil
}
