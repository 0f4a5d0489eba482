package editor

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"csvedit/internal/grid"
)

type fakePrefs struct {
	theme    string
	recent   []string
	themeErr error
}

func (f *fakePrefs) SetTheme(name string) error {
	if f.themeErr != nil {
		return f.themeErr
	}
	f.theme = name
	return nil
}

func (f *fakePrefs) AddRecent(path string) error {
	f.recent = append(f.recent, path)
	return nil
}

func newTestSession(t *testing.T) (*Session, *fakePrefs) {
	t.Helper()
	prefs := &fakePrefs{}
	s := NewSession(prefs, ThemeDark, Options{
		Rows:   3,
		Cols:   2,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return s, prefs
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewSessionDefaults(t *testing.T) {
	s := NewSession(nil, "bogus", Options{})
	if s.Theme() != DefaultTheme {
		t.Errorf("Theme() = %q, want %q", s.Theme(), DefaultTheme)
	}
	if s.Grid().NumRows() != grid.DefaultRows+1 || s.Grid().NumCols() != grid.DefaultCols {
		t.Errorf("grid is %dx%d", s.Grid().NumRows(), s.Grid().NumCols())
	}
	if s.Path() != "" || s.AllowNonASCII() {
		t.Error("new session should have no path and ASCII-only validation")
	}
}

func TestOpenFile(t *testing.T) {
	s, prefs := newTestSession(t)
	path := writeFile(t, "people.csv", "name,age\nAnn,30\nBob,41\n")

	if err := s.OpenFile(path); err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	g := s.Grid()
	if g.NumRows() != 3 || g.NumCols() != 2 {
		t.Fatalf("grid is %dx%d, want 3x2", g.NumRows(), g.NumCols())
	}
	if got := g.Cell(2, 0).Text; got != "Bob" {
		t.Errorf("cell(2,0) = %q, want Bob", got)
	}
	if s.Path() != path {
		t.Errorf("Path() = %q", s.Path())
	}
	if len(prefs.recent) != 1 || prefs.recent[0] != path {
		t.Errorf("recent = %v", prefs.recent)
	}
}

func TestOpenFileFailureKeepsGrid(t *testing.T) {
	s, _ := newTestSession(t)
	s.EditCell(1, 0, "keep")
	before := s.Grid()

	err := s.OpenFile(filepath.Join(t.TempDir(), "missing.csv"))
	var readErr *FileReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("OpenFile() error = %v, want *FileReadError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("FileReadError should unwrap to the underlying cause")
	}
	if s.Grid() != before || s.Grid().Cell(1, 0).Text != "keep" {
		t.Error("grid changed after failed open")
	}
	if s.Path() != "" {
		t.Errorf("Path() = %q after failed open", s.Path())
	}
}

func TestSaveWithoutPath(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.Save(); !errors.Is(err, ErrNoPath) {
		t.Errorf("Save() error = %v, want ErrNoPath", err)
	}
}

func TestSaveAs(t *testing.T) {
	s, prefs := newTestSession(t)
	s.EditCell(1, 0, "x, y")
	s.EditCell(1, 1, `say "hi"`)

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := s.SaveAs(path); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "Header 1,Header 2\n\"x, y\",\"say \"\"hi\"\"\""
	if string(data) != want {
		t.Errorf("file = %q, want %q", data, want)
	}
	if s.Path() != path {
		t.Errorf("Path() = %q", s.Path())
	}
	if s.Changes().HasChanges() || s.Grid().Cell(1, 0).Modified {
		t.Error("save should clear modified state")
	}
	if len(prefs.recent) != 1 {
		t.Errorf("recent = %v", prefs.recent)
	}

	// Save goes back to the same file.
	s.EditCell(2, 0, "z")
	if err := s.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data, _ = os.ReadFile(path)
	if !strings.HasSuffix(string(data), "\nz,") {
		t.Errorf("file = %q, want last record z,", data)
	}
}

func TestSaveBlankGridKeepsHeader(t *testing.T) {
	s, _ := newTestSession(t)
	s.EditCell(0, 0, "")
	s.EditCell(0, 1, "")

	path := filepath.Join(t.TempDir(), "blank.csv")
	if err := s.SaveAs(path); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}
	if err := s.OpenFile(path); err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	g := s.Grid()
	if g.NumRows() != 1 || g.NumCols() != 2 {
		t.Fatalf("reopened grid is %dx%d, want 1x2", g.NumRows(), g.NumCols())
	}
	for c := 0; c < 2; c++ {
		if got := g.Cell(0, c).Text; got != "" {
			t.Errorf("header %d = %q, want blank", c, got)
		}
	}
}

func TestSaveBlockedByValidation(t *testing.T) {
	s, _ := newTestSession(t)
	valid, err := s.EditCell(2, 1, "é")
	if err != nil {
		t.Fatal(err)
	}
	if valid {
		t.Error("EditCell() reported non-ASCII text as valid")
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	err = s.SaveAs(path)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("SaveAs() error = %v, want *ValidationError", err)
	}
	if vErr.Row != 2 || vErr.Col != 1 {
		t.Errorf("ValidationError at %d,%d, want 2,1", vErr.Row, vErr.Col)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("file should not be written when validation fails")
	}
	if s.Path() != "" {
		t.Error("path should not change on a blocked save")
	}

	s.ToggleValidationMode(true)
	if err := s.SaveAs(path); err != nil {
		t.Fatalf("SaveAs() after allowing non-ASCII: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "é") {
		t.Errorf("file = %q, want it to contain é", data)
	}
}

func TestSaveAsWriteFailure(t *testing.T) {
	s, _ := newTestSession(t)
	dir := t.TempDir()

	err := s.SaveAs(filepath.Join(dir, "no", "such", "dir", "x.csv"))
	var wErr *FileWriteError
	if !errors.As(err, &wErr) {
		t.Fatalf("SaveAs() error = %v, want *FileWriteError", err)
	}
	if s.Path() != "" {
		t.Error("path should not change on a failed save")
	}
}

func TestEditCell(t *testing.T) {
	s, _ := newTestSession(t)

	ok, err := s.EditCell(1, 1, "hello")
	if err != nil || !ok {
		t.Fatalf("EditCell() = %v, %v", ok, err)
	}
	c := s.Grid().Cell(1, 1)
	if c.Text != "hello" || !c.Modified {
		t.Errorf("cell = %+v", c)
	}
	if s.Changes().PendingCount() != 1 {
		t.Errorf("PendingCount() = %d, want 1", s.Changes().PendingCount())
	}

	if _, err := s.EditCell(1, grid.IndexCol, "7"); err == nil {
		t.Error("index cell should not be editable")
	}
	if _, err := s.EditCell(99, 0, "x"); err == nil {
		t.Error("EditCell() on a missing row should fail")
	}

	// Allowed mode accepts the same text and clears the flag.
	s.ToggleValidationMode(true)
	ok, _ = s.EditCell(1, 1, "ñ")
	if !ok || c.Invalid {
		t.Error("non-ASCII should be valid when allowed")
	}
}

func TestStructuralOps(t *testing.T) {
	s, _ := newTestSession(t)

	if err := s.InsertRow(1, grid.Above); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertColumn(0, grid.Left); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteRow(2); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteColumn(2); err != nil {
		t.Fatal(err)
	}
	if err := s.EmptyRow(1); err != nil {
		t.Fatal(err)
	}
	if err := s.EmptyColumn(0); err != nil {
		t.Fatal(err)
	}

	g := s.Grid()
	if g.NumRows() != 4 || g.NumCols() != 2 {
		t.Errorf("grid is %dx%d, want 4x2", g.NumRows(), g.NumCols())
	}
	if got := s.Changes().PendingCount(); got != 6 {
		t.Errorf("PendingCount() = %d, want 6", got)
	}

	if err := s.DeleteRow(0); !errors.Is(err, grid.ErrHeaderRow) {
		t.Errorf("DeleteRow(0) error = %v", err)
	}
	if err := s.DeleteRow(42); !errors.Is(err, grid.ErrNoSuchRow) {
		t.Errorf("DeleteRow(42) error = %v", err)
	}
	if got := s.Changes().PendingCount(); got != 6 {
		t.Errorf("failed ops should not be journalled, PendingCount() = %d", got)
	}
}

func TestSetTheme(t *testing.T) {
	s, prefs := newTestSession(t)

	if err := s.SetTheme("forest"); err != nil {
		t.Fatal(err)
	}
	if s.Theme() != ThemeForest || prefs.theme != "forest" {
		t.Errorf("theme = %q, saved %q", s.Theme(), prefs.theme)
	}

	if err := s.SetTheme("neon"); !errors.Is(err, ErrUnknownTheme) {
		t.Errorf("SetTheme(neon) error = %v", err)
	}
	if s.Theme() != ThemeForest {
		t.Error("unknown theme should not change the selection")
	}

	prefs.themeErr = errors.New("disk full")
	if err := s.SetTheme("navy"); err == nil {
		t.Error("persistence error should be returned")
	}
	if s.Theme() != ThemeNavy {
		t.Error("theme should apply even when it cannot be saved")
	}
}

func TestNewFile(t *testing.T) {
	s, _ := newTestSession(t)
	path := writeFile(t, "a.csv", "a\n1\n")
	if err := s.OpenFile(path); err != nil {
		t.Fatal(err)
	}
	s.NewFile()
	if s.Path() != "" || s.Grid().NumRows() != 4 || s.Grid().NumCols() != 2 {
		t.Errorf("NewFile() left path %q and grid %dx%d",
			s.Path(), s.Grid().NumRows(), s.Grid().NumCols())
	}
}
