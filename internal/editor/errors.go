package editor

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPath is returned by Save when the grid has never been saved or
	// opened from a file.
	ErrNoPath = errors.New("no file name, use Save As")

	// ErrUnknownTheme is returned by SetTheme for names outside the fixed set.
	ErrUnknownTheme = errors.New("unknown theme")
)

// FileReadError reports a file that could not be opened as CSV. The current
// grid is left untouched.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("cannot open %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }

// FileWriteError reports a save that failed. The in-memory grid is kept.
type FileWriteError struct {
	Path string
	Err  error
}

func (e *FileWriteError) Error() string {
	return fmt.Sprintf("cannot save %s: %v", e.Path, e.Err)
}

func (e *FileWriteError) Unwrap() error { return e.Err }

// ValidationError blocks a save while non-ASCII text is present and not
// allowed. Row and Col locate the first offending cell.
type ValidationError struct {
	Row int
	Col int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("non-English characters in row %d, column %d; enable \"Allow Non-English Characters\" to save",
		e.Row, e.Col+1)
}
