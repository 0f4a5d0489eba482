// Package validation checks cell text against the editor's character-set
// restriction.
package validation

import (
	"unicode/utf8"

	"csvedit/internal/grid"
)

// IsASCII reports whether every code point in text is at most 0x7F.
func IsASCII(text string) bool {
	for i := 0; i < len(text); i++ {
		if text[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// ValidateCell flags or clears the cell's Invalid mark. When allowNonASCII is
// false a cell containing non-ASCII text is invalid.
func ValidateCell(cell *grid.Cell, allowNonASCII bool) bool {
	if !allowNonASCII && !IsASCII(cell.Text) {
		cell.Invalid = true
		return false
	}
	cell.Invalid = false
	return true
}

// HasNonASCII reports whether any cell in g contains a non-ASCII character.
func HasNonASCII(g *grid.Grid) bool {
	_, _, found := FirstNonASCII(g)
	return found
}

// FirstNonASCII returns the row and column of the first cell, in row-major
// order, that contains a non-ASCII character.
func FirstNonASCII(g *grid.Grid) (row, col int, found bool) {
	for r := 0; r < g.NumRows(); r++ {
		for _, cell := range g.Row(r).Cells {
			if !IsASCII(cell.Text) {
				return cell.Row, cell.Col, true
			}
		}
	}
	return 0, 0, false
}

// MarkAll validates every editable cell and returns how many failed.
func MarkAll(g *grid.Grid, allowNonASCII bool) int {
	failed := 0
	g.Cells(func(c *grid.Cell) {
		if !c.Editable() {
			return
		}
		if !ValidateCell(c, allowNonASCII) {
			failed++
		}
	})
	return failed
}
