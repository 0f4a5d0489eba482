// Package grid holds the in-memory table being edited: a header row, data
// rows and a leading row-index column.
//
// Row 0 is the header and data rows are numbered from 1. Every row starts with
// an index cell (the corner cell on the header row) whose column is -1; data
// columns are numbered from 0. Numbers are recomputed after every structural
// change, so callers must never cache them across one.
package grid

import (
	"errors"
	"fmt"
	"strconv"
)

// Default size of a new, empty grid.
const (
	DefaultRows = 100
	DefaultCols = 20
)

// IndexCol is the column number of the row-index column.
const IndexCol = -1

var (
	ErrNoSuchRow    = errors.New("no such row")
	ErrNoSuchColumn = errors.New("no such column")
	ErrHeaderRow    = errors.New("operation not allowed on the header row")
	ErrLastColumn   = errors.New("cannot delete the last column")
)

// Kind classifies a cell by its place in the grid.
type Kind int

const (
	KindData Kind = iota
	KindHeader
	KindIndex
	KindCorner
)

// Cell is a single grid cell.
type Cell struct {
	Text     string
	Row      int
	Col      int
	Kind     Kind
	Invalid  bool // failed character-set validation
	Modified bool // edited since the last save
}

// Editable reports whether the user may change the cell's text.
func (c *Cell) Editable() bool {
	return c.Kind == KindData || c.Kind == KindHeader
}

// Row is an ordered run of cells. Cells[0] is the index or corner cell.
type Row struct {
	Index int
	Cells []*Cell
}

// Grid is the table model.
type Grid struct {
	rows []*Row
}

// New builds an empty grid with the given number of data rows and columns.
// Header cells are labelled "Header 1".."Header N".
func New(rows, cols int) *Grid {
	if rows < 0 {
		rows = 0
	}
	if cols < 1 {
		cols = 1
	}
	g := &Grid{rows: make([]*Row, 0, rows+1)}

	header := newRow(KindHeader, cols)
	for j := 0; j < cols; j++ {
		header.Cells[j+1].Text = fmt.Sprintf("Header %d", j+1)
	}
	g.rows = append(g.rows, header)
	for i := 0; i < rows; i++ {
		g.rows = append(g.rows, newRow(KindData, cols))
	}

	g.ReindexRows()
	g.ReindexColumns()
	return g
}

// FromRecords builds a grid from parsed CSV records. The first record is the
// header. Short records are padded with empty cells to the widest record.
// No records yields a header-only grid with one blank column.
func FromRecords(records [][]string) *Grid {
	if len(records) == 0 {
		records = [][]string{{""}}
	}

	width := 1
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}

	g := &Grid{rows: make([]*Row, 0, len(records))}
	for i, rec := range records {
		kind := KindData
		if i == 0 {
			kind = KindHeader
		}
		row := newRow(kind, width)
		for j, field := range rec {
			row.Cells[j+1].Text = field
		}
		g.rows = append(g.rows, row)
	}

	g.ReindexRows()
	g.ReindexColumns()
	return g
}

func newRow(kind Kind, cols int) *Row {
	row := &Row{Cells: make([]*Cell, cols+1)}
	lead := KindIndex
	if kind == KindHeader {
		lead = KindCorner
	}
	row.Cells[0] = &Cell{Kind: lead}
	for j := 1; j <= cols; j++ {
		row.Cells[j] = &Cell{Kind: kind}
	}
	return row
}

// NumRows returns the number of rows including the header.
func (g *Grid) NumRows() int {
	return len(g.rows)
}

// NumCols returns the number of data columns.
func (g *Grid) NumCols() int {
	if len(g.rows) == 0 {
		return 0
	}
	return len(g.rows[0].Cells) - 1
}

// Row returns row r, or nil if it does not exist.
func (g *Grid) Row(r int) *Row {
	if r < 0 || r >= len(g.rows) {
		return nil
	}
	return g.rows[r]
}

// Cell returns the cell at row r, column c. Column IndexCol addresses the
// index cell. It returns nil when out of range.
func (g *Grid) Cell(r, c int) *Cell {
	row := g.Row(r)
	if row == nil || c < IndexCol || c+1 >= len(row.Cells) {
		return nil
	}
	return row.Cells[c+1]
}

// SetText replaces the text of an editable cell and marks it modified.
func (g *Grid) SetText(r, c int, text string) error {
	cell := g.Cell(r, c)
	if cell == nil {
		return fmt.Errorf("cell %d,%d: %w", r, c, ErrNoSuchColumn)
	}
	if !cell.Editable() {
		return fmt.Errorf("cell %d,%d is not editable", r, c)
	}
	if cell.Text != text {
		cell.Text = text
		cell.Modified = true
	}
	return nil
}

// Records returns the header and data cells as CSV records, without the
// index column.
func (g *Grid) Records() [][]string {
	records := make([][]string, len(g.rows))
	for i, row := range g.rows {
		rec := make([]string, len(row.Cells)-1)
		for j, cell := range row.Cells[1:] {
			rec[j] = cell.Text
		}
		records[i] = rec
	}
	return records
}

// Cells calls fn for every cell in row-major order, index cells included.
func (g *Grid) Cells(fn func(*Cell)) {
	for _, row := range g.rows {
		for _, cell := range row.Cells {
			fn(cell)
		}
	}
}

// MarkClean clears the Modified flag on every cell.
func (g *Grid) MarkClean() {
	g.Cells(func(c *Cell) { c.Modified = false })
}

// ReindexRows renumbers rows by position and refreshes the index cells.
func (g *Grid) ReindexRows() {
	for i, row := range g.rows {
		row.Index = i
		for _, cell := range row.Cells {
			cell.Row = i
		}
		lead := row.Cells[0]
		if lead.Kind == KindIndex {
			lead.Text = strconv.Itoa(i)
		}
	}
}

// ReindexColumns renumbers the cells of every row left to right, skipping
// the index and corner cells.
func (g *Grid) ReindexColumns() {
	for _, row := range g.rows {
		col := 0
		for _, cell := range row.Cells {
			if cell.Kind == KindIndex || cell.Kind == KindCorner {
				cell.Col = IndexCol
				continue
			}
			cell.Col = col
			col++
		}
	}
}
