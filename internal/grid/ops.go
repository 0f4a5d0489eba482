package grid

import "fmt"

// Position says which side of the target a new row or column goes.
type Position int

const (
	Above Position = iota
	Below
	Left
	Right
)

func (p Position) String() string {
	switch p {
	case Above:
		return "above"
	case Below:
		return "below"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Position(%d)", int(p))
	}
}

// InsertRow adds an empty data row above or below row at.
func (g *Grid) InsertRow(at int, pos Position) error {
	if at < 0 || at >= len(g.rows) {
		return fmt.Errorf("insert row %d: %w", at, ErrNoSuchRow)
	}
	if pos != Above && pos != Below {
		return fmt.Errorf("insert row: invalid position %s", pos)
	}
	if at == 0 && pos == Above {
		return fmt.Errorf("insert row above header: %w", ErrHeaderRow)
	}

	idx := at
	if pos == Below {
		idx++
	}
	row := newRow(KindData, g.NumCols())
	g.rows = append(g.rows, nil)
	copy(g.rows[idx+1:], g.rows[idx:])
	g.rows[idx] = row

	g.ReindexRows()
	g.ReindexColumns()
	return nil
}

// DeleteRow removes the data row currently numbered n.
func (g *Grid) DeleteRow(n int) error {
	if n == 0 {
		return fmt.Errorf("delete row: %w", ErrHeaderRow)
	}
	kept := g.rows[:0]
	found := false
	for _, row := range g.rows {
		if row.Index == n {
			found = true
			continue
		}
		kept = append(kept, row)
	}
	if !found {
		return fmt.Errorf("delete row %d: %w", n, ErrNoSuchRow)
	}
	for i := len(kept); i < len(g.rows); i++ {
		g.rows[i] = nil
	}
	g.rows = kept

	g.ReindexRows()
	return nil
}

// EmptyRow clears the text of every non-index cell in row n.
func (g *Grid) EmptyRow(n int) error {
	row := g.Row(n)
	if row == nil {
		return fmt.Errorf("empty row %d: %w", n, ErrNoSuchRow)
	}
	for _, cell := range row.Cells[1:] {
		clearCell(cell)
	}
	return nil
}

// InsertColumn adds an empty column to the left or right of column c. A grid
// without data columns gets the new column appended.
func (g *Grid) InsertColumn(c int, pos Position) error {
	if pos != Left && pos != Right {
		return fmt.Errorf("insert column: invalid position %s", pos)
	}
	cols := g.NumCols()
	if cols > 0 && (c < 0 || c >= cols) {
		return fmt.Errorf("insert column %d: %w", c, ErrNoSuchColumn)
	}

	for _, row := range g.rows {
		kind := KindData
		if row.Cells[0].Kind == KindCorner {
			kind = KindHeader
		}
		cell := &Cell{Kind: kind, Row: row.Index}

		idx := len(row.Cells)
		for i, existing := range row.Cells {
			if existing.Col == c && existing.Kind != KindIndex && existing.Kind != KindCorner {
				idx = i
				if pos == Right {
					idx++
				}
				break
			}
		}
		row.Cells = append(row.Cells, nil)
		copy(row.Cells[idx+1:], row.Cells[idx:])
		row.Cells[idx] = cell
	}

	g.ReindexColumns()
	return nil
}

// DeleteColumn removes column c from every row.
func (g *Grid) DeleteColumn(c int) error {
	cols := g.NumCols()
	if c < 0 || c >= cols {
		return fmt.Errorf("delete column %d: %w", c, ErrNoSuchColumn)
	}
	if cols == 1 {
		return fmt.Errorf("delete column %d: %w", c, ErrLastColumn)
	}

	for _, row := range g.rows {
		kept := row.Cells[:0]
		for _, cell := range row.Cells {
			if cell.Col == c && cell.Kind != KindIndex && cell.Kind != KindCorner {
				continue
			}
			kept = append(kept, cell)
		}
		row.Cells = kept
	}

	g.ReindexColumns()
	return nil
}

// EmptyColumn clears the text of column c in every data row. Header labels
// are left alone.
func (g *Grid) EmptyColumn(c int) error {
	if c < 0 || c >= g.NumCols() {
		return fmt.Errorf("empty column %d: %w", c, ErrNoSuchColumn)
	}
	for _, row := range g.rows[1:] {
		clearCell(row.Cells[c+1])
	}
	return nil
}

func clearCell(c *Cell) {
	if c.Text != "" {
		c.Text = ""
		c.Modified = true
	}
	c.Invalid = false
}
