package editor

import (
	"fmt"
	"strings"

	"csvedit/internal/grid"
)

// OpType represents the kind of a recorded change.
type OpType int

const (
	OpEdit OpType = iota
	OpInsertRow
	OpDeleteRow
	OpEmptyRow
	OpInsertColumn
	OpDeleteColumn
	OpEmptyColumn
)

func (o OpType) String() string {
	switch o {
	case OpEdit:
		return "edit"
	case OpInsertRow:
		return "insert row"
	case OpDeleteRow:
		return "delete row"
	case OpEmptyRow:
		return "empty row"
	case OpInsertColumn:
		return "insert column"
	case OpDeleteColumn:
		return "delete column"
	case OpEmptyColumn:
		return "empty column"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Change is one entry in the journal. Row and Col are the coordinates at the
// time of the change; later structural edits may shift them.
type Change struct {
	Type     OpType
	Row      int
	Col      int
	Position grid.Position
	OldValue string
	NewValue string
}

// ChangeTracker records the changes made since the last save.
type ChangeTracker struct {
	changes []Change
}

// NewChangeTracker creates a new empty change tracker.
func NewChangeTracker() *ChangeTracker {
	return &ChangeTracker{}
}

// RecordEdit adds a cell edit. Consecutive edits of the same cell collapse
// into one entry, and one that restores the original value removes it.
func (ct *ChangeTracker) RecordEdit(row, col int, oldValue, newValue string) {
	if n := len(ct.changes); n > 0 {
		last := &ct.changes[n-1]
		if last.Type == OpEdit && last.Row == row && last.Col == col {
			if last.OldValue == newValue {
				ct.changes = ct.changes[:n-1]
				return
			}
			last.NewValue = newValue
			return
		}
	}
	ct.changes = append(ct.changes, Change{
		Type:     OpEdit,
		Row:      row,
		Col:      col,
		OldValue: oldValue,
		NewValue: newValue,
	})
}

// Record adds a structural change.
func (ct *ChangeTracker) Record(op OpType, row, col int, pos grid.Position) {
	ct.changes = append(ct.changes, Change{Type: op, Row: row, Col: col, Position: pos})
}

// HasChanges returns whether there are unsaved changes.
func (ct *ChangeTracker) HasChanges() bool {
	return len(ct.changes) > 0
}

// PendingCount returns the number of recorded changes.
func (ct *ChangeTracker) PendingCount() int {
	return len(ct.changes)
}

// Changes returns a copy of the journal, oldest first.
func (ct *ChangeTracker) Changes() []Change {
	out := make([]Change, len(ct.changes))
	copy(out, ct.changes)
	return out
}

// Summary describes the journal as counts per kind, e.g. "3 edit, 1 insert row".
func (ct *ChangeTracker) Summary() string {
	if len(ct.changes) == 0 {
		return "no changes"
	}
	counts := make(map[OpType]int)
	var order []OpType
	for _, c := range ct.changes {
		if counts[c.Type] == 0 {
			order = append(order, c.Type)
		}
		counts[c.Type]++
	}
	parts := make([]string, 0, len(order))
	for _, op := range order {
		parts = append(parts, fmt.Sprintf("%d %s", counts[op], op))
	}
	return strings.Join(parts, ", ")
}

// Clear removes all recorded changes.
func (ct *ChangeTracker) Clear() {
	ct.changes = nil
}
