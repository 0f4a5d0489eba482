package db

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrNoHeader is returned when there is nothing to derive columns from.
var ErrNoHeader = errors.New("grid has no header row")

// ExportResult describes a completed export.
type ExportResult struct {
	Table    string
	Target   string
	Columns  []string
	Rows     int64
	Created  bool
	ExecTime time.Duration
}

// ExportGrid copies records into table. The first record names the columns;
// the table is created with one text column each when it does not exist.
// Rows that are entirely blank are skipped and blank cells become NULL. All
// rows are written in one transaction.
func (d *DB) ExportGrid(ctx context.Context, table string, records [][]string) (*ExportResult, error) {
	if len(records) == 0 {
		return nil, ErrNoHeader
	}
	start := time.Now()
	columns := ColumnNames(records[0])
	rows := dataRows(records[1:], len(columns))

	existing, err := d.GetColumns(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("inspect table %s: %w", table, err)
	}
	created := len(existing) == 0
	if !created {
		if err := checkColumns(table, existing, columns); err != nil {
			return nil, err
		}
	}

	tx, err := d.Conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	if created {
		if _, err := tx.Exec(ctx, createTableSQL(table, columns)); err != nil {
			return nil, fmt.Errorf("create table %s: %w", table, err)
		}
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return nil, fmt.Errorf("copy into %s: %w", table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &ExportResult{
		Table:    table,
		Target:   d.ConnInfo(),
		Columns:  columns,
		Rows:     n,
		Created:  created,
		ExecTime: time.Since(start),
	}, nil
}

// ColumnNames turns header labels into column identifiers: lower case, with
// each run of anything but ASCII letters and digits folded to one underscore.
// Blank labels become column_N (1-based) and repeats get a numeric suffix.
func ColumnNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := identifier(h)
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		base := name
		for seen[name] > 0 {
			seen[base]++
			name = base + "_" + strconv.Itoa(seen[base])
		}
		seen[name]++
		names[i] = name
	}
	return names
}

// TableName derives a table name from a file path. It falls back to
// "csv_import" when the base name has no usable characters.
func TableName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if name := identifier(base); name != "" {
		return name
	}
	return "csv_import"
}

func identifier(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if r < 0x80 && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	name := b.String()
	if name != "" && name[0] >= '0' && name[0] <= '9' {
		name = "c_" + name
	}
	return name
}

// dataRows converts grid rows to COPY values, padded or cut to width.
func dataRows(records [][]string, width int) [][]any {
	out := make([][]any, 0, len(records))
	for _, rec := range records {
		if isBlank(rec) {
			continue
		}
		row := make([]any, width)
		for i := range row {
			var s string
			if i < len(rec) {
				s = rec[i]
			}
			row[i] = toPgText(s)
		}
		out = append(out, row)
	}
	return out
}

func toPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
