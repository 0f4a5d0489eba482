package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ColumnInfo holds metadata about a table column.
type ColumnInfo struct {
	Name       string
	DataType   string
	IsNullable string
}

// GetColumns returns column metadata for a public table. A table that does
// not exist has no columns.
func (d *DB) GetColumns(ctx context.Context, tableName string) ([]ColumnInfo, error) {
	rows, err := d.Conn.Query(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_name = $1
		  AND table_schema = 'public'
		ORDER BY ordinal_position
	`, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []ColumnInfo
	for rows.Next() {
		var c ColumnInfo
		if err := rows.Scan(&c.Name, &c.DataType, &c.IsNullable); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// createTableSQL builds the DDL for a table of text columns.
func createTableSQL(table string, columns []string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = pgx.Identifier{c}.Sanitize() + " text"
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		pgx.Identifier{table}.Sanitize(), strings.Join(defs, ", "))
}

// textTypes are the column types a text value can be copied into.
var textTypes = map[string]bool{
	"text":              true,
	"character varying": true,
	"character":         true,
}

// checkColumns reports why an existing table cannot take rows for the wanted
// columns: a wanted column is missing or not a text type, or a column the
// grid does not fill is NOT NULL.
func checkColumns(table string, existing []ColumnInfo, want []string) error {
	if missing := missingColumns(existing, want); len(missing) > 0 {
		return fmt.Errorf("table %s exists without column(s) %s",
			table, strings.Join(missing, ", "))
	}
	wanted := make(map[string]bool, len(want))
	for _, w := range want {
		wanted[w] = true
	}
	for _, c := range existing {
		switch {
		case wanted[c.Name] && !textTypes[c.DataType]:
			return fmt.Errorf("column %s.%s is %s, not text", table, c.Name, c.DataType)
		case !wanted[c.Name] && c.IsNullable == "NO":
			return fmt.Errorf("column %s.%s is NOT NULL and not in the grid", table, c.Name)
		}
	}
	return nil
}

// missingColumns returns the wanted columns the existing table lacks.
func missingColumns(existing []ColumnInfo, want []string) []string {
	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[c.Name] = true
	}
	var missing []string
	for _, w := range want {
		if !have[w] {
			missing = append(missing, w)
		}
	}
	return missing
}
