// Package csvcodec converts between CSV text and records of fields.
//
// Reading follows RFC 4180: commas inside a double-quoted span are part of the
// field, doubled quotes inside a quoted field read back as a single quote, and
// quoted fields may span lines. Writing quotes only the fields that need it.
package csvcodec

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrInvalidEncoding is returned when input is not valid UTF-8 text.
var ErrInvalidEncoding = errors.New("file is not valid UTF-8 text")

// Decode turns raw file bytes into text. A UTF-8 byte order mark is stripped
// and BOM-marked UTF-16 input is transcoded; anything else must already be
// valid UTF-8.
func Decode(data []byte) (string, error) {
	dec := unicode.BOMOverride(encoding.Nop.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if !utf8.Valid(out) {
		return "", ErrInvalidEncoding
	}
	return string(out), nil
}

// Parse splits CSV text into records. Records may have differing lengths and
// blank lines are skipped.
func Parse(text string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Serialize renders records as CSV text with "\n" between records and no
// trailing newline. Fields are trimmed; trailing records that are entirely
// blank are dropped, but the header record is always written. Fields that are
// not valid UTF-8 are written as empty and counted in dropped.
func Serialize(records [][]string) (text string, dropped int) {
	end := len(records)
	for end > 1 && isBlankRecord(records[end-1]) {
		end--
	}

	var b, line bytes.Buffer
	for i, rec := range records[:end] {
		if i > 0 {
			b.WriteByte('\n')
		}
		line.Reset()
		for j, field := range rec {
			if j > 0 {
				line.WriteByte(',')
			}
			if !utf8.ValidString(field) {
				dropped++
				continue
			}
			line.WriteString(quoteField(strings.TrimSpace(field)))
		}
		// An empty line is skipped by Parse, so the record is kept as a
		// single quoted empty field.
		if line.Len() == 0 {
			b.WriteString(`""`)
			continue
		}
		b.Write(line.Bytes())
	}
	return b.String(), dropped
}

func quoteField(field string) string {
	if !strings.ContainsAny(field, ",\"\r\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

func isBlankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
