package core

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// csv.go loads and serializes the flat-file format: one logical row per
// physical line with standard quoting, a header row defining column names
// and order, and multi-value fields joined by a per-column in-field
// separator distinct from the column delimiter.

// candidateDelimiters are tried in order against the header line.
var candidateDelimiters = []rune{',', ';', '\t'}

// DetectDelimiter inspects the first line of a flat file and returns the
// column delimiter, defaulting to comma.
func DetectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	for _, d := range candidateDelimiters {
		if bytes.ContainsRune(line, d) {
			return d
		}
	}
	return ','
}

// ParseCSV reads a flat file into a Table of the given kind. Every row gets
// a fresh identity and origin existing; the detected delimiter and header
// order are preserved for export.
func ParseCSV(data []byte, kind TableKind) (*Table, error) {
	delim := DetectDelimiter(data)

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("invalid csv: empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	t := &Table{Kind: kind, Columns: header, Delimiter: delim}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		if len(record) != len(header) {
			return nil, fmt.Errorf("invalid csv: row %d has %d fields, want %d", len(t.Rows)+1, len(record), len(header))
		}

		row := &Row{ID: NewRowID(), Origin: OriginExisting}
		for i, raw := range record {
			row.Items = append(row.Items, &Item{
				Column: header[i],
				RowID:  row.ID,
				Origin: OriginExisting,
				Values: SplitValues(header[i], raw),
			})
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// WriteCSV serializes the table back to the flat-file format: the exact
// left inverse of ParseCSV for an unmodified table. Multi-value items are
// joined with their column separator; an empty value sequence renders as an
// empty field. Tombstoned rows are skipped.
//
// A SerializationError indicates an internal invariant violation (an item
// count or column mismatch); it is unreachable for a table built through
// the parser and executor.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	cw.Comma = t.Delimiter

	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		if row.Origin == OriginDeleted {
			continue
		}
		if len(row.Items) != len(t.Columns) {
			return &SerializationError{Reason: fmt.Sprintf("row %d has %d items, want %d", i, len(row.Items), len(t.Columns))}
		}
		for j, item := range row.Items {
			if item.Column != t.Columns[j] {
				return &SerializationError{Reason: fmt.Sprintf("row %d item %d is column %q, want %q", i, j, item.Column, t.Columns[j])}
			}
			record[j] = item.Joined()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportCSV serializes the table to a byte slice.
func ExportCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
