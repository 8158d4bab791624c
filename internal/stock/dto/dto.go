package dto

import (
	"strings"

	"github.com/google/uuid"
)

// Table is an uploaded sheet: first row headers, then data rows.
// Rows may be shorter than Headers; missing trailing cells are absent.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Cell returns the raw cell at column i of row, "" when out of range.
func (t *Table) Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// missingMarkers are spreadsheet/dataframe spellings of "no value".
var missingMarkers = map[string]bool{
	"#N/A":     true,
	"#N/A N/A": true,
	"#NA":      true,
	"-1.#IND":  true,
	"-1.#QNAN": true,
	"-NaN":     true,
	"-nan":     true,
	"1.#IND":   true,
	"1.#QNAN":  true,
	"<NA>":     true,
	"N/A":      true,
	"NA":       true,
	"NULL":     true,
	"NaN":      true,
	"None":     true,
	"n/a":      true,
	"nan":      true,
	"null":     true,
}

// Present reports whether a cell carries a value and returns it trimmed.
// Every field extraction goes through this predicate.
func Present(cell string) (string, bool) {
	v := strings.TrimSpace(cell)
	if v == "" || missingMarkers[v] {
		return "", false
	}
	return v, true
}

type ImportResult struct {
	BatchID  uuid.UUID
	Rows     int
	Inserted int
	Updated  int
	Skipped  int
}

type SearchFilters struct {
	Query  string
	Fields []string // Defaults to key and product
}
