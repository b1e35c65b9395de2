// Package parsers ingests heterogeneous financial documents and normalizes
// them into receivable and payment records.
//
// Supported formats:
//   - delimited text (CSV with ; , tab or | delimiters)
//   - spreadsheets (XLSX/XLS)
//   - OFX bank statements
//   - CNAB 240 and CNAB 400 fixed-width banking return files
//
// The contract is best-effort extraction: a malformed row is recorded in the
// result's error list and parsing continues. Only whole-file conditions
// (undecodable bytes, too few rows, no value column, unrecognized format)
// abort a parse.
package parsers

import "conciliador/internal/models"

// RowError records a single malformed line or record, keyed by its 1-based
// position in the source file.
type RowError struct {
	Row int    `json:"row"`
	Err string `json:"error"`
}

// ParseResult carries the records extracted from one file together with the
// per-row failures encountered along the way. A non-empty Errors list does
// not mean the parse failed; it means some rows were skipped.
type ParseResult struct {
	Receivables []*models.Receivable `json:"receivables"`
	Payments    []*models.Payment    `json:"payments"`
	Errors      []RowError           `json:"errors"`
}

// NewParseResult returns an empty result ready for accumulation.
func NewParseResult() *ParseResult {
	return &ParseResult{
		Receivables: make([]*models.Receivable, 0),
		Payments:    make([]*models.Payment, 0),
		Errors:      make([]RowError, 0),
	}
}

// AddRowError records a row-level failure at the given 1-based position.
func (pr *ParseResult) AddRowError(row int, err error) {
	pr.Errors = append(pr.Errors, RowError{Row: row, Err: err.Error()})
}

// RecordCount returns the total number of extracted records.
func (pr *ParseResult) RecordCount() int {
	return len(pr.Receivables) + len(pr.Payments)
}

// HasErrors reports whether any rows were skipped.
func (pr *ParseResult) HasErrors() bool {
	return len(pr.Errors) > 0
}
