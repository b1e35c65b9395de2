package parsers

import (
	"bytes"
	"encoding/csv"
	"strings"
	"time"

	"conciliador/internal/models"
	"conciliador/internal/normalize"
	"conciliador/pkg/errors"
	"conciliador/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// delimiterPriority is scanned against the first line of a delimited file;
// the first delimiter present wins. Semicolon leads because Brazilian Excel
// exports CSV with semicolons.
var delimiterPriority = []rune{';', ',', '\t', '|'}

// TabularParser parses delimited text files and spreadsheets by inferring
// the role of every column from its header and sample values.
type TabularParser struct {
	log logger.Logger
}

// NewTabularParser creates a tabular parser.
func NewTabularParser() *TabularParser {
	return &TabularParser{
		log: logger.GetGlobalLogger().WithComponent("tabular_parser"),
	}
}

// ParseCSV parses delimited text content into normalized records.
func (tp *TabularParser) ParseCSV(content []byte, filename string) (*ParseResult, error) {
	text, encoding, err := decodeText(content, tabularEncodings)
	if err != nil {
		return nil, errors.ParseFailure(errors.CodeEncodingError, filename, err)
	}

	delimiter := detectDelimiter(text)
	tp.log.WithFields(logger.Fields{
		"filename":  filename,
		"encoding":  encoding,
		"delimiter": string(delimiter),
	}).Debug("Parsing delimited text file")

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.ParseFailure(errors.CodeEncodingError, filename, err).
			WithSuggestion("check that the file is a well-formed delimited text file")
	}

	if len(rows) < 2 {
		return nil, errors.ParseFailure(errors.CodeTooFewRows, filename, nil)
	}

	return tp.buildRecords(rows[0], rows[1:], models.SourceCSV, filename)
}

// ParseXLSX parses spreadsheet content into normalized records. Only the
// first sheet is read, matching how billing reports are exported.
func (tp *TabularParser) ParseXLSX(content []byte, filename string) (*ParseResult, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, errors.ParseFailure(errors.CodeFileCorrupted, filename, err).
			WithSuggestion("check that the file is a valid XLSX spreadsheet")
	}
	defer workbook.Close()

	sheet := workbook.GetSheetName(0)
	rows, err := workbook.GetRows(sheet)
	if err != nil {
		return nil, errors.ParseFailure(errors.CodeFileCorrupted, filename, err)
	}

	tp.log.WithFields(logger.Fields{
		"filename": filename,
		"sheet":    sheet,
		"rows":     len(rows),
	}).Debug("Parsing spreadsheet")

	if len(rows) < 2 {
		return nil, errors.ParseFailure(errors.CodeTooFewRows, filename, nil)
	}

	return tp.buildRecords(rows[0], rows[1:], models.SourceXLSX, filename)
}

// detectDelimiter scans the first line for each candidate delimiter in
// priority order; the first one present wins, defaulting to comma.
func detectDelimiter(text string) rune {
	firstLine := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		firstLine = text[:i]
	}

	for _, d := range delimiterPriority {
		if strings.ContainsRune(firstLine, d) {
			return d
		}
	}
	return ','
}

// buildRecords classifies columns, infers the file type and materializes
// one record per usable data row. Rows without a usable non-zero amount are
// skipped; rows producing an invalid record are recorded as row errors.
func (tp *TabularParser) buildRecords(headers []string, dataRows [][]string, source models.Source, filename string) (*ParseResult, error) {
	columnsByRole := make(map[Role][]int)
	for i, header := range headers {
		var samples []string
		for _, row := range dataRows {
			if len(samples) == SampleSize {
				break
			}
			if i < len(row) {
				samples = append(samples, row[i])
			}
		}
		role := ClassifyColumn(header, samples)
		columnsByRole[role] = append(columnsByRole[role], i)
	}

	valueCols := columnsByRole[RoleValue]
	dateCols := columnsByRole[RoleDate]
	docCols := columnsByRole[RoleIdentifier]
	nameCols := columnsByRole[RoleName]

	if len(valueCols) == 0 {
		return nil, errors.ParseFailure(errors.CodeNoValueColumn, filename, nil)
	}

	fileType := DetectFileType(headers)
	tp.log.WithFields(logger.Fields{
		"filename":   filename,
		"file_type":  string(fileType),
		"value_cols": valueCols,
		"date_cols":  dateCols,
		"doc_cols":   docCols,
		"name_cols":  nameCols,
	}).Debug("Classified columns")

	result := NewParseResult()

	for rowIdx, row := range dataRows {
		// 1-based position in the file, accounting for the header row.
		position := rowIdx + 2

		amount, ok := pickAmount(row, valueCols)
		if !ok {
			continue
		}

		date, hasDate := pickDate(row, dateCols)
		document := pickDocument(row, docCols)
		name := pickName(row, nameCols)

		isPayment := fileType == FileTypePayment || amount.IsNegative()
		absAmount := amount.Abs()

		if isPayment {
			payment := models.NewPayment(absAmount, source)
			payment.PayerDocument = document
			payment.PayerName = name
			if hasDate {
				d := date
				payment.Date = &d
			}
			if err := payment.Validate(); err != nil {
				result.AddRowError(position, err)
				continue
			}
			result.Payments = append(result.Payments, payment)
		} else {
			receivable := models.NewReceivable(absAmount, source)
			receivable.DebtorDocument = document
			receivable.DebtorName = name
			if hasDate {
				d := date
				receivable.DueDate = &d
			}
			if err := receivable.Validate(); err != nil {
				result.AddRowError(position, err)
				continue
			}
			result.Receivables = append(result.Receivables, receivable)
		}
	}

	tp.log.WithFields(logger.Fields{
		"filename":    filename,
		"receivables": len(result.Receivables),
		"payments":    len(result.Payments),
		"row_errors":  len(result.Errors),
	}).Info("Parsed tabular file")

	return result, nil
}

// pickAmount returns the raw signed amount from the first value column that
// yields a non-zero parseable amount.
func pickAmount(row []string, valueCols []int) (decimal.Decimal, bool) {
	for _, col := range valueCols {
		if col >= len(row) {
			continue
		}
		amount, ok := normalize.ParseAmount(row[col])
		if ok && !amount.IsZero() {
			return amount, true
		}
	}
	return decimal.Zero, false
}

// pickDate returns the first parseable date among the date columns.
func pickDate(row []string, dateCols []int) (time.Time, bool) {
	for _, col := range dateCols {
		if col >= len(row) {
			continue
		}
		if date, ok := normalize.ParseDate(row[col]); ok {
			return date, true
		}
	}
	return time.Time{}, false
}

// pickDocument returns the first non-empty identifier column, normalized to
// digits only.
func pickDocument(row []string, docCols []int) string {
	for _, col := range docCols {
		if col >= len(row) {
			continue
		}
		if raw := strings.TrimSpace(row[col]); raw != "" {
			return normalize.NormalizeDocument(raw)
		}
	}
	return ""
}

// pickName returns the first non-empty name column.
func pickName(row []string, nameCols []int) string {
	for _, col := range nameCols {
		if col >= len(row) {
			continue
		}
		if raw := strings.TrimSpace(row[col]); raw != "" {
			return raw
		}
	}
	return ""
}
