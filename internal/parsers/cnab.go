package parsers

import (
	"strconv"
	"strings"
	"time"

	"conciliador/internal/models"
	"conciliador/pkg/errors"
	"conciliador/pkg/logger"

	"github.com/shopspring/decimal"
)

// CNAB return file line lengths. The byte layout of both sub-formats is an
// interbank specification; every offset below must stay exactly as is.
const (
	cnabWideLength   = 240
	cnabNarrowLength = 400
)

// Occurrence codes meaning the billed instrument was settled: liquidation,
// partial liquidation, write-off with liquidation, liquidation after
// write-off.
var cnabPaidCodes = map[string]bool{
	"06": true,
	"07": true,
	"10": true,
	"17": true,
}

// CNABParser decodes CNAB 240 and CNAB 400 retorno files into receivables
// and, for settled instruments, payments.
type CNABParser struct {
	log logger.Logger
}

// NewCNABParser creates a CNAB parser.
func NewCNABParser() *CNABParser {
	return &CNABParser{
		log: logger.GetGlobalLogger().WithComponent("cnab_parser"),
	}
}

// DetectCNABLength decodes the content and classifies it by the character
// length of its first non-empty line. Returns 240, 400 or false.
func DetectCNABLength(content []byte) (int, bool) {
	text, _, err := decodeText(content, cnabEncodings)
	if err != nil {
		return 0, false
	}

	lines := splitNonEmptyLines(text)
	if len(lines) == 0 {
		return 0, false
	}

	switch len([]rune(lines[0])) {
	case cnabWideLength:
		return cnabWideLength, true
	case cnabNarrowLength:
		return cnabNarrowLength, true
	}
	return 0, false
}

// Parse auto-detects the sub-format by first-line length and decodes the
// file. Unrecognized lengths and undecodable content fail the whole parse;
// individual malformed lines are recorded as row errors.
func (cp *CNABParser) Parse(content []byte, filename string) (*ParseResult, error) {
	text, encoding, err := decodeText(content, cnabEncodings)
	if err != nil {
		return nil, errors.ParseFailure(errors.CodeEncodingError, filename, err)
	}

	lines := splitNonEmptyLines(text)
	if len(lines) == 0 {
		return nil, errors.ParseFailure(errors.CodeUnrecognizedCNAB, filename, nil)
	}

	length := len([]rune(lines[0]))
	cp.log.WithFields(logger.Fields{
		"filename":    filename,
		"encoding":    encoding,
		"line_length": length,
		"lines":       len(lines),
	}).Debug("Parsing CNAB return file")

	switch length {
	case cnabWideLength:
		return cp.parseWide(lines), nil
	case cnabNarrowLength:
		return cp.parseNarrow(lines), nil
	}
	return nil, errors.ParseFailure(errors.CodeUnrecognizedCNAB, filename, nil)
}

// cnabTitle holds the fields of a buffered CNAB 240 title (segment T) until
// its settlement segment arrives.
type cnabTitle struct {
	Occurrence     string
	InternalNumber string
	DocumentNumber string
	DueDate        *time.Time
	FaceValue      decimal.Decimal
	PayerDocument  string
	PayerName      string
	Line           int
}

// parseWide decodes the 240-character sub-format. Detail records carry a
// title segment (T) and a settlement segment (U) which are consumed as
// adjacent pairs through a two-state machine: a title is buffered, the next
// settlement completes it. The buffer is cleared on every title and every
// settlement, so stray or out-of-order segments never pair across unrelated
// titles. A title that never sees its settlement is flushed as a
// receivable with no payment.
func (cp *CNABParser) parseWide(lines []string) *ParseResult {
	result := NewParseResult()

	var pending *cnabTitle

	flushPending := func() {
		if pending == nil {
			return
		}
		cp.emitReceivable(result, pending, models.SourceCNAB240)
		pending = nil
	}

	for i, line := range lines {
		lineNum := i + 1
		runes := []rune(line)

		// Shorter lines are skipped, never raised on.
		if len(runes) < cnabWideLength {
			continue
		}

		if runes[7] != '3' { // only detail records
			continue
		}

		segment := strings.ToUpper(string(runes[13]))
		switch segment {
		case "T":
			flushPending()
			pending = &cnabTitle{
				Occurrence:     strings.TrimSpace(string(runes[15:17])),
				InternalNumber: strings.TrimSpace(string(runes[40:48])),
				DocumentNumber: strings.TrimSpace(string(runes[58:68])),
				DueDate:        cnabDate(runes[73:81]),
				FaceValue:      cnabAmount(runes[81:96]),
				PayerDocument:  cnabDocument(runes[133:148]),
				PayerName:      strings.TrimSpace(string(runes[148:178])),
				Line:           lineNum,
			}

		case "U":
			if pending == nil {
				// Stray settlement with no buffered title.
				continue
			}

			paidAmount := cnabAmount(runes[77:92])
			interestAndFines := cnabAmount(runes[17:32])
			discount := cnabAmount(runes[32:47])
			occurrenceDate := cnabDate(runes[137:145])
			creditDate := cnabDate(runes[145:153])

			cp.log.WithFields(logger.Fields{
				"line":     lineNum,
				"paid":     paidAmount,
				"interest": interestAndFines,
				"discount": discount,
			}).Debug("Decoded settlement segment")

			title := pending
			pending = nil

			receivable := cp.emitReceivable(result, title, models.SourceCNAB240)
			if receivable == nil {
				continue
			}

			if cnabPaidCodes[title.Occurrence] && paidAmount.IsPositive() {
				date := creditDate
				if date == nil {
					date = occurrenceDate
				}
				cp.emitPayment(result, title, paidAmount, date, models.SourceCNAB240, lineNum)
			}
		}
	}

	flushPending()

	return result
}

// parseNarrow decodes the 400-character sub-format: every detail record is
// a single flat line yielding one receivable and, when settled, one payment.
func (cp *CNABParser) parseNarrow(lines []string) *ParseResult {
	result := NewParseResult()

	for i, line := range lines {
		lineNum := i + 1
		runes := []rune(line)

		if len(runes) < cnabNarrowLength {
			continue
		}

		if runes[0] != '1' { // only detail records
			continue
		}

		title := &cnabTitle{
			Occurrence:     strings.TrimSpace(string(runes[108:110])),
			InternalNumber: strings.TrimSpace(string(runes[62:70])),
			DocumentNumber: strings.TrimSpace(string(runes[116:126])),
			DueDate:        cnabDate(runes[146:152]),
			FaceValue:      cnabAmount(runes[152:165]),
			PayerName:      strings.TrimSpace(string(runes[324:354])),
			Line:           lineNum,
		}

		paidAmount := cnabAmount(runes[253:266])
		interestAndFines := cnabAmount(runes[266:279])
		discount := cnabAmount(runes[240:253])
		occurrenceDate := cnabDate(runes[110:116])
		creditDate := cnabDate(runes[295:301])

		cp.log.WithFields(logger.Fields{
			"line":     lineNum,
			"paid":     paidAmount,
			"interest": interestAndFines,
			"discount": discount,
		}).Debug("Decoded detail record")

		receivable := cp.emitReceivable(result, title, models.SourceCNAB400)
		if receivable == nil {
			continue
		}

		if cnabPaidCodes[title.Occurrence] && paidAmount.IsPositive() {
			date := creditDate
			if date == nil {
				date = occurrenceDate
			}
			cp.emitPayment(result, title, paidAmount, date, models.SourceCNAB400, lineNum)
		}
	}

	return result
}

// emitReceivable materializes the receivable carried by a title record.
// Returns nil (recording a row error) when the decoded face value violates
// the positive-amount invariant.
func (cp *CNABParser) emitReceivable(result *ParseResult, title *cnabTitle, source models.Source) *models.Receivable {
	receivable := models.NewReceivable(title.FaceValue, source)
	receivable.DebtorDocument = title.PayerDocument
	receivable.DebtorName = title.PayerName
	receivable.DueDate = title.DueDate
	if cnabPaidCodes[title.Occurrence] {
		receivable.Status = models.ReceivableConciliated
	}

	if err := receivable.Validate(); err != nil {
		result.AddRowError(title.Line, err)
		return nil
	}

	result.Receivables = append(result.Receivables, receivable)
	return receivable
}

func (cp *CNABParser) emitPayment(result *ParseResult, title *cnabTitle, amount decimal.Decimal, date *time.Time, source models.Source, line int) {
	payment := models.NewPayment(amount, source)
	payment.PayerDocument = title.PayerDocument
	payment.PayerName = title.PayerName
	payment.Date = date

	payment.BankReference = title.InternalNumber
	if payment.BankReference == "" {
		payment.BankReference = title.DocumentNumber
	}

	if err := payment.Validate(); err != nil {
		result.AddRowError(line, err)
		return
	}

	result.Payments = append(result.Payments, payment)
}

// cnabAmount decodes a fixed-length digit run with two implied decimal
// places, e.g. "000000000123456" -> 1234.56. Non-numeric content decodes
// to zero; significance is decided by the caller.
func cnabAmount(field []rune) decimal.Decimal {
	raw := strings.TrimSpace(string(field))
	if raw == "" {
		return decimal.Zero
	}

	cents, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || cents < 0 {
		return decimal.Zero
	}
	return decimal.New(cents, -2)
}

// cnabDate decodes an 8-digit DDMMYYYY or 6-digit DDMMYY field. All-zero
// fields mean "absent" and decode to nil.
func cnabDate(field []rune) *time.Time {
	raw := strings.TrimSpace(string(field))
	if raw == "" || raw == strings.Repeat("0", len(raw)) {
		return nil
	}

	var layout string
	switch len(raw) {
	case 8:
		layout = "02012006"
	case 6:
		layout = "020106"
	default:
		return nil
	}

	t, err := time.Parse(layout, raw)
	if err != nil {
		return nil
	}
	return &t
}

// cnabDocument decodes a zero-padded tax identifier field, normalizing it
// to 11 digits (CPF) or 14 digits (CNPJ) by significant-digit count.
func cnabDocument(field []rune) string {
	raw := strings.TrimSpace(string(field))
	if raw == "" {
		return ""
	}

	digits := strings.TrimLeft(raw, "0")
	if digits == "" {
		return ""
	}

	if len(digits) <= 11 {
		return leftPadZeros(digits, 11)
	}
	return leftPadZeros(digits, 14)
}

func leftPadZeros(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
