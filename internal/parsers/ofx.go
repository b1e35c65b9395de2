package parsers

import (
	"bytes"
	"strings"
	"time"

	"conciliador/internal/models"
	"conciliador/internal/normalize"
	"conciliador/pkg/errors"
	"conciliador/pkg/logger"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

// OFXParser decodes OFX bank statements into payments. Bank statements only
// describe money movement, so an OFX file never produces receivables.
type OFXParser struct {
	log logger.Logger
}

// NewOFXParser creates an OFX parser.
func NewOFXParser() *OFXParser {
	return &OFXParser{
		log: logger.GetGlobalLogger().WithComponent("ofx_parser"),
	}
}

// Parse decodes the OFX document and converts every statement transaction
// into a payment. Zero-amount transactions are skipped. A document with no
// transactions at all fails the parse.
func (op *OFXParser) Parse(content []byte, filename string) (*ParseResult, error) {
	resp, err := ofxgo.ParseResponse(bytes.NewReader(content))
	if err != nil {
		return nil, errors.ParseFailure(errors.CodeFileCorrupted, filename, err).
			WithSuggestion("Make sure the file is a valid OFX bank statement")
	}

	transactions := collectTransactions(resp)
	if len(transactions) == 0 {
		return nil, errors.ParseFailure(errors.CodeNoTransactions, filename, nil)
	}

	op.log.WithFields(logger.Fields{
		"filename":     filename,
		"transactions": len(transactions),
	}).Debug("Parsing OFX statement")

	result := NewParseResult()
	for i, txn := range transactions {
		amount, err := decimal.NewFromString(txn.TrnAmt.FloatString(2))
		if err != nil || amount.IsZero() {
			continue
		}

		payment := models.NewPayment(amount.Abs(), models.SourceOFX)
		payment.PayerName = transactionName(&txn)
		payment.PayerDocument = transactionDocument(&txn)
		if t := txn.DtPosted.Time; !t.IsZero() {
			// Calendar date only; the posting time-of-day would skew
			// day-distance calculations downstream.
			date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
			payment.Date = &date
		}

		payment.BankReference = strings.TrimSpace(string(txn.FiTID))
		if payment.BankReference == "" {
			payment.BankReference = strings.TrimSpace(string(txn.CheckNum))
		}

		if err := payment.Validate(); err != nil {
			result.AddRowError(i+1, err)
			continue
		}
		result.Payments = append(result.Payments, payment)
	}

	return result, nil
}

// collectTransactions gathers statement transactions from every bank and
// credit card statement message in the response.
func collectTransactions(resp *ofxgo.Response) []ofxgo.Transaction {
	var transactions []ofxgo.Transaction

	for _, message := range resp.Bank {
		stmt, ok := message.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		transactions = append(transactions, stmt.BankTranList.Transactions...)
	}
	for _, message := range resp.CreditCard {
		stmt, ok := message.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		transactions = append(transactions, stmt.BankTranList.Transactions...)
	}

	return transactions
}

// transactionName resolves the counterparty name with the payee record
// taking precedence over the NAME field and the memo as last resort.
func transactionName(txn *ofxgo.Transaction) string {
	if txn.Payee != nil {
		if name := strings.TrimSpace(string(txn.Payee.Name)); name != "" {
			return name
		}
	}
	if name := strings.TrimSpace(string(txn.Name)); name != "" {
		return name
	}
	return strings.TrimSpace(string(txn.Memo))
}

// transactionDocument scans the free-text fields for an embedded CNPJ or
// CPF. Brazilian banks routinely put the counterparty document in the memo
// of PIX and TED entries, and some place it in the check-number field.
func transactionDocument(txn *ofxgo.Transaction) string {
	var payee string
	if txn.Payee != nil {
		payee = string(txn.Payee.Name)
	}
	haystack := string(txn.Memo) + " " + string(txn.Name) + " " +
		payee + " " + string(txn.CheckNum)
	return normalize.ExtractDocument(haystack)
}
