// Package report assembles the result of a conciliation run into a single
// document and renders it for the CLI as text or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"conciliador/internal/conciliation"
	"conciliador/internal/models"
	"conciliador/internal/normalize"

	"github.com/google/uuid"
)

// OutputFormat selects how a document is rendered.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// IsValid checks if the output format is supported.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatText, FormatJSON:
		return true
	default:
		return false
	}
}

// Summary is the aggregate view of one run.
type Summary struct {
	TotalReceivables     int     `json:"total_receivables"`
	TotalPayments        int     `json:"total_payments"`
	Matched              int     `json:"matched"`
	UnmatchedReceivables int     `json:"unmatched_receivables"`
	UnmatchedPayments    int     `json:"unmatched_payments"`
	MatchRate            float64 `json:"match_rate"`
}

// MatchEntry describes one claimed pair with both sides' identifying fields
// and the confidence that linked them.
type MatchEntry struct {
	ReceivableID uuid.UUID `json:"receivable_id"`
	PaymentID    uuid.UUID `json:"payment_id"`
	FaceValue    string    `json:"face_value"`
	Amount       string    `json:"amount"`
	DebtorName   string    `json:"debtor_name,omitempty"`
	PayerName    string    `json:"payer_name,omitempty"`
	DueDate      *string   `json:"due_date,omitempty"`
	PaymentDate  *string   `json:"payment_date,omitempty"`
	Score        int       `json:"score"`
	Reasons      []string  `json:"reasons,omitempty"`
}

// Document is the complete report of one conciliation run.
type Document struct {
	RunID                uuid.UUID            `json:"run_id"`
	Scope                string               `json:"scope"`
	StartedAt            time.Time            `json:"started_at"`
	CompletedAt          *time.Time           `json:"completed_at,omitempty"`
	Summary              Summary              `json:"summary"`
	Matches              []MatchEntry         `json:"matches"`
	UnmatchedReceivables []*models.Receivable `json:"unmatched_receivables"`
	UnmatchedPayments    []*models.Payment    `json:"unmatched_payments"`
}

// Build assembles a document from an engine result.
func Build(result *conciliation.Result) *Document {
	run := result.Run

	doc := &Document{
		RunID:       run.ID,
		Scope:       run.Scope.String(),
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
		Summary: Summary{
			TotalReceivables:     run.TotalReceivables,
			TotalPayments:        run.TotalPayments,
			Matched:              run.MatchedCount,
			UnmatchedReceivables: len(result.UnmatchedReceivables),
			UnmatchedPayments:    len(result.UnmatchedPayments),
			MatchRate:            run.MatchRate(),
		},
		Matches:              make([]MatchEntry, 0, len(result.Matches)),
		UnmatchedReceivables: result.UnmatchedReceivables,
		UnmatchedPayments:    result.UnmatchedPayments,
	}

	for _, m := range result.Matches {
		doc.Matches = append(doc.Matches, MatchEntry{
			ReceivableID: m.Receivable.ID,
			PaymentID:    m.Payment.ID,
			FaceValue:    m.Receivable.FaceValue.StringFixed(2),
			Amount:       m.Payment.Amount.StringFixed(2),
			DebtorName:   m.Receivable.DebtorName,
			PayerName:    m.Payment.PayerName,
			DueDate:      formatDate(m.Receivable.DueDate),
			PaymentDate:  formatDate(m.Payment.Date),
			Score:        m.Score,
			Reasons:      m.Reasons,
		})
	}

	return doc
}

// Render writes the document to w in the requested format.
func Render(doc *Document, format OutputFormat, w io.Writer) error {
	switch format {
	case FormatText:
		return renderText(doc, w)
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(doc)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func renderText(doc *Document, w io.Writer) error {
	fmt.Fprintf(w, "CONCILIATION REPORT\n")
	fmt.Fprintf(w, "Run:   %s\n", doc.RunID)
	fmt.Fprintf(w, "Scope: %s\n", doc.Scope)
	if doc.CompletedAt != nil {
		fmt.Fprintf(w, "Completed: %s\n", doc.CompletedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "\n=== SUMMARY ===\n")
	fmt.Fprintf(w, "Receivables: %d\n", doc.Summary.TotalReceivables)
	fmt.Fprintf(w, "Payments:    %d\n", doc.Summary.TotalPayments)
	fmt.Fprintf(w, "Matched:     %d (%.1f%%)\n", doc.Summary.Matched, doc.Summary.MatchRate)
	fmt.Fprintf(w, "Unmatched:   %d receivables, %d payments\n",
		doc.Summary.UnmatchedReceivables, doc.Summary.UnmatchedPayments)

	if len(doc.Matches) > 0 {
		fmt.Fprintf(w, "\n=== MATCHES ===\n")
		for _, m := range doc.Matches {
			fmt.Fprintf(w, "  [%3d] %s -> %s", m.Score, m.ReceivableID, m.PaymentID)
			if len(m.Reasons) > 0 {
				fmt.Fprintf(w, " (%s)", strings.Join(m.Reasons, ", "))
			}
			fmt.Fprintf(w, "\n")
		}
	}

	if len(doc.UnmatchedReceivables) > 0 {
		fmt.Fprintf(w, "\n=== UNMATCHED RECEIVABLES ===\n")
		for _, r := range doc.UnmatchedReceivables {
			fmt.Fprintf(w, "  %s  R$ %s  %s\n",
				r.ID, normalize.FormatAmount(r.FaceValue), r.DebtorName)
		}
	}

	if len(doc.UnmatchedPayments) > 0 {
		fmt.Fprintf(w, "\n=== UNMATCHED PAYMENTS ===\n")
		for _, p := range doc.UnmatchedPayments {
			fmt.Fprintf(w, "  %s  R$ %s  %s\n",
				p.ID, normalize.FormatAmount(p.Amount), p.PayerName)
		}
	}

	return nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
