package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"conciliador/internal/conciliation"
	"conciliador/internal/models"
	"conciliador/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func runResult(t *testing.T) *conciliation.Result {
	t.Helper()

	scope := models.SessionScope(uuid.New())
	due := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	matched := models.NewReceivable(decimal.NewFromInt(1000), models.SourceCSV)
	matched.Scope = scope
	matched.DebtorDocument = "12345678000190"
	matched.DebtorName = "ACME COMERCIO LTDA"
	matched.DueDate = &due

	leftover := models.NewReceivable(decimal.NewFromInt(250), models.SourceCSV)
	leftover.Scope = scope
	leftover.DebtorName = "EMPRESA BETA"

	pay := models.NewPayment(decimal.NewFromInt(1000), models.SourceOFX)
	pay.Scope = scope
	pay.PayerDocument = "12345678000190"
	pay.Date = &due

	st := store.NewMemoryStore()
	st.AddReceivables([]*models.Receivable{matched, leftover})
	st.AddPayments([]*models.Payment{pay})

	result, err := conciliation.NewEngine(st, nil).Run(scope)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return result
}

func TestBuild(t *testing.T) {
	result := runResult(t)
	doc := Build(result)

	if doc.RunID != result.Run.ID {
		t.Errorf("RunID = %s, want %s", doc.RunID, result.Run.ID)
	}
	if doc.Summary.TotalReceivables != 2 || doc.Summary.TotalPayments != 1 {
		t.Errorf("totals = (%d, %d), want (2, 1)",
			doc.Summary.TotalReceivables, doc.Summary.TotalPayments)
	}
	if doc.Summary.Matched != 1 {
		t.Errorf("Matched = %d, want 1", doc.Summary.Matched)
	}
	if doc.Summary.MatchRate != 50.0 {
		t.Errorf("MatchRate = %v, want 50", doc.Summary.MatchRate)
	}
	if len(doc.Matches) != 1 {
		t.Fatalf("expected 1 match entry, got %d", len(doc.Matches))
	}
	entry := doc.Matches[0]
	if entry.Score != 100 {
		t.Errorf("Score = %d, want 100", entry.Score)
	}
	if entry.FaceValue != "1000.00" || entry.Amount != "1000.00" {
		t.Errorf("amounts = (%s, %s), want 1000.00 on both sides", entry.FaceValue, entry.Amount)
	}
	if entry.DueDate == nil || *entry.DueDate != "2024-03-10" {
		t.Errorf("DueDate = %v, want 2024-03-10", entry.DueDate)
	}
	if len(doc.UnmatchedReceivables) != 1 {
		t.Errorf("expected 1 unmatched receivable, got %d", len(doc.UnmatchedReceivables))
	}
}

func TestRenderText(t *testing.T) {
	doc := Build(runResult(t))

	var buf bytes.Buffer
	if err := Render(doc, FormatText, &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"CONCILIATION REPORT",
		"=== SUMMARY ===",
		"Matched:     1 (50.0%)",
		"=== MATCHES ===",
		"=== UNMATCHED RECEIVABLES ===",
		"R$ 250,00",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q:\n%s", want, out)
		}
	}
}

func TestRenderJSON(t *testing.T) {
	doc := Build(runResult(t))

	var buf bytes.Buffer
	if err := Render(doc, FormatJSON, &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	summary, ok := decoded["summary"].(map[string]interface{})
	if !ok {
		t.Fatal("summary section missing")
	}
	if summary["matched"].(float64) != 1 {
		t.Errorf("summary.matched = %v, want 1", summary["matched"])
	}
}

func TestRenderUnsupportedFormat(t *testing.T) {
	if err := Render(&Document{}, OutputFormat("xml"), &bytes.Buffer{}); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestOutputFormatIsValid(t *testing.T) {
	if !FormatText.IsValid() || !FormatJSON.IsValid() {
		t.Error("built-in formats should be valid")
	}
	if OutputFormat("csv").IsValid() {
		t.Error("csv is not a supported report format")
	}
}
