package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestScope(t *testing.T) {
	id := uuid.New()

	t.Run("session scope", func(t *testing.T) {
		s := SessionScope(id)
		if s.Kind != ScopeSession || s.ID != id {
			t.Errorf("unexpected scope: %v", s)
		}
		if err := s.Validate(); err != nil {
			t.Errorf("expected valid scope, got %v", err)
		}
	})

	t.Run("organization scope", func(t *testing.T) {
		s := OrganizationScope(id)
		if s.Kind != ScopeOrganization || s.ID != id {
			t.Errorf("unexpected scope: %v", s)
		}
	})

	t.Run("zero scope is unassigned and valid", func(t *testing.T) {
		var s Scope
		if !s.IsZero() {
			t.Error("expected zero scope to be unassigned")
		}
		if err := s.Validate(); err != nil {
			t.Errorf("expected zero scope to validate, got %v", err)
		}
		if s.String() != "unassigned" {
			t.Errorf("expected 'unassigned', got %q", s.String())
		}
	})

	t.Run("kind without id is invalid", func(t *testing.T) {
		s := Scope{Kind: ScopeSession}
		if err := s.Validate(); err == nil {
			t.Error("expected error for scope without id")
		}
	})

	t.Run("unknown kind is invalid", func(t *testing.T) {
		s := Scope{Kind: "tenant", ID: id}
		if err := s.Validate(); err == nil {
			t.Error("expected error for unknown scope kind")
		}
	})
}

func TestNewReceivable(t *testing.T) {
	r := NewReceivable(decimal.NewFromInt(1000), SourceCSV)

	if r.ID == uuid.Nil {
		t.Error("expected engine-assigned id")
	}
	if r.Status != ReceivablePending {
		t.Errorf("expected pending status, got %s", r.Status)
	}
	if r.Source != SourceCSV {
		t.Errorf("expected csv source, got %s", r.Source)
	}
	if err := r.Validate(); err != nil {
		t.Errorf("expected valid receivable, got %v", err)
	}
}

func TestReceivable_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Receivable)
		wantErr bool
	}{
		{"valid", func(r *Receivable) {}, false},
		{"zero face value", func(r *Receivable) { r.FaceValue = decimal.Zero }, true},
		{"negative face value", func(r *Receivable) { r.FaceValue = decimal.NewFromInt(-5) }, true},
		{"bad status", func(r *Receivable) { r.Status = "paid" }, true},
		{"conciliated ok", func(r *Receivable) { r.Status = ReceivableConciliated }, false},
		{"bad scope", func(r *Receivable) { r.Scope = Scope{Kind: ScopeSession} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReceivable(decimal.NewFromInt(100), SourceXLSX)
			tt.mutate(r)
			if err := r.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPayment_MatchInvariant(t *testing.T) {
	p := NewPayment(decimal.NewFromInt(500), SourceOFX)

	if err := p.Validate(); err != nil {
		t.Fatalf("fresh payment should validate: %v", err)
	}

	// Unmatched payment with a link violates the invariant.
	stray := uuid.New()
	p.MatchedReceivableID = &stray
	if err := p.Validate(); err == nil {
		t.Error("expected error for unmatched payment with link")
	}
	p.MatchedReceivableID = nil

	// Auto status without a link violates the invariant.
	p.MatchStatus = MatchAuto
	if err := p.Validate(); err == nil {
		t.Error("expected error for auto payment without link")
	}

	// MatchTo restores a consistent state.
	recvID := uuid.New()
	p.MatchTo(recvID, MatchAuto)
	if err := p.Validate(); err != nil {
		t.Errorf("matched payment should validate: %v", err)
	}
	if *p.MatchedReceivableID != recvID {
		t.Error("expected link to the matched receivable")
	}
}

func TestPayment_Validate(t *testing.T) {
	p := NewPayment(decimal.Zero, SourceCNAB240)
	if err := p.Validate(); err == nil {
		t.Error("expected error for zero amount")
	}

	p = NewPayment(decimal.NewFromInt(10), SourceCNAB240)
	p.MatchStatus = "pending"
	if err := p.Validate(); err == nil {
		t.Error("expected error for unknown match status")
	}
}

func TestConciliationRun(t *testing.T) {
	scope := SessionScope(uuid.New())
	run := NewConciliationRun(scope, 10, 8)

	if run.Status != RunRunning {
		t.Errorf("expected running status, got %s", run.Status)
	}
	if run.CompletedAt != nil {
		t.Error("expected nil completion timestamp before Complete")
	}

	run.Complete(7)

	if run.Status != RunCompleted {
		t.Errorf("expected completed status, got %s", run.Status)
	}
	if run.CompletedAt == nil {
		t.Error("expected completion timestamp after Complete")
	}
	if run.MatchedCount != 7 || run.UnmatchedCount != 3 {
		t.Errorf("unexpected counts: matched %d, unmatched %d", run.MatchedCount, run.UnmatchedCount)
	}
	if rate := run.MatchRate(); rate != 70.0 {
		t.Errorf("expected match rate 70.0, got %v", rate)
	}
}

func TestConciliationRun_MatchRate(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		matched  int
		expected float64
	}{
		{"all matched", 4, 4, 100.0},
		{"none matched", 4, 0, 0.0},
		{"one third", 3, 1, 33.3},
		{"two thirds", 3, 2, 66.7},
		{"empty set", 0, 0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := NewConciliationRun(Scope{}, tt.total, 0)
			run.Complete(tt.matched)
			if rate := run.MatchRate(); rate != tt.expected {
				t.Errorf("MatchRate() = %v, want %v", rate, tt.expected)
			}
		})
	}
}

func TestReceivable_MarshalJSON(t *testing.T) {
	due := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	r := NewReceivable(decimal.RequireFromString("1234.5"), SourceCSV)
	r.DueDate = &due

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	s := string(data)
	if !strings.Contains(s, `"face_value":"1234.50"`) {
		t.Errorf("expected fixed-point face value, got %s", s)
	}
	if !strings.Contains(s, `"due_date":"2024-03-10"`) {
		t.Errorf("expected calendar due date, got %s", s)
	}
}

func TestPayment_MarshalJSON_NoDate(t *testing.T) {
	p := NewPayment(decimal.NewFromInt(99), SourceOFX)

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	s := string(data)
	if !strings.Contains(s, `"amount":"99.00"`) {
		t.Errorf("expected fixed-point amount, got %s", s)
	}
	if strings.Contains(s, `"date"`) {
		t.Errorf("expected absent date to be omitted, got %s", s)
	}
}
