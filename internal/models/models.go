// Package models defines the normalized record types shared by the ingestion
// pipeline and the conciliation engine: receivables (money owed), payments
// (money received) and the audit record of a conciliation run.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Source tags a record with the file format it was extracted from.
type Source string

const (
	SourceCSV     Source = "csv"
	SourceXLSX    Source = "xlsx"
	SourceOFX     Source = "ofx"
	SourceCNAB240 Source = "cnab240"
	SourceCNAB400 Source = "cnab400"
)

// ReceivableStatus is the lifecycle status of a receivable.
type ReceivableStatus string

const (
	ReceivablePending     ReceivableStatus = "pending"
	ReceivableConciliated ReceivableStatus = "conciliated"
)

// MatchStatus is the match status of a payment.
type MatchStatus string

const (
	MatchUnmatched MatchStatus = "unmatched"
	MatchAuto      MatchStatus = "auto"
	MatchManual    MatchStatus = "manual"
)

// ScopeKind discriminates the two tenant boundaries a record can belong to.
type ScopeKind string

const (
	ScopeSession      ScopeKind = "session"
	ScopeOrganization ScopeKind = "organization"
)

// Scope is the tagged owning-scope reference: an anonymous session or an
// organization, never both. The zero Scope means "not yet assigned".
type Scope struct {
	Kind ScopeKind `json:"kind,omitempty"`
	ID   uuid.UUID `json:"id,omitempty"`
}

// SessionScope returns a scope owned by an anonymous session.
func SessionScope(id uuid.UUID) Scope {
	return Scope{Kind: ScopeSession, ID: id}
}

// OrganizationScope returns a scope owned by an organization.
func OrganizationScope(id uuid.UUID) Scope {
	return Scope{Kind: ScopeOrganization, ID: id}
}

// IsZero reports whether the scope has not been assigned yet.
func (s Scope) IsZero() bool {
	return s.Kind == "" && s.ID == uuid.Nil
}

// Validate checks that an assigned scope names exactly one tenant boundary.
func (s Scope) Validate() error {
	if s.IsZero() {
		return nil
	}
	if s.Kind != ScopeSession && s.Kind != ScopeOrganization {
		return fmt.Errorf("invalid scope kind: %q", s.Kind)
	}
	if s.ID == uuid.Nil {
		return fmt.Errorf("scope %s requires a non-nil id", s.Kind)
	}
	return nil
}

// String returns a compact representation for logging.
func (s Scope) String() string {
	if s.IsZero() {
		return "unassigned"
	}
	return fmt.Sprintf("%s:%s", s.Kind, s.ID)
}

// Receivable represents an amount owed by a debtor, optionally due on a date.
//
// FaceValue is always a positive magnitude: sign information is resolved
// during parsing and zero or negative amounts are dropped before a record is
// ever constructed.
type Receivable struct {
	ID             uuid.UUID        `json:"id"`
	Scope          Scope            `json:"scope,omitempty"`
	DebtorDocument string           `json:"debtor_document,omitempty"`
	DebtorName     string           `json:"debtor_name,omitempty"`
	FaceValue      decimal.Decimal  `json:"face_value"`
	DueDate        *time.Time       `json:"due_date,omitempty"`
	Status         ReceivableStatus `json:"status"`
	Source         Source           `json:"source"`
	CreatedAt      time.Time        `json:"created_at"`
}

// NewReceivable creates a pending receivable with an engine-assigned id.
func NewReceivable(faceValue decimal.Decimal, source Source) *Receivable {
	return &Receivable{
		ID:        uuid.New(),
		FaceValue: faceValue,
		Status:    ReceivablePending,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate performs basic validation on the Receivable.
func (r *Receivable) Validate() error {
	if !r.FaceValue.IsPositive() {
		return fmt.Errorf("receivable face value must be positive, got %s", r.FaceValue)
	}
	if r.Status != ReceivablePending && r.Status != ReceivableConciliated {
		return fmt.Errorf("invalid receivable status: %q", r.Status)
	}
	return r.Scope.Validate()
}

// String returns a string representation of the Receivable.
func (r *Receivable) String() string {
	due := "none"
	if r.DueDate != nil {
		due = r.DueDate.Format("2006-01-02")
	}
	return fmt.Sprintf("Receivable{ID: %s, Value: %s, Due: %s, Status: %s}",
		r.ID, r.FaceValue, due, r.Status)
}

// MarshalJSON renders the face value as a string and the due date as a
// calendar date.
func (r *Receivable) MarshalJSON() ([]byte, error) {
	type Alias Receivable
	return json.Marshal(&struct {
		FaceValue string  `json:"face_value"`
		DueDate   *string `json:"due_date,omitempty"`
		*Alias
	}{
		FaceValue: r.FaceValue.StringFixed(2),
		DueDate:   formatDatePtr(r.DueDate),
		Alias:     (*Alias)(r),
	})
}

// Payment represents an amount received from a payer.
type Payment struct {
	ID                  uuid.UUID       `json:"id"`
	Scope               Scope           `json:"scope,omitempty"`
	PayerDocument       string          `json:"payer_document,omitempty"`
	PayerName           string          `json:"payer_name,omitempty"`
	Amount              decimal.Decimal `json:"amount"`
	Date                *time.Time      `json:"date,omitempty"`
	BankReference       string          `json:"bank_reference,omitempty"`
	MatchStatus         MatchStatus     `json:"match_status"`
	MatchedReceivableID *uuid.UUID      `json:"matched_receivable_id,omitempty"`
	Source              Source          `json:"source"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// NewPayment creates an unmatched payment with an engine-assigned id.
func NewPayment(amount decimal.Decimal, source Source) *Payment {
	now := time.Now().UTC()
	return &Payment{
		ID:          uuid.New(),
		Amount:      amount,
		MatchStatus: MatchUnmatched,
		Source:      source,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate performs basic validation on the Payment, including the
// invariant that a matched payment always links to a receivable and an
// unmatched payment never does.
func (p *Payment) Validate() error {
	if !p.Amount.IsPositive() {
		return fmt.Errorf("payment amount must be positive, got %s", p.Amount)
	}

	switch p.MatchStatus {
	case MatchUnmatched:
		if p.MatchedReceivableID != nil {
			return fmt.Errorf("unmatched payment must not link to a receivable")
		}
	case MatchAuto, MatchManual:
		if p.MatchedReceivableID == nil {
			return fmt.Errorf("payment with status %q must link to a receivable", p.MatchStatus)
		}
	default:
		return fmt.Errorf("invalid match status: %q", p.MatchStatus)
	}

	return p.Scope.Validate()
}

// MatchTo links the payment to a receivable with the given status.
func (p *Payment) MatchTo(receivableID uuid.UUID, status MatchStatus) {
	id := receivableID
	p.MatchedReceivableID = &id
	p.MatchStatus = status
	p.UpdatedAt = time.Now().UTC()
}

// String returns a string representation of the Payment.
func (p *Payment) String() string {
	date := "none"
	if p.Date != nil {
		date = p.Date.Format("2006-01-02")
	}
	return fmt.Sprintf("Payment{ID: %s, Amount: %s, Date: %s, Status: %s}",
		p.ID, p.Amount, date, p.MatchStatus)
}

// MarshalJSON renders the amount as a string and the date as a calendar date.
func (p *Payment) MarshalJSON() ([]byte, error) {
	type Alias Payment
	return json.Marshal(&struct {
		Amount string  `json:"amount"`
		Date   *string `json:"date,omitempty"`
		*Alias
	}{
		Amount: p.Amount.StringFixed(2),
		Date:   formatDatePtr(p.Date),
		Alias:  (*Alias)(p),
	})
}

// RunStatus is the lifecycle status of a conciliation run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
)

// ConciliationRun is the immutable audit record of one execution of the
// matching algorithm. It is created when the run starts and finalized by
// Complete; the core never deletes runs.
type ConciliationRun struct {
	ID               uuid.UUID  `json:"id"`
	Scope            Scope      `json:"scope"`
	TotalReceivables int        `json:"total_receivables"`
	TotalPayments    int        `json:"total_payments"`
	MatchedCount     int        `json:"matched_count"`
	UnmatchedCount   int        `json:"unmatched_count"`
	PartialCount     int        `json:"partial_count"`
	Status           RunStatus  `json:"status"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// NewConciliationRun creates a running conciliation run for the given scope.
func NewConciliationRun(scope Scope, totalReceivables, totalPayments int) *ConciliationRun {
	return &ConciliationRun{
		ID:               uuid.New(),
		Scope:            scope,
		TotalReceivables: totalReceivables,
		TotalPayments:    totalPayments,
		Status:           RunRunning,
		StartedAt:        time.Now().UTC(),
	}
}

// Complete finalizes the run with match counts and a completion timestamp.
func (cr *ConciliationRun) Complete(matched int) {
	cr.MatchedCount = matched
	cr.UnmatchedCount = cr.TotalReceivables - matched
	cr.Status = RunCompleted
	now := time.Now().UTC()
	cr.CompletedAt = &now
}

// MatchRate returns the percentage of receivables matched, rounded to one
// decimal place. An empty receivable set yields 0 rather than a division
// error.
func (cr *ConciliationRun) MatchRate() float64 {
	total := cr.TotalReceivables
	if total < 1 {
		total = 1
	}
	rate := float64(cr.MatchedCount) / float64(total) * 100
	return float64(int(rate*10+0.5)) / 10
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

// CleanName trims and uppercases a display name for comparison purposes.
func CleanName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
