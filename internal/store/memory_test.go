package store

import (
	"testing"

	"conciliador/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestMemoryStoreScopeFiltering(t *testing.T) {
	session := models.SessionScope(uuid.New())
	org := models.OrganizationScope(uuid.New())

	r1 := models.NewReceivable(decimal.NewFromInt(100), models.SourceCSV)
	r1.Scope = session
	r2 := models.NewReceivable(decimal.NewFromInt(200), models.SourceCSV)
	r2.Scope = org
	r3 := models.NewReceivable(decimal.NewFromInt(300), models.SourceCSV)
	r3.Scope = session
	r3.Status = models.ReceivableConciliated

	p1 := models.NewPayment(decimal.NewFromInt(100), models.SourceOFX)
	p1.Scope = session
	p2 := models.NewPayment(decimal.NewFromInt(200), models.SourceOFX)
	p2.Scope = session
	p2.MatchTo(r1.ID, models.MatchAuto)

	st := NewMemoryStore()
	st.AddReceivables([]*models.Receivable{r1, r2, r3})
	st.AddPayments([]*models.Payment{p1, p2})

	pending := st.PendingReceivables(session)
	if len(pending) != 1 || pending[0].ID != r1.ID {
		t.Errorf("PendingReceivables(session) = %v, want just r1", pending)
	}
	if got := st.PendingReceivables(org); len(got) != 1 || got[0].ID != r2.ID {
		t.Errorf("PendingReceivables(org) = %v, want just r2", got)
	}

	unmatched := st.UnmatchedPayments(session)
	if len(unmatched) != 1 || unmatched[0].ID != p1.ID {
		t.Errorf("UnmatchedPayments(session) = %v, want just p1", unmatched)
	}

	if got := st.ReceivablesByScope(session); len(got) != 2 {
		t.Errorf("ReceivablesByScope(session) returned %d records, want 2", len(got))
	}
	if got := st.PaymentsByScope(session); len(got) != 2 {
		t.Errorf("PaymentsByScope(session) returned %d records, want 2", len(got))
	}
}

func TestMemoryStoreInsertionOrder(t *testing.T) {
	scope := models.SessionScope(uuid.New())

	var want []uuid.UUID
	st := NewMemoryStore()
	for i := 0; i < 5; i++ {
		r := models.NewReceivable(decimal.NewFromInt(int64(i+1)), models.SourceCSV)
		r.Scope = scope
		st.AddReceivables([]*models.Receivable{r})
		want = append(want, r.ID)
	}

	got := st.PendingReceivables(scope)
	if len(got) != len(want) {
		t.Fatalf("got %d receivables, want %d", len(got), len(want))
	}
	for i, r := range got {
		if r.ID != want[i] {
			t.Fatalf("receivable %d out of insertion order", i)
		}
	}
}

func TestMemoryStoreRuns(t *testing.T) {
	scope := models.SessionScope(uuid.New())
	st := NewMemoryStore()

	run := models.NewConciliationRun(scope, 3, 2)
	st.SaveRun(run)

	got, ok := st.GetRun(run.ID)
	if !ok {
		t.Fatal("saved run not found")
	}
	if got.Status != models.RunRunning {
		t.Errorf("Status = %q, want running", got.Status)
	}

	run.Complete(2)
	st.SaveRun(run)

	got, _ = st.GetRun(run.ID)
	if got.Status != models.RunCompleted || got.MatchedCount != 2 {
		t.Errorf("completed run = %+v", got)
	}

	if _, ok := st.GetRun(uuid.New()); ok {
		t.Error("unknown run id should not be found")
	}
}
