package conciliation

import (
	"sort"

	"conciliador/internal/models"
	"conciliador/internal/store"
	"conciliador/pkg/errors"
	"conciliador/pkg/logger"

	"github.com/google/uuid"
)

// Result is the outcome of one conciliation run: the audit record, the
// claimed pairs in claim order and the records left on each side.
type Result struct {
	Run                  *models.ConciliationRun
	Matches              []*MatchScore
	UnmatchedReceivables []*models.Receivable
	UnmatchedPayments    []*models.Payment
}

// Engine runs the greedy conciliation algorithm over a scope's records.
//
// The algorithm is a greedy maximum-weight bipartite matching
// approximation, not an optimal assignment: pairs are claimed from the
// highest confidence down and a claimed record is never revisited. Ties on
// equal scores fall to input order, so the individual pairings of
// equal-score ambiguous candidates may vary between runs over differently
// ordered inputs; the match count and total confidence do not.
type Engine struct {
	store  store.Store
	scorer *Scorer
	log    logger.Logger
}

// NewEngine creates an engine over the given store; a nil config selects
// the default scoring calibration.
func NewEngine(st store.Store, cfg *ScoreConfig) *Engine {
	return &Engine{
		store:  st,
		scorer: NewScorer(cfg),
		log:    logger.GetGlobalLogger().WithComponent("conciliation_engine"),
	}
}

// Run conciliates the scope's pending receivables against its unmatched
// payments and persists a completed run record.
func (e *Engine) Run(scope models.Scope) (*Result, error) {
	if scope.IsZero() {
		return nil, errors.ConciliationError(errors.CodeInvalidScope, "run", nil).
			WithSuggestion("assign a session or organization scope before running")
	}
	if err := scope.Validate(); err != nil {
		return nil, errors.ConciliationError(errors.CodeInvalidScope, "run", err)
	}

	receivables := e.store.PendingReceivables(scope)
	payments := e.store.UnmatchedPayments(scope)

	run := models.NewConciliationRun(scope, len(receivables), len(payments))
	e.store.SaveRun(run)

	e.log.WithFields(logger.Fields{
		"run_id":      run.ID,
		"scope":       scope.String(),
		"receivables": len(receivables),
		"payments":    len(payments),
	}).Info("Starting conciliation run")

	candidates := e.scorePairs(receivables, payments)

	// Stable sort on score alone: equal-score pairs keep cross-product
	// order, which follows input order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	matches := e.claim(candidates)

	matchedReceivables := make(map[uuid.UUID]bool, len(matches))
	matchedPayments := make(map[uuid.UUID]bool, len(matches))
	for _, m := range matches {
		matchedReceivables[m.Receivable.ID] = true
		matchedPayments[m.Payment.ID] = true
	}

	result := &Result{
		Run:     run,
		Matches: matches,
	}
	for _, r := range receivables {
		if !matchedReceivables[r.ID] {
			result.UnmatchedReceivables = append(result.UnmatchedReceivables, r)
		}
	}
	for _, p := range payments {
		if !matchedPayments[p.ID] {
			result.UnmatchedPayments = append(result.UnmatchedPayments, p)
		}
	}

	run.Complete(len(matches))
	e.store.SaveRun(run)

	e.log.WithFields(logger.Fields{
		"run_id":     run.ID,
		"matched":    run.MatchedCount,
		"unmatched":  run.UnmatchedCount,
		"match_rate": run.MatchRate(),
	}).Info("Completed conciliation run")

	return result, nil
}

// scorePairs scores the full cross product, keeping only pairs with a
// positive confidence.
func (e *Engine) scorePairs(receivables []*models.Receivable, payments []*models.Payment) []*MatchScore {
	var candidates []*MatchScore
	for _, r := range receivables {
		for _, p := range payments {
			if score := e.scorer.Score(r, p); score.Score > 0 {
				candidates = append(candidates, score)
			}
		}
	}
	return candidates
}

// claim walks the sorted candidates and greedily claims each pair whose
// sides are both still free, mutating the claimed records in place.
func (e *Engine) claim(candidates []*MatchScore) []*MatchScore {
	claimedReceivables := make(map[uuid.UUID]bool)
	claimedPayments := make(map[uuid.UUID]bool)

	var matches []*MatchScore
	for _, c := range candidates {
		if claimedReceivables[c.Receivable.ID] || claimedPayments[c.Payment.ID] {
			continue
		}
		claimedReceivables[c.Receivable.ID] = true
		claimedPayments[c.Payment.ID] = true

		c.Receivable.Status = models.ReceivableConciliated
		c.Payment.MatchTo(c.Receivable.ID, models.MatchAuto)

		e.log.WithFields(logger.Fields{
			"receivable_id": c.Receivable.ID,
			"payment_id":    c.Payment.ID,
			"score":         c.Score,
			"reasons":       c.Reasons,
		}).Debug("Claimed pair")

		matches = append(matches, c)
	}
	return matches
}
