// Package conciliation implements the confidence scorer and the greedy
// matching engine that links payments to the receivables they settle.
//
// The scorer is a pure function producing an integer confidence between 0
// and 100 from four signals: value proximity, identifier equality, display
// name overlap and date proximity. The engine scores the full cross product
// of a scope's pending receivables and unmatched payments, then claims
// pairs greedily from the highest confidence down so that no record is ever
// matched twice.
package conciliation

import (
	"fmt"
	"strings"

	"conciliador/internal/models"

	"github.com/shopspring/decimal"
)

// ScoreConfig holds the tier thresholds and point weights of the confidence
// scorer. The defaults encode the production calibration; they are
// configurable so individual tiers can be tested in isolation.
type ScoreConfig struct {
	// Value tiers: relative difference thresholds and the points awarded
	// inside each. A relative difference beyond FuzzyValueTolerance vetoes
	// the whole pair.
	ExactValueTolerance decimal.Decimal `json:"exact_value_tolerance"`
	CloseValueTolerance decimal.Decimal `json:"close_value_tolerance"`
	FuzzyValueTolerance decimal.Decimal `json:"fuzzy_value_tolerance"`
	ExactValuePoints    int             `json:"exact_value_points"`
	CloseValuePoints    int             `json:"close_value_points"`
	FuzzyValuePoints    int             `json:"fuzzy_value_points"`

	// Identifier equality points. An identifier match suppresses the name
	// overlap bonus.
	IdentifierPoints int `json:"identifier_points"`

	// Name overlap bonus points.
	StrongNamePoints int `json:"strong_name_points"`
	WeakNamePoints   int `json:"weak_name_points"`

	// Date proximity tiers, in days.
	DatePoints map[int]int `json:"date_points"`

	// MaxScore caps the final sum.
	MaxScore int `json:"max_score"`
}

// DefaultScoreConfig returns the production scoring calibration.
func DefaultScoreConfig() *ScoreConfig {
	return &ScoreConfig{
		ExactValueTolerance: decimal.NewFromFloat(0.001),
		CloseValueTolerance: decimal.NewFromFloat(0.02),
		FuzzyValueTolerance: decimal.NewFromFloat(0.05),
		ExactValuePoints:    40,
		CloseValuePoints:    30,
		FuzzyValuePoints:    15,
		IdentifierPoints:    35,
		StrongNamePoints:    10,
		WeakNamePoints:      5,
		DatePoints: map[int]int{
			0:  25,
			3:  18,
			7:  12,
			15: 6,
			30: 3,
		},
		MaxScore: 100,
	}
}

// Validate checks that the configuration tiers are ordered and positive.
func (sc *ScoreConfig) Validate() error {
	if sc.ExactValueTolerance.GreaterThan(sc.CloseValueTolerance) ||
		sc.CloseValueTolerance.GreaterThan(sc.FuzzyValueTolerance) {
		return fmt.Errorf("value tolerances must be ordered exact <= close <= fuzzy")
	}
	if sc.MaxScore <= 0 {
		return fmt.Errorf("max score must be positive: %d", sc.MaxScore)
	}
	return nil
}

// nameStopwords are tokens that carry no identity: legal-entity suffixes
// and short connectives common in Brazilian company names.
var nameStopwords = map[string]bool{
	"LTDA":   true,
	"ME":     true,
	"SA":     true,
	"EIRELI": true,
	"EPP":    true,
	"S/A":    true,
	"S.A.":   true,
	"DE":     true,
	"DO":     true,
	"DA":     true,
	"E":      true,
	"-":      true,
}

// payerStopwords additionally drops payment-method tags that banks prepend
// to statement counter-party names.
var payerStopwords = map[string]bool{
	"PIX": true,
	"TED": true,
	"DOC": true,
}

// MatchScore is one scored (receivable, payment) pair.
type MatchScore struct {
	Receivable *models.Receivable
	Payment    *models.Payment
	Score      int
	Reasons    []string
}

// Scorer computes confidence scores between receivables and payments.
type Scorer struct {
	cfg *ScoreConfig
}

// NewScorer creates a scorer; a nil config selects the defaults.
func NewScorer(cfg *ScoreConfig) *Scorer {
	if cfg == nil {
		cfg = DefaultScoreConfig()
	}
	return &Scorer{cfg: cfg}
}

// Score computes the confidence that payment settles receivable, 0 to 100.
//
// A relative value difference beyond the fuzzy tolerance is a hard veto:
// the pair scores 0 no matter how well the other signals agree.
func (s *Scorer) Score(receivable *models.Receivable, payment *models.Payment) *MatchScore {
	result := &MatchScore{
		Receivable: receivable,
		Payment:    payment,
	}

	if receivable.FaceValue.IsZero() {
		return result
	}

	valuePoints, valueReason := s.scoreValue(receivable.FaceValue, payment.Amount)
	if valuePoints == 0 {
		return result
	}
	result.Score += valuePoints
	result.Reasons = append(result.Reasons, valueReason)

	identifierMatched := receivable.DebtorDocument != "" &&
		payment.PayerDocument != "" &&
		receivable.DebtorDocument == payment.PayerDocument
	if identifierMatched {
		result.Score += s.cfg.IdentifierPoints
		result.Reasons = append(result.Reasons, "identifier match")
	} else if points, reason := s.scoreNames(receivable.DebtorName, payment.PayerName); points > 0 {
		result.Score += points
		result.Reasons = append(result.Reasons, reason)
	}

	if receivable.DueDate != nil && payment.Date != nil {
		if points, reason := s.scoreDates(receivable, payment); points > 0 {
			result.Score += points
			result.Reasons = append(result.Reasons, reason)
		}
	}

	if result.Score > s.cfg.MaxScore {
		result.Score = s.cfg.MaxScore
	}
	return result
}

// scoreValue awards points by relative value difference, or 0 for the hard
// veto tier.
func (s *Scorer) scoreValue(faceValue, amount decimal.Decimal) (int, string) {
	relDiff := faceValue.Sub(amount).Abs().Div(faceValue)

	switch {
	case relDiff.LessThanOrEqual(s.cfg.ExactValueTolerance):
		return s.cfg.ExactValuePoints, "exact value match"
	case relDiff.LessThanOrEqual(s.cfg.CloseValueTolerance):
		return s.cfg.CloseValuePoints, "close value match"
	case relDiff.LessThanOrEqual(s.cfg.FuzzyValueTolerance):
		return s.cfg.FuzzyValuePoints, "fuzzy value match"
	}
	return 0, ""
}

// scoreNames awards the overlap bonus from the symmetric intersection of
// the two tokenized display names.
func (s *Scorer) scoreNames(debtorName, payerName string) (int, string) {
	debtorTokens := nameTokens(debtorName, nil)
	payerTokens := nameTokens(payerName, payerStopwords)
	if len(debtorTokens) == 0 || len(payerTokens) == 0 {
		return 0, ""
	}

	// Set semantics on both sides: a token repeated in one name still
	// contributes one element to the intersection.
	debtorSet := make(map[string]bool, len(debtorTokens))
	for _, t := range debtorTokens {
		debtorSet[t] = true
	}
	payerSet := make(map[string]bool, len(payerTokens))
	for _, t := range payerTokens {
		payerSet[t] = true
	}

	common := 0
	for t := range debtorSet {
		if payerSet[t] {
			common++
		}
	}

	switch {
	case common >= 2:
		return s.cfg.StrongNamePoints, "name overlap"
	case common == 1 && len(debtorSet) <= 3:
		return s.cfg.WeakNamePoints, "partial name overlap"
	}
	return 0, ""
}

// scoreDates awards points by the absolute day distance between due date
// and payment date, walking the tiers from tightest to loosest.
func (s *Scorer) scoreDates(receivable *models.Receivable, payment *models.Payment) (int, string) {
	days := int(payment.Date.Sub(*receivable.DueDate).Hours() / 24)
	if days < 0 {
		days = -days
	}

	if days == 0 {
		return s.cfg.DatePoints[0], "same date"
	}
	for _, tier := range []int{3, 7, 15, 30} {
		if days <= tier {
			return s.cfg.DatePoints[tier], fmt.Sprintf("date within %d days", tier)
		}
	}
	return 0, ""
}

// nameTokens uppercases and tokenizes a display name, dropping stop words
// and any extra stop set the caller supplies.
func nameTokens(name string, extra map[string]bool) []string {
	var tokens []string
	for _, t := range strings.Fields(models.CleanName(name)) {
		if nameStopwords[t] || (extra != nil && extra[t]) {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}
