// Package normalize converts locale-ambiguous text into exact decimal
// amounts, calendar dates and digits-only tax identifiers.
//
// All functions are pure. Parse functions report failure through a boolean
// rather than an error: an unparseable cell is routine during ingestion and
// its significance is decided by the caller.
package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayouts is the ordered list of accepted date formats. Day-first
// layouts come before month-first because the primary locale writes
// DD/MM/YYYY; for days <= 12 the two are ambiguous and the first match wins.
var DateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
	"02.01.2006",
	"01/02/2006",
}

var (
	// Anchored patterns classify whole cell values as CNPJ/CPF.
	cnpjPattern = regexp.MustCompile(`^\d{2}\.?\d{3}\.?\d{3}/?\d{4}-?\d{2}$`)
	cpfPattern  = regexp.MustCompile(`^\d{3}\.?\d{3}\.?\d{3}-?\d{2}$`)

	// Unanchored variants search for identifiers inside free text,
	// e.g. bank statement memos. CNPJ is tried before CPF because every
	// CNPJ contains a CPF-shaped substring.
	cnpjSearch = regexp.MustCompile(`\d{2}\.?\d{3}\.?\d{3}/?\d{4}-?\d{2}`)
	cpfSearch  = regexp.MustCompile(`\d{3}\.?\d{3}\.?\d{3}-?\d{2}`)

	documentPunctuation = regexp.MustCompile(`[.\-/]`)
)

// ParseAmount parses a monetary value written in either decimal-comma
// ("1.234,56") or decimal-dot ("1234.56") notation. A currency prefix and
// whitespace are stripped. When both separators are present the dot is
// treated as a thousands separator.
func ParseAmount(text string) (decimal.Decimal, bool) {
	v := strings.TrimSpace(text)
	if v == "" {
		return decimal.Zero, false
	}

	v = strings.ReplaceAll(v, "R$", "")
	v = strings.ReplaceAll(v, " ", "")

	hasComma := strings.Contains(v, ",")
	hasDot := strings.Contains(v, ".")

	switch {
	case hasComma && hasDot:
		v = strings.ReplaceAll(v, ".", "")
		v = strings.ReplaceAll(v, ",", ".")
	case hasComma:
		v = strings.ReplaceAll(v, ",", ".")
	}

	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// FormatAmount renders a decimal using the Brazilian convention: thousands
// separated by dots, two decimal digits after a comma.
func FormatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)

	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	intPart := s[:len(s)-3]
	fracPart := s[len(s)-2:]

	var b strings.Builder
	for i := 0; i < len(intPart); i++ {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteByte(intPart[i])
	}

	out := b.String() + "," + fracPart
	if negative {
		out = "-" + out
	}
	return out
}

// ParseDate tries each layout in DateLayouts and returns the first match.
func ParseDate(text string) (time.Time, bool) {
	v := strings.TrimSpace(text)
	if v == "" {
		return time.Time{}, false
	}

	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDocument strips formatting punctuation from a CNPJ/CPF. It does
// not validate check digits or length; validation is the caller's concern.
func NormalizeDocument(text string) string {
	return documentPunctuation.ReplaceAllString(strings.TrimSpace(text), "")
}

// LooksLikeDocument reports whether an entire value is formatted as a CNPJ
// or CPF, with or without punctuation.
func LooksLikeDocument(text string) bool {
	v := strings.TrimSpace(text)
	return cnpjPattern.MatchString(v) || cpfPattern.MatchString(v)
}

// ExtractDocument searches free text for an embedded CNPJ (14 digits) and
// then a CPF (11 digits), returning the first match normalized to digits.
// Returns the empty string when neither is found.
func ExtractDocument(text string) string {
	if m := cnpjSearch.FindString(text); m != "" {
		return NormalizeDocument(m)
	}
	if m := cpfSearch.FindString(text); m != "" {
		return NormalizeDocument(m)
	}
	return ""
}
