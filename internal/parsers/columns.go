package parsers

import (
	"strings"

	"conciliador/internal/normalize"
)

// Role is the inferred purpose of a tabular column.
type Role string

const (
	RoleValue      Role = "value"
	RoleDate       Role = "date"
	RoleIdentifier Role = "identifier"
	RoleName       Role = "name"
	RoleUnknown    Role = "unknown"
)

// Header vocabularies. Portuguese terms dominate because the primary locale
// is Brazilian billing files; English aliases cover exported reports.
var (
	valueHints = []string{"valor", "value", "montante", "amount", "total", "face_value", "vl_", "vlr"}
	dateHints  = []string{"data", "date", "vencimento", "due", "dt_", "emissao", "pagamento"}
	nameHints  = []string{"nome", "name", "razao", "razão"}
	docHints   = []string{"cnpj", "cpf", "documento", "doc"}

	// Counter-party role words that label either an identifier or a name
	// column depending on what the cells actually hold.
	ambiguousHints = []string{"sacado", "pagador", "cedente", "devedor"}

	paymentVocabulary    = []string{"pagamento", "pagador", "pago", "paga", "payment", "paid", "extrato"}
	receivableVocabulary = []string{"recebivel", "recebiveis", "sacado", "cedente", "vencimento", "receivable"}
)

// headerRule binds a header vocabulary to the role it decides. Rules are
// evaluated in order and the first hit wins, so specific vocabularies
// (names, identifiers) must precede generic ones (values, dates).
type headerRule struct {
	Role  Role
	Hints []string
}

var headerRules = []headerRule{
	{Role: RoleName, Hints: nameHints},
	{Role: RoleIdentifier, Hints: docHints},
	{Role: RoleValue, Hints: valueHints},
	{Role: RoleDate, Hints: dateHints},
}

// SampleSize is how many leading data rows feed the sample-based fallback.
const SampleSize = 20

// ClassifyColumn assigns a role to one column given its header and up to
// SampleSize sample values.
//
// Precedence, first match wins:
//  1. header vocabulary rules (headerRules, in order)
//  2. ambiguous counter-party headers, resolved by sampling: >30% of
//     non-empty samples shaped like a CNPJ/CPF means identifier, else name
//  3. no header hint: >50% identifier-shaped samples means identifier,
//     then >70% parseable amounts means value, then >70% parseable dates
//     means date, else name
//
// Columns with no header hint and no non-empty samples are unknown.
func ClassifyColumn(header string, samples []string) Role {
	h := strings.ToLower(strings.TrimSpace(header))

	for _, rule := range headerRules {
		if containsAny(h, rule.Hints) {
			return rule.Role
		}
	}

	nonEmpty := nonEmptySamples(samples)

	if containsAny(h, ambiguousHints) {
		if countDocuments(nonEmpty) > len(nonEmpty)*30/100 {
			return RoleIdentifier
		}
		return RoleName
	}

	if len(nonEmpty) == 0 {
		return RoleUnknown
	}

	if countDocuments(nonEmpty)*2 > len(nonEmpty) {
		return RoleIdentifier
	}
	if countAmounts(nonEmpty)*10 > len(nonEmpty)*7 {
		return RoleValue
	}
	if countDates(nonEmpty)*10 > len(nonEmpty)*7 {
		return RoleDate
	}

	return RoleName
}

// FileType is the inferred side of the ledger a tabular file describes.
type FileType string

const (
	FileTypeReceivable FileType = "receivable"
	FileTypePayment    FileType = "payment"
)

// DetectFileType counts payment and receivable vocabulary hits across all
// headers. Payment must strictly outscore receivable; ties go to receivable.
func DetectFileType(headers []string) FileType {
	joined := strings.ToLower(strings.Join(headers, " "))

	payScore := 0
	for _, hint := range paymentVocabulary {
		if strings.Contains(joined, hint) {
			payScore++
		}
	}

	recvScore := 0
	for _, hint := range receivableVocabulary {
		if strings.Contains(joined, hint) {
			recvScore++
		}
	}

	if payScore > recvScore {
		return FileTypePayment
	}
	return FileTypeReceivable
}

func containsAny(s string, hints []string) bool {
	for _, hint := range hints {
		if strings.Contains(s, hint) {
			return true
		}
	}
	return false
}

func nonEmptySamples(samples []string) []string {
	var out []string
	for _, s := range samples {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func countDocuments(samples []string) int {
	n := 0
	for _, s := range samples {
		if normalize.LooksLikeDocument(s) {
			n++
		}
	}
	return n
}

func countAmounts(samples []string) int {
	n := 0
	for _, s := range samples {
		if _, ok := normalize.ParseAmount(s); ok {
			n++
		}
	}
	return n
}

func countDates(samples []string) int {
	n := 0
	for _, s := range samples {
		if _, ok := normalize.ParseDate(s); ok {
			n++
		}
	}
	return n
}
