package matcher

import (
	"strings"
	"time"

	"bank-reconciliation-engine/internal/models"

	"github.com/shopspring/decimal"
)

// Component score caps. The scheme is additive and non-normalized on
// purpose: amount exactness alone reaches 50 and can never look
// confident by itself, while date and text evidence push a true match
// past the commit threshold even with imperfect descriptions.
const (
	maxAmountScore = 50
	maxDateScore   = 30
	maxTextScore   = 20
	maxScore       = 100
)

var (
	amountCloseBand = decimal.NewFromInt(1)
	amountNearBand  = decimal.NewFromInt(10)
)

// Scorer computes confidence scores for statement/ledger pairs.
type Scorer struct {
	config *Config
}

// NewScorer creates a scorer with the given configuration.
func NewScorer(config *Config) *Scorer {
	if config == nil {
		config = DefaultConfig()
	}
	return &Scorer{config: config}
}

// Score computes a 0-100 confidence score for a statement transaction
// and a ledger entry. Pure function of its inputs.
func (s *Scorer) Score(tx *models.StatementTransaction, entry *models.LedgerEntry) int {
	score := s.amountScore(tx, entry) + s.dateScore(tx, entry) + s.textScore(tx, entry)
	if score > maxScore {
		score = maxScore
	}
	return score
}

// amountScore awards up to 50 points for amount closeness, comparing
// the signed cash movements of both records.
func (s *Scorer) amountScore(tx *models.StatementTransaction, entry *models.LedgerEntry) int {
	diff := tx.SignedAmount().Sub(entry.SignedAmount()).Abs()

	switch {
	case diff.LessThan(s.config.AmountExactTolerance):
		return maxAmountScore
	case diff.LessThan(amountCloseBand):
		return 30
	case diff.LessThan(amountNearBand):
		return 10
	}
	return 0
}

// dateScore awards up to 30 points for transaction date proximity,
// measured in whole days.
func (s *Scorer) dateScore(tx *models.StatementTransaction, entry *models.LedgerEntry) int {
	days := wholeDaysBetween(tx.TransactionDate, entry.TransactionDate)

	switch {
	case days == 0:
		return maxDateScore
	case days <= 1:
		return 20
	case days <= 3:
		return 10
	case days <= 7:
		return 5
	}
	return 0
}

// textScore awards up to 20 points for textual similarity: 15 when one
// description contains the other (case-insensitive), plus 5 when both a
// statement reference and a ledger source document number are present
// and one contains the other.
func (s *Scorer) textScore(tx *models.StatementTransaction, entry *models.LedgerEntry) int {
	score := 0
	if crossContains(tx.Description, entry.Description) {
		score += 15
	}
	if crossContains(tx.Reference, entry.SourceDocumentNumber) {
		score += 5
	}
	return score
}

// crossContains reports whether one non-empty string contains the other,
// case-insensitively.
func crossContains(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// wholeDaysBetween returns the absolute difference between two dates in
// whole days, ignoring the time of day.
func wholeDaysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)

	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Hours() / 24)
}
