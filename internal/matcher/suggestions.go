package matcher

import (
	"sort"

	"bank-reconciliation-engine/internal/models"
)

// Suggestion is a scored ledger entry candidate offered for human
// review. Suggestions use a far lower threshold than the auto-commit
// path: they are hints, not decisions.
type Suggestion struct {
	Entry *models.LedgerEntry `json:"entry"`
	Score int                 `json:"score"`
}

// TopSuggestions ranks all currently unused ledger entries against the
// statement transaction and returns the best n at or above the
// suggestion threshold. A limit of 0 uses the configured default.
func (s *Scorer) TopSuggestions(tx *models.StatementTransaction, entries []*models.LedgerEntry, existing []*models.Match, limit int) []Suggestion {
	if limit <= 0 {
		limit = s.config.SuggestionLimit
	}

	_, usedEntry := usedIDs(existing)

	var suggestions []Suggestion
	for _, entry := range entries {
		if usedEntry[entry.ID] {
			continue
		}
		score := s.Score(tx, entry)
		if score >= s.config.SuggestionThreshold {
			suggestions = append(suggestions, Suggestion{Entry: entry, Score: score})
		}
	}

	// Stable sort keeps ledger input order between equal scores.
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}
