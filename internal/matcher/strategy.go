package matcher

import (
	"time"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/pkg/logger"

	"github.com/google/uuid"
)

// MatchingStrategy is an automatic matching algorithm. A strategy never
// mutates its inputs: it receives the current match set and returns only
// the new matches it would commit, leaving the session to apply them
// atomically. Re-running a strategy on an unchanged session yields no
// additional matches because every previously claimed id is excluded.
type MatchingStrategy interface {
	// Name identifies the strategy in logs and reports.
	Name() string

	// Run proposes matches for the currently unmatched statement
	// transactions against the currently unused ledger entries.
	Run(txs []*models.StatementTransaction, entries []*models.LedgerEntry, existing []*models.Match) []*models.Match
}

// usedIDs computes the claimed statement and ledger ids from the
// current match set, including related members of grouped matches.
func usedIDs(existing []*models.Match) (usedTx, usedEntry map[string]bool) {
	usedTx = make(map[string]bool)
	usedEntry = make(map[string]bool)
	for _, m := range existing {
		for _, id := range m.AllBankTransactionIDs() {
			usedTx[id] = true
		}
		for _, id := range m.AllGLEntryIDs() {
			usedEntry[id] = true
		}
	}
	return usedTx, usedEntry
}

// StrictStrategy is the greedy, single-pass auto-matcher used on the
// final reconciliation screen. For each unmatched statement transaction
// in input order it scores all unused ledger entries, keeps candidates
// at or above the commit threshold, and claims the highest-scoring one.
// Ties break by ledger input order: the first highest-scoring candidate
// encountered wins. This is a known simplification, not a global
// optimum solver.
type StrictStrategy struct {
	scorer *Scorer
	config *Config
	logger logger.Logger
}

// NewStrictStrategy creates the strict auto-match strategy.
func NewStrictStrategy(config *Config) *StrictStrategy {
	if config == nil {
		config = DefaultConfig()
	}
	return &StrictStrategy{
		scorer: NewScorer(config),
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("strict_matcher"),
	}
}

// Name implements MatchingStrategy.
func (s *StrictStrategy) Name() string { return "strict" }

// Run implements MatchingStrategy.
func (s *StrictStrategy) Run(txs []*models.StatementTransaction, entries []*models.LedgerEntry, existing []*models.Match) []*models.Match {
	usedTx, usedEntry := usedIDs(existing)

	var matches []*models.Match
	for _, tx := range txs {
		if usedTx[tx.ID] {
			continue
		}

		var best *models.LedgerEntry
		bestScore := 0
		for _, entry := range entries {
			if usedEntry[entry.ID] {
				continue
			}
			score := s.scorer.Score(tx, entry)
			if score < s.config.AutoMatchThreshold {
				continue
			}
			if score > bestScore {
				best = entry
				bestScore = score
			}
		}

		if best == nil {
			continue
		}

		matchType := models.MatchFuzzy
		if bestScore == maxScore {
			matchType = models.MatchExact
		}

		score := bestScore
		matches = append(matches, &models.Match{
			ID:                uuid.NewString(),
			MatchType:         matchType,
			BankTransactionID: tx.ID,
			GLEntryID:         best.ID,
			MatchScore:        &score,
			ReconciledAt:      time.Now(),
			ReconciledBy:      "auto-match",
		})

		// Claimed within this run: no later transaction may take it.
		usedTx[tx.ID] = true
		usedEntry[best.ID] = true
	}

	s.logger.WithFields(logger.Fields{
		"transactions": len(txs),
		"entries":      len(entries),
		"matches":      len(matches),
	}).Info("Strict auto-match completed")

	return matches
}

// ImportStrategy is the coarser auto-matcher used during initial
// statement ingestion. For each statement transaction it takes the
// first ledger entry whose amount matches within the exact tolerance
// and whose date falls within the import window or whose leading
// description characters cross-contain. It does not rank candidates and
// is intentionally less precise than the strict strategy.
type ImportStrategy struct {
	config *Config
	logger logger.Logger
}

// NewImportStrategy creates the import-time auto-match strategy.
func NewImportStrategy(config *Config) *ImportStrategy {
	if config == nil {
		config = DefaultConfig()
	}
	return &ImportStrategy{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("import_matcher"),
	}
}

// Name implements MatchingStrategy.
func (s *ImportStrategy) Name() string { return "import" }

// Run implements MatchingStrategy.
func (s *ImportStrategy) Run(txs []*models.StatementTransaction, entries []*models.LedgerEntry, existing []*models.Match) []*models.Match {
	usedTx, usedEntry := usedIDs(existing)

	var matches []*models.Match
	for _, tx := range txs {
		if usedTx[tx.ID] {
			continue
		}

		for _, entry := range entries {
			if usedEntry[entry.ID] {
				continue
			}
			if !s.qualifies(tx, entry) {
				continue
			}

			score := maxScore
			matches = append(matches, &models.Match{
				ID:                uuid.NewString(),
				MatchType:         models.MatchExact,
				BankTransactionID: tx.ID,
				GLEntryID:         entry.ID,
				MatchScore:        &score,
				ReconciledAt:      time.Now(),
				ReconciledBy:      "auto-match",
			})
			usedTx[tx.ID] = true
			usedEntry[entry.ID] = true
			break
		}
	}

	s.logger.WithFields(logger.Fields{
		"transactions": len(txs),
		"entries":      len(entries),
		"matches":      len(matches),
	}).Info("Import auto-match completed")

	return matches
}

// qualifies implements the first-hit rule: amount within tolerance AND
// (date within the window OR description prefixes cross-contain).
func (s *ImportStrategy) qualifies(tx *models.StatementTransaction, entry *models.LedgerEntry) bool {
	diff := tx.SignedAmount().Sub(entry.SignedAmount()).Abs()
	if !diff.LessThan(s.config.AmountExactTolerance) {
		return false
	}

	if wholeDaysBetween(tx.TransactionDate, entry.TransactionDate) <= s.config.ImportDateToleranceDays {
		return true
	}
	return crossContains(prefix(tx.Description, s.config.DescriptionPrefixLength),
		prefix(entry.Description, s.config.DescriptionPrefixLength))
}

func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
