package reconciler

import (
	"fmt"
	"time"

	"bank-reconciliation-engine/internal/matcher"
	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/pkg/errors"
	"bank-reconciliation-engine/pkg/logger"

	"github.com/google/uuid"
)

// TopSuggestions ranks the currently unused ledger entries against a
// statement transaction for human review. The suggestion threshold is
// deliberately far below the auto-commit threshold.
func (s *Session) TopSuggestions(txID string, limit int) ([]matcher.Suggestion, error) {
	tx, ok := s.txByID[txID]
	if !ok {
		return nil, errors.ValidationError(errors.CodeMissingField, "statement transaction", txID)
	}
	return s.scorer.TopSuggestions(tx, s.entries, s.matches, limit), nil
}

// AcceptSuggestion commits a suggested pairing the user approved. The
// pair is scored at acceptance time so the stored score reflects the
// committed data.
func (s *Session) AcceptSuggestion(txID, entryID, reconciledBy string) (*models.Match, error) {
	tx, ok := s.txByID[txID]
	if !ok {
		return nil, errors.ValidationError(errors.CodeMissingField, "statement transaction", txID)
	}
	entry, ok := s.entryByID[entryID]
	if !ok {
		return nil, errors.ValidationError(errors.CodeMissingField, "ledger entry", entryID)
	}

	score := s.scorer.Score(tx, entry)
	m := &models.Match{
		ID:                uuid.NewString(),
		MatchType:         models.MatchSuggested,
		BankTransactionID: txID,
		GLEntryID:         entryID,
		MatchScore:        &score,
		ReconciledAt:      time.Now(),
		ReconciledBy:      reconciledBy,
	}

	if err := s.AddMatch(m); err != nil {
		return nil, err
	}
	return m, nil
}

// ManualMatch commits a user-selected grouping of statement transaction
// ids and ledger entry ids. Supported shapes:
//
//   - 1:1 — one manual match.
//   - 1:N — one one-to-many match; the first selected ledger entry is
//     the primary, the rest become related members.
//   - N:1 — one many-to-one match; the first selected statement
//     transaction is the primary, the rest become related members.
//   - N:N with equal counts — paired index-wise into N manual matches.
//
// Unequal counts above one on both sides are a usage error. Validation
// happens before anything commits: a rejected selection leaves the
// match set untouched.
func (s *Session) ManualMatch(txIDs, entryIDs []string, reconciledBy string) ([]*models.Match, error) {
	if len(txIDs) == 0 || len(entryIDs) == 0 {
		return nil, errors.ValidationError(errors.CodeInvalidSelection,
			"selection", fmt.Sprintf("%d statement, %d ledger", len(txIDs), len(entryIDs)))
	}
	if len(txIDs) > 1 && len(entryIDs) > 1 && len(txIDs) != len(entryIDs) {
		return nil, errors.ValidationError(errors.CodeInvalidSelection,
			"selection", fmt.Sprintf("%d statement, %d ledger", len(txIDs), len(entryIDs))).
			WithSuggestion("pick one statement transaction, one ledger entry, or equal counts of both")
	}

	if err := s.checkSelectionAvailable(txIDs, entryIDs); err != nil {
		return nil, err
	}

	now := time.Now()
	var matches []*models.Match

	switch {
	case len(txIDs) == 1 && len(entryIDs) == 1:
		matches = append(matches, &models.Match{
			ID:                uuid.NewString(),
			MatchType:         models.MatchManual,
			BankTransactionID: txIDs[0],
			GLEntryID:         entryIDs[0],
			ReconciledAt:      now,
			ReconciledBy:      reconciledBy,
		})

	case len(txIDs) == 1:
		matches = append(matches, &models.Match{
			ID:                uuid.NewString(),
			MatchType:         models.MatchManualOneToMany,
			BankTransactionID: txIDs[0],
			GLEntryID:         entryIDs[0],
			RelatedGLEntryIDs: entryIDs[1:],
			ReconciledAt:      now,
			ReconciledBy:      reconciledBy,
		})

	case len(entryIDs) == 1:
		matches = append(matches, &models.Match{
			ID:                        uuid.NewString(),
			MatchType:                 models.MatchManualManyToOne,
			BankTransactionID:         txIDs[0],
			GLEntryID:                 entryIDs[0],
			RelatedBankTransactionIDs: txIDs[1:],
			ReconciledAt:              now,
			ReconciledBy:              reconciledBy,
		})

	default:
		// Equal counts on both sides: pair index-wise.
		for i := range txIDs {
			matches = append(matches, &models.Match{
				ID:                uuid.NewString(),
				MatchType:         models.MatchManual,
				BankTransactionID: txIDs[i],
				GLEntryID:         entryIDs[i],
				ReconciledAt:      now,
				ReconciledBy:      reconciledBy,
			})
		}
	}

	for _, m := range matches {
		if err := s.AddMatch(m); err != nil {
			return nil, err
		}
	}

	s.logger.WithFields(logger.Fields{
		"statement_ids": len(txIDs),
		"ledger_ids":    len(entryIDs),
		"matches":       len(matches),
	}).Info("Committed manual match")

	return matches, nil
}

// checkSelectionAvailable validates every selected id before anything
// commits: unknown ids and ids already claimed by a match (as primary
// or related member) reject the whole selection, as do duplicates
// within the selection itself.
func (s *Session) checkSelectionAvailable(txIDs, entryIDs []string) error {
	usedTx, usedEntry := s.claimedIDs()

	seenTx := make(map[string]bool, len(txIDs))
	for _, id := range txIDs {
		if _, ok := s.txByID[id]; !ok {
			return errors.ValidationError(errors.CodeMissingField, "statement transaction", id)
		}
		if usedTx[id] {
			return errors.ValidationError(errors.CodeInvalidSelection, "statement transaction", id).
				WithSuggestion("the transaction is already part of another match; unmatch it first")
		}
		if seenTx[id] {
			return errors.ValidationError(errors.CodeInvalidSelection, "statement transaction", id).
				WithSuggestion("the same transaction was selected twice")
		}
		seenTx[id] = true
	}

	seenEntry := make(map[string]bool, len(entryIDs))
	for _, id := range entryIDs {
		if _, ok := s.entryByID[id]; !ok {
			return errors.ValidationError(errors.CodeMissingField, "ledger entry", id)
		}
		if usedEntry[id] {
			return errors.ValidationError(errors.CodeInvalidSelection, "ledger entry", id).
				WithSuggestion("the entry is already part of another match; unmatch it first")
		}
		if seenEntry[id] {
			return errors.ValidationError(errors.CodeInvalidSelection, "ledger entry", id).
				WithSuggestion("the same entry was selected twice")
		}
		seenEntry[id] = true
	}

	return nil
}

// Unmatch removes the match whose primary statement transaction id or
// primary ledger entry id equals the given id. The whole record is
// deleted: related members return to the unmatched pools implicitly
// because the pools are computed, not stored.
func (s *Session) Unmatch(id string) error {
	for i, m := range s.matches {
		if m.BankTransactionID != id && m.GLEntryID != id {
			continue
		}

		for _, txID := range m.AllBankTransactionIDs() {
			if tx, ok := s.txByID[txID]; ok {
				tx.Matched = false
				tx.MatchedEntryID = ""
			}
		}

		s.matches = append(s.matches[:i], s.matches[i+1:]...)

		s.logger.WithFields(logger.Fields{
			"match_type": m.MatchType.String(),
			"tx_id":      m.BankTransactionID,
			"entry_id":   m.GLEntryID,
		}).Info("Removed match")
		return nil
	}

	return errors.ValidationError(errors.CodeMissingField, "match", id).
		WithSuggestion("the id is not the primary of any committed match")
}
