// Package reconciler holds the reconciliation session aggregate: the
// match set, the manual matching operations, the balance calculator and
// the import wizard that sequences a statement import end to end.
//
// The match list is the single source of truth. Unmatched pools are
// derived by set subtraction on every read, never maintained as a
// separately mutated cache, which eliminates a whole class of
// synchronization bugs between the pools and the match set.
package reconciler

import (
	"encoding/json"
	"strings"
	"time"

	"bank-reconciliation-engine/internal/matcher"
	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/pkg/errors"
	"bank-reconciliation-engine/pkg/logger"

	"github.com/shopspring/decimal"
)

// Status is the derived reconciliation state of a session.
type Status string

const (
	// StatusCompleted means the difference is zero within the currency
	// rounding tolerance.
	StatusCompleted Status = "completed"
	// StatusInProgress means at least one match exists but the
	// difference has not reached zero.
	StatusInProgress Status = "in-progress"
	// StatusDiscrepancy means a non-zero difference with no matches at
	// all.
	StatusDiscrepancy Status = "discrepancy"
)

// Session is the reconciliation aggregate for one bank account and one
// statement date. It owns the match set; statement transactions and
// ledger entries are held as read-only inputs for the session's
// lifetime. Status and difference are recomputed on every read.
type Session struct {
	BankAccountID    string          `json:"bankAccountId"`
	StatementDate    time.Time       `json:"statementDate"`
	StatementBalance decimal.Decimal `json:"statementBalance"`
	BookBalance      decimal.Decimal `json:"bookBalance"`

	transactions []*models.StatementTransaction
	entries      []*models.LedgerEntry
	matches      []*models.Match

	txByID    map[string]*models.StatementTransaction
	entryByID map[string]*models.LedgerEntry

	scorer *matcher.Scorer
	config *matcher.Config
	logger logger.Logger
}

// NewSession creates a reconciliation session over the supplied
// statement transactions and account-scoped ledger entries.
func NewSession(
	bankAccountID string,
	statementDate time.Time,
	statementBalance, bookBalance decimal.Decimal,
	transactions []*models.StatementTransaction,
	entries []*models.LedgerEntry,
	config *matcher.Config,
) (*Session, error) {
	if strings.TrimSpace(bankAccountID) == "" {
		return nil, errors.ValidationError(errors.CodeMissingField, "bankAccountId", bankAccountID)
	}
	if config == nil {
		config = matcher.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ValidationError(errors.CodeInvalidConfig, "matcher", err.Error())
	}

	s := &Session{
		BankAccountID:    bankAccountID,
		StatementDate:    statementDate,
		StatementBalance: statementBalance,
		BookBalance:      bookBalance,
		transactions:     transactions,
		entries:          entries,
		txByID:           make(map[string]*models.StatementTransaction, len(transactions)),
		entryByID:        make(map[string]*models.LedgerEntry, len(entries)),
		scorer:           matcher.NewScorer(config),
		config:           config,
		logger:           logger.GetGlobalLogger().WithComponent("session"),
	}

	for _, tx := range transactions {
		if _, dup := s.txByID[tx.ID]; dup {
			return nil, errors.ValidationError(errors.CodeInvalidData, "statement transaction id", tx.ID).
				WithSuggestion("statement transaction ids must be unique within an import batch")
		}
		s.txByID[tx.ID] = tx
	}
	for _, entry := range entries {
		if _, dup := s.entryByID[entry.ID]; dup {
			return nil, errors.ValidationError(errors.CodeInvalidData, "ledger entry id", entry.ID).
				WithSuggestion("ledger entry ids must be unique within the account scope")
		}
		s.entryByID[entry.ID] = entry
	}

	s.logger.WithFields(logger.Fields{
		"bank_account": bankAccountID,
		"transactions": len(transactions),
		"entries":      len(entries),
	}).Info("Created reconciliation session")

	return s, nil
}

// Transactions returns the statement transactions of the session.
func (s *Session) Transactions() []*models.StatementTransaction {
	return s.transactions
}

// Entries returns the account-scoped ledger entries of the session.
func (s *Session) Entries() []*models.LedgerEntry {
	return s.entries
}

// Matches returns a copy of the current match set.
func (s *Session) Matches() []*models.Match {
	matches := make([]*models.Match, len(s.matches))
	copy(matches, s.matches)
	return matches
}

// AddMatch commits a match after verifying the partition invariant:
// no referenced id may already be claimed by another match, whether as
// a primary or as a related member. The match set and the transaction
// bookkeeping fields update together.
func (s *Session) AddMatch(m *models.Match) error {
	if err := m.Validate(); err != nil {
		return errors.ValidationError(errors.CodeInvalidData, "match", err.Error())
	}

	for _, id := range m.AllBankTransactionIDs() {
		if _, ok := s.txByID[id]; !ok {
			return errors.InvariantViolation(errors.CodeUnknownID, id)
		}
	}
	for _, id := range m.AllGLEntryIDs() {
		if _, ok := s.entryByID[id]; !ok {
			return errors.InvariantViolation(errors.CodeUnknownID, id)
		}
	}

	usedTx, usedEntry := s.claimedIDs()
	for _, id := range m.AllBankTransactionIDs() {
		if usedTx[id] {
			return errors.InvariantViolation(errors.CodeDuplicatePrimary, id)
		}
	}
	for _, id := range m.AllGLEntryIDs() {
		if usedEntry[id] {
			return errors.InvariantViolation(errors.CodeDuplicatePrimary, id)
		}
	}

	s.matches = append(s.matches, m)
	for _, id := range m.AllBankTransactionIDs() {
		tx := s.txByID[id]
		tx.Matched = true
		tx.MatchedEntryID = m.GLEntryID
	}

	s.logger.WithFields(logger.Fields{
		"match_type": m.MatchType.String(),
		"tx_id":      m.BankTransactionID,
		"entry_id":   m.GLEntryID,
	}).Debug("Committed match")

	return nil
}

// claimedIDs computes every statement and ledger id referenced by the
// current match set, primaries and related members alike.
func (s *Session) claimedIDs() (usedTx, usedEntry map[string]bool) {
	usedTx = make(map[string]bool)
	usedEntry = make(map[string]bool)
	for _, m := range s.matches {
		for _, id := range m.AllBankTransactionIDs() {
			usedTx[id] = true
		}
		for _, id := range m.AllGLEntryIDs() {
			usedEntry[id] = true
		}
	}
	return usedTx, usedEntry
}

// UnmatchedStatementTransactions derives the pool of statement
// transactions not claimed by any match, in statement order.
func (s *Session) UnmatchedStatementTransactions() []*models.StatementTransaction {
	usedTx, _ := s.claimedIDs()

	var unmatched []*models.StatementTransaction
	for _, tx := range s.transactions {
		if !usedTx[tx.ID] {
			unmatched = append(unmatched, tx)
		}
	}
	return unmatched
}

// UnmatchedLedgerEntries derives the pool of ledger entries not claimed
// by any match as primary or related member, optionally filtered by a
// case-insensitive search term against description and source document
// number.
func (s *Session) UnmatchedLedgerEntries(search string) []*models.LedgerEntry {
	_, usedEntry := s.claimedIDs()
	search = strings.ToLower(strings.TrimSpace(search))

	var unmatched []*models.LedgerEntry
	for _, entry := range s.entries {
		if usedEntry[entry.ID] {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(entry.Description), search) &&
			!strings.Contains(strings.ToLower(entry.SourceDocumentNumber), search) {
			continue
		}
		unmatched = append(unmatched, entry)
	}
	return unmatched
}

// RunAutoMatch executes a matching strategy over the current unmatched
// pools and commits its proposals. Returns the number of new matches.
// Running the same strategy twice without data changes commits nothing
// on the second run.
func (s *Session) RunAutoMatch(strategy matcher.MatchingStrategy) (int, error) {
	proposals := strategy.Run(s.transactions, s.entries, s.matches)
	for _, m := range proposals {
		if err := s.AddMatch(m); err != nil {
			return 0, errors.InternalError("auto-match commit", err)
		}
	}

	s.logger.WithFields(logger.Fields{
		"strategy": strategy.Name(),
		"matches":  len(proposals),
	}).Info("Auto-match run completed")

	return len(proposals), nil
}

// sessionJSON is the persistence handoff shape of the aggregate.
type sessionJSON struct {
	BankAccountID                  string                         `json:"bankAccountId"`
	StatementDate                  string                         `json:"statementDate"`
	StatementBalance               decimal.Decimal                `json:"statementBalance"`
	BookBalance                    decimal.Decimal                `json:"bookBalance"`
	Matches                        []*models.Match                `json:"matches"`
	UnmatchedStatementTransactions []*models.StatementTransaction `json:"unmatchedStatementTransactions"`
	UnmatchedLedgerEntries         []*models.LedgerEntry          `json:"unmatchedLedgerEntries"`
	Difference                     decimal.Decimal                `json:"difference"`
	Status                         Status                         `json:"status"`
}

// MarshalJSON serializes the aggregate for the external persistence
// collaborator, with the derived pools, difference and status computed
// at marshal time.
func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(&sessionJSON{
		BankAccountID:                  s.BankAccountID,
		StatementDate:                  s.StatementDate.Format(time.RFC3339),
		StatementBalance:               s.StatementBalance,
		BookBalance:                    s.BookBalance,
		Matches:                        s.Matches(),
		UnmatchedStatementTransactions: s.UnmatchedStatementTransactions(),
		UnmatchedLedgerEntries:         s.UnmatchedLedgerEntries(""),
		Difference:                     s.Difference(),
		Status:                         s.Status(),
	})
}
