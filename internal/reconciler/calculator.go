package reconciler

import (
	"github.com/shopspring/decimal"

	"bank-reconciliation-engine/internal/models"
)

// completionTolerance is the residual under which a session counts as
// fully reconciled, matching the currency minor-unit rounding tolerance
// used by the scorer.
var completionTolerance = decimal.NewFromFloat(0.01)

// Difference computes the signed residual between the statement and
// book balances after accounting for unmatched items on both sides:
//
//	statementBalance - bookBalance
//	  + sum(unmatched statement credit - debit)
//	  - sum(unmatched ledger credit - debit)
//
// Zero means fully reconciled. Recomputed on every call.
func (s *Session) Difference() decimal.Decimal {
	difference := s.StatementBalance.Sub(s.BookBalance)

	for _, tx := range s.UnmatchedStatementTransactions() {
		difference = difference.Add(tx.Credit.Sub(tx.Debit))
	}
	for _, entry := range s.UnmatchedLedgerEntries("") {
		difference = difference.Sub(entry.Credit.Sub(entry.Debit))
	}
	return difference
}

// Status derives the reconciliation status from the current difference
// and match set. Never cached: every mutation to matches or balances is
// reflected on the next read.
func (s *Session) Status() Status {
	if s.Difference().Abs().LessThan(completionTolerance) {
		return StatusCompleted
	}
	if len(s.matches) > 0 {
		return StatusInProgress
	}
	return StatusDiscrepancy
}

// Summary is the aggregate view of a session used by reports and the
// persistence handoff.
type Summary struct {
	BankAccountID            string          `json:"bankAccountId"`
	StatementBalance         decimal.Decimal `json:"statementBalance"`
	BookBalance              decimal.Decimal `json:"bookBalance"`
	MatchedCount             int             `json:"matchedCount"`
	UnmatchedStatementCount  int             `json:"unmatchedStatementCount"`
	UnmatchedLedgerCount     int             `json:"unmatchedLedgerCount"`
	UnmatchedStatementAmount decimal.Decimal `json:"unmatchedStatementAmount"`
	UnmatchedLedgerAmount    decimal.Decimal `json:"unmatchedLedgerAmount"`
	Difference               decimal.Decimal `json:"difference"`
	Status                   Status          `json:"status"`
}

// Summarize computes the aggregate totals of the session.
func (s *Session) Summarize() *Summary {
	unmatchedTx := s.UnmatchedStatementTransactions()
	unmatchedEntries := s.UnmatchedLedgerEntries("")

	summary := &Summary{
		BankAccountID:           s.BankAccountID,
		StatementBalance:        s.StatementBalance,
		BookBalance:             s.BookBalance,
		MatchedCount:            len(s.matches),
		UnmatchedStatementCount: len(unmatchedTx),
		UnmatchedLedgerCount:    len(unmatchedEntries),
		Difference:              s.Difference(),
		Status:                  s.Status(),
	}

	summary.UnmatchedStatementAmount = sumStatementMovement(unmatchedTx)
	summary.UnmatchedLedgerAmount = sumLedgerMovement(unmatchedEntries)
	return summary
}

func sumStatementMovement(txs []*models.StatementTransaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Credit.Sub(tx.Debit))
	}
	return total
}

func sumLedgerMovement(entries []*models.LedgerEntry) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range entries {
		total = total.Add(entry.Credit.Sub(entry.Debit))
	}
	return total
}
