// Package models defines the core data types of the reconciliation
// engine: statement transactions, ledger entries and matches.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MatchType classifies how a match between a statement transaction and
// a ledger entry was established.
type MatchType string

const (
	// MatchExact is an auto-match with a perfect confidence score.
	MatchExact MatchType = "exact"
	// MatchFuzzy is an auto-match above the commit threshold but below
	// a perfect score.
	MatchFuzzy MatchType = "fuzzy"
	// MatchManual is a user-selected one-to-one match.
	MatchManual MatchType = "manual"
	// MatchManualOneToMany links one statement transaction to several
	// ledger entries.
	MatchManualOneToMany MatchType = "manual-one-to-many"
	// MatchManualManyToOne links several statement transactions to one
	// ledger entry.
	MatchManualManyToOne MatchType = "manual-many-to-one"
	// MatchSuggested is a scored suggestion the user accepted.
	MatchSuggested MatchType = "suggested"
)

// String returns the string representation of MatchType.
func (mt MatchType) String() string {
	return string(mt)
}

// IsValid checks if the match type is one of the supported kinds.
func (mt MatchType) IsValid() bool {
	switch mt {
	case MatchExact, MatchFuzzy, MatchManual, MatchManualOneToMany,
		MatchManualManyToOne, MatchSuggested:
		return true
	}
	return false
}

// StatementTransaction is one externally reported cash movement, parsed
// from a bank statement. It is immutable once parsed except for the
// Matched/MatchedEntryID bookkeeping fields.
type StatementTransaction struct {
	ID              string          `json:"id"`
	TransactionDate time.Time       `json:"transactionDate"`
	ValueDate       time.Time       `json:"valueDate"`
	Description     string          `json:"description"`
	Reference       string          `json:"reference,omitempty"`
	Debit           decimal.Decimal `json:"debit"`
	Credit          decimal.Decimal `json:"credit"`
	RunningBalance  decimal.Decimal `json:"runningBalance"`
	Matched         bool            `json:"matched"`
	MatchedEntryID  string          `json:"matchedEntryId,omitempty"`
}

// NewStatementTransaction creates a statement transaction with the
// mandatory fields set.
func NewStatementTransaction(id string, date time.Time, description string, debit, credit decimal.Decimal) *StatementTransaction {
	return &StatementTransaction{
		ID:              id,
		TransactionDate: date,
		ValueDate:       date,
		Description:     description,
		Debit:           debit,
		Credit:          credit,
	}
}

// SignedAmount returns the cash movement as a signed value: positive
// for credits, negative for debits.
func (tx *StatementTransaction) SignedAmount() decimal.Decimal {
	if tx.Credit.IsPositive() {
		return tx.Credit
	}
	return tx.Debit.Neg()
}

// Validate performs basic validation on the statement transaction.
func (tx *StatementTransaction) Validate() error {
	if strings.TrimSpace(tx.ID) == "" {
		return fmt.Errorf("statement transaction id cannot be empty")
	}
	if tx.Debit.IsNegative() {
		return fmt.Errorf("debit cannot be negative: %s", tx.Debit.String())
	}
	if tx.Credit.IsNegative() {
		return fmt.Errorf("credit cannot be negative: %s", tx.Credit.String())
	}
	if tx.TransactionDate.IsZero() {
		return fmt.Errorf("transaction date cannot be zero")
	}
	return nil
}

// String returns a string representation of the transaction.
func (tx *StatementTransaction) String() string {
	return fmt.Sprintf("StatementTransaction{ID: %s, Date: %s, Debit: %s, Credit: %s, Desc: %q}",
		tx.ID, tx.TransactionDate.Format("2006-01-02"), tx.Debit.String(), tx.Credit.String(), tx.Description)
}

// LedgerEntry is one internal book record, supplied read-only by the
// external ledger subsystem and scoped to a single account.
type LedgerEntry struct {
	ID                   string          `json:"id"`
	AccountID            string          `json:"accountId"`
	TransactionDate      time.Time       `json:"transactionDate"`
	Description          string          `json:"description"`
	Debit                decimal.Decimal `json:"debit"`
	Credit               decimal.Decimal `json:"credit"`
	SourceDocumentNumber string          `json:"sourceDocumentNumber,omitempty"`
	AccountName          string          `json:"accountName,omitempty"`
}

// NewLedgerEntry creates a ledger entry with the mandatory fields set.
func NewLedgerEntry(id, accountID string, date time.Time, description string, debit, credit decimal.Decimal) *LedgerEntry {
	return &LedgerEntry{
		ID:              id,
		AccountID:       accountID,
		TransactionDate: date,
		Description:     description,
		Debit:           debit,
		Credit:          credit,
	}
}

// SignedAmount returns the book movement as a signed value: positive
// for credits, negative for debits.
func (e *LedgerEntry) SignedAmount() decimal.Decimal {
	if e.Credit.IsPositive() {
		return e.Credit
	}
	return e.Debit.Neg()
}

// Validate performs basic validation on the ledger entry.
func (e *LedgerEntry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("ledger entry id cannot be empty")
	}
	if strings.TrimSpace(e.AccountID) == "" {
		return fmt.Errorf("ledger entry account id cannot be empty")
	}
	if e.Debit.IsNegative() {
		return fmt.Errorf("debit cannot be negative: %s", e.Debit.String())
	}
	if e.Credit.IsNegative() {
		return fmt.Errorf("credit cannot be negative: %s", e.Credit.String())
	}
	return nil
}

// String returns a string representation of the entry.
func (e *LedgerEntry) String() string {
	return fmt.Sprintf("LedgerEntry{ID: %s, Account: %s, Date: %s, Debit: %s, Credit: %s}",
		e.ID, e.AccountID, e.TransactionDate.Format("2006-01-02"), e.Debit.String(), e.Credit.String())
}

// Match links one primary statement transaction to one primary ledger
// entry, optionally folding extra ids into a one-to-many or many-to-one
// grouping. The match set forms a partition: an id may be a primary of
// at most one match and may never be both a primary and a related
// member across matches.
type Match struct {
	ID                        string    `json:"id"`
	MatchType                 MatchType `json:"matchType"`
	BankTransactionID         string    `json:"bankTransactionId"`
	GLEntryID                 string    `json:"glEntryId"`
	MatchScore                *int      `json:"matchScore,omitempty"`
	RelatedGLEntryIDs         []string  `json:"relatedGLEntryIds,omitempty"`
	RelatedBankTransactionIDs []string  `json:"relatedBankTransactionIds,omitempty"`
	ReconciledAt              time.Time `json:"reconciledAt"`
	ReconciledBy              string    `json:"reconciledBy,omitempty"`
}

// Validate performs basic validation on the match record.
func (m *Match) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("match id cannot be empty")
	}
	if !m.MatchType.IsValid() {
		return fmt.Errorf("invalid match type: %s", m.MatchType)
	}
	if strings.TrimSpace(m.BankTransactionID) == "" {
		return fmt.Errorf("match must reference a primary statement transaction")
	}
	if strings.TrimSpace(m.GLEntryID) == "" {
		return fmt.Errorf("match must reference a primary ledger entry")
	}
	if m.MatchScore != nil && (*m.MatchScore < 0 || *m.MatchScore > 100) {
		return fmt.Errorf("match score out of range: %d", *m.MatchScore)
	}
	return nil
}

// AllGLEntryIDs returns the primary and related ledger entry ids.
func (m *Match) AllGLEntryIDs() []string {
	ids := []string{m.GLEntryID}
	return append(ids, m.RelatedGLEntryIDs...)
}

// AllBankTransactionIDs returns the primary and related statement
// transaction ids.
func (m *Match) AllBankTransactionIDs() []string {
	ids := []string{m.BankTransactionID}
	return append(ids, m.RelatedBankTransactionIDs...)
}

// String returns a string representation of the match.
func (m *Match) String() string {
	score := "-"
	if m.MatchScore != nil {
		score = fmt.Sprintf("%d", *m.MatchScore)
	}
	return fmt.Sprintf("Match{%s: tx=%s entry=%s score=%s}",
		m.MatchType, m.BankTransactionID, m.GLEntryID, score)
}

// MarshalJSON formats the reconciliation timestamp as RFC3339.
func (m *Match) MarshalJSON() ([]byte, error) {
	type Alias Match
	return json.Marshal(&struct {
		ReconciledAt string `json:"reconciledAt"`
		*Alias
	}{
		ReconciledAt: m.ReconciledAt.Format(time.RFC3339),
		Alias:        (*Alias)(m),
	})
}

// StatementRecord is a pre-structured statement row supplied by a
// caller that bypasses the CSV parser.
type StatementRecord struct {
	TransactionDate time.Time       `json:"transactionDate"`
	ValueDate       time.Time       `json:"valueDate"`
	Description     string          `json:"description"`
	Reference       string          `json:"reference,omitempty"`
	Debit           decimal.Decimal `json:"debit"`
	Credit          decimal.Decimal `json:"credit"`
	Balance         decimal.Decimal `json:"balance"`
}

// ParseDecimalFromString parses a decimal amount, stripping common
// currency symbols and thousand separators first.
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}
	return d, nil
}
