package reconciler

import (
	"testing"

	"bank-reconciliation-engine/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDifferenceFormula(t *testing.T) {
	// statement 1000, book 950, one unmatched bank credit of 40 and one
	// unmatched book debit of 10:
	//   1000 - 950 + 40 - (-10) = 100
	txs := []*models.StatementTransaction{mkTx("ST-0001", "deposit", 0, 40, testDate)}
	entries := []*models.LedgerEntry{mkEntry("GL-001", "fee", 10, 0, testDate)}

	s, err := NewSession("ACC-001", testDate,
		decimal.NewFromInt(1000), decimal.NewFromInt(950), txs, entries, nil)
	require.NoError(t, err)

	assert.True(t, s.Difference().Equal(decimal.NewFromInt(100)),
		"got %s", s.Difference())
	assert.Equal(t, StatusDiscrepancy, s.Status())
}

func TestDifferenceStableUnderEqualMatch(t *testing.T) {
	txs := []*models.StatementTransaction{mkTx("ST-0001", "supplies", 125.50, 0, testDate)}
	entries := []*models.LedgerEntry{mkEntry("GL-001", "supplies", 125.50, 0, testDate)}

	s, err := NewSession("ACC-001", testDate,
		decimal.NewFromInt(500), decimal.NewFromInt(500), txs, entries, nil)
	require.NoError(t, err)

	// Unmatched movements cancel out here, so the difference is zero
	// both before and after the match; the status moves instead.
	require.True(t, s.Difference().IsZero())

	require.NoError(t, s.AddMatch(mkManual("ST-0001", "GL-001")))
	assert.True(t, s.Difference().IsZero())
	assert.Equal(t, StatusCompleted, s.Status())
}

func TestStatusTransitions(t *testing.T) {
	txs := []*models.StatementTransaction{
		mkTx("ST-0001", "a", 100, 0, testDate),
		mkTx("ST-0002", "b", 55, 0, testDate),
	}
	entries := []*models.LedgerEntry{
		mkEntry("GL-001", "a", 100, 0, testDate),
	}

	s, err := NewSession("ACC-001", testDate,
		decimal.NewFromInt(1000), decimal.NewFromInt(700), txs, entries, nil)
	require.NoError(t, err)

	// Non-zero residual with no matches at all.
	assert.Equal(t, StatusDiscrepancy, s.Status())

	// Matching an equal pair removes the same amount from both sides:
	// the difference is unchanged, but the status moves to in-progress.
	before := s.Difference()
	require.NoError(t, s.AddMatch(mkManual("ST-0001", "GL-001")))
	assert.True(t, s.Difference().Equal(before))
	assert.Equal(t, StatusInProgress, s.Status())
}

func TestStatusInProgress(t *testing.T) {
	txs := []*models.StatementTransaction{
		mkTx("ST-0001", "a", 100, 0, testDate),
	}
	entries := []*models.LedgerEntry{
		mkEntry("GL-001", "a", 100, 0, testDate),
	}

	s, err := NewSession("ACC-001", testDate,
		decimal.NewFromInt(1000), decimal.NewFromInt(700), txs, entries, nil)
	require.NoError(t, err)
	require.NoError(t, s.AddMatch(mkManual("ST-0001", "GL-001")))

	// A 300 residual remains with one match committed.
	assert.True(t, s.Difference().Equal(decimal.NewFromInt(300)))
	assert.Equal(t, StatusInProgress, s.Status())
}

func TestCompletionTolerance(t *testing.T) {
	s, err := NewSession("ACC-001", testDate,
		decimal.NewFromFloat(1000.005), decimal.NewFromInt(1000), nil, nil, nil)
	require.NoError(t, err)

	// Half a cent is inside the rounding tolerance.
	assert.Equal(t, StatusCompleted, s.Status())

	s2, err := NewSession("ACC-001", testDate,
		decimal.NewFromFloat(1000.01), decimal.NewFromInt(1000), nil, nil, nil)
	require.NoError(t, err)
	assert.NotEqual(t, StatusCompleted, s2.Status())
}

func TestSummarize(t *testing.T) {
	txs := []*models.StatementTransaction{
		mkTx("ST-0001", "a", 100, 0, testDate),
		mkTx("ST-0002", "b", 0, 40, testDate),
	}
	entries := []*models.LedgerEntry{
		mkEntry("GL-001", "a", 100, 0, testDate),
		mkEntry("GL-002", "c", 10, 0, testDate),
	}

	s, err := NewSession("ACC-001", testDate,
		decimal.NewFromInt(1000), decimal.NewFromInt(950), txs, entries, nil)
	require.NoError(t, err)
	require.NoError(t, s.AddMatch(mkManual("ST-0001", "GL-001")))

	summary := s.Summarize()
	assert.Equal(t, "ACC-001", summary.BankAccountID)
	assert.Equal(t, 1, summary.MatchedCount)
	assert.Equal(t, 1, summary.UnmatchedStatementCount)
	assert.Equal(t, 1, summary.UnmatchedLedgerCount)
	assert.True(t, summary.UnmatchedStatementAmount.Equal(decimal.NewFromInt(40)))
	assert.True(t, summary.UnmatchedLedgerAmount.Equal(decimal.NewFromInt(-10)))
	// 1000 - 950 + 40 - (-10) = 100
	assert.True(t, summary.Difference.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, StatusInProgress, summary.Status)
}
