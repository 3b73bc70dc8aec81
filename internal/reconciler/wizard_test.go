package reconciler

import (
	"context"
	"testing"
	"time"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/parsers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wizardStatement = "Date,Description,Debit,Credit\n" +
	"15/01/2024,Office supplies Acme,125.50,\n" +
	"16/01/2024,Customer payment Beta,,1500.00\n" +
	"17/01/2024,Mystery wire,777.00,\n"

func wizardEntries() []*models.LedgerEntry {
	return []*models.LedgerEntry{
		mkEntry("GL-001", "Office supplies Acme", 125.50, 0, testDate),
		mkEntry("GL-002", "Customer payment Beta", 0, 1500.00, testDate.AddDate(0, 0, 1)),
	}
}

func TestWizardHappyPath(t *testing.T) {
	w := NewImportWizard(nil, nil)
	assert.Equal(t, StateIdle, w.State())

	var percents []int
	w.AddProgressCallback(func(percent int) {
		percents = append(percents, percent)
	})

	mapping, err := w.Start(wizardStatement)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitMapping, w.State())
	assert.Equal(t, 0, mapping.Date)
	assert.Equal(t, 1, mapping.Description)
	assert.Equal(t, 2, mapping.Debit)
	assert.Equal(t, 3, mapping.Credit)

	roles := w.ProposedRoles()
	require.Len(t, roles, 4)
	assert.Equal(t, parsers.RoleDate, roles[0])

	build, err := w.ConfirmMapping(nil)
	require.NoError(t, err)
	assert.Equal(t, StateReadyToMatch, w.State())
	require.Len(t, build.Transactions, 3)

	session, err := w.CreateSession("ACC-001", testDate,
		decimal.NewFromInt(1000), decimal.NewFromInt(1000), wizardEntries())
	require.NoError(t, err)

	committed, err := w.AutoMatch(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, StateReview, w.State())
	assert.Equal(t, 2, committed)
	assert.Len(t, session.Matches(), 2)

	// One progress report per transaction, ending at 100.
	require.Len(t, percents, 3)
	assert.Equal(t, 100, percents[len(percents)-1])

	// The mystery wire found no counterpart.
	unmatched := session.UnmatchedStatementTransactions()
	require.Len(t, unmatched, 1)
	assert.Equal(t, "Mystery wire", unmatched[0].Description)

	require.NoError(t, w.Finish())
	assert.Equal(t, StateDone, w.State())
}

func TestWizardMappingOverride(t *testing.T) {
	w := NewImportWizard(nil, nil)

	// Headers that inference cannot classify.
	raw := "When,What,Out,In\n15/01/2024,Supplies,125.50,\n"
	proposal, err := w.Start(raw)
	require.NoError(t, err)
	assert.Equal(t, -1, proposal.Date)

	// Confirming the unusable proposal fails and keeps the wizard
	// waiting so the user can correct the mapping and retry.
	_, err = w.ConfirmMapping(nil)
	require.Error(t, err)
	assert.Equal(t, StateAwaitMapping, w.State())

	override := parsers.NewColumnMapping()
	override.Date = 0
	override.Description = 1
	override.Debit = 2
	override.Credit = 3

	build, err := w.ConfirmMapping(override)
	require.NoError(t, err)
	assert.Equal(t, StateReadyToMatch, w.State())
	require.Len(t, build.Transactions, 1)
	assert.Equal(t, "Supplies", build.Transactions[0].Description)
}

func TestWizardCancellationKeepsCommittedMatches(t *testing.T) {
	w := NewImportWizard(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	// Cancel as soon as the first transaction reports progress: the
	// check before the next step stops the run.
	w.AddProgressCallback(func(percent int) {
		cancel()
	})

	_, err := w.Start(wizardStatement)
	require.NoError(t, err)
	_, err = w.ConfirmMapping(nil)
	require.NoError(t, err)

	session, err := w.CreateSession("ACC-001", testDate,
		decimal.NewFromInt(1000), decimal.NewFromInt(1000), wizardEntries())
	require.NoError(t, err)

	committed, err := w.AutoMatch(ctx, session)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateReview, w.State())

	// The first transaction's match was committed before the
	// cancellation and stays committed.
	assert.Equal(t, 1, committed)
	assert.Len(t, session.Matches(), 1)
}

func TestWizardStateGuards(t *testing.T) {
	w := NewImportWizard(nil, nil)

	_, err := w.ConfirmMapping(nil)
	assert.Error(t, err)

	_, err = w.CreateSession("ACC-001", testDate, decimal.Zero, decimal.Zero, nil)
	assert.Error(t, err)

	_, err = w.AutoMatch(context.Background(), nil)
	assert.Error(t, err)

	assert.Error(t, w.Finish())

	_, err = w.Start("Date,Description\n15/01/2024,x\n")
	require.NoError(t, err)

	// Starting twice is a state error.
	_, err = w.Start("Date,Description\n15/01/2024,x\n")
	assert.Error(t, err)
}

func TestWizardStatementDateDefaults(t *testing.T) {
	w := NewImportWizard(nil, nil)
	_, err := w.Start("Date,Description,Debit\n15/01/2024,Fees,15.00\n")
	require.NoError(t, err)
	build, err := w.ConfirmMapping(nil)
	require.NoError(t, err)

	tx := build.Transactions[0]
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), tx.TransactionDate)
	assert.Equal(t, tx.TransactionDate, tx.ValueDate)
}
